// Direct register access to the BCM283x GPIO block (Raspberry Pi 1-4).
// Writes go straight to the GPSET/GPCLR registers through a memory mapping,
// skipping the kernel for each toggle.
package bcm2835

import (
	"fmt"
	"sync"

	"softpwm/core"
)

const (
	// register word offsets
	regGPFSEL0 = 0x00 / 4
	regGPSET0  = 0x1C / 4
	regGPCLR0  = 0x28 / 4

	NumPins   = 54
	blockSize = 0xB4 // through GPPUDCLK1

	fselOutput = 0b001
)

// GPIOMem is a mapped GPIO register block
type GPIOMem struct {
	regs  []uint32
	unmap func() error

	fselLock sync.Mutex
	banks    [2]bank
}

// bank is one 32-pin half of the block; it implements core.Port
type bank struct {
	mem *GPIOMem
	idx int
}

func newGPIOMem(regs []uint32, unmap func() error) (*GPIOMem, error) {
	if len(regs) < blockSize/4 {
		return nil, fmt.Errorf("bcm2835: register window too small (%d words)", len(regs))
	}
	g := &GPIOMem{regs: regs, unmap: unmap}
	g.banks[0] = bank{mem: g, idx: 0}
	g.banks[1] = bank{mem: g, idx: 1}
	return g, nil
}

// PortFor maps a BCM pin number to its bank and bit
func (g *GPIOMem) PortFor(pin core.GPIOPin) (core.Port, uint32, error) {
	if pin >= NumPins {
		return nil, 0, fmt.Errorf("bcm2835: pin %d out of range 0-%d", pin, NumPins-1)
	}
	b := &g.banks[pin/32]
	return b, 1 << (pin % 32), nil
}

// Close unmaps the registers
func (g *GPIOMem) Close() error {
	if g.unmap == nil {
		return nil
	}
	err := g.unmap()
	g.unmap = nil
	g.regs = nil
	return err
}

// EnableOutput sets the function select of every pin in mask to output
func (b *bank) EnableOutput(mask uint32) {
	g := b.mem
	g.fselLock.Lock()
	defer g.fselLock.Unlock()

	for bit := uint32(0); bit < 32; bit++ {
		if mask&(1<<bit) == 0 {
			continue
		}
		pin := uint32(b.idx)*32 + bit
		reg := regGPFSEL0 + pin/10
		shift := (pin % 10) * 3
		v := g.regs[reg]
		v &^= 0b111 << shift
		v |= fselOutput << shift
		g.regs[reg] = v
	}
}

// SetBits drives the masked pins high
func (b *bank) SetBits(mask uint32) {
	b.mem.regs[regGPSET0+b.idx] = mask
}

// ClearBits drives the masked pins low
func (b *bank) ClearBits(mask uint32) {
	b.mem.regs[regGPCLR0+b.idx] = mask
}
