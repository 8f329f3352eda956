//go:build rp2040

package main

import (
	"errors"
	"machine"
	"runtime/volatile"
	"unsafe"

	"softpwm/core"
)

// RP2040 single-cycle IO block
const (
	sioBase       = 0xd0000000
	sioGPIOOutSet = sioBase + 0x014
	sioGPIOOutClr = sioBase + 0x018
	sioGPIOOESet  = sioBase + 0x024
)

var (
	errInvalidPin    = errors.New("rp2040: pin out of range 0-29")
	errNotConfigured = errors.New("rp2040: pin not configured as output")
)

// sioPort drives GPIO0-29 through the SIO set/clear registers, one store per toggle
type sioPort struct {
	outSet *volatile.Register32
	outClr *volatile.Register32
	oeSet  *volatile.Register32
}

var bank0 = &sioPort{
	outSet: (*volatile.Register32)(unsafe.Pointer(uintptr(sioGPIOOutSet))),
	outClr: (*volatile.Register32)(unsafe.Pointer(uintptr(sioGPIOOutClr))),
	oeSet:  (*volatile.Register32)(unsafe.Pointer(uintptr(sioGPIOOESet))),
}

// EnableOutput routes the pins to SIO and enables their output drivers
func (p *sioPort) EnableOutput(mask uint32) {
	for pin := 0; pin < 30; pin++ {
		if mask&(1<<pin) != 0 {
			// Configure selects the SIO function and resets pad state
			machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
		}
	}
	p.oeSet.Set(mask)
}

func (p *sioPort) SetBits(mask uint32)   { p.outSet.Set(mask) }
func (p *sioPort) ClearBits(mask uint32) { p.outClr.Set(mask) }

// sioMapper maps every user GPIO to bank 0
type sioMapper struct{}

func (sioMapper) PortFor(pin core.GPIOPin) (core.Port, uint32, error) {
	if pin > 29 {
		return nil, 0, errInvalidPin
	}
	return bank0, 1 << pin, nil
}
