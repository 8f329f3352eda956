//go:build linux

package bcm2835

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultDevice exposes only the GPIO block and needs no root
const DefaultDevice = "/dev/gpiomem"

// Open maps the GPIO registers through device (normally /dev/gpiomem)
func Open(device string) (*GPIOMem, error) {
	f, err := os.OpenFile(device, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("bcm2835: open %s: %w", device, err)
	}
	defer f.Close()

	mem, err := unix.Mmap(int(f.Fd()), 0, unix.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("bcm2835: mmap %s: %w", device, err)
	}

	regs := unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), len(mem)/4)
	g, err := newGPIOMem(regs, func() error { return unix.Munmap(mem) })
	if err != nil {
		_ = unix.Munmap(mem)
		return nil, err
	}
	return g, nil
}
