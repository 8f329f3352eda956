//go:build linux

package gpiocdev

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"softpwm/core"
)

// Driver opens pins as output lines on one GPIO character device.
// Each write is an ioctl through the line handle, the generic write path.
type Driver struct {
	chipName string
	consumer string

	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[core.GPIOPin]*gpiocdev.Line
}

// Open opens the named chip, e.g. "gpiochip0" or "/dev/gpiochip4"
func Open(chipName, consumer string) (*Driver, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("gpiocdev: open %s: %w", chipName, err)
	}
	return &Driver{
		chipName: chipName,
		consumer: consumer,
		chip:     chip,
		lines:    make(map[core.GPIOPin]*gpiocdev.Line),
	}, nil
}

// OpenOutput requests pin as an output line driven low
func (d *Driver) OpenOutput(pin core.GPIOPin) (core.PinWriter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.chip == nil {
		return nil, fmt.Errorf("gpiocdev: %s closed", d.chipName)
	}
	if _, busy := d.lines[pin]; busy {
		return nil, fmt.Errorf("gpiocdev: line %d: %w", pin, core.ErrPinInUse)
	}
	line, err := d.chip.RequestLine(int(pin), gpiocdev.AsOutput(0), gpiocdev.WithConsumer(d.consumer))
	if err != nil {
		return nil, fmt.Errorf("gpiocdev: request line %d on %s: %w", pin, d.chipName, err)
	}
	d.lines[pin] = line
	return &linePin{drv: d, pin: pin, line: line}, nil
}

func (d *Driver) release(pin core.GPIOPin) error {
	d.mu.Lock()
	line, ok := d.lines[pin]
	delete(d.lines, pin)
	d.mu.Unlock()

	if !ok {
		return nil
	}
	// Leave the line low and hand it back as an input
	_ = line.SetValue(0)
	_ = line.Reconfigure(gpiocdev.AsInput)
	return line.Close()
}

// Close releases every line and the chip
func (d *Driver) Close() error {
	d.mu.Lock()
	pins := make([]core.GPIOPin, 0, len(d.lines))
	for pin := range d.lines {
		pins = append(pins, pin)
	}
	d.mu.Unlock()

	for _, pin := range pins {
		_ = d.release(pin)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.chip == nil {
		return nil
	}
	err := d.chip.Close()
	d.chip = nil
	return err
}

type linePin struct {
	drv  *Driver
	pin  core.GPIOPin
	line *gpiocdev.Line
}

func (p *linePin) WritePin(high bool) error {
	v := 0
	if high {
		v = 1
	}
	return p.line.SetValue(v)
}

func (p *linePin) Close() error {
	return p.drv.release(p.pin)
}
