package core

import (
	"errors"
	"fmt"
)

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// Pin levels
const (
	LOW  = false
	HIGH = true
)

var (
	// ErrNoDriver is returned when a channel is attached without an output driver
	ErrNoDriver = errors.New("no output driver configured")

	// ErrPinInUse is returned by drivers that track ownership of their pins
	ErrPinInUse = errors.New("pin already in use")
)

// GPIODriver is the abstract GPIO interface that platform code implements.
// Every write goes through a per-call SetPin lookup.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error
}

// PinWriter is the handle a channel keeps for the pin it drives.
type PinWriter interface {
	WritePin(high bool) error
	Close() error
}

// OutputDriver opens pins as digital outputs. Channels take one of these
// instead of talking to the platform directly, so the write path (generic
// per-call HAL or direct register access) is chosen by the application.
type OutputDriver interface {
	OpenOutput(pin GPIOPin) (PinWriter, error)
}

// --- generic write path ---

type genericDriver struct {
	drv GPIODriver
}

// NewGenericDriver wraps a GPIODriver so every write is a SetPin call.
func NewGenericDriver(drv GPIODriver) OutputDriver {
	return &genericDriver{drv: drv}
}

func (g *genericDriver) OpenOutput(pin GPIOPin) (PinWriter, error) {
	if g.drv == nil {
		return nil, ErrNoDriver
	}
	if err := g.drv.ConfigureOutput(pin); err != nil {
		return nil, fmt.Errorf("configure pin %d: %w", pin, err)
	}
	return &genericPin{drv: g.drv, pin: pin}, nil
}

type genericPin struct {
	drv GPIODriver
	pin GPIOPin
}

func (p *genericPin) WritePin(high bool) error {
	return p.drv.SetPin(p.pin, high)
}

func (p *genericPin) Close() error { return nil }

// --- direct register write path ---

// Port is a bank of output bits with separate set and clear registers,
// as found on AVR, RP2040 SIO and BCM283x GPIO blocks.
type Port interface {
	EnableOutput(mask uint32)
	SetBits(mask uint32)
	ClearBits(mask uint32)
}

// PortMapper resolves a pin number to the port owning it and the bit mask
// of the pin inside that port.
type PortMapper interface {
	PortFor(pin GPIOPin) (Port, uint32, error)
}

type portDriver struct {
	mapper PortMapper
}

// NewPortDriver returns an OutputDriver that resolves the port register and
// mask once at open time and writes them directly afterwards.
func NewPortDriver(m PortMapper) OutputDriver {
	return &portDriver{mapper: m}
}

func (d *portDriver) OpenOutput(pin GPIOPin) (PinWriter, error) {
	if d.mapper == nil {
		return nil, ErrNoDriver
	}
	port, mask, err := d.mapper.PortFor(pin)
	if err != nil {
		return nil, fmt.Errorf("map pin %d: %w", pin, err)
	}
	if mask == 0 {
		return nil, fmt.Errorf("map pin %d: empty bit mask", pin)
	}
	port.EnableOutput(mask)
	return &portPin{port: port, mask: mask}, nil
}

type portPin struct {
	port Port
	mask uint32
}

func (p *portPin) WritePin(high bool) error {
	if high {
		p.port.SetBits(p.mask)
	} else {
		p.port.ClearBits(p.mask)
	}
	return nil
}

func (p *portPin) Close() error { return nil }
