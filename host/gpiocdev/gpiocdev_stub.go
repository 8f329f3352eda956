//go:build !linux

package gpiocdev

import (
	"fmt"

	"softpwm/core"
)

// Driver is unavailable off Linux
type Driver struct{}

// Open always fails on this platform
func Open(chipName, consumer string) (*Driver, error) {
	return nil, fmt.Errorf("gpiocdev: unsupported on this platform")
}

// OpenOutput always fails on this platform
func (d *Driver) OpenOutput(pin core.GPIOPin) (core.PinWriter, error) {
	return nil, fmt.Errorf("gpiocdev: unsupported on this platform")
}

// Close is a no-op
func (d *Driver) Close() error { return nil }
