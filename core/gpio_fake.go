package core

import (
	"fmt"
	"sync"
)

// PinWrite is one recorded write on a FakeGPIODriver
type PinWrite struct {
	Pin   GPIOPin
	Value bool
}

// FakeGPIODriver is an in-memory GPIODriver for tests and dry runs.
// It records every write and can be told to fail writes for a pin.
type FakeGPIODriver struct {
	mu      sync.Mutex
	outputs map[GPIOPin]bool
	failing map[GPIOPin]error
	writes  []PinWrite

	// OnWrite, if set, is called after every successful write
	OnWrite func(pin GPIOPin, value bool)
}

// NewFakeGPIODriver creates an empty fake driver
func NewFakeGPIODriver() *FakeGPIODriver {
	return &FakeGPIODriver{
		outputs: make(map[GPIOPin]bool),
		failing: make(map[GPIOPin]error),
	}
}

// ConfigureOutput marks the pin as an output at LOW
func (f *FakeGPIODriver) ConfigureOutput(pin GPIOPin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[pin] = LOW
	return nil
}

// SetPin records the write and updates the pin state
func (f *FakeGPIODriver) SetPin(pin GPIOPin, value bool) error {
	f.mu.Lock()
	if err := f.failing[pin]; err != nil {
		f.mu.Unlock()
		return err
	}
	if _, ok := f.outputs[pin]; !ok {
		f.mu.Unlock()
		return fmt.Errorf("pin %d not configured as output", pin)
	}
	f.outputs[pin] = value
	f.writes = append(f.writes, PinWrite{Pin: pin, Value: value})
	hook := f.OnWrite
	f.mu.Unlock()

	if hook != nil {
		hook(pin, value)
	}
	return nil
}

// GetPin reads back the last written state
func (f *FakeGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.outputs[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not configured as output", pin)
	}
	return v, nil
}

// FailWrites makes every subsequent write to pin return err (nil clears it)
func (f *FakeGPIODriver) FailWrites(pin GPIOPin, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failing, pin)
		return
	}
	f.failing[pin] = err
}

// Writes returns a copy of all recorded writes
func (f *FakeGPIODriver) Writes() []PinWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PinWrite, len(f.writes))
	copy(out, f.writes)
	return out
}

// WriteCount returns the number of writes recorded for pin
func (f *FakeGPIODriver) WriteCount(pin GPIOPin) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, w := range f.writes {
		if w.Pin == pin {
			n++
		}
	}
	return n
}

// Reset forgets recorded writes but keeps pin configuration
func (f *FakeGPIODriver) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}
