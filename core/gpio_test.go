package core

import (
	"errors"
	"testing"
)

// mockPort records set/clear register writes
type mockPort struct {
	out     uint32
	enabled uint32
	sets    int
	clears  int
}

func (m *mockPort) EnableOutput(mask uint32) { m.enabled |= mask }
func (m *mockPort) SetBits(mask uint32)      { m.out |= mask; m.sets++ }
func (m *mockPort) ClearBits(mask uint32)    { m.out &^= mask; m.clears++ }

// mockMapper maps pins 0-31 to port a and 32-63 to port b
type mockMapper struct {
	a, b mockPort
}

func (m *mockMapper) PortFor(pin GPIOPin) (Port, uint32, error) {
	switch {
	case pin < 32:
		return &m.a, 1 << pin, nil
	case pin < 64:
		return &m.b, 1 << (pin - 32), nil
	}
	return nil, 0, errors.New("no such pin")
}

func TestGenericDriver(t *testing.T) {
	fake := NewFakeGPIODriver()
	drv := NewGenericDriver(fake)

	w, err := drv.OpenOutput(25)
	if err != nil {
		t.Fatalf("OpenOutput failed: %v", err)
	}
	if err := w.WritePin(HIGH); err != nil {
		t.Fatalf("WritePin(HIGH) failed: %v", err)
	}
	if v, _ := fake.GetPin(25); v != HIGH {
		t.Errorf("Expected pin to be high, got low")
	}
	if err := w.WritePin(LOW); err != nil {
		t.Fatalf("WritePin(LOW) failed: %v", err)
	}
	if v, _ := fake.GetPin(25); v != LOW {
		t.Errorf("Expected pin to be low, got high")
	}
}

func TestGenericDriverNil(t *testing.T) {
	if _, err := NewGenericDriver(nil).OpenOutput(1); !errors.Is(err, ErrNoDriver) {
		t.Errorf("got %v, want ErrNoDriver", err)
	}
}

func TestPortDriver(t *testing.T) {
	m := &mockMapper{}
	drv := NewPortDriver(m)

	w, err := drv.OpenOutput(35)
	if err != nil {
		t.Fatalf("OpenOutput failed: %v", err)
	}
	if m.b.enabled != 1<<3 {
		t.Errorf("output enable mask = %#x, want %#x", m.b.enabled, 1<<3)
	}

	w.WritePin(HIGH)
	if m.b.out != 1<<3 || m.b.sets != 1 {
		t.Errorf("after HIGH: out=%#x sets=%d", m.b.out, m.b.sets)
	}
	w.WritePin(LOW)
	if m.b.out != 0 || m.b.clears != 1 {
		t.Errorf("after LOW: out=%#x clears=%d", m.b.out, m.b.clears)
	}
	if m.a.sets+m.a.clears != 0 {
		t.Error("write leaked to the wrong port")
	}
}

func TestPortDriverUnknownPin(t *testing.T) {
	if _, err := NewPortDriver(&mockMapper{}).OpenOutput(99); err == nil {
		t.Error("expected error for unmapped pin")
	}
}

func TestSoftPWMOverPortDriver(t *testing.T) {
	m := &mockMapper{}
	clk := &fakeClock{}
	p := NewSoftPWM(NewPortDriver(m), clk)
	if err := p.Attach(4, WithPeriod(256)); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	p.SetRate(128)

	for ts := uint32(0); ts < 256; ts++ {
		clk.now = ts
		p.Poll()
		high := m.a.out&(1<<4) != 0
		if high != (ts < 128) {
			t.Fatalf("t=%d: high=%v", ts, high)
		}
	}
}

func TestFakeGPIODriverUnconfigured(t *testing.T) {
	fake := NewFakeGPIODriver()
	if err := fake.SetPin(3, HIGH); err == nil {
		t.Error("SetPin on unconfigured pin should fail")
	}
	var seen []PinWrite
	fake.OnWrite = func(pin GPIOPin, v bool) { seen = append(seen, PinWrite{pin, v}) }
	fake.ConfigureOutput(3)
	fake.SetPin(3, HIGH)
	if len(seen) != 1 || !seen[0].Value {
		t.Errorf("OnWrite saw %+v", seen)
	}
}
