package core

import (
	"errors"
	"testing"
)

func TestSoftBankChannels(t *testing.T) {
	drv := NewFakeGPIODriver()
	b := NewSoftBank(NewGenericDriver(drv), &fakeClock{})

	a, err := b.Channel(14)
	if err != nil {
		t.Fatal(err)
	}
	c, err := b.Channel(15)
	if err != nil {
		t.Fatal(err)
	}
	again, err := b.Channel(14)
	if err != nil {
		t.Fatal(err)
	}
	if a != 0 || c != 1 || again != 0 {
		t.Errorf("indexes = %d %d %d, want 0 1 0", a, c, again)
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
	if !b.PWM(a).IsAttached() || b.PWM(a).Period() != DefaultPeriod {
		t.Error("channel should be attached at the default period")
	}
	if b.PWM(7) != nil {
		t.Error("PWM(7) should be nil")
	}
}

func TestSoftBankPeriod(t *testing.T) {
	b := NewSoftBank(NewGenericDriver(NewFakeGPIODriver()), &fakeClock{})

	if err := b.SetPeriod(16384); err != nil {
		t.Fatal(err)
	}
	ch, _ := b.Channel(3)
	if got := b.PWM(ch).Period(); got != 16384 {
		t.Errorf("Period() = %d, want 16384", got)
	}

	if err := b.SetPeriod(maxBankPeriod + 1); !errors.Is(err, ErrPeriodRange) {
		t.Errorf("SetPeriod overflow: err = %v, want ErrPeriodRange", err)
	}
	if err := b.SetPeriod(0); err != nil || b.Period() != DefaultPeriod {
		t.Errorf("SetPeriod(0): err=%v period=%d", err, b.Period())
	}
}

func TestSoftBankSet(t *testing.T) {
	drv := NewFakeGPIODriver()
	clk := &fakeClock{}
	b := NewSoftBank(NewGenericDriver(drv), clk)
	ch, _ := b.Channel(9)
	p := b.PWM(ch)

	// percentage speed the way motor drivers compute it
	b.Set(ch, b.Top()*60/100)
	if p.CurrentRate() != 153 || !p.IsActive() {
		t.Errorf("rate = %d active = %v, want 153 true", p.CurrentRate(), p.IsActive())
	}

	clk.now = 0
	b.Poll()
	if got, _ := drv.GetPin(9); got != HIGH {
		t.Error("pin should be HIGH at phase 0")
	}

	b.Set(ch, 0)
	if p.IsActive() {
		t.Error("Set 0 should stop the channel")
	}
	if got, _ := drv.GetPin(9); got != LOW {
		t.Error("Set 0 should drive the pin LOW")
	}

	b.Set(ch, 1000)
	if p.CurrentRate() != 255 {
		t.Errorf("rate = %d, want saturated 255", p.CurrentRate())
	}

	b.Set(42, 10) // unknown channel
}

func TestSoftBankDetach(t *testing.T) {
	drv := NewFakeGPIODriver()
	b := NewSoftBank(NewGenericDriver(drv), &fakeClock{})
	ch, _ := b.Channel(5)
	p := b.PWM(ch)
	b.Set(ch, 100)

	b.Detach()
	if p.IsAttached() || b.Len() != 0 {
		t.Error("Detach should release every channel")
	}
}

func TestSoftBankAttachError(t *testing.T) {
	b := NewSoftBank(nil, &fakeClock{})
	if _, err := b.Channel(1); !errors.Is(err, ErrNoDriver) {
		t.Errorf("err = %v, want ErrNoDriver", err)
	}
	if b.Len() != 0 {
		t.Error("failed attach must not add a channel")
	}
}
