// Software PWM on a plain digital output
// The pin is toggled from the caller's poll loop by comparing a free-running
// microsecond clock against the configured period and duty cycle.
package core

import (
	"fmt"

	"softpwm/x/mathx"
)

// Attach defaults
const (
	DefaultPeriod  = 1024 // microseconds, a multiple of 256
	DefaultMinRate = 0
	DefaultMaxRate = 255
)

// AttachOption customizes Attach
type AttachOption func(*attachConfig)

type attachConfig struct {
	period  uint32
	minRate uint8
	maxRate uint8
}

// WithPeriod sets the PWM period in clock ticks (microseconds).
// For exact duty resolution it should be a multiple of the rate span.
func WithPeriod(period uint32) AttachOption {
	return func(c *attachConfig) { c.period = period }
}

// WithRateRange sets the inclusive rate bounds. An inverted range
// falls back to 0..255.
func WithRateRange(minRate, maxRate uint8) AttachOption {
	return func(c *attachConfig) { c.minRate, c.maxRate = minRate, maxRate }
}

// SoftPWM is one emulated PWM output bound to one pin.
//
// Poll must not run concurrently with itself. SetRate, Stop and Detach may be
// called between polls from the context that owns the channel; no locking is
// done, so callers on multi-goroutine hosts must serialize access.
//
// rate*period must fit in 32 bits (period < 2^32/255 for the full range).
type SoftPWM struct {
	drv   OutputDriver
	clock Clock

	pin    GPIOPin
	writer PinWriter

	period  uint32
	rate    uint8
	minRate uint8
	maxRate uint8

	// pulseUnit is period/(maxRate-minRate+1), fixed at attach time
	pulseUnit uint32

	attached bool
	active   bool
	level    bool

	writes      uint32
	writeErrors uint32
}

// Stats holds per-channel write counters
type Stats struct {
	Writes      uint32
	WriteErrors uint32
}

// NewSoftPWM creates a detached, inactive channel. A nil clock uses SystemClock.
func NewSoftPWM(drv OutputDriver, clock Clock) *SoftPWM {
	if clock == nil {
		clock = SystemClock
	}
	return &SoftPWM{
		drv:     drv,
		clock:   clock,
		period:  DefaultPeriod,
		minRate: DefaultMinRate,
		maxRate: DefaultMaxRate,
	}
}

// Attach binds the channel to pin, forces it LOW and resets the rate to 0.
// The channel is left attached but inactive until SetRate is called.
// Attaching an attached channel releases the previous pin first.
func (p *SoftPWM) Attach(pin GPIOPin, opts ...AttachOption) error {
	cfg := attachConfig{
		period:  DefaultPeriod,
		minRate: DefaultMinRate,
		maxRate: DefaultMaxRate,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.period == 0 {
		cfg.period = DefaultPeriod
	}
	if cfg.minRate > cfg.maxRate {
		cfg.minRate, cfg.maxRate = DefaultMinRate, DefaultMaxRate
	}

	if p.attached {
		p.Detach()
	}
	if p.drv == nil {
		return ErrNoDriver
	}

	w, err := p.drv.OpenOutput(pin)
	if err != nil {
		return fmt.Errorf("softpwm attach: %w", err)
	}
	if err := w.WritePin(LOW); err != nil {
		_ = w.Close()
		return fmt.Errorf("softpwm attach: drive pin %d low: %w", pin, err)
	}

	p.pin = pin
	p.writer = w
	p.level = LOW
	p.writes++

	p.period = cfg.period
	p.minRate = cfg.minRate
	p.maxRate = cfg.maxRate
	p.pulseUnit = p.period / mathx.Span(p.minRate, p.maxRate)
	p.rate = 0

	p.active = false
	p.attached = true

	RecordEvent(EvtAttach, pin, p.period)
	if p.period%mathx.Span(p.minRate, p.maxRate) != 0 {
		DebugAsync("[PWM] pin " + utoa(uint32(pin)) + ": period " + utoa(p.period) +
			" not a multiple of rate span, duty resolution degraded")
	}
	return nil
}

// SetRate clamps rate into the channel bounds and enables PWM generation.
// The pin is not touched until the next Poll. Ignored while detached.
func (p *SoftPWM) SetRate(rate uint8) {
	if !p.attached {
		return
	}
	p.active = true
	p.rate = mathx.Clamp(rate, p.minRate, p.maxRate)
	RecordEvent(EvtRate, p.pin, uint32(p.rate))
}

// Stop drives the pin LOW and disables PWM generation. The channel stays attached.
func (p *SoftPWM) Stop() {
	if !p.attached {
		return
	}
	p.write(LOW)
	p.active = false
	RecordEvent(EvtStop, p.pin, 0)
}

// Detach stops the channel and releases its pin. Attach must be called
// again before further use.
func (p *SoftPWM) Detach() {
	if !p.attached {
		return
	}
	p.Stop()
	if p.writer != nil {
		_ = p.writer.Close()
		p.writer = nil
	}
	p.attached = false
	RecordEvent(EvtDetach, p.pin, 0)
}

// Poll samples the clock and drives the pin to the level the duty cycle
// asks for. The pin is written only when the level changes.
func (p *SoftPWM) Poll() {
	if !p.active || !p.attached {
		return
	}

	pulseWidth := uint32(p.rate) * p.pulseUnit
	phase := p.clock.Micros() % p.period

	want := phase < pulseWidth
	if want != p.level {
		p.write(want)
	}
}

// write drives the pin and updates the cached level only on success
func (p *SoftPWM) write(level bool) {
	if err := p.writer.WritePin(level); err != nil {
		p.writeErrors++
		var v uint32
		if level {
			v = 1
		}
		RecordEvent(EvtWriteError, p.pin, v)
		DebugAsync("[PWM] pin " + utoa(uint32(p.pin)) + " write failed: " + err.Error())
		return
	}
	p.level = level
	p.writes++
}

// IsAttached reports whether the channel is bound to a pin
func (p *SoftPWM) IsAttached() bool { return p.attached }

// IsActive reports whether PWM generation is engaged
func (p *SoftPWM) IsActive() bool { return p.active }

// CurrentRate returns the last clamped rate
func (p *SoftPWM) CurrentRate() uint8 { return p.rate }

// Level returns the last level written to the pin
func (p *SoftPWM) Level() bool { return p.level }

// Pin returns the attached pin
func (p *SoftPWM) Pin() GPIOPin { return p.pin }

// Period returns the PWM period in clock ticks
func (p *SoftPWM) Period() uint32 { return p.period }

// Bounds returns the inclusive rate range
func (p *SoftPWM) Bounds() (minRate, maxRate uint8) { return p.minRate, p.maxRate }

// PulseWidth returns the high time per period for the current rate
func (p *SoftPWM) PulseWidth() uint32 { return uint32(p.rate) * p.pulseUnit }

// Stats returns the write counters
func (p *SoftPWM) Stats() Stats {
	return Stats{Writes: p.writes, WriteErrors: p.writeErrors}
}
