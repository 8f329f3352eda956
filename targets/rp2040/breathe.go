//go:build rp2040

package main

import (
	"strconv"

	"softpwm/core"
)

// breather ramps a channel's rate up and down, one step per tick
type breather struct {
	core.Timer
	pwm      *core.SoftPWM
	interval uint32
	up       bool
}

func newBreather(pwm *core.SoftPWM, intervalUS uint32) *breather {
	b := &breather{pwm: pwm, interval: core.TimerFromUS(intervalUS), up: true}
	b.Handler = b.step
	return b
}

func (b *breather) Start(s *core.Scheduler, now uint32) {
	b.WakeTime = now
	s.Schedule(&b.Timer)
}

func (b *breather) step(t *core.Timer) uint8 {
	lo, hi := b.pwm.Bounds()
	r := b.pwm.CurrentRate()
	switch {
	case b.up && r >= hi:
		b.up = false
		core.DebugPrintln("[PWM] breath peak at " +
			strconv.FormatUint(uint64(core.TimerToUS(core.GetUptime())), 10) + "us")
	case !b.up && r <= lo:
		b.up = true
	}
	if b.up {
		r++
	} else {
		r--
	}
	b.pwm.SetRate(r)
	t.WakeTime += b.interval
	return core.SF_RESCHEDULE
}
