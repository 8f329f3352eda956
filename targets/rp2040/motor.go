//go:build rp2040

package main

import (
	"machine"

	"softpwm/core"
)

// motorPWM lets the tinygo.org/x/drivers motor packages run their speed
// input on soft channels. Period comes in nanoseconds from the driver.
type motorPWM struct {
	*core.SoftBank
}

func newMotorPWM(out core.OutputDriver) motorPWM {
	return motorPWM{SoftBank: core.NewSoftBank(out, core.SystemClock)}
}

func (m motorPWM) Configure(cfg machine.PWMConfig) error {
	return m.SetPeriod(uint32(cfg.Period / 1000))
}

func (m motorPWM) Channel(pin machine.Pin) (uint8, error) {
	return m.SoftBank.Channel(core.GPIOPin(pin))
}
