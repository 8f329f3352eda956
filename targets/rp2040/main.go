//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/l293x"

	"softpwm/core"
)

// Write through the SIO registers instead of machine.Pin.Set
const directRegisters = true

// Poll every 4us; duty resolution is period/256 = 4us at the default period
const pollIntervalUS = 4

type channelSpec struct {
	pin    machine.Pin
	period uint32
	rate   uint8
}

// Board wiring: onboard LED plus a fan on GPIO15
var channels = []channelSpec{
	{pin: machine.LED, period: core.DefaultPeriod * 8, rate: 0},
	{pin: machine.GPIO15, period: core.DefaultPeriod, rate: 160},
}

// L293 half bridge: direction on GPIO12/13, enable on GPIO14
const (
	motorIn1    = machine.GPIO12
	motorIn2    = machine.GPIO13
	motorEnable = machine.GPIO14
	motorSpeed  = 60 // percent
)

func main() {
	core.SetDebugWriter(func(s string) { println(s) })
	core.SetDebugEnabled(true)

	UpdateSystemTime()
	core.TimerInit()

	var out core.OutputDriver
	if directRegisters {
		out = core.NewPortDriver(sioMapper{})
	} else {
		out = core.NewGenericDriver(NewRPGPIODriver())
	}

	pollers := make([]core.Poller, 0, len(channels))
	var led *core.SoftPWM
	for i, ch := range channels {
		pwm := core.NewSoftPWM(out, core.SystemClock)
		if err := pwm.Attach(core.GPIOPin(ch.pin), core.WithPeriod(ch.period)); err != nil {
			core.DebugPrintln("attach failed: " + err.Error())
			continue
		}
		pwm.SetRate(ch.rate)
		pollers = append(pollers, pwm)
		if i == 0 {
			led = pwm
		}
	}

	motorBank := newMotorPWM(out)
	motor := l293x.NewWithSpeed(motorIn1, motorIn2, motorEnable, motorBank)
	if err := motor.Configure(); err != nil {
		core.DebugPrintln("motor configure failed: " + err.Error())
	} else {
		motor.Forward(motorSpeed)
	}
	pollers = append(pollers, motorBank)

	sched := core.NewScheduler()
	poll := core.NewPollTimer(core.TimerFromUS(pollIntervalUS), pollers...)
	poll.Start(sched, core.GetTime())

	if led != nil {
		b := newBreather(led, 20000)
		b.Start(sched, core.GetTime())
	}

	for {
		UpdateSystemTime()
		sched.Dispatch(core.GetTime())
	}
}
