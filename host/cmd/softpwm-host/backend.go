package main

import (
	"fmt"
	"io"
	"log"

	"softpwm/config"
	"softpwm/core"
	"softpwm/host/bcm2835"
	"softpwm/host/gpiocdev"
)

const consumer = "softpwm"

// openBackend returns the output driver for cfg.Backend and a closer for it
func openBackend(cfg *config.Config) (core.OutputDriver, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendGPIOCDev:
		drv, err := gpiocdev.Open(cfg.Chip, consumer)
		if err != nil {
			return nil, nil, err
		}
		return drv, drv, nil

	case config.BackendBCM2835:
		mem, err := bcm2835.Open(bcm2835.DefaultDevice)
		if err != nil {
			return nil, nil, err
		}
		return core.NewPortDriver(mem), mem, nil

	case config.BackendFake:
		fake := core.NewFakeGPIODriver()
		if core.IsDebugEnabled() {
			fake.OnWrite = func(pin core.GPIOPin, v bool) {
				log.Printf("fake: pin %d -> %v", pin, v)
			}
		}
		return core.NewGenericDriver(fake), io.NopCloser(nil), nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
