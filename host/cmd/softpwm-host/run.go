package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"softpwm/config"
	"softpwm/control"
	"softpwm/core"
	"softpwm/host/serial"
)

// monotonic microsecond counter, wrapping like an MCU timer
var bootInstant = time.Now()

func hostMicros() uint32 {
	return uint32(time.Since(bootInstant).Microseconds())
}

// buildBank attaches every configured channel and applies its initial rate
func buildBank(cfg *config.Config, drv core.OutputDriver) (*control.Bank, error) {
	bank := control.NewBank()
	for _, cc := range cfg.Channels {
		pin, err := config.ParsePin(cc.Pin)
		if err != nil {
			bank.DetachAll()
			return nil, fmt.Errorf("channel %q: %w", cc.Name, err)
		}
		ch := &control.Channel{
			Name: cc.Name,
			Pin:  pin,
			Opts: cc.AttachOptions(),
			PWM:  core.NewSoftPWM(drv, core.SystemClock),
		}
		if err := ch.PWM.Attach(pin, ch.Opts...); err != nil {
			bank.DetachAll()
			return nil, fmt.Errorf("channel %q: %w", cc.Name, err)
		}
		if cc.Rate != nil {
			ch.PWM.SetRate(*cc.Rate)
		}
		if err := bank.Add(ch); err != nil {
			ch.PWM.Detach()
			bank.DetachAll()
			return nil, err
		}
		log.Printf("attached %s", control.Status(ch))
	}
	return bank, nil
}

// openConsole picks the serial port from the config, or falls back to in/out
func openConsole(cfg *config.Config, in io.Reader, out io.Writer) (io.Reader, io.Writer, io.Closer, error) {
	if cfg.Console.Serial == "" {
		return in, out, io.NopCloser(nil), nil
	}
	scfg := serial.DefaultConfig(cfg.Console.Serial)
	scfg.Baud = cfg.Console.Baud
	port, err := serial.Open(scfg)
	if err != nil {
		return nil, nil, nil, err
	}
	_ = port.Flush()
	return port, port, port, nil
}

// run drives the channels until ctx is done. Console commands are applied
// between polls on this goroutine, so channels are never touched concurrently.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	drv, drvCloser, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer drvCloser.Close()

	core.SetTime(hostMicros())
	core.TimerInit()

	bank, err := buildBank(cfg, drv)
	if err != nil {
		return err
	}
	defer func() {
		bank.DetachAll()
		log.Printf("stopped after %dus", core.TimerToUS(core.GetUptime()))
		if core.IsDebugEnabled() && core.EventsEnabled() {
			core.DumpEventRing()
		}
	}()

	cin, cout, consoleCloser, err := openConsole(cfg, in, out)
	if err != nil {
		return err
	}
	defer consoleCloser.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reqs := make(chan control.Request, 4)
	go func() {
		err := control.ReadCommands(ctx, cin, cout, reqs)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("console: %v", err)
		}
	}()

	sched := core.NewScheduler()
	poller := core.NewPollTimer(core.TimerFromUS(cfg.PollIntervalUS), bank)
	poller.Start(sched, core.GetTime())

	idle := time.Duration(cfg.PollIntervalUS) * time.Microsecond / 2
	log.Printf("polling %d channel(s) every %dus on %s", len(cfg.Channels), cfg.PollIntervalUS, cfg.Backend)

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-reqs:
			bank.Serve(req)
		default:
		}

		core.SetTime(hostMicros())
		sched.Dispatch(core.GetTime())

		if idle > 0 {
			time.Sleep(idle)
		}
	}
}
