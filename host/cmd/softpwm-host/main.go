package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"softpwm/config"
	"softpwm/core"
)

var (
	configPath = flag.String("config", "softpwm.yaml", "Channel configuration file (.json, .yaml)")
	backend    = flag.String("backend", "", "Override backend: gpiocdev, bcm2835, fake")
	chip       = flag.String("chip", "", "Override GPIO chip for the gpiocdev backend")
	serialDev  = flag.String("serial", "", "Read console commands from this serial device instead of stdin")
	baud       = flag.Int("baud", 0, "Serial console baud rate")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	events     = flag.Bool("events", true, "Record channel events for the shutdown dump")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("softpwm: ")

	core.SetDebugWriter(func(s string) { log.Println(s) })
	core.SetDebugEnabled(*verbose)
	core.SetEventsEnabled(*events)
	core.InitAsyncDebug()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config %s:\n%v\n", *configPath, err)
		os.Exit(1)
	}
	for _, w := range cfg.Warnings() {
		log.Printf("warning: %s", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		log.Printf("exit: %v", err)
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config) {
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *chip != "" {
		cfg.Chip = *chip
	}
	if *serialDev != "" {
		cfg.Console.Serial = *serialDev
	}
	if *baud != 0 {
		cfg.Console.Baud = *baud
	}
}
