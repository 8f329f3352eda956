package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"softpwm/core"
)

// Backends selectable for host runs
const (
	BackendGPIOCDev = "gpiocdev" // Linux GPIO character device, generic writes
	BackendBCM2835  = "bcm2835"  // /dev/gpiomem set/clear registers
	BackendFake     = "fake"     // in-memory, logs level changes
)

// Format of a configuration document
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Config describes the channels a host process drives
type Config struct {
	Backend        string          `json:"backend" yaml:"backend"`
	Chip           string          `json:"chip" yaml:"chip"`
	PollIntervalUS uint32          `json:"poll_interval_us" yaml:"poll_interval_us"`
	Console        ConsoleConfig   `json:"console" yaml:"console"`
	Channels       []ChannelConfig `json:"channels" yaml:"channels"`
}

// ConsoleConfig selects where control commands are read from.
// An empty Serial device means stdin.
type ConsoleConfig struct {
	Serial string `json:"serial" yaml:"serial"`
	Baud   int    `json:"baud" yaml:"baud"`
}

// ChannelConfig is one soft PWM channel
type ChannelConfig struct {
	Name     string `json:"name" yaml:"name"`
	Pin      string `json:"pin" yaml:"pin"` // "gpio17" or "17"
	PeriodUS uint32 `json:"period_us" yaml:"period_us"`
	MinRate  *uint8 `json:"min_rate,omitempty" yaml:"min_rate,omitempty"` // nil means 0
	MaxRate  *uint8 `json:"max_rate,omitempty" yaml:"max_rate,omitempty"` // nil means 255
	Rate     *uint8 `json:"rate,omitempty" yaml:"rate,omitempty"` // initial rate; nil leaves the channel stopped
}

// Load parses a configuration document and applies defaults
func Load(data []byte, format Format) (*Config, error) {
	var cfg Config

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// LoadFile reads a config file; .yaml/.yml are parsed as YAML, anything else as JSON
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return Load(data, format)
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(cfg *Config) {
	if cfg.Backend == "" {
		cfg.Backend = BackendGPIOCDev
	}
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	if cfg.PollIntervalUS == 0 {
		cfg.PollIntervalUS = 50
	}
	if cfg.Console.Baud == 0 {
		cfg.Console.Baud = 115200
	}

	for i := range cfg.Channels {
		ch := &cfg.Channels[i]
		if ch.PeriodUS == 0 {
			ch.PeriodUS = core.DefaultPeriod
		}
		lo, hi := ch.RateRange()
		ch.MinRate, ch.MaxRate = RateValue(lo), RateValue(hi)
		if ch.Name == "" {
			ch.Name = "pwm" + strconv.Itoa(i)
		}
	}
}

// Validate checks the configuration. Periods that are not a multiple of the
// rate span are accepted; Warnings reports them.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendGPIOCDev, BackendBCM2835, BackendFake:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	names := make(map[string]bool)
	pins := make(map[core.GPIOPin]string)
	for _, ch := range c.Channels {
		if names[ch.Name] {
			errs = append(errs, fmt.Errorf("channel %q: duplicate name", ch.Name))
		}
		names[ch.Name] = true

		pin, err := ParsePin(ch.Pin)
		if err != nil {
			errs = append(errs, fmt.Errorf("channel %q: %w", ch.Name, err))
		} else if other, ok := pins[pin]; ok {
			errs = append(errs, fmt.Errorf("channel %q: pin %d already used by %q", ch.Name, pin, other))
		} else {
			pins[pin] = ch.Name
		}

		lo, hi := ch.RateRange()
		if lo > hi {
			errs = append(errs, fmt.Errorf("channel %q: min_rate %d > max_rate %d", ch.Name, lo, hi))
		}
		if uint64(ch.PeriodUS)*uint64(hi) > 0xFFFFFFFF {
			errs = append(errs, fmt.Errorf("channel %q: period_us %d too large for 32-bit pulse arithmetic", ch.Name, ch.PeriodUS))
		}
	}

	return errors.Join(errs...)
}

// Warnings lists non-fatal configuration issues
func (c *Config) Warnings() []string {
	var out []string
	for _, ch := range c.Channels {
		lo, hi := ch.RateRange()
		span := uint32(hi) - uint32(lo) + 1
		if lo <= hi && ch.PeriodUS%span != 0 {
			out = append(out, fmt.Sprintf("channel %q: period_us %d is not a multiple of %d, duty resolution degraded",
				ch.Name, ch.PeriodUS, span))
		}
	}
	return out
}

// RateRange returns the configured rate bounds, defaulting unset ones
func (ch ChannelConfig) RateRange() (lo, hi uint8) {
	lo, hi = core.DefaultMinRate, core.DefaultMaxRate
	if ch.MinRate != nil {
		lo = *ch.MinRate
	}
	if ch.MaxRate != nil {
		hi = *ch.MaxRate
	}
	return lo, hi
}

// RateValue returns a pointer to v, for the optional rate fields
func RateValue(v uint8) *uint8 {
	return &v
}

// AttachOptions converts a channel config into core attach options
func (ch ChannelConfig) AttachOptions() []core.AttachOption {
	lo, hi := ch.RateRange()
	return []core.AttachOption{
		core.WithPeriod(ch.PeriodUS),
		core.WithRateRange(lo, hi),
	}
}

// ParsePin accepts "gpio17", "GPIO17" or "17"
func ParsePin(s string) (core.GPIOPin, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "gpio")
	if s == "" {
		return 0, errors.New("empty pin")
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pin %q", s)
	}
	return core.GPIOPin(n), nil
}
