package serial

import (
	"io"
)

// Port is the console's line: commands are read from it and replies
// written back
type Port interface {
	io.ReadWriteCloser
	Flush() error
}

// Config selects the console device
type Config struct {
	Device      string // "/dev/ttyUSB0", "/dev/serial0"
	Baud        int
	ReadTimeout int // milliseconds, 0 blocks
}

// DefaultConfig returns a default configuration for the control console.
// Reads block so a line scanner never sees empty reads.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 0,
	}
}
