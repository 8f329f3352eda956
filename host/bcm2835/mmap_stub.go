//go:build !linux

package bcm2835

import "fmt"

// DefaultDevice exposes only the GPIO block and needs no root
const DefaultDevice = "/dev/gpiomem"

// Open always fails on this platform
func Open(device string) (*GPIOMem, error) {
	return nil, fmt.Errorf("bcm2835: register access unsupported on this platform")
}
