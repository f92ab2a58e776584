//go:build !tinygo

// Package periph adapts periph.io drivers to the focuser HAL so the
// controller can run on a Linux single board computer.
package periph

import (
	"fmt"

	"periph.io/x/host/v3"
)

// Init registers the periph.io host drivers. Call once before opening pins or buses.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}
