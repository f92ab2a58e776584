//go:build rp2040

package main

import (
	"errors"
	"machine"

	"gofocus/core"
)

const rpGPIOPins = 30

// RPGPIODriver implements core.GPIODriver on the RP2040 GPIO bank.
// SetPin runs in the step dispatcher, so pins live in a fixed table.
type RPGPIODriver struct {
	configured [rpGPIOPins]bool
}

func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{}
}

// ConfigureOutput configures a pin as a digital output, driven low
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if !pin.Valid() || pin >= rpGPIOPins {
		return errors.New("gpio: pin out of range")
	}
	// RP2040 pins map directly to GPIO numbers
	mp := machine.Pin(pin)
	mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
	mp.Low()
	d.configured[pin] = true
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if !pin.Valid() || pin >= rpGPIOPins || !d.configured[pin] {
		return core.ErrPinNotConfigured
	}
	machine.Pin(pin).Set(value)
	return nil
}
