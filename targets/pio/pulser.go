//go:build rp2040

// Package pio provides hardware step pulse generators for step/dir boards
// on the RP2040.
package pio

import "gofocus/motor"

// NewPulser returns a PIO pulser, or the SIO pulser when no state machine is free
func NewPulser() motor.StepPulser {
	if p, err := NewPIOPulser(); err == nil {
		return p
	}
	return NewSIOPulser()
}
