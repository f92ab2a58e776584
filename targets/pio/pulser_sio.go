//go:build rp2040

package pio

import (
	"device/arm"
	"device/rp"
	"errors"
	"machine"

	"gofocus/core"
)

var errSIOPin = errors.New("sio pulser: step pin out of range")

// SIOPulser pulses the step pin through single-cycle IO registers.
// It is the fallback when no state machine is free.
type SIOPulser struct {
	mask uint32
}

func NewSIOPulser() *SIOPulser {
	return &SIOPulser{}
}

// ClaimPin configures pin as a plain output and caches its SIO mask
func (p *SIOPulser) ClaimPin(pin core.GPIOPin) error {
	if !pin.Valid() || pin > 29 {
		return errSIOPin
	}
	mp := machine.Pin(pin)
	mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
	mp.Low()
	p.mask = 1 << uint32(pin)
	return nil
}

// Pulse holds the step pin high for ~2us, the DRV8825 minimum is 1.9us
func (p *SIOPulser) Pulse() {
	if p.mask == 0 {
		return
	}
	rp.SIO.GPIO_OUT_SET.Set(p.mask)
	for i := 0; i < 16; i++ {
		// 16 x 16 NOPs ~ 2us @ 125MHz
		arm.Asm("nop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop")
	}
	rp.SIO.GPIO_OUT_CLR.Set(p.mask)
}
