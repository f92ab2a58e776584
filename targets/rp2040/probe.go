//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/ds18b20"
	"tinygo.org/x/drivers/onewire"
)

// dsProbe is a single DS18B20 on a 1-wire pin. It addresses the bus with
// skip-ROM, so only one sensor may be attached.
type dsProbe struct {
	bus    onewire.Device
	sensor ds18b20.Device
}

func newDSProbe(pin machine.Pin) *dsProbe {
	p := &dsProbe{bus: onewire.New(pin)}
	p.bus.Configure(onewire.Config{})
	p.sensor = ds18b20.New(&p.bus)
	return p
}

// Present reports whether a device answers the reset pulse
func (p *dsProbe) Present() bool {
	return p.bus.Reset() == nil
}

// RequestTemperature starts a conversion; the result is read one refresh later
func (p *dsProbe) RequestTemperature() error {
	return p.sensor.ThermometerRead(nil)
}

// LastTemperature reads the scratchpad of the last conversion in degrees C
func (p *dsProbe) LastTemperature() (float64, error) {
	mc, err := p.sensor.ReadTemperature(nil)
	if err != nil {
		return 0, err
	}
	return float64(mc) / 1000, nil
}
