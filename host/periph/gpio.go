//go:build !tinygo

package periph

import (
	"fmt"
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"gofocus/core"
)

const maxPins = 64

// Resolver maps a focuser pin number to a periph pin
type Resolver func(pin core.GPIOPin) gpio.PinIO

// ByNumber resolves pin n through the periph registry as "GPIO<n>"
func ByNumber(pin core.GPIOPin) gpio.PinIO {
	return gpioreg.ByName("GPIO" + strconv.Itoa(int(pin)))
}

// GPIO is a core.GPIODriver over periph.io pins. Pins are resolved once in
// ConfigureOutput so SetPin is a table lookup.
type GPIO struct {
	resolve Resolver
	pins    [maxPins]gpio.PinIO
}

// NewGPIO creates a driver; a nil resolver selects ByNumber
func NewGPIO(resolve Resolver) *GPIO {
	if resolve == nil {
		resolve = ByNumber
	}
	return &GPIO{resolve: resolve}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	if !pin.Valid() || int(pin) >= maxPins {
		return fmt.Errorf("pin %d out of range", pin)
	}
	p := g.resolve(pin)
	if p == nil {
		return fmt.Errorf("pin %d not found", pin)
	}
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("pin %s: %w", p.Name(), err)
	}
	g.pins[pin] = p
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	if !pin.Valid() || int(pin) >= maxPins || g.pins[pin] == nil {
		return core.ErrPinNotConfigured
	}
	return g.pins[pin].Out(gpio.Level(value))
}
