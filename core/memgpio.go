package core

import "errors"

// ErrPinNotConfigured is returned when writing a pin that was never configured
var ErrPinNotConfigured = errors.New("pin not configured as output")

const memGPIOPins = 64

// MemGPIO is an in-memory GPIODriver used by the host simulator and tests.
// Pin state lives in fixed arrays so SetPin stays allocation free.
type MemGPIO struct {
	configured [memGPIOPins]bool
	level      [memGPIOPins]bool
	writes     [memGPIOPins]uint32
}

// NewMemGPIO creates an in-memory GPIO driver with all pins low
func NewMemGPIO() *MemGPIO {
	return &MemGPIO{}
}

// ConfigureOutput marks pin as an output and drives it low
func (m *MemGPIO) ConfigureOutput(pin GPIOPin) error {
	if !pin.Valid() || int(pin) >= memGPIOPins {
		return errors.New("pin out of range")
	}
	m.configured[pin] = true
	m.level[pin] = false
	return nil
}

// SetPin records the new level of pin
func (m *MemGPIO) SetPin(pin GPIOPin, value bool) error {
	if !pin.Valid() || int(pin) >= memGPIOPins || !m.configured[pin] {
		return ErrPinNotConfigured
	}
	m.level[pin] = value
	m.writes[pin]++
	return nil
}

// Level returns the last level written to pin
func (m *MemGPIO) Level(pin GPIOPin) bool {
	if !pin.Valid() || int(pin) >= memGPIOPins {
		return false
	}
	return m.level[pin]
}

// IsOutput reports whether pin was configured as an output
func (m *MemGPIO) IsOutput(pin GPIOPin) bool {
	if !pin.Valid() || int(pin) >= memGPIOPins {
		return false
	}
	return m.configured[pin]
}

// Writes returns how many times pin has been written since configuration
func (m *MemGPIO) Writes(pin GPIOPin) uint32 {
	if !pin.Valid() || int(pin) >= memGPIOPins {
		return 0
	}
	return m.writes[pin]
}

// Pattern packs the levels of pins into a bit pattern, first pin in the highest bit.
// Mirrors how step sequence tables are written.
func (m *MemGPIO) Pattern(pins ...GPIOPin) uint8 {
	var p uint8
	for _, pin := range pins {
		p <<= 1
		if m.Level(pin) {
			p |= 1
		}
	}
	return p
}
