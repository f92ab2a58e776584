package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin int32

// NoPin marks a pin slot that is not wired on the current board
const NoPin GPIOPin = -1

// Valid reports whether the pin refers to real hardware
func (p GPIOPin) Valid() bool {
	return p >= 0
}

// GPIODriver is the abstract output-pin interface that motor drivers use.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or cannot be claimed
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	// Called from interrupt context, so it must not allocate
	SetPin(pin GPIOPin, value bool) error
}

// WritePin drives pin on d, skipping unwired pins.
// Errors are dropped: a failed pin write inside a step has nowhere to go.
func WritePin(d GPIODriver, pin GPIOPin, value bool) {
	if d == nil || !pin.Valid() {
		return
	}
	_ = d.SetPin(pin, value)
}
