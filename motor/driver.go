package motor

import "gofocus/core"

// MotorDriver turns step requests into pin activity for one board family.
// Step is called from the timer callback; every other method is main-loop only
// and must not be called while a move is in flight.
type MotorDriver interface {
	Name() string
	Family() Family

	// Configure claims the board pins as outputs and prepares the step table
	Configure() error

	// SetStepMode requests a microstep mode and returns the mode in effect.
	// Fixed-mode boards ignore the request.
	SetStepMode(mode StepMode) StepMode
	StepMode() StepMode

	// SetReverse swaps the sense of Inward and Outward
	SetReverse(reverse bool)

	// Energize powers the coils ahead of a move
	Energize()

	// Release removes coil power
	Release()

	// Step moves the motor one step in dir. Must not allocate.
	Step(dir Direction)
}

// StepPulser emits one step pulse on a step/dir board.
// The default toggles the step pin through the GPIO driver; targets can
// substitute a PIO state machine.
type StepPulser interface {
	Pulse()
}

// PinClaimer is implemented by pulsers that take over the step pin, such as
// a PIO state machine. The driver hands over the pin after its GPIO claim.
type PinClaimer interface {
	ClaimPin(pin core.GPIOPin) error
}

type gpioPulser struct {
	gpio core.GPIODriver
	pin  core.GPIOPin
}

func (p gpioPulser) Pulse() {
	core.WritePin(p.gpio, p.pin, true)
	core.WritePin(p.gpio, p.pin, false)
}

// Option customizes driver construction
type Option func(*options)

type options struct {
	pulser StepPulser
}

// WithPulser replaces the GPIO step pulse on step/dir boards
func WithPulser(p StepPulser) Option {
	return func(o *options) {
		o.pulser = p
	}
}

// NewDriver builds the driver for profile's family.
// Unknown families get a driver that does nothing.
func NewDriver(profile BoardProfile, gpio core.GPIODriver, opts ...Option) MotorDriver {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch profile.Family {
	case FamilyStepDir:
		return newStepDirDriver(profile, gpio, o.pulser)
	case FamilyHalfStepper:
		return newHalfStepDriver(profile, gpio)
	case FamilyShield:
		return newShieldDriver(profile, gpio)
	default:
		return &NullDriver{profile: profile}
	}
}

func writePattern(gpio core.GPIODriver, pins []core.GPIOPin, pattern uint8) {
	n := len(pins)
	for i, pin := range pins {
		core.WritePin(gpio, pin, pattern&(1<<(n-1-i)) != 0)
	}
}

func configurePins(gpio core.GPIODriver, pins ...core.GPIOPin) error {
	for _, pin := range pins {
		if !pin.Valid() {
			continue
		}
		if err := gpio.ConfigureOutput(pin); err != nil {
			return err
		}
	}
	return nil
}

// NullDriver accepts every call and touches no pins
type NullDriver struct {
	profile BoardProfile
}

func (d *NullDriver) Name() string                  { return d.profile.Name }
func (d *NullDriver) Family() Family                { return FamilyNone }
func (d *NullDriver) Configure() error              { return nil }
func (d *NullDriver) SetStepMode(StepMode) StepMode { return STEP1 }
func (d *NullDriver) StepMode() StepMode            { return STEP1 }
func (d *NullDriver) SetReverse(bool)               {}
func (d *NullDriver) Energize()                     {}
func (d *NullDriver) Release()                      {}
func (d *NullDriver) Step(Direction)                {}
