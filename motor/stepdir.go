package motor

import "gofocus/core"

// StepDirDriver drives DRV8825 style boards. The microstep mode is set by
// jumpers, so it is reported but never changed.
type StepDirDriver struct {
	profile BoardProfile
	gpio    core.GPIODriver
	pulser  StepPulser
	reverse bool
}

func newStepDirDriver(profile BoardProfile, gpio core.GPIODriver, pulser StepPulser) *StepDirDriver {
	if pulser == nil {
		pulser = gpioPulser{gpio: gpio, pin: profile.StepPin}
	}
	return &StepDirDriver{
		profile: profile,
		gpio:    gpio,
		pulser:  pulser,
		reverse: profile.Reverse,
	}
}

func (d *StepDirDriver) Name() string   { return d.profile.Name }
func (d *StepDirDriver) Family() Family { return FamilyStepDir }

// Configure claims step, dir and enable, leaving the driver disabled
func (d *StepDirDriver) Configure() error {
	if err := d.profile.Validate(); err != nil {
		return err
	}
	if err := configurePins(d.gpio, d.profile.EnablePin, d.profile.DirPin, d.profile.StepPin); err != nil {
		return err
	}
	core.WritePin(d.gpio, d.profile.EnablePin, true)

	if c, ok := d.pulser.(PinClaimer); ok {
		if err := c.ClaimPin(d.profile.StepPin); err != nil {
			core.DebugPrintln("[MOT] step pulser: " + err.Error() + ", using gpio")
			d.pulser = gpioPulser{gpio: d.gpio, pin: d.profile.StepPin}
		}
	}
	return nil
}

func (d *StepDirDriver) SetStepMode(StepMode) StepMode {
	return d.StepMode()
}

func (d *StepDirDriver) StepMode() StepMode {
	if d.profile.FixedStepMode.Valid() {
		return d.profile.FixedStepMode
	}
	return STEP1
}

func (d *StepDirDriver) SetReverse(reverse bool) {
	d.reverse = reverse
}

// Energize pulls enable low
func (d *StepDirDriver) Energize() {
	core.WritePin(d.gpio, d.profile.EnablePin, false)
}

// Release drives enable high
func (d *StepDirDriver) Release() {
	core.WritePin(d.gpio, d.profile.EnablePin, true)
}

func (d *StepDirDriver) Step(dir Direction) {
	core.WritePin(d.gpio, d.profile.DirPin, bool(dir.Apply(d.reverse)))
	core.WritePin(d.gpio, d.profile.EnablePin, false)
	d.pulser.Pulse()
}
