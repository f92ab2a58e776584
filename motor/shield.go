package motor

import "gofocus/core"

// ShieldDriver drives the L293D motor shield. The shield only full steps,
// firing the coils in the alternating two-phase order.
type ShieldDriver struct {
	profile BoardProfile
	gpio    core.GPIODriver
	pins    [4]core.GPIOPin
	seq     *Sequencer
	reverse bool
}

// shieldPins reorders IN1..IN4 into the order the shield's coils are wired
func shieldPins(profile BoardProfile) [4]core.GPIOPin {
	p := profile.Pins
	if profile.Number == PRO2EL293DNEMA {
		return [4]core.GPIOPin{p[1], p[2], p[0], p[3]}
	}
	return [4]core.GPIOPin{p[0], p[2], p[1], p[3]}
}

func newShieldDriver(profile BoardProfile, gpio core.GPIODriver) *ShieldDriver {
	seq := NewSequencer(4, PhasingDual, SequenceAlternating)
	seq.SetSteppingMode(SteppingFull)
	return &ShieldDriver{
		profile: profile,
		gpio:    gpio,
		pins:    shieldPins(profile),
		seq:     seq,
		reverse: profile.Reverse,
	}
}

func (d *ShieldDriver) Name() string   { return d.profile.Name }
func (d *ShieldDriver) Family() Family { return FamilyShield }

func (d *ShieldDriver) Configure() error {
	if err := d.profile.Validate(); err != nil {
		return err
	}
	return configurePins(d.gpio, d.pins[:]...)
}

// SetStepMode always reports STEP1
func (d *ShieldDriver) SetStepMode(StepMode) StepMode {
	return STEP1
}

func (d *ShieldDriver) StepMode() StepMode {
	return STEP1
}

func (d *ShieldDriver) SetReverse(reverse bool) {
	d.reverse = reverse
}

func (d *ShieldDriver) Energize() {}

func (d *ShieldDriver) Release() {
	writePattern(d.gpio, d.pins[:], 0)
}

func (d *ShieldDriver) Step(dir Direction) {
	writePattern(d.gpio, d.pins[:], d.seq.Advance(dir.Apply(d.reverse)))
}
