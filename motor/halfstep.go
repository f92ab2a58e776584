package motor

import "gofocus/core"

// HalfStepDriver drives ULN2003, L298N, L293D mini and L9110S boards
// through a coil pattern sequencer
type HalfStepDriver struct {
	profile BoardProfile
	gpio    core.GPIODriver
	pins    []core.GPIOPin
	seq     *Sequencer
	mode    StepMode
	reverse bool
}

func newHalfStepDriver(profile BoardProfile, gpio core.GPIODriver) *HalfStepDriver {
	pins := profile.CoilPins()
	pinCount := len(pins)
	if pinCount == 0 {
		pinCount = 4
	}
	return &HalfStepDriver{
		profile: profile,
		gpio:    gpio,
		pins:    pins,
		seq:     NewSequencer(pinCount, profile.Phasing, profile.Sequence),
		mode:    STEP1,
		reverse: profile.Reverse,
	}
}

func (d *HalfStepDriver) Name() string   { return d.profile.Name }
func (d *HalfStepDriver) Family() Family { return FamilyHalfStepper }

func (d *HalfStepDriver) Configure() error {
	if err := d.profile.Validate(); err != nil {
		return err
	}
	if err := configurePins(d.gpio, d.pins...); err != nil {
		return err
	}
	d.SetStepMode(d.profile.StepMode)
	return nil
}

// SetStepMode accepts STEP1 and STEP2; anything else falls back to STEP1
func (d *HalfStepDriver) SetStepMode(mode StepMode) StepMode {
	switch mode {
	case STEP2:
		d.seq.SetSteppingMode(SteppingHalf)
	default:
		mode = STEP1
		d.seq.SetSteppingMode(SteppingFull)
	}
	d.mode = mode
	return mode
}

func (d *HalfStepDriver) StepMode() StepMode {
	return d.mode
}

func (d *HalfStepDriver) SetReverse(reverse bool) {
	d.reverse = reverse
}

func (d *HalfStepDriver) Energize() {}

// Release drives every coil pin low
func (d *HalfStepDriver) Release() {
	writePattern(d.gpio, d.pins, 0)
}

func (d *HalfStepDriver) Step(dir Direction) {
	writePattern(d.gpio, d.pins, d.seq.Advance(dir.Apply(d.reverse)))
}

// Sequencer exposes the pattern walker for diagnostics
func (d *HalfStepDriver) Sequencer() *Sequencer {
	return d.seq
}
