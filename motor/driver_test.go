package motor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofocus/core"
)

type countingPulser struct {
	pulses int
}

func (p *countingPulser) Pulse() { p.pulses++ }

type claimingPulser struct {
	countingPulser
	claimed core.GPIOPin
	err     error
}

func (p *claimingPulser) ClaimPin(pin core.GPIOPin) error {
	p.claimed = pin
	return p.err
}

func TestFactoryPicksFamily(t *testing.T) {
	gpio := core.NewMemGPIO()

	cases := map[int]Family{
		PRO2EDRV8825:      FamilyStepDir,
		PRO2EULN2003:      FamilyHalfStepper,
		PRO2EL298NDS:      FamilyHalfStepper,
		PRO2EL293DNEMA:    FamilyShield,
		PRO2EL293D28BYJ48: FamilyShield,
		999:               FamilyNone,
	}
	for number, family := range cases {
		d := NewDriver(ProfileFor(number), gpio)
		assert.Equal(t, family, d.Family(), "board %d", number)
	}
}

func TestNullProfileIsInert(t *testing.T) {
	gpio := core.NewMemGPIO()
	p := ProfileFor(12345)
	assert.Equal(t, "Unknown", p.Name)
	assert.False(t, p.StepPin.Valid())

	d := NewDriver(p, gpio)
	require.NoError(t, d.Configure())
	d.Energize()
	d.Step(Outward)
	d.Release()
	assert.Equal(t, STEP1, d.SetStepMode(STEP16))
}

func TestStepDirDriver(t *testing.T) {
	gpio := core.NewMemGPIO()
	p := ProfileFor(PRO2EDRV8825)
	p.FixedStepMode = STEP8
	pulser := &countingPulser{}

	d := NewDriver(p, gpio, WithPulser(pulser))
	require.NoError(t, d.Configure())
	assert.True(t, gpio.Level(p.EnablePin), "driver starts disabled")

	d.Energize()
	assert.False(t, gpio.Level(p.EnablePin))

	d.Step(Outward)
	assert.True(t, gpio.Level(p.DirPin))
	d.Step(Inward)
	assert.False(t, gpio.Level(p.DirPin))
	assert.Equal(t, 2, pulser.pulses)

	d.SetReverse(true)
	d.Step(Inward)
	assert.True(t, gpio.Level(p.DirPin), "reverse inverts the dir pin")

	assert.Equal(t, STEP8, d.SetStepMode(STEP2), "jumpered mode is not changed")

	d.Release()
	assert.True(t, gpio.Level(p.EnablePin))
}

func TestStepDirPulserClaimsPin(t *testing.T) {
	gpio := core.NewMemGPIO()
	p := ProfileFor(PRO2EDRV8825)

	pulser := &claimingPulser{claimed: core.NoPin}
	d := NewDriver(p, gpio, WithPulser(pulser))
	require.NoError(t, d.Configure())
	assert.Equal(t, p.StepPin, pulser.claimed)

	d.Step(Outward)
	assert.Equal(t, 1, pulser.pulses)
	assert.Equal(t, uint32(0), gpio.Writes(p.StepPin))
}

func TestStepDirPulserClaimFailureFallsBack(t *testing.T) {
	gpio := core.NewMemGPIO()
	p := ProfileFor(PRO2EDRV8825)

	pulser := &claimingPulser{err: errors.New("no state machine")}
	d := NewDriver(p, gpio, WithPulser(pulser))
	require.NoError(t, d.Configure())

	d.Step(Outward)
	assert.Equal(t, 0, pulser.pulses)
	assert.Equal(t, uint32(2), gpio.Writes(p.StepPin))
}

func TestStepDirDefaultPulse(t *testing.T) {
	gpio := core.NewMemGPIO()
	p := ProfileFor(WEMOSDRV8825)

	d := NewDriver(p, gpio)
	require.NoError(t, d.Configure())
	d.Step(Outward)

	assert.Equal(t, uint32(2), gpio.Writes(p.StepPin), "one high and one low write")
	assert.False(t, gpio.Level(p.StepPin))
}

func TestHalfStepDriver(t *testing.T) {
	gpio := core.NewMemGPIO()
	p := ProfileFor(PRO2EULN2003)

	d := NewDriver(p, gpio)
	require.NoError(t, d.Configure())

	assert.Equal(t, STEP1, d.SetStepMode(STEP4), "unsupported mode falls back")
	assert.Equal(t, STEP2, d.SetStepMode(STEP2))

	pins := p.Pins[:]
	d.Step(Outward)
	assert.Equal(t, uint8(0b1100), gpio.Pattern(pins...))
	d.Step(Outward)
	assert.Equal(t, uint8(0b0100), gpio.Pattern(pins...))
	d.Step(Inward)
	assert.Equal(t, uint8(0b1100), gpio.Pattern(pins...))

	d.Release()
	assert.Equal(t, uint8(0), gpio.Pattern(pins...))
}

func TestHalfStepReverse(t *testing.T) {
	gpio := core.NewMemGPIO()
	p := ProfileFor(PRO2EL298N)
	p.Reverse = true

	d := NewDriver(p, gpio)
	require.NoError(t, d.Configure())

	d.Step(Outward)
	assert.Equal(t, uint8(0b0001), gpio.Pattern(p.Pins[:]...), "reversed outward walks the table backwards")
}

func TestTwoPinBoard(t *testing.T) {
	gpio := core.NewMemGPIO()
	p := ProfileFor(PRO2EL9110S)
	p.Pins = [4]core.GPIOPin{4, 5, core.NoPin, core.NoPin}

	d := NewDriver(p, gpio)
	require.NoError(t, d.Configure())
	d.Step(Outward)
	assert.Equal(t, uint8(0b11), gpio.Pattern(4, 5))
}

func TestShieldDriver(t *testing.T) {
	gpio := core.NewMemGPIO()
	p := ProfileFor(PRO2EL293DNEMA)
	p.Pins = [4]core.GPIOPin{1, 2, 3, 4}

	d := NewDriver(p, gpio)
	require.NoError(t, d.Configure())
	assert.Equal(t, STEP1, d.SetStepMode(STEP2))

	// Coil order is IN2, IN3, IN1, IN4
	d.Step(Outward)
	assert.Equal(t, uint8(0b0110), gpio.Pattern(2, 3, 1, 4))
	d.Step(Outward)
	assert.Equal(t, uint8(0b0101), gpio.Pattern(2, 3, 1, 4))
}

func TestValidateRejectsMissingPins(t *testing.T) {
	p := ProfileFor(PRO2EDRV8825)
	p.DirPin = core.NoPin
	assert.ErrorIs(t, NewDriver(p, core.NewMemGPIO()).Configure(), ErrInvalidPins)

	p = ProfileFor(PRO2EL293D28BYJ48)
	p.Pins[3] = core.NoPin
	assert.ErrorIs(t, p.Validate(), ErrInvalidPins)
}

func TestClampSpeedDelay(t *testing.T) {
	assert.Equal(t, MinSpeedDelay, ClampSpeedDelay(10))
	assert.Equal(t, MaxSpeedDelay, ClampSpeedDelay(100000))
	assert.Equal(t, uint32(4000), ClampSpeedDelay(4000))
}
