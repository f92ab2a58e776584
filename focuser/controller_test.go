package focuser

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofocus/blob"
	"gofocus/core"
	"gofocus/motion"
	"gofocus/motor"
	"gofocus/settings"
	"gofocus/tempcomp"
)

type fakeSource struct {
	present bool
	value   float64
}

func (f *fakeSource) Present() bool                     { return f.present }
func (f *fakeSource) RequestTemperature() error         { return nil }
func (f *fakeSource) LastTemperature() (float64, error) { return f.value, nil }

type rig struct {
	c     *Controller
	blobs *blob.MemStore
	gpio  *core.MemGPIO
	timer *core.ManualTimer
	clock *core.ManualClock
	src   *fakeSource
}

func newRig(t *testing.T, board int, preload map[string]string) *rig {
	t.Helper()
	r := &rig{
		blobs: blob.NewMemStore(),
		gpio:  core.NewMemGPIO(),
		timer: core.NewManualTimer(),
		clock: &core.ManualClock{},
		src:   &fakeSource{present: true, value: 20.0},
	}
	for name, data := range preload {
		require.NoError(t, r.blobs.Write(name, []byte(data)))
	}
	c, err := New(Deps{
		Blobs:       r.blobs,
		GPIO:        r.gpio,
		Timer:       r.timer,
		Clock:       r.clock,
		Source:      r.src,
		BoardNumber: board,
	})
	require.NoError(t, err)
	r.c = c
	return r
}

// run drives the main loop, firing one step per iteration, until idle
func (r *rig) run(t *testing.T) {
	t.Helper()
	for i := 0; i < 100000; i++ {
		r.c.Loop()
		if !r.c.IsMoving() {
			return
		}
		r.timer.Fire(1)
		r.clock.Advance(time.Millisecond)
	}
	t.Fatal("move never finished")
}

func TestNewDefaults(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)

	assert.Equal(t, settings.DefaultPosition, r.c.Position())
	assert.Equal(t, settings.DefaultPosition, r.c.Target())
	assert.Equal(t, settings.DefaultMaxStep, r.c.MaxStep())
	assert.Equal(t, motion.Fast, r.c.MotorSpeed())
	assert.Equal(t, "PRO2EULN2003", r.c.Board().Name)
	assert.False(t, r.c.IsMoving())

	for _, pin := range r.c.Board().Pins {
		assert.True(t, r.gpio.IsOutput(pin))
	}
}

func TestMoveToTarget(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)

	assert.Equal(t, int32(5100), r.c.SetTarget(5100))
	r.c.Loop()
	require.True(t, r.c.IsMoving())
	assert.Equal(t, uint32(4000), r.timer.Period())

	r.run(t)
	assert.Equal(t, int32(5100), r.c.Position())
	assert.False(t, r.timer.Armed())
	assert.Equal(t, motor.Outward, r.c.Status().Direction)

	// coils released after the move
	b := r.c.Board()
	assert.Equal(t, uint8(0), r.gpio.Pattern(b.Pins[:]...))

	// position persisted after the save window
	assert.True(t, r.c.Settings().Dirty(settings.DomainVariable))
	r.clock.Advance(settings.DefaultSaveWindow)
	r.c.Loop()
	data, err := r.blobs.Read(settings.VariableBlob)
	require.NoError(t, err)
	var v settings.Variable
	require.NoError(t, json.Unmarshal(data, &v))
	assert.Equal(t, int32(5100), v.Position)
	assert.True(t, v.Outward)
}

func TestDelayAfterMove(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	r.c.SetDelayAfterMove(25)

	require.True(t, r.c.Move(motor.Inward, 3))
	r.timer.Fire(3)
	r.c.Loop()
	assert.Equal(t, motion.Completed, r.c.MotionState())
	assert.True(t, r.c.IsMoving())

	r.clock.Advance(24 * time.Millisecond)
	r.c.Loop()
	assert.True(t, r.c.IsMoving(), "still settling")

	r.clock.Advance(time.Millisecond)
	r.c.Loop()
	assert.False(t, r.c.IsMoving())
	assert.Equal(t, int32(4997), r.c.Position())
}

func TestCoilPowerKeepsCoilsEnergized(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	r.c.SetCoilPower(true)

	r.c.SetTarget(5002)
	r.run(t)
	b := r.c.Board()
	assert.NotEqual(t, uint8(0), r.gpio.Pattern(b.Pins[:]...))
}

func TestHaltScenario(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)

	r.c.SetTarget(6000)
	r.c.Loop()
	r.timer.Fire(100)
	assert.Equal(t, int32(5100), r.c.Position())

	r.c.Halt()
	r.timer.Fire(1)
	halted := r.c.Position()
	assert.LessOrEqual(t, halted-5100, int32(1))
	assert.True(t, r.c.IsMoving(), "moving until the move is ended")

	r.timer.Fire(10)
	assert.Equal(t, halted, r.c.Position())

	r.run(t)
	assert.False(t, r.c.IsMoving())

	// stale target is not chased after a halt
	r.c.Loop()
	assert.False(t, r.c.IsMoving())
	assert.Equal(t, int32(6000), r.c.Target())
}

func TestTargetSetAfterHaltIsKept(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)

	r.c.SetTarget(6000)
	r.c.Loop()
	r.timer.Fire(100)
	r.c.Halt()
	r.c.SetTarget(5050)
	assert.True(t, r.c.IsMoving())

	r.run(t)
	r.c.Loop()
	r.run(t)
	assert.Equal(t, int32(5050), r.c.Position())
	assert.Equal(t, int32(5050), r.c.Target())
}

func TestTimerArmFailureIsNotRetried(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	r.timer.ArmErr = errors.New("alarm in use")

	r.c.SetTarget(5050)
	r.c.Loop()
	assert.False(t, r.c.IsMoving())
	r.c.Loop()
	assert.Equal(t, 0, r.timer.Arms())

	r.c.SetTarget(5060)
	r.c.Loop()
	assert.True(t, r.c.IsMoving())
	assert.Equal(t, 1, r.timer.Arms())
}

func TestSetTargetClamps(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	assert.Equal(t, int32(0), r.c.SetTarget(-5))
	assert.Equal(t, int32(80000), r.c.SetTarget(999999))
}

func TestSetPositionSyncsTarget(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	r.c.SetPosition(1234)
	r.c.Loop()
	assert.False(t, r.c.IsMoving())
	assert.Equal(t, int32(1234), r.c.Target())
}

func TestSettersIgnoredWhileMoving(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	r.c.SetTarget(5500)
	r.c.Loop()
	require.True(t, r.c.IsMoving())

	r.c.SetPosition(1)
	r.c.SetMaxStep(2000)
	assert.Equal(t, settings.DefaultMaxStep, r.c.MaxStep())
	assert.Equal(t, motor.STEP1, r.c.SetStepMode(motor.STEP2))
	assert.False(t, r.c.Move(motor.Inward, 10))
}

func TestStepModeAndSpeedPersist(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)

	assert.Equal(t, motor.STEP2, r.c.SetStepMode(motor.STEP2))
	assert.Equal(t, motor.STEP1, r.c.SetStepMode(motor.STEP16))
	assert.Equal(t, 1, r.c.Settings().Board().StepMode)

	r.c.SetMotorSpeed(motion.Slow)
	r.c.SetTarget(5001)
	r.c.Loop()
	assert.Equal(t, uint32(12000), r.timer.Period())
	assert.Equal(t, settings.SpeedSlow, r.c.Settings().Persistent().MotorSpeed)
}

func TestReverseEnable(t *testing.T) {
	r := newRig(t, motor.PRO2EDRV8825, nil)
	r.c.SetReverseEnable(true)
	assert.True(t, r.c.ReverseEnable())

	r.c.SetTarget(5001)
	r.run(t)
	assert.False(t, r.gpio.Level(r.c.Board().DirPin), "reversed outward drives dir low")
	assert.Equal(t, int32(5001), r.c.Position())
}

func TestBacklashIsStoredOnly(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	r.c.SetBacklashInSteps(20)
	r.c.SetBacklashOutSteps(30)

	r.c.SetTarget(5010)
	r.run(t)
	assert.Equal(t, int32(5010), r.c.Position())
	assert.Equal(t, uint8(20), r.c.BacklashInSteps())
	assert.Equal(t, uint8(30), r.c.BacklashOutSteps())
}

func TestUnknownBoardUsesNullDriver(t *testing.T) {
	r := newRig(t, 7, nil)
	assert.Equal(t, motor.FamilyNone, r.c.Board().Family)

	r.c.SetTarget(5003)
	r.run(t)
	assert.Equal(t, int32(5003), r.c.Position())
}

func TestTemperatureCompensationMovesFocuser(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	assert.False(t, r.c.SetTempCompEnable(true), "no probe yet")

	r.c.SetTempProbeEnable(true)
	require.True(t, r.c.TempCompAvailable())

	r.clock.Advance(3 * time.Second)
	r.c.Loop()
	assert.Equal(t, 20.0, r.c.Temperature())

	r.c.SetPosition(1000)
	r.c.SetTempCompCoefficient(5)
	r.c.SetTempCompDirection(tempcomp.In)
	require.True(t, r.c.SetTempCompEnable(true))

	r.src.value = 18.5
	r.clock.Advance(3 * time.Second)
	r.c.Loop() // request
	r.clock.Advance(3 * time.Second)
	r.c.Loop() // read, adjust and start moving

	assert.Equal(t, int32(995), r.c.Target())
	assert.True(t, r.c.IsMoving())
	r.run(t)
	assert.Equal(t, int32(995), r.c.Position())

	// small drift does nothing
	r.src.value = 18.6
	r.clock.Advance(3 * time.Second)
	r.c.Loop()
	r.clock.Advance(3 * time.Second)
	r.c.Loop()
	assert.Equal(t, int32(995), r.c.Target())
	assert.False(t, r.c.IsMoving())
}

func TestTempCompOnLoad(t *testing.T) {
	p := settings.DefaultPersistent()
	p.TempProbeEnable = true
	p.TempCompOnLoad = true
	p.TempCoefficient = 10
	data, err := json.Marshal(p)
	require.NoError(t, err)

	r := newRig(t, motor.PRO2EULN2003, map[string]string{settings.PersistentBlob: string(data)})
	r.src.value = 15
	assert.False(t, r.c.TempCompEnable())

	r.clock.Advance(3 * time.Second)
	r.c.Loop()
	assert.True(t, r.c.TempCompEnable())
	assert.Equal(t, settings.DefaultPosition, r.c.Target(), "first reading only sets the reference")
}

func TestProbeRejectsImplausibleReading(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	r.src.value = 120
	r.c.SetTempProbeEnable(true)

	r.clock.Advance(3 * time.Second)
	r.c.Loop()
	assert.Equal(t, tempcomp.DefaultTemperature, r.c.Temperature())

	r.c.Settings().SetTempModeCelsius(false)
	assert.InDelta(t, 68.0, r.c.DisplayTemperature(), 1e-9)
}

func TestSaveNowWritesAll(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	before := r.blobs.Writes(settings.BoardBlob)

	require.NoError(t, r.c.SaveNow())
	assert.Equal(t, before+1, r.blobs.Writes(settings.BoardBlob))
}

func TestPersistFailureDoesNotStopMotion(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	r.blobs.FailWrites(settings.VariableBlob, errors.New("worn"))

	r.c.SetTarget(5005)
	r.run(t)
	r.clock.Advance(settings.DefaultSaveWindow)
	r.c.Loop()

	assert.Equal(t, int32(5005), r.c.Position())
	assert.ErrorIs(t, r.c.Settings().LastError(settings.DomainVariable), settings.ErrPersistWrite)
	assert.True(t, r.c.Settings().Dirty(settings.DomainVariable))
}

func TestRestoresSavedPosition(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, map[string]string{
		settings.VariableBlob: `{"fpos":4321,"fdir":true}`,
	})
	assert.Equal(t, int32(4321), r.c.Position())
	assert.Equal(t, motor.Outward, r.c.Status().Direction)
}

func TestSetFocuserDefaults(t *testing.T) {
	r := newRig(t, motor.PRO2EULN2003, nil)
	r.c.SetMaxStep(30000)
	r.c.SetPosition(100)
	require.NoError(t, r.c.SaveNow())

	require.NoError(t, r.c.SetFocuserDefaults())
	assert.Equal(t, settings.DefaultMaxStep, r.c.MaxStep())
	assert.Equal(t, settings.DefaultPosition, r.c.Position())
}
