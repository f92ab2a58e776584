package motion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofocus/core"
	"gofocus/motor"
)

func newTestExecutor(t *testing.T) (*Executor, *core.ManualTimer, *core.MemGPIO) {
	t.Helper()
	gpio := core.NewMemGPIO()
	drv := motor.NewDriver(motor.ProfileFor(motor.PRO2EULN2003), gpio)
	require.NoError(t, drv.Configure())
	timer := core.NewManualTimer()
	return NewExecutor(drv, timer), timer, gpio
}

func TestMoveRunsToCompletion(t *testing.T) {
	e, timer, _ := newTestExecutor(t)
	e.SetPosition(5000)

	require.NoError(t, e.InitiateMove(motor.Outward, 10))
	assert.Equal(t, Moving, e.State())
	assert.Equal(t, uint32(4000), timer.Period())

	timer.Fire(9)
	assert.False(t, e.Completed())
	timer.Fire(1)
	assert.True(t, e.Completed())
	assert.Equal(t, Completed, e.State())
	assert.Equal(t, int32(5010), e.Position())

	// Timer stays armed until the main loop ends the move
	assert.True(t, timer.Armed())
	timer.Fire(3)
	assert.Equal(t, int32(5010), e.Position())

	e.EndMove()
	assert.False(t, timer.Armed())
	assert.Equal(t, Idle, e.State())
}

func TestSpeedMultiplier(t *testing.T) {
	e, timer, _ := newTestExecutor(t)
	e.SetBaseDelay(1000)

	for speed, want := range map[Speed]uint32{Slow: 3000, Medium: 2000, Fast: 1000} {
		e.SetSpeed(speed)
		require.NoError(t, e.InitiateMove(motor.Inward, 1))
		assert.Equal(t, want, timer.Period(), speed.String())
		timer.Fire(1)
		e.EndMove()
	}
}

func TestOnlyOneMoveInFlight(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	require.NoError(t, e.InitiateMove(motor.Outward, 100))
	assert.ErrorIs(t, e.InitiateMove(motor.Outward, 5), ErrMoveInFlight)
}

func TestHaltStopsWithinOneTick(t *testing.T) {
	e, timer, _ := newTestExecutor(t)
	e.SetPosition(1000)

	require.NoError(t, e.InitiateMove(motor.Inward, 500))
	timer.Fire(20)
	assert.Equal(t, int32(980), e.Position())

	e.Halt()
	timer.Fire(1)
	assert.True(t, e.Completed())
	assert.True(t, e.Moving(), "still moving until EndMove")

	timer.Fire(5)
	assert.LessOrEqual(t, 980-e.Position(), int32(1), "at most one extra step after halt")

	e.EndMove()
	assert.False(t, e.Moving())

	// Next move clears the halt
	require.NoError(t, e.InitiateMove(motor.Outward, 2))
	assert.False(t, e.Shared().HaltRequested())
	timer.Fire(2)
	assert.True(t, e.Completed())
}

func TestTimerArmFailure(t *testing.T) {
	e, timer, _ := newTestExecutor(t)
	timer.ArmErr = errors.New("no alarm available")

	err := e.InitiateMove(motor.Outward, 10)
	assert.ErrorIs(t, err, ErrTimerArm)
	assert.False(t, e.Moving())
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, uint32(0), e.Shared().Budget())
}

func TestPositionClamped(t *testing.T) {
	e, timer, _ := newTestExecutor(t)
	e.SetMaxStep(2000)
	e.SetPosition(1999)

	require.NoError(t, e.InitiateMove(motor.Outward, 5))
	timer.Fire(5)
	assert.Equal(t, int32(2000), e.Position())
	e.EndMove()

	e.SetPosition(1)
	require.NoError(t, e.InitiateMove(motor.Inward, 5))
	timer.Fire(5)
	assert.Equal(t, int32(0), e.Position())
	e.EndMove()
}

func TestSetTargetClamped(t *testing.T) {
	e, _, _ := newTestExecutor(t)

	assert.Equal(t, int32(0), e.SetTarget(-5))
	assert.Equal(t, int32(80000), e.SetTarget(999999))
	assert.Equal(t, int32(1234), e.SetTarget(1234))
}

func TestSetMaxStepBounds(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	e.SetTarget(60000)

	assert.Equal(t, MinMaxStep, e.SetMaxStep(10))
	assert.Equal(t, MaxMaxStep, e.SetMaxStep(9000000))
	assert.Equal(t, int32(50000), e.SetMaxStep(50000))
	assert.Equal(t, int32(50000), e.Target(), "target pulled inside the new limit")
}

func TestSetPositionIgnoredWhileMoving(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	e.SetPosition(100)
	require.NoError(t, e.InitiateMove(motor.Outward, 10))
	e.SetPosition(5)
	assert.Equal(t, int32(100), e.Position())
}

func TestBaseDelayBounds(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	assert.Equal(t, uint32(500), e.SetBaseDelay(1))
	assert.Equal(t, uint32(14000), e.SetBaseDelay(20000))
}
