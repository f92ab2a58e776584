package motion

import (
	"errors"
	"fmt"

	"gofocus/core"
	"gofocus/motor"
)

var (
	// ErrTimerArm is returned when the step timer could not be attached
	ErrTimerArm = errors.New("step timer arm failed")

	// ErrMoveInFlight is returned when a move is requested while one is running
	ErrMoveInFlight = errors.New("move already in flight")
)

// Position limits
const (
	DefaultMaxStep int32 = 80000
	MinMaxStep     int32 = 1024
	MaxMaxStep     int32 = 500000
)

// Speed selects the multiplier applied to the base step period
type Speed uint8

const (
	Slow Speed = iota
	Medium
	Fast
)

// Multiplier returns the period multiplier: slow 3, medium 2, fast 1
func (s Speed) Multiplier() uint32 {
	switch s {
	case Slow:
		return 3
	case Medium:
		return 2
	default:
		return 1
	}
}

func (s Speed) String() string {
	switch s {
	case Slow:
		return "slow"
	case Medium:
		return "medium"
	default:
		return "fast"
	}
}

// State is the executor move state
type State uint8

const (
	Idle State = iota
	Moving
	Completed
)

func (s State) String() string {
	switch s {
	case Moving:
		return "moving"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

// Executor runs one move at a time: a periodic timer callback drains the step
// budget through the motor driver while the main loop polls for completion.
type Executor struct {
	driver motor.MotorDriver
	timer  core.HardwareTimer
	shared Shared
	tickFn func()

	moving    bool
	target    int32
	maxStep   int32
	speed     Speed
	baseDelay uint32 // microseconds
}

// NewExecutor creates an idle executor at position 0
func NewExecutor(driver motor.MotorDriver, timer core.HardwareTimer) *Executor {
	e := &Executor{
		driver:    driver,
		timer:     timer,
		maxStep:   DefaultMaxStep,
		speed:     Fast,
		baseDelay: motor.DefaultSpeedDelay,
	}
	e.shared.upper.Store(e.maxStep)
	e.tickFn = e.tick
	return e
}

// tick is the timer callback
func (e *Executor) tick() {
	sh := &e.shared
	if sh.budget.Load() > 0 && !sh.halt.Load() {
		dir := motor.Direction(sh.outward.Load())
		e.driver.Step(dir)
		sh.budget.Add(^uint32(0))

		pos := sh.position.Load()
		if dir == motor.Outward {
			if pos < sh.upper.Load() {
				pos++
			}
		} else if pos > 0 {
			pos--
		}
		sh.position.Store(pos)
	}
	if sh.budget.Load() == 0 || sh.halt.Load() {
		sh.completed.Store(true)
	}
}

// InitiateMove starts stepping count steps in dir. On a timer failure the
// executor stays idle and the wrapped ErrTimerArm is returned.
func (e *Executor) InitiateMove(dir motor.Direction, count uint32) error {
	if e.moving {
		return ErrMoveInFlight
	}

	sh := &e.shared
	sh.budget.Store(count)
	sh.outward.Store(bool(dir))
	sh.halt.Store(false)
	e.driver.Energize()
	sh.completed.Store(false)

	period := e.Period()
	if err := e.timer.Arm(period, e.tickFn); err != nil {
		sh.budget.Store(0)
		core.RecordTiming(core.EvtTimerArmFail, int32(period), 0)
		return fmt.Errorf("%w: %v", ErrTimerArm, err)
	}
	e.moving = true
	core.RecordTiming(core.EvtMoveStart, boolToInt32(bool(dir)), int32(count))
	return nil
}

// Halt asks the callback to stop at its next tick. Steps already taken stay taken.
func (e *Executor) Halt() {
	e.shared.halt.Store(true)
	core.RecordTiming(core.EvtHaltRequest, e.shared.position.Load(), int32(e.shared.budget.Load()))
}

// Completed reports whether the in-flight move has finished
func (e *Executor) Completed() bool {
	return e.moving && e.shared.completed.Load()
}

// EndMove detaches the timer and returns to idle. Call once Completed is observed.
func (e *Executor) EndMove() {
	if !e.moving {
		return
	}
	e.timer.Detach()
	e.moving = false
	e.shared.budget.Store(0)
	core.RecordTiming(core.EvtMoveEnd, e.shared.position.Load(), 0)
}

// State returns Idle, Moving or Completed
func (e *Executor) State() State {
	switch {
	case !e.moving:
		return Idle
	case e.shared.completed.Load():
		return Completed
	default:
		return Moving
	}
}

// Moving reports whether the timer is attached
func (e *Executor) Moving() bool {
	return e.moving
}

// Shared exposes the interrupt-shared handle for read-only observers
func (e *Executor) Shared() *Shared {
	return &e.shared
}

// Driver returns the motor driver
func (e *Executor) Driver() motor.MotorDriver {
	return e.driver
}

// Position returns the absolute position
func (e *Executor) Position() int32 {
	return e.shared.position.Load()
}

// SetPosition redefines the current position without moving. Ignored while moving.
func (e *Executor) SetPosition(pos int32) {
	if e.moving {
		return
	}
	e.shared.position.Store(clamp(pos, 0, e.maxStep))
}

// Direction returns the direction of the last move
func (e *Executor) Direction() motor.Direction {
	return e.shared.Direction()
}

// SetDirection records the last direction, used when restoring saved state
func (e *Executor) SetDirection(dir motor.Direction) {
	if e.moving {
		return
	}
	e.shared.outward.Store(bool(dir))
}

// Target returns the target position
func (e *Executor) Target() int32 {
	return e.target
}

// SetTarget stores pos clamped to [0, maxStep] and returns the stored value
func (e *Executor) SetTarget(pos int32) int32 {
	e.target = clamp(pos, 0, e.maxStep)
	return e.target
}

// MaxStep returns the upper position limit
func (e *Executor) MaxStep() int32 {
	return e.maxStep
}

// SetMaxStep sets the upper limit, bounded to [1024, 500000]. Target and
// position are pulled inside the new limit. Ignored while moving.
func (e *Executor) SetMaxStep(max int32) int32 {
	if e.moving {
		return e.maxStep
	}
	e.maxStep = clamp(max, MinMaxStep, MaxMaxStep)
	e.shared.upper.Store(e.maxStep)
	e.target = clamp(e.target, 0, e.maxStep)
	e.shared.position.Store(clamp(e.shared.position.Load(), 0, e.maxStep))
	return e.maxStep
}

// Speed returns the speed setting
func (e *Executor) Speed() Speed {
	return e.speed
}

// SetSpeed sets the speed; out of range values become Fast
func (e *Executor) SetSpeed(s Speed) Speed {
	if s > Fast {
		s = Fast
	}
	e.speed = s
	return s
}

// BaseDelay returns the base step period in microseconds
func (e *Executor) BaseDelay() uint32 {
	return e.baseDelay
}

// SetBaseDelay sets the base step period, bounded to [500, 14000] microseconds
func (e *Executor) SetBaseDelay(us uint32) uint32 {
	e.baseDelay = motor.ClampSpeedDelay(us)
	return e.baseDelay
}

// Period returns the timer period for the current speed
func (e *Executor) Period() uint32 {
	return e.baseDelay * e.speed.Multiplier()
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
