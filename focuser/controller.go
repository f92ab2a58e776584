// Package focuser runs the focuser main loop: it owns the motion executor,
// the temperature compensator and the configuration store, and exposes the
// operations an outer command layer calls.
package focuser

import (
	"errors"
	"time"

	"gofocus/blob"
	"gofocus/core"
	"gofocus/motion"
	"gofocus/motor"
	"gofocus/settings"
	"gofocus/tempcomp"
)

// Deps are the hardware and storage services the controller consumes
type Deps struct {
	Blobs blob.Store
	GPIO  core.GPIODriver
	Timer core.HardwareTimer
	Clock core.Clock

	// Source is optional; without it temperature compensation stays unavailable
	Source tempcomp.Source

	// Pulser optionally replaces GPIO step pulses on step/dir boards
	Pulser motor.StepPulser

	// BoardNumber is the board this build targets, used when no board config exists
	BoardNumber int

	SaveWindow   time.Duration
	ProbeRefresh time.Duration
}

type moveState uint8

const (
	stateIdle moveState = iota
	stateMoving
	stateDelayAfterMove
)

// Controller is the focuser main-loop context. All methods are main-loop only.
type Controller struct {
	clock    core.Clock
	store    *settings.Store
	profile  motor.BoardProfile
	driver   motor.MotorDriver
	exec     *motion.Executor
	comp     *tempcomp.Compensator
	probe    *tempcomp.Probe
	hasProbe bool

	state      moveState
	delayStart time.Duration
	pending    bool // target differs from position and should be moved to
	enableComp bool // enable compensation on the first good reading
}

// New loads the configuration, builds the motor driver for the persisted
// board and restores the saved position
func New(d Deps) (*Controller, error) {
	if d.Blobs == nil || d.GPIO == nil || d.Timer == nil || d.Clock == nil {
		return nil, errors.New("focuser: blobs, gpio, timer and clock are required")
	}

	store := settings.NewStore(d.Blobs, d.Clock, settings.Options{
		BoardNumber:   d.BoardNumber,
		SaveWindow:    d.SaveWindow,
		BoardDefaults: BoardDefaults,
		Overrides:     BoardOverrides,
	})
	if err := store.Load(); err != nil {
		core.DebugPrintln("[FOC] " + err.Error())
	}

	c := &Controller{clock: d.Clock, store: store}
	p := store.Persistent()

	c.profile = profileFromBoard(store.Board(), p.ReverseEnable)
	var opts []motor.Option
	if d.Pulser != nil {
		opts = append(opts, motor.WithPulser(d.Pulser))
	}
	c.driver = motor.NewDriver(c.profile, d.GPIO, opts...)
	if err := c.driver.Configure(); err != nil {
		core.DebugPrintln("[FOC] board " + c.profile.Name + ": " + err.Error() + ", motor disabled")
		c.profile = motor.NullProfile(c.profile.Number)
		c.driver = motor.NewDriver(c.profile, d.GPIO)
	}
	if mode := c.driver.SetStepMode(c.profile.StepMode); int(mode) != store.Board().StepMode {
		store.SetStepMode(int(mode))
	}

	c.exec = motion.NewExecutor(c.driver, d.Timer)
	c.exec.SetMaxStep(p.MaxStep)
	c.exec.SetSpeed(motion.Speed(p.MotorSpeed))
	c.exec.SetBaseDelay(c.profile.SpeedDelay)
	v := store.Variable()
	c.exec.SetPosition(v.Position)
	c.exec.SetDirection(motor.Direction(v.Outward))
	c.exec.SetTarget(v.Position)

	c.comp = tempcomp.NewCompensator(c.exec)
	c.comp.SetCoefficient(p.TempCoefficient)
	c.comp.SetDirection(tcDirection(p.TCDirectionOut))

	c.probe = tempcomp.NewProbe(d.Source, d.ProbeRefresh)
	c.hasProbe = d.Source != nil
	c.startProbe()

	if p.CoilPower {
		c.driver.Energize()
	} else {
		c.driver.Release()
	}
	return c, nil
}

func tcDirection(out bool) tempcomp.Direction {
	if out {
		return tempcomp.Out
	}
	return tempcomp.In
}

func (c *Controller) startProbe() {
	p := c.store.Persistent()
	// boards without a temperature pin do not support a probe
	if !c.hasProbe || !p.TempProbeEnable || !c.profile.TempPin.Valid() {
		c.probe.Stop()
		c.comp.SetAvailable(false)
		c.comp.Disable()
		return
	}
	loaded := c.probe.Start(c.clock.Now())
	c.comp.SetAvailable(loaded)
	c.enableComp = loaded && p.TempCompOnLoad
	if loaded {
		core.DebugPrintln("[FOC] temperature probe running")
	}
}

// Loop runs one main-loop iteration: move completion, delay after move,
// probe polling, compensation and debounced persistence
func (c *Controller) Loop() {
	now := c.clock.Now()

	switch c.state {
	case stateMoving:
		if c.exec.Completed() {
			c.state = stateDelayAfterMove
			c.delayStart = now
			core.RecordTiming(core.EvtMoveComplete, c.exec.Position(), int32(c.exec.Shared().Budget()))
		}
	case stateDelayAfterMove:
		delay := time.Duration(c.store.Persistent().DelayAfterMove) * time.Millisecond
		if now < c.delayStart || now-c.delayStart >= delay {
			c.finishMove()
		}
	case stateIdle:
		c.pollProbe(now)
		c.autoMove()
	}

	c.store.Tick(now)
}

func (c *Controller) finishMove() {
	c.exec.EndMove()
	if !c.store.Persistent().CoilPower {
		c.driver.Release()
	}
	c.state = stateIdle

	c.store.SetPosition(c.exec.Position())
	c.store.SetDirection(bool(c.exec.Direction()))
	core.DebugPrintln("[FOC] move done at " + core.Itoa(int(c.exec.Position())))
}

func (c *Controller) pollProbe(now time.Duration) {
	reading, fresh := c.probe.Poll(now)
	if !fresh {
		return
	}
	if c.enableComp {
		c.enableComp = false
		c.comp.Observe(reading)
		c.comp.Enable()
		return
	}
	if c.comp.Update(reading) {
		c.pending = true
		core.DebugPrintln("[FOC] tempcomp target " + core.Itoa(int(c.exec.Target())) + " at " + core.Ftoa(reading))
	}
}

func (c *Controller) autoMove() {
	if !c.pending {
		return
	}
	pos, target := c.exec.Position(), c.exec.Target()
	if pos == target {
		c.pending = false
		return
	}
	dir, count := motor.Outward, uint32(target-pos)
	if target < pos {
		dir, count = motor.Inward, uint32(pos-target)
	}
	c.startMove(dir, count)
}

// startMove arms the executor. A timer failure is logged and the move is
// dropped; it is not retried until the target changes.
func (c *Controller) startMove(dir motor.Direction, count uint32) bool {
	c.pending = false
	if err := c.exec.InitiateMove(dir, count); err != nil {
		core.DebugPrintln("[FOC] move not started: " + err.Error())
		return false
	}
	c.state = stateMoving
	return true
}

// Position returns the absolute focuser position
func (c *Controller) Position() int32 {
	return c.exec.Position()
}

// SetPosition redefines the current position and target without moving.
// Ignored while moving.
func (c *Controller) SetPosition(pos int32) {
	if c.IsMoving() {
		return
	}
	c.exec.SetPosition(pos)
	c.exec.SetTarget(c.exec.Position())
	c.pending = false
	c.store.SetPosition(c.exec.Position())
}

// Target returns the target position
func (c *Controller) Target() int32 {
	return c.exec.Target()
}

// SetTarget stores the target clamped to [0, maxStep]; the loop moves to it
// once idle. Returns the stored target.
func (c *Controller) SetTarget(pos int32) int32 {
	t := c.exec.SetTarget(pos)
	c.pending = true
	return t
}

// Move starts a relative move of steps in dir immediately if idle.
// The target is set to where the move ends. Returns false if no move started.
func (c *Controller) Move(dir motor.Direction, steps uint32) bool {
	if c.IsMoving() || steps == 0 {
		return false
	}
	pos := int64(c.exec.Position())
	end := pos + int64(steps)
	if dir == motor.Inward {
		end = pos - int64(steps)
	}
	if end < 0 {
		end = 0
	}
	if end > int64(c.exec.MaxStep()) {
		end = int64(c.exec.MaxStep())
	}
	c.exec.SetTarget(int32(end))
	if int32(end) == c.exec.Position() {
		return false
	}
	if end > pos {
		return c.startMove(motor.Outward, uint32(end-pos))
	}
	return c.startMove(motor.Inward, uint32(pos-end))
}

// Halt stops the current move within one step period
func (c *Controller) Halt() {
	c.pending = false
	if c.state == stateMoving {
		c.exec.Halt()
	}
}

// IsMoving reports whether a move, including its settle delay, is in progress
func (c *Controller) IsMoving() bool {
	return c.state != stateIdle
}

// MotionState returns the executor state
func (c *Controller) MotionState() motion.State {
	return c.exec.State()
}

func (c *Controller) MaxStep() int32 {
	return c.exec.MaxStep()
}

// SetMaxStep bounds and stores the upper limit. Ignored while moving.
func (c *Controller) SetMaxStep(max int32) int32 {
	if c.IsMoving() {
		return c.exec.MaxStep()
	}
	max = c.exec.SetMaxStep(max)
	c.store.SetMaxStep(max)
	return max
}

func (c *Controller) StepMode() motor.StepMode {
	return c.driver.StepMode()
}

// SetStepMode requests a microstep mode and returns the mode the board uses
func (c *Controller) SetStepMode(mode motor.StepMode) motor.StepMode {
	if c.IsMoving() {
		return c.driver.StepMode()
	}
	mode = c.driver.SetStepMode(mode)
	c.store.SetStepMode(int(mode))
	return mode
}

func (c *Controller) MotorSpeed() motion.Speed {
	return c.exec.Speed()
}

// SetMotorSpeed applies to the next move
func (c *Controller) SetMotorSpeed(s motion.Speed) motion.Speed {
	s = c.exec.SetSpeed(s)
	c.store.SetMotorSpeed(uint8(s))
	return s
}

// SpeedDelay returns the base step period in microseconds
func (c *Controller) SpeedDelay() uint32 {
	return c.exec.BaseDelay()
}

// SetSpeedDelay sets the base step period for the next move
func (c *Controller) SetSpeedDelay(us uint32) uint32 {
	us = c.exec.SetBaseDelay(us)
	c.store.SetSpeedDelay(us)
	return us
}

func (c *Controller) ReverseEnable() bool {
	return c.store.Persistent().ReverseEnable
}

// SetReverseEnable swaps the motor direction. Ignored while moving.
func (c *Controller) SetReverseEnable(reverse bool) {
	if c.IsMoving() {
		return
	}
	c.driver.SetReverse(reverse)
	c.store.SetReverse(reverse)
}

func (c *Controller) BacklashInSteps() uint8 {
	return c.store.Persistent().BacklashIn
}

func (c *Controller) SetBacklashInSteps(steps uint8) {
	c.store.SetBacklashIn(steps)
}

func (c *Controller) BacklashOutSteps() uint8 {
	return c.store.Persistent().BacklashOut
}

func (c *Controller) SetBacklashOutSteps(steps uint8) {
	c.store.SetBacklashOut(steps)
}

func (c *Controller) CoilPower() bool {
	return c.store.Persistent().CoilPower
}

// SetCoilPower keeps the coils energized between moves when enabled
func (c *Controller) SetCoilPower(on bool) {
	c.store.SetCoilPower(on)
	if c.IsMoving() {
		return
	}
	if on {
		c.driver.Energize()
	} else {
		c.driver.Release()
	}
}

func (c *Controller) DelayAfterMove() uint8 {
	return c.store.Persistent().DelayAfterMove
}

func (c *Controller) SetDelayAfterMove(ms uint8) {
	c.store.SetDelayAfterMove(ms)
}

func (c *Controller) TempCompEnable() bool {
	return c.comp.Enabled()
}

// SetTempCompEnable turns compensation on or off. Enabling needs a probe;
// returns the resulting state.
func (c *Controller) SetTempCompEnable(on bool) bool {
	if on && !c.comp.Available() {
		return false
	}
	c.enableComp = false
	c.comp.Observe(c.probe.Temperature())
	c.comp.SetEnabled(on)
	return c.comp.Enabled()
}

func (c *Controller) TempCompAvailable() bool {
	return c.comp.Available()
}

func (c *Controller) TempCompDirection() tempcomp.Direction {
	return c.comp.Direction()
}

func (c *Controller) SetTempCompDirection(d tempcomp.Direction) {
	c.comp.SetDirection(d)
	c.store.SetTCDirectionOut(c.comp.Direction() == tempcomp.Out)
}

func (c *Controller) TempCompCoefficient() int32 {
	return c.comp.Coefficient()
}

func (c *Controller) SetTempCompCoefficient(steps int32) {
	c.comp.SetCoefficient(steps)
	c.store.SetTempCoefficient(c.comp.Coefficient())
}

// SetTempProbeEnable enables the probe and restarts it
func (c *Controller) SetTempProbeEnable(on bool) {
	c.store.SetTempProbeEnable(on)
	c.startProbe()
}

// Temperature returns the last good probe reading in degrees C
func (c *Controller) Temperature() float64 {
	return c.probe.Temperature()
}

// TemperatureUnit returns the configured reporting unit
func (c *Controller) TemperatureUnit() tempcomp.Unit {
	if c.store.Persistent().TempModeCelsius {
		return tempcomp.Celsius
	}
	return tempcomp.Fahrenheit
}

// DisplayTemperature returns the last reading in the configured unit
func (c *Controller) DisplayTemperature() float64 {
	return c.TemperatureUnit().Convert(c.probe.Temperature())
}

// Settings exposes the configuration store for fields the core does not interpret
func (c *Controller) Settings() *settings.Store {
	return c.store
}

// Board returns the active board profile
func (c *Controller) Board() motor.BoardProfile {
	return c.profile
}

// SaveNow writes all configuration immediately, including the current position
func (c *Controller) SaveNow() error {
	if !c.IsMoving() {
		c.store.SetPosition(c.exec.Position())
		c.store.SetDirection(bool(c.exec.Direction()))
	}
	return c.store.SaveNow()
}

// SetFocuserDefaults resets the configuration to factory defaults and applies
// the motion settings. Board wiring changes take effect on the next boot.
func (c *Controller) SetFocuserDefaults() error {
	if c.IsMoving() {
		return motion.ErrMoveInFlight
	}
	err := c.store.SetFocuserDefaults()

	p := c.store.Persistent()
	c.exec.SetMaxStep(p.MaxStep)
	c.exec.SetSpeed(motion.Speed(p.MotorSpeed))
	c.exec.SetBaseDelay(c.store.Board().SpeedDelay)
	c.exec.SetPosition(c.store.Variable().Position)
	c.exec.SetTarget(c.exec.Position())
	c.driver.SetReverse(p.ReverseEnable)
	c.comp.SetCoefficient(p.TempCoefficient)
	c.comp.SetDirection(tcDirection(p.TCDirectionOut))
	c.pending = false
	c.startProbe()
	return err
}

// Status is a snapshot for reporting
type Status struct {
	Position    int32
	Target      int32
	MaxStep     int32
	Moving      bool
	Direction   motor.Direction
	StepMode    motor.StepMode
	Speed       motion.Speed
	Temperature float64
	TempComp    bool
	Board       string
}

// Status returns a snapshot of the controller state
func (c *Controller) Status() Status {
	return Status{
		Position:    c.exec.Position(),
		Target:      c.exec.Target(),
		MaxStep:     c.exec.MaxStep(),
		Moving:      c.IsMoving(),
		Direction:   c.exec.Direction(),
		StepMode:    c.driver.StepMode(),
		Speed:       c.exec.Speed(),
		Temperature: c.probe.Temperature(),
		TempComp:    c.comp.Enabled(),
		Board:       c.profile.Name,
	}
}
