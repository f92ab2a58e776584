package tempcomp

import (
	"math"

	"gofocus/core"
)

// Direction is the way the focuser moves as temperature falls
type Direction uint8

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

const (
	// Threshold is the temperature change in degrees C that triggers an adjustment
	Threshold = 1.0

	MaxCoefficient int32 = 256
)

// TargetAccess is the part of the motion executor the compensator adjusts
type TargetAccess interface {
	Target() int32
	SetTarget(pos int32) int32
}

// Compensator shifts the focuser target as the tube temperature drifts.
// It only rewrites the target; moving the motor is left to the caller.
type Compensator struct {
	target TargetAccess

	enabled     bool
	available   bool
	direction   Direction
	coefficient int32 // steps per trigger
	startTemp   float64
	lastReading float64
}

// NewCompensator creates a disabled compensator
func NewCompensator(target TargetAccess) *Compensator {
	return &Compensator{
		target:      target,
		startTemp:   DefaultTemperature,
		lastReading: DefaultTemperature,
	}
}

// Enable starts compensating from the latest reading
func (c *Compensator) Enable() {
	c.enabled = true
	c.startTemp = c.lastReading
}

// Disable stops compensating
func (c *Compensator) Disable() {
	c.enabled = false
}

// SetEnabled enables or disables compensation
func (c *Compensator) SetEnabled(enabled bool) {
	if enabled {
		c.Enable()
	} else {
		c.Disable()
	}
}

func (c *Compensator) Enabled() bool {
	return c.enabled
}

// SetAvailable records whether a probe is present
func (c *Compensator) SetAvailable(available bool) {
	c.available = available
}

func (c *Compensator) Available() bool {
	return c.available
}

func (c *Compensator) Direction() Direction {
	return c.direction
}

func (c *Compensator) SetDirection(d Direction) {
	c.direction = d & 1
}

func (c *Compensator) Coefficient() int32 {
	return c.coefficient
}

// SetCoefficient sets the steps applied per trigger, bounded to [0, 256]
func (c *Compensator) SetCoefficient(steps int32) {
	c.coefficient = ClampCoefficient(steps)
}

// ClampCoefficient bounds a coefficient to [0, MaxCoefficient]
func ClampCoefficient(steps int32) int32 {
	if steps < 0 {
		return 0
	}
	if steps > MaxCoefficient {
		return MaxCoefficient
	}
	return steps
}

// StartTemperature returns the reference temperature of the next comparison
func (c *Compensator) StartTemperature() float64 {
	return c.startTemp
}

// LastReading returns the last temperature passed to Observe or Update
func (c *Compensator) LastReading() float64 {
	return c.lastReading
}

// Observe records a reading without adjusting anything
func (c *Compensator) Observe(reading float64) {
	c.lastReading = reading
}

// Update compares reading against the start temperature and, once it has
// moved by at least Threshold, shifts the target by the coefficient and
// restarts from reading. Returns true when the target was rewritten.
func (c *Compensator) Update(reading float64) bool {
	if math.IsNaN(reading) || math.IsInf(reading, 0) {
		return false
	}
	c.lastReading = reading
	if !c.enabled {
		return false
	}

	delta := reading - c.startTemp
	if delta < Threshold && delta > -Threshold {
		return false
	}

	falling := delta < 0
	adj := c.coefficient
	// IN moves inward as it cools, OUT moves outward as it cools
	if (c.direction == In) == falling {
		adj = -adj
	}

	old := c.target.Target()
	updated := c.target.SetTarget(old + adj)
	c.startTemp = reading
	core.RecordTiming(core.EvtTempComp, old, updated)
	return true
}
