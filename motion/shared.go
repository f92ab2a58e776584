package motion

import (
	"sync/atomic"

	"gofocus/motor"
)

// Shared is the state the step callback touches. Each field has one writer
// at a time: the callback owns budget, position and completed while a move
// is in flight; the main loop owns everything else, and owns position while idle.
type Shared struct {
	budget    atomic.Uint32
	outward   atomic.Bool
	halt      atomic.Bool
	completed atomic.Bool
	position  atomic.Int32
	upper     atomic.Int32 // position clamp, written only while idle
}

// Budget returns the steps left in the current move
func (s *Shared) Budget() uint32 {
	return s.budget.Load()
}

// Direction returns the direction of the current or last move
func (s *Shared) Direction() motor.Direction {
	return motor.Direction(s.outward.Load())
}

// HaltRequested reports whether a halt is pending
func (s *Shared) HaltRequested() bool {
	return s.halt.Load()
}

// Completed reports whether the callback has finished the move
func (s *Shared) Completed() bool {
	return s.completed.Load()
}

// Position returns the absolute position in steps
func (s *Shared) Position() int32 {
	return s.position.Load()
}
