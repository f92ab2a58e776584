package core

import (
	"errors"
	"time"
)

// ErrTimerBusy is returned when arming a timer that already has a callback attached
var ErrTimerBusy = errors.New("timer already armed")

// ErrTimerPeriod is returned for a zero arm period
var ErrTimerPeriod = errors.New("timer period must be non-zero")

// HardwareTimer is a periodic interrupt source.
// Implementations can use a hardware alarm, the timer list, or a goroutine ticker.
type HardwareTimer interface {
	// Arm attaches callback and fires it every periodUs microseconds.
	// The callback runs in interrupt context: it must be short and allocation free.
	Arm(periodUs uint32, callback func()) error

	// Detach stops the periodic callback.
	// Must not be called from inside the callback itself.
	Detach()
}

// Clock is a monotonic time source measured from boot
type Clock interface {
	Now() time.Duration
}
