package core

import "time"

// Timer frequencies for common MCUs
const (
	TimerFreq = 1000000 // 1MHz microsecond tick, matches the RP2040 timer peripheral
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// TickClock extends the wrapping 32-bit system tick counter into a
// monotonic Duration. Now must be called at least once per counter
// wrap (~71 minutes at 1MHz); the main loop does this every iteration.
type TickClock struct {
	last    uint32
	elapsed uint64 // microseconds since the clock was created
}

// NewTickClock starts a clock at the current system time
func NewTickClock() *TickClock {
	return &TickClock{last: GetTime()}
}

// Now returns the time since the clock was created
func (c *TickClock) Now() time.Duration {
	ticks := GetTime()
	// unsigned subtraction absorbs a single wrap of the counter
	c.elapsed += uint64(TimerToUS(ticks - c.last))
	c.last = ticks
	return time.Duration(c.elapsed) * time.Microsecond
}

// MonotonicClock reads the Go runtime monotonic clock.
// Used by host builds where there is no tick register.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock starts a clock at the current instant
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Now returns the time since the clock was created
func (c *MonotonicClock) Now() time.Duration {
	return time.Since(c.start)
}

// ManualClock is a Clock advanced explicitly, for tests and replay
type ManualClock struct {
	now time.Duration
}

// Now returns the current manual time
func (c *ManualClock) Now() time.Duration {
	return c.now
}

// Set moves the clock to t, which may be earlier than the current time
func (c *ManualClock) Set(t time.Duration) {
	c.now = t
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.now += d
}
