//go:build !tinygo

package core

var tickCounter uint32

// getSystemTicks returns the tick counter (regular Go implementation, driven by SetTime)
func getSystemTicks() uint32 {
	return tickCounter
}

// setSystemTicks updates the tick counter (regular Go implementation)
func setSystemTicks(ticks uint32) {
	tickCounter = ticks
}
