//go:build tinygo

package core

import "sync/atomic"

// tickCounter is written by the target clock code and read from both contexts
var tickCounter atomic.Uint32

// getSystemTicks returns the tick counter last published by the target
func getSystemTicks() uint32 {
	return tickCounter.Load()
}

// setSystemTicks publishes a new hardware tick reading
func setSystemTicks(ticks uint32) {
	tickCounter.Store(ticks)
}
