package core

import (
	"sync"
	"time"
)

// TickerTimer is a HardwareTimer backed by a goroutine and time.Ticker.
// On hosts the goroutine plays the role of the interrupt context.
type TickerTimer struct {
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewTickerTimer creates an unarmed ticker timer
func NewTickerTimer() *TickerTimer {
	return &TickerTimer{}
}

// Arm starts a goroutine that calls callback every periodUs microseconds
func (t *TickerTimer) Arm(periodUs uint32, callback func()) error {
	if periodUs == 0 {
		return ErrTimerPeriod
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return ErrTimerBusy
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done

	ticker := time.NewTicker(time.Duration(periodUs) * time.Microsecond)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				callback()
			}
		}
	}()
	return nil
}

// Detach stops the ticker goroutine and waits until the last callback returned
func (t *TickerTimer) Detach() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
