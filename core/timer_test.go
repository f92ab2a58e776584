package core

import (
	"testing"
	"time"
)

func TestTickClockWrap(t *testing.T) {
	SetTime(0xFFFFFF00)
	defer SetTime(0)

	c := NewTickClock()
	SetTime(0xFFFFFFFF)
	if got := c.Now(); got != 255*time.Microsecond {
		t.Fatalf("Expected 255us, got %v", got)
	}

	// Counter wraps
	SetTime(0x100)
	if got := c.Now(); got != 512*time.Microsecond {
		t.Fatalf("Expected 512us after wrap, got %v", got)
	}
}

func TestManualClock(t *testing.T) {
	var c ManualClock
	c.Advance(3 * time.Second)
	if c.Now() != 3*time.Second {
		t.Fatalf("Expected 3s, got %v", c.Now())
	}
	c.Set(time.Second)
	if c.Now() != time.Second {
		t.Errorf("Set did not move the clock backwards: %v", c.Now())
	}
}

func TestTimerConversions(t *testing.T) {
	if TimerFromUS(4000) != 4000 {
		t.Errorf("TimerFromUS(4000) = %d", TimerFromUS(4000))
	}
	if TimerToUS(1500) != 1500 {
		t.Errorf("TimerToUS(1500) = %d", TimerToUS(1500))
	}
}

func TestTickerTimer(t *testing.T) {
	tt := NewTickerTimer()
	fired := make(chan struct{}, 8)

	if err := tt.Arm(500, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if err := tt.Arm(500, func() {}); err != ErrTimerBusy {
		t.Fatalf("Expected ErrTimerBusy, got %v", err)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Ticker never fired")
	}

	tt.Detach()
	tt.Detach() // second detach is a no-op

	if err := tt.Arm(500, func() {}); err != nil {
		t.Fatalf("Re-arm after Detach failed: %v", err)
	}
	tt.Detach()
}
