package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler is a sorted list of pending timers, dispatched against the system tick counter
type Scheduler struct {
	list *Timer
	now  uint32 // tick of the Dispatch in progress
}

// before reports whether tick a is earlier than b, tolerating counter wrap
func before(a, b uint32) bool {
	return int32(a-b) < 0
}

// Schedule adds a timer to the list
func (s *Scheduler) Schedule(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insert(t)
}

// Remove unlinks t if it is pending. Safe to call for an idle timer.
func (s *Scheduler) Remove(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if s.list == t {
		s.list = t.Next
		t.Next = nil
		return
	}
	for cur := s.list; cur != nil; cur = cur.Next {
		if cur.Next == t {
			cur.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// Pending returns the number of scheduled timers
func (s *Scheduler) Pending() int {
	n := 0
	for cur := s.list; cur != nil; cur = cur.Next {
		n++
	}
	return n
}

// insert inserts a timer in sorted order by WakeTime
func (s *Scheduler) insert(t *Timer) {
	if s.list == nil || before(t.WakeTime, s.list.WakeTime) {
		t.Next = s.list
		s.list = t
		return
	}

	current := s.list
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Dispatch runs every timer whose WakeTime is at or before now
func (s *Scheduler) Dispatch(now uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.now = now
	for s.list != nil && !before(now, s.list.WakeTime) {
		timer := s.list
		s.list = timer.Next
		timer.Next = nil // Clear Next pointer to avoid circular references

		if timer.Handler(timer) == SF_RESCHEDULE {
			s.insert(timer)
		}
	}
}

// PeriodicTimer is a HardwareTimer built on a Scheduler.
// The target main loop (or a dedicated goroutine) drives it through Dispatch.
type PeriodicTimer struct {
	sched    *Scheduler
	timer    Timer
	period   uint32
	callback func()
	armed    bool
}

// NewPeriodicTimer creates a periodic timer on sched
func NewPeriodicTimer(sched *Scheduler) *PeriodicTimer {
	p := &PeriodicTimer{sched: sched}
	p.timer.Handler = p.fire
	return p
}

// Arm schedules callback every periodUs microseconds, first firing one period from now
func (p *PeriodicTimer) Arm(periodUs uint32, callback func()) error {
	if periodUs == 0 {
		return ErrTimerPeriod
	}
	if p.armed {
		return ErrTimerBusy
	}
	p.period = TimerFromUS(periodUs)
	p.callback = callback
	p.armed = true
	p.timer.WakeTime = GetTime() + p.period
	p.sched.Schedule(&p.timer)
	return nil
}

// Detach removes the timer from the schedule
func (p *PeriodicTimer) Detach() {
	if !p.armed {
		return
	}
	p.sched.Remove(&p.timer)
	p.armed = false
	p.callback = nil
}

// Armed reports whether the timer is attached
func (p *PeriodicTimer) Armed() bool {
	return p.armed
}

func (p *PeriodicTimer) fire(t *Timer) uint8 {
	if !p.armed {
		return SF_DONE
	}
	p.callback()
	if !p.armed {
		return SF_DONE // detached from inside the callback
	}
	// Periods missed while the dispatcher was stalled are dropped, not replayed
	next := t.WakeTime + p.period
	if !before(p.sched.now, next) {
		next = p.sched.now + p.period
	}
	t.WakeTime = next
	return SF_RESCHEDULE
}
