package core

// ManualTimer is a HardwareTimer fired explicitly by the caller.
// Tests and the step-by-step simulator mode use it to run one tick at a time.
type ManualTimer struct {
	period   uint32
	callback func()
	arms     int

	// ArmErr, when set, is returned by the next Arm call and then cleared
	ArmErr error
}

// NewManualTimer creates an unarmed manual timer
func NewManualTimer() *ManualTimer {
	return &ManualTimer{}
}

// Arm records the callback and period
func (m *ManualTimer) Arm(periodUs uint32, callback func()) error {
	if err := m.ArmErr; err != nil {
		m.ArmErr = nil
		return err
	}
	if periodUs == 0 {
		return ErrTimerPeriod
	}
	if m.callback != nil {
		return ErrTimerBusy
	}
	m.period = periodUs
	m.callback = callback
	m.arms++
	return nil
}

// Detach drops the callback
func (m *ManualTimer) Detach() {
	m.callback = nil
}

// Fire runs the callback n times. Returns false if the timer is not armed.
func (m *ManualTimer) Fire(n int) bool {
	for i := 0; i < n; i++ {
		if m.callback == nil {
			return false
		}
		m.callback()
	}
	return m.callback != nil
}

// Armed reports whether a callback is attached
func (m *ManualTimer) Armed() bool {
	return m.callback != nil
}

// Period returns the last armed period in microseconds
func (m *ManualTimer) Period() uint32 {
	return m.period
}

// Arms returns how many times Arm succeeded
func (m *ManualTimer) Arms() int {
	return m.arms
}
