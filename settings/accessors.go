package settings

// Persistent returns a copy of the controller settings
func (s *Store) Persistent() Persistent {
	return s.persistent
}

// Variable returns a copy of the saved position and direction
func (s *Store) Variable() Variable {
	return s.variable
}

// Board returns a copy of the board configuration
func (s *Store) Board() Board {
	return s.board
}

// UpdatePersistent applies fn to the settings, bounds the result, and marks
// the domain changed when anything differs. Covers fields the core carries
// for outer layers without interpreting them.
func (s *Store) UpdatePersistent(fn func(p *Persistent)) bool {
	old := s.persistent
	fn(&s.persistent)
	s.persistent.sanitize()
	if s.persistent == old {
		return false
	}
	s.touch(DomainPersistent)
	return true
}

// UpdateBoard applies fn to the board configuration
func (s *Store) UpdateBoard(fn func(b *Board)) bool {
	old := s.board
	fn(&s.board)
	s.board.sanitize()
	if s.board == old {
		return false
	}
	s.touch(DomainBoard)
	return true
}

func (s *Store) SetMaxStep(v int32) int32 {
	v = clamp32(v, MinMaxStep, MaxMaxStep)
	SetField(s, DomainPersistent, &s.persistent.MaxStep, v)
	return v
}

func (s *Store) SetBacklashIn(v uint8) {
	SetField(s, DomainPersistent, &s.persistent.BacklashIn, v)
}

func (s *Store) SetBacklashOut(v uint8) {
	SetField(s, DomainPersistent, &s.persistent.BacklashOut, v)
}

func (s *Store) SetCoilPower(v bool) {
	SetField(s, DomainPersistent, &s.persistent.CoilPower, v)
}

func (s *Store) SetDelayAfterMove(ms uint8) {
	SetField(s, DomainPersistent, &s.persistent.DelayAfterMove, ms)
}

// SetDeviceName keeps at most 11 characters
func (s *Store) SetDeviceName(name string) {
	SetField(s, DomainPersistent, &s.persistent.DeviceName, truncate(name, MaxNameLen))
}

// SetMDNSName keeps at most 11 characters
func (s *Store) SetMDNSName(name string) {
	SetField(s, DomainPersistent, &s.persistent.MDNSName, truncate(name, MaxNameLen))
}

// SetMotorSpeed stores 0 slow, 1 medium or 2 fast; larger values become fast
func (s *Store) SetMotorSpeed(v uint8) uint8 {
	if v > SpeedFast {
		v = SpeedFast
	}
	SetField(s, DomainPersistent, &s.persistent.MotorSpeed, v)
	return v
}

func (s *Store) SetReverse(v bool) {
	SetField(s, DomainPersistent, &s.persistent.ReverseEnable, v)
}

// SetStepSize stores the tube travel per step in microns, bounded to [0.001, 100]
func (s *Store) SetStepSize(v float64) float64 {
	v = clampStepSize(v)
	SetField(s, DomainPersistent, &s.persistent.StepSize, v)
	return v
}

func (s *Store) SetTempProbeEnable(v bool) {
	SetField(s, DomainPersistent, &s.persistent.TempProbeEnable, v)
}

func (s *Store) SetTempCoefficient(v int32) int32 {
	v = clamp32(v, 0, MaxCoefficient)
	SetField(s, DomainPersistent, &s.persistent.TempCoefficient, v)
	return v
}

func (s *Store) SetTempModeCelsius(v bool) {
	SetField(s, DomainPersistent, &s.persistent.TempModeCelsius, v)
}

func (s *Store) SetTCDirectionOut(v bool) {
	SetField(s, DomainPersistent, &s.persistent.TCDirectionOut, v)
}

func (s *Store) SetTempCompOnLoad(v bool) {
	SetField(s, DomainPersistent, &s.persistent.TempCompOnLoad, v)
}

// SetPosition records the focuser position for the next boot
func (s *Store) SetPosition(pos int32) {
	SetField(s, DomainVariable, &s.variable.Position, pos)
}

// SetDirection records the last move direction
func (s *Store) SetDirection(outward bool) {
	SetField(s, DomainVariable, &s.variable.Outward, outward)
}

func (s *Store) SetStepMode(mode int) int {
	s.UpdateBoard(func(b *Board) { b.StepMode = mode })
	return s.board.StepMode
}

// SetSpeedDelay stores the base step period, bounded to [500, 14000] microseconds
func (s *Store) SetSpeedDelay(us uint32) uint32 {
	s.UpdateBoard(func(b *Board) { b.SpeedDelay = us })
	return s.board.SpeedDelay
}
