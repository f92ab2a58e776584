package motor

// SteppingMode selects full or half stepping for coil boards
type SteppingMode uint8

const (
	SteppingFull SteppingMode = iota
	SteppingHalf
)

// PhasingMode selects whether full steps energize one or two coils
type PhasingMode uint8

const (
	PhasingSingle PhasingMode = iota
	PhasingDual
)

// SequenceType selects the coil firing order
type SequenceType uint8

const (
	SequenceSequential SequenceType = iota
	SequenceAlternating
)

// Coil pattern tables. Bit 3 drives the first pin for 4-pin boards,
// bit 1 the first pin for 2-pin boards.
var (
	// [stepping][phasing][sequence]
	fourPinSequences = [2][2][2][8]uint8{
		{ // full
			{ // single phase
				{0b1000, 0b0100, 0b0010, 0b0001, 0b1000, 0b0100, 0b0010, 0b0001},
				{0b1000, 0b0010, 0b0100, 0b0001, 0b1000, 0b0010, 0b0100, 0b0001},
			},
			{ // dual phase
				{0b1100, 0b0110, 0b0011, 0b1001, 0b1100, 0b0110, 0b0011, 0b1001},
				{0b1010, 0b0110, 0b0101, 0b1001, 0b1010, 0b0110, 0b0101, 0b1001},
			},
		},
		{ // half
			{
				{0b1000, 0b1100, 0b0100, 0b0110, 0b0010, 0b0011, 0b0001, 0b1001},
				{0b1000, 0b1010, 0b0010, 0b0110, 0b0100, 0b0101, 0b0001, 0b1001},
			},
			{
				{0b1100, 0b0100, 0b0110, 0b0010, 0b0011, 0b0001, 0b1001, 0b1000},
				{0b1010, 0b0010, 0b0110, 0b0100, 0b0101, 0b0001, 0b1001, 0b1000},
			},
		},
	}

	// Two-pin boards use the same quadrature for full and half stepping
	twoPinSequence = [4]uint8{0b01, 0b11, 0b10, 0b00}
)

// Sequencer walks a coil pattern table. Advance runs in the step callback,
// so it only indexes the static tables and never allocates.
type Sequencer struct {
	pinCount int
	stepping SteppingMode
	phasing  PhasingMode
	sequence SequenceType
	table    []uint8
	index    int
}

// NewSequencer creates a sequencer for a 2 or 4 pin board in full step mode
func NewSequencer(pinCount int, phasing PhasingMode, sequence SequenceType) *Sequencer {
	if pinCount != 2 {
		pinCount = 4
	}
	s := &Sequencer{
		pinCount: pinCount,
		phasing:  phasing & 1,
		sequence: sequence & 1,
	}
	s.regenerate()
	return s
}

func (s *Sequencer) regenerate() {
	if s.pinCount == 2 {
		s.table = twoPinSequence[:]
	} else {
		s.table = fourPinSequences[s.stepping][s.phasing][s.sequence][:]
	}
	s.index = 0
}

// SetSteppingMode selects the table for mode and resets the index
func (s *Sequencer) SetSteppingMode(mode SteppingMode) {
	s.stepping = mode & 1
	s.regenerate()
}

// SteppingMode returns the current stepping mode
func (s *Sequencer) SteppingMode() SteppingMode {
	return s.stepping
}

// PinCount returns 2 or 4
func (s *Sequencer) PinCount() int {
	return s.pinCount
}

// Len returns the table length: 4 for 2-pin boards, 8 for 4-pin boards
func (s *Sequencer) Len() int {
	return len(s.table)
}

// Index returns the current table index
func (s *Sequencer) Index() int {
	return s.index
}

// Current returns the pattern at the current index
func (s *Sequencer) Current() uint8 {
	return s.table[s.index]
}

// Table returns a copy of the active pattern table
func (s *Sequencer) Table() []uint8 {
	t := make([]uint8, len(s.table))
	copy(t, s.table)
	return t
}

// Advance moves one entry forward for Outward, backward for Inward,
// and returns the new pattern
func (s *Sequencer) Advance(dir Direction) uint8 {
	n := len(s.table)
	if dir == Outward {
		s.index = (s.index + 1) % n
	} else {
		s.index = (s.index - 1 + n) % n
	}
	return s.table[s.index]
}
