package motor

// StepMode is the microstep divisor: 1 is a full step, 2 a half step, and so on
type StepMode int

const (
	STEP1  StepMode = 1
	STEP2  StepMode = 2
	STEP4  StepMode = 4
	STEP8  StepMode = 8
	STEP16 StepMode = 16
	STEP32 StepMode = 32
)

// Valid reports whether m is one of the catalog step modes
func (m StepMode) Valid() bool {
	switch m {
	case STEP1, STEP2, STEP4, STEP8, STEP16, STEP32:
		return true
	}
	return false
}

// Direction is the focuser travel direction
type Direction bool

const (
	Inward  Direction = false
	Outward Direction = true
)

func (d Direction) String() string {
	if d == Outward {
		return "out"
	}
	return "in"
}

// Apply returns d with the reverse setting applied
func (d Direction) Apply(reverse bool) Direction {
	if reverse {
		return !d
	}
	return d
}
