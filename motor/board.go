package motor

import (
	"errors"

	"gofocus/core"
)

// ErrInvalidPins is returned when a board profile lacks the pins its family drives
var ErrInvalidPins = errors.New("board profile pins invalid for driver family")

// Family groups boards by how their pins are driven
type Family uint8

const (
	FamilyNone        Family = iota // unknown board, every pin write is a no-op
	FamilyStepDir                   // DRV8825 style step/dir/enable
	FamilyHalfStepper               // 2 or 4 coil pins, full or half stepping
	FamilyShield                    // L293D motor shield, full step only
)

func (f Family) String() string {
	switch f {
	case FamilyStepDir:
		return "stepdir"
	case FamilyHalfStepper:
		return "halfstepper"
	case FamilyShield:
		return "shield"
	default:
		return "none"
	}
}

// Board numbers persisted in the board configuration
const (
	WEMOSDRV8825      = 35
	PRO2EDRV8825      = 36
	WEMOSDRV8825H     = 37
	PRO2EULN2003      = 38
	PRO2EL298N        = 39
	PRO2EL293DMINI    = 40
	PRO2EL9110S       = 41
	PRO2EL293DNEMA    = 42
	PRO2EL293D28BYJ48 = 43
	PRO2EDRV8825S     = 44
	PRO2EDRV8825DS    = 45
	PRO2EULN2003S     = 46
	PRO2EULN2003DS    = 47
	PRO2EL298NS       = 48
	PRO2EL298NDS      = 49
)

// Speed delay bounds in microseconds
const (
	DefaultSpeedDelay uint32 = 4000
	MinSpeedDelay     uint32 = 500
	MaxSpeedDelay     uint32 = 14000
)

// BoardProfile describes one driver board and its wiring
type BoardProfile struct {
	Name   string
	Number int
	Family Family

	Pins      [4]core.GPIOPin // coil inputs IN1..IN4
	StepPin   core.GPIOPin
	DirPin    core.GPIOPin
	EnablePin core.GPIOPin
	TempPin   core.GPIOPin

	MaxStepMode   StepMode
	StepMode      StepMode
	FixedStepMode StepMode
	StepsPerRev   int
	SpeedDelay    uint32 // base interrupt period in microseconds

	Phasing  PhasingMode
	Sequence SequenceType
	Reverse  bool
}

// NullProfile returns the profile used for unknown boards
func NullProfile(number int) BoardProfile {
	return BoardProfile{
		Name:          "Unknown",
		Number:        number,
		Family:        FamilyNone,
		Pins:          [4]core.GPIOPin{core.NoPin, core.NoPin, core.NoPin, core.NoPin},
		StepPin:       core.NoPin,
		DirPin:        core.NoPin,
		EnablePin:     core.NoPin,
		TempPin:       core.NoPin,
		MaxStepMode:   STEP1,
		StepMode:      STEP1,
		FixedStepMode: STEP1,
		StepsPerRev:   0,
		SpeedDelay:    DefaultSpeedDelay,
	}
}

// CoilPins returns the wired coil pins: 4, 2 or none
func (p BoardProfile) CoilPins() []core.GPIOPin {
	n := 0
	for n < len(p.Pins) && p.Pins[n].Valid() {
		n++
	}
	switch {
	case n >= 4:
		return p.Pins[:4]
	case n >= 2:
		return p.Pins[:2]
	}
	return nil
}

// Validate checks that the pins the family drives are wired
func (p BoardProfile) Validate() error {
	switch p.Family {
	case FamilyStepDir:
		if !p.StepPin.Valid() || !p.DirPin.Valid() || !p.EnablePin.Valid() {
			return ErrInvalidPins
		}
	case FamilyHalfStepper:
		if p.CoilPins() == nil {
			return ErrInvalidPins
		}
	case FamilyShield:
		if len(p.CoilPins()) != 4 {
			return ErrInvalidPins
		}
	}
	return nil
}

// ClampSpeedDelay bounds a base interrupt period to the supported range
func ClampSpeedDelay(us uint32) uint32 {
	if us < MinSpeedDelay {
		return MinSpeedDelay
	}
	if us > MaxSpeedDelay {
		return MaxSpeedDelay
	}
	return us
}

func pins(a, b, c, d core.GPIOPin) [4]core.GPIOPin {
	return [4]core.GPIOPin{a, b, c, d}
}

var noCoils = pins(core.NoPin, core.NoPin, core.NoPin, core.NoPin)

func stepDirBoard(name string, number int) BoardProfile {
	return BoardProfile{
		Name: name, Number: number, Family: FamilyStepDir,
		Pins:    noCoils,
		StepPin: 12, DirPin: 13, EnablePin: 14, TempPin: 10,
		MaxStepMode: STEP32, StepMode: STEP1, FixedStepMode: STEP1,
		StepsPerRev: 200, SpeedDelay: DefaultSpeedDelay,
	}
}

func coilBoard(name string, number int, family Family, maxMode StepMode, stepsPerRev int) BoardProfile {
	return BoardProfile{
		Name: name, Number: number, Family: family,
		Pins:    pins(13, 12, 14, 2),
		StepPin: core.NoPin, DirPin: core.NoPin, EnablePin: core.NoPin, TempPin: 10,
		MaxStepMode: maxMode, StepMode: STEP1, FixedStepMode: STEP1,
		StepsPerRev: stepsPerRev, SpeedDelay: DefaultSpeedDelay,
	}
}

// catalog holds the compiled defaults for every known board
var catalog = []BoardProfile{
	stepDirBoard("WEMOSDRV8825", WEMOSDRV8825),
	stepDirBoard("PRO2EDRV8825", PRO2EDRV8825),
	stepDirBoard("WEMOSDRV8825H", WEMOSDRV8825H),
	stepDirBoard("PRO2EDRV8825S", PRO2EDRV8825S),
	stepDirBoard("PRO2EDRV8825DS", PRO2EDRV8825DS),
	coilBoard("PRO2EULN2003", PRO2EULN2003, FamilyHalfStepper, STEP2, 2048),
	coilBoard("PRO2EULN2003S", PRO2EULN2003S, FamilyHalfStepper, STEP2, 2048),
	coilBoard("PRO2EULN2003DS", PRO2EULN2003DS, FamilyHalfStepper, STEP2, 2048),
	coilBoard("PRO2EL298N", PRO2EL298N, FamilyHalfStepper, STEP2, 200),
	coilBoard("PRO2EL298NS", PRO2EL298NS, FamilyHalfStepper, STEP2, 200),
	coilBoard("PRO2EL298NDS", PRO2EL298NDS, FamilyHalfStepper, STEP2, 200),
	coilBoard("PRO2EL293DMINI", PRO2EL293DMINI, FamilyHalfStepper, STEP2, 200),
	coilBoard("PRO2EL9110S", PRO2EL9110S, FamilyHalfStepper, STEP2, 2048),
	coilBoard("PRO2EL293DNEMA", PRO2EL293DNEMA, FamilyShield, STEP1, 200),
	coilBoard("PRO2EL293D28BYJ48", PRO2EL293D28BYJ48, FamilyShield, STEP1, 2048),
}

// Lookup returns the compiled default profile for a board number
func Lookup(number int) (BoardProfile, bool) {
	for _, p := range catalog {
		if p.Number == number {
			return p, true
		}
	}
	return BoardProfile{}, false
}

// ProfileFor returns the default profile for number, or the null profile when unknown
func ProfileFor(number int) BoardProfile {
	if p, ok := Lookup(number); ok {
		return p
	}
	return NullProfile(number)
}

// FamilyOf returns the driver family of a board number
func FamilyOf(number int) Family {
	if p, ok := Lookup(number); ok {
		return p.Family
	}
	return FamilyNone
}

// WiringFixesStepsPerRev reports whether the motor wiring, not the board file,
// decides steps per revolution for number
func WiringFixesStepsPerRev(number int) bool {
	switch number {
	case PRO2EULN2003, PRO2EL298N, PRO2EL293DMINI, PRO2EL9110S, PRO2EL293DNEMA, PRO2EL293D28BYJ48:
		return true
	}
	return false
}

// JumperFixesStepMode reports whether the fixed step mode comes from the
// driver jumpers rather than the board file
func JumperFixesStepMode(number int) bool {
	switch number {
	case WEMOSDRV8825H, WEMOSDRV8825, PRO2EDRV8825:
		return true
	}
	return false
}
