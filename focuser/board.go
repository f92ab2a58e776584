package focuser

import (
	"gofocus/core"
	"gofocus/motor"
	"gofocus/settings"
)

// profileFromBoard builds the runtime profile from the persisted board data.
// The family comes from the board number; unknown numbers get the null profile.
func profileFromBoard(b settings.Board, reverse bool) motor.BoardProfile {
	p, ok := motor.Lookup(b.Number)
	if !ok {
		return motor.NullProfile(b.Number)
	}
	p.Name = b.Name
	for i := range p.Pins {
		p.Pins[i] = core.GPIOPin(b.Pins[i])
	}
	p.StepPin = core.GPIOPin(b.StepPin)
	p.DirPin = core.GPIOPin(b.DirPin)
	p.EnablePin = core.GPIOPin(b.EnablePin)
	p.TempPin = core.GPIOPin(b.TempPin)
	p.MaxStepMode = motor.StepMode(b.MaxStepMode)
	p.StepMode = motor.StepMode(b.StepMode)
	p.FixedStepMode = motor.StepMode(b.FixedStepMode)
	p.StepsPerRev = b.StepsPerRev
	p.SpeedDelay = motor.ClampSpeedDelay(b.SpeedDelay)
	p.Reverse = reverse
	return p
}

func boardFromProfile(p motor.BoardProfile) settings.Board {
	b := settings.Board{
		Name:          p.Name,
		MaxStepMode:   int(p.MaxStepMode),
		StepMode:      int(p.StepMode),
		EnablePin:     int32(p.EnablePin),
		StepPin:       int32(p.StepPin),
		DirPin:        int32(p.DirPin),
		TempPin:       int32(p.TempPin),
		Number:        p.Number,
		StepsPerRev:   p.StepsPerRev,
		FixedStepMode: int(p.FixedStepMode),
		SpeedDelay:    p.SpeedDelay,
	}
	for i, pin := range p.Pins {
		b.Pins[i] = int32(pin)
	}
	return b
}

// BoardDefaults returns the compiled board configuration for a board number
func BoardDefaults(number int) (settings.Board, bool) {
	p, ok := motor.Lookup(number)
	if !ok {
		return settings.Board{}, false
	}
	return boardFromProfile(p), true
}

// BoardOverrides reports which compiled values win over a board file
func BoardOverrides(number int) settings.BoardOverrides {
	return settings.BoardOverrides{
		StepsPerRev:   motor.WiringFixesStepsPerRev(number),
		FixedStepMode: motor.JumperFixesStepMode(number),
	}
}
