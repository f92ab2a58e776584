//go:build rp2040

package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"gofocus/core"
)

// Step pulse program. Each word pulled from the TX FIFO emits count+1
// pulses on the SET pin:
//
//	pull block
//	out x, 16        ; extra pulses
//	step:
//	set pins, 1 [7]
//	set pins, 0 [7]
//	jmp x--, step
func buildPulseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                   // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),            // 1: out x, 16
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 2: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Delay(7).Encode(), // 3: set pins, 0 [7]
		asm.Jmp(2, rp2pio.JmpXNZeroDec).Encode(),         // 4: jmp x--, 2
		// .wrap
	}
}

// Jump targets are absolute, so the program is always loaded at 0
const pulseProgramOrigin = 0

// 125MHz / 125 = 1MHz: each pulse edge is held 8us
const pulseClockDiv = 125

// ErrNoStateMachine is returned when every PIO state machine is taken
var ErrNoStateMachine = errors.New("no free PIO state machine")

// PIOPulser emits step pulses from a PIO state machine, so the step
// callback only writes one FIFO word.
type PIOPulser struct {
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	pioNum  uint8
	smNum   uint8
	pin     machine.Pin
	dropped uint32
}

// NewPIOPulser reserves a state machine. The step pin is bound later by ClaimPin.
func NewPIOPulser() (*PIOPulser, error) {
	pioNum, smNum, ok := allocate()
	if !ok {
		return nil, ErrNoStateMachine
	}
	hw := rp2pio.PIO0
	if pioNum == 1 {
		hw = rp2pio.PIO1
	}
	return &PIOPulser{
		pio:    hw,
		sm:     hw.StateMachine(smNum),
		pioNum: pioNum,
		smNum:  smNum,
	}, nil
}

// ClaimPin loads the program and routes pin to the state machine
func (p *PIOPulser) ClaimPin(pin core.GPIOPin) error {
	if !pin.Valid() {
		return errors.New("pio pulser: step pin not wired")
	}
	p.pin = machine.Pin(pin)

	if !p.sm.TryClaim() {
		release(p.pioNum, p.smNum)
		return ErrNoStateMachine
	}

	program := buildPulseProgram()
	offset, err := p.pio.AddProgram(program, pulseProgramOrigin)
	if err != nil {
		release(p.pioNum, p.smNum)
		return err
	}

	p.pin.Configure(machine.PinConfig{Mode: p.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(p.pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(pulseClockDiv, 0)

	// pin directions must be set after Init
	p.sm.Init(offset, cfg)
	p.sm.SetPindirsConsecutive(p.pin, 1, true)
	p.sm.SetPinsConsecutive(p.pin, 1, false)
	p.sm.SetEnabled(true)
	return nil
}

// Pulse queues one pulse. It never blocks: with a step period far longer
// than a pulse the FIFO is never full, and a full FIFO drops the pulse.
func (p *PIOPulser) Pulse() {
	if p.sm.IsTxFIFOFull() {
		p.dropped++
		return
	}
	p.sm.TxPut(0)
}

// Dropped returns how many pulses were lost to a full FIFO
func (p *PIOPulser) Dropped() uint32 {
	return p.dropped
}

// Stop flushes pending pulses and restarts the state machine
func (p *PIOPulser) Stop() {
	p.sm.SetEnabled(false)
	p.sm.ClearFIFOs()
	p.sm.Restart()
	p.sm.SetEnabled(true)
}
