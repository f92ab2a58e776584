//go:build rp2040

package main

import (
	"machine"
	"time"

	"gofocus/blob"
	"gofocus/core"
	"gofocus/focuser"
	"gofocus/motor"
	"gofocus/targets/pio"
	"gofocus/tempcomp"
)

// boardNumber selects the compiled board defaults used until a board config exists
const boardNumber = motor.PRO2EDRV8825

// Timer list resolution: the dispatcher wakes this often
const dispatchInterval = 50 * time.Microsecond

var (
	scheduler core.Scheduler
	msgerrors uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	core.SetDebugWriter(func(s string) {
		USBWriteBytes([]byte(s))
		USBWriteBytes([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	UpdateSystemTime()

	var blobs blob.Store
	flash, err := openFlashStore()
	if err != nil {
		// without flash the focuser still runs, it just forgets on reset
		core.DebugPrintln("[BOOT] flash store: " + err.Error())
		blobs = blob.NewMemStore()
	} else {
		blobs = flash
	}

	profile := motor.ProfileFor(boardNumber)
	deps := focuser.Deps{
		Blobs:       blobs,
		GPIO:        NewRPGPIODriver(),
		Timer:       core.NewPeriodicTimer(&scheduler),
		Clock:       core.NewTickClock(),
		BoardNumber: boardNumber,
	}
	if profile.TempPin.Valid() {
		deps.Source = newDSProbe(machine.Pin(profile.TempPin))
	}
	if profile.Family == motor.FamilyStepDir {
		deps.Pulser = pio.NewPulser()
	}

	ctrl, err := focuser.New(deps)
	if err != nil {
		core.DebugPrintln("[BOOT] " + err.Error())
		return
	}
	core.DebugPrintln("[BOOT] " + ctrl.Board().Name + " pos=" + core.Itoa(int(ctrl.Position())))

	go dispatchLoop()

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					core.DebugPrintln("[LOOP] panic recovered, count=" + core.Itoa(int(msgerrors)))
				}
			}()

			UpdateSystemTime()
			ctrl.Loop()
			pollConsole(ctrl)
		}()

		// Yield to the dispatcher
		time.Sleep(100 * time.Microsecond)
	}
}

// dispatchLoop fires due timers, which is where motor steps happen.
// Scheduling is cooperative, so it does not run while the main loop is
// blocked in a flash write; steps missed in that window are dropped.
func dispatchLoop() {
	for {
		UpdateSystemTime()
		scheduler.Dispatch(core.GetTime())
		time.Sleep(dispatchInterval)
	}
}

// Console bytes read from USB
const (
	cmdDumpTiming = 'd'
	cmdSave       = 's'
	cmdVerbose    = 'v'
	cmdStatus     = '?'
)

func pollConsole(ctrl *focuser.Controller) {
	for USBAvailable() > 0 {
		b, err := USBRead()
		if err != nil {
			return
		}
		switch b {
		case cmdDumpTiming:
			core.DumpTimingRing()
		case cmdSave:
			if err := ctrl.SaveNow(); err != nil {
				core.DebugPrintln("[CFG] " + err.Error())
			}
		case cmdVerbose:
			core.SetDebugEnabled(!core.IsDebugEnabled())
		case cmdStatus:
			s := ctrl.Status()
			USBWriteBytes([]byte("[FOC] pos=" + core.Itoa(int(s.Position)) +
				" target=" + core.Itoa(int(s.Target)) +
				" temp=" + core.Ftoa(s.Temperature) +
				" errors=" + core.Itoa(int(msgerrors)) + "\r\n"))
		}
	}
}

var _ tempcomp.Source = (*dsProbe)(nil)
