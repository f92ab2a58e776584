package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"gofocus/core"
	"gofocus/focuser"
	"gofocus/motion"
	"gofocus/motor"
	"gofocus/tempcomp"
)

var errQuit = errors.New("quit")

// Console executes text commands against the controller. It runs on the
// main loop goroutine, the only goroutine allowed to touch the controller.
type Console struct {
	ctrl *focuser.Controller
	sim  *simProbe
	out  io.Writer
}

func NewConsole(ctrl *focuser.Controller, sim *simProbe, out io.Writer) *Console {
	return &Console{ctrl: ctrl, sim: sim, out: out}
}

// Exec runs one command line. It returns errQuit for quit.
func (c *Console) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		c.help()
	case "status":
		c.status()

	case "pos":
		if len(args) == 1 {
			v, err := parseInt(args[0])
			if err != nil {
				return err
			}
			c.ctrl.SetPosition(v)
		}
		c.printf("position %d\n", c.ctrl.Position())
	case "target", "goto":
		if len(args) == 1 {
			v, err := parseInt(args[0])
			if err != nil {
				return err
			}
			c.ctrl.SetTarget(v)
		}
		c.printf("target %d\n", c.ctrl.Target())
	case "move":
		if len(args) != 2 {
			return errors.New("usage: move in|out <steps>")
		}
		dir, err := parseDirection(args[0])
		if err != nil {
			return err
		}
		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("steps: %w", err)
		}
		if !c.ctrl.Move(dir, uint32(n)) {
			c.printf("move not started\n")
			return nil
		}
		c.printf("moving %s to %d\n", dir, c.ctrl.Target())
	case "halt":
		c.ctrl.Halt()

	case "maxstep":
		if len(args) == 1 {
			v, err := parseInt(args[0])
			if err != nil {
				return err
			}
			c.ctrl.SetMaxStep(v)
		}
		c.printf("maxstep %d\n", c.ctrl.MaxStep())
	case "speed":
		if len(args) == 1 {
			s, err := parseSpeed(args[0])
			if err != nil {
				return err
			}
			c.ctrl.SetMotorSpeed(s)
		}
		c.printf("speed %s\n", c.ctrl.MotorSpeed())
	case "delay":
		if len(args) == 1 {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("delay: %w", err)
			}
			c.ctrl.SetSpeedDelay(uint32(v))
		}
		c.printf("speed delay %dus\n", c.ctrl.SpeedDelay())
	case "stepmode":
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("stepmode: %w", err)
			}
			c.ctrl.SetStepMode(motor.StepMode(v))
		}
		c.printf("stepmode %d\n", c.ctrl.StepMode())
	case "reverse":
		if len(args) == 1 {
			on, err := parseBool(args[0])
			if err != nil {
				return err
			}
			c.ctrl.SetReverseEnable(on)
		}
		c.printf("reverse %t\n", c.ctrl.ReverseEnable())
	case "coil":
		if len(args) == 1 {
			on, err := parseBool(args[0])
			if err != nil {
				return err
			}
			c.ctrl.SetCoilPower(on)
		}
		c.printf("coil power %t\n", c.ctrl.CoilPower())
	case "dam":
		if len(args) == 1 {
			v, err := strconv.ParseUint(args[0], 10, 8)
			if err != nil {
				return fmt.Errorf("dam: %w", err)
			}
			c.ctrl.SetDelayAfterMove(uint8(v))
		}
		c.printf("delay after move %dms\n", c.ctrl.DelayAfterMove())
	case "backlash":
		if len(args) == 2 {
			dir, err := parseDirection(args[0])
			if err != nil {
				return err
			}
			v, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return fmt.Errorf("backlash: %w", err)
			}
			if dir == motor.Inward {
				c.ctrl.SetBacklashInSteps(uint8(v))
			} else {
				c.ctrl.SetBacklashOutSteps(uint8(v))
			}
		}
		c.printf("backlash in %d out %d\n", c.ctrl.BacklashInSteps(), c.ctrl.BacklashOutSteps())

	case "probe":
		if len(args) != 1 {
			return errors.New("usage: probe on|off")
		}
		on, err := parseBool(args[0])
		if err != nil {
			return err
		}
		c.ctrl.SetTempProbeEnable(on)
		c.printf("tempcomp available %t\n", c.ctrl.TempCompAvailable())
	case "tc":
		if len(args) == 1 {
			on, err := parseBool(args[0])
			if err != nil {
				return err
			}
			if !c.ctrl.SetTempCompEnable(on) && on {
				c.printf("no temperature probe\n")
			}
		}
		c.printf("tempcomp %t\n", c.ctrl.TempCompEnable())
	case "tcdir":
		if len(args) == 1 {
			dir, err := parseDirection(args[0])
			if err != nil {
				return err
			}
			if dir == motor.Outward {
				c.ctrl.SetTempCompDirection(tempcomp.Out)
			} else {
				c.ctrl.SetTempCompDirection(tempcomp.In)
			}
		}
		c.printf("tempcomp direction %s\n", c.ctrl.TempCompDirection())
	case "tccoef":
		if len(args) == 1 {
			v, err := parseInt(args[0])
			if err != nil {
				return err
			}
			c.ctrl.SetTempCompCoefficient(v)
		}
		c.printf("tempcomp coefficient %d\n", c.ctrl.TempCompCoefficient())
	case "temp":
		if len(args) == 1 {
			if c.sim == nil {
				return errors.New("probe is not simulated")
			}
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("temp: %w", err)
			}
			c.sim.Set(v)
		}
		c.printf("temperature %.2f %s\n", c.ctrl.DisplayTemperature(), c.ctrl.TemperatureUnit())

	case "save":
		if err := c.ctrl.SaveNow(); err != nil {
			return err
		}
		c.printf("saved\n")
	case "defaults":
		if err := c.ctrl.SetFocuserDefaults(); err != nil {
			return err
		}
		c.printf("defaults restored\n")
	case "dump":
		for _, e := range core.TimingEvents() {
			c.printf("%10d %-14s %d %d\n", e.Clock, core.EventName(e.EventType), e.Value1, e.Value2)
		}

	default:
		return fmt.Errorf("unknown command %q (type help)", cmd)
	}
	return nil
}

func (c *Console) status() {
	s := c.ctrl.Status()
	c.printf("board %s pos %d target %d max %d moving %t dir %s mode %d speed %s temp %.2f tc %t\n",
		s.Board, s.Position, s.Target, s.MaxStep, s.Moving, s.Direction,
		s.StepMode, s.Speed, s.Temperature, s.TempComp)
}

func (c *Console) help() {
	c.printf(`commands:
  status                 show controller state
  pos [n]                get or set position (sets target too)
  target|goto [n]        get or set target
  move in|out <n>        relative move
  halt                   stop the current move
  maxstep [n]            get or set travel limit
  speed [slow|medium|fast]
  delay [us]             base step delay
  stepmode [n]           1,2,4,8,16,32
  reverse [on|off]
  coil [on|off]          keep coils energized after a move
  dam [ms]               delay after move
  backlash in|out <n>
  probe on|off           enable the temperature probe
  tc [on|off]            temperature compensation
  tcdir [in|out]
  tccoef [n]             steps per degree
  temp [c]               show temperature, set the simulated one
  save                   write config now
  defaults               factory reset
  dump                   timing ring
  quit
`)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func parseInt(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", s, err)
	}
	return int32(v), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func parseDirection(s string) (motor.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return motor.Inward, nil
	case "out":
		return motor.Outward, nil
	}
	return motor.Inward, fmt.Errorf("expected in or out, got %q", s)
}

func parseSpeed(s string) (motion.Speed, error) {
	switch strings.ToLower(s) {
	case "slow", "0":
		return motion.Slow, nil
	case "medium", "1":
		return motion.Medium, nil
	case "fast", "2":
		return motion.Fast, nil
	}
	return motion.Fast, fmt.Errorf("unknown speed %q", s)
}
