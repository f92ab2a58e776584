// Command focuser-sim runs the focuser controller on a host machine, either
// against in-memory pins or against real GPIO through periph.io, with a
// line-oriented console on stdin.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gofocus/blob"
	"gofocus/core"
	"gofocus/focuser"
	"gofocus/host/periph"
	"gofocus/tempcomp"
)

var (
	configPath = flag.String("config", "focuser.yaml", "path to the simulator config")
	boardFlag  = flag.Int("board", 0, "board number, overrides the config file")
	blobDir    = flag.String("data", "", "config blob directory, overrides the config file")
	verbose    = flag.Bool("verbose", false, "log debug output")
)

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
		cfg = DefaultConfig()
	}
	if *boardFlag != 0 {
		cfg.Board = *boardFlag
	}
	if *blobDir != "" {
		cfg.BlobDir = *blobDir
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level; using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	core.SetDebugWriter(func(s string) { log.Debug().Str("src", "core").Msg(s) })
	core.SetDebugEnabled(level <= zerolog.DebugLevel)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("focuser-sim")
	}
}

func run(cfg *Config) error {
	blobs, err := blob.NewDirStore(cfg.BlobDir)
	if err != nil {
		return fmt.Errorf("blob dir: %w", err)
	}

	deps := focuser.Deps{
		Blobs:       blobs,
		Timer:       core.NewTickerTimer(),
		Clock:       core.NewMonotonicClock(),
		BoardNumber: cfg.Board,
		SaveWindow:  time.Duration(cfg.SaveWindowS) * time.Second,
	}

	needPeriph := cfg.GPIO == "periph" || cfg.Probe.Kind == "ds18b20"
	if needPeriph {
		if err := periph.Init(); err != nil {
			return err
		}
	}

	switch cfg.GPIO {
	case "periph":
		deps.GPIO = periph.NewGPIO(nil)
	case "memory":
		deps.GPIO = core.NewMemGPIO()
	default:
		return fmt.Errorf("unknown gpio backend %q", cfg.GPIO)
	}

	var sim *simProbe
	switch cfg.Probe.Kind {
	case "none":
	case "sim":
		sim = newSimProbe(cfg.Probe.SimTemp)
		deps.Source = sim
	case "ds18b20":
		th, err := periph.OpenDS18B20(cfg.Probe.Bus, cfg.Probe.Bits)
		if err != nil {
			log.Warn().Err(err).Str("bus", cfg.Probe.Bus).Msg("ds18b20 unavailable; temperature compensation disabled")
		} else {
			deps.Source = th
			defer th.Wait()
		}
	default:
		return fmt.Errorf("unknown probe kind %q", cfg.Probe.Kind)
	}
	ctrl, err := focuser.New(deps)
	if err != nil {
		return err
	}
	board := ctrl.Board()
	log.Info().
		Str("board", board.Name).
		Int("number", board.Number).
		Int32("position", ctrl.Position()).
		Int32("maxstep", ctrl.MaxStep()).
		Str("gpio", cfg.GPIO).
		Str("probe", cfg.Probe.Kind).
		Msg("focuser ready")

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		if err := sc.Err(); err != nil {
			log.Error().Err(err).Msg("stdin")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	console := NewConsole(ctrl, sim, os.Stdout)
	ticker := time.NewTicker(time.Duration(cfg.LoopIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	wasMoving := false
	var persist persistWatch
	for {
		select {
		case <-ticker.C:
			ctrl.Loop()
			if moving := ctrl.IsMoving(); moving != wasMoving {
				wasMoving = moving
				log.Info().Bool("moving", moving).Int32("position", ctrl.Position()).Int32("target", ctrl.Target()).Msg("motion")
			}
			for _, d := range persistDomains {
				if err := ctrl.Settings().LastError(d); persist.changed(d, err) && err != nil {
					log.Warn().Err(err).Stringer("domain", d).Msg("config persist")
				}
			}
		case line, ok := <-lines:
			if !ok {
				return shutdown(ctrl)
			}
			err := console.Exec(line)
			if errors.Is(err, errQuit) {
				return shutdown(ctrl)
			}
			if err != nil {
				log.Error().Err(err).Msg("command")
			}
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			return shutdown(ctrl)
		}
	}
}

// shutdown halts any move and writes the configuration out
func shutdown(ctrl *focuser.Controller) error {
	if ctrl.IsMoving() {
		ctrl.Halt()
		deadline := time.Now().Add(2 * time.Second)
		for ctrl.IsMoving() && time.Now().Before(deadline) {
			ctrl.Loop()
			time.Sleep(time.Millisecond)
		}
	}
	if err := ctrl.SaveNow(); err != nil {
		return fmt.Errorf("save on exit: %w", err)
	}
	log.Info().Int32("position", ctrl.Position()).Msg("configuration saved")
	return nil
}

var _ tempcomp.Source = (*simProbe)(nil)
