// Command focuser-monitor follows the firmware debug console on a serial
// port and logs it, decoding timing ring dumps into structured events.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gofocus/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	dump    = flag.Bool("dump", false, "Ask the firmware to dump its timing ring on connect")
	jsonOut = flag.Bool("json", false, "Log JSON instead of console output")
)

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	if !*jsonOut {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	cfg.ReadTimeout = 0

	port, err := serial.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("device", *device).Msg("open serial port")
	}
	log.Info().Str("device", *device).Int("baud", *baud).Msg("connected")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		port.Close()
	}()

	if *dump {
		if _, err := port.Write([]byte{cmdDumpTiming}); err != nil {
			log.Warn().Err(err).Msg("request timing dump")
		}
	}

	err = serial.ReadLines(port, func(s string) bool {
		logLine(log.Logger, ParseLine(s))
		return true
	})
	if err != nil {
		log.Error().Err(err).Msg("read")
	}
	log.Info().Msg("disconnected")
}

// cmdDumpTiming is the console byte the firmware answers with a timing ring dump
const cmdDumpTiming = 'd'

func logLine(logger zerolog.Logger, l Line) {
	if l.Text == "" {
		return
	}
	if l.IsEvent() {
		e := logger.Info()
		if l.Alert {
			e = logger.Warn()
		}
		e.Str("event", l.Event).
			Uint32("clock", l.Clock).
			Int32("v1", l.V1).
			Int32("v2", l.V2).
			Msg("timing")
		return
	}
	e := logger.Info()
	if l.Tag != "" {
		e = e.Str("tag", l.Tag)
	}
	e.Msg(l.Text)
}
