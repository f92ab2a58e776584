package tempcomp

import (
	"errors"
	"time"
)

// Probe defaults
const (
	DefaultTemperature = 20.0
	DefaultRefresh     = 3000 * time.Millisecond

	// Readings outside the open interval (MinValid, MaxValid) are discarded
	MinValid = -40.0
	MaxValid = 80.0
)

// ErrNoProbe is returned by sources with no sensor on the bus
var ErrNoProbe = errors.New("temperature probe not found")

// Source is an opaque temperature reading source, such as a DS18B20.
// RequestTemperature starts a conversion; LastTemperature returns the most
// recent completed conversion in degrees C.
type Source interface {
	Present() bool
	RequestTemperature() error
	LastTemperature() (float64, error)
}

// Unit selects how temperatures are reported
type Unit uint8

const (
	Celsius Unit = iota
	Fahrenheit
)

// Convert returns a Celsius reading in unit u
func (u Unit) Convert(celsius float64) float64 {
	if u == Fahrenheit {
		return ToFahrenheit(celsius)
	}
	return celsius
}

func (u Unit) String() string {
	if u == Fahrenheit {
		return "F"
	}
	return "C"
}

// ToFahrenheit converts degrees C to degrees F
func ToFahrenheit(celsius float64) float64 {
	return celsius*1.8 + 32
}

// Probe polls a Source, alternating a conversion request and a read on
// every refresh period, and keeps the last plausible reading.
type Probe struct {
	src      Source
	refresh  time.Duration
	loaded   bool
	pending  bool
	lastPoll time.Duration
	last     float64
}

// NewProbe creates a stopped probe on src. refresh <= 0 selects DefaultRefresh.
func NewProbe(src Source, refresh time.Duration) *Probe {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &Probe{src: src, refresh: refresh, last: DefaultTemperature}
}

// Start looks for the sensor and issues the first conversion request.
// Returns false when no sensor answers.
func (p *Probe) Start(now time.Duration) bool {
	p.loaded = false
	if p.src == nil || !p.src.Present() {
		p.last = DefaultTemperature
		return false
	}
	if err := p.src.RequestTemperature(); err != nil {
		return false
	}
	p.loaded = true
	p.pending = true
	p.lastPoll = now
	return true
}

// Stop marks the probe unloaded
func (p *Probe) Stop() {
	p.loaded = false
	p.pending = false
}

// Loaded reports whether the sensor was found
func (p *Probe) Loaded() bool {
	return p.loaded
}

// Temperature returns the last good reading in degrees C
func (p *Probe) Temperature() float64 {
	return p.last
}

// Poll runs one step of the request/read cadence. It returns the current
// temperature and whether a new reading was accepted on this call.
func (p *Probe) Poll(now time.Duration) (float64, bool) {
	if !p.loaded {
		return p.last, false
	}
	if now >= p.lastPoll && now-p.lastPoll < p.refresh {
		return p.last, false
	}
	p.lastPoll = now

	if !p.pending {
		if err := p.src.RequestTemperature(); err == nil {
			p.pending = true
		}
		return p.last, false
	}

	p.pending = false
	v, err := p.src.LastTemperature()
	if err != nil || !(v > MinValid && v < MaxValid) {
		return p.last, false
	}
	p.last = v
	return v, true
}
