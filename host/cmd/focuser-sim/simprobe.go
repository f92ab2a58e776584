package main

import (
	"math"
	"sync/atomic"
)

// simProbe is a temperature source whose reading is set from the console
type simProbe struct {
	bits atomic.Uint64
}

func newSimProbe(celsius float64) *simProbe {
	p := &simProbe{}
	p.Set(celsius)
	return p
}

func (p *simProbe) Set(celsius float64) {
	p.bits.Store(math.Float64bits(celsius))
}

func (p *simProbe) Present() bool { return true }

func (p *simProbe) RequestTemperature() error { return nil }

func (p *simProbe) LastTemperature() (float64, error) {
	return math.Float64frombits(p.bits.Load()), nil
}
