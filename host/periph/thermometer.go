//go:build !tinygo

package periph

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ds18b20"

	"gofocus/tempcomp"
)

// Sensor is a single environmental reading device, such as *ds18b20.Dev
type Sensor interface {
	Sense(e *physic.Env) error
}

// Thermometer is a tempcomp.Source. A conversion takes up to 750ms at 12 bits,
// so RequestTemperature runs it on a goroutine and LastTemperature returns
// the last finished result.
type Thermometer struct {
	sensor Sensor

	mu    sync.Mutex
	busy  bool
	have  bool
	value float64
	err   error
	wg    sync.WaitGroup
}

// NewThermometer wraps an opened sensor; nil means no probe
func NewThermometer(sensor Sensor) *Thermometer {
	return &Thermometer{sensor: sensor}
}

// OpenDS18B20 opens the 1-wire bus busName and binds the first DS18B20 found
func OpenDS18B20(busName string, resolutionBits int) (*Thermometer, error) {
	bus, err := onewirereg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open 1-wire bus %q: %w", busName, err)
	}
	addrs, err := bus.Search(false)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("1-wire search: %w", err)
	}
	if len(addrs) == 0 {
		bus.Close()
		return nil, tempcomp.ErrNoProbe
	}
	dev, err := ds18b20.New(bus, addrs[0], resolutionBits)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ds18b20: %w", err)
	}
	return NewThermometer(dev), nil
}

func (t *Thermometer) Present() bool {
	return t.sensor != nil
}

// RequestTemperature starts a conversion unless one is already running
func (t *Thermometer) RequestTemperature() error {
	if t.sensor == nil {
		return tempcomp.ErrNoProbe
	}
	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return nil
	}
	t.busy = true
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		var env physic.Env
		err := t.sensor.Sense(&env)

		t.mu.Lock()
		defer t.mu.Unlock()
		t.busy = false
		t.err = err
		if err == nil {
			t.value = Celsius(env.Temperature)
			t.have = true
		}
	}()
	return nil
}

// LastTemperature returns the last completed conversion in degrees C
func (t *Thermometer) LastTemperature() (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return 0, t.err
	}
	if !t.have {
		return 0, fmt.Errorf("no conversion finished yet")
	}
	return t.value, nil
}

// Wait blocks until an in-flight conversion finishes
func (t *Thermometer) Wait() {
	t.wg.Wait()
}

// Celsius converts a periph temperature to degrees C
func Celsius(temp physic.Temperature) float64 {
	return float64(temp-physic.ZeroCelsius) / float64(physic.Kelvin)
}
