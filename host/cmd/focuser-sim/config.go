package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"gofocus/motor"
)

// ProbeConfig selects the temperature source
type ProbeConfig struct {
	Kind    string  `yaml:"kind"`     // "none" | "sim" | "ds18b20"
	Bus     string  `yaml:"bus"`      // 1-wire bus name, empty for the first one
	Bits    int     `yaml:"bits"`     // ds18b20 resolution, 9..12
	SimTemp float64 `yaml:"sim_temp"` // starting temperature of the simulated probe
}

// Config is the simulator config file
type Config struct {
	Board          int         `yaml:"board"`
	BlobDir        string      `yaml:"blob_dir"`
	GPIO           string      `yaml:"gpio"` // "memory" | "periph"
	Probe          ProbeConfig `yaml:"probe"`
	LoopIntervalMs int         `yaml:"loop_interval_ms"`
	SaveWindowS    int         `yaml:"save_window_s"`
	LogLevel       string      `yaml:"log_level"`
}

// LoadConfig reads a YAML config file and fills in defaults
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig parses YAML config data and fills in defaults
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

// DefaultConfig is used when no config file is found
func DefaultConfig() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Board == 0 {
		c.Board = motor.PRO2EULN2003
	}
	if c.BlobDir == "" {
		c.BlobDir = "focuser-data"
	}
	if c.GPIO == "" {
		c.GPIO = "memory"
	}
	if c.Probe.Kind == "" {
		c.Probe.Kind = "sim"
	}
	if c.Probe.Bits == 0 {
		c.Probe.Bits = 12
	}
	if c.Probe.Kind == "sim" && c.Probe.SimTemp == 0 {
		c.Probe.SimTemp = 20.0
	}
	if c.LoopIntervalMs <= 0 {
		c.LoopIntervalMs = 5
	}
	if c.SaveWindowS <= 0 {
		c.SaveWindowS = 120
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
