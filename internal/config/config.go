package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel     = "base"
	DefaultMaxRadius = 30.0
	DefaultSamples   = 1000
	DefaultStep      = 0.1
	DefaultSeed      = 123
	// galactocentric x of the Sun in kpc
	DefaultSunX = -8.178
)

type Config struct {
	Model     string         `yaml:"model"`
	MaxRadius float64        `yaml:"max_radius"`
	Samples   int            `yaml:"samples"`
	Seed      int64          `yaml:"seed"`
	Step      float64        `yaml:"step"`
	Observer  ObserverConfig `yaml:"observer"`
	LOS       LOSConfig      `yaml:"los"`
}

// ObserverConfig is the start position of line-of-sight integrals in
// galactocentric kpc.
type ObserverConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// LOSConfig is the integration direction in Galactic coordinates
// (degrees).
type LOSConfig struct {
	Longitude float64 `yaml:"longitude"`
	Latitude  float64 `yaml:"latitude"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:     DefaultModel,
		MaxRadius: DefaultMaxRadius,
		Samples:   DefaultSamples,
		Seed:      DefaultSeed,
		Step:      DefaultStep,
		Observer: ObserverConfig{
			X: DefaultSunX,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
