// Package config loads the runner configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/spacelife/internal/core/observability/log"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	World      WorldConfig      `yaml:"world"`
	Logging    LoggingConfig    `yaml:"logging"`
	Prototypes string           `yaml:"prototypes"`
	Scripts    string           `yaml:"scripts,omitempty"`
	Save       SaveConfig       `yaml:"save"`
}

type SimulationConfig struct {
	// FixedStep is the wall-clock length of one simulation step.
	FixedStep         time.Duration `yaml:"fixedStep"`
	TimeScale         float64       `yaml:"timeScale"`
	StartPaused       bool          `yaml:"startPaused"`
	MaxFiresPerUpdate int           `yaml:"maxFiresPerUpdate"`
	// Duration stops the runner after this much wall time; zero runs until
	// interrupted.
	Duration time.Duration `yaml:"duration,omitempty"`
}

type WorldConfig struct {
	Width      int      `yaml:"width"`
	Height     int      `yaml:"height"`
	Depth      int      `yaml:"depth"`
	Seed       uint64   `yaml:"seed"`
	Characters []string `yaml:"characters,omitempty"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type SaveConfig struct {
	Path     string        `yaml:"path,omitempty"`
	Autosave time.Duration `yaml:"autosave,omitempty"`
}

func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			FixedStep:         20 * time.Millisecond,
			TimeScale:         1,
			MaxFiresPerUpdate: 1000,
		},
		World:      WorldConfig{Width: 100, Height: 100, Depth: 1, Seed: 1},
		Logging:    LoggingConfig{Level: "info", Encoding: "console"},
		Prototypes: "configs/prototypes.yaml",
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}
	check(c.Simulation.FixedStep > 0, "simulation.fixedStep must be positive, got %s", c.Simulation.FixedStep)
	check(c.Simulation.TimeScale > 0, "simulation.timeScale must be positive, got %v", c.Simulation.TimeScale)
	check(c.Simulation.MaxFiresPerUpdate > 0, "simulation.maxFiresPerUpdate must be positive, got %d", c.Simulation.MaxFiresPerUpdate)
	check(c.Simulation.Duration >= 0, "simulation.duration must not be negative")
	check(c.World.Width > 0 && c.World.Height > 0 && c.World.Depth > 0,
		"world size must be positive, got %dx%dx%d", c.World.Width, c.World.Height, c.World.Depth)
	_, err := log.ParseLevel(c.Logging.Level)
	check(err == nil, "logging.level %q", c.Logging.Level)
	check(c.Logging.Encoding == "json" || c.Logging.Encoding == "console", "logging.encoding %q", c.Logging.Encoding)
	check(c.Prototypes != "", "prototypes path is required")
	check(c.Save.Autosave >= 0, "save.autosave must not be negative")
	check(c.Save.Autosave == 0 || c.Save.Path != "", "save.autosave needs save.path")
	return errs
}

// LogConfig converts the logging section for log.New.
func (c *Config) LogConfig() log.Config {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		level = log.LevelInfo
	}
	return log.Config{Level: level, Encoding: c.Logging.Encoding}
}
