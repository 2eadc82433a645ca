package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/grove/internal/core/engine"
	"github.com/zeusync/grove/internal/core/observability/log"
)

// Config is the configuration of the grove server.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Server     ServerConfig     `yaml:"server"`
	Journal    JournalConfig    `yaml:"journal"`
	Log        LogConfig        `yaml:"log"`
}

type SimulationConfig struct {
	// World is the path of the world document.
	World string `yaml:"world"`
	// Images is the path of the image manifest. Optional.
	Images       string        `yaml:"images"`
	Seed         uint64        `yaml:"seed"`
	TickInterval time.Duration `yaml:"tick_interval"`
	// TimeScale is simulation seconds per wall clock second.
	TimeScale float64       `yaml:"time_scale"`
	Tuning    engine.Tuning `yaml:"tuning"`
}

type ServerConfig struct {
	// ListenAddr of the observer server. Empty disables it.
	ListenAddr      string        `yaml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type JournalConfig struct {
	// Path of the SQLite journal. Empty disables recording.
	Path  string `yaml:"path"`
	Every uint64 `yaml:"every"`
}

type LogConfig struct {
	Level       string   `yaml:"level"`
	Encoding    string   `yaml:"encoding"`
	OutputPaths []string `yaml:"output_paths"`
}

func Default() Config {
	return Config{
		Simulation: SimulationConfig{
			World:        "worlds/grove.yaml",
			TickInterval: 100 * time.Millisecond,
			TimeScale:    1,
			Tuning:       engine.DefaultTuning(),
		},
		Server: ServerConfig{
			ListenAddr:      "127.0.0.1:8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Journal: JournalConfig{
			Every: 50,
		},
		Log: LogConfig{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stdout"},
		},
	}
}

// Load reads the YAML file at path over Default and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	sim := c.Simulation
	check(sim.World != "", "simulation.world is required")
	check(sim.TickInterval > 0, "simulation.tick_interval must be positive, got %s", sim.TickInterval)
	check(sim.TimeScale > 0, "simulation.time_scale must be positive, got %g", sim.TimeScale)

	t := sim.Tuning
	check(t.Sapling.Period > 0, "simulation.tuning.sapling.period must be positive")
	check(t.Sapling.HealthLimit > 0, "simulation.tuning.sapling.health_limit must be positive")
	check(t.TreeActionPeriod.Min > 0 && t.TreeActionPeriod.Max >= t.TreeActionPeriod.Min,
		"simulation.tuning.tree_action_period must be a positive range")
	check(t.TreeAnimationPeriod.Min > 0 && t.TreeAnimationPeriod.Max >= t.TreeAnimationPeriod.Min,
		"simulation.tuning.tree_animation_period must be a positive range")
	check(t.TreeHealth.Max >= t.TreeHealth.Min, "simulation.tuning.tree_health must be a range")

	check(c.Journal.Path == "" || c.Journal.Every > 0, "journal.every must be positive")

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	check(c.Log.Encoding == "" || c.Log.Encoding == "json" || c.Log.Encoding == "console",
		"log.encoding must be json or console, got %q", c.Log.Encoding)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LogLevel is Log.Level parsed; Validate guarantees it parses.
func (c Config) LogLevel() log.Level {
	l, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.LevelInfo
	}
	return l
}

// Logger builds the process logger described by Log.
func (c Config) Logger() *log.Logger {
	return log.New(c.LogLevel(), log.Options{
		Encoding:    c.Log.Encoding,
		OutputPaths: c.Log.OutputPaths,
	})
}
