// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// The simulation takes a snapshot of these values at startup and never
// re-reads them mid-run.
type Config struct {
	Arena       ArenaConfig       `yaml:"arena"`
	Predator    PredatorConfig    `yaml:"predator"`
	Prey        PreyConfig        `yaml:"prey"`
	Environment EnvironmentConfig `yaml:"environment"`
	Entity      EntityConfig      `yaml:"entity"`
	Jitter      JitterConfig      `yaml:"jitter"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// ArenaConfig holds the arena rectangle dimensions.
// Positions are clamped into [-width/2, +width/2] x [-height/2, +height/2].
type ArenaConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PredatorConfig holds predator species parameters.
type PredatorConfig struct {
	Population     int     `yaml:"population"`      // initial spawn count
	Speed          float64 `yaml:"speed"`           // units moved per tick while seeking
	DetectionRange float64 `yaml:"detection_range"` // perception radius
	InitialLife    int     `yaml:"initial_life"`    // life at spawn
	Drain          int     `yaml:"drain"`           // unconditional life loss per tick
	Bounty         int     `yaml:"bounty"`          // life gained per predation kill
	ReproThreshold int     `yaml:"repro_threshold"` // minimum life to seek a mate
	ReproCost      int     `yaml:"repro_cost"`      // life paid by the spawning parent
}

// PreyConfig holds prey species parameters.
type PreyConfig struct {
	Population     int     `yaml:"population"`
	Speed          float64 `yaml:"speed"`
	DetectionRange float64 `yaml:"detection_range"`
	InitialLife    int     `yaml:"initial_life"`
	HuntedDrain    int     `yaml:"hunted_drain"` // life loss per tick while actively hunted
	FeedGain       int     `yaml:"feed_gain"`    // life gained per environment unit consumed
	ReproThreshold int     `yaml:"repro_threshold"`
	ReproCost      int     `yaml:"repro_cost"`
}

// EnvironmentConfig holds the shared energy pool parameters.
type EnvironmentConfig struct {
	InitialPool int     `yaml:"initial_pool"`
	MaxPool     int     `yaml:"max_pool"`
	GrowthRate  float64 `yaml:"growth_rate"` // multiplicative growth per tick, capped at max_pool
}

// EntityConfig holds entity creation parameters.
type EntityConfig struct {
	Dimension float64 `yaml:"dimension"` // default bounding-box width and height
}

// JitterConfig holds the per-tick random displacement parameters.
type JitterConfig struct {
	Amplitude float64 `yaml:"amplitude"` // uniform displacement in [-amplitude, +amplitude) per axis
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // ticks per stats window
	PerfWindow  int `yaml:"perf_window"`  // ticks averaged by the perf collector
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. A missing file or a
// non-numeric value for a numeric setting is a fatal startup error: the
// simulation must not start with partial configuration.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks that every required setting has a usable value.
func (c *Config) Validate() error {
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		return fmt.Errorf("arena dimensions must be positive, got %gx%g", c.Arena.Width, c.Arena.Height)
	}
	if c.Predator.Population < 0 || c.Prey.Population < 0 {
		return fmt.Errorf("populations must not be negative")
	}
	if c.Predator.Speed <= 0 || c.Prey.Speed <= 0 {
		return fmt.Errorf("species speeds must be positive")
	}
	if c.Predator.DetectionRange <= 0 || c.Prey.DetectionRange <= 0 {
		return fmt.Errorf("detection ranges must be positive")
	}
	if c.Predator.InitialLife <= 0 || c.Prey.InitialLife <= 0 {
		return fmt.Errorf("initial life must be positive")
	}
	if c.Environment.MaxPool <= 0 {
		return fmt.Errorf("environment max_pool must be positive")
	}
	if c.Environment.InitialPool < 0 || c.Environment.InitialPool > c.Environment.MaxPool {
		return fmt.Errorf("environment initial_pool %d outside [0, %d]", c.Environment.InitialPool, c.Environment.MaxPool)
	}
	if c.Environment.GrowthRate < 1.0 {
		return fmt.Errorf("environment growth_rate must be >= 1.0, got %g", c.Environment.GrowthRate)
	}
	if c.Entity.Dimension <= 0 {
		return fmt.Errorf("entity dimension must be positive")
	}
	if c.Jitter.Amplitude < 0 {
		return fmt.Errorf("jitter amplitude must not be negative")
	}
	if c.Telemetry.StatsWindow <= 0 {
		return fmt.Errorf("telemetry stats_window must be positive")
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
