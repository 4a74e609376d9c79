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
type Config struct {
	Screen    ScreenConfig     `yaml:"screen"`
	Sim       SimConfig        `yaml:"sim"`
	Flee      FleeConfig       `yaml:"flee"`
	Bend      BendConfig       `yaml:"bend"`
	Terrain   TerrainConfig    `yaml:"terrain"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`
	Schools   []SchoolConfig   `yaml:"schools"`
	Obstacles []ObstacleConfig `yaml:"obstacles"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimConfig holds frame-stepping parameters.
type SimConfig struct {
	DT float64 `yaml:"dt"` // fixed timestep for headless runs, seconds
}

// FleeConfig holds predator detection parameters shared by all schools.
type FleeConfig struct {
	DetectPad float64 `yaml:"detect_pad"` // added to aversion + predator half-size
}

// BendConfig shapes the turn-rate bend signal fed to swim animation.
type BendConfig struct {
	Deadzone float64 `yaml:"deadzone"`  // rad/s below which no bend is emitted
	Gain     float64 `yaml:"gain"`      // angular velocity to bend signal
	Max      float64 `yaml:"max"`       // bend target clamp
	SlewRate float64 `yaml:"slew_rate"` // emitted bend vector speed, units/s
}

// TerrainConfig holds the demo seabed heightfield parameters.
type TerrainConfig struct {
	Seed        int64   `yaml:"seed"`
	Size        float64 `yaml:"size"`         // square field edge, world units
	BaseHeight  float64 `yaml:"base_height"`  // mean seabed height
	HeightScale float64 `yaml:"height_scale"` // noise amplitude
	NoiseScale  float64 `yaml:"noise_scale"`  // noise frequency
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
	PerfWindow  int     `yaml:"perf_window"`  // ticks in the perf rolling window
}

// SchoolConfig defines one school's parameters and initial population.
// Angles are radians, rates are per-second.
type SchoolConfig struct {
	Name string `yaml:"name"`

	Count int     `yaml:"count"` // initial population
	Scale float64 `yaml:"scale"` // agent render/body scale

	Separation   float64 `yaml:"separation"`
	Alignment    float64 `yaml:"alignment"`
	TargetWeight float64 `yaml:"target_weight"`

	AversionDistance float64 `yaml:"aversion_distance"`
	CellRadius       float64 `yaml:"cell_radius"`
	Speed            float64 `yaml:"speed"`
	MaxTurnRate      float64 `yaml:"max_turn_rate"`
	MaxVerticalAngle float64 `yaml:"max_vertical_angle"`

	BoundsMin [3]float64 `yaml:"bounds_min"`
	BoundsMax [3]float64 `yaml:"bounds_max"`

	SeabedBound bool `yaml:"seabed_bound"`
	Predator    bool `yaml:"predator"`
	Prey        bool `yaml:"prey"`

	PredatorSize float64 `yaml:"predator_size"`

	StateTransitionSpeed float64 `yaml:"state_transition_speed"`
	AnimationSpeed       float64 `yaml:"animation_speed"`

	// Target mover: each finished lerp re-rolls a duration in this range.
	TargetLerpMin float64 `yaml:"target_lerp_min"`
	TargetLerpMax float64 `yaml:"target_lerp_max"`
}

// ObstacleConfig is a static box agents steer away from.
type ObstacleConfig struct {
	Pos        [3]float64 `yaml:"pos"`
	HalfExtent [3]float64 `yaml:"half_extent"`
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present
		// in the file. A schools list in the file replaces the default
		// list wholesale.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks school parameters once at load time. Malformed schools
// are a setup error, never a per-frame runtime check.
func (c *Config) Validate() error {
	if len(c.Schools) == 0 {
		return fmt.Errorf("config: no schools defined")
	}
	for i := range c.Schools {
		s := &c.Schools[i]
		if s.CellRadius <= 0 {
			return fmt.Errorf("config: school %q: cell_radius must be positive, got %v", s.Name, s.CellRadius)
		}
		if s.Separation < 0 || s.Alignment < 0 || s.TargetWeight < 0 {
			return fmt.Errorf("config: school %q: steering weights must be non-negative", s.Name)
		}
		if s.Speed < 0 {
			return fmt.Errorf("config: school %q: speed must be non-negative, got %v", s.Name, s.Speed)
		}
		if s.MaxTurnRate <= 0 {
			return fmt.Errorf("config: school %q: max_turn_rate must be positive, got %v", s.Name, s.MaxTurnRate)
		}
		for axis := 0; axis < 3; axis++ {
			if s.BoundsMin[axis] >= s.BoundsMax[axis] {
				return fmt.Errorf("config: school %q: bounds_min must be below bounds_max on every axis", s.Name)
			}
		}
		if s.TargetLerpMin <= 0 || s.TargetLerpMax < s.TargetLerpMin {
			return fmt.Errorf("config: school %q: target lerp range invalid", s.Name)
		}
	}
	return nil
}

// WriteYAML saves the configuration to a file, for output-dir snapshots.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
