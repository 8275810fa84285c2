package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orrery/internal/celestial"
)

const (
	DefaultScene         = "solar"
	DefaultG             = celestial.DefaultG
	DefaultDt            = 0.1
	DefaultSteps         = 1000
	DefaultSeed          = 1
	DefaultScheme        = "kdk"
	DefaultMinSeparation = celestial.DefaultMinSeparation
	DefaultWorkers       = 1
	DefaultSampleEvery   = 10
	DefaultDataDir       = ".orrery"
	DefaultLogLevel      = "info"

	EnvPrefix = "ORRERY"
)

// Viper keys; they match the yaml tags.
const (
	KeyScene          = "scene"
	KeyG              = "g"
	KeyDt             = "dt"
	KeySteps          = "steps"
	KeySeed           = "seed"
	KeyScheme         = "scheme"
	KeyMinSeparation  = "min_separation"
	KeyWorkers        = "workers"
	KeySampleEvery    = "sample_every"
	KeyStepsPerSecond = "steps_per_second"
	KeyDataDir        = "data_dir"
	KeyLogLevel       = "log_level"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Scene          string  `yaml:"scene"`
	G              float64 `yaml:"g"`
	Dt             float64 `yaml:"dt"`
	Steps          int     `yaml:"steps"`
	Seed           int64   `yaml:"seed"`
	Scheme         string  `yaml:"scheme"`
	MinSeparation  float64 `yaml:"min_separation"`
	Workers        int     `yaml:"workers"`
	SampleEvery    int     `yaml:"sample_every"`
	StepsPerSecond float64 `yaml:"steps_per_second"`
	DataDir        string  `yaml:"data_dir"`
	LogLevel       string  `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene:         DefaultScene,
		G:             DefaultG,
		Dt:            DefaultDt,
		Steps:         DefaultSteps,
		Seed:          DefaultSeed,
		Scheme:        DefaultScheme,
		MinSeparation: DefaultMinSeparation,
		Workers:       DefaultWorkers,
		SampleEvery:   DefaultSampleEvery,
		DataDir:       DefaultDataDir,
		LogLevel:      DefaultLogLevel,
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

func (c *Config) Validate() error {
	switch {
	case c.Scene == "":
		return fmt.Errorf("%w: scene is empty", ErrInvalid)
	case !(c.G > 0):
		return fmt.Errorf("%w: g must be positive, got %v", ErrInvalid, c.G)
	case !(c.Dt >= 0):
		return fmt.Errorf("%w: dt must be non-negative, got %v", ErrInvalid, c.Dt)
	case c.Steps < 0:
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalid, c.Steps)
	case c.MinSeparation < 0:
		return fmt.Errorf("%w: min_separation must be non-negative, got %v", ErrInvalid, c.MinSeparation)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	case c.SampleEvery < 1:
		return fmt.Errorf("%w: sample_every must be at least 1, got %d", ErrInvalid, c.SampleEvery)
	case c.StepsPerSecond < 0:
		return fmt.Errorf("%w: steps_per_second must be non-negative, got %v", ErrInvalid, c.StepsPerSecond)
	}
	if _, err := celestial.ParseScheme(c.Scheme); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Options maps the physics settings onto registry options.
func (c *Config) Options() []celestial.Option {
	scheme, _ := celestial.ParseScheme(c.Scheme)
	return []celestial.Option{
		celestial.WithG(c.G),
		celestial.WithMinSeparation(c.MinSeparation),
		celestial.WithScheme(scheme),
		celestial.WithWorkers(c.Workers),
	}
}

// NewViper returns a viper instance seeded with the defaults and bound to
// ORRERY_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults installs c as the lowest layer of v, below any config file,
// environment variable or flag. Profiles are applied this way.
func SetDefaults(v *viper.Viper, c *Config) {
	v.SetDefault(KeyScene, c.Scene)
	v.SetDefault(KeyG, c.G)
	v.SetDefault(KeyDt, c.Dt)
	v.SetDefault(KeySteps, c.Steps)
	v.SetDefault(KeySeed, c.Seed)
	v.SetDefault(KeyScheme, c.Scheme)
	v.SetDefault(KeyMinSeparation, c.MinSeparation)
	v.SetDefault(KeyWorkers, c.Workers)
	v.SetDefault(KeySampleEvery, c.SampleEvery)
	v.SetDefault(KeyStepsPerSecond, c.StepsPerSecond)
	v.SetDefault(KeyDataDir, c.DataDir)
	v.SetDefault(KeyLogLevel, c.LogLevel)
}

// FromViper reads an optional config file into v and resolves the layered
// settings: defaults, file, environment, then any bound flags.
func FromViper(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Scene:          v.GetString(KeyScene),
		G:              v.GetFloat64(KeyG),
		Dt:             v.GetFloat64(KeyDt),
		Steps:          v.GetInt(KeySteps),
		Seed:           v.GetInt64(KeySeed),
		Scheme:         v.GetString(KeyScheme),
		MinSeparation:  v.GetFloat64(KeyMinSeparation),
		Workers:        v.GetInt(KeyWorkers),
		SampleEvery:    v.GetInt(KeySampleEvery),
		StepsPerSecond: v.GetFloat64(KeyStepsPerSecond),
		DataDir:        v.GetString(KeyDataDir),
		LogLevel:       v.GetString(KeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
