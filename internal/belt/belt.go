// Package belt generates rings of small bodies on randomized kinematic orbits.
package belt

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/celestial"
)

const (
	DefaultCount     = 200
	DefaultMinRadius = 0.5
	DefaultMaxRadius = 2.0
	DefaultMinDist   = 180.0
	DefaultMaxDist   = 250.0
	DefaultSpread    = 5.0
	DefaultMinSpeed  = 0.005
	DefaultMaxSpeed  = 0.02
	DefaultMass      = 0.001
	DefaultSpinRate  = 0.01
	DefaultPrefix    = "Asteroid_"
)

var (
	ErrInvalidCount = errors.New("belt: count must be non-negative")
	ErrInvalidRange = errors.New("belt: range minimum exceeds maximum")
	ErrInvalidMass  = errors.New("belt: mass must be positive")
)

// Rand is the random source the generator draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type Config struct {
	Count     int     `yaml:"count"`
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
	MinDist   float64 `yaml:"min_dist"`
	MaxDist   float64 `yaml:"max_dist"`
	Spread    float64 `yaml:"spread"`
	MinSpeed  float64 `yaml:"min_speed"`
	MaxSpeed  float64 `yaml:"max_speed"`
	Mass      float64 `yaml:"mass"`
	SpinRate  float64 `yaml:"spin_rate"`
	Prefix    string  `yaml:"prefix"`
}

func DefaultConfig() Config {
	return Config{
		Count:     DefaultCount,
		MinRadius: DefaultMinRadius,
		MaxRadius: DefaultMaxRadius,
		MinDist:   DefaultMinDist,
		MaxDist:   DefaultMaxDist,
		Spread:    DefaultSpread,
		MinSpeed:  DefaultMinSpeed,
		MaxSpeed:  DefaultMaxSpeed,
		Mass:      DefaultMass,
		SpinRate:  DefaultSpinRate,
		Prefix:    DefaultPrefix,
	}
}

func (c Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, c.Count)
	}
	ranges := []struct {
		name     string
		min, max float64
	}{
		{"radius", c.MinRadius, c.MaxRadius},
		{"dist", c.MinDist, c.MaxDist},
		{"speed", c.MinSpeed, c.MaxSpeed},
	}
	for _, r := range ranges {
		if r.min > r.max {
			return fmt.Errorf("%w: %s [%v, %v]", ErrInvalidRange, r.name, r.min, r.max)
		}
	}
	if !(c.Mass > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidMass, c.Mass)
	}
	return nil
}

func uniform(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Generate returns cfg.Count orbiting specs around parent. Each instance
// draws, in order: visual radius, orbit radius, angle, vertical offset and
// angular speed.
func Generate(rng Rand, parent string, parentPos r3.Vec, cfg Config) ([]celestial.Spec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	specs := make([]celestial.Spec, cfg.Count)
	for i := range specs {
		radius := uniform(rng, cfg.MinRadius, cfg.MaxRadius)
		dist := uniform(rng, cfg.MinDist, cfg.MaxDist)
		angle := rng.Float64() * 2 * math.Pi
		offset := cfg.Spread * (0.5 - rng.Float64())
		speed := uniform(rng, cfg.MinSpeed, cfg.MaxSpeed)

		specs[i] = celestial.Spec{
			Name: fmt.Sprintf("%s%d", cfg.Prefix, i),
			Mass: cfg.Mass,
			Position: r3.Vec{
				X: parentPos.X + dist*math.Cos(angle),
				Y: parentPos.Y + offset,
				Z: parentPos.Z + dist*math.Sin(angle),
			},
			Parent:         parent,
			OrbitRadius:    dist,
			OrbitAngle:     angle,
			OrbitSpeed:     speed,
			VerticalOffset: offset,
			SpinRate:       cfg.SpinRate,
			Radius:         radius,
		}
	}
	return specs, nil
}

// Populate generates a belt around the named body and adds it to sys.
func Populate(sys *celestial.System, parent string, cfg Config, rng Rand) ([]celestial.ID, error) {
	pid, ok := sys.Lookup(parent)
	if !ok {
		return nil, fmt.Errorf("%w: %q", celestial.ErrUnknownParent, parent)
	}

	specs, err := Generate(rng, parent, sys.Position(pid), cfg)
	if err != nil {
		return nil, err
	}

	ids := make([]celestial.ID, 0, len(specs))
	for _, spec := range specs {
		id, err := sys.AddBody(spec)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
