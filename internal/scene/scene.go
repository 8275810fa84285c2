// Package scene describes initial body layouts and builds registries from them.
package scene

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orrery/internal/belt"
	"github.com/san-kum/orrery/internal/celestial"
)

const (
	DefaultOrbitSpeed = 0.01
	DefaultSpinRate   = 0.01
)

var (
	ErrUnknownScene = errors.New("scene: unknown scene")
	ErrEmptyScene   = errors.New("scene: no bodies")
	ErrPlacement    = errors.New("scene: distance and position are mutually exclusive")
)

// Vec3 is written as a flow sequence: [x, y, z].
type Vec3 [3]float64

func (v Vec3) Vec() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

type BodyDef struct {
	Name           string   `yaml:"name"`
	Mass           float64  `yaml:"mass"`
	Fixed          bool     `yaml:"fixed,omitempty"`
	Distance       float64  `yaml:"distance,omitempty"`
	Position       *Vec3    `yaml:"position,omitempty,flow"`
	Velocity       *Vec3    `yaml:"velocity,omitempty,flow"`
	Parent         string   `yaml:"parent,omitempty"`
	OrbitRadius    float64  `yaml:"orbit_radius,omitempty"`
	OrbitAngle     *float64 `yaml:"orbit_angle,omitempty"`
	OrbitSpeed     *float64 `yaml:"orbit_speed,omitempty"`
	VerticalOffset float64  `yaml:"vertical_offset,omitempty"`
	SpinRate       *float64 `yaml:"spin_rate,omitempty"`
	Radius         float64  `yaml:"radius,omitempty"`
}

type BeltDef struct {
	Parent      string `yaml:"parent"`
	belt.Config `yaml:",inline"`
}

// UnmarshalYAML fills omitted belt fields from belt.DefaultConfig.
func (d *BeltDef) UnmarshalYAML(n *yaml.Node) error {
	type raw BeltDef
	r := raw{Config: belt.DefaultConfig()}
	if err := n.Decode(&r); err != nil {
		return err
	}
	*d = BeltDef(r)
	return nil
}

type Scene struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Bodies      []BodyDef `yaml:"bodies"`
	Belts       []BeltDef `yaml:"belts,omitempty"`

	// CircularInit defaults to true. When false the bodies keep their
	// declared velocities and only the first accumulator pass runs.
	CircularInit *bool `yaml:"circular_init,omitempty"`
}

func (s *Scene) circularInit() bool {
	return s.CircularInit == nil || *s.CircularInit
}

// Count returns the number of bodies Build adds.
func (s *Scene) Count() int {
	n := len(s.Bodies)
	for _, b := range s.Belts {
		n += b.Count
	}
	return n
}

func (s *Scene) Validate() error {
	if len(s.Bodies) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyScene, s.Name)
	}
	for _, b := range s.Bodies {
		if b.Distance != 0 && b.Position != nil {
			return fmt.Errorf("%w: %q", ErrPlacement, b.Name)
		}
	}
	for _, b := range s.Belts {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("belt around %q: %w", b.Parent, err)
		}
	}
	return nil
}

// Spec converts a body definition. Omitted orbit angles are drawn from rng.
func (d BodyDef) Spec(rng belt.Rand) celestial.Spec {
	spec := celestial.Spec{
		Name:           d.Name,
		Mass:           d.Mass,
		Fixed:          d.Fixed,
		Position:       r3.Vec{X: d.Distance},
		Parent:         d.Parent,
		OrbitRadius:    d.OrbitRadius,
		VerticalOffset: d.VerticalOffset,
		SpinRate:       DefaultSpinRate,
		Radius:         d.Radius,
	}
	if d.Position != nil {
		spec.Position = d.Position.Vec()
	}
	if d.Velocity != nil {
		spec.Velocity = d.Velocity.Vec()
	}
	if d.SpinRate != nil {
		spec.SpinRate = *d.SpinRate
	}

	if d.Parent != "" {
		spec.OrbitSpeed = DefaultOrbitSpeed
		if d.OrbitSpeed != nil {
			spec.OrbitSpeed = *d.OrbitSpeed
		}
		if d.OrbitAngle != nil {
			spec.OrbitAngle = *d.OrbitAngle
		} else {
			spec.OrbitAngle = rng.Float64() * 2 * math.Pi
		}
	}
	return spec
}

// Build adds the scene's bodies and then its belts to sys in file order and
// prepares the registry for its first step.
func (s *Scene) Build(sys *celestial.System, rng belt.Rand) error {
	if err := s.Validate(); err != nil {
		return err
	}

	for _, d := range s.Bodies {
		if _, err := sys.AddBody(d.Spec(rng)); err != nil {
			return err
		}
	}
	for _, b := range s.Belts {
		if _, err := belt.Populate(sys, b.Parent, b.Config, rng); err != nil {
			return fmt.Errorf("belt around %q: %w", b.Parent, err)
		}
	}

	if s.circularInit() {
		return sys.InitCircularOrbits()
	}
	sys.ComputeGravity()
	return nil
}

func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

func Save(path string, s *Scene) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Open loads a scene file when ref names a .yaml or .yml path and looks up
// a preset otherwise.
func Open(ref string) (*Scene, error) {
	switch filepath.Ext(ref) {
	case ".yaml", ".yml":
		return Load(ref)
	}
	return Get(ref)
}
