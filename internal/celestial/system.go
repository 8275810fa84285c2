package celestial

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultG is the gravitational parameter of the scene unit system.
	DefaultG = 0.001

	// DefaultMinSeparation is the distance below which pairwise
	// separations are clamped in the accumulator and initializer.
	DefaultMinSeparation = 1e-9
)

// Scheme selects how free bodies are integrated.
type Scheme int

const (
	// SchemeKDK kicks twice with the acceleration of the previous
	// accumulator pass.
	SchemeKDK Scheme = iota
	// SchemeVerlet recomputes gravity between the drift and the second kick.
	SchemeVerlet
	// SchemeEuler is semi-implicit Euler.
	SchemeEuler
)

func (s Scheme) String() string {
	switch s {
	case SchemeKDK:
		return "kdk"
	case SchemeVerlet:
		return "verlet"
	case SchemeEuler:
		return "euler"
	}
	return "unknown"
}

// ParseScheme maps a scheme name to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "", "kdk":
		return SchemeKDK, nil
	case "verlet":
		return SchemeVerlet, nil
	case "euler":
		return SchemeEuler, nil
	}
	return 0, fmt.Errorf("unknown scheme: %s", name)
}

// System is the ordered body registry and the dynamics that advance it.
type System struct {
	g             float64
	minSeparation float64
	scheme        Scheme
	workers       int

	bodies []*Body
	index  map[string]ID

	time        float64
	steps       int
	initialized bool
	uncentered  []ID
}

type Option func(*System)

func WithG(g float64) Option {
	return func(s *System) { s.g = g }
}

// WithMinSeparation sets the separation clamp; zero disables clamping.
func WithMinSeparation(d float64) Option {
	return func(s *System) { s.minSeparation = d }
}

func WithScheme(scheme Scheme) Option {
	return func(s *System) { s.scheme = scheme }
}

// WithWorkers splits the accumulator's outer loop across n goroutines.
func WithWorkers(n int) Option {
	return func(s *System) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

func New(opts ...Option) *System {
	s := &System{
		g:             DefaultG,
		minSeparation: DefaultMinSeparation,
		scheme:        SchemeKDK,
		workers:       1,
		bodies:        make([]*Body, 0),
		index:         make(map[string]ID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *System) G() float64        { return s.g }
func (s *System) Scheme() Scheme    { return s.scheme }
func (s *System) Len() int          { return len(s.bodies) }
func (s *System) Time() float64     { return s.time }
func (s *System) Steps() int        { return s.steps }
func (s *System) Initialized() bool { return s.initialized }

// AddBody validates spec and appends the body to the registry.
//
// Orbiting bodies are placed on their orbit immediately, so the kinematic
// invariant holds before the first step.
func (s *System) AddBody(spec Spec) (ID, error) {
	if _, dup := s.index[spec.Name]; dup {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateName, spec.Name)
	}
	if !(spec.Mass > 0) || math.IsInf(spec.Mass, 0) {
		return 0, fmt.Errorf("%w: %q has mass %v", ErrInvalidMass, spec.Name, spec.Mass)
	}
	if spec.Fixed && spec.Parent != "" {
		return 0, fmt.Errorf("%w: %q", ErrConflictingMode, spec.Name)
	}
	if !finite(spec.Position) || !finite(spec.Velocity) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, spec.Name)
	}
	if spec.Parent != "" && !validOrbit(spec) {
		return 0, fmt.Errorf("%w: %q has radius %v, angle %v, speed %v, offset %v",
			ErrInvalidOrbit, spec.Name, spec.OrbitRadius, spec.OrbitAngle, spec.OrbitSpeed, spec.VerticalOffset)
	}

	b := &Body{
		Name:     spec.Name,
		Mass:     spec.Mass,
		Position: spec.Position,
		SpinRate: spec.SpinRate,
		Radius:   spec.Radius,
	}

	switch {
	case spec.Parent != "":
		pid, ok := s.index[spec.Parent]
		if !ok {
			return 0, fmt.Errorf("%w: %q for %q", ErrUnknownParent, spec.Parent, spec.Name)
		}
		parent := s.bodies[pid].Position
		radius := spec.OrbitRadius
		if radius == 0 {
			radius = r3.Norm(r3.Sub(spec.Position, parent))
		}
		o := &Orbit{
			Parent:         pid,
			Angle:          spec.OrbitAngle,
			Speed:          spec.OrbitSpeed,
			VerticalOffset: spec.VerticalOffset,
			radius:         radius,
		}
		b.Position = o.place(parent)
		b.motion = o
	case spec.Fixed:
		b.motion = Fixed{}
	default:
		b.motion = &Free{Velocity: spec.Velocity}
	}

	id := ID(len(s.bodies))
	s.bodies = append(s.bodies, b)
	s.index[spec.Name] = id
	return id, nil
}

func validOrbit(spec Spec) bool {
	for _, v := range []float64{spec.OrbitRadius, spec.OrbitAngle, spec.OrbitSpeed, spec.VerticalOffset} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return spec.OrbitRadius >= 0
}

// Lookup finds a body by name.
func (s *System) Lookup(name string) (ID, bool) {
	id, ok := s.index[name]
	return id, ok
}

// Body returns a copy of the body with the given id.
func (s *System) Body(id ID) Body {
	return s.bodies[id].clone()
}

// Bodies returns copies of all bodies in registry order.
func (s *System) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.clone()
	}
	return out
}

// Position returns the current position of a body without copying it.
func (s *System) Position(id ID) r3.Vec {
	return s.bodies[id].Position
}

// Names returns body names in registry order.
func (s *System) Names() []string {
	names := make([]string, len(s.bodies))
	for i, b := range s.bodies {
		names[i] = b.Name
	}
	return names
}

// Uncentered lists free bodies the initializer could not anchor to a center.
func (s *System) Uncentered() []ID {
	return append([]ID(nil), s.uncentered...)
}

// Valid reports whether every body's state is finite.
func (s *System) Valid() bool {
	for _, b := range s.bodies {
		if !b.valid() {
			return false
		}
	}
	return true
}
