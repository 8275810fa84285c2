package celestial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ID is the position of a body in its registry. IDs are stable because
// bodies are never removed or reordered.
type ID int

// Mode is the dynamics mode of a body, fixed for its lifetime.
type Mode int

const (
	ModeFree Mode = iota
	ModeFixed
	ModeOrbit
)

func (m Mode) String() string {
	switch m {
	case ModeFree:
		return "free"
	case ModeFixed:
		return "fixed"
	case ModeOrbit:
		return "orbit"
	}
	return "unknown"
}

// Motion is the dynamics variant of a body: Fixed, *Orbit or *Free.
type Motion interface {
	Mode() Mode
	clone() Motion
}

// Fixed bodies never move.
type Fixed struct{}

func (Fixed) Mode() Mode    { return ModeFixed }
func (Fixed) clone() Motion { return Fixed{} }

// Orbit places a body kinematically on a circle around its parent.
type Orbit struct {
	Parent         ID
	Angle          float64
	Speed          float64
	VerticalOffset float64
	radius         float64
}

func (o *Orbit) Mode() Mode { return ModeOrbit }

func (o *Orbit) clone() Motion {
	c := *o
	return &c
}

// Radius is the distance to the parent, set once at insertion.
func (o *Orbit) Radius() float64 { return o.radius }

// place returns the kinematic position for the current angle.
func (o *Orbit) place(parent r3.Vec) r3.Vec {
	return r3.Vec{
		X: parent.X + o.radius*math.Cos(o.Angle),
		Y: parent.Y + o.VerticalOffset,
		Z: parent.Z + o.radius*math.Sin(o.Angle),
	}
}

// Free bodies move by integrating accumulated gravity.
type Free struct {
	Velocity     r3.Vec
	Acceleration r3.Vec
}

func (f *Free) Mode() Mode { return ModeFree }

func (f *Free) clone() Motion {
	c := *f
	return &c
}

// Body is a single celestial body.
type Body struct {
	Name     string
	Mass     float64
	Position r3.Vec

	// Cosmetic: forwarded to renderers, never read by the dynamics.
	Spin     float64
	SpinRate float64
	Radius   float64

	motion Motion
}

func (b Body) Mode() Mode { return b.motion.Mode() }

// Motion returns a copy of the body's dynamics variant.
func (b Body) Motion() Motion { return b.motion.clone() }

// Velocity is zero for fixed and orbiting bodies.
func (b Body) Velocity() r3.Vec {
	if f, ok := b.motion.(*Free); ok {
		return f.Velocity
	}
	return r3.Vec{}
}

// Acceleration is zero for fixed and orbiting bodies.
func (b Body) Acceleration() r3.Vec {
	if f, ok := b.motion.(*Free); ok {
		return f.Acceleration
	}
	return r3.Vec{}
}

// Orbit returns a copy of the orbit parameters for orbiting bodies.
func (b Body) Orbit() (Orbit, bool) {
	if o, ok := b.motion.(*Orbit); ok {
		return *o, true
	}
	return Orbit{}, false
}

// Parent reports the parent of an orbiting body.
func (b Body) Parent() (ID, bool) {
	if o, ok := b.motion.(*Orbit); ok {
		return o.Parent, true
	}
	return 0, false
}

func (b Body) clone() Body {
	b.motion = b.motion.clone()
	return b
}

func (b Body) valid() bool {
	if !finite(b.Position) {
		return false
	}
	switch m := b.motion.(type) {
	case *Free:
		return finite(m.Velocity) && finite(m.Acceleration)
	case *Orbit:
		return !math.IsNaN(m.Angle) && !math.IsInf(m.Angle, 0)
	}
	return true
}

// Spec describes a body to add to a registry.
//
// A non-empty Parent selects kinematic-orbit mode. OrbitRadius zero means
// the radius is the distance between Position and the parent's position.
// Velocity is only used by free bodies.
type Spec struct {
	Name           string
	Mass           float64
	Fixed          bool
	Position       r3.Vec
	Velocity       r3.Vec
	Parent         string
	OrbitRadius    float64
	OrbitAngle     float64
	OrbitSpeed     float64
	VerticalOffset float64
	SpinRate       float64
	Radius         float64
}

func finite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
