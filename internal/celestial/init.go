package celestial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// tangentEpsilon is the squared length below which r × up is treated as
// degenerate (radial vector parallel to up).
const tangentEpsilon = 1e-6

var (
	up       = r3.Vec{Y: 1}
	fallback = r3.Vec{X: 1}
)

// InitCircularOrbits gives every free body the tangential speed of a
// circular orbit around the body exerting the strongest pull on it, then
// runs one accumulator pass so the first Step kicks with the real field.
//
// Call it once, after all bodies are added and before the first Step.
// Free bodies without a usable center keep their construction velocity and
// are reported by Uncentered.
func (s *System) InitCircularOrbits() error {
	if s.initialized {
		return ErrAlreadyInitialized
	}
	s.initialized = true
	s.uncentered = s.uncentered[:0]

	for i, b := range s.bodies {
		free, ok := b.motion.(*Free)
		if !ok {
			continue
		}

		c, ok := s.dominant(ID(i))
		if !ok {
			s.uncentered = append(s.uncentered, ID(i))
			continue
		}
		center := s.bodies[c]

		rv := r3.Sub(b.Position, center.Position)
		r := r3.Norm(rv)
		if r == 0 {
			s.uncentered = append(s.uncentered, ID(i))
			continue
		}

		v := math.Sqrt(s.g * center.Mass / s.clamp(r))
		free.Velocity = r3.Scale(v, tangent(rv))
	}

	s.ComputeGravity()
	return nil
}

// Center returns the body that anchors id's circular orbit: its parent when
// it orbits kinematically, otherwise the dominant influence.
func (s *System) Center(id ID) (ID, bool) {
	if o, ok := s.bodies[id].motion.(*Orbit); ok {
		return o.Parent, true
	}
	return s.dominant(id)
}

// dominant finds the body with the largest G·m/r² on id. Ties keep the
// earliest body in registry order.
func (s *System) dominant(id ID) (ID, bool) {
	b := s.bodies[id]
	best := ID(-1)
	maxForce := math.Inf(-1)

	for j, o := range s.bodies {
		if ID(j) == id {
			continue
		}
		r := s.clamp(r3.Norm(r3.Sub(b.Position, o.Position)))
		force := s.g * o.Mass / (r * r)
		if force > maxForce {
			maxForce = force
			best = ID(j)
		}
	}

	return best, best >= 0
}

// tangent returns the unit direction r × up, falling back to r × x̂ when r
// is parallel to up.
func tangent(rv r3.Vec) r3.Vec {
	t := r3.Cross(rv, up)
	if r3.Norm2(t) < tangentEpsilon {
		t = r3.Cross(rv, fallback)
	}
	return r3.Unit(t)
}
