package celestial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Step advances every body by dt in registry order and then refreshes the
// free bodies' accelerations for the next call.
//
// With SchemeKDK both half kicks reuse the acceleration of the previous
// accumulator pass; gravity is recomputed once, after all positions moved.
func (s *System) Step(dt float64) error {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return ErrInvalidStep
	}

	switch s.scheme {
	case SchemeVerlet:
		s.stepVerlet(dt)
	case SchemeEuler:
		s.stepEuler(dt)
	default:
		s.stepKDK(dt)
	}

	s.time += dt
	s.steps++
	return nil
}

func (s *System) stepKDK(dt float64) {
	half := dt / 2
	for _, b := range s.bodies {
		b.Spin += b.SpinRate

		switch m := b.motion.(type) {
		case *Orbit:
			s.advanceOrbit(b, m, dt)
		case *Free:
			m.Velocity = r3.Add(m.Velocity, r3.Scale(half, m.Acceleration))
			b.Position = r3.Add(b.Position, r3.Scale(dt, m.Velocity))
			m.Velocity = r3.Add(m.Velocity, r3.Scale(half, m.Acceleration))
		}
	}
	s.ComputeGravity()
}

func (s *System) stepVerlet(dt float64) {
	half := dt / 2
	for _, b := range s.bodies {
		b.Spin += b.SpinRate

		switch m := b.motion.(type) {
		case *Orbit:
			s.advanceOrbit(b, m, dt)
		case *Free:
			m.Velocity = r3.Add(m.Velocity, r3.Scale(half, m.Acceleration))
			b.Position = r3.Add(b.Position, r3.Scale(dt, m.Velocity))
		}
	}

	s.ComputeGravity()

	for _, b := range s.bodies {
		if m, ok := b.motion.(*Free); ok {
			m.Velocity = r3.Add(m.Velocity, r3.Scale(half, m.Acceleration))
		}
	}
}

func (s *System) stepEuler(dt float64) {
	for _, b := range s.bodies {
		b.Spin += b.SpinRate

		switch m := b.motion.(type) {
		case *Orbit:
			s.advanceOrbit(b, m, dt)
		case *Free:
			m.Velocity = r3.Add(m.Velocity, r3.Scale(dt, m.Acceleration))
			b.Position = r3.Add(b.Position, r3.Scale(dt, m.Velocity))
		}
	}
	s.ComputeGravity()
}

// advanceOrbit moves the phase and re-places b around its parent's current
// position. Parents precede children in the registry, so the parent has
// already been advanced this step.
func (s *System) advanceOrbit(b *Body, o *Orbit, dt float64) {
	o.Angle += o.Speed * dt
	b.Position = o.place(s.bodies[o.Parent].Position)
}
