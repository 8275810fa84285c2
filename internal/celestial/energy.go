package celestial

import "gonum.org/v1/gonum/spatial/r3"

// Energy returns the kinetic energy of the free bodies plus the pairwise
// potential energy of the whole registry.
func (s *System) Energy() float64 {
	ke := 0.0
	pe := 0.0

	for i, b := range s.bodies {
		v := b.Velocity()
		ke += 0.5 * b.Mass * r3.Norm2(v)

		for j := i + 1; j < len(s.bodies); j++ {
			o := s.bodies[j]
			r := s.clamp(r3.Norm(r3.Sub(o.Position, b.Position)))
			pe -= s.g * b.Mass * o.Mass / r
		}
	}

	return ke + pe
}

// Momentum returns the total linear momentum of the free bodies.
func (s *System) Momentum() r3.Vec {
	var p r3.Vec
	for _, b := range s.bodies {
		p = r3.Add(p, r3.Scale(b.Mass, b.Velocity()))
	}
	return p
}

// AngularMomentum returns Σ m (x × v) of the free bodies about the origin.
func (s *System) AngularMomentum() r3.Vec {
	var l r3.Vec
	for _, b := range s.bodies {
		l = r3.Add(l, r3.Scale(b.Mass, r3.Cross(b.Position, b.Velocity())))
	}
	return l
}
