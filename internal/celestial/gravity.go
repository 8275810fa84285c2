package celestial

import "gonum.org/v1/gonum/spatial/r3"

// ComputeGravity recomputes the acceleration of every free body from all
// other bodies in registry order. Orbiting and fixed bodies act as sources
// only and keep a zero acceleration.
func (s *System) ComputeGravity() {
	parallelFor(len(s.bodies), s.workers, func(start, end int) {
		for i := start; i < end; i++ {
			s.accumulate(i)
		}
	})
}

func (s *System) accumulate(i int) {
	b := s.bodies[i]
	free, ok := b.motion.(*Free)
	if !ok {
		return
	}

	var acc r3.Vec
	for j, o := range s.bodies {
		if j == i {
			continue
		}

		rv := r3.Sub(o.Position, b.Position)
		r := r3.Norm(rv)
		if r == 0 {
			// coincident: no defined direction
			continue
		}
		rc := s.clamp(r)

		f := s.g * b.Mass * o.Mass / (rc * rc)
		acc = r3.Add(acc, r3.Scale(f/b.Mass, r3.Unit(rv)))
	}
	free.Acceleration = acc
}

// clamp applies the minimum separation policy.
func (s *System) clamp(r float64) float64 {
	if r < s.minSeparation {
		return s.minSeparation
	}
	return r
}
