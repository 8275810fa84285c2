package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/celestial"
)

// Builder prepares a scene with one coordinate displaced by offset.
type Builder func(offset float64) (*celestial.System, error)

// Divergence is the separation history of a reference and a perturbed run.
type Divergence struct {
	Times         []float64
	LogSeparation []float64 // ln(d(t)/d0)
	Exponent      float64
}

// LyapunovExponent estimates the largest Lyapunov exponent by running the
// reference scene next to one displaced by perturbation and measuring how
// the separation of all bodies grows:
//
//	λ ≈ ln(d(t)/d0) / t
func LyapunovExponent(build Builder, perturbation, dt float64, steps int) (*Divergence, error) {
	if perturbation <= 0 || dt <= 0 || steps <= 0 {
		return nil, errors.New("analysis: perturbation, dt and steps must be positive")
	}

	ref, err := build(0)
	if err != nil {
		return nil, err
	}
	pert, err := build(perturbation)
	if err != nil {
		return nil, err
	}
	if ref.Len() != pert.Len() {
		return nil, errors.New("analysis: perturbed scene has a different body count")
	}

	d0 := separation(ref, pert)
	if d0 == 0 {
		return nil, errors.New("analysis: perturbation did not move any body")
	}

	div := &Divergence{
		Times:         make([]float64, 0, steps),
		LogSeparation: make([]float64, 0, steps),
	}
	for i := 0; i < steps; i++ {
		if err := ref.Step(dt); err != nil {
			return nil, err
		}
		if err := pert.Step(dt); err != nil {
			return nil, err
		}

		sep := separation(ref, pert)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			continue
		}
		div.Times = append(div.Times, ref.Time())
		div.LogSeparation = append(div.LogSeparation, math.Log(sep/d0))
	}

	if n := len(div.Times); n > 0 {
		div.Exponent = div.LogSeparation[n-1] / div.Times[n-1]
	}
	return div, nil
}

func separation(a, b *celestial.System) float64 {
	sum := 0.0
	for i := 0; i < a.Len(); i++ {
		d := r3.Sub(a.Position(celestial.ID(i)), b.Position(celestial.ID(i)))
		sum += r3.Norm2(d)
	}
	return math.Sqrt(sum)
}
