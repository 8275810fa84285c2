package analysis

import (
	"math"
	"time"

	"github.com/san-kum/orrery/internal/celestial"
)

// SweepPoint is the outcome of one step size in a sweep.
type SweepPoint struct {
	Dt          float64
	Steps       int
	EnergyDrift float64
	Elapsed     time.Duration
	Diverged    bool
}

// DriftSweep runs a fresh scene for the same simulated duration at every
// step size and records the final relative energy drift.
func DriftSweep(build func() (*celestial.System, error), dts []float64, duration float64) ([]SweepPoint, error) {
	results := make([]SweepPoint, 0, len(dts))

	for _, dt := range dts {
		if dt <= 0 {
			continue
		}
		sys, err := build()
		if err != nil {
			return nil, err
		}

		p := SweepPoint{Dt: dt, Steps: int(math.Round(duration / dt))}
		e0 := sys.Energy()
		start := time.Now()
		for i := 0; i < p.Steps; i++ {
			if err := sys.Step(dt); err != nil {
				return nil, err
			}
		}
		p.Elapsed = time.Since(start)

		if !sys.Valid() {
			p.Diverged = true
		} else if e0 != 0 {
			p.EnergyDrift = math.Abs(sys.Energy()-e0) / math.Abs(e0)
		}
		results = append(results, p)
	}

	return results, nil
}
