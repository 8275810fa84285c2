package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/celestial"
)

// MomentumDrift is the largest relative change of the free bodies' total
// angular momentum.
type MomentumDrift struct {
	name     string
	initial  r3.Vec
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string {
	return m.name
}

func (m *MomentumDrift) Observe(sys *celestial.System) {
	l := sys.AngularMomentum()
	if m.samples == 0 {
		m.initial = l
	}
	m.samples++

	if n := r3.Norm(m.initial); n != 0 {
		m.maxDrift = math.Max(m.maxDrift, r3.Norm(r3.Sub(l, m.initial))/n)
	}
}

func (m *MomentumDrift) Value() float64 {
	return m.maxDrift
}

func (m *MomentumDrift) Reset() {
	m.initial = r3.Vec{}
	m.maxDrift = 0
	m.samples = 0
}
