package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/celestial"
)

// OrbitDeviation tracks how far free bodies wander from the distance to
// their center seen at the first observation. Value is the largest relative
// deviation of any body.
type OrbitDeviation struct {
	name    string
	centers map[celestial.ID]celestial.ID
	radii   map[celestial.ID]float64
	maxDev  float64
}

func NewOrbitDeviation() *OrbitDeviation {
	d := &OrbitDeviation{name: "orbit_deviation"}
	d.Reset()
	return d
}

func (d *OrbitDeviation) Name() string { return d.name }

func (d *OrbitDeviation) Observe(sys *celestial.System) {
	if len(d.centers) == 0 {
		for i := 0; i < sys.Len(); i++ {
			id := celestial.ID(i)
			if sys.Body(id).Mode() != celestial.ModeFree {
				continue
			}
			c, ok := sys.Center(id)
			if !ok {
				continue
			}
			r := r3.Norm(r3.Sub(sys.Position(id), sys.Position(c)))
			if r == 0 {
				continue
			}
			d.centers[id] = c
			d.radii[id] = r
		}
		return
	}

	for id, c := range d.centers {
		r := r3.Norm(r3.Sub(sys.Position(id), sys.Position(c)))
		d.maxDev = math.Max(d.maxDev, math.Abs(r-d.radii[id])/d.radii[id])
	}
}

func (d *OrbitDeviation) Value() float64 { return d.maxDev }

func (d *OrbitDeviation) Reset() {
	d.centers = make(map[celestial.ID]celestial.ID)
	d.radii = make(map[celestial.ID]float64)
	d.maxDev = 0
}

// Deviation returns the relative radial deviation of one body, if tracked.
func (d *OrbitDeviation) Deviation(sys *celestial.System, id celestial.ID) (float64, bool) {
	c, ok := d.centers[id]
	if !ok {
		return 0, false
	}
	r := r3.Norm(r3.Sub(sys.Position(id), sys.Position(c)))
	return math.Abs(r-d.radii[id]) / d.radii[id], true
}
