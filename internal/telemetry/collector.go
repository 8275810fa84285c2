// Package telemetry exports run progress as Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/celestial"
)

const namespace = "orrery"

// Collector is a sim.Observer that records every step into its own registry.
type Collector struct {
	registry *prometheus.Registry

	steps        prometheus.Counter
	stepDuration prometheus.Histogram
	simTime      prometheus.Gauge
	energy       prometheus.Gauge
	bodies       *prometheus.GaugeVec
	speed        *prometheus.GaugeVec

	energyEvery int
	last        time.Time
	now         func() time.Time
}

type Option func(*Collector)

// WithEnergyEvery samples the O(n²) energy only every n steps.
func WithEnergyEvery(n int) Option {
	return func(c *Collector) {
		if n < 1 {
			n = 1
		}
		c.energyEvery = n
	}
}

func NewCollector(scene string, opts ...Option) *Collector {
	labels := prometheus.Labels{"scene": scene}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "steps_total",
			Help:        "Total number of integration steps",
			ConstLabels: labels,
		}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "step_duration_seconds",
			Help:        "Wall time between consecutive steps",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "sim_time",
			Help:        "Elapsed simulated time",
			ConstLabels: labels,
		}),
		energy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "energy",
			Help:        "Total kinetic plus potential energy",
			ConstLabels: labels,
		}),
		bodies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "bodies",
			Help:        "Number of bodies by dynamics mode",
			ConstLabels: labels,
		}, []string{"mode"}),
		speed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "body_speed",
			Help:        "Speed of each free body",
			ConstLabels: labels,
		}, []string{"body"}),
		energyEvery: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.registry.MustRegister(c.steps, c.stepDuration, c.simTime, c.energy, c.bodies, c.speed)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Attach records the registry's composition and starts the step clock.
func (c *Collector) Attach(sys *celestial.System) {
	counts := map[celestial.Mode]int{}
	for _, b := range sys.Bodies() {
		counts[b.Mode()]++
	}
	for _, m := range []celestial.Mode{celestial.ModeFree, celestial.ModeFixed, celestial.ModeOrbit} {
		c.bodies.WithLabelValues(m.String()).Set(float64(counts[m]))
	}
	c.energy.Set(sys.Energy())
	c.last = c.now()
}

func (c *Collector) OnStep(sys *celestial.System) {
	now := c.now()
	if !c.last.IsZero() {
		c.stepDuration.Observe(now.Sub(c.last).Seconds())
	}
	c.last = now

	c.steps.Inc()
	c.simTime.Set(sys.Time())

	if sys.Steps()%c.energyEvery != 0 {
		return
	}
	c.energy.Set(sys.Energy())
	for _, b := range sys.Bodies() {
		if b.Mode() == celestial.ModeFree {
			c.speed.WithLabelValues(b.Name).Set(r3.Norm(b.Velocity()))
		}
	}
}

// WriteTextfile writes the current values in the node-exporter textfile
// format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
