package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/celestial"
)

// Sample is a snapshot of every body, indexed like the registry.
type Sample struct {
	Step       int
	Time       float64
	Positions  []r3.Vec
	Velocities []r3.Vec
	Spins      []float64
}

func Snapshot(sys *celestial.System) Sample {
	bodies := sys.Bodies()
	s := Sample{
		Step:       sys.Steps(),
		Time:       sys.Time(),
		Positions:  make([]r3.Vec, len(bodies)),
		Velocities: make([]r3.Vec, len(bodies)),
		Spins:      make([]float64, len(bodies)),
	}
	for i, b := range bodies {
		s.Positions[i] = b.Position
		s.Velocities[i] = b.Velocity()
		s.Spins[i] = b.Spin
	}
	return s
}

type Metric interface {
	Name() string
	Observe(sys *celestial.System)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(sys *celestial.System)
}

type Config struct {
	Dt             float64
	Steps          int
	SampleEvery    int
	ValidateState  bool
	StepsPerSecond float64
}

type Result struct {
	Names         []string
	Samples       []Sample
	Metrics       map[string]float64
	StepsTaken    int
	InitialEnergy float64
	FinalEnergy   float64
	EnergyDrift   float64
	Errors        []error
}

// SimulationError wraps an error with the step at which it occurred.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
