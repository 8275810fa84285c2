package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/time/rate"

	"github.com/san-kum/orrery/internal/celestial"
)

// Runner is the host loop around a prepared registry.
type Runner struct {
	sys       *celestial.System
	metrics   []Metric
	observers []Observer
	logger    log.Logger
}

type Option func(*Runner)

func WithLogger(l log.Logger) Option {
	return func(r *Runner) { r.logger = log.With(l, "subsys", "sim") }
}

func New(sys *celestial.System, opts ...Option) *Runner {
	r := &Runner{
		sys:       sys,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) System() *celestial.System { return r.sys }
func (r *Runner) AddMetric(m Metric)        { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)    { r.observers = append(r.observers, o) }

// Run advances the registry cfg.Steps times. A divergence stops the run and
// is returned as a *SimulationError together with the partial result.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	every := cfg.SampleEvery
	if every < 1 {
		every = 1
	}

	result := &Result{
		Names:   r.sys.Names(),
		Samples: make([]Sample, 0, cfg.Steps/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	limiter := pacer(cfg.StepsPerSecond)
	result.InitialEnergy = r.sys.Energy()
	result.Samples = append(result.Samples, Snapshot(r.sys))

	level.Info(r.logger).Log("msg", "run started", "bodies", r.sys.Len(), "steps", cfg.Steps, "dt", cfg.Dt)

	var runErr error
	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr == nil && limiter != nil {
			runErr = limiter.Wait(ctx)
		}
		if runErr != nil {
			level.Debug(r.logger).Log("msg", "run cancelled", "step", r.sys.Steps(), "err", runErr)
			break
		}

		if err := r.sys.Step(cfg.Dt); err != nil {
			runErr = &SimulationError{Step: r.sys.Steps(), Time: r.sys.Time(), Wrapped: err}
			result.Errors = append(result.Errors, runErr)
			break
		}
		result.StepsTaken++

		for _, m := range r.metrics {
			m.Observe(r.sys)
		}
		for _, obs := range r.observers {
			obs.OnStep(r.sys)
		}

		if cfg.ValidateState && !r.sys.Valid() {
			runErr = &SimulationError{Step: r.sys.Steps(), Time: r.sys.Time(), Wrapped: celestial.ErrDiverged}
			result.Errors = append(result.Errors, runErr)
			level.Error(r.logger).Log("msg", "state diverged", "step", r.sys.Steps(), "t", r.sys.Time())
			break
		}

		if result.StepsTaken%every == 0 {
			result.Samples = append(result.Samples, Snapshot(r.sys))
		}
	}

	if last := result.Samples[len(result.Samples)-1]; last.Step != r.sys.Steps() {
		result.Samples = append(result.Samples, Snapshot(r.sys))
	}

	result.FinalEnergy = r.sys.Energy()
	if result.InitialEnergy != 0 {
		result.EnergyDrift = math.Abs(result.FinalEnergy-result.InitialEnergy) / math.Abs(result.InitialEnergy)
	}
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	level.Info(r.logger).Log("msg", "run finished", "steps", result.StepsTaken, "t", r.sys.Time(), "energy_drift", result.EnergyDrift)
	return result, runErr
}

// RunWithCallback steps until cfg.Steps is reached or callback returns false.
// The callback sees the registry after each step.
func (r *Runner) RunWithCallback(ctx context.Context, cfg Config, callback func(*celestial.System) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	limiter := pacer(cfg.StepsPerSecond)

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}

		if err := r.sys.Step(cfg.Dt); err != nil {
			return &SimulationError{Step: r.sys.Steps(), Time: r.sys.Time(), Wrapped: err}
		}
		for _, obs := range r.observers {
			obs.OnStep(r.sys)
		}
		if cfg.ValidateState && !r.sys.Valid() {
			return &SimulationError{Step: r.sys.Steps(), Time: r.sys.Time(), Wrapped: celestial.ErrDiverged}
		}

		if !callback(r.sys) {
			return nil
		}
	}

	return nil
}

func validateConfig(cfg Config) error {
	if cfg.Dt < 0 || math.IsNaN(cfg.Dt) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("dt must be finite and non-negative, got %f", cfg.Dt)
	}
	if cfg.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", cfg.Steps)
	}
	if cfg.StepsPerSecond < 0 {
		return fmt.Errorf("steps per second must be non-negative, got %f", cfg.StepsPerSecond)
	}
	return nil
}

func pacer(stepsPerSecond float64) *rate.Limiter {
	if stepsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(stepsPerSecond), 1)
}
