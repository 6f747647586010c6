package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/femsim/internal/dynamo"
)

// Simulator advances a system with a fixed timestep. It is not safe for
// concurrent use; the system it owns is mutated in place.
type Simulator struct {
	sys        dynamo.System
	integrator dynamo.Integrator
	dt         float64
	acc        *Accumulator
	logger     *slog.Logger

	time     float64
	steps    int
	validate bool
	maxNorm  float64

	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New(sys dynamo.System, integrator dynamo.Integrator, dt float64, logger *slog.Logger) (*Simulator, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w, got %g", ErrInvalidTimestep, dt)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		dt:         dt,
		acc:        NewAccumulator(dt),
		logger:     logger,
		validate:   true,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}, nil
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// SetValidateState toggles the NaN/Inf check after every step.
func (s *Simulator) SetValidateState(v bool) { s.validate = v }

func (s *Simulator) System() dynamo.System     { return s.sys }
func (s *Simulator) Accumulator() *Accumulator { return s.acc }
func (s *Simulator) Dt() float64               { return s.dt }
func (s *Simulator) Time() float64             { return s.time }
func (s *Simulator) Steps() int                { return s.steps }

// Step advances the system by one fixed timestep.
func (s *Simulator) Step() error {
	if err := s.integrator.Step(s.sys, s.dt); err != nil {
		return &dynamo.SimulationError{Step: s.steps, Time: s.time, Wrapped: err}
	}
	if hook, ok := s.sys.(dynamo.StepHook); ok {
		if err := hook.AfterStep(); err != nil {
			return &dynamo.SimulationError{Step: s.steps, Time: s.time, Wrapped: err}
		}
	}

	s.steps++
	s.time += s.dt

	x := s.sys.State()
	if s.validate && !x.IsValid() {
		s.logger.Warn("state diverged", "step", s.steps, "time", s.time)
		return &dynamo.SimulationError{Step: s.steps, Time: s.time, Wrapped: dynamo.ErrInvalidState}
	}
	if s.maxNorm > 0 {
		if n := x.Norm(); n > s.maxNorm {
			s.logger.Warn("state norm over limit", "step", s.steps, "norm", n, "limit", s.maxNorm)
			return &dynamo.SimulationError{Step: s.steps, Time: s.time, Wrapped: dynamo.ErrUnstable}
		}
	}

	for _, m := range s.metrics {
		m.Observe(x, s.time)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, s.time)
	}
	return nil
}

// Update feeds elapsed wall-clock seconds into the accumulator and runs the
// whole steps that are due. It returns the number of steps taken.
func (s *Simulator) Update(elapsed float64) (int, error) {
	n := s.acc.Advance(elapsed)
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			return i, err
		}
	}
	return n, nil
}

// Reset installs x, rewinds the clock to zero and drops any pending frame
// time. Metrics are reset; observers are left alone.
func (s *Simulator) Reset(x dynamo.State) error {
	if err := s.sys.SetState(x); err != nil {
		return err
	}
	if hook, ok := s.sys.(dynamo.StepHook); ok {
		if err := hook.AfterStep(); err != nil {
			return err
		}
	}
	s.time, s.steps = 0, 0
	s.acc.Reset()
	for _, m := range s.metrics {
		m.Reset()
	}
	return nil
}

// Run steps the system for cfg.Duration of simulated time from its current
// state, recording snapshots as it goes. On divergence the partial result is
// returned together with a *dynamo.SimulationError.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / s.dt))
	every := cfg.RecordEvery
	if every < 1 {
		every = 1
	}

	result := &Result{
		States:  make([]dynamo.State, 0, steps/every+2),
		Times:   make([]float64, 0, steps/every+2),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	prevValidate := s.validate
	s.validate = cfg.ValidateState
	s.maxNorm = cfg.MaxNorm
	defer func() { s.validate, s.maxNorm = prevValidate, 0 }()

	x := s.sys.State()
	for _, m := range s.metrics {
		m.Observe(x, s.time)
	}
	result.States = append(result.States, x)
	result.Times = append(result.Times, s.time)
	initialEnergy := s.computeEnergy()

	s.logger.Debug("run started", "steps", steps, "dt", s.dt, "dim", s.sys.StateDim())
	start := time.Now()

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		if runErr != nil {
			break
		}

		if err := s.Step(); err != nil {
			runErr = err
			break
		}
		result.StepsTaken++

		if result.StepsTaken%every == 0 || i == steps-1 {
			result.States = append(result.States, s.sys.State())
			result.Times = append(result.Times, s.time)
		}
	}
	result.Wall = time.Since(start)

	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(s.computeEnergy()-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished", "steps", result.StepsTaken, "wall", result.Wall, "err", runErr)
	return result, runErr
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 0) {
		return fmt.Errorf("%w, got %g", ErrInvalidDuration, cfg.Duration)
	}
	if cfg.MaxNorm < 0 || math.IsNaN(cfg.MaxNorm) {
		return fmt.Errorf("%w: max norm %g", ErrInvalidConfig, cfg.MaxNorm)
	}
	return nil
}

func (s *Simulator) computeEnergy() float64 {
	if ec, ok := s.sys.(dynamo.EnergyComputer); ok {
		return ec.Energy()
	}
	return 0
}
