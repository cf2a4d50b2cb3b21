// Package schedule runs named systems in ordered phases, once per cycle.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/headless/pkg/domain"
)

// System is one unit of work run during a phase.
type System func(ctx context.Context) error

// Condition gates a whole phase for the current cycle.
type Condition func() bool

// Stats counts how often a phase ran or was skipped.
type Stats struct {
	Runs  uint64
	Skips uint64
}

type namedSystem struct {
	name string
	run  System
}

type phaseSet struct {
	phase      domain.Phase
	systems    []namedSystem
	conditions []Condition
	stats      Stats
}

// Schedule owns the phases and the systems registered in them.
// It is not safe for concurrent use; a single goroutine drives Tick.
type Schedule struct {
	phases  []*phaseSet
	index   map[domain.Phase]*phaseSet
	startup []namedSystem
	finally []func()
	logger  *slog.Logger
	cycles  uint64
}

// Option configures a Schedule.
type Option func(*Schedule)

// WithLogger sets the logger used for phase diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Schedule) {
		s.logger = logger
	}
}

// New creates a schedule that runs the given phases in order.
func New(phases []domain.Phase, opts ...Option) *Schedule {
	s := &Schedule{
		index:  make(map[domain.Phase]*phaseSet, len(phases)),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, p := range phases {
		set := &phaseSet{phase: p}
		s.phases = append(s.phases, set)
		s.index[p] = set
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddStartup queues a system that runs once, before the phases of the next cycle.
func (s *Schedule) AddStartup(name string, fn System) {
	s.startup = append(s.startup, namedSystem{name: name, run: fn})
}

// Add appends a system to a phase. Systems in a phase run in the order they were added.
func (s *Schedule) Add(phase domain.Phase, name string, fn System) error {
	set, ok := s.index[phase]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownPhase, phase)
	}
	set.systems = append(set.systems, namedSystem{name: name, run: fn})
	return nil
}

// RunIf adds a condition to a phase. The phase runs only when every condition holds.
func (s *Schedule) RunIf(phase domain.Phase, cond Condition) error {
	set, ok := s.index[phase]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownPhase, phase)
	}
	set.conditions = append(set.conditions, cond)
	return nil
}

// Finally registers a hook that runs at the end of every cycle.
func (s *Schedule) Finally(fn func()) {
	s.finally = append(s.finally, fn)
}

// Stats returns the counters of a phase.
func (s *Schedule) Stats(phase domain.Phase) Stats {
	if set, ok := s.index[phase]; ok {
		return set.stats
	}
	return Stats{}
}

// Cycles reports how many cycles have completed.
func (s *Schedule) Cycles() uint64 {
	return s.cycles
}

// Tick runs one cycle: pending startup systems, then every phase in order, then the finally hooks.
// A failing system does not stop the cycle; all failures are joined into the returned error.
func (s *Schedule) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var errs []error
	if len(s.startup) > 0 {
		pending := s.startup
		s.startup = nil
		for _, sys := range pending {
			if err := sys.run(ctx); err != nil {
				errs = append(errs, fmt.Errorf("startup/%s: %w", sys.name, err))
			}
		}
	}

	for _, set := range s.phases {
		if !set.ready() {
			set.stats.Skips++
			continue
		}
		set.stats.Runs++
		for _, sys := range set.systems {
			if err := sys.run(ctx); err != nil {
				s.logger.Debug("system failed", "phase", set.phase, "system", sys.name, "err", err)
				errs = append(errs, fmt.Errorf("%s/%s: %w", set.phase, sys.name, err))
			}
		}
	}

	for _, fn := range s.finally {
		fn()
	}
	s.cycles++
	return errors.Join(errs...)
}

func (p *phaseSet) ready() bool {
	for _, cond := range p.conditions {
		if !cond() {
			return false
		}
	}
	return true
}
