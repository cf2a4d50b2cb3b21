package schedule_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/headless/pkg/domain"
	"github.com/aretw0/headless/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(trace *[]string, name string) schedule.System {
	return func(ctx context.Context) error {
		*trace = append(*trace, name)
		return nil
	}
}

func TestTick_RunsPhasesInOrder(t *testing.T) {
	var trace []string
	s := schedule.New(domain.Phases)

	require.NoError(t, s.Add(domain.PhasePostCommands, "render", record(&trace, "render")))
	require.NoError(t, s.Add(domain.PhaseInput, "drain", record(&trace, "drain")))
	require.NoError(t, s.Add(domain.PhaseCommands, "dispatch", record(&trace, "dispatch")))
	require.NoError(t, s.Add(domain.PhaseInput, "route", record(&trace, "route")))
	s.AddStartup("register", record(&trace, "register"))
	s.Finally(func() { trace = append(trace, "finally") })

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []string{"register", "drain", "route", "dispatch", "render", "finally"}, trace)

	trace = nil
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []string{"drain", "route", "dispatch", "render", "finally"}, trace, "startup runs once")
	assert.Equal(t, uint64(2), s.Cycles())
}

func TestTick_RunIfSkipsPhase(t *testing.T) {
	var trace []string
	ready := false
	s := schedule.New(domain.Phases)
	require.NoError(t, s.Add(domain.PhaseCommands, "dispatch", record(&trace, "dispatch")))
	require.NoError(t, s.RunIf(domain.PhaseCommands, func() bool { return ready }))

	require.NoError(t, s.Tick(context.Background()))
	assert.Empty(t, trace)
	assert.Equal(t, schedule.Stats{Runs: 0, Skips: 1}, s.Stats(domain.PhaseCommands))

	ready = true
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []string{"dispatch"}, trace)
	assert.Equal(t, schedule.Stats{Runs: 1, Skips: 1}, s.Stats(domain.PhaseCommands))
}

func TestTick_JoinsSystemErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false

	s := schedule.New(domain.Phases)
	require.NoError(t, s.Add(domain.PhaseInput, "a", func(ctx context.Context) error { return errA }))
	require.NoError(t, s.Add(domain.PhaseInput, "b", func(ctx context.Context) error { return errB }))
	require.NoError(t, s.Add(domain.PhasePostCommands, "c", func(ctx context.Context) error { ran = true; return nil }))

	err := s.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Contains(t, err.Error(), "input/a")
	assert.True(t, ran, "later systems still run")
}

func TestAdd_UnknownPhase(t *testing.T) {
	s := schedule.New(domain.Phases)
	err := s.Add(domain.Phase("nope"), "x", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, domain.ErrUnknownPhase)
	assert.ErrorIs(t, s.RunIf(domain.Phase("nope"), func() bool { return true }), domain.ErrUnknownPhase)
}

func TestTick_ContextCanceled(t *testing.T) {
	s := schedule.New(domain.Phases)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Tick(ctx), context.Canceled)
	assert.Equal(t, uint64(0), s.Cycles())
}
