package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"github.com/riskibarqy/match-reconciler/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelRunner struct {
	ticks chan usecase.FixtureTickInput
}

func (r channelRunner) RunTick(_ context.Context, input usecase.FixtureTickInput) (usecase.FixtureTickResult, error) {
	r.ticks <- input
	return usecase.FixtureTickResult{FixtureExternalID: input.FixtureExternalID}, nil
}

func TestCronScheduler_ImmediateTickRunsOnce(t *testing.T) {
	t.Parallel()

	runner := channelRunner{ticks: make(chan usecase.FixtureTickInput, 1)}
	s := NewCronScheduler(logging.NewNop(), time.Second)
	s.Bind(runner)

	input := usecase.FixtureTickInput{FixtureExternalID: 9001, Phase: "pre_match"}
	require.NoError(t, s.Enqueue(context.Background(), usecase.FixtureTickJobPath, input, 0, "dedup-1"))

	select {
	case got := <-runner.ticks:
		assert.Equal(t, int64(9001), got.FixtureExternalID)
		assert.Equal(t, "dedup-1", got.DispatchID)
	case <-time.After(2 * time.Second):
		t.Fatalf("immediate tick did not run")
	}
	assert.Empty(t, s.Scheduled(), "an immediate tick must not leave a recurring entry")
}

func TestCronScheduler_ReplacesEntryOnPhaseChange(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler(logging.NewNop(), time.Second)
	ctx := context.Background()

	pre := usecase.FixtureTickInput{FixtureExternalID: 9001, Phase: "pre_match"}
	require.NoError(t, s.Enqueue(ctx, usecase.FixtureTickJobPath, pre, time.Minute, "d-1"))
	first := s.fixtures[9001].entryID

	require.NoError(t, s.Enqueue(ctx, usecase.FixtureTickJobPath, pre, time.Minute, "d-2"))
	assert.Equal(t, first, s.fixtures[9001].entryID, "same cadence must keep the entry")
	assert.Equal(t, "d-2", s.fixtures[9001].payload.DispatchID, "next firing must carry the latest dispatch id")
	assert.Len(t, s.cron.Entries(), 1)

	live := usecase.FixtureTickInput{FixtureExternalID: 9001, Phase: "live"}
	require.NoError(t, s.Enqueue(ctx, usecase.FixtureTickJobPath, live, 17*time.Second, "d-3"))
	assert.NotEqual(t, first, s.fixtures[9001].entryID)
	assert.Len(t, s.cron.Entries(), 1)
	assert.Equal(t, map[int64]string{9001: "live"}, s.Scheduled())

	require.NoError(t, s.Cancel(ctx, 9001))
	assert.Empty(t, s.cron.Entries())
	assert.Empty(t, s.Scheduled())
	require.NoError(t, s.Cancel(ctx, 9001), "cancel must be idempotent")
}

func TestCronScheduler_RejectsForeignPayload(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler(logging.NewNop(), time.Second)
	assert.Error(t, s.Enqueue(context.Background(), "/x", map[string]any{"fixture_id": 1}, time.Minute, ""))
	assert.Error(t, s.Enqueue(context.Background(), "/x", usecase.FixtureTickInput{}, time.Minute, ""))
}
