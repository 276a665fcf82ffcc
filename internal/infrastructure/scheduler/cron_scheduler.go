package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"github.com/riskibarqy/match-reconciler/internal/usecase"
	"github.com/robfig/cron/v3"
)

const minInterval = time.Second

// TickRunner executes one scheduled fixture tick.
type TickRunner interface {
	RunTick(ctx context.Context, input usecase.FixtureTickInput) (usecase.FixtureTickResult, error)
}

type scheduledFixture struct {
	entryID  cron.EntryID
	phase    string
	interval time.Duration
	payload  usecase.FixtureTickInput
}

// CronScheduler is an in-process job queue. Each polled fixture owns one "@every" entry; a
// new phase or cadence replaces the entry, and Cancel removes it.
type CronScheduler struct {
	cron   *cron.Cron
	logger *logging.Logger

	mu       sync.Mutex
	runner   TickRunner
	fixtures map[int64]*scheduledFixture
	baseCtx  context.Context
	timeout  time.Duration
}

func NewCronScheduler(logger *logging.Logger, tickTimeout time.Duration) *CronScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if tickTimeout <= 0 {
		tickTimeout = 30 * time.Second
	}
	cronLog := cronLogger{logger: logger.Named("cron")}
	return &CronScheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger:   logger,
		fixtures: make(map[int64]*scheduledFixture),
		baseCtx:  context.Background(),
		timeout:  tickTimeout,
	}
}

// Bind sets the runner after construction; the job service depends on the queue, so the
// scheduler cannot receive it up front.
func (s *CronScheduler) Bind(runner TickRunner) {
	s.mu.Lock()
	s.runner = runner
	s.mu.Unlock()
}

func (s *CronScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = context.WithoutCancel(ctx)
	s.mu.Unlock()
	s.cron.Start()
}

// Stop waits for running ticks to finish.
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *CronScheduler) Enqueue(_ context.Context, _ string, payload any, delay time.Duration, deduplicationID string) error {
	input, ok := payload.(usecase.FixtureTickInput)
	if !ok {
		return fmt.Errorf("cron scheduler: unsupported payload %T", payload)
	}
	if input.FixtureExternalID <= 0 {
		return fmt.Errorf("cron scheduler: fixture id must be > 0")
	}
	if deduplicationID != "" {
		input.DispatchID = deduplicationID
	}

	if delay <= 0 {
		go s.run(input)
		return nil
	}
	interval := max(delay, minInterval)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.fixtures[input.FixtureExternalID]
	if exists && current.phase == input.Phase && current.interval == interval {
		current.payload = input
		return nil
	}
	if exists {
		s.cron.Remove(current.entryID)
	}

	fixtureID := input.FixtureExternalID
	entryID := s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		s.mu.Lock()
		entry, ok := s.fixtures[fixtureID]
		var next usecase.FixtureTickInput
		if ok {
			next = entry.payload
		}
		s.mu.Unlock()
		if ok {
			s.run(next)
		}
	}))
	s.fixtures[fixtureID] = &scheduledFixture{
		entryID:  entryID,
		phase:    input.Phase,
		interval: interval,
		payload:  input,
	}
	s.logger.Debug("fixture tick scheduled",
		"fixture_id", fixtureID,
		"phase", input.Phase,
		"interval", interval.String(),
	)
	return nil
}

func (s *CronScheduler) Cancel(_ context.Context, fixtureExternalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.fixtures[fixtureExternalID]
	if !ok {
		return nil
	}
	s.cron.Remove(entry.entryID)
	delete(s.fixtures, fixtureExternalID)
	return nil
}

// Scheduled lists the phase of every fixture that currently has an entry.
func (s *CronScheduler) Scheduled() map[int64]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]string, len(s.fixtures))
	for id, entry := range s.fixtures {
		out[id] = entry.phase
	}
	return out
}

func (s *CronScheduler) run(input usecase.FixtureTickInput) {
	s.mu.Lock()
	runner := s.runner
	base := s.baseCtx
	s.mu.Unlock()
	if runner == nil {
		s.logger.Warn("cron tick skipped, no runner bound", "fixture_id", input.FixtureExternalID)
		return
	}

	ctx, cancel := context.WithTimeout(base, s.timeout)
	defer cancel()

	if _, err := runner.RunTick(ctx, input); err != nil {
		s.logger.WarnContext(ctx, "cron fixture tick failed",
			"fixture_id", input.FixtureExternalID,
			"phase", input.Phase,
			"error", err,
		)
	}
}

type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
