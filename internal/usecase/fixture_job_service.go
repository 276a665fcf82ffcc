package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/match-reconciler/internal/domain/jobscheduler"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchphase"
	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"go.opentelemetry.io/otel/trace"
)

const (
	FixtureTickJobName = "fixture-tick"
	FixtureTickJobPath = "/v1/internal/jobs/fixture-tick"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

// JobCanceler is implemented by queues that keep per-fixture state, such as the cron scheduler.
type JobCanceler interface {
	Cancel(ctx context.Context, fixtureExternalID int64) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type FixtureReconciler interface {
	Reconcile(ctx context.Context, fixtureExternalID int64, current matchphase.Phase) (ReconcileResult, error)
}

type FixtureJobConfig struct {
	PreMatchInterval  time.Duration
	LiveInterval      time.Duration
	PostMatchInterval time.Duration
	MaxWorkers        int
}

// FixtureTickInput is the payload of one scheduled tick.
type FixtureTickInput struct {
	FixtureExternalID int64  `json:"fixture_id" validate:"required,gt=0"`
	Phase             string `json:"phase" validate:"omitempty,oneof=pre_match live post_match"`
	DispatchID        string `json:"dispatch_id,omitempty"`
}

type FixtureTickResult struct {
	FixtureExternalID int64         `json:"fixture_id"`
	Phase             string        `json:"phase"`
	NextPhase         string        `json:"next_phase,omitempty"`
	Action            string        `json:"action,omitempty"`
	StatusShort       string        `json:"status_short,omitempty"`
	NextDelaySeconds  int           `json:"next_delay_seconds,omitempty"`
	Inconclusive      bool          `json:"inconclusive,omitempty"`
	Committed         bool          `json:"committed"`
	Players           ChangeSummary `json:"players"`
	Events            ChangeSummary `json:"events"`
	Stats             ChangeSummary `json:"stats"`
	Anomalies         int           `json:"anomalies"`
	AnomalyCodes      []string      `json:"anomaly_codes,omitempty"`
	Error             string        `json:"error,omitempty"`
}

// FixtureJobService turns every tick's phase decision into the next polling job: same cadence,
// switch cadence, or stop.
type FixtureJobService struct {
	reconciler   FixtureReconciler
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	cfg          FixtureJobConfig
	validator    *validator.Validate
	logger       *logging.Logger
	now          func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewFixtureJobService(
	reconciler FixtureReconciler,
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	cfg FixtureJobConfig,
	logger *logging.Logger,
) *FixtureJobService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PreMatchInterval <= 0 {
		cfg.PreMatchInterval = 60 * time.Second
	}
	if cfg.LiveInterval <= 0 {
		cfg.LiveInterval = 17 * time.Second
	}
	if cfg.PostMatchInterval <= 0 {
		cfg.PostMatchInterval = 60 * time.Second
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}

	return &FixtureJobService{
		reconciler:   reconciler,
		queue:        queue,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		validator:    validator.New(),
		logger:       logger,
		now:          time.Now,
	}
}

// Start queues the first tick of a fixture immediately.
func (s *FixtureJobService) Start(ctx context.Context, fixtureExternalID int64, phase matchphase.Phase) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureJobService.Start")
	defer span.End()

	if fixtureExternalID <= 0 {
		return fmt.Errorf("%w: fixture id must be > 0", ErrInvalidInput)
	}
	if phase == "" {
		phase = matchphase.PreMatch
	}
	return s.enqueueTick(ctx, fixtureExternalID, phase, 0, s.now().UTC())
}

// RunTick reconciles one fixture and schedules whatever the decision asks for next.
func (s *FixtureJobService) RunTick(ctx context.Context, input FixtureTickInput) (FixtureTickResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureJobService.RunTick")
	defer span.End()

	if err := s.validator.StructCtx(ctx, input); err != nil {
		return FixtureTickResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	phase := matchphase.PreMatch
	if strings.TrimSpace(input.Phase) != "" {
		parsed, err := matchphase.ParsePhase(input.Phase)
		if err != nil {
			return FixtureTickResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		phase = parsed
	}

	now := s.now().UTC()
	out := FixtureTickResult{
		FixtureExternalID: input.FixtureExternalID,
		Phase:             string(phase),
	}

	reconciled, err := s.reconciler.Reconcile(ctx, input.FixtureExternalID, phase)
	if err != nil {
		s.recordTickEvent(ctx, input, phase, jobscheduler.StatusFailed, err.Error(), now)
		if !errors.Is(err, ErrInvalidInput) {
			if retryErr := s.enqueueTick(ctx, input.FixtureExternalID, phase, s.interval(phase), now); retryErr != nil {
				s.logger.WarnContext(ctx, "requeue failed tick failed",
					"fixture_id", input.FixtureExternalID,
					"phase", string(phase),
					"error", retryErr,
				)
			}
		}
		return FixtureTickResult{}, err
	}
	s.recordTickEvent(ctx, input, phase, jobscheduler.StatusCompleted, "", now)

	decision := reconciled.Decision
	action := decision.Action(phase)
	out.Action = string(action)
	out.StatusShort = decision.StatusShort
	out.Inconclusive = decision.Inconclusive
	out.Committed = reconciled.Committed
	out.Players = reconciled.Players
	out.Events = reconciled.Events
	out.Stats = reconciled.Stats
	out.Anomalies = len(reconciled.Anomalies)
	for _, code := range reconciled.Anomalies.Codes() {
		out.AnomalyCodes = append(out.AnomalyCodes, string(code))
	}

	if action == matchphase.ActionStop {
		if err := s.stop(ctx, input, phase, now); err != nil {
			return FixtureTickResult{}, err
		}
		return out, nil
	}

	next := decision.NextPhase()
	delay := s.interval(next)
	if err := s.enqueueTick(ctx, input.FixtureExternalID, next, delay, now); err != nil {
		return FixtureTickResult{}, err
	}
	out.NextPhase = string(next)
	out.NextDelaySeconds = int(delay / time.Second)
	return out, nil
}

// RunBatch runs ticks for many fixtures concurrently. Each fixture is independent, so a failed
// tick is reported in its row and does not stop the others.
func (s *FixtureJobService) RunBatch(ctx context.Context, inputs []FixtureTickInput) ([]FixtureTickResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureJobService.RunBatch")
	defer span.End()

	if len(inputs) == 0 {
		return []FixtureTickResult{}, nil
	}

	workerCount := min(s.cfg.MaxWorkers, len(inputs))
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan FixtureTickResult, len(inputs))
	var workers sync.WaitGroup
	for _, input := range inputs {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			row, err := s.RunTick(ctx, input)
			if err != nil {
				row = FixtureTickResult{
					FixtureExternalID: input.FixtureExternalID,
					Phase:             input.Phase,
					Error:             err.Error(),
				}
			}
			results <- row
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit fixture tick to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	out := make([]FixtureTickResult, 0, len(inputs))
	for row := range results {
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FixtureExternalID < out[j].FixtureExternalID
	})
	return out, nil
}

func (s *FixtureJobService) ListDispatches(ctx context.Context, fixtureExternalID int64, limit int) ([]jobscheduler.DispatchEvent, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureJobService.ListDispatches")
	defer span.End()

	if fixtureExternalID <= 0 {
		return nil, fmt.Errorf("%w: fixture id must be > 0", ErrInvalidInput)
	}
	if s.dispatchRepo == nil {
		return []jobscheduler.DispatchEvent{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items, err := s.dispatchRepo.ListByFixture(ctx, fixtureExternalID, limit)
	if err != nil {
		return nil, fmt.Errorf("list dispatch events fixture=%d: %w", fixtureExternalID, err)
	}
	return items, nil
}

func (s *FixtureJobService) interval(phase matchphase.Phase) time.Duration {
	switch phase {
	case matchphase.Live:
		return s.cfg.LiveInterval
	case matchphase.PostMatch:
		return s.cfg.PostMatchInterval
	default:
		return s.cfg.PreMatchInterval
	}
}

func (s *FixtureJobService) stop(ctx context.Context, input FixtureTickInput, phase matchphase.Phase, now time.Time) error {
	if canceler, ok := s.queue.(JobCanceler); ok {
		if err := canceler.Cancel(ctx, input.FixtureExternalID); err != nil {
			return fmt.Errorf("cancel fixture jobs fixture=%d: %w", input.FixtureExternalID, err)
		}
	}
	s.recordTickEvent(ctx, input, phase, jobscheduler.StatusStopped, "", now)
	s.logger.InfoContext(ctx, "fixture polling stopped",
		"fixture_id", input.FixtureExternalID,
		"phase", string(phase),
	)
	return nil
}

func (s *FixtureJobService) enqueueTick(ctx context.Context, fixtureExternalID int64, phase matchphase.Phase, delay time.Duration, now time.Time) error {
	fixtureKey := strconv.FormatInt(fixtureExternalID, 10)
	dedupID := dedupKey(FixtureTickJobName+"-"+string(phase), fixtureKey, now.Add(delay), s.interval(phase))
	payload := FixtureTickInput{
		FixtureExternalID: fixtureExternalID,
		Phase:             string(phase),
		DispatchID:        dedupID,
	}
	event := jobscheduler.DispatchEvent{
		DispatchID:        dedupID,
		JobName:           FixtureTickJobName,
		JobPath:           FixtureTickJobPath,
		FixtureExternalID: fixtureExternalID,
		Phase:             string(phase),
		Status:            jobscheduler.StatusSent,
		Payload:           tickPayloadMap(payload),
		OccurredAt:        now,
	}

	if err := s.queue.Enqueue(ctx, FixtureTickJobPath, payload, delay, dedupID); err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
		s.recordDispatchEvent(ctx, event)
		return fmt.Errorf("enqueue %s fixture=%d phase=%s: %w", FixtureTickJobName, fixtureExternalID, phase, err)
	}
	s.recordDispatchEvent(ctx, event)
	return nil
}

func (s *FixtureJobService) recordTickEvent(ctx context.Context, input FixtureTickInput, phase matchphase.Phase, status jobscheduler.DispatchStatus, message string, now time.Time) {
	input.Phase = string(phase)
	s.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
		DispatchID:        input.DispatchID,
		JobName:           FixtureTickJobName,
		JobPath:           FixtureTickJobPath,
		FixtureExternalID: input.FixtureExternalID,
		Phase:             string(phase),
		Status:            status,
		Payload:           tickPayloadMap(input),
		ErrorMessage:      message,
		OccurredAt:        now,
	})
}

func tickPayloadMap(input FixtureTickInput) map[string]any {
	return map[string]any{
		"fixture_id":  input.FixtureExternalID,
		"phase":       input.Phase,
		"dispatch_id": input.DispatchID,
	}
}

func dedupKey(prefix, subjectID string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	prefix = sanitizeDedupSegment(prefix)
	subjectID = sanitizeDedupSegment(subjectID)
	return prefix + "-" + subjectID + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func (s *FixtureJobService) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if s.dispatchRepo == nil || strings.TrimSpace(event.DispatchID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	spanContext := trace.SpanFromContext(ctx).SpanContext()
	if !spanContext.IsValid() {
		return "", ""
	}
	return spanContext.TraceID().String(), spanContext.SpanID().String()
}
