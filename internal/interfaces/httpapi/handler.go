package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/match-reconciler/internal/domain/jobscheduler"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchphase"
	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"github.com/riskibarqy/match-reconciler/internal/usecase"
)

// FixtureJobs is the job surface the handlers drive; *usecase.FixtureJobService implements it.
type FixtureJobs interface {
	Start(ctx context.Context, fixtureExternalID int64, phase matchphase.Phase) error
	RunTick(ctx context.Context, input usecase.FixtureTickInput) (usecase.FixtureTickResult, error)
	RunBatch(ctx context.Context, inputs []usecase.FixtureTickInput) ([]usecase.FixtureTickResult, error)
	ListDispatches(ctx context.Context, fixtureExternalID int64, limit int) ([]jobscheduler.DispatchEvent, error)
}

type Handler struct {
	jobs      FixtureJobs
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(jobs FixtureJobs, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		jobs:      jobs,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type fixtureStartRequest struct {
	FixtureExternalID int64  `json:"fixture_id" validate:"required,gt=0"`
	Phase             string `json:"phase" validate:"omitempty,oneof=pre_match live post_match"`
}

type fixtureBatchRequest struct {
	Fixtures []usecase.FixtureTickInput `json:"fixtures" validate:"required,min=1,max=200,dive"`
}

type jobDispatchDTO struct {
	DispatchID   string         `json:"dispatch_id"`
	JobName      string         `json:"job_name"`
	JobPath      string         `json:"job_path"`
	FixtureID    int64          `json:"fixture_id"`
	Phase        string         `json:"phase,omitempty"`
	Status       string         `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
	TraceID      string         `json:"trace_id,omitempty"`
	SpanID       string         `json:"span_id,omitempty"`
}

func jobDispatchToDTO(event jobscheduler.DispatchEvent) jobDispatchDTO {
	return jobDispatchDTO{
		DispatchID:   event.DispatchID,
		JobName:      event.JobName,
		JobPath:      event.JobPath,
		FixtureID:    event.FixtureExternalID,
		Phase:        event.Phase,
		Status:       string(event.Status),
		Payload:      event.Payload,
		ErrorMessage: event.ErrorMessage,
		OccurredAt:   event.OccurredAt.UTC(),
		TraceID:      event.TraceID,
		SpanID:       event.SpanID,
	}
}
