package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/match-reconciler/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/match-reconciler/internal/platform/querybuilder"
)

const tableJobDispatches = "job_dispatches"

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}
	jobPath := strings.TrimSpace(event.JobPath)
	if jobPath == "" {
		jobPath = "/unknown"
	}
	phase := strings.TrimSpace(event.Phase)
	if phase == "" {
		phase = "unknown"
	}

	occurredAt := event.OccurredAt.UTC()
	if event.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := marshalPayload(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal job dispatch payload: %w", err)
	}

	model := jobDispatchInsertModel{
		DispatchID:        dispatchID,
		JobName:           jobName,
		JobPath:           jobPath,
		FixtureExternalID: event.FixtureExternalID,
		Phase:             phase,
		Payload:           payloadJSON,
		Status:            string(event.Status),
		LastError:         optionalString(event.ErrorMessage),
	}

	switch event.Status {
	case jobscheduler.StatusSent:
		model.SentAt = &occurredAt
		model.SentTraceID = optionalString(event.TraceID)
		model.SentSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case jobscheduler.StatusCompleted:
		model.CompletedAt = &occurredAt
		model.CompletedTraceID = optionalString(event.TraceID)
		model.CompletedSpanID = optionalString(event.SpanID)
		model.LastError = nil
	case jobscheduler.StatusFailed:
		model.FailedAt = &occurredAt
		model.FailedTraceID = optionalString(event.TraceID)
		model.FailedSpanID = optionalString(event.SpanID)
	case jobscheduler.StatusStopped:
		model.StoppedAt = &occurredAt
		model.LastError = nil
	}

	query, args, err := qb.InsertModel(tableJobDispatches, model, `ON CONFLICT (dispatch_id)
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    fixture_external_id = EXCLUDED.fixture_external_id,
    phase = EXCLUDED.phase,
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    sent_at = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_at
        ELSE COALESCE(job_dispatches.sent_at, EXCLUDED.sent_at)
    END,
    completed_at = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_at
        ELSE job_dispatches.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE job_dispatches.failed_at
    END,
    stopped_at = CASE
        WHEN EXCLUDED.status = 'stopped' THEN EXCLUDED.stopped_at
        ELSE job_dispatches.stopped_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        ELSE NULL
    END,
    sent_trace_id = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_trace_id
        ELSE job_dispatches.sent_trace_id
    END,
    sent_span_id = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_span_id
        ELSE job_dispatches.sent_span_id
    END,
    completed_trace_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_trace_id
        ELSE job_dispatches.completed_trace_id
    END,
    completed_span_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_span_id
        ELSE job_dispatches.completed_span_id
    END,
    failed_trace_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_trace_id
        ELSE job_dispatches.failed_trace_id
    END,
    failed_span_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_span_id
        ELSE job_dispatches.failed_span_id
    END,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", dispatchID, event.Status, err)
	}

	return nil
}

// ListByFixture returns the newest dispatches first. OccurredAt is the timestamp of the
// current status.
func (r *JobDispatchRepository) ListByFixture(ctx context.Context, fixtureExternalID int64, limit int) ([]jobscheduler.DispatchEvent, error) {
	builder := qb.Select(
		"dispatch_id",
		"job_name",
		"job_path",
		"fixture_external_id",
		"phase",
		"payload::text AS payload",
		"status",
		`CASE status
            WHEN 'completed' THEN completed_at
            WHEN 'failed' THEN failed_at
            WHEN 'stopped' THEN stopped_at
            ELSE sent_at
        END AS occurred_at`,
		"last_error",
		`CASE status
            WHEN 'completed' THEN completed_trace_id
            WHEN 'failed' THEN failed_trace_id
            ELSE sent_trace_id
        END AS trace_id`,
		`CASE status
            WHEN 'completed' THEN completed_span_id
            WHEN 'failed' THEN failed_span_id
            ELSE sent_span_id
        END AS span_id`,
	).From(tableJobDispatches).
		Where(qb.Eq("fixture_external_id", fixtureExternalID)).
		OrderBy("occurred_at DESC", "dispatch_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select job dispatches query: %w", err)
	}

	var rows []jobDispatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select job dispatches fixture=%d: %w", fixtureExternalID, err)
	}

	out := make([]jobscheduler.DispatchEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, jobscheduler.DispatchEvent{
			DispatchID:        row.DispatchID,
			JobName:           row.JobName,
			JobPath:           row.JobPath,
			FixtureExternalID: row.FixtureExternalID,
			Phase:             row.Phase,
			Status:            jobscheduler.DispatchStatus(row.Status),
			Payload:           unmarshalPayload(row.Payload),
			ErrorMessage:      row.LastError.String,
			OccurredAt:        row.OccurredAt.UTC(),
			TraceID:           row.TraceID.String,
			SpanID:            row.SpanID.String,
		})
	}
	return out, nil
}

func marshalPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func unmarshalPayload(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return nil
	}
	out := make(map[string]any)
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
