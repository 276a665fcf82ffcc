package jobscheduler

import "time"

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
	StatusStopped   DispatchStatus = "stopped"
)

// DispatchEvent is one audit row for a scheduled fixture job.
type DispatchEvent struct {
	DispatchID        string
	JobName           string
	JobPath           string
	FixtureExternalID int64
	Phase             string
	Status            DispatchStatus
	Payload           map[string]any
	ErrorMessage      string
	OccurredAt        time.Time
	TraceID           string
	SpanID            string
}
