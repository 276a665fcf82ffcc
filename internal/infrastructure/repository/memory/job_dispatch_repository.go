package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/match-reconciler/internal/domain/jobscheduler"
)

// JobDispatchRepository keeps the latest state of each dispatch, like the postgres upsert does.
type JobDispatchRepository struct {
	mu     sync.RWMutex
	events map[string]jobscheduler.DispatchEvent
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{events: make(map[string]jobscheduler.DispatchEvent)}
}

func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}
	event.DispatchID = dispatchID
	event.Payload = maps.Clone(event.Payload)

	r.mu.Lock()
	r.events[dispatchID] = event
	r.mu.Unlock()
	return nil
}

func (r *JobDispatchRepository) ListByFixture(_ context.Context, fixtureExternalID int64, limit int) ([]jobscheduler.DispatchEvent, error) {
	r.mu.RLock()
	out := make([]jobscheduler.DispatchEvent, 0)
	for _, event := range r.events {
		if event.FixtureExternalID == fixtureExternalID {
			out = append(out, event)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].DispatchID < out[j].DispatchID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
