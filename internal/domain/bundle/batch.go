package bundle

import (
	"context"

	"github.com/riskibarqy/match-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
)

// ChangeBatch is everything one tick writes. Repositories commit it atomically.
type ChangeBatch struct {
	Fixture        fixture.Header
	FixtureCreated bool
	// FixtureChanged asks for a progress-only update of an existing header.
	FixtureChanged bool
	Teams          []matchteam.Team
	Players        PlayerChanges
	Events         EventChanges
	Stats          StatChanges
}

func (b ChangeBatch) IsEmpty() bool {
	return !b.FixtureCreated &&
		!b.FixtureChanged &&
		len(b.Teams) == 0 &&
		b.Players.IsEmpty() &&
		b.Events.IsEmpty() &&
		b.Stats.IsEmpty()
}

type CommitResult struct {
	// Placeholders are events stored as UNKNOWN because the real row could not be written.
	Placeholders []PlaceholderEvent
}

type PlaceholderEvent struct {
	Event matchevent.Event
	Cause string
}

// Repository is the storage contract of the reconciler. Load returns false for a fixture that
// was never stored.
type Repository interface {
	Load(ctx context.Context, fixtureExternalID int64) (WorkingSet, bool, error)
	Commit(ctx context.Context, batch ChangeBatch) (CommitResult, error)
}
