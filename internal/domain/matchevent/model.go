package matchevent

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
)

const (
	TypeGoal  = "Goal"
	TypeCard  = "Card"
	TypeSubst = "subst"
	TypeVar   = "Var"

	// TypeUnknown marks a placeholder written when the real event could not be stored.
	TypeUnknown = "UNKNOWN"
)

// Participant is one player slot of an event. PlayerID is the fixture-scoped player id.
type Participant struct {
	Key      identity.Key
	Name     string
	PlayerID string
}

func (p Participant) Present() bool {
	return !p.Key.IsZero()
}

// Event is identified by its sequence within the fixture, not by content.
type Event struct {
	ID             string
	FixtureID      string
	Sequence       int
	Elapsed        int
	Extra          *int
	Type           string
	Detail         string
	Comments       string
	TeamID         string
	TeamExternalID *int64
	Player         Participant
	Assist         Participant
}

func (e Event) IsSubstitution() bool {
	return strings.EqualFold(strings.TrimSpace(e.Type), TypeSubst)
}

func (e Event) IsPlaceholder() bool {
	return e.Type == TypeUnknown
}

func (e Event) SameValues(other Event) bool {
	return e.Sequence == other.Sequence &&
		e.Elapsed == other.Elapsed &&
		equalInt(e.Extra, other.Extra) &&
		e.Type == other.Type &&
		e.Detail == other.Detail &&
		e.Comments == other.Comments &&
		e.TeamID == other.TeamID &&
		equalInt64(e.TeamExternalID, other.TeamExternalID) &&
		e.Player == other.Player &&
		e.Assist == other.Assist
}

// Validate rejects events that storage cannot hold.
func (e Event) Validate() error {
	switch {
	case e.Sequence < 0:
		return fmt.Errorf("event sequence must be >= 0, got %d", e.Sequence)
	case strings.TrimSpace(e.Type) == "":
		return fmt.Errorf("event %d: type is required", e.Sequence)
	case e.Elapsed < 0:
		return fmt.Errorf("event %d: elapsed must be >= 0, got %d", e.Sequence, e.Elapsed)
	case e.Extra != nil && *e.Extra < 0:
		return fmt.Errorf("event %d: extra must be >= 0, got %d", e.Sequence, *e.Extra)
	}
	return nil
}

// Placeholder keeps the sequence slot of an event whose content was lost.
func Placeholder(source Event) Event {
	return Event{
		ID:        source.ID,
		FixtureID: source.FixtureID,
		Sequence:  source.Sequence,
		Type:      TypeUnknown,
	}
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
