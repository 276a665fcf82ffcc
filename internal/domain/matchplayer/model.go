package matchplayer

import "github.com/riskibarqy/match-reconciler/internal/domain/identity"

// Player is a fixture-scoped squad member. ID is generated once and never changes; Key may
// move from a name-based to an id-based key when the upstream assigns an id.
type Player struct {
	ID           string
	FixtureID    string
	TeamID       string
	Key          identity.Key
	CreationKey  identity.Key
	ExternalID   *int64
	DisplayName  string
	ShirtNumber  *int
	Position     string
	GridSlot     string
	IsSubstitute bool
	NonLineup    bool
}

func (p Player) SameValues(other Player) bool {
	return p.Key == other.Key &&
		p.TeamID == other.TeamID &&
		equalInt64(p.ExternalID, other.ExternalID) &&
		p.DisplayName == other.DisplayName &&
		equalInt(p.ShirtNumber, other.ShirtNumber) &&
		p.Position == other.Position &&
		p.GridSlot == other.GridSlot &&
		p.IsSubstitute == other.IsSubstitute &&
		p.NonLineup == other.NonLineup
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
