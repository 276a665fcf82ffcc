package matchteam

import "maps"

type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

func (s Side) Valid() bool {
	return s == SideHome || s == SideAway
}

func (s Side) Opponent() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

// Team is one side of a fixture as seen by that fixture.
type Team struct {
	ID         string
	FixtureID  string
	Side       Side
	ExternalID *int64
	Name       string
	Logo       string
	Formation  string
	Coach      string
	Statistics map[string]string
}

func (t Team) SameValues(other Team) bool {
	return t.Side == other.Side &&
		equalInt64(t.ExternalID, other.ExternalID) &&
		t.Name == other.Name &&
		t.Logo == other.Logo &&
		t.Formation == other.Formation &&
		t.Coach == other.Coach &&
		maps.Equal(t.Statistics, other.Statistics)
}

func equalInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
