package usecase

import (
	"context"
	"time"
)

// SnapshotProvider fetches the current upstream document of one fixture.
type SnapshotProvider interface {
	FetchMatchSnapshot(ctx context.Context, fixtureExternalID int64) (ExternalMatchSnapshot, error)
}

type ExternalMatchSnapshot struct {
	Fixture          ExternalFixtureHeader
	Lineups          []ExternalLineup
	Events           []ExternalMatchEvent
	TeamStatistics   []ExternalTeamStatistics
	PlayerStatistics []ExternalTeamPlayerStatistics
}

type ExternalFixtureHeader struct {
	ExternalID       int64 `validate:"required,gt=0"`
	LeagueExternalID *int64
	Season           *int
	KickoffAt        time.Time
	StatusShort      string `validate:"max=8"`
	StatusLong       string
	Elapsed          *int `validate:"omitempty,gte=0"`
	Extra            *int `validate:"omitempty,gte=0"`
	Venue            string
	Referee          string
	Home             ExternalTeam
	Away             ExternalTeam
	HomeGoals        *int `validate:"omitempty,gte=0"`
	AwayGoals        *int `validate:"omitempty,gte=0"`
}

type ExternalTeam struct {
	ExternalID *int64
	Name       string
	Logo       string
}

type ExternalLineup struct {
	Team        ExternalTeam
	Formation   string
	Coach       string
	StartXI     []ExternalLineupPlayer
	Substitutes []ExternalLineupPlayer
}

type ExternalLineupPlayer struct {
	ExternalID *int64
	Name       string
	Number     *int
	Position   string
	Grid       string
}

type ExternalParticipant struct {
	ExternalID *int64
	Name       string
}

// ExternalMatchEvent is one feed event. Sequence is nil when the feed only orders events by
// position, in which case the position is the sequence.
type ExternalMatchEvent struct {
	Sequence *int
	Elapsed  int
	Extra    *int
	Team     ExternalTeam
	Player   ExternalParticipant
	Assist   ExternalParticipant
	Type     string
	Detail   string
	Comments string
}

type ExternalTeamStatistics struct {
	Team   ExternalTeam
	Values map[string]string
}

type ExternalTeamPlayerStatistics struct {
	Team    ExternalTeam
	Players []ExternalPlayerStatistics
}

type ExternalPlayerStatistics struct {
	ExternalID *int64
	Name       string
	Number     *int
	Position   string
	Minutes    *int
	Rating     *float64
	Captain    bool
	Substitute *bool
	Counters   map[string]int
}

func (s ExternalMatchSnapshot) hasPlayerStatistics() bool {
	for _, team := range s.PlayerStatistics {
		if len(team.Players) > 0 {
			return true
		}
	}
	return false
}
