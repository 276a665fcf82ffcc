package playerstats

import (
	"maps"

	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
)

const (
	CounterGoals          = "goals"
	CounterAssists        = "assists"
	CounterConceded       = "conceded"
	CounterSaves          = "saves"
	CounterShotsTotal     = "shots_total"
	CounterShotsOn        = "shots_on"
	CounterPassesTotal    = "passes_total"
	CounterPassesKey      = "passes_key"
	CounterTacklesTotal   = "tackles_total"
	CounterBlocks         = "blocks"
	CounterInterceptions  = "interceptions"
	CounterDuelsTotal     = "duels_total"
	CounterDuelsWon       = "duels_won"
	CounterDribblesTotal  = "dribbles_attempts"
	CounterDribblesWon    = "dribbles_success"
	CounterFoulsDrawn     = "fouls_drawn"
	CounterFoulsCommitted = "fouls_committed"
	CounterYellowCards    = "cards_yellow"
	CounterRedCards       = "cards_red"
	CounterPenaltyWon     = "penalty_won"
	CounterPenaltyScored  = "penalty_scored"
	CounterPenaltyMissed  = "penalty_missed"
	CounterPenaltySaved   = "penalty_saved"
	CounterOffsides       = "offsides"
)

// Stat is the per-fixture statistics line of one match player. Key is not stored; it is
// always the key of the owning player.
type Stat struct {
	ID         string
	FixtureID  string
	PlayerID   string
	TeamID     string
	Key        identity.Key
	Minutes    *int
	Rating     *float64
	Captain    bool
	Substitute bool
	Counters   map[string]int
}

func (s Stat) SameValues(other Stat) bool {
	return s.PlayerID == other.PlayerID &&
		s.TeamID == other.TeamID &&
		equalInt(s.Minutes, other.Minutes) &&
		equalFloat(s.Rating, other.Rating) &&
		s.Captain == other.Captain &&
		s.Substitute == other.Substitute &&
		maps.Equal(nonNil(s.Counters), nonNil(other.Counters))
}

func (s Stat) Counter(name string) int {
	return s.Counters[name]
}

func nonNil(in map[string]int) map[string]int {
	if in == nil {
		return map[string]int{}
	}
	return in
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
