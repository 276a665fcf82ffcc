package fixture

import (
	"strings"
	"time"
)

// Header is the persisted fixture row. Only the progress fields change once the fixture exists.
type Header struct {
	ID               string
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
	HomeGoals        *int `validate:"omitempty,gte=0"`
	AwayGoals        *int `validate:"omitempty,gte=0"`
	HomeTeamID       string
	AwayTeamID       string
}

// Progress is the subset of header columns rewritten on every tick.
type Progress struct {
	KickoffAt   time.Time
	StatusShort string
	StatusLong  string
	Elapsed     *int
	Extra       *int
	HomeGoals   *int
	AwayGoals   *int
}

func (h Header) Progress() Progress {
	return Progress{
		KickoffAt:   h.KickoffAt,
		StatusShort: h.StatusShort,
		StatusLong:  h.StatusLong,
		Elapsed:     h.Elapsed,
		Extra:       h.Extra,
		HomeGoals:   h.HomeGoals,
		AwayGoals:   h.AwayGoals,
	}
}

func (p Progress) Equal(other Progress) bool {
	return p.KickoffAt.Equal(other.KickoffAt) &&
		p.StatusShort == other.StatusShort &&
		p.StatusLong == other.StatusLong &&
		equalInt(p.Elapsed, other.Elapsed) &&
		equalInt(p.Extra, other.Extra) &&
		equalInt(p.HomeGoals, other.HomeGoals) &&
		equalInt(p.AwayGoals, other.AwayGoals)
}

// WithProgress returns h with the progress columns taken from p.
func (h Header) WithProgress(p Progress) Header {
	h.KickoffAt = p.KickoffAt
	h.StatusShort = p.StatusShort
	h.StatusLong = p.StatusLong
	h.Elapsed = p.Elapsed
	h.Extra = p.Extra
	h.HomeGoals = p.HomeGoals
	h.AwayGoals = p.AwayGoals
	return h
}

func NormalizeStatus(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func IsPreMatchStatus(status string) bool {
	switch NormalizeStatus(status) {
	case "NS", "TBD", "INT":
		return true
	default:
		return false
	}
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case "1H", "HT", "2H", "ET", "BT", "P", "SUSP", "LIVE":
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case "FT", "AET", "PEN", "AWD", "WO", "CANC", "PST", "ABD":
		return true
	default:
		return false
	}
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
