package postgres

import (
	"database/sql"
	"time"
)

type matchFixtureTableModel struct {
	ID               int64          `db:"id"`
	PublicID         string         `db:"public_id"`
	ExternalID       int64          `db:"external_id"`
	LeagueExternalID sql.NullInt64  `db:"league_external_id"`
	Season           sql.NullInt64  `db:"season"`
	KickoffAt        time.Time      `db:"kickoff_at"`
	StatusShort      string         `db:"status_short"`
	StatusLong       string         `db:"status_long"`
	Elapsed          sql.NullInt64  `db:"elapsed"`
	Extra            sql.NullInt64  `db:"extra"`
	Venue            string         `db:"venue"`
	Referee          string         `db:"referee"`
	HomeGoals        sql.NullInt64  `db:"home_goals"`
	AwayGoals        sql.NullInt64  `db:"away_goals"`
	HomeTeamID       sql.NullString `db:"home_team_public_id"`
	AwayTeamID       sql.NullString `db:"away_team_public_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

type matchFixtureInsertModel struct {
	PublicID         string    `db:"public_id"`
	ExternalID       int64     `db:"external_id"`
	LeagueExternalID *int64    `db:"league_external_id"`
	Season           *int      `db:"season"`
	KickoffAt        time.Time `db:"kickoff_at"`
	StatusShort      string    `db:"status_short"`
	StatusLong       string    `db:"status_long"`
	Elapsed          *int      `db:"elapsed"`
	Extra            *int      `db:"extra"`
	Venue            string    `db:"venue"`
	Referee          string    `db:"referee"`
	HomeGoals        *int      `db:"home_goals"`
	AwayGoals        *int      `db:"away_goals"`
	HomeTeamID       *string   `db:"home_team_public_id"`
	AwayTeamID       *string   `db:"away_team_public_id"`
}

type matchTeamTableModel struct {
	PublicID   string        `db:"public_id"`
	FixtureID  string        `db:"fixture_public_id"`
	Side       string        `db:"side"`
	ExternalID sql.NullInt64 `db:"external_id"`
	Name       string        `db:"name"`
	Logo       string        `db:"logo"`
	Formation  string        `db:"formation"`
	Coach      string        `db:"coach"`
	Statistics string        `db:"statistics"`
}

type matchTeamInsertModel struct {
	PublicID   string `db:"public_id"`
	FixtureID  string `db:"fixture_public_id"`
	Side       string `db:"side"`
	ExternalID *int64 `db:"external_id"`
	Name       string `db:"name"`
	Logo       string `db:"logo"`
	Formation  string `db:"formation"`
	Coach      string `db:"coach"`
	Statistics string `db:"statistics"`
}

type matchPlayerTableModel struct {
	PublicID     string         `db:"public_id"`
	FixtureID    string         `db:"fixture_public_id"`
	TeamID       sql.NullString `db:"team_public_id"`
	PlayerKey    string         `db:"player_key"`
	CreationKey  string         `db:"creation_key"`
	ExternalID   sql.NullInt64  `db:"external_id"`
	DisplayName  string         `db:"display_name"`
	ShirtNumber  sql.NullInt64  `db:"shirt_number"`
	Position     string         `db:"position"`
	GridSlot     string         `db:"grid_slot"`
	IsSubstitute bool           `db:"is_substitute"`
	NonLineup    bool           `db:"non_lineup"`
}

type matchPlayerInsertModel struct {
	PublicID     string  `db:"public_id"`
	FixtureID    string  `db:"fixture_public_id"`
	TeamID       *string `db:"team_public_id"`
	PlayerKey    string  `db:"player_key"`
	CreationKey  string  `db:"creation_key"`
	ExternalID   *int64  `db:"external_id"`
	DisplayName  string  `db:"display_name"`
	ShirtNumber  *int    `db:"shirt_number"`
	Position     string  `db:"position"`
	GridSlot     string  `db:"grid_slot"`
	IsSubstitute bool    `db:"is_substitute"`
	NonLineup    bool    `db:"non_lineup"`
}

type matchEventTableModel struct {
	PublicID       string         `db:"public_id"`
	FixtureID      string         `db:"fixture_public_id"`
	Sequence       int            `db:"sequence"`
	Elapsed        int            `db:"elapsed"`
	Extra          sql.NullInt64  `db:"extra"`
	EventType      string         `db:"event_type"`
	Detail         string         `db:"detail"`
	Comments       string         `db:"comments"`
	TeamID         sql.NullString `db:"team_public_id"`
	TeamExternalID sql.NullInt64  `db:"team_external_id"`
	PlayerKey      sql.NullString `db:"player_key"`
	PlayerName     string         `db:"player_name"`
	PlayerID       sql.NullString `db:"player_public_id"`
	AssistKey      sql.NullString `db:"assist_key"`
	AssistName     string         `db:"assist_name"`
	AssistID       sql.NullString `db:"assist_public_id"`
}

type matchEventInsertModel struct {
	PublicID       string  `db:"public_id"`
	FixtureID      string  `db:"fixture_public_id"`
	Sequence       int     `db:"sequence"`
	Elapsed        int     `db:"elapsed"`
	Extra          *int    `db:"extra"`
	EventType      string  `db:"event_type"`
	Detail         string  `db:"detail"`
	Comments       string  `db:"comments"`
	TeamID         *string `db:"team_public_id"`
	TeamExternalID *int64  `db:"team_external_id"`
	PlayerKey      *string `db:"player_key"`
	PlayerName     string  `db:"player_name"`
	PlayerID       *string `db:"player_public_id"`
	AssistKey      *string `db:"assist_key"`
	AssistName     string  `db:"assist_name"`
	AssistID       *string `db:"assist_public_id"`
}

// playerStatTableModel carries the owning player's key through a join; the stat row itself
// stores no key.
type playerStatTableModel struct {
	PublicID   string          `db:"public_id"`
	FixtureID  string          `db:"fixture_public_id"`
	PlayerID   string          `db:"player_public_id"`
	TeamID     sql.NullString  `db:"team_public_id"`
	PlayerKey  string          `db:"player_key"`
	Minutes    sql.NullInt64   `db:"minutes"`
	Rating     sql.NullFloat64 `db:"rating"`
	Captain    bool            `db:"captain"`
	Substitute bool            `db:"substitute"`
	Counters   string          `db:"counters"`
}

type playerStatInsertModel struct {
	PublicID   string   `db:"public_id"`
	FixtureID  string   `db:"fixture_public_id"`
	PlayerID   string   `db:"player_public_id"`
	TeamID     *string  `db:"team_public_id"`
	Minutes    *int     `db:"minutes"`
	Rating     *float64 `db:"rating"`
	Captain    bool     `db:"captain"`
	Substitute bool     `db:"substitute"`
	Counters   string   `db:"counters"`
}
