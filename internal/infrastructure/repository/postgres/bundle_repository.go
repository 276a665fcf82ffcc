package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/match-reconciler/internal/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchplayer"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
	"github.com/riskibarqy/match-reconciler/internal/domain/playerstats"
	qb "github.com/riskibarqy/match-reconciler/internal/platform/querybuilder"
)

const (
	tableFixtures = "match_fixtures"
	tableTeams    = "match_teams"
	tablePlayers  = "match_players"
	tableEvents   = "match_events"
	tableStats    = "player_match_statistics"

	eventSavepoint = "match_event_write"
)

var (
	matchPlayerColumns = []string{
		"public_id", "fixture_public_id", "team_public_id", "player_key", "creation_key", "external_id",
		"display_name", "shirt_number", "position", "grid_slot", "is_substitute", "non_lineup",
	}
	matchEventColumns = []string{
		"public_id", "fixture_public_id", "sequence", "elapsed", "extra", "event_type", "detail", "comments",
		"team_public_id", "team_external_id", "player_key", "player_name", "player_public_id",
		"assist_key", "assist_name", "assist_public_id",
	}
)

// BundleRepository stores one fixture across five tables and commits a tick in a single
// transaction.
type BundleRepository struct {
	db *sqlx.DB
}

func NewBundleRepository(db *sqlx.DB) *BundleRepository {
	return &BundleRepository{db: db}
}

func (r *BundleRepository) Load(ctx context.Context, fixtureExternalID int64) (bundle.WorkingSet, bool, error) {
	query, args, err := qb.Select("*").From(tableFixtures).
		Where(qb.Eq("external_id", fixtureExternalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return bundle.WorkingSet{}, false, fmt.Errorf("build select match fixture query: %w", err)
	}

	var header matchFixtureTableModel
	if err := r.db.GetContext(ctx, &header, query, args...); err != nil {
		if isNotFound(err) {
			return bundle.WorkingSet{}, false, nil
		}
		return bundle.WorkingSet{}, false, fmt.Errorf("select match fixture external_id=%d: %w", fixtureExternalID, err)
	}

	ws := bundle.New(headerFromRow(header))
	fixtureID := header.PublicID

	teams, err := r.loadTeams(ctx, fixtureID)
	if err != nil {
		return bundle.WorkingSet{}, false, err
	}
	for _, team := range teams {
		ws.Teams[team.Side] = team
	}

	players, err := r.loadPlayers(ctx, fixtureID)
	if err != nil {
		return bundle.WorkingSet{}, false, err
	}
	for _, player := range players {
		ws.Players[player.Key] = player
	}

	events, err := r.loadEvents(ctx, fixtureID)
	if err != nil {
		return bundle.WorkingSet{}, false, err
	}
	ws.Events = events

	stats, err := r.loadStats(ctx, fixtureID)
	if err != nil {
		return bundle.WorkingSet{}, false, err
	}
	for _, stat := range stats {
		ws.Stats[stat.Key] = stat
	}

	return ws, true, nil
}

func (r *BundleRepository) loadTeams(ctx context.Context, fixtureID string) ([]matchteam.Team, error) {
	query, args, err := qb.Select("public_id", "fixture_public_id", "side", "external_id", "name", "logo", "formation", "coach", "statistics::text AS statistics").
		From(tableTeams).
		Where(qb.Eq("fixture_public_id", fixtureID)).
		OrderBy("side").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match teams query: %w", err)
	}

	var rows []matchTeamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match teams fixture=%s: %w", fixtureID, err)
	}

	out := make([]matchteam.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchteam.Team{
			ID:         row.PublicID,
			FixtureID:  row.FixtureID,
			Side:       matchteam.Side(row.Side),
			ExternalID: nullInt64Ptr(row.ExternalID),
			Name:       row.Name,
			Logo:       row.Logo,
			Formation:  row.Formation,
			Coach:      row.Coach,
			Statistics: decodeStringMap(row.Statistics),
		})
	}
	return out, nil
}

func (r *BundleRepository) loadPlayers(ctx context.Context, fixtureID string) ([]matchplayer.Player, error) {
	query, args, err := qb.Select(matchPlayerColumns...).From(tablePlayers).
		Where(qb.Eq("fixture_public_id", fixtureID)).
		OrderBy("player_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match players query: %w", err)
	}

	var rows []matchPlayerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match players fixture=%s: %w", fixtureID, err)
	}

	out := make([]matchplayer.Player, 0, len(rows))
	for _, row := range rows {
		key, err := identity.Parse(row.PlayerKey)
		if err != nil {
			return nil, fmt.Errorf("decode match player %s: %w", row.PublicID, err)
		}
		creationKey, err := identity.Parse(row.CreationKey)
		if err != nil {
			creationKey = key
		}
		out = append(out, matchplayer.Player{
			ID:           row.PublicID,
			FixtureID:    row.FixtureID,
			TeamID:       row.TeamID.String,
			Key:          key,
			CreationKey:  creationKey,
			ExternalID:   nullInt64Ptr(row.ExternalID),
			DisplayName:  row.DisplayName,
			ShirtNumber:  nullIntPtr(row.ShirtNumber),
			Position:     row.Position,
			GridSlot:     row.GridSlot,
			IsSubstitute: row.IsSubstitute,
			NonLineup:    row.NonLineup,
		})
	}
	return out, nil
}

func (r *BundleRepository) loadEvents(ctx context.Context, fixtureID string) ([]matchevent.Event, error) {
	query, args, err := qb.Select(matchEventColumns...).From(tableEvents).
		Where(qb.Eq("fixture_public_id", fixtureID)).
		OrderBy("sequence").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match events query: %w", err)
	}

	var rows []matchEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match events fixture=%s: %w", fixtureID, err)
	}

	out := make([]matchevent.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchevent.Event{
			ID:             row.PublicID,
			FixtureID:      row.FixtureID,
			Sequence:       row.Sequence,
			Elapsed:        row.Elapsed,
			Extra:          nullIntPtr(row.Extra),
			Type:           row.EventType,
			Detail:         row.Detail,
			Comments:       row.Comments,
			TeamID:         row.TeamID.String,
			TeamExternalID: nullInt64Ptr(row.TeamExternalID),
			Player:         participantFromRow(row.PlayerKey, row.PlayerName, row.PlayerID),
			Assist:         participantFromRow(row.AssistKey, row.AssistName, row.AssistID),
		})
	}
	return out, nil
}

func (r *BundleRepository) loadStats(ctx context.Context, fixtureID string) ([]playerstats.Stat, error) {
	query, args, err := qb.Select(
		"s.public_id",
		"s.fixture_public_id",
		"s.player_public_id",
		"s.team_public_id",
		"p.player_key",
		"s.minutes",
		"s.rating",
		"s.captain",
		"s.substitute",
		"s.counters::text AS counters",
	).From(tableStats+" s JOIN "+tablePlayers+" p ON p.public_id = s.player_public_id").
		Where(qb.Eq("s.fixture_public_id", fixtureID)).
		OrderBy("p.player_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player match statistics query: %w", err)
	}

	var rows []playerStatTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player match statistics fixture=%s: %w", fixtureID, err)
	}

	out := make([]playerstats.Stat, 0, len(rows))
	for _, row := range rows {
		key, err := identity.Parse(row.PlayerKey)
		if err != nil {
			return nil, fmt.Errorf("decode statistics owner %s: %w", row.PlayerID, err)
		}
		var rating *float64
		if row.Rating.Valid {
			value := row.Rating.Float64
			rating = &value
		}
		out = append(out, playerstats.Stat{
			ID:         row.PublicID,
			FixtureID:  row.FixtureID,
			PlayerID:   row.PlayerID,
			TeamID:     row.TeamID.String,
			Key:        key,
			Minutes:    nullIntPtr(row.Minutes),
			Rating:     rating,
			Captain:    row.Captain,
			Substitute: row.Substitute,
			Counters:   decodeCounters(row.Counters),
		})
	}
	return out, nil
}

// Commit writes the batch in one transaction. Deletes run first, children before parents, so
// upserts never collide with rows that are about to disappear. An event row the database
// rejects is rolled back to a savepoint and replaced by an UNKNOWN placeholder.
func (r *BundleRepository) Commit(ctx context.Context, batch bundle.ChangeBatch) (bundle.CommitResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return bundle.CommitResult{}, fmt.Errorf("begin tx commit fixture=%d: %w", batch.Fixture.ExternalID, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.writeHeader(ctx, tx, batch); err != nil {
		return bundle.CommitResult{}, err
	}
	if err := r.deleteRecords(ctx, tx, batch); err != nil {
		return bundle.CommitResult{}, err
	}
	for _, team := range batch.Teams {
		if err := r.upsertTeam(ctx, tx, batch.Fixture, team); err != nil {
			return bundle.CommitResult{}, err
		}
	}
	for _, entry := range batch.Players.Create {
		if err := r.upsertPlayer(ctx, tx, batch.Fixture.ID, entry.Record); err != nil {
			return bundle.CommitResult{}, err
		}
	}
	for _, update := range batch.Players.Update {
		if err := r.upsertPlayer(ctx, tx, batch.Fixture.ID, update.Record); err != nil {
			return bundle.CommitResult{}, err
		}
	}

	var result bundle.CommitResult
	writeEvent := func(event matchevent.Event) error {
		placeholder, cause, err := r.writeEvent(ctx, tx, batch.Fixture.ID, event)
		if err != nil {
			return err
		}
		if cause != "" {
			result.Placeholders = append(result.Placeholders, bundle.PlaceholderEvent{Event: placeholder, Cause: cause})
		}
		return nil
	}
	for _, entry := range batch.Events.Create {
		if err := writeEvent(entry.Record); err != nil {
			return bundle.CommitResult{}, err
		}
	}
	for _, update := range batch.Events.Update {
		if err := writeEvent(update.Record); err != nil {
			return bundle.CommitResult{}, err
		}
	}

	for _, entry := range batch.Stats.Create {
		if err := r.upsertStat(ctx, tx, batch.Fixture.ID, entry.Record); err != nil {
			return bundle.CommitResult{}, err
		}
	}
	for _, update := range batch.Stats.Update {
		if err := r.upsertStat(ctx, tx, batch.Fixture.ID, update.Record); err != nil {
			return bundle.CommitResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return bundle.CommitResult{}, fmt.Errorf("commit fixture=%d: %w", batch.Fixture.ExternalID, err)
	}
	return result, nil
}

func (r *BundleRepository) writeHeader(ctx context.Context, tx *sqlx.Tx, batch bundle.ChangeBatch) error {
	header := batch.Fixture
	switch {
	case batch.FixtureCreated:
		model := matchFixtureInsertModel{
			PublicID:         header.ID,
			ExternalID:       header.ExternalID,
			LeagueExternalID: header.LeagueExternalID,
			Season:           header.Season,
			KickoffAt:        header.KickoffAt.UTC(),
			StatusShort:      header.StatusShort,
			StatusLong:       header.StatusLong,
			Elapsed:          header.Elapsed,
			Extra:            header.Extra,
			Venue:            header.Venue,
			Referee:          header.Referee,
			HomeGoals:        header.HomeGoals,
			AwayGoals:        header.AwayGoals,
			HomeTeamID:       optionalString(header.HomeTeamID),
			AwayTeamID:       optionalString(header.AwayTeamID),
		}
		query, args, err := qb.InsertModel(tableFixtures, model, "")
		if err != nil {
			return fmt.Errorf("build insert match fixture query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert match fixture external_id=%d: %w", header.ExternalID, err)
		}
	case batch.FixtureChanged:
		query, args, err := qb.Update(tableFixtures).
			Set("kickoff_at", header.KickoffAt.UTC()).
			Set("status_short", header.StatusShort).
			Set("status_long", header.StatusLong).
			Set("elapsed", header.Elapsed).
			Set("extra", header.Extra).
			Set("home_goals", header.HomeGoals).
			Set("away_goals", header.AwayGoals).
			Set("home_team_public_id", optionalString(header.HomeTeamID)).
			Set("away_team_public_id", optionalString(header.AwayTeamID)).
			SetExpr("updated_at", "NOW()").
			Where(qb.Eq("public_id", header.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update match fixture progress query: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update match fixture progress external_id=%d: %w", header.ExternalID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("update match fixture progress external_id=%d: fixture not stored", header.ExternalID)
		}
	}
	return nil
}

func (r *BundleRepository) deleteRecords(ctx context.Context, tx *sqlx.Tx, batch bundle.ChangeBatch) error {
	eventIDs := make([]any, 0, len(batch.Events.Delete))
	for _, entry := range batch.Events.Delete {
		eventIDs = append(eventIDs, entry.Key)
	}
	if err := deleteWhere(ctx, tx, tableEvents, "sequence", batch.Fixture.ID, eventIDs); err != nil {
		return err
	}

	statIDs := make([]any, 0, len(batch.Stats.Delete))
	for _, entry := range batch.Stats.Delete {
		statIDs = append(statIDs, entry.Record.ID)
	}
	if err := deleteWhere(ctx, tx, tableStats, "public_id", batch.Fixture.ID, statIDs); err != nil {
		return err
	}

	// statistics rows follow their player through ON DELETE CASCADE
	playerIDs := make([]any, 0, len(batch.Players.Delete))
	for _, entry := range batch.Players.Delete {
		playerIDs = append(playerIDs, entry.Record.ID)
	}
	return deleteWhere(ctx, tx, tablePlayers, "public_id", batch.Fixture.ID, playerIDs)
}

func deleteWhere(ctx context.Context, tx *sqlx.Tx, table, column, fixtureID string, values []any) error {
	if len(values) == 0 {
		return nil
	}
	query, args, err := qb.DeleteFrom(table).
		Where(
			qb.Eq("fixture_public_id", fixtureID),
			qb.In(column, values),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete %s query: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s fixture=%s count=%d: %w", table, fixtureID, len(values), err)
	}
	return nil
}

func (r *BundleRepository) upsertTeam(ctx context.Context, tx *sqlx.Tx, header fixture.Header, team matchteam.Team) error {
	model := matchTeamInsertModel{
		PublicID:   team.ID,
		FixtureID:  header.ID,
		Side:       string(team.Side),
		ExternalID: team.ExternalID,
		Name:       team.Name,
		Logo:       team.Logo,
		Formation:  team.Formation,
		Coach:      team.Coach,
		Statistics: encodeStringMap(team.Statistics),
	}
	query, args, err := qb.UpsertModel(tableTeams, model, []string{"fixture_public_id", "side"}, "public_id")
	if err != nil {
		return fmt.Errorf("build upsert match team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match team fixture=%s side=%s: %w", header.ID, team.Side, err)
	}

	column := "home_team_public_id"
	if team.Side == matchteam.SideAway {
		column = "away_team_public_id"
	}
	linkQuery, linkArgs, err := qb.Update(tableFixtures).
		Set(column, team.ID).
		Where(qb.Eq("public_id", header.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build link match team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, linkQuery, linkArgs...); err != nil {
		return fmt.Errorf("link match team fixture=%s side=%s: %w", header.ID, team.Side, err)
	}
	return nil
}

func (r *BundleRepository) upsertPlayer(ctx context.Context, tx *sqlx.Tx, fixtureID string, player matchplayer.Player) error {
	creationKey := player.CreationKey
	if creationKey.IsZero() {
		creationKey = player.Key
	}
	model := matchPlayerInsertModel{
		PublicID:     player.ID,
		FixtureID:    fixtureID,
		TeamID:       optionalString(player.TeamID),
		PlayerKey:    player.Key.String(),
		CreationKey:  creationKey.String(),
		ExternalID:   player.ExternalID,
		DisplayName:  player.DisplayName,
		ShirtNumber:  player.ShirtNumber,
		Position:     player.Position,
		GridSlot:     player.GridSlot,
		IsSubstitute: player.IsSubstitute,
		NonLineup:    player.NonLineup,
	}
	query, args, err := qb.UpsertModel(tablePlayers, model, []string{"public_id"}, "fixture_public_id", "creation_key")
	if err != nil {
		return fmt.Errorf("build upsert match player query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match player fixture=%s key=%s: %w", fixtureID, player.Key, err)
	}
	return nil
}

// writeEvent returns a non-empty cause when the event had to be stored as a placeholder.
func (r *BundleRepository) writeEvent(ctx context.Context, tx *sqlx.Tx, fixtureID string, event matchevent.Event) (matchevent.Event, string, error) {
	if err := event.Validate(); err != nil {
		placeholder := matchevent.Placeholder(event)
		if err := r.upsertEvent(ctx, tx, fixtureID, placeholder); err != nil {
			return matchevent.Event{}, "", err
		}
		return placeholder, err.Error(), nil
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+eventSavepoint); err != nil {
		return matchevent.Event{}, "", fmt.Errorf("savepoint match event sequence=%d: %w", event.Sequence, err)
	}
	writeErr := r.upsertEvent(ctx, tx, fixtureID, event)
	if writeErr == nil {
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+eventSavepoint); err != nil {
			return matchevent.Event{}, "", fmt.Errorf("release savepoint match event sequence=%d: %w", event.Sequence, err)
		}
		return event, "", nil
	}

	if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+eventSavepoint); err != nil {
		return matchevent.Event{}, "", fmt.Errorf("rollback savepoint match event sequence=%d: %w", event.Sequence, err)
	}
	placeholder := matchevent.Placeholder(event)
	if err := r.upsertEvent(ctx, tx, fixtureID, placeholder); err != nil {
		return matchevent.Event{}, "", err
	}
	return placeholder, writeErr.Error(), nil
}

func (r *BundleRepository) upsertEvent(ctx context.Context, tx *sqlx.Tx, fixtureID string, event matchevent.Event) error {
	model := matchEventInsertModel{
		PublicID:       event.ID,
		FixtureID:      fixtureID,
		Sequence:       event.Sequence,
		Elapsed:        event.Elapsed,
		Extra:          event.Extra,
		EventType:      event.Type,
		Detail:         event.Detail,
		Comments:       event.Comments,
		TeamID:         optionalString(event.TeamID),
		TeamExternalID: event.TeamExternalID,
		PlayerKey:      participantKey(event.Player),
		PlayerName:     event.Player.Name,
		PlayerID:       optionalString(event.Player.PlayerID),
		AssistKey:      participantKey(event.Assist),
		AssistName:     event.Assist.Name,
		AssistID:       optionalString(event.Assist.PlayerID),
	}
	query, args, err := qb.UpsertModel(tableEvents, model, []string{"fixture_public_id", "sequence"}, "public_id")
	if err != nil {
		return fmt.Errorf("build upsert match event query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match event fixture=%s sequence=%d: %w", fixtureID, event.Sequence, err)
	}
	return nil
}

func (r *BundleRepository) upsertStat(ctx context.Context, tx *sqlx.Tx, fixtureID string, stat playerstats.Stat) error {
	model := playerStatInsertModel{
		PublicID:   stat.ID,
		FixtureID:  fixtureID,
		PlayerID:   stat.PlayerID,
		TeamID:     optionalString(stat.TeamID),
		Minutes:    stat.Minutes,
		Rating:     stat.Rating,
		Captain:    stat.Captain,
		Substitute: stat.Substitute,
		Counters:   encodeCounters(stat.Counters),
	}
	query, args, err := qb.UpsertModel(tableStats, model, []string{"player_public_id"}, "public_id", "fixture_public_id")
	if err != nil {
		return fmt.Errorf("build upsert player match statistics query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player match statistics fixture=%s player=%s: %w", fixtureID, stat.PlayerID, err)
	}
	return nil
}

func headerFromRow(row matchFixtureTableModel) fixture.Header {
	return fixture.Header{
		ID:               row.PublicID,
		ExternalID:       row.ExternalID,
		LeagueExternalID: nullInt64Ptr(row.LeagueExternalID),
		Season:           nullIntPtr(row.Season),
		KickoffAt:        row.KickoffAt.UTC(),
		StatusShort:      row.StatusShort,
		StatusLong:       row.StatusLong,
		Elapsed:          nullIntPtr(row.Elapsed),
		Extra:            nullIntPtr(row.Extra),
		Venue:            row.Venue,
		Referee:          row.Referee,
		HomeGoals:        nullIntPtr(row.HomeGoals),
		AwayGoals:        nullIntPtr(row.AwayGoals),
		HomeTeamID:       row.HomeTeamID.String,
		AwayTeamID:       row.AwayTeamID.String,
	}
}

func participantFromRow(key sql.NullString, name string, playerID sql.NullString) matchevent.Participant {
	if !key.Valid || strings.TrimSpace(key.String) == "" {
		return matchevent.Participant{Name: name, PlayerID: playerID.String}
	}
	parsed, err := identity.Parse(key.String)
	if err != nil {
		return matchevent.Participant{Name: name, PlayerID: playerID.String}
	}
	return matchevent.Participant{Key: parsed, Name: name, PlayerID: playerID.String}
}

func participantKey(p matchevent.Participant) *string {
	if !p.Present() {
		return nil
	}
	value := p.Key.String()
	return &value
}

func encodeStringMap(value map[string]string) string {
	if len(value) == 0 {
		return "{}"
	}
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

func decodeStringMap(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return nil
	}
	out := make(map[string]string)
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func encodeCounters(value map[string]int) string {
	if len(value) == 0 {
		return "{}"
	}
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

func decodeCounters(raw string) map[string]int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]int{}
	}
	out := make(map[string]int)
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]int{}
	}
	return out
}
