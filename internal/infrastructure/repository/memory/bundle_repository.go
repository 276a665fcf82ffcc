package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/riskibarqy/match-reconciler/internal/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchplayer"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
	"github.com/riskibarqy/match-reconciler/internal/domain/playerstats"
)

// storedFixture mirrors the relational layout: players by uid, stats by owning player uid.
type storedFixture struct {
	header  fixture.Header
	teams   map[matchteam.Side]matchteam.Team
	players map[string]matchplayer.Player
	events  map[int]matchevent.Event
	stats   map[string]playerstats.Stat
}

type BundleRepository struct {
	mu       sync.RWMutex
	fixtures map[int64]*storedFixture
}

func NewBundleRepository() *BundleRepository {
	return &BundleRepository{fixtures: make(map[int64]*storedFixture)}
}

func (r *BundleRepository) Load(_ context.Context, fixtureExternalID int64) (bundle.WorkingSet, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.fixtures[fixtureExternalID]
	if !ok {
		return bundle.WorkingSet{}, false, nil
	}

	ws := bundle.New(stored.header)
	for side, team := range stored.teams {
		team.Statistics = maps.Clone(team.Statistics)
		ws.Teams[side] = team
	}
	for _, player := range stored.players {
		ws.Players[player.Key] = player
	}
	for playerID, stat := range stored.stats {
		player, ok := stored.players[playerID]
		if !ok {
			continue
		}
		stat.Key = player.Key
		stat.Counters = maps.Clone(stat.Counters)
		ws.Stats[player.Key] = stat
	}
	ws.Events = make([]matchevent.Event, 0, len(stored.events))
	for _, event := range stored.events {
		ws.Events = append(ws.Events, event)
	}
	slices.SortFunc(ws.Events, func(a, b matchevent.Event) int { return a.Sequence - b.Sequence })

	return ws, true, nil
}

// Commit applies the batch under one lock so readers never see a half-applied tick. Events
// that fail validation are stored as placeholders.
func (r *BundleRepository) Commit(_ context.Context, batch bundle.ChangeBatch) (bundle.CommitResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	externalID := batch.Fixture.ExternalID
	current, exists := r.fixtures[externalID]
	if !exists && !batch.FixtureCreated {
		return bundle.CommitResult{}, fmt.Errorf("commit fixture=%d: fixture not stored", externalID)
	}

	var next *storedFixture
	if exists {
		next = current.clone()
	} else {
		next = &storedFixture{
			teams:   make(map[matchteam.Side]matchteam.Team, 2),
			players: make(map[string]matchplayer.Player),
			events:  make(map[int]matchevent.Event),
			stats:   make(map[string]playerstats.Stat),
		}
	}

	switch {
	case batch.FixtureCreated:
		next.header = batch.Fixture
	case batch.FixtureChanged:
		next.header = next.header.WithProgress(batch.Fixture.Progress())
		next.header.HomeTeamID = batch.Fixture.HomeTeamID
		next.header.AwayTeamID = batch.Fixture.AwayTeamID
	}

	for _, entry := range batch.Events.Delete {
		delete(next.events, entry.Key)
	}
	for _, entry := range batch.Stats.Delete {
		delete(next.stats, entry.Record.PlayerID)
	}
	for _, entry := range batch.Players.Delete {
		delete(next.players, entry.Record.ID)
		delete(next.stats, entry.Record.ID)
	}

	for _, team := range batch.Teams {
		team.Statistics = maps.Clone(team.Statistics)
		next.teams[team.Side] = team
		switch team.Side {
		case matchteam.SideHome:
			next.header.HomeTeamID = team.ID
		case matchteam.SideAway:
			next.header.AwayTeamID = team.ID
		}
	}
	for _, entry := range batch.Players.Create {
		next.players[entry.Record.ID] = entry.Record
	}
	for _, update := range batch.Players.Update {
		next.players[update.Record.ID] = update.Record
	}

	var result bundle.CommitResult
	writeEvent := func(event matchevent.Event) {
		if err := event.Validate(); err != nil {
			placeholder := matchevent.Placeholder(event)
			next.events[event.Sequence] = placeholder
			result.Placeholders = append(result.Placeholders, bundle.PlaceholderEvent{Event: placeholder, Cause: err.Error()})
			return
		}
		next.events[event.Sequence] = event
	}
	for _, entry := range batch.Events.Create {
		writeEvent(entry.Record)
	}
	for _, update := range batch.Events.Update {
		writeEvent(update.Record)
	}

	for _, entry := range batch.Stats.Create {
		entry.Record.Counters = maps.Clone(entry.Record.Counters)
		next.stats[entry.Record.PlayerID] = entry.Record
	}
	for _, update := range batch.Stats.Update {
		update.Record.Counters = maps.Clone(update.Record.Counters)
		next.stats[update.Record.PlayerID] = update.Record
	}

	r.fixtures[externalID] = next
	return result, nil
}

func (s *storedFixture) clone() *storedFixture {
	return &storedFixture{
		header:  s.header,
		teams:   maps.Clone(s.teams),
		players: maps.Clone(s.players),
		events:  maps.Clone(s.events),
		stats:   maps.Clone(s.stats),
	}
}
