package bundle

import (
	"slices"

	"github.com/riskibarqy/match-reconciler/internal/domain/changeplan"
	"github.com/riskibarqy/match-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchplayer"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
	"github.com/riskibarqy/match-reconciler/internal/domain/playerstats"
)

type (
	PlayerChanges = changeplan.ChangeSet[identity.Key, matchplayer.Player]
	EventChanges  = changeplan.ChangeSet[int, matchevent.Event]
	StatChanges   = changeplan.ChangeSet[identity.Key, playerstats.Stat]
)

// WorkingSet holds every stored record of one fixture for the duration of a tick. Planners
// apply their change sets to it so later stages see earlier results without re-reading storage.
type WorkingSet struct {
	Fixture fixture.Header
	Teams   map[matchteam.Side]matchteam.Team
	Players map[identity.Key]matchplayer.Player
	Events  []matchevent.Event
	Stats   map[identity.Key]playerstats.Stat
}

func New(header fixture.Header) WorkingSet {
	return WorkingSet{
		Fixture: header,
		Teams:   make(map[matchteam.Side]matchteam.Team, 2),
		Players: make(map[identity.Key]matchplayer.Player),
		Stats:   make(map[identity.Key]playerstats.Stat),
	}
}

func (w *WorkingSet) ensureMaps() {
	if w.Teams == nil {
		w.Teams = make(map[matchteam.Side]matchteam.Team, 2)
	}
	if w.Players == nil {
		w.Players = make(map[identity.Key]matchplayer.Player)
	}
	if w.Stats == nil {
		w.Stats = make(map[identity.Key]playerstats.Stat)
	}
}

func (w WorkingSet) Team(side matchteam.Side) (matchteam.Team, bool) {
	team, ok := w.Teams[side]
	return team, ok
}

func (w WorkingSet) TeamByExternalID(externalID int64) (matchteam.Team, bool) {
	for _, side := range []matchteam.Side{matchteam.SideHome, matchteam.SideAway} {
		team, ok := w.Teams[side]
		if ok && team.ExternalID != nil && *team.ExternalID == externalID {
			return team, true
		}
	}
	return matchteam.Team{}, false
}

// SideOf resolves a team uid to its side.
func (w WorkingSet) SideOf(teamID string) (matchteam.Side, bool) {
	if teamID == "" {
		return "", false
	}
	for side, team := range w.Teams {
		if team.ID == teamID {
			return side, true
		}
	}
	return "", false
}

func (w *WorkingSet) SetTeam(team matchteam.Team) {
	w.ensureMaps()
	w.Teams[team.Side] = team
	switch team.Side {
	case matchteam.SideHome:
		w.Fixture.HomeTeamID = team.ID
	case matchteam.SideAway:
		w.Fixture.AwayTeamID = team.ID
	}
}

func (w WorkingSet) PlayerID(key identity.Key) (string, bool) {
	player, ok := w.Players[key]
	if !ok {
		return "", false
	}
	return player.ID, true
}

// EventsBySequence indexes the stored events for the event planner.
func (w WorkingSet) EventsBySequence() map[int]matchevent.Event {
	out := make(map[int]matchevent.Event, len(w.Events))
	for _, event := range w.Events {
		out[event.Sequence] = event
	}
	return out
}

// ApplyPlayerChanges re-keys fallback matches and cascades player deletions to their stats.
func (w *WorkingSet) ApplyPlayerChanges(changes PlayerChanges) {
	w.ensureMaps()

	for _, entry := range changes.Delete {
		delete(w.Players, entry.Key)
		delete(w.Stats, entry.Key)
	}
	for _, update := range changes.Update {
		if update.Rekeyed() {
			delete(w.Players, update.PreviousKey)
			if stat, ok := w.Stats[update.PreviousKey]; ok {
				delete(w.Stats, update.PreviousKey)
				stat.Key = update.Key
				w.Stats[update.Key] = stat
			}
		}
		w.Players[update.Key] = update.Record
	}
	for _, entry := range changes.Create {
		w.Players[entry.Key] = entry.Record
	}
}

func (w *WorkingSet) ApplyEventChanges(changes EventChanges) {
	index := w.EventsBySequence()
	for _, entry := range changes.Delete {
		delete(index, entry.Key)
	}
	for _, update := range changes.Update {
		index[update.Key] = update.Record
	}
	for _, entry := range changes.Create {
		index[entry.Key] = entry.Record
	}

	events := make([]matchevent.Event, 0, len(index))
	for _, event := range index {
		events = append(events, event)
	}
	slices.SortFunc(events, func(a, b matchevent.Event) int {
		return changeplan.CompareSequence(a.Sequence, b.Sequence)
	})
	w.Events = events
}

// ReplaceEvents swaps events that storage had to write as placeholders.
func (w *WorkingSet) ReplaceEvents(replacements []matchevent.Event) {
	if len(replacements) == 0 {
		return
	}
	bySequence := make(map[int]matchevent.Event, len(replacements))
	for _, event := range replacements {
		bySequence[event.Sequence] = event
	}
	for i, event := range w.Events {
		if replacement, ok := bySequence[event.Sequence]; ok {
			w.Events[i] = replacement
		}
	}
}

func (w *WorkingSet) ApplyStatChanges(changes StatChanges) {
	w.ensureMaps()

	for _, entry := range changes.Delete {
		delete(w.Stats, entry.Key)
	}
	for _, update := range changes.Update {
		if update.Rekeyed() {
			delete(w.Stats, update.PreviousKey)
		}
		w.Stats[update.Key] = update.Record
	}
	for _, entry := range changes.Create {
		w.Stats[entry.Key] = entry.Record
	}
}

// Sequences lists the stored event sequences in order.
func (w WorkingSet) Sequences() []int {
	out := make([]int, 0, len(w.Events))
	for _, event := range w.Events {
		out = append(out, event.Sequence)
	}
	return out
}
