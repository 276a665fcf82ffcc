package usecase

import (
	"maps"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/domain/changeplan"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/playerstats"
	"github.com/riskibarqy/match-reconciler/internal/platform/id"
)

const familyStats = "player_match_statistics"

// planStats diffs the player statistics feed against the stored lines. An empty feed plans
// nothing: statistics are often published late and a missing array must not wipe stored lines.
func planStats(ws bundle.WorkingSet, snapshot ExternalMatchSnapshot, ids id.Generator) (bundle.StatChanges, anomaly.List, error) {
	var anomalies anomaly.List
	if !snapshot.hasPlayerStatistics() {
		return bundle.StatChanges{}, anomalies, nil
	}

	incoming := make(map[identity.Key]ExternalPlayerStatistics)
	for _, team := range snapshot.PlayerStatistics {
		for _, entry := range team.Players {
			key := identity.Generate(entry.ExternalID, entry.Name)
			if key.IsZero() {
				continue
			}
			if _, dup := incoming[key]; dup {
				continue
			}
			if _, ok := ws.Players[key]; !ok {
				anomalies.Warn(anomaly.CodeStatisticsWithoutPlayer, "statistics line has no match player", map[string]any{
					"family": familyStats,
					"key":    key.String(),
				})
				continue
			}
			incoming[key] = entry
		}
	}

	rules := changeplan.Rules[identity.Key, ExternalPlayerStatistics, playerstats.Stat]{
		Family:  familyStats,
		Compare: identity.Compare,
		Format:  identity.Key.String,
		Create: func(key identity.Key, entry ExternalPlayerStatistics) (playerstats.Stat, error) {
			statID, err := ids.NewID()
			if err != nil {
				return playerstats.Stat{}, err
			}
			stat := statFromFeed(ws, key, entry)
			stat.ID = statID
			stat.FixtureID = ws.Fixture.ID
			return stat, nil
		},
		Merge: func(key identity.Key, entry ExternalPlayerStatistics, existing playerstats.Stat) (playerstats.Stat, bool) {
			merged := statFromFeed(ws, key, entry)
			merged.ID = existing.ID
			merged.FixtureID = existing.FixtureID
			if merged.Minutes == nil {
				merged.Minutes = existing.Minutes
			}
			if merged.Rating == nil {
				merged.Rating = existing.Rating
			}
			return merged, !merged.SameValues(existing)
		},
	}

	changes, planned, err := changeplan.Plan(rules, incoming, ws.Stats)
	anomalies.Merge(planned)
	if err != nil {
		return bundle.StatChanges{}, anomalies, err
	}
	return changes, anomalies, nil
}

func statFromFeed(ws bundle.WorkingSet, key identity.Key, entry ExternalPlayerStatistics) playerstats.Stat {
	player := ws.Players[key]
	substitute := player.IsSubstitute
	if entry.Substitute != nil {
		substitute = *entry.Substitute
	}

	var rating *float64
	if entry.Rating != nil {
		value := *entry.Rating
		rating = &value
	}

	return playerstats.Stat{
		PlayerID:   player.ID,
		TeamID:     player.TeamID,
		Key:        key,
		Minutes:    copyInt(entry.Minutes),
		Rating:     rating,
		Captain:    entry.Captain,
		Substitute: substitute,
		Counters:   maps.Clone(entry.Counters),
	}
}
