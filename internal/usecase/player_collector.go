package usecase

import (
	"strings"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
)

const expectedStarters = 11

type SourceOrigin string

const (
	SourceLineup     SourceOrigin = "lineup"
	SourceEvent      SourceOrigin = "event"
	SourceStatistics SourceOrigin = "statistics"
)

// PlayerSnapshot is one player as seen by this tick's feed. It is never stored directly.
type PlayerSnapshot struct {
	Key            identity.Key
	ExternalID     *int64
	RawName        string
	ShirtNumber    *int
	Position       string
	GridSlot       string
	TeamExternalID *int64
	IsSubstitute   bool
	NonLineup      bool
	Source         SourceOrigin
}

// CollectPlayerSnapshots merges the player mentions of all sub-feeds into one map. A key
// seen in several sources keeps the entry of the first source in lineup, event, statistics
// order.
func CollectPlayerSnapshots(snapshot ExternalMatchSnapshot) (map[identity.Key]PlayerSnapshot, anomaly.List) {
	var anomalies anomaly.List
	out := make(map[identity.Key]PlayerSnapshot)

	checkLineupShape(snapshot.Lineups, &anomalies)

	for _, lineup := range snapshot.Lineups {
		addLineupPlayers(out, lineup.Team.ExternalID, lineup.StartXI, false)
		addLineupPlayers(out, lineup.Team.ExternalID, lineup.Substitutes, true)
	}

	for _, event := range snapshot.Events {
		for _, participant := range []ExternalParticipant{event.Player, event.Assist} {
			key := identity.Generate(participant.ExternalID, participant.Name)
			if key.IsZero() {
				continue
			}
			if _, exists := out[key]; exists {
				continue
			}
			out[key] = PlayerSnapshot{
				Key:            key,
				ExternalID:     copyInt64(participant.ExternalID),
				RawName:        strings.TrimSpace(participant.Name),
				TeamExternalID: copyInt64(event.Team.ExternalID),
				IsSubstitute:   true,
				NonLineup:      true,
				Source:         SourceEvent,
			}
		}
	}

	for _, team := range snapshot.PlayerStatistics {
		for _, entry := range team.Players {
			key := identity.Generate(entry.ExternalID, entry.Name)
			if key.IsZero() {
				continue
			}
			if _, exists := out[key]; exists {
				continue
			}
			out[key] = PlayerSnapshot{
				Key:            key,
				ExternalID:     copyInt64(entry.ExternalID),
				RawName:        strings.TrimSpace(entry.Name),
				ShirtNumber:    copyInt(entry.Number),
				Position:       strings.TrimSpace(entry.Position),
				TeamExternalID: copyInt64(team.Team.ExternalID),
				IsSubstitute:   statisticsSubstituteFlag(entry),
				NonLineup:      true,
				Source:         SourceStatistics,
			}
		}
	}

	return out, anomalies
}

// statisticsSubstituteFlag treats name-only statistics players as substitutes so name noise
// cannot invent extra starters.
func statisticsSubstituteFlag(entry ExternalPlayerStatistics) bool {
	if entry.ExternalID == nil {
		return true
	}
	if entry.Substitute == nil {
		return true
	}
	return *entry.Substitute
}

func addLineupPlayers(out map[identity.Key]PlayerSnapshot, teamExternalID *int64, players []ExternalLineupPlayer, substitute bool) {
	for _, entry := range players {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			continue
		}
		key := identity.Generate(entry.ExternalID, name)
		if _, exists := out[key]; exists {
			continue
		}
		out[key] = PlayerSnapshot{
			Key:            key,
			ExternalID:     copyInt64(entry.ExternalID),
			RawName:        name,
			ShirtNumber:    copyInt(entry.Number),
			Position:       strings.TrimSpace(entry.Position),
			GridSlot:       strings.TrimSpace(entry.Grid),
			TeamExternalID: copyInt64(teamExternalID),
			IsSubstitute:   substitute,
			Source:         SourceLineup,
		}
	}
}

func checkLineupShape(lineups []ExternalLineup, anomalies *anomaly.List) {
	if len(lineups) == 0 {
		anomalies.Info(anomaly.CodeLineupUnavailable, "lineups not published yet", nil)
		return
	}
	if len(lineups) != 2 {
		anomalies.Warn(anomaly.CodeLineupStarterCount, "lineup does not cover both teams", map[string]any{
			"teams": len(lineups),
		})
	}
	for _, lineup := range lineups {
		if len(lineup.StartXI) == expectedStarters {
			continue
		}
		anomalies.Warn(anomaly.CodeLineupStarterCount, "lineup does not declare a full starting XI", map[string]any{
			"team_external_id": derefInt64(lineup.Team.ExternalID),
			"team":             lineup.Team.Name,
			"starters":         len(lineup.StartXI),
		})
	}
}

// lineupComplete reports a lineup the live cadence can rely on: both teams, eleven starters
// each, and every slot id-based.
func lineupComplete(lineups []ExternalLineup) bool {
	if len(lineups) != 2 {
		return false
	}
	for _, lineup := range lineups {
		if len(lineup.StartXI) != expectedStarters {
			return false
		}
		for _, group := range [][]ExternalLineupPlayer{lineup.StartXI, lineup.Substitutes} {
			for _, entry := range group {
				if entry.ExternalID == nil {
					return false
				}
			}
		}
	}
	return true
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
