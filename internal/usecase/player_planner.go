package usecase

import (
	"strings"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/domain/changeplan"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchplayer"
	"github.com/riskibarqy/match-reconciler/internal/platform/id"
)

const familyPlayers = "match_players"

// planPlayers diffs the collected snapshots against the stored players of the fixture.
func planPlayers(ws bundle.WorkingSet, snapshots map[identity.Key]PlayerSnapshot, ids id.Generator) (bundle.PlayerChanges, anomaly.List, error) {
	var anomalies anomaly.List

	teamIDs := make(map[identity.Key]string, len(snapshots))
	for key, snap := range snapshots {
		if snap.TeamExternalID == nil {
			continue
		}
		team, ok := ws.TeamByExternalID(*snap.TeamExternalID)
		if !ok {
			anomalies.Warn(anomaly.CodeUnresolvedTeam, "player team is not part of the fixture", map[string]any{
				"family":           familyPlayers,
				"key":              key.String(),
				"team_external_id": *snap.TeamExternalID,
			})
			continue
		}
		teamIDs[key] = team.ID
	}

	rules := changeplan.Rules[identity.Key, PlayerSnapshot, matchplayer.Player]{
		Family:       familyPlayers,
		Compare:      identity.Compare,
		Format:       identity.Key.String,
		IncomingName: func(snap PlayerSnapshot) string { return snap.RawName },
		ExistingName: func(player matchplayer.Player) string { return player.DisplayName },
		Create: func(key identity.Key, snap PlayerSnapshot) (matchplayer.Player, error) {
			playerID, err := ids.NewID()
			if err != nil {
				return matchplayer.Player{}, err
			}
			return matchplayer.Player{
				ID:           playerID,
				FixtureID:    ws.Fixture.ID,
				TeamID:       teamIDs[key],
				Key:          key,
				CreationKey:  key,
				ExternalID:   copyInt64(snap.ExternalID),
				DisplayName:  snap.RawName,
				ShirtNumber:  copyInt(snap.ShirtNumber),
				Position:     snap.Position,
				GridSlot:     snap.GridSlot,
				IsSubstitute: snap.IsSubstitute,
				NonLineup:    snap.NonLineup,
			}, nil
		},
		Merge: func(key identity.Key, snap PlayerSnapshot, existing matchplayer.Player) (matchplayer.Player, bool) {
			merged := mergePlayer(existing, key, snap, teamIDs[key])
			return merged, !merged.SameValues(existing)
		},
	}

	changes, planned, err := changeplan.Plan(rules, snapshots, ws.Players)
	anomalies.Merge(planned)
	if err != nil {
		return bundle.PlayerChanges{}, anomalies, err
	}
	return changes, anomalies, nil
}

// mergePlayer overlays the snapshot onto the stored player. Upstream nulls never erase a
// value that was already captured.
func mergePlayer(existing matchplayer.Player, key identity.Key, snap PlayerSnapshot, teamID string) matchplayer.Player {
	merged := existing
	merged.Key = key
	if teamID != "" {
		merged.TeamID = teamID
	}
	if snap.ExternalID != nil {
		merged.ExternalID = copyInt64(snap.ExternalID)
	}
	if name := strings.TrimSpace(snap.RawName); name != "" {
		merged.DisplayName = name
	}
	if snap.ShirtNumber != nil {
		merged.ShirtNumber = copyInt(snap.ShirtNumber)
	}
	if snap.Position != "" {
		merged.Position = snap.Position
	}
	if snap.GridSlot != "" {
		merged.GridSlot = snap.GridSlot
	}
	merged.IsSubstitute = snap.IsSubstitute
	merged.NonLineup = snap.NonLineup
	return merged
}
