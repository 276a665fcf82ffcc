package usecase

import (
	"slices"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/lineupsim"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
)

// sideResolver maps a feed team id to the fixture side it plays on.
type sideResolver func(teamExternalID *int64) (matchteam.Side, bool)

// headerSideResolver resolves sides from the home and away ids of the fixture header.
func headerSideResolver(header ExternalFixtureHeader) sideResolver {
	return func(teamExternalID *int64) (matchteam.Side, bool) {
		if teamExternalID == nil {
			return "", false
		}
		switch {
		case header.Home.ExternalID != nil && *header.Home.ExternalID == *teamExternalID:
			return matchteam.SideHome, true
		case header.Away.ExternalID != nil && *header.Away.ExternalID == *teamExternalID:
			return matchteam.SideAway, true
		}
		return "", false
	}
}

// seedLineupState builds the kick-off membership of both squads from the published lineups.
func seedLineupState(lineups []ExternalLineup, resolve sideResolver) lineupsim.State {
	keys := map[matchteam.Side][2][]identity.Key{}
	for _, lineup := range lineups {
		side, ok := resolve(lineup.Team.ExternalID)
		if !ok {
			continue
		}
		sets := keys[side]
		sets[0] = append(sets[0], lineupKeys(lineup.StartXI)...)
		sets[1] = append(sets[1], lineupKeys(lineup.Substitutes)...)
		keys[side] = sets
	}

	home, away := keys[matchteam.SideHome], keys[matchteam.SideAway]
	return lineupsim.New(home[0], home[1], away[0], away[1])
}

func lineupKeys(players []ExternalLineupPlayer) []identity.Key {
	out := make([]identity.Key, 0, len(players))
	for _, entry := range players {
		key := identity.Generate(entry.ExternalID, entry.Name)
		if key.IsZero() {
			continue
		}
		out = append(out, key)
	}
	return out
}

// NormalizeSubstitutions replays substitution events in sequence order and rewrites them so
// the player slot holds the incoming player and the assist slot the outgoing one. Events that
// cannot be classified are left as they are and reported.
func NormalizeSubstitutions(events []matchevent.Event, initial lineupsim.State, resolve sideResolver) ([]matchevent.Event, lineupsim.State, anomaly.List) {
	var anomalies anomaly.List
	out := slices.Clone(events)

	order := make([]int, 0, len(out))
	for i := range out {
		if out[i].IsSubstitution() {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return out[a].Sequence - out[b].Sequence
	})

	state := initial
	for _, idx := range order {
		event := out[idx]

		side, ok := resolve(event.TeamExternalID)
		if !ok {
			anomalies.Warn(anomaly.CodeSubstitutionUnresolvedTeam, "substitution team is not part of the fixture", map[string]any{
				"sequence":         event.Sequence,
				"team_external_id": derefInt64(event.TeamExternalID),
			})
			continue
		}
		if !event.Player.Present() || !event.Assist.Present() {
			anomalies.Warn(anomaly.CodeSubstitutionMissingPlayer, "substitution is missing a player slot", map[string]any{
				"sequence": event.Sequence,
				"player":   event.Player.Key.String(),
				"assist":   event.Assist.Key.String(),
			})
			continue
		}

		for _, key := range []identity.Key{event.Player.Key, event.Assist.Key} {
			if !state.Known(key) {
				state = state.WithBenchPlayer(side, key)
			}
		}

		first := state.Membership(side, event.Player.Key)
		second := state.Membership(side, event.Assist.Key)

		var incoming, outgoing matchevent.Participant
		switch {
		case first == lineupsim.OnBench && second == lineupsim.OnPitch:
			incoming, outgoing = event.Player, event.Assist
		case first == lineupsim.OnPitch && second == lineupsim.OnBench:
			incoming, outgoing = event.Assist, event.Player
		case first == second:
			anomalies.Warn(anomaly.CodeSubstitutionSameSide, "both substitution players are in the same set", map[string]any{
				"sequence":   event.Sequence,
				"side":       string(side),
				"membership": first.String(),
				"player":     event.Player.Key.String(),
				"assist":     event.Assist.Key.String(),
			})
			continue
		default:
			anomalies.Warn(anomaly.CodeSubstitutionMissingPlayer, "substitution player does not belong to the team", map[string]any{
				"sequence": event.Sequence,
				"side":     string(side),
				"player":   event.Player.Key.String(),
				"assist":   event.Assist.Key.String(),
			})
			continue
		}

		next, err := state.Substitute(side, incoming.Key, outgoing.Key)
		if err != nil {
			anomalies.Warn(anomaly.CodeSubstitutionMissingPlayer, err.Error(), map[string]any{
				"sequence": event.Sequence,
			})
			continue
		}
		state = next

		event.Player = incoming
		event.Assist = outgoing
		out[idx] = event
	}

	return out, state, anomalies
}
