package usecase

import (
	"slices"
	"testing"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/lineupsim"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
)

func substitutionFixture() (ExternalFixtureHeader, lineupsim.State, sideResolver) {
	header := ExternalFixtureHeader{
		ExternalID: 9001,
		Home:       ExternalTeam{ExternalID: int64Ptr(33)},
		Away:       ExternalTeam{ExternalID: int64Ptr(34)},
	}
	resolve := headerSideResolver(header)
	lineups := []ExternalLineup{
		fullLineup(header.Home, 100),
		fullLineup(header.Away, 200),
	}
	return header, seedLineupState(lineups, resolve), resolve
}

func substEvent(sequence int, team int64, player, assist int64) matchevent.Event {
	return matchevent.Event{
		Sequence:       sequence,
		Type:           matchevent.TypeSubst,
		TeamExternalID: int64Ptr(team),
		Player:         matchevent.Participant{Key: identity.FromID(player)},
		Assist:         matchevent.Participant{Key: identity.FromID(assist)},
	}
}

func TestNormalizeSubstitutions_BothSlotOrders(t *testing.T) {
	t.Parallel()

	_, state, resolve := substitutionFixture()
	events := []matchevent.Event{
		// outgoing first, incoming second
		substEvent(0, 33, 100, 111),
		// incoming first, outgoing second
		substEvent(1, 34, 211, 200),
	}

	got, final, anomalies := NormalizeSubstitutions(events, state, resolve)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}

	if got[0].Player.Key != identity.FromID(111) || got[0].Assist.Key != identity.FromID(100) {
		t.Fatalf("swapped slots must be rewritten to incoming/outgoing: %+v", got[0])
	}
	if got[1].Player.Key != identity.FromID(211) || got[1].Assist.Key != identity.FromID(200) {
		t.Fatalf("already ordered slots must stay: %+v", got[1])
	}
	if events[0].Player.Key != identity.FromID(100) {
		t.Fatalf("input slice must not be modified")
	}

	if final.Membership(matchteam.SideHome, identity.FromID(111)) != lineupsim.OnPitch ||
		final.Membership(matchteam.SideHome, identity.FromID(100)) != lineupsim.OnBench {
		t.Fatalf("home substitution must be applied to the state")
	}
	if final.Membership(matchteam.SideAway, identity.FromID(211)) != lineupsim.OnPitch {
		t.Fatalf("away substitution must be applied to the state")
	}
	if state.Membership(matchteam.SideHome, identity.FromID(100)) != lineupsim.OnPitch {
		t.Fatalf("initial state must not change")
	}
}

func TestNormalizeSubstitutions_SubbedInPlayerLeavesAgain(t *testing.T) {
	t.Parallel()

	_, state, resolve := substitutionFixture()
	events := []matchevent.Event{
		{Sequence: 2, Type: "Goal", TeamExternalID: int64Ptr(33)},
		// given out of order on purpose; replay follows the sequence
		substEvent(3, 33, 111, 112),
		substEvent(1, 33, 100, 111),
	}

	got, final, anomalies := NormalizeSubstitutions(events, state, resolve)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}

	if got[2].Player.Key != identity.FromID(111) || got[2].Assist.Key != identity.FromID(100) {
		t.Fatalf("first substitution must bring 111 on: %+v", got[2])
	}
	if got[1].Player.Key != identity.FromID(112) || got[1].Assist.Key != identity.FromID(111) {
		t.Fatalf("second substitution must take 111 off again: %+v", got[1])
	}
	if got[0].Type != "Goal" {
		t.Fatalf("non-substitution events must pass through: %+v", got[0])
	}

	bench := final.OnBench(matchteam.SideHome)
	if !slices.Contains(bench, identity.FromID(100)) || !slices.Contains(bench, identity.FromID(111)) {
		t.Fatalf("both replaced players must end on the bench: %v", bench)
	}
	if final.Membership(matchteam.SideHome, identity.FromID(112)) != lineupsim.OnPitch {
		t.Fatalf("112 must end on the pitch")
	}
}

func TestNormalizeSubstitutions_Anomalies(t *testing.T) {
	t.Parallel()

	_, state, resolve := substitutionFixture()
	sameSet := substEvent(0, 33, 100, 101)
	unknownTeam := substEvent(1, 99, 100, 111)
	missingSlot := matchevent.Event{
		Sequence:       2,
		Type:           "subst",
		TeamExternalID: int64Ptr(33),
		Player:         matchevent.Participant{Key: identity.FromID(100)},
	}
	wrongTeam := substEvent(3, 33, 200, 111)

	got, _, anomalies := NormalizeSubstitutions([]matchevent.Event{sameSet, unknownTeam, missingSlot, wrongTeam}, state, resolve)

	if anomalies.Count(anomaly.CodeSubstitutionSameSide) != 1 {
		t.Fatalf("expected same-side anomaly: %v", anomalies.Codes())
	}
	if anomalies.Count(anomaly.CodeSubstitutionUnresolvedTeam) != 1 {
		t.Fatalf("expected unresolved team anomaly: %v", anomalies.Codes())
	}
	if anomalies.Count(anomaly.CodeSubstitutionMissingPlayer) != 2 {
		t.Fatalf("expected two missing player anomalies: %v", anomalies)
	}
	for i, event := range got {
		original := []matchevent.Event{sameSet, unknownTeam, missingSlot, wrongTeam}[i]
		if !event.SameValues(original) {
			t.Fatalf("unclassified event %d must be left unmodified: got=%+v want=%+v", i, event, original)
		}
	}
}

func TestNormalizeSubstitutions_EventOnlyPlayerJoinsBench(t *testing.T) {
	t.Parallel()

	_, state, resolve := substitutionFixture()
	got, final, anomalies := NormalizeSubstitutions([]matchevent.Event{substEvent(0, 34, 205, 999)}, state, resolve)

	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}
	if got[0].Player.Key != identity.FromID(999) || got[0].Assist.Key != identity.FromID(205) {
		t.Fatalf("unknown player must be treated as coming off the bench: %+v", got[0])
	}
	if final.Membership(matchteam.SideAway, identity.FromID(999)) != lineupsim.OnPitch {
		t.Fatalf("event-only player must end on the pitch")
	}
}
