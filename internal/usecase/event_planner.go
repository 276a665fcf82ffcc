package usecase

import (
	"strconv"
	"strings"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/domain/changeplan"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/platform/id"
)

const familyEvents = "match_events"

// buildEventDrafts converts feed events into unsaved records keyed by sequence. A feed without
// explicit sequence numbers is numbered by position; the first event wins a duplicated number.
func buildEventDrafts(events []ExternalMatchEvent) ([]matchevent.Event, anomaly.List) {
	sequences := make([]int, 0, len(events))
	drafts := make([]matchevent.Event, 0, len(events))
	seen := make(map[int]struct{}, len(events))

	for i, item := range events {
		sequence := i
		if item.Sequence != nil {
			sequence = *item.Sequence
		}
		sequences = append(sequences, sequence)
		if _, dup := seen[sequence]; dup {
			continue
		}
		seen[sequence] = struct{}{}

		drafts = append(drafts, matchevent.Event{
			Sequence:       sequence,
			Elapsed:        item.Elapsed,
			Extra:          copyInt(item.Extra),
			Type:           strings.TrimSpace(item.Type),
			Detail:         strings.TrimSpace(item.Detail),
			Comments:       strings.TrimSpace(item.Comments),
			TeamExternalID: copyInt64(item.Team.ExternalID),
			Player:         participantFromFeed(item.Player),
			Assist:         participantFromFeed(item.Assist),
		})
	}

	return drafts, changeplan.ValidateSequence(familyEvents, sequences)
}

func participantFromFeed(in ExternalParticipant) matchevent.Participant {
	key := identity.Generate(in.ExternalID, in.Name)
	if key.IsZero() {
		return matchevent.Participant{}
	}
	return matchevent.Participant{
		Key:  key,
		Name: strings.TrimSpace(in.Name),
	}
}

// resolveEventReferences fills team and player ids from the working set. It runs after the
// player plan has been applied so newly created players resolve too.
func resolveEventReferences(ws bundle.WorkingSet, drafts []matchevent.Event) []matchevent.Event {
	out := make([]matchevent.Event, len(drafts))
	for i, draft := range drafts {
		if draft.TeamExternalID != nil {
			if team, ok := ws.TeamByExternalID(*draft.TeamExternalID); ok {
				draft.TeamID = team.ID
			}
		}
		draft.Player.PlayerID = resolveParticipant(ws, draft.Player)
		draft.Assist.PlayerID = resolveParticipant(ws, draft.Assist)
		out[i] = draft
	}
	return out
}

func resolveParticipant(ws bundle.WorkingSet, participant matchevent.Participant) string {
	if !participant.Present() {
		return ""
	}
	playerID, _ := ws.PlayerID(participant.Key)
	return playerID
}

func planEvents(ws bundle.WorkingSet, drafts []matchevent.Event, ids id.Generator) (bundle.EventChanges, anomaly.List, error) {
	incoming := make(map[int]matchevent.Event, len(drafts))
	for _, draft := range drafts {
		incoming[draft.Sequence] = draft
	}

	rules := changeplan.Rules[int, matchevent.Event, matchevent.Event]{
		Family:  familyEvents,
		Compare: changeplan.CompareSequence,
		Format:  strconv.Itoa,
		Create: func(_ int, draft matchevent.Event) (matchevent.Event, error) {
			eventID, err := ids.NewID()
			if err != nil {
				return matchevent.Event{}, err
			}
			draft.ID = eventID
			draft.FixtureID = ws.Fixture.ID
			return draft, nil
		},
		Merge: func(_ int, draft matchevent.Event, existing matchevent.Event) (matchevent.Event, bool) {
			draft.ID = existing.ID
			draft.FixtureID = existing.FixtureID
			return draft, !draft.SameValues(existing)
		},
		Orphans: changeplan.SequenceOrphans,
	}

	return changeplan.Plan(rules, incoming, ws.EventsBySequence())
}
