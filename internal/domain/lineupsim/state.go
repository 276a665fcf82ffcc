package lineupsim

import (
	"fmt"
	"maps"
	"slices"

	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
)

type Membership int

const (
	Absent Membership = iota
	OnPitch
	OnBench
)

func (m Membership) String() string {
	switch m {
	case OnPitch:
		return "pitch"
	case OnBench:
		return "bench"
	default:
		return "absent"
	}
}

type keySet map[identity.Key]struct{}

type squad struct {
	pitch keySet
	bench keySet
}

func (s squad) clone() squad {
	return squad{pitch: maps.Clone(s.pitch), bench: maps.Clone(s.bench)}
}

// State is who is on the pitch and on the bench for both teams at one point of the replay.
// It is a value: transitions return a new State and never touch the receiver.
type State struct {
	home squad
	away squad
}

func New(homeStart, homeBench, awayStart, awayBench []identity.Key) State {
	return State{
		home: squad{pitch: toSet(homeStart), bench: toSet(homeBench)},
		away: squad{pitch: toSet(awayStart), bench: toSet(awayBench)},
	}
}

func (s State) squad(side matchteam.Side) squad {
	if side == matchteam.SideAway {
		return s.away
	}
	return s.home
}

func (s State) with(side matchteam.Side, sq squad) State {
	if side == matchteam.SideAway {
		s.away = sq
	} else {
		s.home = sq
	}
	return s
}

func (s State) Membership(side matchteam.Side, key identity.Key) Membership {
	sq := s.squad(side)
	if _, ok := sq.pitch[key]; ok {
		return OnPitch
	}
	if _, ok := sq.bench[key]; ok {
		return OnBench
	}
	return Absent
}

// Known reports whether key is in any of the four sets.
func (s State) Known(key identity.Key) bool {
	return s.Membership(matchteam.SideHome, key) != Absent || s.Membership(matchteam.SideAway, key) != Absent
}

// WithBenchPlayer adds a player first seen in the event feed to a team's bench.
func (s State) WithBenchPlayer(side matchteam.Side, key identity.Key) State {
	if key.IsZero() || s.Membership(side, key) != Absent {
		return s
	}
	sq := s.squad(side).clone()
	if sq.bench == nil {
		sq.bench = make(keySet)
	}
	sq.bench[key] = struct{}{}
	return s.with(side, sq)
}

// Substitute moves incoming from the bench to the pitch and outgoing the other way.
func (s State) Substitute(side matchteam.Side, incoming, outgoing identity.Key) (State, error) {
	if got := s.Membership(side, incoming); got != OnBench {
		return s, fmt.Errorf("substitute %s on %s side: incoming player is %s, want bench", incoming, side, got)
	}
	if got := s.Membership(side, outgoing); got != OnPitch {
		return s, fmt.Errorf("substitute %s on %s side: outgoing player is %s, want pitch", outgoing, side, got)
	}

	sq := s.squad(side).clone()
	delete(sq.bench, incoming)
	delete(sq.pitch, outgoing)
	sq.pitch[incoming] = struct{}{}
	sq.bench[outgoing] = struct{}{}
	return s.with(side, sq), nil
}

// OnPitch lists the players currently on the pitch for side, sorted.
func (s State) OnPitch(side matchteam.Side) []identity.Key {
	return sortedSet(s.squad(side).pitch)
}

func (s State) OnBench(side matchteam.Side) []identity.Key {
	return sortedSet(s.squad(side).bench)
}

func toSet(keys []identity.Key) keySet {
	out := make(keySet, len(keys))
	for _, key := range keys {
		if key.IsZero() {
			continue
		}
		out[key] = struct{}{}
	}
	return out
}

func sortedSet(set keySet) []identity.Key {
	out := make([]identity.Key, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	slices.SortFunc(out, identity.Compare)
	return out
}
