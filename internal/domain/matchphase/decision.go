package matchphase

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/match-reconciler/internal/domain/fixture"
)

type Phase string

const (
	PreMatch  Phase = "pre_match"
	Live      Phase = "live"
	PostMatch Phase = "post_match"
)

func ParsePhase(raw string) (Phase, error) {
	switch Phase(strings.ToLower(strings.TrimSpace(raw))) {
	case PreMatch:
		return PreMatch, nil
	case Live:
		return Live, nil
	case PostMatch:
		return PostMatch, nil
	default:
		return "", fmt.Errorf("invalid phase %q: valid values are %s, %s, %s", raw, PreMatch, Live, PostMatch)
	}
}

type Action string

const (
	ActionContinue Action = "continue"
	ActionSwitch   Action = "switch"
	ActionStop     Action = "stop"
)

const (
	ReadyForLiveLead = 5 * time.Minute
	StopPollingAfter = 60
)

type Input struct {
	StatusShort  string
	KickoffAt    time.Time
	Elapsed      *int
	LineupCached bool
	Current      Phase
	Now          time.Time
}

// Decision is what the scheduler needs to pick the next polling job.
type Decision struct {
	Phase              Phase
	StatusShort        string
	KickoffAt          time.Time
	ReadyForLive       *bool
	ShouldStopPolling  *bool
	ElapsedMinutes     *int
	MinutesSinceFinish *int
	// Inconclusive is set for unknown statuses; Phase then echoes the current phase.
	Inconclusive bool
}

// NextPhase is the phase whose cadence should run next.
func (d Decision) NextPhase() Phase {
	if d.Phase == PreMatch && d.ReadyForLive != nil && *d.ReadyForLive {
		return Live
	}
	return d.Phase
}

func (d Decision) StopPolling() bool {
	return d.ShouldStopPolling != nil && *d.ShouldStopPolling
}

func (d Decision) Action(current Phase) Action {
	if d.StopPolling() {
		return ActionStop
	}
	if d.NextPhase() != current {
		return ActionSwitch
	}
	return ActionContinue
}

// Decide classifies the freshly synced fixture. It has no side effects.
func Decide(in Input) Decision {
	status := fixture.NormalizeStatus(in.StatusShort)
	decision := Decision{
		StatusShort: status,
		KickoffAt:   in.KickoffAt,
	}

	switch {
	case fixture.IsLiveStatus(status):
		decision.Phase = Live
		decision.ElapsedMinutes = copyInt(in.Elapsed)
	case fixture.IsFinishedStatus(status):
		decision.Phase = PostMatch
		decision.ElapsedMinutes = copyInt(in.Elapsed)
		minutes := minutesSinceFinish(in.KickoffAt, in.Elapsed, in.Now)
		stop := minutes > StopPollingAfter
		decision.MinutesSinceFinish = &minutes
		decision.ShouldStopPolling = &stop
	case fixture.IsPreMatchStatus(status):
		decision.Phase = PreMatch
		ready := in.LineupCached && !in.KickoffAt.IsZero() && in.KickoffAt.Sub(in.Now) <= ReadyForLiveLead
		decision.ReadyForLive = &ready
	default:
		decision.Inconclusive = true
		decision.Phase = in.Current
		if decision.Phase == "" {
			decision.Phase = PreMatch
		}
	}

	return decision
}

// minutesSinceFinish approximates the final whistle as kickoff plus elapsed minutes.
func minutesSinceFinish(kickoff time.Time, elapsed *int, now time.Time) int {
	if kickoff.IsZero() {
		return 0
	}
	finish := kickoff
	if elapsed != nil && *elapsed > 0 {
		finish = finish.Add(time.Duration(*elapsed) * time.Minute)
	}
	minutes := int(now.Sub(finish) / time.Minute)
	if minutes < 0 {
		return 0
	}
	return minutes
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
