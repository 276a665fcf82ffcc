package anomaly

import "sort"

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Code string

const (
	CodeLineupStarterCount         Code = "lineup_starter_count"
	CodeLineupUnavailable          Code = "lineup_unavailable"
	CodeFallbackNameMatch          Code = "fallback_name_match"
	CodeAmbiguousNameMatch         Code = "ambiguous_name_match"
	CodeMassDeletion               Code = "mass_deletion"
	CodeSequenceStart              Code = "sequence_start"
	CodeSequenceGap                Code = "sequence_gap"
	CodeSequenceDuplicate          Code = "sequence_duplicate"
	CodeSubstitutionSameSide       Code = "substitution_same_side"
	CodeSubstitutionUnresolvedTeam Code = "substitution_unresolved_team"
	CodeSubstitutionMissingPlayer  Code = "substitution_missing_player"
	CodeTeamStatisticsCount        Code = "team_statistics_count"
	CodeUnresolvedTeam             Code = "unresolved_team"
	CodeStatisticsWithoutPlayer    Code = "statistics_without_player"
	CodeEventPersistFailed         Code = "event_persist_failed"
	CodeUnknownStatus              Code = "unknown_status"
)

// Anomaly is a data-quality signal raised while reconciling; it never aborts a tick.
type Anomaly struct {
	Severity Severity
	Code     Code
	Message  string
	Context  map[string]any
}

// List collects anomalies in the order they were raised.
type List []Anomaly

func (l *List) Add(severity Severity, code Code, message string, context map[string]any) {
	*l = append(*l, Anomaly{
		Severity: severity,
		Code:     code,
		Message:  message,
		Context:  context,
	})
}

func (l *List) Warn(code Code, message string, context map[string]any) {
	l.Add(SeverityWarn, code, message, context)
}

func (l *List) Error(code Code, message string, context map[string]any) {
	l.Add(SeverityError, code, message, context)
}

func (l *List) Info(code Code, message string, context map[string]any) {
	l.Add(SeverityInfo, code, message, context)
}

func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

func (l List) Has(code Code) bool {
	return l.Count(code) > 0
}

func (l List) Count(code Code) int {
	count := 0
	for _, item := range l {
		if item.Code == code {
			count++
		}
	}
	return count
}

func (l List) Filter(code Code) List {
	out := make(List, 0, l.Count(code))
	for _, item := range l {
		if item.Code == code {
			out = append(out, item)
		}
	}
	return out
}

// Codes returns the distinct codes present, sorted.
func (l List) Codes() []Code {
	seen := make(map[Code]struct{}, len(l))
	out := make([]Code, 0, len(l))
	for _, item := range l {
		if _, ok := seen[item.Code]; ok {
			continue
		}
		seen[item.Code] = struct{}{}
		out = append(out, item.Code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
