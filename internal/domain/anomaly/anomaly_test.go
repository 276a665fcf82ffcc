package anomaly

import (
	"slices"
	"testing"
)

func TestList_AddAndQuery(t *testing.T) {
	t.Parallel()

	var list List
	list.Warn(CodeSequenceGap, "gap", map[string]any{"after": 1})
	list.Error(CodeMassDeletion, "mass deletion", nil)
	list.Warn(CodeSequenceGap, "gap", map[string]any{"after": 4})
	list.Info(CodeLineupUnavailable, "no lineup", nil)

	if !list.Has(CodeMassDeletion) || list.Has(CodeFallbackNameMatch) {
		t.Fatalf("unexpected Has results: %+v", list)
	}
	if got := list.Count(CodeSequenceGap); got != 2 {
		t.Fatalf("unexpected gap count: got=%d want=2", got)
	}
	gaps := list.Filter(CodeSequenceGap)
	if gaps[1].Context["after"] != 4 || gaps[0].Severity != SeverityWarn {
		t.Fatalf("unexpected filtered anomalies: %+v", gaps)
	}

	want := []Code{CodeLineupUnavailable, CodeMassDeletion, CodeSequenceGap}
	if got := list.Codes(); !slices.Equal(got, want) {
		t.Fatalf("unexpected codes: got=%v want=%v", got, want)
	}
}

func TestList_Merge(t *testing.T) {
	t.Parallel()

	var first, second List
	first.Warn(CodeFallbackNameMatch, "fallback", nil)
	second.Error(CodeEventPersistFailed, "persist", nil)

	first.Merge(second)
	if len(first) != 2 || first[1].Code != CodeEventPersistFailed {
		t.Fatalf("unexpected merged list: %+v", first)
	}
}
