package changeplan

import (
	"slices"
	"testing"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
)

func TestValidateSequence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		sequences []int
		want      []anomaly.Code
	}{
		{name: "empty", sequences: nil},
		{name: "contiguous", sequences: []int{2, 0, 1}},
		{name: "gap", sequences: []int{0, 1, 3}, want: []anomaly.Code{anomaly.CodeSequenceGap}},
		{name: "duplicate", sequences: []int{0, 1, 1, 2}, want: []anomaly.Code{anomaly.CodeSequenceDuplicate}},
		{name: "late start", sequences: []int{1, 2}, want: []anomaly.Code{anomaly.CodeSequenceStart}},
	}

	for _, tc := range cases {
		got := ValidateSequence("events", tc.sequences).Codes()
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !slices.Equal(got, tc.want) {
			t.Fatalf("%s: unexpected codes: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestValidateSequence_GapContext(t *testing.T) {
	t.Parallel()

	list := ValidateSequence("events", []int{0, 1, 4})
	if len(list) != 1 {
		t.Fatalf("unexpected anomalies: %+v", list)
	}
	if list[0].Context["after"] != 1 || list[0].Context["next"] != 4 || list[0].Context["missing"] != 2 {
		t.Fatalf("unexpected gap context: %+v", list[0].Context)
	}
}

func TestSequenceOrphans(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		incoming []int
		existing []int
		want     []int
	}{
		{name: "nothing stored", incoming: []int{0, 1}, existing: nil, want: nil},
		{name: "pure truncation", incoming: []int{0, 1}, existing: []int{0, 1, 2, 3}, want: []int{2, 3}},
		{name: "growth", incoming: []int{0, 1, 2}, existing: []int{0, 1}, want: nil},
		{name: "mid-sequence removal", incoming: []int{0, 2, 3}, existing: []int{0, 1, 2, 3}, want: []int{1}},
		{name: "gapped store", incoming: []int{0, 1, 2}, existing: []int{0, 1, 5}, want: []int{5}},
		{name: "disjoint", incoming: []int{4, 5}, existing: []int{0, 1}, want: []int{0, 1}},
	}

	for _, tc := range cases {
		got := SequenceOrphans(tc.incoming, tc.existing)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !slices.Equal(got, tc.want) {
			t.Fatalf("%s: unexpected orphans: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}
