package changeplan

import (
	"cmp"
	"slices"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
)

// ValidateSequence checks that sequences start at 0 and increase by one. Violations are
// reported, never returned as errors.
func ValidateSequence(family string, sequences []int) anomaly.List {
	var out anomaly.List
	if len(sequences) == 0 {
		return out
	}

	sorted := slices.Clone(sequences)
	slices.Sort(sorted)

	if sorted[0] != 0 {
		out.Warn(anomaly.CodeSequenceStart, "sequence does not start at 0", map[string]any{
			"family": family,
			"first":  sorted[0],
		})
	}

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		switch {
		case cur == prev:
			out.Warn(anomaly.CodeSequenceDuplicate, "duplicate sequence number", map[string]any{
				"family":   family,
				"sequence": cur,
			})
		case cur > prev+1:
			out.Warn(anomaly.CodeSequenceGap, "gap in sequence numbers", map[string]any{
				"family":  family,
				"after":   prev,
				"next":    cur,
				"missing": cur - prev - 1,
			})
		}
	}

	return out
}

// SequenceOrphans returns the stored sequences absent from incoming; both inputs are sorted
// ascending. When both sides are the runs 0..n-1 the answer is the tail of the stored run,
// otherwise a merge walk computes the full difference so gapped or reordered feeds still work.
func SequenceOrphans(incoming, existing []int) []int {
	if len(existing) == 0 {
		return nil
	}
	if isContiguousRun(incoming) && isContiguousRun(existing) {
		if len(existing) <= len(incoming) {
			return nil
		}
		return slices.Clone(existing[len(incoming):])
	}

	out := make([]int, 0)
	i := 0
	for _, seq := range existing {
		for i < len(incoming) && incoming[i] < seq {
			i++
		}
		if i < len(incoming) && incoming[i] == seq {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == seq {
			continue
		}
		out = append(out, seq)
	}
	return out
}

// CompareSequence orders event sequences.
func CompareSequence(a, b int) int {
	return cmp.Compare(a, b)
}

func isContiguousRun(sorted []int) bool {
	for i, seq := range sorted {
		if seq != i {
			return false
		}
	}
	return true
}
