package changeplan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
)

type MatchKind int

const (
	Unmatched MatchKind = iota
	Exact
	FallbackByName
)

func (k MatchKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case FallbackByName:
		return "fallback_by_name"
	default:
		return "unmatched"
	}
}

const (
	massDeletionMinExisting = 10
	massDeletionSampleSize  = 10
)

type Entry[K comparable, R any] struct {
	Key    K
	Record R
}

// Update carries a matched record after merge. PreviousKey differs from Key only for
// fallback matches, where the stored record is re-keyed.
type Update[K comparable, R any] struct {
	Key         K
	PreviousKey K
	Record      R
	Kind        MatchKind
}

func (u Update[K, R]) Rekeyed() bool {
	return u.Key != u.PreviousKey
}

// Match pairs an incoming key with the existing key it resolved to.
type Match[K comparable] struct {
	Incoming K
	Existing K
	Kind     MatchKind
}

type ChangeSet[K comparable, R any] struct {
	Create  []Entry[K, R]
	Update  []Update[K, R]
	Retain  []Entry[K, R]
	Delete  []Entry[K, R]
	Matches []Match[K]
}

func (c ChangeSet[K, R]) IsEmpty() bool {
	return len(c.Create) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

// Writes counts the records a commit has to touch.
func (c ChangeSet[K, R]) Writes() int {
	return len(c.Create) + len(c.Update) + len(c.Delete)
}

// Rules binds the generic planner to one entity family.
type Rules[K comparable, D any, R any] struct {
	Family  string
	Compare func(a, b K) int
	Format  func(K) string

	// IncomingName and ExistingName enable the name fallback pass when both are set.
	IncomingName func(D) string
	ExistingName func(R) string

	Create func(key K, incoming D) (R, error)
	// Merge applies incoming onto existing and reports whether any field changed.
	Merge func(key K, incoming D, existing R) (R, bool)

	// Orphans optionally computes the deletions from the two sorted key sets. It must return
	// every existing key absent from incoming; matched or unknown keys it returns are ignored.
	Orphans func(incoming, existing []K) []K
}

func (r Rules[K, D, R]) validate() error {
	switch {
	case r.Compare == nil:
		return fmt.Errorf("plan %s: compare func is required", r.Family)
	case r.Create == nil:
		return fmt.Errorf("plan %s: create func is required", r.Family)
	case r.Merge == nil:
		return fmt.Errorf("plan %s: merge func is required", r.Family)
	}
	return nil
}

func (r Rules[K, D, R]) format(key K) string {
	if r.Format != nil {
		return r.Format(key)
	}
	return fmt.Sprint(key)
}

func (r Rules[K, D, R]) fallbackEnabled() bool {
	return r.IncomingName != nil && r.ExistingName != nil
}

// Plan turns incoming snapshots and stored records into a change set. Every incoming key ends
// up in Create or is matched; every existing key ends up in Delete or is matched.
func Plan[K comparable, D any, R any](rules Rules[K, D, R], incoming map[K]D, existing map[K]R) (ChangeSet[K, R], anomaly.List, error) {
	var (
		out       ChangeSet[K, R]
		anomalies anomaly.List
	)
	if err := rules.validate(); err != nil {
		return out, nil, err
	}

	incomingKeys := sortedKeys(incoming, rules.Compare)
	existingKeys := sortedKeys(existing, rules.Compare)

	matchedExisting := make(map[K]struct{}, len(existing))
	unmatchedIncoming := make([]K, 0, len(incomingKeys))

	for _, key := range incomingKeys {
		stored, ok := existing[key]
		if !ok {
			unmatchedIncoming = append(unmatchedIncoming, key)
			continue
		}
		matchedExisting[key] = struct{}{}
		out.Matches = append(out.Matches, Match[K]{Incoming: key, Existing: key, Kind: Exact})

		merged, changed := rules.Merge(key, incoming[key], stored)
		if changed {
			out.Update = append(out.Update, Update[K, R]{Key: key, PreviousKey: key, Record: merged, Kind: Exact})
			continue
		}
		out.Retain = append(out.Retain, Entry[K, R]{Key: key, Record: stored})
	}

	toCreate := unmatchedIncoming
	if rules.fallbackEnabled() && len(unmatchedIncoming) > 0 {
		toCreate = make([]K, 0, len(unmatchedIncoming))
		for _, key := range unmatchedIncoming {
			name := strings.TrimSpace(rules.IncomingName(incoming[key]))
			if name == "" {
				toCreate = append(toCreate, key)
				continue
			}

			candidates := make([]K, 0, 1)
			for _, existingKey := range existingKeys {
				if _, taken := matchedExisting[existingKey]; taken {
					continue
				}
				if strings.TrimSpace(rules.ExistingName(existing[existingKey])) == name {
					candidates = append(candidates, existingKey)
				}
			}
			if len(candidates) == 0 {
				toCreate = append(toCreate, key)
				continue
			}

			chosen := candidates[0]
			if len(candidates) > 1 {
				formatted := make([]string, 0, len(candidates))
				for _, candidate := range candidates {
					formatted = append(formatted, rules.format(candidate))
				}
				anomalies.Warn(anomaly.CodeAmbiguousNameMatch, "several stored records share the fallback name", map[string]any{
					"family":     rules.Family,
					"incoming":   rules.format(key),
					"name":       name,
					"candidates": formatted,
					"chosen":     rules.format(chosen),
				})
			}

			matchedExisting[chosen] = struct{}{}
			merged, _ := rules.Merge(key, incoming[key], existing[chosen])
			out.Matches = append(out.Matches, Match[K]{Incoming: key, Existing: chosen, Kind: FallbackByName})
			out.Update = append(out.Update, Update[K, R]{Key: key, PreviousKey: chosen, Record: merged, Kind: FallbackByName})
			anomalies.Warn(anomaly.CodeFallbackNameMatch, "identity drift resolved by display name", map[string]any{
				"family":   rules.Family,
				"incoming": rules.format(key),
				"existing": rules.format(chosen),
				"name":     name,
			})
		}
	}

	for _, key := range toCreate {
		record, err := rules.Create(key, incoming[key])
		if err != nil {
			return ChangeSet[K, R]{}, anomalies, fmt.Errorf("plan %s: create %s: %w", rules.Family, rules.format(key), err)
		}
		out.Create = append(out.Create, Entry[K, R]{Key: key, Record: record})
	}

	orphanKeys := make([]K, 0, len(existingKeys)-len(matchedExisting))
	if rules.Orphans != nil {
		seen := make(map[K]struct{})
		for _, key := range rules.Orphans(incomingKeys, existingKeys) {
			if _, matched := matchedExisting[key]; matched {
				continue
			}
			if _, ok := existing[key]; !ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			orphanKeys = append(orphanKeys, key)
		}
		slices.SortFunc(orphanKeys, rules.Compare)
	} else {
		for _, key := range existingKeys {
			if _, matched := matchedExisting[key]; !matched {
				orphanKeys = append(orphanKeys, key)
			}
		}
	}
	for _, key := range orphanKeys {
		out.Delete = append(out.Delete, Entry[K, R]{Key: key, Record: existing[key]})
	}

	if item, fired := massDeletion(rules, len(existing), toCreate, orphanKeys); fired {
		anomalies = append(anomalies, item)
	}

	return out, anomalies, nil
}

// massDeletion flags plans that would drop more than half of a sizeable stored set. It only
// reports; the deletions stay in the plan.
func massDeletion[K comparable, D any, R any](rules Rules[K, D, R], existingCount int, unmatchedIncoming, orphans []K) (anomaly.Anomaly, bool) {
	if existingCount < massDeletionMinExisting || len(orphans)*2 <= existingCount {
		return anomaly.Anomaly{}, false
	}

	return anomaly.Anomaly{
		Severity: anomaly.SeverityError,
		Code:     anomaly.CodeMassDeletion,
		Message:  "more than half of the stored records would be deleted",
		Context: map[string]any{
			"family":             rules.Family,
			"existing_count":     existingCount,
			"delete_count":       len(orphans),
			"unmatched_existing": sample(rules, orphans),
			"unmatched_incoming": sample(rules, unmatchedIncoming),
		},
	}, true
}

func sample[K comparable, D any, R any](rules Rules[K, D, R], keys []K) []string {
	limit := min(len(keys), massDeletionSampleSize)
	out := make([]string, 0, limit)
	for _, key := range keys[:limit] {
		out = append(out, rules.format(key))
	}
	return out
}

func sortedKeys[K comparable, V any](in map[K]V, compare func(a, b K) int) []K {
	out := make([]K, 0, len(in))
	for key := range in {
		out = append(out, key)
	}
	slices.SortFunc(out, compare)
	return out
}
