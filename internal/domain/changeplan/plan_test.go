package changeplan

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
)

type testSnapshot struct {
	Name  string
	Shirt int
}

type testRecord struct {
	UID   string
	Key   identity.Key
	Name  string
	Shirt int
}

func testRules(withFallback bool) Rules[identity.Key, testSnapshot, testRecord] {
	next := 0
	rules := Rules[identity.Key, testSnapshot, testRecord]{
		Family:  "players",
		Compare: identity.Compare,
		Format:  identity.Key.String,
		Create: func(key identity.Key, in testSnapshot) (testRecord, error) {
			next++
			return testRecord{UID: fmt.Sprintf("uid-%d", next), Key: key, Name: in.Name, Shirt: in.Shirt}, nil
		},
		Merge: func(key identity.Key, in testSnapshot, existing testRecord) (testRecord, bool) {
			merged := existing
			merged.Key = key
			merged.Name = in.Name
			merged.Shirt = in.Shirt
			return merged, merged != existing
		},
	}
	if withFallback {
		rules.IncomingName = func(in testSnapshot) string { return in.Name }
		rules.ExistingName = func(r testRecord) string { return r.Name }
	}
	return rules
}

func TestPlan_AccountsForEveryKeyExactlyOnce(t *testing.T) {
	t.Parallel()

	incoming := map[identity.Key]testSnapshot{
		identity.FromID(1):        {Name: "A", Shirt: 1},
		identity.FromID(2):        {Name: "B", Shirt: 22},
		identity.FromID(3):        {Name: "C", Shirt: 3},
		identity.FromName("Dino"): {Name: "Dino", Shirt: 4},
	}
	existing := map[identity.Key]testRecord{
		identity.FromID(1): {UID: "x1", Key: identity.FromID(1), Name: "A", Shirt: 1},
		identity.FromID(2): {UID: "x2", Key: identity.FromID(2), Name: "B", Shirt: 2},
		identity.FromID(9): {UID: "x9", Key: identity.FromID(9), Name: "Z", Shirt: 9},
	}

	plan, anomalies, err := Plan(testRules(true), incoming, existing)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	matched := len(plan.Matches)
	if len(plan.Create)+matched != len(incoming) {
		t.Fatalf("incoming not fully accounted: create=%d matched=%d incoming=%d", len(plan.Create), matched, len(incoming))
	}
	if len(plan.Delete)+matched != len(existing) {
		t.Fatalf("existing not fully accounted: delete=%d matched=%d existing=%d", len(plan.Delete), matched, len(existing))
	}
	if len(plan.Update)+len(plan.Retain) != matched {
		t.Fatalf("matched pairs must be updated or retained: update=%d retain=%d matched=%d", len(plan.Update), len(plan.Retain), matched)
	}

	if len(plan.Retain) != 1 || plan.Retain[0].Key != identity.FromID(1) {
		t.Fatalf("unexpected retain set: %+v", plan.Retain)
	}
	if len(plan.Update) != 1 || plan.Update[0].Record.Shirt != 22 || plan.Update[0].Kind != Exact {
		t.Fatalf("unexpected update set: %+v", plan.Update)
	}
	if len(plan.Delete) != 1 || plan.Delete[0].Record.UID != "x9" {
		t.Fatalf("unexpected delete set: %+v", plan.Delete)
	}
	wantCreate := []identity.Key{identity.FromID(3), identity.FromName("Dino")}
	gotCreate := []identity.Key{plan.Create[0].Key, plan.Create[1].Key}
	if !slices.Equal(gotCreate, wantCreate) {
		t.Fatalf("unexpected create order: got=%v want=%v", gotCreate, wantCreate)
	}
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %+v", anomalies)
	}
}

func TestPlan_IdempotentOnSecondRun(t *testing.T) {
	t.Parallel()

	rules := testRules(true)
	incoming := map[identity.Key]testSnapshot{
		identity.FromID(1):          {Name: "A", Shirt: 1},
		identity.FromName("J. Doe"): {Name: "J. Doe", Shirt: 8},
	}

	first, _, err := Plan(rules, incoming, map[identity.Key]testRecord{})
	if err != nil {
		t.Fatalf("first plan: %v", err)
	}

	stored := make(map[identity.Key]testRecord, len(first.Create))
	for _, entry := range first.Create {
		stored[entry.Key] = entry.Record
	}

	second, _, err := Plan(rules, incoming, stored)
	if err != nil {
		t.Fatalf("second plan: %v", err)
	}
	if len(second.Create) != 0 || len(second.Delete) != 0 || len(second.Update) != 0 {
		t.Fatalf("second run must be a no-op: %+v", second)
	}
	if !second.IsEmpty() || len(second.Retain) != 2 {
		t.Fatalf("expected every record retained: %+v", second)
	}
}

func TestPlan_FallbackByNameRekeysInsteadOfCreateAndDelete(t *testing.T) {
	t.Parallel()

	incoming := map[identity.Key]testSnapshot{
		identity.FromID(10): {Name: "Keeper", Shirt: 1},
		identity.FromID(11): {Name: "J. Doe", Shirt: 8},
	}
	existing := map[identity.Key]testRecord{
		identity.FromID(10):         {UID: "u10", Key: identity.FromID(10), Name: "Keeper", Shirt: 1},
		identity.FromName("J. Doe"): {UID: "udoe", Key: identity.FromName("J. Doe"), Name: "J. Doe", Shirt: 8},
	}

	plan, anomalies, err := Plan(testRules(true), incoming, existing)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if len(plan.Create) != 0 || len(plan.Delete) != 0 {
		t.Fatalf("fallback must avoid create+delete: %+v", plan)
	}
	if len(plan.Update) != 1 {
		t.Fatalf("expected exactly one update, got %+v", plan.Update)
	}
	update := plan.Update[0]
	if update.Kind != FallbackByName || !update.Rekeyed() {
		t.Fatalf("unexpected fallback update: %+v", update)
	}
	if update.PreviousKey != identity.FromName("J. Doe") || update.Key != identity.FromID(11) || update.Record.UID != "udoe" {
		t.Fatalf("fallback must keep the stored uid and move the key: %+v", update)
	}
	if anomalies.Count(anomaly.CodeFallbackNameMatch) != 1 {
		t.Fatalf("expected one fallback anomaly, got %+v", anomalies)
	}
	if anomalies[0].Severity != anomaly.SeverityWarn {
		t.Fatalf("fallback anomaly must be WARN, got %s", anomalies[0].Severity)
	}
}

func TestPlan_FallbackDisabledWithoutNameFuncs(t *testing.T) {
	t.Parallel()

	incoming := map[identity.Key]testSnapshot{identity.FromID(11): {Name: "J. Doe"}}
	existing := map[identity.Key]testRecord{identity.FromName("J. Doe"): {UID: "udoe", Name: "J. Doe"}}

	plan, anomalies, err := Plan(testRules(false), incoming, existing)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Create) != 1 || len(plan.Delete) != 1 || len(anomalies) != 0 {
		t.Fatalf("expected create+delete without fallback: plan=%+v anomalies=%+v", plan, anomalies)
	}
}

func TestPlan_AmbiguousFallbackPicksFirstAndFlags(t *testing.T) {
	t.Parallel()

	incoming := map[identity.Key]testSnapshot{identity.FromID(50): {Name: "Silva"}}
	existing := map[identity.Key]testRecord{
		identity.FromID(7):         {UID: "u7", Name: "Silva"},
		identity.FromName("Silva"): {UID: "us", Name: "Silva"},
	}

	plan, anomalies, err := Plan(testRules(true), incoming, existing)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Update) != 1 || plan.Update[0].PreviousKey != identity.FromID(7) {
		t.Fatalf("expected the first candidate in key order: %+v", plan.Update)
	}
	if len(plan.Delete) != 1 || plan.Delete[0].Record.UID != "us" {
		t.Fatalf("unchosen candidate must be deleted: %+v", plan.Delete)
	}
	if !anomalies.Has(anomaly.CodeAmbiguousNameMatch) || !anomalies.Has(anomaly.CodeFallbackNameMatch) {
		t.Fatalf("expected ambiguity and fallback anomalies, got %+v", anomalies)
	}
}

func TestPlan_MassDeletionGuardReportsButStillDeletes(t *testing.T) {
	t.Parallel()

	existing := make(map[identity.Key]testRecord, 10)
	for i := 1; i <= 10; i++ {
		key := identity.FromID(int64(i))
		existing[key] = testRecord{UID: fmt.Sprintf("u%d", i), Key: key, Name: fmt.Sprintf("P%d", i)}
	}
	incoming := map[identity.Key]testSnapshot{
		identity.FromID(1): {Name: "P1"},
		identity.FromID(2): {Name: "P2"},
		identity.FromID(3): {Name: "P3"},
	}

	plan, anomalies, err := Plan(testRules(true), incoming, existing)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Delete) != 7 {
		t.Fatalf("unexpected delete count: got=%d want=7", len(plan.Delete))
	}

	fired := anomalies.Filter(anomaly.CodeMassDeletion)
	if len(fired) != 1 {
		t.Fatalf("expected mass deletion anomaly, got %+v", anomalies)
	}
	if fired[0].Severity != anomaly.SeverityError {
		t.Fatalf("mass deletion must be high severity, got %s", fired[0].Severity)
	}
	sampleKeys, ok := fired[0].Context["unmatched_existing"].([]string)
	if !ok || len(sampleKeys) != 7 || sampleKeys[0] != "id:4" {
		t.Fatalf("unexpected unmatched sample: %#v", fired[0].Context["unmatched_existing"])
	}
}

func TestPlan_MassDeletionGuardThresholds(t *testing.T) {
	t.Parallel()

	build := func(existingCount, keep int) anomaly.List {
		existing := make(map[identity.Key]testRecord, existingCount)
		incoming := make(map[identity.Key]testSnapshot, keep)
		for i := 0; i < existingCount; i++ {
			key := identity.FromID(int64(i))
			existing[key] = testRecord{Key: key, Name: fmt.Sprintf("P%d", i)}
			if i < keep {
				incoming[key] = testSnapshot{Name: fmt.Sprintf("P%d", i)}
			}
		}
		_, anomalies, err := Plan(testRules(false), incoming, existing)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		return anomalies
	}

	if build(9, 0).Has(anomaly.CodeMassDeletion) {
		t.Fatalf("guard must not fire below 10 existing records")
	}
	if build(10, 5).Has(anomaly.CodeMassDeletion) {
		t.Fatalf("guard must not fire at exactly 50%%")
	}
	if !build(10, 4).Has(anomaly.CodeMassDeletion) {
		t.Fatalf("guard must fire above 50%%")
	}
}

func TestPlan_CreateErrorAborts(t *testing.T) {
	t.Parallel()

	rules := testRules(false)
	rules.Create = func(identity.Key, testSnapshot) (testRecord, error) {
		return testRecord{}, errors.New("uid exhausted")
	}

	_, _, err := Plan(rules, map[identity.Key]testSnapshot{identity.FromID(1): {Name: "A"}}, nil)
	if err == nil {
		t.Fatalf("expected create error to propagate")
	}
}

func TestPlan_RequiresRules(t *testing.T) {
	t.Parallel()

	if _, _, err := Plan(Rules[int, int, int]{Family: "broken"}, nil, nil); err == nil {
		t.Fatalf("expected validation error for empty rules")
	}
}

func TestPlan_SequenceOrphansHook(t *testing.T) {
	t.Parallel()

	rules := Rules[int, string, string]{
		Family:  "events",
		Compare: CompareSequence,
		Create:  func(_ int, in string) (string, error) { return in, nil },
		Merge:   func(_ int, in string, existing string) (string, bool) { return in, in != existing },
		Orphans: SequenceOrphans,
	}

	incoming := map[int]string{0: "kickoff", 1: "goal"}
	existing := map[int]string{0: "kickoff", 1: "goal", 2: "card", 3: "subst"}

	plan, _, err := Plan(rules, incoming, existing)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Delete) != 2 || plan.Delete[0].Key != 2 || plan.Delete[1].Key != 3 {
		t.Fatalf("unexpected truncation deletes: %+v", plan.Delete)
	}
	if len(plan.Retain) != 2 {
		t.Fatalf("unexpected retain set: %+v", plan.Retain)
	}
}
