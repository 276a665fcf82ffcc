package playerstats

import "testing"

func TestStat_SameValues(t *testing.T) {
	t.Parallel()

	minutes := 90
	rating := 7.4
	base := Stat{PlayerID: "p1", TeamID: "t1", Minutes: &minutes, Rating: &rating, Counters: map[string]int{CounterGoals: 1}}

	same := base
	same.Counters = map[string]int{CounterGoals: 1}
	if !base.SameValues(same) {
		t.Fatalf("expected equal stats")
	}

	changed := base
	changed.Counters = map[string]int{CounterGoals: 2}
	if base.SameValues(changed) {
		t.Fatalf("expected counter change to be detected")
	}

	emptyA := Stat{PlayerID: "p1"}
	emptyB := Stat{PlayerID: "p1", Counters: map[string]int{}}
	if !emptyA.SameValues(emptyB) {
		t.Fatalf("nil and empty counters must compare equal")
	}

	otherRating := 6.9
	changed = base
	changed.Rating = &otherRating
	if base.SameValues(changed) {
		t.Fatalf("expected rating change to be detected")
	}
	if base.Counter(CounterAssists) != 0 || base.Counter(CounterGoals) != 1 {
		t.Fatalf("unexpected counter lookup")
	}
}
