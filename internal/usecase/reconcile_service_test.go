package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchphase"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
	"github.com/riskibarqy/match-reconciler/internal/infrastructure/repository/memory"
	bundlemock "github.com/riskibarqy/match-reconciler/internal/mocks/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/platform/id"
	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var tickNow = time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

func float64Ptr(v float64) *float64 { return &v }

func lineupPlayers(from, to int64) []ExternalLineupPlayer {
	out := make([]ExternalLineupPlayer, 0, to-from+1)
	for externalID := from; externalID <= to; externalID++ {
		out = append(out, ExternalLineupPlayer{
			ExternalID: int64Ptr(externalID),
			Name:       fmt.Sprintf("Player %d", externalID),
		})
	}
	return out
}

// fullLineup builds eleven starters firstID..firstID+10 and three substitutes after them.
func fullLineup(team ExternalTeam, firstID int64) ExternalLineup {
	return ExternalLineup{
		Team:        team,
		Formation:   "4-3-3",
		Coach:       "Coach " + team.Name,
		StartXI:     lineupPlayers(firstID, firstID+10),
		Substitutes: lineupPlayers(firstID+11, firstID+13),
	}
}

func baseSnapshot() ExternalMatchSnapshot {
	home := ExternalTeam{ExternalID: int64Ptr(33), Name: "Home FC"}
	away := ExternalTeam{ExternalID: int64Ptr(34), Name: "Away United"}
	return ExternalMatchSnapshot{
		Fixture: ExternalFixtureHeader{
			ExternalID:  9001,
			KickoffAt:   tickNow.Add(4 * time.Minute),
			StatusShort: "NS",
			StatusLong:  "Not Started",
			Venue:       "Main Stadium",
			Home:        home,
			Away:        away,
		},
		Lineups: []ExternalLineup{fullLineup(home, 100), fullLineup(away, 200)},
	}
}

type stubSnapshotProvider struct {
	snapshot ExternalMatchSnapshot
	err      error
}

func (s *stubSnapshotProvider) FetchMatchSnapshot(_ context.Context, _ int64) (ExternalMatchSnapshot, error) {
	if s.err != nil {
		return ExternalMatchSnapshot{}, s.err
	}
	return s.snapshot, nil
}

func newTestReconcileService(provider SnapshotProvider, repo bundle.Repository) *ReconcileService {
	svc := NewReconcileService(provider, repo, NewLineupCache(time.Hour), nil, &id.SequenceGenerator{Prefix: "uid"}, logging.NewNop())
	svc.now = func() time.Time { return tickNow }
	return svc
}

func TestReconcileService_FirstTickCreatesAndSecondTickIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshot := baseSnapshot()
	snapshot.Events = []ExternalMatchEvent{
		{Elapsed: 0, Type: "Card", Detail: "Yellow Card", Team: snapshot.Fixture.Home, Player: ExternalParticipant{ExternalID: int64Ptr(101)}},
	}
	snapshot.PlayerStatistics = []ExternalTeamPlayerStatistics{{
		Team: snapshot.Fixture.Home,
		Players: []ExternalPlayerStatistics{
			{ExternalID: int64Ptr(100), Name: "Player 100", Minutes: intPtr(0), Rating: float64Ptr(6.5), Counters: map[string]int{"goals": 0}},
		},
	}}
	provider := &stubSnapshotProvider{snapshot: snapshot}
	repo := memory.NewBundleRepository()
	svc := newTestReconcileService(provider, repo)

	first, err := svc.Reconcile(ctx, 9001, matchphase.PreMatch)
	require.NoError(t, err)
	if !first.FixtureCreated || !first.Committed {
		t.Fatalf("first tick must create the fixture: %+v", first)
	}
	if first.Players.Created != 28 || first.Events.Created != 1 || first.Stats.Created != 1 {
		t.Fatalf("unexpected first tick summary: players=%+v events=%+v stats=%+v", first.Players, first.Events, first.Stats)
	}

	ws, exists, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	if !exists || ws.Fixture.HomeTeamID == "" || ws.Fixture.AwayTeamID == "" {
		t.Fatalf("stored header must reference both teams: %+v", ws.Fixture)
	}
	if home, _ := ws.Team(matchteam.SideHome); home.Formation != "4-3-3" || home.Name != "Home FC" {
		t.Fatalf("unexpected home team: %+v", home)
	}
	if ws.Events[0].Player.PlayerID != ws.Players[identity.FromID(101)].ID {
		t.Fatalf("event must reference the match player uid: %+v", ws.Events[0])
	}

	second, err := svc.Reconcile(ctx, 9001, matchphase.PreMatch)
	require.NoError(t, err)
	if second.Committed {
		t.Fatalf("identical snapshot must not write anything: %+v", second)
	}
	if second.Players.Created+second.Players.Updated+second.Players.Deleted != 0 || second.Players.Retained != 28 {
		t.Fatalf("unexpected player summary on replay: %+v", second.Players)
	}
	if second.Events.Retained != 1 || second.Stats.Retained != 1 {
		t.Fatalf("unexpected replay summary: events=%+v stats=%+v", second.Events, second.Stats)
	}
}

func TestReconcileService_FallbackMatchKeepsPlayerUID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshot := baseSnapshot()
	snapshot.Lineups[0].StartXI = []ExternalLineupPlayer{
		{ExternalID: int64Ptr(10), Name: "A. Smith"},
		{Name: "J. Doe"},
	}
	snapshot.Lineups[0].Substitutes = nil
	snapshot.Lineups = snapshot.Lineups[:1]

	provider := &stubSnapshotProvider{snapshot: snapshot}
	repo := memory.NewBundleRepository()
	svc := newTestReconcileService(provider, repo)

	_, err := svc.Reconcile(ctx, 9001, matchphase.PreMatch)
	require.NoError(t, err)
	before, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	doeUID := before.Players[identity.FromName("J. Doe")].ID
	if doeUID == "" {
		t.Fatalf("name-based player must be stored: %+v", before.Players)
	}

	provider.snapshot.Lineups[0].StartXI = []ExternalLineupPlayer{
		{ExternalID: int64Ptr(10), Name: "A. Smith"},
		{ExternalID: int64Ptr(11), Name: "J. Doe"},
	}
	result, err := svc.Reconcile(ctx, 9001, matchphase.PreMatch)
	require.NoError(t, err)

	if result.Players.Created != 0 || result.Players.Deleted != 0 || result.Players.Updated != 1 || result.Players.Fallback != 1 {
		t.Fatalf("drift must resolve to one fallback update: %+v", result.Players)
	}
	if result.Anomalies.Count(anomaly.CodeFallbackNameMatch) != 1 {
		t.Fatalf("fallback must be reported: %v", result.Anomalies.Codes())
	}

	after, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	if len(after.Players) != 2 {
		t.Fatalf("player count must not change: %+v", after.Players)
	}
	doe, ok := after.Players[identity.FromID(11)]
	if !ok || doe.ID != doeUID {
		t.Fatalf("re-keyed player must keep its uid: got=%+v want uid=%s", doe, doeUID)
	}
	if doe.CreationKey != identity.FromName("J. Doe") {
		t.Fatalf("creation key must be preserved: %s", doe.CreationKey)
	}
}

func TestReconcileService_MassDeletionIsReportedButApplied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshot := baseSnapshot()
	snapshot.Lineups = []ExternalLineup{{Team: snapshot.Fixture.Home, StartXI: lineupPlayers(1, 10)}}
	provider := &stubSnapshotProvider{snapshot: snapshot}
	repo := memory.NewBundleRepository()
	svc := newTestReconcileService(provider, repo)

	_, err := svc.Reconcile(ctx, 9001, matchphase.PreMatch)
	require.NoError(t, err)

	provider.snapshot.Lineups = []ExternalLineup{{Team: snapshot.Fixture.Home, StartXI: lineupPlayers(1, 3)}}
	result, err := svc.Reconcile(ctx, 9001, matchphase.PreMatch)
	require.NoError(t, err)

	guard := result.Anomalies.Filter(anomaly.CodeMassDeletion)
	if len(guard) != 1 || guard[0].Severity != anomaly.SeverityError {
		t.Fatalf("mass deletion must raise one error anomaly: %v", result.Anomalies)
	}
	if guard[0].Context["delete_count"] != 7 || guard[0].Context["existing_count"] != 10 {
		t.Fatalf("unexpected guard context: %+v", guard[0].Context)
	}
	if result.Players.Deleted != 7 {
		t.Fatalf("deletions must still be applied: %+v", result.Players)
	}

	ws, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	if len(ws.Players) != 3 {
		t.Fatalf("unexpected stored players: %d", len(ws.Players))
	}
}

func TestReconcileService_SequenceGapIsTolerated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshot := baseSnapshot()
	snapshot.Events = []ExternalMatchEvent{
		{Sequence: intPtr(0), Elapsed: 10, Type: "Goal", Team: snapshot.Fixture.Home, Player: ExternalParticipant{ExternalID: int64Ptr(109)}},
		{Sequence: intPtr(1), Elapsed: 20, Type: "Card", Team: snapshot.Fixture.Away, Player: ExternalParticipant{ExternalID: int64Ptr(203)}},
		{Sequence: intPtr(3), Elapsed: 30, Type: "Var", Team: snapshot.Fixture.Away},
	}
	repo := memory.NewBundleRepository()
	svc := newTestReconcileService(&stubSnapshotProvider{snapshot: snapshot}, repo)

	result, err := svc.Reconcile(ctx, 9001, matchphase.Live)
	require.NoError(t, err)

	gaps := result.Anomalies.Filter(anomaly.CodeSequenceGap)
	if len(gaps) != 1 || gaps[0].Context["after"] != 1 || gaps[0].Context["next"] != 3 {
		t.Fatalf("expected one gap after 1: %v", gaps)
	}

	ws, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	got := ws.Sequences()
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("all events must be stored: %v", got)
	}
}

func TestReconcileService_EventsShrinkAndSubstitutionsAreNormalized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshot := baseSnapshot()
	snapshot.Events = []ExternalMatchEvent{
		{Elapsed: 55, Type: "subst", Detail: "Substitution 1", Team: snapshot.Fixture.Home,
			Player: ExternalParticipant{ExternalID: int64Ptr(105), Name: "Player 105"},
			Assist: ExternalParticipant{ExternalID: int64Ptr(111), Name: "Player 111"}},
		{Elapsed: 60, Type: "Goal", Team: snapshot.Fixture.Home, Player: ExternalParticipant{ExternalID: int64Ptr(111)}},
		{Elapsed: 70, Type: "Card", Team: snapshot.Fixture.Away, Player: ExternalParticipant{ExternalID: int64Ptr(204)}},
	}
	provider := &stubSnapshotProvider{snapshot: snapshot}
	repo := memory.NewBundleRepository()
	svc := newTestReconcileService(provider, repo)

	_, err := svc.Reconcile(ctx, 9001, matchphase.Live)
	require.NoError(t, err)

	ws, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	subst := ws.Events[0]
	if subst.Player.Key != identity.FromID(111) || subst.Assist.Key != identity.FromID(105) {
		t.Fatalf("stored substitution must hold incoming then outgoing: %+v", subst)
	}
	if subst.Player.PlayerID != ws.Players[identity.FromID(111)].ID {
		t.Fatalf("incoming slot must reference the incoming player uid: %+v", subst)
	}

	provider.snapshot.Events = provider.snapshot.Events[:2]
	result, err := svc.Reconcile(ctx, 9001, matchphase.Live)
	require.NoError(t, err)
	if result.Events.Deleted != 1 || result.Events.Retained != 2 {
		t.Fatalf("dropped tail event must be deleted: %+v", result.Events)
	}
}

func TestReconcileService_InvalidEventBecomesPlaceholder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshot := baseSnapshot()
	snapshot.Events = []ExternalMatchEvent{
		{Elapsed: 12, Type: "Goal", Team: snapshot.Fixture.Home},
		{Elapsed: 14, Type: "  ", Team: snapshot.Fixture.Home},
	}
	repo := memory.NewBundleRepository()
	svc := newTestReconcileService(&stubSnapshotProvider{snapshot: snapshot}, repo)

	result, err := svc.Reconcile(ctx, 9001, matchphase.Live)
	require.NoError(t, err)
	if result.Placeholders != 1 || !result.Anomalies.Has(anomaly.CodeEventPersistFailed) {
		t.Fatalf("invalid event must be stored as placeholder: %+v", result)
	}

	ws, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	if len(ws.Events) != 2 || ws.Events[1].Type != matchevent.TypeUnknown || ws.Events[1].Sequence != 1 {
		t.Fatalf("placeholder must keep the sequence slot: %+v", ws.Events)
	}
}

func TestReconcileService_PhaseDecisionUsesLineupCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshot := baseSnapshot()
	svc := newTestReconcileService(&stubSnapshotProvider{snapshot: snapshot}, memory.NewBundleRepository())

	result, err := svc.Reconcile(ctx, 9001, matchphase.PreMatch)
	require.NoError(t, err)
	if result.Decision.NextPhase() != matchphase.Live || result.Decision.Action(matchphase.PreMatch) != matchphase.ActionSwitch {
		t.Fatalf("complete lineup four minutes before kickoff must switch to live: %+v", result.Decision)
	}
	if !svc.lineups.IsComplete(ctx, 9001) {
		t.Fatalf("complete lineup must be cached")
	}
}

func TestReconcileService_FinishedFixtureStopsAndForgetsLineup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshot := baseSnapshot()
	snapshot.Fixture.StatusShort = "FT"
	snapshot.Fixture.KickoffAt = tickNow.Add(-3 * time.Hour)
	snapshot.Fixture.Elapsed = intPtr(90)
	snapshot.Fixture.HomeGoals = intPtr(2)
	snapshot.Fixture.AwayGoals = intPtr(1)
	svc := newTestReconcileService(&stubSnapshotProvider{snapshot: snapshot}, memory.NewBundleRepository())

	result, err := svc.Reconcile(ctx, 9001, matchphase.PostMatch)
	require.NoError(t, err)
	if !result.Decision.StopPolling() || result.Decision.Action(matchphase.PostMatch) != matchphase.ActionStop {
		t.Fatalf("finished fixture must stop: %+v", result.Decision)
	}
	if svc.lineups.IsComplete(ctx, 9001) {
		t.Fatalf("lineup cache must be cleared when polling stops")
	}
}

func TestReconcileService_UnknownStatusIsInconclusive(t *testing.T) {
	t.Parallel()

	snapshot := baseSnapshot()
	snapshot.Fixture.StatusShort = "XYZ"
	svc := newTestReconcileService(&stubSnapshotProvider{snapshot: snapshot}, memory.NewBundleRepository())

	result, err := svc.Reconcile(context.Background(), 9001, matchphase.Live)
	require.NoError(t, err)
	if !result.Decision.Inconclusive || result.Decision.Phase != matchphase.Live {
		t.Fatalf("unknown status must keep the current phase: %+v", result.Decision)
	}
	if !result.Anomalies.Has(anomaly.CodeUnknownStatus) {
		t.Fatalf("unknown status must be reported: %v", result.Anomalies.Codes())
	}
}

func TestReconcileService_TeamStatisticsNeedBothSides(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshot := baseSnapshot()
	snapshot.TeamStatistics = []ExternalTeamStatistics{
		{Team: snapshot.Fixture.Home, Values: map[string]string{"Ball Possession": "55%"}},
		{Team: snapshot.Fixture.Away, Values: map[string]string{"Ball Possession": "45%"}},
	}
	provider := &stubSnapshotProvider{snapshot: snapshot}
	repo := memory.NewBundleRepository()
	svc := newTestReconcileService(provider, repo)

	_, err := svc.Reconcile(ctx, 9001, matchphase.Live)
	require.NoError(t, err)

	provider.snapshot.TeamStatistics = provider.snapshot.TeamStatistics[:1]
	provider.snapshot.TeamStatistics[0].Values = map[string]string{"Ball Possession": "60%"}
	result, err := svc.Reconcile(ctx, 9001, matchphase.Live)
	require.NoError(t, err)
	if !result.Anomalies.Has(anomaly.CodeTeamStatisticsCount) {
		t.Fatalf("single-sided statistics must be reported: %v", result.Anomalies.Codes())
	}

	ws, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	home, _ := ws.Team(matchteam.SideHome)
	if home.Statistics["Ball Possession"] != "55%" {
		t.Fatalf("stored statistics must be left untouched: %+v", home.Statistics)
	}
}

func TestReconcileService_HeaderOnlyProgressChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := &stubSnapshotProvider{snapshot: baseSnapshot()}
	repo := memory.NewBundleRepository()
	svc := newTestReconcileService(provider, repo)

	_, err := svc.Reconcile(ctx, 9001, matchphase.PreMatch)
	require.NoError(t, err)

	provider.snapshot.Fixture.StatusShort = "1H"
	provider.snapshot.Fixture.Elapsed = intPtr(3)
	provider.snapshot.Fixture.Venue = "Renamed Arena"
	result, err := svc.Reconcile(ctx, 9001, matchphase.Live)
	require.NoError(t, err)
	if !result.Committed || result.Decision.Phase != matchphase.Live {
		t.Fatalf("progress change must be committed: %+v", result)
	}

	ws, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	want := fixture.Progress{KickoffAt: ws.Fixture.KickoffAt, StatusShort: "1H", StatusLong: "Not Started", Elapsed: intPtr(3)}
	if !ws.Fixture.Progress().Equal(want) {
		t.Fatalf("unexpected progress: %+v", ws.Fixture.Progress())
	}
	if ws.Fixture.Venue != "Main Stadium" {
		t.Fatalf("non-progress columns must not change after creation: %s", ws.Fixture.Venue)
	}
}

func TestReconcileService_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	svc := newTestReconcileService(&stubSnapshotProvider{snapshot: baseSnapshot()}, memory.NewBundleRepository())

	if _, err := svc.Reconcile(context.Background(), 0, matchphase.PreMatch); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero id, got %v", err)
	}
	if _, err := svc.Reconcile(context.Background(), 9002, matchphase.PreMatch); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for mismatched snapshot, got %v", err)
	}
}

func TestReconcileService_FetchFailureCommitsNothingUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := bundlemock.NewRepository(t)
	repo.
		On("Load", mock.Anything, int64(9001)).
		Return(bundle.WorkingSet{}, false, nil).
		Maybe()

	svc := newTestReconcileService(&stubSnapshotProvider{err: ErrDependencyUnavailable}, repo)
	_, err := svc.Reconcile(ctx, 9001, matchphase.Live)
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	repo.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestReconcileService_CommitFailureIsReturnedUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := bundlemock.NewRepository(t)
	repo.
		On("Load", mock.Anything, int64(9001)).
		Return(bundle.WorkingSet{}, false, nil).
		Once()
	repo.
		On("Commit", mock.Anything, mock.MatchedBy(func(batch bundle.ChangeBatch) bool {
			return batch.FixtureCreated && batch.Fixture.ExternalID == 9001 && len(batch.Players.Create) == 28
		})).
		Return(bundle.CommitResult{}, errors.New("connection reset")).
		Once()

	svc := newTestReconcileService(&stubSnapshotProvider{snapshot: baseSnapshot()}, repo)
	if _, err := svc.Reconcile(ctx, 9001, matchphase.PreMatch); err == nil {
		t.Fatalf("expected commit error")
	}
	if svc.lineups.IsComplete(ctx, 9001) {
		t.Fatalf("failed tick must not update the lineup cache")
	}
}
