package usecase

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/match-reconciler/internal/domain/anomaly"
	"github.com/riskibarqy/match-reconciler/internal/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/domain/changeplan"
	"github.com/riskibarqy/match-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchphase"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
	"github.com/riskibarqy/match-reconciler/internal/platform/id"
	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

type ChangeSummary struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Retained int `json:"retained"`
	Deleted  int `json:"deleted"`
	Fallback int `json:"fallback"`
}

func summarize[K comparable, R any](changes changeplan.ChangeSet[K, R]) ChangeSummary {
	summary := ChangeSummary{
		Created:  len(changes.Create),
		Updated:  len(changes.Update),
		Retained: len(changes.Retain),
		Deleted:  len(changes.Delete),
	}
	for _, match := range changes.Matches {
		if match.Kind == changeplan.FallbackByName {
			summary.Fallback++
		}
	}
	return summary
}

type ReconcileResult struct {
	FixtureExternalID int64
	FixtureCreated    bool
	Committed         bool
	Players           ChangeSummary
	Events            ChangeSummary
	Stats             ChangeSummary
	Placeholders      int
	Decision          matchphase.Decision
	Anomalies         anomaly.List
}

// tickPlan is the pure outcome of planning one tick, before anything is written.
type tickPlan struct {
	batch     bundle.ChangeBatch
	ws        bundle.WorkingSet
	anomalies anomaly.List
}

// ReconcileService runs one polling tick for one fixture: it reads the upstream snapshot and
// the stored records, plans every entity family and commits the result in one batch.
type ReconcileService struct {
	provider  SnapshotProvider
	repo      bundle.Repository
	lineups   *LineupCache
	reporter  *AnomalyReporter
	ids       id.Generator
	validator *validator.Validate
	logger    *logging.Logger
	now       func() time.Time
}

func NewReconcileService(
	provider SnapshotProvider,
	repo bundle.Repository,
	lineups *LineupCache,
	reporter *AnomalyReporter,
	ids id.Generator,
	logger *logging.Logger,
) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	if lineups == nil {
		lineups = NewLineupCache(0)
	}
	if reporter == nil {
		reporter = NewAnomalyReporter(logger, nil)
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}

	return &ReconcileService{
		provider:  provider,
		repo:      repo,
		lineups:   lineups,
		reporter:  reporter,
		ids:       ids,
		validator: validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ReconcileService) Reconcile(ctx context.Context, fixtureExternalID int64, current matchphase.Phase) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.Reconcile")
	defer span.End()

	if fixtureExternalID <= 0 {
		return ReconcileResult{}, fmt.Errorf("%w: fixture id must be > 0", ErrInvalidInput)
	}

	var (
		snapshot ExternalMatchSnapshot
		stored   bundle.WorkingSet
		exists   bool
	)
	readers := pool.New().WithContext(ctx).WithCancelOnError()
	readers.Go(func(ctx context.Context) error {
		item, err := s.provider.FetchMatchSnapshot(ctx, fixtureExternalID)
		if err != nil {
			return fmt.Errorf("fetch match snapshot fixture=%d: %w", fixtureExternalID, err)
		}
		snapshot = item
		return nil
	})
	readers.Go(func(ctx context.Context) error {
		item, ok, err := s.repo.Load(ctx, fixtureExternalID)
		if err != nil {
			return fmt.Errorf("load working set fixture=%d: %w", fixtureExternalID, err)
		}
		stored, exists = item, ok
		return nil
	})
	if err := readers.Wait(); err != nil {
		return ReconcileResult{}, err
	}

	if err := s.validator.StructCtx(ctx, snapshot.Fixture); err != nil {
		return ReconcileResult{}, fmt.Errorf("%w: fixture=%d snapshot header: %v", ErrInvalidInput, fixtureExternalID, err)
	}
	if snapshot.Fixture.ExternalID != fixtureExternalID {
		return ReconcileResult{}, fmt.Errorf("%w: snapshot is for fixture=%d, requested fixture=%d", ErrInvalidInput, snapshot.Fixture.ExternalID, fixtureExternalID)
	}

	plan, err := planTick(stored, exists, snapshot, s.ids)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("plan fixture=%d: %w", fixtureExternalID, err)
	}

	result := ReconcileResult{
		FixtureExternalID: fixtureExternalID,
		FixtureCreated:    plan.batch.FixtureCreated,
		Players:           summarize(plan.batch.Players),
		Events:            summarize(plan.batch.Events),
		Stats:             summarize(plan.batch.Stats),
	}
	anomalies := plan.anomalies
	ws := plan.ws

	if !plan.batch.IsEmpty() {
		committed, err := s.repo.Commit(ctx, plan.batch)
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("commit fixture=%d: %w", fixtureExternalID, err)
		}
		result.Committed = true
		result.Placeholders = len(committed.Placeholders)

		replacements := make([]matchevent.Event, 0, len(committed.Placeholders))
		for _, placeholder := range committed.Placeholders {
			anomalies.Error(anomaly.CodeEventPersistFailed, "event stored as placeholder", map[string]any{
				"sequence": placeholder.Event.Sequence,
				"cause":    placeholder.Cause,
			})
			replacements = append(replacements, placeholder.Event)
		}
		ws.ReplaceEvents(replacements)
	}

	if lineupComplete(snapshot.Lineups) {
		s.lineups.MarkComplete(ctx, fixtureExternalID)
	}

	decision := matchphase.Decide(matchphase.Input{
		StatusShort:  ws.Fixture.StatusShort,
		KickoffAt:    ws.Fixture.KickoffAt,
		Elapsed:      ws.Fixture.Elapsed,
		LineupCached: s.lineups.IsComplete(ctx, fixtureExternalID),
		Current:      current,
		Now:          s.now().UTC(),
	})
	if decision.Inconclusive {
		anomalies.Warn(anomaly.CodeUnknownStatus, "fixture status is not recognised, keeping the current phase", map[string]any{
			"status": ws.Fixture.StatusShort,
			"phase":  string(decision.Phase),
		})
	}
	if decision.StopPolling() {
		s.lineups.Forget(ctx, fixtureExternalID)
	}

	s.reporter.Report(ctx, fixtureExternalID, anomalies)
	s.logger.InfoContext(ctx, "fixture reconciled",
		"fixture_id", fixtureExternalID,
		"phase", string(decision.Phase),
		"status", decision.StatusShort,
		"committed", result.Committed,
		"players_created", result.Players.Created,
		"players_updated", result.Players.Updated,
		"players_deleted", result.Players.Deleted,
		"events_created", result.Events.Created,
		"events_updated", result.Events.Updated,
		"events_deleted", result.Events.Deleted,
		"anomalies", len(anomalies),
	)

	result.Decision = decision
	result.Anomalies = anomalies
	return result, nil
}

// planTick plans the whole tick against the stored records without any I/O.
func planTick(stored bundle.WorkingSet, exists bool, snapshot ExternalMatchSnapshot, ids id.Generator) (tickPlan, error) {
	var (
		batch     bundle.ChangeBatch
		anomalies anomaly.List
	)

	ws, err := syncHeader(stored, exists, snapshot.Fixture, ids, &batch)
	if err != nil {
		return tickPlan{}, err
	}
	if err := syncTeams(&ws, snapshot, ids, &batch, &anomalies); err != nil {
		return tickPlan{}, err
	}

	snapshots, collected := CollectPlayerSnapshots(snapshot)
	anomalies.Merge(collected)

	players, planned, err := planPlayers(ws, snapshots, ids)
	anomalies.Merge(planned)
	if err != nil {
		return tickPlan{}, err
	}
	ws.ApplyPlayerChanges(players)
	batch.Players = players

	drafts, sequenced := buildEventDrafts(snapshot.Events)
	anomalies.Merge(sequenced)
	resolver := headerSideResolver(snapshot.Fixture)
	drafts, _, normalized := NormalizeSubstitutions(drafts, seedLineupState(snapshot.Lineups, resolver), resolver)
	anomalies.Merge(normalized)

	events, planned, err := planEvents(ws, resolveEventReferences(ws, drafts), ids)
	anomalies.Merge(planned)
	if err != nil {
		return tickPlan{}, err
	}
	ws.ApplyEventChanges(events)
	batch.Events = events

	stats, planned, err := planStats(ws, snapshot, ids)
	anomalies.Merge(planned)
	if err != nil {
		return tickPlan{}, err
	}
	ws.ApplyStatChanges(stats)
	batch.Stats = stats

	batch.Fixture = ws.Fixture
	return tickPlan{batch: batch, ws: ws, anomalies: anomalies}, nil
}

// syncHeader creates the fixture on first sight and otherwise only moves its progress columns.
func syncHeader(stored bundle.WorkingSet, exists bool, in ExternalFixtureHeader, ids id.Generator, batch *bundle.ChangeBatch) (bundle.WorkingSet, error) {
	progress := fixture.Progress{
		KickoffAt:   in.KickoffAt.UTC(),
		StatusShort: fixture.NormalizeStatus(in.StatusShort),
		StatusLong:  strings.TrimSpace(in.StatusLong),
		Elapsed:     copyInt(in.Elapsed),
		Extra:       copyInt(in.Extra),
		HomeGoals:   copyInt(in.HomeGoals),
		AwayGoals:   copyInt(in.AwayGoals),
	}

	if !exists {
		fixtureID, err := ids.NewID()
		if err != nil {
			return bundle.WorkingSet{}, fmt.Errorf("generate fixture id: %w", err)
		}
		header := fixture.Header{
			ID:               fixtureID,
			ExternalID:       in.ExternalID,
			LeagueExternalID: copyInt64(in.LeagueExternalID),
			Season:           copyInt(in.Season),
			Venue:            strings.TrimSpace(in.Venue),
			Referee:          strings.TrimSpace(in.Referee),
		}.WithProgress(progress)
		batch.FixtureCreated = true
		return bundle.New(header), nil
	}

	ws := stored
	if !ws.Fixture.Progress().Equal(progress) {
		ws.Fixture = ws.Fixture.WithProgress(progress)
		batch.FixtureChanged = true
	}
	return ws, nil
}

// syncTeams upserts both sides. Team statistics are only applied when the feed carries exactly
// one entry per side; any other non-empty count leaves the stored statistics untouched.
func syncTeams(ws *bundle.WorkingSet, snapshot ExternalMatchSnapshot, ids id.Generator, batch *bundle.ChangeBatch, anomalies *anomaly.List) error {
	resolve := headerSideResolver(snapshot.Fixture)

	lineups := make(map[matchteam.Side]ExternalLineup, 2)
	for _, lineup := range snapshot.Lineups {
		if side, ok := resolve(lineup.Team.ExternalID); ok {
			lineups[side] = lineup
		}
	}

	statistics := make(map[matchteam.Side]map[string]string, 2)
	switch count := len(snapshot.TeamStatistics); count {
	case 0:
	case 2:
		for _, entry := range snapshot.TeamStatistics {
			side, ok := resolve(entry.Team.ExternalID)
			if !ok {
				anomalies.Warn(anomaly.CodeUnresolvedTeam, "team statistics team is not part of the fixture", map[string]any{
					"team_external_id": derefInt64(entry.Team.ExternalID),
				})
				continue
			}
			statistics[side] = maps.Clone(entry.Values)
		}
	default:
		anomalies.Warn(anomaly.CodeTeamStatisticsCount, "team statistics skipped, expected one entry per team", map[string]any{
			"count": count,
		})
	}

	feed := map[matchteam.Side]ExternalTeam{
		matchteam.SideHome: snapshot.Fixture.Home,
		matchteam.SideAway: snapshot.Fixture.Away,
	}
	for _, side := range []matchteam.Side{matchteam.SideHome, matchteam.SideAway} {
		in := feed[side]
		existing, found := ws.Team(side)
		if !found {
			teamID, err := ids.NewID()
			if err != nil {
				return fmt.Errorf("generate team id: %w", err)
			}
			existing = matchteam.Team{ID: teamID, FixtureID: ws.Fixture.ID, Side: side}
		}

		merged := existing
		if in.ExternalID != nil {
			merged.ExternalID = copyInt64(in.ExternalID)
		}
		if name := strings.TrimSpace(in.Name); name != "" {
			merged.Name = name
		}
		if logo := strings.TrimSpace(in.Logo); logo != "" {
			merged.Logo = logo
		}
		if lineup, ok := lineups[side]; ok {
			if formation := strings.TrimSpace(lineup.Formation); formation != "" {
				merged.Formation = formation
			}
			if coach := strings.TrimSpace(lineup.Coach); coach != "" {
				merged.Coach = coach
			}
		}
		if values, ok := statistics[side]; ok {
			merged.Statistics = values
		}

		if !found || !merged.SameValues(existing) {
			batch.Teams = append(batch.Teams, merged)
		}
		ws.SetTeam(merged)
	}

	return nil
}
