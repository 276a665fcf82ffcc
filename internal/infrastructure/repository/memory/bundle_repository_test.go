package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/match-reconciler/internal/domain/bundle"
	"github.com/riskibarqy/match-reconciler/internal/domain/changeplan"
	"github.com/riskibarqy/match-reconciler/internal/domain/fixture"
	"github.com/riskibarqy/match-reconciler/internal/domain/identity"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchevent"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchplayer"
	"github.com/riskibarqy/match-reconciler/internal/domain/matchteam"
	"github.com/riskibarqy/match-reconciler/internal/domain/playerstats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func seedBatch() bundle.ChangeBatch {
	smith := identity.FromID(10)
	doe := identity.FromName("J. Doe")
	return bundle.ChangeBatch{
		Fixture: fixture.Header{
			ID:          "fx-1",
			ExternalID:  9001,
			KickoffAt:   time.Date(2026, time.October, 17, 18, 0, 0, 0, time.UTC),
			StatusShort: "NS",
		},
		FixtureCreated: true,
		Teams: []matchteam.Team{
			{ID: "team-home", FixtureID: "fx-1", Side: matchteam.SideHome, Name: "Home", Statistics: map[string]string{"Shots on Goal": "5"}},
			{ID: "team-away", FixtureID: "fx-1", Side: matchteam.SideAway, Name: "Away"},
		},
		Players: bundle.PlayerChanges{Create: []changeplan.Entry[identity.Key, matchplayer.Player]{
			{Key: smith, Record: matchplayer.Player{ID: "p-smith", FixtureID: "fx-1", TeamID: "team-home", Key: smith, CreationKey: smith, DisplayName: "A. Smith"}},
			{Key: doe, Record: matchplayer.Player{ID: "p-doe", FixtureID: "fx-1", TeamID: "team-away", Key: doe, CreationKey: doe, DisplayName: "J. Doe"}},
		}},
		Events: bundle.EventChanges{Create: []changeplan.Entry[int, matchevent.Event]{
			{Key: 0, Record: matchevent.Event{ID: "e-0", FixtureID: "fx-1", Sequence: 0, Elapsed: 23, Type: matchevent.TypeGoal, Player: matchevent.Participant{Key: smith, Name: "A. Smith", PlayerID: "p-smith"}}},
			{Key: 1, Record: matchevent.Event{ID: "e-1", FixtureID: "fx-1", Sequence: 1, Elapsed: -4, Type: matchevent.TypeCard}},
		}},
		Stats: bundle.StatChanges{Create: []changeplan.Entry[identity.Key, playerstats.Stat]{
			{Key: smith, Record: playerstats.Stat{ID: "s-smith", FixtureID: "fx-1", PlayerID: "p-smith", Key: smith, Minutes: intPtr(67), Counters: map[string]int{playerstats.CounterGoals: 1}}},
			{Key: doe, Record: playerstats.Stat{ID: "s-doe", FixtureID: "fx-1", PlayerID: "p-doe", Key: doe}},
		}},
	}
}

func TestBundleRepository_LoadMissingFixture(t *testing.T) {
	t.Parallel()

	ws, ok, err := NewBundleRepository().Load(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, ws.Players)
}

func TestBundleRepository_CommitCreatesAndPlaceholdersInvalidEvents(t *testing.T) {
	t.Parallel()

	repo := NewBundleRepository()
	ctx := context.Background()

	result, err := repo.Commit(ctx, seedBatch())
	require.NoError(t, err)
	require.Len(t, result.Placeholders, 1)
	assert.Equal(t, 1, result.Placeholders[0].Event.Sequence)
	assert.Contains(t, result.Placeholders[0].Cause, "elapsed must be >= 0")

	ws, ok, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "team-home", ws.Fixture.HomeTeamID)
	assert.Equal(t, "team-away", ws.Fixture.AwayTeamID)
	assert.Equal(t, "5", ws.Teams[matchteam.SideHome].Statistics["Shots on Goal"])
	assert.Len(t, ws.Players, 2)

	require.Len(t, ws.Events, 2)
	assert.Equal(t, matchevent.TypeGoal, ws.Events[0].Type)
	assert.True(t, ws.Events[1].IsPlaceholder(), "invalid event must be stored as a placeholder")

	smithStat := ws.Stats[identity.FromID(10)]
	assert.Equal(t, "p-smith", smithStat.PlayerID)
	assert.Equal(t, identity.FromID(10), smithStat.Key, "stat key comes from the owning player")
	assert.Equal(t, 1, smithStat.Counter(playerstats.CounterGoals))
}

func TestBundleRepository_LoadReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	repo := NewBundleRepository()
	ctx := context.Background()
	_, err := repo.Commit(ctx, seedBatch())
	require.NoError(t, err)

	ws, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	ws.Teams[matchteam.SideHome].Statistics["Shots on Goal"] = "99"
	ws.Stats[identity.FromID(10)].Counters[playerstats.CounterGoals] = 7

	again, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	assert.Equal(t, "5", again.Teams[matchteam.SideHome].Statistics["Shots on Goal"])
	assert.Equal(t, 1, again.Stats[identity.FromID(10)].Counter(playerstats.CounterGoals))
}

func TestBundleRepository_PlayerDeleteCascadesToStats(t *testing.T) {
	t.Parallel()

	repo := NewBundleRepository()
	ctx := context.Background()
	_, err := repo.Commit(ctx, seedBatch())
	require.NoError(t, err)

	doe := identity.FromName("J. Doe")
	elapsed := 12
	header := seedBatch().Fixture
	header.StatusShort = "1H"
	header.Elapsed = &elapsed
	header.HomeTeamID = "team-home"
	header.AwayTeamID = "team-away"

	_, err = repo.Commit(ctx, bundle.ChangeBatch{
		Fixture:        header,
		FixtureChanged: true,
		Players: bundle.PlayerChanges{Delete: []changeplan.Entry[identity.Key, matchplayer.Player]{
			{Key: doe, Record: matchplayer.Player{ID: "p-doe", Key: doe}},
		}},
		Events: bundle.EventChanges{Delete: []changeplan.Entry[int, matchevent.Event]{{Key: 1}}},
	})
	require.NoError(t, err)

	ws, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	assert.Equal(t, "1H", ws.Fixture.StatusShort)
	require.NotNil(t, ws.Fixture.Elapsed)
	assert.Equal(t, 12, *ws.Fixture.Elapsed)
	assert.Equal(t, "team-home", ws.Fixture.HomeTeamID)
	assert.NotContains(t, ws.Players, doe)
	assert.NotContains(t, ws.Stats, doe)
	assert.Len(t, ws.Events, 1)
}

func TestBundleRepository_RekeyedPlayerKeepsStats(t *testing.T) {
	t.Parallel()

	repo := NewBundleRepository()
	ctx := context.Background()
	_, err := repo.Commit(ctx, seedBatch())
	require.NoError(t, err)

	doe := identity.FromName("J. Doe")
	rekeyed := identity.FromID(212)
	externalID := int64(212)
	_, err = repo.Commit(ctx, bundle.ChangeBatch{
		Fixture: seedBatch().Fixture,
		Players: bundle.PlayerChanges{Update: []changeplan.Update[identity.Key, matchplayer.Player]{{
			Key:         rekeyed,
			PreviousKey: doe,
			Kind:        changeplan.FallbackByName,
			Record:      matchplayer.Player{ID: "p-doe", FixtureID: "fx-1", TeamID: "team-away", Key: rekeyed, CreationKey: doe, ExternalID: &externalID, DisplayName: "J. Doe"},
		}}},
	})
	require.NoError(t, err)

	ws, _, err := repo.Load(ctx, 9001)
	require.NoError(t, err)
	player, ok := ws.Players[rekeyed]
	require.True(t, ok)
	assert.Equal(t, doe, player.CreationKey)
	assert.Equal(t, "s-doe", ws.Stats[rekeyed].ID, "stats follow the player uid, not the key")
}

func TestBundleRepository_CommitRejectsUnknownFixture(t *testing.T) {
	t.Parallel()

	_, err := NewBundleRepository().Commit(context.Background(), bundle.ChangeBatch{
		Fixture:        fixture.Header{ExternalID: 42},
		FixtureChanged: true,
	})
	assert.Error(t, err)
}
