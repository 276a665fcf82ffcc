package apifootball

import (
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/match-reconciler/internal/domain/playerstats"
	"github.com/riskibarqy/match-reconciler/internal/usecase"
)

func mapSnapshot(doc fixtureDocument) usecase.ExternalMatchSnapshot {
	out := usecase.ExternalMatchSnapshot{
		Fixture: mapHeader(doc),
	}

	out.Lineups = make([]usecase.ExternalLineup, 0, len(doc.Lineups))
	for _, item := range doc.Lineups {
		out.Lineups = append(out.Lineups, usecase.ExternalLineup{
			Team:        mapTeam(item.Team),
			Formation:   strings.TrimSpace(item.Formation),
			Coach:       deref(item.Coach.Name),
			StartXI:     mapLineupSlots(item.StartXI),
			Substitutes: mapLineupSlots(item.Substitutes),
		})
	}

	out.Events = make([]usecase.ExternalMatchEvent, 0, len(doc.Events))
	for _, item := range doc.Events {
		elapsed := 0
		if item.Time.Elapsed != nil {
			elapsed = *item.Time.Elapsed
		}
		out.Events = append(out.Events, usecase.ExternalMatchEvent{
			Elapsed:  elapsed,
			Extra:    item.Time.Extra,
			Team:     mapTeam(item.Team),
			Player:   mapParticipant(item.Player),
			Assist:   mapParticipant(item.Assist),
			Type:     item.Type,
			Detail:   item.Detail,
			Comments: deref(item.Comments),
		})
	}

	out.TeamStatistics = make([]usecase.ExternalTeamStatistics, 0, len(doc.Statistics))
	for _, item := range doc.Statistics {
		values := make(map[string]string, len(item.Statistics))
		for _, stat := range item.Statistics {
			name := strings.TrimSpace(stat.Type)
			if name == "" {
				continue
			}
			if value, ok := statisticValue(stat.Value); ok {
				values[name] = value
			}
		}
		out.TeamStatistics = append(out.TeamStatistics, usecase.ExternalTeamStatistics{
			Team:   mapTeam(item.Team),
			Values: values,
		})
	}

	out.PlayerStatistics = make([]usecase.ExternalTeamPlayerStatistics, 0, len(doc.Players))
	for _, item := range doc.Players {
		team := usecase.ExternalTeamPlayerStatistics{Team: mapTeam(item.Team)}
		for _, entry := range item.Players {
			row := usecase.ExternalPlayerStatistics{
				ExternalID: entry.Player.ID,
				Name:       deref(entry.Player.Name),
			}
			if len(entry.Statistics) > 0 {
				fillPlayerStatistics(&row, entry.Statistics[0])
			}
			team.Players = append(team.Players, row)
		}
		out.PlayerStatistics = append(out.PlayerStatistics, team)
	}

	return out
}

func mapHeader(doc fixtureDocument) usecase.ExternalFixtureHeader {
	header := usecase.ExternalFixtureHeader{
		ExternalID:       doc.Fixture.ID,
		LeagueExternalID: doc.League.ID,
		Season:           doc.League.Season,
		KickoffAt:        parseKickoff(doc.Fixture.Date, doc.Fixture.Timestamp),
		StatusShort:      strings.TrimSpace(doc.Fixture.Status.Short),
		StatusLong:       strings.TrimSpace(doc.Fixture.Status.Long),
		Elapsed:          doc.Fixture.Status.Elapsed,
		Extra:            doc.Fixture.Status.Extra,
		Venue:            deref(doc.Fixture.Venue.Name),
		Referee:          deref(doc.Fixture.Referee),
		Home:             mapTeam(doc.Teams.Home),
		Away:             mapTeam(doc.Teams.Away),
		HomeGoals:        doc.Goals.Home,
		AwayGoals:        doc.Goals.Away,
	}
	return header
}

func mapTeam(team teamInfo) usecase.ExternalTeam {
	return usecase.ExternalTeam{
		ExternalID: team.ID,
		Name:       strings.TrimSpace(team.Name),
		Logo:       strings.TrimSpace(team.Logo),
	}
}

func mapParticipant(person personInfo) usecase.ExternalParticipant {
	return usecase.ExternalParticipant{
		ExternalID: person.ID,
		Name:       deref(person.Name),
	}
}

func mapLineupSlots(entries []lineupSlotEntry) []usecase.ExternalLineupPlayer {
	out := make([]usecase.ExternalLineupPlayer, 0, len(entries))
	for _, entry := range entries {
		out = append(out, usecase.ExternalLineupPlayer{
			ExternalID: entry.Player.ID,
			Name:       deref(entry.Player.Name),
			Number:     entry.Player.Number,
			Position:   deref(entry.Player.Pos),
			Grid:       deref(entry.Player.Grid),
		})
	}
	return out
}

func fillPlayerStatistics(row *usecase.ExternalPlayerStatistics, block playerStatsBlock) {
	row.Number = block.Games.Number
	row.Position = deref(block.Games.Position)
	row.Minutes = block.Games.Minutes
	row.Captain = block.Games.Captain
	row.Substitute = block.Games.Substitute
	if raw := deref(block.Games.Rating); raw != "" {
		if rating, err := strconv.ParseFloat(raw, 64); err == nil {
			row.Rating = &rating
		}
	}

	counters := make(map[string]int)
	put := func(name string, value *int) {
		if value != nil {
			counters[name] = *value
		}
	}
	put(playerstats.CounterGoals, block.Goals.Total)
	put(playerstats.CounterAssists, block.Goals.Assists)
	put(playerstats.CounterConceded, block.Goals.Conceded)
	put(playerstats.CounterSaves, block.Goals.Saves)
	put(playerstats.CounterShotsTotal, block.Shots.Total)
	put(playerstats.CounterShotsOn, block.Shots.On)
	put(playerstats.CounterPassesTotal, block.Passes.Total)
	put(playerstats.CounterPassesKey, block.Passes.Key)
	put(playerstats.CounterTacklesTotal, block.Tackles.Total)
	put(playerstats.CounterBlocks, block.Tackles.Blocks)
	put(playerstats.CounterInterceptions, block.Tackles.Interceptions)
	put(playerstats.CounterDuelsTotal, block.Duels.Total)
	put(playerstats.CounterDuelsWon, block.Duels.Won)
	put(playerstats.CounterDribblesTotal, block.Dribbles.Attempts)
	put(playerstats.CounterDribblesWon, block.Dribbles.Success)
	put(playerstats.CounterFoulsDrawn, block.Fouls.Drawn)
	put(playerstats.CounterFoulsCommitted, block.Fouls.Committed)
	put(playerstats.CounterYellowCards, block.Cards.Yellow)
	put(playerstats.CounterRedCards, block.Cards.Red)
	put(playerstats.CounterPenaltyWon, block.Penalty.Won)
	put(playerstats.CounterPenaltyScored, block.Penalty.Scored)
	put(playerstats.CounterPenaltyMissed, block.Penalty.Missed)
	put(playerstats.CounterPenaltySaved, block.Penalty.Saved)
	put(playerstats.CounterOffsides, block.Offsides)
	if len(counters) > 0 {
		row.Counters = counters
	}
}

// statisticValue renders the mixed number/string/null values of the team statistics block.
func statisticValue(raw any) (string, bool) {
	switch value := raw.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(value), true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(value, 10), true
	case bool:
		return strconv.FormatBool(value), true
	default:
		return "", false
	}
}

func parseKickoff(date string, timestamp int64) time.Time {
	if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(date)); err == nil {
		return parsed.UTC()
	}
	if timestamp > 0 {
		return time.Unix(timestamp, 0).UTC()
	}
	return time.Time{}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
