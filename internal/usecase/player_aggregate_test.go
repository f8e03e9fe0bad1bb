package usecase

import (
	"testing"

	"github.com/riskibarqy/handball-sync/internal/domain/aggregate"
	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(name, number string, goals int) matchstats.PlayerBoxScore {
	return matchstats.PlayerBoxScore{PlayerID: matchstats.PlayerID(name), Name: name, Number: number, Goals: goals}
}

func statsFixture() []matchstats.MatchPlayerData {
	return []matchstats.MatchPlayerData{
		{
			MatchID: "100000002", Date: "08.01.2025", Tournament: "Serie 1",
			HomeTeamID: "5555", HomeTeam: "Our Team", AwayTeamID: "6666", AwayTeam: "Rivals",
			HomeScore: 28, AwayScore: 28,
			HomePlayers: []matchstats.PlayerBoxScore{row("Anders Jensen", "9", 6), row("Bo Hansen", "11", 0)},
			AwayPlayers: []matchstats.PlayerBoxScore{row("Carl Nielsen", "3", 7)},
		},
		{
			MatchID: "100000001", Date: "01.01.2025", Tournament: "Serie 1",
			HomeTeamID: "5555", HomeTeam: "Our Team", AwayTeamID: "6666", AwayTeam: "Rivals",
			HomeScore: 30, AwayScore: 25,
			HomePlayers: []matchstats.PlayerBoxScore{row("Anders Jensen", "7", 8), row("Bo Hansen", "11", 4)},
			AwayPlayers: []matchstats.PlayerBoxScore{row("Carl Nielsen", "3", 10)},
		},
		{
			MatchID: "100000004", Date: "01.12.2024", Tournament: "",
			HomeTeamID: "7777", HomeTeam: "Others", AwayTeamID: "5555", AwayTeam: "Our Team",
			HomeScore: 20, AwayScore: 21,
			HomePlayers: []matchstats.PlayerBoxScore{row("Bo Hansen", "11", 2)},
			AwayPlayers: []matchstats.PlayerBoxScore{row("Anders Jensen", "", 5)},
		},
	}
}

func TestBuildPlayerAggregates_SumsMatchRowsAndSubTotals(t *testing.T) {
	t.Parallel()

	matches := statsFixture()
	got := BuildPlayerAggregates(matches)
	require.Len(t, got, 3)

	rowGoals := map[string]int{}
	rowMatches := map[string]int{}
	for _, match := range matches {
		for _, r := range append(append([]matchstats.PlayerBoxScore{}, match.HomePlayers...), match.AwayPlayers...) {
			rowGoals[r.PlayerID] += r.Goals
			rowMatches[r.PlayerID]++
		}
	}
	for _, player := range got {
		assert.Equal(t, rowGoals[player.PlayerID], player.TotalGoals, player.Name)
		assert.Equal(t, rowMatches[player.PlayerID], player.MatchesPlayed, player.Name)

		subGoals := 0
		for _, sub := range player.ByTournament {
			subGoals += sub.TotalGoals
		}
		assert.Equal(t, player.TotalGoals, subGoals, player.Name)
	}

	assert.Equal(t, "Anders Jensen", got[0].Name)
	assert.Equal(t, 19, got[0].TotalGoals)
	assert.Equal(t, 6.33, got[0].GoalsPerMatch)
	_, ok := got[0].Tournament(aggregate.UnknownTournament)
	assert.True(t, ok)
	assert.Equal(t, "Carl Nielsen", got[1].Name)
}

func TestBuildPlayerAggregates_JerseyFollowsMostRecentMatch(t *testing.T) {
	t.Parallel()

	got := BuildPlayerAggregates(statsFixture())
	for _, player := range got {
		if player.Name == "Anders Jensen" {
			// 08.01 beats 01.01 even though it was collected first
			assert.Equal(t, "9", player.Number)
			return
		}
	}
	t.Fatalf("player missing from aggregates")
}

func TestBuildPlayerAggregates_SameDateKeepsFirstSeenJersey(t *testing.T) {
	t.Parallel()

	matches := []matchstats.MatchPlayerData{
		{
			MatchID: "a", Date: "05.01.2025", Tournament: "Serie 1", HomeTeamID: "1", HomeTeam: "First",
			HomePlayers: []matchstats.PlayerBoxScore{row("Eva Lund", "4", 2)},
		},
		{
			MatchID: "b", Date: "05.01.2025", Tournament: "Pokal", HomeTeamID: "1", HomeTeam: "First",
			HomePlayers: []matchstats.PlayerBoxScore{row("Eva Lund", "14", 3)},
		},
		{
			MatchID: "c", Date: "01.01.2025", Tournament: "Serie 1", HomeTeamID: "1", HomeTeam: "First",
			HomePlayers: []matchstats.PlayerBoxScore{row("Eva Lund", "99", 1)},
		},
	}

	got := BuildPlayerAggregates(matches)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].Number)
	assert.Equal(t, 6, got[0].TotalGoals)
	assert.Equal(t, 3, got[0].MatchesPlayed)
}

func TestFilterByTournamentAndTeams(t *testing.T) {
	t.Parallel()

	all := BuildPlayerAggregates(statsFixture())

	serie := FilterByTournament(all, "Serie 1")
	require.Len(t, serie, 3)
	assert.Equal(t, "Carl Nielsen", serie[0].Name)
	assert.Equal(t, 17, serie[0].TotalGoals)
	assert.Equal(t, 8.5, serie[0].GoalsPerMatch)

	others := FilterByTeams(all, []string{"7777"})
	require.Len(t, others, 1)
	assert.Equal(t, "Bo Hansen", others[0].Name)
}

func TestBuildPlayerCatalog_PrimaryTeamTieKeepsFirstSeen(t *testing.T) {
	t.Parallel()

	matches := []matchstats.MatchPlayerData{
		{
			MatchID: "a", Date: "02.01.2025", HomeTeamID: "2", HomeTeam: "Second", AwayTeamID: "9", AwayTeam: "X",
			HomePlayers: []matchstats.PlayerBoxScore{row("Eva Lund", "4", 1)},
		},
		{
			MatchID: "b", Date: "01.01.2025", HomeTeamID: "1", HomeTeam: "First", AwayTeamID: "9", AwayTeam: "X",
			HomePlayers: []matchstats.PlayerBoxScore{row("Eva Lund", "5", 3)},
		},
	}

	catalog := BuildPlayerCatalog(matches)
	require.Len(t, catalog, 1)
	eva := catalog[0]
	assert.Equal(t, 2, eva.Matches)
	require.Len(t, eva.Teams, 2)
	assert.Equal(t, "1", eva.Teams[0].ID)
	assert.Equal(t, "1", eva.PrimaryTeamID)
	assert.Equal(t, "4", eva.Number)
}

func TestBuildPlayerCatalog_PrimaryTeamTieSurvivesLowerCountTeam(t *testing.T) {
	t.Parallel()

	side := func(id, date, teamID string) matchstats.MatchPlayerData {
		return matchstats.MatchPlayerData{
			MatchID: id, Date: date, HomeTeamID: teamID, HomeTeam: "Team " + teamID, AwayTeamID: "9", AwayTeam: "X",
			HomePlayers: []matchstats.PlayerBoxScore{row("Eva Lund", "", 1)},
		}
	}
	matches := []matchstats.MatchPlayerData{
		side("a", "01.01.2025", "1"),
		side("b", "02.01.2025", "2"),
		side("c", "03.01.2025", "2"),
		side("d", "04.01.2025", "1"),
		side("e", "05.01.2025", "3"),
	}

	catalog := BuildPlayerCatalog(matches)
	require.Len(t, catalog, 1)
	eva := catalog[0]
	require.Len(t, eva.Teams, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{eva.Teams[0].ID, eva.Teams[1].ID, eva.Teams[2].ID})
	assert.Equal(t, 1, eva.Teams[2].Matches)
	assert.Equal(t, "1", eva.PrimaryTeamID)
	assert.Equal(t, "Team 1", eva.PrimaryTeamName)
	assert.Equal(t, 5, eva.Matches)
}

func TestBuildPlayerCatalog_PrimaryTeamIsMostFrequent(t *testing.T) {
	t.Parallel()

	catalog := BuildPlayerCatalog(statsFixture())
	for _, entry := range catalog {
		if entry.Name == "Bo Hansen" {
			assert.Equal(t, "5555", entry.PrimaryTeamID)
			assert.True(t, entry.PlaysFor("7777"))
			return
		}
	}
	t.Fatalf("player missing from catalog")
}
