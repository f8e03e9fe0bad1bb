package usecase

import (
	"testing"

	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
	"github.com/riskibarqy/handball-sync/internal/domain/teamdetail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTeamDetailData(t *testing.T) {
	t.Parallel()

	index := map[string]schedule.Entry{
		"100000001": {MatchID: "100000001", MatchURL: "https://dhf.test/kamp/100000001"},
	}
	detail, ok := BuildTeamDetailData("5555", statsFixture(), index, []string{"5555", "6666"}, "")
	require.True(t, ok)

	assert.Equal(t, "Our Team", detail.TeamName)
	assert.True(t, detail.IsOurTeam)
	assert.Equal(t, []string{"Serie 1"}, detail.Tournaments)

	require.Len(t, detail.Matches, 3)
	ids := []string{detail.Matches[0].MatchID, detail.Matches[1].MatchID, detail.Matches[2].MatchID}
	assert.Equal(t, []string{"100000002", "100000001", "100000004"}, ids)
	assert.Equal(t, teamdetail.ResultDraw, detail.Matches[0].Result)
	assert.True(t, detail.Matches[0].OpponentIsOurTeam)
	assert.Equal(t, "https://dhf.test/kamp/100000001", detail.Matches[1].URL)

	away := detail.Matches[2]
	assert.False(t, away.IsHome)
	assert.Equal(t, "Others", away.Opponent)
	assert.False(t, away.OpponentIsOurTeam)
	assert.Equal(t, 21, away.GoalsFor)
	assert.Equal(t, teamdetail.ResultWin, away.Result)

	s := detail.Summary
	assert.Equal(t, 3, s.Matches)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Draws)
	assert.Equal(t, 0, s.Losses)
	assert.Equal(t, 79, s.GoalsFor)
	assert.Equal(t, 73, s.GoalsAgainst)
	assert.Equal(t, 6, s.GoalDifference)
	assert.Equal(t, 26.33, s.GoalsPerMatch)

	require.Len(t, detail.Roster, 2)
	assert.Equal(t, "Anders Jensen", detail.Roster[0].Name)
	assert.Equal(t, 19, detail.Roster[0].Goals)
	assert.Equal(t, 3, detail.Roster[0].Matches)
	assert.Equal(t, 4, detail.Roster[1].Goals)
}

func TestBuildTeamDetailData_TournamentFilter(t *testing.T) {
	t.Parallel()

	detail, ok := BuildTeamDetailData("5555", statsFixture(), nil, []string{"5555"}, "Serie 1")
	require.True(t, ok)
	assert.Len(t, detail.Matches, 2)
	assert.Equal(t, "Serie 1", detail.Tournament)

	_, ok = BuildTeamDetailData("5555", statsFixture(), nil, nil, "Landspokal")
	assert.False(t, ok)

	_, ok = BuildTeamDetailData("424242", statsFixture(), nil, nil, "")
	assert.False(t, ok)
}
