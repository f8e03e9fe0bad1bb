package usecase

import (
	"testing"

	"github.com/riskibarqy/handball-sync/internal/domain/discovery"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSchedule_SourcePriorityAndCarryOver(t *testing.T) {
	t.Parallel()

	herrer := Team{Label: "Herrer 1", ID: "5555"}
	damer := Team{Label: "Damer", ID: "4444"}
	previous := []schedule.Entry{
		{Team: "Herrer 1", MatchID: "100000001", Date: "01.01.2025", Result: "30-25", MatchURL: "https://dhf.test/kamp/100000001"},
		{Team: "Damer", MatchID: "200000001", Date: "02.01.2025", Result: "-"},
		{Team: "Herrer 1", MatchID: "100000009", Date: "20.12.2024", Result: "19-19"},
	}

	got := mergeSchedule(previous, []teamSchedule{
		{
			team:   herrer,
			feedOK: true,
			feed: []schedule.Entry{
				{MatchID: "100000001", Date: "01.01.2025", Result: "-"},
				{MatchID: "100000002", Date: "08.01.2025", Result: "-"},
			},
			scrapeOK: true,
			scraped:  []discovery.Match{{MatchID: "999999999", Date: "01.01.2025"}},
		},
		{team: damer},
	})

	require.Len(t, got, 4)
	ids := make([]string, 0, len(got))
	for _, entry := range got {
		ids = append(ids, entry.MatchID)
	}
	assert.Equal(t, []string{"100000009", "100000001", "200000001", "100000002"}, ids)

	byID := schedule.IndexByMatchID(got)
	assert.Equal(t, "30-25", byID["100000001"].Result)
	assert.Equal(t, "https://dhf.test/kamp/100000001", byID["100000001"].MatchURL)
	assert.Equal(t, "Herrer 1", byID["100000002"].Team)
	assert.Equal(t, "Damer", byID["200000001"].Team)
	_, scrapedUsed := byID["999999999"]
	assert.False(t, scrapedUsed)
}

func TestMergeSchedule_FallsBackToDiscoveredRows(t *testing.T) {
	t.Parallel()

	got := mergeSchedule(nil, []teamSchedule{{
		team:     Team{Label: "Herrer 1", ID: "5555"},
		scrapeOK: true,
		scraped: []discovery.Match{
			{MatchID: "100000001", Date: "01.01.2025", Played: true, Score: "30-25", URL: "u1"},
			{MatchID: "100000002", Date: "08.01.2025"},
		},
	}})

	require.Len(t, got, 2)
	assert.Equal(t, "30-25", got[0].Result)
	assert.Equal(t, "u1", got[0].MatchURL)
	assert.Equal(t, schedule.NotPlayed, got[1].Result)
}

func TestCombinePlayedMatches(t *testing.T) {
	t.Parallel()

	fromPages := []discovery.Match{
		{MatchID: "1", URL: "https://dhf.test/kamp/1", Played: true},
		{MatchID: "2", URL: "https://dhf.test/kamp/2", Played: false},
		{MatchID: "3", Played: true},
	}
	entries := []schedule.Entry{
		{MatchID: "1", MatchURL: "schedule-url", Result: "20-20"},
		{MatchID: "4", MatchURL: "https://dhf.test/kamp/4", Result: "30-25", Tournament: "T"},
		{MatchID: "5", MatchURL: "https://dhf.test/kamp/5", Result: "-"},
		{MatchID: "6", Result: "30-25"},
	}

	played := combinePlayedMatches(fromPages, entries)
	require.Len(t, played, 2)
	assert.Equal(t, "https://dhf.test/kamp/1", played[0].URL)
	assert.Equal(t, "4", played[1].MatchID)
	assert.Equal(t, "T", played[1].Tournament)

	missing := missingMatches(played, map[string]struct{}{"1": {}})
	require.Len(t, missing, 1)
	assert.Equal(t, "4", missing[0].MatchID)
}
