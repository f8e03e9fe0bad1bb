package usecase

import (
	"time"

	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
	"github.com/riskibarqy/handball-sync/internal/domain/runsummary"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
)

// buildRunSummary groups changed results per tournament, skipping cups, and
// lists newly scraped match records.
func buildRunSummary(
	now time.Time,
	changedResults []schedule.Entry,
	newStats []matchstats.MatchPlayerData,
	failures []runsummary.Failure,
) runsummary.Summary {
	summary := runsummary.Summary{
		Timestamp:      now.UTC().Format(time.RFC3339),
		ResultsUpdated: []runsummary.TournamentResults{},
		StatsUpdated:   []runsummary.StatsChange{},
		FailureCount:   len(failures),
		Failures:       failures,
	}

	pos := make(map[string]int)
	for _, entry := range changedResults {
		if runsummary.IsCup(entry.Tournament) {
			continue
		}
		n, ok := pos[entry.Tournament]
		if !ok {
			n = len(summary.ResultsUpdated)
			pos[entry.Tournament] = n
			summary.ResultsUpdated = append(summary.ResultsUpdated, runsummary.TournamentResults{
				Tournament:    entry.Tournament,
				TournamentURL: entry.TournamentURL,
			})
		}
		summary.ResultsUpdated[n].Matches = append(summary.ResultsUpdated[n].Matches, runsummary.ResultChange{
			MatchID: entry.MatchID,
			Result:  entry.Result,
		})
	}

	for _, record := range newStats {
		summary.StatsUpdated = append(summary.StatsUpdated, runsummary.StatsChange{
			MatchID:    record.MatchID,
			Tournament: record.Tournament,
			HomeTeam:   record.HomeTeam,
			AwayTeam:   record.AwayTeam,
		})
	}

	summary.NoChanges = len(summary.ResultsUpdated) == 0 && len(summary.StatsUpdated) == 0
	return summary
}

func buildMetadata(now time.Time, entries []schedule.Entry) runsummary.Metadata {
	meta := runsummary.Metadata{
		LastUpdated:   now.UTC().Format(time.RFC3339),
		ScheduleCount: len(entries),
	}
	var latest time.Time
	for _, entry := range entries {
		if !entry.HasResult() {
			continue
		}
		meta.PlayedCount++
		if day, ok := schedule.ParseDate(entry.Date, time.UTC); ok && day.After(latest) {
			latest = day
		}
	}
	if !latest.IsZero() {
		meta.LatestResultDate = latest.Format(schedule.DateLayout)
	}
	return meta
}
