package usecase

import (
	"strings"

	"github.com/riskibarqy/handball-sync/internal/domain/discovery"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
)

// combinePlayedMatches merges played matches from tournament pages with scored
// schedule entries. A tournament URL wins over the schedule's; schedule entries
// without a URL or a result are left out.
func combinePlayedMatches(tournamentMatches []discovery.Match, scheduleEntries []schedule.Entry) []discovery.Match {
	seen := make(map[string]struct{}, len(tournamentMatches)+len(scheduleEntries))
	out := make([]discovery.Match, 0, len(tournamentMatches)+len(scheduleEntries))

	for _, match := range tournamentMatches {
		if !match.Played || strings.TrimSpace(match.URL) == "" {
			continue
		}
		if _, ok := seen[match.MatchID]; ok {
			continue
		}
		seen[match.MatchID] = struct{}{}
		out = append(out, match)
	}

	for _, entry := range scheduleEntries {
		if strings.TrimSpace(entry.MatchURL) == "" || !entry.HasResult() {
			continue
		}
		if _, ok := seen[entry.MatchID]; ok {
			continue
		}
		seen[entry.MatchID] = struct{}{}
		out = append(out, discovery.Match{
			MatchID:       entry.MatchID,
			URL:           entry.MatchURL,
			HomeTeam:      entry.HomeTeam,
			AwayTeam:      entry.AwayTeam,
			Tournament:    entry.Tournament,
			TournamentURL: entry.TournamentURL,
			Date:          entry.Date,
			Time:          entry.Time,
			Score:         entry.Result,
			Played:        true,
		})
	}
	return out
}

// missingMatches returns played matches that neither carry stats nor are
// known to have none.
func missingMatches(played []discovery.Match, known map[string]struct{}) []discovery.Match {
	out := make([]discovery.Match, 0, len(played))
	for _, match := range played {
		if _, ok := known[match.MatchID]; ok {
			continue
		}
		out = append(out, match)
	}
	return out
}
