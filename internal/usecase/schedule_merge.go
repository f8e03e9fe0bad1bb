package usecase

import (
	"sort"
	"time"

	"github.com/riskibarqy/handball-sync/internal/domain/discovery"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
)

// teamSchedule is the freshest schedule source for one team in a run.
type teamSchedule struct {
	team     Team
	feed     []schedule.Entry
	feedOK   bool
	scraped  []discovery.Match
	scrapeOK bool
}

// mergeSchedule builds the combined schedule. Each team takes its feed entries,
// else its discovered rows, else its previous entries. Values the fresh source
// lacks (result, match URL) are carried over from the previous run, and the
// first entry for a match id wins across teams.
func mergeSchedule(previous []schedule.Entry, sources []teamSchedule) []schedule.Entry {
	prevByID := schedule.IndexByMatchID(previous)
	prevByTeam := make(map[string][]schedule.Entry)
	for _, entry := range previous {
		prevByTeam[entry.Team] = append(prevByTeam[entry.Team], entry)
	}

	seen := make(map[string]struct{}, len(previous))
	out := make([]schedule.Entry, 0, len(previous))
	add := func(entry schedule.Entry) {
		if entry.MatchID == "" {
			return
		}
		if _, ok := seen[entry.MatchID]; ok {
			return
		}
		seen[entry.MatchID] = struct{}{}
		if prev, ok := prevByID[entry.MatchID]; ok {
			if !entry.HasResult() && prev.HasResult() {
				entry.Result = prev.Result
			}
			if entry.MatchURL == "" {
				entry.MatchURL = prev.MatchURL
			}
			if entry.TournamentURL == "" {
				entry.TournamentURL = prev.TournamentURL
			}
		}
		out = append(out, entry)
	}

	for _, source := range sources {
		switch {
		case source.feedOK && len(source.feed) > 0:
			for _, entry := range source.feed {
				if entry.Team == "" {
					entry.Team = source.team.Label
				}
				add(entry)
			}
		case source.scrapeOK && len(source.scraped) > 0:
			for _, match := range source.scraped {
				add(entryFromDiscovery(source.team.Label, match))
			}
		default:
			for _, entry := range prevByTeam[source.team.Label] {
				add(entry)
			}
		}
	}
	// schedule entries are never dropped, even when a fresh source omits them
	for _, entry := range previous {
		add(entry)
	}

	sortSchedule(out)
	return out
}

func entryFromDiscovery(teamLabel string, match discovery.Match) schedule.Entry {
	result := schedule.NotPlayed
	if match.Played && match.Score != "" {
		result = match.Score
	}
	return schedule.Entry{
		Team:          teamLabel,
		Date:          match.Date,
		Time:          match.Time,
		MatchID:       match.MatchID,
		HomeTeam:      match.HomeTeam,
		AwayTeam:      match.AwayTeam,
		Result:        result,
		Tournament:    match.Tournament,
		TournamentURL: match.TournamentURL,
		MatchURL:      match.URL,
	}
}

func sortSchedule(entries []schedule.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, okA := schedule.ParseDate(entries[i].Date, time.UTC)
		b, okB := schedule.ParseDate(entries[j].Date, time.UTC)
		if okA != okB {
			return okA
		}
		if !a.Equal(b) {
			return a.Before(b)
		}
		return entries[i].Time < entries[j].Time
	})
}
