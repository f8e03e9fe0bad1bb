package usecase

import (
	"sort"
	"time"

	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
	"github.com/riskibarqy/handball-sync/internal/domain/playercatalog"
)

type catalogBuilder struct {
	entry   playercatalog.Entry
	teamPos map[string]int
}

// BuildPlayerCatalog folds every roster row into one entry per name identity.
// Matches are visited in date order; equal or unknown dates keep input order.
func BuildPlayerCatalog(matches []matchstats.MatchPlayerData) []playercatalog.Entry {
	ordered := chronological(matches)

	index := make(map[string]int)
	builders := make([]*catalogBuilder, 0, 64)
	for _, match := range ordered {
		sides := [2]struct {
			teamID, teamName string
			rows             []matchstats.PlayerBoxScore
		}{
			{match.HomeTeamID, match.HomeTeam, match.HomePlayers},
			{match.AwayTeamID, match.AwayTeam, match.AwayPlayers},
		}
		for _, side := range sides {
			for _, row := range side.rows {
				id := row.PlayerID
				if id == "" {
					id = matchstats.PlayerID(row.Name)
				}
				if id == "" {
					continue
				}

				pos, ok := index[id]
				if !ok {
					pos = len(builders)
					index[id] = pos
					builders = append(builders, &catalogBuilder{
						entry:   playercatalog.Entry{ID: id, Name: row.Name, Teams: []playercatalog.TeamRef{}},
						teamPos: make(map[string]int),
					})
				}
				b := builders[pos]
				b.entry.Matches++
				if row.Number != "" {
					b.entry.Number = row.Number
				}

				teamKey := side.teamID
				if teamKey == "" {
					teamKey = side.teamName
				}
				tp, ok := b.teamPos[teamKey]
				if !ok {
					tp = len(b.entry.Teams)
					b.teamPos[teamKey] = tp
					b.entry.Teams = append(b.entry.Teams, playercatalog.TeamRef{ID: side.teamID, Name: side.teamName})
				}
				b.entry.Teams[tp].Matches++
			}
		}
	}

	out := make([]playercatalog.Entry, 0, len(builders))
	for _, b := range builders {
		best := -1
		for n, team := range b.entry.Teams {
			// later teams must show a strictly greater count to take over
			if best < 0 || team.Matches > b.entry.Teams[best].Matches {
				best = n
			}
		}
		if best >= 0 {
			b.entry.PrimaryTeamID = b.entry.Teams[best].ID
			b.entry.PrimaryTeamName = b.entry.Teams[best].Name
		}
		out = append(out, b.entry)
	}
	return out
}

// chronological returns a date-ordered copy; unparsable dates sort as zero.
func chronological(matches []matchstats.MatchPlayerData) []matchstats.MatchPlayerData {
	ordered := make([]matchstats.MatchPlayerData, len(matches))
	copy(ordered, matches)
	dates := make(map[string]time.Time, len(ordered))
	for _, match := range ordered {
		dates[match.MatchID] = match.ParsedDate(time.UTC)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return dates[ordered[i].MatchID].Before(dates[ordered[j].MatchID])
	})
	return ordered
}
