package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/handball-sync/internal/domain/aggregate"
	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
)

type aggregateBuilder struct {
	stats         aggregate.PlayerStats
	numberDate    time.Time
	hasNumber     bool
	teamSeen      map[string]struct{}
	tournamentPos map[string]int
}

// BuildPlayerAggregates folds every roster row into per-player totals in
// collection order. The result is ordered by total goals, ties keep first-seen order.
func BuildPlayerAggregates(matches []matchstats.MatchPlayerData) []aggregate.PlayerStats {
	index := make(map[string]int)
	builders := make([]*aggregateBuilder, 0, 64)

	for _, match := range matches {
		date := match.ParsedDate(time.UTC)
		tournament := strings.TrimSpace(match.Tournament)
		if tournament == "" {
			tournament = aggregate.UnknownTournament
		}

		fold := func(teamID, teamName string, rows []matchstats.PlayerBoxScore) {
			for _, row := range rows {
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
					builders = append(builders, &aggregateBuilder{
						stats: aggregate.PlayerStats{
							PlayerID:     id,
							Name:         row.Name,
							TeamIDs:      []string{},
							TeamNames:    []string{},
							ByTournament: []aggregate.TournamentStats{},
						},
						teamSeen:      make(map[string]struct{}),
						tournamentPos: make(map[string]int),
					})
				}
				builders[pos].add(row, date, teamID, teamName, tournament)
			}
		}
		fold(match.HomeTeamID, match.HomeTeam, match.HomePlayers)
		fold(match.AwayTeamID, match.AwayTeam, match.AwayPlayers)
	}

	out := make([]aggregate.PlayerStats, 0, len(builders))
	for _, b := range builders {
		out = append(out, b.stats)
	}
	sortByGoals(out)
	return out
}

func (b *aggregateBuilder) add(row matchstats.PlayerBoxScore, date time.Time, teamID, teamName, tournament string) {
	line := aggregate.Totals{
		TotalGoals:        row.Goals,
		TotalPenaltyGoals: row.PenaltyGoals,
		TotalTwoMinutes:   row.TwoMinutes,
		TotalYellowCards:  row.YellowCards,
		TotalRedCards:     row.RedCards,
		MatchesPlayed:     1,
	}
	b.stats.Totals.Add(line)

	if row.Number != "" && (!b.hasNumber || date.After(b.numberDate)) {
		b.stats.Number = row.Number
		b.numberDate = date
		b.hasNumber = true
	}

	teamKey := teamID
	if teamKey == "" {
		teamKey = teamName
	}
	if _, ok := b.teamSeen[teamKey]; !ok && teamKey != "" {
		b.teamSeen[teamKey] = struct{}{}
		b.stats.TeamIDs = append(b.stats.TeamIDs, teamID)
		b.stats.TeamNames = append(b.stats.TeamNames, teamName)
	}

	pos, ok := b.tournamentPos[tournament]
	if !ok {
		pos = len(b.stats.ByTournament)
		b.tournamentPos[tournament] = pos
		b.stats.ByTournament = append(b.stats.ByTournament, aggregate.TournamentStats{Tournament: tournament})
	}
	b.stats.ByTournament[pos].Totals.Add(line)
}

// FilterByTeams keeps players who have ever appeared for one of the teams.
func FilterByTeams(stats []aggregate.PlayerStats, teamIDs []string) []aggregate.PlayerStats {
	out := make([]aggregate.PlayerStats, 0, len(stats))
	for _, player := range stats {
		for _, teamID := range teamIDs {
			if player.HasTeam(teamID) {
				out = append(out, player)
				break
			}
		}
	}
	return out
}

// FilterByTournament re-projects each player's totals onto one tournament's
// sub-total. Players without matches in it are dropped.
func FilterByTournament(stats []aggregate.PlayerStats, tournament string) []aggregate.PlayerStats {
	out := make([]aggregate.PlayerStats, 0, len(stats))
	for _, player := range stats {
		sub, ok := player.Tournament(tournament)
		if !ok {
			continue
		}
		projected := player
		projected.Totals = sub.Totals
		projected.Totals.GoalsPerMatch = aggregate.GoalsPerMatch(sub.TotalGoals, sub.MatchesPlayed)
		projected.ByTournament = []aggregate.TournamentStats{sub}
		out = append(out, projected)
	}
	sortByGoals(out)
	return out
}

func sortByGoals(stats []aggregate.PlayerStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalGoals > stats[j].TotalGoals
	})
}
