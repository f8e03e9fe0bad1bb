package usecase

import (
	"sort"
	"time"

	"github.com/riskibarqy/handball-sync/internal/domain/aggregate"
	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
	"github.com/riskibarqy/handball-sync/internal/domain/teamdetail"
)

// BuildTeamDetailData builds the history, roster and summary of one team from
// the stats collection. It returns false when no match survives the filters;
// that is an empty combination, not a failure.
func BuildTeamDetailData(
	teamID string,
	stats []matchstats.MatchPlayerData,
	scheduleIndex map[string]schedule.Entry,
	ourTeamIDs []string,
	tournamentFilter string,
) (teamdetail.Detail, bool) {
	ours := make(map[string]struct{}, len(ourTeamIDs))
	for _, id := range ourTeamIDs {
		ours[id] = struct{}{}
	}
	_, isOurs := ours[teamID]

	detail := teamdetail.Detail{
		TeamID:      teamID,
		IsOurTeam:   isOurs,
		Tournament:  tournamentFilter,
		Tournaments: []string{},
		Matches:     []teamdetail.Match{},
		Roster:      []teamdetail.RosterPlayer{},
	}

	seenTournament := make(map[string]struct{})
	rosterPos := make(map[string]int)
	type dated struct {
		match teamdetail.Match
		date  time.Time
	}
	history := make([]dated, 0, 32)

	for _, record := range stats {
		isHome := record.HomeTeamID == teamID
		if !isHome && record.AwayTeamID != teamID {
			continue
		}
		if _, ok := seenTournament[record.Tournament]; !ok && record.Tournament != "" {
			seenTournament[record.Tournament] = struct{}{}
			detail.Tournaments = append(detail.Tournaments, record.Tournament)
		}
		if tournamentFilter != "" && record.Tournament != tournamentFilter {
			continue
		}

		item := teamdetail.Match{
			MatchID:    record.MatchID,
			Date:       record.Date,
			Tournament: record.Tournament,
			IsHome:     isHome,
			URL:        record.URL,
		}
		players := record.HomePlayers
		if isHome {
			detail.TeamName = firstNonEmpty(detail.TeamName, record.HomeTeam)
			item.Opponent, item.OpponentID = record.AwayTeam, record.AwayTeamID
			item.GoalsFor, item.GoalsAgainst = record.HomeScore, record.AwayScore
		} else {
			detail.TeamName = firstNonEmpty(detail.TeamName, record.AwayTeam)
			item.Opponent, item.OpponentID = record.HomeTeam, record.HomeTeamID
			item.GoalsFor, item.GoalsAgainst = record.AwayScore, record.HomeScore
			players = record.AwayPlayers
		}
		_, item.OpponentIsOurTeam = ours[item.OpponentID]
		item.Result = teamdetail.Classify(item.GoalsFor, item.GoalsAgainst)
		if item.URL == "" {
			if entry, ok := scheduleIndex[record.MatchID]; ok {
				item.URL = entry.MatchURL
			}
		}
		history = append(history, dated{match: item, date: record.ParsedDate(time.UTC)})

		for _, row := range players {
			id := row.PlayerID
			if id == "" {
				id = matchstats.PlayerID(row.Name)
			}
			if id == "" {
				continue
			}
			pos, ok := rosterPos[id]
			if !ok {
				pos = len(detail.Roster)
				rosterPos[id] = pos
				detail.Roster = append(detail.Roster, teamdetail.RosterPlayer{PlayerID: id, Name: row.Name})
			}
			player := &detail.Roster[pos]
			player.Goals += row.Goals
			player.PenaltyGoals += row.PenaltyGoals
			player.TwoMinutes += row.TwoMinutes
			player.Matches++
			if row.Number != "" {
				player.Number = row.Number
			}
		}
	}

	if len(history) == 0 {
		return teamdetail.Detail{}, false
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].date.After(history[j].date)
	})
	for _, item := range history {
		detail.Matches = append(detail.Matches, item.match)
		summarize(&detail.Summary, item.match)
	}
	detail.Summary.GoalDifference = detail.Summary.GoalsFor - detail.Summary.GoalsAgainst
	detail.Summary.GoalsPerMatch = aggregate.GoalsPerMatch(detail.Summary.GoalsFor, detail.Summary.Matches)

	sort.SliceStable(detail.Roster, func(i, j int) bool {
		return detail.Roster[i].Goals > detail.Roster[j].Goals
	})
	return detail, true
}

func summarize(summary *teamdetail.Summary, match teamdetail.Match) {
	summary.Matches++
	summary.GoalsFor += match.GoalsFor
	summary.GoalsAgainst += match.GoalsAgainst
	switch match.Result {
	case teamdetail.ResultWin:
		summary.Wins++
	case teamdetail.ResultLoss:
		summary.Losses++
	default:
		summary.Draws++
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
