package aggregate

import "math"

// UnknownTournament buckets matches that carry no tournament name.
const UnknownTournament = "Unknown"

type Totals struct {
	TotalGoals        int     `json:"totalGoals"`
	TotalPenaltyGoals int     `json:"totalPenaltyGoals"`
	TotalTwoMinutes   int     `json:"totalTwoMinutes"`
	TotalYellowCards  int     `json:"totalYellowCards"`
	TotalRedCards     int     `json:"totalRedCards"`
	MatchesPlayed     int     `json:"matchesPlayed"`
	GoalsPerMatch     float64 `json:"goalsPerMatch"`
}

// Add folds another set of totals into t. GoalsPerMatch is recomputed.
func (t *Totals) Add(other Totals) {
	t.TotalGoals += other.TotalGoals
	t.TotalPenaltyGoals += other.TotalPenaltyGoals
	t.TotalTwoMinutes += other.TotalTwoMinutes
	t.TotalYellowCards += other.TotalYellowCards
	t.TotalRedCards += other.TotalRedCards
	t.MatchesPlayed += other.MatchesPlayed
	t.GoalsPerMatch = GoalsPerMatch(t.TotalGoals, t.MatchesPlayed)
}

type TournamentStats struct {
	Tournament string `json:"tournament"`
	Totals
}

// PlayerStats is the cumulative record of one player across all matches.
type PlayerStats struct {
	PlayerID  string   `json:"playerId"`
	Name      string   `json:"name"`
	Number    string   `json:"number,omitempty"`
	TeamIDs   []string `json:"teamIds"`
	TeamNames []string `json:"teamNames"`
	Totals
	ByTournament []TournamentStats `json:"byTournament"`
}

// Tournament returns the sub-total for the named tournament.
func (p PlayerStats) Tournament(name string) (TournamentStats, bool) {
	for _, item := range p.ByTournament {
		if item.Tournament == name {
			return item, true
		}
	}
	return TournamentStats{}, false
}

// HasTeam reports whether the player has ever appeared for the team.
func (p PlayerStats) HasTeam(teamID string) bool {
	for _, id := range p.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// File is the persisted player-aggregates artifact.
type File struct {
	Aggregates  []PlayerStats `json:"aggregates"`
	GeneratedAt string        `json:"generatedAt"`
}

// GoalsPerMatch rounds goals/matches to two decimals; zero matches yields 0.
func GoalsPerMatch(goals, matches int) float64 {
	if matches <= 0 {
		return 0
	}
	return math.Round(float64(goals)/float64(matches)*100) / 100
}
