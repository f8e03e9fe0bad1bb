package teamdetail

import "context"

// Outcome of a match from the team's point of view.
const (
	ResultWin  = "W"
	ResultDraw = "D"
	ResultLoss = "L"
)

type Match struct {
	MatchID           string `json:"matchId"`
	Date              string `json:"date"`
	Tournament        string `json:"tournament"`
	Opponent          string `json:"opponent"`
	OpponentID        string `json:"opponentId"`
	OpponentIsOurTeam bool   `json:"opponentIsOurTeam"`
	IsHome            bool   `json:"isHome"`
	GoalsFor          int    `json:"goalsFor"`
	GoalsAgainst      int    `json:"goalsAgainst"`
	Result            string `json:"result"`
	URL               string `json:"url,omitempty"`
}

type RosterPlayer struct {
	PlayerID     string `json:"playerId"`
	Name         string `json:"name"`
	Number       string `json:"number,omitempty"`
	Goals        int    `json:"goals"`
	PenaltyGoals int    `json:"penaltyGoals"`
	TwoMinutes   int    `json:"twoMinutes"`
	Matches      int    `json:"matches"`
}

type Summary struct {
	Matches        int     `json:"matches"`
	Wins           int     `json:"wins"`
	Draws          int     `json:"draws"`
	Losses         int     `json:"losses"`
	GoalsFor       int     `json:"goalsFor"`
	GoalsAgainst   int     `json:"goalsAgainst"`
	GoalDifference int     `json:"goalDifference"`
	GoalsPerMatch  float64 `json:"goalsPerMatch"`
}

// Detail is the per-team view: match history newest first, roster by goals
// descending, and the summary over the retained matches.
type Detail struct {
	TeamID      string         `json:"teamId"`
	TeamName    string         `json:"teamName"`
	IsOurTeam   bool           `json:"isOurTeam"`
	Tournament  string         `json:"tournament,omitempty"`
	Tournaments []string       `json:"tournaments"`
	Matches     []Match        `json:"matches"`
	Roster      []RosterPlayer `json:"roster"`
	Summary     Summary        `json:"summary"`
}

// Classify resolves the outcome by goal comparison.
func Classify(goalsFor, goalsAgainst int) string {
	switch {
	case goalsFor > goalsAgainst:
		return ResultWin
	case goalsFor < goalsAgainst:
		return ResultLoss
	default:
		return ResultDraw
	}
}

type Repository interface {
	SaveTeamDetail(ctx context.Context, detail Detail) error
}
