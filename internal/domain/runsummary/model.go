package runsummary

import (
	"context"
	"strings"
)

type ResultChange struct {
	MatchID string `json:"matchId"`
	Result  string `json:"result"`
}

// TournamentResults groups the results that changed in one tournament.
type TournamentResults struct {
	Tournament    string         `json:"tournament"`
	TournamentURL string         `json:"tournamentUrl"`
	Matches       []ResultChange `json:"matches"`
}

type StatsChange struct {
	MatchID    string `json:"matchId"`
	Tournament string `json:"tournament"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
}

// Failure is one item that could not be processed in a stage.
type Failure struct {
	Stage string `json:"stage"`
	Item  string `json:"item"`
	Error string `json:"error"`
}

// Summary is the per-run change record.
type Summary struct {
	Timestamp      string              `json:"timestamp"`
	ResultsUpdated []TournamentResults `json:"resultsUpdated"`
	StatsUpdated   []StatsChange       `json:"statsUpdated"`
	NoChanges      bool                `json:"noChanges"`
	FailureCount   int                 `json:"failureCount"`
	Failures       []Failure           `json:"failures,omitempty"`
}

// Tournaments returns every tournament the summary flags as changed.
func (s Summary) Tournaments() map[string]string {
	out := make(map[string]string, len(s.ResultsUpdated)+len(s.StatsUpdated))
	for _, item := range s.ResultsUpdated {
		out[item.Tournament] = item.TournamentURL
	}
	for _, item := range s.StatsUpdated {
		if _, ok := out[item.Tournament]; !ok && item.Tournament != "" {
			out[item.Tournament] = ""
		}
	}
	return out
}

// IsCup reports whether a tournament is a knockout cup, which has no table.
func IsCup(tournament string) bool {
	return strings.Contains(strings.ToLower(tournament), "cup")
}

type Metadata struct {
	LastUpdated      string `json:"lastUpdated"`
	LatestResultDate string `json:"latestResultDate,omitempty"`
	ScheduleCount    int    `json:"scheduleCount"`
	PlayedCount      int    `json:"playedCount"`
}

type Repository interface {
	LoadSummary(ctx context.Context) (Summary, error)
	SaveSummary(ctx context.Context, summary Summary) error
	SaveMetadata(ctx context.Context, metadata Metadata) error
}
