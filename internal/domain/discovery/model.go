package discovery

import (
	"context"
	"time"
)

// Match is one fixture row found on a team or tournament page.
type Match struct {
	MatchID       string `json:"matchId"`
	URL           string `json:"url"`
	HomeTeamID    string `json:"homeTeamId,omitempty"`
	AwayTeamID    string `json:"awayTeamId,omitempty"`
	HomeTeam      string `json:"homeTeam,omitempty"`
	AwayTeam      string `json:"awayTeam,omitempty"`
	TournamentID  string `json:"tournamentId,omitempty"`
	TournamentURL string `json:"tournamentUrl,omitempty"`
	Tournament    string `json:"tournament,omitempty"`
	Date          string `json:"date,omitempty"`
	Time          string `json:"time,omitempty"`
	Score         string `json:"score,omitempty"`
	Played        bool   `json:"played"`
}

type TournamentLink struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type CachedMatch struct {
	MatchID string `json:"matchId"`
	URL     string `json:"url"`
	Played  bool   `json:"played"`
}

type CachedTournament struct {
	Name    string        `json:"name"`
	URL     string        `json:"url"`
	Matches []CachedMatch `json:"matches"`
}

// TournamentCache is the persisted tournament->matches list used by quick runs.
type TournamentCache struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Tournaments []CachedTournament `json:"tournaments"`
}

// Valid reports whether the cache is populated and younger than ttl.
func (c TournamentCache) Valid(now time.Time, ttl time.Duration) bool {
	if c.GeneratedAt.IsZero() || len(c.Tournaments) == 0 {
		return false
	}
	return now.Sub(c.GeneratedAt) < ttl
}

// PlayedMatches flattens the cache into played matches that carry a URL.
func (c TournamentCache) PlayedMatches() []Match {
	out := make([]Match, 0, 64)
	for _, tournament := range c.Tournaments {
		for _, item := range tournament.Matches {
			if !item.Played || item.URL == "" {
				continue
			}
			out = append(out, Match{
				MatchID:       item.MatchID,
				URL:           item.URL,
				Tournament:    tournament.Name,
				TournamentURL: tournament.URL,
				Played:        true,
			})
		}
	}
	return out
}

type Repository interface {
	LoadTournamentCache(ctx context.Context) (TournamentCache, error)
	SaveTournamentCache(ctx context.Context, cache TournamentCache) error
}
