package matchstats

import (
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/riskibarqy/handball-sync/internal/domain/playercatalog"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
)

// PlayerBoxScore is one roster row of a match report.
type PlayerBoxScore struct {
	PlayerID     string `json:"playerId"`
	Name         string `json:"name"`
	Number       string `json:"number,omitempty"`
	Goals        int    `json:"goals"`
	PenaltyGoals int    `json:"penaltyGoals"`
	TwoMinutes   int    `json:"twoMinutes"`
	YellowCards  int    `json:"yellowCards"`
	RedCards     int    `json:"redCards"`
}

// MatchPlayerData is the box score record for one completed match.
type MatchPlayerData struct {
	MatchID     string           `json:"matchId"`
	Date        string           `json:"date"`
	URL         string           `json:"url"`
	HomeTeamID  string           `json:"homeTeamId"`
	HomeTeam    string           `json:"homeTeam"`
	AwayTeamID  string           `json:"awayTeamId"`
	AwayTeam    string           `json:"awayTeam"`
	HomeScore   int              `json:"homeScore"`
	AwayScore   int              `json:"awayScore"`
	Tournament  string           `json:"tournament"`
	HomePlayers []PlayerBoxScore `json:"homePlayers"`
	AwayPlayers []PlayerBoxScore `json:"awayPlayers"`
}

// ParsedDate returns the match day at local midnight, or the zero time.
func (m MatchPlayerData) ParsedDate(loc *time.Location) time.Time {
	day, _ := schedule.ParseDate(m.Date, loc)
	return day
}

// File is the persisted player-stats artifact.
type File struct {
	Players             []playercatalog.Entry `json:"players"`
	MatchStats          []MatchPlayerData     `json:"matchStats"`
	MatchesWithoutStats []string              `json:"matchesWithoutStats"`
	LastUpdated         string                `json:"lastUpdated"`
}

// KnownIDs returns identities that either carry stats or are known to have none.
func (f File) KnownIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(f.MatchStats)+len(f.MatchesWithoutStats))
	for _, item := range f.MatchStats {
		out[item.MatchID] = struct{}{}
	}
	for _, id := range f.MatchesWithoutStats {
		out[id] = struct{}{}
	}
	return out
}

// Upsert replaces the record with the same identity or appends it.
func (f *File) Upsert(record MatchPlayerData) {
	for n := range f.MatchStats {
		if f.MatchStats[n].MatchID == record.MatchID {
			f.MatchStats[n] = record
			f.dropWithoutStats(record.MatchID)
			return
		}
	}
	f.MatchStats = append(f.MatchStats, record)
	f.dropWithoutStats(record.MatchID)
}

// MarkWithoutStats records an identity whose page loaded but carried no box score.
func (f *File) MarkWithoutStats(matchID string) {
	for _, id := range f.MatchesWithoutStats {
		if id == matchID {
			return
		}
	}
	f.MatchesWithoutStats = append(f.MatchesWithoutStats, matchID)
}

// Forget removes every trace of the given identities so they are scraped again.
func (f *File) Forget(ids []string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[strings.TrimSpace(id)] = struct{}{}
	}

	removed := 0
	stats := f.MatchStats[:0]
	for _, item := range f.MatchStats {
		if _, ok := drop[item.MatchID]; ok {
			removed++
			continue
		}
		stats = append(stats, item)
	}
	f.MatchStats = stats

	without := f.MatchesWithoutStats[:0]
	for _, id := range f.MatchesWithoutStats {
		if _, ok := drop[id]; ok {
			removed++
			continue
		}
		without = append(without, id)
	}
	f.MatchesWithoutStats = without
	return removed
}

func (f *File) dropWithoutStats(matchID string) {
	out := f.MatchesWithoutStats[:0]
	for _, id := range f.MatchesWithoutStats {
		if id != matchID {
			out = append(out, id)
		}
	}
	f.MatchesWithoutStats = out
}

// NormalizeName lower-cases a display name and collapses its whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// PlayerID derives the player identity from the normalized display name.
// Two players sharing a normalized name collide into one identity; the
// federation does not publish a stable player id to disambiguate them.
func PlayerID(name string) string {
	normalized := NormalizeName(name)
	if normalized == "" {
		return ""
	}
	return "p" + strconv.FormatUint(xxhash.Sum64String(normalized), 16)
}
