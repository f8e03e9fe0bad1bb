package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "02.01.2006"
	// NotPlayed is the result placeholder the federation publishes for unplayed fixtures.
	NotPlayed = "-"
)

var scoreRegex = regexp.MustCompile(`^\s*(\d+)\s*[-–]\s*(\d+)\s*$`)

// Entry is one fixture in a team's published schedule.
type Entry struct {
	Team          string `json:"team"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	MatchID       string `json:"matchId"`
	HomeTeam      string `json:"homeTeam"`
	AwayTeam      string `json:"awayTeam"`
	Result        string `json:"result"`
	Venue         string `json:"venue"`
	Attendance    string `json:"attendance"`
	Tournament    string `json:"tournament"`
	TournamentURL string `json:"tournamentUrl"`
	MatchURL      string `json:"matchUrl,omitempty"`
}

// HasResult reports whether a final score has been recorded.
func (e Entry) HasResult() bool {
	result := strings.TrimSpace(e.Result)
	return result != "" && result != NotPlayed
}

// ParseDate parses a DD.MM.YYYY date at local midnight.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	parsed, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// EndOfDay returns 23:59:59 local time of the given DD.MM.YYYY date.
func EndOfDay(value string, loc *time.Location) (time.Time, bool) {
	day, ok := ParseDate(value, loc)
	if !ok {
		return time.Time{}, false
	}
	return day.Add(24*time.Hour - time.Second), true
}

// ParseScore splits an "H-A" result into its two goal counts.
func ParseScore(value string) (home, away int, ok bool) {
	m := scoreRegex.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, false
	}
	home, errHome := strconv.Atoi(m[1])
	away, errAway := strconv.Atoi(m[2])
	if errHome != nil || errAway != nil {
		return 0, 0, false
	}
	return home, away, true
}

// NormalizeScore renders a score as "H-A" or returns "" when it is not a score.
func NormalizeScore(value string) string {
	home, away, ok := ParseScore(value)
	if !ok {
		return ""
	}
	return strconv.Itoa(home) + "-" + strconv.Itoa(away)
}

// IndexByMatchID maps match identity to entry; the first entry for an id wins.
func IndexByMatchID(entries []Entry) map[string]Entry {
	out := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if entry.MatchID == "" {
			continue
		}
		if _, ok := out[entry.MatchID]; ok {
			continue
		}
		out[entry.MatchID] = entry
	}
	return out
}
