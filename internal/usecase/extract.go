package usecase

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/handball-sync/internal/domain/discovery"
	"github.com/riskibarqy/handball-sync/internal/domain/leaguetable"
)

var (
	matchIDCellRegex = regexp.MustCompile(`\b(\d{9,})\b`)
	rowScoreRegex    = regexp.MustCompile(`(\d+)\s*[-–]\s*(\d+)`)
	cellScoreRegex   = regexp.MustCompile(`^\s*(\d{1,3})\s*[-–]\s*(\d{1,3})\b`)
	dateTokenRegex   = regexp.MustCompile(`\b(\d{2}\.\d{2}\.\d{4})\b`)
	timeTokenRegex   = regexp.MustCompile(`\b((?:[01]\d|2[0-3]):[0-5]\d)\b`)
	integerRegex     = regexp.MustCompile(`^[+-]?\d+$`)
)

const (
	teamIDParam       = "teamid"
	tournamentIDParam = "tournamentid"
)

// ExtractMatchRows scans table rows for fixtures. The first cell holding a run
// of nine or more digits is the match identity; links in the same row are
// classified by URL. A score only counts when it opens its own cell, so an
// attendance next to a "-" placeholder is never read as a result. The first
// row seen for an identity wins.
func ExtractMatchRows(html, pageURL string) []discovery.Match {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(pageURL)

	seen := make(map[string]struct{})
	out := make([]discovery.Match, 0, 32)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		matchID := ""
		row.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			if m := matchIDCellRegex.FindStringSubmatch(cell.Text()); m != nil {
				matchID = m[1]
				return false
			}
			return true
		})
		if matchID == "" {
			return
		}
		if _, ok := seen[matchID]; ok {
			return
		}
		seen[matchID] = struct{}{}

		item := discovery.Match{MatchID: matchID}
		row.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			text := cleanText(a.Text())
			switch {
			case isMatchDetailLink(href):
				if item.URL == "" {
					item.URL = resolveURL(base, href)
				}
			case queryParam(href, teamIDParam) != "":
				id := queryParam(href, teamIDParam)
				switch {
				case item.HomeTeamID == "":
					item.HomeTeamID, item.HomeTeam = id, text
				case item.AwayTeamID == "" && id != item.HomeTeamID:
					item.AwayTeamID, item.AwayTeam = id, text
				}
			case queryParam(href, tournamentIDParam) != "":
				if item.TournamentID == "" {
					item.TournamentID = queryParam(href, tournamentIDParam)
					item.TournamentURL = resolveURL(base, href)
					item.Tournament = text
				}
			}
		})

		cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
			return cleanText(cell.Text())
		})
		for _, cell := range cells {
			if m := cellScoreRegex.FindStringSubmatch(cell); m != nil {
				item.Played = true
				item.Score = m[1] + "-" + m[2]
				break
			}
		}
		rowText := strings.Join(cells, " ")
		if m := dateTokenRegex.FindStringSubmatch(rowText); m != nil {
			item.Date = m[1]
		}
		if m := timeTokenRegex.FindStringSubmatch(rowText); m != nil {
			item.Time = m[1]
		}
		out = append(out, item)
	})
	return out
}

// ExtractTournamentLinks returns every anchor carrying a tournament id,
// deduplicated by display name.
func ExtractTournamentLinks(html, pageURL string) []discovery.TournamentLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(pageURL)

	seen := make(map[string]struct{})
	out := make([]discovery.TournamentLink, 0, 8)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := queryParam(href, tournamentIDParam)
		if id == "" {
			return
		}
		name := cleanText(a.Text())
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, discovery.TournamentLink{ID: id, Name: name, URL: resolveURL(base, href)})
	})
	return out
}

// ExtractLeagueTable reads the first table whose rows carry a team link
// followed by numeric cells.
func ExtractLeagueTable(html string) []leaguetable.Row {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var rows []leaguetable.Row
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		parsed := make([]leaguetable.Row, 0, 16)
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if row, ok := parseStandingRow(tr, len(parsed)+1); ok {
				parsed = append(parsed, row)
			}
		})
		if len(parsed) == 0 {
			return true
		}
		rows = parsed
		return false
	})
	return rows
}

func parseStandingRow(tr *goquery.Selection, fallbackPosition int) (leaguetable.Row, bool) {
	cells := tr.Find("td")
	teamCell := -1
	row := leaguetable.Row{}
	cells.EachWithBreak(func(n int, cell *goquery.Selection) bool {
		link := cell.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			return queryParam(href, teamIDParam) != ""
		}).First()
		if link.Length() == 0 {
			return true
		}
		href, _ := link.Attr("href")
		row.TeamID = queryParam(href, teamIDParam)
		row.Team = cleanText(link.Text())
		teamCell = n
		return false
	})
	if teamCell < 0 || row.Team == "" {
		return leaguetable.Row{}, false
	}

	row.Position = fallbackPosition
	nums := make([]int, 0, 8)
	goalsFromPair := false
	cells.Each(func(n int, cell *goquery.Selection) {
		text := cleanText(cell.Text())
		text = strings.TrimSuffix(text, ".")
		switch {
		case n < teamCell:
			if v, err := strconv.Atoi(text); err == nil && v > 0 {
				row.Position = v
			}
		case n == teamCell:
		case rowScoreRegex.MatchString(text) && !integerRegex.MatchString(text):
			m := rowScoreRegex.FindStringSubmatch(text)
			row.GoalsFor, _ = strconv.Atoi(m[1])
			row.GoalsAgainst, _ = strconv.Atoi(m[2])
			goalsFromPair = true
		case integerRegex.MatchString(text):
			v, _ := strconv.Atoi(strings.TrimPrefix(text, "+"))
			nums = append(nums, v)
		}
	})
	if len(nums) < 4 {
		return leaguetable.Row{}, false
	}
	row.Played, row.Won, row.Draw, row.Lost = nums[0], nums[1], nums[2], nums[3]
	if !goalsFromPair && len(nums) >= 7 {
		row.GoalsFor, row.GoalsAgainst = nums[4], nums[5]
	}
	if len(nums) > 4 {
		row.Points = nums[len(nums)-1]
	}
	row.GoalDifference = row.GoalsFor - row.GoalsAgainst
	return row, true
}

// isMatchDetailLink matches /kamp/ paths and agreement-style path segments.
func isMatchDetailLink(href string) bool {
	lower := strings.ToLower(href)
	if strings.Contains(lower, "/kamp/") {
		return true
	}
	parsed, err := url.Parse(lower)
	if err != nil {
		return false
	}
	for _, segment := range strings.Split(parsed.Path, "/") {
		if strings.Contains(segment, "aftale") || strings.Contains(segment, "agreement") {
			return true
		}
	}
	return false
}

// queryParam returns a query parameter matched case-insensitively.
func queryParam(href, key string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	for name, values := range parsed.Query() {
		if strings.EqualFold(name, key) && len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
	}
	return ""
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
