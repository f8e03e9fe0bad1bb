package usecase

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
)

var (
	datedTimeRegex = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4})\s*(?:,|kl\.?|klokken|-)?\s*\d{1,2}[:.]\d{2}`)
	jerseyRegex    = regexp.MustCompile(`^\d{1,3}$`)
)

var excludedRosterNames = []string{
	"total", "i alt", "sum", "hold", "team", "træner", "traener", "officials", "official", "leder", "holdleder", "spiller", "navn", "name", "player",
}

type rosterColumn int

const (
	colIgnore rosterColumn = iota
	colNumber
	colName
	colGoals
	colPenaltyGoals
	colTwoMinutes
	colYellow
	colRed
)

// ScrapeTarget identifies one match page to scrape. Tournament and Date are
// used when the page itself does not carry them.
type ScrapeTarget struct {
	MatchID    string
	URL        string
	Tournament string
	Date       string
}

// StatsScraper extracts one box-score record per completed match page.
type StatsScraper struct {
	timing PageTiming
	logger *logging.Logger
}

func NewStatsScraper(timing PageTiming, logger *logging.Logger) *StatsScraper {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsScraper{timing: timing.withDefaults(), logger: logger.Named("stats_scraper")}
}

// Scrape loads the match page on the given page. A navigation failure returns an
// error; a page that loads but yields no record returns (nil, false, nil).
func (s *StatsScraper) Scrape(ctx context.Context, page Page, target ScrapeTarget) (*matchstats.MatchPlayerData, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsScraper.Scrape")
	defer span.End()

	html, err := loadPage(ctx, page, target.URL, s.timing, s.logger)
	if err != nil {
		return nil, false, err
	}
	record, ok := ParseMatchPage(html, target.URL, target.MatchID)
	if !ok {
		s.logger.DebugContext(ctx, "match page has no box score", "match_id", target.MatchID)
		return nil, false, nil
	}
	if record.Tournament == "" {
		record.Tournament = target.Tournament
	}
	if record.Date == "" {
		record.Date = target.Date
	}
	return record, true, nil
}

// ParseMatchPage extracts teams, score, date, tournament and both rosters.
// It rejects pages missing either team name or carrying no roster rows at all.
func ParseMatchPage(html, pageURL, matchID string) (*matchstats.MatchPlayerData, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}

	header := extractMatchHeader(doc)
	if header.home.name == "" || header.away.name == "" {
		return nil, false
	}

	record := &matchstats.MatchPlayerData{
		MatchID:    matchID,
		URL:        pageURL,
		HomeTeamID: header.home.id,
		HomeTeam:   header.home.name,
		AwayTeamID: header.away.id,
		AwayTeam:   header.away.name,
		HomeScore:  header.home.score,
		AwayScore:  header.away.score,
	}

	if m := datedTimeRegex.FindStringSubmatch(cleanText(doc.Text())); m != nil {
		record.Date = m[1]
	}
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if queryParam(href, tournamentIDParam) == "" {
			return true
		}
		record.Tournament = cleanText(a.Text())
		return record.Tournament == ""
	})

	rosters := extractRosters(doc)
	if len(rosters) > 0 {
		record.HomePlayers = rosters[0]
	}
	if len(rosters) > 1 {
		record.AwayPlayers = rosters[1]
	}
	if len(record.HomePlayers) == 0 && len(record.AwayPlayers) == 0 {
		return nil, false
	}
	if record.HomePlayers == nil {
		record.HomePlayers = []matchstats.PlayerBoxScore{}
	}
	if record.AwayPlayers == nil {
		record.AwayPlayers = []matchstats.PlayerBoxScore{}
	}
	return record, true
}

// ExtractMatchScore returns the final score of a match page as "H-A", or "".
func ExtractMatchScore(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	header := extractMatchHeader(doc)
	if !header.scored {
		return ""
	}
	return strconv.Itoa(header.home.score) + "-" + strconv.Itoa(header.away.score)
}

type headerSide struct {
	id    string
	name  string
	score int
}

type matchHeader struct {
	home   headerSide
	away   headerSide
	scored bool
}

// extractMatchHeader pairs team-link cells with an adjacent numeric score cell.
// Without such pairs it falls back to the first two distinct team links and a
// score-classed element.
func extractMatchHeader(doc *goquery.Document) matchHeader {
	sides := make([]headerSide, 0, 2)
	doc.Find("td, th").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		id, name := teamLink(cell)
		if id == "" || name == "" {
			return true
		}
		scoreText := strings.TrimSpace(cell.Next().Text())
		if !integerRegex.MatchString(scoreText) {
			scoreText = strings.TrimSpace(cell.Prev().Text())
		}
		score, err := strconv.Atoi(scoreText)
		if err != nil {
			return true
		}
		if len(sides) == 1 && sides[0].id == id {
			return true
		}
		sides = append(sides, headerSide{id: id, name: name, score: score})
		return len(sides) < 2
	})
	if len(sides) == 2 {
		return matchHeader{home: sides[0], away: sides[1], scored: true}
	}

	sides = sides[:0]
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		id := queryParam(href, teamIDParam)
		name := cleanText(a.Text())
		if id == "" || name == "" {
			return true
		}
		if len(sides) == 1 && sides[0].id == id {
			return true
		}
		sides = append(sides, headerSide{id: id, name: name})
		return len(sides) < 2
	})
	header := matchHeader{}
	if len(sides) > 0 {
		header.home = sides[0]
	}
	if len(sides) > 1 {
		header.away = sides[1]
	}
	doc.Find(`[class*="score"], [class*="result"]`).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		m := rowScoreRegex.FindStringSubmatch(cleanText(node.Text()))
		if m == nil {
			return true
		}
		header.home.score, _ = strconv.Atoi(m[1])
		header.away.score, _ = strconv.Atoi(m[2])
		header.scored = true
		return false
	})
	return header
}

func teamLink(cell *goquery.Selection) (string, string) {
	var id, name string
	cell.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if v := queryParam(href, teamIDParam); v != "" {
			id = v
			name = cleanText(a.Text())
			return false
		}
		return true
	})
	return id, name
}

// extractRosters returns the first two distinct tables whose header names a
// player column and a goals column.
func extractRosters(doc *goquery.Document) [][]matchstats.PlayerBoxScore {
	seen := make(map[string]struct{})
	out := make([][]matchstats.PlayerBoxScore, 0, 2)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		columns := rosterColumns(table)
		if columns == nil {
			return true
		}
		signature := cleanText(table.Text())
		if _, ok := seen[signature]; ok {
			return true
		}
		seen[signature] = struct{}{}
		out = append(out, parseRosterRows(table, columns))
		return len(out) < 2
	})
	return out
}

func rosterColumns(table *goquery.Selection) []rosterColumn {
	headerRow := table.Find("thead tr").First()
	if headerRow.Length() == 0 {
		headerRow = table.Find("tr").First()
	}
	cells := headerRow.Find("th, td")
	if cells.Length() == 0 {
		return nil
	}

	columns := make([]rosterColumn, cells.Length())
	hasName, hasGoals := false, false
	cells.Each(func(n int, cell *goquery.Selection) {
		columns[n] = classifyRosterHeader(cell.Text())
		switch columns[n] {
		case colName:
			hasName = true
		case colGoals:
			hasGoals = true
		}
	})
	if !hasName || !hasGoals {
		return nil
	}
	return columns
}

func classifyRosterHeader(text string) rosterColumn {
	label := strings.ToLower(cleanText(text))
	switch {
	case label == "":
		return colIgnore
	case label == "#" || label == "nr" || label == "nr." || label == "no":
		return colNumber
	case strings.Contains(label, "spiller") || strings.Contains(label, "navn") || strings.Contains(label, "player") || label == "name":
		return colName
	case strings.Contains(label, "7m") || strings.Contains(label, "straf") || strings.Contains(label, "penalty"):
		return colPenaltyGoals
	case strings.Contains(label, "2 min") || strings.Contains(label, "2min") || strings.Contains(label, "udv"):
		return colTwoMinutes
	case strings.Contains(label, "gul") || strings.Contains(label, "advarsel") || strings.Contains(label, "yellow"):
		return colYellow
	case strings.Contains(label, "rød") || strings.Contains(label, "diskv") || strings.Contains(label, "red"):
		return colRed
	case strings.Contains(label, "mål") || strings.Contains(label, "goals") || label == "m":
		return colGoals
	default:
		return colIgnore
	}
}

func parseRosterRows(table *goquery.Selection, columns []rosterColumn) []matchstats.PlayerBoxScore {
	out := make([]matchstats.PlayerBoxScore, 0, 16)
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := matchstats.PlayerBoxScore{}
		cells.Each(func(n int, cell *goquery.Selection) {
			if n >= len(columns) {
				return
			}
			text := cleanText(cell.Text())
			switch columns[n] {
			case colNumber:
				if jerseyRegex.MatchString(text) {
					row.Number = text
				}
			case colName:
				row.Name = text
			case colGoals:
				row.Goals = atoiOrZero(text)
			case colPenaltyGoals:
				row.PenaltyGoals = atoiOrZero(text)
			case colTwoMinutes:
				row.TwoMinutes = atoiOrZero(text)
			case colYellow:
				row.YellowCards = markCount(text)
			case colRed:
				row.RedCards = markCount(text)
			}
		})
		if isExcludedRosterName(row.Name) {
			return
		}
		row.PlayerID = matchstats.PlayerID(row.Name)
		out = append(out, row)
	})
	return out
}

func isExcludedRosterName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return true
	}
	for _, word := range excludedRosterNames {
		if lower == word || strings.HasPrefix(lower, word+" ") || strings.HasPrefix(lower, word+":") {
			return true
		}
	}
	return false
}

func atoiOrZero(text string) int {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// markCount reads card columns, which publish either a count or a marker glyph.
func markCount(text string) int {
	if v := atoiOrZero(text); v > 0 {
		return v
	}
	if strings.TrimSpace(text) != "" && strings.TrimSpace(text) != "0" && strings.TrimSpace(text) != "-" {
		return 1
	}
	return 0
}
