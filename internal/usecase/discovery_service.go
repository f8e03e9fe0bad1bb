package usecase

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/domain/discovery"
	"github.com/riskibarqy/handball-sync/internal/domain/leaguetable"
	"github.com/riskibarqy/handball-sync/internal/domain/runsummary"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

// TabState is one entry of the tab fallback chain on a team or tournament page.
type TabState struct {
	Name     string
	Selector string
}

// DefaultTabChain lists the match tabs in the order they are tried. Selectors
// are XPath expressions over the visible tab label.
var DefaultTabChain = []TabState{
	{Name: "AllMatchesTab", Selector: tabLabelXPath("Alle kampe")},
	{Name: "MatchesTab", Selector: tabLabelXPath("Kampe")},
	{Name: "RecentMatchesTab", Selector: tabLabelXPath("Seneste kampe")},
	{Name: "FullScheduleTab", Selector: tabLabelXPath("Kampprogram")},
}

func tabLabelXPath(label string) string {
	return `//*[self::a or self::button or self::li or self::span][normalize-space(.)="` + label + `"]`
}

// Team is one tracked club team.
type Team struct {
	Label   string
	ID      string
	PageURL string
}

type DiscoveryConfig struct {
	Timing      PageTiming
	Concurrency int
	Tabs        []TabState
}

type TeamDiscovery struct {
	Team        Team
	Tab         string
	Matches     []discovery.Match
	Tournaments []discovery.TournamentLink
}

type TournamentDiscovery struct {
	Link    discovery.TournamentLink
	Tab     string
	Matches []discovery.Match
	Table   leaguetable.Table
}

// DiscoveryService finds which matches exist and where their detail pages live.
type DiscoveryService struct {
	browser Browser
	cfg     DiscoveryConfig
	logger  *logging.Logger
	now     func() time.Time
}

func NewDiscoveryService(browser Browser, cfg DiscoveryConfig, logger *logging.Logger) *DiscoveryService {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.Timing = cfg.Timing.withDefaults()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if len(cfg.Tabs) == 0 {
		cfg.Tabs = DefaultTabChain
	}
	return &DiscoveryService{
		browser: browser,
		cfg:     cfg,
		logger:  logger.Named("discovery"),
		now:     time.Now,
	}
}

// DiscoverTeam loads a team page, collects its tournament links and runs the
// tab chain for match rows. An exhausted chain yields no matches and no error.
func (s *DiscoveryService) DiscoverTeam(ctx context.Context, team Team) (TeamDiscovery, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.DiscoverTeam")
	defer span.End()

	result := TeamDiscovery{Team: team}
	if team.PageURL == "" {
		return result, crerr.Mark(crerr.Newf("team %s has no page url", team.ID), ErrInvalidInput)
	}

	err := WithPage(ctx, s.browser, func(page Page) error {
		landing, err := loadPage(ctx, page, team.PageURL, s.cfg.Timing, s.logger)
		if err != nil {
			return err
		}
		result.Tournaments = ExtractTournamentLinks(landing, team.PageURL)

		matches, tab, html := s.runTabChain(ctx, page, team.PageURL)
		result.Matches = matches
		result.Tab = tab
		if html != "" {
			result.Tournaments = mergeTournamentLinks(result.Tournaments, ExtractTournamentLinks(html, team.PageURL))
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	s.logger.DebugContext(ctx, "team discovered",
		"team_id", team.ID,
		"tab", result.Tab,
		"matches", len(result.Matches),
		"tournaments", len(result.Tournaments),
	)
	return result, nil
}

// DiscoverTournament loads a tournament page for its matches and standings.
// Rows already on the landing page are used before falling back to the tab chain.
func (s *DiscoveryService) DiscoverTournament(ctx context.Context, link discovery.TournamentLink) (TournamentDiscovery, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.DiscoverTournament")
	defer span.End()

	result := TournamentDiscovery{Link: link}
	if link.URL == "" {
		return result, crerr.Mark(crerr.Newf("tournament %q has no url", link.Name), ErrInvalidInput)
	}

	err := WithPage(ctx, s.browser, func(page Page) error {
		landing, err := loadPage(ctx, page, link.URL, s.cfg.Timing, s.logger)
		if err != nil {
			return err
		}
		result.Table = leaguetable.Table{
			Tournament:    link.Name,
			TournamentURL: link.URL,
			Rows:          ExtractLeagueTable(landing),
			UpdatedAt:     s.now().UTC(),
		}

		result.Matches = ExtractMatchRows(landing, link.URL)
		if len(result.Matches) == 0 {
			result.Matches, result.Tab, _ = s.runTabChain(ctx, page, link.URL)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	for n := range result.Matches {
		if result.Matches[n].Tournament == "" {
			result.Matches[n].Tournament = link.Name
		}
		if result.Matches[n].TournamentURL == "" {
			result.Matches[n].TournamentURL = link.URL
		}
	}
	return result, nil
}

// runTabChain clicks each tab in priority order and stops at the first one
// whose rendered rows yield at least one match.
func (s *DiscoveryService) runTabChain(ctx context.Context, page Page, pageURL string) ([]discovery.Match, string, string) {
	for _, tab := range s.cfg.Tabs {
		if !page.Click(ctx, tab.Selector, s.cfg.Timing.ClickTimeout) {
			s.logger.DebugContext(ctx, "tab not available", "tab", tab.Name, "url", pageURL)
			continue
		}
		if err := page.Wait(ctx, s.cfg.Timing.RenderWait); err != nil {
			return nil, "", ""
		}
		html, err := page.Content(ctx)
		if err != nil {
			s.logger.DebugContext(ctx, "tab content unavailable", "tab", tab.Name, "error", err)
			continue
		}
		if rows := ExtractMatchRows(html, pageURL); len(rows) > 0 {
			return rows, tab.Name, html
		}
	}
	return nil, "", ""
}

// DiscoverTeams fans out over teams with a bounded number of pages open.
// Per-team failures are collected, never returned as an error.
func (s *DiscoveryService) DiscoverTeams(ctx context.Context, teams []Team) ([]TeamDiscovery, []runsummary.Failure) {
	results := make([]TeamDiscovery, len(teams))
	ok := make([]bool, len(teams))
	var (
		mu       sync.Mutex
		failures []runsummary.Failure
	)

	p := pool.New().WithMaxGoroutines(s.cfg.Concurrency)
	for n, team := range teams {
		n, team := n, team
		p.Go(func() {
			found, err := s.DiscoverTeam(ctx, team)
			if err != nil {
				s.logger.WarnContext(ctx, "team discovery failed", "team_id", team.ID, "error", err)
				mu.Lock()
				failures = append(failures, runsummary.Failure{Stage: StageDiscovery, Item: team.ID, Error: err.Error()})
				mu.Unlock()
				return
			}
			results[n] = found
			ok[n] = true
		})
	}
	p.Wait()

	return compactResults(results, ok), failures
}

// DiscoverTournaments is the tournament-page counterpart of DiscoverTeams.
func (s *DiscoveryService) DiscoverTournaments(ctx context.Context, links []discovery.TournamentLink) ([]TournamentDiscovery, []runsummary.Failure) {
	results := make([]TournamentDiscovery, len(links))
	ok := make([]bool, len(links))
	var (
		mu       sync.Mutex
		failures []runsummary.Failure
	)

	p := pool.New().WithMaxGoroutines(s.cfg.Concurrency)
	for n, link := range links {
		n, link := n, link
		p.Go(func() {
			found, err := s.DiscoverTournament(ctx, link)
			if err != nil {
				s.logger.WarnContext(ctx, "tournament discovery failed", "tournament", link.Name, "error", err)
				mu.Lock()
				failures = append(failures, runsummary.Failure{Stage: StageTournaments, Item: link.Name, Error: err.Error()})
				mu.Unlock()
				return
			}
			results[n] = found
			ok[n] = true
		})
	}
	p.Wait()

	return compactResults(results, ok), failures
}

func compactResults[T any](items []T, ok []bool) []T {
	out := make([]T, 0, len(items))
	for n := range items {
		if ok[n] {
			out = append(out, items[n])
		}
	}
	return out
}

// mergeTournamentLinks appends links whose display name is not present yet.
func mergeTournamentLinks(base []discovery.TournamentLink, more ...[]discovery.TournamentLink) []discovery.TournamentLink {
	seen := make(map[string]struct{}, len(base))
	out := make([]discovery.TournamentLink, 0, len(base))
	for _, group := range append([][]discovery.TournamentLink{base}, more...) {
		for _, link := range group {
			if _, ok := seen[link.Name]; ok {
				continue
			}
			seen[link.Name] = struct{}{}
			out = append(out, link)
		}
	}
	return out
}
