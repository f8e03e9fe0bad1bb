package usecase

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/handball-sync/internal/domain/aggregate"
	"github.com/riskibarqy/handball-sync/internal/domain/discovery"
	"github.com/riskibarqy/handball-sync/internal/domain/leaguetable"
	"github.com/riskibarqy/handball-sync/internal/domain/matchindex"
	"github.com/riskibarqy/handball-sync/internal/domain/matchstats"
	"github.com/riskibarqy/handball-sync/internal/domain/runsummary"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
	"github.com/riskibarqy/handball-sync/internal/domain/teamdetail"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

const (
	StageLoad        = "load"
	StageFeed        = "feed"
	StageDiscovery   = "discovery"
	StageTournaments = "tournaments"
	StageIndex       = "index"
	StageURLs        = "urls"
	StageBackfill    = "backfill"
	StagePlayed      = "played"
	StageStats       = "stats"
	StageAggregate   = "aggregate"
	StagePersist     = "persist"
	StagePublish     = "publish"
)

// RunMode selects how stage six finds played matches.
type RunMode string

const (
	// ModeTournament walks tournament pages, reusing the cache while it is valid.
	ModeTournament RunMode = "tournament"
	// ModeQuick uses the cache when valid and otherwise only locally known matches.
	ModeQuick RunMode = "quick"
	// ModeFull trusts the team pages walked during discovery.
	ModeFull RunMode = "full"
)

var matchIDInURLRegex = regexp.MustCompile(`\d{9,}`)

// ArtifactStore persists every artifact of a run.
type ArtifactStore interface {
	schedule.Repository
	matchindex.Repository
	matchstats.Repository
	aggregate.Repository
	leaguetable.Repository
	runsummary.Repository
	discovery.Repository
	teamdetail.Repository
}

// ScheduleFeed fetches the official schedule of one team.
type ScheduleFeed interface {
	FetchTeamSchedule(ctx context.Context, team Team) ([]schedule.Entry, error)
}

// ArtifactPublisher mirrors the persisted artifacts somewhere else.
type ArtifactPublisher interface {
	Publish(ctx context.Context) (int, error)
}

type ProgressEvent struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail"`
}

type RunOptions struct {
	// ForceStats discards the stats collection and re-scrapes every played match.
	ForceStats bool
	// Rescrape drops only these match ids before the missing set is computed.
	Rescrape       []string
	RefreshMatches bool
	Mode           RunMode
	// Progress receives one event per stage and stats batch. Sends block, so
	// the caller must drain it until Run returns.
	Progress chan<- ProgressEvent
}

type RunResult struct {
	Summary        runsummary.Summary   `json:"summary"`
	Failures       []runsummary.Failure `json:"failures"`
	ScheduleCount  int                  `json:"scheduleCount"`
	IndexAdded     int                  `json:"indexAdded"`
	URLsFilled     int                  `json:"urlsFilled"`
	ResultsUpdated int                  `json:"resultsUpdated"`
	PlayedMatches  int                  `json:"playedMatches"`
	MissingMatches int                  `json:"missingMatches"`
	Scraped        int                  `json:"scraped"`
	WithoutStats   int                  `json:"withoutStats"`
	Players        int                  `json:"players"`
	TeamDetails    int                  `json:"teamDetails"`
	LeagueTables   int                  `json:"leagueTables"`
	Published      int                  `json:"published"`
}

type OrchestratorConfig struct {
	Teams              []Team
	BatchSize          int
	Concurrency        int
	TournamentCacheTTL time.Duration
	Timing             PageTiming
	// Location is used to decide whether a match day is over.
	Location *time.Location
}

// UpdateOrchestrator composes discovery, backfill, scraping and aggregation
// into one checkpointed run.
type UpdateOrchestrator struct {
	store     ArtifactStore
	browser   Browser
	feed      ScheduleFeed
	publisher ArtifactPublisher
	discovery *DiscoveryService
	backfill  *BackfillService
	scraper   *StatsScraper
	cfg       OrchestratorConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewUpdateOrchestrator(
	store ArtifactStore,
	browser Browser,
	feed ScheduleFeed,
	publisher ArtifactPublisher,
	discoverySvc *DiscoveryService,
	backfillSvc *BackfillService,
	scraper *StatsScraper,
	cfg OrchestratorConfig,
	logger *logging.Logger,
) *UpdateOrchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.TournamentCacheTTL <= 0 {
		cfg.TournamentCacheTTL = 12 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	cfg.Timing = cfg.Timing.withDefaults()
	if discoverySvc == nil {
		discoverySvc = NewDiscoveryService(browser, DiscoveryConfig{Timing: cfg.Timing}, logger)
	}
	if backfillSvc == nil {
		backfillSvc = NewBackfillService(browser, BackfillConfig{Timing: cfg.Timing}, logger)
	}
	if scraper == nil {
		scraper = NewStatsScraper(cfg.Timing, logger)
	}

	return &UpdateOrchestrator{
		store:     store,
		browser:   browser,
		feed:      feed,
		publisher: publisher,
		discovery: discoverySvc,
		backfill:  backfillSvc,
		scraper:   scraper,
		cfg:       cfg,
		logger:    logger.Named("orchestrator"),
		now:       time.Now,
	}
}

// runState carries artifacts between stages of one run.
type runState struct {
	opts     RunOptions
	now      time.Time
	result   RunResult
	failures []runsummary.Failure

	schedule     []schedule.Entry
	index        *matchindex.Index
	indexDirty   bool
	stats        matchstats.File
	tables       []leaguetable.Table
	prevSummary  runsummary.Summary
	cache        discovery.TournamentCache
	feeds        map[string][]schedule.Entry
	feedFailed   map[string]bool
	teams        []TeamDiscovery
	tournaments  map[string]TournamentDiscovery
	changed      []schedule.Entry
	played       []discovery.Match
	scrapedStats []matchstats.MatchPlayerData
}

func (s *UpdateOrchestrator) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpdateOrchestrator.Run")
	defer span.End()

	if s.store == nil {
		return RunResult{}, crerr.Mark(crerr.New("artifact store is not configured"), ErrDependencyUnavailable)
	}
	switch opts.Mode {
	case "":
		opts.Mode = ModeTournament
	case ModeTournament, ModeQuick, ModeFull:
	default:
		return RunResult{}, crerr.Mark(crerr.Newf("unknown run mode %q", opts.Mode), ErrInvalidInput)
	}

	state := &runState{
		opts:        opts,
		now:         s.now().In(s.cfg.Location),
		feeds:       make(map[string][]schedule.Entry),
		feedFailed:  make(map[string]bool),
		tournaments: make(map[string]TournamentDiscovery),
	}
	s.logger.InfoContext(ctx, "update run started", "mode", string(opts.Mode), "teams", len(s.cfg.Teams))

	s.loadArtifacts(ctx, state)
	s.fetchSources(ctx, state)
	if err := s.mergeIndex(ctx, state); err != nil {
		return state.result, err
	}
	s.combineSchedule(ctx, state)
	if err := s.backfillResults(ctx, state); err != nil {
		return state.result, err
	}
	if err := s.discoverPlayed(ctx, state); err != nil {
		return state.result, err
	}
	if err := s.scrapeMissing(ctx, state); err != nil {
		return state.result, err
	}
	details := s.rebuildAggregates(ctx, state)
	if err := s.persistAll(ctx, state, details); err != nil {
		return state.result, err
	}
	s.publish(ctx, state)

	state.result.Failures = state.failures
	s.emit(ctx, opts.Progress, StagePersist, "done")
	s.logger.InfoContext(ctx, "update run finished",
		"results_updated", state.result.ResultsUpdated,
		"scraped", state.result.Scraped,
		"failures", len(state.failures),
		"no_changes", state.result.Summary.NoChanges,
	)
	return state.result, nil
}

// stage 1
func (s *UpdateOrchestrator) loadArtifacts(ctx context.Context, state *runState) {
	s.emit(ctx, state.opts.Progress, StageLoad, "loading artifacts")

	var err error
	if state.schedule, err = s.store.LoadSchedule(ctx); err != nil {
		s.logger.WarnContext(ctx, "schedule unreadable, starting empty", "error", err)
		state.schedule = nil
	}

	var shape matchindex.Shape
	state.index, shape, err = s.store.LoadIndex(ctx)
	if err != nil || state.index == nil {
		s.logger.WarnContext(ctx, "match index unreadable, starting empty", "error", err)
		state.index = matchindex.New()
	}
	switch shape {
	case matchindex.ShapeLegacy:
		s.logger.InfoContext(ctx, "match index migrated from legacy shape", "entries", state.index.Len())
		state.indexDirty = true
	case matchindex.ShapeUnknown:
		s.logger.WarnContext(ctx, "match index has unrecognized shape, starting empty",
			"error", crerr.Mark(crerr.New("match index"), ErrLegacyFormat))
	}

	if state.stats, err = s.store.LoadStats(ctx); err != nil {
		s.logger.WarnContext(ctx, "player stats unreadable, starting empty", "error", err)
		state.stats = matchstats.File{}
	}
	if state.opts.ForceStats {
		s.logger.InfoContext(ctx, "discarding stats collection", "records", len(state.stats.MatchStats))
		state.stats = matchstats.File{}
	} else if len(state.opts.Rescrape) > 0 {
		removed := state.stats.Forget(state.opts.Rescrape)
		s.logger.InfoContext(ctx, "dropping matches for re-scrape", "requested", len(state.opts.Rescrape), "removed", removed)
	}

	if state.tables, err = s.store.LoadLeagueTables(ctx); err != nil {
		s.logger.WarnContext(ctx, "league tables unreadable, starting empty", "error", err)
		state.tables = nil
	}
	if state.prevSummary, err = s.store.LoadSummary(ctx); err != nil {
		s.logger.WarnContext(ctx, "previous summary unreadable", "error", err)
		state.prevSummary = runsummary.Summary{}
	}
	if state.cache, err = s.store.LoadTournamentCache(ctx); err != nil {
		s.logger.WarnContext(ctx, "tournament cache unreadable", "error", err)
		state.cache = discovery.TournamentCache{}
	}

	s.logger.InfoContext(ctx, "artifacts loaded",
		"schedule", len(state.schedule),
		"index", state.index.Len(),
		"match_stats", len(state.stats.MatchStats),
		"without_stats", len(state.stats.MatchesWithoutStats),
		"league_tables", len(state.tables),
	)
}

// stage 2: feed and discovery run side by side.
func (s *UpdateOrchestrator) fetchSources(ctx context.Context, state *runState) {
	s.emit(ctx, state.opts.Progress, StageDiscovery, "fetching feed and team pages")

	var (
		mu           sync.Mutex
		feedFailures []runsummary.Failure
		discFailures []runsummary.Failure
	)

	var wg conc.WaitGroup
	if s.feed != nil {
		for _, team := range s.cfg.Teams {
			team := team
			wg.Go(func() {
				entries, err := s.feed.FetchTeamSchedule(ctx, team)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					s.logger.WarnContext(ctx, "schedule feed failed", "team_id", team.ID, "error", err)
					state.feedFailed[team.Label] = true
					feedFailures = append(feedFailures, runsummary.Failure{Stage: StageFeed, Item: team.ID, Error: err.Error()})
					return
				}
				state.feeds[team.Label] = entries
			})
		}
	}
	wg.Go(func() {
		teams, failures := s.discovery.DiscoverTeams(ctx, s.cfg.Teams)
		links := s.tablesToRefresh(state, teams)
		tournaments, tourFailures := s.discovery.DiscoverTournaments(ctx, links)

		mu.Lock()
		defer mu.Unlock()
		state.teams = teams
		for _, found := range tournaments {
			state.tournaments[found.Link.Name] = found
		}
		discFailures = append(discFailures, failures...)
		discFailures = append(discFailures, tourFailures...)
	})
	wg.Wait()

	state.failures = append(state.failures, feedFailures...)
	state.failures = append(state.failures, discFailures...)
	for _, found := range state.tournaments {
		if len(found.Table.Rows) > 0 {
			state.tables = leaguetable.Upsert(state.tables, found.Table)
		}
	}

	s.logger.InfoContext(ctx, "sources fetched",
		"feeds", len(state.feeds),
		"teams_discovered", len(state.teams),
		"tables_refreshed", len(state.tournaments),
		"failures", len(feedFailures)+len(discFailures),
	)
}

// tablesToRefresh picks tournaments the previous run flagged as changed plus
// any discovered tournament that has no table yet. Cups carry no table.
func (s *UpdateOrchestrator) tablesToRefresh(state *runState, teams []TeamDiscovery) []discovery.TournamentLink {
	known := make(map[string]discovery.TournamentLink)
	for _, team := range teams {
		for _, link := range team.Tournaments {
			if _, ok := known[link.Name]; !ok {
				known[link.Name] = link
			}
		}
	}

	seen := make(map[string]struct{})
	out := make([]discovery.TournamentLink, 0, len(known))
	add := func(link discovery.TournamentLink) {
		if link.Name == "" || link.URL == "" || runsummary.IsCup(link.Name) {
			return
		}
		if _, ok := seen[link.Name]; ok {
			return
		}
		seen[link.Name] = struct{}{}
		out = append(out, link)
	}

	for name, url := range state.prevSummary.Tournaments() {
		if link, ok := known[name]; ok {
			add(link)
			continue
		}
		add(discovery.TournamentLink{Name: name, URL: url})
	}
	for _, team := range teams {
		for _, link := range team.Tournaments {
			if !leaguetable.Has(state.tables, link.Name) {
				add(link)
			}
		}
	}
	return out
}

// stage 3
func (s *UpdateOrchestrator) mergeIndex(ctx context.Context, state *runState) error {
	entries := make([]matchindex.Entry, 0, 128)
	for _, team := range state.teams {
		for _, match := range team.Matches {
			entries = append(entries, matchindex.Entry{MatchID: match.MatchID, URL: match.URL})
		}
	}
	for _, found := range state.tournaments {
		for _, match := range found.Matches {
			entries = append(entries, matchindex.Entry{MatchID: match.MatchID, URL: match.URL})
		}
	}
	for _, team := range s.cfg.Teams {
		for _, entry := range state.feeds[team.Label] {
			entries = append(entries, matchindex.Entry{MatchID: entry.MatchID, URL: entry.MatchURL})
		}
	}

	added := state.index.Merge(entries)
	state.result.IndexAdded = added
	s.logger.InfoContext(ctx, "match index merged", "discovered", len(entries), "added", added, "total", state.index.Len())
	s.emit(ctx, state.opts.Progress, StageIndex, strconv.Itoa(added)+" new match urls")

	if added == 0 && !state.indexDirty {
		return nil
	}
	if err := s.store.SaveIndex(ctx, state.index); err != nil {
		return crerr.Wrap(err, "save match index")
	}
	state.indexDirty = false
	return nil
}

// stage 4
func (s *UpdateOrchestrator) combineSchedule(ctx context.Context, state *runState) {
	discovered := make(map[string]TeamDiscovery, len(state.teams))
	for _, team := range state.teams {
		discovered[team.Team.ID] = team
	}

	sources := make([]teamSchedule, 0, len(s.cfg.Teams))
	for _, team := range s.cfg.Teams {
		feed, feedOK := state.feeds[team.Label]
		found, scrapeOK := discovered[team.ID]
		sources = append(sources, teamSchedule{
			team:     team,
			feed:     feed,
			feedOK:   feedOK && !state.feedFailed[team.Label],
			scraped:  found.Matches,
			scrapeOK: scrapeOK,
		})
	}

	state.schedule = mergeSchedule(state.schedule, sources)
	filled := state.index.PopulateMissingURLs(state.schedule)
	state.result.URLsFilled = filled
	state.result.ScheduleCount = len(state.schedule)
	s.logger.InfoContext(ctx, "schedule combined", "entries", len(state.schedule), "urls_filled", filled)
	s.emit(ctx, state.opts.Progress, StageURLs, strconv.Itoa(filled)+" urls filled")
}

// stage 5
func (s *UpdateOrchestrator) backfillResults(ctx context.Context, state *runState) error {
	s.emit(ctx, state.opts.Progress, StageBackfill, strconv.Itoa(len(Candidates(state.schedule, state.now)))+" candidates")

	updates, failures := s.backfill.Backfill(ctx, state.schedule, state.now)
	state.failures = append(state.failures, failures...)
	state.changed = ApplyResults(state.schedule, updates)
	state.result.ResultsUpdated = len(state.changed)
	if len(state.changed) == 0 {
		return nil
	}

	if err := s.store.SaveSchedule(ctx, state.schedule); err != nil {
		return crerr.Wrap(err, "save schedule")
	}
	if err := s.store.SaveMetadata(ctx, buildMetadata(state.now, state.schedule)); err != nil {
		return crerr.Wrap(err, "save metadata")
	}
	return nil
}

// stage 6
func (s *UpdateOrchestrator) discoverPlayed(ctx context.Context, state *runState) error {
	cacheValid := !state.opts.RefreshMatches && state.cache.Valid(state.now, s.cfg.TournamentCacheTTL)

	var fromPages []discovery.Match
	switch state.opts.Mode {
	case ModeFull:
		for _, team := range state.teams {
			fromPages = append(fromPages, team.Matches...)
		}
	case ModeQuick:
		if cacheValid {
			fromPages = state.cache.PlayedMatches()
		}
	default:
		if cacheValid {
			fromPages = state.cache.PlayedMatches()
			break
		}
		walked, err := s.walkTournaments(ctx, state)
		if err != nil {
			return err
		}
		fromPages = walked
	}

	state.played = combinePlayedMatches(fromPages, state.schedule)
	state.result.PlayedMatches = len(state.played)

	newEntries := make([]matchindex.Entry, 0, len(fromPages))
	for _, match := range fromPages {
		newEntries = append(newEntries, matchindex.Entry{MatchID: match.MatchID, URL: match.URL})
	}
	if added := state.index.Merge(newEntries); added > 0 {
		state.result.IndexAdded += added
		state.indexDirty = true
	}

	s.logger.InfoContext(ctx, "played matches discovered",
		"mode", string(state.opts.Mode),
		"cache_used", cacheValid && state.opts.Mode != ModeFull,
		"played", len(state.played),
	)
	s.emit(ctx, state.opts.Progress, StagePlayed, strconv.Itoa(len(state.played))+" played matches")
	return nil
}

// walkTournaments visits every known tournament page not already visited in
// this run and rewrites the tournament cache.
func (s *UpdateOrchestrator) walkTournaments(ctx context.Context, state *runState) ([]discovery.Match, error) {
	links := make([]discovery.TournamentLink, 0, 16)
	seen := make(map[string]struct{})
	for _, team := range state.teams {
		for _, link := range team.Tournaments {
			if _, ok := seen[link.Name]; ok {
				continue
			}
			seen[link.Name] = struct{}{}
			if _, visited := state.tournaments[link.Name]; !visited {
				links = append(links, link)
			}
		}
	}

	found, failures := s.discovery.DiscoverTournaments(ctx, links)
	for _, item := range found {
		state.tournaments[item.Link.Name] = item
		if len(item.Table.Rows) > 0 && !runsummary.IsCup(item.Link.Name) {
			state.tables = leaguetable.Upsert(state.tables, item.Table)
		}
	}
	for n := range failures {
		failures[n].Stage = StagePlayed
	}
	state.failures = append(state.failures, failures...)

	cache := discovery.TournamentCache{GeneratedAt: state.now.UTC()}
	out := make([]discovery.Match, 0, 128)
	for _, team := range state.teams {
		for _, link := range team.Tournaments {
			item, ok := state.tournaments[link.Name]
			if !ok || cacheHas(cache, link.Name) {
				continue
			}
			entry := discovery.CachedTournament{Name: link.Name, URL: link.URL, Matches: []discovery.CachedMatch{}}
			for _, match := range item.Matches {
				entry.Matches = append(entry.Matches, discovery.CachedMatch{MatchID: match.MatchID, URL: match.URL, Played: match.Played})
				out = append(out, match)
			}
			cache.Tournaments = append(cache.Tournaments, entry)
		}
	}

	if len(cache.Tournaments) > 0 && len(failures) == 0 {
		if err := s.store.SaveTournamentCache(ctx, cache); err != nil {
			return nil, crerr.Wrap(err, "save tournament cache")
		}
		state.cache = cache
	}
	return out, nil
}

func cacheHas(cache discovery.TournamentCache, name string) bool {
	for _, item := range cache.Tournaments {
		if item.Name == name {
			return true
		}
	}
	return false
}

type scrapeOutcome struct {
	target ScrapeTarget
	record *matchstats.MatchPlayerData
	err    error
}

// stage 7: scrape the missing set in batches with a barrier per batch and a
// checkpoint after each one.
func (s *UpdateOrchestrator) scrapeMissing(ctx context.Context, state *runState) error {
	missing := missingMatches(state.played, state.stats.KnownIDs())
	state.result.MissingMatches = len(missing)
	if len(missing) == 0 {
		s.logger.InfoContext(ctx, "no matches missing stats")
		return nil
	}

	pool, err := ants.NewPool(s.cfg.Concurrency)
	if err != nil {
		return crerr.Wrap(err, "create scrape worker pool")
	}
	defer pool.Release()

	scheduleByID := schedule.IndexByMatchID(state.schedule)
	batches := (len(missing) + s.cfg.BatchSize - 1) / s.cfg.BatchSize
	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return crerr.Wrap(err, "scrape interrupted")
		}
		start := b * s.cfg.BatchSize
		end := start + s.cfg.BatchSize
		if end > len(missing) {
			end = len(missing)
		}

		outcomes := make([]scrapeOutcome, end-start)
		var workers sync.WaitGroup
		for n, match := range missing[start:end] {
			n := n
			target := ScrapeTarget{MatchID: match.MatchID, URL: match.URL, Tournament: match.Tournament, Date: match.Date}
			if entry, ok := scheduleByID[match.MatchID]; ok {
				target.Tournament = firstNonEmpty(target.Tournament, entry.Tournament)
				target.Date = firstNonEmpty(target.Date, entry.Date)
			}
			outcomes[n].target = target

			workers.Add(1)
			if err := pool.Submit(func() {
				defer workers.Done()
				outcomes[n].record, outcomes[n].err = s.scrapeOne(ctx, target)
			}); err != nil {
				workers.Done()
				outcomes[n].err = crerr.Wrap(err, "submit scrape task")
			}
		}
		workers.Wait()

		scraped, without, failed := 0, 0, 0
		for _, outcome := range outcomes {
			switch {
			case outcome.err != nil:
				failed++
				state.failures = append(state.failures, runsummary.Failure{Stage: StageStats, Item: outcome.target.MatchID, Error: outcome.err.Error()})
			case outcome.record == nil:
				without++
				state.stats.MarkWithoutStats(outcome.target.MatchID)
			default:
				scraped++
				state.stats.Upsert(*outcome.record)
				state.scrapedStats = append(state.scrapedStats, *outcome.record)
			}
		}
		state.result.Scraped += scraped
		state.result.WithoutStats += without

		state.stats.LastUpdated = s.now().UTC().Format(time.RFC3339)
		if err := s.store.SaveStats(ctx, state.stats); err != nil {
			return crerr.Wrapf(err, "checkpoint stats after batch %d", b+1)
		}

		s.logger.InfoContext(ctx, "stats batch finished",
			"batch", b+1,
			"batches", batches,
			"scraped", scraped,
			"without_stats", without,
			"failed", failed,
		)
		s.emit(ctx, state.opts.Progress, StageStats, "batch "+strconv.Itoa(b+1)+"/"+strconv.Itoa(batches))
	}
	return nil
}

func (s *UpdateOrchestrator) scrapeOne(ctx context.Context, target ScrapeTarget) (*matchstats.MatchPlayerData, error) {
	var record *matchstats.MatchPlayerData
	err := WithPage(ctx, s.browser, func(page Page) error {
		found, ok, err := s.scraper.Scrape(ctx, page, target)
		if err != nil {
			return err
		}
		if ok {
			record = found
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "match scrape failed", "match_id", target.MatchID, "error", err)
		return nil, err
	}
	return record, nil
}

// stage 8
func (s *UpdateOrchestrator) rebuildAggregates(ctx context.Context, state *runState) []teamdetail.Detail {
	s.emit(ctx, state.opts.Progress, StageAggregate, "rebuilding catalog and aggregates")

	state.stats.Players = BuildPlayerCatalog(state.stats.MatchStats)
	state.result.Players = len(state.stats.Players)

	ourIDs := make([]string, 0, len(s.cfg.Teams))
	for _, team := range s.cfg.Teams {
		ourIDs = append(ourIDs, team.ID)
	}
	scheduleByID := schedule.IndexByMatchID(state.schedule)
	details := make([]teamdetail.Detail, 0, len(ourIDs))
	for _, id := range ourIDs {
		detail, ok := BuildTeamDetailData(id, state.stats.MatchStats, scheduleByID, ourIDs, "")
		if !ok {
			s.logger.DebugContext(ctx, "no match data for team", "team_id", id)
			continue
		}
		details = append(details, detail)
	}
	state.result.TeamDetails = len(details)

	s.logger.InfoContext(ctx, "aggregates rebuilt", "players", len(state.stats.Players), "team_details", len(details))
	return details
}

// stage 9
func (s *UpdateOrchestrator) persistAll(ctx context.Context, state *runState, details []teamdetail.Detail) error {
	s.emit(ctx, state.opts.Progress, StagePersist, "writing artifacts")
	nowStamp := state.now.UTC().Format(time.RFC3339)

	state.stats.LastUpdated = nowStamp
	if err := s.store.SaveStats(ctx, state.stats); err != nil {
		return crerr.Wrap(err, "save stats")
	}
	aggregates := aggregate.File{Aggregates: BuildPlayerAggregates(state.stats.MatchStats), GeneratedAt: nowStamp}
	if err := s.store.SaveAggregates(ctx, aggregates); err != nil {
		return crerr.Wrap(err, "save aggregates")
	}
	for _, detail := range details {
		if err := s.store.SaveTeamDetail(ctx, detail); err != nil {
			return crerr.Wrapf(err, "save team detail %s", detail.TeamID)
		}
	}
	if err := s.store.SaveLeagueTables(ctx, state.tables); err != nil {
		return crerr.Wrap(err, "save league tables")
	}
	state.result.LeagueTables = len(state.tables)
	if err := s.store.SaveSchedule(ctx, state.schedule); err != nil {
		return crerr.Wrap(err, "save schedule")
	}
	if err := s.store.SaveMetadata(ctx, buildMetadata(state.now, state.schedule)); err != nil {
		return crerr.Wrap(err, "save metadata")
	}
	if state.indexDirty {
		if err := s.store.SaveIndex(ctx, state.index); err != nil {
			return crerr.Wrap(err, "save match index")
		}
	}

	summary := buildRunSummary(state.now, state.changed, state.scrapedStats, state.failures)
	if err := s.store.SaveSummary(ctx, summary); err != nil {
		return crerr.Wrap(err, "save run summary")
	}
	state.result.Summary = summary
	return nil
}

// publish mirrors artifacts when a publisher is configured. Failures are
// recorded and never abort the run.
func (s *UpdateOrchestrator) publish(ctx context.Context, state *runState) {
	if s.publisher == nil {
		return
	}
	s.emit(ctx, state.opts.Progress, StagePublish, "publishing artifacts")
	count, err := s.publisher.Publish(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "artifact publish failed", "error", err)
		state.failures = append(state.failures, runsummary.Failure{Stage: StagePublish, Item: "artifacts", Error: err.Error()})
		return
	}
	state.result.Published = count
}

// ScrapeSingle scrapes one match page and upserts it into the stats file,
// bypassing every other stage.
func (s *UpdateOrchestrator) ScrapeSingle(ctx context.Context, url string) (*matchstats.MatchPlayerData, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UpdateOrchestrator.ScrapeSingle")
	defer span.End()

	url = strings.TrimSpace(url)
	if url == "" {
		return nil, crerr.Mark(crerr.New("match url is required"), ErrInvalidInput)
	}
	if s.store == nil {
		return nil, crerr.Mark(crerr.New("artifact store is not configured"), ErrDependencyUnavailable)
	}
	matchID := matchIDInURLRegex.FindString(url)
	if matchID == "" {
		return nil, crerr.Mark(crerr.Newf("no match id in %s", url), ErrInvalidInput)
	}

	record, err := s.scrapeOne(ctx, ScrapeTarget{MatchID: matchID, URL: url})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, crerr.Mark(crerr.Newf("match %s has no box score", matchID), ErrNotFound)
	}

	stats, err := s.store.LoadStats(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "player stats unreadable, starting empty", "error", err)
		stats = matchstats.File{}
	}
	stats.Upsert(*record)
	stats.LastUpdated = s.now().UTC().Format(time.RFC3339)
	if err := s.store.SaveStats(ctx, stats); err != nil {
		return nil, crerr.Wrap(err, "save stats")
	}
	s.logger.InfoContext(ctx, "single match scraped", "match_id", matchID, "home", record.HomeTeam, "away", record.AwayTeam)
	return record, nil
}

func (s *UpdateOrchestrator) emit(ctx context.Context, progress chan<- ProgressEvent, stage, detail string) {
	if progress == nil {
		return
	}
	select {
	case progress <- ProgressEvent{Stage: stage, Detail: detail}:
	case <-ctx.Done():
	}
}
