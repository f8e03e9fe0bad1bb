package app

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/external/artifactpublish"
	"github.com/riskibarqy/handball-sync/external/browser"
	"github.com/riskibarqy/handball-sync/external/schedulefeed"
	"github.com/riskibarqy/handball-sync/internal/config"
	"github.com/riskibarqy/handball-sync/internal/infrastructure/repository/jsonfile"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/riskibarqy/handball-sync/internal/platform/resilience"
	"github.com/riskibarqy/handball-sync/internal/usecase"
)

const feedRetries = 2

// Runner owns the long-lived resources of one CLI invocation.
type Runner struct {
	Orchestrator *usecase.UpdateOrchestrator
	Store        *jsonfile.Store

	browser *browser.Browser
	logger  *logging.Logger
}

// NewRunner wires the store, browser, feed client and publisher into an
// orchestrator. The caller must Close the runner.
func NewRunner(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.Default()
	}

	store, err := jsonfile.NewStore(cfg.DataDir, logger)
	if err != nil {
		return nil, crerr.Wrap(err, "open artifact store")
	}

	chrome, err := browser.New(ctx, browser.Config{
		Headless: cfg.BrowserHeadless,
		ExecPath: cfg.BrowserExecPath,
	}, logger)
	if err != nil {
		return nil, crerr.Wrap(err, "start browser")
	}

	var feed usecase.ScheduleFeed
	if cfg.ScheduleFeedURLTemplate != "" {
		feed = schedulefeed.NewClient(schedulefeed.ClientConfig{
			URLFor:         cfg.ScheduleFeedURL,
			Timeout:        cfg.FeedTimeout,
			MaxRetries:     feedRetries,
			Logger:         logger,
			CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		})
	}

	var publisher usecase.ArtifactPublisher
	if cfg.PublishS3Bucket != "" {
		s3Publisher, err := artifactpublish.NewS3Publisher(ctx, artifactpublish.Config{
			Bucket: cfg.PublishS3Bucket,
			Prefix: cfg.PublishS3Prefix,
			Region: cfg.AWSRegion,
		}, store, logger)
		if err != nil {
			_ = chrome.Close()
			return nil, crerr.Wrap(err, "configure publisher")
		}
		publisher = s3Publisher
	}

	timing := usecase.PageTiming{
		NavTimeout:        cfg.NavTimeout,
		ClickTimeout:      cfg.ClickTimeout,
		RenderWait:        cfg.RenderWait,
		CookieBannerDelay: cfg.CookieBannerDelay,
	}
	teams := make([]usecase.Team, 0, len(cfg.Teams))
	for _, team := range cfg.Teams {
		teams = append(teams, usecase.Team{Label: team.Label, ID: team.ID, PageURL: cfg.TeamPageURL(team.ID)})
	}

	location, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		logger.Warn("tz database unavailable, using local time", "error", err)
		location = time.Local
	}

	orchestrator := usecase.NewUpdateOrchestrator(
		store,
		chrome,
		feed,
		publisher,
		usecase.NewDiscoveryService(chrome, usecase.DiscoveryConfig{Timing: timing, Concurrency: cfg.DiscoveryConcurrency}, logger),
		usecase.NewBackfillService(chrome, usecase.BackfillConfig{Timing: timing, Delay: cfg.BackfillDelay}, logger),
		usecase.NewStatsScraper(timing, logger),
		usecase.OrchestratorConfig{
			Teams:              teams,
			BatchSize:          cfg.StatsBatchSize,
			Concurrency:        cfg.StatsConcurrency,
			TournamentCacheTTL: cfg.TournamentCacheTTL,
			Timing:             timing,
			Location:           location,
		},
		logger,
	)

	return &Runner{
		Orchestrator: orchestrator,
		Store:        store,
		browser:      chrome,
		logger:       logger,
	}, nil
}

func (r *Runner) Close() error {
	if r == nil || r.browser == nil {
		return nil
	}
	return r.browser.Close()
}
