package main

import (
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/app"
	"github.com/riskibarqy/handball-sync/internal/config"
	"github.com/riskibarqy/handball-sync/internal/observability"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/riskibarqy/handball-sync/internal/usecase"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hbsync",
		Short:         "Incrementally sync handball schedules, results and player stats",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunCmd(), newMatchCmd())
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		force          bool
		rescrape       []string
		refreshMatches bool
		quick          bool
		full           bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full update pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := usecase.ModeTournament
			switch {
			case quick:
				mode = usecase.ModeQuick
			case full:
				mode = usecase.ModeFull
			}

			return withRunner(cmd.Context(), func(ctx context.Context, runner *app.Runner, logger *logging.Logger) error {
				progress := make(chan usecase.ProgressEvent, 8)
				drained := make(chan struct{})
				go func() {
					defer close(drained)
					for event := range progress {
						logger.Info("progress", "stage", event.Stage, "detail", event.Detail)
					}
				}()

				result, err := runner.Orchestrator.Run(ctx, usecase.RunOptions{
					ForceStats:     force,
					Rescrape:       splitIDs(rescrape),
					RefreshMatches: refreshMatches,
					Mode:           mode,
					Progress:       progress,
				})
				close(progress)
				<-drained
				if err != nil {
					return err
				}

				logger.Info("run complete",
					"schedule", result.ScheduleCount,
					"results_updated", result.ResultsUpdated,
					"played", result.PlayedMatches,
					"scraped", result.Scraped,
					"without_stats", result.WithoutStats,
					"players", result.Players,
					"published", result.Published,
					"failures", len(result.Failures),
					"no_changes", result.Summary.NoChanges,
				)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&force, "force-stats", false, "Discard the stats collection and re-scrape every played match")
	flags.BoolVar(&force, "force", false, "Alias of --force-stats")
	flags.StringSliceVar(&rescrape, "rescrape", nil, "Comma-separated match ids to re-scrape")
	flags.BoolVar(&refreshMatches, "refresh-matches", false, "Ignore the tournament match cache")
	flags.BoolVar(&quick, "quick", false, "Use the cached or locally known played matches only")
	flags.BoolVar(&full, "full", false, "Take played matches from the team pages")
	cmd.MarkFlagsMutuallyExclusive("quick", "full")

	return cmd
}

func newMatchCmd() *cobra.Command {
	var matchURL string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Scrape a single match page into the stats collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(cmd.Context(), func(ctx context.Context, runner *app.Runner, logger *logging.Logger) error {
				record, err := runner.Orchestrator.ScrapeSingle(ctx, matchURL)
				if err != nil {
					return err
				}
				logger.Info("match stored",
					"match_id", record.MatchID,
					"home", record.HomeTeam,
					"away", record.AwayTeam,
					"home_players", len(record.HomePlayers),
					"away_players", len(record.AwayPlayers),
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&matchURL, "url", "", "Match detail page URL")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

// withRunner loads config, starts observability and the runner, and tears
// everything down after fn returns.
func withRunner(ctx context.Context, fn func(context.Context, *app.Runner, *logging.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return crerr.Wrap(err, "load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return crerr.Wrap(err, "init uptrace")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Warn("pyroscope unavailable", "error", err)
	} else {
		defer func() { _ = stopProfiling() }()
	}

	runner, err := app.NewRunner(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logger.Warn("browser shutdown failed", "error", err)
		}
	}()

	return fn(ctx, runner, logger)
}

func splitIDs(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
