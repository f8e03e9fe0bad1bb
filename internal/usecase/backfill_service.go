package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/handball-sync/internal/domain/runsummary"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
)

// ResultUpdate is a freshly fetched final score for one schedule entry.
type ResultUpdate struct {
	MatchID string `json:"matchId"`
	Result  string `json:"result"`
}

type BackfillConfig struct {
	Timing PageTiming
	// Delay is the pause between two consecutive result fetches.
	Delay time.Duration
}

// BackfillService fetches scores only for matches that are over but unscored.
type BackfillService struct {
	browser Browser
	cfg     BackfillConfig
	logger  *logging.Logger
}

func NewBackfillService(browser Browser, cfg BackfillConfig, logger *logging.Logger) *BackfillService {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.Timing = cfg.Timing.withDefaults()
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &BackfillService{browser: browser, cfg: cfg, logger: logger.Named("backfill")}
}

// NeedsUpdate reports whether the entry has no score, has a detail URL and
// its match day ended strictly before now. Dates are read in now's location.
func NeedsUpdate(entry schedule.Entry, now time.Time) bool {
	if entry.HasResult() {
		return false
	}
	if strings.TrimSpace(entry.MatchURL) == "" {
		return false
	}
	end, ok := schedule.EndOfDay(entry.Date, now.Location())
	if !ok {
		return false
	}
	return end.Before(now)
}

// Candidates filters entries down to those needing a result fetch.
func Candidates(entries []schedule.Entry, now time.Time) []schedule.Entry {
	out := make([]schedule.Entry, 0, 8)
	for _, entry := range entries {
		if NeedsUpdate(entry, now) {
			out = append(out, entry)
		}
	}
	return out
}

// Backfill fetches scores sequentially through one shared page. Pages without a
// parsable score produce no update; unreachable pages are reported as failures.
func (s *BackfillService) Backfill(ctx context.Context, entries []schedule.Entry, now time.Time) ([]ResultUpdate, []runsummary.Failure) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.Backfill")
	defer span.End()

	candidates := Candidates(entries, now)
	if len(candidates) == 0 {
		return nil, nil
	}

	var (
		updates  []ResultUpdate
		failures []runsummary.Failure
	)
	err := WithPage(ctx, s.browser, func(page Page) error {
		for n, entry := range candidates {
			if n > 0 && s.cfg.Delay > 0 {
				if err := page.Wait(ctx, s.cfg.Delay); err != nil {
					return err
				}
			}
			html, err := loadPage(ctx, page, entry.MatchURL, s.cfg.Timing, s.logger)
			if err != nil {
				s.logger.WarnContext(ctx, "result fetch failed", "match_id", entry.MatchID, "error", err)
				failures = append(failures, runsummary.Failure{Stage: StageBackfill, Item: entry.MatchID, Error: err.Error()})
				continue
			}
			score := ExtractMatchScore(html)
			if score == "" {
				continue
			}
			updates = append(updates, ResultUpdate{MatchID: entry.MatchID, Result: score})
		}
		return nil
	})
	if err != nil {
		failures = append(failures, runsummary.Failure{Stage: StageBackfill, Item: "page", Error: err.Error()})
	}

	s.logger.InfoContext(ctx, "backfill finished",
		"candidates", len(candidates),
		"updated", len(updates),
		"failed", len(failures),
	)
	return updates, failures
}

// ApplyResults writes updates into entries in place and returns copies of the
// entries whose result actually changed.
func ApplyResults(entries []schedule.Entry, updates []ResultUpdate) []schedule.Entry {
	if len(updates) == 0 {
		return nil
	}
	byID := make(map[string]string, len(updates))
	for _, update := range updates {
		result := schedule.NormalizeScore(update.Result)
		if result == "" {
			continue
		}
		byID[update.MatchID] = result
	}

	changed := make([]schedule.Entry, 0, len(byID))
	for n := range entries {
		result, ok := byID[entries[n].MatchID]
		if !ok || entries[n].Result == result {
			continue
		}
		entries[n].Result = result
		changed = append(changed, entries[n])
	}
	return changed
}
