package schedulefeed

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/domain/schedule"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/riskibarqy/handball-sync/internal/platform/resilience"
	"github.com/riskibarqy/handball-sync/internal/usecase"
	"github.com/valyala/fasthttp"
)

var errFeedTransient = crerr.New("schedule feed transient failure")

type ClientConfig struct {
	// URLFor expands a team id into its feed URL; an empty result means the
	// team has no feed.
	URLFor         func(teamID string) string
	Timeout        time.Duration
	MaxRetries     int
	UserAgent      string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// Dial replaces the network dialer, for tests.
	Dial fasthttp.DialFunc
}

// Client reads the federation's per-team schedule feed.
type Client struct {
	http       *fasthttp.Client
	urlFor     func(string) string
	timeout    time.Duration
	maxRetries int
	userAgent  string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.Group[[]byte]
}

var _ usecase.ScheduleFeed = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "hbsync/1.0"
	}
	return &Client{
		http: &fasthttp.Client{
			Dial:                     cfg.Dial,
			ReadTimeout:              cfg.Timeout,
			WriteTimeout:             cfg.Timeout,
			MaxIdleConnDuration:      30 * time.Second,
			NoDefaultUserAgentHeader: true,
		},
		urlFor:     cfg.URLFor,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger.Named("schedulefeed"),
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}
}

// feedMatch is one fixture as published by the feed.
type feedMatch struct {
	MatchID       string `json:"matchId"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	HomeTeam      string `json:"homeTeam"`
	AwayTeam      string `json:"awayTeam"`
	Result        string `json:"result"`
	Venue         string `json:"venue"`
	Attendance    string `json:"attendance"`
	Tournament    string `json:"tournament"`
	TournamentURL string `json:"tournamentUrl"`
	MatchURL      string `json:"matchUrl"`
}

type feedEnvelope struct {
	Matches []feedMatch `json:"matches"`
}

// FetchTeamSchedule returns the team's fixtures with Team set to its label.
func (c *Client) FetchTeamSchedule(ctx context.Context, team usecase.Team) ([]schedule.Entry, error) {
	if c.urlFor == nil {
		return nil, crerr.Mark(crerr.New("schedule feed url is not configured"), usecase.ErrDependencyUnavailable)
	}
	feedURL := strings.TrimSpace(c.urlFor(team.ID))
	if feedURL == "" {
		return nil, crerr.Mark(crerr.Newf("team %s has no schedule feed", team.ID), usecase.ErrDependencyUnavailable)
	}

	raw, err, _ := c.flight.Do(feedURL, func() ([]byte, error) {
		var body []byte
		callErr := c.breaker.Call(func() error {
			var reqErr error
			body, reqErr = c.get(ctx, feedURL)
			return reqErr
		}, isFeedTransient)
		if crerr.Is(callErr, resilience.ErrCircuitOpen) {
			return nil, crerr.Mark(crerr.Wrap(callErr, "schedule feed"), usecase.ErrDependencyUnavailable)
		}
		return body, callErr
	})
	if err != nil {
		return nil, err
	}

	matches, err := decodeFeed(raw)
	if err != nil {
		return nil, crerr.Wrapf(err, "decode schedule feed for team %s", team.ID)
	}

	out := make([]schedule.Entry, 0, len(matches))
	for _, m := range matches {
		if strings.TrimSpace(m.MatchID) == "" {
			continue
		}
		out = append(out, schedule.Entry{
			Team:          team.Label,
			Date:          strings.TrimSpace(m.Date),
			Time:          strings.TrimSpace(m.Time),
			MatchID:       strings.TrimSpace(m.MatchID),
			HomeTeam:      strings.TrimSpace(m.HomeTeam),
			AwayTeam:      strings.TrimSpace(m.AwayTeam),
			Result:        normalizeResult(m.Result),
			Venue:         strings.TrimSpace(m.Venue),
			Attendance:    strings.TrimSpace(m.Attendance),
			Tournament:    strings.TrimSpace(m.Tournament),
			TournamentURL: strings.TrimSpace(m.TournamentURL),
			MatchURL:      strings.TrimSpace(m.MatchURL),
		})
	}
	c.logger.DebugContext(ctx, "schedule feed fetched", "team_id", team.ID, "entries", len(out))
	return out, nil
}

// decodeFeed accepts either a bare array or an object wrapping "matches".
func decodeFeed(raw []byte) ([]feedMatch, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var matches []feedMatch
		if err := sonic.Unmarshal(raw, &matches); err != nil {
			return nil, err
		}
		return matches, nil
	}
	var envelope feedEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return envelope.Matches, nil
}

func normalizeResult(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == schedule.NotPlayed {
		return value
	}
	if score := schedule.NormalizeScore(value); score != "" {
		return score
	}
	return value
}

func (c *Client) get(ctx context.Context, feedURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, status, err := c.do(ctx, feedURL)
		switch {
		case err != nil:
			lastErr = crerr.Mark(crerr.Wrap(err, "send request"), errFeedTransient)
		case status >= 200 && status < 300:
			return body, nil
		case isRetryableStatus(status):
			lastErr = crerr.Mark(crerr.Newf("feed status=%d", status), errFeedTransient)
		default:
			return nil, crerr.Newf("feed status=%d", status)
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	c.logger.WarnContext(ctx, "schedule feed request failed", "url", feedURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, feedURL string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(feedURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.SetUserAgent(c.userAgent)

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, err
	}
	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

func isRetryableStatus(status int) bool {
	return status == fasthttp.StatusTooManyRequests || status >= 500
}

func isFeedTransient(err error) bool {
	return crerr.Is(err, errFeedTransient)
}
