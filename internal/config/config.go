package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
)

// Team is one of our own teams tracked by the pipeline.
type Team struct {
	Label string `validate:"required"`
	ID    string `validate:"required,numeric"`
}

// Config stores runtime configuration for the sync pipeline.
type Config struct {
	AppEnv         string `validate:"oneof=dev stage prod"`
	ServiceName    string `validate:"required"`
	ServiceVersion string
	DataDir        string `validate:"required"`

	SourceBaseURL           string `validate:"required,url"`
	Teams                   []Team `validate:"required,min=1,dive"`
	TeamPageURLTemplate     string `validate:"required"`
	ScheduleFeedURLTemplate string
	FeedTimeout             time.Duration `validate:"gt=0"`

	BrowserHeadless   bool
	BrowserExecPath   string
	NavTimeout        time.Duration `validate:"gt=0"`
	ClickTimeout      time.Duration `validate:"gt=0"`
	RenderWait        time.Duration `validate:"gte=0"`
	CookieBannerDelay time.Duration `validate:"gte=0"`
	BackfillDelay     time.Duration `validate:"gte=0"`

	StatsBatchSize       int           `validate:"gte=1,lte=100"`
	StatsConcurrency     int           `validate:"gte=1,lte=16"`
	DiscoveryConcurrency int           `validate:"gte=1,lte=16"`
	TournamentCacheTTL   time.Duration `validate:"gt=0"`

	LogLevel  logging.Level
	LogFormat string `validate:"oneof=json console"`

	UptraceEnabled         bool
	UptraceDSN             string `validate:"required_if=UptraceEnabled true"`
	PyroscopeEnabled       bool
	PyroscopeServerAddress string `validate:"required_if=PyroscopeEnabled true"`
	PyroscopeAppName       string

	PublishS3Bucket string
	PublishS3Prefix string
	AWSRegion       string
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func Load() (Config, error) {
	cfg := Config{
		AppEnv:                  strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", EnvDev))),
		ServiceName:             strings.TrimSpace(getEnv("SERVICE_NAME", "handball-sync")),
		ServiceVersion:          strings.TrimSpace(getEnv("SERVICE_VERSION", "dev")),
		DataDir:                 strings.TrimSpace(getEnv("DATA_DIR", "data")),
		SourceBaseURL:           strings.TrimRight(strings.TrimSpace(getEnv("SOURCE_BASE_URL", "https://www.dhf.dk")), "/"),
		TeamPageURLTemplate:     strings.TrimSpace(getEnv("TEAM_PAGE_URL_TEMPLATE", "{base}/turneringer/hold?teamId={id}")),
		ScheduleFeedURLTemplate: strings.TrimSpace(getEnv("SCHEDULE_FEED_URL_TEMPLATE", "")),
		BrowserExecPath:         strings.TrimSpace(getEnv("BROWSER_EXEC_PATH", "")),
		LogLevel:                logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		LogFormat:               strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", logging.FormatJSON))),
		UptraceDSN:              strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
		PyroscopeServerAddress:  strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAppName:        strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", "handball-sync")),
		PublishS3Bucket:         strings.TrimSpace(getEnv("PUBLISH_S3_BUCKET", "")),
		PublishS3Prefix:         strings.Trim(strings.TrimSpace(getEnv("PUBLISH_S3_PREFIX", "")), "/"),
		AWSRegion:               strings.TrimSpace(getEnv("AWS_REGION", "eu-north-1")),
	}

	teams, err := parseTeams(getEnv("TEAMS", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse TEAMS: %w", err)
	}
	cfg.Teams = teams

	bools := []struct {
		key      string
		fallback string
		target   *bool
	}{
		{"BROWSER_HEADLESS", "true", &cfg.BrowserHeadless},
		{"UPTRACE_ENABLED", "false", &cfg.UptraceEnabled},
		{"PYROSCOPE_ENABLED", "false", &cfg.PyroscopeEnabled},
	}
	for _, item := range bools {
		value, err := strconv.ParseBool(getEnv(item.key, item.fallback))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
		*item.target = value
	}

	durations := []struct {
		key      string
		fallback string
		target   *time.Duration
	}{
		{"FEED_TIMEOUT", "20s", &cfg.FeedTimeout},
		{"NAV_TIMEOUT", "30s", &cfg.NavTimeout},
		{"CLICK_TIMEOUT", "5s", &cfg.ClickTimeout},
		{"RENDER_WAIT", "1500ms", &cfg.RenderWait},
		{"COOKIE_BANNER_DELAY", "1s", &cfg.CookieBannerDelay},
		{"BACKFILL_DELAY", "1s", &cfg.BackfillDelay},
		{"TOURNAMENT_CACHE_TTL", "12h", &cfg.TournamentCacheTTL},
	}
	for _, item := range durations {
		value, err := time.ParseDuration(getEnv(item.key, item.fallback))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
		*item.target = value
	}

	ints := []struct {
		key      string
		fallback int
		target   *int
	}{
		{"STATS_BATCH_SIZE", 10, &cfg.StatsBatchSize},
		{"STATS_CONCURRENCY", 2, &cfg.StatsConcurrency},
		{"DISCOVERY_CONCURRENCY", 2, &cfg.DiscoveryConcurrency},
	}
	for _, item := range ints {
		value, err := getEnvAsInt(item.key, item.fallback)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", item.key, err)
		}
		*item.target = value
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// TeamPageURL renders the team page template for one team id.
func (c Config) TeamPageURL(teamID string) string {
	return expandTemplate(c.TeamPageURLTemplate, c.SourceBaseURL, teamID)
}

// ScheduleFeedURL renders the feed template, or "" when no feed is configured.
func (c Config) ScheduleFeedURL(teamID string) string {
	if c.ScheduleFeedURLTemplate == "" {
		return ""
	}
	return expandTemplate(c.ScheduleFeedURLTemplate, c.SourceBaseURL, teamID)
}

// TeamIDs lists the ids of our own teams in configuration order.
func (c Config) TeamIDs() []string {
	out := make([]string, 0, len(c.Teams))
	for _, team := range c.Teams {
		out = append(out, team.ID)
	}
	return out
}

func expandTemplate(tpl, base, id string) string {
	out := strings.ReplaceAll(tpl, "{base}", base)
	return strings.ReplaceAll(out, "{id}", id)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseTeams(raw string) ([]Team, error) {
	out := make([]Team, 0, 4)
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid team item %q, expected label:teamId", item)
		}
		label := strings.TrimSpace(segments[0])
		id := strings.TrimSpace(segments[1])
		if label == "" || id == "" {
			return nil, fmt.Errorf("empty label or id in team item %q", item)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate team id %q", id)
		}
		seen[id] = struct{}{}
		out = append(out, Team{Label: label, ID: id})
	}
	return out, nil
}
