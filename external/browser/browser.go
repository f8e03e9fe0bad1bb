package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/riskibarqy/handball-sync/internal/usecase"
)

type Config struct {
	Headless bool
	ExecPath string
	// UserAgent overrides the headless default, which some sites block.
	UserAgent string
	// StartTimeout bounds launching the browser process.
	StartTimeout time.Duration
}

// Browser owns one Chrome process. Each page is a tab in its browser context.
type Browser struct {
	ctx           context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	logger        *logging.Logger
}

var _ usecase.Browser = (*Browser)(nil)

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+4)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.DisableGPU,
		chromedp.WindowSize(1366, 900),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	return opts
}

// New launches the browser and waits until it answers. The process lives
// until Close or until ctx is cancelled.
func New(ctx context.Context, cfg Config, logger *logging.Logger) (*Browser, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("browser")
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 30 * time.Second
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Warn(fmt.Sprintf(format, args...))
		}),
	)

	startCtx, cancel := context.WithTimeout(browserCtx, cfg.StartTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, crerr.Mark(crerr.Wrap(err, "start browser"), usecase.ErrDependencyUnavailable)
	}

	logger.Info("browser started", "headless", cfg.Headless, "exec_path", cfg.ExecPath)
	return &Browser{
		ctx:           browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
		logger:        logger,
	}, nil
}

// NewPage opens a new tab.
func (b *Browser) NewPage(ctx context.Context) (usecase.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, crerr.Wrap(err, "open tab")
	}
	return &Page{ctx: tabCtx, cancel: cancel, logger: b.logger}, nil
}

func (b *Browser) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}
