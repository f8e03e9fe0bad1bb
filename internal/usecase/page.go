package usecase

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
)

// Browser is one shared headless-browser process. Pages are opened per scrape.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is the minimal capability set the discovery and scraping algorithms
// need from a browser tab. Click never fails: it reports whether the element
// was found and clicked within the timeout.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) bool
	Evaluate(ctx context.Context, expression string, out any) error
	Content(ctx context.Context) (string, error)
	Wait(ctx context.Context, d time.Duration) error
	Close() error
}

// WithPage opens a page, runs fn and closes the page on every exit path,
// including a panic inside fn.
func WithPage(ctx context.Context, browser Browser, fn func(Page) error) (err error) {
	if browser == nil {
		return crerr.Mark(crerr.New("browser is not configured"), ErrDependencyUnavailable)
	}
	page, err := browser.NewPage(ctx)
	if err != nil {
		return crerr.Mark(crerr.Wrap(err, "open page"), ErrNavigation)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil && err == nil {
			err = crerr.Wrap(closeErr, "close page")
		}
	}()
	return fn(page)
}

const cookieBannerScript = `(() => {
	const selectors = [
		'#CybotCookiebotDialog', '#CybotCookiebotDialogBodyUnderlay',
		'#coiOverlay', '.cookie-consent', '.cookie-banner', '[id*="cookie"][class*="overlay"]'
	];
	let removed = 0;
	for (const s of selectors) {
		document.querySelectorAll(s).forEach(n => { n.remove(); removed++; });
	}
	document.body && document.body.classList.remove('CybotCookiebotDialogActive');
	return removed;
})()`

// DismissCookieBanner waits for the consent overlay to mount, then removes it.
// Failures are swallowed.
func DismissCookieBanner(ctx context.Context, page Page, delay time.Duration, logger *logging.Logger) {
	if logger == nil {
		logger = logging.Default()
	}
	if delay > 0 {
		if err := page.Wait(ctx, delay); err != nil {
			logger.DebugContext(ctx, "cookie banner wait interrupted", "error", err)
			return
		}
	}
	var removed int
	if err := page.Evaluate(ctx, cookieBannerScript, &removed); err != nil {
		logger.DebugContext(ctx, "cookie banner removal failed", "error", err)
		return
	}
	if removed > 0 {
		logger.DebugContext(ctx, "cookie banner removed", "nodes", removed)
	}
}

// loadPage navigates, clears the consent overlay and returns the rendered DOM.
func loadPage(ctx context.Context, page Page, url string, timing PageTiming, logger *logging.Logger) (string, error) {
	if err := page.Navigate(ctx, url, timing.NavTimeout); err != nil {
		return "", crerr.Mark(crerr.Wrapf(err, "navigate %s", url), ErrNavigation)
	}
	DismissCookieBanner(ctx, page, timing.CookieBannerDelay, logger)
	html, err := page.Content(ctx)
	if err != nil {
		return "", crerr.Mark(crerr.Wrapf(err, "read content %s", url), ErrNavigation)
	}
	return html, nil
}

// PageTiming bounds every browser interaction.
type PageTiming struct {
	NavTimeout        time.Duration
	ClickTimeout      time.Duration
	RenderWait        time.Duration
	CookieBannerDelay time.Duration
}

func (t PageTiming) withDefaults() PageTiming {
	if t.NavTimeout <= 0 {
		t.NavTimeout = 30 * time.Second
	}
	if t.ClickTimeout <= 0 {
		t.ClickTimeout = 5 * time.Second
	}
	if t.RenderWait < 0 {
		t.RenderWait = 0
	}
	if t.CookieBannerDelay < 0 {
		t.CookieBannerDelay = 0
	}
	return t
}
