package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
	"github.com/riskibarqy/handball-sync/internal/usecase"
)

// Page is one browser tab.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *logging.Logger
}

var _ usecase.Page = (*Page)(nil)

// bind derives an action context from the tab that also ends with the
// caller's ctx or after timeout. Cancelling it aborts the action, not the tab.
func (p *Page) bind(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		actionCtx context.Context
		cancel    context.CancelFunc
	)
	if timeout > 0 {
		actionCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		actionCtx, cancel = context.WithCancel(p.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return actionCtx, func() {
		stop()
		cancel()
	}
}

func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	actionCtx, cancel := p.bind(ctx, timeout)
	defer cancel()
	if err := chromedp.Run(actionCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return crerr.Wrapf(err, "navigate %s", url)
	}
	return nil
}

// Click locates selector as an XPath or text search and clicks it once it is
// visible. Any failure, including the timeout, reports false.
func (p *Page) Click(ctx context.Context, selector string, timeout time.Duration) bool {
	actionCtx, cancel := p.bind(ctx, timeout)
	defer cancel()
	if err := chromedp.Run(actionCtx, chromedp.Click(selector, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		p.logger.Debug("click failed", "selector", selector, "error", err)
		return false
	}
	return true
}

func (p *Page) Evaluate(ctx context.Context, expression string, out any) error {
	actionCtx, cancel := p.bind(ctx, 0)
	defer cancel()
	if err := chromedp.Run(actionCtx, chromedp.Evaluate(expression, out)); err != nil {
		return crerr.Wrap(err, "evaluate")
	}
	return nil
}

// Content returns the rendered DOM, including nodes built by scripts.
func (p *Page) Content(ctx context.Context) (string, error) {
	actionCtx, cancel := p.bind(ctx, 0)
	defer cancel()
	var html string
	if err := chromedp.Run(actionCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", crerr.Wrap(err, "read outer html")
	}
	return html, nil
}

func (p *Page) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return crerr.New("page closed")
	case <-timer.C:
		return nil
	}
}

// Close closes the tab.
func (p *Page) Close() error {
	p.cancel()
	return nil
}
