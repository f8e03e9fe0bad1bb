package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/handball-sync/internal/platform/logging"
)

// staticPage serves fixed HTML per URL and records what was asked of it.
type staticPage struct {
	pages     map[string]string
	current   string
	navigated []string
	closed    int
}

func (p *staticPage) Navigate(_ context.Context, url string, _ time.Duration) error {
	p.navigated = append(p.navigated, url)
	html, ok := p.pages[url]
	if !ok {
		return errors.New("net::ERR_NAME_NOT_RESOLVED")
	}
	p.current = html
	return nil
}

func (p *staticPage) Click(context.Context, string, time.Duration) bool { return false }

func (p *staticPage) Evaluate(context.Context, string, any) error { return nil }

func (p *staticPage) Content(context.Context) (string, error) { return p.current, nil }

func (p *staticPage) Wait(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func (p *staticPage) Close() error {
	p.closed++
	return nil
}

type staticBrowser struct {
	page    *staticPage
	openErr error
}

func (b *staticBrowser) NewPage(context.Context) (Page, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.page, nil
}

func (b *staticBrowser) Close() error { return nil }

func TestWithPage_ClosesOnError(t *testing.T) {
	t.Parallel()

	page := &staticPage{}
	browser := &staticBrowser{page: page}
	wantErr := errors.New("boom")

	err := WithPage(context.Background(), browser, func(Page) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.closed != 1 {
		t.Fatalf("expected page closed once, got %d", page.closed)
	}
}

func TestWithPage_ClosesOnPanic(t *testing.T) {
	t.Parallel()

	page := &staticPage{}
	browser := &staticBrowser{page: page}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = WithPage(context.Background(), browser, func(Page) error { panic("scrape blew up") })
	}()
	if page.closed != 1 {
		t.Fatalf("expected page closed once, got %d", page.closed)
	}
}

func TestWithPage_OpenFailureIsNavigationError(t *testing.T) {
	t.Parallel()

	browser := &staticBrowser{openErr: errors.New("target closed")}
	err := WithPage(context.Background(), browser, func(Page) error {
		t.Fatalf("fn must not run without a page")
		return nil
	})
	if !crerr.Is(err, ErrNavigation) {
		t.Fatalf("expected navigation error, got %v", err)
	}

	err = WithPage(context.Background(), nil, func(Page) error { return nil })
	if !crerr.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected dependency error for nil browser, got %v", err)
	}
}

func TestLoadPage_MarksNavigationFailure(t *testing.T) {
	t.Parallel()

	page := &staticPage{pages: map[string]string{}}
	_, err := loadPage(context.Background(), page, "https://dhf.test/missing", PageTiming{}.withDefaults(), logging.NewNop())
	if !crerr.Is(err, ErrNavigation) {
		t.Fatalf("expected navigation error, got %v", err)
	}
}
