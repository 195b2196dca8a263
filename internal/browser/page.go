package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pinchtab/pagewright/internal/config"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// Page is one session tab.
type Page struct {
	id  string
	ctx context.Context
	cfg *config.RuntimeConfig

	mu    sync.Mutex
	mouse [2]float64
}

var (
	_ session.Page        = (*Page)(nil)
	_ session.Snapshotter = (*Page)(nil)
)

// ID is the session ID used in logs.
func (p *Page) ID() string { return p.id }

// scope derives a tab context bounded by timeout that is also canceled when
// the caller's ctx is. chromedp needs the tab context, not the caller's.
func (p *Page) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	tCtx, cancel := context.WithTimeout(p.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return tCtx, func() {
		stop()
		cancel()
	}
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return &session.NavigationError{URL: url, Err: err}
	}
	tCtx, cancel := p.scope(ctx, p.cfg.NavigateTimeout)
	defer cancel()
	if err := NavigatePage(tCtx, url); err != nil {
		return &session.NavigationError{URL: url, Err: navErr(ctx, tCtx, err)}
	}
	return nil
}

func (p *Page) Reload(ctx context.Context) error {
	url, _ := p.URL(ctx)
	tCtx, cancel := p.scope(ctx, p.cfg.NavigateTimeout)
	defer cancel()
	if err := ReloadPage(tCtx); err != nil {
		return &session.NavigationError{URL: url, Err: navErr(ctx, tCtx, err)}
	}
	return nil
}

// navErr prefers the caller's cancellation over the derived deadline.
func navErr(ctx, tCtx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if tCtx.Err() != nil {
		return fmt.Errorf("load did not finish: %w", tCtx.Err())
	}
	return err
}

func (p *Page) URL(ctx context.Context) (string, error) {
	tCtx, cancel := p.scope(ctx, p.cfg.ActionTimeout)
	defer cancel()
	var url string
	if err := chromedp.Run(tCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read url: %w", err)
	}
	return url, nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	tCtx, cancel := p.scope(ctx, p.cfg.ActionTimeout)
	defer cancel()
	var title string
	if err := chromedp.Run(tCtx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return title, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	tCtx, cancel := p.scope(ctx, p.cfg.ActionTimeout)
	defer cancel()
	return captureScreenshot(tCtx)
}

func (p *Page) AccessibilitySnapshot(ctx context.Context) (string, error) {
	tCtx, cancel := p.scope(ctx, p.cfg.ActionTimeout)
	defer cancel()
	return accessibilitySnapshot(tCtx)
}

func (p *Page) root() *Locator { return &Locator{page: p} }

func (p *Page) GetByRole(role string, name locate.TextMatch) session.Locator {
	return p.root().GetByRole(role, name)
}

func (p *Page) GetByText(m locate.TextMatch) session.Locator { return p.root().GetByText(m) }

func (p *Page) GetByPlaceholder(m locate.TextMatch) session.Locator {
	return p.root().GetByPlaceholder(m)
}

func (p *Page) GetByLabel(m locate.TextMatch) session.Locator { return p.root().GetByLabel(m) }

func (p *Page) GetByTestID(id string) session.Locator { return p.root().GetByTestID(id) }

func (p *Page) Locator(css string) session.Locator { return p.root().Locator(css) }

func (p *Page) pointer() [2]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mouse
}

func (p *Page) setPointer(x, y float64) {
	p.mu.Lock()
	p.mouse = [2]float64{x, y}
	p.mu.Unlock()
}
