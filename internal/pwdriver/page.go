package pwdriver

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/pinchtab/pagewright/internal/config"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
	"github.com/playwright-community/playwright-go"
)

// Page wraps one playwright.Page. playwright-go calls take no context, so
// every call is bounded by the configured timeout clipped to ctx's deadline.
type Page struct {
	id    string
	page  playwright.Page
	cfg   *config.RuntimeConfig
	trace playwright.Tracing

	mu     sync.Mutex
	traced bool
}

var (
	_ session.Page          = (*Page)(nil)
	_ session.TraceRecorder = (*Page)(nil)
)

func (p *Page) ID() string { return p.id }

func ms(d time.Duration) float64 { return float64(d / time.Millisecond) }

// budget returns the timeout in milliseconds for one call.
func budget(ctx context.Context, d time.Duration) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	if d <= 0 {
		return 0, context.DeadlineExceeded
	}
	return ms(d), nil
}

func (p *Page) Goto(ctx context.Context, url string) error {
	timeout, err := budget(ctx, p.cfg.NavigateTimeout)
	if err != nil {
		return &session.NavigationError{URL: url, Err: err}
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return &session.NavigationError{URL: url, Err: err}
	}
	return nil
}

func (p *Page) Reload(ctx context.Context) error {
	url := p.page.URL()
	timeout, err := budget(ctx, p.cfg.NavigateTimeout)
	if err != nil {
		return &session.NavigationError{URL: url, Err: err}
	}
	if _, err := p.page.Reload(playwright.PageReloadOptions{
		Timeout:   playwright.Float(timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return &session.NavigationError{URL: url, Err: err}
	}
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.URL(), nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t, err := p.page.Title()
	if err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return t, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	timeout, err := budget(ctx, p.cfg.ActionTimeout)
	if err != nil {
		return nil, err
	}
	buf, err := p.page.Screenshot(playwright.PageScreenshotOptions{Timeout: playwright.Float(timeout)})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// SaveTrace stops the session's trace and writes it to path. A trace can be
// saved once; later calls and untraced sessions report false.
func (p *Page) SaveTrace(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.trace == nil || p.traced {
		return false, nil
	}
	p.traced = true
	if err := p.trace.Stop(path); err != nil {
		return false, fmt.Errorf("save trace: %w", err)
	}
	return true, nil
}

// textArg converts a TextMatch into what playwright's getBy* accept, plus
// the exact flag. A pattern that does not compile is passed on as a plain
// string; Chain.Validate rejects it before any action reaches playwright.
func textArg(m locate.TextMatch) (any, *bool) {
	switch {
	case m.Regex:
		re, err := regexp.Compile(m.Text)
		if err != nil {
			return m.Text, nil
		}
		return re, nil
	case m.Exact:
		return m.Text, playwright.Bool(true)
	default:
		return m.Text, nil
	}
}

// filterArg is textArg for Filter and FilterNot. HasText has no exact flag,
// so an exact match becomes an anchored pattern over the normalized text.
func filterArg(m locate.TextMatch) any {
	if m.Exact && !m.Regex {
		return regexp.MustCompile(`^\s*` + regexp.QuoteMeta(locate.Normalize(m.Text)) + `\s*$`)
	}
	v, _ := textArg(m)
	return v
}

func (p *Page) wrap(pl playwright.Locator, c locate.Chain) session.Locator {
	return &Locator{page: p, loc: pl, chain: c}
}

func (p *Page) GetByRole(role string, name locate.TextMatch) session.Locator {
	opts := playwright.PageGetByRoleOptions{}
	if !name.IsAny() {
		opts.Name, opts.Exact = textArg(name)
	}
	return p.wrap(p.page.GetByRole(playwright.AriaRole(role), opts), locate.Chain{}.Role(role, name))
}

func (p *Page) GetByText(m locate.TextMatch) session.Locator {
	text, exact := textArg(m)
	return p.wrap(p.page.GetByText(text, playwright.PageGetByTextOptions{Exact: exact}), locate.Chain{}.Text(m))
}

func (p *Page) GetByPlaceholder(m locate.TextMatch) session.Locator {
	text, exact := textArg(m)
	return p.wrap(p.page.GetByPlaceholder(text, playwright.PageGetByPlaceholderOptions{Exact: exact}), locate.Chain{}.Placeholder(m))
}

func (p *Page) GetByLabel(m locate.TextMatch) session.Locator {
	text, exact := textArg(m)
	return p.wrap(p.page.GetByLabel(text, playwright.PageGetByLabelOptions{Exact: exact}), locate.Chain{}.Label(m))
}

func (p *Page) GetByTestID(id string) session.Locator {
	return p.wrap(p.page.GetByTestId(id), locate.Chain{}.TestID(id))
}

func (p *Page) Locator(css string) session.Locator {
	return p.wrap(p.page.Locator(css), locate.Chain{}.CSS(css))
}
