// Package pwdriver implements the session surface on playwright-go. It is
// selected with driver: playwright and shares locator semantics with the
// chromedp engine, so page objects run unchanged on either.
package pwdriver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/pinchtab/pagewright/internal/browser"
	"github.com/pinchtab/pagewright/internal/config"
	"github.com/pinchtab/pagewright/internal/idutil"
	"github.com/pinchtab/pagewright/internal/session"
	"github.com/playwright-community/playwright-go"
)

// Driver owns the playwright driver process and one browser.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	cfg     *config.RuntimeConfig
	ids     *idutil.Manager
	blocked []*regexp.Regexp

	slots chan struct{}
	mu    sync.Mutex
	seq   int
	open  map[string]playwright.BrowserContext
}

var _ session.Driver = (*Driver)(nil)

// Launch starts playwright and the configured browser, or attaches to
// Chromium over CDP when cfg.CdpURL is set. Browsers must already be
// installed (`pagewright install` or the playwright CLI).
func Launch(cfg *config.RuntimeConfig) (*Driver, error) {
	name := cfg.BrowserName()
	pw, err := playwright.Run(&playwright.RunOptions{Browsers: []string{name}})
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	bt, err := browserType(pw, name)
	if err != nil {
		_ = pw.Stop()
		return nil, err
	}

	var b playwright.Browser
	if cfg.CdpURL != "" {
		b, err = bt.ConnectOverCDP(cfg.CdpURL)
	} else {
		opts := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(cfg.Headless),
			Args:     strings.Fields(cfg.ChromeExtraFlags),
		}
		if cfg.ChromeBinary != "" {
			opts.ExecutablePath = playwright.String(cfg.ChromeBinary)
		}
		b, err = bt.Launch(opts)
	}
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", name, err)
	}
	slog.Info("playwright browser started", "browser", name, "headless", cfg.Headless, "version", b.Version(), "trace", cfg.Trace)
	return newDriver(pw, b, cfg), nil
}

func browserType(pw *playwright.Playwright, name string) (playwright.BrowserType, error) {
	switch name {
	case config.BrowserChromium:
		return pw.Chromium, nil
	case config.BrowserFirefox:
		return pw.Firefox, nil
	case config.BrowserWebKit:
		return pw.WebKit, nil
	}
	return nil, fmt.Errorf("unknown browser %q", name)
}

func newDriver(pw *playwright.Playwright, b playwright.Browser, cfg *config.RuntimeConfig) *Driver {
	d := &Driver{
		pw:      pw,
		browser: b,
		cfg:     cfg,
		ids:     idutil.NewManager(),
		open:    make(map[string]playwright.BrowserContext),
	}
	if cfg.MaxSessions > 0 {
		d.slots = make(chan struct{}, cfg.MaxSessions)
	}
	if cfg.BlockAds {
		d.blocked = compilePatterns(browser.AdBlockPatterns)
	}
	return d
}

// InstallBrowsers downloads the playwright driver and the named browsers,
// Chromium when none are given.
func InstallBrowsers(browsers ...string) error {
	if len(browsers) == 0 {
		browsers = []string{config.BrowserChromium}
	}
	return playwright.Install(&playwright.RunOptions{Browsers: browsers})
}

// NewSession opens a page in a fresh BrowserContext.
func (d *Driver) NewSession(ctx context.Context) (session.Page, func(), error) {
	if d.slots != nil {
		select {
		case d.slots <- struct{}{}:
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("waiting for a free session slot: %w", ctx.Err())
		}
	}
	release := func() {
		if d.slots != nil {
			<-d.slots
		}
	}

	bctx, err := d.browser.NewContext(d.contextOptions())
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("new browser context: %w", err)
	}
	if err := d.contextSetup(bctx); err != nil {
		_ = bctx.Close()
		release()
		return nil, nil, err
	}
	pg, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		release()
		return nil, nil, fmt.Errorf("new page: %w", err)
	}

	d.mu.Lock()
	d.seq++
	id := d.ids.SessionID(d.seq)
	d.open[id] = bctx
	d.mu.Unlock()
	slog.Debug("session opened", "session", id, "driver", config.DriverPlaywright)

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			d.mu.Lock()
			_, tracked := d.open[id]
			delete(d.open, id)
			d.mu.Unlock()
			if tracked {
				if err := bctx.Close(); err != nil {
					slog.Warn("close browser context", "session", id, "err", err)
				}
				release()
			}
		})
	}
	p := &Page{id: id, page: pg, cfg: d.cfg}
	if d.cfg.Trace {
		p.trace = bctx.Tracing()
	}
	return p, closeFn, nil
}

func (d *Driver) contextOptions() playwright.BrowserNewContextOptions {
	w, h := d.cfg.WindowWidth, d.cfg.WindowHeight
	if w <= 0 || h <= 0 {
		w, h = 1920, 1080
	}
	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: w, Height: h},
	}
	if d.cfg.UserAgent != "" {
		opts.UserAgent = playwright.String(d.cfg.UserAgent)
	}
	if d.cfg.NoAnimations {
		opts.ReducedMotion = playwright.ReducedMotionReduce
	}
	return opts
}

// contextSetup applies timeouts, tracing, animation and resource blocking.
func (d *Driver) contextSetup(bctx playwright.BrowserContext) error {
	bctx.SetDefaultTimeout(ms(d.cfg.ActionTimeout))
	bctx.SetDefaultNavigationTimeout(ms(d.cfg.NavigateTimeout))

	if d.cfg.Trace {
		if err := bctx.Tracing().Start(traceOptions()); err != nil {
			return fmt.Errorf("start tracing: %w", err)
		}
	}

	if d.cfg.NoAnimations {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(browser.DisableAnimationsCSS)}); err != nil {
			return fmt.Errorf("disable animations: %w", err)
		}
	}
	if len(d.blocked) == 0 && !d.cfg.BlockImages && !d.cfg.BlockMedia {
		return nil
	}
	return bctx.Route("**/*", func(route playwright.Route) {
		req := route.Request()
		if d.shouldBlock(req.URL(), req.ResourceType()) {
			_ = route.Abort()
			return
		}
		_ = route.Continue()
	})
}

// traceOptions records screenshots and DOM snapshots for the trace viewer.
func traceOptions() playwright.TracingStartOptions {
	return playwright.TracingStartOptions{
		Screenshots: playwright.Bool(true),
		Snapshots:   playwright.Bool(true),
	}
}

func (d *Driver) shouldBlock(url, resourceType string) bool {
	switch resourceType {
	case "image":
		if d.cfg.BlockImages || d.cfg.BlockMedia {
			return true
		}
	case "media":
		if d.cfg.BlockMedia {
			return true
		}
	}
	for _, re := range d.blocked {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// compilePatterns turns Network.setBlockedURLs wildcards ("*" matches any
// run of characters) into anchored regexps.
func compilePatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(p), `\*`, ".*") + "$"
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}

func (d *Driver) Close() error {
	d.mu.Lock()
	contexts := make([]playwright.BrowserContext, 0, len(d.open))
	for id, c := range d.open {
		contexts = append(contexts, c)
		delete(d.open, id)
	}
	d.mu.Unlock()

	for _, c := range contexts {
		_ = c.Close()
	}
	var firstErr error
	if d.browser != nil {
		firstErr = d.browser.Close()
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
