// Package browser is the chromedp engine behind session.Page: it owns the
// Chrome process, opens one isolated browser context per session and
// implements locate-then-act on top of the embedded resolver script.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/pinchtab/pagewright/internal/config"
	"github.com/pinchtab/pagewright/internal/idutil"
	"github.com/pinchtab/pagewright/internal/session"
	"github.com/pinchtab/pagewright/internal/uameta"
)

var ErrClosed = errors.New("browser closed")

type sessionEntry struct {
	page   *Page
	cancel context.CancelFunc
}

// Browser implements session.Driver over one Chrome instance.
type Browser struct {
	AllocCtx      context.Context
	AllocCancel   context.CancelFunc
	BrowserCtx    context.Context
	BrowserCancel context.CancelFunc
	Config        *config.RuntimeConfig

	slots    chan struct{}
	ids      *idutil.Manager
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	seq      int
	closed   bool
}

var _ session.Driver = (*Browser)(nil)

// Launch starts Chrome according to cfg.
func Launch(cfg *config.RuntimeConfig) (*Browser, error) {
	allocCtx, allocCancel, browserCtx, browserCancel, err := InitChrome(cfg)
	if err != nil {
		return nil, err
	}
	return New(allocCtx, allocCancel, browserCtx, browserCancel, cfg), nil
}

func New(allocCtx context.Context, allocCancel context.CancelFunc, browserCtx context.Context, browserCancel context.CancelFunc, cfg *config.RuntimeConfig) *Browser {
	b := &Browser{
		AllocCtx:      allocCtx,
		AllocCancel:   allocCancel,
		BrowserCtx:    browserCtx,
		BrowserCancel: browserCancel,
		Config:        cfg,
		ids:           idutil.NewManager(),
		sessions:      make(map[string]*sessionEntry),
	}
	if cfg.MaxSessions > 0 {
		b.slots = make(chan struct{}, cfg.MaxSessions)
	}
	return b
}

func (b *Browser) acquire(ctx context.Context) error {
	if b.slots == nil {
		return nil
	}
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for a free session slot: %w", ctx.Err())
	}
}

func (b *Browser) release() {
	if b.slots != nil {
		<-b.slots
	}
}

// NewSession opens a tab in a fresh browser context, so cookies and storage
// never leak between sessions. The returned func closes the tab and disposes
// the context.
func (b *Browser) NewSession(ctx context.Context) (session.Page, func(), error) {
	if err := b.acquire(ctx); err != nil {
		return nil, nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.release()
		return nil, nil, ErrClosed
	}
	b.seq++
	id := b.ids.SessionID(b.seq)
	b.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(b.BrowserCtx, chromedp.WithNewBrowserContext())
	// The first Run creates the target; it must not carry the caller's
	// deadline or the tab dies with it.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		b.release()
		return nil, nil, fmt.Errorf("create session %s: %w", id, err)
	}
	if err := b.tabSetup(tabCtx); err != nil {
		cancel()
		b.release()
		return nil, nil, fmt.Errorf("set up session %s: %w", id, err)
	}

	p := &Page{id: id, ctx: tabCtx, cfg: b.Config}
	b.mu.Lock()
	b.sessions[id] = &sessionEntry{page: p, cancel: cancel}
	b.mu.Unlock()
	slog.Debug("session opened", "session", id)

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			b.mu.Lock()
			_, tracked := b.sessions[id]
			delete(b.sessions, id)
			b.mu.Unlock()
			cancel()
			if tracked {
				b.release()
			}
			slog.Debug("session closed", "session", id)
		})
	}
	return p, closeFn, nil
}

// tabSetup applies the per-session emulation the config asks for.
func (b *Browser) tabSetup(ctx context.Context) error {
	cfg := b.Config
	w, h := windowSize(cfg)
	if err := chromedp.Run(ctx, emulation.SetDeviceMetricsOverride(int64(w), int64(h), 1, false)); err != nil {
		return fmt.Errorf("viewport: %w", err)
	}
	if override := uameta.Build(cfg.UserAgent, cfg.ChromeVersion); override != nil {
		if err := chromedp.Run(ctx, override); err != nil {
			slog.Warn("ua override failed on tab setup", "err", err)
		}
	}
	if cfg.NoAnimations {
		if err := injectNoAnimations(ctx); err != nil {
			slog.Warn("disable animations failed", "err", err)
		}
	}
	if patterns := blockPatterns(cfg.BlockAds, cfg.BlockImages, cfg.BlockMedia); len(patterns) > 0 {
		if err := SetResourceBlocking(ctx, patterns); err != nil {
			slog.Warn("resource blocking failed", "err", err)
		}
	}
	return nil
}

// OpenSessions reports how many sessions are currently open.
func (b *Browser) OpenSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Close closes every open session and shuts Chrome down. With a remote
// allocator the remote browser keeps running.
func (b *Browser) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	entries := make([]*sessionEntry, 0, len(b.sessions))
	for id, e := range b.sessions {
		entries = append(entries, e)
		delete(b.sessions, id)
	}
	b.mu.Unlock()

	for _, e := range entries {
		e.cancel()
		b.release()
	}
	if b.BrowserCancel != nil {
		b.BrowserCancel()
	}
	if b.AllocCancel != nil {
		b.AllocCancel()
	}
	slog.Info("browser closed", "sessions", len(entries))
	return nil
}
