package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/pinchtab/pagewright/internal/config"
)

// InitChrome starts (or connects to) Chrome and returns the allocator and
// browser contexts. With cfg.CdpURL set it attaches to a running browser
// instead of launching one.
func InitChrome(cfg *config.RuntimeConfig) (context.Context, context.CancelFunc, context.Context, context.CancelFunc, error) {
	slog.Info("starting chrome initialization", "headless", cfg.Headless, "binary", cfg.ChromeBinary, "cdpUrl", cfg.CdpURL)

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.CdpURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.CdpURL)
		slog.Debug("remote chrome allocator configured", "url", cfg.CdpURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
		slog.Debug("chrome allocator configured", "headless", cfg.Headless)
	}

	browserCtx, browserCancel, err := startChrome(allocCtx)
	if err != nil {
		allocCancel()
		slog.Error("chrome initialization failed", "headless", cfg.Headless, "error", err.Error())
		return nil, nil, nil, nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	slog.Info("chrome initialized successfully", "headless", cfg.Headless)
	return allocCtx, allocCancel, browserCtx, browserCancel, nil
}

// allocatorOptions builds the exec allocator flags from cfg.
func allocatorOptions(cfg *config.RuntimeConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
		slog.Debug("chrome mode set to headed (visible window)")
	}

	if cfg.ChromeBinary != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromeBinary))
		slog.Debug("chrome binary path configured", "path", cfg.ChromeBinary)
	}

	w, h := windowSize(cfg)
	opts = append(opts, chromedp.WindowSize(w, h))

	opts = append(opts,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	for name, value := range parseExtraFlags(cfg.ChromeExtraFlags) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

func windowSize(cfg *config.RuntimeConfig) (int, int) {
	w, h := cfg.WindowWidth, cfg.WindowHeight
	if w <= 0 {
		w = 1920
	}
	if h <= 0 {
		h = 1080
	}
	return w, h
}

// parseExtraFlags turns "--a --b=c" into {"a": true, "b": "c"}.
func parseExtraFlags(s string) map[string]any {
	out := map[string]any{}
	for _, f := range strings.Fields(s) {
		f = strings.TrimLeft(f, "-")
		if f == "" {
			continue
		}
		if name, value, ok := strings.Cut(f, "="); ok {
			out[name] = value
		} else {
			out[f] = true
		}
	}
	return out
}

// startChrome connects the first browser context. The first Run must not
// carry a deadline: it allocates the browser, and cancelling it kills Chrome.
func startChrome(allocCtx context.Context) (context.Context, context.CancelFunc, error) {
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	slog.Debug("connecting to chrome browser")
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}
	slog.Debug("chrome browser connected successfully")
	return browserCtx, cancel, nil
}
