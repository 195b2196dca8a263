package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/pinchtab/pagewright/internal/human"
)

// pollInterval is how often navigation and actionability are re-checked.
const pollInterval = 100 * time.Millisecond

// navMarker is set on the old document before navigating; its absence
// proves the new document replaced it.
const navMarker = "window.__pagewrightNav"

// NavigatePage uses raw CDP Page.navigate and polls document.readyState until
// the new document is interactive. Chrome's net error text (for example
// net::ERR_NAME_NOT_RESOLVED) is returned as an error.
func NavigatePage(ctx context.Context, url string) error {
	if err := chromedp.Run(ctx, chromedp.Evaluate(navMarker+" = true", nil)); err != nil {
		return err
	}
	var loaderID cdp.LoaderID
	var errorText string
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			_, loaderID, errorText, _, err = page.Navigate(url).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return err
	}
	if errorText != "" {
		return errors.New(errorText)
	}
	if loaderID == "" {
		// Same-document navigation keeps the current document.
		return nil
	}
	return waitLoaded(ctx)
}

// ReloadPage reloads the current document and waits like NavigatePage.
func ReloadPage(ctx context.Context) error {
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(navMarker+" = true", nil),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return page.Reload().Do(ctx)
		}),
	); err != nil {
		return err
	}
	return waitLoaded(ctx)
}

func waitLoaded(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var state struct {
				Stale      bool   `json:"stale"`
				ReadyState string `json:"readyState"`
			}
			err := chromedp.Run(ctx, chromedp.Evaluate(
				`({stale: !!`+navMarker+`, readyState: document.readyState})`, &state))
			if err != nil || state.Stale {
				continue
			}
			if state.ReadyState == "interactive" || state.ReadyState == "complete" {
				return nil
			}
		}
	}
}

var ImageBlockPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg", "*.ico",
}

var MediaBlockPatterns = append(ImageBlockPatterns,
	"*.mp4", "*.webm", "*.ogg", "*.mp3", "*.wav", "*.flac", "*.aac",
)

// SetResourceBlocking uses Network.setBlockedURLs to block resources by URL pattern.
func SetResourceBlocking(ctx context.Context, patterns []string) error {
	return chromedp.Run(ctx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if len(patterns) == 0 {
				return network.SetBlockedURLs([]string{}).Do(ctx)
			}
			return network.SetBlockedURLs(patterns).Do(ctx)
		}),
	)
}

// clickAt dispatches a left click at viewport coordinates, humanized when
// asked.
func clickAt(ctx context.Context, x, y float64, humanize bool) error {
	if humanize {
		return human.Click(ctx, x, y)
	}
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MousePressed, x, y).
				WithButton(input.Left).
				WithClickCount(1).
				Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.DispatchMouseEvent(input.MouseReleased, x, y).
				WithButton(input.Left).
				WithClickCount(1).
				Do(ctx)
		}),
	)
}

// moveTo puts the pointer over viewport coordinates, which is what CSS
// :hover reacts to.
func moveTo(ctx context.Context, x, y float64, humanize bool, from [2]float64) error {
	if humanize {
		return human.MouseMove(ctx, from[0], from[1], x, y)
	}
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	}))
}

// insertText types text into the focused element as one input event.
func insertText(ctx context.Context, text string, humanize bool) error {
	if humanize {
		return chromedp.Run(ctx, human.Type(text, true)...)
	}
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.InsertText(text).Do(ctx)
	}))
}

func captureScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}
