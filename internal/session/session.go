// Package session defines the capability surface page objects and scenarios
// drive: one isolated browser tab per test case (Page) and lazily resolved
// element handles (Locator).
//
// Implementations live in internal/browser (chromedp), internal/pwdriver
// (playwright-go) and internal/session/sessiontest (in-memory fake). Every
// Locator call resolves its chain against the live page; nothing is cached
// between calls.
package session

import (
	"context"

	"github.com/pinchtab/pagewright/internal/locate"
)

// Finder builds locators. Page builders search the whole document, Locator
// builders search the descendants of the locator's matches.
type Finder interface {
	GetByRole(role string, name locate.TextMatch) Locator
	GetByText(m locate.TextMatch) Locator
	GetByPlaceholder(m locate.TextMatch) Locator
	GetByLabel(m locate.TextMatch) Locator
	GetByTestID(id string) Locator
	Locator(css string) Locator
}

// Page is the session handle for one test case. It is owned by whoever
// opened it (the scenario runner or a test fixture); page objects only
// borrow it.
type Page interface {
	Finder

	// Goto navigates and waits for the document to load, bounded by the
	// configured navigation timeout. Failures are *NavigationError.
	Goto(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Locator is a lazy description of zero or more elements.
//
// Actions (Fill, Press, Click, Check, Uncheck, Hover) wait up to the
// configured action timeout for exactly one attached, visible match and fail
// with *ElementNotFoundError otherwise. Readers other than Count and
// AllTexts require exactly one match but do not wait.
type Locator interface {
	Finder

	Filter(hasText locate.TextMatch) Locator
	FilterNot(hasNotText locate.TextMatch) Locator
	Nth(index int) Locator
	First() Locator
	Last() Locator

	Fill(ctx context.Context, text string) error
	Press(ctx context.Context, key string) error
	Click(ctx context.Context) error
	Check(ctx context.Context) error
	Uncheck(ctx context.Context) error
	Hover(ctx context.Context) error

	Count(ctx context.Context) (int, error)
	AllTexts(ctx context.Context) ([]string, error)
	Text(ctx context.Context) (string, error)
	Value(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	IsVisible(ctx context.Context) (bool, error)
	IsChecked(ctx context.Context) (bool, error)

	Chain() locate.Chain
	String() string
}

// Driver opens isolated sessions. The returned close func releases the
// session's browser context; it is safe to call more than once.
type Driver interface {
	NewSession(ctx context.Context) (Page, func(), error)
	Close() error
}

// Snapshotter is implemented by pages that can describe their current
// accessibility tree as text. The runner saves it next to the failure
// screenshot.
type Snapshotter interface {
	AccessibilitySnapshot(ctx context.Context) (string, error)
}

// TraceRecorder is implemented by pages whose engine can record a trace of
// the session. SaveTrace stops the recording and writes it to path; it
// reports false when the session was not being traced.
type TraceRecorder interface {
	SaveTrace(ctx context.Context, path string) (bool, error)
}
