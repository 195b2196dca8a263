// Package pages holds the Page Objects: one type per logical page, each
// borrowing a session.Page and exposing named operations that hide the
// locator strategy behind them.
//
// Page objects never wait, retry or cache. Every operation locates its
// element against the live page and acts once; implicit waiting belongs to
// the session engine and expectations belong to the caller.
package pages

import (
	"context"
	"errors"
)

// ErrInvalidItemText rejects empty or multi-line todo text.
var ErrInvalidItemText = errors.New("item text must be a non-empty single line")

// PageObject is a page with a known entry URL.
type PageObject interface {
	EntryURL() string
	// Navigate goes to EntryURL; failures are *session.NavigationError.
	Navigate(ctx context.Context) error
}

// TodoList is the todo app's operation set. Indexes are resolved against
// the live list on every call.
type TodoList interface {
	PageObject
	AddItem(ctx context.Context, text string) error
	ItemCount(ctx context.Context) (int, error)
	ToggleItem(ctx context.Context, index int) error
	DeleteItem(ctx context.Context, index int) error
}

var (
	_ TodoList   = (*TodoPage)(nil)
	_ PageObject = (*LoginPage)(nil)
	_ PageObject = (*DocsPage)(nil)
)
