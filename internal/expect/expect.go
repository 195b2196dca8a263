// Package expect provides Playwright-style assertions that re-read the live
// page until the expectation holds or the expect timeout runs out.
//
// Every check polls the target fresh; nothing observed on one poll is
// reused on the next.
package expect

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// DefaultInterval is the poll period.
const DefaultInterval = 100 * time.Millisecond

// AssertionFailure reports that the observed state never matched.
type AssertionFailure struct {
	Assertion string
	Target    string
	Expected  string
	Actual    string
	Timeout   time.Duration
	// Err is the last read error, if the final poll failed to read at all.
	Err error
}

func (e *AssertionFailure) Error() string {
	msg := fmt.Sprintf("expect(%s).%s: expected %s, got %s", e.Target, e.Assertion, e.Expected, e.Actual)
	if e.Timeout > 0 {
		msg += fmt.Sprintf(" (waited %s)", e.Timeout)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AssertionFailure) Unwrap() error { return e.Err }

// IsAssertionFailure reports whether err is, or wraps, an *AssertionFailure.
func IsAssertionFailure(err error) bool {
	var af *AssertionFailure
	return errors.As(err, &af)
}

// Expecter carries the timeout and poll interval for a test case.
type Expecter struct {
	Timeout  time.Duration
	Interval time.Duration
}

func New(timeout time.Duration) *Expecter {
	return &Expecter{Timeout: timeout, Interval: DefaultInterval}
}

// probe reads the target once and reports what it saw.
type probe func(ctx context.Context) (actual string, ok bool, err error)

func (x *Expecter) poll(ctx context.Context, assertion, target, expected string, check probe) error {
	interval := x.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	deadline := time.NewTimer(x.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fail := &AssertionFailure{Assertion: assertion, Target: target, Expected: expected, Actual: "<nothing read>", Timeout: x.Timeout}
	for {
		actual, ok, err := check(ctx)
		if ok && err == nil {
			return nil
		}
		fail.Err = err
		if err == nil {
			fail.Actual = actual
		}
		select {
		case <-ctx.Done():
			// A canceled run is not an assertion failure.
			return fmt.Errorf("expect(%s).%s interrupted, last saw %s: %w", target, assertion, fail.Actual, ctx.Err())
		case <-deadline.C:
			return fail
		case <-ticker.C:
		}
	}
}

// LocatorAssertions checks one locator.
type LocatorAssertions struct {
	x   *Expecter
	loc session.Locator
}

func (x *Expecter) Locator(l session.Locator) *LocatorAssertions {
	return &LocatorAssertions{x: x, loc: l}
}

func (a *LocatorAssertions) ToBeVisible(ctx context.Context) error {
	return a.x.poll(ctx, "ToBeVisible", a.loc.String(), "visible", func(ctx context.Context) (string, bool, error) {
		v, err := a.loc.IsVisible(ctx)
		return visibility(v), v, err
	})
}

// ToBeHidden passes when nothing matches or the match is not visible.
func (a *LocatorAssertions) ToBeHidden(ctx context.Context) error {
	return a.x.poll(ctx, "ToBeHidden", a.loc.String(), "hidden", func(ctx context.Context) (string, bool, error) {
		v, err := a.loc.IsVisible(ctx)
		return visibility(v), !v, err
	})
}

func visibility(v bool) string {
	if v {
		return "visible"
	}
	return "hidden"
}

// ToHaveText compares the normalized text of every match, in order, with
// want. One matcher means exactly one element.
func (a *LocatorAssertions) ToHaveText(ctx context.Context, want ...locate.TextMatch) error {
	expected := make([]string, len(want))
	for i, m := range want {
		expected[i] = m.String()
	}
	return a.x.poll(ctx, "ToHaveText", a.loc.String(), "["+strings.Join(expected, ", ")+"]", func(ctx context.Context) (string, bool, error) {
		texts, err := a.loc.AllTexts(ctx)
		if err != nil {
			return "", false, err
		}
		actual := fmt.Sprintf("%q", texts)
		if len(texts) != len(want) {
			return actual, false, nil
		}
		for i, m := range want {
			if !m.Matches(texts[i]) {
				return actual, false, nil
			}
		}
		return actual, true, nil
	})
}

// ToContainText passes when the single match's text contains sub,
// case-sensitively after whitespace normalization.
func (a *LocatorAssertions) ToContainText(ctx context.Context, sub string) error {
	return a.x.poll(ctx, "ToContainText", a.loc.String(), fmt.Sprintf("text containing %q", sub), func(ctx context.Context) (string, bool, error) {
		text, err := a.loc.Text(ctx)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%q", text), strings.Contains(text, locate.Normalize(sub)), nil
	})
}

// ToHaveClass matches the class attribute against a regular expression.
func (a *LocatorAssertions) ToHaveClass(ctx context.Context, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("ToHaveClass: %w", err)
	}
	return a.x.poll(ctx, "ToHaveClass", a.loc.String(), "class /"+pattern+"/", func(ctx context.Context) (string, bool, error) {
		class, _, err := a.loc.Attribute(ctx, "class")
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%q", class), re.MatchString(class), nil
	})
}

func (a *LocatorAssertions) ToHaveCount(ctx context.Context, n int) error {
	return a.x.poll(ctx, "ToHaveCount", a.loc.String(), fmt.Sprint(n), func(ctx context.Context) (string, bool, error) {
		got, err := a.loc.Count(ctx)
		return fmt.Sprint(got), got == n, err
	})
}

func (a *LocatorAssertions) ToHaveValue(ctx context.Context, want string) error {
	return a.x.poll(ctx, "ToHaveValue", a.loc.String(), fmt.Sprintf("%q", want), func(ctx context.Context) (string, bool, error) {
		v, err := a.loc.Value(ctx)
		return fmt.Sprintf("%q", v), v == want, err
	})
}

func (a *LocatorAssertions) ToBeChecked(ctx context.Context) error {
	return a.checked(ctx, "ToBeChecked", true)
}

func (a *LocatorAssertions) ToBeUnchecked(ctx context.Context) error {
	return a.checked(ctx, "ToBeUnchecked", false)
}

func (a *LocatorAssertions) checked(ctx context.Context, name string, want bool) error {
	return a.x.poll(ctx, name, a.loc.String(), fmt.Sprintf("checked=%v", want), func(ctx context.Context) (string, bool, error) {
		v, err := a.loc.IsChecked(ctx)
		return fmt.Sprintf("checked=%v", v), v == want, err
	})
}

// URLReader is the part of session.Page the page assertions need.
type URLReader interface {
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
}

// PageToHaveURL matches the current URL against a regular expression.
func (x *Expecter) PageToHaveURL(ctx context.Context, p URLReader, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("ToHaveURL: %w", err)
	}
	return x.poll(ctx, "ToHaveURL", "page", "/"+pattern+"/", func(ctx context.Context) (string, bool, error) {
		u, err := p.URL(ctx)
		return u, re.MatchString(u), err
	})
}

// PageToHaveTitle compares the document title; use locate.Exact for a
// literal title and locate.Pattern for a regular expression.
func (x *Expecter) PageToHaveTitle(ctx context.Context, p URLReader, want locate.TextMatch) error {
	return x.poll(ctx, "ToHaveTitle", "page", want.String(), func(ctx context.Context) (string, bool, error) {
		t, err := p.Title(ctx)
		return fmt.Sprintf("%q", t), want.Matches(t), err
	})
}
