package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
	"github.com/playwright-community/playwright-go"
)

// Locator pairs the playwright locator with the equivalent chain, which
// names it in errors and logs.
type Locator struct {
	page  *Page
	loc   playwright.Locator
	chain locate.Chain
}

var _ session.Locator = (*Locator)(nil)

func (l *Locator) wrap(pl playwright.Locator, c locate.Chain) session.Locator {
	return &Locator{page: l.page, loc: pl, chain: c}
}

func (l *Locator) GetByRole(role string, name locate.TextMatch) session.Locator {
	opts := playwright.LocatorGetByRoleOptions{}
	if !name.IsAny() {
		opts.Name, opts.Exact = textArg(name)
	}
	return l.wrap(l.loc.GetByRole(playwright.AriaRole(role), opts), l.chain.Role(role, name))
}

func (l *Locator) GetByText(m locate.TextMatch) session.Locator {
	text, exact := textArg(m)
	return l.wrap(l.loc.GetByText(text, playwright.LocatorGetByTextOptions{Exact: exact}), l.chain.Text(m))
}

func (l *Locator) GetByPlaceholder(m locate.TextMatch) session.Locator {
	text, exact := textArg(m)
	return l.wrap(l.loc.GetByPlaceholder(text, playwright.LocatorGetByPlaceholderOptions{Exact: exact}), l.chain.Placeholder(m))
}

func (l *Locator) GetByLabel(m locate.TextMatch) session.Locator {
	text, exact := textArg(m)
	return l.wrap(l.loc.GetByLabel(text, playwright.LocatorGetByLabelOptions{Exact: exact}), l.chain.Label(m))
}

func (l *Locator) GetByTestID(id string) session.Locator {
	return l.wrap(l.loc.GetByTestId(id), l.chain.TestID(id))
}

func (l *Locator) Locator(css string) session.Locator {
	return l.wrap(l.loc.Locator(css), l.chain.CSS(css))
}

func (l *Locator) Filter(hasText locate.TextMatch) session.Locator {
	return l.wrap(l.loc.Filter(playwright.LocatorFilterOptions{HasText: filterArg(hasText)}), l.chain.HasText(hasText))
}

func (l *Locator) FilterNot(hasNotText locate.TextMatch) session.Locator {
	return l.wrap(l.loc.Filter(playwright.LocatorFilterOptions{HasNotText: filterArg(hasNotText)}), l.chain.HasNotText(hasNotText))
}

func (l *Locator) Nth(index int) session.Locator {
	if index == -1 {
		return l.Last()
	}
	return l.wrap(l.loc.Nth(index), l.chain.Nth(index))
}

func (l *Locator) First() session.Locator { return l.wrap(l.loc.First(), l.chain.First()) }
func (l *Locator) Last() session.Locator  { return l.wrap(l.loc.Last(), l.chain.Last()) }

func (l *Locator) Chain() locate.Chain { return l.chain }
func (l *Locator) String() string      { return l.chain.String() }

// classify maps a playwright failure onto the session error types.
func (l *Locator) classify(action string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "strict mode violation") {
		n, cerr := l.loc.Count()
		if cerr != nil {
			n = 2
		}
		return session.StrictModeError(l.String(), n)
	}
	if errors.Is(err, playwright.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		reason := "not actionable"
		if n, cerr := l.loc.Count(); cerr == nil && n == 0 {
			reason = "0 matches"
		}
		return &session.ElementNotFoundError{Locator: l.String(), Action: action, Reason: reason, Err: err}
	}
	return fmt.Errorf("%s %s: %w", action, l, err)
}

func (l *Locator) timeout(ctx context.Context) (*float64, error) {
	t, err := budget(ctx, l.page.cfg.ActionTimeout)
	if err != nil {
		return nil, err
	}
	return playwright.Float(t), nil
}

// valid reports a chain no engine could evaluate, such as a pattern that
// does not compile, the way the chromedp engine does.
func (l *Locator) valid(action string) error {
	if err := l.chain.Validate(); err != nil {
		return &session.ElementNotFoundError{Locator: l.String(), Action: action, Err: err}
	}
	return nil
}

// act runs one playwright action under the call's timeout budget.
func (l *Locator) act(ctx context.Context, action string, do func(timeout *float64) error) error {
	if err := l.valid(action); err != nil {
		return err
	}
	t, err := l.timeout(ctx)
	if err != nil {
		return l.classify(action, err)
	}
	return l.classify(action, do(t))
}

func (l *Locator) Fill(ctx context.Context, text string) error {
	return l.act(ctx, "fill", func(t *float64) error {
		return l.loc.Fill(text, playwright.LocatorFillOptions{Timeout: t})
	})
}

func (l *Locator) Press(ctx context.Context, key string) error {
	return l.act(ctx, "press", func(t *float64) error {
		return l.loc.Press(key, playwright.LocatorPressOptions{Timeout: t})
	})
}

func (l *Locator) Click(ctx context.Context) error {
	return l.act(ctx, "click", func(t *float64) error {
		return l.loc.Click(playwright.LocatorClickOptions{Timeout: t})
	})
}

func (l *Locator) Check(ctx context.Context) error {
	return l.act(ctx, "check", func(t *float64) error {
		return l.loc.Check(playwright.LocatorCheckOptions{Timeout: t})
	})
}

func (l *Locator) Uncheck(ctx context.Context) error {
	return l.act(ctx, "uncheck", func(t *float64) error {
		return l.loc.Uncheck(playwright.LocatorUncheckOptions{Timeout: t})
	})
}

func (l *Locator) Hover(ctx context.Context) error {
	return l.act(ctx, "hover", func(t *float64) error {
		return l.loc.Hover(playwright.LocatorHoverOptions{Timeout: t})
	})
}

func (l *Locator) Count(ctx context.Context) (int, error) {
	if err := l.chain.Validate(); err != nil {
		return 0, fmt.Errorf("count %s: %w", l, err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := l.loc.Count()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", l, err)
	}
	return n, nil
}

func (l *Locator) AllTexts(ctx context.Context) ([]string, error) {
	if err := l.chain.Validate(); err != nil {
		return nil, fmt.Errorf("texts %s: %w", l, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	texts, err := l.loc.AllTextContents()
	if err != nil {
		return nil, fmt.Errorf("texts %s: %w", l, err)
	}
	for i, s := range texts {
		texts[i] = locate.Normalize(s)
	}
	return texts, nil
}

// strict fails fast like the chromedp engine's readers instead of letting
// playwright wait for the element.
func (l *Locator) strict(ctx context.Context, action string) error {
	if err := l.valid(action); err != nil {
		return err
	}
	n, err := l.Count(ctx)
	if err != nil {
		return err
	}
	switch {
	case n == 0:
		return &session.ElementNotFoundError{Locator: l.String(), Action: action, Reason: "0 matches"}
	case n > 1:
		return session.StrictModeError(l.String(), n)
	}
	return nil
}

func (l *Locator) Text(ctx context.Context) (string, error) {
	if err := l.strict(ctx, "text"); err != nil {
		return "", err
	}
	t, _ := l.timeout(ctx)
	s, err := l.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: t})
	if err != nil {
		return "", l.classify("text", err)
	}
	return locate.Normalize(s), nil
}

func (l *Locator) Value(ctx context.Context) (string, error) {
	if err := l.strict(ctx, "value"); err != nil {
		return "", err
	}
	t, _ := l.timeout(ctx)
	v, err := l.loc.InputValue(playwright.LocatorInputValueOptions{Timeout: t})
	if err != nil {
		return "", l.classify("value", err)
	}
	return v, nil
}

func (l *Locator) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := l.strict(ctx, "attribute"); err != nil {
		return "", false, err
	}
	t, _ := l.timeout(ctx)
	res, err := l.loc.Evaluate(`(el, name) => el.hasAttribute(name) ? el.getAttribute(name) : null`,
		name, playwright.LocatorEvaluateOptions{Timeout: t})
	if err != nil {
		return "", false, l.classify("attribute", err)
	}
	s, ok := res.(string)
	return s, ok, nil
}

func (l *Locator) IsVisible(ctx context.Context) (bool, error) {
	if err := l.valid("is visible"); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	n, err := l.loc.Count()
	if err != nil {
		return false, fmt.Errorf("is visible %s: %w", l, err)
	}
	switch {
	case n == 0:
		return false, nil
	case n > 1:
		return false, session.StrictModeError(l.String(), n)
	}
	v, err := l.loc.IsVisible()
	if err != nil {
		return false, l.classify("is visible", err)
	}
	return v, nil
}

func (l *Locator) IsChecked(ctx context.Context) (bool, error) {
	if err := l.strict(ctx, "is checked"); err != nil {
		return false, err
	}
	t, _ := l.timeout(ctx)
	v, err := l.loc.IsChecked(playwright.LocatorIsCheckedOptions{Timeout: t})
	if err != nil {
		return false, l.classify("is checked", err)
	}
	return v, nil
}
