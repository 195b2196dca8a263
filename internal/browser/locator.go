package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pinchtab/pagewright/internal/assets"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// Locator evaluates its chain with the in-page resolver on every call.
type Locator struct {
	page  *Page
	chain locate.Chain
}

var _ session.Locator = (*Locator)(nil)

// elementState mirrors what the resolver's prepare/focus report.
type elementState struct {
	Count    int     `json:"count"`
	Visible  bool    `json:"visible"`
	Enabled  bool    `json:"enabled"`
	Editable bool    `json:"editable"`
	Checked  bool    `json:"checked"`
	Focused  bool    `json:"focused"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type readResult struct {
	Count   int  `json:"count"`
	Value   any  `json:"value"`
	Present bool `json:"present"`
}

func (l *Locator) with(c locate.Chain) session.Locator {
	return &Locator{page: l.page, chain: c}
}

func (l *Locator) GetByRole(role string, name locate.TextMatch) session.Locator {
	return l.with(l.chain.Role(role, name))
}

func (l *Locator) GetByText(m locate.TextMatch) session.Locator { return l.with(l.chain.Text(m)) }

func (l *Locator) GetByPlaceholder(m locate.TextMatch) session.Locator {
	return l.with(l.chain.Placeholder(m))
}

func (l *Locator) GetByLabel(m locate.TextMatch) session.Locator { return l.with(l.chain.Label(m)) }
func (l *Locator) GetByTestID(id string) session.Locator          { return l.with(l.chain.TestID(id)) }
func (l *Locator) Locator(css string) session.Locator             { return l.with(l.chain.CSS(css)) }

func (l *Locator) Filter(hasText locate.TextMatch) session.Locator {
	return l.with(l.chain.HasText(hasText))
}

func (l *Locator) FilterNot(hasNotText locate.TextMatch) session.Locator {
	return l.with(l.chain.HasNotText(hasNotText))
}

func (l *Locator) Nth(index int) session.Locator { return l.with(l.chain.Nth(index)) }
func (l *Locator) First() session.Locator        { return l.with(l.chain.First()) }
func (l *Locator) Last() session.Locator         { return l.with(l.chain.Last()) }

func (l *Locator) Chain() locate.Chain { return l.chain }
func (l *Locator) String() string      { return l.chain.String() }

// call renders window.__pagewright.fn(chain, args...) with JSON-encoded
// arguments, prefixed by the resolver so a fresh document gets it too.
func (l *Locator) call(fn string, args ...any) string {
	parts := []string{l.chain.JSON()}
	for _, a := range args {
		b, _ := json.Marshal(a)
		parts = append(parts, string(b))
	}
	return assets.ResolverJS + ";\nwindow.__pagewright." + fn + "(" + strings.Join(parts, ", ") + ")"
}

func (l *Locator) eval(ctx context.Context, expr string, out any) error {
	return chromedp.Run(ctx, chromedp.Evaluate(expr, out))
}

// waitActionable polls until the chain resolves to exactly one visible,
// enabled element. More than one match fails immediately.
func (l *Locator) waitActionable(ctx context.Context, action, expr string, editable bool) (elementState, error) {
	var st elementState
	if err := l.chain.Validate(); err != nil {
		return st, &session.ElementNotFoundError{Locator: l.String(), Action: action, Err: err}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	reason := "0 matches"
	for {
		st = elementState{}
		err := l.eval(ctx, expr, &st)
		switch {
		case err != nil:
			// Usually a navigation swapping the execution context.
			if ctx.Err() == nil {
				reason = "page not ready"
			}
		case st.Count > 1:
			return st, session.StrictModeError(l.String(), st.Count)
		case st.Count == 0:
			reason = "0 matches"
		case !st.Visible:
			reason = "not visible"
		case !st.Enabled:
			reason = "disabled"
		case editable && !st.Editable:
			reason = "not editable"
		default:
			return st, nil
		}

		select {
		case <-ctx.Done():
			return st, &session.ElementNotFoundError{Locator: l.String(), Action: action, Reason: reason, Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

func (l *Locator) Click(ctx context.Context) error {
	tCtx, cancel := l.page.scope(ctx, l.page.cfg.ActionTimeout)
	defer cancel()
	st, err := l.waitActionable(tCtx, "click", l.call("prepare"), false)
	if err != nil {
		return err
	}
	return l.clickAt(tCtx, st)
}

func (l *Locator) clickAt(ctx context.Context, st elementState) error {
	if err := clickAt(ctx, st.X, st.Y, l.page.cfg.Humanize); err != nil {
		return fmt.Errorf("click %s: %w", l, err)
	}
	l.page.setPointer(st.X, st.Y)
	return nil
}

func (l *Locator) Hover(ctx context.Context) error {
	tCtx, cancel := l.page.scope(ctx, l.page.cfg.ActionTimeout)
	defer cancel()
	st, err := l.waitActionable(tCtx, "hover", l.call("prepare"), false)
	if err != nil {
		return err
	}
	if err := moveTo(tCtx, st.X, st.Y, l.page.cfg.Humanize, l.page.pointer()); err != nil {
		return fmt.Errorf("hover %s: %w", l, err)
	}
	l.page.setPointer(st.X, st.Y)
	return nil
}

// Fill replaces the field's value. The content is selected first so the
// inserted text overwrites it; an empty string clears the field.
func (l *Locator) Fill(ctx context.Context, text string) error {
	tCtx, cancel := l.page.scope(ctx, l.page.cfg.ActionTimeout)
	defer cancel()
	if _, err := l.waitActionable(tCtx, "fill", l.call("focus", true), true); err != nil {
		return err
	}
	if text == "" {
		var res readResult
		if err := l.eval(tCtx, l.call("clear"), &res); err != nil {
			return fmt.Errorf("fill %s: %w", l, err)
		}
		return nil
	}
	if err := insertText(tCtx, text, l.page.cfg.Humanize); err != nil {
		return fmt.Errorf("fill %s: %w", l, err)
	}
	return nil
}

func (l *Locator) Press(ctx context.Context, key string) error {
	k, err := keyEvent(key)
	if err != nil {
		return fmt.Errorf("press %s: %w", l, err)
	}
	tCtx, cancel := l.page.scope(ctx, l.page.cfg.ActionTimeout)
	defer cancel()
	if _, err := l.waitActionable(tCtx, "press", l.call("focus", false), false); err != nil {
		return err
	}
	if err := chromedp.Run(tCtx, chromedp.KeyEvent(k)); err != nil {
		return fmt.Errorf("press %s on %s: %w", key, l, err)
	}
	return nil
}

func (l *Locator) Check(ctx context.Context) error   { return l.setChecked(ctx, "check", true) }
func (l *Locator) Uncheck(ctx context.Context) error { return l.setChecked(ctx, "uncheck", false) }

// setChecked clicks only when the state differs, then waits for the page to
// reflect it.
func (l *Locator) setChecked(ctx context.Context, action string, want bool) error {
	tCtx, cancel := l.page.scope(ctx, l.page.cfg.ActionTimeout)
	defer cancel()
	st, err := l.waitActionable(tCtx, action, l.call("prepare"), false)
	if err != nil {
		return err
	}
	if st.Checked == want {
		return nil
	}
	if err := l.clickAt(tCtx, st); err != nil {
		return err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		var res readResult
		if err := l.eval(tCtx, l.call("read", "checked", ""), &res); err == nil && res.Count == 1 {
			if checked, _ := res.Value.(bool); checked == want {
				return nil
			}
		}
		select {
		case <-tCtx.Done():
			return fmt.Errorf("%s %s: state did not change: %w", action, l, tCtx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locator) Count(ctx context.Context) (int, error) {
	if err := l.chain.Validate(); err != nil {
		return 0, fmt.Errorf("count %s: %w", l, err)
	}
	tCtx, cancel := l.page.scope(ctx, l.page.cfg.ActionTimeout)
	defer cancel()
	var n int
	if err := l.eval(tCtx, l.call("count"), &n); err != nil {
		return 0, fmt.Errorf("count %s: %w", l, err)
	}
	return n, nil
}

func (l *Locator) AllTexts(ctx context.Context) ([]string, error) {
	if err := l.chain.Validate(); err != nil {
		return nil, fmt.Errorf("texts %s: %w", l, err)
	}
	tCtx, cancel := l.page.scope(ctx, l.page.cfg.ActionTimeout)
	defer cancel()
	var texts []string
	if err := l.eval(tCtx, l.call("texts"), &texts); err != nil {
		return nil, fmt.Errorf("texts %s: %w", l, err)
	}
	for i, s := range texts {
		texts[i] = locate.Normalize(s)
	}
	return texts, nil
}

// read runs one strict, non-waiting read.
func (l *Locator) read(ctx context.Context, action, what, arg string) (readResult, error) {
	var res readResult
	if err := l.chain.Validate(); err != nil {
		return res, &session.ElementNotFoundError{Locator: l.String(), Action: action, Err: err}
	}
	tCtx, cancel := l.page.scope(ctx, l.page.cfg.ActionTimeout)
	defer cancel()
	if err := l.eval(tCtx, l.call("read", what, arg), &res); err != nil {
		return res, fmt.Errorf("%s %s: %w", action, l, err)
	}
	switch {
	case res.Count == 0:
		return res, &session.ElementNotFoundError{Locator: l.String(), Action: action, Reason: "0 matches"}
	case res.Count > 1:
		return res, session.StrictModeError(l.String(), res.Count)
	}
	return res, nil
}

func (l *Locator) Text(ctx context.Context) (string, error) {
	res, err := l.read(ctx, "text", "text", "")
	if err != nil {
		return "", err
	}
	s, _ := res.Value.(string)
	return locate.Normalize(s), nil
}

func (l *Locator) Value(ctx context.Context) (string, error) {
	res, err := l.read(ctx, "value", "value", "")
	if err != nil {
		return "", err
	}
	s, _ := res.Value.(string)
	return s, nil
}

func (l *Locator) Attribute(ctx context.Context, name string) (string, bool, error) {
	res, err := l.read(ctx, "attribute", "attr", name)
	if err != nil {
		return "", false, err
	}
	s, _ := res.Value.(string)
	return s, res.Present, nil
}

// IsVisible reports false, without error, when nothing matches.
func (l *Locator) IsVisible(ctx context.Context) (bool, error) {
	res, err := l.read(ctx, "is visible", "visible", "")
	if err != nil {
		var nf *session.ElementNotFoundError
		if errors.As(err, &nf) && nf.Err == nil {
			return false, nil
		}
		return false, err
	}
	v, _ := res.Value.(bool)
	return v, nil
}

func (l *Locator) IsChecked(ctx context.Context) (bool, error) {
	res, err := l.read(ctx, "is checked", "checked", "")
	if err != nil {
		return false, err
	}
	v, _ := res.Value.(bool)
	return v, nil
}
