package sessiontest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// Locator implements session.Locator against the page's current document.
type Locator struct {
	page  *Page
	chain locate.Chain
}

var _ session.Locator = (*Locator)(nil)

func (l *Locator) with(c locate.Chain) session.Locator {
	return &Locator{page: l.page, chain: c}
}

func (l *Locator) GetByRole(role string, name locate.TextMatch) session.Locator {
	return l.with(l.chain.Role(role, name))
}

func (l *Locator) GetByText(m locate.TextMatch) session.Locator {
	return l.with(l.chain.Text(m))
}

func (l *Locator) GetByPlaceholder(m locate.TextMatch) session.Locator {
	return l.with(l.chain.Placeholder(m))
}

func (l *Locator) GetByLabel(m locate.TextMatch) session.Locator {
	return l.with(l.chain.Label(m))
}

func (l *Locator) GetByTestID(id string) session.Locator { return l.with(l.chain.TestID(id)) }
func (l *Locator) Locator(css string) session.Locator    { return l.with(l.chain.CSS(css)) }

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

// resolve returns the current matches. Must be called with page.mu held.
func (l *Locator) resolve(ctx context.Context) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.page.closed {
		return nil, errClosed
	}
	if err := l.chain.Validate(); err != nil {
		return nil, fmt.Errorf("locator %s: %w", l, err)
	}
	if l.page.doc == nil {
		return nil, nil
	}
	return l.page.doc.resolve(l.chain), nil
}

// single enforces strict mode. Actions also require visibility.
func (l *Locator) single(ctx context.Context, action string, actionable bool) (*Node, error) {
	nodes, err := l.resolve(ctx)
	if err != nil {
		return nil, &session.ElementNotFoundError{Locator: l.String(), Action: action, Err: err}
	}
	switch {
	case len(nodes) == 0:
		return nil, &session.ElementNotFoundError{Locator: l.String(), Action: action, Reason: "0 matches"}
	case len(nodes) > 1:
		return nil, session.StrictModeError(l.String(), len(nodes))
	}
	n := nodes[0]
	if actionable && !n.Visible() {
		return nil, &session.ElementNotFoundError{Locator: l.String(), Action: action, Reason: "not visible"}
	}
	return n, nil
}

func (l *Locator) Fill(ctx context.Context, text string) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, "fill", true)
	if err != nil {
		return err
	}
	if !n.isFormField() {
		return fmt.Errorf("fill %s: element is not an <input>, <textarea> or <select>", l)
	}
	l.page.record("fill %s %q", l, text)
	n.value = text
	l.page.doc.focused = n
	return l.page.dispatch(Event{Type: EventInput, Target: n})
}

func (l *Locator) Press(ctx context.Context, key string) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, "press", true)
	if err != nil {
		return err
	}
	l.page.record("press %s %s", l, key)
	l.page.doc.focused = n
	return l.page.dispatch(Event{Type: EventKey, Target: n, Key: key})
}

func (l *Locator) Click(ctx context.Context) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, "click", true)
	if err != nil {
		return err
	}
	l.page.record("click %s", l)
	return l.page.click(n)
}

// click moves the pointer to n and runs the default actions of a click on a
// toggle or a label.
func (p *Page) click(n *Node) error {
	p.doc.hovered = n
	p.doc.focused = n
	var toggle *Node
	switch {
	case n.isToggle():
		toggle = n
	default:
		for cur := n; cur != nil; cur = cur.parent {
			if cur.tag == "label" {
				if t := p.doc.labelTarget(cur); t != nil && t.isToggle() {
					toggle = t
				}
				break
			}
		}
	}
	doc := p.doc
	if err := p.dispatch(Event{Type: EventClick, Target: n}); err != nil {
		return err
	}
	if toggle == nil || p.doc != doc {
		return nil
	}
	if toggle.attrs["type"] == "radio" {
		if toggle.checked {
			return nil
		}
		toggle.checked = true
	} else {
		toggle.checked = !toggle.checked
	}
	return p.dispatch(Event{Type: EventChange, Target: toggle})
}

func (l *Locator) Check(ctx context.Context) error   { return l.setChecked(ctx, "check", true) }
func (l *Locator) Uncheck(ctx context.Context) error { return l.setChecked(ctx, "uncheck", false) }

func (l *Locator) setChecked(ctx context.Context, action string, want bool) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, action, true)
	if err != nil {
		return err
	}
	if !n.isToggle() && n.attrs["role"] != "checkbox" {
		return fmt.Errorf("%s %s: not a checkbox or radio", action, l)
	}
	if n.checked == want {
		return nil
	}
	l.page.record("%s %s", action, l)
	if err := l.page.click(n); err != nil {
		return err
	}
	// Re-resolve: the click may have re-rendered the document.
	after, err := l.resolve(ctx)
	if err != nil {
		return err
	}
	if len(after) == 1 && after[0].checked != want {
		return fmt.Errorf("%s %s: clicking did not change the state", action, l)
	}
	return nil
}

func (l *Locator) Hover(ctx context.Context) error {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, "hover", true)
	if err != nil {
		return err
	}
	l.page.record("hover %s", l)
	l.page.doc.hovered = n
	return nil
}

func (l *Locator) Count(ctx context.Context) (int, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	nodes, err := l.resolve(ctx)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (l *Locator) AllTexts(ctx context.Context) ([]string, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	nodes, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = locate.Normalize(n.Text())
	}
	return out, nil
}

func (l *Locator) Text(ctx context.Context) (string, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, "text", false)
	if err != nil {
		return "", err
	}
	return locate.Normalize(n.Text()), nil
}

func (l *Locator) Value(ctx context.Context) (string, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, "value", false)
	if err != nil {
		return "", err
	}
	if !n.isFormField() && !n.isToggle() {
		return "", fmt.Errorf("value %s: not a form control", l)
	}
	return n.value, nil
}

func (l *Locator) Attribute(ctx context.Context, name string) (string, bool, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, "attribute", false)
	if err != nil {
		return "", false, err
	}
	v, ok := n.attrs[strings.ToLower(name)]
	return v, ok, nil
}

// IsVisible is false, not an error, when nothing matches.
func (l *Locator) IsVisible(ctx context.Context) (bool, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, "visible", false)
	if err != nil {
		var nf *session.ElementNotFoundError
		if errors.As(err, &nf) && nf.Err == nil {
			return false, nil
		}
		return false, err
	}
	return n.Visible(), nil
}

func (l *Locator) IsChecked(ctx context.Context) (bool, error) {
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	n, err := l.single(ctx, "checked", false)
	if err != nil {
		return false, err
	}
	if !n.isToggle() {
		return n.attrs["aria-checked"] == "true", nil
	}
	return n.checked, nil
}
