package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// TodoPage drives a TodoMVC app.
type TodoPage struct {
	page session.Page
	url  string
}

func NewTodoPage(p session.Page, entryURL string) *TodoPage {
	return &TodoPage{page: p, url: entryURL}
}

func (t *TodoPage) EntryURL() string { return t.url }

func (t *TodoPage) Navigate(ctx context.Context) error {
	return t.page.Goto(ctx, t.url)
}

func (t *TodoPage) input() session.Locator {
	return t.page.GetByPlaceholder(locate.Exact("What needs to be done?"))
}

// Items matches every todo item, in list order.
func (t *TodoPage) Items() session.Locator {
	return t.page.GetByTestID("todo-item")
}

func (t *TodoPage) AddItem(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" || strings.ContainsAny(text, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidItemText, text)
	}
	input := t.input()
	if err := input.Fill(ctx, text); err != nil {
		return err
	}
	return input.Press(ctx, "Enter")
}

func (t *TodoPage) ItemCount(ctx context.Context) (int, error) {
	return t.Items().Count(ctx)
}

// item bounds-checks index against the live count and returns a fresh
// locator for it.
func (t *TodoPage) item(ctx context.Context, index int) (session.Locator, error) {
	n, err := t.ItemCount(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= n {
		return nil, &session.IndexOutOfRangeError{Index: index, Count: n, What: "todo item"}
	}
	return t.Items().Nth(index), nil
}

// ToggleItem flips the completion state of the item at index.
func (t *TodoPage) ToggleItem(ctx context.Context, index int) error {
	it, err := t.item(ctx, index)
	if err != nil {
		return err
	}
	box := it.GetByRole("checkbox", locate.Any())
	done, err := box.IsChecked(ctx)
	if err != nil {
		return err
	}
	if done {
		return box.Uncheck(ctx)
	}
	return box.Check(ctx)
}

// DeleteItem hovers the item to reveal its delete control, then clicks it.
func (t *TodoPage) DeleteItem(ctx context.Context, index int) error {
	it, err := t.item(ctx, index)
	if err != nil {
		return err
	}
	if err := it.Hover(ctx); err != nil {
		return err
	}
	return it.GetByLabel(locate.Exact("Delete")).Click(ctx)
}

// ItemTexts returns the item titles in list order.
func (t *TodoPage) ItemTexts(ctx context.Context) ([]string, error) {
	return t.page.GetByTestID("todo-title").AllTexts(ctx)
}

// IsCompleted reports whether the item at index carries the completed class.
func (t *TodoPage) IsCompleted(ctx context.Context, index int) (bool, error) {
	it, err := t.item(ctx, index)
	if err != nil {
		return false, err
	}
	class, _, err := it.Attribute(ctx, "class")
	if err != nil {
		return false, err
	}
	return hasClass(class, "completed"), nil
}

func hasClass(classAttr, name string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == name {
			return true
		}
	}
	return false
}
