package expect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
	"github.com/pinchtab/pagewright/internal/session/sessiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const todoURL = "https://demo.test/todomvc"

func todoPage(t *testing.T, items ...string) *sessiontest.Page {
	t.Helper()
	p := sessiontest.NewDriver(sessiontest.TodoSite(todoURL)).NewPage()
	require.NoError(t, p.Goto(context.Background(), todoURL))
	p.Mutate(func(a sessiontest.App) {
		for _, it := range items {
			a.(*sessiontest.TodoApp).Add(it)
		}
	})
	return p
}

func fast() *Expecter {
	return &Expecter{Timeout: 300 * time.Millisecond, Interval: 10 * time.Millisecond}
}

func TestToHaveCountWaitsForLateRender(t *testing.T) {
	p := todoPage(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(50 * time.Millisecond)
		p.Mutate(func(a sessiontest.App) { a.(*sessiontest.TodoApp).Add("late item") })
	}()

	x := &Expecter{Timeout: 2 * time.Second, Interval: 10 * time.Millisecond}
	err := x.Locator(p.GetByTestID("todo-item")).ToHaveCount(context.Background(), 1)
	<-done
	require.NoError(t, err)
}

func TestToHaveCountFailure(t *testing.T) {
	p := todoPage(t, "a", "b")
	err := fast().Locator(p.GetByTestID("todo-item")).ToHaveCount(context.Background(), 3)

	var af *AssertionFailure
	require.ErrorAs(t, err, &af)
	assert.Equal(t, "ToHaveCount", af.Assertion)
	assert.Equal(t, "testid=todo-item", af.Target)
	assert.Equal(t, "3", af.Expected)
	assert.Equal(t, "2", af.Actual)
	assert.True(t, IsAssertionFailure(err))
	assert.Contains(t, err.Error(), "expected 3, got 2")
}

func TestToHaveText(t *testing.T) {
	p := todoPage(t, "buy milk", "walk dog")
	ctx := context.Background()
	titles := fast().Locator(p.GetByTestID("todo-title"))

	require.NoError(t, titles.ToHaveText(ctx, locate.Exact("buy milk"), locate.Exact("walk dog")))
	require.NoError(t, titles.ToHaveText(ctx, locate.Pattern("^buy"), locate.Pattern("dog$")))
	require.NoError(t, fast().Locator(p.GetByTestID("todo-title").First()).ToHaveText(ctx, locate.Exact("buy milk")))

	err := titles.ToHaveText(ctx, locate.Exact("walk dog"), locate.Exact("buy milk"))
	var af *AssertionFailure
	require.ErrorAs(t, err, &af)
	assert.Equal(t, `["buy milk" "walk dog"]`, af.Actual)

	assert.Error(t, titles.ToHaveText(ctx, locate.Exact("buy milk")), "count mismatch must fail")
}

func TestToContainTextIsCaseSensitive(t *testing.T) {
	p := todoPage(t, "Learn Playwright")
	ctx := context.Background()
	title := fast().Locator(p.GetByTestID("todo-title"))
	require.NoError(t, title.ToContainText(ctx, "Playwright"))
	assert.Error(t, title.ToContainText(ctx, "playwright"))
}

func TestToHaveClassAndChecked(t *testing.T) {
	p := todoPage(t, "X")
	ctx := context.Background()
	item := p.GetByTestID("todo-item").Nth(0)
	toggle := item.GetByRole("checkbox", locate.Any())

	require.NoError(t, fast().Locator(toggle).ToBeUnchecked(ctx))
	assert.Error(t, fast().Locator(item).ToHaveClass(ctx, "completed"))

	require.NoError(t, toggle.Check(ctx))
	require.NoError(t, fast().Locator(toggle).ToBeChecked(ctx))
	require.NoError(t, fast().Locator(item).ToHaveClass(ctx, `\bcompleted\b`))

	assert.Error(t, fast().Locator(item).ToHaveClass(ctx, "("), "bad regexp")
}

func TestVisibility(t *testing.T) {
	p := todoPage(t, "X")
	ctx := context.Background()
	del := p.GetByRole("button", locate.Exact("Delete"))

	require.NoError(t, fast().Locator(del).ToBeHidden(ctx))
	require.NoError(t, p.GetByTestID("todo-item").Hover(ctx))
	require.NoError(t, fast().Locator(del).ToBeVisible(ctx))

	missing := p.GetByTestID("nope")
	require.NoError(t, fast().Locator(missing).ToBeHidden(ctx))
	assert.Error(t, fast().Locator(missing).ToBeVisible(ctx))
}

func TestToHaveValue(t *testing.T) {
	p := todoPage(t)
	ctx := context.Background()
	input := p.GetByPlaceholder(locate.Exact("What needs to be done?"))
	require.NoError(t, input.Fill(ctx, "draft"))
	require.NoError(t, fast().Locator(input).ToHaveValue(ctx, "draft"))
	assert.Error(t, fast().Locator(input).ToHaveValue(ctx, "other"))
}

func TestPageAssertions(t *testing.T) {
	p := todoPage(t)
	ctx := context.Background()
	x := fast()

	require.NoError(t, x.PageToHaveURL(ctx, p, `/todomvc$`))
	require.NoError(t, x.PageToHaveTitle(ctx, p, locate.Exact("React • TodoMVC")))
	require.NoError(t, x.PageToHaveTitle(ctx, p, locate.Pattern("TodoMVC")))

	err := x.PageToHaveURL(ctx, p, `.*loginpagePractise`)
	var af *AssertionFailure
	require.ErrorAs(t, err, &af)
	assert.Equal(t, todoURL, af.Actual)
}

func TestReadErrorsAreReported(t *testing.T) {
	p := todoPage(t, "a", "b")
	err := fast().Locator(p.GetByTestID("todo-title")).ToContainText(context.Background(), "a")

	var af *AssertionFailure
	require.ErrorAs(t, err, &af)
	assert.True(t, errors.Is(err, session.ErrStrictMode))
}

func TestCanceledContextStopsPolling(t *testing.T) {
	p := todoPage(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	x := &Expecter{Timeout: 10 * time.Second, Interval: 10 * time.Millisecond}
	err := x.Locator(p.GetByTestID("todo-item")).ToHaveCount(ctx, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsAssertionFailure(err), "an interrupted expectation is not a failed one")
	assert.Less(t, time.Since(start), 5*time.Second)
}
