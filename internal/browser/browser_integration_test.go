//go:build integration

package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pinchtab/pagewright/internal/assets"
	"github.com/pinchtab/pagewright/internal/config"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

func launch(t *testing.T) *Browser {
	t.Helper()
	cfg := config.Load()
	cfg.Headless = true
	cfg.ActionTimeout = 5 * time.Second
	cfg.NavigateTimeout = 10 * time.Second
	b, err := Launch(cfg)
	if err != nil {
		t.Skipf("chrome not available: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func todoServer(t *testing.T) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(assets.TodoFixtureHTML))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestTodoFixtureEndToEnd(t *testing.T) {
	b := launch(t)
	url := todoServer(t)
	ctx := context.Background()

	page, closePage, err := b.NewSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer closePage()

	if err := page.Goto(ctx, url); err != nil {
		t.Fatal(err)
	}
	input := page.GetByPlaceholder(locate.Exact("What needs to be done?"))
	for _, item := range []string{"buy milk", "walk dog"} {
		if err := input.Fill(ctx, item); err != nil {
			t.Fatal(err)
		}
		if err := input.Press(ctx, "Enter"); err != nil {
			t.Fatal(err)
		}
	}

	items := page.GetByTestID("todo-item")
	if n, _ := items.Count(ctx); n != 2 {
		t.Fatalf("expected 2 items, got %d", n)
	}
	texts, err := page.GetByTestID("todo-title").AllTexts(ctx)
	if err != nil || len(texts) != 2 || texts[1] != "walk dog" {
		t.Fatalf("texts = %v, %v", texts, err)
	}

	toggle := items.Nth(0).GetByRole("checkbox", locate.Any())
	if err := toggle.Check(ctx); err != nil {
		t.Fatal(err)
	}
	class, _, err := items.Nth(0).Attribute(ctx, "class")
	if err != nil || class != "completed" {
		t.Errorf("class = %q, %v", class, err)
	}

	err = page.GetByRole("checkbox", locate.Any()).Click(ctx)
	if !errors.Is(err, session.ErrStrictMode) {
		t.Errorf("expected strict mode violation, got %v", err)
	}

	if err := page.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := items.Count(ctx); n != 2 {
		t.Errorf("expected items to survive reload, got %d", n)
	}
	checked, err := toggle.IsChecked(ctx)
	if err != nil || !checked {
		t.Errorf("first item should stay completed: %v %v", checked, err)
	}
}

func TestSessionsDoNotShareStorage(t *testing.T) {
	b := launch(t)
	url := todoServer(t)
	ctx := context.Background()

	first, closeFirst, err := b.NewSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFirst()
	if err := first.Goto(ctx, url); err != nil {
		t.Fatal(err)
	}
	input := first.GetByPlaceholder(locate.Exact("What needs to be done?"))
	if err := input.Fill(ctx, "only here"); err != nil {
		t.Fatal(err)
	}
	if err := input.Press(ctx, "Enter"); err != nil {
		t.Fatal(err)
	}

	second, closeSecond, err := b.NewSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer closeSecond()
	if err := second.Goto(ctx, url); err != nil {
		t.Fatal(err)
	}
	if n, _ := second.GetByTestID("todo-item").Count(ctx); n != 0 {
		t.Errorf("second session sees %d items from the first", n)
	}
}

func TestGotoUnreachable(t *testing.T) {
	b := launch(t)
	ctx := context.Background()
	page, closePage, err := b.NewSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer closePage()

	err = page.Goto(ctx, "http://127.0.0.1:1/")
	var navErr *session.NavigationError
	if !errors.As(err, &navErr) {
		t.Fatalf("expected NavigationError, got %v", err)
	}
}
