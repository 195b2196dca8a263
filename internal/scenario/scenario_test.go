package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pinchtab/pagewright/internal/config"
	"github.com/pinchtab/pagewright/internal/idutil"
	"github.com/pinchtab/pagewright/internal/pages"
	"github.com/pinchtab/pagewright/internal/restapi"
	"github.com/pinchtab/pagewright/internal/session"
	"github.com/pinchtab/pagewright/internal/session/sessiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	todoURL  = "https://demo.test/todomvc"
	shopBase = "https://shop.test"
	docsURL  = "https://docs.test/"
)

// postsSandbox answers like the public posts API.
func postsSandbox(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"userId":1,"id":1,"title":"sunt aut facere","body":"quia et suscipit"}`)
	})
	mux.HandleFunc("POST /posts", func(w http.ResponseWriter, r *http.Request) {
		var p restapi.Post
		json.NewDecoder(r.Body).Decode(&p)
		p.ID = 101
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("PUT /posts/1", func(w http.ResponseWriter, r *http.Request) {
		var p restapi.Post
		json.NewDecoder(r.Body).Decode(&p)
		json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("DELETE /posts/1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{}")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) *config.RuntimeConfig {
	return &config.RuntimeConfig{
		Parallel:        4,
		ActionTimeout:   time.Second,
		NavigateTimeout: time.Second,
		ExpectTimeout:   300 * time.Millisecond,
		ArtifactDir:     t.TempDir(),
		Sites: config.Sites{
			Todo: todoURL,
			Shop: sessiontest.ShopLoginURL(shopBase),
			Docs: docsURL,
		},
		ShopUser:     sessiontest.ShopUser,
		ShopPassword: sessiontest.ShopPassword,
	}
}

func testRunner(t *testing.T) (*Runner, *sessiontest.Driver) {
	t.Helper()
	srv := postsSandbox(t)
	cfg := testConfig(t)
	cfg.Sites.API = srv.URL

	sites := append(sessiontest.ShopSite(shopBase), sessiontest.TodoSite(todoURL), sessiontest.DocsSite(docsURL))
	d := sessiontest.NewDriver(sites...)
	t.Cleanup(func() { d.Close() })

	r := NewRunner(d, cfg)
	r.API.HTTP = srv.Client()
	r.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	r.IDs = idutil.NewManagerFor("run_test0001")
	return r, d
}

func TestBuiltinNames(t *testing.T) {
	assert.Equal(t, []string{
		"api/create", "api/delete", "api/get", "api/update",
		"docs/get-started", "docs/search", "docs/title",
		"shop/cart-multiple", "shop/checkout-iphone", "shop/invalid-login",
		"todo/add", "todo/complete", "todo/delete", "todo/persist-reload",
	}, Builtin().Names())
}

func TestMatch(t *testing.T) {
	r := Builtin()

	all, err := r.Match()
	require.NoError(t, err)
	assert.Len(t, all, 14)

	todo, err := r.Match("todo/*")
	require.NoError(t, err)
	require.Len(t, todo, 4)
	assert.Equal(t, "todo/add", todo[0].Name)
	assert.True(t, todo[0].Browser)

	some, err := r.Match("api/get", "api/*", "docs/title")
	require.NoError(t, err)
	assert.Len(t, some, 5)

	_, err = r.Match("nope/*")
	assert.ErrorIs(t, err, ErrUnknownScenario)
	_, err = r.Match("[")
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	run := func(context.Context, *Env) error { return nil }
	require.NoError(t, r.Register("x/one", Scenario{Run: run}))
	assert.Error(t, r.Register("x/one", Scenario{Run: run}))
	assert.Error(t, r.Register("x/two", Scenario{}))
	assert.Error(t, r.Register("", Scenario{Run: run}))

	_, err := r.Get("x/missing")
	assert.ErrorIs(t, err, ErrUnknownScenario)
	assert.Panics(t, func() { r.MustRegister("x/one", Scenario{Run: run}) })
}

func TestBuiltinScenariosPassOnFakeSites(t *testing.T) {
	r, d := testRunner(t)
	cases, err := Builtin().Match()
	require.NoError(t, err)

	rep := r.Run(context.Background(), cases)
	for _, res := range rep.Results {
		assert.Equal(t, StatusPassed, res.Status, "%s: %s", res.Name, res.Error)
		assert.True(t, idutil.IsValidID(res.CaseID, "case"), res.CaseID)
	}
	assert.True(t, rep.OK())
	assert.Equal(t, 0, d.Open(), "every session closed")
}

func TestFailureCapturesArtifacts(t *testing.T) {
	r, _ := testRunner(t)
	reg := NewRegistry()
	reg.MustRegister("todo/wrong-count", Scenario{Browser: true, Run: func(ctx context.Context, env *Env) error {
		todo := pages.NewTodoPage(env.Page, env.Config.Sites.Todo)
		if err := todo.Navigate(ctx); err != nil {
			return err
		}
		return env.Expect.Locator(todo.Items()).ToHaveCount(ctx, 1)
	}})
	cases, err := reg.Match()
	require.NoError(t, err)

	rep := r.Run(context.Background(), cases)
	res := rep.Results[0]
	require.Equal(t, StatusFailed, res.Status)
	assert.Contains(t, res.Error, "ToHaveCount")

	dir := filepath.Join(r.Config.ArtifactDir, "run_test0001", res.CaseID)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "failure.png"),
		filepath.Join(dir, "snapshot.txt"),
		filepath.Join(dir, "url.txt"),
	}, res.Artifacts)

	snap, err := os.ReadFile(filepath.Join(dir, "snapshot.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(snap), `textbox "What needs to be done?"`)
	png, err := os.ReadFile(filepath.Join(dir, "failure.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

// tracingDriver hands out fake pages that also record a trace.
type tracingDriver struct{ *sessiontest.Driver }

func (d tracingDriver) NewSession(ctx context.Context) (session.Page, func(), error) {
	p, closeFn, err := d.Driver.NewSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &tracedPage{Page: p}, closeFn, nil
}

type tracedPage struct{ session.Page }

func (p *tracedPage) SaveTrace(_ context.Context, path string) (bool, error) {
	return true, os.WriteFile(path, []byte("PK\x03\x04"), 0644)
}

func TestFailureSavesTrace(t *testing.T) {
	r, d := testRunner(t)
	r.Driver = tracingDriver{d}
	reg := NewRegistry()
	reg.MustRegister("todo/wrong-count", Scenario{Browser: true, Run: func(ctx context.Context, env *Env) error {
		todo := pages.NewTodoPage(env.Page, env.Config.Sites.Todo)
		if err := todo.Navigate(ctx); err != nil {
			return err
		}
		return env.Expect.Locator(todo.Items()).ToHaveCount(ctx, 2)
	}})
	cases, err := reg.Match()
	require.NoError(t, err)

	res := r.Run(context.Background(), cases).Results[0]
	require.Equal(t, StatusFailed, res.Status)
	dir := filepath.Join(r.Config.ArtifactDir, "run_test0001", res.CaseID)
	assert.Contains(t, res.Artifacts, filepath.Join(dir, "failure.png"))
	assert.Contains(t, res.Artifacts, filepath.Join(dir, "trace.zip"))
	zip, err := os.ReadFile(filepath.Join(dir, "trace.zip"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(zip, []byte("PK")))
	assert.Equal(t, 0, d.Open())
}

func TestNavigationErrorIsBroken(t *testing.T) {
	r, _ := testRunner(t)
	r.Config.Sites.Todo = "https://offline.test/todomvc"
	c, err := Builtin().Get("todo/add")
	require.NoError(t, err)

	rep := r.Run(context.Background(), []Case{c})
	res := rep.Results[0]
	assert.Equal(t, StatusBroken, res.Status)
	var nav *session.NavigationError
	assert.True(t, errors.As(res.Err, &nav))
	assert.False(t, rep.OK())
}

func TestUpdatedPostWithWrongIDFails(t *testing.T) {
	r, _ := testRunner(t)
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /posts/1", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"userId":1,"id":7,"title":"Updated Test Post","body":"This post has been updated"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	r.API = restapi.New(srv.URL, time.Second)
	r.API.HTTP = srv.Client()

	c, err := Builtin().Get("api/update")
	require.NoError(t, err)
	rep := r.Run(context.Background(), []Case{c})
	res := rep.Results[0]
	assert.Equal(t, StatusFailed, res.Status, res.Error)
	assert.Contains(t, res.Error, "response.id")
}

func TestInterruptedExpectationIsBroken(t *testing.T) {
	r, _ := testRunner(t)
	rep := r.Run(context.Background(), []Case{{Name: "todo/interrupted", Scenario: Scenario{Browser: true, Run: func(ctx context.Context, env *Env) error {
		todo := pages.NewTodoPage(env.Page, env.Config.Sites.Todo)
		if err := todo.Navigate(ctx); err != nil {
			return err
		}
		stopped, cancel := context.WithCancel(ctx)
		cancel()
		return env.Expect.Locator(todo.Items()).ToHaveCount(stopped, 3)
	}}}})
	res := rep.Results[0]
	assert.Equal(t, StatusBroken, res.Status, res.Error)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestPanicIsBroken(t *testing.T) {
	r, _ := testRunner(t)
	rep := r.Run(context.Background(), []Case{{Name: "x/panic", Scenario: Scenario{Run: func(context.Context, *Env) error {
		panic("boom")
	}}}})
	assert.Equal(t, StatusBroken, rep.Results[0].Status)
	assert.Contains(t, rep.Results[0].Error, "panic: boom")
}

func TestBrowserCaseWithoutDriver(t *testing.T) {
	r, _ := testRunner(t)
	r.Driver = nil
	c, err := Builtin().Get("docs/title")
	require.NoError(t, err)
	rep := r.Run(context.Background(), []Case{c})
	assert.Equal(t, StatusBroken, rep.Results[0].Status)
}

func TestCanceledRunStartsNothing(t *testing.T) {
	r, d := testRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cases, err := Builtin().Match("todo/*")
	require.NoError(t, err)

	rep := r.Run(ctx, cases)
	for _, res := range rep.Results {
		assert.Equal(t, StatusBroken, res.Status)
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
	assert.Equal(t, 0, d.Open())
}

func TestReportText(t *testing.T) {
	color.NoColor = true
	rep := &Report{RunID: "run_abcd1234", Results: []Result{
		{Name: "todo/add", Status: StatusPassed, Duration: 1200 * time.Millisecond},
		{Name: "shop/checkout-iphone", Status: StatusFailed, Error: "expect(x).ToBeVisible: expected visible, got hidden",
			Artifacts: []string{"test-results/run_abcd1234/case_1/failure.png"}},
		{Name: "docs/title", Status: StatusBroken, Error: "navigate to https://playwright.dev/: timeout"},
	}}

	var buf bytes.Buffer
	rep.WriteText(&buf)
	out := buf.String()
	assert.Contains(t, out, "✓ todo/add")
	assert.Contains(t, out, "✗ shop/checkout-iphone")
	assert.Contains(t, out, "! docs/title")
	assert.Contains(t, out, "    artifact: test-results/run_abcd1234/case_1/failure.png")
	assert.True(t, strings.Contains(out, "1 passed, 1 failed, 1 broken"), out)
	assert.Equal(t, 1, rep.Count(StatusFailed))
}

func TestReportJSON(t *testing.T) {
	rep := &Report{RunID: "run_abcd1234", Results: []Result{
		{Name: "api/get", CaseID: "case_00000001", Status: StatusBroken, Error: "GET /posts/1: refused", Err: errors.New("refused")},
	}}
	var buf bytes.Buffer
	require.NoError(t, rep.WriteJSON(&buf))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	results := got["results"].([]any)
	first := results[0].(map[string]any)
	assert.Equal(t, "broken", first["status"])
	assert.Equal(t, "GET /posts/1: refused", first["error"])
	assert.NotContains(t, first, "Err")
}
