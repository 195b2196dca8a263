package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/pinchtab/pagewright/internal/config"
	"github.com/pinchtab/pagewright/internal/expect"
	"github.com/pinchtab/pagewright/internal/idutil"
	"github.com/pinchtab/pagewright/internal/restapi"
	"github.com/pinchtab/pagewright/internal/session"
	"golang.org/x/sync/errgroup"
)

const captureTimeout = 10 * time.Second

type Status string

const (
	StatusPassed Status = "passed"
	// StatusFailed is an assertion that never held.
	StatusFailed Status = "failed"
	// StatusBroken is any other error: navigation, missing element, setup.
	StatusBroken Status = "broken"
)

type Result struct {
	Name      string        `json:"name"`
	CaseID    string        `json:"caseId"`
	Status    Status        `json:"status"`
	Duration  time.Duration `json:"durationNs"`
	Error     string        `json:"error,omitempty"`
	Artifacts []string      `json:"artifacts,omitempty"`
	Err       error         `json:"-"`
}

// Runner executes cases concurrently, one isolated session per browser
// case.
type Runner struct {
	Driver session.Driver
	API    *restapi.Client
	Config *config.RuntimeConfig
	Log    *slog.Logger
	IDs    *idutil.Manager
}

func NewRunner(d session.Driver, cfg *config.RuntimeConfig) *Runner {
	return &Runner{
		Driver: d,
		API:    restapi.New(cfg.Sites.API, cfg.NavigateTimeout),
		Config: cfg,
		Log:    slog.Default(),
		IDs:    idutil.NewManager(),
	}
}

// Run executes cases with at most Config.Parallel in flight. Results keep
// the order of cases. A canceled ctx marks cases not yet started as broken.
func (r *Runner) Run(ctx context.Context, cases []Case) *Report {
	rep := &Report{RunID: r.IDs.RunID(), Started: time.Now(), Results: make([]Result, len(cases))}
	r.Log.Info("run started", "run", rep.RunID, "cases", len(cases), "parallel", r.Config.Parallel)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Config.Parallel, 1))
	for i, c := range cases {
		g.Go(func() error {
			rep.Results[i] = r.runCase(gctx, c)
			return nil
		})
	}
	_ = g.Wait()

	rep.Duration = time.Since(rep.Started)
	r.Log.Info("run finished", "run", rep.RunID, "passed", rep.Count(StatusPassed),
		"failed", rep.Count(StatusFailed), "broken", rep.Count(StatusBroken), "duration", rep.Duration.Round(time.Millisecond))
	return rep
}

func (r *Runner) runCase(ctx context.Context, c Case) (res Result) {
	res = Result{Name: c.Name, CaseID: r.IDs.CaseID(c.Name)}
	log := r.Log.With("scenario", c.Name, "case", res.CaseID)
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		res.Status = classify(res.Err)
		if res.Err != nil {
			res.Error = res.Err.Error()
			log.Warn("case "+string(res.Status), "err", res.Err, "duration", res.Duration.Round(time.Millisecond))
		} else {
			log.Info("case passed", "duration", res.Duration.Round(time.Millisecond))
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("not started: %w", err)
		return res
	}

	env := &Env{
		API:    r.API,
		Config: r.Config,
		Log:    log,
		Expect: expect.New(r.Config.ExpectTimeout),
	}
	if c.Browser {
		if r.Driver == nil {
			res.Err = errors.New("browser scenario without a driver")
			return res
		}
		page, closeSession, err := r.Driver.NewSession(ctx)
		if err != nil {
			res.Err = fmt.Errorf("open session: %w", err)
			return res
		}
		defer closeSession()
		env.Page = page
	}

	res.Err = r.safeRun(ctx, c, env)
	if res.Err != nil && env.Page != nil {
		res.Artifacts = r.capture(ctx, env.Page, res.CaseID, log)
	}
	return res
}

func (r *Runner) safeRun(ctx context.Context, c Case, env *Env) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()
	return c.Run(ctx, env)
}

func classify(err error) Status {
	switch {
	case err == nil:
		return StatusPassed
	case expect.IsAssertionFailure(err) && !errors.Is(err, session.ErrStrictMode):
		return StatusFailed
	default:
		return StatusBroken
	}
}

// capture saves a screenshot and, when the page supports them, an
// accessibility snapshot and a trace under ArtifactDir/<run>/<case>/.
// Failures to capture are logged, never returned.
func (r *Runner) capture(ctx context.Context, page session.Page, caseID string, log *slog.Logger) []string {
	if r.Config.ArtifactDir == "" {
		return nil
	}
	dir := filepath.Join(r.Config.ArtifactDir, r.IDs.RunID(), caseID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warn("artifact dir", "err", err)
		return nil
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureTimeout)
	defer cancel()

	var saved []string
	write := func(name string, data []byte) {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0644); err != nil {
			log.Warn("write artifact", "file", p, "err", err)
			return
		}
		saved = append(saved, p)
	}

	if png, err := page.Screenshot(cctx); err != nil {
		log.Warn("screenshot failed", "err", err)
	} else {
		write("failure.png", png)
	}
	if snap, ok := page.(session.Snapshotter); ok {
		if text, err := snap.AccessibilitySnapshot(cctx); err != nil {
			log.Warn("accessibility snapshot failed", "err", err)
		} else {
			write("snapshot.txt", []byte(text))
		}
	}
	if u, err := page.URL(cctx); err == nil {
		write("url.txt", []byte(u+"\n"))
	}
	if tr, ok := page.(session.TraceRecorder); ok {
		p := filepath.Join(dir, "trace.zip")
		if ok, err := tr.SaveTrace(cctx, p); err != nil {
			log.Warn("save trace failed", "err", err)
		} else if ok {
			saved = append(saved, p)
		}
	}
	return saved
}
