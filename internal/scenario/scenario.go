// Package scenario holds the end-to-end scenarios and the runner that gives
// each one its own browser session.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"sync"

	"github.com/pinchtab/pagewright/internal/config"
	"github.com/pinchtab/pagewright/internal/expect"
	"github.com/pinchtab/pagewright/internal/restapi"
	"github.com/pinchtab/pagewright/internal/session"
)

var ErrUnknownScenario = errors.New("unknown scenario")

// Env is what a scenario gets to work with. Page is nil for scenarios that
// do not need a browser.
type Env struct {
	Page   session.Page
	API    *restapi.Client
	Config *config.RuntimeConfig
	Log    *slog.Logger
	Expect *expect.Expecter
}

type Scenario struct {
	Description string
	// Browser scenarios get a fresh isolated session.
	Browser bool
	Run     func(ctx context.Context, env *Env) error
}

// Case is a registered scenario with its name.
type Case struct {
	Name string
	Scenario
}

type Registry struct {
	mu    sync.RWMutex
	cases map[string]Scenario
}

func NewRegistry() *Registry {
	return &Registry{cases: make(map[string]Scenario)}
}

func (r *Registry) Register(name string, s Scenario) error {
	if name == "" || s.Run == nil {
		return fmt.Errorf("scenario %q: name and Run are required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.cases[name]; dup {
		return fmt.Errorf("scenario %q already registered", name)
	}
	r.cases[name] = s
	return nil
}

func (r *Registry) MustRegister(name string, s Scenario) {
	if err := r.Register(name, s); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.cases[name]
	if !ok {
		return Case{}, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return Case{Name: name, Scenario: s}, nil
}

// Names lists registered scenarios sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.cases))
	for n := range r.cases {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Match selects the cases whose names match any of the glob patterns
// (path.Match syntax, e.g. "todo/*"). No patterns selects everything. A
// pattern that selects nothing is an error.
func (r *Registry) Match(patterns ...string) ([]Case, error) {
	names := r.Names()
	selected := make(map[string]bool)
	for _, p := range patterns {
		hit := false
		for _, n := range names {
			ok, err := path.Match(p, n)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", p, err)
			}
			if ok {
				selected[n] = true
				hit = true
			}
		}
		if !hit {
			return nil, fmt.Errorf("%w: nothing matches %q", ErrUnknownScenario, p)
		}
	}
	out := make([]Case, 0, len(names))
	for _, n := range names {
		if len(patterns) == 0 || selected[n] {
			c, _ := r.Get(n)
			out = append(out, c)
		}
	}
	return out, nil
}
