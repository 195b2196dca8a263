// Package sessiontest is an in-memory implementation of the session
// interfaces for unit tests. Pages are scripted Apps rendered into a small
// element tree; locators resolve through locate.Resolve on every call, the
// same rules the in-page resolver applies in a real browser.
//
// Actions do not wait: the fake DOM settles synchronously after every event.
package sessiontest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// ErrUnreachable is the cause of a NavigationError for URLs no Site serves.
var ErrUnreachable = errors.New("net::ERR_NAME_NOT_RESOLVED")

// EventType names the DOM events the fake dispatches.
type EventType string

const (
	EventInput  EventType = "input"
	EventKey    EventType = "keydown"
	EventClick  EventType = "click"
	EventChange EventType = "change"
)

type Event struct {
	Type   EventType
	Target *Node
	Key    string
}

// Effect is an App's response to an event.
type Effect struct {
	// Rerender rebuilds the document from App.Render. Existing nodes detach.
	Rerender bool
	// Navigate loads another URL once the event is handled.
	Navigate string
}

// App is a scripted web page.
type App interface {
	Title() string
	Render() []*Node
	Handle(ev Event) Effect
}

// Storage is per-session, per-origin persistent state that survives reloads
// (the fake localStorage).
type Storage map[string]string

// Site serves every URL that starts with Prefix.
type Site struct {
	Prefix string
	New    func(url string, st Storage) App
}

// Driver implements session.Driver. Each session gets its own storage.
type Driver struct {
	mu     sync.Mutex
	sites  []Site
	pages  []*Page
	closed bool
}

func NewDriver(sites ...Site) *Driver {
	return &Driver{sites: sites}
}

func (d *Driver) NewSession(ctx context.Context) (session.Page, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, nil, errors.New("driver closed")
	}
	p := d.newPage()
	d.pages = append(d.pages, p)
	return p, p.close, nil
}

// NewPage opens a session outside the session.Driver interface, for tests
// that want the concrete type.
func (d *Driver) NewPage() *Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.newPage()
	d.pages = append(d.pages, p)
	return p
}

func (d *Driver) newPage() *Page {
	return &Page{sites: d.sites, storage: map[string]Storage{}}
}

// Open counts sessions not yet closed.
func (d *Driver) Open() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, p := range d.pages {
		if !p.isClosed() {
			n++
		}
	}
	return n
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for _, p := range d.pages {
		p.close()
	}
	return nil
}

// Page implements session.Page over one scripted App at a time.
type Page struct {
	mu      sync.Mutex
	sites   []Site
	storage map[string]Storage
	url     string
	app     App
	doc     *Document
	closed  bool
	actions []string
}

var (
	_ session.Page        = (*Page)(nil)
	_ session.Snapshotter = (*Page)(nil)
)

func (p *Page) close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Page) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) site(url string) (Site, bool) {
	best, found := Site{}, false
	for _, s := range p.sites {
		prefix := strings.TrimSuffix(s.Prefix, "/")
		if url == prefix || strings.HasPrefix(url, prefix) {
			if !found || len(s.Prefix) > len(best.Prefix) {
				best, found = s, true
			}
		}
	}
	return best, found
}

func origin(url string) string {
	rest := url
	scheme := ""
	if i := strings.Index(url, "://"); i >= 0 {
		scheme, rest = url[:i+3], url[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return scheme + rest
}

// load must be called with p.mu held.
func (p *Page) load(url string) error {
	s, ok := p.site(url)
	if !ok {
		return &session.NavigationError{URL: url, Err: ErrUnreachable}
	}
	st, ok := p.storage[origin(url)]
	if !ok {
		st = Storage{}
		p.storage[origin(url)] = st
	}
	p.url = url
	p.app = s.New(url, st)
	p.render()
	return nil
}

func (p *Page) render() {
	p.doc = newDocument(p.app.Render()...)
}

func (p *Page) record(format string, args ...any) {
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return &session.NavigationError{URL: url, Err: err}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return &session.NavigationError{URL: url, Err: errClosed}
	}
	p.record("goto %s", url)
	return p.load(url)
}

func (p *Page) Reload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return &session.NavigationError{URL: p.url, Err: err}
	}
	if p.app == nil {
		return &session.NavigationError{URL: "about:blank", Err: errors.New("nothing to reload")}
	}
	p.record("reload")
	return p.load(p.url)
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.url == "" {
		return "about:blank", nil
	}
	return p.url, nil
}

func (p *Page) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.app == nil {
		return "", nil
	}
	return p.app.Title(), nil
}

// Screenshot returns a PNG signature followed by the page URL.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errClosed
	}
	return append([]byte("\x89PNG\r\n\x1a\n"), p.url...), nil
}

// App returns the App currently loaded, for tests that mutate state behind
// the page's back.
func (p *Page) App() App {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.app
}

// Rerender rebuilds the document from the current App state.
func (p *Page) Rerender() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.app != nil {
		p.render()
	}
}

// Actions lists the navigations and element actions performed so far.
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

// Storage returns the persistent storage of url's origin.
func (p *Page) Storage(url string) Storage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage[origin(url)]
}

// dispatch delivers ev and applies its effect. Must be called with p.mu
// held.
func (p *Page) dispatch(ev Event) error {
	eff := p.app.Handle(ev)
	if eff.Navigate != "" {
		return p.load(eff.Navigate)
	}
	if eff.Rerender {
		p.render()
	}
	return nil
}

func (p *Page) root() *Locator { return &Locator{page: p} }

func (p *Page) GetByRole(role string, name locate.TextMatch) session.Locator {
	return p.root().GetByRole(role, name)
}

func (p *Page) GetByText(m locate.TextMatch) session.Locator { return p.root().GetByText(m) }

func (p *Page) GetByPlaceholder(m locate.TextMatch) session.Locator {
	return p.root().GetByPlaceholder(m)
}

func (p *Page) GetByLabel(m locate.TextMatch) session.Locator { return p.root().GetByLabel(m) }

func (p *Page) GetByTestID(id string) session.Locator { return p.root().GetByTestID(id) }

func (p *Page) Locator(css string) session.Locator { return p.root().Locator(css) }

var errClosed = errors.New("session closed")

// Mutate changes App state under the page lock and re-renders, the way a
// timer or push update changes a live page between two reads.
func (p *Page) Mutate(fn func(App)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.app == nil {
		return
	}
	fn(p.app)
	p.render()
}

// AccessibilitySnapshot lists visible elements that have a role, indented
// by depth, as `role "name"`.
func (p *Page) AccessibilitySnapshot(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", errClosed
	}
	if p.doc == nil {
		return "", nil
	}
	var b strings.Builder
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if !n.Visible() && n != p.doc.Root {
			return
		}
		if role := locate.ImplicitRole(n); role != "" && role != "generic" {
			fmt.Fprintf(&b, "%s%s %q\n", strings.Repeat("  ", depth), role, locate.AccessibleName(p.doc.Root, n))
			depth++
		}
		for _, c := range n.children {
			walk(c, depth)
		}
	}
	walk(p.doc.Root, 0)
	return b.String(), nil
}
