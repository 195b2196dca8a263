package sessiontest

import (
	"strings"
)

// DocsSearchResults are the hits the fake docs search offers for "locator".
var DocsSearchResults = []string{"Locators", "Locator assertions", "FrameLocator"}

// DocsSite serves a documentation home page at base and an installation
// page at base+"docs/intro".
func DocsSite(base string) Site {
	base = strings.TrimSuffix(base, "/") + "/"
	return Site{Prefix: base, New: func(url string, _ Storage) App {
		if strings.HasPrefix(url, base+"docs/intro") {
			return &docsIntroApp{}
		}
		return &docsHomeApp{base: base}
	}}
}

type docsHomeApp struct {
	base      string
	searching bool
	query     string
}

func (a *docsHomeApp) Title() string {
	return "Fast and reliable end-to-end testing for modern web apps | Playwright"
}

func (a *docsHomeApp) Render() []*Node {
	nodes := []*Node{
		E("nav", "class", "navbar").Append(
			E("a", "class", "navbar__brand", "href", "/").T("Playwright"),
			E("a", "class", "navbar__item", "href", "/docs/intro").T("Docs"),
			E("button", "type", "button", "class", "DocSearch DocSearch-Button", "aria-label", "Search").Append(
				E("span", "class", "DocSearch-Button-Placeholder").T("Search"),
			),
		),
		E("header", "class", "hero").Append(
			E("h1", "class", "hero__title").T("Playwright enables reliable end-to-end testing for modern web apps."),
			E("a", "class", "getStarted", "href", "/docs/intro").T("Get started"),
		),
	}
	if a.searching {
		results := E("ul", "role", "listbox", "id", "docsearch-list")
		if q := strings.ToLower(strings.TrimSpace(a.query)); q != "" {
			for _, r := range DocsSearchResults {
				if strings.Contains(strings.ToLower(r), q) {
					results.Append(E("li", "role", "option").Append(E("a", "href", "/docs/locators").T(r)))
				}
			}
		}
		nodes = append(nodes, E("div", "class", "DocSearch-Modal", "role", "dialog").Append(
			E("form", "class", "DocSearch-Form").Append(
				E("input", "class", "DocSearch-Input", "type", "search", "placeholder", "Search docs", "value", a.query),
			),
			results,
		))
	}
	return nodes
}

func (a *docsHomeApp) Handle(ev Event) Effect {
	t := ev.Target
	switch {
	case ev.Type == EventClick && t.attrs["aria-label"] == "Search":
		a.searching = true
		return Effect{Rerender: true}
	case ev.Type == EventClick && t.attrs["class"] == "DocSearch-Button-Placeholder":
		a.searching = true
		return Effect{Rerender: true}
	case ev.Type == EventClick && t.attrs["href"] == "/docs/intro":
		return Effect{Navigate: a.base + "docs/intro"}
	case ev.Type == EventInput && t.attrs["class"] == "DocSearch-Input":
		a.query = t.value
		return Effect{Rerender: true}
	}
	return Effect{}
}

type docsIntroApp struct{}

func (a *docsIntroApp) Title() string { return "Installation | Playwright" }

func (a *docsIntroApp) Render() []*Node {
	return []*Node{
		E("main").Append(
			E("article").Append(
				E("h1").T("Installation"),
				E("h2").T("Introduction"),
				E("p").T("Playwright Test was created specifically to accommodate the needs of end-to-end testing."),
			),
		),
	}
}

func (a *docsIntroApp) Handle(Event) Effect { return Effect{} }
