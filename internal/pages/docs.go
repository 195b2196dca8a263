package pages

import (
	"context"

	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session"
)

// DocsPage is the documentation site's home page.
type DocsPage struct {
	page session.Page
	url  string
}

func NewDocsPage(p session.Page, entryURL string) *DocsPage {
	return &DocsPage{page: p, url: entryURL}
}

func (d *DocsPage) EntryURL() string { return d.url }

func (d *DocsPage) Navigate(ctx context.Context) error {
	return d.page.Goto(ctx, d.url)
}

func (d *DocsPage) OpenGetStarted(ctx context.Context) error {
	return d.page.GetByRole("link", locate.Contains("Get started")).Click(ctx)
}

// Heading locates a heading by accessible name.
func (d *DocsPage) Heading(name string) session.Locator {
	return d.page.GetByRole("heading", locate.Contains(name))
}

// Search opens the search dialog and types query.
func (d *DocsPage) Search(ctx context.Context, query string) error {
	if err := d.page.GetByLabel(locate.Contains("Search")).Click(ctx); err != nil {
		return err
	}
	return d.page.GetByPlaceholder(locate.Contains("Search docs")).Fill(ctx, query)
}

// Result locates a search hit by its text.
func (d *DocsPage) Result(text string) session.Locator {
	return d.page.GetByText(locate.Contains(text))
}
