package pages

import (
	"context"
	"testing"
	"time"

	"github.com/pinchtab/pagewright/internal/expect"
	"github.com/pinchtab/pagewright/internal/locate"
	"github.com/pinchtab/pagewright/internal/session/sessiontest"
	"github.com/stretchr/testify/require"
)

const docsURL = "https://docs.test/"

func openDocs(t *testing.T) (*DocsPage, *sessiontest.Page, *expect.Expecter) {
	t.Helper()
	p := sessiontest.NewDriver(sessiontest.DocsSite(docsURL)).NewPage()
	docs := NewDocsPage(p, docsURL)
	require.NoError(t, docs.Navigate(context.Background()))
	return docs, p, &expect.Expecter{Timeout: 200 * time.Millisecond, Interval: 10 * time.Millisecond}
}

func TestDocsGetStarted(t *testing.T) {
	docs, p, x := openDocs(t)
	ctx := context.Background()
	require.NoError(t, x.PageToHaveTitle(ctx, p, locate.Pattern("Playwright")))

	require.NoError(t, docs.OpenGetStarted(ctx))
	require.NoError(t, x.Locator(docs.Heading("Installation")).ToBeVisible(ctx))
	require.NoError(t, x.PageToHaveURL(ctx, p, `.*intro`))
}

func TestDocsSearch(t *testing.T) {
	docs, _, x := openDocs(t)
	ctx := context.Background()

	require.NoError(t, docs.Search(ctx, "locator"))
	for _, r := range sessiontest.DocsSearchResults {
		require.NoError(t, x.Locator(docs.Result(r).First()).ToBeVisible(ctx), r)
	}
}
