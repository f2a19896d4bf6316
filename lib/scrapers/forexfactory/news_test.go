package forexfactory

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func selectionFromHTML(t *testing.T, html, selector string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		t.Fatalf("selector %q matched nothing", selector)
	}
	return sel
}

func TestNewsFromContainer(t *testing.T) {
	origin := ParseOrigin(Origin)

	container := selectionFromHTML(t, `<div class="ff_taglist">
		<a href="/news/123-cpi-comes-in-hot">CPI Comes In Hot</a>
		<a href="https://example.com/analysis/rates">Rate Outlook</a>
		<a href="/article/456-fed-preview">Fed Preview</a>
	</div>`, ".ff_taglist")

	items := NewsFromContainer(context.Background(), "137241", container, origin)
	require.Len(t, items, 3)

	require.Equal(t, "CPI Comes In Hot", items[0].Title)
	require.Equal(t, "https://www.forexfactory.com/news/123-cpi-comes-in-hot", items[0].URL)
	require.Equal(t, LinkTypeNews, items[0].LinkType)

	// Off-domain href with no news marker stays a related link.
	require.Equal(t, LinkTypeRelated, items[1].LinkType)
	require.Equal(t, LinkTypeNews, items[2].LinkType)
	for _, item := range items {
		require.Equal(t, "137241", item.DetailID)
	}
}

func TestNewsFromPanelFiltersNoise(t *testing.T) {
	origin := ParseOrigin(Origin)

	panel := selectionFromHTML(t, `<div class="half last details">
		<a href="/calendar?day=jan3.2025">Jan 3 2025</a>
		<a href="/news/789-jobs-report-surprises">Jobs Report Surprises Markets</a>
		<a href="/tag">tiny</a>
		<a href="">No Href Article Title</a>
	</div>`, ".details")

	items := NewsFromPanel("42", panel, origin)
	require.Len(t, items, 1)
	require.Equal(t, "Jobs Report Surprises Markets", items[0].Title)
	require.Equal(t, LinkTypeNews, items[0].LinkType)
}

func TestNewsFromPanelSnippetCap(t *testing.T) {
	origin := ParseOrigin(Origin)

	long := strings.Repeat("market commentary ", 20)
	panel := selectionFromHTML(t,
		`<div class="details"><p>`+long+
			`<a href="/news/1-long-article-wrapper">Long Article Wrapper</a></p></div>`,
		".details")

	items := NewsFromPanel("7", panel, origin)
	require.Len(t, items, 1)
	require.LessOrEqual(t, len(items[0].Snippet), 200)
	require.NotEmpty(t, items[0].Snippet)
}

func TestNewsFromPanelSnippetKeepsRunesWhole(t *testing.T) {
	origin := ParseOrigin(Origin)

	// 301 bytes of parent text with the cap landing inside a 2-byte rune.
	long := "x" + strings.Repeat("é", 150)
	panel := selectionFromHTML(t,
		`<div class="details"><p>`+long+
			`<a href="/news/2-accented-wrapper">Accented Article Wrapper</a></p></div>`,
		".details")

	items := NewsFromPanel("7", panel, origin)
	require.Len(t, items, 1)
	require.True(t, utf8.ValidString(items[0].Snippet))
	require.LessOrEqual(t, len(items[0].Snippet), 200)
	require.NotEmpty(t, items[0].Snippet)
}

func TestTruncateSnippet(t *testing.T) {
	require.Equal(t, "short", truncateSnippet("short"))

	ascii := strings.Repeat("a", 250)
	require.Equal(t, strings.Repeat("a", 200), truncateSnippet(ascii))

	// Byte 200 falls mid-rune; the cut backs up to the rune boundary.
	accented := "x" + strings.Repeat("é", 150)
	got := truncateSnippet(accented)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, 199, len(got))
}

func TestClassifyLink(t *testing.T) {
	require.Equal(t, LinkTypeNews, classifyLink("/news/55-something"))
	require.Equal(t, LinkTypeNews, classifyLink("https://x.com/article/99"))
	require.Equal(t, LinkTypeRelated, classifyLink("https://x.com/forum/thread"))
}

func TestLooksLikeDateLink(t *testing.T) {
	require.True(t, looksLikeDateLink("Jan 3 2025"))
	// 14 runes but 15 bytes; still a date link.
	require.True(t, looksLikeDateLink("3 février 2025"))
	require.False(t, looksLikeDateLink("Jobs Report Surprises"))
	// Long titles keep their digits.
	require.False(t, looksLikeDateLink("Q3 GDP revision shocks economists"))
}
