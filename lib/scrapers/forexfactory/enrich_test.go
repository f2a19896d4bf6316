package forexfactory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"ffcal/lib/telemetry"
)

func TestEnrichNews(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	lead := "Payroll growth blew past every forecast on the board, forcing a repricing of the entire front end of the curve."
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/news/1-payrolls":
			w.Write([]byte(`<html><body><article>
				<p>ad</p>
				<p>` + lead + `</p>
			</article></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	enricher, err := NewEnricher(server.URL)
	require.NoError(t, err)

	items := enricher.EnrichNews(context.Background(), []NewsItem{
		{DetailID: "1", Title: "Payrolls Beat", URL: server.URL + "/news/1-payrolls", LinkType: LinkTypeNews},
		{DetailID: "1", Title: "Thread", URL: server.URL + "/forum/2", LinkType: LinkTypeRelated},
		{DetailID: "1", Title: "Gone", URL: server.URL + "/news/404-missing", LinkType: LinkTypeNews},
	})

	require.True(t, strings.HasPrefix(items[0].Snippet, "Payroll growth"))
	require.LessOrEqual(t, len(items[0].Snippet), 200)
	// Related links and failed fetches are left untouched.
	require.Empty(t, items[1].Snippet)
	require.Empty(t, items[2].Snippet)
}

func TestEnrichNewsTruncatesLeadOnRuneBoundary(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	// 301 bytes; a byte-level cap at 200 would land mid-rune.
	lead := "x" + strings.Repeat("é", 150)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article><p>` + lead + `</p></article></body></html>`))
	}))
	defer server.Close()

	enricher, err := NewEnricher(server.URL)
	require.NoError(t, err)

	items := enricher.EnrichNews(context.Background(), []NewsItem{
		{Title: "T", URL: server.URL + "/news/1", LinkType: LinkTypeNews},
	})
	require.True(t, utf8.ValidString(items[0].Snippet))
	require.LessOrEqual(t, len(items[0].Snippet), 200)
	require.NotEmpty(t, items[0].Snippet)
}

func TestEnrichNewsKeepsLongerSnippet(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>A short lead that clears the length floor anyway.</p></body></html>`))
	}))
	defer server.Close()

	enricher, err := NewEnricher(server.URL)
	require.NoError(t, err)

	existing := strings.Repeat("already detailed snippet ", 4)
	items := enricher.EnrichNews(context.Background(), []NewsItem{
		{Title: "T", URL: server.URL + "/news/1", Snippet: existing, LinkType: LinkTypeNews},
	})
	require.Equal(t, existing, items[0].Snippet)
}
