package htmlutil

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetAnchorsResolvesRelativeHrefs(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div>
		<a href="/news/123">  First   Link </a>
		<a href="https://example.com/abs">Absolute</a>
		<a>no href</a>
	</div>`))
	require.NoError(t, err)

	base, err := url.Parse("https://www.forexfactory.com")
	require.NoError(t, err)

	anchors := GetAnchors(context.Background(), doc.Find("a"), base)
	require.Len(t, anchors, 3)
	require.Equal(t, "First Link", anchors[0].Name)
	require.Equal(t, "https://www.forexfactory.com/news/123", anchors[0].Href)
	require.Equal(t, "https://example.com/abs", anchors[1].Href)
	require.Equal(t, "https://www.forexfactory.com", anchors[2].Href)
}

func TestResolveHref(t *testing.T) {
	base, err := url.Parse("https://www.forexfactory.com/calendar")
	require.NoError(t, err)

	require.Equal(t, "https://www.forexfactory.com/calendar?day=jan3.2025",
		ResolveHref(base, "/calendar?day=jan3.2025"))
	require.Equal(t, "https://example.com/x", ResolveHref(base, "https://example.com/x"))
	require.Equal(t, "", ResolveHref(base, ""))
}
