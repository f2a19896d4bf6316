package forexfactory

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"ffcal/lib/htmlutil"
	"ffcal/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const snippetLimit = 200

// classifyLink buckets a link by its url path: anything that looks like
// a news article is "news", the rest is "related".
func classifyLink(href string) string {
	if strings.Contains(href, "news") || strings.Contains(href, "article") {
		return LinkTypeNews
	}
	return LinkTypeRelated
}

// looksLikeDateLink filters out the short numeric strings that are
// almost always history date links rather than article titles
func looksLikeDateLink(title string) bool {
	return utf8.RuneCountInString(title) < 15 && textutil.ContainsDigit(title)
}

// truncateSnippet caps a snippet at snippetLimit bytes without ever
// splitting a multi-byte rune, so the output stays valid UTF-8.
func truncateSnippet(s string) string {
	if len(s) <= snippetLimit {
		return s
	}
	cut := snippetLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// NewsFromContainer turns every anchor inside a resolved news container
// into a NewsItem. The container was already disambiguated, so no text
// filtering is applied here.
func NewsFromContainer(ctx context.Context, detailID string, container *goquery.Selection, origin *url.URL) []NewsItem {
	var items []NewsItem
	for _, a := range htmlutil.GetAnchors(ctx, container.Find("a"), origin) {
		if a.Name == "" || a.Href == "" {
			continue
		}
		items = append(items, NewsItem{
			DetailID: detailID,
			Title:    a.Name,
			URL:      a.Href,
			LinkType: classifyLink(a.Href),
		})
	}
	return items
}

// NewsFromPanel is the fallback when no structured news container
// exists: scan every anchor in the whole detail panel, keeping the
// heuristics that separate article links from navigation noise and
// history date links. Snippets come from the anchor's parent element
// when it carries more text than the title itself.
func NewsFromPanel(detailID string, panel *goquery.Selection, origin *url.URL) []NewsItem {
	var items []NewsItem
	panel.Find("a").Each(func(_ int, link *goquery.Selection) {
		title := textutil.CollapseWhitespace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" || len(title) <= 5 {
			return
		}
		if looksLikeDateLink(title) {
			return
		}

		snippet := ""
		parentText := textutil.CollapseWhitespace(link.Parent().Text())
		if len(parentText) > len(title) {
			snippet = truncateSnippet(parentText)
		}

		items = append(items, NewsItem{
			DetailID: detailID,
			Title:    title,
			URL:      htmlutil.ResolveHref(origin, href),
			Snippet:  snippet,
			LinkType: classifyLink(href),
		})
	})
	return items
}
