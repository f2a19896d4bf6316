package forexfactory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"ffcal/lib/browser"
	"ffcal/lib/telemetry"
	"ffcal/lib/textutil"
)

// Enricher fetches linked news articles over plain HTTP and fills in
// snippets that the overlay's tag list did not carry. It only follows
// links on the calendar's own domain.
type Enricher struct {
	origin *url.URL
	http   *resty.Client
}

func NewEnricher(origin string) (*Enricher, error) {
	base, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin %q: %w", origin, err)
	}

	client := resty.New()
	client.SetBaseURL(origin)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", browser.DefaultUserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "ffcal.scrapers.forexfactory.http")
	instrumentHTTPDebug(client)

	return &Enricher{origin: base, http: client}, nil
}

// EnrichNews fetches each item's article page and replaces empty or
// truncated snippets with the article's lead text. Fetch failures leave
// the item as it was.
func (e *Enricher) EnrichNews(ctx context.Context, items []NewsItem) []NewsItem {
	ctx, span := tracer.Start(ctx, "Enricher.EnrichNews")
	defer span.End()

	for i, item := range items {
		if item.LinkType != LinkTypeNews || item.URL == "" {
			continue
		}
		if len(item.Snippet) >= snippetLimit {
			continue
		}
		snippet, err := e.fetchLead(ctx, item.URL)
		if err != nil {
			slog.DebugContext(ctx, "snippet fetch failed",
				"url", item.URL, "error", err)
			continue
		}
		if len(snippet) > len(item.Snippet) {
			items[i].Snippet = snippet
		}
	}
	return items
}

// fetchLead pulls the first substantial paragraph from an article page.
func (e *Enricher) fetchLead(ctx context.Context, articleURL string) (string, error) {
	res, err := e.http.R().SetContext(ctx).Get(articleURL)
	if err != nil {
		return "", err
	}
	if res.StatusCode() >= 400 {
		return "", fmt.Errorf("fetch %q: status %d", articleURL, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		return "", err
	}

	lead := ""
	doc.Find("article p, .news__copy p, p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := textutil.CollapseWhitespace(p.Text())
		if len(text) > 40 {
			lead = text
			return false
		}
		return true
	})
	if lead == "" {
		return "", fmt.Errorf("no lead paragraph in %q", articleURL)
	}
	return truncateSnippet(lead), nil
}
