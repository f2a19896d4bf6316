// Package forexfactory extracts structured event data from the
// forexfactory.com economic calendar. The page renders the interesting
// content asynchronously behind a URL-fragment overlay and does not
// keep its markup stable between renders, so everything here is built
// around ordered selector fallbacks and per-region outcomes instead of
// a single happy path.
package forexfactory

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("ffcal.scrapers.forexfactory")

const Origin = "https://www.forexfactory.com"

// Page is the slice of the browser driver the engine depends on. The
// concrete implementation lives in lib/browser; tests substitute a
// static document.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitVisible returns browser.ErrWaitTimeout when the selector does
	// not appear in time.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	HTML(ctx context.Context) (string, error)
}

// ParseOrigin returns the site origin used to absolutize relative
// links. Panics only on a programmer error in the constant.
func ParseOrigin(origin string) *url.URL {
	u, err := url.Parse(origin)
	if err != nil {
		panic(err)
	}
	return u
}

// DetailURL addresses one event's overlay: a fragment-only change on
// top of the calendar url, which the site's client router picks up
// without a full page load.
func DetailURL(baseURL, detailID string) string {
	return baseURL + "#detail=" + detailID
}

// CalendarURL builds the base calendar url for a date query such as
// "day=oct6.2025".
func CalendarURL(origin, dateParam string) string {
	if dateParam == "" {
		return origin + "/calendar"
	}
	return origin + "/calendar?" + dateParam
}
