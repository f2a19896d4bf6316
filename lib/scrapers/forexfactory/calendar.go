package forexfactory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"

	"ffcal/lib/textutil"
)

const calendarGridSelector = "table.calendar__table tbody"

// Day-breaker rows carry text like "Mon Jan 6"; the grid reuses the
// most recent one for every event row beneath it.
var dayBreakerPattern = regexp.MustCompile(
	`(Mon|Tue|Wed|Thu|Fri|Sat|Sun)\s+(\w+\s+\d+)`)

// ScrapeCalendar loads the calendar grid for dateParam (e.g. "today",
// "dec12.2024", "" for the default view) and returns one stub per event
// row that carries a detail ID. Rows without an ID cannot open an
// overlay and are skipped.
func ScrapeCalendar(ctx context.Context, page Page, origin, dateParam string) ([]EventStub, error) {
	ctx, span := tracer.Start(ctx, "ScrapeCalendar")
	defer span.End()
	span.SetAttributes(attribute.String("date_param", dateParam))

	target := CalendarURL(origin, dateParam)
	if err := page.Navigate(ctx, target); err != nil {
		return nil, fmt.Errorf("navigate to %q: %w", target, err)
	}
	if err := page.WaitVisible(ctx, calendarGridSelector, 15*time.Second); err != nil {
		return nil, fmt.Errorf("wait for calendar grid: %w", err)
	}

	raw, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot calendar: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	stubs := StubsFromGrid(doc)
	slog.InfoContext(ctx, "calendar grid scraped",
		"date_param", dateParam, "events", len(stubs))
	return stubs, nil
}

// StubsFromGrid walks every grid row, tracking the running day from
// day-breaker rows and emitting a stub for each event row.
func StubsFromGrid(doc *goquery.Document) []EventStub {
	var stubs []EventStub
	currentDate := ""

	doc.Find("table.calendar__table tr").Each(func(_ int, row *goquery.Selection) {
		if date, ok := dayBreakerDate(row); ok {
			currentDate = date
			return
		}
		stub, ok := stubFromRow(row)
		if !ok {
			return
		}
		stub.Date = currentDate
		stubs = append(stubs, stub)
	})
	return stubs
}

func dayBreakerDate(row *goquery.Selection) (string, bool) {
	class, _ := row.Attr("class")
	text := textutil.CollapseWhitespace(row.Text())
	if strings.Contains(class, "day-breaker") && text != "" {
		return text, true
	}
	// Some grid variants drop the class but keep the "Mon Jan 6" text
	// in a row with a single wide cell.
	if row.Find("td").Length() <= 2 {
		if match := dayBreakerPattern.FindString(text); match != "" {
			return match, true
		}
	}
	return "", false
}

func stubFromRow(row *goquery.Selection) (EventStub, bool) {
	detailID, ok := row.Attr("data-event-id")
	if !ok || detailID == "" {
		return EventStub{}, false
	}

	stub := EventStub{DetailID: detailID}
	cell := func(selector string) string {
		return textutil.CollapseWhitespace(row.Find(selector).First().Text())
	}
	stub.Time = cell(".calendar__time")
	stub.Currency = cell(".calendar__currency")
	stub.Event = cell(".calendar__event")
	stub.Actual = cell(".calendar__actual")
	stub.Forecast = cell(".calendar__forecast")
	stub.Previous = cell(".calendar__previous")
	if impact := row.Find(".calendar__impact span").First(); impact.Length() > 0 {
		stub.Impact, _ = impact.Attr("title")
		stub.Impact = textutil.CollapseWhitespace(stub.Impact)
	}

	if stub.Event == "" {
		// Grid variants without class-named cells: fall back to
		// positional columns when the row is wide enough.
		cells := row.Find("td")
		if cells.Length() < 7 {
			return EventStub{}, false
		}
		texts := make([]string, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			texts = append(texts, textutil.CollapseWhitespace(td.Text()))
		})
		stub.Time = texts[0]
		stub.Currency = texts[1]
		stub.Event = texts[3]
		if len(texts) > 4 {
			stub.Actual = texts[4]
		}
		if len(texts) > 5 {
			stub.Forecast = texts[5]
		}
		if len(texts) > 6 {
			stub.Previous = texts[6]
		}
	}
	if stub.Event == "" {
		return EventStub{}, false
	}
	return stub, true
}
