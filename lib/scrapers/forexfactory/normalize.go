package forexfactory

import (
	"net/url"
	"strings"

	"ffcal/lib/htmlutil"
	"ffcal/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// CanonicalKey derives a stable field name from a human-readable row
// label: lowercased, spaces become underscores, and the punctuation the
// site sprinkles into labels is stripped. Applying it to an
// already-canonical key is a no-op.
func CanonicalKey(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, " ", "_")
	for _, c := range []string{":", "/", "(", ")"} {
		key = strings.ReplaceAll(key, c, "")
	}
	return key
}

// SpecsFromTable reads a label/value table into a FieldRecord. Rows
// need at least two cells; rows whose trimmed label or value is empty
// are discarded. Two labels canonicalizing to the same key collide with
// last-write-wins, a known and accepted limitation.
func SpecsFromTable(detailID string, table *goquery.Selection) *FieldRecord {
	record := NewFieldRecord(detailID)

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := textutil.CollapseWhitespace(cells.Eq(0).Text())
		value := textutil.CollapseWhitespace(cells.Eq(1).Text())
		if label == "" || value == "" {
			return
		}
		record.Set(CanonicalKey(label), value)
	})

	return record
}

// HistoryFromTable reads an event's historical readings by column
// position: date, actual, forecast, previous. Rows with fewer than two
// cells are header or separator rows and are skipped whole; rows
// without a date are invalid and discarded rather than defaulted.
// Date cells that link somewhere get the href absolutized against
// origin.
func HistoryFromTable(detailID string, table *goquery.Selection, origin *url.URL) []HistoryEntry {
	var entries []HistoryEntry

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		entry := HistoryEntry{DetailID: detailID}
		cells.Each(func(idx int, cell *goquery.Selection) {
			text := textutil.CollapseWhitespace(cell.Text())
			switch idx {
			case 0:
				entry.Date = text
				href, ok := cell.Find("a").First().Attr("href")
				if ok && href != "" {
					entry.DateURL = htmlutil.ResolveHref(origin, href)
				}
			case 1:
				entry.Actual = text
			case 2:
				entry.Forecast = text
			case 3:
				entry.Previous = text
			}
			// columns past "previous" are ignored
		})

		if entry.Date == "" {
			return
		}
		entries = append(entries, entry)
	})

	return entries
}
