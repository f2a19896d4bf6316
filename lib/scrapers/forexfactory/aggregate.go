package forexfactory

import "sort"

// Context fields injected from the calendar stub into every specs
// record, in the order they lead the wide schema.
var specsPrefix = []string{
	"detail_id",
	"event_date",
	"event_time",
	"event_currency",
	"event_name",
}

var historyColumns = []string{
	"detail_id", "event_name", "event_date", "event_currency",
	"date", "date_url", "actual", "forecast", "previous",
}

var newsColumns = []string{
	"detail_id", "event_name", "event_date", "event_currency",
	"title", "url", "snippet", "link_type",
}

// Aggregator collects session results and flattens them into tables.
// Specs records carry heterogeneous field sets, so the wide schema is
// the union of every field seen: stub context columns first, then the
// rest in lexicographic order. Missing fields serialize as empty cells.
type Aggregator struct {
	stubs   map[string]EventStub
	records []*FieldRecord
	history []HistoryEntry
	news    []NewsItem
}

func NewAggregator(stubs []EventStub) *Aggregator {
	byID := make(map[string]EventStub, len(stubs))
	for _, stub := range stubs {
		if stub.DetailID != "" {
			byID[stub.DetailID] = stub
		}
	}
	return &Aggregator{stubs: byID}
}

// Add folds one session result in. Only successful outcomes contribute;
// a kind that came back NotFound or Malformed leaves no trace in the
// tables beyond the batch counters.
func (a *Aggregator) Add(result Result) {
	if result.Specs.Status == StatusSuccess && result.Specs.Value != nil {
		record := result.Specs.Value
		a.injectStub(record)
		a.records = append(a.records, record)
	}
	if result.History.Status == StatusSuccess {
		a.history = append(a.history, result.History.Value...)
	}
	if result.News.Status == StatusSuccess {
		a.news = append(a.news, result.News.Value...)
	}
}

// injectStub stamps calendar-grid context onto a specs record so each
// row is self-describing without a join back to the stub file. Values
// already extracted from the overlay win over stub values.
func (a *Aggregator) injectStub(record *FieldRecord) {
	stub, ok := a.stubs[record.Get("detail_id")]
	if !ok {
		return
	}
	inject := func(key, value string) {
		if !record.Has(key) {
			record.Set(key, value)
		}
	}
	inject("event_date", stub.Date)
	inject("event_time", stub.Time)
	inject("event_currency", stub.Currency)
	inject("event_name", stub.Event)
}

// SpecsSchema returns the wide-table header: the fixed context prefix
// followed by every other field ever seen, sorted lexicographically so
// the schema is stable regardless of extraction order.
func (a *Aggregator) SpecsSchema() []string {
	inPrefix := make(map[string]bool, len(specsPrefix))
	for _, key := range specsPrefix {
		inPrefix[key] = true
	}
	seen := make(map[string]bool)
	var rest []string
	for _, record := range a.records {
		for _, key := range record.Keys() {
			if inPrefix[key] || seen[key] {
				continue
			}
			seen[key] = true
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	schema := make([]string, 0, len(specsPrefix)+len(rest))
	schema = append(schema, specsPrefix...)
	return append(schema, rest...)
}

// SpecsTable flattens every record against the union schema.
func (a *Aggregator) SpecsTable() (header []string, rows [][]string) {
	header = a.SpecsSchema()
	rows = make([][]string, 0, len(a.records))
	for _, record := range a.records {
		row := make([]string, len(header))
		for i, key := range header {
			row[i] = record.Get(key)
		}
		rows = append(rows, row)
	}
	return header, rows
}

func (a *Aggregator) HistoryTable() (header []string, rows [][]string) {
	header = historyColumns
	rows = make([][]string, 0, len(a.history))
	for _, entry := range a.history {
		stub := a.stubs[entry.DetailID]
		rows = append(rows, []string{
			entry.DetailID, stub.Event, stub.Date, stub.Currency,
			entry.Date, entry.DateURL,
			entry.Actual, entry.Forecast, entry.Previous,
		})
	}
	return header, rows
}

func (a *Aggregator) NewsTable() (header []string, rows [][]string) {
	header = newsColumns
	rows = make([][]string, 0, len(a.news))
	for _, item := range a.news {
		stub := a.stubs[item.DetailID]
		rows = append(rows, []string{
			item.DetailID, stub.Event, stub.Date, stub.Currency,
			item.Title, item.URL, item.Snippet, item.LinkType,
		})
	}
	return header, rows
}

// Counts reports how many rows each table currently holds.
func (a *Aggregator) Counts() (specs, history, news int) {
	return len(a.records), len(a.history), len(a.news)
}
