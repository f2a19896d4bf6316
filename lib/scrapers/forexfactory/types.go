package forexfactory

// EventStub is one row of the calendar grid: just enough context to
// address the event's detail overlay and label its extracted records.
// DetailID comes from the site's client-side routing and is treated as
// opaque.
type EventStub struct {
	DetailID string
	Date     string
	Time     string
	Currency string
	Impact   string
	Event    string
	Actual   string
	Forecast string
	Previous string
}

// FieldRecord maps canonical field names to cleaned values for one
// detail id. Key order is preserved so serialized output is
// deterministic.
type FieldRecord struct {
	keys   []string
	values map[string]string
}

func NewFieldRecord(detailID string) *FieldRecord {
	r := &FieldRecord{values: map[string]string{}}
	r.Set("detail_id", detailID)
	return r
}

// Set inserts or overwrites a field. Overwrites keep the key's original
// position; last write wins on value.
func (r *FieldRecord) Set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r *FieldRecord) Get(key string) string {
	return r.values[key]
}

func (r *FieldRecord) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns field names in insertion order.
func (r *FieldRecord) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Empty reports whether the record carries nothing besides its
// identifying key, which counts as a failed extraction rather than an
// empty one.
func (r *FieldRecord) Empty() bool {
	return len(r.keys) <= 1
}

// HistoryEntry is one row of an event's historical readings table. Date
// is mandatory; rows without one are discarded upstream, never
// defaulted.
type HistoryEntry struct {
	DetailID string
	Date     string
	DateURL  string
	Actual   string
	Forecast string
	Previous string
}

const (
	LinkTypeNews    = "news"
	LinkTypeRelated = "related"
)

// NewsItem is one related-news link found in an event's detail panel.
type NewsItem struct {
	DetailID string
	Title    string
	URL      string
	Snippet  string
	LinkType string
}

type OutcomeStatus int

const (
	// StatusNotFound is data, not an error: the region legitimately
	// does not exist for this event.
	StatusNotFound OutcomeStatus = iota
	StatusSuccess
	StatusMalformed
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not_found"
	case StatusMalformed:
		return "malformed"
	}
	return "unknown"
}

// Outcome is the per-kind result of one sub-extraction. The three kinds
// of a detail id are independent: specs may succeed while history comes
// back NotFound.
type Outcome[T any] struct {
	Status OutcomeStatus
	Value  T
	Reason string
}

func Success[T any](value T) Outcome[T] {
	return Outcome[T]{Status: StatusSuccess, Value: value}
}

func NotFound[T any](reason string) Outcome[T] {
	return Outcome[T]{Status: StatusNotFound, Reason: reason}
}

func Malformed[T any](reason string) Outcome[T] {
	return Outcome[T]{Status: StatusMalformed, Reason: reason}
}

// Kinds selects which sub-extractions a run performs.
type Kinds struct {
	Specs   bool `json:"specs"`
	History bool `json:"history"`
	News    bool `json:"news"`
}

func (k Kinds) Any() bool {
	return k.Specs || k.History || k.News
}

// Result is everything one detail session produced. Kinds that were not
// active stay NotFound.
type Result struct {
	DetailID string
	// OverlayFound is false when no detail-container candidate ever
	// appeared; the session skips extraction entirely in that case.
	OverlayFound bool
	Specs        Outcome[*FieldRecord]
	History      Outcome[[]HistoryEntry]
	News         Outcome[[]NewsItem]
}

// Failed reports whether the session produced no usable record at all:
// either the overlay never appeared or every active kind came up empty.
func (r Result) Failed() bool {
	if r.Specs.Status == StatusSuccess && !r.Specs.Value.Empty() {
		return false
	}
	if r.History.Status == StatusSuccess && len(r.History.Value) > 0 {
		return false
	}
	if r.News.Status == StatusSuccess && len(r.News.Value) > 0 {
		return false
	}
	return true
}
