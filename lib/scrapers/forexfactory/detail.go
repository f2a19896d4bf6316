package forexfactory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"

	"ffcal/lib/browser"
)

// SessionConfig controls how a single detail-overlay session behaves.
// Zero values get sensible defaults from withDefaults.
type SessionConfig struct {
	// BaseURL is the calendar page the session navigates to before
	// appending the "#detail=<id>" fragment.
	BaseURL string
	// Origin is used to absolutize relative hrefs found in the overlay.
	Origin string

	// OverlayTimeout applies to each overlay candidate individually.
	OverlayTimeout time.Duration
	// SpecsTimeout applies to each specs-table candidate. The specs panel
	// is the slowest to render so it gets a longer leash than the rest.
	SpecsTimeout time.Duration
	// PanelTimeout applies to history and news candidates.
	PanelTimeout time.Duration

	// SettleInterval and SettleAttempts bound the post-overlay settle
	// poll: the session re-snapshots the page until the overlay's node
	// count holds steady across two consecutive checks.
	SettleInterval time.Duration
	SettleAttempts int
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.BaseURL == "" {
		c.BaseURL = CalendarURL(Origin, "")
	}
	if c.Origin == "" {
		c.Origin = Origin
	}
	if c.OverlayTimeout <= 0 {
		c.OverlayTimeout = 3 * time.Second
	}
	if c.SpecsTimeout <= 0 {
		c.SpecsTimeout = 5 * time.Second
	}
	if c.PanelTimeout <= 0 {
		c.PanelTimeout = 3 * time.Second
	}
	if c.SettleInterval <= 0 {
		c.SettleInterval = 500 * time.Millisecond
	}
	if c.SettleAttempts <= 0 {
		c.SettleAttempts = 6
	}
	return c
}

func overlaySelectors(detailID string) []string {
	return []string{
		".overlay__content",
		".calendar__detail",
		fmt.Sprintf("[data-event-id='%s']", detailID),
	}
}

func specsCandidates(timeout time.Duration) []Locator {
	return Candidates(timeout,
		"table.calendarspecs",
		".calendarspecs",
		"table.calendar-specs",
		".calendar-specs",
		"[class*='specs']",
		".calendar__detail table",
		".calendar-detail table",
	)
}

func historyCandidates(timeout time.Duration) []Locator {
	return Candidates(timeout,
		".half.last.details table",
		".overlay__content .half.last table",
		"[class*='history'] table",
		".calendar__history table",
	)
}

func newsCandidates(timeout time.Duration) []Locator {
	return Candidates(timeout,
		".half.last.details .ff_taglist",
		".overlay__content .half.last .ff_taglist",
		"[class*='news']",
		".calendar__news",
	)
}

// DetailSession drives one browser tab through a single detail overlay:
// navigate to the fragment URL, wait for a detail container, let the
// panels settle, then extract whichever kinds were requested. Each kind
// resolves and fails independently.
type DetailSession struct {
	page     Page
	resolver Resolver
	config   SessionConfig
	kinds    Kinds
	origin   *url.URL
}

func NewDetailSession(page Page, config SessionConfig, kinds Kinds) (*DetailSession, error) {
	config = config.withDefaults()
	origin, err := url.Parse(config.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin %q: %w", config.Origin, err)
	}
	return &DetailSession{
		page:     page,
		resolver: NewResolver(page),
		config:   config,
		kinds:    kinds,
		origin:   origin,
	}, nil
}

// Run executes the full session for one detail ID. A non-nil error means
// the browser itself broke (navigation failure, dead tab, canceled
// context); a missing overlay or missing panels is reported through the
// Result instead.
func (s *DetailSession) Run(ctx context.Context, detailID string) (Result, error) {
	ctx, span := tracer.Start(ctx, "DetailSession.Run")
	defer span.End()
	span.SetAttributes(attribute.String("detail_id", detailID))

	result := Result{DetailID: detailID}

	target := DetailURL(s.config.BaseURL, detailID)
	if err := s.page.Navigate(ctx, target); err != nil {
		return result, fmt.Errorf("navigate to %q: %w", target, err)
	}

	found, err := s.waitOverlay(ctx, detailID)
	if err != nil {
		return result, err
	}
	if !found {
		slog.WarnContext(ctx, "detail overlay never appeared",
			"detail_id", detailID)
		return result, nil
	}
	result.OverlayFound = true

	if err := s.settle(ctx); err != nil {
		return result, err
	}

	if s.kinds.Specs {
		result.Specs = s.extractSpecs(ctx, detailID)
	}
	if s.kinds.History {
		result.History = s.extractHistory(ctx, detailID)
	}
	if s.kinds.News {
		result.News = s.extractNews(ctx, detailID)
	}
	return result, nil
}

// waitOverlay tries each detail-container candidate in turn. Only a
// browser-level failure is an error; exhausting the candidates just
// means the overlay never opened for this ID.
func (s *DetailSession) waitOverlay(ctx context.Context, detailID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "DetailSession.waitOverlay")
	defer span.End()

	for _, selector := range overlaySelectors(detailID) {
		err := s.page.WaitVisible(ctx, selector, s.config.OverlayTimeout)
		if err == nil {
			slog.DebugContext(ctx, "detail overlay visible",
				"detail_id", detailID, "selector", selector)
			return true, nil
		}
		if !errors.Is(err, browser.ErrWaitTimeout) {
			return false, fmt.Errorf("wait for overlay %q: %w", selector, err)
		}
	}
	return false, nil
}

// settle polls the overlay until its node count is identical across two
// consecutive snapshots, giving lazily-rendered panels time to fill in
// without paying a fixed worst-case sleep on every ID.
func (s *DetailSession) settle(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "DetailSession.settle")
	defer span.End()

	previous := -1
	for attempt := 0; attempt < s.config.SettleAttempts; attempt++ {
		doc, err := s.resolver.document(ctx)
		if err != nil {
			return fmt.Errorf("settle snapshot: %w", err)
		}
		count := overlayNodeCount(doc)
		if count == previous && count > 0 {
			slog.DebugContext(ctx, "overlay settled",
				"attempt", attempt, "nodes", count)
			return nil
		}
		previous = count

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.config.SettleInterval):
		}
	}
	slog.DebugContext(ctx, "overlay settle attempts exhausted",
		"nodes", previous)
	return nil
}

func overlayNodeCount(doc *goquery.Document) int {
	region := doc.Find(".overlay__content, .calendar__detail").First()
	if region.Length() == 0 {
		region = doc.Selection
	}
	return region.Find("td, a, tr").Length()
}

func (s *DetailSession) extractSpecs(ctx context.Context, detailID string) Outcome[*FieldRecord] {
	ctx, span := tracer.Start(ctx, "DetailSession.extractSpecs")
	defer span.End()

	table, found, err := s.resolver.Resolve(ctx,
		specsCandidates(s.config.SpecsTimeout), TableBar, "table")
	if err != nil {
		return Malformed[*FieldRecord](err.Error())
	}
	if !found {
		return NotFound[*FieldRecord]("no specs table matched")
	}
	record := SpecsFromTable(detailID, table)
	if record.Empty() {
		return NotFound[*FieldRecord]("specs table held no usable rows")
	}
	return Success(record)
}

func (s *DetailSession) extractHistory(ctx context.Context, detailID string) Outcome[[]HistoryEntry] {
	ctx, span := tracer.Start(ctx, "DetailSession.extractHistory")
	defer span.End()

	table, found, err := s.resolver.Resolve(ctx,
		historyCandidates(s.config.PanelTimeout), TableBar, "")
	if err != nil {
		return Malformed[[]HistoryEntry](err.Error())
	}
	if !found {
		return NotFound[[]HistoryEntry]("no history table matched")
	}
	return Success(HistoryFromTable(detailID, table, s.origin))
}

func (s *DetailSession) extractNews(ctx context.Context, detailID string) Outcome[[]NewsItem] {
	ctx, span := tracer.Start(ctx, "DetailSession.extractNews")
	defer span.End()

	container, found, err := s.resolver.Resolve(ctx,
		newsCandidates(s.config.PanelTimeout), AnyBar, "")
	if err != nil {
		return Malformed[[]NewsItem](err.Error())
	}
	if found {
		return Success(NewsFromContainer(ctx, detailID, container, s.origin))
	}

	// No tag list anywhere. Scan the raw detail panel for anchors that
	// look like article links before giving up.
	doc, err := s.resolver.document(ctx)
	if err != nil {
		return Malformed[[]NewsItem](err.Error())
	}
	panel := doc.Find(".half.last.details").First()
	if panel.Length() == 0 {
		panel = doc.Find(".overlay__content").First()
	}
	if panel.Length() == 0 {
		return NotFound[[]NewsItem]("no news container matched")
	}
	items := NewsFromPanel(detailID, panel, s.origin)
	if len(items) == 0 {
		return NotFound[[]NewsItem]("detail panel held no article links")
	}
	return Success(items)
}
