package forexfactory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ffcal/lib/browser"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Locator is one candidate way of finding a logical region. Candidates
// are tried strictly in declaration order; the order encodes priority,
// not exhaustiveness.
type Locator struct {
	Selector string
	Timeout  time.Duration
}

func Candidates(timeout time.Duration, selectors ...string) []Locator {
	out := make([]Locator, len(selectors))
	for i, s := range selectors {
		out[i] = Locator{Selector: s, Timeout: timeout}
	}
	return out
}

// StructuralBar is the minimum shape a matched element must have to be
// accepted, which is what tells a real data table apart from an empty
// or decorative one.
type StructuralBar func(sel *goquery.Selection) bool

// TableBar demands a header plus at least one data row.
func TableBar(sel *goquery.Selection) bool {
	return sel.Find("tr").Length() > 1
}

// AnyBar accepts any non-empty match.
func AnyBar(sel *goquery.Selection) bool {
	return sel.Length() > 0
}

// Resolver finds logical regions of the rendered document through
// ordered candidate locators.
type Resolver struct {
	page Page
}

func NewResolver(page Page) Resolver {
	return Resolver{page: page}
}

func (r Resolver) document(ctx context.Context) (*goquery.Document, error) {
	html, err := r.page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// Resolve tries each candidate in order and returns the first match
// that clears the bar. When every candidate fails and baseType is
// non-empty, it falls back to scanning all elements of that base type
// in the current document. found=false is an expected outcome, not an
// error; err is reserved for driver failures.
func (r Resolver) Resolve(ctx context.Context, candidates []Locator, bar StructuralBar, baseType string) (sel *goquery.Selection, found bool, err error) {
	ctx, span := tracer.Start(ctx, "resolver:Resolve")
	defer span.End()

	for _, c := range candidates {
		err := r.page.WaitVisible(ctx, c.Selector, c.Timeout)
		if errors.Is(err, browser.ErrWaitTimeout) {
			// a timed-out candidate just means "try the next one"
			slog.DebugContext(ctx, "candidate selector timed out", "selector", c.Selector)
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "wait failed")
			return nil, false, err
		}

		doc, err := r.document(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to snapshot document")
			return nil, false, err
		}

		match := doc.Find(c.Selector)
		if match.Length() == 0 {
			continue
		}
		first := pickFirst(match, bar)
		if first == nil {
			slog.DebugContext(ctx, "candidate matched but failed structural bar", "selector", c.Selector)
			continue
		}

		slog.DebugContext(ctx, "resolved region", "selector", c.Selector)
		span.SetAttributes(attribute.String("selector", c.Selector))
		return first, true, nil
	}

	if baseType == "" {
		return nil, false, nil
	}

	// last resort: scan every element of the base type and take the
	// first one that clears the same bar
	doc, err := r.document(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to snapshot document")
		return nil, false, err
	}
	first := pickFirst(doc.Find(baseType), bar)
	if first == nil {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, false, nil
	}

	slog.DebugContext(ctx, "resolved region through base-type scan", "base_type", baseType)
	span.SetAttributes(attribute.String("selector", baseType), attribute.Bool("fallback", true))
	return first, true, nil
}

func pickFirst(match *goquery.Selection, bar StructuralBar) *goquery.Selection {
	var out *goquery.Selection
	match.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if bar(s) {
			out = s
			return false
		}
		return true
	})
	return out
}
