package forexfactory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ffcal/lib/telemetry"
)

const locatorFixture = `<html><body>
<div class="calendar__detail">
	<div class="decoy-specs"><table><tr><td>only one row</td></tr></table></div>
	<table class="calendarspecs">
		<tr><td>Source</td><td>Bureau of Labor Statistics</td></tr>
		<tr><td>Frequency</td><td>Monthly</td></tr>
	</table>
</div>
</body></html>`

func TestResolvePrefersEarlierCandidate(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	page := newFakePage(locatorFixture,
		"table.calendarspecs", ".calendar__detail table")
	resolver := NewResolver(page)

	candidates := Candidates(time.Millisecond,
		"table.calendarspecs",
		".calendar__detail table",
	)
	sel, found, err := resolver.Resolve(context.Background(), candidates, TableBar, "")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, sel.HasClass("calendarspecs"))
}

func TestResolveFallsThroughInvisibleCandidates(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	// Only the last candidate ever becomes visible; the first two must
	// time out without failing the resolution.
	page := newFakePage(locatorFixture, ".calendar__detail table")
	resolver := NewResolver(page)

	candidates := Candidates(time.Millisecond,
		".does-not-exist",
		".also-missing",
		".calendar__detail table",
	)
	sel, found, err := resolver.Resolve(context.Background(), candidates, TableBar, "")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, sel.Find("tr").Length())
}

func TestResolveStructuralBarRejectsThinTables(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	// The decoy matches first in document order under this selector but
	// has a single row, so the bar should skip it.
	page := newFakePage(locatorFixture, ".calendar__detail table")
	resolver := NewResolver(page)

	candidates := Candidates(time.Millisecond, ".calendar__detail table")
	sel, found, err := resolver.Resolve(context.Background(), candidates, TableBar, "")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, sel.HasClass("calendarspecs"))
}

func TestResolveBaseTypeFallback(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	// No candidate selector is ever visible, but a structurally valid
	// table exists on the page, so the base-type scan should find it.
	page := newFakePage(locatorFixture)
	resolver := NewResolver(page)

	candidates := Candidates(time.Millisecond, ".does-not-exist")
	sel, found, err := resolver.Resolve(context.Background(), candidates, TableBar, "table")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, sel.Find("tr").Length())
}

func TestResolveNotFoundIsNotAnError(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	page := newFakePage(`<html><body><p>nothing here</p></body></html>`)
	resolver := NewResolver(page)

	candidates := Candidates(time.Millisecond, ".does-not-exist")
	_, found, err := resolver.Resolve(context.Background(), candidates, TableBar, "table")
	require.NoError(t, err)
	require.False(t, found)
}
