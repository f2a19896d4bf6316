package forexfactory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ffcal/lib/telemetry"
)

const detailFixture = `<html><body>
<div class="overlay__content">
	<table class="calendarspecs">
		<tr><td>Source</td><td>Bureau of Labor Statistics</td></tr>
		<tr><td>Usual Effect:</td><td>Actual greater than Forecast is good for currency</td></tr>
	</table>
	<div class="half last details">
		<table>
			<tr><td><a href="/calendar?day=jan3.2025">Jan 3 2025</a></td><td>2.1%</td><td>1.9%</td><td>1.8%</td></tr>
			<tr><td>Dec 6 2024</td><td>1.9%</td><td>1.8%</td><td>1.7%</td></tr>
		</table>
		<div class="ff_taglist">
			<a href="/news/123-cpi-comes-in-hot">CPI Comes In Hot</a>
		</div>
	</div>
</div>
</body></html>`

func fastSessionConfig() SessionConfig {
	return SessionConfig{
		BaseURL:        CalendarURL(Origin, "day=jan3.2025"),
		OverlayTimeout: time.Millisecond,
		SpecsTimeout:   time.Millisecond,
		PanelTimeout:   time.Millisecond,
		SettleInterval: time.Millisecond,
		SettleAttempts: 3,
	}
}

func TestDetailSessionAllKinds(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	page := newFakePage(detailFixture,
		".overlay__content",
		"table.calendarspecs",
		".half.last.details table",
		".half.last.details .ff_taglist",
	)
	session, err := NewDetailSession(page, fastSessionConfig(),
		Kinds{Specs: true, History: true, News: true})
	require.NoError(t, err)

	result, err := session.Run(context.Background(), "137241")
	require.NoError(t, err)
	require.True(t, result.OverlayFound)
	require.False(t, result.Failed())

	require.Len(t, page.navigated, 1)
	require.True(t, strings.HasSuffix(page.navigated[0], "#detail=137241"))

	require.Equal(t, StatusSuccess, result.Specs.Status)
	require.Equal(t, "Bureau of Labor Statistics", result.Specs.Value.Get("source"))
	require.Equal(t, "137241", result.Specs.Value.Get("detail_id"))

	require.Equal(t, StatusSuccess, result.History.Status)
	require.Len(t, result.History.Value, 2)
	require.Equal(t, "Jan 3 2025", result.History.Value[0].Date)
	require.Equal(t,
		"https://www.forexfactory.com/calendar?day=jan3.2025",
		result.History.Value[0].DateURL)

	require.Equal(t, StatusSuccess, result.News.Status)
	require.Len(t, result.News.Value, 1)
	require.Equal(t, LinkTypeNews, result.News.Value[0].LinkType)
}

func TestDetailSessionOverlayNotFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	page := newFakePage(`<html><body><p>calendar grid only</p></body></html>`)
	session, err := NewDetailSession(page, fastSessionConfig(),
		Kinds{Specs: true, History: true, News: true})
	require.NoError(t, err)

	result, err := session.Run(context.Background(), "137241")
	require.NoError(t, err)
	require.False(t, result.OverlayFound)
	require.True(t, result.Failed())
	require.Equal(t, StatusNotFound, result.Specs.Status)
	require.Equal(t, StatusNotFound, result.History.Status)
	require.Equal(t, StatusNotFound, result.News.Status)
}

func TestDetailSessionKindsFailIndependently(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	// Specs table present, but no history table or news links anywhere.
	fixture := `<html><body>
	<div class="overlay__content">
		<table class="calendarspecs">
			<tr><td>Source</td><td>BLS</td></tr>
			<tr><td>Frequency</td><td>Monthly</td></tr>
		</table>
	</div>
	</body></html>`
	page := newFakePage(fixture, ".overlay__content", "table.calendarspecs")

	session, err := NewDetailSession(page, fastSessionConfig(),
		Kinds{Specs: true, History: true, News: true})
	require.NoError(t, err)

	result, err := session.Run(context.Background(), "555")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Specs.Status)
	require.Equal(t, StatusNotFound, result.History.Status)
	require.Equal(t, StatusNotFound, result.News.Status)
	require.False(t, result.Failed())
}

func TestDetailSessionInactiveKindsUntouched(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/forexfactory")
	defer cleanup()

	page := newFakePage(detailFixture,
		".overlay__content", "table.calendarspecs")
	session, err := NewDetailSession(page, fastSessionConfig(), Kinds{Specs: true})
	require.NoError(t, err)

	result, err := session.Run(context.Background(), "137241")
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, result.Specs.Status)
	require.Equal(t, StatusNotFound, result.History.Status)
	require.Nil(t, result.History.Value)
	require.Nil(t, result.News.Value)
}
