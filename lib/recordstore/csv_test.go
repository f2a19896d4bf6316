package recordstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"ffcal/lib/scrapers/forexfactory"
)

func TestReadStubs(t *testing.T) {
	// The quoted cell wraps across lines on purpose: scraped event names
	// sometimes contain newlines and the reader has to fold them away.
	input := `date,time,currency,impact,event,actual,forecast,previous,detail
Fri Jan 3,  8:30am ,USD,High Impact Expected,Non-Farm Employment Change,256K,164K,212K,137241
Fri Jan 3,10:00am,USD,,ISM Services PMI,,,52.1,
Mon Jan 6,All Day,EUR,Low Impact Expected,"German Prelim
CPI",,,,137250
`
	stubs, err := ReadStubs(strings.NewReader(input))
	require.NoError(t, err)
	// The row without a detail id is dropped.
	require.Len(t, stubs, 2)

	require.Equal(t, "137241", stubs[0].DetailID)
	require.Equal(t, "8:30am", stubs[0].Time)
	require.Equal(t, "German Prelim CPI", stubs[1].Event)
}

func TestReadStubsHeaderReordered(t *testing.T) {
	input := `detail,event,date,extra
137241,Non-Farm Employment Change,Fri Jan 3,ignored
`
	stubs, err := ReadStubs(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, stubs, 1)
	require.Equal(t, "137241", stubs[0].DetailID)
	require.Equal(t, "Fri Jan 3", stubs[0].Date)
}

func TestReadStubsMissingDetailColumn(t *testing.T) {
	_, err := ReadStubs(strings.NewReader("date,event\nFri Jan 3,NFP\n"))
	require.Error(t, err)
}

func TestWriteTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specs.csv")

	header := []string{"detail_id", "source", "frequency"}
	rows := [][]string{
		{"1", "BLS", "Monthly"},
		{"2", "Eurostat"},
	}
	require.NoError(t, WriteTable(path, header, rows))

	gotHeader, gotRows, err := ReadTable(path)
	require.NoError(t, err)
	require.Equal(t, header, gotHeader)
	// The short row comes back padded to the full width.
	want := [][]string{
		{"1", "BLS", "Monthly"},
		{"2", "Eurostat", ""},
	}
	if diff := cmp.Diff(want, gotRows); diff != "" {
		t.Fatalf("rows did not round trip:\n%s", diff)
	}
}

func TestWriteStubsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendar.csv")
	stubs := []forexfactory.EventStub{{
		DetailID: "137241",
		Date:     "Fri Jan 3",
		Time:     "8:30am",
		Currency: "USD",
		Impact:   "High Impact Expected",
		Event:    "Non-Farm Employment Change",
		Actual:   "256K",
		Forecast: "164K",
		Previous: "212K",
	}}
	require.NoError(t, WriteStubs(path, stubs))

	got, err := ReadStubsFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(stubs, got); diff != "" {
		t.Fatalf("stubs did not round trip:\n%s", diff)
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw),
		"date,time,currency,impact,event,actual,forecast,previous,detail"))
}
