package recordstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"ffcal/lib/scrapers/forexfactory"
	"ffcal/lib/textutil"
)

// Column order the calendar-stub CSV uses. "detail" holds the detail ID.
var stubColumns = []string{
	"date", "time", "currency", "impact", "event",
	"actual", "forecast", "previous", "detail",
}

// WriteTable writes a header plus rows to path, creating parent files
// as needed. Short rows are padded with empty cells so every line has
// the full column count.
func WriteTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadStubs loads event stubs from a calendar CSV. Column lookup is by
// header name so extra columns and reordering are tolerated; cell
// values are whitespace-collapsed. Rows without a detail ID are
// dropped since they cannot be scraped.
func ReadStubs(r io.Reader) ([]forexfactory.EventStub, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read stub header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(textutil.CollapseWhitespace(name))] = i
	}
	if _, ok := index["detail"]; !ok {
		return nil, fmt.Errorf("stub file is missing a %q column", "detail")
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return textutil.CollapseWhitespace(row[i])
	}

	var stubs []forexfactory.EventStub
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read stub row: %w", err)
		}
		stub := forexfactory.EventStub{
			DetailID: cell(row, "detail"),
			Date:     cell(row, "date"),
			Time:     cell(row, "time"),
			Currency: cell(row, "currency"),
			Impact:   cell(row, "impact"),
			Event:    cell(row, "event"),
			Actual:   cell(row, "actual"),
			Forecast: cell(row, "forecast"),
			Previous: cell(row, "previous"),
		}
		if stub.DetailID == "" {
			continue
		}
		stubs = append(stubs, stub)
	}
	return stubs, nil
}

// ReadStubsFile is ReadStubs over a file path.
func ReadStubsFile(path string) ([]forexfactory.EventStub, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadStubs(f)
}

// WriteStubs writes stubs back out in the canonical stub column order.
func WriteStubs(path string, stubs []forexfactory.EventStub) error {
	rows := make([][]string, 0, len(stubs))
	for _, stub := range stubs {
		rows = append(rows, []string{
			stub.Date, stub.Time, stub.Currency, stub.Impact, stub.Event,
			stub.Actual, stub.Forecast, stub.Previous, stub.DetailID,
		})
	}
	return WriteTable(path, stubColumns, rows)
}

// ReadTable loads an arbitrary wide CSV (as written by WriteTable) for
// querying.
func ReadTable(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err = reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
