package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ffcal/lib/osutil"
	"ffcal/lib/recordstore"
	"ffcal/lib/textutil"
)

var queryFlags struct {
	file   string
	fields []string
	match  string
}

func init() {
	queryCmd.Flags().StringVar(&queryFlags.file, "file", "event_specs.csv",
		"Wide CSV (as written by the details command) to query.")
	queryCmd.Flags().StringSliceVar(&queryFlags.fields, "fields", nil,
		"Columns to show. Unknown names get a closest-match suggestion.")
	queryCmd.Flags().StringVar(&queryFlags.match, "event", "",
		"Only show rows whose event name contains this text.")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query [--file <specs.csv>] [--fields <a,b,c>] [--event <name>]",
	Short: "Queries a scraped wide CSV, selecting columns and filtering by event name.",
	Run: func(cmd *cobra.Command, args []string) {
		header, rows, err := recordstore.ReadTable(queryFlags.file)
		if err != nil {
			osutil.Fatal("failed to read csv", err)
		}

		columns, err := selectColumns(header, queryFlags.fields)
		if err != nil {
			osutil.Fatal("bad --fields", err)
		}

		nameCol := indexOf(header, "event_name")
		t := table.NewWriter()
		headerRow := make(table.Row, len(columns))
		for i, c := range columns {
			headerRow[i] = header[c]
		}
		t.AppendHeader(headerRow)

		shown := 0
		for _, row := range rows {
			if queryFlags.match != "" && nameCol >= 0 {
				name := ""
				if nameCol < len(row) {
					name = row[nameCol]
				}
				matcher := textutil.NormalizeName(queryFlags.match)
				if !textutil.MatchName(name, []string{matcher}) {
					continue
				}
			}
			out := make(table.Row, len(columns))
			for i, c := range columns {
				if c < len(row) {
					out[i] = row[c]
				}
			}
			t.AppendRow(out)
			shown++
		}
		cmd.Println(t.Render())
		cmd.Printf("%d of %d rows\n", shown, len(rows))
	},
}

// selectColumns maps requested field names to header indexes. A name
// with no exact match fails with the lexically closest column, so a
// typo like "previos_value" points at "previous_value".
func selectColumns(header, fields []string) ([]int, error) {
	if len(fields) == 0 {
		columns := make([]int, len(header))
		for i := range header {
			columns[i] = i
		}
		return columns, nil
	}

	var columns []int
	for _, field := range fields {
		want := strings.ToLower(strings.TrimSpace(field))
		i := indexOf(header, want)
		if i < 0 {
			return nil, fmt.Errorf("no column %q, did you mean %q?",
				field, closestColumn(header, want))
		}
		columns = append(columns, i)
	}
	return columns, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func closestColumn(header []string, want string) string {
	type scored struct {
		name     string
		distance int
	}
	candidates := make([]scored, len(header))
	for i, h := range header {
		candidates[i] = scored{h, matchr.DamerauLevenshtein(want, h)}
	}
	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].distance < candidates[b].distance
	})
	return candidates[0].name
}
