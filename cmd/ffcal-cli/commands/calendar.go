package commands

import (
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ffcal/lib/browser"
	"ffcal/lib/osutil"
	"ffcal/lib/recordstore"
	"ffcal/lib/scrapers/forexfactory"
)

var calendarFlags struct {
	dateParam string
	out       string
	headless  bool
}

func init() {
	calendarCmd.Flags().StringVar(&calendarFlags.dateParam, "date-param", "",
		"Calendar date query, e.g. 'today', 'dec12.2024', 'week=this'. Empty loads the default view.")
	calendarCmd.Flags().StringVar(&calendarFlags.out, "out", "calendar.csv",
		"CSV file to write the scraped event rows to.")
	calendarCmd.Flags().BoolVar(&calendarFlags.headless, "headless", true,
		"Run the browser headless.")
	rootCmd.AddCommand(calendarCmd)
}

var calendarCmd = &cobra.Command{
	Use:   "calendar [--date-param <query>] [--out <path/to/calendar.csv>]",
	Short: "Scrapes the calendar grid for a date range and writes event stubs to CSV.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		session, err := browser.NewSession(ctx, browser.Options{
			Headless: calendarFlags.headless,
		})
		if err != nil {
			osutil.Fatal("failed to start browser", err)
		}
		defer session.Close()

		stubs, err := forexfactory.ScrapeCalendar(
			ctx, session, forexfactory.Origin, calendarFlags.dateParam)
		if err != nil {
			osutil.Fatal("failed to scrape calendar", err)
		}
		if len(stubs) == 0 {
			slog.Warn("calendar grid produced no event rows",
				"date_param", calendarFlags.dateParam)
			return
		}

		if err := recordstore.WriteStubs(calendarFlags.out, stubs); err != nil {
			osutil.Fatal("failed to write stub csv", err)
		}
		slog.Info("wrote calendar stubs",
			"file", calendarFlags.out, "events", len(stubs))

		t := table.NewWriter()
		t.AppendHeader(table.Row{"Date", "Time", "Currency", "Impact", "Event", "Detail"})
		for _, stub := range stubs {
			t.AppendRow(table.Row{
				stub.Date, stub.Time, stub.Currency, stub.Impact,
				stub.Event, stub.DetailID,
			})
		}
		cmd.Println(t.Render())
	},
}
