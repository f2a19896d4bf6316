package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ffcal/lib/browser"
	"ffcal/lib/configutil"
	"ffcal/lib/osutil"
	"ffcal/lib/recordstore"
	"ffcal/lib/restyutil"
	"ffcal/lib/scrapers/forexfactory"
	"ffcal/lib/telemetry"
)

var detailsFlags struct {
	csvFile   string
	dateParam string
	specs     bool
	history   bool
	news      bool
	enrich    bool
	debugHTTP bool
	db        string
	outDir    string
	headless  bool
	limit     int
}

func init() {
	detailsCmd.Flags().StringVar(&detailsFlags.csvFile, "csv-file", "",
		"Stub CSV (as written by the calendar command) listing the events to scrape.")
	detailsCmd.Flags().StringVar(&detailsFlags.dateParam, "date-param", "",
		"Scrape the calendar grid for this date query instead of reading a stub CSV.")
	detailsCmd.Flags().BoolVar(&detailsFlags.specs, "specs", true,
		"Extract the specs table for each event.")
	detailsCmd.Flags().BoolVar(&detailsFlags.history, "history", true,
		"Extract the history table for each event.")
	detailsCmd.Flags().BoolVar(&detailsFlags.news, "news", true,
		"Extract linked news for each event.")
	detailsCmd.Flags().BoolVar(&detailsFlags.enrich, "enrich-news", false,
		"Fetch linked articles over HTTP to fill in missing snippets.")
	detailsCmd.Flags().BoolVar(&detailsFlags.debugHTTP, "debug-http", false,
		"Dump every enricher HTTP exchange to .dev/resty/enricher.")
	detailsCmd.Flags().StringVar(&detailsFlags.db, "db", "",
		"Optional sqlite database to persist results to.")
	detailsCmd.Flags().StringVar(&detailsFlags.outDir, "out-dir", ".",
		"Directory to write the specs/history/news CSV files to.")
	detailsCmd.Flags().BoolVar(&detailsFlags.headless, "headless", true,
		"Run the browser headless.")
	detailsCmd.Flags().IntVar(&detailsFlags.limit, "limit", 0,
		"Scrape at most this many events (0 means all).")
	rootCmd.AddCommand(detailsCmd)
}

// scrapeConfig tunes pacing and the browser from scraper.json5 (with
// scraper.local.json5 overrides). Every field is optional; flags and
// built-in defaults cover the rest.
type scrapeConfig struct {
	Origin        string `json:"origin"`
	DelayPerIDMs  int    `json:"delay_per_id_ms"`
	BatchDelayMs  int    `json:"batch_delay_ms"`
	BatchEvery    int    `json:"batch_every"`
	JitterMs      int    `json:"jitter_ms"`
	NavIntervalMs int    `json:"nav_interval_ms"`
	SetupRetries  uint64 `json:"setup_retries"`
}

func readScrapeConfig() scrapeConfig {
	cfg, err := configutil.ReadConfig[scrapeConfig]("scraper.json5")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		osutil.Fatal("failed to read scraper.json5", err)
	}
	if cfg.Origin == "" {
		cfg.Origin = forexfactory.Origin
	}
	return cfg
}

func (c scrapeConfig) batchConfig() forexfactory.BatchConfig {
	return forexfactory.BatchConfig{
		Session: forexfactory.SessionConfig{
			BaseURL: forexfactory.CalendarURL(c.Origin, ""),
			Origin:  c.Origin,
		},
		DelayPerID:   time.Duration(c.DelayPerIDMs) * time.Millisecond,
		BatchDelay:   time.Duration(c.BatchDelayMs) * time.Millisecond,
		BatchEvery:   c.BatchEvery,
		JitterMillis: c.JitterMs,
		NavInterval:  time.Duration(c.NavIntervalMs) * time.Millisecond,
		SetupRetries: c.SetupRetries,
	}
}

var detailsCmd = &cobra.Command{
	Use:   "details (--csv-file <stubs.csv> | --date-param <query>) [--specs] [--history] [--news]",
	Short: "Opens each event's detail overlay and extracts specs, history and news tables.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		telemetry.InstrumentPerfStats(ctx)

		kinds := forexfactory.Kinds{
			Specs:   detailsFlags.specs,
			History: detailsFlags.history,
			News:    detailsFlags.news,
		}
		if !kinds.Any() {
			osutil.Fatal("nothing to do",
				errors.New("at least one of --specs, --history, --news must be set"))
		}

		cfg := readScrapeConfig()
		stubs := loadStubs(ctx, cfg.Origin)
		if detailsFlags.limit > 0 && len(stubs) > detailsFlags.limit {
			stubs = stubs[:detailsFlags.limit]
		}
		if len(stubs) == 0 {
			slog.Warn("no events to scrape")
			return
		}
		detailIDs := make([]string, len(stubs))
		for i, stub := range stubs {
			detailIDs[i] = stub.DetailID
		}
		slog.Info("starting detail batch", "events", len(detailIDs))

		factory := func(ctx context.Context) (forexfactory.Page, func(), error) {
			session, err := browser.NewSession(ctx, browser.Options{
				Headless: detailsFlags.headless,
			})
			if err != nil {
				return nil, nil, err
			}
			return session, func() {
				if err := session.Close(); err != nil {
					slog.Warn("failed to close browser session", "err", err)
				}
			}, nil
		}

		batchConfig := cfg.batchConfig()
		if batchConfig.JitterMillis == 0 {
			batchConfig.JitterMillis = 750
		}
		orchestrator := forexfactory.NewBatchOrchestrator(factory, batchConfig, kinds)
		results, stats, err := orchestrator.Run(ctx, detailIDs)
		if err != nil {
			slog.Error("batch aborted", "err", err,
				"processed", stats.Processed, "failed", stats.Failed)
		}

		aggregator := forexfactory.NewAggregator(stubs)
		var enricher *forexfactory.Enricher
		if detailsFlags.enrich {
			if detailsFlags.debugHTTP {
				forexfactory.SetHTTPDebugOutput(
					restyutil.NewFilesystemOutput(".dev/resty/enricher"))
			}
			enricher, err = forexfactory.NewEnricher(cfg.Origin)
			if err != nil {
				osutil.Fatal("failed to build news enricher", err)
			}
		}
		for _, result := range results {
			if enricher != nil && result.News.Status == forexfactory.StatusSuccess {
				result.News.Value = enricher.EnrichNews(ctx, result.News.Value)
			}
			aggregator.Add(result)
		}

		writeOutputs(ctx, stubs, results, aggregator, kinds)
		printSummary(cmd, aggregator, stats)
	},
}

func loadStubs(ctx context.Context, origin string) []forexfactory.EventStub {
	if detailsFlags.csvFile != "" {
		stubs, err := recordstore.ReadStubsFile(detailsFlags.csvFile)
		if err != nil {
			osutil.Fatal("failed to read stub csv", err)
		}
		return stubs
	}

	session, err := browser.NewSession(ctx, browser.Options{
		Headless: detailsFlags.headless,
	})
	if err != nil {
		osutil.Fatal("failed to start browser", err)
	}
	defer session.Close()

	stubs, err := forexfactory.ScrapeCalendar(
		ctx, session, origin, detailsFlags.dateParam)
	if err != nil {
		osutil.Fatal("failed to scrape calendar", err)
	}
	return stubs
}

func writeOutputs(ctx context.Context, stubs []forexfactory.EventStub, results []forexfactory.Result, aggregator *forexfactory.Aggregator, kinds forexfactory.Kinds) {
	write := func(name string, header []string, rows [][]string) {
		path := filepath.Join(detailsFlags.outDir, name)
		if err := recordstore.WriteTable(path, header, rows); err != nil {
			osutil.Fatal("failed to write "+name, err)
		}
		slog.Info("wrote output", "file", path, "rows", len(rows))
	}
	if kinds.Specs {
		header, rows := aggregator.SpecsTable()
		write("event_specs.csv", header, rows)
	}
	if kinds.History {
		header, rows := aggregator.HistoryTable()
		write("event_history.csv", header, rows)
	}
	if kinds.News {
		header, rows := aggregator.NewsTable()
		write("event_news.csv", header, rows)
	}

	if detailsFlags.db == "" {
		return
	}
	store, err := recordstore.Open(ctx, detailsFlags.db)
	if err != nil {
		osutil.Fatal("failed to open db", err)
	}
	defer store.Close()
	if err := store.SaveBatch(ctx, stubs, results); err != nil {
		osutil.Fatal("failed to save results to db", err)
	}
	slog.Info("saved results", "db", detailsFlags.db)
}

func printSummary(cmd *cobra.Command, aggregator *forexfactory.Aggregator, stats forexfactory.BatchStats) {
	specs, history, news := aggregator.Counts()
	if specs == 0 && history == 0 && news == 0 {
		slog.Warn("batch produced no records",
			"processed", stats.Processed, "failed", stats.Failed)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"events processed", stats.Processed},
		{"events failed", stats.Failed},
		{"specs records", specs},
		{"history rows", history},
		{"news items", news},
		{"elapsed", stats.Elapsed.Round(time.Second)},
	})
	cmd.Println(t.Render())
}
