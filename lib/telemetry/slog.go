package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide text handler. verbose enables
// debug output, which the scraping packages use heavily to explain
// which selector fallback finally matched.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
