package main

import (
	"errors"
	"log/slog"
	"os"

	"ffcal/cmd/ffcal-cli/commands"
	"ffcal/lib/osutil"
	"ffcal/lib/telemetry"
)

func main() {
	ctx := osutil.SignalContext()

	tele, err := telemetry.SetupFromEnv(ctx, "ffcal-cli")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to setup telemetry", "err", err)
	}
	defer tele.Shutdown(ctx)
	telemetry.InitSlog(true)

	commands.ExecuteContext(ctx)
}
