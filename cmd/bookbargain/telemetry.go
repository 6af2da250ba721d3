package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"bookbargain-backend/lib/serviceutil"
	"bookbargain-backend/lib/telemetry"
)

func initTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "bookbargain")
	if errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "telemetry.json5 not found, telemetry is disabled")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx, 15*time.Second)
}
