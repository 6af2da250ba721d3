package main

import (
	"bookbargain-backend/cmd/bookbargain-cli/commands"
	"bookbargain-backend/lib/serviceutil"
	"bookbargain-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "bookbargain-cli")
	commands.ExecuteContext(ctx)
}
