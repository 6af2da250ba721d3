package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"bookbargain-backend/lib/configutil"
)

var (
	testEnvironmentsLock  sync.Mutex
	setupTestEnvironments = map[string]bool{}
)

// SetupForTesting sets up telemetry for a test binary, at most once per service
// name. A missing telemetry.json5 is not an error in tests.
func SetupForTesting(serviceName string) func() {
	testEnvironmentsLock.Lock()
	defer testEnvironmentsLock.Unlock()

	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	err := SetupFromEnv(context.Background(), serviceName)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	return func() {
		err := Shutdown(context.Background())
		if err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}
}

// SetupFromEnv searches up the filesystem from the cwd to find a file
// called telemetry.json5 and uses it to setup telemetry. os.ErrNotExist is
// returned when there is no such file.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, config)
}
