package scraper

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	devenv "bookbargain-backend/dev/env"
	"bookbargain-backend/lib/telemetry"
	"bookbargain-backend/services/bookprice/book"

	"github.com/stretchr/testify/require"
)

// liveConfig is read from dev/.state/scraper_live.json5, for example:
//
//	{
//	  query: "The Hobbit",
//	  scraper: { timeout_seconds: 20, parallel: true },
//	}
type liveConfig struct {
	Query   string `json:"query"`
	Scraper Config `json:"scraper"`
}

func TestLiveAggregate(t *testing.T) {
	config, err := devenv.GetStateConfig[liveConfig]("scraper_live.json5")
	if errors.Is(err, os.ErrNotExist) {
		t.Skip("no dev/.state/scraper_live.json5, skipping live scrape")
	}
	require.NoError(t, err)
	require.NotEmpty(t, config.Query)

	cleanup := telemetry.SetupForTesting("test:scraper_live")
	defer cleanup()

	aggregator, err := NewAggregatorFromConfig(config.Scraper, telemetry.SlogAPI{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	records := aggregator.Scrape(ctx, config.Query)
	require.Len(t, records, len(book.Sources))
	for i, r := range records {
		require.Equal(t, book.Sources[i], r.Source)
		t.Logf("%s: %s %s %s", r.Source, r.Title, r.ISBN, r.Price)
	}
}
