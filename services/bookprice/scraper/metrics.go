package scraper

import (
	"context"

	"bookbargain-backend/services/bookprice/book"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("bookbargain/scraper")

var scrapeResults, _ = meter.Int64Counter(
	"scrape_results",
	metric.WithDescription("adapter runs by source and outcome"),
)

func recordOutcome(ctx context.Context, source book.Source, result outcome) {
	scrapeResults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source.String()),
		attribute.String("outcome", string(result)),
	))
}
