package scraper

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookbargain-backend/lib/restyutil"
	"bookbargain-backend/lib/telemetry"
	"bookbargain-backend/services/bookprice/book"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const report_aggregate_diagnostics = "aggregate.diagnostics"

type SourceConfig struct {
	BaseUrl string `json:"base_url"`
	DelayMs int    `json:"delay_ms"`
	Retries *int   `json:"retries"`
}

func (c SourceConfig) Validate() error {
	return validation.ValidateStruct(
		&c,
		validation.Field(&c.BaseUrl, is.URL),
		validation.Field(&c.DelayMs, validation.Min(0)),
	)
}

type Config struct {
	TimeoutSeconds int    `json:"timeout_seconds"`
	Parallel       bool   `json:"parallel"`
	SourceDelayMs  int    `json:"source_delay_ms"`
	DiagnosticsDir string `json:"diagnostics_dir"`
	// ExchangesDir, if set, receives a dump of every HTTP exchange.
	ExchangesDir string                  `json:"exchanges_dir"`
	Headers      map[string]string       `json:"headers"`
	Sources      map[string]SourceConfig `json:"sources"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(
		&c,
		validation.Field(&c.TimeoutSeconds, validation.Min(0)),
		validation.Field(&c.SourceDelayMs, validation.Min(0)),
		validation.Field(&c.Sources, validation.By(func(value any) error {
			for name := range value.(map[string]SourceConfig) {
				if _, err := book.ParseSource(name); err != nil {
					return err
				}
			}
			return nil
		})),
	)
}

type AggregatorOptions struct {
	// Parallel runs every adapter at once, otherwise adapters run one after
	// the other with SourceDelay in between.
	Parallel    bool
	SourceDelay time.Duration
}

// Aggregator runs a query against every adapter.
type Aggregator struct {
	adapters []Adapter
	options  AggregatorOptions
}

func NewAggregator(options AggregatorOptions, adapters ...Adapter) Aggregator {
	sorted := make([]Adapter, len(adapters))
	copy(sorted, adapters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Source() < sorted[j].Source()
	})
	return Aggregator{adapters: sorted, options: options}
}

// NewAggregatorFromConfig builds an adapter for every known source.
func NewAggregatorFromConfig(config Config, tel telemetry.API) (Aggregator, error) {
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}

	var diagnostics restyutil.Output
	if config.DiagnosticsDir != "" {
		out, err := restyutil.NewFilesystemOutput(config.DiagnosticsDir, false)
		if err != nil {
			tel.ReportWarning(report_aggregate_diagnostics, err, config.DiagnosticsDir)
		} else {
			diagnostics = out
		}
	}

	var exchanges restyutil.Output
	if config.ExchangesDir != "" {
		out, err := restyutil.NewFilesystemOutput(config.ExchangesDir, true)
		if err != nil {
			tel.ReportWarning(report_aggregate_diagnostics, err, config.ExchangesDir)
		} else {
			exchanges = out
		}
	}

	adapters := make([]Adapter, 0, len(book.Sources))
	for _, source := range book.Sources {
		sourceConfig := config.Sources[source.String()]

		policy := DefaultPolicy()
		if sourceConfig.DelayMs > 0 {
			policy.Delay = time.Duration(sourceConfig.DelayMs) * time.Millisecond
		}
		if sourceConfig.Retries != nil {
			policy.Retries = *sourceConfig.Retries
		}

		adapter, err := NewAdapter(source, AdapterOptions{
			Client: ClientOptions{
				BaseUrl:   sourceConfig.BaseUrl,
				Headers:   config.Headers,
				Timeout:   time.Duration(config.TimeoutSeconds) * time.Second,
				Policy:    policy,
				Exchanges: exchanges,
				Tel:       tel,
			},
			Diagnostics: diagnostics,
			Tel:         tel,
		})
		if err != nil {
			return Aggregator{}, err
		}
		adapters = append(adapters, adapter)
	}

	return NewAggregator(AggregatorOptions{
		Parallel:    config.Parallel,
		SourceDelay: time.Duration(config.SourceDelayMs) * time.Millisecond,
	}, adapters...), nil
}

// Scrape returns exactly one record per adapter, in source order no matter
// which adapter finished first.
func (a Aggregator) Scrape(ctx context.Context, query string) []book.Record {
	results := make([]book.Record, len(a.adapters))

	if a.options.Parallel {
		wg := sync.WaitGroup{}
		for i, adapter := range a.adapters {
			wg.Add(1)
			go func(i int, adapter Adapter) {
				defer wg.Done()
				results[i] = adapter.Scrape(ctx, query)
			}(i, adapter)
		}
		wg.Wait()
		return results
	}

	for i, adapter := range a.adapters {
		if i > 0 && a.options.SourceDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(a.options.SourceDelay):
			}
		}
		results[i] = adapter.Scrape(ctx, query)
	}
	return results
}

// Aggregate is Scrape followed by Filter, it never returns an empty slice.
func (a Aggregator) Aggregate(ctx context.Context, query string) []book.Record {
	return Filter(query, a.Scrape(ctx, query))
}

// Filter keeps the records worth storing: those with a price, or failing
// that those that at least found a differently titled book, or failing
// that a single placeholder for the query.
func Filter(query string, records []book.Record) []book.Record {
	var priced []book.Record
	for _, r := range records {
		if r.HasPrice() {
			priced = append(priced, r)
		}
	}
	if len(priced) > 0 {
		return priced
	}

	var identified []book.Record
	for _, r := range records {
		if !book.IsUnknown(r.Title) && r.Title != query {
			identified = append(identified, r)
		}
	}
	if len(identified) > 0 {
		return identified
	}

	return []book.Record{book.Empty(query, book.DefaultSource)}
}
