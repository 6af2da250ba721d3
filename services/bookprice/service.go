// Package bookprice answers book queries from stored observations, scraping
// the sources again when what is stored has gone stale.
package bookprice

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"bookbargain-backend/lib/chrono"
	"bookbargain-backend/lib/telemetry"
	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/reconcile"
	"bookbargain-backend/services/bookprice/store"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("bookbargain/bookprice")

const (
	report_store     = "store"
	report_refresh   = "refresh"
	report_refreshed = "refresher.refreshed"
)

// Scraper fetches fresh observations of a book from every source. It
// always returns at least one record.
type Scraper interface {
	Aggregate(ctx context.Context, query string) []book.Record
}

type Options struct {
	Store   store.Store
	Scraper Scraper
	// defaults to chrono.StandardTime
	Time chrono.TimeAPI
	// defaults to telemetry.SlogAPI
	Tel    telemetry.API
	Policy Policy
	// DistinctTTL is how long distinct genre and author lists are cached,
	// defaults to 10 minutes.
	DistinctTTL time.Duration
	// Pick returns a random index in [0, n), defaults to math/rand.
	Pick func(n int) int
}

type Service struct {
	store    store.Store
	scraper  Scraper
	time     chrono.TimeAPI
	tel      telemetry.API
	policy   Policy
	pick     func(n int) int
	isbns    *keyedLock
	distinct *expirable.LRU[store.Field, []string]
}

func NewService(opts Options) *Service {
	if opts.Time == nil {
		opts.Time = chrono.NewStandardTime()
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}
	if opts.DistinctTTL <= 0 {
		opts.DistinctTTL = 10 * time.Minute
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	return &Service{
		store:    opts.Store,
		scraper:  opts.Scraper,
		time:     opts.Time,
		tel:      telemetry.NewScopedAPI("bookprice", opts.Tel),
		policy:   opts.Policy,
		pick:     opts.Pick,
		isbns:    newKeyedLock(),
		distinct: expirable.NewLRU[store.Field, []string](8, nil, opts.DistinctTTL),
	}
}

// scrape aggregates query and stamps every record with the current time.
// The records are nil when ctx was cancelled during the scrape.
func (s *Service) scrape(ctx context.Context, query string) ([]book.Record, error) {
	records := s.scraper.Aggregate(ctx, query)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	now := s.time.Now()
	for i := range records {
		records[i] = records[i].Sanitized().Observed(now)
	}
	s.tel.ReportDebug("scraped", "query", query, "records", len(records))
	return records, nil
}

type SearchRequest struct {
	Query    string
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

type SearchResult struct {
	Query string `json:"query"`
	// Scraped is true when the sources were scraped to answer the query.
	Scraped bool               `json:"scraped"`
	Books   []reconcile.Entity `json:"books"`
}

// Search finds every stored book whose title, author or genre contains the
// query. When nothing fresh is stored the sources are scraped and the result
// persisted before answering.
func (s *Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return SearchResult{}, invalidRequest("empty query")
	}

	ctx, span := tracer.Start(ctx, "Search", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	filter := store.Filter{Text: query}
	records, err := s.store.Query(ctx, filter)
	if err != nil {
		return SearchResult{}, s.storeFailure("search", err)
	}

	result := SearchResult{Query: query}
	if !s.policy.Fresh(records, s.time.Now()) {
		scraped, err := s.scrape(ctx, query)
		if err != nil {
			return SearchResult{}, err
		}
		err = s.store.Insert(ctx, scraped...)
		if err != nil {
			return SearchResult{}, s.storeFailure("persist scrape", err)
		}
		s.distinct.Purge()
		result.Scraped = true

		records, err = s.store.Query(ctx, filter)
		if err != nil {
			return SearchResult{}, s.storeFailure("search", err)
		}
		// the sources may title a book differently from how it was asked
		// for, the scrape itself still answers the query
		if len(records) == 0 {
			records = scraped
		}
	}

	result.Books = reconcile.FilterByPrice(reconcile.Group(records), req.MinPrice, req.MaxPrice)
	if result.Books == nil {
		result.Books = []reconcile.Entity{}
	}
	span.SetAttributes(attribute.Int("books", len(result.Books)))
	return result, nil
}

func cleanISBN(isbn string) (string, error) {
	isbn = strings.TrimSpace(isbn)
	switch isbn {
	case "", "True", "False", book.Unknown:
		return "", ErrInvalidISBN
	}
	if normalized := book.NormalizeISBN(isbn); normalized != book.Unknown {
		return normalized, nil
	}
	return strings.ReplaceAll(isbn, "-", ""), nil
}

// BookByISBN reconciles every stored record of isbn. When nothing matches
// exactly, ISBNs of at least 10 characters also match stored ISBNs that
// contain them.
func (s *Service) BookByISBN(ctx context.Context, isbn string) (reconcile.Detail, error) {
	isbn, err := cleanISBN(isbn)
	if err != nil {
		return reconcile.Detail{}, err
	}

	records, err := s.store.Query(ctx, store.Filter{ISBN: isbn})
	if err != nil {
		return reconcile.Detail{}, s.storeFailure("book by isbn", err)
	}
	if len(records) == 0 && len(isbn) >= 10 {
		records, err = s.store.Query(ctx, store.Filter{ISBNLike: isbn})
		if err != nil {
			return reconcile.Detail{}, s.storeFailure("book by partial isbn", err)
		}
	}
	if len(records) == 0 {
		return reconcile.Detail{}, ErrNotFound
	}
	return reconcile.Reconcile(records), nil
}

// BookByName reconciles every stored record whose title contains name.
func (s *Service) BookByName(ctx context.Context, name string) (reconcile.Detail, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return reconcile.Detail{}, invalidRequest("empty name")
	}
	records, err := s.store.Query(ctx, store.Filter{Title: name})
	if err != nil {
		return reconcile.Detail{}, s.storeFailure("book by name", err)
	}
	if len(records) == 0 {
		return reconcile.Detail{}, ErrNotFound
	}
	return reconcile.Reconcile(records), nil
}

// found reports whether a scrape yielded the book again: some record carries
// isbn or a price. Placeholders from failed sources carry neither.
func found(isbn string, records []book.Record) bool {
	for _, r := range records {
		if r.HasPrice() || (r.HasISBN() && r.ISBN == isbn) {
			return true
		}
	}
	return false
}

// Refresh scrapes the book stored under isbn again and replaces every
// stored record of it with the result. Refreshes of the same ISBN never
// overlap. When no source yields the book the stored records are kept and
// ErrSourcesUnavailable is returned.
func (s *Service) Refresh(ctx context.Context, isbn string) (reconcile.Detail, error) {
	isbn, err := cleanISBN(isbn)
	if err != nil {
		return reconcile.Detail{}, err
	}

	ctx, span := tracer.Start(ctx, "Refresh", trace.WithAttributes(
		attribute.String("isbn", isbn),
	))
	defer span.End()

	unlock := s.isbns.Lock(isbn)
	defer unlock()

	previous, err := s.store.Query(ctx, store.Filter{ISBN: isbn, Limit: 1})
	if err != nil {
		return reconcile.Detail{}, s.storeFailure("refresh lookup", err)
	}
	if len(previous) == 0 {
		return reconcile.Detail{}, ErrNotFound
	}

	scraped, err := s.scrape(ctx, previous[0].Title)
	if err != nil {
		return reconcile.Detail{}, err
	}
	if !found(isbn, scraped) {
		s.tel.ReportWarning(report_refresh, "isbn", isbn, "title", previous[0].Title, ErrSourcesUnavailable)
		return reconcile.Detail{}, fmt.Errorf("refresh %s: %w", isbn, ErrSourcesUnavailable)
	}
	err = s.store.ReplaceISBN(ctx, isbn, scraped)
	if err != nil {
		return reconcile.Detail{}, s.storeFailure("replace isbn", err)
	}
	s.distinct.Purge()

	s.tel.ReportDebug("refreshed", "isbn", isbn, "title", previous[0].Title, "records", len(scraped))
	return reconcile.Reconcile(scraped), nil
}

// Ping checks that the store can be reached.
func (s *Service) Ping(ctx context.Context) error {
	err := s.store.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
