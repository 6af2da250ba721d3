package scraper

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"

	"bookbargain-backend/lib/htmlutil"
	"bookbargain-backend/lib/restyutil"
	"bookbargain-backend/lib/telemetry"
	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/genre"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("bookbargain/scraper")

const (
	report_adapter_search = "adapter.search"
	report_adapter_match  = "adapter.match"
	report_adapter_detail = "adapter.detail"
	report_adapter_scrape = "adapter.scrape"
)

// site is everything that differs between sources: where to search, how to
// pick a result and how to read a product page.
type site interface {
	source() book.Source
	defaultBaseUrl() string
	searchUrl(base *url.URL, query string) string
	// bestMatch returns the href of the search result that best matches the
	// query, it may be relative.
	bestMatch(doc *goquery.Document, query string) (string, bool)
	// extract reads a product page, fields it cannot find are left empty or
	// Unknown.
	extract(doc *goquery.Document, query string) book.Record
}

// Adapter scrapes a single source. It never fails: whatever goes wrong, the
// caller gets a record, in the worst case book.Empty(query, source).
type Adapter struct {
	site        site
	client      *Client
	diagnostics restyutil.Output
	tel         telemetry.API
	artifactId  *uint64
}

type AdapterOptions struct {
	Client ClientOptions
	// Diagnostics, if set, receives the raw search page whenever no result
	// could be matched.
	Diagnostics restyutil.Output
	Tel         telemetry.API
}

func siteFor(source book.Source) (site, error) {
	switch source {
	case book.Amazon:
		return amazon{}, nil
	case book.Bookswagon:
		return bookswagon{}, nil
	case book.Kitabay:
		return kitabay{}, nil
	}
	return nil, fmt.Errorf("no adapter for %s", source)
}

func NewAdapter(source book.Source, opts AdapterOptions) (Adapter, error) {
	s, err := siteFor(source)
	if err != nil {
		return Adapter{}, err
	}

	tel := opts.Tel
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	tel = telemetry.NewScopedAPI(source.String(), tel)

	clientOpts := opts.Client
	if clientOpts.BaseUrl == "" {
		clientOpts.BaseUrl = s.defaultBaseUrl()
	}
	if clientOpts.Tel == nil {
		clientOpts.Tel = opts.Tel
	}
	client, err := NewClient(source.String(), clientOpts)
	if err != nil {
		return Adapter{}, err
	}

	var artifactId uint64
	return Adapter{
		site:        s,
		client:      client,
		diagnostics: opts.Diagnostics,
		tel:         tel,
		artifactId:  &artifactId,
	}, nil
}

func (a Adapter) Source() book.Source {
	return a.site.source()
}

type outcome string

const (
	outcomeOk        outcome = "ok"
	outcomeNoPrice   outcome = "no_price"
	outcomeNoMatch   outcome = "no_match"
	outcomeTransport outcome = "transport"
	outcomePanic     outcome = "panic"
)

// Scrape searches the source for query and reads the best matching product
// page.
func (a Adapter) Scrape(ctx context.Context, query string) (record book.Record) {
	source := a.Source()
	ctx, span := tracer.Start(ctx, fmt.Sprintf("scraper:%s", source))
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	result := outcomePanic
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, "adapter panicked")
			a.tel.ReportBroken(report_adapter_scrape, err, query)
			record = book.Empty(query, source)
		}
		recordOutcome(ctx, source, result)
	}()

	record, result = a.scrape(ctx, query)
	span.SetAttributes(attribute.String("outcome", string(result)))
	return record
}

func (a Adapter) scrape(ctx context.Context, query string) (book.Record, outcome) {
	source := a.Source()
	empty := book.Empty(query, source)

	searchUrl := a.site.searchUrl(a.client.Base(), query)
	doc, body, err := a.client.Fetch(ctx, searchUrl)
	if err != nil {
		a.tel.ReportWarning(report_adapter_search, err, query)
		return empty, outcomeTransport
	}

	href, ok := a.site.bestMatch(doc, query)
	if !ok {
		a.tel.ReportWarning(report_adapter_match, fmt.Errorf("no result matched"), query)
		a.keepArtifact("no-match", body)
		return empty, outcomeNoMatch
	}

	origin := a.origin()
	detailUrl, err := htmlutil.Resolve(origin, href)
	if err != nil {
		a.tel.ReportWarning(report_adapter_match, err, href)
		return empty, outcomeNoMatch
	}
	a.tel.ReportDebug("matched result", query, detailUrl)

	doc, _, err = a.client.Fetch(ctx, detailUrl)
	if err != nil {
		a.tel.ReportWarning(report_adapter_detail, err, detailUrl)
		return empty, outcomeTransport
	}

	record := a.site.extract(doc, query)
	record.Source = source
	record.ImageURL = resolveImage(origin, record.ImageURL)
	if book.IsUnknown(record.Title) {
		record.Title = query
	}
	if book.IsUnknown(record.Genre) {
		description := record.Description
		if description == book.NoDescription {
			description = ""
		}
		record.Genre = genre.Classify(record.Title, description)
	}
	record = record.Sanitized()

	if !record.HasPrice() {
		a.tel.ReportDebug("no price extracted", detailUrl)
		return record, outcomeNoPrice
	}
	return record, outcomeOk
}

// origin is the scheme and host relative links of the source resolve
// against, whatever path the search page lives under.
func (a Adapter) origin() *url.URL {
	base := a.client.Base()
	return &url.URL{Scheme: base.Scheme, Host: base.Host}
}

// resolveImage makes a relative image path absolute, absolute URLs are
// returned as they are.
func resolveImage(origin *url.URL, image string) string {
	ref, err := url.Parse(image)
	if err != nil || ref.IsAbs() || ref.Host != "" || image == "" || book.IsUnknown(image) {
		return image
	}
	resolved, err := htmlutil.Resolve(origin, image)
	if err != nil {
		return image
	}
	return resolved
}

func (a Adapter) keepArtifact(kind string, body []byte) {
	if a.diagnostics == nil || len(body) == 0 {
		return
	}
	id := atomic.AddUint64(a.artifactId, 1)
	a.diagnostics.Write(
		fmt.Sprintf("%s-%s-%d.html", a.Source(), kind, id),
		string(body),
	)
}
