package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"bookbargain-backend/lib/restyutil"
	"bookbargain-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultHeaders are sent with every request unless overridden, they mimic
// a desktop browser arriving from a search engine.
var DefaultHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Referer":                   "https://www.google.com/",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
	"Cache-Control":             "max-age=0",
}

// Policy decides how politely a single source is treated.
type Policy struct {
	// Delay is the minimum spacing between two requests to the source.
	Delay time.Duration
	// Burst is how many requests may be made back to back before Delay
	// applies.
	Burst int
	// Retries is how many times a request failing with a network error, a
	// 429 or a 5xx is retried, with exponential backoff between RetryWait
	// and RetryMaxWait.
	Retries      int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Delay:        2 * time.Second,
		Burst:        1,
		Retries:      2,
		RetryWait:    time.Second,
		RetryMaxWait: 8 * time.Second,
	}
}

func (p Policy) limiter() *rate.Limiter {
	burst := p.Burst
	if burst < 1 {
		burst = 1
	}
	if p.Delay <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(p.Delay), burst)
}

type ClientOptions struct {
	// BaseUrl is the origin search and relative detail links are resolved
	// against.
	BaseUrl string
	// Headers are merged over DefaultHeaders.
	Headers map[string]string
	// Timeout bounds every single network call.
	Timeout time.Duration
	Policy  Policy
	// Exchanges, if set, receives a dump of every HTTP exchange.
	Exchanges restyutil.Output
	Tel       telemetry.API
}

// Client fetches pages from a single source, it holds no state besides its
// connection pool and rate limiter.
type Client struct {
	base *url.URL
	http *resty.Client
}

// TransportError is returned when a source answers with a non-2xx status.
type TransportError struct {
	Url    string
	Status int
}

func (e TransportError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.Url, e.Status)
}

func NewClient(name string, opts ClientOptions) (*Client, error) {
	base, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseUrl)
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	for k, v := range DefaultHeaders {
		client.SetHeader(k, v)
	}
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.SetTimeout(timeout)

	client.SetRetryCount(opts.Policy.Retries)
	client.SetRetryWaitTime(opts.Policy.RetryWait)
	client.SetRetryMaxWaitTime(opts.Policy.RetryMaxWait)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
	})

	limiter := opts.Policy.limiter()
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	tel := opts.Tel
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	telemetry.InstrumentResty(client, fmt.Sprintf("bookbargain/scraper/%s/http", name), telemetry.NewScopedAPI(name, tel))
	restyutil.InstrumentClient(client, name, opts.Exchanges)

	return &Client{
		base: base,
		http: client,
	}, nil
}

// Base returns a copy of the origin.
func (c *Client) Base() *url.URL {
	copied := *c.base
	return &copied
}

// Fetch downloads and parses a page. The raw body is returned alongside the
// document so it can be kept as a diagnostic artifact.
func (c *Client) Fetch(ctx context.Context, link string) (*goquery.Document, []byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, nil, err
	}
	if res.IsError() {
		return nil, res.Body(), TransportError{Url: link, Status: res.StatusCode()}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, res.Body(), err
	}
	return doc, res.Body(), nil
}
