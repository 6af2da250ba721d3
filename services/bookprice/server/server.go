// Package server exposes the book price service as a JSON HTTP API.
package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bookbargain-backend/lib/telemetry"
	"bookbargain-backend/services/bookprice"
	"bookbargain-backend/services/bookprice/store"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const report_handler = "handler"

const defaultSimilar = 5

type Server struct {
	service *bookprice.Service
	tel     telemetry.API
}

func NewServer(service *bookprice.Service, tel telemetry.API) *Server {
	return &Server{
		service: service,
		tel:     telemetry.NewScopedAPI("server", tel),
	}
}

// Handler routes every endpoint, traced with otelhttp.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /api/home", s.home)
	mux.HandleFunc("GET /api/search", s.search)
	mux.HandleFunc("GET /api/random", s.random)
	mux.HandleFunc("GET /api/books/{isbn}", s.bookByISBN)
	mux.HandleFunc("GET /api/similar/{isbn}", s.similar)
	mux.HandleFunc("POST /api/books/{isbn}/refresh", s.refresh)
	mux.HandleFunc("GET /api/books/by-name/{name}", s.bookByName)
	mux.HandleFunc("GET /api/categories", s.categories)
	mux.HandleFunc("GET /api/categories/{genre}", s.category)
	mux.HandleFunc("GET /api/authors", s.authors)
	mux.HandleFunc("GET /api/authors/{name}", s.author)
	mux.HandleFunc("GET /api/genres", s.genres)
	mux.HandleFunc("GET /api/best-deals", s.bestDeals)
	mux.HandleFunc("GET /api/recent", s.recent)
	return otelhttp.NewHandler(mux, "bookbargain")
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	err := s.service.Ping(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, map[string]string{"status": "ok"}, nil)
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	recent, err := s.service.Recent(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	genres, err := s.service.Genres(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	authors, err := s.service.AuthorNames(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, map[string]any{
		"recent":  recent,
		"genres":  genres,
		"authors": authors,
	}, nil)
}

// parsePrice parses an optional price bound, empty means no bound.
func parsePrice(query url.Values, key string) (decimal.Decimal, bool) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return decimal.Zero, true
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Zero, false
	}
	return price, true
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	minPrice, ok := parsePrice(query, "min")
	if !ok {
		jsonError(w, http.StatusBadRequest, "INVALID_REQUEST", "min must be a non-negative number")
		return
	}
	maxPrice, ok := parsePrice(query, "max")
	if !ok {
		jsonError(w, http.StatusBadRequest, "INVALID_REQUEST", "max must be a non-negative number")
		return
	}

	result, err := s.service.Search(r.Context(), bookprice.SearchRequest{
		Query:    query.Get("query"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, result, map[string]any{
		"total":   len(result.Books),
		"scraped": result.Scraped,
	})
}

func (s *Server) random(w http.ResponseWriter, r *http.Request) {
	target := url.URL{
		Path:     "/api/search",
		RawQuery: url.Values{"query": {s.service.Random()}}.Encode(),
	}
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (s *Server) bookByISBN(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.BookByISBN(r.Context(), r.PathValue("isbn"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, detail, nil)
}

func (s *Server) bookByName(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.BookByName(r.Context(), r.PathValue("name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, detail, nil)
}

func (s *Server) similar(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.BookByISBN(r.Context(), r.PathValue("isbn"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n <= 0 {
		n = defaultSimilar
	}
	titles, err := s.service.Similar(r.Context(), detail.Canonical.Title, n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, titles, nil)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.Refresh(r.Context(), r.PathValue("isbn"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, detail, nil)
}

func listingRequest(query url.Values) (bookprice.ListingRequest, string) {
	minPrice, ok := parsePrice(query, "min")
	if !ok {
		return bookprice.ListingRequest{}, "min must be a non-negative number"
	}
	maxPrice, ok := parsePrice(query, "max")
	if !ok {
		return bookprice.ListingRequest{}, "max must be a non-negative number"
	}
	sort, err := store.ParseSort(query.Get("sort"))
	if err != nil {
		return bookprice.ListingRequest{}, err.Error()
	}
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return bookprice.ListingRequest{
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Store:    query.Get("store"),
		Sort:     sort,
		Page:     page,
	}, ""
}

func (s *Server) writeListing(w http.ResponseWriter, listing bookprice.Listing) {
	jsonSuccess(w, listing.Books, map[string]any{
		"page":  listing.Page,
		"pages": listing.Pages,
		"total": listing.Total,
	})
}

func (s *Server) category(w http.ResponseWriter, r *http.Request) {
	req, invalid := listingRequest(r.URL.Query())
	if invalid != "" {
		jsonError(w, http.StatusBadRequest, "INVALID_REQUEST", invalid)
		return
	}
	listing, err := s.service.Category(r.Context(), r.PathValue("genre"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeListing(w, listing)
}

func (s *Server) author(w http.ResponseWriter, r *http.Request) {
	req, invalid := listingRequest(r.URL.Query())
	if invalid != "" {
		jsonError(w, http.StatusBadRequest, "INVALID_REQUEST", invalid)
		return
	}
	listing, err := s.service.Author(r.Context(), r.PathValue("name"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeListing(w, listing)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	samples, err := s.service.Categories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, samples, nil)
}

func (s *Server) authors(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	counts, err := s.service.Authors(r.Context(), query.Get("search"), query.Get("letter"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, counts, nil)
}

func (s *Server) genres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.service.Genres(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, genres, nil)
}

func (s *Server) bestDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.service.BestDeals(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, deals, nil)
}

func (s *Server) recent(w http.ResponseWriter, r *http.Request) {
	recent, err := s.service.Recent(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonSuccess(w, recent, nil)
}
