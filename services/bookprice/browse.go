package bookprice

import (
	"context"
	"slices"
	"strings"

	"bookbargain-backend/lib/textutil"
	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/genre"
	"bookbargain-backend/services/bookprice/reconcile"
	"bookbargain-backend/services/bookprice/store"

	"github.com/shopspring/decimal"
)

const (
	PageSize      = 12
	bestDealCount = 20
	recentRecords = 6
	recentBooks   = 3
)

var DefaultAuthors = []string{
	"J.K. Rowling",
	"George Orwell",
	"Jane Austen",
	"Agatha Christie",
	"Chetan Bhagat",
	"Sudha Murty",
	"Paulo Coelho",
}

// PopularTitles are the queries Random picks from.
var PopularTitles = []string{
	"Harry Potter and the Philosopher's Stone",
	"To Kill a Mockingbird",
	"The Great Gatsby",
	"Pride and Prejudice",
	"The Alchemist",
	"1984",
	"The Lord of the Rings",
	"The Hobbit",
	"The Catcher in the Rye",
	"The Da Vinci Code",
	"Atomic Habits",
	"Rich Dad Poor Dad",
	"Ikigai",
	"The Psychology of Money",
	"Think and Grow Rich",
}

type ListingRequest struct {
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	// Store restricts the listing to one source, empty or "all" lists
	// every source.
	Store string
	// Sort defaults to store.SortRelevance.
	Sort store.Sort
	// Page starts at 1.
	Page int
}

type Listing struct {
	Books []book.Record `json:"books"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

func (r ListingRequest) filter(filter store.Filter) (store.Filter, int, error) {
	name := strings.ToLower(strings.TrimSpace(r.Store))
	if name != "" && name != "all" {
		source, err := book.ParseSource(name)
		if err != nil {
			return store.Filter{}, 0, invalidRequest("%v", err)
		}
		filter.Source = &source
	}
	if r.MinPrice.IsNegative() || r.MaxPrice.IsNegative() {
		return store.Filter{}, 0, invalidRequest("negative price")
	}
	filter.MinPrice = r.MinPrice
	filter.MaxPrice = r.MaxPrice

	filter.Sort = r.Sort
	if filter.Sort == store.SortNone {
		filter.Sort = store.SortRelevance
	}

	page := max(r.Page, 1)
	filter.Limit = PageSize
	filter.Offset = (page - 1) * PageSize
	return filter, page, nil
}

func (s *Service) listing(ctx context.Context, base store.Filter, req ListingRequest) (Listing, error) {
	filter, page, err := req.filter(base)
	if err != nil {
		return Listing{}, err
	}

	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return Listing{}, s.storeFailure("count listing", err)
	}
	records, err := s.store.Query(ctx, filter)
	if err != nil {
		return Listing{}, s.storeFailure("listing", err)
	}

	pages := 1
	if total > 0 {
		pages = (total + PageSize - 1) / PageSize
	}
	books := reconcile.Dedupe(records)
	if books == nil {
		books = []book.Record{}
	}
	return Listing{
		Books: books,
		Total: total,
		Page:  page,
		Pages: pages,
	}, nil
}

// Category lists the books of a genre, the genre is matched exactly but
// ignoring case.
func (s *Service) Category(ctx context.Context, name string, req ListingRequest) (Listing, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Listing{}, invalidRequest("empty category")
	}
	return s.listing(ctx, store.Filter{Genre: name}, req)
}

// Author lists the books of every author whose name contains name.
func (s *Service) Author(ctx context.Context, name string, req ListingRequest) (Listing, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Listing{}, invalidRequest("empty author")
	}
	return s.listing(ctx, store.Filter{Author: name}, req)
}

// Authors counts the records of every author whose name contains search
// and starts with letter.
func (s *Service) Authors(ctx context.Context, search, letter string) ([]store.AuthorCount, error) {
	counts, err := s.store.AuthorCounts(ctx, strings.TrimSpace(search), strings.TrimSpace(letter))
	if err != nil {
		return nil, s.storeFailure("author counts", err)
	}
	return counts, nil
}

// BestDeals lists the highest rated books, one record each.
func (s *Service) BestDeals(ctx context.Context) ([]book.Record, error) {
	records, err := s.store.Query(ctx, store.Filter{
		RatedOnly: true,
		Sort:      store.SortRating,
		Limit:     bestDealCount,
	})
	if err != nil {
		return nil, s.storeFailure("best deals", err)
	}
	deals := reconcile.Distinct(records)
	if deals == nil {
		deals = []book.Record{}
	}
	return deals, nil
}

// Recent lists the most recently observed books.
func (s *Service) Recent(ctx context.Context) ([]reconcile.Entity, error) {
	records, err := s.store.Query(ctx, store.Filter{
		Sort:  store.SortNewest,
		Limit: recentRecords,
	})
	if err != nil {
		return nil, s.storeFailure("recent", err)
	}
	entities := reconcile.Group(records)
	if len(entities) > recentBooks {
		entities = entities[:recentBooks]
	}
	if entities == nil {
		entities = []reconcile.Entity{}
	}
	return entities, nil
}

func (s *Service) distinctValues(ctx context.Context, field store.Field, defaults []string) ([]string, error) {
	cached, hit := s.distinct.Get(field)
	if hit {
		return cached, nil
	}
	values, err := s.store.Distinct(ctx, field)
	if err != nil {
		return nil, s.storeFailure("distinct", err)
	}
	if len(values) == 0 {
		values = slices.Clone(defaults)
	}
	s.distinct.Add(field, values)
	return values, nil
}

// Genres lists every stored genre, or genre.Defaults while nothing is
// stored.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	return s.distinctValues(ctx, store.FieldGenre, genre.Defaults)
}

// AuthorNames lists every stored author, or DefaultAuthors while nothing is
// stored.
func (s *Service) AuthorNames(ctx context.Context) ([]string, error) {
	return s.distinctValues(ctx, store.FieldAuthor, DefaultAuthors)
}

type CategorySample struct {
	Genre string       `json:"genre"`
	Book  *book.Record `json:"book"`
}

// Categories pairs every genre with one of its books, Book is nil for
// genres nothing is stored for.
func (s *Service) Categories(ctx context.Context) ([]CategorySample, error) {
	genres, err := s.Genres(ctx)
	if err != nil {
		return nil, err
	}
	samples := make([]CategorySample, len(genres))
	for i, g := range genres {
		samples[i].Genre = g
		records, err := s.store.Query(ctx, store.Filter{Genre: g, Limit: 1})
		if err != nil {
			return nil, s.storeFailure("category sample", err)
		}
		if len(records) > 0 {
			samples[i].Book = &records[0]
		}
	}
	return samples, nil
}

// Random picks one of PopularTitles.
func (s *Service) Random() string {
	return PopularTitles[s.pick(len(PopularTitles))]
}

// Similar lists up to n stored titles ranked by their similarity to title,
// title itself excluded.
func (s *Service) Similar(ctx context.Context, title string, n int) ([]string, error) {
	titles, err := s.store.Distinct(ctx, store.FieldTitle)
	if err != nil {
		return nil, s.storeFailure("titles", err)
	}

	type scored struct {
		title string
		score float64
	}
	var candidates []scored
	for _, t := range titles {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(title)) {
			continue
		}
		candidates = append(candidates, scored{title: t, score: textutil.Similarity(title, t)})
	}
	slices.SortStableFunc(candidates, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	out := []string{}
	for i := 0; i < len(candidates) && i < n; i++ {
		out = append(out, candidates[i].title)
	}
	return out, nil
}
