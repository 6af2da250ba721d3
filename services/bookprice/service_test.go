package bookprice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookbargain-backend/lib/chrono"
	"bookbargain-backend/lib/testutil"
	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/db"
	"bookbargain-backend/services/bookprice/genre"
	"bookbargain-backend/services/bookprice/scraper"
	"bookbargain-backend/services/bookprice/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeScraper struct {
	mutex   sync.Mutex
	queries []string
	results func(ctx context.Context, query string) []book.Record
}

func (f *fakeScraper) Aggregate(ctx context.Context, query string) []book.Record {
	f.mutex.Lock()
	f.queries = append(f.queries, query)
	f.mutex.Unlock()
	return f.results(ctx, query)
}

func (f *fakeScraper) Queries() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string{}, f.queries...)
}

func returning(records ...book.Record) *fakeScraper {
	return &fakeScraper{
		results: func(context.Context, string) []book.Record {
			return append([]book.Record{}, records...)
		},
	}
}

func record(source book.Source, title, isbn, price string) book.Record {
	r := book.Empty(title, source)
	r.ISBN = isbn
	r.Price = decimal.RequireFromString(price)
	return r
}

type fixture struct {
	service *Service
	store   store.Store
	clock   *chrono.ManualTime
	tel     *testutil.RecordingAPI
}

func setup(t *testing.T, scraper Scraper) fixture {
	t.Helper()

	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "bookprice",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	st := store.NewSQLite(res.DB)
	clock := chrono.NewManualTime(epoch)
	tel := &testutil.RecordingAPI{}
	service := NewService(Options{
		Store:   st,
		Scraper: scraper,
		Time:    clock,
		Tel:     tel,
		Pick:    func(n int) int { return n - 1 },
	})
	return fixture{service: service, store: st, clock: clock, tel: tel}
}

func (f fixture) insert(t *testing.T, records ...book.Record) {
	t.Helper()
	require.NoError(t, f.store.Insert(context.Background(), records...))
}

func TestPolicyFresh(t *testing.T) {
	policy := Policy{}
	observed := func(age time.Duration) []book.Record {
		return []book.Record{book.Empty("1984", book.Amazon).Observed(epoch.Add(-age))}
	}

	require.False(t, policy.Fresh(nil, epoch))
	require.False(t, policy.Fresh(observed(48*time.Hour), epoch))
	require.False(t, policy.Fresh(observed(DefaultMaxAge), epoch))
	require.True(t, policy.Fresh(observed(time.Hour), epoch))

	mixed := append(observed(72*time.Hour), observed(time.Minute)...)
	require.True(t, policy.Fresh(mixed, epoch))

	require.False(t, Policy{MaxAge: 30 * time.Minute}.Fresh(observed(time.Hour), epoch))
	require.Equal(t, epoch.Add(-DefaultMaxAge), policy.StaleBefore(epoch))
}

func TestSearchStaleness(t *testing.T) {
	ctx := context.Background()
	fake := returning(record(book.Amazon, "1984", "9780451524935", "399"))
	f := setup(t, fake)

	f.insert(t, record(book.Amazon, "1984", "9780451524935", "450").Observed(epoch.Add(-48*time.Hour)))

	result, err := f.service.Search(ctx, SearchRequest{Query: "1984"})
	require.NoError(t, err)
	require.True(t, result.Scraped)
	require.Equal(t, []string{"1984"}, fake.Queries())
	require.Len(t, result.Books, 1)
	require.Equal(t, "399", result.Books[0].MinPrice.String())

	f.clock.Advance(time.Hour)

	result, err = f.service.Search(ctx, SearchRequest{Query: "1984"})
	require.NoError(t, err)
	require.False(t, result.Scraped)
	require.Len(t, fake.Queries(), 1)
	require.Len(t, result.Books, 1)
}

func TestSearchScenario1984(t *testing.T) {
	ctx := context.Background()

	amazon := record(book.Amazon, "1984", "9780451524935", "399.0")
	amazon.Author = "George Orwell"
	amazon.Description = "A dystopian social science fiction novel and cautionary tale."
	bookswagon := record(book.Bookswagon, "1984", book.Unknown, "0")
	kitabay := record(book.Kitabay, "1984", "9780451524935", "350.5")
	kitabay.Description = "A classic."

	fake := &fakeScraper{
		results: func(_ context.Context, query string) []book.Record {
			return scraper.Filter(query, []book.Record{amazon, bookswagon, kitabay})
		},
	}
	f := setup(t, fake)

	result, err := f.service.Search(ctx, SearchRequest{Query: "1984"})
	require.NoError(t, err)
	require.Len(t, result.Books, 1)

	entity := result.Books[0]
	require.Equal(t, "9780451524935", entity.Key)
	require.Equal(t, "350.5", entity.MinPrice.String())
	require.Equal(t, []book.Source{book.Amazon, book.Kitabay}, entity.Sources)
	require.Equal(t, book.Amazon, entity.Canonical.Source)

	count, err := f.store.Count(ctx, store.Filter{})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	detail, err := f.service.BookByISBN(ctx, "978-0451524935")
	require.NoError(t, err)
	require.Equal(t, book.Amazon, detail.Canonical.Source)
	require.Len(t, detail.Comparison, 3)

	var order []string
	for _, r := range detail.Comparison {
		order = append(order, fmt.Sprintf("%s:%s", r.Source, r.Price))
	}
	require.Equal(t, []string{"kitabay:350.5", "amazon:399", "bookswagon:0"}, order)
}

func TestSearchPriceFilter(t *testing.T) {
	ctx := context.Background()
	f := setup(t, returning(book.Empty("unused", book.Amazon)))

	cheap := record(book.Amazon, "Cheap Tales", "9780000000001", "100")
	dear := record(book.Amazon, "Dear Tales", "9780000000002", "900")
	unpriced := record(book.Kitabay, "Lost Tales", book.Unknown, "0")
	for _, r := range []book.Record{cheap, dear, unpriced} {
		f.insert(t, r.Observed(epoch))
	}

	result, err := f.service.Search(ctx, SearchRequest{
		Query:    "tales",
		MaxPrice: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.False(t, result.Scraped)

	var titles []string
	for _, e := range result.Books {
		titles = append(titles, e.Canonical.Title)
	}
	require.Equal(t, []string{"Cheap Tales", "Lost Tales"}, titles)

	result, err = f.service.Search(ctx, SearchRequest{
		Query:    "tales",
		MinPrice: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	require.Equal(t, "Dear Tales", result.Books[0].Canonical.Title)

	_, err = f.service.Search(ctx, SearchRequest{Query: "  "})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSearchFallsBackToScrape(t *testing.T) {
	f := setup(t, returning(record(book.Amazon, "Harry Potter and the Philosopher's Stone", "9781408855652", "299")))

	result, err := f.service.Search(context.Background(), SearchRequest{Query: "philosophers stone"})
	require.NoError(t, err)
	require.True(t, result.Scraped)
	require.Len(t, result.Books, 1)
	require.Equal(t, "9781408855652", result.Books[0].Key)
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeScraper{
		results: func(context.Context, string) []book.Record {
			cancel()
			return []book.Record{record(book.Amazon, "1984", "9780451524935", "399")}
		},
	}
	f := setup(t, fake)

	_, err := f.service.Search(ctx, SearchRequest{Query: "1984"})
	require.ErrorIs(t, err, context.Canceled)

	count, err := f.store.Count(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Zero(t, count)
}

type brokenStore struct {
	store.Store
}

func (brokenStore) Query(context.Context, store.Filter) ([]book.Record, error) {
	return nil, errors.New("database is locked")
}

func TestStoreUnavailable(t *testing.T) {
	tel := &testutil.RecordingAPI{}
	service := NewService(Options{
		Store:   brokenStore{},
		Scraper: returning(),
		Time:    chrono.NewManualTime(epoch),
		Tel:     tel,
	})

	_, err := service.Search(context.Background(), SearchRequest{Query: "1984"})
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.True(t, IsRetryable(err))
	require.Len(t, tel.Reports("broken"), 1)

	_, err = service.BookByISBN(context.Background(), "9780451524935")
	require.True(t, IsRetryable(err))

	require.False(t, IsRetryable(ErrNotFound))
}

func TestBookByISBN(t *testing.T) {
	ctx := context.Background()
	f := setup(t, returning())

	amazon := record(book.Amazon, "1984", "9780451524935", "399").Observed(epoch)
	older := record(book.Amazon, "1984", "9780451524935", "420").Observed(epoch.Add(-time.Hour))
	f.insert(t, amazon, older)

	for _, isbn := range []string{"", "True", "False", "Unknown"} {
		_, err := f.service.BookByISBN(ctx, isbn)
		require.ErrorIs(t, err, ErrInvalidISBN, isbn)
	}

	detail, err := f.service.BookByISBN(ctx, "9780451524935")
	require.NoError(t, err)
	require.Len(t, detail.Comparison, 3)
	require.Equal(t, "399", detail.Comparison[0].Price.String())

	detail, err = f.service.BookByISBN(ctx, "0451524935")
	require.NoError(t, err)
	require.Equal(t, "1984", detail.Canonical.Title)

	_, err = f.service.BookByISBN(ctx, "9999999999999")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.BookByISBN(ctx, "12345")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBookByName(t *testing.T) {
	ctx := context.Background()
	f := setup(t, returning())

	long := record(book.Bookswagon, "The Hobbit", "9780261102217", "250")
	long.Description = "Bilbo Baggins is a hobbit who enjoys a comfortable life."
	short := record(book.Amazon, "The Hobbit", "9780261102217", "199")
	short.Description = "A fantasy novel."
	f.insert(t, short.Observed(epoch), long.Observed(epoch))

	detail, err := f.service.BookByName(ctx, "HOBBIT")
	require.NoError(t, err)
	require.Equal(t, book.Bookswagon, detail.Canonical.Source)
	require.Equal(t, book.Amazon, detail.Comparison[0].Source)

	_, err = f.service.BookByName(ctx, "Silmarillion")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.BookByName(ctx, "")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRefreshReplacesStaleRows(t *testing.T) {
	ctx := context.Background()
	const isbn = "9780439708180"
	const title = "Harry Potter and the Sorcerer's Stone"

	fake := returning(
		record(book.Amazon, title, isbn, "349"),
		record(book.Bookswagon, title, isbn, "375"),
		record(book.Kitabay, title, isbn, "330"),
	)
	f := setup(t, fake)

	var stale []book.Record
	for i, source := range []book.Source{book.Amazon, book.Amazon, book.Bookswagon, book.Bookswagon, book.Kitabay} {
		age := time.Duration(i+2) * 24 * time.Hour
		stale = append(stale, record(source, title, isbn, fmt.Sprint(400+i)).Observed(epoch.Add(-age)))
	}
	f.insert(t, stale...)

	detail, err := f.service.Refresh(ctx, isbn)
	require.NoError(t, err)
	require.Equal(t, []string{title}, fake.Queries())
	require.Equal(t, "330", detail.Comparison[0].Price.String())

	stored, err := f.store.Query(ctx, store.Filter{ISBN: isbn})
	require.NoError(t, err)
	require.Len(t, stored, 3)

	seen := map[book.Source]bool{}
	for _, r := range stored {
		require.False(t, seen[r.Source], "duplicate row for %s", r.Source)
		seen[r.Source] = true
		require.Equal(t, epoch, r.ObservedAt)
	}

	_, err = f.service.Refresh(ctx, "9781234567897")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.service.Refresh(ctx, "False")
	require.ErrorIs(t, err, ErrInvalidISBN)
	require.Zero(t, f.service.isbns.held())
}

func TestRefreshCancelledKeepsRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const isbn = "9780451524935"
	fake := &fakeScraper{
		results: func(context.Context, string) []book.Record {
			cancel()
			return []book.Record{record(book.Amazon, "1984", isbn, "10")}
		},
	}
	f := setup(t, fake)
	f.insert(t, record(book.Amazon, "1984", isbn, "399").Observed(epoch.Add(-72*time.Hour)))

	_, err := f.service.Refresh(ctx, isbn)
	require.ErrorIs(t, err, context.Canceled)

	stored, err := f.store.Query(context.Background(), store.Filter{ISBN: isbn})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "399", stored[0].Price.String())
}

func TestRefreshKeepsRowsWhenSourcesFail(t *testing.T) {
	ctx := context.Background()
	const isbn = "9780451524935"

	// what the aggregator returns when every source failed
	fake := &fakeScraper{
		results: func(_ context.Context, query string) []book.Record {
			return scraper.Filter(query, []book.Record{
				book.Empty(query, book.Amazon),
				book.Empty(query, book.Bookswagon),
				book.Empty(query, book.Kitabay),
			})
		},
	}
	f := setup(t, fake)
	f.insert(t, record(book.Amazon, "1984", isbn, "399").Observed(epoch.Add(-72*time.Hour)))

	refreshed, err := f.service.RefreshStale(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, refreshed)
	require.Equal(t, []string{"1984"}, fake.Queries())

	stored, err := f.store.Query(ctx, store.Filter{ISBN: isbn})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "399", stored[0].Price.String())

	total, err := f.store.Count(ctx, store.Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	detail, err := f.service.BookByISBN(ctx, isbn)
	require.NoError(t, err)
	require.Equal(t, "399", detail.Comparison[0].Price.String())

	stale, err := f.store.StaleISBNs(ctx, f.service.policy.StaleBefore(epoch), 10)
	require.NoError(t, err)
	require.Equal(t, []string{isbn}, stale)

	warnings := f.tel.Reports("warning")
	require.Len(t, warnings, 1)
	require.Equal(t, "bookprice: refresh", warnings[0].Id)

	_, err = f.service.Refresh(ctx, isbn)
	require.ErrorIs(t, err, ErrSourcesUnavailable)
	require.True(t, IsRetryable(err))
	require.Zero(t, f.service.isbns.held())
}

func TestRefreshStale(t *testing.T) {
	ctx := context.Background()
	fake := returning(record(book.Amazon, "Old Book", "9780000000011", "120"))
	f := setup(t, fake)

	f.insert(t,
		record(book.Amazon, "Old Book", "9780000000011", "150").Observed(epoch.Add(-48*time.Hour)),
		record(book.Amazon, "New Book", "9780000000022", "150").Observed(epoch.Add(-time.Hour)),
	)

	refreshed, err := f.service.RefreshStale(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, refreshed)
	require.Equal(t, []string{"Old Book"}, fake.Queries())

	counts := f.tel.Reports("count")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(1)}, counts[0].Params)

	refreshed, err = f.service.RefreshStale(ctx, 10)
	require.NoError(t, err)
	require.Zero(t, refreshed)

	refreshed, err = f.service.RefreshStale(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, refreshed)
}

type manualCron struct {
	specs     []string
	callbacks []func()
}

func (c *manualCron) Cron(spec string, callback func()) error {
	c.specs = append(c.specs, spec)
	c.callbacks = append(c.callbacks, callback)
	return nil
}

func TestStartRefresher(t *testing.T) {
	fake := returning(record(book.Amazon, "Old Book", "9780000000011", "120"))
	f := setup(t, fake)
	f.insert(t, record(book.Amazon, "Old Book", "9780000000011", "150").Observed(epoch.Add(-48*time.Hour)))

	cron := &manualCron{}
	require.NoError(t, f.service.StartRefresher(cron, "@every 6h", 5, time.Minute))
	require.Equal(t, []string{"@every 6h"}, cron.specs)

	cron.callbacks[0]()
	require.Equal(t, []string{"Old Book"}, fake.Queries())
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	f := setup(t, returning())

	var records []book.Record
	for i := 0; i < 13; i++ {
		r := record(book.Amazon, fmt.Sprintf("Novel %02d", i), fmt.Sprintf("97800000000%02d", i), fmt.Sprint(100+i))
		r.Genre = "Fiction"
		r.Author = "Jane Doe"
		records = append(records, r.Observed(epoch))
	}
	f.insert(t, records...)

	listing, err := f.service.Category(ctx, "fiction", ListingRequest{})
	require.NoError(t, err)
	require.Equal(t, 13, listing.Total)
	require.Equal(t, 2, listing.Pages)
	require.Equal(t, 1, listing.Page)
	require.Len(t, listing.Books, PageSize)
	require.Equal(t, "Novel 00", listing.Books[0].Title)

	listing, err = f.service.Category(ctx, "Fiction", ListingRequest{Page: 2})
	require.NoError(t, err)
	require.Len(t, listing.Books, 1)
	require.Equal(t, "Novel 12", listing.Books[0].Title)

	listing, err = f.service.Author(ctx, "doe", ListingRequest{
		MaxPrice: decimal.NewFromInt(105),
		Sort:     store.SortPriceDesc,
		Store:    "all",
	})
	require.NoError(t, err)
	require.Equal(t, 6, listing.Total)
	require.Equal(t, "Novel 05", listing.Books[0].Title)

	listing, err = f.service.Category(ctx, "Fiction", ListingRequest{Store: "kitabay"})
	require.NoError(t, err)
	require.Zero(t, listing.Total)
	require.Equal(t, 1, listing.Pages)
	require.NotNil(t, listing.Books)
	require.Empty(t, listing.Books)

	_, err = f.service.Category(ctx, "Fiction", ListingRequest{Store: "flipkart"})
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.service.Author(ctx, " ", ListingRequest{})
	require.ErrorIs(t, err, ErrInvalidRequest)

	counts, err := f.service.Authors(ctx, "", "J")
	require.NoError(t, err)
	require.Equal(t, []store.AuthorCount{{Author: "Jane Doe", Count: 13}}, counts)
}

func TestBestDealsAndRecent(t *testing.T) {
	ctx := context.Background()
	f := setup(t, returning())

	rated := func(source book.Source, title, isbn string, rating float64, age time.Duration) book.Record {
		r := record(source, title, isbn, "100")
		r.Rating = rating
		return r.Observed(epoch.Add(-age))
	}
	f.insert(t,
		rated(book.Amazon, "Alpha", "9780000000101", 4.5, 5*time.Hour),
		rated(book.Kitabay, "Alpha", "9780000000101", 4.0, 4*time.Hour),
		rated(book.Amazon, "Beta", "9780000000202", 3.0, 3*time.Hour),
		rated(book.Amazon, "Gamma", book.Unknown, 0, 2*time.Hour),
		rated(book.Bookswagon, "Delta", book.Unknown, 0, time.Hour),
	)

	deals, err := f.service.BestDeals(ctx)
	require.NoError(t, err)
	var titles []string
	for _, r := range deals {
		titles = append(titles, fmt.Sprintf("%s@%s", r.Title, r.Source))
	}
	require.Equal(t, []string{"Alpha@amazon", "Beta@amazon"}, titles)

	recent, err := f.service.Recent(ctx)
	require.NoError(t, err)
	titles = nil
	for _, e := range recent {
		titles = append(titles, e.Canonical.Title)
	}
	require.Equal(t, []string{"Delta", "Gamma", "Beta"}, titles)
}

func TestDistinctLists(t *testing.T) {
	ctx := context.Background()

	orwell := record(book.Amazon, "1984", "9780451524935", "399")
	orwell.Genre = "Fiction"
	orwell.Author = "George Orwell"
	f := setup(t, returning(orwell))

	genres, err := f.service.Genres(ctx)
	require.NoError(t, err)
	require.Equal(t, genre.Defaults, genres)

	authors, err := f.service.AuthorNames(ctx)
	require.NoError(t, err)
	require.Equal(t, DefaultAuthors, authors)

	_, err = f.service.Search(ctx, SearchRequest{Query: "1984"})
	require.NoError(t, err)

	genres, err = f.service.Genres(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Fiction"}, genres)

	authors, err = f.service.AuthorNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"George Orwell"}, authors)

	samples, err := f.service.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Equal(t, "Fiction", samples[0].Genre)
	require.NotNil(t, samples[0].Book)
	require.Equal(t, "1984", samples[0].Book.Title)
}

func TestRandomAndSimilar(t *testing.T) {
	ctx := context.Background()
	f := setup(t, returning())

	require.Equal(t, "Think and Grow Rich", f.service.Random())

	f.insert(t,
		record(book.Amazon, "Harry Potter and the Chamber of Secrets", book.Unknown, "0").Observed(epoch),
		record(book.Amazon, "Harry Potter and the Goblet of Fire", book.Unknown, "0").Observed(epoch),
		record(book.Amazon, "The Great Gatsby", book.Unknown, "0").Observed(epoch),
	)

	similar, err := f.service.Similar(ctx, "harry potter and the chamber of secrets", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"Harry Potter and the Goblet of Fire"}, similar)

	similar, err = f.service.Similar(ctx, "The Hobbit", 10)
	require.NoError(t, err)
	require.Len(t, similar, 3)

	similar, err = f.service.Similar(ctx, "The Hobbit", 0)
	require.NoError(t, err)
	require.Empty(t, similar)
}

func TestKeyedLock(t *testing.T) {
	locks := newKeyedLock()
	unlock := locks.Lock("9780451524935")

	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("9780451524935")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("lock was acquired twice")
	case <-time.After(50 * time.Millisecond):
	}

	other := locks.Lock("9781408855652")
	other()

	unlock()
	<-acquired
	require.Eventually(t, func() bool { return locks.held() == 0 }, time.Second, 10*time.Millisecond)
}
