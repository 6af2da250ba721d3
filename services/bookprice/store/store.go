// Package store persists book price observations.
//
// Records are only ever appended or deleted by ISBN, never updated. Textual
// fields that hold book.Unknown (or the record placeholders) are stored as
// NULL and read back as the placeholder.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/db"

	"github.com/shopspring/decimal"
)

type Field int

const (
	FieldGenre Field = iota
	FieldAuthor
	FieldTitle
)

type Sort string

const (
	// SortNone keeps insertion order.
	SortNone      Sort = ""
	SortRelevance Sort = "relevance"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortRating    Sort = "rating"
	SortNewest    Sort = "newest"
)

func ParseSort(s string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortNone:
		return SortNone, nil
	case SortRelevance:
		return SortRelevance, nil
	case SortPriceAsc:
		return SortPriceAsc, nil
	case SortPriceDesc:
		return SortPriceDesc, nil
	case SortRating:
		return SortRating, nil
	case SortNewest:
		return SortNewest, nil
	}
	return SortNone, fmt.Errorf("unknown sort %q", s)
}

// Filter selects records, every set field narrows the selection. String
// matching is case-insensitive.
type Filter struct {
	// Text matches a substring of the title, author or genre.
	Text   string
	Title  string
	Author string
	// Genre must match exactly.
	Genre string
	// ISBN must match exactly.
	ISBN string
	// ISBNLike matches a substring of the ISBN, hyphens are ignored.
	ISBNLike string
	Source   *book.Source
	MinPrice decimal.Decimal
	// MaxPrice also excludes records without a price.
	MaxPrice  decimal.Decimal
	RatedOnly bool
	// SortPriceAsc also excludes records without a price.
	Sort   Sort
	Limit  int
	Offset int
}

type AuthorCount struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

type Store interface {
	// Insert adds every record in a single transaction.
	Insert(ctx context.Context, records ...book.Record) error
	Query(ctx context.Context, filter Filter) ([]book.Record, error)
	Count(ctx context.Context, filter Filter) (int, error)
	DeleteByISBN(ctx context.Context, isbn string) (int64, error)
	// ReplaceISBN deletes every record of isbn and inserts records in its
	// place, readers never observe the state in between.
	ReplaceISBN(ctx context.Context, isbn string, records []book.Record) error
	// Distinct lists every known value of field in ascending order.
	Distinct(ctx context.Context, field Field) ([]string, error)
	// AuthorCounts lists the number of records of every author whose name
	// contains search and starts with letter, empty arguments match all.
	AuthorCounts(ctx context.Context, search, letter string) ([]AuthorCount, error)
	// StaleISBNs lists up to limit ISBNs whose newest record was observed
	// before the given time, least recently observed first.
	StaleISBNs(ctx context.Context, before time.Time, limit int) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

func nullable(value, placeholder string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" || value == placeholder || value == book.Unknown {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func orPlaceholder(value sql.NullString, placeholder string) string {
	if !value.Valid || strings.TrimSpace(value.String) == "" {
		return placeholder
	}
	return value.String
}

func toParams(r book.Record) db.InsertBookPriceParams {
	r = r.Sanitized()
	return db.InsertBookPriceParams{
		Title:       r.Title,
		Isbn:        nullable(r.ISBN, book.Unknown),
		Author:      nullable(r.Author, book.Unknown),
		ImageUrl:    nullable(r.ImageURL, book.PlaceholderImage),
		Source:      r.Source.String(),
		Price:       r.Price.InexactFloat64(),
		Rating:      r.Rating,
		Description: nullable(r.Description, book.NoDescription),
		Genre:       nullable(r.Genre, book.Unknown),
		Binding:     nullable(r.Binding, book.Unknown),
		Language:    nullable(r.Language, book.Unknown),
		ObservedAt:  r.ObservedAt.UnixMilli(),
	}
}

func fromRow(row db.BookPrice) (book.Record, error) {
	source, err := book.ParseSource(row.Source)
	if err != nil {
		return book.Record{}, fmt.Errorf("row %d: %w", row.ID, err)
	}
	return book.Record{
		Title:       row.Title,
		ISBN:        orPlaceholder(row.Isbn, book.Unknown),
		Author:      orPlaceholder(row.Author, book.Unknown),
		ImageURL:    orPlaceholder(row.ImageUrl, book.PlaceholderImage),
		Source:      source,
		Price:       decimal.NewFromFloat(row.Price).Round(2),
		Rating:      row.Rating,
		Description: orPlaceholder(row.Description, book.NoDescription),
		Genre:       orPlaceholder(row.Genre, book.Unknown),
		Binding:     orPlaceholder(row.Binding, book.Unknown),
		Language:    orPlaceholder(row.Language, book.Unknown),
		ObservedAt:  time.UnixMilli(row.ObservedAt).UTC(),
	}, nil
}

func validStrings(values []sql.NullString) []string {
	out := []string{}
	for _, v := range values {
		if v.Valid && v.String != "" {
			out = append(out, v.String)
		}
	}
	return out
}
