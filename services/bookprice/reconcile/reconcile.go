// Package reconcile merges noisy per-source observations of the same book
// into something that can be displayed: a per-source price comparison and
// a single canonical record.
package reconcile

import (
	"sort"
	"strings"

	"bookbargain-backend/services/bookprice/book"

	"github.com/shopspring/decimal"
)

// cheaper reports whether candidate should replace current as the
// representative row of a source: any price beats no price, a lower price
// beats a higher one.
func cheaper(candidate, current book.Record) bool {
	if !candidate.HasPrice() {
		return false
	}
	if !current.HasPrice() {
		return true
	}
	return candidate.Price.LessThan(current.Price)
}

// placeholder is the comparison row of a source that has no observation,
// it borrows the descriptive fields of the canonical record.
func placeholder(canonical book.Record, source book.Source) book.Record {
	return book.Record{
		Title:       canonical.Title,
		ISBN:        canonical.ISBN,
		Author:      canonical.Author,
		ImageURL:    canonical.ImageURL,
		Source:      source,
		Price:       decimal.Zero,
		Rating:      0,
		Description: book.NoDescription,
		Genre:       canonical.Genre,
		Binding:     canonical.Binding,
		Language:    canonical.Language,
	}
}

// Compare builds the price comparison of a single book: exactly one row per
// known source, priced rows first in ascending order of price, then every
// row without a price. It returns nil for no records.
func Compare(records []book.Record) []book.Record {
	if len(records) == 0 {
		return nil
	}

	var view []book.Record
	index := map[book.Source]int{}
	for _, r := range records {
		i, seen := index[r.Source]
		if !seen {
			index[r.Source] = len(view)
			view = append(view, r)
			continue
		}
		if cheaper(r, view[i]) {
			view[i] = r
		}
	}

	canonical, _ := Canonical(records)
	for _, source := range book.Sources {
		if _, seen := index[source]; seen {
			continue
		}
		view = append(view, placeholder(canonical, source))
	}

	sort.SliceStable(view, func(i, j int) bool {
		a, b := view[i], view[j]
		if a.HasPrice() != b.HasPrice() {
			return a.HasPrice()
		}
		if !a.HasPrice() {
			return false
		}
		return a.Price.LessThan(b.Price)
	})

	return view
}

// Canonical picks the record to display details from: the longest real
// description wins, then the highest rating, then the record seen first.
func Canonical(records []book.Record) (book.Record, bool) {
	if len(records) == 0 {
		return book.Record{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		bestLen, rLen := best.DescriptionLength(), r.DescriptionLength()
		if rLen > bestLen || (rLen == bestLen && r.Rating > best.Rating) {
			best = r
		}
	}
	return best, true
}

// MinPrice is the lowest positive price among records, zero when none has
// a price.
func MinPrice(records []book.Record) decimal.Decimal {
	min := decimal.Zero
	for _, r := range records {
		if !r.HasPrice() {
			continue
		}
		if min.IsZero() || r.Price.LessThan(min) {
			min = r.Price
		}
	}
	return min
}

// Detail is everything shown for a single book.
type Detail struct {
	Canonical  book.Record   `json:"canonical"`
	Comparison []book.Record `json:"comparison"`
}

func Reconcile(records []book.Record) Detail {
	canonical, _ := Canonical(records)
	return Detail{
		Canonical:  canonical,
		Comparison: Compare(records),
	}
}

// Entity is a logical book: every stored observation of it across sources
// and scrapes.
type Entity struct {
	Key       string          `json:"key"`
	Records   []book.Record   `json:"-"`
	Canonical book.Record     `json:"canonical"`
	MinPrice  decimal.Decimal `json:"min_price"`
	Sources   []book.Source   `json:"sources"`
}

func titleKey(title string) string {
	return "title:" + strings.ToLower(strings.TrimSpace(title))
}

// identity returns the key of every record. A record is identified by its
// ISBN, or when it has none by the ISBN of any record sharing its title,
// or failing that by its case-insensitive title.
func identity(records []book.Record) []string {
	titleIsbn := map[string]string{}
	for _, r := range records {
		if !r.HasISBN() {
			continue
		}
		key := titleKey(r.Title)
		if _, ok := titleIsbn[key]; !ok {
			titleIsbn[key] = r.ISBN
		}
	}

	keys := make([]string, len(records))
	for i, r := range records {
		switch {
		case r.HasISBN():
			keys[i] = r.ISBN
		case titleIsbn[titleKey(r.Title)] != "":
			keys[i] = titleIsbn[titleKey(r.Title)]
		default:
			keys[i] = titleKey(r.Title)
		}
	}
	return keys
}

// Group partitions records into entities, in the order each entity was
// first seen.
func Group(records []book.Record) []Entity {
	keys := identity(records)

	var entities []Entity
	index := map[string]int{}
	for i, r := range records {
		at, ok := index[keys[i]]
		if !ok {
			at = len(entities)
			index[keys[i]] = at
			entities = append(entities, Entity{Key: keys[i]})
		}
		entities[at].Records = append(entities[at].Records, r)
	}

	for i := range entities {
		e := &entities[i]
		e.Canonical, _ = Canonical(e.Records)
		e.MinPrice = MinPrice(e.Records)
		e.Sources = sourcesOf(e.Records)
	}
	return entities
}

func sourcesOf(records []book.Record) []book.Source {
	seen := map[book.Source]bool{}
	for _, r := range records {
		seen[r.Source] = true
	}
	var out []book.Source
	for _, s := range book.Sources {
		if seen[s] {
			out = append(out, s)
		}
	}
	return out
}

// FilterByPrice drops entities cheaper than min and entities whose price
// exceeds max. Entities without any price are never dropped by max. A zero
// bound is no bound.
func FilterByPrice(entities []Entity, min, max decimal.Decimal) []Entity {
	var out []Entity
	for _, e := range entities {
		if min.IsPositive() && e.MinPrice.LessThan(min) {
			continue
		}
		if max.IsPositive() && e.MinPrice.IsPositive() && e.MinPrice.GreaterThan(max) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func listingKey(r book.Record) string {
	if r.HasISBN() {
		return r.ISBN
	}
	return titleKey(r.Title)
}

// Dedupe keeps the cheapest record of every book, in first-seen order.
func Dedupe(records []book.Record) []book.Record {
	var out []book.Record
	index := map[string]int{}
	for _, r := range records {
		key := listingKey(r)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, r)
			continue
		}
		if cheaper(r, out[i]) {
			out[i] = r
		}
	}
	return out
}

// Distinct keeps the first record of every book.
func Distinct(records []book.Record) []book.Record {
	var out []book.Record
	seen := map[string]bool{}
	for _, r := range records {
		key := listingKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
