package bookprice

import (
	"time"

	"bookbargain-backend/services/bookprice/book"
)

const DefaultMaxAge = 24 * time.Hour

// Policy decides whether stored records can answer a query or the sources
// must be scraped again.
type Policy struct {
	// MaxAge is how long an observation stays fresh, DefaultMaxAge when
	// zero.
	MaxAge time.Duration
}

func (p Policy) maxAge() time.Duration {
	if p.MaxAge <= 0 {
		return DefaultMaxAge
	}
	return p.MaxAge
}

// Fresh reports whether the newest of records was observed less than MaxAge
// before now. No records are never fresh.
func (p Policy) Fresh(records []book.Record, now time.Time) bool {
	if len(records) == 0 {
		return false
	}
	newest := records[0].ObservedAt
	for _, r := range records[1:] {
		if r.ObservedAt.After(newest) {
			newest = r.ObservedAt
		}
	}
	return now.Sub(newest) < p.maxAge()
}

// StaleBefore is the observation time below which records are stale.
func (p Policy) StaleBefore(now time.Time) time.Time {
	return now.Add(-p.maxAge())
}
