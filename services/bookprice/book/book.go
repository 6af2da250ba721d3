package book

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	// Unknown marks a textual field that no extraction strategy could fill.
	Unknown = "Unknown"
	// PlaceholderImage is used whenever a source offers no cover image.
	PlaceholderImage = "https://source.unsplash.com/random/300x400/?book"
	// NoDescription is used whenever a source offers no description.
	NoDescription = "No description available"
)

// Source identifies one of the retailers prices are collected from.
type Source int

const (
	Amazon Source = iota
	Bookswagon
	Kitabay
)

// DefaultSource is attributed to placeholder records.
const DefaultSource = Amazon

// Sources lists every known source in its canonical order.
var Sources = []Source{Amazon, Bookswagon, Kitabay}

var sourceNames = map[Source]string{
	Amazon:     "amazon",
	Bookswagon: "bookswagon",
	Kitabay:    "kitabay",
}

func (s Source) String() string {
	name, ok := sourceNames[s]
	if !ok {
		return fmt.Sprintf("source(%d)", int(s))
	}
	return name
}

func (s Source) Valid() bool {
	_, ok := sourceNames[s]
	return ok
}

func (s Source) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid source %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(text []byte) error {
	parsed, err := ParseSource(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSource parses the (case-insensitive) name of a source.
func ParseSource(name string) (Source, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range sourceNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown source %q", name)
}

// Record is one observation of a book at one source.
//
// Records are values: adjusting a record means producing a new one, nothing
// is shared between copies.
type Record struct {
	Title       string          `json:"title"`
	ISBN        string          `json:"isbn"`
	Author      string          `json:"author"`
	ImageURL    string          `json:"image_url"`
	Source      Source          `json:"source"`
	Price       decimal.Decimal `json:"price"`
	Rating      float64         `json:"rating"`
	Description string          `json:"description"`
	Genre       string          `json:"genre"`
	Binding     string          `json:"binding"`
	Language    string          `json:"language"`
	ObservedAt  time.Time       `json:"observed_at"`
}

// Empty is the record for a book nothing is known about yet, it is what a
// source reports when it could not find or read a page.
func Empty(title string, source Source) Record {
	return Record{
		Title:       title,
		ISBN:        Unknown,
		Author:      Unknown,
		ImageURL:    PlaceholderImage,
		Source:      source,
		Price:       decimal.Zero,
		Description: NoDescription,
		Genre:       Unknown,
		Binding:     Unknown,
		Language:    Unknown,
	}
}

// Sanitized returns a copy that satisfies every record invariant: empty text
// becomes Unknown, negative numbers become zero and the ISBN is normalized.
func (r Record) Sanitized() Record {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = Unknown
	}
	r.ISBN = NormalizeISBN(r.ISBN)
	r.Author = orUnknown(r.Author)
	r.Genre = orUnknown(r.Genre)
	r.Binding = orUnknown(r.Binding)
	r.Language = orUnknown(r.Language)
	if strings.TrimSpace(r.ImageURL) == "" {
		r.ImageURL = PlaceholderImage
	}
	if strings.TrimSpace(r.Description) == "" {
		r.Description = NoDescription
	}
	if r.Price.IsNegative() {
		r.Price = decimal.Zero
	}
	r.Price = r.Price.Round(2)
	if r.Rating < 0 {
		r.Rating = 0
	}
	return r
}

// Observed returns a copy stamped with the time it was observed at.
func (r Record) Observed(at time.Time) Record {
	r.ObservedAt = at
	return r
}

func (r Record) HasPrice() bool {
	return r.Price.IsPositive()
}

func (r Record) HasISBN() bool {
	return !IsUnknown(r.ISBN)
}

func (r Record) HasDescription() bool {
	return !IsUnknown(r.Description) && r.Description != NoDescription
}

// DescriptionLength is the length used to rank how informative a record is,
// placeholder descriptions count as empty.
func (r Record) DescriptionLength() int {
	if !r.HasDescription() {
		return 0
	}
	return len([]rune(r.Description))
}

// IsUnknown reports whether a textual field carries no information.
func IsUnknown(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == Unknown
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	return s
}

// NormalizeISBN strips everything but digits and returns the result when it
// is a 10 or 13 digit ISBN, otherwise Unknown.
func NormalizeISBN(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, raw)
	if len(digits) == 10 || len(digits) == 13 {
		return digits
	}
	return Unknown
}
