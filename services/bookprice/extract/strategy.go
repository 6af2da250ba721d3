// Package extract turns loosely structured retailer pages into field values.
//
// Every extractor is an ordered list of strategies, the first strategy that
// yields a value which passes validation wins. A field no strategy can fill
// is reported as not found and left to the caller's default.
package extract

import (
	"regexp"
	"strings"

	"bookbargain-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is one way of finding a raw field value in a document.
type Strategy interface {
	Extract(doc *goquery.Document) (string, bool)
}

// Selector takes the first element matching Query that has a non-empty
// value. Attr selects an attribute, the element's text is used otherwise.
type Selector struct {
	Query string
	Attr  string
}

func (s Selector) value(sel *goquery.Selection) string {
	if s.Attr != "" {
		return strings.TrimSpace(sel.AttrOr(s.Attr, ""))
	}
	return htmlutil.Text(sel)
}

func (s Selector) Extract(doc *goquery.Document) (string, bool) {
	var out string
	doc.Find(s.Query).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		out = s.value(sel)
		return out == ""
	})
	return out, out != ""
}

// Pattern matches a regular expression against the visible text of the
// whole document and yields the first capture group.
type Pattern struct {
	Regex *regexp.Regexp
}

func (p Pattern) Extract(doc *goquery.Document) (string, bool) {
	groups := p.Regex.FindStringSubmatch(htmlutil.DocumentText(doc))
	if len(groups) < 2 {
		return "", false
	}
	value := strings.TrimSpace(groups[1])
	return value, value != ""
}

// Func adapts a plain function to a Strategy.
type Func func(doc *goquery.Document) (string, bool)

func (f Func) Extract(doc *goquery.Document) (string, bool) {
	return f(doc)
}

// Selectors is a shorthand for a list of text selectors.
func Selectors(queries ...string) []Strategy {
	out := make([]Strategy, len(queries))
	for i, q := range queries {
		out[i] = Selector{Query: q}
	}
	return out
}

// First runs the strategies in order and returns the first value accepted
// by validate. A nil validate accepts every non-empty value.
func First(doc *goquery.Document, validate func(string) bool, strategies ...Strategy) (string, bool) {
	for _, s := range strategies {
		value, ok := s.Extract(doc)
		if !ok {
			continue
		}
		if validate != nil && !validate(value) {
			continue
		}
		return value, true
	}
	return "", false
}

// FirstOr is First with a fallback value.
func FirstOr(doc *goquery.Document, fallback string, strategies ...Strategy) string {
	value, ok := First(doc, nil, strategies...)
	if !ok {
		return fallback
	}
	return value
}
