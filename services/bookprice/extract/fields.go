package extract

import (
	"regexp"
	"strings"

	"bookbargain-backend/lib/htmlutil"
	"bookbargain-backend/lib/textutil"
	"bookbargain-backend/services/bookprice/book"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

var (
	symbolPriceRegex = regexp.MustCompile(`₹\s*(\d[\d,]*(?:\.\d{1,2})?)`)
	codePriceRegex   = regexp.MustCompile(`(?:Rs\.?|INR)\s*(\d[\d,]*(?:\.\d{1,2})?)`)
	barePriceRegex   = regexp.MustCompile(`(\d[\d,]*(?:\.\d{1,2})?)`)
)

func parsePrice(patterns []*regexp.Regexp, text string) (decimal.Decimal, bool) {
	for _, p := range patterns {
		groups := p.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}
		value, err := decimal.NewFromString(strings.ReplaceAll(groups[1], ",", ""))
		if err != nil || value.IsNegative() {
			continue
		}
		return value, true
	}
	return decimal.Zero, false
}

// Price parses free-form price text such as "₹1,234.50", "Rs. 299" or
// "399.". Thousands separators are ignored.
func Price(text string) (decimal.Decimal, bool) {
	return parsePrice([]*regexp.Regexp{symbolPriceRegex, codePriceRegex, barePriceRegex}, text)
}

// PriceInText only accepts amounts that carry a currency marker, it is used
// when scanning whole documents where bare numbers are meaningless.
func PriceInText(text string) (decimal.Decimal, bool) {
	return parsePrice([]*regexp.Regexp{symbolPriceRegex, codePriceRegex}, text)
}

// PriceMinorUnits converts a machine readable amount in minor units
// ("29900") to major units (299).
func PriceMinorUnits(attr string) (decimal.Decimal, bool) {
	value, err := decimal.NewFromString(strings.TrimSpace(attr))
	if err != nil || value.IsNegative() {
		return decimal.Zero, false
	}
	return value.Shift(-2), true
}

// PriceSelector reads a price from an element, preferring a minor units
// attribute (MinorAttr) over the element's text.
type PriceSelector struct {
	Query     string
	MinorAttr string
}

// PriceFrom tries each selector in order, the first positive price wins.
func PriceFrom(doc *goquery.Document, selectors ...PriceSelector) (decimal.Decimal, bool) {
	for _, s := range selectors {
		var found decimal.Decimal
		doc.Find(s.Query).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if s.MinorAttr != "" {
				if attr, ok := sel.Attr(s.MinorAttr); ok {
					if value, ok := PriceMinorUnits(attr); ok && value.IsPositive() {
						found = value
						return false
					}
				}
			}
			if value, ok := Price(htmlutil.Text(sel)); ok && value.IsPositive() {
				found = value
				return false
			}
			return true
		})
		if found.IsPositive() {
			return found, true
		}
	}
	return decimal.Zero, false
}

// PriceSelectors is a shorthand for text-only price selectors.
func PriceSelectors(queries ...string) []PriceSelector {
	out := make([]PriceSelector, len(queries))
	for i, q := range queries {
		out[i] = PriceSelector{Query: q}
	}
	return out
}

var (
	isbn13Regex = regexp.MustCompile(`ISBN-13\D*(\d{3}-?\d{10}|\d{10})(?:\D|$)`)
	isbnRegex   = regexp.MustCompile(`ISBN\D*(\d{3}-?\d{10}|\d{10})(?:\D|$)`)
)

// ISBN finds a labeled ISBN in text, preferring an explicit ISBN-13 label.
// Only 10 or 13 digit values are accepted.
func ISBN(text string) (string, bool) {
	for _, p := range []*regexp.Regexp{isbn13Regex, isbnRegex} {
		groups := p.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}
		isbn := book.NormalizeISBN(groups[1])
		if isbn != book.Unknown {
			return isbn, true
		}
	}
	return book.Unknown, false
}

// ISBNIn runs ISBN over the text of each selection in order.
func ISBNIn(doc *goquery.Document, queries ...string) (string, bool) {
	for _, q := range queries {
		var found string
		doc.Find(q).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			isbn, ok := ISBN(htmlutil.Text(sel))
			if ok {
				found = isbn
			}
			return !ok
		})
		if found != "" {
			return found, true
		}
	}
	return book.Unknown, false
}

// ISBNFromLabeledItems looks for "ISBN-13: ..." and then "ISBN: ..." list
// items under the selector.
func ISBNFromLabeledItems(doc *goquery.Document, query string) (string, bool) {
	for _, label := range []string{"ISBN-13", "ISBN"} {
		value, ok := LabeledItems(doc, query, label)
		if !ok {
			continue
		}
		isbn := book.NormalizeISBN(value)
		if isbn != book.Unknown {
			return isbn, true
		}
	}
	return book.Unknown, false
}

var ratingRegex = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

// Rating reads a numeric rating from an element's title attribute or text.
// Unrated products yield 0.
func Rating(sel *goquery.Selection) float64 {
	if sel.Length() == 0 {
		return 0
	}
	for _, text := range []string{sel.AttrOr("title", ""), htmlutil.Text(sel)} {
		if text == "" || strings.Contains(strings.ToLower(text), "not rated") {
			continue
		}
		groups := ratingRegex.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}
		value, err := decimal.NewFromString(groups[1])
		if err != nil {
			continue
		}
		rating, _ := value.Float64()
		return rating
	}
	return 0
}

// RatingFrom returns the rating of the first matching element.
func RatingFrom(doc *goquery.Document, query string) float64 {
	return Rating(doc.Find(query).First())
}

// Labeled reads the value following "<label>:" in text, up to the next
// colon or the end of the text.
func Labeled(text string, labels ...string) (string, bool) {
	for _, label := range labels {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*:\s*([^:]+)`)
		groups := re.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}
		value := strings.TrimSpace(groups[1])
		if value != "" {
			return value, true
		}
	}
	return "", false
}

// LabeledItems scans the elements matching query for a "<label>: value"
// line, each label is tried across all elements before the next label.
func LabeledItems(doc *goquery.Document, query string, labels ...string) (string, bool) {
	items := doc.Find(query)
	for _, label := range labels {
		var found string
		items.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := htmlutil.Text(sel)
			if !strings.Contains(strings.ToLower(text), strings.ToLower(label)) {
				return true
			}
			value, ok := Labeled(text, label)
			if ok {
				found = value
			}
			return !ok
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

var bindingKeywords = []struct {
	keywords []string
	label    string
}{
	{keywords: []string{"hardcover", "hardback"}, label: "Hardcover"},
	{keywords: []string{"paperback"}, label: "Paperback"},
	{keywords: []string{"e-book", "ebook", "kindle edition"}, label: "E-Book"},
}

// BindingFromText guesses the binding from free text such as a description.
func BindingFromText(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, b := range bindingKeywords {
		if textutil.ContainsAny(lowered, b.keywords) {
			return b.label, true
		}
	}
	return "", false
}

var languagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)language:\s*([a-z]+)`),
	regexp.MustCompile(`(?i)in\s+([a-z]+)\s+language`),
	regexp.MustCompile(`(?i)written in\s+([a-z]+)`),
}

// LanguageFromText guesses the language from free text such as a
// description.
func LanguageFromText(text string) (string, bool) {
	for _, p := range languagePatterns {
		groups := p.FindStringSubmatch(text)
		if len(groups) < 2 {
			continue
		}
		return textutil.Capitalize(groups[1]), true
	}
	return "", false
}
