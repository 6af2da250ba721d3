package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"bookbargain-backend/lib/htmlutil"
	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/extract"
	"bookbargain-backend/services/bookprice/genre"

	"github.com/PuerkitoBio/goquery"
)

type kitabay struct{}

func (kitabay) source() book.Source {
	return book.Kitabay
}

func (kitabay) defaultBaseUrl() string {
	return "https://kitabay.com"
}

func (kitabay) searchUrl(base *url.URL, query string) string {
	base.Path = "/search"
	base.RawQuery = "q=" + joinEscaped(query, "+", url.QueryEscape)
	return base.String()
}

// Kitabay's search page mixes results with recommendations, so every
// product link is scored against the query instead of taking the first.
func (kitabay) bestMatch(doc *goquery.Document, query string) (string, bool) {
	anchors := htmlutil.GetAnchors(doc.Find("a[href*='/products/']"))
	best, ok := BestByOverlap(query, anchors)
	if !ok {
		return "", false
	}
	return best.Href, true
}

var kitabayAuthorPrefix = regexp.MustCompile(`(?i)^\s*by\s+`)

func (kitabay) extract(doc *goquery.Document, query string) book.Record {
	r := book.Empty(query, book.Kitabay)

	r.Title = extract.FirstOr(doc, query, extract.Selectors("h1")...)

	price, ok := extract.PriceFrom(doc,
		extract.PriceSelector{Query: "p.product__inline__price > span.price.on-sale"},
		extract.PriceSelector{Query: "p.product__inline__price > span.price"},
		extract.PriceSelector{Query: "div.product__price span.price"},
		extract.PriceSelector{Query: ".product-price"},
		extract.PriceSelector{Query: ".price-item"},
		extract.PriceSelector{Query: ".price--highlight"},
		extract.PriceSelector{Query: ".price-item--regular"},
		extract.PriceSelector{Query: "[data-price]", MinorAttr: "data-price"},
	)
	if !ok {
		price, ok = extract.PriceInText(htmlutil.DocumentText(doc))
	}
	if ok {
		r.Price = price
	}

	if author, ok := extract.First(doc, nil, extract.Selectors(
		"div.product__inline__author",
		".author-name",
		".product-meta__vendor",
	)...); ok {
		r.Author = strings.TrimSpace(kitabayAuthorPrefix.ReplaceAllString(author, ""))
	}

	r.ISBN = kitabayISBN(doc)

	r.Description = extract.FirstOr(doc, book.NoDescription,
		extract.Selectors("div.product__description", ".product-description")...,
	)

	image, ok := extract.First(doc, nil,
		extract.Selector{Query: "div.product__image img", Attr: "src"},
		extract.Selector{Query: "div.product__image img", Attr: "data-src"},
		extract.Selector{Query: ".product-featured-img", Attr: "src"},
		extract.Selector{Query: ".product-featured-img", Attr: "data-src"},
		extract.Selector{Query: ".product-single__media img", Attr: "src"},
		extract.Selector{Query: ".product-single__media img", Attr: "data-src"},
	)
	if ok {
		if strings.HasPrefix(image, "//") {
			image = "https:" + image
		}
		r.ImageURL = image
	}

	if r.Description != book.NoDescription {
		r.Genre = genre.ClassifyExtended(r.Description)
		if binding, ok := extract.BindingFromText(r.Description); ok {
			r.Binding = binding
		}
		if language, ok := extract.LanguageFromText(r.Description); ok {
			r.Language = language
		}
	}

	return r
}

func kitabayISBN(doc *goquery.Document) string {
	var isbn string
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := htmlutil.Text(sel)
		if !strings.Contains(text, "ISBN:") {
			return true
		}
		found, ok := extract.ISBN(text)
		if ok {
			isbn = found
		}
		return !ok
	})
	if isbn != "" {
		return isbn
	}
	if found, ok := extract.ISBNIn(doc, "div.product__description", ".product-details"); ok {
		return found
	}
	if found, ok := extract.ISBN(htmlutil.DocumentText(doc)); ok {
		return found
	}
	return book.Unknown
}
