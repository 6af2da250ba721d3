package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"bookbargain-backend/lib/htmlutil"
	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/extract"

	"github.com/PuerkitoBio/goquery"
)

type bookswagon struct{}

func (bookswagon) source() book.Source {
	return book.Bookswagon
}

func (bookswagon) defaultBaseUrl() string {
	return "https://www.bookswagon.com"
}

func (bookswagon) searchUrl(base *url.URL, query string) string {
	base.RawQuery = ""
	// the query is a single path segment, a "/" in it must not nest
	base.Path = "/search-books/" + strings.Join(strings.Fields(query), "-")
	base.RawPath = "/search-books/" + joinEscaped(query, "-", url.PathEscape)
	return base.String()
}

func (bookswagon) bestMatch(doc *goquery.Document, _ string) (string, bool) {
	return firstHref(doc, "div.title a", ".product-title a")
}

var (
	bookswagonTitleSuffix = regexp.MustCompile(`\s*\|.*$`)
	bookswagonTitleParens = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]\s*$`)
)

func bookswagonTitle(raw string) string {
	title := bookswagonTitleSuffix.ReplaceAllString(raw, "")
	title = bookswagonTitleParens.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

func (bookswagon) extract(doc *goquery.Document, query string) book.Record {
	r := book.Empty(query, book.Bookswagon)

	if title, ok := extract.First(doc, nil, extract.Selectors("h1")...); ok {
		if cleaned := bookswagonTitle(title); cleaned != "" {
			r.Title = cleaned
		}
	}

	price, ok := extract.PriceFrom(doc, extract.PriceSelectors(
		"div.price > div.sell",
		"span#ctl00_phBody_ProductDetail_lblourPrice",
		"label#ctl00_phBody_ProductDetail_lblourPrice",
		"label#ctl00_phBody_ProductDetail_lblDiscountPrice",
		".product-price",
		".our-price",
		".sell",
		".price-text",
		"#site-wrapper .price",
	)...)
	if !ok {
		price, ok = extract.PriceInText(htmlutil.DocumentText(doc))
	}
	if ok {
		r.Price = price
	}

	r.Author = extract.FirstOr(doc, book.Unknown, extract.Selectors(
		"#ctl00_phBody_ProductDetail_AuthorLink",
		".author-name a",
		".author a",
		"label#ctl00_phBody_ProductDetail_lblAuthor1 a",
		"span.a-list-item a.contributorNameID",
	)...)

	isbn, ok := extract.ISBNIn(doc, "#ctl00_phBody_ProductDetail_lblProductDetail", ".product-details")
	if !ok {
		isbn, ok = extract.ISBNFromLabeledItems(doc, "ul.list-unstyled li")
	}
	if ok {
		r.ISBN = isbn
	}

	r.Rating = extract.RatingFrom(doc, "div.starRating, .rating, span#ctl00_phBody_ProductDetail_StarRating_LblAvgRate")

	r.Description = extract.FirstOr(doc, book.NoDescription,
		extract.Selector{Query: "#ctl00_phBody_ProductDetail_lblProductDesc"},
		extract.Selector{Query: ".desc"},
		extract.Func(func(doc *goquery.Document) (string, bool) {
			var parts []string
			doc.Find("div.col-sm-12 p").Each(func(_ int, sel *goquery.Selection) {
				if text := htmlutil.Text(sel); text != "" {
					parts = append(parts, text)
				}
			})
			return strings.Join(parts, " "), len(parts) > 0
		}),
	)

	r.ImageURL = extract.FirstOr(doc, book.PlaceholderImage,
		extract.Selector{Query: "#ctl00_phBody_ProductDetail_imgProduct", Attr: "src"},
		extract.Selector{Query: ".product-image img", Attr: "src"},
	)

	doc.Find("a.themecolor, .category-links a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !strings.Contains(sel.AttrOr("href", ""), "-books") {
			return true
		}
		if text := htmlutil.Text(sel); text != "" {
			r.Genre = text
			return false
		}
		return true
	})

	details := "ul.list-unstyled.detailfont14 li, .product-specs li"
	if language, ok := extract.LabeledItems(doc, details, "Language"); ok {
		r.Language = language
	}
	if binding, ok := extract.LabeledItems(doc, details, "Binding", "Format"); ok {
		r.Binding = binding
	}

	return r
}
