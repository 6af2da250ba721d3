package scraper

import (
	"encoding/json"
	"net/url"
	"strings"

	"bookbargain-backend/lib/htmlutil"
	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/extract"

	"github.com/PuerkitoBio/goquery"
)

type amazon struct{}

func (amazon) source() book.Source {
	return book.Amazon
}

func (amazon) defaultBaseUrl() string {
	return "https://www.amazon.in"
}

func (amazon) searchUrl(base *url.URL, query string) string {
	base.Path = "/s"
	base.RawQuery = "k=" + joinEscaped(query, "+", url.QueryEscape) + "&i=stripbooks"
	return base.String()
}

const amazonUnderlineLink = ".a-link-normal.s-underline-text.s-underline-link-text.s-link-style.a-text-normal"

func (amazon) bestMatch(doc *goquery.Document, _ string) (string, bool) {
	href, ok := firstHref(doc, "div.s-result-item h2 a", ".s-title-instructions-style a")
	if !ok {
		return "", false
	}
	if strings.Contains(href, "javascript:void") {
		return firstHref(doc, amazonUnderlineLink)
	}
	return href, true
}

func (amazon) extract(doc *goquery.Document, query string) book.Record {
	r := book.Empty(query, book.Amazon)

	r.Title = extract.FirstOr(doc, query, extract.Selectors("#productTitle", "#ebooksProductTitle")...)

	if price, ok := extract.PriceFrom(doc, extract.PriceSelectors(
		".a-price .a-offscreen",
		".a-price-whole",
		"span.a-price span.a-offscreen",
		"#price span.a-color-price",
		"#price",
		".kindle-price .a-color-price",
	)...); ok {
		r.Price = price
	}

	r.Author = extract.FirstOr(doc, book.Unknown, extract.Selectors("span.author a", "a.contributorNameID")...)

	if isbn, ok := extract.ISBNIn(doc, "#detailBullets_feature_div", ".detail-bullet-list"); ok {
		r.ISBN = isbn
	}

	r.Rating = extract.RatingFrom(doc, "span[data-hook='rating-out-of-text'], #acrPopover")

	r.Description = extract.FirstOr(
		doc,
		book.NoDescription,
		extract.Selectors("#bookDescription_feature_div", "#productDescription", "#feature-bullets")...,
	)

	r.ImageURL = amazonImage(doc)

	doc.Find("#wayfinding-breadcrumbs_feature_div a, #nav-subnav a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		crumb := htmlutil.Text(sel)
		if strings.Contains(crumb, "Books") && crumb != "Books" {
			r.Genre = crumb
			return false
		}
		return true
	})

	details := "#detailBullets_feature_div li, .detail-bullet-list li, .a-expander-content li"
	if binding, ok := extract.LabeledItems(doc, details, "Binding", "Format"); ok {
		r.Binding = binding
	}
	if language, ok := extract.LabeledItems(doc, details, "Language"); ok {
		r.Language = language
	}

	return r
}

// amazonImage prefers the img src, falling back to the first entry of the
// data-a-dynamic-image map ({"<url>": [w, h], ...}).
func amazonImage(doc *goquery.Document) string {
	img := doc.Find("#imgBlkFront, #landingImage, #ebooksImgBlkFront").First()
	if img.Length() == 0 {
		return book.PlaceholderImage
	}
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src != "" && !strings.HasPrefix(src, "data:") {
		return src
	}
	if first, ok := firstJSONKey(img.AttrOr("data-a-dynamic-image", "")); ok {
		return first
	}
	return book.PlaceholderImage
}

// firstJSONKey returns the first key of a JSON object in document order.
func firstJSONKey(raw string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return "", false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", false
	}
	tok, err = dec.Token()
	if err != nil {
		return "", false
	}
	key, ok := tok.(string)
	return key, ok && key != ""
}
