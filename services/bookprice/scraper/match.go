package scraper

import (
	"strings"

	"bookbargain-backend/lib/htmlutil"
	"bookbargain-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// joinEscaped escapes every word of query and joins them with sep, which
// is how the sources spell multi-word searches in their urls.
func joinEscaped(query, sep string, escape func(string) string) string {
	words := strings.Fields(query)
	for i, w := range words {
		words[i] = escape(w)
	}
	return strings.Join(words, sep)
}

// firstHref returns the href of the first element matching any of the
// queries, in query order.
func firstHref(doc *goquery.Document, queries ...string) (string, bool) {
	for _, q := range queries {
		var href string
		doc.Find(q).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href = strings.TrimSpace(sel.AttrOr("href", ""))
			return href == ""
		})
		if href != "" {
			return href, true
		}
	}
	return "", false
}

// BestByOverlap picks the candidate sharing the most significant tokens
// with the query. Ties go to the candidate seen first, a candidate sharing
// no token is never picked.
func BestByOverlap(query string, candidates []htmlutil.Anchor) (htmlutil.Anchor, bool) {
	tokens := textutil.SignificantTokens(query)

	best := -1
	bestScore := 0
	for i, c := range candidates {
		score := textutil.Overlap(tokens, c.Name, c.Context)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return htmlutil.Anchor{}, false
	}
	return candidates[best], true
}
