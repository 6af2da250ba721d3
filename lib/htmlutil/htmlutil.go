package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/PuerkitoBio/purell"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node, scripts and styles
// included.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer, false)
	return buffer.String()
}

// GetVisibleText is GetText but skips <script>, <style> and <noscript>
// subtrees, and separates block-ish siblings with a space.
func GetVisibleText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer, true)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer, visibleOnly bool) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if visibleOnly && node.Type == html.ElementNode {
		switch node.Data {
		case "script", "style", "noscript":
			return
		}
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer, visibleOnly)
		if visibleOnly && child.Type == html.ElementNode {
			buffer.WriteByte(' ')
		}
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non-printable characters, collapses runs of whitespace
// and trims the result.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Text returns the cleaned text of the first node in the selection.
func Text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return CleanText(GetText(sel.Nodes[0]))
}

// DocumentText returns the cleaned visible text of a whole document.
func DocumentText(doc *goquery.Document) string {
	if doc == nil || len(doc.Nodes) == 0 {
		return ""
	}
	return CleanText(GetVisibleText(doc.Nodes[0]))
}

type Anchor struct {
	Name string
	Href string
	// Context is the cleaned text of the anchor's parent element.
	Context string
}

// GetAnchors collects every anchor in sel, hrefs are left as written.
func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	sel.Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		anchors = append(anchors, Anchor{
			Name:    Text(s),
			Href:    strings.TrimSpace(href),
			Context: Text(s.Parent()),
		})
	})
	return anchors
}

// Resolve resolves href against base and normalizes the result so that the
// same page always produces the same string.
func Resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	full := base.ResolveReference(ref)
	return purell.NormalizeURL(
		full,
		purell.FlagsSafe|
			purell.FlagRemoveDotSegments|
			purell.FlagRemoveDuplicateSlashes|
			purell.FlagRemoveFragment,
	), nil
}
