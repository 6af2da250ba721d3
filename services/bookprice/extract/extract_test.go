package extract

import (
	"strings"
	"testing"

	"bookbargain-backend/services/bookprice/book"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestPrice(t *testing.T) {
	cases := []struct {
		text     string
		expected string
		found    bool
	}{
		{text: "₹123.45", expected: "123.45", found: true},
		{text: "₹ 1,299", expected: "1299", found: true},
		{text: "Rs. 1,234", expected: "1234", found: true},
		{text: "Rs 75.5", expected: "75.5", found: true},
		{text: "INR 450", expected: "450", found: true},
		{text: "99.99", expected: "99.99", found: true},
		{text: "399.", expected: "399", found: true},
		{text: "Currently unavailable", expected: "0", found: false},
		{text: "", expected: "0", found: false},
		{text: "-", expected: "0", found: false},
	}
	for _, c := range cases {
		value, found := Price(c.text)
		require.Equal(t, c.found, found, c.text)
		require.True(t, decimal.RequireFromString(c.expected).Equal(value), "%s: got %s", c.text, value)
		require.False(t, value.IsNegative())
	}
}

func TestPriceInText(t *testing.T) {
	_, found := PriceInText("Published 2021, 328 pages")
	require.False(t, found)

	value, found := PriceInText("Published 2021, 328 pages. Our price: ₹ 250 only")
	require.True(t, found)
	require.Equal(t, "250", value.String())
}

func TestPriceFrom(t *testing.T) {
	doc := parse(t, `
		<div class="price"></div>
		<span class="money" data-price="29900">Rs. 310</span>
		<span class="sale">₹ 199</span>`)

	value, found := PriceFrom(doc, PriceSelectors(".price", ".sale")...)
	require.True(t, found)
	require.Equal(t, "199", value.String())

	value, found = PriceFrom(doc, PriceSelector{Query: "[data-price]", MinorAttr: "data-price"})
	require.True(t, found)
	require.Equal(t, "299", value.String())

	_, found = PriceFrom(doc, PriceSelectors(".missing", ".price")...)
	require.False(t, found)
}

func TestISBN(t *testing.T) {
	cases := []struct {
		text     string
		expected string
	}{
		{text: "ISBN-10 : 0451524934 ISBN-13 : 978-0451524935", expected: "9780451524935"},
		{text: "Publisher: Signet ISBN: 0451524934 Pages: 328", expected: "0451524934"},
		{text: "ISBN-13: 9780451524935", expected: "9780451524935"},
		{text: "ISBN: 045152493", expected: book.Unknown},
		{text: "ISBN-13: 97804515249351", expected: book.Unknown},
		{text: "no identifiers here 9780451524935", expected: book.Unknown},
	}
	for _, c := range cases {
		isbn, found := ISBN(c.text)
		require.Equal(t, c.expected, isbn, c.text)
		require.Equal(t, c.expected != book.Unknown, found, c.text)
		if found {
			require.Contains(t, []int{10, 13}, len(isbn))
		}
	}
}

func TestISBNFromLabeledItems(t *testing.T) {
	doc := parse(t, `
		<ul class="list-unstyled">
			<li>Binding: Paperback</li>
			<li>ISBN: 0451524934</li>
			<li>ISBN-13: 9780451524935</li>
		</ul>`)
	isbn, found := ISBNFromLabeledItems(doc, "ul.list-unstyled li")
	require.True(t, found)
	require.Equal(t, "9780451524935", isbn)
}

func TestRating(t *testing.T) {
	doc := parse(t, `
		<span id="a" title="4.5 out of 5 stars">4.5 out of 5</span>
		<span id="b">Not Rated</span>
		<div id="c">Rated 3 of 5</div>`)
	require.Equal(t, 4.5, RatingFrom(doc, "#a"))
	require.Equal(t, 0.0, RatingFrom(doc, "#b"))
	require.Equal(t, 3.0, RatingFrom(doc, "#c"))
	require.Equal(t, 0.0, RatingFrom(doc, "#missing"))
}

func TestLabeledItems(t *testing.T) {
	doc := parse(t, `
		<ul id="details">
			<li>Publisher : Penguin</li>
			<li>Language : English</li>
			<li>Format: Paperback</li>
		</ul>`)

	language, found := LabeledItems(doc, "#details li", "Language")
	require.True(t, found)
	require.Equal(t, "English", language)

	binding, found := LabeledItems(doc, "#details li", "Binding", "Format")
	require.True(t, found)
	require.Equal(t, "Paperback", binding)

	_, found = LabeledItems(doc, "#details li", "Pages")
	require.False(t, found)
}

func TestFromText(t *testing.T) {
	binding, found := BindingFromText("A beautiful HARDCOVER edition")
	require.True(t, found)
	require.Equal(t, "Hardcover", binding)

	binding, found = BindingFromText("Available as an e-book")
	require.True(t, found)
	require.Equal(t, "E-Book", binding)

	_, found = BindingFromText("a story")
	require.False(t, found)

	language, found := LanguageFromText("This classic, written in hindi, ...")
	require.True(t, found)
	require.Equal(t, "Hindi", language)

	language, found = LanguageFromText("Language: ENGLISH")
	require.True(t, found)
	require.Equal(t, "English", language)
}

func TestFirst(t *testing.T) {
	doc := parse(t, `<h1> </h1><h2 class="title">Animal Farm</h2><img src="/cover.jpg">`)

	title, found := First(doc, nil, Selectors("h1", "h2.title")...)
	require.True(t, found)
	require.Equal(t, "Animal Farm", title)

	image := FirstOr(doc, book.PlaceholderImage, Selector{Query: "img", Attr: "data-src"}, Selector{Query: "img", Attr: "src"})
	require.Equal(t, "/cover.jpg", image)

	_, found = First(doc, func(s string) bool { return s != "Animal Farm" }, Selectors("h2.title")...)
	require.False(t, found)
}
