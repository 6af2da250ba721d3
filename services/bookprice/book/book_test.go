package book

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNormalizeISBN(t *testing.T) {
	cases := []struct {
		raw      string
		expected string
	}{
		{raw: "978-0-451-52493-5", expected: "9780451524935"},
		{raw: "0451524934", expected: "0451524934"},
		{raw: "ISBN 0-451-52493-4", expected: "0451524934"},
		{raw: "045152493", expected: Unknown},
		{raw: "97804515249351", expected: Unknown},
		{raw: "", expected: Unknown},
		{raw: Unknown, expected: Unknown},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, NormalizeISBN(c.raw), c.raw)
	}
}

func TestEmpty(t *testing.T) {
	r := Empty("1984", Kitabay)
	require.Equal(t, "1984", r.Title)
	require.Equal(t, Kitabay, r.Source)
	require.True(t, r.Price.IsZero())
	require.Equal(t, Unknown, r.ISBN)
	require.Equal(t, PlaceholderImage, r.ImageURL)
	require.Equal(t, NoDescription, r.Description)
	require.False(t, r.HasPrice())
	require.False(t, r.HasISBN())
	require.False(t, r.HasDescription())
	require.Equal(t, 0, r.DescriptionLength())
}

func TestSanitized(t *testing.T) {
	original := Record{
		Title:  "  Animal Farm ",
		ISBN:   "978-0451526342",
		Price:  decimal.NewFromFloat(-3),
		Rating: -1,
		Source: Bookswagon,
	}
	r := original.Sanitized()

	require.Equal(t, "Animal Farm", r.Title)
	require.Equal(t, "9780451526342", r.ISBN)
	require.True(t, r.Price.IsZero())
	require.Zero(t, r.Rating)
	require.Equal(t, Unknown, r.Author)
	require.Equal(t, Unknown, r.Binding)
	require.Equal(t, PlaceholderImage, r.ImageURL)
	require.Equal(t, NoDescription, r.Description)

	// the original value is untouched
	require.Equal(t, "  Animal Farm ", original.Title)
	require.True(t, original.Price.IsNegative())
}

func TestSourceText(t *testing.T) {
	for _, s := range Sources {
		parsed, err := ParseSource(s.String())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}
	_, err := ParseSource("flipkart")
	require.Error(t, err)

	encoded, err := json.Marshal(struct {
		Source Source `json:"source"`
	}{Source: Bookswagon})
	require.NoError(t, err)
	require.JSONEq(t, `{"source":"bookswagon"}`, string(encoded))
}
