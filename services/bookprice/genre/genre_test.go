package genre

import (
	"testing"

	"bookbargain-backend/services/bookprice/book"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		title       string
		description string
		expected    string
	}{
		{title: "Harry Potter and the Chamber of Secrets", expected: Children},
		{title: "Dune", description: "The greatest science fiction epic of all time.", expected: ScienceFiction},
		{title: "Sapiens", description: "A brief history of humankind.", expected: History},
		{title: "The Hound of the Baskervilles", description: "A Sherlock Holmes detective novel.", expected: Mystery},
		{title: "Long Walk to Freedom", description: "The autobiography of Nelson Mandela.", expected: Biography},
		{title: "Atomic Habits", description: "A self-help guide to building good habits.", expected: SelfHelp},
		{title: "Pride and Prejudice", description: "A classic novel of manners.", expected: Fiction},
		{title: "The Kids Detective Club", expected: Mystery},
		{title: "Harry Potter and the Half-Blood Prince", description: "A love story at Hogwarts.", expected: Romance},
		{title: "Kids' History of the World", expected: History},
		{title: "Harry Potter: A Fantasy Novel", expected: Children},
		{title: "The Personal MBA", expected: SelfHelp},
		{title: "Calculus", description: "Early transcendentals.", expected: book.Unknown},
		{title: "", description: "", expected: book.Unknown},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, Classify(c.title, c.description), c.title)
	}
}

func TestClassifyExtended(t *testing.T) {
	require.Equal(t, "Non-Fiction", ClassifyExtended("An acclaimed work of non-fiction"))
	require.Equal(t, "Science Fiction", ClassifyExtended("hard science fiction"))
	require.Equal(t, "Thriller", ClassifyExtended("A gripping crime saga"))
	require.Equal(t, "Fiction", ClassifyExtended("A debut novel"))
	require.Equal(t, book.Unknown, ClassifyExtended("Calculus, 8th edition"))
}
