package genre

import (
	"strings"

	"bookbargain-backend/lib/textutil"
	"bookbargain-backend/services/bookprice/book"
)

const (
	Fiction        = "Fiction"
	ScienceFiction = "Science Fiction"
	Mystery        = "Mystery"
	Romance        = "Romance"
	Biography      = "Biography"
	History        = "History"
	SelfHelp       = "Self-Help"
	Children       = "Children"
)

type rule struct {
	keywords []string
	label    string
}

// rules are checked in order, so a category has to come before any broader
// category whose keywords it contains ("science fiction" contains
// "fiction", "history" contains "story"). Children is only checked once
// every other category has failed, right before Fiction.
var rules = []rule{
	{keywords: []string{"science fiction", "sci-fi", "scifi", "space"}, label: ScienceFiction},
	{keywords: []string{"mystery", "thriller", "crime", "detective"}, label: Mystery},
	{keywords: []string{"romance", "love", "romantic"}, label: Romance},
	{keywords: []string{"biography", "autobiography", "memoir"}, label: Biography},
	{keywords: []string{"history", "historical"}, label: History},
	{keywords: []string{"self-help", "self help", "personal", "motivation"}, label: SelfHelp},
	{keywords: []string{"children", "kids", "juvenile", "harry potter"}, label: Children},
	{keywords: []string{"fiction", "novel", "story", "fantasy"}, label: Fiction},
}

// Classify assigns one of a small closed set of genres based on keywords in
// the title and description, book.Unknown when nothing matches.
func Classify(title, description string) string {
	text := strings.ToLower(title + " " + description)
	for _, r := range rules {
		if textutil.ContainsAny(text, r.keywords) {
			return r.label
		}
	}
	return book.Unknown
}

var extendedRules = []rule{
	{keywords: []string{"non-fiction", "nonfiction"}, label: "Non-Fiction"},
	{keywords: []string{"science fiction", "sci-fi", "scifi"}, label: "Science Fiction"},
	{keywords: []string{"young adult", "teen"}, label: "Young Adult"},
	{keywords: []string{"autobiography", "memoir"}, label: "Autobiography"},
	{keywords: []string{"biography"}, label: "Biography"},
	{keywords: []string{"children", "kids", "juvenile", "picture book"}, label: "Children's Books"},
	{keywords: []string{"self-help", "self help", "personal development", "motivation"}, label: "Self-Help"},
	{keywords: []string{"mystery", "detective"}, label: "Mystery"},
	{keywords: []string{"thriller", "suspense", "crime"}, label: "Thriller"},
	{keywords: []string{"romance", "romantic", "love story"}, label: "Romance"},
	{keywords: []string{"fantasy", "magic", "dragon"}, label: "Fantasy"},
	{keywords: []string{"horror", "ghost", "supernatural"}, label: "Horror"},
	{keywords: []string{"business", "management", "finance", "economics"}, label: "Business"},
	{keywords: []string{"history", "historical"}, label: "History"},
	{keywords: []string{"fiction", "novel"}, label: "Fiction"},
}

// ClassifyExtended is Classify with a finer set of labels, used for sources
// whose descriptions are detailed enough to tell them apart.
func ClassifyExtended(text string) string {
	text = strings.ToLower(text)
	for _, r := range extendedRules {
		if textutil.ContainsAny(text, r.keywords) {
			return r.label
		}
	}
	return book.Unknown
}

// Defaults is the list of genres offered when nothing has been stored yet.
var Defaults = []string{
	Fiction,
	"Non-Fiction",
	Mystery,
	Romance,
	ScienceFiction,
	"Fantasy",
	Biography,
	History,
	SelfHelp,
	Children,
}
