package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases and removes all whitespace, useful for comparing
// names that were typeset differently.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// NormalizeTitle lowercases and collapses whitespace.
func NormalizeTitle(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	return whitespaceRegex.ReplaceAllString(title, " ")
}

// SignificantTokens returns the lowercase whitespace separated tokens of s
// that are longer than two characters.
func SignificantTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		if len([]rune(tok)) > 2 {
			out = append(out, tok)
		}
	}
	return out
}

// Overlap counts how many of the tokens are contained in any of texts.
func Overlap(tokens []string, texts ...string) int {
	lowered := make([]string, len(texts))
	for i, t := range texts {
		lowered[i] = strings.ToLower(t)
	}
	score := 0
	for _, tok := range tokens {
		for _, t := range lowered {
			if strings.Contains(t, tok) {
				score++
				break
			}
		}
	}
	return score
}

// Similarity is the Jaro-Winkler similarity of two titles after
// normalization, 1 means identical.
func Similarity(a, b string) float64 {
	return matchr.JaroWinkler(NormalizeTitle(a), NormalizeTitle(b), false)
}

// ContainsAny reports whether text contains any of the keywords.
func ContainsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Capitalize uppercases the first letter and lowercases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
