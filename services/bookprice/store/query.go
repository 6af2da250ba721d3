package store

import (
	"fmt"
	"strings"
)

// placeholder renders the nth (1-based) bind parameter of a dialect.
type placeholder func(n int) string

func questionMark(int) string {
	return "?"
}

func dollar(n int) string {
	return fmt.Sprintf("$%d", n)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

type selection struct {
	clauses []string
	args    []any
	ph      placeholder
}

func (s *selection) bind(value any) string {
	s.args = append(s.args, value)
	return s.ph(len(s.args))
}

func (s *selection) where(clause string) {
	s.clauses = append(s.clauses, clause)
}

func (s *selection) contains(column, value string) string {
	return fmt.Sprintf(`lower(coalesce(%s, '')) like %s escape '\'`, column, s.bind(containsPattern(value)))
}

func buildSelection(filter Filter, ph placeholder) *selection {
	s := &selection{ph: ph}

	if filter.Text != "" {
		s.where(fmt.Sprintf(
			"(%s or %s or %s)",
			s.contains("title", filter.Text),
			s.contains("author", filter.Text),
			s.contains("genre", filter.Text),
		))
	}
	if filter.Title != "" {
		s.where(s.contains("title", filter.Title))
	}
	if filter.Author != "" {
		s.where(s.contains("author", filter.Author))
	}
	if filter.Genre != "" {
		s.where(fmt.Sprintf("lower(genre) = lower(%s)", s.bind(filter.Genre)))
	}
	if filter.ISBN != "" {
		s.where(fmt.Sprintf("isbn = %s", s.bind(filter.ISBN)))
	}
	if filter.ISBNLike != "" {
		cleaned := strings.ReplaceAll(strings.TrimSpace(filter.ISBNLike), "-", "")
		s.where(fmt.Sprintf(
			`replace(coalesce(isbn, ''), '-', '') like %s escape '\'`,
			s.bind(containsPattern(cleaned)),
		))
	}
	if filter.Source != nil {
		s.where(fmt.Sprintf("source = %s", s.bind(filter.Source.String())))
	}
	if filter.MinPrice.IsPositive() {
		s.where(fmt.Sprintf("price >= %s", s.bind(filter.MinPrice.InexactFloat64())))
	}
	if filter.MaxPrice.IsPositive() {
		s.where(fmt.Sprintf("price <= %s and price > 0", s.bind(filter.MaxPrice.InexactFloat64())))
	}
	if filter.RatedOnly {
		s.where("rating > 0")
	}
	if filter.Sort == SortPriceAsc {
		s.where("price > 0")
	}

	return s
}

func (s *selection) whereClause() string {
	if len(s.clauses) == 0 {
		return ""
	}
	return " where " + strings.Join(s.clauses, " and ")
}

func orderBy(sort Sort) string {
	switch sort {
	case SortRelevance, SortRating:
		return " order by rating desc, id"
	case SortPriceAsc:
		return " order by price asc, id"
	case SortPriceDesc:
		return " order by price desc, id"
	case SortNewest:
		return " order by observed_at desc, id"
	}
	return " order by id"
}

// selectQuery builds the statement and arguments selecting filter.
func selectQuery(columns string, filter Filter, ph placeholder) (string, []any) {
	s := buildSelection(filter, ph)
	query := "select " + columns + " from book_price" + s.whereClause() + orderBy(filter.Sort)
	if filter.Limit > 0 {
		query += fmt.Sprintf(" limit %s offset %s", s.bind(filter.Limit), s.bind(max(filter.Offset, 0)))
	}
	return query, s.args
}

func countQuery(filter Filter, ph placeholder) (string, []any) {
	s := buildSelection(filter, ph)
	return "select count(*) from book_price" + s.whereClause(), s.args
}
