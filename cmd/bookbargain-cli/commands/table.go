package commands

import (
	"os"
	"strings"

	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/reconcile"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func price(r book.Record) string {
	if !r.HasPrice() {
		return "-"
	}
	return "₹" + r.Price.StringFixed(2)
}

func renderRecords(records []book.Record) {
	t := newTable()
	t.AppendHeader(table.Row{"Source", "Title", "Author", "ISBN", "Price", "Rating", "Binding", "Genre"})
	for _, r := range records {
		t.AppendRow(table.Row{r.Source, r.Title, r.Author, r.ISBN, price(r), r.Rating, r.Binding, r.Genre})
	}
	t.Render()
}

func renderEntities(entities []reconcile.Entity) {
	t := newTable()
	t.AppendHeader(table.Row{"Title", "Author", "ISBN", "From", "Sources"})
	for _, e := range entities {
		sources := make([]string, len(e.Sources))
		for i, s := range e.Sources {
			sources[i] = s.String()
		}
		from := "-"
		if e.MinPrice.IsPositive() {
			from = "₹" + e.MinPrice.StringFixed(2)
		}
		t.AppendRow(table.Row{e.Canonical.Title, e.Canonical.Author, e.Canonical.ISBN, from, strings.Join(sources, ", ")})
	}
	t.Render()
}

func renderDetail(detail reconcile.Detail) {
	c := detail.Canonical
	t := newTable()
	t.AppendRows([]table.Row{
		{"Title", c.Title},
		{"Author", c.Author},
		{"ISBN", c.ISBN},
		{"Genre", c.Genre},
		{"Binding", c.Binding},
		{"Language", c.Language},
		{"Rating", c.Rating},
	})
	t.Render()

	renderRecords(detail.Comparison)
}
