package db

import (
	"database/sql"
)

type BookPrice struct {
	ID          int64
	Title       string
	Isbn        sql.NullString
	Author      sql.NullString
	ImageUrl    sql.NullString
	Source      string
	Price       float64
	Rating      float64
	Description sql.NullString
	Genre       sql.NullString
	Binding     sql.NullString
	Language    sql.NullString
	ObservedAt  int64
}

// Columns is the column list matching the field order of BookPrice.
const Columns = "id, title, isbn, author, image_url, source, price, rating, description, genre, binding, language, observed_at"

type scanner interface {
	Scan(dest ...any) error
}

// ScanBookPrice scans a row selected with Columns.
func ScanBookPrice(row scanner) (BookPrice, error) {
	var i BookPrice
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Isbn,
		&i.Author,
		&i.ImageUrl,
		&i.Source,
		&i.Price,
		&i.Rating,
		&i.Description,
		&i.Genre,
		&i.Binding,
		&i.Language,
		&i.ObservedAt,
	)
	return i, err
}
