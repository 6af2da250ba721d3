package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/db"
)

// SQLite is the Store backed by database/sql, either a local sqlite file or
// a remote libsql database.
type SQLite struct {
	conn   *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
}

// NewSQLite expects conn to already have db.Schema applied.
func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{
		conn:   conn,
		qry:    db.New(conn),
		makeTx: db.NewMakeTx(conn),
	}
}

func insertAll(ctx context.Context, qry *db.Queries, records []book.Record) error {
	for _, r := range records {
		err := qry.InsertBookPrice(ctx, toParams(r))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Insert(ctx context.Context, records ...book.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return err
	}
	defer discard()

	err = insertAll(ctx, tx, records)
	if err != nil {
		return err
	}
	return commit()
}

func (s *SQLite) ReplaceISBN(ctx context.Context, isbn string, records []book.Record) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return err
	}
	defer discard()

	_, err = tx.DeleteBookPricesByISBN(ctx, sql.NullString{String: isbn, Valid: true})
	if err != nil {
		return err
	}
	err = insertAll(ctx, tx, records)
	if err != nil {
		return err
	}
	return commit()
}

func (s *SQLite) DeleteByISBN(ctx context.Context, isbn string) (int64, error) {
	return s.qry.DeleteBookPricesByISBN(ctx, sql.NullString{String: isbn, Valid: true})
}

func (s *SQLite) Query(ctx context.Context, filter Filter) ([]book.Record, error) {
	query, args := selectQuery(db.Columns, filter, questionMark)
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []book.Record
	for rows.Next() {
		row, err := db.ScanBookPrice(rows)
		if err != nil {
			return nil, err
		}
		r, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := countQuery(filter, questionMark)
	var count int
	err := s.conn.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func (s *SQLite) Distinct(ctx context.Context, field Field) ([]string, error) {
	switch field {
	case FieldGenre:
		values, err := s.qry.DistinctGenres(ctx)
		return validStrings(values), err
	case FieldAuthor:
		values, err := s.qry.DistinctAuthors(ctx)
		return validStrings(values), err
	case FieldTitle:
		values, err := s.qry.DistinctTitles(ctx)
		if values == nil {
			values = []string{}
		}
		return values, err
	}
	return nil, fmt.Errorf("unknown field %d", field)
}

func (s *SQLite) AuthorCounts(ctx context.Context, search, letter string) ([]AuthorCount, error) {
	rows, err := s.qry.AuthorCounts(ctx, db.AuthorCountsParams{
		Search: search,
		Letter: letter,
	})
	if err != nil {
		return nil, err
	}
	out := []AuthorCount{}
	for _, r := range rows {
		if !r.Author.Valid {
			continue
		}
		out = append(out, AuthorCount{Author: r.Author.String, Count: int(r.Count)})
	}
	return out, nil
}

func (s *SQLite) StaleISBNs(ctx context.Context, before time.Time, limit int) ([]string, error) {
	values, err := s.qry.StaleISBNs(ctx, db.StaleISBNsParams{
		Before: before.UnixMilli(),
		Limit:  int64(limit),
	})
	return validStrings(values), err
}

func (s *SQLite) Ping(ctx context.Context) error {
	_, err := s.qry.CountBookPrices(ctx)
	return err
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}
