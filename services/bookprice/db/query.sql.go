package db

import (
	"context"
	"database/sql"
)

const insertBookPrice = `-- name: InsertBookPrice :exec
insert into book_price (
    title, isbn, author, image_url, source, price, rating,
    description, genre, binding, language, observed_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertBookPriceParams struct {
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

func (q *Queries) InsertBookPrice(ctx context.Context, arg InsertBookPriceParams) error {
	_, err := q.db.ExecContext(ctx, insertBookPrice,
		arg.Title,
		arg.Isbn,
		arg.Author,
		arg.ImageUrl,
		arg.Source,
		arg.Price,
		arg.Rating,
		arg.Description,
		arg.Genre,
		arg.Binding,
		arg.Language,
		arg.ObservedAt,
	)
	return err
}

const deleteBookPricesByISBN = `-- name: DeleteBookPricesByISBN :execrows
delete from book_price where isbn = ?
`

func (q *Queries) DeleteBookPricesByISBN(ctx context.Context, isbn sql.NullString) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBookPricesByISBN, isbn)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countBookPrices = `-- name: CountBookPrices :one
select count(*) from book_price
`

func (q *Queries) CountBookPrices(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countBookPrices)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const distinctGenres = `-- name: DistinctGenres :many
select distinct genre from book_price where genre is not null order by genre
`

func (q *Queries) DistinctGenres(ctx context.Context) ([]sql.NullString, error) {
	return q.nullStrings(ctx, distinctGenres)
}

const distinctAuthors = `-- name: DistinctAuthors :many
select distinct author from book_price where author is not null order by author
`

func (q *Queries) DistinctAuthors(ctx context.Context) ([]sql.NullString, error) {
	return q.nullStrings(ctx, distinctAuthors)
}

const distinctTitles = `-- name: DistinctTitles :many
select distinct title from book_price order by title
`

func (q *Queries) DistinctTitles(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, distinctTitles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		items = append(items, title)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const authorCounts = `-- name: AuthorCounts :many
select author, count(*) as count from book_price
where author is not null
    and (?1 = '' or instr(lower(author), lower(?1)) > 0)
    and (?2 = '' or substr(author, 1, length(?2)) = ?2)
group by author
order by author
`

type AuthorCountsParams struct {
	Search string
	Letter string
}

type AuthorCountsRow struct {
	Author sql.NullString
	Count  int64
}

func (q *Queries) AuthorCounts(ctx context.Context, arg AuthorCountsParams) ([]AuthorCountsRow, error) {
	rows, err := q.db.QueryContext(ctx, authorCounts, arg.Search, arg.Letter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuthorCountsRow
	for rows.Next() {
		var i AuthorCountsRow
		if err := rows.Scan(&i.Author, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const staleISBNs = `-- name: StaleISBNs :many
select isbn from book_price
where isbn is not null
group by isbn
having max(observed_at) < ?
order by max(observed_at)
limit ?
`

type StaleISBNsParams struct {
	Before int64
	Limit  int64
}

func (q *Queries) StaleISBNs(ctx context.Context, arg StaleISBNsParams) ([]sql.NullString, error) {
	return q.nullStrings(ctx, staleISBNs, arg.Before, arg.Limit)
}

func (q *Queries) nullStrings(ctx context.Context, query string, args ...any) ([]sql.NullString, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []sql.NullString
	for rows.Next() {
		var value sql.NullString
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		items = append(items, value)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
