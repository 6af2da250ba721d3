package store

import (
	"context"
	"fmt"
	"time"

	"bookbargain-backend/services/bookprice/book"
	"bookbargain-backend/services/bookprice/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgInsert = `insert into book_price (
    title, isbn, author, image_url, source, price, rating,
    description, genre, binding, language, observed_at
) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const pgDeleteByISBN = `delete from book_price where isbn = $1`

const pgAuthorCounts = `select author, count(*) from book_price
where author is not null
    and ($1::text = '' or strpos(lower(author), lower($1::text)) > 0)
    and ($2::text = '' or left(author, length($2::text)) = $2::text)
group by author
order by author collate "C"`

const pgStaleISBNs = `select isbn from book_price
where isbn is not null
group by isbn
having max(observed_at) < $1
order by max(observed_at)
limit $2`

var pgDistinct = map[Field]string{
	FieldGenre:  `select genre from book_price where genre is not null group by genre order by genre collate "C"`,
	FieldAuthor: `select author from book_price where author is not null group by author order by author collate "C"`,
	FieldTitle:  `select title from book_price group by title order by title collate "C"`,
}

// Postgres is the Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and applies db.PostgresSchema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	_, err = pool.Exec(ctx, db.PostgresSchema)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func queueInserts(batch *pgx.Batch, records []book.Record) {
	for _, r := range records {
		p := toParams(r)
		batch.Queue(
			pgInsert,
			p.Title, p.Isbn, p.Author, p.ImageUrl, p.Source, p.Price, p.Rating,
			p.Description, p.Genre, p.Binding, p.Language, p.ObservedAt,
		)
	}
}

func (p *Postgres) Insert(ctx context.Context, records ...book.Record) error {
	if len(records) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		queueInserts(batch, records)
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (p *Postgres) ReplaceISBN(ctx context.Context, isbn string, records []book.Record) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue(pgDeleteByISBN, isbn)
		queueInserts(batch, records)
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (p *Postgres) DeleteByISBN(ctx context.Context, isbn string) (int64, error) {
	tag, err := p.pool.Exec(ctx, pgDeleteByISBN, isbn)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Query(ctx context.Context, filter Filter) ([]book.Record, error) {
	query, args := selectQuery(db.Columns, filter, dollar)
	rows, err := p.pool.Query(ctx, query, args...)
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

func (p *Postgres) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := countQuery(filter, dollar)
	var count int
	err := p.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (p *Postgres) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func (p *Postgres) Distinct(ctx context.Context, field Field) ([]string, error) {
	query, ok := pgDistinct[field]
	if !ok {
		return nil, fmt.Errorf("unknown field %d", field)
	}
	return p.strings(ctx, query)
}

func (p *Postgres) AuthorCounts(ctx context.Context, search, letter string) ([]AuthorCount, error) {
	rows, err := p.pool.Query(ctx, pgAuthorCounts, search, letter)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AuthorCount, error) {
		var c AuthorCount
		err := row.Scan(&c.Author, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []AuthorCount{}
	}
	return out, nil
}

func (p *Postgres) StaleISBNs(ctx context.Context, before time.Time, limit int) ([]string, error) {
	return p.strings(ctx, pgStaleISBNs, before.UnixMilli(), limit)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
