package store

import (
	"context"

	configsqlite "bookbargain-backend/lib/configutil/sqlite"
	"bookbargain-backend/services/bookprice/db"
)

// Open opens the Postgres store when postgresDsn is set, the SQLite store
// described by sqlite otherwise. The schema is applied either way.
func Open(ctx context.Context, sqlite configsqlite.Struct, postgresDsn string) (Store, error) {
	if postgresDsn != "" {
		pg, err := OpenPostgres(ctx, postgresDsn)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	conn, err := sqlite.OpenDB(db.Schema)
	if err != nil {
		return nil, err
	}
	return NewSQLite(conn), nil
}
