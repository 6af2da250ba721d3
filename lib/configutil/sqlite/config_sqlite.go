package configsqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct configures a database/sql handle backed either by a local sqlite
// file or by a remote libsql server.
type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Struct) Validate() error {
	return validation.ValidateStruct(
		&config,
		validation.Field(&config.File, validation.When(config.Url == "", validation.Required.Error("either file or url is required"))),
		validation.Field(&config.Url, is.URL),
	)
}

// OpenDB opens the database and applies `schema` to it. Statements in the
// schema are expected to be idempotent (CREATE ... IF NOT EXISTS).
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if config.Url != "" {
		db, err = openRemote(config.Url, config.AuthToken)
	} else {
		db, err = openLocal(config.File)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}

func openLocal(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// see https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openRemote(rawUrl, authToken string) (*sql.DB, error) {
	dsn, err := url.Parse(rawUrl)
	if err != nil {
		return nil, err
	}
	if authToken != "" {
		query := dsn.Query()
		query.Set("authToken", authToken)
		dsn.RawQuery = query.Encode()
	}
	return sql.Open("libsql", dsn.String())
}
