package main

import (
	"time"

	configsqlite "bookbargain-backend/lib/configutil/sqlite"
	"bookbargain-backend/services/bookprice/scraper"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/robfig/cron/v3"
)

type PostgresConfig struct {
	Dsn string `json:"dsn"`
}

type Config struct {
	Port     int                 `json:"port"`
	Database configsqlite.Struct `json:"database"`
	// Postgres replaces Database when its dsn is set.
	Postgres       PostgresConfig `json:"postgres"`
	StalenessHours int            `json:"staleness_hours"`
	// RefreshCron schedules the refresh of stale books, empty disables it.
	RefreshCron           string         `json:"refresh_cron"`
	RefreshBatch          int            `json:"refresh_batch"`
	RefreshTimeoutMinutes int            `json:"refresh_timeout_minutes"`
	Scraper               scraper.Config `json:"scraper"`
}

func validCron(value any) error {
	spec, _ := value.(string)
	if spec == "" {
		return nil
	}
	_, err := cron.ParseStandard(spec)
	return err
}

func (c Config) Validate() error {
	return validation.ValidateStruct(
		&c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.Database, validation.Skip.When(c.Postgres.Dsn != "")),
		validation.Field(&c.StalenessHours, validation.Min(0)),
		validation.Field(&c.RefreshCron, validation.By(validCron)),
		validation.Field(&c.RefreshBatch, validation.Min(0)),
		validation.Field(&c.RefreshTimeoutMinutes, validation.Min(0)),
		validation.Field(&c.Scraper),
	)
}

func (c Config) port() int {
	if c.Port == 0 {
		return 8000
	}
	return c.Port
}

func (c Config) refreshBatch() int {
	if c.RefreshBatch == 0 {
		return 20
	}
	return c.RefreshBatch
}

func (c Config) refreshTimeout() time.Duration {
	if c.RefreshTimeoutMinutes == 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.RefreshTimeoutMinutes) * time.Minute
}
