package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bookbargain-backend/lib/configutil"
	configsqlite "bookbargain-backend/lib/configutil/sqlite"
	"bookbargain-backend/lib/telemetry"
	"bookbargain-backend/services/bookprice"
	"bookbargain-backend/services/bookprice/scraper"
	"bookbargain-backend/services/bookprice/store"

	"github.com/spf13/cobra"
)

// Config is the subset of the server configuration the cli reads, every
// field is optional.
type Config struct {
	StalenessHours int            `json:"staleness_hours"`
	Scraper        scraper.Config `json:"scraper"`
}

var (
	dbPath      string
	postgresDsn string
	configPath  string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "bookbargain-cli",
	Short: "bookbargain-cli scrapes and queries book prices from the command line.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		return configutil.LoadEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "bookbargain.db", "The sqlite database to read from and write to.")
	rootCmd.PersistentFlags().StringVar(&postgresDsn, "postgres", "", "Use the postgres database at this dsn instead of sqlite.")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The configuration file to read scraper settings from.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging and dump every HTTP exchange.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](configPath)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	if verbose && cfg.Scraper.ExchangesDir == "" {
		cfg.Scraper.ExchangesDir = ".dev/resty"
	}
	return cfg, nil
}

func newAggregator(cfg Config) (scraper.Aggregator, error) {
	return scraper.NewAggregatorFromConfig(cfg.Scraper, telemetry.SlogAPI{})
}

// openService opens the store and wires a service around it, the returned
// func closes the store.
func openService(ctx context.Context) (*bookprice.Service, func(), error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, nil, err
	}
	aggregator, err := newAggregator(cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, configsqlite.Struct{File: dbPath}, postgresDsn)
	if err != nil {
		return nil, nil, err
	}

	service := bookprice.NewService(bookprice.Options{
		Store:   st,
		Scraper: aggregator,
		Tel:     telemetry.SlogAPI{},
		Policy: bookprice.Policy{
			MaxAge: time.Duration(cfg.StalenessHours) * time.Hour,
		},
	})
	return service, func() { st.Close() }, nil
}
