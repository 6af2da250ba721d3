package main

import (
	"flag"
	"log/slog"
	"time"

	"bookbargain-backend/lib/chrono"
	"bookbargain-backend/lib/configutil"
	"bookbargain-backend/lib/serviceutil"
	"bookbargain-backend/lib/telemetry"
	"bookbargain-backend/services/bookprice"
	"bookbargain-backend/services/bookprice/scraper"
	"bookbargain-backend/services/bookprice/server"
	"bookbargain-backend/services/bookprice/store"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "The configuration file to read.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	err := configutil.LoadEnv()
	if err != nil {
		serviceutil.Fatal("load env", err)
	}

	initTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if *verbose && cfg.Scraper.ExchangesDir == "" {
		cfg.Scraper.ExchangesDir = ".dev/resty"
	}

	tel := telemetry.SlogAPI{}

	st, err := store.Open(ctx, cfg.Database, cfg.Postgres.Dsn)
	if err != nil {
		serviceutil.Fatal("open store", err)
	}
	defer st.Close()

	aggregator, err := scraper.NewAggregatorFromConfig(cfg.Scraper, tel)
	if err != nil {
		serviceutil.Fatal("init scraper", err)
	}

	service := bookprice.NewService(bookprice.Options{
		Store:   st,
		Scraper: aggregator,
		Tel:     tel,
		Policy: bookprice.Policy{
			MaxAge: time.Duration(cfg.StalenessHours) * time.Hour,
		},
	})

	if cfg.RefreshCron != "" {
		cron := chrono.NewStandardCron(tel)
		defer cron.Stop()

		err = service.StartRefresher(cron, cfg.RefreshCron, cfg.refreshBatch(), cfg.refreshTimeout())
		if err != nil {
			serviceutil.Fatal("start refresher", err)
		}
		slog.Info("refreshing stale books", "schedule", cfg.RefreshCron, "batch", cfg.refreshBatch())
	}

	err = serviceutil.StartHttpServer(ctx, cfg.port(), server.NewServer(service, tel).Handler())
	if err != nil {
		serviceutil.Fatal("serve http", err)
	}
}
