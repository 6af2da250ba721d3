package commands

import (
	"log/slog"
	"strings"
	"time"

	"bookbargain-backend/services/bookprice/scraper"

	"github.com/spf13/cobra"
)

var scrapeAll bool

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeAll, "all", false, "Print every source's record, including those without a price.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <query>",
	Short: "Scrapes every source for a book without touching the database.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		aggregator, err := newAggregator(cfg)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		t1 := time.Now()
		records := aggregator.Scrape(cmd.Context(), query)
		if !scrapeAll {
			records = scraper.Filter(query, records)
		}
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())

		renderRecords(records)
		return nil
	},
}
