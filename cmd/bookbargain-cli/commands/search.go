package commands

import (
	"fmt"
	"strings"

	"bookbargain-backend/services/bookprice"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	searchMin string
	searchMax string
)

func init() {
	searchCmd.Flags().StringVar(&searchMin, "min", "", "Only show books that cost at least this much.")
	searchCmd.Flags().StringVar(&searchMax, "max", "", "Only show books that cost at most this much.")
	rootCmd.AddCommand(searchCmd)
}

func parseBound(name, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %w", name, err)
	}
	return value, nil
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches stored books, scraping the sources when nothing fresh is stored.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minPrice, err := parseBound("min", searchMin)
		if err != nil {
			return err
		}
		maxPrice, err := parseBound("max", searchMax)
		if err != nil {
			return err
		}

		service, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		result, err := service.Search(cmd.Context(), bookprice.SearchRequest{
			Query:    strings.Join(args, " "),
			MinPrice: minPrice,
			MaxPrice: maxPrice,
		})
		if err != nil {
			return err
		}
		if result.Scraped {
			fmt.Println("scraped the sources for fresh prices")
		}
		renderEntities(result.Books)
		return nil
	},
}
