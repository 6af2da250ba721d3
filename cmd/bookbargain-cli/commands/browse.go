package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	authorsSearch string
	authorsLetter string
	staleBatch    int
)

func init() {
	authorsCmd.Flags().StringVar(&authorsSearch, "search", "", "Only list authors whose name contains this.")
	authorsCmd.Flags().StringVar(&authorsLetter, "letter", "", "Only list authors whose name starts with this.")
	refreshStaleCmd.Flags().IntVar(&staleBatch, "batch", 20, "The most books to refresh.")

	rootCmd.AddCommand(genresCmd)
	rootCmd.AddCommand(authorsCmd)
	rootCmd.AddCommand(refreshStaleCmd)
}

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "Lists the stored genres.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		genres, err := service.Genres(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(genres, "\n"))
		return nil
	},
}

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "Lists the stored authors with how many records each has.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		counts, err := service.Authors(cmd.Context(), authorsSearch, authorsLetter)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Author", "Records"})
		for _, c := range counts {
			t.AppendRow(table.Row{c.Author, c.Count})
		}
		t.Render()
		return nil
	},
}

var refreshStaleCmd = &cobra.Command{
	Use:   "refresh-stale",
	Short: "Refreshes the books whose stored prices are the most out of date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		n, err := service.RefreshStale(cmd.Context(), staleBatch)
		if err != nil {
			return err
		}
		fmt.Printf("refreshed %d books\n", n)
		return nil
	},
}
