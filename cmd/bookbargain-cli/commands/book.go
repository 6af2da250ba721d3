package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(refreshCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <isbn>",
	Short: "Shows the price comparison of a stored book.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		detail, err := service.BookByISBN(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderDetail(detail)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <isbn>",
	Short: "Scrapes a stored book again and replaces its stored prices.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeStore, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		detail, err := service.Refresh(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderDetail(detail)
		return nil
	},
}
