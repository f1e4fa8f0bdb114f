package main

import (
	"fmt"
	"os"

	"github.com/princeprakhar/review-catalog-backend/internal/app"
	"github.com/spf13/cobra"
)

var importCategory string

var importCmd = &cobra.Command{
	Use:   "import <file.jsonl>",
	Short: "Import products and reviews from a JSON-lines review dump",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		return withApp(cmd.Context(), func(a *app.App) error {
			report, err := a.Import.ImportJSONL(cmd.Context(), f, importCategory)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, report)
			}
			fmt.Fprintf(out, "imported %d products and %d reviews (%d duplicates, %d skipped lines)\n",
				report.ProductsImported, report.ReviewsImported, report.Duplicates, report.SkippedLines)
			for _, f := range report.Failures {
				fmt.Fprintln(out, "  failed:", f)
			}
			return nil
		})
	},
}

func init() {
	importCmd.Flags().StringVar(&importCategory, "category", "Electronics", "category for imported products")
	rootCmd.AddCommand(importCmd)
}
