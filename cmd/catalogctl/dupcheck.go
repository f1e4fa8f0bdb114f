package main

import (
	"fmt"

	"github.com/princeprakhar/review-catalog-backend/internal/app"
	"github.com/spf13/cobra"
)

var (
	dupBrand    string
	dupCategory string
)

var dupcheckCmd = &cobra.Command{
	Use:   "dupcheck <title>",
	Short: "Score a candidate title against the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			match, err := a.Products.CheckDuplicate(cmd.Context(), args[0], dupBrand, dupCategory)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, map[string]interface{}{"duplicate": match != nil, "match": match})
			}
			if match == nil {
				fmt.Fprintln(out, "no similar product")
				return nil
			}
			fmt.Fprintf(out, "duplicate of %s %q\n", match.Product.ID, match.Product.Title)
			fmt.Fprintf(out, "similarity %.3f (raw %.3f, brand %t, category %t, number penalty %t), exact %t\n",
				match.Similarity, match.Breakdown.Raw, match.Breakdown.BrandMatch, match.Breakdown.CategoryMatch,
				match.Breakdown.NumberPenalty, a.Products.IsExactMatch(match.Similarity))
			return nil
		})
	},
}

func init() {
	dupcheckCmd.Flags().StringVar(&dupBrand, "brand", "", "candidate brand")
	dupcheckCmd.Flags().StringVar(&dupCategory, "category", "", "candidate category")
	rootCmd.AddCommand(dupcheckCmd)
}
