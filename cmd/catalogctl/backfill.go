package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/app"
	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate missing images and verifications for existing products",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app.App) error {
			report, err := a.Backfill.Run(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, report)
			}
			fmt.Fprintf(out, "products %d, processed %d, images %d, verified %d, errors %d, cancelled %t, took %s\n",
				report.Total, report.Processed, report.ImagesGenerated, report.Verified, report.Errors,
				report.Cancelled, report.Duration.Round(time.Millisecond))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}
