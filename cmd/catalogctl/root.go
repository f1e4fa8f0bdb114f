package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/princeprakhar/review-catalog-backend/internal/app"
	"github.com/princeprakhar/review-catalog-backend/internal/config"
	"github.com/princeprakhar/review-catalog-backend/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	envFile string
	dataDir string
	asJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Maintenance CLI for the review catalog",
	Long: `catalogctl checks candidate products for duplicates, backfills AI images
and verification for existing products, and bulk-imports review dumps.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load(envFile)
		logger.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override DATA_DIR")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")
}

// withApp builds the application graph for one command and tears it down.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg := config.Load()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close(context.Background())
	return fn(a)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
