package main

import (
	"fmt"
	"time"

	"github.com/princeprakhar/review-catalog-backend/internal/config"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenName string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a reviewer identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		token, expires, err := utils.GenerateAccessToken(tokenUser, tokenName, cfg.JWTSecret, tokenTTL)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"token": token, "expiresAt": expires})
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user-id", "", "user id carried by the token")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(tokenCmd)
}
