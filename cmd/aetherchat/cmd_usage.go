package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/aetherchat/internal/gateway"
)

var usageLookback int

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show gateway token usage and account info",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		client := gateway.New(&gateway.Config{
			BaseURL: cfg.Gateway.BaseURL,
			APIKey:  cfg.Gateway.APIKey,
			AppID:   cfg.Gateway.AppID,
		})
		ctx := context.Background()

		snap, err := client.FetchUsage(ctx, gateway.UsageQuery{
			UserID:       os.Getenv("USER"),
			AppID:        cfg.Gateway.AppID,
			LookbackDays: usageLookback,
		})
		if err != nil {
			return fmt.Errorf("fetch usage: %w", err)
		}
		fmt.Printf("Usage (%s to %s):\n", snap.WindowStart, snap.WindowEnd)
		fmt.Printf("  prompt tokens:     %.0f\n", snap.PromptTokens)
		fmt.Printf("  completion tokens: %.0f\n", snap.CompletionTokens)
		fmt.Printf("  total tokens:      %.0f\n", snap.TotalTokens)
		fmt.Printf("  requests:          %.0f\n", snap.Requests)
		fmt.Printf("  spend:             %.4f\n", snap.Spend)

		info, err := client.FetchUserInfo(ctx, os.Getenv("USER"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "user info unavailable: %v\n", err)
			return nil
		}
		fmt.Printf("\nAccount %s:\n", info.UserID)
		if info.Role != "" {
			fmt.Printf("  role:       %s\n", info.Role)
		}
		fmt.Printf("  spend:      %.4f\n", info.Spend)
		if info.MaxBudget > 0 {
			fmt.Printf("  max budget: %.4f\n", info.MaxBudget)
		}
		return nil
	},
}

func init() {
	usageCmd.Flags().IntVar(&usageLookback, "days", 7, "lookback window in days")
	rootCmd.AddCommand(usageCmd)
}
