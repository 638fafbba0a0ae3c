package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/aetherchat/internal/gateway"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the gateway",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		client := gateway.New(&gateway.Config{
			BaseURL: cfg.Gateway.BaseURL,
			APIKey:  cfg.Gateway.APIKey,
			AppID:   cfg.Gateway.AppID,
		})
		models, err := client.ListModels(context.Background())
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}
		if len(models) == 0 {
			fmt.Println("No models found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROVIDER\tSTATUS\tCONTEXT\tBADGES")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				m.ID,
				m.Provider,
				m.Status,
				m.Specs.ContextWindow,
				strings.Join(m.Badges, ","),
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
