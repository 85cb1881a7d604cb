package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shop-survival",
	Short: "New-shop survival prediction service",
	Long:  "Geocodes a street address, surveys nearby POIs by category, and scores the location with horizon-specific survival models.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
