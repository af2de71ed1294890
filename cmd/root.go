package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chesapeake-analytics/geopipe/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geopipe",
	Short: "Vector geodata pipeline",
	Long:  "Reads vector and delimited point data into geometry-aware tables, reprojects, clips, spatially joins, buffers, aggregates, and renders static or interactive maps.",
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
