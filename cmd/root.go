package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Review sentiment and location health for multi-site businesses",
	Long: "Aggregates customer review exports into per-location health dashboards, " +
		"scrapes and analyzes public review pages with Claude, and tracks clients against their competitors.",
	SilenceUsage: true,
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
