package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stockroom/internal/config"
	"stockroom/internal/logger"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "stockroom",
	Short: "Inventory dashboard backend",
	Long: `stockroom serves the inventory dashboard API: products, customers,
suppliers, sales and purchases, settings, and period reports.

Configuration is read from the environment and an optional .env file.
See .env.example for the available keys.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logCfg := logger.DefaultConfig()
		logCfg.Level = cfg.LogLevel
		logCfg.Format = cfg.LogFormat
		logCfg.Output = os.Stderr
		if err := logger.Setup(logCfg); err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, reportCmd, exportCmd, seedCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
