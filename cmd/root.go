// Package cmd implements the mediafetch command line.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mediafetch-api-server/pkg/config"
	"mediafetch-api-server/pkg/logging"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (default ./mediafetch.yaml)")

	rootCmd.PersistentFlags().String("log-level", "", "Log level: panic, fatal, error, warn, info, debug, trace")
	lo.Must0(viper.BindPFlag(config.LogLevel, rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.AddCommand(serveCmd, setupCmd, checkCmd, configCmd)
}

var rootCmd = &cobra.Command{
	Use:   "mediafetch",
	Short: "Metadata and download API for YouTube, TikTok and Instagram links",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		if err := config.Setup(configFile); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg := config.Load()
		logging.Setup(cfg.Log.Level, cfg.Log.JSON, nil)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
