package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsniper/config"
	"github.com/rustyeddy/gridsniper/internal/logging"
)

const defaultConfigPath = "gridsniper.yaml"

var rootCmd = &cobra.Command{
	Use:   "gridsniper",
	Short: "Signal-driven grid position ledger",
	Long: `Gridsniper tracks a bounded grid of trading slots for one ticker and
classifies market conditions from technical indicators.

It provides tools for:
  - Computing the next grid trigger price from the spacing schedule
  - Opening and closing slots with crash-safe persistence
  - Classifying RSI/EMA/MACD/Bollinger readings into trading actions
  - Scanning many tickers and publishing actionable signals
  - Serving the ledger over HTTP and keeping a trade journal`,
	SilenceUsage: true,
}

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle: setupLogging -> loadConfig -> rootCmd.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath, "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text or json); overrides config")
}

func setupLogging() error {
	level, format := logLevel, logFormat
	if level == "" || format == "" {
		if cfg, err := loadConfig(); err == nil {
			if level == "" {
				level = cfg.Log.Level
			}
			if format == "" {
				format = cfg.Log.Format
			}
		}
	}
	return logging.Setup(level, format)
}

// loadConfig reads --config. A missing file at the default path means
// defaults; a missing file the user named is an error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("load config: %w", err)
}
