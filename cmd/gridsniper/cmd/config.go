package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsniper/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage gridsniper configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  gridsniper config init -o gridsniper.yaml
  gridsniper config validate -f gridsniper.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", defaultConfigPath, "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (defaults to --config)")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and check the ledger with:")
	fmt.Printf("  gridsniper --config %s ledger status\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configValidatePath
	if path == "" {
		path = cfgFile
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	profile, _ := cfg.Profile()

	fmt.Printf("✓ Configuration valid: %s\n", path)
	fmt.Printf("  Grid: %s, %d slots, gaps %v, increment %.2f\n",
		cfg.Grid.Ticker, cfg.Grid.Capacity, cfg.Grid.Gaps, cfg.Grid.PriceIncrement)
	fmt.Printf("  Capital: %.2f (entry offset %.2f, spread %.2f)\n",
		cfg.Grid.BaseCapital, cfg.Grid.EntryOffset, cfg.Grid.SpreadBuffer)
	fmt.Printf("  Strategy: %s\n", profile.Name)
	fmt.Printf("  Store: %s\n", cfg.Store.Path)
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	fmt.Printf("  Scan: %s\n", strings.Join(cfg.Scan.Tickers, ", "))
	return nil
}
