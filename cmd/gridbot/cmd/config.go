package cmd

import (
	"fmt"

	"github.com/rustyeddy/gridbot/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage gridbot configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  gridbot config init -o gridbot.yaml
  gridbot config validate -c gridbot.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. The default
trades on the in-memory paper exchange.

Example:
  gridbot config init -o gridbot.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configInitOutput string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "gridbot.yaml", "output config file path")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  gridbot run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := cfg.LoadEnv(envPath); err != nil {
		return err
	}

	g := cfg.Grid
	fmt.Printf("✓ Configuration valid: %s\n", configPath)
	fmt.Printf("  Grid: %s, %d buy / %d sell lines, spacing %s, size %s\n",
		g.Symbol, g.BuyLines, g.SellLines, g.Spacing, g.PositionSize)
	fmt.Printf("  Exchange: %s %s\n", cfg.Exchange.Kind, cfg.Exchange.BaseURL)
	fmt.Printf("  Ledger: %s\n", cfg.Ledger.Path)
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	if err := cfg.Credentials(); err != nil {
		fmt.Printf("  ! %v\n", err)
	}
	return nil
}
