package cmd

import (
	"fmt"

	"github.com/rustyeddy/gridbot/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gridbot",
	Short: "A grid trading bot for spot exchanges",
	Long: `Gridbot places a ladder of limit buy orders below the current price and
limit sell orders above it, then keeps the ladder alive: every filled order is
replaced by a mirror order one grid step away on the opposite side.

Open orders are tracked in a JSON ledger so a stopped bot resumes where it
left off. Fills can be journaled to CSV or SQLite.

Examples:
  gridbot config init -o gridbot.yaml
  gridbot run -c gridbot.yaml
  gridbot orders list -c gridbot.yaml`,
	SilenceUsage: true,
}

var (
	configPath string
	envPath    string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "gridbot.yaml", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file with exchange credentials")
}

// loadConfig reads the config file and the credentials from the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.LoadEnv(envPath); err != nil {
		return nil, err
	}
	if err := cfg.Credentials(); err != nil {
		return nil, err
	}
	return cfg, nil
}
