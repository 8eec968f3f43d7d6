package cmd

import (
	"context"
	"fmt"

	"github.com/rustyeddy/gridbot/exchange/paper"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the free and locked balance of an asset",
	Long: `Print an account balance. Defaults to the quote asset of the configured
symbol (USDT for BTCUSDT).

Example:
  gridbot balance --asset BTC`,
	Args: cobra.NoArgs,
	RunE: runBalance,
}

var balanceAsset string

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceAsset, "asset", "a", "", "asset to show (default: quote asset of the symbol)")
}

func runBalance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newExchange(cfg)
	if err != nil {
		return err
	}

	asset := balanceAsset
	if asset == "" {
		_, asset = paper.SplitSymbol(cfg.Grid.Symbol)
	}
	if asset == "" {
		return fmt.Errorf("cannot derive quote asset from %q, use --asset", cfg.Grid.Symbol)
	}

	b, err := client.FetchBalance(context.Background(), asset)
	if err != nil {
		return err
	}
	fmt.Printf("%s free: %s locked: %s\n", b.Asset, b.Free, b.Locked)
	return nil
}
