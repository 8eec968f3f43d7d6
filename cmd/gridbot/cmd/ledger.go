package cmd

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/gridbot/config"
	"github.com/rustyeddy/gridbot/exchange"
	"github.com/rustyeddy/gridbot/ledger"
	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the order ledger",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the open orders recorded in the ledger",
	Long: `Print both sides of the ledger. The path comes from the config file
unless --path is given.

Example:
  gridbot ledger show --path ./orders.json`,
	Args: cobra.NoArgs,
	RunE: runLedgerShow,
}

var ledgerPath string

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerShowCmd.Flags().StringVarP(&ledgerPath, "path", "p", "", "ledger file (default: ledger.path from config)")
}

func runLedgerShow(cmd *cobra.Command, args []string) error {
	path := ledgerPath
	if path == "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.Ledger.Path
	}

	st, err := ledger.NewFileStore(path).Load()
	if errors.Is(err, ledger.ErrNotFound) {
		fmt.Printf("No ledger at %s\n", path)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ledger: %s\n", path)
	for _, side := range exchange.Sides {
		orders := st.Buy
		if side == exchange.Sell {
			orders = st.Sell
		}
		fmt.Printf("\n%s (%d)\n", side, len(orders))
		for _, o := range orders {
			fmt.Printf("  %-22s %-14s %-10s %s\n", o.ID, o.Price, o.Status, o.Size)
		}
	}
	return nil
}
