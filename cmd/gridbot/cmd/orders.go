package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Inspect or cancel open orders on the exchange",
	Long: `Operate on the exchange's open orders for the configured symbol.

Subcommands:
  list        - Print open orders
  cancel-all  - Cancel every open order

The ledger is not changed. After cancel-all, remove the ledger file before
starting a new grid.`,
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print open orders",
	Args:  cobra.NoArgs,
	RunE:  runOrdersList,
}

var ordersCancelAllCmd = &cobra.Command{
	Use:   "cancel-all",
	Short: "Cancel every open order for the configured symbol",
	Args:  cobra.NoArgs,
	RunE:  runOrdersCancelAll,
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersCancelAllCmd)
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newExchange(cfg)
	if err != nil {
		return err
	}

	orders, err := client.ListOrders(context.Background(), cfg.Grid.Symbol)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Printf("No open orders for %s\n", cfg.Grid.Symbol)
		return nil
	}
	fmt.Printf("%-10s %-22s %-5s %-10s %s\n", "SYMBOL", "ID", "SIDE", "STATUS", "PRICE")
	for _, o := range orders {
		fmt.Printf("%-10s %-22s %-5s %-10s %s\n", o.Symbol, o.ID, o.Side, o.Status, o.Price)
	}
	return nil
}

func runOrdersCancelAll(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newExchange(cfg)
	if err != nil {
		return err
	}

	if err := client.CancelAllOrders(context.Background(), cfg.Grid.Symbol); err != nil {
		return err
	}
	fmt.Printf("✓ Cancelled all open orders for %s\n", cfg.Grid.Symbol)
	return nil
}
