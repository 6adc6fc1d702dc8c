package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrade/store"
)

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Execute and list trades",
	Long: `Execute market orders against live prices and list past trades.

Subcommands:
  buy  - Buy a quantity of a symbol at the current market price
  sell - Sell a quantity of a symbol at the current market price
  list - List an account's trades, oldest first

Examples:
  papertrade trade buy AAPL 10 --account <account-id>
  papertrade trade sell BTC 0.25 --account <account-id>
  papertrade trade list --account <account-id> --limit 20`,
}

var tradeBuyCmd = &cobra.Command{
	Use:   "buy <symbol> <quantity>",
	Short: "Buy at the current market price",
	Args:  cobra.ExactArgs(2),
	RunE:  func(cmd *cobra.Command, args []string) error { return runTrade(store.Buy, args) },
}

var tradeSellCmd = &cobra.Command{
	Use:   "sell <symbol> <quantity>",
	Short: "Sell at the current market price",
	Args:  cobra.ExactArgs(2),
	RunE:  func(cmd *cobra.Command, args []string) error { return runTrade(store.Sell, args) },
}

var tradeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an account's trades, oldest first",
	Args:  cobra.NoArgs,
	RunE:  runTradeList,
}

var (
	tradeAccountID string
	tradeListLimit int
)

func init() {
	rootCmd.AddCommand(tradeCmd)
	tradeCmd.AddCommand(tradeBuyCmd)
	tradeCmd.AddCommand(tradeSellCmd)
	tradeCmd.AddCommand(tradeListCmd)

	tradeCmd.PersistentFlags().StringVarP(&tradeAccountID, "account", "a", "", "account ID (required)")
	tradeCmd.MarkPersistentFlagRequired("account")
	tradeListCmd.Flags().IntVarP(&tradeListLimit, "limit", "n", 0, "max trades to list (0 = all)")
}

func runTrade(side store.Side, args []string) error {
	qty, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", args[1], err)
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.engine.Execute(context.Background(), tradeAccountID, args[0], side, qty)
	if err != nil {
		return fmt.Errorf("execute %s: %w", side, err)
	}

	t := res.Trade
	fmt.Printf("✓ %s %s %s @ %s (%s)\n", t.Side, t.Quantity, t.Symbol, t.Price, t.Class)
	fmt.Printf("  Trade ID: %s\n", t.ID)
	fmt.Printf("  Fee:      %s\n", t.Fee)
	fmt.Printf("  Total:    %s\n", t.Total)
	fmt.Printf("  Balance:  %s\n", t.BalanceAfter)
	if res.Holding != nil {
		fmt.Printf("  Position: %s @ avg %s\n", res.Holding.Quantity, res.Holding.AveragePrice)
	} else {
		fmt.Printf("  Position: closed\n")
	}
	return nil
}

func runTradeList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	trades, err := app.store.ListTrades(context.Background(), tradeAccountID, tradeListLimit)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Println("No trades.")
		return nil
	}

	fmt.Printf("%-28s %-10s %-5s %12s %14s %12s %14s\n",
		"EXECUTED", "SYMBOL", "SIDE", "QTY", "PRICE", "FEE", "BALANCE")
	for _, t := range trades {
		fmt.Printf("%-28s %-10s %-5s %12s %14s %12s %14s\n",
			t.ExecutedAt.Format("2006-01-02 15:04:05"),
			t.Symbol, t.Side, t.Quantity, t.Price, t.Fee, t.BalanceAfter)
	}
	return nil
}
