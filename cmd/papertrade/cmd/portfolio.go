package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio <account-id>",
	Short: "Value an account's holdings at current prices",
	Long: `Value every holding of an account at current market prices and
report unrealized and realized P&L.

Holdings whose price cannot be resolved are listed unpriced rather
than failing the whole snapshot.

Example:
  papertrade portfolio <account-id>`,
	Args: cobra.ExactArgs(1),
	RunE: runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	snap, err := app.folio.Snapshot(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}

	fmt.Printf("Portfolio %s (%s)\n", snap.AccountID, snap.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Cash:           %s %s\n", snap.CashBalance, snap.Currency)
	fmt.Printf("  Holdings value: %s\n", snap.HoldingsValue)
	fmt.Printf("  Total value:    %s\n", snap.TotalValue)
	fmt.Printf("  Realized P&L:   %s\n", snap.RealizedPL)
	fmt.Printf("  Unrealized P&L: %s\n", snap.UnrealizedPL)

	if len(snap.Positions) == 0 {
		fmt.Println("\nNo open positions.")
		return nil
	}

	fmt.Printf("\n%-10s %-7s %12s %12s %12s %14s %12s %8s\n",
		"SYMBOL", "CLASS", "QTY", "AVG", "PRICE", "VALUE", "UNRL P&L", "UNRL %")
	for _, p := range snap.Positions {
		if !p.Priced {
			fmt.Printf("%-10s %-7s %12s %12s %12s %14s %12s %8s\n",
				p.Symbol, p.Class, p.Quantity, p.AveragePrice, "-", "-", "-", "-")
			continue
		}
		marker := ""
		if p.Stale {
			marker = " (stale)"
		}
		fmt.Printf("%-10s %-7s %12s %12s %12s %14s %12s %7s%%%s\n",
			p.Symbol, p.Class, p.Quantity, p.AveragePrice, p.CurrentPrice,
			p.MarketValue, p.UnrealizedPL, p.UnrealizedPLPct.Round(2), marker)
	}
	return nil
}
