package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrade/market"
)

var priceCmd = &cobra.Command{
	Use:   "price <symbol>",
	Short: "Quote the current price of a symbol",
	Long: `Quote the current price of a stock, crypto or forex symbol.

The quote is served from the local cache when fresh, otherwise fetched
from Alpha Vantage within the configured request budget.

Examples:
  papertrade price AAPL
  papertrade price BTC
  papertrade price EURUSD`,
	Args: cobra.ExactArgs(1),
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	q, err := app.prices.Price(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("quote %s: %w", args[0], err)
	}

	open := "closed"
	if q.Class.IsOpen(time.Now()) {
		open = "open"
	}

	fmt.Printf("%s (%s, market %s)\n", q.Symbol, q.Class, open)
	fmt.Printf("  Price:   %s\n", q.Price)
	fmt.Printf("  Source:  %s\n", q.Source)
	fmt.Printf("  As of:   %s\n", q.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	if q.Stale {
		fmt.Printf("  Warning: %s\n", strings.ToUpper("stale quote, upstream unavailable"))
	}
	return nil
}

var historyCmd = &cobra.Command{
	Use:   "history <symbol>",
	Short: "Fetch historical candles for a symbol",
	Long: `Fetch historical OHLCV candles for a symbol at a given resolution.

Resolutions: 1 5 15 30 60 120 240 (minutes), D, W, M.
Common spellings like 1m, 1h, 1d, 1w are accepted; "m" alone means month.

Examples:
  papertrade history AAPL -r D -n 30
  papertrade history BTC -r D --start 2024-01-01 --end 2024-02-01
  papertrade history EURUSD -r 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var (
	historyResolution string
	historyLimit      int
	historyStart      string
	historyEnd        string
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historyResolution, "resolution", "r", "D", "candle resolution")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "max candles (default 500)")
	historyCmd.Flags().StringVar(&historyStart, "start", "", "range start (YYYY-MM-DD or RFC3339)")
	historyCmd.Flags().StringVar(&historyEnd, "end", "", "range end (YYYY-MM-DD or RFC3339)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	start, err := parseStamp(historyStart)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := parseStamp(historyEnd)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	candles, err := app.prices.History(context.Background(), args[0], historyResolution, historyLimit, start, end)
	if err != nil {
		return fmt.Errorf("history %s: %w", args[0], err)
	}
	if len(candles) == 0 {
		fmt.Println("No candles in range.")
		return nil
	}

	printCandles(args[0], candles)
	return nil
}

func printCandles(symbol string, candles []market.Candle) {
	fmt.Printf("%s: %d candles\n", strings.ToUpper(symbol), len(candles))
	fmt.Printf("%-20s %12s %12s %12s %12s %14s\n", "TIME", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME")
	for _, c := range candles {
		fmt.Printf("%-20s %12s %12s %12s %12s %14s\n",
			c.Time.Format("2006-01-02 15:04"),
			c.Open, c.High, c.Low, c.Close, c.Volume)
	}
}

func parseStamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", s)
}
