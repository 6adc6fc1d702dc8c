package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrade/market"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which markets are currently open",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	now := time.Now()
	fmt.Printf("Market status at %s\n", now.Format("2006-01-02 15:04:05 MST"))
	for _, c := range []market.Class{market.Stock, market.Crypto, market.Forex} {
		state := "closed"
		if c.IsOpen(now) {
			state = "open"
		}
		fmt.Printf("  %-7s %s\n", c, state)
	}
}
