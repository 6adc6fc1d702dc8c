package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage simulated trading accounts",
	Long: `Create, inspect and reset simulated trading accounts.

Subcommands:
  create - Provision a new account with the default balance
  show   - Display an account's balance and realized P&L
  reset  - Restore an account to the default balance, wiping positions
  auth   - Resolve an API key to its account ID

Examples:
  papertrade account create
  papertrade account show <account-id>
  papertrade account reset <account-id>
  papertrade account auth <api-key>`,
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a new account",
	Args:  cobra.NoArgs,
	RunE:  runAccountCreate,
}

var accountShowCmd = &cobra.Command{
	Use:   "show <account-id>",
	Short: "Display account balance and realized P&L",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountShow,
}

var accountResetCmd = &cobra.Command{
	Use:   "reset <account-id>",
	Short: "Restore an account to its starting state",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountReset,
}

var accountAuthCmd = &cobra.Command{
	Use:   "auth <api-key>",
	Short: "Resolve an API key to its account ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountAuth,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountShowCmd)
	accountCmd.AddCommand(accountResetCmd)
	accountCmd.AddCommand(accountAuthCmd)
}

func runAccountCreate(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	acct, err := app.engine.CreateAccount(context.Background())
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Printf("✓ Account created\n")
	fmt.Printf("  ID:      %s\n", acct.ID)
	fmt.Printf("  API Key: %s\n", acct.APIKey)
	fmt.Printf("  Balance: %s %s\n", acct.Balance, acct.Currency)
	fmt.Println("\nKeep the API key; it is only shown here.")
	return nil
}

func runAccountShow(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	acct, err := app.store.GetAccount(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	fmt.Printf("Account %s\n", acct.ID)
	fmt.Printf("  Balance:      %s %s\n", acct.Balance, acct.Currency)
	fmt.Printf("  Realized P&L: %s\n", acct.RealizedPL)
	fmt.Printf("  Created:      %s\n", acct.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func runAccountReset(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.engine.ResetAccount(context.Background(), args[0]); err != nil {
		return fmt.Errorf("reset account: %w", err)
	}

	fmt.Printf("✓ Account %s reset to %.2f %s\n",
		args[0], app.cfg.Account.DefaultBalance, app.cfg.Account.Currency)
	return nil
}

func runAccountAuth(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	id, err := app.store.Authenticate(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	fmt.Println(id)
	return nil
}
