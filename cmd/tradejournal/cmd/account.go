package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/journal"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage trading accounts",
	Long: `Register trading accounts so statistics can start drawdown from the
account's starting balance.

Examples:
  tradejournal account add ACC-1 --name "Futures" --currency USD --balance 25000
  tradejournal account list`,
}

var accountAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Create or update an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountAdd,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE:  runAccountList,
}

var accountAdd journal.Account

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountAddCmd, accountListCmd)

	accountAddCmd.Flags().StringVar(&accountAdd.Name, "name", "", "display name")
	accountAddCmd.Flags().StringVar(&accountAdd.Currency, "currency", "USD", "account currency")
	accountAddCmd.Flags().Float64Var(&accountAdd.StartingBalance, "balance", 0, "starting balance")
}

func runAccountAdd(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	a := accountAdd
	a.ID = args[0]
	if a.Name == "" {
		a.Name = a.ID
	}
	if err := j.SaveAccount(cmd.Context(), a); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	fmt.Printf("✓ Saved account %s (%s, %.2f %s)\n", a.ID, a.Name, a.StartingBalance, a.Currency)
	return nil
}

func runAccountList(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	accounts, err := j.ListAccounts(cmd.Context())
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		fmt.Println("No accounts.")
		return nil
	}
	for _, a := range accounts {
		fmt.Printf("%-12s %-20s %-4s %12.2f\n", a.ID, a.Name, a.Currency, a.StartingBalance)
	}
	return nil
}
