package main

import (
	"errors"
	"fmt"

	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List linked accounts and their current balances",
		RunE:  runAccounts,
	}
}

func runAccounts(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	accounts, err := store.ListAccounts(ctx, currentUserID())
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No linked accounts. Run: pocketwatch link")
		return nil
	}

	fmt.Printf("%-30s %-12s %-6s %12s %12s\n", "ACCOUNT", "TYPE", "MASK", "CURRENT", "AVAILABLE")
	for _, account := range accounts {
		current, available := "-", "-"
		snapshot, err := store.GetLatestBalanceSnapshot(ctx, account.ID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("failed to load balance for %s: %w", account.Name, err)
		}
		if err == nil {
			current = snapshot.Current.StringFixed(2)
			available = snapshot.Available.StringFixed(2)
		}

		fmt.Printf("%-30s %-12s %-6s %12s %12s\n",
			account.Name, account.Subtype, account.Mask, current, available)
	}

	return nil
}
