package main

import (
	"fmt"
	"log/slog"

	"github.com/pocketwatch-app/pocketwatch/internal/common"
	"github.com/pocketwatch-app/pocketwatch/internal/ingest"
	"github.com/spf13/cobra"
)

func linkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link a bank connection",
		Long: `Link a new bank connection through Plaid.

Without flags, creates a Link token to start the Plaid Link flow in a
browser. With --public-token, completes the flow: the public token is
exchanged for an access token, the connection's accounts are ingested,
and their starting balances are recorded.`,
		RunE: runLink,
	}

	cmd.Flags().String("public-token", "", "public token from a completed Plaid Link session")

	return cmd
}

func runLink(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	publicToken, _ := cmd.Flags().GetString("public-token")

	client, err := initPlaidClient()
	if err != nil {
		return fmt.Errorf("failed to create Plaid client: %w", err)
	}

	userID := currentUserID()

	if publicToken == "" {
		linkToken, err := client.CreateLinkToken(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to create link token: %w", err)
		}

		slog.Info("Link token created")
		fmt.Printf("Link token: %s\n", linkToken)
		fmt.Println("Complete the Link flow, then run: pocketwatch link --public-token <token>")
		return nil
	}

	accessToken, plaidItemID, err := client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return common.NewUserError("could not complete the bank link", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	cipher, err := initCipher()
	if err != nil {
		return err
	}

	linker := ingest.NewLinker(store, client, cipher)
	item, err := linker.LinkItem(ctx, userID, plaidItemID, accessToken)
	if err != nil {
		return fmt.Errorf("failed to link item: %w", err)
	}

	accounts, err := store.ListAccounts(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	fmt.Printf("✅ Linked item %s\n", item.ID)
	for _, account := range accounts {
		if account.ItemID != item.ID {
			continue
		}
		fmt.Printf("  %s (%s ****%s)\n", account.Name, account.Subtype, account.Mask)
	}

	return nil
}
