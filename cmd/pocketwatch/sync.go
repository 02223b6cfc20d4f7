package main

import (
	"fmt"
	"time"

	"github.com/pocketwatch-app/pocketwatch/internal/ingest"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync transactions from linked bank connections",
		Long: `Pull new, changed, and removed transactions from every linked bank
connection. Each connection syncs independently; one failing connection
does not stop the others.`,
		RunE: runSync,
	}

	cmd.Flags().String("item", "", "sync only this item id")

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	itemID, _ := cmd.Flags().GetString("item")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	client, err := initPlaidClient()
	if err != nil {
		return fmt.Errorf("failed to create Plaid client: %w", err)
	}

	cipher, err := initCipher()
	if err != nil {
		return err
	}

	userID := currentUserID()
	syncer := ingest.NewSyncer(store, client, cipher)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Syncing transactions"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	var failures int
	if itemID != "" {
		result, err := syncer.Sync(ctx, userID, itemID)
		close(done)
		_ = bar.Finish()
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		fmt.Printf("✅ Synced item %s: %d added, %d updated, %d removed, %d skipped\n",
			itemID, result.Added, result.Updated, result.Removed, result.Skipped)
		return nil
	}

	results, err := syncer.SyncAll(ctx, userID)
	close(done)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Printf("❌ Item %s: %v\n", r.ItemID, r.Err)
			continue
		}
		fmt.Printf("✅ Item %s: %d added, %d updated, %d removed, %d skipped\n",
			r.ItemID, r.Result.Added, r.Result.Updated, r.Result.Removed, r.Result.Skipped)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d items failed to sync", failures, len(results))
	}
	return nil
}
