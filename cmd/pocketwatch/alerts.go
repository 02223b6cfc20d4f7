package main

import (
	"fmt"

	"github.com/pocketwatch-app/pocketwatch/internal/budget"
	"github.com/spf13/cobra"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Review and raise budget alerts",
	}

	cmd.AddCommand(alertsListCmd())
	cmd.AddCommand(alertsCheckCmd())

	return cmd
}

func alertsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			alerts, err := store.ListActiveAlerts(ctx, currentUserID())
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			if len(alerts) == 0 {
				fmt.Println("No active alerts.")
				return nil
			}

			for _, alert := range alerts {
				fmt.Printf("[%s] %s: %s (%s)\n",
					alert.Severity, alert.Category, alert.Reason,
					alert.CreatedAt.Format("2006-01-02"))
			}

			return nil
		},
	}
}

func alertsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Evaluate budgets now and raise alerts for exceeded ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			userID := currentUserID()
			aggregator := budget.NewAggregator(store)
			summaries, err := aggregator.Summarize(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to summarize budgets: %w", err)
			}

			trigger := budget.NewTrigger(store)
			created, err := trigger.TriggerAlerts(ctx, userID, summaries)
			if err != nil {
				return fmt.Errorf("failed to trigger alerts: %w", err)
			}

			if len(created) == 0 {
				fmt.Println("No new alerts.")
				return nil
			}
			for _, alert := range created {
				fmt.Printf("⚠️  [%s] %s: %s\n", alert.Severity, alert.Category, alert.Reason)
			}

			return nil
		},
	}
}
