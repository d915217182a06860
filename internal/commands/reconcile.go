package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newReconcileCommands builds the per-row state transition commands.
func newReconcileCommands() []*cobra.Command {
	confirm := rowCommand("confirm <row-id>", "Confirm a row's proposed match",
		func(ctx context.Context, a *app, rowID uuid.UUID) error {
			return a.svc.ConfirmMatch(ctx, rowID)
		})

	undo := rowCommand("undo <row-id>", "Undo a confirmed match",
		func(ctx context.Context, a *app, rowID uuid.UUID) error {
			return a.svc.UndoMatch(ctx, rowID)
		})

	ignore := rowCommand("ignore <row-id>", "Exclude a row from reconciliation",
		func(ctx context.Context, a *app, rowID uuid.UUID) error {
			return a.svc.IgnoreRow(ctx, rowID)
		})

	var category string
	create := &cobra.Command{
		Use:   "create <row-id>",
		Short: "Create a new transaction from an imported row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rowID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid row id: %w", err)
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			created, err := a.svc.CreateFromRow(cmd.Context(), rowID, category)
			if err != nil {
				return err
			}
			cmd.Printf("Created transaction %s\n", created)
			return nil
		},
	}
	create.Flags().StringVar(&category, "category", "", "category for the new transaction")

	return []*cobra.Command{confirm, undo, ignore, create}
}

func rowCommand(use, short string, run func(context.Context, *app, uuid.UUID) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rowID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid row id: %w", err)
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			return run(cmd.Context(), a, rowID)
		},
	}
}
