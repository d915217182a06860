package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/reconcile"
	"github.com/brentcurtis76/casa-reconcile/pkg/money"
)

func newMatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <batch-id>",
		Short: "Propose matches for a batch against recorded transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid batch id: %w", err)
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			summary, err := a.svc.MatchBatch(cmd.Context(), batchID)
			if err != nil {
				return err
			}

			cmd.Printf("Considered: %d rows, proposed %d matches\n",
				summary.RowsConsidered, summary.Proposed)

			rows, err := a.repo.ListBankTransactions(cmd.Context(), batchID)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if row.MatchedTransactionID == nil || row.Status != reconcile.StatusUnmatched {
					continue
				}
				cmd.Printf("  row %3d  %s  %-35s %12s  -> %s (%.2f)\n",
					row.RowIndex,
					row.Date.Format("2006-01-02"),
					row.Description,
					money.Display(row.Amount, money.CLP),
					row.MatchedTransactionID,
					*row.MatchConfidence,
				)
			}
			return nil
		},
	}

	return cmd
}
