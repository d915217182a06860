package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/service"
)

func newImportCommand() *cobra.Command {
	var profileID string
	var fallbackYear int
	var noRetain bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a statement file into a new batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			filename := filepath.Base(args[0])
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}

			if !noRetain {
				info, err := a.store.Upload(cmd.Context(), filename, "", bytes.NewReader(data))
				if err != nil {
					return fmt.Errorf("retaining original file: %w", err)
				}
				cmd.Printf("Retained original as %s\n", info.Path)
			}

			summary, err := a.svc.Import(cmd.Context(), data, filename, service.AnalyzeOptions{
				ProfileID:    profileID,
				FallbackYear: fallbackYear,
			})
			if err != nil {
				return err
			}

			cmd.Printf("Batch:    %s\n", summary.BatchID)
			if summary.BankID != "" {
				cmd.Printf("Bank:     %s\n", summary.BankID)
			}
			cmd.Printf("Imported: %d rows (%d dropped, %d blank)\n",
				summary.RowsImported, summary.RowsDropped, summary.BlankRows)
			if !summary.PeriodStart.IsZero() {
				cmd.Printf("Period:   %s to %s\n",
					summary.PeriodStart.Format("2006-01-02"), summary.PeriodEnd.Format("2006-01-02"))
			}
			for _, dropped := range summary.DroppedRows {
				cmd.Printf("  dropped row %d: %s %q\n", dropped.Row, dropped.Field, dropped.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", service.ProfileAuto, "bank profile: auto, generic or a bank id")
	cmd.Flags().IntVar(&fallbackYear, "fallback-year", 0, "year for statements with yearless dates (default: current year)")
	cmd.Flags().BoolVar(&noRetain, "no-retain", false, "skip retaining a copy of the original file")

	return cmd
}

func newBatchesCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List recent import batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			batches, err := a.repo.ListBatches(cmd.Context(), limit)
			if err != nil {
				return err
			}

			for _, batch := range batches {
				cmd.Printf("%s  %-10s %-12s %4d rows  %s\n",
					batch.ID, batch.Status, batch.BankID, batch.RowCount, batch.FileName)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum batches to list")

	return cmd
}
