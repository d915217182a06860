package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/service"
	"github.com/brentcurtis76/casa-reconcile/pkg/money"
)

func newAnalyzeCommand() *cobra.Command {
	var profileID string
	var fallbackYear int

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Inspect a statement file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}

			analysis, err := a.svc.AnalyzeFile(cmd.Context(), data, filepath.Base(args[0]), service.AnalyzeOptions{
				ProfileID:    profileID,
				FallbackYear: fallbackYear,
			})
			if err != nil {
				return err
			}

			printAnalysis(cmd, analysis)
			return nil
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", service.ProfileAuto, "bank profile: auto, generic or a bank id")
	cmd.Flags().IntVar(&fallbackYear, "fallback-year", 0, "year for statements with yearless dates (default: current year)")

	return cmd
}

func printAnalysis(cmd *cobra.Command, analysis *service.Analysis) {
	if analysis.BankID != "" {
		cmd.Printf("Bank:       %s (%s)\n", analysis.BankDisplayName, analysis.BankID)
		cmd.Printf("Confidence: %.2f", analysis.Confidence)
		if analysis.AutoApplied {
			cmd.Printf(" (auto-applied)")
		} else {
			cmd.Printf(" (suggestion only, re-run with --profile %s to apply)", analysis.BankID)
		}
		cmd.Println()
	} else {
		cmd.Println("Bank:       not detected (generic column mapping)")
	}

	if !analysis.Metadata.PeriodStart.IsZero() {
		cmd.Printf("Period:     %s to %s\n",
			analysis.Metadata.PeriodStart.Format("2006-01-02"),
			analysis.Metadata.PeriodEnd.Format("2006-01-02"))
	}

	cmd.Printf("Rows:       %d parsed, %d dropped, %d blank\n",
		len(analysis.Preview.Rows), len(analysis.Preview.Dropped), analysis.Preview.Blank)

	preview := analysis.Preview.Rows
	if len(preview) > 5 {
		preview = preview[:5]
	}
	for _, row := range preview {
		cmd.Printf("  %s  %-40s %12s\n",
			row.Date.Format("2006-01-02"), row.Description, money.Display(row.Amount, money.CLP))
	}

	for _, dropped := range analysis.Preview.Dropped {
		cmd.Printf("  dropped row %d: %s %q\n", dropped.Row, dropped.Field, dropped.Value)
	}
}
