package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/report"
)

func newProcessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process [directory]",
		Short: "Ingest the configured sources and post them to the ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(workspaceDir(args))
			if err != nil {
				return err
			}
			return runProcess(cmd, ws)
		},
	}
}

func runProcess(cmd *cobra.Command, ws *workspace) error {
	out := cmd.OutOrStdout()

	eng, st, err := ws.runBatch(out)
	if err != nil {
		return err
	}
	defer st.Close()

	// Exports cover the whole book, not just this session, so a re-run
	// after an out-of-band resolution still shows the resolution entry.
	trail, err := st.AuditTrail()
	if err != nil {
		return err
	}
	if err := writeExports(ws.dir, trail, eng.PendingReview()); err != nil {
		return err
	}

	roster := ws.cfg.Roster()
	if err := report.WriteBalance(out, roster, eng.FinalBalance()); err != nil {
		return err
	}
	return report.WriteCategoryTotals(out, report.CategoryTotals(trail))
}

// writeExports writes the spreadsheet-friendly CSVs under exports/.
func writeExports(dir string, trail []model.AuditEntry, pending []model.ReviewItem) error {
	exportDir := filepath.Join(dir, "exports")
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return fmt.Errorf("creating exports dir: %w", err)
	}

	audit, err := os.Create(filepath.Join(exportDir, "audit.csv"))
	if err != nil {
		return fmt.Errorf("creating audit export: %w", err)
	}
	defer audit.Close()
	if err := report.WriteAuditCSV(audit, trail); err != nil {
		return err
	}

	reviews, err := os.Create(filepath.Join(exportDir, "pending-reviews.csv"))
	if err != nil {
		return fmt.Errorf("creating review export: %w", err)
	}
	defer reviews.Close()
	return report.WritePendingCSV(reviews, pending)
}
