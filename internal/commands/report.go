package commands

import (
	"github.com/spf13/cobra"

	"github.com/splitbooks-dev/splitbooks/internal/ledger"
	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/quality"
	"github.com/splitbooks-dev/splitbooks/internal/report"
)

func newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report [directory]",
		Short: "Print the stored balance, exclusions and category totals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(workspaceDir(args))
			if err != nil {
				return err
			}
			return runReport(cmd, ws)
		},
	}
}

func runReport(cmd *cobra.Command, ws *workspace) error {
	st, err := ws.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, _, err := st.LatestSnapshot()
	if err != nil {
		return err
	}
	// Restoring re-checks the zero-sum invariant on the stored book.
	book, err := ledger.NewFromSnapshot(snap)
	if err != nil {
		return err
	}

	trail, err := st.AuditTrail()
	if err != nil {
		return err
	}
	pending, err := st.PendingReviews()
	if err != nil {
		return err
	}
	notes, err := quality.Read(ws.dir)
	if err != nil {
		return err
	}

	rep := model.BalanceReport{
		Posted:  len(trail),
		Skipped: len(notes),
	}
	rep.Owing, rep.Amount = book.Balance()
	for _, it := range pending {
		rep.Deferred++
		rep.DeferredTotal = rep.DeferredTotal.Add(it.Transaction.Amount)
	}

	out := cmd.OutOrStdout()
	if err := report.WriteBalance(out, ws.cfg.Roster(), rep); err != nil {
		return err
	}
	return report.WriteCategoryTotals(out, report.CategoryTotals(trail))
}
