package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/splitbooks-dev/splitbooks/internal/engine"
	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/money"
	"github.com/splitbooks-dev/splitbooks/internal/report"
	"github.com/splitbooks-dev/splitbooks/internal/store"
)

func newReviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Inspect and resolve transactions held for manual review",
	}
	cmd.AddCommand(newReviewListCommand())
	cmd.AddCommand(newReviewResolveCommand())
	return cmd
}

func newReviewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [directory]",
		Short: "List transactions awaiting a decision",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(workspaceDir(args))
			if err != nil {
				return err
			}
			st, err := ws.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			pending, err := st.PendingReviews()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "No transactions pending review")
				return nil
			}

			roster := ws.cfg.Roster()
			for _, it := range pending {
				t := it.Transaction
				fmt.Fprintf(out, "%s  %s  %s  $%s  %q\n",
					t.ID, t.Date.Format("2006-01-02"), roster.Name(t.Payer),
					t.Amount.StringFixed(money.Places), t.Description)
				for _, r := range it.Reasons {
					fmt.Fprintf(out, "    - %s\n", r)
				}
			}
			fmt.Fprintf(out, "%d pending\n", len(pending))
			return nil
		},
	}
}

func newReviewResolveCommand() *cobra.Command {
	var (
		category string
		shareA   string
		shareB   string
		note     string
		by       string
	)

	cmd := &cobra.Command{
		Use:   "resolve <item-id> [directory]",
		Short: "Post a reviewer decision for a held transaction",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid item id %q: %w", args[0], err)
			}
			ws, err := loadWorkspace(workspaceDir(args[1:]))
			if err != nil {
				return err
			}

			decision, err := buildDecision(category, shareA, shareB, note, by)
			if err != nil {
				return err
			}
			return runResolve(cmd, ws, id, decision)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "resolved category (required)")
	_ = cmd.MarkFlagRequired("category")
	cmd.Flags().StringVar(&shareA, "share-a", "", "first party's share (required)")
	_ = cmd.MarkFlagRequired("share-a")
	cmd.Flags().StringVar(&shareB, "share-b", "", "second party's share (required)")
	_ = cmd.MarkFlagRequired("share-b")
	cmd.Flags().StringVar(&note, "note", "", "reviewer note")
	cmd.Flags().StringVar(&by, "by", "", "reviewer name (required)")
	_ = cmd.MarkFlagRequired("by")

	return cmd
}

func buildDecision(category, shareA, shareB, note, by string) (model.ReviewDecision, error) {
	var d model.ReviewDecision
	var err error

	if d.Category, err = model.ParseCategory(category); err != nil {
		return model.ReviewDecision{}, err
	}
	if d.Shares.PartyA, err = money.Parse(shareA); err != nil {
		return model.ReviewDecision{}, fmt.Errorf("--share-a: %w", err)
	}
	if d.Shares.PartyB, err = money.Parse(shareB); err != nil {
		return model.ReviewDecision{}, fmt.Errorf("--share-b: %w", err)
	}
	d.Note = note
	d.ResolvedBy = by
	d.ResolvedAt = time.Now().UTC()
	return d, nil
}

func runResolve(cmd *cobra.Command, ws *workspace, id uuid.UUID, decision model.ReviewDecision) error {
	st, err := ws.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	eng, err := ws.resumeEngine(st)
	if err != nil {
		return err
	}

	entry, err := eng.ResolveReview(id, decision)
	if err != nil {
		return err
	}
	if err := persistResolution(st, eng, id, entry); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Resolved %s as %s (entry %d)\n", id, decision.Category, entry.Seq)
	return report.WriteBalance(out, ws.cfg.Roster(), eng.FinalBalance())
}

// persistResolution finds the resolved item in the engine's review log
// and records the decision plus the audit entry it produced.
func persistResolution(st *store.Store, eng *engine.Engine, id uuid.UUID, entry model.AuditEntry) error {
	for _, it := range eng.ReviewLog() {
		if it.Transaction.ID == id {
			return st.MarkResolved(it, entry)
		}
	}
	return fmt.Errorf("resolved item %s missing from review log", id)
}
