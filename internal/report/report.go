// Package report renders the reconciliation results for people and
// spreadsheets: the headline balance with its exclusion counts, the
// audit trail and pending reviews as CSV, and per-category totals.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/money"
)

// WriteBalance prints the headline balance. The exclusion counts are
// part of the headline on purpose: a clean-looking balance with
// deferred or skipped rows behind it is a lie.
func WriteBalance(w io.Writer, roster model.Roster, rep model.BalanceReport) error {
	var err error
	if rep.Owing == model.PartyNone {
		_, err = fmt.Fprintf(w, "Balance: settled, nobody owes anything\n")
	} else {
		_, err = fmt.Fprintf(w, "Balance: %s owes %s $%s\n",
			roster.Name(rep.Owing), roster.Name(rep.Owing.Other()), rep.Amount.StringFixed(money.Places))
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "Posted: %d transactions\n", rep.Posted)
	if err != nil {
		return err
	}
	if rep.Deferred > 0 {
		_, err = fmt.Fprintf(w, "Pending review: %d transactions totaling $%s (excluded from the balance)\n",
			rep.Deferred, rep.DeferredTotal.StringFixed(money.Places))
		if err != nil {
			return err
		}
	}
	if rep.Skipped > 0 {
		_, err = fmt.Fprintf(w, "Skipped: %d rows with data-quality problems (see logs/quality-log.csv)\n", rep.Skipped)
	}
	return err
}

// CategoryTotal aggregates the posted transactions of one category.
type CategoryTotal struct {
	Category model.Category
	Count    int
	Total    decimal.Decimal
}

// CategoryTotals sums the audit trail per category, in the fixed
// category precedence order so output is stable.
func CategoryTotals(entries []model.AuditEntry) []CategoryTotal {
	byCat := make(map[model.Category]*CategoryTotal)
	for _, e := range entries {
		ct, ok := byCat[e.Transaction.Category]
		if !ok {
			ct = &CategoryTotal{Category: e.Transaction.Category}
			byCat[e.Transaction.Category] = ct
		}
		ct.Count++
		ct.Total = ct.Total.Add(e.Transaction.Amount)
	}

	order := model.Categories()
	rank := make(map[model.Category]int, len(order))
	for i, c := range order {
		rank[c] = i
	}

	out := make([]CategoryTotal, 0, len(byCat))
	for _, ct := range byCat {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		return rank[out[i].Category] < rank[out[j].Category]
	})
	return out
}

// WriteCategoryTotals prints the per-category table.
func WriteCategoryTotals(w io.Writer, totals []CategoryTotal) error {
	if len(totals) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nBy category:"); err != nil {
		return err
	}
	for _, ct := range totals {
		if _, err := fmt.Fprintf(w, "  %-12s %4d  $%s\n",
			ct.Category, ct.Count, ct.Total.StringFixed(money.Places)); err != nil {
			return err
		}
	}
	return nil
}
