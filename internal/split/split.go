// Package split computes each party's share of a transaction amount
// according to the category's allocation policy. Shares always sum to
// the amount exactly; anything the rules cannot evaluate
// deterministically is flagged for manual review instead of guessed.
package split

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/money"
)

// ErrNeedsReview marks outcomes that must be resolved by a human. The
// engine diverts the transaction instead of posting it.
var ErrNeedsReview = errors.New("needs manual review")

// Policy carries the configured allocation rules.
type Policy struct {
	Roster model.Roster

	// Rent: fixed percentages plus the expected monthly total. A zero
	// Total disables the envelope check.
	RentShareA decimal.Decimal
	RentShareB decimal.Decimal
	RentTotal  decimal.Decimal
	Tolerance  decimal.Decimal

	// Override phrase lists for shared expenses, matched on word
	// boundaries.
	Reimburse []string
	Gift      []string
	Exclusion []string
}

// Calculator applies a Policy. Construct with New.
type Calculator struct {
	policy Policy
	exclRe *regexp.Regexp
}

var (
	pctRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*%`)
	// arithRe catches embedded arithmetic like "2x $15", "x2" or
	// "4.50+3.25" that no rule can evaluate deterministically.
	arithRe = regexp.MustCompile(`[0-9]\s*[x×*+]\s*\$?[0-9]|\b[x×]\s*[0-9]`)
)

// New validates the policy and builds a calculator.
func New(p Policy) (*Calculator, error) {
	if !p.RentShareA.Add(p.RentShareB).Equal(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("rent shares %s/%s do not sum to 100", p.RentShareA, p.RentShareB)
	}
	if p.RentShareA.IsNegative() || p.RentShareB.IsNegative() {
		return nil, fmt.Errorf("rent shares %s/%s must not be negative", p.RentShareA, p.RentShareB)
	}
	if p.RentTotal.IsNegative() {
		return nil, fmt.Errorf("rent total %s must not be negative", p.RentTotal)
	}
	if p.Tolerance.IsNegative() {
		return nil, fmt.Errorf("tolerance %s must not be negative", p.Tolerance)
	}
	c := &Calculator{policy: p}
	if len(p.Exclusion) > 0 {
		alts := make([]string, 0, len(p.Exclusion))
		for _, m := range p.Exclusion {
			m = strings.ToLower(strings.TrimSpace(m))
			if m == "" {
				return nil, errors.New("blank exclusion marker")
			}
			alts = append(alts, regexp.QuoteMeta(m))
		}
		c.exclRe = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\s*\$?\s*([0-9]+(?:\.[0-9]+)?)`)
	}
	return c, nil
}

// Compute returns the per-party shares for one transaction, plus notes
// explaining the calculation. Errors wrapping ErrNeedsReview mean the
// transaction must be diverted to manual review.
func (c *Calculator) Compute(cat model.Category, payer model.Party, amount decimal.Decimal, description string) (model.Shares, []string, error) {
	if !payer.Valid() {
		return model.Shares{}, nil, fmt.Errorf("%w: invalid payer", ErrNeedsReview)
	}
	if !amount.IsPositive() {
		return model.Shares{}, nil, fmt.Errorf("%w: amount %s is not positive", ErrNeedsReview, amount)
	}
	if err := money.CheckScale(amount); err != nil {
		return model.Shares{}, nil, fmt.Errorf("%w: %v", ErrNeedsReview, err)
	}

	switch cat {
	case model.CategoryRent:
		return c.rent(payer, amount)
	case model.CategorySettlement:
		return model.SharesFor(payer, amount), []string{"settlement: transfer, not a shared cost"}, nil
	case model.CategoryPersonal:
		return model.SharesFor(payer, amount), []string{"personal: no cross-party share"}, nil
	case model.CategoryIncome:
		return model.SharesFor(payer, amount), []string{"income: attributed to recipient only"}, nil
	case model.CategoryShared:
		return c.shared(payer, amount, description)
	}
	return model.Shares{}, nil, fmt.Errorf("%w: unknown category %q", ErrNeedsReview, cat)
}

func (c *Calculator) rent(payer model.Party, amount decimal.Decimal) (model.Shares, []string, error) {
	p := c.policy
	if p.RentTotal.IsPositive() && amount.Sub(p.RentTotal).Abs().GreaterThan(p.Tolerance) {
		return model.Shares{}, nil, fmt.Errorf("%w: rent %s differs from configured total %s by more than %s",
			ErrNeedsReview, amount, p.RentTotal, p.Tolerance)
	}

	shareA := money.Percent(amount, p.RentShareA)
	shareB := money.Percent(amount, p.RentShareB)
	residue := amount.Sub(shareA.Add(shareB))
	if residue.Abs().GreaterThan(p.Tolerance) {
		return model.Shares{}, nil, fmt.Errorf("%w: rent shares %s+%s do not reconstruct %s within %s",
			ErrNeedsReview, shareA, shareB, amount, p.Tolerance)
	}

	notes := []string{fmt.Sprintf("rent split %s/%s", p.RentShareA, p.RentShareB)}
	shares := model.Shares{PartyA: shareA, PartyB: shareB}
	if !residue.IsZero() {
		shares = addTo(shares, payer, residue)
		notes = append(notes, fmt.Sprintf("rounding residue %s assigned to payer", residue))
	}
	return shares, notes, nil
}

// override is one recognized description override.
type override struct {
	kind  string
	apply func() (model.Shares, []string, error)
}

func (c *Calculator) shared(payer model.Party, amount decimal.Decimal, description string) (model.Shares, []string, error) {
	lower := strings.ToLower(description)

	if arithRe.MatchString(lower) {
		return model.Shares{}, nil, fmt.Errorf("%w: description contains arithmetic that cannot be evaluated", ErrNeedsReview)
	}

	var overrides []override

	if matchAnyWord(lower, c.policy.Reimburse) {
		overrides = append(overrides, override{kind: "full reimbursement", apply: func() (model.Shares, []string, error) {
			other := payer.Other()
			return model.SharesFor(other, amount),
				[]string{fmt.Sprintf("override: full reimbursement owed by %s", c.policy.Roster.Name(other))}, nil
		}})
	}

	if pcts := pctRe.FindAllStringSubmatchIndex(lower, -1); len(pcts) > 0 {
		for range pcts {
			overrides = append(overrides, override{kind: "percentage"})
		}
		if len(pcts) == 1 {
			overrides[len(overrides)-1].apply = c.percentOverride(payer, amount, lower, pcts[0])
		}
	}

	if matchAnyWord(lower, c.policy.Gift) {
		overrides = append(overrides, override{kind: "gift", apply: c.giftOverride(amount, lower)})
	}

	if c.exclRe != nil {
		excls := c.exclRe.FindAllStringSubmatch(lower, -1)
		for range excls {
			overrides = append(overrides, override{kind: "exclusion"})
		}
		if len(excls) == 1 {
			overrides[len(overrides)-1].apply = c.exclusionOverride(payer, amount, excls[0][1])
		}
		if len(excls) == 0 && matchAnyWord(lower, c.policy.Exclusion) {
			return model.Shares{}, nil, fmt.Errorf("%w: exclusion marker without a parsable amount", ErrNeedsReview)
		}
	}

	if len(overrides) > 1 {
		kinds := make([]string, len(overrides))
		for i, o := range overrides {
			kinds[i] = o.kind
		}
		return model.Shares{}, nil, fmt.Errorf("%w: multiple override patterns: %s", ErrNeedsReview, strings.Join(kinds, ", "))
	}
	if len(overrides) == 1 {
		return overrides[0].apply()
	}

	payerShare, otherShare, residue := money.SplitHalf(amount)
	shares := model.SharesFor(payer, payerShare)
	shares = addTo(shares, payer.Other(), otherShare)
	notes := []string{"shared 50/50"}
	if !residue.IsZero() {
		notes = append(notes, fmt.Sprintf("rounding residue %s assigned to payer", residue))
	}
	return shares, notes, nil
}

func (c *Calculator) percentOverride(payer model.Party, amount decimal.Decimal, lower string, loc []int) func() (model.Shares, []string, error) {
	return func() (model.Shares, []string, error) {
		pct, err := decimal.NewFromString(lower[loc[2]:loc[3]])
		if err != nil || pct.GreaterThan(decimal.NewFromInt(100)) {
			return model.Shares{}, nil, fmt.Errorf("%w: percentage %q out of range", ErrNeedsReview, lower[loc[2]:loc[3]])
		}
		named, ok := c.policy.Roster.Mentioned(lower[loc[1]:])
		if !ok {
			return model.Shares{}, nil, fmt.Errorf("%w: percentage override names no single party", ErrNeedsReview)
		}

		namedShare := money.Percent(amount, pct)
		otherShare := money.Percent(amount, decimal.NewFromInt(100).Sub(pct))
		shares := model.SharesFor(named, namedShare)
		shares = addTo(shares, named.Other(), otherShare)
		notes := []string{fmt.Sprintf("override: %s%% to %s", pct, c.policy.Roster.Name(named))}

		if residue := amount.Sub(shares.Total()); !residue.IsZero() {
			shares = addTo(shares, payer, residue)
			notes = append(notes, fmt.Sprintf("rounding residue %s assigned to payer", residue))
		}
		return shares, notes, nil
	}
}

// giftOverride assigns the full amount to the giver. A gift for the
// other party is the payer's own cost; a gift for the payer means the
// other party gave it and owes the full amount.
func (c *Calculator) giftOverride(amount decimal.Decimal, lower string) func() (model.Shares, []string, error) {
	return func() (model.Shares, []string, error) {
		recipient, ok := c.policy.Roster.Mentioned(lower)
		if !ok {
			return model.Shares{}, nil, fmt.Errorf("%w: gift override names no single party", ErrNeedsReview)
		}
		giver := recipient.Other()
		return model.SharesFor(giver, amount),
			[]string{fmt.Sprintf("override: gift for %s, %s pays in full",
				c.policy.Roster.Name(recipient), c.policy.Roster.Name(giver))}, nil
	}
}

func (c *Calculator) exclusionOverride(payer model.Party, amount decimal.Decimal, raw string) func() (model.Shares, []string, error) {
	return func() (model.Shares, []string, error) {
		excluded, err := money.Parse(raw)
		if err != nil {
			return model.Shares{}, nil, fmt.Errorf("%w: exclusion amount %q: %v", ErrNeedsReview, raw, err)
		}
		if !excluded.IsPositive() || excluded.GreaterThanOrEqual(amount) {
			return model.Shares{}, nil, fmt.Errorf("%w: exclusion %s outside (0, %s)", ErrNeedsReview, excluded, amount)
		}

		payerShare, otherShare, residue := money.SplitHalf(amount.Sub(excluded))
		shares := model.SharesFor(payer, payerShare.Add(excluded))
		shares = addTo(shares, payer.Other(), otherShare)
		notes := []string{fmt.Sprintf("override: excluded %s before splitting", excluded)}
		if !residue.IsZero() {
			notes = append(notes, fmt.Sprintf("rounding residue %s assigned to payer", residue))
		}
		return shares, notes, nil
	}
}

// Validate checks shares the way the posting path requires: cent
// precision, no negatives, summing exactly to the amount. Reviewer
// decisions pass through here too.
func Validate(amount decimal.Decimal, s model.Shares) error {
	for _, p := range []model.Party{model.PartyA, model.PartyB} {
		share := s.Of(p)
		if share.IsNegative() {
			return fmt.Errorf("share for %s is negative (%s)", p, share)
		}
		if err := money.CheckScale(share); err != nil {
			return fmt.Errorf("share for %s: %w", p, err)
		}
	}
	if !s.Total().Equal(amount) {
		return fmt.Errorf("shares %s+%s do not sum to amount %s", s.PartyA, s.PartyB, amount)
	}
	return nil
}

func matchAnyWord(lower string, phrases []string) bool {
	for _, ph := range phrases {
		ph = strings.ToLower(strings.TrimSpace(ph))
		if ph != "" && model.ContainsWord(lower, ph) {
			return true
		}
	}
	return false
}

func addTo(s model.Shares, p model.Party, d decimal.Decimal) model.Shares {
	switch p {
	case model.PartyA:
		s.PartyA = s.PartyA.Add(d)
	case model.PartyB:
		s.PartyB = s.PartyB.Add(d)
	}
	return s
}
