// Package ledger keeps the two parties' mutual debts as a double-entry
// book with four non-negative balances. Every mutation is a balanced
// pair followed by a netting pass, and the zero-sum invariant is
// re-checked after each one.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/money"
)

var (
	// ErrInvariantViolation means the books failed a post-mutation
	// check. It is fatal: the caller must abort the run rather than
	// report balances from a corrupt book.
	ErrInvariantViolation = errors.New("ledger invariant violation")

	// ErrUnbalancedPosting rejects a bad posting before it mutates
	// anything. The book is still usable afterwards.
	ErrUnbalancedPosting = errors.New("unbalanced posting")
)

// Ledger is not safe for concurrent use; the engine serializes access.
type Ledger struct {
	bal model.Snapshot
}

// New returns an empty, square book.
func New() *Ledger {
	return &Ledger{}
}

// NewFromSnapshot restores a book from a stored snapshot, re-checking
// the invariants before accepting it.
func NewFromSnapshot(s model.Snapshot) (*Ledger, error) {
	l := &Ledger{bal: s}
	if err := l.check(); err != nil {
		return nil, fmt.Errorf("restoring snapshot: %w", err)
	}
	return l, nil
}

// Post records that debtor owes creditor amount more than before. The
// amount must be positive cent-precision money and the parties must
// differ.
func (l *Ledger) Post(debtor, creditor model.Party, amount decimal.Decimal) error {
	if !debtor.Valid() || !creditor.Valid() || debtor == creditor {
		return fmt.Errorf("%w: debtor %q, creditor %q", ErrUnbalancedPosting, debtor, creditor)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount %s is not positive", ErrUnbalancedPosting, amount)
	}
	if err := money.CheckScale(amount); err != nil {
		return fmt.Errorf("%w: %v", ErrUnbalancedPosting, err)
	}

	p := l.pay(debtor)
	*p = p.Add(amount)
	r := l.recv(creditor)
	*r = r.Add(amount)

	l.normalize()
	return l.check()
}

// Settle records a direct transfer between the parties. It pays down
// the open balance no matter which party's export recorded the row
// (statements label the account owner, not the money's direction);
// overpayment flips who owes whom by the remainder. On a square book
// the transfer opens a debt from the receiving party back to the
// payer.
func (l *Ledger) Settle(payer model.Party, amount decimal.Decimal) error {
	if !payer.Valid() {
		return fmt.Errorf("%w: invalid payer %q", ErrUnbalancedPosting, payer)
	}
	owing, _ := l.Balance()
	if owing == model.PartyNone {
		return l.Post(payer.Other(), payer, amount)
	}
	return l.Post(owing.Other(), owing, amount)
}

// Balance reports who owes whom. PartyNone and zero means square.
func (l *Ledger) Balance() (owing model.Party, amount decimal.Decimal) {
	switch {
	case l.bal.PayableA.IsPositive():
		return model.PartyA, l.bal.PayableA
	case l.bal.PayableB.IsPositive():
		return model.PartyB, l.bal.PayableB
	}
	return model.PartyNone, decimal.Zero
}

// Net returns receivable minus payable for p.
func (l *Ledger) Net(p model.Party) decimal.Decimal {
	return l.bal.Net(p)
}

// Snapshot returns a copy of the four balances.
func (l *Ledger) Snapshot() model.Snapshot {
	return l.bal
}

// normalize nets each party's receivable against its payable so only
// one of the two is ever open.
func (l *Ledger) normalize() {
	for _, p := range []model.Party{model.PartyA, model.PartyB} {
		off := decimal.Min(*l.recv(p), *l.pay(p))
		if off.IsPositive() {
			r := l.recv(p)
			*r = r.Sub(off)
			pay := l.pay(p)
			*pay = pay.Sub(off)
		}
	}
}

func (l *Ledger) check() error {
	net := l.bal.Net(model.PartyA).Add(l.bal.Net(model.PartyB))
	if !net.IsZero() {
		return fmt.Errorf("%w: net(a)+net(b) = %s, want 0", ErrInvariantViolation, net)
	}
	for _, b := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"receivable(a)", l.bal.ReceivableA},
		{"payable(a)", l.bal.PayableA},
		{"receivable(b)", l.bal.ReceivableB},
		{"payable(b)", l.bal.PayableB},
	} {
		if b.v.IsNegative() {
			return fmt.Errorf("%w: %s is negative (%s)", ErrInvariantViolation, b.name, b.v)
		}
		if err := money.CheckScale(b.v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvariantViolation, b.name, err)
		}
	}
	for _, p := range []model.Party{model.PartyA, model.PartyB} {
		if l.bal.Receivable(p).IsPositive() && l.bal.Payable(p).IsPositive() {
			return fmt.Errorf("%w: party %s holds both a receivable and a payable", ErrInvariantViolation, p)
		}
	}
	return nil
}

func (l *Ledger) recv(p model.Party) *decimal.Decimal {
	if p == model.PartyB {
		return &l.bal.ReceivableB
	}
	return &l.bal.ReceivableA
}

func (l *Ledger) pay(p model.Party) *decimal.Decimal {
	if p == model.PartyB {
		return &l.bal.PayableB
	}
	return &l.bal.PayableA
}
