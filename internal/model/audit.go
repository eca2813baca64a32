package model

import "github.com/shopspring/decimal"

// Snapshot captures all four ledger balances at a point in time.
type Snapshot struct {
	ReceivableA decimal.Decimal
	PayableA    decimal.Decimal
	ReceivableB decimal.Decimal
	PayableB    decimal.Decimal
}

// Receivable returns the amount owed to p.
func (s Snapshot) Receivable(p Party) decimal.Decimal {
	if p == PartyB {
		return s.ReceivableB
	}
	return s.ReceivableA
}

// Payable returns the amount owed by p.
func (s Snapshot) Payable(p Party) decimal.Decimal {
	if p == PartyB {
		return s.PayableB
	}
	return s.PayableA
}

// Net returns receivable minus payable for p.
func (s Snapshot) Net(p Party) decimal.Decimal {
	return s.Receivable(p).Sub(s.Payable(p))
}

// AuditEntry records one posted transaction together with the ledger
// snapshot taken immediately after posting. Entries are append-only;
// corrections are modeled as new transactions.
type AuditEntry struct {
	Seq         int
	Transaction Transaction
	Balances    Snapshot
}

// BalanceReport is the headline result of a reconciliation run. The
// balance always travels with the exclusion counts so an incomplete run
// is never mistaken for a clean one.
type BalanceReport struct {
	// Owing is the party that owes money; PartyNone when square.
	Owing  Party
	Amount decimal.Decimal

	Posted        int
	Deferred      int
	DeferredTotal decimal.Decimal
	Skipped       int
}
