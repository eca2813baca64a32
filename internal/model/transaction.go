package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceRef records where a transaction came from: the source file and
// its 1-based row number. The zero value means manual entry.
type SourceRef struct {
	File string
	Row  int
}

// String formats the reference as "file:row", or "manual" for the zero value.
func (r SourceRef) String() string {
	if r.File == "" {
		return "manual"
	}
	return r.File + ":" + strconv.Itoa(r.Row)
}

// ParseSourceRef parses a reference produced by String.
func ParseSourceRef(s string) (SourceRef, error) {
	if s == "" || s == "manual" {
		return SourceRef{}, nil
	}
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return SourceRef{}, fmt.Errorf("invalid source ref %q", s)
	}
	row, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return SourceRef{}, fmt.Errorf("invalid row in source ref %q: %w", s, err)
	}
	return SourceRef{File: s[:i], Row: row}, nil
}

// Shares holds each party's portion of a transaction amount.
type Shares struct {
	PartyA decimal.Decimal
	PartyB decimal.Decimal
}

// Of returns the share belonging to p.
func (s Shares) Of(p Party) decimal.Decimal {
	switch p {
	case PartyA:
		return s.PartyA
	case PartyB:
		return s.PartyB
	default:
		return decimal.Zero
	}
}

// Total returns the sum of both shares.
func (s Shares) Total() decimal.Decimal {
	return s.PartyA.Add(s.PartyB)
}

// SharesFor builds Shares with the full amount on p's side.
func SharesFor(p Party, amount decimal.Decimal) Shares {
	if p == PartyB {
		return Shares{PartyB: amount}
	}
	return Shares{PartyA: amount}
}

// idNamespace scopes the deterministic transaction IDs below.
var idNamespace = uuid.MustParse("9c1d3f2a-5b84-4e06-b0d7-41c6a8f0e512")

// DeriveID returns a deterministic UUID for a transaction's
// identifying fields, so re-ingesting the same row yields the same ID
// and the audit trail is reproducible run over run.
func DeriveID(source SourceRef, date time.Time, payer Party, amount decimal.Decimal, description string) uuid.UUID {
	key := strings.Join([]string{
		source.String(),
		date.Format("2006-01-02"),
		payer.String(),
		amount.String(),
		description,
	}, "|")
	return uuid.NewSHA1(idNamespace, []byte(key))
}

// Transaction is one normalized record flowing through the engine.
// It is treated as immutable once enriched: the classifier and split
// calculator produce copies, and posted transactions are never changed.
type Transaction struct {
	ID          uuid.UUID
	Source      SourceRef
	Date        time.Time
	Payer       Party
	Description string
	Amount      decimal.Decimal

	// Set during classification and splitting.
	Category   Category
	Confidence float64
	Shares     Shares
	Notes      []string

	// Set when the transaction is diverted to manual review.
	NeedsReview   bool
	ReviewReasons []string
}

// WithNote returns a copy of t with an extra calculation note appended.
func (t Transaction) WithNote(note string) Transaction {
	notes := make([]string, 0, len(t.Notes)+1)
	notes = append(notes, t.Notes...)
	notes = append(notes, note)
	t.Notes = notes
	return t
}

// Flag returns a copy of t marked for manual review with the given reason.
func (t Transaction) Flag(reason string) Transaction {
	reasons := make([]string, 0, len(t.ReviewReasons)+1)
	reasons = append(reasons, t.ReviewReasons...)
	reasons = append(reasons, reason)
	t.NeedsReview = true
	t.ReviewReasons = reasons
	return t
}
