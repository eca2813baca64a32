package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/money"
	"github.com/splitbooks-dev/splitbooks/internal/quality"
)

// ChaseParser parses Chase bank checking CSV exports. The export names
// the account, not the payer, so the owner is fixed per file.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV. Debits come out negative in the export and
// are normalized to positive costs; the sign only says which way the
// money moved through the account, classification decides the rest.
func (p *ChaseParser) Parse(r io.Reader, file string, payer model.Party) ([]model.Transaction, []quality.Note, error) {
	if !payer.Valid() {
		return nil, nil, fmt.Errorf("chase source %s: a payer must be configured", file)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil, nil
	}

	var txns []model.Transaction
	var notes []quality.Note
	for i, rec := range records[1:] {
		row := i + 2
		note := func(field, reason string) quality.Note {
			return quality.Note{File: file, Row: row, Field: field, Reason: reason}
		}

		if len(rec) != chaseNumFields {
			notes = append(notes, note("row", fmt.Sprintf("expected %d fields, got %d", chaseNumFields, len(rec))))
			continue
		}

		date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
		if err != nil {
			notes = append(notes, note("date", fmt.Sprintf("parsing date %q", rec[chaseColDate])))
			continue
		}

		amount, err := money.Parse(rec[chaseColAmount])
		if err != nil {
			notes = append(notes, note("amount", err.Error()))
			continue
		}
		if amount.IsZero() {
			notes = append(notes, note("amount", "zero amount"))
			continue
		}

		txns = append(txns, model.Transaction{
			Source:      model.SourceRef{File: file, Row: row},
			Date:        date,
			Payer:       payer,
			Description: rec[chaseColDesc],
			Amount:      amount.Abs(),
		})
	}
	return txns, notes, nil
}
