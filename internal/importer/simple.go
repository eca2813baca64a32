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

// SimpleParser parses manually maintained sheets exported as
// "date,payer,description,amount". The payer column is resolved
// against the roster, so either party's rows can live in one file.
type SimpleParser struct {
	Roster model.Roster
}

const (
	simpleDateFormat = "2006-01-02"
	simpleNumFields  = 4
	simpleColDate    = 0
	simpleColPayer   = 1
	simpleColDesc    = 2
	simpleColAmount  = 3
)

// Format returns the parser name.
func (p *SimpleParser) Format() string { return "simple" }

// Parse reads a simple CSV. The payer argument is ignored; each row
// names its own payer.
func (p *SimpleParser) Parse(r io.Reader, file string, _ model.Party) ([]model.Transaction, []quality.Note, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row problems become notes, not a dead file

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading simple CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil, nil
	}

	var txns []model.Transaction
	var notes []quality.Note
	for i, rec := range records[1:] {
		row := i + 2
		tx, note, ok := p.parseRow(rec, file, row)
		if !ok {
			notes = append(notes, note)
			continue
		}
		txns = append(txns, tx)
	}
	return txns, notes, nil
}

func (p *SimpleParser) parseRow(rec []string, file string, row int) (model.Transaction, quality.Note, bool) {
	note := func(field, reason string) quality.Note {
		return quality.Note{File: file, Row: row, Field: field, Reason: reason}
	}

	if len(rec) != simpleNumFields {
		return model.Transaction{}, note("row", fmt.Sprintf("expected %d fields, got %d", simpleNumFields, len(rec))), false
	}

	date, err := time.Parse(simpleDateFormat, rec[simpleColDate])
	if err != nil {
		return model.Transaction{}, note("date", fmt.Sprintf("parsing date %q", rec[simpleColDate])), false
	}

	payer, ok := p.Roster.Resolve(rec[simpleColPayer])
	if !ok {
		return model.Transaction{}, note("payer", fmt.Sprintf("unknown payer %q", rec[simpleColPayer])), false
	}

	amount, err := money.Parse(rec[simpleColAmount])
	if err != nil {
		return model.Transaction{}, note("amount", err.Error()), false
	}
	if !amount.IsPositive() {
		return model.Transaction{}, note("amount", fmt.Sprintf("amount %s is not positive", amount)), false
	}

	return model.Transaction{
		Source:      model.SourceRef{File: file, Row: row},
		Date:        date,
		Payer:       payer,
		Description: rec[simpleColDesc],
		Amount:      amount,
	}, quality.Note{}, true
}
