package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/money"
)

// AuditHeader is the CSV header for the audit trail export.
const AuditHeader = "seq,id,source,date,payer,description,amount,category,confidence,share_a,share_b,receivable_a,payable_a,receivable_b,payable_b,notes"

const (
	auditNumFields = 16
	dateFormat     = "2006-01-02"
	noteSep        = " | "

	colSeq         = 0
	colID          = 1
	colSource      = 2
	colDate        = 3
	colPayer       = 4
	colDesc        = 5
	colAmount      = 6
	colCategory    = 7
	colConfidence  = 8
	colShareA      = 9
	colShareB      = 10
	colReceivableA = 11
	colPayableA    = 12
	colReceivableB = 13
	colPayableB    = 14
	colNotes       = 15
)

// MarshalAuditEntry converts an AuditEntry to a CSV row.
func MarshalAuditEntry(e model.AuditEntry) []string {
	t := e.Transaction
	row := make([]string, auditNumFields)
	row[colSeq] = strconv.Itoa(e.Seq)
	row[colID] = t.ID.String()
	row[colSource] = t.Source.String()
	row[colDate] = t.Date.Format(dateFormat)
	row[colPayer] = t.Payer.String()
	row[colDesc] = t.Description
	row[colAmount] = t.Amount.StringFixed(money.Places)
	row[colCategory] = string(t.Category)
	row[colConfidence] = strconv.FormatFloat(t.Confidence, 'f', 2, 64)
	row[colShareA] = t.Shares.PartyA.StringFixed(money.Places)
	row[colShareB] = t.Shares.PartyB.StringFixed(money.Places)
	row[colReceivableA] = e.Balances.ReceivableA.StringFixed(money.Places)
	row[colPayableA] = e.Balances.PayableA.StringFixed(money.Places)
	row[colReceivableB] = e.Balances.ReceivableB.StringFixed(money.Places)
	row[colPayableB] = e.Balances.PayableB.StringFixed(money.Places)
	row[colNotes] = strings.Join(t.Notes, noteSep)
	return row
}

// UnmarshalAuditEntry converts a CSV row back to an AuditEntry.
func UnmarshalAuditEntry(record []string) (model.AuditEntry, error) {
	if len(record) != auditNumFields {
		return model.AuditEntry{}, fmt.Errorf("expected %d fields, got %d", auditNumFields, len(record))
	}

	seq, err := strconv.Atoi(record[colSeq])
	if err != nil {
		return model.AuditEntry{}, fmt.Errorf("parsing seq %q: %w", record[colSeq], err)
	}
	id, err := uuid.Parse(record[colID])
	if err != nil {
		return model.AuditEntry{}, fmt.Errorf("parsing id %q: %w", record[colID], err)
	}
	source, err := model.ParseSourceRef(record[colSource])
	if err != nil {
		return model.AuditEntry{}, err
	}
	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.AuditEntry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	payer, err := model.ParseParty(record[colPayer])
	if err != nil {
		return model.AuditEntry{}, err
	}
	category, err := model.ParseCategory(record[colCategory])
	if err != nil {
		return model.AuditEntry{}, err
	}
	confidence, err := strconv.ParseFloat(record[colConfidence], 64)
	if err != nil {
		return model.AuditEntry{}, fmt.Errorf("parsing confidence %q: %w", record[colConfidence], err)
	}

	entry := model.AuditEntry{
		Seq: seq,
		Transaction: model.Transaction{
			ID:          id,
			Source:      source,
			Date:        date,
			Payer:       payer,
			Description: record[colDesc],
			Category:    category,
			Confidence:  confidence,
		},
	}
	if record[colNotes] != "" {
		entry.Transaction.Notes = strings.Split(record[colNotes], noteSep)
	}

	amounts := []struct {
		name string
		col  int
	}{
		{"amount", colAmount},
		{"share_a", colShareA},
		{"share_b", colShareB},
		{"receivable_a", colReceivableA},
		{"payable_a", colPayableA},
		{"receivable_b", colReceivableB},
		{"payable_b", colPayableB},
	}
	for _, a := range amounts {
		d, err := money.Parse(record[a.col])
		if err != nil {
			return model.AuditEntry{}, fmt.Errorf("parsing %s %q: %w", a.name, record[a.col], err)
		}
		switch a.col {
		case colAmount:
			entry.Transaction.Amount = d
		case colShareA:
			entry.Transaction.Shares.PartyA = d
		case colShareB:
			entry.Transaction.Shares.PartyB = d
		case colReceivableA:
			entry.Balances.ReceivableA = d
		case colPayableA:
			entry.Balances.PayableA = d
		case colReceivableB:
			entry.Balances.ReceivableB = d
		case colPayableB:
			entry.Balances.PayableB = d
		}
	}
	return entry, nil
}

// WriteAuditCSV writes the audit trail with its header.
func WriteAuditCSV(w io.Writer, entries []model.AuditEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(AuditHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(MarshalAuditEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", e.Seq, err)
		}
	}
	return cw.Error()
}

// ReadAuditCSV reads an export produced by WriteAuditCSV.
func ReadAuditCSV(r io.Reader) ([]model.AuditEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = auditNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []model.AuditEntry
	for i, rec := range records[1:] {
		e, err := UnmarshalAuditEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReviewHeader is the CSV header for the pending-review export.
const ReviewHeader = "id,source,date,payer,description,amount,reasons"

// WritePendingCSV writes the open review items for an external review
// pass.
func WritePendingCSV(w io.Writer, items []model.ReviewItem) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(ReviewHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, it := range items {
		t := it.Transaction
		row := []string{
			t.ID.String(),
			t.Source.String(),
			t.Date.Format(dateFormat),
			t.Payer.String(),
			t.Description,
			t.Amount.StringFixed(money.Places),
			strings.Join(it.Reasons, noteSep),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing item %s: %w", t.ID, err)
		}
	}
	return cw.Error()
}
