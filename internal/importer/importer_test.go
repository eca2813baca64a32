package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitbooks-dev/splitbooks/internal/model"
)

func testRoster() model.Roster {
	return model.NewRoster("Ryan", "Jordyn", nil, nil)
}

const simpleCSV = `date,payer,description,amount
2025-01-01,Jordyn,January rent,"$2,100.00"
2025-01-04,Ryan,Groceries at Costco,100.00
2025-01-05,Somebody,Mystery row,25.00
2025-01-06,Ryan,Missing amount,
2025-01-07,Jordyn,Venmo to Ryan,500.00
`

func TestSimpleParser_Parse(t *testing.T) {
	p := &SimpleParser{Roster: testRoster()}
	txns, notes, err := p.Parse(strings.NewReader(simpleCSV), "shared.csv", model.PartyNone)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	require.Len(t, notes, 2)

	assert.Equal(t, model.PartyB, txns[0].Payer)
	assert.Equal(t, "January rent", txns[0].Description)
	assert.Equal(t, "2100.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, model.SourceRef{File: "shared.csv", Row: 2}, txns[0].Source)

	assert.Equal(t, model.PartyA, txns[1].Payer)
	assert.Equal(t, "100.00", txns[1].Amount.StringFixed(2))

	assert.Equal(t, "payer", notes[0].Field)
	assert.Equal(t, 4, notes[0].Row)
	assert.Equal(t, "amount", notes[1].Field)
	assert.Equal(t, 5, notes[1].Row)
}

func TestSimpleParser_RejectsNonPositiveAmount(t *testing.T) {
	csv := "date,payer,description,amount\n2025-01-01,Ryan,Refund,-5.00\n"
	p := &SimpleParser{Roster: testRoster()}
	txns, notes, err := p.Parse(strings.NewReader(csv), "shared.csv", model.PartyNone)
	require.NoError(t, err)
	assert.Empty(t, txns)
	require.Len(t, notes, 1)
	assert.Equal(t, "amount", notes[0].Field)
}

func TestSimpleParser_EmptyFile(t *testing.T) {
	p := &SimpleParser{Roster: testRoster()}
	txns, notes, err := p.Parse(strings.NewReader("date,payer,description,amount\n"), "shared.csv", model.PartyNone)
	require.NoError(t, err)
	assert.Nil(t, txns)
	assert.Nil(t, notes)
}

const chaseCSV = `Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
DEBIT,01/03/2025,TRADER JOES #512,-84.12,DEBIT_CARD,1000.00,
DEBIT,NOTADATE,BAD ROW,-4.00,DEBIT_CARD,996.00,
CREDIT,01/10/2025,PAYROLL ACME CORP,3500.00,ACH_CREDIT,4496.00,
DEBIT,01/12/2025,CITY ELECTRIC UTILITY,-120.40,ACH_DEBIT,4375.60,
`

func TestChaseParser_Parse(t *testing.T) {
	p := &ChaseParser{}
	txns, notes, err := p.Parse(strings.NewReader(chaseCSV), "ryan-checking.csv", model.PartyA)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	require.Len(t, notes, 1)

	// Debits are normalized to positive costs.
	assert.Equal(t, "84.12", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "TRADER JOES #512", txns[0].Description)
	assert.Equal(t, model.PartyA, txns[0].Payer)

	assert.Equal(t, "3500.00", txns[1].Amount.StringFixed(2))

	assert.Equal(t, "date", notes[0].Field)
	assert.Equal(t, 3, notes[0].Row)
}

func TestChaseParser_RequiresPayer(t *testing.T) {
	p := &ChaseParser{}
	_, _, err := p.Parse(strings.NewReader(chaseCSV), "ryan-checking.csv", model.PartyNone)
	assert.Error(t, err)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	assert.Panics(t, func() { r.Register(&ChaseParser{}) })
}

func TestRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry(testRoster())
	assert.NotNil(t, r.Get("simple"))
	assert.NotNil(t, r.Get("CHASE"))
	assert.Nil(t, r.Get("ofx"))
}

func TestLoadSources_MergesChronologically(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "imports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "imports", "shared.csv"), []byte(simpleCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "imports", "ryan.csv"), []byte(chaseCSV), 0o644))

	batch, notes, err := LoadSources(dir, DefaultRegistry(testRoster()), []Source{
		{Path: "imports/shared.csv", Format: "simple"},
		{Path: "imports/ryan.csv", Format: "chase", Payer: model.PartyA},
	})
	require.NoError(t, err)
	require.Len(t, batch, 6)
	require.Len(t, notes, 3)

	for i := 1; i < len(batch); i++ {
		assert.False(t, batch[i].Date.Before(batch[i-1].Date),
			"batch out of order at %d", i)
	}
	assert.Equal(t, "January rent", batch[0].Description)
	assert.Equal(t, "CITY ELECTRIC UTILITY", batch[5].Description)
}

func TestLoadSources_StableIDs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "imports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "imports", "shared.csv"), []byte(simpleCSV), 0o644))

	sources := []Source{{Path: "imports/shared.csv", Format: "simple"}}
	first, _, err := LoadSources(dir, DefaultRegistry(testRoster()), sources)
	require.NoError(t, err)
	second, _, err := LoadSources(dir, DefaultRegistry(testRoster()), sources)
	require.NoError(t, err)

	require.Len(t, first, 3)
	for i := range first {
		assert.NotEqual(t, uuid.Nil, first[i].ID)
		assert.Equal(t, first[i].ID, second[i].ID, "row %d", i)
	}
}

func TestLoadSources_UnknownFormat(t *testing.T) {
	_, _, err := LoadSources(t.TempDir(), DefaultRegistry(testRoster()), []Source{
		{Path: "x.csv", Format: "ofx"},
	})
	assert.Error(t, err)
}

func TestLoadSources_MissingFile(t *testing.T) {
	_, _, err := LoadSources(t.TempDir(), DefaultRegistry(testRoster()), []Source{
		{Path: "imports/nope.csv", Format: "simple"},
	})
	assert.Error(t, err)
}
