// Package importer turns source CSV files into the ordered transaction
// batch the engine consumes. Rows with a malformed amount, date or
// payer are skipped with a data-quality note, never defaulted.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/quality"
)

// Parser converts one source file into transactions. file is the name
// recorded in each transaction's provenance; payer is the account
// owner for single-owner formats and PartyNone for formats that carry
// a payer column.
type Parser interface {
	Parse(r io.Reader, file string, payer model.Party) ([]model.Transaction, []quality.Note, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers. The
// roster resolves payer columns in formats that have one.
func DefaultRegistry(roster model.Roster) *Registry {
	r := NewRegistry()
	r.Register(&SimpleParser{Roster: roster})
	r.Register(&ChaseParser{})
	return r
}

// Source is one configured file to ingest.
type Source struct {
	Path   string
	Format string
	// Payer is the account owner for single-owner formats; PartyNone
	// for formats with a payer column.
	Payer model.Party
}

// LoadSources reads every source under root and returns the merged
// batch in chronological order, ties kept in source-then-row order so
// a re-run is byte-for-byte identical. Each transaction gets its
// deterministic ID here, so callers can match a batch against rows
// already booked. Unreadable rows come back as quality notes; an
// unreadable file or unknown format is an error.
func LoadSources(root string, registry *Registry, sources []Source) ([]model.Transaction, []quality.Note, error) {
	var batch []model.Transaction
	var notes []quality.Note

	for _, src := range sources {
		p := registry.Get(src.Format)
		if p == nil {
			return nil, nil, fmt.Errorf("source %s: unknown format %q", src.Path, src.Format)
		}

		f, err := os.Open(filepath.Join(root, src.Path))
		if err != nil {
			return nil, nil, fmt.Errorf("opening source: %w", err)
		}
		txns, ns, err := p.Parse(f, src.Path, src.Payer)
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("parsing %s: %w", src.Path, err)
		}
		for i := range txns {
			t := &txns[i]
			t.ID = model.DeriveID(t.Source, t.Date, t.Payer, t.Amount, t.Description)
		}
		batch = append(batch, txns...)
		notes = append(notes, ns...)
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Date.Before(batch[j].Date)
	})
	return batch, notes, nil
}
