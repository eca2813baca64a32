// Package quality keeps the data-quality log: an append-only CSV of
// every source row the ingestion layer excluded, so a skipped record
// is always visible and never silently defaulted.
package quality

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Note is one excluded row: where it came from, which field failed and
// why.
type Note struct {
	Timestamp time.Time
	File      string
	Row       int
	Field     string
	Reason    string
}

// Header is the CSV header for quality-log.csv.
const Header = "timestamp,file,row,field,reason"

const (
	numFields    = 5
	logDir       = "logs"
	logFile      = "logs/quality-log.csv"
	colTimestamp = 0
	colFile      = 1
	colRow       = 2
	colField     = 3
	colReason    = 4
)

// MarshalNote converts a Note to a CSV row.
func MarshalNote(n Note) []string {
	row := make([]string, numFields)
	row[colTimestamp] = n.Timestamp.Format(time.RFC3339)
	row[colFile] = n.File
	row[colRow] = strconv.Itoa(n.Row)
	row[colField] = n.Field
	row[colReason] = n.Reason
	return row
}

// UnmarshalNote converts a CSV row to a Note.
func UnmarshalNote(record []string) (Note, error) {
	if len(record) != numFields {
		return Note{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Note{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	row, err := strconv.Atoi(record[colRow])
	if err != nil {
		return Note{}, fmt.Errorf("parsing row %q: %w", record[colRow], err)
	}

	return Note{
		Timestamp: ts,
		File:      record[colFile],
		Row:       row,
		Field:     record[colField],
		Reason:    record[colReason],
	}, nil
}

// Append writes notes to <root>/logs/quality-log.csv, creating the
// file and header if needed. Notes without a timestamp are stamped
// with the current time.
func Append(root string, notes []Note) error {
	if len(notes) == 0 {
		return nil
	}

	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening quality log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	now := time.Now().UTC()
	for i, n := range notes {
		if n.Timestamp.IsZero() {
			n.Timestamp = now
		}
		if err := cw.Write(MarshalNote(n)); err != nil {
			return fmt.Errorf("writing note %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all notes from <root>/logs/quality-log.csv. Returns an
// empty slice if the file does not exist.
func Read(root string) ([]Note, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening quality log: %w", err)
	}
	defer f.Close()

	return readNotes(f)
}

func readNotes(r io.Reader) ([]Note, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading quality log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var notes []Note
	for i, rec := range records[1:] {
		n, err := UnmarshalNote(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}
