package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/money"
)

// ErrNotFound means the store holds no row with the given ID.
var ErrNotFound = errors.New("not found in store")

const (
	dateFormat = "2006-01-02"
	listSep    = "\n"
)

// Store manages the SQLite database behind a reconciliation workspace.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (and if needed creates) the database, enabling WAL mode
// and foreign keys, and initializes the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// transaction runs fn inside a transaction, rolling back on error.
func (s *Store) transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveRun persists a processing session atomically: the audit entries
// it produced and the review items it opened. Already-stored rows
// (same transaction ID) are left untouched, so re-running a batch
// containing previously processed sources is harmless.
func (s *Store) SaveRun(entries []model.AuditEntry, items []model.ReviewItem) error {
	return s.transaction(func(tx *sql.Tx) error {
		for _, e := range entries {
			if err := insertAuditEntry(tx, e); err != nil {
				return err
			}
		}
		for _, it := range items {
			if err := insertReviewItem(tx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertAuditEntry(tx *sql.Tx, e model.AuditEntry) error {
	t := e.Transaction
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO audit_entries
		(seq, tx_id, source, date, payer, description, amount, category, confidence,
		 share_a, share_b, receivable_a, payable_a, receivable_b, payable_b, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Seq, t.ID.String(), t.Source.String(), t.Date.Format(dateFormat),
		t.Payer.String(), t.Description, t.Amount.StringFixed(money.Places),
		string(t.Category), t.Confidence,
		t.Shares.PartyA.StringFixed(money.Places), t.Shares.PartyB.StringFixed(money.Places),
		e.Balances.ReceivableA.StringFixed(money.Places), e.Balances.PayableA.StringFixed(money.Places),
		e.Balances.ReceivableB.StringFixed(money.Places), e.Balances.PayableB.StringFixed(money.Places),
		strings.Join(t.Notes, listSep),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry %d: %w", e.Seq, err)
	}
	return nil
}

func insertReviewItem(tx *sql.Tx, it model.ReviewItem) error {
	t := it.Transaction
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO review_items
		(tx_id, source, date, payer, description, amount, category, reasons, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.Source.String(), t.Date.Format(dateFormat),
		t.Payer.String(), t.Description, t.Amount.StringFixed(money.Places),
		string(t.Category), strings.Join(it.Reasons, listSep), string(it.Status),
	)
	if err != nil {
		return fmt.Errorf("inserting review item %s: %w", t.ID, err)
	}
	return nil
}

// AuditTrail returns every stored audit entry in posting order.
func (s *Store) AuditTrail() ([]model.AuditEntry, error) {
	rows, err := s.db.Query(`
		SELECT seq, tx_id, source, date, payer, description, amount, category,
		       confidence, share_a, share_b, receivable_a, payable_a, receivable_b,
		       payable_b, notes
		FROM audit_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanAuditEntry(rows *sql.Rows) (model.AuditEntry, error) {
	var (
		e                                  model.AuditEntry
		id, source, date, payer, category  string
		amount, shareA, shareB             string
		recvA, payA, recvB, payB, notes    string
	)
	if err := rows.Scan(&e.Seq, &id, &source, &date, &payer,
		&e.Transaction.Description, &amount, &category, &e.Transaction.Confidence,
		&shareA, &shareB, &recvA, &payA, &recvB, &payB, &notes); err != nil {
		return model.AuditEntry{}, fmt.Errorf("scanning audit entry: %w", err)
	}

	tx, err := scanTransaction(id, source, date, payer, amount, category)
	if err != nil {
		return model.AuditEntry{}, err
	}
	tx.Description = e.Transaction.Description
	tx.Confidence = e.Transaction.Confidence
	if notes != "" {
		tx.Notes = strings.Split(notes, listSep)
	}

	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{shareA, &tx.Shares.PartyA},
		{shareB, &tx.Shares.PartyB},
		{recvA, &e.Balances.ReceivableA},
		{payA, &e.Balances.PayableA},
		{recvB, &e.Balances.ReceivableB},
		{payB, &e.Balances.PayableB},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return model.AuditEntry{}, fmt.Errorf("decoding stored amount %q: %w", f.raw, err)
		}
		*f.dst = d
	}

	e.Transaction = tx
	return e, nil
}

func scanTransaction(id, source, date, payer, amount, category string) (model.Transaction, error) {
	var tx model.Transaction
	var err error

	if tx.ID, err = uuid.Parse(id); err != nil {
		return model.Transaction{}, fmt.Errorf("decoding stored id %q: %w", id, err)
	}
	if tx.Source, err = model.ParseSourceRef(source); err != nil {
		return model.Transaction{}, err
	}
	if tx.Date, err = time.Parse(dateFormat, date); err != nil {
		return model.Transaction{}, fmt.Errorf("decoding stored date %q: %w", date, err)
	}
	if tx.Payer, err = model.ParseParty(payer); err != nil {
		return model.Transaction{}, err
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.Transaction{}, fmt.Errorf("decoding stored amount %q: %w", amount, err)
	}
	if category != "" {
		if tx.Category, err = model.ParseCategory(category); err != nil {
			return model.Transaction{}, err
		}
	}
	return tx, nil
}

// KnownIDs returns every transaction ID the store has seen, whether it
// was posted or held for review (open or resolved). Ingestion uses the
// set to skip rows already booked by an earlier run.
func (s *Store) KnownIDs() (map[uuid.UUID]bool, error) {
	rows, err := s.db.Query(`
		SELECT tx_id FROM audit_entries
		UNION
		SELECT tx_id FROM review_items`)
	if err != nil {
		return nil, fmt.Errorf("querying known ids: %w", err)
	}
	defer rows.Close()

	known := make(map[uuid.UUID]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning known id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding stored id %q: %w", raw, err)
		}
		known[id] = true
	}
	return known, rows.Err()
}

// LatestSnapshot returns the four balances after the last posted
// entry and that entry's sequence number. An empty store yields a
// square book at sequence zero.
func (s *Store) LatestSnapshot() (model.Snapshot, int, error) {
	row := s.db.QueryRow(`
		SELECT seq, receivable_a, payable_a, receivable_b, payable_b
		FROM audit_entries ORDER BY seq DESC LIMIT 1`)

	var seq int
	var recvA, payA, recvB, payB string
	err := row.Scan(&seq, &recvA, &payA, &recvB, &payB)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, 0, nil
	}
	if err != nil {
		return model.Snapshot{}, 0, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var snap model.Snapshot
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{recvA, &snap.ReceivableA},
		{payA, &snap.PayableA},
		{recvB, &snap.ReceivableB},
		{payB, &snap.PayableB},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return model.Snapshot{}, 0, fmt.Errorf("decoding stored balance %q: %w", f.raw, err)
		}
		*f.dst = d
	}
	return snap, seq, nil
}

const reviewColumns = `tx_id, source, date, payer, description, amount, category,
	reasons, status, resolved_category, resolved_share_a, resolved_share_b,
	resolved_by, resolved_at, resolution_note`

// PendingReviews returns the open review items in insertion order.
func (s *Store) PendingReviews() ([]model.ReviewItem, error) {
	return s.queryReviews(`SELECT ` + reviewColumns + `
		FROM review_items WHERE status = 'open' ORDER BY rowid`)
}

// ReviewItems returns every review item, resolved ones included.
func (s *Store) ReviewItems() ([]model.ReviewItem, error) {
	return s.queryReviews(`SELECT ` + reviewColumns + ` FROM review_items ORDER BY rowid`)
}

func (s *Store) queryReviews(query string) ([]model.ReviewItem, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying review items: %w", err)
	}
	defer rows.Close()

	var items []model.ReviewItem
	for rows.Next() {
		it, err := scanReviewItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanReviewItem(rows *sql.Rows) (model.ReviewItem, error) {
	var (
		id, source, date, payer, desc, amount string
		category, reasons, status             string
		resCat, resA, resB, resBy, resAt, resNote sql.NullString
	)
	if err := rows.Scan(&id, &source, &date, &payer, &desc, &amount, &category,
		&reasons, &status, &resCat, &resA, &resB, &resBy, &resAt, &resNote); err != nil {
		return model.ReviewItem{}, fmt.Errorf("scanning review item: %w", err)
	}

	tx, err := scanTransaction(id, source, date, payer, amount, category)
	if err != nil {
		return model.ReviewItem{}, err
	}
	tx.Description = desc
	tx.NeedsReview = status == string(model.ReviewOpen)

	item := model.ReviewItem{
		Transaction: tx,
		Status:      model.ReviewStatus(status),
	}
	if reasons != "" {
		item.Reasons = strings.Split(reasons, listSep)
		item.Transaction.ReviewReasons = item.Reasons
	}

	if item.Status == model.ReviewResolved && resCat.Valid {
		d := &model.ReviewDecision{
			Note:       resNote.String,
			ResolvedBy: resBy.String,
		}
		if d.Category, err = model.ParseCategory(resCat.String); err != nil {
			return model.ReviewItem{}, err
		}
		if d.Shares.PartyA, err = decimal.NewFromString(resA.String); err != nil {
			return model.ReviewItem{}, fmt.Errorf("decoding resolved share %q: %w", resA.String, err)
		}
		if d.Shares.PartyB, err = decimal.NewFromString(resB.String); err != nil {
			return model.ReviewItem{}, fmt.Errorf("decoding resolved share %q: %w", resB.String, err)
		}
		if resAt.Valid && resAt.String != "" {
			if d.ResolvedAt, err = time.Parse(time.RFC3339, resAt.String); err != nil {
				return model.ReviewItem{}, fmt.Errorf("decoding resolved_at %q: %w", resAt.String, err)
			}
		}
		item.Decision = d
	}
	return item, nil
}

// MarkResolved records a reviewer decision and the audit entry the
// re-posting produced, in one transaction. The caller (the engine)
// has already validated and posted the decision.
func (s *Store) MarkResolved(item model.ReviewItem, entry model.AuditEntry) error {
	if item.Decision == nil {
		return fmt.Errorf("review item %s has no decision", item.Transaction.ID)
	}
	return s.transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE review_items
			SET status = ?, resolved_category = ?, resolved_share_a = ?,
			    resolved_share_b = ?, resolved_by = ?, resolved_at = ?,
			    resolution_note = ?
			WHERE tx_id = ? AND status = 'open'`,
			string(model.ReviewResolved), string(item.Decision.Category),
			item.Decision.Shares.PartyA.StringFixed(money.Places),
			item.Decision.Shares.PartyB.StringFixed(money.Places),
			item.Decision.ResolvedBy, item.Decision.ResolvedAt.Format(time.RFC3339),
			item.Decision.Note, item.Transaction.ID.String(),
		)
		if err != nil {
			return fmt.Errorf("updating review item %s: %w", item.Transaction.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: open review item %s", ErrNotFound, item.Transaction.ID)
		}
		return insertAuditEntry(tx, entry)
	})
}
