// Package engine orchestrates the reconciliation pipeline: classify,
// split, validate, post, audit. Transactions that cannot be resolved
// confidently are diverted to the review queue; only a ledger
// invariant violation halts a run.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitbooks-dev/splitbooks/internal/classify"
	"github.com/splitbooks-dev/splitbooks/internal/ledger"
	"github.com/splitbooks-dev/splitbooks/internal/model"
	"github.com/splitbooks-dev/splitbooks/internal/review"
	"github.com/splitbooks-dev/splitbooks/internal/split"
)

// ErrHalted wraps every call made after an invariant violation stopped
// the engine.
var ErrHalted = errors.New("engine halted")

// Engine owns the only mutable state in the core: the ledger and the
// review queue. All methods serialize on one mutex so a host can read
// balances or resolve reviews while a batch is in flight elsewhere.
type Engine struct {
	mu         sync.Mutex
	classifier *classify.Classifier
	calc       *split.Calculator
	book       *ledger.Ledger
	queue      *review.Queue
	trail      []model.AuditEntry
	seq        int
	posted     int
	skipped    int
	halted     error
}

// New builds an engine over an empty book.
func New(c *classify.Classifier, calc *split.Calculator) *Engine {
	return &Engine{
		classifier: c,
		calc:       calc,
		book:       ledger.New(),
		queue:      review.NewQueue(),
	}
}

// Resume continues a book from persisted state: the last audit
// snapshot, the stored review items and the last audit sequence
// number. Every audit entry bumps the sequence by one, so lastSeq is
// also the posted count of the whole book.
func Resume(c *classify.Classifier, calc *split.Calculator, snap model.Snapshot, items []model.ReviewItem, lastSeq int) (*Engine, error) {
	book, err := ledger.NewFromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	q, err := review.Restore(items)
	if err != nil {
		return nil, err
	}
	return &Engine{
		classifier: c,
		calc:       calc,
		book:       book,
		queue:      q,
		seq:        lastSeq,
		posted:     lastSeq,
	}, nil
}

// Process runs the batch in strict chronological order, ties broken by
// batch position. Per-transaction problems divert to review and
// processing continues; an invariant violation aborts immediately and
// poisons the engine.
func (e *Engine) Process(batch []model.Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted != nil {
		return fmt.Errorf("%w: %v", ErrHalted, e.halted)
	}

	ordered := append([]model.Transaction(nil), batch...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	for _, tx := range ordered {
		if tx.ID == uuid.Nil {
			tx.ID = model.DeriveID(tx.Source, tx.Date, tx.Payer, tx.Amount, tx.Description)
		}
		if err := e.apply(tx); err != nil {
			e.halted = err
			return err
		}
	}
	return nil
}

func (e *Engine) apply(tx model.Transaction) error {
	res := e.classifier.Classify(tx.Description, tx.Payer)
	if res.ForceReview {
		e.divert(tx, res.Reason)
		return nil
	}

	tx.Category = res.Category
	tx.Confidence = res.Confidence
	tx = tx.WithNote(res.Reason)
	if res.Confidence < e.classifier.Threshold() {
		e.divert(tx, fmt.Sprintf("confidence %.2f below threshold %.2f (%s)",
			res.Confidence, e.classifier.Threshold(), res.Reason))
		return nil
	}

	shares, notes, err := e.calc.Compute(tx.Category, tx.Payer, tx.Amount, tx.Description)
	if err != nil {
		e.divert(tx, err.Error())
		return nil
	}
	tx.Shares = shares
	for _, n := range notes {
		tx = tx.WithNote(n)
	}
	if err := split.Validate(tx.Amount, shares); err != nil {
		e.divert(tx, err.Error())
		return nil
	}

	if err := e.post(tx.Category, tx.Payer, tx.Amount, shares); err != nil {
		if errors.Is(err, ledger.ErrInvariantViolation) {
			return fmt.Errorf("posting %s (%s): %w", tx.ID, tx.Source, err)
		}
		e.divert(tx, err.Error())
		return nil
	}
	e.appendAudit(tx)
	return nil
}

// post translates shares into the ledger mutation for the category.
// Personal and income rows touch no balance; their audit entries carry
// the unchanged snapshot.
func (e *Engine) post(cat model.Category, payer model.Party, amount decimal.Decimal, shares model.Shares) error {
	switch cat {
	case model.CategorySettlement:
		return e.book.Settle(payer, amount)
	case model.CategoryPersonal, model.CategoryIncome:
		return nil
	default:
		cross := shares.Of(payer.Other())
		if !cross.IsPositive() {
			return nil
		}
		return e.book.Post(payer.Other(), payer, cross)
	}
}

func (e *Engine) divert(tx model.Transaction, reason string) {
	flagged := tx.Flag(reason)
	e.queue.Add(flagged, flagged.ReviewReasons)
}

func (e *Engine) appendAudit(tx model.Transaction) model.AuditEntry {
	e.seq++
	entry := model.AuditEntry{Seq: e.seq, Transaction: tx, Balances: e.book.Snapshot()}
	e.trail = append(e.trail, entry)
	e.posted++
	return entry
}

// NoteSkipped counts rows the ingestion layer excluded for data
// quality, so the final report never hides them.
func (e *Engine) NoteSkipped(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skipped += n
}

// FinalBalance reports who owes whom alongside the exclusion counts.
// Unresolved review items are excluded from the balance and surfaced
// as a count and total instead.
func (e *Engine) FinalBalance() model.BalanceReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	owing, amount := e.book.Balance()
	rep := model.BalanceReport{
		Owing:   owing,
		Amount:  amount,
		Posted:  e.posted,
		Skipped: e.skipped,
	}
	for _, it := range e.queue.Pending() {
		rep.Deferred++
		rep.DeferredTotal = rep.DeferredTotal.Add(it.Transaction.Amount)
	}
	return rep
}

// AuditTrail returns the entries posted this session, in order.
func (e *Engine) AuditTrail() []model.AuditEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.AuditEntry(nil), e.trail...)
}

// PendingReview returns the open review items in arrival order.
func (e *Engine) PendingReview() []model.ReviewItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Pending()
}

// ReviewLog returns every review item, resolved ones included.
func (e *Engine) ReviewLog() []model.ReviewItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.All()
}

// Snapshot returns the current four balances.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Snapshot()
}

// LastSeq returns the sequence number of the most recent audit entry.
func (e *Engine) LastSeq() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// ResolveReview posts a reviewer's decision for an open item. The
// decision bypasses the classifier but still passes share validation
// and the normal posting path; the returned entry is the audit record
// it produced.
func (e *Engine) ResolveReview(id uuid.UUID, d model.ReviewDecision) (model.AuditEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted != nil {
		return model.AuditEntry{}, fmt.Errorf("%w: %v", ErrHalted, e.halted)
	}

	item, err := e.queue.Get(id)
	if err != nil {
		return model.AuditEntry{}, err
	}
	if item.Status != model.ReviewOpen {
		return model.AuditEntry{}, fmt.Errorf("%w: %s", review.ErrAlreadyResolved, id)
	}

	tx := item.Transaction
	if !d.Category.Valid() {
		return model.AuditEntry{}, fmt.Errorf("invalid category %q", d.Category)
	}
	if err := split.Validate(tx.Amount, d.Shares); err != nil {
		return model.AuditEntry{}, fmt.Errorf("decision shares: %w", err)
	}
	switch d.Category {
	case model.CategorySettlement, model.CategoryPersonal, model.CategoryIncome:
		if !d.Shares.Of(tx.Payer).Equal(tx.Amount) {
			return model.AuditEntry{}, fmt.Errorf("category %s requires the full amount on the payer's side", d.Category)
		}
	}

	if err := e.post(d.Category, tx.Payer, tx.Amount, d.Shares); err != nil {
		if errors.Is(err, ledger.ErrInvariantViolation) {
			e.halted = err
			return model.AuditEntry{}, err
		}
		return model.AuditEntry{}, err
	}

	tx.Category = d.Category
	tx.Shares = d.Shares
	tx.Confidence = 1
	tx.NeedsReview = false
	note := "resolved by " + d.ResolvedBy
	if d.Note != "" {
		note += ": " + d.Note
	}
	tx = tx.WithNote(note)

	if _, err := e.queue.Resolve(id, d); err != nil {
		return model.AuditEntry{}, err
	}
	return e.appendAudit(tx), nil
}
