// Package review holds transactions the engine refused to post. The
// queue is append-only: items are resolved in place with an explicit
// reviewer decision and are never silently defaulted or dropped.
package review

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/splitbooks-dev/splitbooks/internal/model"
)

var (
	// ErrNotFound means no queue item carries the given ID.
	ErrNotFound = errors.New("review item not found")
	// ErrAlreadyResolved rejects a second decision for the same item.
	ErrAlreadyResolved = errors.New("review item already resolved")
)

// Queue is not safe for concurrent use; the engine serializes access.
type Queue struct {
	items []model.ReviewItem
	index map[uuid.UUID]int
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{index: make(map[uuid.UUID]int)}
}

// Restore rebuilds a queue from persisted items, preserving their
// order.
func Restore(items []model.ReviewItem) (*Queue, error) {
	q := NewQueue()
	for _, it := range items {
		if _, dup := q.index[it.Transaction.ID]; dup {
			return nil, fmt.Errorf("duplicate review item %s", it.Transaction.ID)
		}
		q.index[it.Transaction.ID] = len(q.items)
		q.items = append(q.items, it)
	}
	return q, nil
}

// Add appends an open item for tx and returns it. The item ID is the
// transaction ID.
func (q *Queue) Add(tx model.Transaction, reasons []string) model.ReviewItem {
	item := model.ReviewItem{
		Transaction: tx,
		Reasons:     append([]string(nil), reasons...),
		Status:      model.ReviewOpen,
	}
	q.index[tx.ID] = len(q.items)
	q.items = append(q.items, item)
	return item
}

// Get returns the item with the given ID.
func (q *Queue) Get(id uuid.UUID) (model.ReviewItem, error) {
	i, ok := q.index[id]
	if !ok {
		return model.ReviewItem{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return q.items[i], nil
}

// Pending returns the open items in arrival order.
func (q *Queue) Pending() []model.ReviewItem {
	var out []model.ReviewItem
	for _, it := range q.items {
		if it.Status == model.ReviewOpen {
			out = append(out, it)
		}
	}
	return out
}

// All returns every item in arrival order, resolved ones included.
func (q *Queue) All() []model.ReviewItem {
	return append([]model.ReviewItem(nil), q.items...)
}

// Resolve records the reviewer's decision and returns the updated
// item. The caller is responsible for validating and posting the
// decision first.
func (q *Queue) Resolve(id uuid.UUID, d model.ReviewDecision) (model.ReviewItem, error) {
	i, ok := q.index[id]
	if !ok {
		return model.ReviewItem{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if q.items[i].Status != model.ReviewOpen {
		return model.ReviewItem{}, fmt.Errorf("%w: %s", ErrAlreadyResolved, id)
	}
	q.items[i].Status = model.ReviewResolved
	q.items[i].Decision = &d
	return q.items[i], nil
}
