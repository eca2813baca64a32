package review

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitbooks-dev/splitbooks/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testTx(desc string) model.Transaction {
	return model.Transaction{
		ID:          uuid.New(),
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Payer:       model.PartyA,
		Description: desc,
		Amount:      dec("25.00"),
	}
}

func TestAddAndPending_ArrivalOrder(t *testing.T) {
	q := NewQueue()
	first := q.Add(testTx("first ??"), []string{"needs human judgment"})
	second := q.Add(testTx("second ??"), []string{"needs human judgment"})

	pending := q.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, first.Transaction.ID, pending[0].Transaction.ID)
	assert.Equal(t, second.Transaction.ID, pending[1].Transaction.ID)
	assert.Equal(t, model.ReviewOpen, pending[0].Status)
}

func TestResolve(t *testing.T) {
	q := NewQueue()
	item := q.Add(testTx("venmo??"), []string{"ambiguous"})

	decision := model.ReviewDecision{
		Category:   model.CategorySettlement,
		Shares:     model.Shares{PartyA: dec("25.00")},
		Note:       "confirmed with Ryan",
		ResolvedBy: "jordyn",
		ResolvedAt: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
	}
	resolved, err := q.Resolve(item.Transaction.ID, decision)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewResolved, resolved.Status)
	require.NotNil(t, resolved.Decision)
	assert.Equal(t, model.CategorySettlement, resolved.Decision.Category)

	assert.Empty(t, q.Pending())
	assert.Len(t, q.All(), 1, "resolved items stay in the log")
}

func TestResolve_Twice(t *testing.T) {
	q := NewQueue()
	item := q.Add(testTx("x"), []string{"r"})

	_, err := q.Resolve(item.Transaction.ID, model.ReviewDecision{Category: model.CategoryPersonal})
	require.NoError(t, err)

	_, err = q.Resolve(item.Transaction.ID, model.ReviewDecision{Category: model.CategoryShared})
	require.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestResolve_Unknown(t *testing.T) {
	q := NewQueue()
	_, err := q.Resolve(uuid.New(), model.ReviewDecision{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGet(t *testing.T) {
	q := NewQueue()
	item := q.Add(testTx("x"), []string{"r"})

	got, err := q.Get(item.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Transaction.ID, got.Transaction.ID)

	_, err = q.Get(uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRestore(t *testing.T) {
	q := NewQueue()
	a := q.Add(testTx("a"), []string{"r1"})
	q.Add(testTx("b"), []string{"r2"})

	restored, err := Restore(q.All())
	require.NoError(t, err)
	pending := restored.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, a.Transaction.ID, pending[0].Transaction.ID)

	_, err = Restore([]model.ReviewItem{
		{Transaction: a.Transaction},
		{Transaction: a.Transaction},
	})
	assert.Error(t, err, "duplicate IDs rejected")
}
