package split

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitbooks-dev/splitbooks/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testPolicy() Policy {
	return Policy{
		Roster:     model.NewRoster("Jordyn", "Ryan", nil, nil),
		RentShareA: dec("43"),
		RentShareB: dec("57"),
		RentTotal:  dec("2100"),
		Tolerance:  dec("0.02"),
		Reimburse:  []string{"reimburse", "reimbursement", "pay me back"},
		Gift:       []string{"gift", "present", "bday"},
		Exclusion:  []string{"minus", "excluding", "less"},
	}
}

func testCalculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := New(testPolicy())
	require.NoError(t, err)
	return c
}

func TestRent_Reconstruction(t *testing.T) {
	c := testCalculator(t)

	shares, notes, err := c.Compute(model.CategoryRent, model.PartyA, dec("2100"), "March rent")
	require.NoError(t, err)
	assert.True(t, dec("903.00").Equal(shares.PartyA), "got %s", shares.PartyA)
	assert.True(t, dec("1197.00").Equal(shares.PartyB), "got %s", shares.PartyB)
	assert.True(t, dec("2100").Equal(shares.Total()))
	assert.Contains(t, notes[0], "rent split 43/57")
}

func TestRent_EnvelopeMismatch(t *testing.T) {
	c := testCalculator(t)

	_, _, err := c.Compute(model.CategoryRent, model.PartyA, dec("2150"), "rent plus parking")
	require.ErrorIs(t, err, ErrNeedsReview)
	assert.Contains(t, err.Error(), "configured total")
}

func TestRent_EnvelopeDisabled(t *testing.T) {
	p := testPolicy()
	p.RentTotal = decimal.Zero
	c, err := New(p)
	require.NoError(t, err)

	shares, _, err := c.Compute(model.CategoryRent, model.PartyA, dec("1000"), "rent")
	require.NoError(t, err)
	assert.True(t, dec("430.00").Equal(shares.PartyA))
	assert.True(t, dec("570.00").Equal(shares.PartyB))
}

func TestRent_ResidueToPayer(t *testing.T) {
	p := testPolicy()
	p.RentTotal = decimal.Zero
	c, err := New(p)
	require.NoError(t, err)

	// 43% of 0.50 = 0.215 -> 0.22; 57% = 0.285 -> 0.29; both round up.
	shares, notes, err := c.Compute(model.CategoryRent, model.PartyB, dec("0.50"), "rent share")
	require.NoError(t, err)
	assert.True(t, dec("0.22").Equal(shares.PartyA), "got %s", shares.PartyA)
	assert.True(t, dec("0.28").Equal(shares.PartyB), "payer absorbs the residue, got %s", shares.PartyB)
	assert.True(t, dec("0.50").Equal(shares.Total()))
	assert.Contains(t, notes[1], "residue")
}

func TestRent_ZeroToleranceFlagsResidue(t *testing.T) {
	p := testPolicy()
	p.RentTotal = decimal.Zero
	p.Tolerance = decimal.Zero
	c, err := New(p)
	require.NoError(t, err)

	_, _, err = c.Compute(model.CategoryRent, model.PartyA, dec("0.50"), "rent share")
	require.ErrorIs(t, err, ErrNeedsReview)
	assert.Contains(t, err.Error(), "reconstruct")
}

func TestSettlement_FullToPayer(t *testing.T) {
	c := testCalculator(t)

	shares, _, err := c.Compute(model.CategorySettlement, model.PartyA, dec("500"), "venmo to ryan")
	require.NoError(t, err)
	assert.True(t, dec("500").Equal(shares.PartyA))
	assert.True(t, shares.PartyB.IsZero())
}

func TestPersonalAndIncome_NoCrossShare(t *testing.T) {
	c := testCalculator(t)

	for _, cat := range []model.Category{model.CategoryPersonal, model.CategoryIncome} {
		shares, _, err := c.Compute(cat, model.PartyB, dec("75.00"), "whatever")
		require.NoError(t, err)
		assert.True(t, shares.PartyA.IsZero(), string(cat))
		assert.True(t, dec("75.00").Equal(shares.PartyB), string(cat))
	}
}

func TestShared_EvenSplit(t *testing.T) {
	c := testCalculator(t)

	shares, notes, err := c.Compute(model.CategoryShared, model.PartyB, dec("100.00"), "groceries")
	require.NoError(t, err)
	assert.True(t, dec("50.00").Equal(shares.PartyA))
	assert.True(t, dec("50.00").Equal(shares.PartyB))
	assert.Equal(t, []string{"shared 50/50"}, notes)
}

func TestShared_RoundingConservation(t *testing.T) {
	c := testCalculator(t)

	shares, _, err := c.Compute(model.CategoryShared, model.PartyA, dec("100.01"), "dinner")
	require.NoError(t, err)
	assert.True(t, dec("50.00").Equal(shares.PartyA), "payer side, got %s", shares.PartyA)
	assert.True(t, dec("50.01").Equal(shares.PartyB), "got %s", shares.PartyB)
	assert.True(t, dec("100.01").Equal(shares.Total()), "never 100.00 or 100.02")
}

func TestShared_ReimbursementOverride(t *testing.T) {
	c := testCalculator(t)

	shares, notes, err := c.Compute(model.CategoryShared, model.PartyA, dec("60.00"), "urgent care, ryan will reimburse")
	require.NoError(t, err)
	assert.True(t, shares.PartyA.IsZero())
	assert.True(t, dec("60.00").Equal(shares.PartyB))
	assert.Contains(t, notes[0], "full reimbursement owed by Ryan")
}

func TestShared_PercentOverride(t *testing.T) {
	c := testCalculator(t)

	shares, notes, err := c.Compute(model.CategoryShared, model.PartyA, dec("100.00"), "utilities 70% ryan")
	require.NoError(t, err)
	assert.True(t, dec("30.00").Equal(shares.PartyA))
	assert.True(t, dec("70.00").Equal(shares.PartyB))
	assert.Contains(t, notes[0], "70% to Ryan")
}

func TestShared_PercentOverrideResidue(t *testing.T) {
	c := testCalculator(t)

	// 43% of 0.50 rounds to 0.22 and 57% to 0.29; the payer absorbs -0.01.
	shares, _, err := c.Compute(model.CategoryShared, model.PartyB, dec("0.50"), "43% jordyn")
	require.NoError(t, err)
	assert.True(t, dec("0.22").Equal(shares.PartyA), "got %s", shares.PartyA)
	assert.True(t, dec("0.28").Equal(shares.PartyB), "got %s", shares.PartyB)
	assert.True(t, dec("0.50").Equal(shares.Total()))
}

func TestShared_PercentNamesNoParty(t *testing.T) {
	c := testCalculator(t)

	_, _, err := c.Compute(model.CategoryShared, model.PartyA, dec("100.00"), "50% off sale")
	require.ErrorIs(t, err, ErrNeedsReview)
}

func TestShared_GiftForOtherParty(t *testing.T) {
	c := testCalculator(t)

	// Jordyn buys Ryan's gift: her cost alone.
	shares, notes, err := c.Compute(model.CategoryShared, model.PartyA, dec("80.00"), "birthday gift for ryan")
	require.NoError(t, err)
	assert.True(t, dec("80.00").Equal(shares.PartyA))
	assert.True(t, shares.PartyB.IsZero())
	assert.Contains(t, notes[0], "gift for Ryan, Jordyn pays in full")
}

func TestShared_GiftForPayer(t *testing.T) {
	c := testCalculator(t)

	// Ryan bought his own gift; Jordyn is the giver and owes him.
	shares, _, err := c.Compute(model.CategoryShared, model.PartyB, dec("80.00"), "gift for ryan (he picked it up)")
	require.NoError(t, err)
	assert.True(t, dec("80.00").Equal(shares.PartyA))
	assert.True(t, shares.PartyB.IsZero())
}

func TestShared_GiftNamesNoParty(t *testing.T) {
	c := testCalculator(t)

	_, _, err := c.Compute(model.CategoryShared, model.PartyA, dec("40.00"), "wedding gift for sam")
	require.ErrorIs(t, err, ErrNeedsReview)
}

func TestShared_ExclusionOverride(t *testing.T) {
	c := testCalculator(t)

	shares, notes, err := c.Compute(model.CategoryShared, model.PartyB, dec("100.00"), "groceries minus $20 dog food")
	require.NoError(t, err)
	assert.True(t, dec("40.00").Equal(shares.PartyA))
	assert.True(t, dec("60.00").Equal(shares.PartyB), "payer keeps the excluded part, got %s", shares.PartyB)
	assert.True(t, dec("100.00").Equal(shares.Total()))
	assert.Contains(t, notes[0], "excluded 20")
}

func TestShared_ExclusionWithoutAmount(t *testing.T) {
	c := testCalculator(t)

	_, _, err := c.Compute(model.CategoryShared, model.PartyA, dec("100.00"), "groceries minus the stuff for me")
	require.ErrorIs(t, err, ErrNeedsReview)
	assert.Contains(t, err.Error(), "parsable amount")
}

func TestShared_ExclusionExceedsAmount(t *testing.T) {
	c := testCalculator(t)

	_, _, err := c.Compute(model.CategoryShared, model.PartyA, dec("15.00"), "minus $20")
	require.ErrorIs(t, err, ErrNeedsReview)
}

func TestShared_MultipleOverridesFlagged(t *testing.T) {
	c := testCalculator(t)

	_, _, err := c.Compute(model.CategoryShared, model.PartyA, dec("100.00"), "gift for ryan minus $20")
	require.ErrorIs(t, err, ErrNeedsReview)
	assert.Contains(t, err.Error(), "multiple override patterns")

	_, _, err = c.Compute(model.CategoryShared, model.PartyA, dec("100.00"), "30% jordyn 70% ryan")
	require.ErrorIs(t, err, ErrNeedsReview)
}

func TestShared_ArithmeticFlagged(t *testing.T) {
	c := testCalculator(t)

	for _, desc := range []string{"coffee 4.50+3.25", "parking 2x $15", "x2 movie tickets"} {
		_, _, err := c.Compute(model.CategoryShared, model.PartyA, dec("20.00"), desc)
		require.ErrorIs(t, err, ErrNeedsReview, desc)
	}
}

func TestCompute_RejectsBadInput(t *testing.T) {
	c := testCalculator(t)

	_, _, err := c.Compute(model.CategoryShared, model.PartyNone, dec("10.00"), "x")
	require.ErrorIs(t, err, ErrNeedsReview)

	_, _, err = c.Compute(model.CategoryShared, model.PartyA, decimal.Zero, "x")
	require.ErrorIs(t, err, ErrNeedsReview)

	_, _, err = c.Compute(model.CategoryShared, model.PartyA, dec("-5.00"), "x")
	require.ErrorIs(t, err, ErrNeedsReview)

	_, _, err = c.Compute(model.Category("misc"), model.PartyA, dec("5.00"), "x")
	require.ErrorIs(t, err, ErrNeedsReview)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(dec("100.00"), model.Shares{PartyA: dec("50.00"), PartyB: dec("50.00")}))

	err := Validate(dec("100.00"), model.Shares{PartyA: dec("50.00"), PartyB: dec("49.00")})
	assert.Error(t, err, "sum mismatch")

	err = Validate(dec("100.00"), model.Shares{PartyA: dec("150.00"), PartyB: dec("-50.00")})
	assert.Error(t, err, "negative share")

	err = Validate(dec("0.01"), model.Shares{PartyA: dec("0.005"), PartyB: dec("0.005")})
	assert.Error(t, err, "sub-cent shares")
}

func TestNew_RejectsBadPolicy(t *testing.T) {
	p := testPolicy()
	p.RentShareA = dec("43")
	p.RentShareB = dec("56")
	_, err := New(p)
	assert.Error(t, err, "shares not summing to 100")

	p = testPolicy()
	p.RentShareA = dec("-10")
	p.RentShareB = dec("110")
	_, err = New(p)
	assert.Error(t, err, "negative share")

	p = testPolicy()
	p.Tolerance = dec("-0.01")
	_, err = New(p)
	assert.Error(t, err, "negative tolerance")
}
