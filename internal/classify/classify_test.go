package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitbooks-dev/splitbooks/internal/model"
)

func testRules() []Rule {
	return []Rule{
		{Category: model.CategoryRent, Keywords: []string{"rent"}, Base: 0.95},
		{Category: model.CategoryRent, Keywords: []string{"landlord", "lease"}, Base: 0.9},
		{Category: model.CategorySettlement, Keywords: []string{"venmo"}, Base: 0.9},
		{Category: model.CategorySettlement, Keywords: []string{"zelle"}, Base: 0.9},
		{Category: model.CategoryPersonal, Keywords: []string{"haircut"}, Base: 0.85},
		{Category: model.CategoryIncome, Keywords: []string{"payroll"}, Base: 0.9},
		{Category: model.CategoryShared, Keywords: []string{"groceries"}, Base: 0.9},
	}
}

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(testRules(), []string{"??", "tbd", "2x", "x2"}, 0.80, 0.85)
	require.NoError(t, err)
	return c
}

func TestClassify_FullSetMatch(t *testing.T) {
	c := testClassifier(t)

	r := c.Classify("March rent payment", model.PartyA)
	assert.Equal(t, model.CategoryRent, r.Category)
	assert.InDelta(t, 0.95, r.Confidence, 1e-9)
	assert.Equal(t, []string{"rent"}, r.Matched)
	assert.False(t, r.ForceReview)
}

func TestClassify_PartialSetScalesDown(t *testing.T) {
	c := testClassifier(t)

	r := c.Classify("check to landlord", model.PartyA)
	assert.Equal(t, model.CategoryRent, r.Category)
	assert.InDelta(t, 0.45, r.Confidence, 1e-9, "one of two keywords matched")

	r = c.Classify("landlord lease renewal", model.PartyA)
	assert.InDelta(t, 0.9, r.Confidence, 1e-9, "both keywords matched")
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c := testClassifier(t)

	r := c.Classify("VENMO PAYMENT RECEIVED", model.PartyA)
	assert.Equal(t, model.CategorySettlement, r.Category)
	assert.InDelta(t, 0.9, r.Confidence, 1e-9)
}

func TestClassify_PrecedenceFirstMatchWins(t *testing.T) {
	c := testClassifier(t)

	// Hits both the rent and settlement rules; rent is listed first.
	r := c.Classify("venmo for rent", model.PartyA)
	assert.Equal(t, model.CategoryRent, r.Category)
}

func TestClassify_FallbackShared(t *testing.T) {
	c := testClassifier(t)

	r := c.Classify("Trader Joe's #512", model.PartyA)
	assert.Equal(t, model.CategoryShared, r.Category)
	assert.InDelta(t, 0.85, r.Confidence, 1e-9)
	assert.Empty(t, r.Matched)
	assert.False(t, r.ForceReview)
}

func TestClassify_ReviewKeywordOverridesMatch(t *testing.T) {
	c := testClassifier(t)

	r := c.Classify("rent?? need to check", model.PartyA)
	assert.True(t, r.ForceReview)
	assert.NotEqual(t, model.CategoryRent, r.Category)
	assert.Contains(t, r.Reason, "human judgment")
}

func TestClassify_ArithmeticFragmentForcesReview(t *testing.T) {
	c := testClassifier(t)

	r := c.Classify("groceries 2x $15", model.PartyA)
	assert.True(t, r.ForceReview)
}

func TestClassify_PayerIndependentByDefault(t *testing.T) {
	c := testClassifier(t)

	a := c.Classify("March rent payment", model.PartyA)
	b := c.Classify("March rent payment", model.PartyB)
	assert.Equal(t, a, b, "no default rule keys off the payer")
}

func TestThreshold(t *testing.T) {
	c := testClassifier(t)
	assert.InDelta(t, 0.80, c.Threshold(), 1e-9)
}

func TestNew_RejectsBadPolicies(t *testing.T) {
	_, err := New(testRules(), nil, 0, 0.85)
	assert.Error(t, err, "zero threshold")

	_, err = New(testRules(), nil, 1.2, 0.85)
	assert.Error(t, err, "threshold above one")

	_, err = New(testRules(), nil, 0.8, 1.2)
	assert.Error(t, err, "fallback above one")

	_, err = New([]Rule{{Category: "misc", Keywords: []string{"x"}, Base: 0.9}}, nil, 0.8, 0.85)
	assert.Error(t, err, "unknown category")

	_, err = New([]Rule{{Category: model.CategoryRent, Keywords: nil, Base: 0.9}}, nil, 0.8, 0.85)
	assert.Error(t, err, "no keywords")

	_, err = New([]Rule{{Category: model.CategoryRent, Keywords: []string{" "}, Base: 0.9}}, nil, 0.8, 0.85)
	assert.Error(t, err, "blank keyword")

	_, err = New([]Rule{{Category: model.CategoryRent, Keywords: []string{"rent"}, Base: 0}}, nil, 0.8, 0.85)
	assert.Error(t, err, "zero base")
}

func TestClassify_KeywordsNormalizedOnce(t *testing.T) {
	c, err := New([]Rule{
		{Category: model.CategoryRent, Keywords: []string{"  RENT  "}, Base: 0.95},
	}, nil, 0.8, 0.85)
	require.NoError(t, err)

	r := c.Classify("march rent", model.PartyA)
	assert.Equal(t, model.CategoryRent, r.Category)
	assert.InDelta(t, 0.95, r.Confidence, 1e-9)
}
