package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoster() Roster {
	return NewRoster("Jordyn", "Ryan",
		[]string{"J", "jordyn m"},
		[]string{"R", "ryan k"})
}

func TestPartyOther(t *testing.T) {
	assert.Equal(t, PartyB, PartyA.Other())
	assert.Equal(t, PartyA, PartyB.Other())
	assert.Equal(t, PartyNone, PartyNone.Other())
}

func TestPartyString(t *testing.T) {
	assert.Equal(t, "a", PartyA.String())
	assert.Equal(t, "b", PartyB.String())
	assert.Equal(t, "none", PartyNone.String())
}

func TestParseParty(t *testing.T) {
	p, err := ParseParty("a")
	require.NoError(t, err)
	assert.Equal(t, PartyA, p)

	p, err = ParseParty("B")
	require.NoError(t, err)
	assert.Equal(t, PartyB, p)

	_, err = ParseParty("c")
	assert.Error(t, err)
}

func TestRosterResolve_CanonicalName(t *testing.T) {
	r := testRoster()

	p, ok := r.Resolve("Jordyn")
	require.True(t, ok)
	assert.Equal(t, PartyA, p)

	p, ok = r.Resolve("ryan")
	require.True(t, ok)
	assert.Equal(t, PartyB, p)
}

func TestRosterResolve_Alias(t *testing.T) {
	r := testRoster()

	p, ok := r.Resolve("J")
	require.True(t, ok)
	assert.Equal(t, PartyA, p)

	p, ok = r.Resolve("RYAN K")
	require.True(t, ok)
	assert.Equal(t, PartyB, p)
}

func TestRosterResolve_Whitespace(t *testing.T) {
	r := testRoster()

	p, ok := r.Resolve("  Jordyn  ")
	require.True(t, ok)
	assert.Equal(t, PartyA, p)
}

func TestRosterResolve_Unknown(t *testing.T) {
	r := testRoster()

	_, ok := r.Resolve("Casey")
	assert.False(t, ok)

	_, ok = r.Resolve("")
	assert.False(t, ok)
}

func TestRosterName(t *testing.T) {
	r := testRoster()
	assert.Equal(t, "Jordyn", r.Name(PartyA))
	assert.Equal(t, "Ryan", r.Name(PartyB))
	assert.Equal(t, "?", r.Name(PartyNone))
}

func TestRosterMentioned_WordBoundary(t *testing.T) {
	r := testRoster()

	// The single-letter alias must not fire inside unrelated words.
	_, ok := r.Mentioned("adjusted rent for march")
	assert.False(t, ok)

	p, ok := r.Mentioned("paying J back for coffee")
	require.True(t, ok)
	assert.Equal(t, PartyA, p)
}

func TestRosterMentioned_Possessive(t *testing.T) {
	r := testRoster()

	p, ok := r.Mentioned("Ryan's dentist appointment")
	require.True(t, ok)
	assert.Equal(t, PartyB, p)
}

func TestRosterMentioned(t *testing.T) {
	r := testRoster()

	p, ok := r.Mentioned("gift for Ryan's birthday")
	require.True(t, ok)
	assert.Equal(t, PartyB, p)

	p, ok = r.Mentioned("JORDYN bought concert tickets")
	require.True(t, ok)
	assert.Equal(t, PartyA, p)
}

func TestRosterMentioned_None(t *testing.T) {
	r := testRoster()

	_, ok := r.Mentioned("groceries at the market")
	assert.False(t, ok)
}

func TestRosterMentioned_BothNamed(t *testing.T) {
	r := testRoster()

	_, ok := r.Mentioned("dinner for Jordyn and Ryan")
	assert.False(t, ok)
}
