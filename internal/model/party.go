package model

import (
	"fmt"
	"strings"
)

// Party identifies one of the two participants sharing expenses.
type Party uint8

const (
	// PartyNone is the zero value and never a valid participant.
	PartyNone Party = iota
	PartyA
	PartyB
)

// Valid reports whether p is one of the two participants.
func (p Party) Valid() bool {
	return p == PartyA || p == PartyB
}

// Other returns the counterparty. Other of PartyNone is PartyNone.
func (p Party) Other() Party {
	switch p {
	case PartyA:
		return PartyB
	case PartyB:
		return PartyA
	default:
		return PartyNone
	}
}

// String returns the stable storage key for the party ("a" or "b").
// Display names live in the policy, not here.
func (p Party) String() string {
	switch p {
	case PartyA:
		return "a"
	case PartyB:
		return "b"
	default:
		return "none"
	}
}

// ParseParty parses a storage key produced by String.
func ParseParty(s string) (Party, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return PartyA, nil
	case "b":
		return PartyB, nil
	}
	return PartyNone, fmt.Errorf("unknown party %q", s)
}

// Roster maps the two parties to their configured display names and
// resolves payer strings from source files back to a Party.
type Roster struct {
	names   map[Party]string
	aliases map[string]Party
}

// NewRoster builds a Roster. Aliases are matched case-insensitively and
// always include the display names themselves.
func NewRoster(nameA, nameB string, aliasesA, aliasesB []string) Roster {
	r := Roster{
		names:   map[Party]string{PartyA: nameA, PartyB: nameB},
		aliases: make(map[string]Party, len(aliasesA)+len(aliasesB)+2),
	}
	r.aliases[strings.ToLower(nameA)] = PartyA
	r.aliases[strings.ToLower(nameB)] = PartyB
	for _, a := range aliasesA {
		r.aliases[strings.ToLower(a)] = PartyA
	}
	for _, a := range aliasesB {
		r.aliases[strings.ToLower(a)] = PartyB
	}
	return r
}

// Name returns the display name for a party, or "?" for PartyNone.
func (r Roster) Name(p Party) string {
	if n, ok := r.names[p]; ok {
		return n
	}
	return "?"
}

// Resolve maps a payer string (name or alias) to a Party.
func (r Roster) Resolve(payer string) (Party, bool) {
	p, ok := r.aliases[strings.ToLower(strings.TrimSpace(payer))]
	return p, ok
}

// Mentioned returns the party whose name or alias appears in text,
// and whether exactly one party is mentioned. Matches respect word
// boundaries so a short alias never fires inside an unrelated word.
// Used by description overrides ("70% ryan", "gift for jordyn").
func (r Roster) Mentioned(text string) (Party, bool) {
	lower := strings.ToLower(text)
	found := PartyNone
	for alias, p := range r.aliases {
		if ContainsWord(lower, alias) {
			if found != PartyNone && found != p {
				return PartyNone, false
			}
			found = p
		}
	}
	return found, found != PartyNone
}

// ContainsWord reports whether phrase occurs in text bounded by
// non-alphanumeric characters. Both arguments are expected lowercase.
func ContainsWord(text, phrase string) bool {
	for at := 0; at <= len(text)-len(phrase); {
		i := strings.Index(text[at:], phrase)
		if i < 0 {
			return false
		}
		start := at + i
		end := start + len(phrase)
		if boundary(text, start-1) && boundary(text, end) {
			return true
		}
		at = start + 1
	}
	return false
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9')
}
