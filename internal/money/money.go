// Package money holds the exact-decimal arithmetic shared by the
// ledger, the split calculator and the importers. Amounts are
// shopspring decimals kept at cent precision; floats never appear on
// any money path.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the scale every stored amount and finalized share carries: cents.
const Places = 2

var (
	// ErrEmpty reports a blank amount field. Blank input is an error,
	// never zero.
	ErrEmpty = errors.New("empty amount")
	// ErrPrecision reports sub-cent input.
	ErrPrecision = errors.New("more than two decimal places")
)

var currencySymbols = []string{"$", "€", "£"}

// Parse converts a user- or CSV-supplied amount to an exact decimal.
// A leading currency symbol, thousands separators and surrounding
// whitespace are tolerated; anything else, including sub-cent
// precision, is an error.
func Parse(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return decimal.Decimal{}, ErrEmpty
	}

	neg := false
	switch {
	case strings.HasPrefix(raw, "-"):
		neg = true
		raw = raw[1:]
	case strings.HasPrefix(raw, "+"):
		raw = raw[1:]
	}
	for _, sym := range currencySymbols {
		raw = strings.TrimPrefix(raw, sym)
	}
	raw = strings.TrimSpace(raw)
	// some exports put the sign after the symbol: "$-12.50"
	if !neg && strings.HasPrefix(raw, "-") {
		neg = true
		raw = raw[1:]
	}

	raw, err := stripGrouping(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	whole, frac, hasFrac := strings.Cut(raw, ".")
	switch {
	case !hasFrac:
		if !digits(whole) {
			return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
		}
	case whole != "" && !digits(whole), !digits(frac):
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	case len(frac) > Places:
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, ErrPrecision)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// stripGrouping removes thousands separators, rejecting commas in any
// other position so "12,34" can never be read as 1234.
func stripGrouping(s string) (string, error) {
	if !strings.Contains(s, ",") {
		return s, nil
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	groups := strings.Split(whole, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 || !digits(groups[0]) {
		return "", errors.New("misplaced thousands separator")
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !digits(g) {
			return "", errors.New("misplaced thousands separator")
		}
	}
	out := strings.Join(groups, "")
	if hasFrac {
		out += "." + frac
	}
	return out, nil
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// RoundShare rounds a computed share to the cent, half up. Applied
// exactly once per finalized share; intermediate arithmetic stays
// unrounded.
func RoundShare(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Percent returns pct percent of total, rounded to the cent. The
// multiply-then-shift keeps the intermediate exact.
func Percent(total, pct decimal.Decimal) decimal.Decimal {
	return RoundShare(total.Mul(pct).Shift(-2))
}

// SplitHalf divides total into two cent-precision shares. Each half is
// rounded once; the residue (at most one cent, since total itself is
// cent-precision) lands on the payer's side so the pair always sums to
// total exactly.
func SplitHalf(total decimal.Decimal) (payer, other, residue decimal.Decimal) {
	half := RoundShare(total.Div(decimal.NewFromInt(2)))
	residue = total.Sub(half.Add(half))
	return half.Add(residue), half, residue
}

// CheckScale rejects amounts carrying more precision than cents,
// mirroring the exact-decimals posting invariant.
func CheckScale(d decimal.Decimal) error {
	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.Equal(cents.Floor()) {
		return fmt.Errorf("amount %s: %w", d, ErrPrecision)
	}
	return nil
}
