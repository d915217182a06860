// Package money provides precise parsing and formatting of statement amounts.
// All engine arithmetic uses shopspring/decimal; go-money supplies ISO-4217
// minor-unit metadata so zero-decimal currencies such as CLP display correctly.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	CLP = "CLP" // Chilean Peso (no decimal places)
	USD = "USD"
	EUR = "EUR"
)

// Convention describes how an amount string separates thousands and decimals.
type Convention int

const (
	// ConventionAuto infers the separator roles from the string itself.
	ConventionAuto Convention = iota
	// ConventionLatin reads 1.234,56 (dot thousands, comma decimal).
	// Chilean bank exports use this, usually without any decimal part.
	ConventionLatin
	// ConventionAnglo reads 1,234.56 (comma thousands, dot decimal).
	ConventionAnglo
)

// ErrUnparseableAmount is returned when a cell cannot be read as a number.
var ErrUnparseableAmount = errors.New("unparseable amount")

var currencySymbols = []string{"CLP", "R$", "US$", "$", "€", "£", "¥"}

// ParseAmount parses a raw amount cell into a signed decimal.
// It tolerates currency symbols, surrounding whitespace, parentheses for
// negatives, and either separator convention.
func ParseAmount(raw string, conv Convention) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty cell", ErrUnparseableAmount)
	}

	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, " ", ""))
	s = strings.ReplaceAll(s, " ", "")

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimPrefix(s, "-")
	}
	s = strings.TrimPrefix(s, "+")

	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseableAmount, raw)
	}

	switch resolveConvention(s, conv) {
	case ConventionLatin:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseableAmount, raw)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// resolveConvention turns ConventionAuto into a concrete convention by
// inspecting the separators actually present in the cleaned string.
func resolveConvention(s string, conv Convention) Convention {
	if conv != ConventionAuto {
		return conv
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			return ConventionLatin
		}
		return ConventionAnglo
	case lastComma >= 0:
		// A lone comma followed by exactly 1-2 digits reads as a decimal mark.
		if len(s)-lastComma-1 <= 2 {
			return ConventionLatin
		}
		return ConventionAnglo
	case lastDot >= 0:
		if len(s)-lastDot-1 <= 2 {
			return ConventionAnglo
		}
		// Dot groups of three digits are thousands separators (1.234.567).
		return ConventionLatin
	default:
		return ConventionAnglo
	}
}

// ToMinorUnits converts a decimal amount to minor units for the currency,
// e.g. cents for USD, whole pesos for CLP.
func ToMinorUnits(d decimal.Decimal, currencyCode string) int64 {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}
	multiplier := decimal.New(1, int32(currency.Fraction))
	return d.Mul(multiplier).Round(0).IntPart()
}

// FromMinorUnits converts stored minor units back into a decimal amount.
func FromMinorUnits(minor int64, currencyCode string) decimal.Decimal {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}
	return decimal.NewFromInt(minor).Div(decimal.New(1, int32(currency.Fraction)))
}

// Display formats a decimal amount for the given currency, e.g. "$15.000" for CLP.
func Display(d decimal.Decimal, currencyCode string) string {
	return money.New(ToMinorUnits(d, currencyCode), currencyCode).Display()
}
