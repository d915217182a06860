package mapper

import (
	"strings"

	"github.com/brentcurtis76/casa-reconcile/pkg/money"
)

// ProbeDialect inspects sample data rows to resolve the amount separator
// convention and date order for a generic mapping. Hints come from the
// mapped amount column(s) and date column only; the mapping's format fields
// are filled in place.
func ProbeDialect(sampleRows [][]string, m *ColumnMapping) {
	latinHints := 0
	angloHints := 0
	dayFirst := false

	amountCols := []int{m.Amount}
	if m.IsDoubleEntry() {
		amountCols = []int{m.Debit, m.Credit}
	}

	for _, row := range sampleRows {
		for _, col := range amountCols {
			if col < 0 || col >= len(row) {
				continue
			}
			switch amountHint(row[col]) {
			case money.ConventionLatin:
				latinHints++
			case money.ConventionAnglo:
				angloHints++
			}
		}

		if m.Date >= 0 && m.Date < len(row) && firstDatePartExceeds12(row[m.Date]) {
			dayFirst = true
		}
	}

	switch {
	case latinHints > angloHints:
		m.Convention = money.ConventionLatin
	case angloHints > latinHints:
		m.Convention = money.ConventionAnglo
	default:
		m.Convention = money.ConventionAuto
	}

	if len(m.DateLayouts) == 0 {
		if dayFirst {
			m.DateLayouts = DayFirstLayouts()
		} else {
			// Chilean exports are day-first even when no sample proves it;
			// ISO layouts are tried first so unambiguous dates always win.
			m.DateLayouts = DefaultLayouts()
		}
	}
}

// DefaultLayouts lists the date layouts tried for generic files, ISO first,
// then day-first forms, then month-first as a last resort.
func DefaultLayouts() []string {
	return []string{
		"2006-01-02",
		"02-01-2006",
		"02/01/2006",
		"02.01.2006",
		"2006/01/02",
		"01/02/2006",
	}
}

// DayFirstLayouts lists only unambiguous day-first layouts plus ISO.
func DayFirstLayouts() []string {
	return []string{
		"2006-01-02",
		"02-01-2006",
		"02/01/2006",
		"02.01.2006",
	}
}

// amountHint classifies one amount sample, or returns ConventionAuto when
// the sample is ambiguous.
func amountHint(val string) money.Convention {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' {
			return r
		}
		return -1
	}, val)
	if cleaned == "" {
		return money.ConventionAuto
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			return money.ConventionLatin
		}
		return money.ConventionAnglo
	case lastComma >= 0 && len(cleaned)-lastComma-1 <= 2:
		return money.ConventionLatin
	case lastDot >= 0 && len(cleaned)-lastDot-1 == 3:
		// 15.000 style thousands grouping.
		return money.ConventionLatin
	case lastDot >= 0 && len(cleaned)-lastDot-1 <= 2:
		return money.ConventionAnglo
	}
	return money.ConventionAuto
}

// firstDatePartExceeds12 reports whether the leading numeric part of a date
// sample can only be a day (13-31), proving day-first ordering.
func firstDatePartExceeds12(val string) bool {
	parts := strings.FieldsFunc(strings.TrimSpace(val), func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) < 2 {
		return false
	}
	n := 0
	for _, c := range parts[0] {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
	}
	return n > 12 && n <= 31
}
