// Package transform applies a column mapping to raw statement rows,
// producing normalized transaction candidates. Rows that cannot yield a
// parseable date or amount are dropped and counted, never zeroed.
package transform

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/mapper"
	"github.com/brentcurtis76/casa-reconcile/pkg/money"
)

// ErrIncompleteMapping is returned when the mapping is missing a mandatory field.
var ErrIncompleteMapping = errors.New("column mapping is missing a mandatory field")

// ErrUnparseableDate marks a row-level date failure inside a RowError.
var ErrUnparseableDate = errors.New("unparseable date")

// ParsedRow is a normalized transaction candidate. Positive amounts are
// inflows, negative are outflows; the sign convention is fixed here and
// never revisited downstream.
type ParsedRow struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Reference   string
	// SourceRow is the index of the row within the transformed input,
	// preserved so callers can correlate output 1:1 with persisted records
	// and report exactly which rows failed to persist.
	SourceRow int
}

// RowError records why one raw row was dropped.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, field %s: %v (%q)", e.Row, e.Field, e.Err, e.Value)
}

// Result carries the transformed rows plus visibility into everything that
// was not transformed. Rows preserve the original input order.
type Result struct {
	Rows []ParsedRow
	// Dropped lists rows lost to unparseable dates or amounts.
	Dropped []RowError
	// Blank counts rows whose mapped cells were all empty (separator lines,
	// trailing footers); these are not data loss.
	Blank int
}

// Rows applies the mapping to every raw row. The same grid and mapping
// always produce the same result.
func Rows(rawRows [][]string, m mapper.ColumnMapping) (*Result, error) {
	if !m.Usable() {
		return nil, ErrIncompleteMapping
	}

	layouts := m.DateLayouts
	if len(layouts) == 0 {
		layouts = mapper.DefaultLayouts()
	}

	result := &Result{Rows: make([]ParsedRow, 0, len(rawRows))}

	for i, row := range rawRows {
		cell := func(col int) string {
			if col < 0 || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}

		dateStr := cell(m.Date)
		description := collapseWhitespace(cell(m.Description))

		if dateStr == "" && description == "" && cell(m.Amount) == "" && cell(m.Debit) == "" && cell(m.Credit) == "" {
			result.Blank++
			continue
		}

		date, err := parseDate(dateStr, layouts, m.FallbackYear)
		if err != nil {
			result.Dropped = append(result.Dropped, RowError{Row: i, Field: "date", Value: dateStr, Err: err})
			continue
		}

		amount, field, rawAmount, err := parseAmount(cell, m)
		if err != nil {
			result.Dropped = append(result.Dropped, RowError{Row: i, Field: field, Value: rawAmount, Err: err})
			continue
		}

		result.Rows = append(result.Rows, ParsedRow{
			Date:        date,
			Description: description,
			Amount:      amount,
			Reference:   cell(m.Reference),
			SourceRow:   i,
		})
	}

	return result, nil
}

// parseAmount computes the signed amount: a single signed column directly,
// or credit minus debit when the bank splits them.
func parseAmount(cell func(int) string, m mapper.ColumnMapping) (decimal.Decimal, string, string, error) {
	if m.Amount >= 0 {
		raw := cell(m.Amount)
		d, err := money.ParseAmount(raw, m.Convention)
		return d, "amount", raw, err
	}

	debitStr := cell(m.Debit)
	creditStr := cell(m.Credit)
	if debitStr == "" && creditStr == "" {
		return decimal.Zero, "amount", "", money.ErrUnparseableAmount
	}

	debit := decimal.Zero
	if debitStr != "" {
		d, err := money.ParseAmount(debitStr, m.Convention)
		if err != nil {
			return decimal.Zero, "debit", debitStr, err
		}
		debit = d.Abs()
	}

	credit := decimal.Zero
	if creditStr != "" {
		d, err := money.ParseAmount(creditStr, m.Convention)
		if err != nil {
			return decimal.Zero, "credit", creditStr, err
		}
		credit = d.Abs()
	}

	return credit.Sub(debit), "amount", creditStr + "/" + debitStr, nil
}

// yearlessLayouts parse dates banks emit without a year; FallbackYear,
// derived from the user-entered statement date, fills the gap.
var yearlessLayouts = []string{"02/01", "02-01", "02.01"}

func parseDate(s string, layouts []string, fallbackYear int) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty cell", ErrUnparseableDate)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncate(t), nil
		}
	}

	if fallbackYear > 0 {
		for _, layout := range yearlessLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return time.Date(fallbackYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
}

// truncate drops any time component; parsed rows are calendar dates.
func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
