package transform

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/mapper"
	"github.com/brentcurtis76/casa-reconcile/pkg/money"
)

func fechaMontoGlosa() mapper.ColumnMapping {
	m := mapper.NewColumnMapping()
	m.Date = 0
	m.Amount = 1
	m.Description = 2
	m.Confidence = 1
	return m
}

func TestRows(t *testing.T) {
	t.Run("transforms single amount column rows", func(t *testing.T) {
		raw := [][]string{
			{"01-03-2025", "-15000", "SUPERMERCADO ABC"},
			{"02-03-2025", "500000", "TRANSFERENCIA RECIBIDA"},
		}

		result, err := Rows(raw, fechaMontoGlosa())
		require.NoError(t, err)
		require.Len(t, result.Rows, 2)
		assert.Empty(t, result.Dropped)

		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), result.Rows[0].Date)
		assert.True(t, result.Rows[0].Amount.Equal(decimal.NewFromInt(-15000)))
		assert.Equal(t, "SUPERMERCADO ABC", result.Rows[0].Description)

		assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), result.Rows[1].Date)
		assert.True(t, result.Rows[1].Amount.Equal(decimal.NewFromInt(500000)))
	})

	t.Run("computes credit minus debit", func(t *testing.T) {
		m := mapper.NewColumnMapping()
		m.Date = 0
		m.Description = 1
		m.Debit = 2
		m.Credit = 3
		m.Convention = money.ConventionLatin

		raw := [][]string{
			{"05/03/2025", "COMPRA", "15.000", ""},
			{"06/03/2025", "SUELDO", "", "1.200.000"},
		}

		result, err := Rows(raw, m)
		require.NoError(t, err)
		require.Len(t, result.Rows, 2)
		assert.True(t, result.Rows[0].Amount.Equal(decimal.NewFromInt(-15000)))
		assert.True(t, result.Rows[1].Amount.Equal(decimal.NewFromInt(1200000)))
	})

	t.Run("drops unparseable rows and counts them", func(t *testing.T) {
		raw := [][]string{
			{"01-03-2025", "-15000", "OK"},
			{"not a date", "-1", "BAD DATE"},
			{"03-03-2025", "???", "BAD AMOUNT"},
		}

		result, err := Rows(raw, fechaMontoGlosa())
		require.NoError(t, err)
		assert.Len(t, result.Rows, 1)
		require.Len(t, result.Dropped, 2)
		assert.Equal(t, "date", result.Dropped[0].Field)
		assert.Equal(t, 1, result.Dropped[0].Row)
		assert.Equal(t, "amount", result.Dropped[1].Field)
		assert.Equal(t, 2, result.Dropped[1].Row)
	})

	t.Run("never coerces an unparseable amount to zero", func(t *testing.T) {
		raw := [][]string{{"01-03-2025", "n/a", "X"}}

		result, err := Rows(raw, fechaMontoGlosa())
		require.NoError(t, err)
		assert.Empty(t, result.Rows)
		assert.Len(t, result.Dropped, 1)
	})

	t.Run("keeps explicit zero amounts", func(t *testing.T) {
		raw := [][]string{{"01-03-2025", "0", "AJUSTE"}}

		result, err := Rows(raw, fechaMontoGlosa())
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.True(t, result.Rows[0].Amount.IsZero())
	})

	t.Run("blank rows are counted separately", func(t *testing.T) {
		raw := [][]string{
			{"01-03-2025", "-1", "OK"},
			{"", "", ""},
		}

		result, err := Rows(raw, fechaMontoGlosa())
		require.NoError(t, err)
		assert.Len(t, result.Rows, 1)
		assert.Empty(t, result.Dropped)
		assert.Equal(t, 1, result.Blank)
	})

	t.Run("yearless dates use the fallback year", func(t *testing.T) {
		m := fechaMontoGlosa()
		m.FallbackYear = 2025

		raw := [][]string{{"15/03", "-100", "GIRO"}}

		result, err := Rows(raw, m)
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), result.Rows[0].Date)
	})

	t.Run("collapses description whitespace", func(t *testing.T) {
		raw := [][]string{{"01-03-2025", "-1", "  PAGO   AUTOMATICO  CUENTA "}}

		result, err := Rows(raw, fechaMontoGlosa())
		require.NoError(t, err)
		assert.Equal(t, "PAGO AUTOMATICO CUENTA", result.Rows[0].Description)
	})

	t.Run("preserves input order and source row indices", func(t *testing.T) {
		raw := [][]string{
			{"02-03-2025", "-2", "B"},
			{"01-03-2025", "-1", "A"},
		}

		result, err := Rows(raw, fechaMontoGlosa())
		require.NoError(t, err)
		assert.Equal(t, "B", result.Rows[0].Description)
		assert.Equal(t, 0, result.Rows[0].SourceRow)
		assert.Equal(t, 1, result.Rows[1].SourceRow)
	})

	t.Run("is deterministic across repeated runs", func(t *testing.T) {
		raw := [][]string{
			{"01-03-2025", "-15000", "SUPERMERCADO ABC"},
			{"02-03-2025", "500000", "TRANSFERENCIA RECIBIDA"},
		}

		first, err := Rows(raw, fechaMontoGlosa())
		require.NoError(t, err)
		second, err := Rows(raw, fechaMontoGlosa())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("rejects incomplete mappings", func(t *testing.T) {
		m := mapper.NewColumnMapping()
		m.Date = 0

		_, err := Rows([][]string{{"01-03-2025"}}, m)
		assert.ErrorIs(t, err, ErrIncompleteMapping)
	})
}
