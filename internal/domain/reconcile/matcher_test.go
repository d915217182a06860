package reconcile

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/transform"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func existingTx(id string, d time.Time, desc string, amount int64) ExistingTransaction {
	return ExistingTransaction{
		ID:          uuid.MustParse(id),
		Date:        d,
		Description: desc,
		Amount:      decimal.NewFromInt(amount),
	}
}

func TestMatch(t *testing.T) {
	m := NewMatcher(DefaultMatcherConfig())

	t.Run("same day same amount similar description scores above auto-confirm", func(t *testing.T) {
		rows := []transform.ParsedRow{
			{Date: day(1), Description: "COMPRA SUPERMERCADO ABC", Amount: decimal.NewFromInt(-15000)},
		}
		existing := []ExistingTransaction{
			existingTx("11111111-1111-1111-1111-111111111111", day(1), "Compra supermercado", -15000),
		}

		results := m.Match(rows, existing)

		require.Len(t, results, 1)
		require.NotNil(t, results[0].MatchedTransactionID)
		assert.Equal(t, existing[0].ID, *results[0].MatchedTransactionID)
		assert.GreaterOrEqual(t, results[0].Confidence, 0.9)
		assert.True(t, results[0].Rationale.AmountEqual)
		assert.Equal(t, 0, results[0].Rationale.DateDiffDays)
	})

	t.Run("unequal amounts never match", func(t *testing.T) {
		rows := []transform.ParsedRow{
			{Date: day(1), Description: "GASTO COMUN MARZO", Amount: decimal.NewFromInt(-7777)},
		}
		existing := []ExistingTransaction{
			existingTx("11111111-1111-1111-1111-111111111111", day(1), "GASTO COMUN MARZO", -7778),
		}

		results := m.Match(rows, existing)

		require.Len(t, results, 1)
		assert.Nil(t, results[0].MatchedTransactionID)
		assert.Zero(t, results[0].Confidence)
	})

	t.Run("dates outside the window disqualify", func(t *testing.T) {
		rows := []transform.ParsedRow{
			{Date: day(2), Description: "TRANSFERENCIA RECIBIDA", Amount: decimal.NewFromInt(500000)},
		}
		existing := []ExistingTransaction{
			existingTx("11111111-1111-1111-1111-111111111111", day(8), "Transferencia recibida", 500000),
		}

		results := m.Match(rows, existing)
		assert.Nil(t, results[0].MatchedTransactionID)
	})

	t.Run("window edge still matches with reduced confidence", func(t *testing.T) {
		rows := []transform.ParsedRow{
			{Date: day(1), Description: "PAGO PROVEEDOR", Amount: decimal.NewFromInt(-90000)},
		}
		existing := []ExistingTransaction{
			existingTx("11111111-1111-1111-1111-111111111111", day(4), "Pago proveedor", -90000),
		}

		results := m.Match(rows, existing)

		require.NotNil(t, results[0].MatchedTransactionID)
		assert.Equal(t, 3, results[0].Rationale.DateDiffDays)
		assert.Less(t, results[0].Confidence, 0.9)
		assert.GreaterOrEqual(t, results[0].Confidence, 0.55)
	})

	t.Run("each transaction is claimed at most once", func(t *testing.T) {
		rows := []transform.ParsedRow{
			{Date: day(1), Description: "GIRO CAJERO", Amount: decimal.NewFromInt(-20000)},
			{Date: day(1), Description: "GIRO CAJERO", Amount: decimal.NewFromInt(-20000)},
		}
		existing := []ExistingTransaction{
			existingTx("11111111-1111-1111-1111-111111111111", day(1), "Giro cajero", -20000),
		}

		results := m.Match(rows, existing)

		matched := 0
		for _, r := range results {
			if r.MatchedTransactionID != nil {
				matched++
			}
		}
		assert.Equal(t, 1, matched)
		// Equal scores resolve to the lower row index.
		assert.NotNil(t, results[0].MatchedTransactionID)
		assert.Nil(t, results[1].MatchedTransactionID)
	})

	t.Run("ties between identical candidates pick the lowest transaction id", func(t *testing.T) {
		rows := []transform.ParsedRow{
			{Date: day(1), Description: "CUOTA MANTENCION", Amount: decimal.NewFromInt(-55000)},
		}
		existing := []ExistingTransaction{
			existingTx("99999999-9999-9999-9999-999999999999", day(1), "Cuota mantencion", -55000),
			existingTx("11111111-1111-1111-1111-111111111111", day(1), "Cuota mantencion", -55000),
		}

		results := m.Match(rows, existing)

		require.NotNil(t, results[0].MatchedTransactionID)
		assert.Equal(t, existing[1].ID, *results[0].MatchedTransactionID)
	})

	t.Run("closer date wins over farther date", func(t *testing.T) {
		rows := []transform.ParsedRow{
			{Date: day(10), Description: "PAGO AGUA", Amount: decimal.NewFromInt(-30000)},
		}
		far := existingTx("11111111-1111-1111-1111-111111111111", day(13), "Pago agua", -30000)
		near := existingTx("99999999-9999-9999-9999-999999999999", day(10), "Pago agua", -30000)

		results := m.Match(rows, []ExistingTransaction{far, near})

		require.NotNil(t, results[0].MatchedTransactionID)
		assert.Equal(t, near.ID, *results[0].MatchedTransactionID)
	})

	t.Run("results keep row order and indexes", func(t *testing.T) {
		rows := []transform.ParsedRow{
			{Date: day(1), Description: "A", Amount: decimal.NewFromInt(-1000)},
			{Date: day(2), Description: "B", Amount: decimal.NewFromInt(-2000)},
			{Date: day(3), Description: "C", Amount: decimal.NewFromInt(-3000)},
		}

		results := m.Match(rows, nil)

		require.Len(t, results, 3)
		for i, r := range results {
			assert.Equal(t, i, r.RowIndex)
			assert.Nil(t, r.MatchedTransactionID)
		}
	})

	t.Run("matching is deterministic over a large generated set", func(t *testing.T) {
		gofakeit.Seed(42)

		rows := make([]transform.ParsedRow, 80)
		existing := make([]ExistingTransaction, 80)
		for i := range rows {
			amount := decimal.NewFromInt(-int64(gofakeit.Number(1000, 500000)))
			d := day(1 + gofakeit.Number(0, 27))
			desc := gofakeit.Company()
			rows[i] = transform.ParsedRow{Date: d, Description: desc, Amount: amount, SourceRow: i}
			existing[i] = ExistingTransaction{
				ID:          uuid.New(),
				Date:        d.AddDate(0, 0, gofakeit.Number(-2, 2)),
				Description: desc,
				Amount:      amount,
			}
		}

		first := m.Match(rows, existing)
		second := m.Match(rows, existing)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].MatchedTransactionID, second[i].MatchedTransactionID, "row %d", i)
			assert.Equal(t, first[i].Confidence, second[i].Confidence, "row %d", i)
		}
	})
}

func TestDescriptionSimilarity(t *testing.T) {
	t.Run("identical after folding", func(t *testing.T) {
		assert.InDelta(t, 1.0, DescriptionSimilarity("Depósito en Línea", "DEPOSITO EN LINEA"), 1e-9)
	})

	t.Run("shorter description contained in longer scores fully", func(t *testing.T) {
		assert.InDelta(t, 1.0, DescriptionSimilarity("supermercado", "Compra supermercado sucursal 12"), 1e-9)
	})

	t.Run("partial token overlap", func(t *testing.T) {
		got := DescriptionSimilarity("COMPRA SUPERMERCADO ABC", "Compra supermercado")
		assert.InDelta(t, 1.0, got, 1e-9)
	})

	t.Run("unrelated descriptions score low", func(t *testing.T) {
		assert.Less(t, DescriptionSimilarity("GIRO CAJERO AUTOMATICO", "Pago remuneraciones"), 0.5)
	})

	t.Run("empty input scores zero", func(t *testing.T) {
		assert.Zero(t, DescriptionSimilarity("", "algo"))
		assert.Zero(t, DescriptionSimilarity("algo", ""))
	})
}
