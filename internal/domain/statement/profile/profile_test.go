package profile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/decoder"
	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/transform"
)

func bancoChileGrid() decoder.RawGrid {
	return decoder.RawGrid{
		{"Banco de Chile"},
		{"Cartola de Movimientos"},
		{"Cuenta Corriente N° 00-123-45678-90"},
		{""},
		{"Fecha", "Descripción", "N° Documento", "Cargos (CLP)", "Abonos (CLP)", "Saldo (CLP)"},
		{"01/03/2025", "COMPRA SUPERMERCADO ABC", "", "15.000", "", "1.200.000"},
		{"02/03/2025", "TRANSFERENCIA RECIBIDA", "774512", "", "500.000", "1.700.000"},
	}
}

func bancoEstadoGrid() decoder.RawGrid {
	return decoder.RawGrid{
		{"BancoEstado"},
		{"Cartola CuentaRUT"},
		{"Período: marzo 2025"},
		{"Fecha", "N° Operación", "Descripción", "Cheques y Cargos", "Depósitos y Abonos", "Saldo"},
		{"05/03", "889914", "GIRO CAJERO", "20.000", "", "80.000"},
		{"15/03", "889920", "ABONO SUELDO", "", "350.000", "430.000"},
	}
}

func TestRegistry(t *testing.T) {
	t.Run("exposes all profiles by id", func(t *testing.T) {
		for _, id := range []string{"bancochile", "bancoestado", "santander", "bci"} {
			p, ok := ByID(id)
			require.True(t, ok, id)
			assert.Equal(t, id, p.ID())
		}
	})

	t.Run("unknown id misses", func(t *testing.T) {
		_, ok := ByID("hsbc")
		assert.False(t, ok)
	})
}

func TestDetect(t *testing.T) {
	t.Run("recognizes Banco de Chile with auto-apply confidence", func(t *testing.T) {
		d := Detect(bancoChileGrid(), 0.3)

		require.NotNil(t, d)
		assert.Equal(t, "bancochile", d.Profile.ID())
		assert.True(t, d.AutoApplicable(0.7))
	})

	t.Run("recognizes BancoEstado", func(t *testing.T) {
		d := Detect(bancoEstadoGrid(), 0.3)

		require.NotNil(t, d)
		assert.Equal(t, "bancoestado", d.Profile.ID())
	})

	t.Run("returns nil for generic files", func(t *testing.T) {
		grid := decoder.RawGrid{
			{"Fecha", "Monto", "Glosa"},
			{"01-03-2025", "-15000", "SUPERMERCADO ABC"},
		}

		assert.Nil(t, Detect(grid, 0.3))
	})

	t.Run("keeps the highest-confidence profile", func(t *testing.T) {
		strong := stubProfile{id: "strong", confidence: 0.85}
		weak := stubProfile{id: "weak", confidence: 0.4}

		d := DetectAmong([]BankProfile{weak, strong}, decoder.RawGrid{{"x"}}, 0.3)

		require.NotNil(t, d)
		assert.Equal(t, "strong", d.Profile.ID())
		assert.InDelta(t, 0.85, d.Confidence, 1e-9)
		assert.True(t, d.AutoApplicable(0.7))
	})

	t.Run("scores below the floor are no match", func(t *testing.T) {
		low := stubProfile{id: "low", confidence: 0.2}

		assert.Nil(t, DetectAmong([]BankProfile{low}, decoder.RawGrid{{"x"}}, 0.3))
	})

	t.Run("detection is pure across repeated calls", func(t *testing.T) {
		grid := bancoChileGrid()
		first := Detect(grid, 0.3)
		second := Detect(grid, 0.3)

		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.Equal(t, first.Profile.ID(), second.Profile.ID())
		assert.Equal(t, first.Confidence, second.Confidence)
	})
}

func TestPreprocess(t *testing.T) {
	t.Run("Banco de Chile resolves a complete mapping", func(t *testing.T) {
		pre, err := bancoChile.Preprocess(bancoChileGrid(), 0)
		require.NoError(t, err)

		assert.True(t, pre.Mapping.Usable())
		assert.True(t, pre.Mapping.IsDoubleEntry())
		assert.Equal(t, 2, pre.Mapping.Reference)
		assert.Equal(t, float64(1), pre.Mapping.Confidence)
		assert.Equal(t, "Banco de Chile", pre.Metadata.DisplayName)
		assert.Len(t, pre.Rows, 2)

		result, err := transform.Rows(pre.Rows, pre.Mapping)
		require.NoError(t, err)
		require.Len(t, result.Rows, 2)
		assert.True(t, result.Rows[0].Amount.Equal(decimal.NewFromInt(-15000)))
		assert.True(t, result.Rows[1].Amount.Equal(decimal.NewFromInt(500000)))
		assert.Equal(t, "774512", result.Rows[1].Reference)
	})

	t.Run("BancoEstado fills yearless dates from the fallback year", func(t *testing.T) {
		pre, err := bancoEstado.Preprocess(bancoEstadoGrid(), 2025)
		require.NoError(t, err)
		assert.Equal(t, 2025, pre.Mapping.FallbackYear)

		result, err := transform.Rows(pre.Rows, pre.Mapping)
		require.NoError(t, err)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), result.Rows[0].Date)
		assert.True(t, result.Rows[0].Amount.Equal(decimal.NewFromInt(-20000)))
		assert.True(t, result.Rows[1].Amount.Equal(decimal.NewFromInt(350000)))
	})

	t.Run("derives the statement period", func(t *testing.T) {
		pre, err := bancoChile.Preprocess(bancoChileGrid(), 0)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), pre.Metadata.PeriodStart)
		assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), pre.Metadata.PeriodEnd)
	})

	t.Run("errors when only banner rows remain", func(t *testing.T) {
		grid := decoder.RawGrid{
			{"Banco de Chile"},
			{"Fecha", "Descripción", "N° Documento", "Cargos (CLP)", "Abonos (CLP)"},
			{"", "", "", "", ""},
		}

		_, err := bancoChile.Preprocess(grid, 0)
		assert.ErrorIs(t, err, ErrNoDataRows)
	})

	t.Run("Santander single signed column", func(t *testing.T) {
		grid := decoder.RawGrid{
			{"Santander Chile — Movimientos"},
			{"Fecha", "Detalle", "Monto", "Saldo"},
			{"10-03-2025", "PAGO AUTOMATICO", "-45.990", "954.010"},
		}

		d := Detect(grid, 0.3)
		require.NotNil(t, d)
		assert.Equal(t, "santander", d.Profile.ID())

		pre, err := d.Profile.Preprocess(grid, 0)
		require.NoError(t, err)
		assert.False(t, pre.Mapping.IsDoubleEntry())

		result, err := transform.Rows(pre.Rows, pre.Mapping)
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.True(t, result.Rows[0].Amount.Equal(decimal.NewFromInt(-45990)))
	})
}

// stubProfile is a minimal BankProfile for detector tests.
type stubProfile struct {
	id         string
	confidence float64
}

func (s stubProfile) ID() string          { return s.id }
func (s stubProfile) DisplayName() string { return s.id }
func (s stubProfile) Detect(decoder.RawGrid) float64 {
	return s.confidence
}
func (s stubProfile) Preprocess(decoder.RawGrid, int) (*Preprocessed, error) {
	return nil, ErrNoDataRows
}
