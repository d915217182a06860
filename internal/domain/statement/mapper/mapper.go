// Package mapper proposes a mapping from arbitrary statement headers to the
// canonical transaction fields. It is a convenience default for files no
// bank profile recognized; a human confirms or adjusts the result before
// any rows are transformed.
package mapper

import (
	"strings"

	"github.com/brentcurtis76/casa-reconcile/pkg/money"
)

// ColumnMapping maps canonical fields to column indices (-1 = unresolved).
// A mapping is usable only when date, description and an amount source
// (single column or debit+credit pair) are all resolved.
type ColumnMapping struct {
	Date        int
	Description int
	Amount      int // single signed column; -1 when Debit/Credit carry the amount
	Debit       int
	Credit      int
	Reference   int

	// Format hints consumed by the row transformer.
	DateLayouts  []string
	FallbackYear int
	Convention   money.Convention

	// Confidence in [0,1]; profile-derived mappings are always 1.
	Confidence float64
}

// NewColumnMapping returns a mapping with every field unresolved.
func NewColumnMapping() ColumnMapping {
	return ColumnMapping{
		Date:        -1,
		Description: -1,
		Amount:      -1,
		Debit:       -1,
		Credit:      -1,
		Reference:   -1,
	}
}

// IsDoubleEntry reports whether the amount comes from separate debit/credit columns.
func (m ColumnMapping) IsDoubleEntry() bool {
	return m.Amount < 0 && m.Debit >= 0 && m.Credit >= 0
}

// Usable reports whether the three mandatory fields are resolved.
func (m ColumnMapping) Usable() bool {
	if m.Date < 0 || m.Description < 0 {
		return false
	}
	return m.Amount >= 0 || (m.Debit >= 0 && m.Credit >= 0)
}

// Header vocabularies per canonical field. Scores: exact match beats
// containment; anything below the floor leaves the field unresolved.
var (
	dateVocab        = []string{"fecha", "fecha transacción", "fecha transaccion", "fecha mov", "date", "data"}
	descriptionVocab = []string{"glosa", "descripción", "descripcion", "detalle", "description", "concepto", "movimiento"}
	amountVocab      = []string{"monto", "importe", "amount", "valor", "montante"}
	debitVocab       = []string{"cargo", "cargos", "débito", "debito", "debit", "giros"}
	creditVocab      = []string{"abono", "abonos", "crédito", "credito", "credit", "depósitos", "depositos"}
	referenceVocab   = []string{"referencia", "n° documento", "nº documento", "num documento", "n° operación", "cheque", "reference", "folio"}
)

const fieldScoreFloor = 0.5

// AutoDetect scores each header against the field vocabularies and picks,
// per field, the strongest match. The overall confidence averages the
// mandatory field scores and is zeroed when any mandatory field is missing.
func AutoDetect(headers []string) ColumnMapping {
	m := NewColumnMapping()

	var dateScore, descScore, amountScore float64
	m.Date, dateScore = bestColumn(headers, dateVocab, nil)
	m.Description, descScore = bestColumn(headers, descriptionVocab, []int{m.Date})
	m.Amount, amountScore = bestColumn(headers, amountVocab, []int{m.Date, m.Description})

	if m.Amount < 0 {
		var debitScore, creditScore float64
		m.Debit, debitScore = bestColumn(headers, debitVocab, []int{m.Date, m.Description})
		m.Credit, creditScore = bestColumn(headers, creditVocab, []int{m.Date, m.Description, m.Debit})
		if m.Debit >= 0 && m.Credit >= 0 {
			amountScore = (debitScore + creditScore) / 2
		} else {
			// A lone debit or credit column cannot produce signed amounts.
			m.Debit, m.Credit = -1, -1
		}
	}

	m.Reference, _ = bestColumn(headers, referenceVocab, []int{m.Date, m.Description, m.Amount, m.Debit, m.Credit})

	if !m.Usable() {
		m.Confidence = 0
		return m
	}
	m.Confidence = (dateScore + descScore + amountScore) / 3
	return m
}

// bestColumn returns the header index with the strongest vocabulary match,
// skipping columns already claimed by another field.
func bestColumn(headers []string, vocab []string, taken []int) (int, float64) {
	bestIdx := -1
	bestScore := 0.0

	for i, header := range headers {
		if claimed(i, taken) {
			continue
		}
		score := vocabScore(normalizeHeader(header), vocab)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestScore < fieldScoreFloor {
		return -1, 0
	}
	return bestIdx, bestScore
}

func claimed(idx int, taken []int) bool {
	for _, t := range taken {
		if t >= 0 && t == idx {
			return true
		}
	}
	return false
}

func vocabScore(header string, vocab []string) float64 {
	if header == "" {
		return 0
	}
	best := 0.0
	for _, term := range vocab {
		switch {
		case header == term:
			return 1.0
		case strings.Contains(header, term):
			// Partial credit scaled by how much of the header the term covers.
			score := 0.6 + 0.3*float64(len(term))/float64(len(header))
			if score > best {
				best = score
			}
		}
	}
	return best
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
