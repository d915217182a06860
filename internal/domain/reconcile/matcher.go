// Package reconcile matches imported statement rows against previously
// recorded transactions and drives the per-row reconciliation state machine.
package reconcile

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/statement/transform"
)

// Score weights. Amount equality dominates because money is not fuzzy:
// candidates with unequal amounts are never considered at all, so the
// amount weight is the floor every real candidate starts from.
const (
	amountWeight      = 0.55
	dateWeight        = 0.30
	descriptionWeight = 0.15
)

// ExistingTransaction is a caller-owned, read-only match candidate.
type ExistingTransaction struct {
	ID          uuid.UUID
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Category    string
}

// Rationale explains a match score.
type Rationale struct {
	AmountEqual           bool
	DateDiffDays          int
	DescriptionSimilarity float64
}

// MatchResult is produced for every input row: a nil MatchedTransactionID is
// the explicit "no match found" outcome, never an error.
type MatchResult struct {
	RowIndex             int
	MatchedTransactionID *uuid.UUID
	Confidence           float64
	Rationale            Rationale
}

// MatcherConfig carries the tunables for a matching pass.
type MatcherConfig struct {
	// DateWindowDays absorbs posting-date vs transaction-date skew.
	DateWindowDays int
	// Floor is the minimum combined score for a candidate to be proposed.
	Floor float64
}

// DefaultMatcherConfig mirrors the product defaults.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{DateWindowDays: 3, Floor: 0.55}
}

// Matcher scores statement rows against existing transactions.
type Matcher struct {
	cfg MatcherConfig
}

func NewMatcher(cfg MatcherConfig) *Matcher {
	if cfg.DateWindowDays <= 0 {
		cfg.DateWindowDays = 3
	}
	return &Matcher{cfg: cfg}
}

// candidate is one scored (row, existing transaction) pairing.
type candidate struct {
	rowIndex  int
	txIndex   int
	score     float64
	rationale Rationale
}

// Match returns one MatchResult per row, in row order. Each existing
// transaction is claimed by at most one row per pass; claims are resolved
// in a single deterministic post-pass (score desc, then lowest transaction
// id, then lowest row index), never by mutating shared state mid-scoring.
func (m *Matcher) Match(rows []transform.ParsedRow, existing []ExistingTransaction) []MatchResult {
	results := make([]MatchResult, len(rows))
	for i := range rows {
		results[i] = MatchResult{RowIndex: i}
	}

	// Scoring is independent per row; only the claim pass below crosses rows.
	var candidates []candidate
	for i, row := range rows {
		for j, tx := range existing {
			score, rationale, ok := m.score(row, tx)
			if !ok || score < m.cfg.Floor {
				continue
			}
			candidates = append(candidates, candidate{rowIndex: i, txIndex: j, score: score, rationale: rationale})
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if ca.score != cb.score {
			return ca.score > cb.score
		}
		ta, tb := existing[ca.txIndex].ID.String(), existing[cb.txIndex].ID.String()
		if ta != tb {
			return ta < tb
		}
		return ca.rowIndex < cb.rowIndex
	})

	claimedTx := make(map[int]bool, len(existing))
	assignedRow := make(map[int]bool, len(rows))
	for _, c := range candidates {
		if assignedRow[c.rowIndex] || claimedTx[c.txIndex] {
			continue
		}
		assignedRow[c.rowIndex] = true
		claimedTx[c.txIndex] = true

		id := existing[c.txIndex].ID
		results[c.rowIndex].MatchedTransactionID = &id
		results[c.rowIndex].Confidence = c.score
		results[c.rowIndex].Rationale = c.rationale
	}

	return results
}

// score computes the weighted combination for one pairing. Unequal amounts
// or dates outside the window disqualify the pairing outright.
func (m *Matcher) score(row transform.ParsedRow, tx ExistingTransaction) (float64, Rationale, bool) {
	if !row.Amount.Equal(tx.Amount) {
		return 0, Rationale{}, false
	}

	diffDays := dateDiffDays(row.Date, tx.Date)
	if diffDays > m.cfg.DateWindowDays {
		return 0, Rationale{}, false
	}

	// Full credit for same-day, decaying linearly to the window edge.
	dateFactor := 1 - float64(diffDays)/float64(m.cfg.DateWindowDays+1)
	similarity := DescriptionSimilarity(row.Description, tx.Description)

	score := amountWeight + dateWeight*dateFactor + descriptionWeight*similarity
	rationale := Rationale{
		AmountEqual:           true,
		DateDiffDays:          diffDays,
		DescriptionSimilarity: similarity,
	}
	return score, rationale, true
}

func dateDiffDays(a, b time.Time) int {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}
