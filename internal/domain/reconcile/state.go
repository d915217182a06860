package reconcile

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the reconciliation state of one imported bank row.
type Status string

const (
	// StatusUnmatched is the initial state, with or without a pending proposal.
	StatusUnmatched Status = "unmatched"
	// StatusMatched links the row to an existing transaction.
	StatusMatched Status = "matched"
	// StatusCreated means a new transaction was created from the row.
	StatusCreated Status = "created"
	// StatusIgnored excludes the row from reconciliation.
	StatusIgnored Status = "ignored"
)

// ErrInvalidTransition rejects a state change the machine does not allow.
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("reconcile: invalid transition from %s to %s", e.From, e.To)
}

// BankTransaction is one imported statement row with its reconciliation state.
// MatchedTransactionID and MatchConfidence are set together while a proposal
// or confirmed match exists, and cleared together on undo.
type BankTransaction struct {
	ID          uuid.UUID
	BatchID     uuid.UUID
	RowIndex    int
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Reference   string

	Status               Status
	MatchedTransactionID *uuid.UUID
	MatchConfidence      *float64
}

// ApplyMatchResult records a matcher proposal on an unmatched row without
// changing its status. A nil proposal clears any previous one.
func (b *BankTransaction) ApplyMatchResult(r MatchResult) error {
	if b.Status != StatusUnmatched {
		return &ErrInvalidTransition{From: b.Status, To: StatusUnmatched}
	}
	if r.MatchedTransactionID == nil {
		b.MatchedTransactionID = nil
		b.MatchConfidence = nil
		return nil
	}
	id := *r.MatchedTransactionID
	confidence := r.Confidence
	b.MatchedTransactionID = &id
	b.MatchConfidence = &confidence
	return nil
}

// ConfirmMatch accepts the pending proposal and moves the row to matched.
func (b *BankTransaction) ConfirmMatch() error {
	if b.Status != StatusUnmatched {
		return &ErrInvalidTransition{From: b.Status, To: StatusMatched}
	}
	if b.MatchedTransactionID == nil {
		return fmt.Errorf("reconcile: no proposal to confirm on row %d", b.RowIndex)
	}
	b.Status = StatusMatched
	return nil
}

// UndoMatch returns a matched row to unmatched and clears the link entirely,
// so the previously claimed transaction becomes available again.
func (b *BankTransaction) UndoMatch() error {
	if b.Status != StatusMatched {
		return &ErrInvalidTransition{From: b.Status, To: StatusUnmatched}
	}
	b.Status = StatusUnmatched
	b.MatchedTransactionID = nil
	b.MatchConfidence = nil
	return nil
}

// MarkCreated records that a fresh transaction was created from this row.
// The new transaction id is linked at full confidence.
func (b *BankTransaction) MarkCreated(newTransactionID uuid.UUID) error {
	if b.Status != StatusUnmatched {
		return &ErrInvalidTransition{From: b.Status, To: StatusCreated}
	}
	confidence := 1.0
	b.Status = StatusCreated
	b.MatchedTransactionID = &newTransactionID
	b.MatchConfidence = &confidence
	return nil
}

// Ignore excludes an unmatched row from reconciliation. Any pending proposal
// is discarded.
func (b *BankTransaction) Ignore() error {
	if b.Status != StatusUnmatched {
		return &ErrInvalidTransition{From: b.Status, To: StatusIgnored}
	}
	b.Status = StatusIgnored
	b.MatchedTransactionID = nil
	b.MatchConfidence = nil
	return nil
}

// BulkAutoConfirm confirms every unmatched row whose proposal confidence is
// at or above threshold and returns how many were confirmed. The threshold is
// clamped to minimum, so a misconfigured sweep can never confirm low-quality
// proposals.
func BulkAutoConfirm(rows []*BankTransaction, threshold, minimum float64) int {
	if threshold < minimum {
		threshold = minimum
	}

	confirmed := 0
	for _, row := range rows {
		if row.Status != StatusUnmatched || row.MatchConfidence == nil || row.MatchedTransactionID == nil {
			continue
		}
		if *row.MatchConfidence < threshold {
			continue
		}
		if err := row.ConfirmMatch(); err == nil {
			confirmed++
		}
	}
	return confirmed
}
