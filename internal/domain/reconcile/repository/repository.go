// Package repository provides database operations for imported statements
// and their reconciliation state.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/reconcile"
)

// BatchStatus tracks the lifecycle of one statement import.
type BatchStatus string

const (
	BatchStatusPending  BatchStatus = "pending"
	BatchStatusImported BatchStatus = "imported"
	BatchStatusFailed   BatchStatus = "failed"
	BatchStatusReverted BatchStatus = "reverted"
)

// ImportBatch groups the rows imported from one uploaded statement file.
type ImportBatch struct {
	ID           uuid.UUID
	FileName     string
	BankID       string
	CurrencyCode string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	RowCount     int
	DroppedCount int
	Status       BatchStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository defines persistence for batches, imported rows and the
// transactions they reconcile against.
type Repository interface {
	// Batch operations
	CreateBatch(ctx context.Context, batch *ImportBatch) error
	GetBatch(ctx context.Context, id uuid.UUID) (*ImportBatch, error)
	ListBatches(ctx context.Context, limit int) ([]*ImportBatch, error)
	UpdateBatchStatus(ctx context.Context, id uuid.UUID, status BatchStatus) error

	// Imported row operations
	InsertBankTransactions(ctx context.Context, batchID uuid.UUID, rows []*reconcile.BankTransaction) error
	GetBankTransaction(ctx context.Context, id uuid.UUID) (*reconcile.BankTransaction, error)
	ListBankTransactions(ctx context.Context, batchID uuid.UUID) ([]*reconcile.BankTransaction, error)
	ListPendingProposals(ctx context.Context) ([]*reconcile.BankTransaction, error)
	SaveReconciliation(ctx context.Context, row *reconcile.BankTransaction) error

	// Existing transaction operations
	ListTransactionsBetween(ctx context.Context, start, end time.Time) ([]reconcile.ExistingTransaction, error)
	CreateTransaction(ctx context.Context, tx *reconcile.ExistingTransaction) error
}
