package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brentcurtis76/casa-reconcile/internal/domain/reconcile"
	"github.com/brentcurtis76/casa-reconcile/pkg/money"
)

// DB is the subset of pgxpool.Pool the repository needs. Tests substitute a
// pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresRepository implements Repository using PostgreSQL. Amounts are
// stored as minor units for the batch currency, whole pesos for CLP.
type PostgresRepository struct {
	db       DB
	currency string
}

// NewPostgresRepository creates a new PostgreSQL reconciliation repository.
func NewPostgresRepository(db DB, currencyCode string) *PostgresRepository {
	if currencyCode == "" {
		currencyCode = money.CLP
	}
	return &PostgresRepository{db: db, currency: currencyCode}
}

// CreateBatch inserts a new import batch.
func (r *PostgresRepository) CreateBatch(ctx context.Context, batch *ImportBatch) error {
	query := `
		INSERT INTO import_batches (id, file_name, bank_id, currency_code, period_start, period_end, row_count, dropped_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	if batch.Status == "" {
		batch.Status = BatchStatusPending
	}
	if batch.CurrencyCode == "" {
		batch.CurrencyCode = r.currency
	}

	err := r.db.QueryRow(ctx, query,
		batch.ID,
		batch.FileName,
		batch.BankID,
		batch.CurrencyCode,
		batch.PeriodStart,
		batch.PeriodEnd,
		batch.RowCount,
		batch.DroppedCount,
		batch.Status,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create import batch: %w", err)
	}
	return nil
}

// GetBatch retrieves an import batch by ID.
func (r *PostgresRepository) GetBatch(ctx context.Context, id uuid.UUID) (*ImportBatch, error) {
	query := `
		SELECT id, file_name, bank_id, currency_code, period_start, period_end, row_count, dropped_count, status, created_at, updated_at
		FROM import_batches
		WHERE id = $1`

	batch := &ImportBatch{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&batch.ID,
		&batch.FileName,
		&batch.BankID,
		&batch.CurrencyCode,
		&batch.PeriodStart,
		&batch.PeriodEnd,
		&batch.RowCount,
		&batch.DroppedCount,
		&batch.Status,
		&batch.CreatedAt,
		&batch.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import batch: %w", err)
	}
	return batch, nil
}

// ListBatches retrieves the most recent import batches.
func (r *PostgresRepository) ListBatches(ctx context.Context, limit int) ([]*ImportBatch, error) {
	query := `
		SELECT id, file_name, bank_id, currency_code, period_start, period_end, row_count, dropped_count, status, created_at, updated_at
		FROM import_batches
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import batches: %w", err)
	}
	defer rows.Close()

	var batches []*ImportBatch
	for rows.Next() {
		batch := &ImportBatch{}
		err := rows.Scan(
			&batch.ID,
			&batch.FileName,
			&batch.BankID,
			&batch.CurrencyCode,
			&batch.PeriodStart,
			&batch.PeriodEnd,
			&batch.RowCount,
			&batch.DroppedCount,
			&batch.Status,
			&batch.CreatedAt,
			&batch.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import batch: %w", err)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// UpdateBatchStatus moves a batch through its lifecycle.
func (r *PostgresRepository) UpdateBatchStatus(ctx context.Context, id uuid.UUID, status BatchStatus) error {
	query := `UPDATE import_batches SET status = $2, updated_at = now() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update batch status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InsertBankTransactions stores all rows of a batch inside one transaction,
// so a failed import never leaves a partial batch behind.
func (r *PostgresRepository) InsertBankTransactions(ctx context.Context, batchID uuid.UUID, rows []*reconcile.BankTransaction) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bank_transactions (id, batch_id, row_index, occurred_on, description, amount_minor, reference, status, matched_transaction_id, match_confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.BatchID = batchID
		if row.Status == "" {
			row.Status = reconcile.StatusUnmatched
		}

		_, err := tx.Exec(ctx, query,
			row.ID,
			row.BatchID,
			row.RowIndex,
			row.Date,
			row.Description,
			money.ToMinorUnits(row.Amount, r.currency),
			row.Reference,
			row.Status,
			row.MatchedTransactionID,
			row.MatchConfidence,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bank transaction row %d: %w", row.RowIndex, err)
		}
	}

	return tx.Commit(ctx)
}

const bankTransactionColumns = `id, batch_id, row_index, occurred_on, description, amount_minor, reference, status, matched_transaction_id, match_confidence`

// GetBankTransaction retrieves one imported row by ID.
func (r *PostgresRepository) GetBankTransaction(ctx context.Context, id uuid.UUID) (*reconcile.BankTransaction, error) {
	query := `
		SELECT ` + bankTransactionColumns + `
		FROM bank_transactions
		WHERE id = $1`

	row := &reconcile.BankTransaction{}
	var amountMinor int64
	err := r.db.QueryRow(ctx, query, id).Scan(
		&row.ID,
		&row.BatchID,
		&row.RowIndex,
		&row.Date,
		&row.Description,
		&amountMinor,
		&row.Reference,
		&row.Status,
		&row.MatchedTransactionID,
		&row.MatchConfidence,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank transaction: %w", err)
	}
	row.Amount = money.FromMinorUnits(amountMinor, r.currency)
	return row, nil
}

// ListBankTransactions retrieves all rows of a batch in statement order.
func (r *PostgresRepository) ListBankTransactions(ctx context.Context, batchID uuid.UUID) ([]*reconcile.BankTransaction, error) {
	query := `
		SELECT ` + bankTransactionColumns + `
		FROM bank_transactions
		WHERE batch_id = $1
		ORDER BY row_index ASC`

	rows, err := r.db.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transactions: %w", err)
	}
	defer rows.Close()

	return r.scanBankTransactions(rows)
}

// ListPendingProposals retrieves every unmatched row that carries a match
// proposal, across all batches. The auto-confirm sweep feeds from this.
func (r *PostgresRepository) ListPendingProposals(ctx context.Context) ([]*reconcile.BankTransaction, error) {
	query := `
		SELECT ` + bankTransactionColumns + `
		FROM bank_transactions
		WHERE status = $1 AND matched_transaction_id IS NOT NULL
		ORDER BY batch_id, row_index ASC`

	rows, err := r.db.Query(ctx, query, reconcile.StatusUnmatched)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending proposals: %w", err)
	}
	defer rows.Close()

	return r.scanBankTransactions(rows)
}

func (r *PostgresRepository) scanBankTransactions(rows pgx.Rows) ([]*reconcile.BankTransaction, error) {
	var out []*reconcile.BankTransaction
	for rows.Next() {
		row := &reconcile.BankTransaction{}
		var amountMinor int64
		err := rows.Scan(
			&row.ID,
			&row.BatchID,
			&row.RowIndex,
			&row.Date,
			&row.Description,
			&amountMinor,
			&row.Reference,
			&row.Status,
			&row.MatchedTransactionID,
			&row.MatchConfidence,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank transaction: %w", err)
		}
		row.Amount = money.FromMinorUnits(amountMinor, r.currency)
		out = append(out, row)
	}
	return out, nil
}

// SaveReconciliation persists a row's reconciliation state after a transition.
func (r *PostgresRepository) SaveReconciliation(ctx context.Context, row *reconcile.BankTransaction) error {
	query := `
		UPDATE bank_transactions
		SET status = $2, matched_transaction_id = $3, match_confidence = $4, updated_at = now()
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query, row.ID, row.Status, row.MatchedTransactionID, row.MatchConfidence)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListTransactionsBetween retrieves match candidates dated inside [start, end].
func (r *PostgresRepository) ListTransactionsBetween(ctx context.Context, start, end time.Time) ([]reconcile.ExistingTransaction, error) {
	query := `
		SELECT id, occurred_on, description, amount_minor, category
		FROM transactions
		WHERE occurred_on >= $1 AND occurred_on <= $2
		ORDER BY occurred_on ASC, id ASC`

	rows, err := r.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []reconcile.ExistingTransaction
	for rows.Next() {
		var tx reconcile.ExistingTransaction
		var amountMinor int64
		err := rows.Scan(&tx.ID, &tx.Date, &tx.Description, &amountMinor, &tx.Category)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Amount = money.FromMinorUnits(amountMinor, r.currency)
		out = append(out, tx)
	}
	return out, nil
}

// CreateTransaction inserts a transaction created from an imported row.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *reconcile.ExistingTransaction) error {
	query := `
		INSERT INTO transactions (id, occurred_on, description, amount_minor, category)
		VALUES ($1, $2, $3, $4, $5)`

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		tx.ID,
		tx.Date,
		tx.Description,
		money.ToMinorUnits(tx.Amount, r.currency),
		tx.Category,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}
