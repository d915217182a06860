package reconcile

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmatchedRow() *BankTransaction {
	return &BankTransaction{
		ID:          uuid.New(),
		BatchID:     uuid.New(),
		RowIndex:    0,
		Date:        day(1),
		Description: "COMPRA SUPERMERCADO ABC",
		Amount:      decimal.NewFromInt(-15000),
		Status:      StatusUnmatched,
	}
}

func withProposal(confidence float64) *BankTransaction {
	row := unmatchedRow()
	id := uuid.New()
	row.MatchedTransactionID = &id
	row.MatchConfidence = &confidence
	return row
}

func TestApplyMatchResult(t *testing.T) {
	t.Run("records the proposal without changing status", func(t *testing.T) {
		row := unmatchedRow()
		id := uuid.New()

		err := row.ApplyMatchResult(MatchResult{MatchedTransactionID: &id, Confidence: 0.87})

		require.NoError(t, err)
		assert.Equal(t, StatusUnmatched, row.Status)
		require.NotNil(t, row.MatchedTransactionID)
		assert.Equal(t, id, *row.MatchedTransactionID)
		assert.Equal(t, 0.87, *row.MatchConfidence)
	})

	t.Run("a nil proposal clears the previous one", func(t *testing.T) {
		row := withProposal(0.8)

		require.NoError(t, row.ApplyMatchResult(MatchResult{}))

		assert.Nil(t, row.MatchedTransactionID)
		assert.Nil(t, row.MatchConfidence)
	})

	t.Run("rejected on non-unmatched rows", func(t *testing.T) {
		row := withProposal(0.9)
		require.NoError(t, row.ConfirmMatch())

		err := row.ApplyMatchResult(MatchResult{})
		var invalid *ErrInvalidTransition
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestConfirmAndUndo(t *testing.T) {
	t.Run("confirm requires a proposal", func(t *testing.T) {
		row := unmatchedRow()
		assert.Error(t, row.ConfirmMatch())
	})

	t.Run("confirm moves to matched and keeps the link", func(t *testing.T) {
		row := withProposal(0.92)
		linked := *row.MatchedTransactionID

		require.NoError(t, row.ConfirmMatch())

		assert.Equal(t, StatusMatched, row.Status)
		assert.Equal(t, linked, *row.MatchedTransactionID)
	})

	t.Run("undo clears the link completely", func(t *testing.T) {
		row := withProposal(0.92)
		require.NoError(t, row.ConfirmMatch())

		require.NoError(t, row.UndoMatch())

		assert.Equal(t, StatusUnmatched, row.Status)
		assert.Nil(t, row.MatchedTransactionID)
		assert.Nil(t, row.MatchConfidence)
	})

	t.Run("undo only applies to matched rows", func(t *testing.T) {
		row := unmatchedRow()
		var invalid *ErrInvalidTransition
		assert.ErrorAs(t, row.UndoMatch(), &invalid)
	})
}

func TestMarkCreatedAndIgnore(t *testing.T) {
	t.Run("created links the new transaction at full confidence", func(t *testing.T) {
		row := unmatchedRow()
		created := uuid.New()

		require.NoError(t, row.MarkCreated(created))

		assert.Equal(t, StatusCreated, row.Status)
		assert.Equal(t, created, *row.MatchedTransactionID)
		assert.Equal(t, 1.0, *row.MatchConfidence)
	})

	t.Run("ignore discards any pending proposal", func(t *testing.T) {
		row := withProposal(0.75)

		require.NoError(t, row.Ignore())

		assert.Equal(t, StatusIgnored, row.Status)
		assert.Nil(t, row.MatchedTransactionID)
		assert.Nil(t, row.MatchConfidence)
	})

	t.Run("matched rows cannot be created or ignored without undo", func(t *testing.T) {
		row := withProposal(0.95)
		require.NoError(t, row.ConfirmMatch())

		var invalid *ErrInvalidTransition
		assert.ErrorAs(t, row.MarkCreated(uuid.New()), &invalid)
		assert.ErrorAs(t, row.Ignore(), &invalid)
	})
}

func TestBulkAutoConfirm(t *testing.T) {
	t.Run("confirms proposals at or above the threshold", func(t *testing.T) {
		rows := []*BankTransaction{
			withProposal(0.95),
			withProposal(0.90),
			withProposal(0.89),
			unmatchedRow(),
		}

		confirmed := BulkAutoConfirm(rows, 0.9, 0.6)

		assert.Equal(t, 2, confirmed)
		assert.Equal(t, StatusMatched, rows[0].Status)
		assert.Equal(t, StatusMatched, rows[1].Status)
		assert.Equal(t, StatusUnmatched, rows[2].Status)
		assert.Equal(t, StatusUnmatched, rows[3].Status)
	})

	t.Run("threshold never drops below the minimum", func(t *testing.T) {
		rows := []*BankTransaction{withProposal(0.55)}

		confirmed := BulkAutoConfirm(rows, 0.1, 0.6)

		assert.Zero(t, confirmed)
		assert.Equal(t, StatusUnmatched, rows[0].Status)
	})

	t.Run("skips rows already resolved", func(t *testing.T) {
		matched := withProposal(0.99)
		require.NoError(t, matched.ConfirmMatch())
		ignored := unmatchedRow()
		require.NoError(t, ignored.Ignore())

		confirmed := BulkAutoConfirm([]*BankTransaction{matched, ignored}, 0.9, 0.6)
		assert.Zero(t, confirmed)
	})
}
