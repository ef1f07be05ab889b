package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

const transactionColumns = `id, user_id, description, amount, category, date,
	recurring_expense_id, is_split, circle_id, split_details, created_at`

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`,
		transactionID,
	)
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get transaction: %w", err))
	}
	return txn, nil
}

// ListCircleTransactions retrieves a circle's transactions, newest first.
func (s *SQLiteStore) ListCircleTransactions(ctx context.Context, circleID string) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE circle_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		circleID,
	)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list transactions: %w", err))
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("error iterating transactions: %w", err))
	}

	return txns, nil
}

func scanTransaction(sc scanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var date, created int64
	var recurring, circleID, split sql.NullString

	if err := sc.Scan(&txn.ID, &txn.UserID, &txn.Description, &txn.Amount, &txn.Category, &date,
		&recurring, &txn.IsSplit, &circleID, &split, &created); err != nil {
		return nil, err
	}

	txn.Date = fromMillis(date)
	txn.CreatedAt = fromMillis(created)
	txn.RecurringExpenseID = recurring.String
	txn.CircleID = circleID.String
	if split.Valid && split.String != "" {
		txn.SplitDetails = &models.SplitDetails{}
		if err := unmarshalJSON(split.String, txn.SplitDetails); err != nil {
			return nil, fmt.Errorf("failed to decode split details: %w", err)
		}
	}
	return txn, nil
}
