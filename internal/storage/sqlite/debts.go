package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

const debtColumns = `id, circle_id, transaction_id, transaction_description, debtor_id, debtor,
	creditor_id, creditor, amount, settlement_status, is_settled, created_at`

// GetDebt retrieves a debt by ID with its status normalized.
func (s *SQLiteStore) GetDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, debtID)
	debt, err := scanDebt(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get debt: %w", err))
	}
	return debt, nil
}

// ListDebtsForCircle retrieves the circle's debts involving uid, newest first.
// The query is pinned to the (circle_id, created_at) index; without it SQLite reports
// "no such index", which surfaces as storage.ErrIndexRequired.
func (s *SQLiteStore) ListDebtsForCircle(ctx context.Context, circleID, uid string) ([]*models.Debt, error) {
	return s.queryDebts(ctx,
		`SELECT `+debtColumns+` FROM debts INDEXED BY idx_debts_circle_created
		 WHERE circle_id = ? AND (debtor_id = ? OR creditor_id = ?)
		 ORDER BY created_at DESC, rowid DESC`,
		circleID, uid, uid,
	)
}

// ListDebtsForUser retrieves every debt involving uid, newest first.
func (s *SQLiteStore) ListDebtsForUser(ctx context.Context, uid string) ([]*models.Debt, error) {
	return s.queryDebts(ctx,
		`SELECT `+debtColumns+` FROM debts
		 WHERE debtor_id = ? OR creditor_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		uid, uid,
	)
}

// ListDebtsByTransaction retrieves the debts a transaction produced.
func (s *SQLiteStore) ListDebtsByTransaction(ctx context.Context, transactionID string) ([]*models.Debt, error) {
	return s.queryDebts(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE transaction_id = ? ORDER BY created_at, rowid`,
		transactionID,
	)
}

func (s *SQLiteStore) queryDebts(ctx context.Context, query string, args ...interface{}) ([]*models.Debt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list debts: %w", err))
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("error iterating debts: %w", err))
	}

	return debts, nil
}

func scanDebt(sc scanner) (*models.Debt, error) {
	d := &models.Debt{}
	var circleID, status sql.NullString
	var isSettled sql.NullBool
	var debtor, creditor string
	var created int64

	if err := sc.Scan(&d.ID, &circleID, &d.TransactionID, &d.TransactionDescription,
		&d.DebtorID, &debtor, &d.CreditorID, &creditor, &d.Amount,
		&status, &isSettled, &created); err != nil {
		return nil, err
	}

	if err := unmarshalJSON(debtor, &d.Debtor); err != nil {
		return nil, fmt.Errorf("failed to decode debtor: %w", err)
	}
	if err := unmarshalJSON(creditor, &d.Creditor); err != nil {
		return nil, fmt.Errorf("failed to decode creditor: %w", err)
	}
	d.CircleID = circleID.String
	d.SettlementStatus = models.NormalizeStatus(status.String, isSettled.Valid && isSettled.Bool)
	d.CreatedAt = fromMillis(created)
	d.InvolvedUIDs = []string{d.DebtorID, d.CreditorID}
	return d, nil
}
