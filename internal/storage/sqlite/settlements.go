package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

const settlementColumns = `id, circle_id, from_user_id, from_user, to_user_id, to_user, amount, status, debt_id, created_at`

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = ?`,
		settlementID,
	)
	settlement, err := scanSettlement(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get settlement: %w", err))
	}
	return settlement, nil
}

// ListCircleSettlements retrieves a circle's settlements, optionally filtered by status.
func (s *SQLiteStore) ListCircleSettlements(ctx context.Context, circleID string, statuses ...models.SettlementRecordStatus) ([]*models.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE circle_id = ?`
	args := []interface{}{circleID}
	if len(statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(statuses)) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list settlements: %w", err))
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("error iterating settlements: %w", err))
	}

	return settlements, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSettlement(sc scanner) (*models.Settlement, error) {
	st := &models.Settlement{}
	var from, to, status string
	var debtID sql.NullString
	var created int64

	if err := sc.Scan(&st.ID, &st.CircleID, &st.FromUserID, &from, &st.ToUserID, &to,
		&st.Amount, &status, &debtID, &created); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(from, &st.FromUser); err != nil {
		return nil, fmt.Errorf("failed to decode settlement payer: %w", err)
	}
	if err := unmarshalJSON(to, &st.ToUser); err != nil {
		return nil, fmt.Errorf("failed to decode settlement receiver: %w", err)
	}
	st.Status = models.SettlementRecordStatus(status)
	st.DebtID = debtID.String
	st.CreatedAt = fromMillis(created)
	return st, nil
}
