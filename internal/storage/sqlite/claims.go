package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

const claimColumns = `id, claimer_id, claimer_profile, payer_id, expense_details, status, created_at`

// GetExpenseClaim retrieves a claim by ID.
func (s *SQLiteStore) GetExpenseClaim(ctx context.Context, claimID string) (*models.ExpenseClaim, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM expense_claims WHERE id = ?`, claimID)
	claim, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense claim %s: %w", claimID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to get expense claim: %w", err))
	}
	return claim, nil
}

// ListPendingClaimsForPayer retrieves the claims waiting on payerID, newest first.
func (s *SQLiteStore) ListPendingClaimsForPayer(ctx context.Context, payerID string) ([]*models.ExpenseClaim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM expense_claims
		 WHERE payer_id = ? AND status = ?
		 ORDER BY created_at DESC, rowid DESC`,
		payerID, string(models.ClaimPending),
	)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list expense claims: %w", err))
	}
	defer rows.Close()

	var claims []*models.ExpenseClaim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense claim: %w", err)
		}
		claims = append(claims, claim)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("error iterating expense claims: %w", err))
	}

	return claims, nil
}

func scanClaim(sc scanner) (*models.ExpenseClaim, error) {
	c := &models.ExpenseClaim{}
	var profile, details, status string
	var created int64

	if err := sc.Scan(&c.ID, &c.ClaimerID, &profile, &c.PayerID, &details, &status, &created); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(profile, &c.ClaimerProfile); err != nil {
		return nil, fmt.Errorf("failed to decode claimer: %w", err)
	}
	if err := unmarshalJSON(details, &c.ExpenseDetails); err != nil {
		return nil, fmt.Errorf("failed to decode expense details: %w", err)
	}
	c.Status = models.ClaimStatus(status)
	c.CreatedAt = fromMillis(created)
	return c, nil
}
