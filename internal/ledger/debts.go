package ledger

import (
	"context"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/models"
)

// GetDebtsForCircle returns the circle's debts that userID is party to, newest first, with
// legacy status fields normalized.
func (l *Ledger) GetDebtsForCircle(ctx context.Context, circleID, userID string) ([]*models.Debt, error) {
	if circleID == "" || userID == "" {
		return nil, apperr.Validation("circle and user are required")
	}
	debts, err := l.store.ListDebtsForCircle(ctx, circleID, userID)
	if err != nil {
		l.logger.Error("Failed to load circle debts", "circle_id", circleID, "user_id", userID, "error", err)
		return nil, apperr.FromStorage(err, "failed to load debts")
	}
	return debts, nil
}

// GetDebtsForUser returns every debt userID is party to, inside circles or not.
func (l *Ledger) GetDebtsForUser(ctx context.Context, userID string) ([]*models.Debt, error) {
	debts, err := l.store.ListDebtsForUser(ctx, userID)
	if err != nil {
		return nil, apperr.FromStorage(err, "failed to load debts")
	}
	return debts, nil
}

func (l *Ledger) loadDebt(ctx context.Context, debtID string) (*models.Debt, error) {
	if debtID == "" {
		return nil, apperr.Validation("debt ID is required")
	}
	debt, err := l.store.GetDebt(ctx, debtID)
	if err != nil {
		return nil, apperr.FromStorage(err, "failed to load debt")
	}
	return debt, nil
}
