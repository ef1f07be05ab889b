package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/feed"
	"github.com/mmynk/splitcircle/internal/models"
)

// CreateExpenseClaim asks payerID to confirm an expense that claimer logged on their behalf.
// The split is validated now as if payerID recorded it, so acceptance cannot fail validation
// later unless the circle changed in between.
func (l *Ledger) CreateExpenseClaim(ctx context.Context, claimer models.UserProfile, payerID string, details models.ExpenseDetails) (*models.ExpenseClaim, error) {
	if payerID == "" {
		return nil, apperr.Validation("payer is required")
	}
	if payerID == claimer.UID {
		return nil, apperr.Validation("you paid for this yourself; record it as a split expense instead")
	}
	if details.SplitDetails.PayerID != payerID {
		return nil, apperr.Validation("the split payer must be the person the claim is sent to")
	}

	expense := claimTransaction(payerID, details)
	if err := l.validateExpense(ctx, expense, &details.SplitDetails); err != nil {
		return nil, err
	}
	if details.CircleID != "" {
		circle, err := l.loadCircle(ctx, details.CircleID)
		if err != nil {
			return nil, err
		}
		if !circle.IsMember(claimer.UID) {
			return nil, apperr.Permission("you are not a member of this circle")
		}
	}
	details.Category = expense.Category
	details.Description = expense.Description
	if details.Date.IsZero() {
		details.Date = l.now().UTC()
	}

	claim := &models.ExpenseClaim{
		ClaimerID:      claimer.UID,
		ClaimerProfile: claimer,
		PayerID:        payerID,
		ExpenseDetails: details,
		Status:         models.ClaimPending,
		CreatedAt:      l.now().UTC(),
	}

	b := l.store.NewBatch()
	b.CreateExpenseClaim(claim)
	if err := b.Commit(ctx); err != nil {
		return nil, apperr.FromStorage(err, "failed to create expense claim")
	}

	l.send(ctx, &models.Notification{
		UserID:    payerID,
		FromUser:  claimer,
		Type:      models.NotifyExpenseClaim,
		Message:   fmt.Sprintf("%s says you paid %s for %q. Please review.", claimer.Name(), l.money(details.Amount), details.Description),
		Link:      "/notifications",
		RelatedID: claim.ID,
	})
	l.logger.Info("Expense claim created", "claim_id", claim.ID, "claimer_id", claimer.UID, "payer_id", payerID)
	return claim, nil
}

// AcceptExpenseClaim turns a pending claim into a transaction owned by the payer plus its
// debts, and marks the claim accepted, all in one batch. Only the payer can accept.
func (l *Ledger) AcceptExpenseClaim(ctx context.Context, actor, claimID string) (string, error) {
	claim, err := l.pendingClaim(ctx, actor, claimID)
	if err != nil {
		return "", err
	}

	details := claim.ExpenseDetails
	expense := claimTransaction(claim.PayerID, details)
	if err := l.validateExpense(ctx, expense, &details.SplitDetails); err != nil {
		return "", err
	}
	txn := l.splitTransaction(claim.PayerID, expense, details.SplitDetails)

	b := l.store.NewBatch()
	b.UpdateClaimStatus(claim.ID, models.ClaimPending, models.ClaimAccepted)
	b.CreateTransaction(txn)
	addDebts(b, txn)
	if err := b.Commit(ctx); err != nil {
		return "", apperr.FromStorage(err, "failed to accept expense claim")
	}

	l.metrics.SplitRecorded()
	l.publish(txn.CircleID, feed.TopicTransactions, feed.TopicDebts)
	l.clearNotifications(ctx, claim.PayerID, claim.ID)

	payer, _ := details.SplitDetails.Payer()
	l.send(ctx, &models.Notification{
		UserID:    claim.ClaimerID,
		FromUser:  payer.UserProfile,
		Type:      models.NotifyClaimAccepted,
		Message:   fmt.Sprintf("%s accepted your claim for %q.", payer.Name(), details.Description),
		Link:      "/transactions/" + txn.ID,
		RelatedID: claim.ID,
	})
	l.logger.Info("Expense claim accepted", "claim_id", claim.ID, "transaction_id", txn.ID)
	return txn.ID, nil
}

// RejectExpenseClaim declines a pending claim. Only the payer can reject.
func (l *Ledger) RejectExpenseClaim(ctx context.Context, actor, claimID string) error {
	claim, err := l.pendingClaim(ctx, actor, claimID)
	if err != nil {
		return err
	}

	b := l.store.NewBatch()
	b.UpdateClaimStatus(claim.ID, models.ClaimPending, models.ClaimRejected)
	if err := b.Commit(ctx); err != nil {
		return apperr.FromStorage(err, "failed to reject expense claim")
	}

	l.clearNotifications(ctx, claim.PayerID, claim.ID)

	payer, _ := claim.ExpenseDetails.SplitDetails.Payer()
	l.send(ctx, &models.Notification{
		UserID:    claim.ClaimerID,
		FromUser:  payer.UserProfile,
		Type:      models.NotifyClaimRejected,
		Message:   fmt.Sprintf("%s rejected your claim for %q.", payer.Name(), claim.ExpenseDetails.Description),
		Link:      "/notifications",
		RelatedID: claim.ID,
	})
	l.logger.Info("Expense claim rejected", "claim_id", claim.ID)
	return nil
}

// ListPendingClaims returns the claims waiting on payerID, newest first.
func (l *Ledger) ListPendingClaims(ctx context.Context, payerID string) ([]*models.ExpenseClaim, error) {
	claims, err := l.store.ListPendingClaimsForPayer(ctx, payerID)
	if err != nil {
		return nil, apperr.FromStorage(err, "failed to list expense claims")
	}
	return claims, nil
}

// pendingClaim loads a claim that actor may decide on. The status is re-read here and the
// write that follows is a compare-and-swap, so a claim is never processed twice.
func (l *Ledger) pendingClaim(ctx context.Context, actor, claimID string) (*models.ExpenseClaim, error) {
	if claimID == "" {
		return nil, apperr.Validation("claim ID is required")
	}
	claim, err := l.store.GetExpenseClaim(ctx, claimID)
	if err != nil {
		return nil, apperr.FromStorage(err, "failed to load expense claim")
	}
	if claim.PayerID != actor {
		return nil, apperr.Permission("only the payer can respond to this claim")
	}
	if claim.Status != models.ClaimPending {
		return nil, apperr.InvalidState("claim is already %s", claim.Status)
	}
	return claim, nil
}

func claimTransaction(payerID string, details models.ExpenseDetails) *models.Transaction {
	return &models.Transaction{
		UserID:      payerID,
		Description: details.Description,
		Amount:      details.Amount,
		Category:    details.Category,
		Date:        details.Date,
		CircleID:    details.CircleID,
	}
}
