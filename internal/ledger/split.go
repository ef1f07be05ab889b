package ledger

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/calculator"
	"github.com/mmynk/splitcircle/internal/feed"
	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

// RecordSplitExpense writes expense as a split transaction plus one debt per non-payer member
// whose share exceeds a cent, all in one batch. The logger (expense.UserID) must be the payer;
// expenses paid by someone else go through CreateExpenseClaim.
//
// expense is updated in place with its assigned ID and timestamps.
func (l *Ledger) RecordSplitExpense(ctx context.Context, expense *models.Transaction, split models.SplitDetails) (string, error) {
	if expense == nil {
		return "", apperr.Validation("expense is required")
	}
	if split.PayerID != expense.UserID {
		return "", apperr.Validation("the payer must be the person recording the expense; send an expense claim instead")
	}
	if err := l.validateExpense(ctx, expense, &split); err != nil {
		return "", err
	}

	txn := l.splitTransaction(expense.UserID, expense, split)

	b := l.store.NewBatch()
	b.CreateTransaction(txn)
	debts := addDebts(b, txn)

	if err := b.Commit(ctx); err != nil {
		l.logger.Error("Failed to record split expense",
			"circle_id", txn.CircleID,
			"user_id", txn.UserID,
			"error", err,
		)
		return "", apperr.FromStorage(err, "failed to record split expense")
	}

	*expense = *txn
	l.metrics.SplitRecorded()
	l.publish(txn.CircleID, feed.TopicTransactions, feed.TopicDebts)

	l.logger.Info("Split expense recorded",
		"transaction_id", txn.ID,
		"circle_id", txn.CircleID,
		"debts", len(debts),
	)
	return txn.ID, nil
}

// SplitEqually builds equal split details for total among memberUIDs with payer paying.
// The payer is included even when memberUIDs leaves them out. Member profiles come from
// the circle when circleID is set and from the user directory otherwise.
func (l *Ledger) SplitEqually(ctx context.Context, payer models.UserProfile, circleID string, total decimal.Decimal, memberUIDs []string) (models.SplitDetails, error) {
	var circle *models.Circle
	if circleID != "" {
		c, err := l.loadCircle(ctx, circleID)
		if err != nil {
			return models.SplitDetails{}, err
		}
		circle = c
	}

	members := []models.UserProfile{payer}
	seen := map[string]bool{payer.UID: true}
	for _, uid := range memberUIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true

		if circle != nil {
			p, ok := circle.Members[uid]
			if !ok {
				return models.SplitDetails{}, apperr.Validation("%s is not a member of this circle", uid)
			}
			members = append(members, p)
			continue
		}
		p, err := l.directoryProfile(ctx, uid)
		if err != nil {
			return models.SplitDetails{}, err
		}
		members = append(members, p)
	}
	if len(members) < 2 {
		return models.SplitDetails{}, apperr.Validation("select at least one other person to split with")
	}

	split, err := calculator.EqualSplit(total, members, payer.UID)
	if err != nil {
		return models.SplitDetails{}, apperr.Validation("%s", err.Error())
	}
	return split, nil
}

// splitTransaction returns the transaction record for a validated split owned by ownerID.
func (l *Ledger) splitTransaction(ownerID string, expense *models.Transaction, split models.SplitDetails) *models.Transaction {
	date := expense.Date
	if date.IsZero() {
		date = l.now().UTC()
	}
	details := split
	details.Members = append([]models.SplitMember(nil), split.Members...)
	return &models.Transaction{
		UserID:             ownerID,
		Description:        strings.TrimSpace(expense.Description),
		Amount:             models.RoundMoney(expense.Amount),
		Category:           expense.Category,
		Date:               date,
		RecurringExpenseID: expense.RecurringExpenseID,
		IsSplit:            true,
		CircleID:           expense.CircleID,
		SplitDetails:       &details,
		CreatedAt:          l.now().UTC(),
	}
}

// addDebts queues one debt per non-payer member of txn's split whose share exceeds a cent.
func addDebts(b storage.Batch, txn *models.Transaction) []*models.Debt {
	split := txn.SplitDetails
	payer, _ := split.Payer()

	var debts []*models.Debt
	for _, m := range split.Members {
		if m.IsPayer || !models.Positive(m.Share) {
			continue
		}
		debt := &models.Debt{
			CircleID:               txn.CircleID,
			TransactionID:          txn.ID,
			TransactionDescription: txn.Description,
			DebtorID:               m.UID,
			Debtor:                 m.UserProfile,
			CreditorID:             split.PayerID,
			Creditor:               payer.UserProfile,
			Amount:                 models.RoundMoney(m.Share),
			SettlementStatus:       models.StatusUnsettled,
			CreatedAt:              txn.CreatedAt,
		}
		b.CreateDebt(debt)
		debts = append(debts, debt)
	}
	return debts
}

// validateExpense checks an expense and its split before anything is written. The split's
// payer becomes the owner of the recorded transaction.
func (l *Ledger) validateExpense(ctx context.Context, expense *models.Transaction, split *models.SplitDetails) error {
	if strings.TrimSpace(expense.Description) == "" {
		return apperr.Validation("description is required")
	}
	if expense.Amount.IsNegative() {
		return apperr.Validation("amount cannot be negative")
	}
	if expense.Category == "" {
		expense.Category = models.CategoryOther.Name
	}
	// Custom categories are validated at the API boundary; built-ins are canonicalized here.
	if cat, err := models.ParseCategory(expense.Category); err == nil {
		expense.Category = cat.Name
	}
	if split.Type == "" {
		split.Type = models.SplitTypeEqually
	}
	if split.Type != models.SplitTypeEqually {
		return apperr.Validation("unsupported split type %q", split.Type)
	}
	if err := validateSplit(expense.Amount, split); err != nil {
		return err
	}

	if expense.CircleID == "" {
		return nil
	}
	circle, err := l.loadCircle(ctx, expense.CircleID)
	if err != nil {
		return err
	}
	if !circle.IsMember(split.PayerID) {
		return apperr.Permission("you are not a member of this circle")
	}
	for _, m := range split.Members {
		if !circle.IsMember(m.UID) {
			return apperr.Validation("%s is not a member of this circle", m.Name())
		}
	}
	return nil
}

// validateSplit enforces the payer and share invariants of split details.
func validateSplit(amount decimal.Decimal, split *models.SplitDetails) error {
	if split.PayerID == "" {
		return apperr.Validation("payer is required")
	}
	if len(split.Members) < 2 {
		return apperr.Validation("select at least one other person to split with")
	}

	payers := 0
	seen := make(map[string]bool, len(split.Members))
	for _, m := range split.Members {
		if m.UID == "" {
			return apperr.Validation("every split member needs a user ID")
		}
		if seen[m.UID] {
			return apperr.Validation("%s appears twice in the split", m.Name())
		}
		seen[m.UID] = true

		if m.Share.IsNegative() {
			return apperr.Validation("share for %s cannot be negative", m.Name())
		}
		if m.IsPayer {
			payers++
			if m.UID != split.PayerID {
				return apperr.Validation("the member marked as payer does not match the payer")
			}
		}
	}
	if payers != 1 {
		return apperr.Validation("a split needs exactly one payer, got %d", payers)
	}

	if !models.IsZero(split.Total.Sub(amount)) {
		return apperr.Validation("split total %s does not match the expense amount %s",
			split.Total.StringFixed(2), amount.StringFixed(2))
	}
	if split.OthersTotal().Sub(split.Total).GreaterThan(models.Epsilon) {
		return apperr.Validation("shares add up to more than the total")
	}
	return nil
}
