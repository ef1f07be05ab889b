package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/calculator"
	"github.com/mmynk/splitcircle/internal/feed"
	"github.com/mmynk/splitcircle/internal/models"
)

// Transition names, used for metrics and logs.
const (
	TransitionInitiate = "initiate"
	TransitionCancel   = "cancel"
	TransitionReject   = "reject"
	TransitionConfirm  = "confirm"
	TransitionLog      = "log"
	TransitionDelete   = "delete"
	TransitionRequest  = "request"
	TransitionRespond  = "respond"
)

type party int

const (
	debtorParty party = iota
	creditorParty
)

// transition describes one edge of the debt lifecycle.
type transition struct {
	name string
	by   party
	from models.SettlementStatus
	to   models.SettlementStatus
}

var (
	initiateEdge = transition{TransitionInitiate, debtorParty, models.StatusUnsettled, models.StatusPendingConfirmation}
	cancelEdge   = transition{TransitionCancel, debtorParty, models.StatusPendingConfirmation, models.StatusUnsettled}
	rejectEdge   = transition{TransitionReject, creditorParty, models.StatusPendingConfirmation, models.StatusUnsettled}
	confirmEdge  = transition{TransitionConfirm, creditorParty, models.StatusPendingConfirmation, models.StatusConfirmed}
	logEdge      = transition{TransitionLog, debtorParty, models.StatusConfirmed, models.StatusLogged}
)

// InitiateSettlement marks an unsettled debt as paid and asks the creditor to confirm.
// Only the debtor can initiate.
func (l *Ledger) InitiateSettlement(ctx context.Context, actor, debtID string) (*models.Debt, error) {
	debt, err := l.applyTransition(ctx, actor, debtID, initiateEdge, nil)
	if err != nil {
		return nil, err
	}
	l.send(ctx, &models.Notification{
		UserID:    debt.CreditorID,
		FromUser:  debt.Debtor,
		Type:      models.NotifySettlementRequested,
		Message:   fmt.Sprintf("%s marked %s for %q as paid. Please confirm.", debt.Debtor.Name(), l.money(debt.Amount), debt.TransactionDescription),
		Link:      debtLink(debt),
		RelatedID: debt.ID,
	})
	return debt, nil
}

// CancelSettlement withdraws a pending settlement. Only the debtor can cancel; the creditor
// is not notified.
func (l *Ledger) CancelSettlement(ctx context.Context, actor, debtID string) (*models.Debt, error) {
	debt, err := l.applyTransition(ctx, actor, debtID, cancelEdge, nil)
	if err != nil {
		return nil, err
	}
	l.clearNotifications(ctx, debt.CreditorID, debt.ID)
	return debt, nil
}

// RejectSettlement declines a pending settlement and returns the debt to unsettled. Only
// the creditor can reject.
func (l *Ledger) RejectSettlement(ctx context.Context, actor, debtID string) (*models.Debt, error) {
	debt, err := l.applyTransition(ctx, actor, debtID, rejectEdge, nil)
	if err != nil {
		return nil, err
	}
	l.clearNotifications(ctx, debt.CreditorID, debt.ID)
	l.send(ctx, &models.Notification{
		UserID:    debt.DebtorID,
		FromUser:  debt.Creditor,
		Type:      models.NotifySettlementRejected,
		Message:   fmt.Sprintf("%s did not receive your payment of %s for %q.", debt.Creditor.Name(), l.money(debt.Amount), debt.TransactionDescription),
		Link:      debtLink(debt),
		RelatedID: debt.ID,
	})
	return debt, nil
}

// ConfirmSettlement accepts a pending settlement. In one batch the debt becomes confirmed,
// the originating transaction's amount drops by the debt amount (never below zero) and,
// for circle debts, a confirmed settlement from debtor to creditor is recorded. Only the
// creditor can confirm.
func (l *Ledger) ConfirmSettlement(ctx context.Context, actor, debtID string) (*models.Debt, error) {
	debt, err := l.applyTransition(ctx, actor, debtID, confirmEdge, func(b batchWriter, d *models.Debt) {
		b.DecrementTransactionAmount(d.TransactionID, d.Amount)
		if d.CircleID != "" {
			b.CreateSettlement(&models.Settlement{
				CircleID:   d.CircleID,
				FromUserID: d.DebtorID,
				FromUser:   d.Debtor,
				ToUserID:   d.CreditorID,
				ToUser:     d.Creditor,
				Amount:     d.Amount,
				Status:     models.SettlementConfirmed,
				DebtID:     d.ID,
				CreatedAt:  l.now().UTC(),
			})
		}
	})
	if err != nil {
		return nil, err
	}
	l.publish(debt.CircleID, feed.TopicTransactions, feed.TopicSettlements)
	l.clearNotifications(ctx, debt.CreditorID, debt.ID)
	l.send(ctx, &models.Notification{
		UserID:    debt.DebtorID,
		FromUser:  debt.Creditor,
		Type:      models.NotifySettlementConfirmed,
		Message:   fmt.Sprintf("%s confirmed your payment of %s for %q.", debt.Creditor.Name(), l.money(debt.Amount), debt.TransactionDescription),
		Link:      debtLink(debt),
		RelatedID: debt.ID,
	})
	return debt, nil
}

// LogSettledDebtAsExpense records a confirmed debt as a personal Settlement expense of the
// debtor and closes the debt for good. Only the debtor can log.
func (l *Ledger) LogSettledDebtAsExpense(ctx context.Context, actor, debtID string) (string, error) {
	var txn *models.Transaction
	_, err := l.applyTransition(ctx, actor, debtID, logEdge, func(b batchWriter, d *models.Debt) {
		now := l.now().UTC()
		txn = &models.Transaction{
			UserID:      d.DebtorID,
			Description: fmt.Sprintf("Settlement to %s for %s", d.Creditor.Name(), d.TransactionDescription),
			Amount:      d.Amount,
			Category:    models.CategorySettlement.Name,
			Date:        now,
			CreatedAt:   now,
		}
		b.CreateTransaction(txn)
	})
	if err != nil {
		return "", err
	}
	return txn.ID, nil
}

// DeleteDebt removes a debt regardless of its status. Only the owner of the debt's circle can
// delete, and ownership is checked against the current circle record.
func (l *Ledger) DeleteDebt(ctx context.Context, actor, debtID string) (err error) {
	defer func() { l.metrics.Transition(TransitionDelete, err) }()

	debt, err := l.loadDebt(ctx, debtID)
	if err != nil {
		return err
	}
	if debt.CircleID == "" {
		return apperr.Permission("only debts inside a circle can be deleted")
	}
	circle, err := l.loadCircle(ctx, debt.CircleID)
	if err != nil {
		return err
	}
	if circle.OwnerID != actor {
		return apperr.Permission("only the circle owner can delete debts")
	}

	b := l.store.NewBatch()
	b.DeleteDebt(debt.ID)
	if err := b.Commit(ctx); err != nil {
		return apperr.FromStorage(err, "failed to delete debt")
	}

	l.publish(debt.CircleID, feed.TopicDebts)
	l.logger.Info("Debt deleted by circle owner", "debt_id", debt.ID, "circle_id", debt.CircleID, "user_id", actor)
	return nil
}

// batchWriter is the subset of storage.Batch that transition side effects use.
type batchWriter interface {
	DecrementTransactionAmount(transactionID string, amount decimal.Decimal)
	CreateSettlement(settlement *models.Settlement)
	CreateTransaction(txn *models.Transaction)
}

// applyTransition moves a debt along edge in one batch together with any extra writes. The
// status update is a compare-and-swap, so of two racing transitions from the same state
// exactly one commits and the other fails with an InvalidState error.
func (l *Ledger) applyTransition(ctx context.Context, actor, debtID string, edge transition, extra func(batchWriter, *models.Debt)) (debt *models.Debt, err error) {
	defer func() { l.metrics.Transition(edge.name, err) }()

	debt, err = l.loadDebt(ctx, debtID)
	if err != nil {
		return nil, err
	}

	switch edge.by {
	case debtorParty:
		if debt.DebtorID != actor {
			return nil, apperr.Permission("only the debtor can %s this settlement", edge.name)
		}
	case creditorParty:
		if debt.CreditorID != actor {
			return nil, apperr.Permission("only the creditor can %s this settlement", edge.name)
		}
	}

	if debt.SettlementStatus != edge.from {
		return nil, apperr.InvalidState("cannot %s a debt that is %s", edge.name, debt.SettlementStatus)
	}

	b := l.store.NewBatch()
	b.UpdateDebtStatus(debt.ID, edge.from, edge.to)
	if extra != nil {
		extra(b, debt)
	}
	if err := b.Commit(ctx); err != nil {
		l.logger.Warn("Settlement transition failed",
			"transition", edge.name,
			"debt_id", debt.ID,
			"user_id", actor,
			"error", err,
		)
		return nil, apperr.FromStorage(err, fmt.Sprintf("failed to %s settlement", edge.name))
	}

	debt.SettlementStatus = edge.to
	l.publish(debt.CircleID, feed.TopicDebts)
	l.logger.Info("Settlement transition",
		"transition", edge.name,
		"debt_id", debt.ID,
		"circle_id", debt.CircleID,
		"status", debt.SettlementStatus,
	)
	return debt, nil
}

// RequestSettlement records that actor paid toUserID amount inside a circle. The settlement
// stays pending until the receiver responds and cannot exceed what actor currently owes.
func (l *Ledger) RequestSettlement(ctx context.Context, actor, circleID, toUserID string, amount decimal.Decimal) (settlement *models.Settlement, err error) {
	defer func() { l.metrics.Transition(TransitionRequest, err) }()

	if !models.Positive(amount) {
		return nil, apperr.Validation("amount must be greater than %s", l.money(models.Epsilon))
	}
	if toUserID == actor {
		return nil, apperr.Validation("you cannot settle with yourself")
	}
	circle, err := l.memberCircle(ctx, actor, circleID)
	if err != nil {
		return nil, err
	}
	if !circle.IsMember(toUserID) {
		return nil, apperr.Validation("%s is not a member of this circle", toUserID)
	}

	balances, err := l.balancesFor(ctx, circle)
	if err != nil {
		return nil, err
	}
	// Requests still waiting on an answer already spoke for part of the balance.
	owed := calculator.Owed(balances.Net, actor)
	for _, p := range balances.Pending {
		if p.FromUserID == actor {
			owed = owed.Sub(p.Amount)
		}
	}
	if owed.IsNegative() {
		owed = decimal.Zero
	}
	if amount.Sub(owed).GreaterThan(models.Epsilon) {
		return nil, apperr.Validation("amount %s exceeds what you owe (%s)", l.money(amount), l.money(owed))
	}

	settlement = &models.Settlement{
		CircleID:   circleID,
		FromUserID: actor,
		FromUser:   circle.Members[actor],
		ToUserID:   toUserID,
		ToUser:     circle.Members[toUserID],
		Amount:     models.RoundMoney(amount),
		Status:     models.SettlementPending,
		CreatedAt:  l.now().UTC(),
	}

	b := l.store.NewBatch()
	b.CreateSettlement(settlement)
	if err := b.Commit(ctx); err != nil {
		return nil, apperr.FromStorage(err, "failed to request settlement")
	}

	l.publish(circleID, feed.TopicSettlements)
	l.send(ctx, &models.Notification{
		UserID:    toUserID,
		FromUser:  settlement.FromUser,
		Type:      models.NotifySettlementRequest,
		Message:   fmt.Sprintf("%s says they paid you %s in %s. Please confirm.", settlement.FromUser.Name(), l.money(settlement.Amount), circle.Name),
		Link:      "/circles/" + circleID,
		RelatedID: settlement.ID,
	})
	return settlement, nil
}

// RespondToSettlement confirms or rejects a pending circle settlement. Only the receiver
// can respond, and only once.
func (l *Ledger) RespondToSettlement(ctx context.Context, actor, settlementID string, accept bool) (settlement *models.Settlement, err error) {
	defer func() { l.metrics.Transition(TransitionRespond, err) }()

	if settlementID == "" {
		return nil, apperr.Validation("settlement ID is required")
	}
	settlement, err = l.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, apperr.FromStorage(err, "failed to load settlement")
	}
	if settlement.ToUserID != actor {
		return nil, apperr.Permission("only the receiver can respond to this settlement")
	}
	if settlement.Status != models.SettlementPending {
		return nil, apperr.InvalidState("settlement is already %s", settlement.Status)
	}

	to := models.SettlementRejected
	if accept {
		to = models.SettlementConfirmed
		if err := l.checkStillOwed(ctx, settlement); err != nil {
			return nil, err
		}
	}
	b := l.store.NewBatch()
	b.UpdateSettlementStatus(settlement.ID, models.SettlementPending, to)
	if err := b.Commit(ctx); err != nil {
		return nil, apperr.FromStorage(err, "failed to respond to settlement")
	}
	settlement.Status = to

	l.publish(settlement.CircleID, feed.TopicSettlements)
	l.clearNotifications(ctx, actor, settlement.ID)

	n := &models.Notification{
		UserID:    settlement.FromUserID,
		FromUser:  settlement.ToUser,
		Link:      "/circles/" + settlement.CircleID,
		RelatedID: settlement.ID,
	}
	if accept {
		n.Type = models.NotifySettlementConfirmed
		n.Message = fmt.Sprintf("%s confirmed your payment of %s.", settlement.ToUser.Name(), l.money(settlement.Amount))
	} else {
		n.Type = models.NotifySettlementRequestRejected
		n.Message = fmt.Sprintf("%s did not receive your payment of %s.", settlement.ToUser.Name(), l.money(settlement.Amount))
	}
	l.send(ctx, n)
	return settlement, nil
}

// checkStillOwed fails when confirming s would push its sender past zero, e.g. because
// another settlement or debt payment was confirmed after s was requested.
func (l *Ledger) checkStillOwed(ctx context.Context, s *models.Settlement) error {
	circle, err := l.loadCircle(ctx, s.CircleID)
	if err != nil {
		return err
	}
	balances, err := l.balancesFor(ctx, circle)
	if err != nil {
		return err
	}
	owed := calculator.Owed(balances.Net, s.FromUserID)
	if s.Amount.Sub(owed).GreaterThan(models.Epsilon) {
		return apperr.Validation("%s now owes only %s, reject this payment of %s instead",
			s.FromUser.Name(), l.money(owed), l.money(s.Amount))
	}
	return nil
}

func debtLink(d *models.Debt) string {
	if d.CircleID != "" {
		return "/circles/" + d.CircleID
	}
	return "/debts"
}
