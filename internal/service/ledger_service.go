package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitcircle/internal/ledger"
	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/pkg/api"
	"github.com/mmynk/splitcircle/pkg/api/apiconnect"
)

// LedgerService implements the Connect LedgerService: split expenses, debts and their
// settlement, expense claims and notifications.
type LedgerService struct {
	ledger   *ledger.Ledger
	validate *validator.Validate
	logger   *slog.Logger
}

var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

// NewLedgerService creates a LedgerService backed by l.
func NewLedgerService(l *ledger.Ledger, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		ledger:   l,
		validate: newValidator(),
		logger:   logger.With("service", "ledger"),
	}
}

// RecordSplitExpense records an expense the caller paid, split equally.
func (s *LedgerService) RecordSplitExpense(ctx context.Context, req *connect.Request[api.RecordSplitExpenseRequest]) (*connect.Response[api.RecordSplitExpenseResponse], error) {
	msg := req.Msg
	if err := s.validate.Struct(msg); err != nil {
		return nil, validationError(err)
	}
	payer, err := callerProfile(ctx, s.ledger)
	if err != nil {
		return nil, err
	}
	category, err := resolveCategory(msg.Category, msg.CategoryColor)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("RecordSplitExpense request received",
		"circle_id", msg.CircleID,
		"amount", msg.Amount.String(),
		"split_with", msg.SplitWith,
	)

	split, err := s.ledger.SplitEqually(ctx, payer, msg.CircleID, msg.Amount, msg.SplitWith)
	if err != nil {
		return nil, toConnectError(err)
	}
	expense := &models.Transaction{
		UserID:             payer.UID,
		Description:        msg.Description,
		Amount:             msg.Amount,
		Category:           category,
		Date:               dateOrZero(msg.Date),
		RecurringExpenseID: msg.RecurringExpenseID,
		CircleID:           msg.CircleID,
	}
	if _, err := s.ledger.RecordSplitExpense(ctx, expense, split); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.RecordSplitExpenseResponse{
		Transaction: toAPITransaction(expense),
	}), nil
}

// GetCircleDebts lists the caller's debts in a circle.
func (s *LedgerService) GetCircleDebts(ctx context.Context, req *connect.Request[api.GetCircleDebtsRequest]) (*connect.Response[api.GetCircleDebtsResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	debts, err := s.ledger.GetDebtsForCircle(ctx, req.Msg.CircleID, uid)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetCircleDebtsResponse{Debts: toAPIDebts(debts)}), nil
}

// GetMyDebts lists every debt the caller is part of.
func (s *LedgerService) GetMyDebts(ctx context.Context, req *connect.Request[api.GetMyDebtsRequest]) (*connect.Response[api.GetMyDebtsResponse], error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	debts, err := s.ledger.GetDebtsForUser(ctx, uid)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetMyDebtsResponse{Debts: toAPIDebts(debts)}), nil
}

// InitiateSettlement marks a debt as paid by the debtor.
func (s *LedgerService) InitiateSettlement(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return s.transition(ctx, req.Msg, s.ledger.InitiateSettlement)
}

// CancelSettlement withdraws the debtor's payment claim.
func (s *LedgerService) CancelSettlement(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return s.transition(ctx, req.Msg, s.ledger.CancelSettlement)
}

// RejectSettlement is the creditor saying they were not paid.
func (s *LedgerService) RejectSettlement(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return s.transition(ctx, req.Msg, s.ledger.RejectSettlement)
}

// ConfirmSettlement is the creditor confirming payment.
func (s *LedgerService) ConfirmSettlement(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DebtResponse], error) {
	return s.transition(ctx, req.Msg, s.ledger.ConfirmSettlement)
}

func (s *LedgerService) transition(ctx context.Context, msg *api.DebtRequest, apply func(context.Context, string, string) (*models.Debt, error)) (*connect.Response[api.DebtResponse], error) {
	if err := s.validate.Struct(msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	debt, err := apply(ctx, uid, msg.DebtID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.DebtResponse{Debt: toAPIDebt(debt)}), nil
}

// LogSettledDebt records a confirmed debt as a personal transaction of the debtor.
func (s *LedgerService) LogSettledDebt(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.LogSettledDebtResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.ledger.LogSettledDebtAsExpense(ctx, uid, req.Msg.DebtID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.LogSettledDebtResponse{TransactionID: id}), nil
}

// DeleteDebt removes a debt and its share of the source split.
func (s *LedgerService) DeleteDebt(ctx context.Context, req *connect.Request[api.DebtRequest]) (*connect.Response[api.DeleteDebtResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteDebt(ctx, uid, req.Msg.DebtID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.DeleteDebtResponse{}), nil
}

// CreateExpenseClaim asks another user to confirm they paid for an expense.
func (s *LedgerService) CreateExpenseClaim(ctx context.Context, req *connect.Request[api.CreateExpenseClaimRequest]) (*connect.Response[api.CreateExpenseClaimResponse], error) {
	msg := req.Msg
	if err := s.validate.Struct(msg); err != nil {
		return nil, validationError(err)
	}
	claimer, err := callerProfile(ctx, s.ledger)
	if err != nil {
		return nil, err
	}
	category, err := resolveCategory(msg.Category, msg.CategoryColor)
	if err != nil {
		return nil, err
	}

	payer, err := s.ledger.Profile(ctx, msg.PayerID, "")
	if err != nil {
		return nil, toConnectError(err)
	}
	split, err := s.ledger.SplitEqually(ctx, payer, msg.CircleID, msg.Amount, msg.SplitWith)
	if err != nil {
		return nil, toConnectError(err)
	}
	claim, err := s.ledger.CreateExpenseClaim(ctx, claimer, msg.PayerID, models.ExpenseDetails{
		Description:  msg.Description,
		Amount:       msg.Amount,
		Category:     category,
		Date:         dateOrZero(msg.Date),
		CircleID:     msg.CircleID,
		SplitDetails: split,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.CreateExpenseClaimResponse{Claim: toAPIClaim(claim)}), nil
}

// AcceptExpenseClaim turns a claim into a split expense owned by the caller.
func (s *LedgerService) AcceptExpenseClaim(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.AcceptExpenseClaimResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.ledger.AcceptExpenseClaim(ctx, uid, req.Msg.ClaimID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.AcceptExpenseClaimResponse{TransactionID: id}), nil
}

// RejectExpenseClaim declines a claim.
func (s *LedgerService) RejectExpenseClaim(ctx context.Context, req *connect.Request[api.ClaimRequest]) (*connect.Response[api.RejectExpenseClaimResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.RejectExpenseClaim(ctx, uid, req.Msg.ClaimID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.RejectExpenseClaimResponse{}), nil
}

// ListPendingClaims lists claims waiting on the caller.
func (s *LedgerService) ListPendingClaims(ctx context.Context, req *connect.Request[api.ListPendingClaimsRequest]) (*connect.Response[api.ListPendingClaimsResponse], error) {
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	claims, err := s.ledger.ListPendingClaims(ctx, uid)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListPendingClaimsResponse{Claims: toAPIClaims(claims)}), nil
}

// ListNotifications returns the caller's notifications, newest first.
func (s *LedgerService) ListNotifications(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	if err := s.validate.Struct(req.Msg); err != nil {
		return nil, validationError(err)
	}
	uid, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	limit := req.Msg.Limit
	if limit == 0 {
		limit = 50
	}
	notes, err := s.ledger.ListNotifications(ctx, uid, limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListNotificationsResponse{Notifications: toAPINotifications(notes)}), nil
}
