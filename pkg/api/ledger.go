package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordSplitExpenseRequest records an expense the caller paid, split equally between the
// caller and SplitWith.
type RecordSplitExpenseRequest struct {
	CircleID           string          `json:"circleId,omitempty"`
	Description        string          `json:"description" validate:"required,max=200"`
	Amount             decimal.Decimal `json:"amount"`
	Category           string          `json:"category,omitempty" validate:"omitempty,max=40"`
	CategoryColor      string          `json:"categoryColor,omitempty" validate:"omitempty,hexcolor"`
	Date               *time.Time      `json:"date,omitempty"`
	RecurringExpenseID string          `json:"recurringExpenseId,omitempty"`
	SplitWith          []string        `json:"splitWith" validate:"required,min=1,dive,required"`
}

type RecordSplitExpenseResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type GetCircleDebtsRequest struct {
	CircleID string `json:"circleId" validate:"required"`
}

type GetCircleDebtsResponse struct {
	Debts []*Debt `json:"debts"`
}

type GetMyDebtsRequest struct{}

type GetMyDebtsResponse struct {
	Debts []*Debt `json:"debts"`
}

// DebtRequest names the debt for a settlement transition.
type DebtRequest struct {
	DebtID string `json:"debtId" validate:"required"`
}

type DebtResponse struct {
	Debt *Debt `json:"debt"`
}

type LogSettledDebtResponse struct {
	TransactionID string `json:"transactionId"`
}

type DeleteDebtResponse struct{}

// CreateExpenseClaimRequest asks PayerID to confirm that they paid for an expense split
// equally between PayerID and SplitWith.
type CreateExpenseClaimRequest struct {
	PayerID       string          `json:"payerId" validate:"required"`
	CircleID      string          `json:"circleId,omitempty"`
	Description   string          `json:"description" validate:"required,max=200"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category,omitempty" validate:"omitempty,max=40"`
	CategoryColor string          `json:"categoryColor,omitempty" validate:"omitempty,hexcolor"`
	Date          *time.Time      `json:"date,omitempty"`
	SplitWith     []string        `json:"splitWith" validate:"required,min=1,dive,required"`
}

type CreateExpenseClaimResponse struct {
	Claim *ExpenseClaim `json:"claim"`
}

type ClaimRequest struct {
	ClaimID string `json:"claimId" validate:"required"`
}

type AcceptExpenseClaimResponse struct {
	TransactionID string `json:"transactionId"`
}

type RejectExpenseClaimResponse struct{}

type ListPendingClaimsRequest struct{}

type ListPendingClaimsResponse struct {
	Claims []*ExpenseClaim `json:"claims"`
}

type ListNotificationsRequest struct {
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

type ListNotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
}
