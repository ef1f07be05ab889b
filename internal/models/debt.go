package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatus is the lifecycle state of a Debt.
type SettlementStatus string

const (
	StatusUnsettled           SettlementStatus = "unsettled"
	StatusPendingConfirmation SettlementStatus = "pending_confirmation"
	StatusConfirmed           SettlementStatus = "confirmed"
	StatusLogged              SettlementStatus = "logged"
)

// Valid reports whether s is a known status.
func (s SettlementStatus) Valid() bool {
	switch s {
	case StatusUnsettled, StatusPendingConfirmation, StatusConfirmed, StatusLogged:
		return true
	}
	return false
}

// NormalizeStatus resolves the stored status of a possibly legacy record.
// Legacy debts carry only a boolean isSettled flag.
func NormalizeStatus(status string, isSettled bool) SettlementStatus {
	if s := SettlementStatus(status); s.Valid() {
		return s
	}
	if isSettled {
		return StatusConfirmed
	}
	return StatusUnsettled
}

// Debt is money a debtor owes a creditor for one split expense.
type Debt struct {
	// ID is the unique identifier for the debt (UUID format).
	ID string `json:"id"`

	// CircleID is empty for debts between friends outside a circle.
	CircleID string `json:"circleId,omitempty"`

	TransactionID          string `json:"transactionId"`
	TransactionDescription string `json:"transactionDescription"`

	DebtorID string      `json:"debtorId"`
	Debtor   UserProfile `json:"debtor"`

	CreditorID string      `json:"creditorId"`
	Creditor   UserProfile `json:"creditor"`

	Amount decimal.Decimal `json:"amount"`

	SettlementStatus SettlementStatus `json:"settlementStatus"`

	CreatedAt time.Time `json:"createdAt"`

	// InvolvedUIDs is always [DebtorID, CreditorID].
	InvolvedUIDs []string `json:"involvedUids"`
}

// Involves reports whether uid is the debtor or the creditor.
func (d *Debt) Involves(uid string) bool {
	return d.DebtorID == uid || d.CreditorID == uid
}
