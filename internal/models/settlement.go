package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecordStatus is the state of a circle Settlement.
type SettlementRecordStatus string

const (
	SettlementPending   SettlementRecordStatus = "pending"
	SettlementConfirmed SettlementRecordStatus = "confirmed"
	SettlementRejected  SettlementRecordStatus = "rejected"
)

// Settlement represents a repayment between circle members.
// Only confirmed settlements count towards balances.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// CircleID is the circle this settlement belongs to.
	CircleID string `json:"circleId"`

	// FromUserID is the member who paid (debtor settling up).
	FromUserID string      `json:"fromUserId"`
	FromUser   UserProfile `json:"fromUser"`

	// ToUserID is the member who received the payment.
	ToUserID string      `json:"toUserId"`
	ToUser   UserProfile `json:"toUser"`

	Amount decimal.Decimal `json:"amount"`

	Status SettlementRecordStatus `json:"status"`

	// DebtID is set when the settlement was produced by confirming a debt.
	DebtID string `json:"debtId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
