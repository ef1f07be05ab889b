package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClaimStatus is the state of an ExpenseClaim. Only pending claims can change.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimAccepted ClaimStatus = "accepted"
	ClaimRejected ClaimStatus = "rejected"
)

// ExpenseClaim asks PayerID to confirm an expense that the claimer logged on their behalf.
type ExpenseClaim struct {
	ID             string         `json:"id"`
	ClaimerID      string         `json:"claimerId"`
	ClaimerProfile UserProfile    `json:"claimerProfile"`
	PayerID        string         `json:"payerId"`
	ExpenseDetails ExpenseDetails `json:"expenseDetails"`
	Status         ClaimStatus    `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ExpenseDetails is the expense a claim will turn into once accepted.
type ExpenseDetails struct {
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	Date         time.Time       `json:"date"`
	CircleID     string          `json:"circleId,omitempty"`
	SplitDetails SplitDetails    `json:"splitDetails"`
}
