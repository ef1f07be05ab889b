package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitTypeEqually is the only split type the ledger records.
const SplitTypeEqually = "equally"

// Transaction is an expense record.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string `json:"id"`

	// UserID owns the record: the person who logged it. For direct split recording this is
	// also the payer; accepted claims produce transactions owned by the payer.
	UserID string `json:"userId"`

	Description string `json:"description"`

	// Amount is non-negative. Confirming a settlement against this transaction lowers it,
	// floored at zero.
	Amount decimal.Decimal `json:"amount"`

	// Category is the category name (see ParseCategory).
	Category string `json:"category"`

	// Date is when the expense happened.
	Date time.Time `json:"date"`

	// RecurringExpenseID links a transaction generated from a recurring expense.
	RecurringExpenseID string `json:"recurringExpenseId,omitempty"`

	// IsSplit marks a transaction that carries SplitDetails.
	IsSplit bool `json:"isSplit"`

	// CircleID is empty for personal or friend-to-friend transactions.
	CircleID string `json:"circleId,omitempty"`

	SplitDetails *SplitDetails `json:"splitDetails,omitempty"`

	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"createdAt"`
}

// SplitDetails describes how a split transaction was divided.
//
// Exactly one member is the payer and that member's UID equals PayerID. The payer's own share
// is implicit (Total minus the other shares) and never becomes a debt.
type SplitDetails struct {
	Type    string          `json:"type"`
	Total   decimal.Decimal `json:"total"`
	PayerID string          `json:"payerId"`
	Members []SplitMember   `json:"members"`
}

// SplitMember is a member's part of a split.
type SplitMember struct {
	UserProfile

	// Share is the amount this member owes for the expense.
	Share decimal.Decimal `json:"share"`

	IsPayer bool `json:"isPayer"`
}

// Payer returns the payer entry, or false when none is marked.
func (s *SplitDetails) Payer() (SplitMember, bool) {
	for _, m := range s.Members {
		if m.IsPayer {
			return m, true
		}
	}
	return SplitMember{}, false
}

// OthersTotal sums the shares of every non-payer member.
func (s *SplitDetails) OthersTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range s.Members {
		if !m.IsPayer {
			sum = sum.Add(m.Share)
		}
	}
	return sum
}
