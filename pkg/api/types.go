package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amounts are decimals encoded as JSON strings ("12.50").

type Profile struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Username    string `json:"username,omitempty"`
}

type SplitMember struct {
	Profile
	Share   decimal.Decimal `json:"share"`
	IsPayer bool            `json:"isPayer"`
}

type Split struct {
	Type    string          `json:"type"`
	Total   decimal.Decimal `json:"total"`
	PayerID string          `json:"payerId"`
	Members []SplitMember   `json:"members"`
}

type Transaction struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"userId"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	Category           string          `json:"category"`
	Date               time.Time       `json:"date"`
	RecurringExpenseID string          `json:"recurringExpenseId,omitempty"`
	IsSplit            bool            `json:"isSplit"`
	CircleID           string          `json:"circleId,omitempty"`
	Split              *Split          `json:"split,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// Debt status is one of unsettled, pending_confirmation, confirmed or logged.
type Debt struct {
	ID                     string          `json:"id"`
	CircleID               string          `json:"circleId,omitempty"`
	TransactionID          string          `json:"transactionId"`
	TransactionDescription string          `json:"transactionDescription"`
	Debtor                 Profile         `json:"debtor"`
	Creditor               Profile         `json:"creditor"`
	Amount                 decimal.Decimal `json:"amount"`
	Status                 string          `json:"status"`
	CreatedAt              time.Time       `json:"createdAt"`
}

type Circle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Members   []Profile `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

// Settlement status is one of pending, confirmed or rejected.
type Settlement struct {
	ID        string          `json:"id"`
	CircleID  string          `json:"circleId"`
	From      Profile         `json:"from"`
	To        Profile         `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	DebtID    string          `json:"debtId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ExpenseClaim struct {
	ID          string          `json:"id"`
	Claimer     Profile         `json:"claimer"`
	PayerID     string          `json:"payerId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	CircleID    string          `json:"circleId,omitempty"`
	Split       Split           `json:"split"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Notification struct {
	ID        string    `json:"id"`
	FromUser  Profile   `json:"fromUser"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	RelatedID string    `json:"relatedId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Balance is a member's signed net position: positive is owed, negative owes.
type Balance struct {
	Member Profile         `json:"member"`
	Net    decimal.Decimal `json:"net"`
}

type Transfer struct {
	From   Profile         `json:"from"`
	To     Profile         `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}
