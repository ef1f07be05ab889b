package models

import "time"

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotifySettlementRequested       NotificationType = "settlement_requested"
	NotifySettlementRejected        NotificationType = "settlement_rejected"
	NotifySettlementConfirmed       NotificationType = "settlement_confirmed"
	NotifyExpenseClaim              NotificationType = "expense_claim"
	NotifyClaimAccepted             NotificationType = "claim_accepted"
	NotifyClaimRejected             NotificationType = "claim_rejected"
	NotifySettlementRequest         NotificationType = "settlement_request"
	NotifySettlementRequestRejected NotificationType = "settlement_request_rejected"
)

// Notification is a message for UserID about a counterparty action.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	FromUser  UserProfile      `json:"fromUser"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Link      string           `json:"link"`
	RelatedID string           `json:"relatedId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
