// Package notify stores counterparty notifications produced by ledger transitions.
//
// Delivery is fire-and-forget from the ledger's point of view: callers log a failed Notify
// and carry on, a notification never rolls back a ledger write.
package notify

import (
	"context"

	"github.com/mmynk/splitcircle/internal/models"
)

// Notifier persists notifications for later retrieval by their recipient.
type Notifier interface {
	// Notify stores n. ID and CreatedAt are assigned when empty.
	Notify(ctx context.Context, n *models.Notification) error

	// DeleteRelated removes userID's notifications that point at relatedID.
	DeleteRelated(ctx context.Context, userID, relatedID string) error

	// List returns userID's notifications, newest first, at most limit of them.
	List(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
}

// Nop returns a Notifier that drops everything.
func Nop() Notifier {
	return nop{}
}

type nop struct{}

func (nop) Notify(context.Context, *models.Notification) error { return nil }

func (nop) DeleteRelated(context.Context, string, string) error { return nil }

func (nop) List(context.Context, string, int) ([]*models.Notification, error) { return nil, nil }
