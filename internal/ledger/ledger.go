// Package ledger implements the debt-splitting and settlement engine.
//
// A Ledger records split expenses as one transaction plus one debt per non-payer, drives
// debts and circle settlements through their lifecycle, reconciles expense claims and
// derives circle balances. Every write is a single storage.Batch; notifications and change
// feed events follow a successful commit and never undo it.
//
// Every error returned is an *apperr.Error.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/feed"
	"github.com/mmynk/splitcircle/internal/metrics"
	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/notify"
	"github.com/mmynk/splitcircle/internal/storage"
)

// Ledger is the engine. It is safe for concurrent use.
type Ledger struct {
	store    storage.Store
	notifier notify.Notifier
	feed     *feed.Broker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
	currency string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithNotifier sets the notification side channel. Defaults to notify.Nop().
func WithNotifier(n notify.Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// WithFeed sets the change feed broker. Defaults to a private broker.
func WithFeed(b *feed.Broker) Option {
	return func(l *Ledger) { l.feed = b }
}

// WithMetrics sets the metrics sink. Nil records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithCurrencySymbol sets the symbol used in notification messages.
func WithCurrencySymbol(symbol string) Option {
	return func(l *Ledger) { l.currency = symbol }
}

// New creates a Ledger over store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		notifier: notify.Nop(),
		logger:   slog.Default(),
		now:      time.Now,
		currency: "₹",
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.feed == nil {
		l.feed = feed.NewBroker(l.logger)
	}
	l.logger = l.logger.With("component", "ledger")
	return l
}

// Profile returns the directory entry for uid. Users that never synced a profile get a
// minimal one built from the token claims.
func (l *Ledger) Profile(ctx context.Context, uid, email string) (models.UserProfile, error) {
	p, err := l.store.GetUserProfile(ctx, uid)
	if err == nil {
		return *p, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.UserProfile{}, apperr.FromStorage(err, "failed to load profile")
	}
	return models.UserProfile{UID: uid, Email: email, DisplayName: email}, nil
}

// ListNotifications returns uid's notifications, newest first.
func (l *Ledger) ListNotifications(ctx context.Context, uid string, limit int) ([]*models.Notification, error) {
	notes, err := l.notifier.List(ctx, uid, limit)
	if err != nil {
		return nil, apperr.New(apperr.KindUnexpected, "failed to list notifications", err)
	}
	return notes, nil
}

// send hands n to the notifier. Failures are logged and counted only.
func (l *Ledger) send(ctx context.Context, n *models.Notification) {
	err := l.notifier.Notify(context.WithoutCancel(ctx), n)
	l.metrics.Notification(string(n.Type), err)
	if err != nil {
		l.logger.Warn("Failed to send notification",
			"type", n.Type,
			"user_id", n.UserID,
			"related_id", n.RelatedID,
			"error", err,
		)
	}
}

// clearNotifications removes uid's notifications about relatedID. Failures are logged only.
func (l *Ledger) clearNotifications(ctx context.Context, uid, relatedID string) {
	if err := l.notifier.DeleteRelated(context.WithoutCancel(ctx), uid, relatedID); err != nil {
		l.logger.Warn("Failed to clear notifications",
			"user_id", uid,
			"related_id", relatedID,
			"error", err,
		)
	}
}

// publish announces committed changes for a circle. Records outside a circle have no feed.
func (l *Ledger) publish(circleID string, topics ...feed.Topic) {
	if circleID == "" {
		return
	}
	events := make([]feed.Event, len(topics))
	for i, t := range topics {
		events[i] = feed.Event{CircleID: circleID, Topic: t}
	}
	l.feed.Publish(events...)
}

func (l *Ledger) money(amount decimal.Decimal) string {
	return l.currency + amount.StringFixed(2)
}
