package ledger

import (
	"context"
	"sync"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/feed"
	"github.com/mmynk/splitcircle/internal/models"
)

// WatchCircleTransactions calls onChange with the circle's transactions now and again after
// every committed change to them. Call the returned function to stop.
//
// Once actor can no longer see the circle, because they left or it was deleted, updates end
// and onError receives the reason. onError may be nil.
func (l *Ledger) WatchCircleTransactions(ctx context.Context, actor, circleID string, onChange func([]*models.Transaction), onError func(error)) (func(), error) {
	if _, err := l.memberCircle(ctx, actor, circleID); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) ([]*models.Transaction, error) {
		if _, err := l.memberCircle(ctx, actor, circleID); err != nil {
			return nil, err
		}
		txns, err := l.store.ListCircleTransactions(ctx, circleID)
		if err != nil {
			return nil, apperr.FromStorage(err, "failed to load circle transactions")
		}
		return txns, nil
	}
	return watch(ctx, l, circleID, []feed.Topic{feed.TopicTransactions, feed.TopicCircle}, load, onChange, onError)
}

// WatchCircleSettlements calls onChange with the circle's settlements now and again after
// every committed change to them. It ends like WatchCircleTransactions.
func (l *Ledger) WatchCircleSettlements(ctx context.Context, actor, circleID string, onChange func([]*models.Settlement), onError func(error)) (func(), error) {
	if _, err := l.memberCircle(ctx, actor, circleID); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) ([]*models.Settlement, error) {
		if _, err := l.memberCircle(ctx, actor, circleID); err != nil {
			return nil, err
		}
		settlements, err := l.store.ListCircleSettlements(ctx, circleID)
		if err != nil {
			return nil, apperr.FromStorage(err, "failed to load circle settlements")
		}
		return settlements, nil
	}
	return watch(ctx, l, circleID, []feed.Topic{feed.TopicSettlements, feed.TopicCircle}, load, onChange, onError)
}

// WatchCircleBalances calls onChange with fresh balances now and after every change that can
// move them. It ends like WatchCircleTransactions.
func (l *Ledger) WatchCircleBalances(ctx context.Context, actor, circleID string, onChange func(*Balances), onError func(error)) (func(), error) {
	if _, err := l.memberCircle(ctx, actor, circleID); err != nil {
		return nil, err
	}
	load := func(ctx context.Context) (*Balances, error) {
		return l.CircleBalances(ctx, actor, circleID)
	}
	topics := []feed.Topic{feed.TopicTransactions, feed.TopicSettlements, feed.TopicDebts, feed.TopicCircle}
	return watch(ctx, l, circleID, topics, load, onChange, onError)
}

// endsWatch reports whether a refresh error means the watcher lost access for good.
func endsWatch(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindPermission, apperr.KindNotFound:
		return true
	}
	return false
}

// watch subscribes before taking the first snapshot so no commit between the two is missed.
// onChange is never called concurrently with itself and neither callback may call the
// returned stop. onError is called at most once, after the last onChange.
func watch[T any](ctx context.Context, l *Ledger, circleID string, topics []feed.Topic, load func(context.Context) (T, error), onChange func(T), onError func(error)) (func(), error) {
	var mu sync.Mutex
	stopped := false

	// Loads are serialized too, so an older snapshot never lands after a newer one.
	refresh := func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return nil
		}
		snapshot, err := load(ctx)
		if err != nil {
			if endsWatch(err) {
				stopped = true
			}
			return err
		}
		onChange(snapshot)
		return nil
	}

	unsubscribes := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubscribes = append(unsubscribes, l.feed.Subscribe(circleID, topic, func(ctx context.Context, e feed.Event) {
			err := refresh(ctx)
			if err == nil {
				return
			}
			if !endsWatch(err) {
				l.logger.Warn("Failed to refresh circle feed", "circle_id", circleID, "topic", e.Topic, "error", err)
				return
			}
			l.logger.Info("Circle watch ended", "circle_id", circleID, "reason", err)
			if onError != nil {
				onError(err)
			}
		}))
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			for _, unsubscribe := range unsubscribes {
				unsubscribe()
			}
			mu.Lock()
			stopped = true
			mu.Unlock()
		})
	}

	if err := refresh(ctx); err != nil {
		stop()
		return nil, err
	}
	return stop, nil
}
