// Package feed is an in-process change feed keyed by circle and topic.
//
// Publishers announce that something changed; subscribers re-read whatever they need.
// Events carry no payload, so a slow subscriber only ever has one pending wake-up: bursts of
// commits collapse into a single delivery.
package feed

import (
	"context"
	"log/slog"
	"sync"
)

// Topic names the kind of record that changed.
type Topic string

const (
	TopicTransactions Topic = "transactions"
	TopicSettlements  Topic = "settlements"
	TopicDebts        Topic = "debts"
	TopicCircle       Topic = "circle"
)

// Event says that records of Topic in CircleID changed.
type Event struct {
	CircleID string
	Topic    Topic
}

// Handler runs on the subscription's own goroutine, never concurrently with itself.
type Handler func(ctx context.Context, e Event)

type subscription struct {
	id      uint64
	handler Handler
	wake    chan Event
	done    chan struct{}
	once    sync.Once
}

// Broker fans events out to subscribers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[Event]map[uint64]*subscription
	nextID uint64
	logger *slog.Logger
}

// NewBroker creates an empty broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subs:   make(map[Event]map[uint64]*subscription),
		logger: logger.With("component", "feed"),
	}
}

// Subscribe registers h for changes of topic in circleID and returns the function that
// cancels it. Unsubscribing is idempotent and safe to call from inside h.
func (b *Broker) Subscribe(circleID string, topic Topic, h Handler) (unsubscribe func()) {
	key := Event{CircleID: circleID, Topic: topic}

	b.mu.Lock()
	b.nextID++
	sub := &subscription{
		id:      b.nextID,
		handler: h,
		wake:    make(chan Event, 1),
		done:    make(chan struct{}),
	}
	if b.subs[key] == nil {
		b.subs[key] = make(map[uint64]*subscription)
	}
	b.subs[key][sub.id] = sub
	b.mu.Unlock()

	go b.run(sub)

	return func() {
		sub.once.Do(func() {
			b.mu.Lock()
			delete(b.subs[key], sub.id)
			if len(b.subs[key]) == 0 {
				delete(b.subs, key)
			}
			b.mu.Unlock()
			close(sub.done)
		})
	}
}

// Publish wakes every subscriber of the given events. It never blocks on a subscriber.
func (b *Broker) Publish(events ...Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range events {
		for _, sub := range b.subs[e] {
			select {
			case sub.wake <- e:
			default:
				// A wake-up is already pending.
			}
		}
	}
}

// Subscribers returns how many subscriptions are registered for topic in circleID.
func (b *Broker) Subscribers(circleID string, topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[Event{CircleID: circleID, Topic: topic}])
}

func (b *Broker) run(sub *subscription) {
	for {
		select {
		case <-sub.done:
			return
		case e := <-sub.wake:
			b.deliver(sub, e)
		}
	}
}

func (b *Broker) deliver(sub *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic recovered in feed handler", "circle_id", e.CircleID, "topic", e.Topic, "panic", r)
		}
	}()
	select {
	case <-sub.done:
		return
	default:
	}
	sub.handler(context.Background(), e)
}
