package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitcircle/internal/models"
)

// Ensure RedisNotifier implements Notifier
var _ Notifier = (*RedisNotifier)(nil)

// RedisNotifier keeps notifications in Redis.
//
// Layout:
//
//	notification:<id>                       JSON document, expires after ttl
//	notifications:<uid>                     sorted set of ids scored by creation time (ms)
//	notifications:<uid>:related:<relatedID> set of ids pointing at relatedID
type RedisNotifier struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisNotifier wraps an existing client. A zero ttl keeps notifications forever.
func NewRedisNotifier(client *redis.Client, ttl time.Duration) *RedisNotifier {
	return &RedisNotifier{client: client, ttl: ttl, now: time.Now}
}

// Connect parses a redis:// URL, pings the server and returns a notifier on it.
func Connect(ctx context.Context, url, password string, db int, ttl time.Duration) (*RedisNotifier, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("notify: invalid redis URL: %w", err)
	}
	if password != "" {
		opt.Password = password
	}
	if db != 0 {
		opt.DB = db
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("notify: redis connection failed: %w", err)
	}
	return NewRedisNotifier(client, ttl), nil
}

// Close closes the underlying client.
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}

func docKey(id string) string { return "notification:" + id }

func userKey(uid string) string { return "notifications:" + uid }

func relatedKey(uid, relatedID string) string {
	return "notifications:" + uid + ":related:" + relatedID
}

// Notify stores n and indexes it for its recipient.
func (r *RedisNotifier) Notify(ctx context.Context, n *models.Notification) error {
	if n.UserID == "" {
		return errors.New("notify: notification has no recipient")
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now().UTC()
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal failed: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, docKey(n.ID), data, r.ttl)
		pipe.ZAdd(ctx, userKey(n.UserID), redis.Z{
			Score:  float64(n.CreatedAt.UnixMilli()),
			Member: n.ID,
		})
		if n.RelatedID != "" {
			pipe.SAdd(ctx, relatedKey(n.UserID, n.RelatedID), n.ID)
		}
		// Index keys expire together with their newest document.
		if r.ttl > 0 {
			pipe.Expire(ctx, userKey(n.UserID), r.ttl)
			if n.RelatedID != "" {
				pipe.Expire(ctx, relatedKey(n.UserID, n.RelatedID), r.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("notify: store failed: %w", err)
	}
	return nil
}

// DeleteRelated removes every notification of userID that points at relatedID.
func (r *RedisNotifier) DeleteRelated(ctx context.Context, userID, relatedID string) error {
	key := relatedKey(userID, relatedID)
	ids, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("notify: lookup failed: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, docKey(id))
			pipe.ZRem(ctx, userKey(userID), id)
		}
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("notify: delete failed: %w", err)
	}
	return nil
}

// List returns userID's notifications, newest first. Expired documents are pruned from the
// index as they are found.
func (r *RedisNotifier) List(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := r.client.ZRevRange(ctx, userKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("notify: list failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}
	docs, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("notify: fetch failed: %w", err)
	}

	var out []*models.Notification
	var expired []interface{}
	for i, doc := range docs {
		raw, ok := doc.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		n := &models.Notification{}
		if err := json.Unmarshal([]byte(raw), n); err != nil {
			return nil, fmt.Errorf("notify: unmarshal failed: %w", err)
		}
		out = append(out, n)
	}

	if len(expired) > 0 {
		if err := r.client.ZRem(ctx, userKey(userID), expired...).Err(); err != nil {
			return nil, fmt.Errorf("notify: prune failed: %w", err)
		}
	}
	return out, nil
}
