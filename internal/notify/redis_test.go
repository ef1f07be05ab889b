package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitcircle/internal/models"
)

func newTestNotifier(t *testing.T, ttl time.Duration) (*RedisNotifier, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisNotifier(client, ttl), mr
}

func TestRedisNotifier_NotifyAndList(t *testing.T) {
	n, _ := newTestNotifier(t, 0)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	first := &models.Notification{UserID: "alice", Type: models.NotifySettlementRequested, Message: "first", CreatedAt: base}
	second := &models.Notification{UserID: "alice", Type: models.NotifyExpenseClaim, Message: "second", CreatedAt: base.Add(time.Minute)}
	other := &models.Notification{UserID: "bob", Type: models.NotifyClaimAccepted, Message: "for bob"}

	for _, note := range []*models.Notification{first, second, other} {
		require.NoError(t, n.Notify(ctx, note))
		assert.NotEmpty(t, note.ID)
	}

	got, err := n.List(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Message)
	assert.Equal(t, "first", got[1].Message)

	got, err = n.List(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)

	got, err = n.List(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisNotifier_DeleteRelated(t *testing.T) {
	n, _ := newTestNotifier(t, 0)
	ctx := context.Background()

	claim := &models.Notification{UserID: "alice", Type: models.NotifyExpenseClaim, RelatedID: "claim-1"}
	keep := &models.Notification{UserID: "alice", Type: models.NotifySettlementRequested, RelatedID: "debt-9"}
	require.NoError(t, n.Notify(ctx, claim))
	require.NoError(t, n.Notify(ctx, keep))

	require.NoError(t, n.DeleteRelated(ctx, "alice", "claim-1"))

	got, err := n.List(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, keep.ID, got[0].ID)

	// Deleting again is a no-op.
	assert.NoError(t, n.DeleteRelated(ctx, "alice", "claim-1"))
}

func TestRedisNotifier_ExpiredDocumentsArePruned(t *testing.T) {
	n, mr := newTestNotifier(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, &models.Notification{UserID: "alice", Message: "old"}))
	mr.FastForward(2 * time.Hour)

	got, err := n.List(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	members, err := mr.ZMembers(userKey("alice"))
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestRedisNotifier_IndexKeysExpire(t *testing.T) {
	n, mr := newTestNotifier(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, &models.Notification{UserID: "alice", RelatedID: "debt-1", Message: "old"}))
	assert.Equal(t, time.Hour, mr.TTL(userKey("alice")))
	assert.Equal(t, time.Hour, mr.TTL(relatedKey("alice", "debt-1")))

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists(userKey("alice")))
	assert.False(t, mr.Exists(relatedKey("alice", "debt-1")))
}

func TestRedisNotifier_NoTTLKeepsIndexKeys(t *testing.T) {
	n, mr := newTestNotifier(t, 0)
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, &models.Notification{UserID: "alice", RelatedID: "debt-1"}))
	mr.FastForward(24 * time.Hour)
	assert.True(t, mr.Exists(userKey("alice")))
	assert.True(t, mr.Exists(relatedKey("alice", "debt-1")))
}

func TestRedisNotifier_RequiresRecipient(t *testing.T) {
	n, _ := newTestNotifier(t, 0)
	assert.Error(t, n.Notify(context.Background(), &models.Notification{Message: "orphan"}))
}

func TestRedisNotifier_ServerDown(t *testing.T) {
	n, mr := newTestNotifier(t, 0)
	mr.Close()
	assert.Error(t, n.Notify(context.Background(), &models.Notification{UserID: "alice"}))
}
