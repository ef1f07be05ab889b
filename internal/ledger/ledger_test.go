package ledger

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/notify"
	"github.com/mmynk/splitcircle/internal/storage/sqlite"
)

var (
	alice = models.UserProfile{UID: "alice", DisplayName: "Alice", Email: "alice@example.com"}
	bob   = models.UserProfile{UID: "bob", DisplayName: "Bob", Email: "bob@example.com"}
	carol = models.UserProfile{UID: "carol", DisplayName: "Carol", Email: "carol@example.com"}
	dave  = models.UserProfile{UID: "dave", DisplayName: "Dave", Email: "dave@example.com"}
)

type testEnv struct {
	ledger *Ledger
	dbPath string
	redis  *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	store, err := sqlite.New(dbPath)
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := New(store,
		WithNotifier(notify.NewRedisNotifier(client, time.Hour)),
		WithLogger(logger),
	)

	ctx := context.Background()
	for _, p := range []models.UserProfile{alice, bob, carol, dave} {
		require.NoError(t, l.SyncProfile(ctx, p))
	}
	return &testEnv{ledger: l, dbPath: dbPath, redis: mr}
}

// flat creates a circle owned by alice with bob and carol.
func (e *testEnv) flat(t *testing.T) *models.Circle {
	t.Helper()
	circle, err := e.ledger.CreateCircle(context.Background(), alice, "Flat 4B", []string{"bob", "carol"})
	require.NoError(t, err)
	return circle
}

// dinner records alice paying amount split equally among alice, bob and carol.
func (e *testEnv) dinner(t *testing.T, circleID, amount string) *models.Transaction {
	t.Helper()
	ctx := context.Background()
	total := decimal.RequireFromString(amount)
	split, err := e.ledger.SplitEqually(ctx, alice, circleID, total, []string{"bob", "carol"})
	require.NoError(t, err)

	expense := &models.Transaction{
		UserID:      "alice",
		Description: "Dinner",
		Amount:      total,
		Category:    "food",
		CircleID:    circleID,
	}
	_, err = e.ledger.RecordSplitExpense(ctx, expense, split)
	require.NoError(t, err)
	return expense
}

func (e *testEnv) debtOf(t *testing.T, debtorID, txnID string) *models.Debt {
	t.Helper()
	debts, err := e.ledger.GetDebtsForUser(context.Background(), debtorID)
	require.NoError(t, err)
	for _, d := range debts {
		if d.DebtorID == debtorID && d.TransactionID == txnID {
			return d
		}
	}
	t.Fatalf("no debt for %s on %s", debtorID, txnID)
	return nil
}

func (e *testEnv) notificationTypes(t *testing.T, uid string) []models.NotificationType {
	t.Helper()
	notes, err := e.ledger.ListNotifications(context.Background(), uid, 50)
	require.NoError(t, err)
	types := make([]models.NotificationType, 0, len(notes))
	for _, n := range notes {
		types = append(types, n.Type)
	}
	return types
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func assertKind(t *testing.T, want apperr.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, apperr.KindOf(err), "unexpected error: %v", err)
}

func TestProfileFallsBackToTokenClaims(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.ledger.Profile(ctx, "alice", "ignored@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.DisplayName)

	p, err = env.ledger.Profile(ctx, "eve", "eve@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.UserProfile{UID: "eve", Email: "eve@example.com", DisplayName: "eve@example.com"}, p)
}

func TestSyncProfileRefreshesSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	txn := env.dinner(t, circle.ID, "300")

	renamed := bob
	renamed.DisplayName = "Robert"
	require.NoError(t, env.ledger.SyncProfile(ctx, renamed))

	got, err := env.ledger.GetCircle(ctx, "alice", circle.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robert", got.Members["bob"].DisplayName)
	assert.Equal(t, "Robert", env.debtOf(t, "bob", txn.ID).Debtor.DisplayName)

	assertKind(t, apperr.KindValidation, env.ledger.SyncProfile(ctx, models.UserProfile{UID: "x"}))
}
