package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func profile(uid, name string) models.UserProfile {
	return models.UserProfile{UID: uid, DisplayName: name, Email: uid + "@example.com"}
}

func seedCircle(t *testing.T, store *SQLiteStore, members ...models.UserProfile) *models.Circle {
	t.Helper()
	byUID := make(map[string]models.UserProfile)
	for _, m := range members {
		byUID[m.UID] = m
	}
	circle := &models.Circle{Name: "Flat 4B", OwnerID: members[0].UID, Members: byUID}
	b := store.NewBatch()
	b.CreateCircle(circle)
	require.NoError(t, b.Commit(context.Background()))
	return circle
}

func seedDebt(t *testing.T, store *SQLiteStore, circleID string, debtor, creditor models.UserProfile, amount string, created time.Time) *models.Debt {
	t.Helper()
	debt := &models.Debt{
		CircleID:               circleID,
		TransactionID:          "txn-1",
		TransactionDescription: "Groceries",
		DebtorID:               debtor.UID,
		Debtor:                 debtor,
		CreditorID:             creditor.UID,
		Creditor:               creditor,
		Amount:                 decimal.RequireFromString(amount),
		CreatedAt:              created,
	}
	b := store.NewBatch()
	b.CreateDebt(debt)
	require.NoError(t, b.Commit(context.Background()))
	return debt
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := profile("alice", "Alice")
	bob := profile("bob", "Bob")
	carol := profile("carol", "Carol")

	t.Run("user profile upsert and lookup", func(t *testing.T) {
		b := store.NewBatch()
		b.UpsertUserProfile(alice)
		require.NoError(t, b.Commit(ctx))

		got, err := store.GetUserProfile(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice, *got)

		_, err = store.GetUserProfile(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("circle lifecycle", func(t *testing.T) {
		circle := seedCircle(t, store, alice, bob)
		require.NotEmpty(t, circle.ID)

		got, err := store.GetCircle(ctx, circle.ID)
		require.NoError(t, err)
		assert.Equal(t, "Flat 4B", got.Name)
		assert.Equal(t, []string{"alice", "bob"}, got.MemberIDs)
		assert.Equal(t, bob, got.Members["bob"])

		b := store.NewBatch()
		b.AddCircleMember(circle.ID, carol)
		b.RemoveCircleMember(circle.ID, "alice")
		b.SetCircleOwner(circle.ID, "bob")
		require.NoError(t, b.Commit(ctx))

		got, err = store.GetCircle(ctx, circle.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "carol"}, got.MemberIDs)
		assert.Equal(t, "bob", got.OwnerID)

		circles, err := store.ListCirclesForUser(ctx, "carol")
		require.NoError(t, err)
		require.Len(t, circles, 1)
		assert.Equal(t, circle.ID, circles[0].ID)

		b = store.NewBatch()
		b.DeleteCircle(circle.ID)
		require.NoError(t, b.Commit(ctx))

		_, err = store.GetCircle(ctx, circle.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("add member to missing circle", func(t *testing.T) {
		b := store.NewBatch()
		b.AddCircleMember("missing", carol)
		assert.ErrorIs(t, b.Commit(ctx), storage.ErrNotFound)
	})

	t.Run("transaction amount decrement floors at zero", func(t *testing.T) {
		txn := &models.Transaction{
			UserID:      "alice",
			Description: "Dinner",
			Amount:      decimal.RequireFromString("30"),
			Category:    models.CategoryFood.Name,
			IsSplit:     true,
			CircleID:    "circle-x",
			SplitDetails: &models.SplitDetails{
				Type:    models.SplitTypeEqually,
				Total:   decimal.RequireFromString("30"),
				PayerID: "alice",
				Members: []models.SplitMember{
					{UserProfile: alice, Share: decimal.RequireFromString("10"), IsPayer: true},
					{UserProfile: bob, Share: decimal.RequireFromString("20")},
				},
			},
		}
		b := store.NewBatch()
		b.CreateTransaction(txn)
		require.NoError(t, b.Commit(ctx))

		b = store.NewBatch()
		b.DecrementTransactionAmount(txn.ID, decimal.RequireFromString("20"))
		require.NoError(t, b.Commit(ctx))

		got, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("10")), "amount = %s", got.Amount)
		require.NotNil(t, got.SplitDetails)
		assert.Equal(t, "bob", got.SplitDetails.Members[1].UID)

		b = store.NewBatch()
		b.DecrementTransactionAmount(txn.ID, decimal.RequireFromString("25"))
		require.NoError(t, b.Commit(ctx))

		got, err = store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.IsZero(), "amount = %s", got.Amount)

		txns, err := store.ListCircleTransactions(ctx, "circle-x")
		require.NoError(t, err)
		assert.Len(t, txns, 1)
	})

	t.Run("debts are filtered by participant and ordered newest first", func(t *testing.T) {
		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		older := seedDebt(t, store, "c-order", bob, alice, "10", base)
		newer := seedDebt(t, store, "c-order", carol, alice, "15", base.Add(time.Hour))
		seedDebt(t, store, "c-other", bob, alice, "99", base)

		debts, err := store.ListDebtsForCircle(ctx, "c-order", "alice")
		require.NoError(t, err)
		require.Len(t, debts, 2)
		assert.Equal(t, newer.ID, debts[0].ID)
		assert.Equal(t, older.ID, debts[1].ID)
		assert.Equal(t, []string{"carol", "alice"}, debts[0].InvolvedUIDs)
		assert.Equal(t, models.StatusUnsettled, debts[0].SettlementStatus)

		debts, err = store.ListDebtsForCircle(ctx, "c-order", "bob")
		require.NoError(t, err)
		require.Len(t, debts, 1)
		assert.Equal(t, older.ID, debts[0].ID)

		debts, err = store.ListDebtsForCircle(ctx, "c-order", "dave")
		require.NoError(t, err)
		assert.Empty(t, debts)
	})

	t.Run("debt status compare-and-swap", func(t *testing.T) {
		debt := seedDebt(t, store, "c-cas", bob, alice, "5", time.Now())

		b := store.NewBatch()
		b.UpdateDebtStatus(debt.ID, models.StatusUnsettled, models.StatusPendingConfirmation)
		require.NoError(t, b.Commit(ctx))

		b = store.NewBatch()
		b.UpdateDebtStatus(debt.ID, models.StatusUnsettled, models.StatusLogged)
		assert.ErrorIs(t, b.Commit(ctx), storage.ErrPreconditionFailed)

		b = store.NewBatch()
		b.UpdateDebtStatus("missing", models.StatusUnsettled, models.StatusLogged)
		assert.ErrorIs(t, b.Commit(ctx), storage.ErrNotFound)

		got, err := store.GetDebt(ctx, debt.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPendingConfirmation, got.SettlementStatus)
	})

	t.Run("failed batch leaves no partial writes", func(t *testing.T) {
		debt := seedDebt(t, store, "c-atomic", bob, alice, "5", time.Now())
		settlement := &models.Settlement{
			CircleID:   "c-atomic",
			FromUserID: "bob",
			FromUser:   bob,
			ToUserID:   "alice",
			ToUser:     alice,
			Amount:     decimal.RequireFromString("5"),
			Status:     models.SettlementConfirmed,
			DebtID:     debt.ID,
		}

		b := store.NewBatch()
		b.CreateSettlement(settlement)
		b.UpdateDebtStatus(debt.ID, models.StatusPendingConfirmation, models.StatusConfirmed)
		assert.ErrorIs(t, b.Commit(ctx), storage.ErrPreconditionFailed)

		_, err := store.GetSettlement(ctx, settlement.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("batch commits once", func(t *testing.T) {
		b := store.NewBatch()
		b.UpsertUserProfile(carol)
		require.NoError(t, b.Commit(ctx))
		assert.Error(t, b.Commit(ctx))
	})

	t.Run("profile refresh rewrites snapshots", func(t *testing.T) {
		circle := seedCircle(t, store, alice, bob)
		debt := seedDebt(t, store, circle.ID, bob, alice, "7", time.Now())

		renamed := bob
		renamed.DisplayName = "Robert"
		b := store.NewBatch()
		b.UpsertUserProfile(renamed)
		b.RefreshProfileSnapshots(renamed)
		require.NoError(t, b.Commit(ctx))

		got, err := store.GetDebt(ctx, debt.ID)
		require.NoError(t, err)
		assert.Equal(t, "Robert", got.Debtor.DisplayName)
		assert.Equal(t, "Alice", got.Creditor.DisplayName)

		c, err := store.GetCircle(ctx, circle.ID)
		require.NoError(t, err)
		assert.Equal(t, "Robert", c.Members["bob"].DisplayName)
	})

	t.Run("expense claims", func(t *testing.T) {
		claim := &models.ExpenseClaim{
			ClaimerID:      "bob",
			ClaimerProfile: bob,
			PayerID:        "alice",
			ExpenseDetails: models.ExpenseDetails{
				Description: "Taxi",
				Amount:      decimal.RequireFromString("18"),
				Category:    models.CategoryTransport.Name,
			},
		}
		b := store.NewBatch()
		b.CreateExpenseClaim(claim)
		require.NoError(t, b.Commit(ctx))
		assert.Equal(t, models.ClaimPending, claim.Status)

		pending, err := store.ListPendingClaimsForPayer(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "Taxi", pending[0].ExpenseDetails.Description)

		b = store.NewBatch()
		b.UpdateClaimStatus(claim.ID, models.ClaimPending, models.ClaimRejected)
		require.NoError(t, b.Commit(ctx))

		b = store.NewBatch()
		b.UpdateClaimStatus(claim.ID, models.ClaimPending, models.ClaimAccepted)
		assert.ErrorIs(t, b.Commit(ctx), storage.ErrPreconditionFailed)

		pending, err = store.ListPendingClaimsForPayer(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("settlements filtered by status", func(t *testing.T) {
		for _, status := range []models.SettlementRecordStatus{models.SettlementPending, models.SettlementConfirmed} {
			b := store.NewBatch()
			b.CreateSettlement(&models.Settlement{
				CircleID:   "c-settle",
				FromUserID: "bob",
				FromUser:   bob,
				ToUserID:   "alice",
				ToUser:     alice,
				Amount:     decimal.RequireFromString("3"),
				Status:     status,
			})
			require.NoError(t, b.Commit(ctx))
		}

		all, err := store.ListCircleSettlements(ctx, "c-settle")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		confirmed, err := store.ListCircleSettlements(ctx, "c-settle", models.SettlementConfirmed)
		require.NoError(t, err)
		require.Len(t, confirmed, 1)
		assert.Equal(t, models.SettlementConfirmed, confirmed[0].Status)
	})
}

func TestLegacyDebtStatusIsNormalized(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	insert := `INSERT INTO debts (id, circle_id, transaction_id, transaction_description, debtor_id, debtor,
		creditor_id, creditor, amount, settlement_status, is_settled, created_at)
		VALUES (?, 'c1', 't1', 'Old dinner', 'bob', '{"uid":"bob"}', 'alice', '{"uid":"alice"}', '12.00', ?, ?, ?)`

	_, err := store.db.Exec(insert, "settled-legacy", nil, 1, 1000)
	require.NoError(t, err)
	_, err = store.db.Exec(insert, "open-legacy", nil, nil, 2000)
	require.NoError(t, err)

	debts, err := store.ListDebtsForCircle(ctx, "c1", "bob")
	require.NoError(t, err)
	require.Len(t, debts, 2)
	assert.Equal(t, "open-legacy", debts[0].ID)
	assert.Equal(t, models.StatusUnsettled, debts[0].SettlementStatus)
	assert.Equal(t, models.StatusConfirmed, debts[1].SettlementStatus)

	// A legacy settled debt counts as confirmed for compare-and-swap too.
	b := store.NewBatch()
	b.UpdateDebtStatus("open-legacy", models.StatusUnsettled, models.StatusLogged)
	require.NoError(t, b.Commit(ctx))

	got, err := store.GetDebt(ctx, "open-legacy")
	require.NoError(t, err)
	assert.Equal(t, models.StatusLogged, got.SettlementStatus)

	// An empty status string is legacy as well.
	_, err = store.db.Exec(insert, "blank-legacy", "", 1, 3000)
	require.NoError(t, err)
	blank, err := store.GetDebt(ctx, "blank-legacy")
	require.NoError(t, err)
	require.Equal(t, models.StatusConfirmed, blank.SettlementStatus)

	b = store.NewBatch()
	b.UpdateDebtStatus("blank-legacy", blank.SettlementStatus, models.StatusLogged)
	require.NoError(t, b.Commit(ctx))

	got, err = store.GetDebt(ctx, "blank-legacy")
	require.NoError(t, err)
	assert.Equal(t, models.StatusLogged, got.SettlementStatus)
}

func TestListDebtsForCircleRequiresIndex(t *testing.T) {
	store := newTestStore(t)

	_, err := store.db.Exec("DROP INDEX idx_debts_circle_created")
	require.NoError(t, err)

	_, err = store.ListDebtsForCircle(context.Background(), "c1", "bob")
	assert.ErrorIs(t, err, storage.ErrIndexRequired)
}

func TestCommitRollsBackAndMapsPermissionErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := newWithDB(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE circle_members").WillReturnError(errors.New("attempt to write a readonly database"))
	mock.ExpectRollback()

	b := store.NewBatch()
	b.UpsertUserProfile(profile("alice", "Alice"))
	b.RefreshProfileSnapshots(profile("alice", "Alice"))

	err = b.Commit(context.Background())
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"missing index", errors.New("SQL logic error: no such index: idx_debts_circle_created (1)"), storage.ErrIndexRequired},
		{"readonly", errors.New("attempt to write a readonly database (8)"), storage.ErrPermissionDenied},
		{"authorizer", errors.New("not authorized"), storage.ErrPermissionDenied},
		{"sentinel passthrough", storage.ErrPreconditionFailed, storage.ErrPreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.in), tt.want)
		})
	}

	plain := errors.New("disk I/O error")
	assert.Same(t, plain, mapError(plain))
	assert.Nil(t, mapError(nil))
}
