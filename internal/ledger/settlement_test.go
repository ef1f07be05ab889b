package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/models"
)

func TestSettlementLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	txn := env.dinner(t, circle.ID, "300")
	debt := env.debtOf(t, "bob", txn.ID)

	got, err := env.ledger.InitiateSettlement(ctx, "bob", debt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingConfirmation, got.SettlementStatus)
	assert.Contains(t, env.notificationTypes(t, "alice"), models.NotifySettlementRequested)

	got, err = env.ledger.ConfirmSettlement(ctx, "alice", debt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.SettlementStatus)
	assert.NotContains(t, env.notificationTypes(t, "alice"), models.NotifySettlementRequested,
		"the confirm request is cleared once answered")
	assert.Contains(t, env.notificationTypes(t, "bob"), models.NotifySettlementConfirmed)

	stored, err := env.ledger.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assertMoney(t, "200", stored.Amount)

	settlements, err := env.ledger.store.ListCircleSettlements(ctx, circle.ID)
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, "bob", settlements[0].FromUserID)
	assert.Equal(t, "alice", settlements[0].ToUserID)
	assert.Equal(t, debt.ID, settlements[0].DebtID)
	assert.Equal(t, models.SettlementConfirmed, settlements[0].Status)

	balances, err := env.ledger.CircleBalances(ctx, "carol", circle.ID)
	require.NoError(t, err)
	assertMoney(t, "100", balances.Net["alice"])
	assertMoney(t, "0", balances.Net["bob"])
	assertMoney(t, "-100", balances.Net["carol"])
	require.Len(t, balances.Transfers, 1)
	assert.Equal(t, "carol", balances.Transfers[0].From.UID)
	assert.Equal(t, "alice", balances.Transfers[0].To.UID)
	assertMoney(t, "100", balances.Transfers[0].Amount)

	_, err = env.ledger.ConfirmSettlement(ctx, "alice", debt.ID)
	assertKind(t, apperr.KindInvalidState, err)

	logID, err := env.ledger.LogSettledDebtAsExpense(ctx, "bob", debt.ID)
	require.NoError(t, err)
	logged, err := env.ledger.store.GetTransaction(ctx, logID)
	require.NoError(t, err)
	assert.Equal(t, "bob", logged.UserID)
	assert.Equal(t, models.CategorySettlement.Name, logged.Category)
	assert.False(t, logged.IsSplit)
	assert.Empty(t, logged.CircleID)
	assertMoney(t, "100", logged.Amount)

	assert.Equal(t, models.StatusLogged, env.debtOf(t, "bob", txn.ID).SettlementStatus)
	_, err = env.ledger.LogSettledDebtAsExpense(ctx, "bob", debt.ID)
	assertKind(t, apperr.KindInvalidState, err)
}

func TestSettlementCancelAndReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	txn := env.dinner(t, circle.ID, "300")
	debt := env.debtOf(t, "carol", txn.ID)

	_, err := env.ledger.CancelSettlement(ctx, "carol", debt.ID)
	assertKind(t, apperr.KindInvalidState, err)

	_, err = env.ledger.InitiateSettlement(ctx, "carol", debt.ID)
	require.NoError(t, err)
	got, err := env.ledger.CancelSettlement(ctx, "carol", debt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnsettled, got.SettlementStatus)
	assert.NotContains(t, env.notificationTypes(t, "alice"), models.NotifySettlementRequested)

	_, err = env.ledger.InitiateSettlement(ctx, "carol", debt.ID)
	require.NoError(t, err)
	got, err = env.ledger.RejectSettlement(ctx, "alice", debt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnsettled, got.SettlementStatus)
	assert.Contains(t, env.notificationTypes(t, "carol"), models.NotifySettlementRejected)

	stored, err := env.ledger.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assertMoney(t, "300", stored.Amount)

	_, err = env.ledger.LogSettledDebtAsExpense(ctx, "carol", debt.ID)
	assertKind(t, apperr.KindInvalidState, err)
}

func TestSettlementPermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	txn := env.dinner(t, circle.ID, "300")
	debt := env.debtOf(t, "bob", txn.ID)

	_, err := env.ledger.InitiateSettlement(ctx, "alice", debt.ID)
	assertKind(t, apperr.KindPermission, err)
	_, err = env.ledger.InitiateSettlement(ctx, "carol", debt.ID)
	assertKind(t, apperr.KindPermission, err)

	_, err = env.ledger.InitiateSettlement(ctx, "bob", debt.ID)
	require.NoError(t, err)

	_, err = env.ledger.ConfirmSettlement(ctx, "bob", debt.ID)
	assertKind(t, apperr.KindPermission, err)
	_, err = env.ledger.RejectSettlement(ctx, "carol", debt.ID)
	assertKind(t, apperr.KindPermission, err)
	_, err = env.ledger.CancelSettlement(ctx, "alice", debt.ID)
	assertKind(t, apperr.KindPermission, err)

	_, err = env.ledger.InitiateSettlement(ctx, "bob", "missing")
	assertKind(t, apperr.KindNotFound, err)
	_, err = env.ledger.InitiateSettlement(ctx, "bob", "")
	assertKind(t, apperr.KindValidation, err)

	assert.Equal(t, models.StatusPendingConfirmation, env.debtOf(t, "bob", txn.ID).SettlementStatus)
}

func TestConfirmAndRejectRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	txn := env.dinner(t, circle.ID, "300")
	debt := env.debtOf(t, "bob", txn.ID)
	_, err := env.ledger.InitiateSettlement(ctx, "bob", debt.ID)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = env.ledger.ConfirmSettlement(ctx, "alice", debt.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = env.ledger.RejectSettlement(ctx, "alice", debt.ID)
	}()
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assertKind(t, apperr.KindInvalidState, err)
	}
	require.Equal(t, 1, winners, "exactly one transition commits: %v", errs)

	final := env.debtOf(t, "bob", txn.ID).SettlementStatus
	stored, err := env.ledger.store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	if errs[0] == nil {
		assert.Equal(t, models.StatusConfirmed, final)
		assertMoney(t, "200", stored.Amount)
	} else {
		assert.Equal(t, models.StatusUnsettled, final)
		assertMoney(t, "300", stored.Amount)
	}
}

func TestDeleteDebt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	txn := env.dinner(t, circle.ID, "300")
	debt := env.debtOf(t, "bob", txn.ID)

	assertKind(t, apperr.KindPermission, env.ledger.DeleteDebt(ctx, "bob", debt.ID))
	require.NoError(t, env.ledger.DeleteDebt(ctx, "alice", debt.ID))
	assertKind(t, apperr.KindNotFound, env.ledger.DeleteDebt(ctx, "alice", debt.ID))

	split, err := env.ledger.SplitEqually(ctx, alice, "", dec("10"), []string{"dave"})
	require.NoError(t, err)
	personal := &models.Transaction{UserID: "alice", Description: "Coffee", Amount: dec("10")}
	_, err = env.ledger.RecordSplitExpense(ctx, personal, split)
	require.NoError(t, err)
	assertKind(t, apperr.KindPermission, env.ledger.DeleteDebt(ctx, "alice", env.debtOf(t, "dave", personal.ID).ID))
}

func TestRequestSettlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	env.dinner(t, circle.ID, "300")

	tests := []struct {
		name   string
		actor  string
		to     string
		amount string
		kind   apperr.Kind
	}{
		{"more than owed", "carol", "alice", "150", apperr.KindValidation},
		{"zero amount", "carol", "alice", "0", apperr.KindValidation},
		{"to self", "carol", "carol", "10", apperr.KindValidation},
		{"receiver outside circle", "carol", "dave", "10", apperr.KindValidation},
		{"payer outside circle", "dave", "alice", "10", apperr.KindPermission},
		{"creditor owes nothing", "alice", "bob", "10", apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ledger.RequestSettlement(ctx, tt.actor, circle.ID, tt.to, dec(tt.amount))
			assertKind(t, tt.kind, err)
		})
	}

	s, err := env.ledger.RequestSettlement(ctx, "carol", circle.ID, "alice", dec("100"))
	require.NoError(t, err)
	assert.Equal(t, models.SettlementPending, s.Status)
	assert.Contains(t, env.notificationTypes(t, "alice"), models.NotifySettlementRequest)

	balances, err := env.ledger.CircleBalances(ctx, "alice", circle.ID)
	require.NoError(t, err)
	assertMoney(t, "-100", balances.Net["carol"])
	require.Len(t, balances.Pending, 1, "pending settlements are listed but do not count")

	_, err = env.ledger.RespondToSettlement(ctx, "carol", s.ID, true)
	assertKind(t, apperr.KindPermission, err)

	s, err = env.ledger.RespondToSettlement(ctx, "alice", s.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementConfirmed, s.Status)
	assert.NotContains(t, env.notificationTypes(t, "alice"), models.NotifySettlementRequest)
	assert.Contains(t, env.notificationTypes(t, "carol"), models.NotifySettlementConfirmed)

	balances, err = env.ledger.CircleBalances(ctx, "alice", circle.ID)
	require.NoError(t, err)
	assertMoney(t, "100", balances.Net["alice"])
	assertMoney(t, "0", balances.Net["carol"])
	assert.Empty(t, balances.Pending)

	_, err = env.ledger.RespondToSettlement(ctx, "alice", s.ID, false)
	assertKind(t, apperr.KindInvalidState, err)
}

func TestRequestSettlement_CountsPendingRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	env.dinner(t, circle.ID, "300")

	first, err := env.ledger.RequestSettlement(ctx, "bob", circle.ID, "alice", dec("100"))
	require.NoError(t, err)

	_, err = env.ledger.RequestSettlement(ctx, "bob", circle.ID, "alice", dec("100"))
	assertKind(t, apperr.KindValidation, err)
	_, err = env.ledger.RequestSettlement(ctx, "bob", circle.ID, "alice", dec("1"))
	assertKind(t, apperr.KindValidation, err)

	// Other members are not limited by bob's requests.
	_, err = env.ledger.RequestSettlement(ctx, "carol", circle.ID, "alice", dec("100"))
	require.NoError(t, err)

	// A rejected request frees the amount again.
	_, err = env.ledger.RespondToSettlement(ctx, "alice", first.ID, false)
	require.NoError(t, err)
	second, err := env.ledger.RequestSettlement(ctx, "bob", circle.ID, "alice", dec("100"))
	require.NoError(t, err)
	_, err = env.ledger.RespondToSettlement(ctx, "alice", second.ID, true)
	require.NoError(t, err)

	balances, err := env.ledger.CircleBalances(ctx, "alice", circle.ID)
	require.NoError(t, err)
	assertMoney(t, "0", balances.Net["bob"])
}

func TestRespondToSettlement_RejectsOverpayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	txn := env.dinner(t, circle.ID, "300")

	s, err := env.ledger.RequestSettlement(ctx, "bob", circle.ID, "alice", dec("60"))
	require.NoError(t, err)

	// Bob pays the whole debt another way before alice answers.
	debt := env.debtOf(t, "bob", txn.ID)
	_, err = env.ledger.InitiateSettlement(ctx, "bob", debt.ID)
	require.NoError(t, err)
	_, err = env.ledger.ConfirmSettlement(ctx, "alice", debt.ID)
	require.NoError(t, err)

	_, err = env.ledger.RespondToSettlement(ctx, "alice", s.ID, true)
	assertKind(t, apperr.KindValidation, err)

	s, err = env.ledger.RespondToSettlement(ctx, "alice", s.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementRejected, s.Status)

	balances, err := env.ledger.CircleBalances(ctx, "alice", circle.ID)
	require.NoError(t, err)
	assertMoney(t, "0", balances.Net["bob"])
}

func TestRespondToSettlement_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	env.dinner(t, circle.ID, "300")

	s, err := env.ledger.RequestSettlement(ctx, "bob", circle.ID, "alice", dec("40"))
	require.NoError(t, err)
	s, err = env.ledger.RespondToSettlement(ctx, "alice", s.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementRejected, s.Status)
	assert.Contains(t, env.notificationTypes(t, "bob"), models.NotifySettlementRequestRejected)

	balances, err := env.ledger.CircleBalances(ctx, "bob", circle.ID)
	require.NoError(t, err)
	assertMoney(t, "-100", balances.Net["bob"])
}

func TestNotificationFailuresDoNotUndoWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	txn := env.dinner(t, circle.ID, "300")
	debt := env.debtOf(t, "bob", txn.ID)

	env.redis.Close()

	_, err := env.ledger.InitiateSettlement(ctx, "bob", debt.ID)
	require.NoError(t, err)
	_, err = env.ledger.ConfirmSettlement(ctx, "alice", debt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, env.debtOf(t, "bob", txn.ID).SettlementStatus)

	_, err = env.ledger.ListNotifications(ctx, "bob", 10)
	assertKind(t, apperr.KindUnexpected, err)
}
