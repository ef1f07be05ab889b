package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/models"
)

func TestRecordSplitExpense_EqualThreeWay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)

	txn := env.dinner(t, circle.ID, "300")
	require.NotEmpty(t, txn.ID)
	assert.True(t, txn.IsSplit)
	assert.Equal(t, "Food", txn.Category, "built-in categories are canonicalized")

	debts, err := env.ledger.GetDebtsForCircle(ctx, circle.ID, "alice")
	require.NoError(t, err)
	require.Len(t, debts, 2)
	for _, d := range debts {
		assert.Equal(t, "alice", d.CreditorID)
		assert.NotEqual(t, "alice", d.DebtorID)
		assertMoney(t, "100", d.Amount)
		assert.Equal(t, models.StatusUnsettled, d.SettlementStatus)
		assert.Equal(t, txn.ID, d.TransactionID)
		assert.Equal(t, []string{d.DebtorID, "alice"}, d.InvolvedUIDs)
	}

	balances, err := env.ledger.CircleBalances(ctx, "bob", circle.ID)
	require.NoError(t, err)
	assertMoney(t, "200", balances.Net["alice"])
	assertMoney(t, "-100", balances.Net["bob"])
	assertMoney(t, "-100", balances.Net["carol"])
	assert.Len(t, balances.Transfers, 2)
}

func TestRecordSplitExpense_ZeroShareMakesNoDebt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)

	split := models.SplitDetails{
		Type:    models.SplitTypeEqually,
		Total:   dec("100"),
		PayerID: "alice",
		Members: []models.SplitMember{
			{UserProfile: alice, Share: dec("50"), IsPayer: true},
			{UserProfile: bob, Share: dec("50")},
			{UserProfile: carol, Share: dec("0")},
		},
	}
	expense := &models.Transaction{UserID: "alice", Description: "Taxi", Amount: dec("100"), CircleID: circle.ID}
	id, err := env.ledger.RecordSplitExpense(ctx, expense, split)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOther.Name, expense.Category)

	debts, err := env.ledger.GetDebtsForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, debts, 1, "only members with a share above a cent owe anything")
	assert.Equal(t, "bob", debts[0].DebtorID)
	assert.Equal(t, id, debts[0].TransactionID)

	carolDebts, err := env.ledger.GetDebtsForUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, carolDebts)
}

func TestRecordSplitExpense_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)

	valid := func() (*models.Transaction, models.SplitDetails) {
		split, err := env.ledger.SplitEqually(ctx, alice, circle.ID, dec("90"), []string{"bob", "carol"})
		require.NoError(t, err)
		return &models.Transaction{UserID: "alice", Description: "Lunch", Amount: dec("90"), CircleID: circle.ID}, split
	}

	tests := []struct {
		name   string
		mutate func(*models.Transaction, *models.SplitDetails)
		kind   apperr.Kind
	}{
		{
			name:   "missing description",
			mutate: func(e *models.Transaction, _ *models.SplitDetails) { e.Description = "  " },
			kind:   apperr.KindValidation,
		},
		{
			name:   "negative amount",
			mutate: func(e *models.Transaction, _ *models.SplitDetails) { e.Amount = dec("-1") },
			kind:   apperr.KindValidation,
		},
		{
			name:   "payer is not the logger",
			mutate: func(e *models.Transaction, _ *models.SplitDetails) { e.UserID = "bob" },
			kind:   apperr.KindValidation,
		},
		{
			name:   "total does not match amount",
			mutate: func(e *models.Transaction, _ *models.SplitDetails) { e.Amount = dec("91") },
			kind:   apperr.KindValidation,
		},
		{
			name: "two payers",
			mutate: func(_ *models.Transaction, s *models.SplitDetails) {
				s.Members[1].IsPayer = true
			},
			kind: apperr.KindValidation,
		},
		{
			name: "shares exceed total",
			mutate: func(_ *models.Transaction, s *models.SplitDetails) {
				s.Members[1].Share = dec("80")
				s.Members[2].Share = dec("80")
			},
			kind: apperr.KindValidation,
		},
		{
			name: "negative share",
			mutate: func(_ *models.Transaction, s *models.SplitDetails) {
				s.Members[1].Share = dec("-5")
			},
			kind: apperr.KindValidation,
		},
		{
			name: "member outside the circle",
			mutate: func(_ *models.Transaction, s *models.SplitDetails) {
				s.Members[2].UserProfile = dave
			},
			kind: apperr.KindValidation,
		},
		{
			name: "unsupported split type",
			mutate: func(_ *models.Transaction, s *models.SplitDetails) {
				s.Type = "percentage"
			},
			kind: apperr.KindValidation,
		},
		{
			name: "single member",
			mutate: func(_ *models.Transaction, s *models.SplitDetails) {
				s.Members = s.Members[:1]
			},
			kind: apperr.KindValidation,
		},
		{
			name:   "unknown circle",
			mutate: func(e *models.Transaction, _ *models.SplitDetails) { e.CircleID = "missing" },
			kind:   apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expense, split := valid()
			tt.mutate(expense, &split)
			_, err := env.ledger.RecordSplitExpense(ctx, expense, split)
			assertKind(t, tt.kind, err)
		})
	}

	debts, err := env.ledger.GetDebtsForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, debts, "rejected expenses write nothing")
}

func TestRecordSplitExpense_PayerOutsideCircle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)

	split, err := env.ledger.SplitEqually(ctx, dave, "", dec("40"), []string{"bob"})
	require.NoError(t, err)
	expense := &models.Transaction{UserID: "dave", Description: "Snacks", Amount: dec("40"), CircleID: circle.ID}
	_, err = env.ledger.RecordSplitExpense(ctx, expense, split)
	assertKind(t, apperr.KindPermission, err)
}

func TestRecordSplitExpense_OutsideCircle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	split, err := env.ledger.SplitEqually(ctx, alice, "", dec("10"), []string{"dave"})
	require.NoError(t, err)
	assertMoney(t, "5", split.Members[1].Share)

	expense := &models.Transaction{UserID: "alice", Description: "Coffee", Amount: dec("10")}
	_, err = env.ledger.RecordSplitExpense(ctx, expense, split)
	require.NoError(t, err)

	d := env.debtOf(t, "dave", expense.ID)
	assert.Empty(t, d.CircleID)
	assertMoney(t, "5", d.Amount)
}

func TestSplitEqually(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)

	split, err := env.ledger.SplitEqually(ctx, alice, circle.ID, dec("100"), []string{"bob", "carol", "bob", "alice"})
	require.NoError(t, err)
	require.Len(t, split.Members, 3)
	assertMoney(t, "33.34", split.Members[0].Share)
	assertMoney(t, "33.33", split.Members[1].Share)

	_, err = env.ledger.SplitEqually(ctx, alice, circle.ID, dec("100"), []string{"dave"})
	assertKind(t, apperr.KindValidation, err)

	_, err = env.ledger.SplitEqually(ctx, alice, circle.ID, dec("100"), nil)
	assertKind(t, apperr.KindValidation, err)

	_, err = env.ledger.SplitEqually(ctx, alice, "", dec("100"), []string{"nobody"})
	assertKind(t, apperr.KindValidation, err)
}

func TestGetDebtsForCircle_MissingIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	circle := env.flat(t)
	env.dinner(t, circle.ID, "300")

	db, err := sql.Open("sqlite", "file:"+env.dbPath)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`DROP INDEX idx_debts_circle_created`)
	require.NoError(t, err)

	_, err = env.ledger.GetDebtsForCircle(ctx, circle.ID, "bob")
	assertKind(t, apperr.KindIndexRequired, err)
}
