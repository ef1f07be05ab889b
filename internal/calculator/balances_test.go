package calculator

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/models"
)

func splitTxn(t *testing.T, total string, payer string, uids ...string) *models.Transaction {
	t.Helper()
	details, err := EqualSplit(dec(total), people(uids...), payer)
	if err != nil {
		t.Fatalf("EqualSplit failed: %v", err)
	}
	return &models.Transaction{
		UserID:       payer,
		Amount:       dec(total),
		IsSplit:      true,
		SplitDetails: &details,
	}
}

func confirmed(from, to, amount string) *models.Settlement {
	return &models.Settlement{
		FromUserID: from,
		ToUserID:   to,
		Amount:     dec(amount),
		Status:     models.SettlementConfirmed,
	}
}

func assertBalances(t *testing.T, got map[string]decimal.Decimal, want map[string]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got %d balances, want %d: %v", len(got), len(want), got)
	}
	for uid, w := range want {
		if !got[uid].Equal(dec(w)) {
			t.Errorf("balance[%s] = %s, want %s", uid, got[uid], w)
		}
	}
}

func TestComputeNetBalances_SplitOnly(t *testing.T) {
	members := people("alice", "bob", "carol")
	txns := []*models.Transaction{splitTxn(t, "300", "alice", "alice", "bob", "carol")}

	got := ComputeNetBalances(members, txns, nil)
	assertBalances(t, got, map[string]string{"alice": "200", "bob": "-100", "carol": "-100"})
}

func TestComputeNetBalances_ConfirmedSettlement(t *testing.T) {
	members := people("alice", "bob", "carol")
	txn := splitTxn(t, "300", "alice", "alice", "bob", "carol")
	// Confirming Bob's debt lowers the recorded amount; balances must not move because of it.
	txn.Amount = dec("200")

	got := ComputeNetBalances(members, []*models.Transaction{txn}, []*models.Settlement{
		confirmed("bob", "alice", "100"),
	})
	assertBalances(t, got, map[string]string{"alice": "100", "bob": "0", "carol": "-100"})
}

// A settlement from the debtor to the creditor must move both towards zero. Flipping the
// sign here would double the debt instead of repaying it.
func TestComputeNetBalances_SettlementDirection(t *testing.T) {
	members := people("alice", "bob")
	txns := []*models.Transaction{splitTxn(t, "50", "alice", "alice", "bob")}

	before := ComputeNetBalances(members, txns, nil)
	after := ComputeNetBalances(members, txns, []*models.Settlement{confirmed("bob", "alice", "10")})

	if !after["bob"].Equal(before["bob"].Add(dec("10"))) {
		t.Errorf("sender balance = %s, want %s + 10", after["bob"], before["bob"])
	}
	if !after["alice"].Equal(before["alice"].Sub(dec("10"))) {
		t.Errorf("receiver balance = %s, want %s - 10", after["alice"], before["alice"])
	}
}

func TestComputeNetBalances_IgnoresNonConfirmedAndNonSplit(t *testing.T) {
	members := people("alice", "bob")
	personal := &models.Transaction{UserID: "alice", Amount: dec("40")}
	pending := confirmed("bob", "alice", "5")
	pending.Status = models.SettlementPending

	got := ComputeNetBalances(members, []*models.Transaction{personal}, []*models.Settlement{pending})
	assertBalances(t, got, map[string]string{"alice": "0", "bob": "0"})
}

func TestComputeNetBalances_PayerEntryWithZeroShare(t *testing.T) {
	members := people("alice", "bob")
	txn := &models.Transaction{
		UserID:  "alice",
		Amount:  dec("30"),
		IsSplit: true,
		SplitDetails: &models.SplitDetails{
			Type:    models.SplitTypeEqually,
			Total:   dec("30"),
			PayerID: "alice",
			Members: []models.SplitMember{
				{UserProfile: models.UserProfile{UID: "alice"}, Share: decimal.Zero, IsPayer: true},
				{UserProfile: models.UserProfile{UID: "bob"}, Share: dec("30")},
			},
		},
	}

	got := ComputeNetBalances(members, []*models.Transaction{txn}, nil)
	assertBalances(t, got, map[string]string{"alice": "30", "bob": "-30"})
}

func TestComputeNetBalances_TracksNonMembers(t *testing.T) {
	got := ComputeNetBalances(people("alice"), []*models.Transaction{
		splitTxn(t, "20", "alice", "alice", "zoe"),
	}, nil)
	assertBalances(t, got, map[string]string{"alice": "10", "zoe": "-10"})
}

func TestComputeNetBalances_SumsToZero(t *testing.T) {
	uids := []string{"a", "b", "c", "d", "e"}
	rng := rand.New(rand.NewSource(7))

	var txns []*models.Transaction
	var settlements []*models.Settlement
	for i := 0; i < 50; i++ {
		n := 2 + rng.Intn(len(uids)-1)
		group := append([]string(nil), uids[:n]...)
		payer := group[rng.Intn(n)]
		total := decimal.New(int64(rng.Intn(100000)), -2)
		txns = append(txns, splitTxn(t, total.String(), payer, group...))

		if i%5 == 0 {
			settlements = append(settlements, confirmed(uids[rng.Intn(5)], uids[rng.Intn(5)], "12.34"))
		}
	}

	balances := ComputeNetBalances(people(uids...), txns, settlements)
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b)
	}
	tolerance := models.Epsilon.Mul(decimal.NewFromInt(int64(len(uids))))
	if sum.Abs().GreaterThan(tolerance) {
		t.Errorf("balances sum to %s, want within %s of zero", sum, tolerance)
	}
}

func TestOwed(t *testing.T) {
	balances := map[string]decimal.Decimal{"alice": dec("25"), "bob": dec("-25")}
	if got := Owed(balances, "bob"); !got.Equal(dec("25")) {
		t.Errorf("Owed(bob) = %s, want 25", got)
	}
	if got := Owed(balances, "alice"); !got.IsZero() {
		t.Errorf("Owed(alice) = %s, want 0", got)
	}
	if !Settled(dec("0.01")) || Settled(dec("0.02")) {
		t.Error("Settled should treat a cent as zero and nothing more")
	}
}
