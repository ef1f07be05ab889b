package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/models"
)

// Transfer is one payment that moves a debtor towards zero.
type Transfer struct {
	From   models.UserProfile // Person who owes
	To     models.UserProfile // Person who is owed
	Amount decimal.Decimal
}

type party struct {
	uid    string
	amount decimal.Decimal // always positive
}

// Simplify turns net balances into pairwise transfers that settle everyone.
//
// Greedy two-pointer netting: debtors and creditors are each ordered by descending
// magnitude (ties by uid) and matched front to front. The result leaves no member more
// than a cent away from zero and has at most len(debtors)+len(creditors)-1 transfers.
// It is not guaranteed to be the minimum number of transfers.
//
// Users missing from members are reported with only their UID.
func Simplify(balances map[string]decimal.Decimal, members map[string]models.UserProfile) []Transfer {
	var debtors, creditors []party
	for uid, b := range balances {
		switch {
		case b.LessThan(models.Epsilon.Neg()):
			debtors = append(debtors, party{uid: uid, amount: b.Neg()})
		case b.GreaterThan(models.Epsilon):
			creditors = append(creditors, party{uid: uid, amount: b})
		}
	}
	sortParties(debtors)
	sortParties(creditors)

	profile := func(uid string) models.UserProfile {
		if p, ok := members[uid]; ok {
			return p
		}
		return models.UserProfile{UID: uid}
	}

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(d.amount, c.amount)

		if models.Positive(amount) {
			transfers = append(transfers, Transfer{
				From:   profile(d.uid),
				To:     profile(c.uid),
				Amount: models.RoundMoney(amount),
			})
		}

		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)

		if d.amount.LessThan(models.Epsilon) {
			i++
		}
		if c.amount.LessThan(models.Epsilon) {
			j++
		}
	}

	return transfers
}

func sortParties(ps []party) {
	sort.Slice(ps, func(a, b int) bool {
		if cmp := ps[a].amount.Cmp(ps[b].amount); cmp != 0 {
			return cmp > 0
		}
		return ps[a].uid < ps[b].uid
	})
}
