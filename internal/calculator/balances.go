package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/models"
)

// ComputeNetBalances folds split transactions and confirmed settlements into one signed
// balance per member. Positive means the member is owed money by the group, negative means
// they owe.
//
// Algorithm:
//   - Every member starts at zero
//   - For each split: the payer is credited every non-payer share, each non-payer is debited
//     their share (same as crediting the full total and debiting every share, payer included)
//   - For each confirmed settlement: the sender is credited and the receiver debited, so a
//     settlement cancels the debt it repays
//
// Shares come from the split details rather than the transaction amount, which confirmed
// settlements lower after the fact. Users who appear in splits or settlements without being
// members are still tracked.
func ComputeNetBalances(members []models.UserProfile, transactions []*models.Transaction, confirmed []*models.Settlement) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(members))
	for _, m := range members {
		balances[m.UID] = decimal.Zero
	}

	for _, txn := range transactions {
		if txn == nil || !txn.IsSplit || txn.SplitDetails == nil {
			continue
		}
		split := txn.SplitDetails
		payer := split.PayerID
		if p, ok := split.Payer(); ok && payer == "" {
			payer = p.UID
		}
		if payer == "" {
			continue
		}

		for _, m := range split.Members {
			if m.IsPayer || m.UID == payer {
				continue
			}
			balances[m.UID] = balances[m.UID].Sub(m.Share)
			balances[payer] = balances[payer].Add(m.Share)
		}
	}

	for _, s := range confirmed {
		if s == nil || s.Status != models.SettlementConfirmed {
			continue
		}
		balances[s.FromUserID] = balances[s.FromUserID].Add(s.Amount)
		balances[s.ToUserID] = balances[s.ToUserID].Sub(s.Amount)
	}

	for uid, b := range balances {
		balances[uid] = models.RoundMoney(b)
	}
	return balances
}

// Settled reports whether a balance is effectively zero.
func Settled(balance decimal.Decimal) bool {
	return models.IsZero(balance)
}

// Owed returns how much uid owes the group, or zero when uid is not a net debtor.
func Owed(balances map[string]decimal.Decimal, uid string) decimal.Decimal {
	b := balances[uid]
	if b.IsNegative() {
		return b.Neg()
	}
	return decimal.Zero
}
