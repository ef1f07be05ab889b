package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/models"
)

// EqualSplit divides total equally among members.
// Every non-payer share is rounded down to cents; the payer absorbs the remainder so the
// shares always add up to total exactly.
func EqualSplit(total decimal.Decimal, members []models.UserProfile, payerID string) (models.SplitDetails, error) {
	if len(members) == 0 {
		return models.SplitDetails{}, fmt.Errorf("must have at least one member")
	}
	if total.IsNegative() {
		return models.SplitDetails{}, fmt.Errorf("total cannot be negative")
	}

	total = models.RoundMoney(total)
	share := total.Div(decimal.NewFromInt(int64(len(members)))).RoundDown(2)

	details := models.SplitDetails{
		Type:    models.SplitTypeEqually,
		Total:   total,
		PayerID: payerID,
		Members: make([]models.SplitMember, 0, len(members)),
	}

	payerIdx := -1
	others := decimal.Zero
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m.UID] {
			return models.SplitDetails{}, fmt.Errorf("member %s listed twice", m.UID)
		}
		seen[m.UID] = true

		sm := models.SplitMember{UserProfile: m, Share: share}
		if m.UID == payerID {
			sm.IsPayer = true
			payerIdx = len(details.Members)
		} else {
			others = others.Add(share)
		}
		details.Members = append(details.Members, sm)
	}

	if payerIdx < 0 {
		return models.SplitDetails{}, fmt.Errorf("payer %s is not among the members", payerID)
	}
	details.Members[payerIdx].Share = total.Sub(others)

	return details, nil
}
