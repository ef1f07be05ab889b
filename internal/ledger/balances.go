package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/calculator"
	"github.com/mmynk/splitcircle/internal/models"
)

// Balances is the derived money picture of a circle.
type Balances struct {
	Circle *models.Circle

	// Net holds one signed balance per member: positive is owed, negative owes.
	Net map[string]decimal.Decimal

	// Transfers settles every balance.
	Transfers []calculator.Transfer

	// Pending are circle settlements awaiting the receiver's answer. They do not count yet.
	Pending []*models.Settlement
}

// CircleBalances computes net balances and suggested transfers for a circle. actor must be
// a member.
func (l *Ledger) CircleBalances(ctx context.Context, actor, circleID string) (*Balances, error) {
	circle, err := l.memberCircle(ctx, actor, circleID)
	if err != nil {
		return nil, err
	}
	return l.balancesFor(ctx, circle)
}

func (l *Ledger) balancesFor(ctx context.Context, circle *models.Circle) (*Balances, error) {
	txns, err := l.store.ListCircleTransactions(ctx, circle.ID)
	if err != nil {
		return nil, apperr.FromStorage(err, "failed to load circle transactions")
	}
	settlements, err := l.store.ListCircleSettlements(ctx, circle.ID, models.SettlementConfirmed, models.SettlementPending)
	if err != nil {
		return nil, apperr.FromStorage(err, "failed to load circle settlements")
	}

	var confirmed, pending []*models.Settlement
	for _, s := range settlements {
		if s.Status == models.SettlementConfirmed {
			confirmed = append(confirmed, s)
		} else {
			pending = append(pending, s)
		}
	}

	net := calculator.ComputeNetBalances(circle.MemberProfiles(), txns, confirmed)

	// Former members can still hold balances; resolve their names from the records.
	profiles := make(map[string]models.UserProfile, len(circle.Members))
	for _, txn := range txns {
		if txn.SplitDetails == nil {
			continue
		}
		for _, m := range txn.SplitDetails.Members {
			profiles[m.UID] = m.UserProfile
		}
	}
	for _, s := range confirmed {
		profiles[s.FromUserID] = s.FromUser
		profiles[s.ToUserID] = s.ToUser
	}
	for uid, p := range circle.Members {
		profiles[uid] = p
	}

	return &Balances{
		Circle:    circle,
		Net:       net,
		Transfers: calculator.Simplify(net, profiles),
		Pending:   pending,
	}, nil
}
