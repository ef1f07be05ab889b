package service

import (
	"sort"

	"github.com/mmynk/splitcircle/internal/ledger"
	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/pkg/api"
)

func toAPIProfile(p models.UserProfile) api.Profile {
	return api.Profile{
		UID:         p.UID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		PhotoURL:    p.PhotoURL,
		Username:    p.Username,
	}
}

func toAPISplit(s models.SplitDetails) api.Split {
	members := make([]api.SplitMember, len(s.Members))
	for i, m := range s.Members {
		members[i] = api.SplitMember{
			Profile: toAPIProfile(m.UserProfile),
			Share:   m.Share,
			IsPayer: m.IsPayer,
		}
	}
	return api.Split{
		Type:    s.Type,
		Total:   s.Total,
		PayerID: s.PayerID,
		Members: members,
	}
}

func toAPITransaction(t *models.Transaction) *api.Transaction {
	out := &api.Transaction{
		ID:                 t.ID,
		UserID:             t.UserID,
		Description:        t.Description,
		Amount:             t.Amount,
		Category:           t.Category,
		Date:               t.Date,
		RecurringExpenseID: t.RecurringExpenseID,
		IsSplit:            t.IsSplit,
		CircleID:           t.CircleID,
		CreatedAt:          t.CreatedAt,
	}
	if t.SplitDetails != nil {
		split := toAPISplit(*t.SplitDetails)
		out.Split = &split
	}
	return out
}

func toAPIDebt(d *models.Debt) *api.Debt {
	return &api.Debt{
		ID:                     d.ID,
		CircleID:               d.CircleID,
		TransactionID:          d.TransactionID,
		TransactionDescription: d.TransactionDescription,
		Debtor:                 toAPIProfile(d.Debtor),
		Creditor:               toAPIProfile(d.Creditor),
		Amount:                 d.Amount,
		Status:                 string(d.SettlementStatus),
		CreatedAt:              d.CreatedAt,
	}
}

func toAPIDebts(debts []*models.Debt) []*api.Debt {
	out := make([]*api.Debt, len(debts))
	for i, d := range debts {
		out[i] = toAPIDebt(d)
	}
	return out
}

func toAPICircle(c *models.Circle) *api.Circle {
	members := make([]api.Profile, 0, len(c.Members))
	for _, p := range c.MemberProfiles() {
		members = append(members, toAPIProfile(p))
	}
	return &api.Circle{
		ID:        c.ID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		Members:   members,
		CreatedAt: c.CreatedAt,
	}
}

func toAPICircles(circles []*models.Circle) []*api.Circle {
	out := make([]*api.Circle, len(circles))
	for i, c := range circles {
		out[i] = toAPICircle(c)
	}
	return out
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:        s.ID,
		CircleID:  s.CircleID,
		From:      toAPIProfile(s.FromUser),
		To:        toAPIProfile(s.ToUser),
		Amount:    s.Amount,
		Status:    string(s.Status),
		DebtID:    s.DebtID,
		CreatedAt: s.CreatedAt,
	}
}

func toAPIClaim(c *models.ExpenseClaim) *api.ExpenseClaim {
	d := c.ExpenseDetails
	return &api.ExpenseClaim{
		ID:          c.ID,
		Claimer:     toAPIProfile(c.ClaimerProfile),
		PayerID:     c.PayerID,
		Description: d.Description,
		Amount:      d.Amount,
		Category:    d.Category,
		Date:        d.Date,
		CircleID:    d.CircleID,
		Split:       toAPISplit(d.SplitDetails),
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
	}
}

func toAPIClaims(claims []*models.ExpenseClaim) []*api.ExpenseClaim {
	out := make([]*api.ExpenseClaim, len(claims))
	for i, c := range claims {
		out[i] = toAPIClaim(c)
	}
	return out
}

func toAPINotifications(notes []*models.Notification) []*api.Notification {
	out := make([]*api.Notification, len(notes))
	for i, n := range notes {
		out[i] = &api.Notification{
			ID:        n.ID,
			FromUser:  toAPIProfile(n.FromUser),
			Type:      string(n.Type),
			Message:   n.Message,
			Link:      n.Link,
			RelatedID: n.RelatedID,
			CreatedAt: n.CreatedAt,
		}
	}
	return out
}

// toAPIBalances orders balances by uid. Former members keep whatever profile the
// transfers carry for them.
func toAPIBalances(b *ledger.Balances) api.CircleBalances {
	profiles := make(map[string]models.UserProfile, len(b.Circle.Members))
	for _, t := range b.Transfers {
		profiles[t.From.UID] = t.From
		profiles[t.To.UID] = t.To
	}
	for uid, p := range b.Circle.Members {
		profiles[uid] = p
	}

	uids := make([]string, 0, len(b.Net))
	for uid := range b.Net {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	out := api.CircleBalances{
		CircleID:  b.Circle.ID,
		Balances:  make([]api.Balance, 0, len(uids)),
		Transfers: make([]api.Transfer, 0, len(b.Transfers)),
		Pending:   make([]*api.Settlement, 0, len(b.Pending)),
	}
	for _, uid := range uids {
		p, ok := profiles[uid]
		if !ok {
			p = models.UserProfile{UID: uid}
		}
		out.Balances = append(out.Balances, api.Balance{Member: toAPIProfile(p), Net: b.Net[uid]})
	}
	for _, t := range b.Transfers {
		out.Transfers = append(out.Transfers, api.Transfer{
			From:   toAPIProfile(t.From),
			To:     toAPIProfile(t.To),
			Amount: t.Amount,
		})
	}
	for _, s := range b.Pending {
		out.Pending = append(out.Pending, toAPISettlement(s))
	}
	return out
}
