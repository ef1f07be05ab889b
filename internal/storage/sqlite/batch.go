package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/models"
	"github.com/mmynk/splitcircle/internal/storage"
)

// Ensure batch implements storage.Batch
var _ storage.Batch = (*batch)(nil)

type op func(ctx context.Context, tx *sql.Tx) error

// batch queues writes and applies them in one SQL transaction on Commit.
type batch struct {
	db        *sql.DB
	now       func() time.Time
	ops       []op
	committed bool
	err       error
}

func (b *batch) add(o op) {
	b.ops = append(b.ops, o)
}

// fail records a queueing error; Commit returns it without touching the database.
func (b *batch) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Commit applies every queued write or none of them.
func (b *batch) Commit(ctx context.Context) error {
	if b.committed {
		return errors.New("batch already committed")
	}
	b.committed = true
	if b.err != nil {
		return b.err
	}
	if len(b.ops) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	for _, o := range b.ops {
		if err := o(ctx, tx); err != nil {
			return mapError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// UpsertUserProfile inserts or replaces the directory entry for a user.
func (b *batch) UpsertUserProfile(p models.UserProfile) {
	now := toMillis(b.now())
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (uid, display_name, email, photo_url, username, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(uid) DO UPDATE SET
			   display_name = excluded.display_name,
			   email = excluded.email,
			   photo_url = excluded.photo_url,
			   username = excluded.username,
			   updated_at = excluded.updated_at`,
			p.UID, p.DisplayName, p.Email, p.PhotoURL, p.Username, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}
		return nil
	})
}

// RefreshProfileSnapshots rewrites the embedded copies of a profile in circles, debts,
// pending claims and settlements.
func (b *batch) RefreshProfileSnapshots(p models.UserProfile) {
	snapshot, err := marshalJSON(p)
	if err != nil {
		b.fail(fmt.Errorf("failed to encode profile: %w", err))
		return
	}
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		stmts := []struct {
			query string
			args  []interface{}
		}{
			{"UPDATE circle_members SET profile = ? WHERE uid = ?", []interface{}{snapshot, p.UID}},
			{"UPDATE debts SET debtor = ? WHERE debtor_id = ?", []interface{}{snapshot, p.UID}},
			{"UPDATE debts SET creditor = ? WHERE creditor_id = ?", []interface{}{snapshot, p.UID}},
			{"UPDATE expense_claims SET claimer_profile = ? WHERE claimer_id = ? AND status = ?", []interface{}{snapshot, p.UID, string(models.ClaimPending)}},
			{"UPDATE settlements SET from_user = ? WHERE from_user_id = ?", []interface{}{snapshot, p.UID}},
			{"UPDATE settlements SET to_user = ? WHERE to_user_id = ?", []interface{}{snapshot, p.UID}},
		}
		for _, st := range stmts {
			if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
				return fmt.Errorf("failed to refresh profile snapshots: %w", err)
			}
		}
		return nil
	})
}

// CreateCircle inserts a circle and its members.
func (b *batch) CreateCircle(c *models.Circle) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = b.now().UTC()
	}
	c.SetMembers(c.Members)

	type member struct{ uid, profile string }
	members := make([]member, 0, len(c.MemberIDs))
	for _, uid := range c.MemberIDs {
		profile, err := marshalJSON(c.Members[uid])
		if err != nil {
			b.fail(fmt.Errorf("failed to encode member profile: %w", err))
			return
		}
		members = append(members, member{uid, profile})
	}
	id, name, owner, created := c.ID, c.Name, c.OwnerID, toMillis(c.CreatedAt)

	b.add(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO circles (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
			id, name, owner, created,
		)
		if err != nil {
			return fmt.Errorf("failed to insert circle: %w", err)
		}
		for _, m := range members {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO circle_members (circle_id, uid, profile) VALUES (?, ?, ?)",
				id, m.uid, m.profile,
			)
			if err != nil {
				return fmt.Errorf("failed to insert circle member: %w", err)
			}
		}
		return nil
	})
}

// AddCircleMember adds or refreshes a member of an existing circle.
func (b *batch) AddCircleMember(circleID string, p models.UserProfile) {
	profile, err := marshalJSON(p)
	if err != nil {
		b.fail(fmt.Errorf("failed to encode member profile: %w", err))
		return
	}
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		if err := requireRow(ctx, tx, "circles", circleID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO circle_members (circle_id, uid, profile) VALUES (?, ?, ?)
			 ON CONFLICT(circle_id, uid) DO UPDATE SET profile = excluded.profile`,
			circleID, p.UID, profile,
		)
		if err != nil {
			return fmt.Errorf("failed to add circle member: %w", err)
		}
		return nil
	})
}

// RemoveCircleMember removes a member from a circle.
func (b *batch) RemoveCircleMember(circleID, uid string) {
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM circle_members WHERE circle_id = ? AND uid = ?", circleID, uid,
		)
		if err != nil {
			return fmt.Errorf("failed to remove circle member: %w", err)
		}
		return expectAffected(res, fmt.Sprintf("circle member %s/%s", circleID, uid))
	})
}

// SetCircleOwner transfers ownership of a circle.
func (b *batch) SetCircleOwner(circleID, ownerID string) {
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE circles SET owner_id = ? WHERE id = ?", ownerID, circleID)
		if err != nil {
			return fmt.Errorf("failed to set circle owner: %w", err)
		}
		return expectAffected(res, "circle "+circleID)
	})
}

// DeleteCircle removes a circle and its memberships. Transactions and debts keep their
// circle reference.
func (b *batch) DeleteCircle(circleID string) {
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM circles WHERE id = ?", circleID)
		if err != nil {
			return fmt.Errorf("failed to delete circle: %w", err)
		}
		return expectAffected(res, "circle "+circleID)
	})
}

// CreateTransaction inserts a transaction.
func (b *batch) CreateTransaction(t *models.Transaction) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = b.now().UTC()
	}
	if t.Date.IsZero() {
		t.Date = t.CreatedAt
	}
	t.Amount = models.RoundMoney(t.Amount)

	var split interface{}
	if t.SplitDetails != nil {
		encoded, err := marshalJSON(t.SplitDetails)
		if err != nil {
			b.fail(fmt.Errorf("failed to encode split details: %w", err))
			return
		}
		split = encoded
	}
	row := *t

	b.add(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, user_id, description, amount, category, date,
			   recurring_expense_id, is_split, circle_id, split_details, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.UserID, row.Description, row.Amount.StringFixed(2), row.Category, toMillis(row.Date),
			nullable(row.RecurringExpenseID), row.IsSplit, nullable(row.CircleID), split, toMillis(row.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		return nil
	})
}

// DecrementTransactionAmount lowers a transaction's amount, floored at zero.
func (b *batch) DecrementTransactionAmount(transactionID string, amount decimal.Decimal) {
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		var current decimal.Decimal
		err := tx.QueryRowContext(ctx,
			"SELECT amount FROM transactions WHERE id = ?", transactionID,
		).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read transaction amount: %w", err)
		}

		next := current.Sub(amount)
		if next.IsNegative() {
			next = decimal.Zero
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE transactions SET amount = ? WHERE id = ?",
			models.RoundMoney(next).StringFixed(2), transactionID,
		)
		if err != nil {
			return fmt.Errorf("failed to update transaction amount: %w", err)
		}
		return nil
	})
}

// CreateDebt inserts a debt. A debt without status starts unsettled.
func (b *batch) CreateDebt(d *models.Debt) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = b.now().UTC()
	}
	if d.SettlementStatus == "" {
		d.SettlementStatus = models.StatusUnsettled
	}
	d.Amount = models.RoundMoney(d.Amount)
	d.InvolvedUIDs = []string{d.DebtorID, d.CreditorID}

	debtor, err := marshalJSON(d.Debtor)
	if err != nil {
		b.fail(fmt.Errorf("failed to encode debtor: %w", err))
		return
	}
	creditor, err := marshalJSON(d.Creditor)
	if err != nil {
		b.fail(fmt.Errorf("failed to encode creditor: %w", err))
		return
	}
	row := *d

	b.add(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO debts (id, circle_id, transaction_id, transaction_description, debtor_id, debtor,
			   creditor_id, creditor, amount, settlement_status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, nullable(row.CircleID), row.TransactionID, row.TransactionDescription,
			row.DebtorID, debtor, row.CreditorID, creditor, row.Amount.StringFixed(2),
			string(row.SettlementStatus), toMillis(row.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert debt: %w", err)
		}
		return nil
	})
}

// debtStatusExpr resolves the effective status of legacy rows inside SQL.
// It must agree with models.NormalizeStatus: any unknown status falls back to is_settled.
const debtStatusExpr = `CASE
	WHEN settlement_status IN ('unsettled', 'pending_confirmation', 'confirmed', 'logged') THEN settlement_status
	WHEN is_settled = 1 THEN 'confirmed'
	ELSE 'unsettled' END`

// UpdateDebtStatus moves a debt between statuses if it is currently in status from.
func (b *batch) UpdateDebtStatus(debtID string, from, to models.SettlementStatus) {
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE debts SET settlement_status = ? WHERE id = ? AND "+debtStatusExpr+" = ?",
			string(to), debtID, string(from),
		)
		if err != nil {
			return fmt.Errorf("failed to update debt status: %w", err)
		}
		return casResult(ctx, tx, res, "debts", debtID)
	})
}

// DeleteDebt removes a debt outright.
func (b *batch) DeleteDebt(debtID string) {
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM debts WHERE id = ?", debtID)
		if err != nil {
			return fmt.Errorf("failed to delete debt: %w", err)
		}
		return expectAffected(res, "debt "+debtID)
	})
}

// CreateExpenseClaim inserts a claim. A claim without status starts pending.
func (b *batch) CreateExpenseClaim(c *models.ExpenseClaim) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = b.now().UTC()
	}
	if c.Status == "" {
		c.Status = models.ClaimPending
	}
	claimer, err := marshalJSON(c.ClaimerProfile)
	if err != nil {
		b.fail(fmt.Errorf("failed to encode claimer: %w", err))
		return
	}
	details, err := marshalJSON(c.ExpenseDetails)
	if err != nil {
		b.fail(fmt.Errorf("failed to encode expense details: %w", err))
		return
	}
	row := *c

	b.add(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expense_claims (id, claimer_id, claimer_profile, payer_id, expense_details, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.ClaimerID, claimer, row.PayerID, details, string(row.Status), toMillis(row.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense claim: %w", err)
		}
		return nil
	})
}

// UpdateClaimStatus moves a claim between statuses if it is currently in status from.
func (b *batch) UpdateClaimStatus(claimID string, from, to models.ClaimStatus) {
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE expense_claims SET status = ? WHERE id = ? AND status = ?",
			string(to), claimID, string(from),
		)
		if err != nil {
			return fmt.Errorf("failed to update claim status: %w", err)
		}
		return casResult(ctx, tx, res, "expense_claims", claimID)
	})
}

// CreateSettlement inserts a circle settlement. A settlement without status starts pending.
func (b *batch) CreateSettlement(st *models.Settlement) {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = b.now().UTC()
	}
	if st.Status == "" {
		st.Status = models.SettlementPending
	}
	st.Amount = models.RoundMoney(st.Amount)

	from, err := marshalJSON(st.FromUser)
	if err != nil {
		b.fail(fmt.Errorf("failed to encode settlement payer: %w", err))
		return
	}
	to, err := marshalJSON(st.ToUser)
	if err != nil {
		b.fail(fmt.Errorf("failed to encode settlement receiver: %w", err))
		return
	}
	row := *st

	b.add(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settlements (id, circle_id, from_user_id, from_user, to_user_id, to_user, amount, status, debt_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.CircleID, row.FromUserID, from, row.ToUserID, to,
			row.Amount.StringFixed(2), string(row.Status), nullable(row.DebtID), toMillis(row.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
		return nil
	})
}

// UpdateSettlementStatus moves a settlement between statuses if it is currently in status from.
func (b *batch) UpdateSettlementStatus(settlementID string, from, to models.SettlementRecordStatus) {
	b.add(func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE settlements SET status = ? WHERE id = ? AND status = ?",
			string(to), settlementID, string(from),
		)
		if err != nil {
			return fmt.Errorf("failed to update settlement status: %w", err)
		}
		return casResult(ctx, tx, res, "settlements", settlementID)
	})
}

// casResult tells a lost compare-and-swap apart from a missing row.
func casResult(ctx context.Context, tx *sql.Tx, res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := requireRow(ctx, tx, table, id); err != nil {
		return err
	}
	return fmt.Errorf("%s %s: %w", table, id, storage.ErrPreconditionFailed)
}

// requireRow returns storage.ErrNotFound unless table has a row with the given id.
// table is always a constant from this package.
func requireRow(ctx context.Context, tx *sql.Tx, table, id string) error {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s %s: %w", table, id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return nil
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
