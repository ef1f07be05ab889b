package sqlite

import "database/sql"

// schema sets up the ledger tables. It runs on startup to ensure tables exist.
// Profiles embedded in other records are stored as JSON snapshots. Amounts are decimal strings.
// debts.settlement_status is nullable: legacy rows only carry is_settled.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    uid TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    email TEXT NOT NULL,
    photo_url TEXT NOT NULL DEFAULT '',
    username TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS circles (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    owner_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    last_message_at INTEGER
);

CREATE TABLE IF NOT EXISTS circle_members (
    circle_id TEXT NOT NULL,
    uid TEXT NOT NULL,
    profile TEXT NOT NULL,
    PRIMARY KEY (circle_id, uid),
    FOREIGN KEY (circle_id) REFERENCES circles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    category TEXT NOT NULL,
    date INTEGER NOT NULL,
    recurring_expense_id TEXT,
    is_split INTEGER NOT NULL DEFAULT 0,
    circle_id TEXT,
    split_details TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS debts (
    id TEXT PRIMARY KEY,
    circle_id TEXT,
    transaction_id TEXT NOT NULL,
    transaction_description TEXT NOT NULL,
    debtor_id TEXT NOT NULL,
    debtor TEXT NOT NULL,
    creditor_id TEXT NOT NULL,
    creditor TEXT NOT NULL,
    amount TEXT NOT NULL,
    settlement_status TEXT,
    is_settled INTEGER,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_claims (
    id TEXT PRIMARY KEY,
    claimer_id TEXT NOT NULL,
    claimer_profile TEXT NOT NULL,
    payer_id TEXT NOT NULL,
    expense_details TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    circle_id TEXT NOT NULL,
    from_user_id TEXT NOT NULL,
    from_user TEXT NOT NULL,
    to_user_id TEXT NOT NULL,
    to_user TEXT NOT NULL,
    amount TEXT NOT NULL,
    status TEXT NOT NULL,
    debt_id TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_circle_members_uid ON circle_members(uid);
CREATE INDEX IF NOT EXISTS idx_transactions_circle_created ON transactions(circle_id, created_at);
CREATE INDEX IF NOT EXISTS idx_debts_circle_created ON debts(circle_id, created_at);
CREATE INDEX IF NOT EXISTS idx_debts_debtor ON debts(debtor_id);
CREATE INDEX IF NOT EXISTS idx_debts_creditor ON debts(creditor_id);
CREATE INDEX IF NOT EXISTS idx_debts_transaction ON debts(transaction_id);
CREATE INDEX IF NOT EXISTS idx_claims_payer_status ON expense_claims(payer_id, status);
CREATE INDEX IF NOT EXISTS idx_settlements_circle_created ON settlements(circle_id, created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
