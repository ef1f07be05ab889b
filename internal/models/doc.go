// Package models defines the ledger records shared by the store, the engine and the RPC layer.
//
// # Records
//
//   - UserProfile: immutable identity snapshot, embedded by value wherever a user appears
//   - Transaction: an expense, optionally split across circle members
//   - Debt: a directed obligation from a debtor to a creditor for one split expense
//   - Circle: a named group of users sharing expenses
//   - ExpenseClaim: a request asking the real payer to confirm an expense logged on their behalf
//   - Settlement: a circle-scoped repayment record; only confirmed ones affect balances
//   - Notification: a counterparty-facing message emitted after state changes
//
// # Money
//
// Amounts are shopspring decimals rounded to two places. Comparisons against zero use
// Epsilon (0.01) rather than exact equality.
//
// # Snapshots
//
// Profiles embedded in circles and debts are copies taken at write time. They are refreshed only
// by an explicit profile sync, never resolved live.
package models
