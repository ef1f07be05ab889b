// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcircle/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPreconditionFailed is returned by Commit when a compare-and-swap in the batch
	// found a different current value.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrPermissionDenied is returned when the backend refuses the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrIndexRequired is returned when a query depends on an index that does not exist.
	ErrIndexRequired = errors.New("query requires an index")
)

// Store defines the ledger storage operations.
// This abstraction allows swapping storage backends without changing the engine.
// Reads are direct; every write goes through a Batch.
type Store interface {
	GetUserProfile(ctx context.Context, uid string) (*models.UserProfile, error)

	GetCircle(ctx context.Context, circleID string) (*models.Circle, error)

	// ListCirclesForUser returns the circles uid is a member of, newest first.
	ListCirclesForUser(ctx context.Context, uid string) ([]*models.Circle, error)

	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)

	// ListCircleTransactions returns a circle's transactions, newest first.
	ListCircleTransactions(ctx context.Context, circleID string) ([]*models.Transaction, error)

	GetDebt(ctx context.Context, debtID string) (*models.Debt, error)

	// ListDebtsForCircle returns the circle's debts that involve uid, newest first,
	// with legacy status fields normalized.
	ListDebtsForCircle(ctx context.Context, circleID, uid string) ([]*models.Debt, error)

	// ListDebtsForUser returns every debt that involves uid, newest first.
	ListDebtsForUser(ctx context.Context, uid string) ([]*models.Debt, error)

	ListDebtsByTransaction(ctx context.Context, transactionID string) ([]*models.Debt, error)

	GetExpenseClaim(ctx context.Context, claimID string) (*models.ExpenseClaim, error)

	ListPendingClaimsForPayer(ctx context.Context, payerID string) ([]*models.ExpenseClaim, error)

	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListCircleSettlements returns the circle's settlements, newest first. With no statuses
	// given, every settlement is returned.
	ListCircleSettlements(ctx context.Context, circleID string, statuses ...models.SettlementRecordStatus) ([]*models.Settlement, error)

	// NewBatch starts an atomic write. Nothing is visible until Commit succeeds.
	NewBatch() Batch

	// Close releases any resources held by the store.
	Close() error
}

// Batch queues writes that are applied all-or-nothing by Commit.
//
// Create methods assign ID and CreatedAt on the passed record immediately, so callers can
// reference new records from later writes in the same batch.
type Batch interface {
	UpsertUserProfile(profile models.UserProfile)

	// RefreshProfileSnapshots rewrites every embedded copy of the profile.
	RefreshProfileSnapshots(profile models.UserProfile)

	CreateCircle(circle *models.Circle)
	AddCircleMember(circleID string, profile models.UserProfile)
	RemoveCircleMember(circleID, uid string)
	SetCircleOwner(circleID, ownerID string)
	DeleteCircle(circleID string)

	CreateTransaction(txn *models.Transaction)

	// DecrementTransactionAmount lowers a transaction's amount, never below zero.
	DecrementTransactionAmount(transactionID string, amount decimal.Decimal)

	CreateDebt(debt *models.Debt)

	// UpdateDebtStatus moves a debt from one status to another. Commit fails with
	// ErrPreconditionFailed if the debt is not in status from.
	UpdateDebtStatus(debtID string, from, to models.SettlementStatus)

	DeleteDebt(debtID string)

	CreateExpenseClaim(claim *models.ExpenseClaim)

	// UpdateClaimStatus is a compare-and-swap like UpdateDebtStatus.
	UpdateClaimStatus(claimID string, from, to models.ClaimStatus)

	CreateSettlement(settlement *models.Settlement)

	// UpdateSettlementStatus is a compare-and-swap like UpdateDebtStatus.
	UpdateSettlementStatus(settlementID string, from, to models.SettlementRecordStatus)

	// Commit applies the queued writes in order inside one transaction.
	// A batch can be committed once.
	Commit(ctx context.Context) error
}
