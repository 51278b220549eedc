package depletion

import (
	"context"

	"github.com/farmstock/backend/internal/domain/livestock"
)

// TransactionScope provides transactional access to livestock repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the livestock repositories
// within a transaction. All repositories returned share the same
// underlying database transaction.
//
// Aggregate boundary notes:
//   - LivestockRepo: repository for the Livestock aggregate root. The
//     FOR UPDATE variant is the serialization point for all depletion
//     writes to one livestock group.
//   - BatchRepo: batches are child entities of Livestock with separate
//     storage; counter changes are saved per batch after the aggregate
//     row lock is held.
//   - DepletionRepo: depletion records and their lines.
//   - RecordingRepo: read-only join for daily recording annotations.
type TransactionalRepositories interface {
	// LivestockRepo returns the livestock repository scoped to the current transaction
	LivestockRepo() livestock.LivestockRepository
	// BatchRepo returns the batch repository scoped to the current transaction
	BatchRepo() livestock.BatchRepository
	// DepletionRepo returns the depletion record repository scoped to the current transaction
	DepletionRepo() livestock.DepletionRecordRepository
	// RecordingRepo returns the recording repository scoped to the current transaction
	RecordingRepo() livestock.RecordingRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing or when transaction support is not
// required.
type NoOpTransactionScope struct {
	livestockRepo livestock.LivestockRepository
	batchRepo     livestock.BatchRepository
	depletionRepo livestock.DepletionRecordRepository
	recordingRepo livestock.RecordingRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	livestockRepo livestock.LivestockRepository,
	batchRepo livestock.BatchRepository,
	depletionRepo livestock.DepletionRecordRepository,
	recordingRepo livestock.RecordingRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		livestockRepo: livestockRepo,
		batchRepo:     batchRepo,
		depletionRepo: depletionRepo,
		recordingRepo: recordingRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LivestockRepo returns the livestock repository.
func (s *NoOpTransactionScope) LivestockRepo() livestock.LivestockRepository {
	return s.livestockRepo
}

// BatchRepo returns the batch repository.
func (s *NoOpTransactionScope) BatchRepo() livestock.BatchRepository {
	return s.batchRepo
}

// DepletionRepo returns the depletion record repository.
func (s *NoOpTransactionScope) DepletionRepo() livestock.DepletionRecordRepository {
	return s.depletionRepo
}

// RecordingRepo returns the recording repository.
func (s *NoOpTransactionScope) RecordingRepo() livestock.RecordingRepository {
	return s.recordingRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
