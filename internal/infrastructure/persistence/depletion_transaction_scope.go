package persistence

import (
	"context"

	"github.com/farmstock/backend/internal/application/depletion"
	"github.com/farmstock/backend/internal/domain/livestock"
	"gorm.io/gorm"
)

// GormTransactionScope implements depletion.TransactionScope using GORM
// transactions. Every repository handed to the callback is bound to the
// same *gorm.DB transaction, so the depletion commit's reads, counter
// updates, and record writes commit or roll back as one unit.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos depletion.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides repositories bound to a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// LivestockRepo returns the livestock repository scoped to the transaction
func (r *gormTransactionalRepositories) LivestockRepo() livestock.LivestockRepository {
	return NewGormLivestockRepository(r.tx)
}

// BatchRepo returns the batch repository scoped to the transaction
func (r *gormTransactionalRepositories) BatchRepo() livestock.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

// DepletionRepo returns the depletion record repository scoped to the transaction
func (r *gormTransactionalRepositories) DepletionRepo() livestock.DepletionRecordRepository {
	return NewGormDepletionRecordRepository(r.tx)
}

// RecordingRepo returns the recording repository scoped to the transaction
func (r *gormTransactionalRepositories) RecordingRepo() livestock.RecordingRepository {
	return NewGormRecordingRepository(r.tx)
}

// Ensure interface compliance
var _ depletion.TransactionScope = (*GormTransactionScope)(nil)
var _ depletion.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
