package persistence

import (
	"context"
	"errors"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// fifoOrder matches the allocation order used by the domain: oldest
// placement first, creation time then id as tie-breakers.
const fifoOrder = "start_date ASC, created_at ASC, id ASC"

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*livestock.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLivestock finds all batches for a livestock group, FIFO ordered.
// Includes exhausted and closed batches.
func (r *GormBatchRepository) FindByLivestock(ctx context.Context, livestockID uuid.UUID) ([]livestock.Batch, error) {
	var batchModels []models.BatchModel
	if err := r.db.WithContext(ctx).
		Where("livestock_id = ?", livestockID).
		Order(fifoOrder).
		Find(&batchModels).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(batchModels), nil
}

// FindByLivestockForUpdate is FindByLivestock with row locks. Must be
// called inside a transaction.
func (r *GormBatchRepository) FindByLivestockForUpdate(ctx context.Context, livestockID uuid.UUID) ([]livestock.Batch, error) {
	var batchModels []models.BatchModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("livestock_id = ?", livestockID).
		Order(fifoOrder).
		Find(&batchModels).Error; err != nil {
		return nil, err
	}
	return toDomainBatches(batchModels), nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, b *livestock.Batch) error {
	model := models.BatchModelFromDomain(b)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAll creates or updates multiple batches
func (r *GormBatchRepository) SaveAll(ctx context.Context, batches []*livestock.Batch) error {
	if len(batches) == 0 {
		return nil
	}
	batchModels := make([]models.BatchModel, len(batches))
	for i, b := range batches {
		batchModels[i] = *models.BatchModelFromDomain(b)
	}
	return r.db.WithContext(ctx).Save(&batchModels).Error
}

func toDomainBatches(batchModels []models.BatchModel) []livestock.Batch {
	batches := make([]livestock.Batch, len(batchModels))
	for i, model := range batchModels {
		batches[i] = *model.ToDomain()
	}
	return batches
}

// Ensure GormBatchRepository implements BatchRepository
var _ livestock.BatchRepository = (*GormBatchRepository)(nil)
