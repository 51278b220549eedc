package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLivestockRepository implements LivestockRepository using GORM
type GormLivestockRepository struct {
	db *gorm.DB
}

// NewGormLivestockRepository creates a new GormLivestockRepository
func NewGormLivestockRepository(db *gorm.DB) *GormLivestockRepository {
	return &GormLivestockRepository{db: db}
}

// FindByID finds a livestock group by its ID
func (r *GormLivestockRepository) FindByID(ctx context.Context, id uuid.UUID) (*livestock.Livestock, error) {
	var model models.LivestockModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a livestock group and takes a row lock on it.
// Must be called inside a transaction; the lock serializes all
// depletion writes against the same livestock group.
func (r *GormLivestockRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*livestock.Livestock, error) {
	var model models.LivestockModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds livestock groups matching the filter
func (r *GormLivestockRepository) FindAll(ctx context.Context, filter shared.Filter) ([]livestock.Livestock, error) {
	var livestockModels []models.LivestockModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.LivestockModel{}), filter)

	if err := query.Find(&livestockModels).Error; err != nil {
		return nil, err
	}

	groups := make([]livestock.Livestock, len(livestockModels))
	for i, model := range livestockModels {
		groups[i] = *model.ToDomain()
	}
	return groups, nil
}

// FindActive finds all active livestock groups
func (r *GormLivestockRepository) FindActive(ctx context.Context) ([]livestock.Livestock, error) {
	var livestockModels []models.LivestockModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(livestock.LivestockStatusActive)).
		Order("start_date ASC, created_at ASC").
		Find(&livestockModels).Error; err != nil {
		return nil, err
	}

	groups := make([]livestock.Livestock, len(livestockModels))
	for i, model := range livestockModels {
		groups[i] = *model.ToDomain()
	}
	return groups, nil
}

// Save creates or updates a livestock group
func (r *GormLivestockRepository) Save(ctx context.Context, l *livestock.Livestock) error {
	model := models.LivestockModelFromDomain(l)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormLivestockRepository) SaveWithLock(ctx context.Context, l *livestock.Livestock) error {
	model := models.LivestockModelFromDomain(l)
	result := r.db.WithContext(ctx).
		Model(&models.LivestockModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]interface{}{
			"quantity_depletion":   model.QuantityDepletion,
			"quantity_sales":       model.QuantitySales,
			"quantity_mutated_out": model.QuantityMutatedOut,
			"quantity_mutated_in":  model.QuantityMutatedIn,
			"current_quantity":     model.CurrentQuantity,
			"status":               model.Status,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Count counts livestock groups matching the filter
func (r *GormLivestockRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.LivestockModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormLivestockRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("start_date ASC, created_at ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormLivestockRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "farm_id":
			query = query.Where("farm_id = ?", value)
		case "coop_id":
			query = query.Where("coop_id = ?", value)
		}
	}

	return query
}

// Ensure GormLivestockRepository implements LivestockRepository
var _ livestock.LivestockRepository = (*GormLivestockRepository)(nil)
