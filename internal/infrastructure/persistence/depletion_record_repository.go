package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDepletionRecordRepository implements DepletionRecordRepository using GORM
type GormDepletionRecordRepository struct {
	db *gorm.DB
}

// NewGormDepletionRecordRepository creates a new GormDepletionRecordRepository
func NewGormDepletionRecordRepository(db *gorm.DB) *GormDepletionRecordRepository {
	return &GormDepletionRecordRepository{db: db}
}

// FindByID finds a depletion record (with lines) by its ID
func (r *GormDepletionRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*livestock.DepletionRecord, error) {
	var model models.DepletionRecordModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLivestockAndDate finds all records (with lines) for a livestock
// group on a given day
func (r *GormDepletionRecordRepository) FindByLivestockAndDate(ctx context.Context, livestockID uuid.UUID, date time.Time) ([]livestock.DepletionRecord, error) {
	var recordModels []models.DepletionRecordModel
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("livestock_id = ? AND date = ?", livestockID, day).
		Order("created_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels), nil
}

// FindByLivestock finds records for a livestock group matching the filter
func (r *GormDepletionRecordRepository) FindByLivestock(ctx context.Context, livestockID uuid.UUID, filter shared.Filter) ([]livestock.DepletionRecord, error) {
	var recordModels []models.DepletionRecordModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.DepletionRecordModel{}).
			Where("livestock_id = ?", livestockID),
		filter,
	)

	if err := query.Preload("Lines").Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels), nil
}

// Create creates a new record with its lines
func (r *GormDepletionRecordRepository) Create(ctx context.Context, record *livestock.DepletionRecord) error {
	model := models.DepletionRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update replaces a record's scalar fields and lines in place. The line
// set is rewritten wholesale: an edit can change which batches a record
// draws from, so diffing individual lines buys nothing.
func (r *GormDepletionRecordRepository) Update(ctx context.Context, record *livestock.DepletionRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.DepletionRecordModelFromDomain(record)

		result := tx.Model(&models.DepletionRecordModel{}).
			Where("id = ?", model.ID).
			Updates(map[string]interface{}{
				"recording_id":   model.RecordingID,
				"date":           model.Date,
				"type":           model.Type,
				"method":         model.Method,
				"total_quantity": model.TotalQuantity,
				"reason":         model.Reason,
				"updated_at":     model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Where("record_id = ?", model.ID).
			Delete(&models.DepletionLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) > 0 {
			if err := tx.Create(&model.Lines).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete deletes a record and its lines
func (r *GormDepletionRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("record_id = ?", id).
			Delete(&models.DepletionLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.DepletionRecordModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// applyFilter applies filter options including pagination and ordering
func (r *GormDepletionRecordRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "date_from":
			query = query.Where("date >= ?", value)
		case "date_to":
			query = query.Where("date <= ?", value)
		}
	}

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
		query = query.Order("date DESC, created_at DESC")
	}

	return query
}

func toDomainRecords(recordModels []models.DepletionRecordModel) []livestock.DepletionRecord {
	records := make([]livestock.DepletionRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records
}

// Ensure GormDepletionRecordRepository implements DepletionRecordRepository
var _ livestock.DepletionRecordRepository = (*GormDepletionRecordRepository)(nil)
