package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRecordingRepository implements RecordingRepository using GORM
type GormRecordingRepository struct {
	db *gorm.DB
}

// NewGormRecordingRepository creates a new GormRecordingRepository
func NewGormRecordingRepository(db *gorm.DB) *GormRecordingRepository {
	return &GormRecordingRepository{db: db}
}

// FindByLivestockAndDate finds the recording for a livestock group on a
// given day; returns shared.ErrNotFound when absent
func (r *GormRecordingRepository) FindByLivestockAndDate(ctx context.Context, livestockID uuid.UUID, date time.Time) (*livestock.Recording, error) {
	var model models.RecordingModel
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	if err := r.db.WithContext(ctx).
		Where("livestock_id = ? AND date = ?", livestockID, day).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormRecordingRepository implements RecordingRepository
var _ livestock.RecordingRepository = (*GormRecordingRepository)(nil)
