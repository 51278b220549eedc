package livestock

import (
	"context"
	"time"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LivestockRepository defines the interface for livestock persistence
type LivestockRepository interface {
	// FindByID finds a livestock group by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Livestock, error)

	// FindByIDForUpdate finds a livestock group and takes a row lock on
	// it; must be called inside a transaction. All mutating depletion
	// flows go through this to enforce a single writer per livestock.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Livestock, error)

	// FindAll finds livestock groups matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Livestock, error)

	// FindActive finds all active livestock groups
	FindActive(ctx context.Context) ([]Livestock, error)

	// Save creates or updates a livestock group
	Save(ctx context.Context, l *Livestock) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, l *Livestock) error

	// Count counts livestock groups matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// BatchRepository defines the interface for batch persistence
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindByLivestock finds all batches for a livestock group, FIFO
	// ordered (start date asc, creation asc). Includes exhausted and
	// closed batches so manual-selection listings can show them.
	FindByLivestock(ctx context.Context, livestockID uuid.UUID) ([]Batch, error)

	// FindByLivestockForUpdate is FindByLivestock with row locks; must
	// be called inside a transaction. Mutating flows lock all of the
	// group's batches, exhausted ones included, because reversing a
	// prior record may need to touch batches it depleted.
	FindByLivestockForUpdate(ctx context.Context, livestockID uuid.UUID) ([]Batch, error)

	// Save creates or updates a batch
	Save(ctx context.Context, b *Batch) error

	// SaveAll creates or updates multiple batches
	SaveAll(ctx context.Context, batches []*Batch) error
}

// DepletionRecordRepository defines the interface for depletion record
// persistence. Records are append/replace-only per (livestock, date).
type DepletionRecordRepository interface {
	// FindByID finds a depletion record (with lines) by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*DepletionRecord, error)

	// FindByLivestockAndDate finds all records (with lines) for a
	// livestock group on a given day
	FindByLivestockAndDate(ctx context.Context, livestockID uuid.UUID, date time.Time) ([]DepletionRecord, error)

	// FindByLivestock finds records for a livestock group matching the filter
	FindByLivestock(ctx context.Context, livestockID uuid.UUID, filter shared.Filter) ([]DepletionRecord, error)

	// Create creates a new record with its lines
	Create(ctx context.Context, record *DepletionRecord) error

	// Update replaces a record's scalar fields and lines in place
	Update(ctx context.Context, record *DepletionRecord) error

	// Delete deletes a record and its lines
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecordingRepository provides the optional daily-recording join
type RecordingRepository interface {
	// FindByLivestockAndDate finds the recording for a livestock group
	// on a given day; returns shared.ErrNotFound when absent
	FindByLivestockAndDate(ctx context.Context, livestockID uuid.UUID, date time.Time) (*Recording, error)
}
