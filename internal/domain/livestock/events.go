package livestock

import (
	"time"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the livestock bounded context
const (
	EventTypeDepletionCommitted = "livestock.depletion_committed"
	EventTypeDepletionReversed  = "livestock.depletion_reversed"
	EventTypeSnapshotRefreshed  = "livestock.snapshot_refreshed"
)

// AggregateTypeLivestock identifies the livestock aggregate in events
const AggregateTypeLivestock = "Livestock"

// DepletionCommittedEvent is published after a depletion commit succeeds
type DepletionCommittedEvent struct {
	shared.BaseDomainEvent
	RecordID      uuid.UUID     `json:"record_id"`
	LivestockID   uuid.UUID     `json:"livestock_id"`
	Date          time.Time     `json:"date"`
	DepletionType DepletionType `json:"depletion_type"`
	Method        AllocationMethod `json:"method"`
	TotalQuantity int64         `json:"total_quantity"`
	BatchCount    int           `json:"batch_count"`
}

// NewDepletionCommittedEvent creates a new DepletionCommittedEvent
func NewDepletionCommittedEvent(record *DepletionRecord) *DepletionCommittedEvent {
	return &DepletionCommittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDepletionCommitted, AggregateTypeLivestock, record.LivestockID),
		RecordID:        record.ID,
		LivestockID:     record.LivestockID,
		Date:            record.Date,
		DepletionType:   record.Type,
		Method:          record.Method,
		TotalQuantity:   record.TotalQuantity,
		BatchCount:      len(record.Lines),
	}
}

// DepletionReversedEvent is published after a record's effects are rolled back
type DepletionReversedEvent struct {
	shared.BaseDomainEvent
	RecordID      uuid.UUID     `json:"record_id"`
	LivestockID   uuid.UUID     `json:"livestock_id"`
	DepletionType DepletionType `json:"depletion_type"`
	TotalQuantity int64         `json:"total_quantity"`
	ClampCount    int           `json:"clamp_count"`
}

// NewDepletionReversedEvent creates a new DepletionReversedEvent
func NewDepletionReversedEvent(record *DepletionRecord, clampCount int) *DepletionReversedEvent {
	return &DepletionReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDepletionReversed, AggregateTypeLivestock, record.LivestockID),
		RecordID:        record.ID,
		LivestockID:     record.LivestockID,
		DepletionType:   record.Type,
		TotalQuantity:   record.TotalQuantity,
		ClampCount:      clampCount,
	}
}

// SnapshotRefreshedEvent is published when the current-quantity
// snapshot is recomputed from live batch sums
type SnapshotRefreshedEvent struct {
	shared.BaseDomainEvent
	LivestockID     uuid.UUID `json:"livestock_id"`
	CurrentQuantity int64     `json:"current_quantity"`
}

// NewSnapshotRefreshedEvent creates a new SnapshotRefreshedEvent
func NewSnapshotRefreshedEvent(l *Livestock) *SnapshotRefreshedEvent {
	return &SnapshotRefreshedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSnapshotRefreshed, AggregateTypeLivestock, l.ID),
		LivestockID:     l.ID,
		CurrentQuantity: l.CurrentQuantity,
	}
}
