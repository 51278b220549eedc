package livestock

import (
	"fmt"
	"time"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DepletionLine is one batch's share of a committed depletion record
type DepletionLine struct {
	shared.BaseEntity
	RecordID uuid.UUID
	BatchID  uuid.UUID
	Quantity int64
	Note     string
}

// DepletionRecord represents one committed removal event for a
// livestock group on a given date. Records created by older versions of
// the system carry only a flat type+quantity without a per-batch
// breakdown; those are "legacy" records (HasBreakdown == false).
type DepletionRecord struct {
	shared.BaseEntity
	LivestockID   uuid.UUID
	RecordingID   *uuid.UUID
	Date          time.Time
	Type          DepletionType
	Method        AllocationMethod
	TotalQuantity int64
	Reason        string
	Lines         []DepletionLine
}

// NewDepletionRecord builds a record from a committed distribution
func NewDepletionRecord(livestockID uuid.UUID, recordingID *uuid.UUID, date time.Time, depletionType DepletionType, dist *Distribution, reason string) *DepletionRecord {
	r := &DepletionRecord{
		BaseEntity:    shared.NewBaseEntity(),
		LivestockID:   livestockID,
		RecordingID:   recordingID,
		Date:          truncateToDay(date),
		Type:          depletionType,
		Method:        dist.Method,
		TotalQuantity: dist.TotalDistributed,
		Reason:        reason,
		Lines:         make([]DepletionLine, 0, len(dist.Lines)),
	}
	for _, line := range dist.Lines {
		r.Lines = append(r.Lines, DepletionLine{
			BaseEntity: shared.NewBaseEntity(),
			RecordID:   r.ID,
			BatchID:    line.BatchID,
			Quantity:   line.Quantity,
			Note:       line.Note,
		})
	}
	return r
}

// HasBreakdown reports whether the record carries a machine-readable
// per-batch breakdown
func (r *DepletionRecord) HasBreakdown() bool {
	return len(r.Lines) > 0
}

// BatchIDSet returns the set of batch ids the record drew from
func (r *DepletionRecord) BatchIDSet() map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(r.Lines))
	for _, line := range r.Lines {
		set[line.BatchID] = struct{}{}
	}
	return set
}

// Validate checks the record's internal invariant: a structured record
// must distribute exactly its total quantity across its lines. A
// violation is a data-integrity bug, never silently coerced.
func (r *DepletionRecord) Validate() error {
	if r.TotalQuantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Depletion record total quantity must be positive")
	}
	if !r.Type.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Unknown depletion type: "+string(r.Type))
	}
	if !r.HasBreakdown() {
		return nil
	}
	var sum int64
	for _, line := range r.Lines {
		if line.Quantity <= 0 {
			return shared.NewDomainError("CONSISTENCY_FAULT", "Depletion line quantity must be positive")
		}
		sum += line.Quantity
	}
	if sum != r.TotalQuantity {
		return shared.NewDomainError("CONSISTENCY_FAULT",
			fmt.Sprintf("Breakdown sum %d does not match record total %d", sum, r.TotalQuantity))
	}
	return nil
}

// truncateToDay normalizes dates to day precision; depletion records
// are keyed by (livestock, day).
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
