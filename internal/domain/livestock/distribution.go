package livestock

import (
	"time"

	"github.com/google/uuid"
)

// DistributionLine is one batch's share of a planned allocation
type DistributionLine struct {
	BatchID         uuid.UUID `json:"batch_id"`
	BatchName       string    `json:"batch_name"`
	StartDate       time.Time `json:"start_date"`
	AgeDays         int       `json:"age_days"`
	AvailableBefore int64     `json:"available_before"`
	Quantity        int64     `json:"quantity"`
	RemainingAfter  int64     `json:"remaining_after"`
	Note            string    `json:"note,omitempty"`
	// Inferred marks a line reconstructed from a legacy record without
	// a stored breakdown; callers should warn that it is a guess, not
	// the original allocation.
	Inferred bool `json:"inferred,omitempty"`
}

// AllocationLineError describes why a manually selected line was
// rejected. These are recoverable, user-correctable results carried in
// the distribution itself, not error returns.
type AllocationLineError struct {
	BatchID uuid.UUID `json:"batch_id"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Distribution is the computed mapping of a requested quantity across
// one or more batches, plus its validation summary. It is transient:
// recomputed fresh against current batch state on every preview or
// commit, never mutated in place.
type Distribution struct {
	Method            AllocationMethod      `json:"method"`
	RequestedQuantity int64                 `json:"requested_quantity"`
	TotalDistributed  int64                 `json:"total_distributed"`
	Shortfall         int64                 `json:"shortfall"`
	Complete          bool                  `json:"complete"`
	Lines             []DistributionLine    `json:"lines"`
	LineErrors        []AllocationLineError `json:"line_errors,omitempty"`
}

// LineForBatch returns the line drawing from the given batch, or nil
func (d *Distribution) LineForBatch(batchID uuid.UUID) *DistributionLine {
	for i := range d.Lines {
		if d.Lines[i].BatchID == batchID {
			return &d.Lines[i]
		}
	}
	return nil
}

// HasLineErrors reports whether any manual line failed validation
func (d *Distribution) HasLineErrors() bool {
	return len(d.LineErrors) > 0
}

// BatchIDSet returns the set of batch ids the distribution draws from
func (d *Distribution) BatchIDSet() map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(d.Lines))
	for _, line := range d.Lines {
		set[line.BatchID] = struct{}{}
	}
	return set
}
