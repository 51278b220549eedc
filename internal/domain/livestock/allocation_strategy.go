package livestock

import (
	"fmt"
	"sort"
	"time"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AllocationMethod defines how a requested depletion quantity is
// distributed across batches
type AllocationMethod string

const (
	// AllocationMethodFIFO depletes oldest batches first by start date
	AllocationMethodFIFO AllocationMethod = "fifo"
	// AllocationMethodManual uses caller-specified batch selections
	AllocationMethodManual AllocationMethod = "manual"
	// AllocationMethodTotal is a legacy configuration value: records
	// were kept without a breakdown. Allocation resolves it to FIFO.
	AllocationMethodTotal AllocationMethod = "total"
)

// IsValid checks if the allocation method is valid
func (m AllocationMethod) IsValid() bool {
	switch m {
	case AllocationMethodFIFO, AllocationMethodManual, AllocationMethodTotal:
		return true
	}
	return false
}

// String returns the string representation
func (m AllocationMethod) String() string {
	return string(m)
}

// AllocationMode selects between the strict allocator and its degraded
// variant. Degraded mode clamps inconsistent stored counters to zero
// and keeps going; it exists as an explicit, testable fallback rather
// than an exception-triggered side path.
type AllocationMode string

const (
	AllocationModeStrict   AllocationMode = "strict"
	AllocationModeDegraded AllocationMode = "degraded"
)

// ManualSelection is one caller-chosen (batch, quantity) pair
type ManualSelection struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Quantity int64     `json:"quantity"`
	Note     string    `json:"note,omitempty"`
}

// AllocationStrategy produces a distribution plan from current batch
// state. Strategies are pure read+compute: they never mutate batches.
type AllocationStrategy interface {
	// Method returns the allocation method this strategy implements
	Method() AllocationMethod
	// Allocate computes a distribution against the given batches as of
	// the given time. Recoverable manual-line failures are reported in
	// Distribution.LineErrors, not as errors.
	Allocate(batches []Batch, asOf time.Time) (*Distribution, error)
}

// FIFOAllocation distributes a requested quantity across active
// batches oldest-start-date first, the standard culling and mortality
// practice of removing the oldest animals before younger ones.
type FIFOAllocation struct {
	Requested int64
	Mode      AllocationMode
}

// NewFIFOAllocation creates a strict FIFO allocation for the requested quantity
func NewFIFOAllocation(requested int64) *FIFOAllocation {
	return &FIFOAllocation{Requested: requested, Mode: AllocationModeStrict}
}

// Method returns the allocation method
func (s *FIFOAllocation) Method() AllocationMethod {
	return AllocationMethodFIFO
}

// Allocate walks active batches in FIFO order, drawing from each until
// the requested quantity is satisfied or the batches are exhausted.
func (s *FIFOAllocation) Allocate(batches []Batch, asOf time.Time) (*Distribution, error) {
	if s.Requested <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Requested quantity must be positive")
	}

	candidates := make([]Batch, 0, len(batches))
	for _, b := range batches {
		if !b.IsActive() {
			continue
		}
		available := b.AvailableQuantity()
		if available < 0 {
			if s.Mode != AllocationModeDegraded {
				return nil, shared.NewDomainError("CONSISTENCY_FAULT",
					"Batch "+b.Name+" has negative available quantity")
			}
			continue // degraded: treat as exhausted
		}
		if available == 0 {
			continue
		}
		candidates = append(candidates, b)
	}

	sortBatchesFIFO(candidates)

	dist := &Distribution{
		Method:            AllocationMethodFIFO,
		RequestedQuantity: s.Requested,
		Lines:             make([]DistributionLine, 0, len(candidates)),
	}

	remaining := s.Requested
	for _, b := range candidates {
		if remaining == 0 {
			break
		}
		available := b.AvailableQuantity()
		take := remaining
		if take > available {
			take = available
		}
		dist.Lines = append(dist.Lines, DistributionLine{
			BatchID:         b.ID,
			BatchName:       b.Name,
			StartDate:       b.StartDate,
			AgeDays:         b.AgeDays(asOf),
			AvailableBefore: available,
			Quantity:        take,
			RemainingAfter:  available - take,
		})
		dist.TotalDistributed += take
		remaining -= take
	}

	dist.Shortfall = remaining
	dist.Complete = remaining == 0
	return dist, nil
}

// ManualAllocation validates caller-specified batch selections and
// produces the same distribution shape as FIFO. Each line is a pinned
// choice, not a search: the plan is complete iff every line passed
// validation.
type ManualAllocation struct {
	Selections []ManualSelection
}

// NewManualAllocation creates a manual allocation from caller selections
func NewManualAllocation(selections []ManualSelection) *ManualAllocation {
	return &ManualAllocation{Selections: selections}
}

// Method returns the allocation method
func (s *ManualAllocation) Method() AllocationMethod {
	return AllocationMethodManual
}

// Allocate validates each selection against current batch state.
// Duplicate batch ids accumulate by summing: a caller may legitimately
// submit the same batch twice, e.g. merged from multiple prior
// records. Over-subscribed or otherwise invalid lines are reported in
// LineErrors so the caller can correct and re-present the form.
func (s *ManualAllocation) Allocate(batches []Batch, asOf time.Time) (*Distribution, error) {
	if len(s.Selections) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Manual allocation requires at least one batch selection")
	}

	// Accumulate duplicates, preserving first-seen order.
	order := make([]uuid.UUID, 0, len(s.Selections))
	merged := make(map[uuid.UUID]*ManualSelection, len(s.Selections))
	for _, sel := range s.Selections {
		if existing, ok := merged[sel.BatchID]; ok {
			existing.Quantity += sel.Quantity
			if sel.Note != "" {
				if existing.Note != "" {
					existing.Note += "; "
				}
				existing.Note += sel.Note
			}
			continue
		}
		copied := sel
		merged[sel.BatchID] = &copied
		order = append(order, sel.BatchID)
	}

	batchByID := make(map[uuid.UUID]*Batch, len(batches))
	for i := range batches {
		batchByID[batches[i].ID] = &batches[i]
	}

	dist := &Distribution{
		Method: AllocationMethodManual,
		Lines:  make([]DistributionLine, 0, len(order)),
	}

	for _, batchID := range order {
		sel := merged[batchID]
		dist.RequestedQuantity += sel.Quantity

		batch, ok := batchByID[batchID]
		if !ok {
			dist.LineErrors = append(dist.LineErrors, AllocationLineError{
				BatchID: batchID,
				Code:    "NOT_FOUND",
				Message: "Batch does not belong to this livestock group",
			})
			continue
		}
		if !batch.IsActive() {
			dist.LineErrors = append(dist.LineErrors, AllocationLineError{
				BatchID: batchID,
				Code:    "INVALID_STATE",
				Message: "Batch " + batch.Name + " is not active",
			})
			continue
		}
		if sel.Quantity <= 0 {
			dist.LineErrors = append(dist.LineErrors, AllocationLineError{
				BatchID: batchID,
				Code:    "INVALID_INPUT",
				Message: "Quantity must be positive",
			})
			continue
		}
		available := batch.AvailableQuantity()
		if sel.Quantity > available {
			dist.LineErrors = append(dist.LineErrors, AllocationLineError{
				BatchID: batchID,
				Code:    "INSUFFICIENT_STOCK",
				Message: fmt.Sprintf("Batch %s has only %d available", batch.Name, available),
			})
			continue
		}

		dist.Lines = append(dist.Lines, DistributionLine{
			BatchID:         batch.ID,
			BatchName:       batch.Name,
			StartDate:       batch.StartDate,
			AgeDays:         batch.AgeDays(asOf),
			AvailableBefore: available,
			Quantity:        sel.Quantity,
			RemainingAfter:  available - sel.Quantity,
			Note:            sel.Note,
		})
		dist.TotalDistributed += sel.Quantity
	}

	dist.Shortfall = dist.RequestedQuantity - dist.TotalDistributed
	dist.Complete = !dist.HasLineErrors() && dist.TotalDistributed == dist.RequestedQuantity
	return dist, nil
}

// AllocationStrategyFactory resolves an allocation method to a strategy
type AllocationStrategyFactory struct{}

// NewAllocationStrategyFactory creates a new factory
func NewAllocationStrategyFactory() *AllocationStrategyFactory {
	return &AllocationStrategyFactory{}
}

// ForMethod returns a strategy for the given method. The legacy "total"
// method resolves to FIFO allocation.
func (f *AllocationStrategyFactory) ForMethod(method AllocationMethod, requested int64, selections []ManualSelection) (AllocationStrategy, error) {
	switch method {
	case AllocationMethodFIFO, AllocationMethodTotal:
		return NewFIFOAllocation(requested), nil
	case AllocationMethodManual:
		if len(selections) == 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Manual method requires batch selections")
		}
		return NewManualAllocation(selections), nil
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown allocation method: "+string(method))
	}
}

// sortBatchesFIFO orders batches oldest start date first. Ties fall
// back to creation time, then id, so repeated previews against the
// same state yield identical distributions.
func sortBatchesFIFO(batches []Batch) {
	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].StartDate.Equal(batches[j].StartDate) {
			return batches[i].StartDate.Before(batches[j].StartDate)
		}
		if !batches[i].CreatedAt.Equal(batches[j].CreatedAt) {
			return batches[i].CreatedAt.Before(batches[j].CreatedAt)
		}
		return batches[i].ID.String() < batches[j].ID.String()
	})
}
