package livestock

import (
	"fmt"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DepletionDomainService applies and reverses distribution plans
// against batch and livestock counters. It operates purely on in-memory
// entities; transaction boundaries and persistence belong to the
// application layer.
type DepletionDomainService struct{}

// NewDepletionDomainService creates a new DepletionDomainService
func NewDepletionDomainService() *DepletionDomainService {
	return &DepletionDomainService{}
}

// RevalidateDistribution checks every line of a planned distribution
// against live batch state. A preview is advisory, not a lock: time may
// have passed between preview and commit, so each take is re-checked
// against current availability right before counters move.
func (s *DepletionDomainService) RevalidateDistribution(dist *Distribution, batchByID map[uuid.UUID]*Batch) error {
	if dist.HasLineErrors() {
		return shared.NewDomainError("VALIDATION_ERROR", "Distribution has unresolved line errors")
	}
	for _, line := range dist.Lines {
		batch, ok := batchByID[line.BatchID]
		if !ok {
			return shared.NewDomainError("NOT_FOUND", "Batch "+line.BatchID.String()+" no longer exists")
		}
		if !batch.IsActive() {
			return shared.NewDomainError("INVALID_STATE", "Batch "+batch.Name+" is no longer active")
		}
		if available := batch.AvailableQuantity(); line.Quantity > available {
			return shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Batch %s has %d available, distribution takes %d", batch.Name, available, line.Quantity))
		}
	}
	return nil
}

// ApplyDistribution increments per-batch counters and the livestock
// aggregate counters for every line of the distribution. On any
// failure, increments already applied in this call are undone before
// the error is returned, so the in-memory entities are never left
// half-applied.
func (s *DepletionDomainService) ApplyDistribution(l *Livestock, batchByID map[uuid.UUID]*Batch, dist *Distribution, depletionType DepletionType) error {
	applied := make([]DistributionLine, 0, len(dist.Lines))
	for _, line := range dist.Lines {
		batch, ok := batchByID[line.BatchID]
		if !ok {
			s.undo(batchByID, applied, depletionType)
			return shared.NewDomainError("NOT_FOUND", "Batch "+line.BatchID.String()+" not loaded for commit")
		}
		if err := batch.ApplyDepletion(depletionType, line.Quantity); err != nil {
			s.undo(batchByID, applied, depletionType)
			return err
		}
		applied = append(applied, line)
	}
	if err := l.ApplyDepletion(depletionType, dist.TotalDistributed); err != nil {
		s.undo(batchByID, applied, depletionType)
		return err
	}
	return nil
}

func (s *DepletionDomainService) undo(batchByID map[uuid.UUID]*Batch, applied []DistributionLine, depletionType DepletionType) {
	for _, line := range applied {
		if batch, ok := batchByID[line.BatchID]; ok {
			batch.ReverseDepletion(depletionType, line.Quantity)
		}
	}
}

// ReversalClamp records a counter that had to be floored at zero while
// reversing a record, a sign of prior data drift.
type ReversalClamp struct {
	BatchID  uuid.UUID
	Quantity int64
}

// ReverseRecord undoes the counter effects of a committed record: every
// breakdown line's batch counter and the aggregate counter are
// decremented by the exact amounts previously deducted, flooring at
// zero. Legacy records without a breakdown only reverse the aggregate.
// Returned clamps should be logged by the caller.
func (s *DepletionDomainService) ReverseRecord(l *Livestock, batchByID map[uuid.UUID]*Batch, record *DepletionRecord) []ReversalClamp {
	clamps := make([]ReversalClamp, 0)
	for _, line := range record.Lines {
		batch, ok := batchByID[line.BatchID]
		if !ok {
			// batch deleted since; only the aggregate can be restored
			clamps = append(clamps, ReversalClamp{BatchID: line.BatchID, Quantity: line.Quantity})
			continue
		}
		if batch.ReverseDepletion(record.Type, line.Quantity) {
			clamps = append(clamps, ReversalClamp{BatchID: line.BatchID, Quantity: line.Quantity})
		}
	}
	if l.ReverseDepletion(record.Type, record.TotalQuantity) {
		clamps = append(clamps, ReversalClamp{BatchID: uuid.Nil, Quantity: record.TotalQuantity})
	}
	return clamps
}
