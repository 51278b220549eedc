package livestock

import (
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EditReconciler merges the depletion records already committed for a
// (livestock, date) pair back into one editable distribution, the
// pre-filled form state for an edit flow. It reads only; cancelling an
// edit simply discards the merged distribution.
type EditReconciler struct{}

// NewEditReconciler creates a new EditReconciler
func NewEditReconciler() *EditReconciler {
	return &EditReconciler{}
}

// Reconcile merges the given records' stored batch-level data into a
// single distribution. Structured records contribute their breakdown
// lines directly. Legacy records carry no breakdown, so a single
// synthetic line is reconstructed against the active batch with the
// highest current availability and tagged Inferred so the caller can
// warn that it is a reconstruction, not the original allocation.
// Lines are merged by batch id: quantities sum, notes concatenate.
func (r *EditReconciler) Reconcile(records []DepletionRecord, batches []Batch) (*Distribution, error) {
	if len(records) == 0 {
		return nil, shared.ErrNotFound
	}

	batchByID := make(map[uuid.UUID]*Batch, len(batches))
	for i := range batches {
		batchByID[batches[i].ID] = &batches[i]
	}

	method := AllocationMethodFIFO
	order := make([]uuid.UUID, 0)
	mergedByBatch := make(map[uuid.UUID]*DistributionLine)

	merge := func(batchID uuid.UUID, quantity int64, note string, inferred bool) {
		line, ok := mergedByBatch[batchID]
		if !ok {
			line = &DistributionLine{BatchID: batchID, Inferred: inferred}
			if batch, found := batchByID[batchID]; found {
				line.BatchName = batch.Name
				line.StartDate = batch.StartDate
				line.AvailableBefore = batch.AvailableQuantity()
			}
			mergedByBatch[batchID] = line
			order = append(order, batchID)
		}
		line.Quantity += quantity
		line.Inferred = line.Inferred || inferred
		if note != "" {
			if line.Note != "" {
				line.Note += "; "
			}
			line.Note += note
		}
	}

	var total int64
	for i := range records {
		record := &records[i]
		if record.Method == AllocationMethodManual {
			method = AllocationMethodManual
		}
		total += record.TotalQuantity

		if record.HasBreakdown() {
			for _, line := range record.Lines {
				merge(line.BatchID, line.Quantity, line.Note, false)
			}
			continue
		}

		// legacy record: reconstruct against the deepest active batch
		target := deepestActiveBatch(batches)
		if target == nil {
			return nil, shared.NewDomainError("INVALID_STATE",
				"No active batch available to reconstruct legacy record "+record.ID.String())
		}
		merge(target.ID, record.TotalQuantity, "", true)
	}

	dist := &Distribution{
		Method:            method,
		RequestedQuantity: total,
		TotalDistributed:  total,
		Complete:          true,
		Lines:             make([]DistributionLine, 0, len(order)),
	}
	for _, batchID := range order {
		line := mergedByBatch[batchID]
		line.RemainingAfter = line.AvailableBefore - line.Quantity
		if line.RemainingAfter < 0 {
			line.RemainingAfter = 0
		}
		dist.Lines = append(dist.Lines, *line)
	}
	return dist, nil
}

// deepestActiveBatch returns the active batch with the highest current
// availability. Ties break toward the older batch for determinism.
func deepestActiveBatch(batches []Batch) *Batch {
	var best *Batch
	for i := range batches {
		b := &batches[i]
		if !b.IsActive() || b.AvailableQuantity() <= 0 {
			continue
		}
		if best == nil ||
			b.AvailableQuantity() > best.AvailableQuantity() ||
			(b.AvailableQuantity() == best.AvailableQuantity() && b.StartDate.Before(best.StartDate)) {
			best = b
		}
	}
	return best
}

// ToManualSelections converts a merged distribution into manual
// selections, the shape a re-submitted edit arrives in.
func ToManualSelections(dist *Distribution) []ManualSelection {
	selections := make([]ManualSelection, 0, len(dist.Lines))
	for _, line := range dist.Lines {
		selections = append(selections, ManualSelection{
			BatchID:  line.BatchID,
			Quantity: line.Quantity,
			Note:     line.Note,
		})
	}
	return selections
}
