package livestock

import (
	"time"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus represents the lifecycle status of a batch
type BatchStatus string

const (
	BatchStatusActive   BatchStatus = "active"
	BatchStatusDepleted BatchStatus = "depleted"
	BatchStatusClosed   BatchStatus = "closed"
)

// Batch is a cohort of animals placed at one start date, tracked as a
// sub-ledger of a Livestock group. Only active batches participate in
// allocation.
type Batch struct {
	shared.BaseEntity
	LivestockID       uuid.UUID
	Name              string
	StartDate         time.Time
	InitialQuantity   int64
	QuantityDepletion int64
	QuantitySales     int64
	QuantityMutated   int64
	AvgWeight         decimal.Decimal // average body weight in grams
	Status            BatchStatus
}

// NewBatch creates a new active batch under a livestock group
func NewBatch(livestockID uuid.UUID, name string, startDate time.Time, initialQuantity int64, avgWeight decimal.Decimal) *Batch {
	return &Batch{
		BaseEntity:      shared.NewBaseEntity(),
		LivestockID:     livestockID,
		Name:            name,
		StartDate:       startDate,
		InitialQuantity: initialQuantity,
		AvgWeight:       avgWeight,
		Status:          BatchStatusActive,
	}
}

// AvailableQuantity returns the head count still present in this batch
func (b *Batch) AvailableQuantity() int64 {
	return b.InitialQuantity - b.QuantityDepletion - b.QuantitySales - b.QuantityMutated
}

// IsActive returns true if the batch participates in allocation
func (b *Batch) IsActive() bool {
	return b.Status == BatchStatusActive
}

// AgeDays returns the batch age in whole days as of the given time
func (b *Batch) AgeDays(asOf time.Time) int {
	if asOf.Before(b.StartDate) {
		return 0
	}
	return int(asOf.Sub(b.StartDate).Hours() / 24)
}

// ApplyDepletion increments the counter matching the depletion type.
// Fails if the take exceeds current availability.
func (b *Batch) ApplyDepletion(depletionType DepletionType, quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Depletion quantity must be positive")
	}
	if quantity > b.AvailableQuantity() {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Batch "+b.Name+" has insufficient available quantity")
	}
	switch depletionType.Counter() {
	case CounterDepletion:
		b.QuantityDepletion += quantity
	case CounterSales:
		b.QuantitySales += quantity
	case CounterMutation:
		b.QuantityMutated += quantity
	}
	if b.AvailableQuantity() == 0 {
		b.Status = BatchStatusDepleted
	}
	b.UpdatedAt = time.Now()
	return nil
}

// ReverseDepletion decrements the counter matching the depletion type,
// flooring at zero. Returns true if the decrement was clamped, which
// indicates prior counter drift and is worth logging upstream.
func (b *Batch) ReverseDepletion(depletionType DepletionType, quantity int64) bool {
	var counter *int64
	switch depletionType.Counter() {
	case CounterDepletion:
		counter = &b.QuantityDepletion
	case CounterSales:
		counter = &b.QuantitySales
	case CounterMutation:
		counter = &b.QuantityMutated
	}
	clamped := false
	if *counter < quantity {
		*counter = 0
		clamped = true
	} else {
		*counter -= quantity
	}
	if b.Status == BatchStatusDepleted && b.AvailableQuantity() > 0 {
		b.Status = BatchStatusActive
	}
	b.UpdatedAt = time.Now()
	return clamped
}

// SumAvailable totals the available quantity across active batches
func SumAvailable(batches []Batch) int64 {
	var total int64
	for i := range batches {
		if batches[i].IsActive() {
			total += batches[i].AvailableQuantity()
		}
	}
	return total
}
