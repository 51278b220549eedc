package livestock

import (
	"time"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LivestockStatus represents the lifecycle status of a livestock group
type LivestockStatus string

const (
	LivestockStatusActive    LivestockStatus = "active"
	LivestockStatusCompleted LivestockStatus = "completed"
	LivestockStatusCancelled LivestockStatus = "cancelled"
)

// Config holds per-livestock allocation configuration
type Config struct {
	DepletionMethod AllocationMethod `json:"depletion_method"`
}

// Livestock is the aggregate root for one livestock group: a flock
// placed into a coop, subdivided into batches. Running counters mirror
// the sum of per-batch counters; CurrentQuantity is a persisted
// snapshot recomputed from live batch sums on every commit.
type Livestock struct {
	shared.BaseAggregateRoot
	FarmID             uuid.UUID
	CoopID             uuid.UUID
	Name               string
	StartDate          time.Time
	InitialQuantity    int64
	QuantityDepletion  int64
	QuantitySales      int64
	QuantityMutatedOut int64
	QuantityMutatedIn  int64
	CurrentQuantity    int64
	Status             LivestockStatus
	Config             Config
}

// NewLivestock creates a new livestock group
func NewLivestock(farmID, coopID uuid.UUID, name string, startDate time.Time, initialQuantity int64) *Livestock {
	return &Livestock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FarmID:            farmID,
		CoopID:            coopID,
		Name:              name,
		StartDate:         startDate,
		InitialQuantity:   initialQuantity,
		CurrentQuantity:   initialQuantity,
		Status:            LivestockStatusActive,
		Config:            Config{DepletionMethod: AllocationMethodFIFO},
	}
}

// ComputedQuantity derives the current head count from the running counters
func (l *Livestock) ComputedQuantity() int64 {
	return l.InitialQuantity - l.QuantityDepletion - l.QuantitySales - l.QuantityMutatedOut + l.QuantityMutatedIn
}

// IsActive returns true if the livestock group can still be depleted
func (l *Livestock) IsActive() bool {
	return l.Status == LivestockStatusActive
}

// ApplyDepletion increments the counter matching the depletion type.
// The aggregate invariant (computed quantity never below zero) is
// enforced here as a last line of defense; batch-level validation
// should have caught an overdraw earlier.
func (l *Livestock) ApplyDepletion(depletionType DepletionType, quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Depletion quantity must be positive")
	}
	switch depletionType.Counter() {
	case CounterDepletion:
		l.QuantityDepletion += quantity
	case CounterSales:
		l.QuantitySales += quantity
	case CounterMutation:
		l.QuantityMutatedOut += quantity
	}
	if l.ComputedQuantity() < 0 {
		// undo before reporting
		l.reverseCounter(depletionType, quantity)
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Depletion would drive livestock quantity below zero")
	}
	l.UpdatedAt = time.Now()
	return nil
}

// ReverseDepletion decrements the counter matching the depletion type,
// flooring at zero. Returns true if the decrement had to be clamped,
// which indicates prior counter drift.
func (l *Livestock) ReverseDepletion(depletionType DepletionType, quantity int64) bool {
	clamped := l.reverseCounter(depletionType, quantity)
	l.UpdatedAt = time.Now()
	return clamped
}

func (l *Livestock) reverseCounter(depletionType DepletionType, quantity int64) bool {
	var counter *int64
	switch depletionType.Counter() {
	case CounterDepletion:
		counter = &l.QuantityDepletion
	case CounterSales:
		counter = &l.QuantitySales
	case CounterMutation:
		counter = &l.QuantityMutatedOut
	default:
		return false
	}
	if *counter < quantity {
		*counter = 0
		return true
	}
	*counter -= quantity
	return false
}

// RefreshSnapshot resets the persisted current-quantity snapshot from
// the summed availability of live batches. Resumming (rather than
// trusting incremental arithmetic) guards against drift from
// concurrent mutation and sales activity.
func (l *Livestock) RefreshSnapshot(totalAvailable int64) {
	if totalAvailable < 0 {
		totalAvailable = 0
	}
	l.CurrentQuantity = totalAvailable
	l.UpdatedAt = time.Now()
}
