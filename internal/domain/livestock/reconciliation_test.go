package livestock

import (
	"testing"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func structuredRecord(livestockID uuid.UUID, method AllocationMethod, depletionType DepletionType, lines ...DepletionLine) DepletionRecord {
	var total int64
	for _, line := range lines {
		total += line.Quantity
	}
	return DepletionRecord{
		BaseEntity:    shared.NewBaseEntity(),
		LivestockID:   livestockID,
		Date:          date(2024, 2, 1),
		Type:          depletionType,
		Method:        method,
		TotalQuantity: total,
		Lines:         lines,
	}
}

func TestEditReconcilerReconcile(t *testing.T) {
	reconciler := NewEditReconciler()

	t.Run("no records yields not found", func(t *testing.T) {
		_, err := reconciler.Reconcile(nil, nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("single structured record maps lines directly", func(t *testing.T) {
		livestockID := uuid.New()
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		record := structuredRecord(livestockID, AllocationMethodFIFO, DepletionTypeMortality,
			DepletionLine{BatchID: batchA.ID, Quantity: 40, Note: "morning count"},
		)

		dist, err := reconciler.Reconcile([]DepletionRecord{record}, []Batch{batchA})
		require.NoError(t, err)
		require.Len(t, dist.Lines, 1)
		assert.Equal(t, batchA.ID, dist.Lines[0].BatchID)
		assert.Equal(t, "A", dist.Lines[0].BatchName)
		assert.Equal(t, int64(40), dist.Lines[0].Quantity)
		assert.Equal(t, "morning count", dist.Lines[0].Note)
		assert.False(t, dist.Lines[0].Inferred)
		assert.Equal(t, AllocationMethodFIFO, dist.Method)
		assert.Equal(t, int64(40), dist.TotalDistributed)
		assert.True(t, dist.Complete)
	})

	t.Run("records sharing a batch merge by summing", func(t *testing.T) {
		livestockID := uuid.New()
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		first := structuredRecord(livestockID, AllocationMethodFIFO, DepletionTypeMortality,
			DepletionLine{BatchID: batchA.ID, Quantity: 10, Note: "am"},
		)
		second := structuredRecord(livestockID, AllocationMethodFIFO, DepletionTypeMortality,
			DepletionLine{BatchID: batchA.ID, Quantity: 15, Note: "pm"},
		)

		dist, err := reconciler.Reconcile([]DepletionRecord{first, second}, []Batch{batchA})
		require.NoError(t, err)
		require.Len(t, dist.Lines, 1)
		assert.Equal(t, int64(25), dist.Lines[0].Quantity)
		assert.Equal(t, "am; pm", dist.Lines[0].Note)
		assert.Equal(t, int64(25), dist.RequestedQuantity)
	})

	t.Run("any manual record makes the merged method manual", func(t *testing.T) {
		livestockID := uuid.New()
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		batchB := createTestBatch("B", date(2024, 1, 10), 50)
		fifo := structuredRecord(livestockID, AllocationMethodFIFO, DepletionTypeCulling,
			DepletionLine{BatchID: batchA.ID, Quantity: 10},
		)
		manual := structuredRecord(livestockID, AllocationMethodManual, DepletionTypeCulling,
			DepletionLine{BatchID: batchB.ID, Quantity: 5},
		)

		dist, err := reconciler.Reconcile([]DepletionRecord{fifo, manual}, []Batch{batchA, batchB})
		require.NoError(t, err)
		assert.Equal(t, AllocationMethodManual, dist.Method)
		assert.Len(t, dist.Lines, 2)
	})

	t.Run("legacy record synthesizes an inferred line on the deepest batch", func(t *testing.T) {
		livestockID := uuid.New()
		shallow := createTestBatch("shallow", date(2024, 1, 1), 20)
		deep := createTestBatch("deep", date(2024, 1, 10), 90)
		legacy := DepletionRecord{
			BaseEntity:    shared.NewBaseEntity(),
			LivestockID:   livestockID,
			Date:          date(2024, 2, 1),
			Type:          DepletionTypeMortality,
			Method:        AllocationMethodTotal,
			TotalQuantity: 12,
		}

		dist, err := reconciler.Reconcile([]DepletionRecord{legacy}, []Batch{shallow, deep})
		require.NoError(t, err)
		require.Len(t, dist.Lines, 1)
		assert.Equal(t, deep.ID, dist.Lines[0].BatchID)
		assert.True(t, dist.Lines[0].Inferred)
		assert.Equal(t, int64(12), dist.Lines[0].Quantity)
	})

	t.Run("legacy record with no active batch fails", func(t *testing.T) {
		closed := createTestBatch("closed", date(2024, 1, 1), 50)
		closed.Status = BatchStatusClosed
		legacy := DepletionRecord{
			BaseEntity:    shared.NewBaseEntity(),
			LivestockID:   uuid.New(),
			Date:          date(2024, 2, 1),
			Type:          DepletionTypeMortality,
			Method:        AllocationMethodTotal,
			TotalQuantity: 5,
		}

		_, err := reconciler.Reconcile([]DepletionRecord{legacy}, []Batch{closed})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})

	t.Run("mixed structured and legacy merge into one plan", func(t *testing.T) {
		livestockID := uuid.New()
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		structured := structuredRecord(livestockID, AllocationMethodFIFO, DepletionTypeMortality,
			DepletionLine{BatchID: batchA.ID, Quantity: 30},
		)
		legacy := DepletionRecord{
			BaseEntity:    shared.NewBaseEntity(),
			LivestockID:   livestockID,
			Date:          date(2024, 2, 1),
			Type:          DepletionTypeMortality,
			Method:        AllocationMethodTotal,
			TotalQuantity: 8,
		}

		dist, err := reconciler.Reconcile([]DepletionRecord{structured, legacy}, []Batch{batchA})
		require.NoError(t, err)
		require.Len(t, dist.Lines, 1)
		assert.Equal(t, int64(38), dist.Lines[0].Quantity)
		assert.True(t, dist.Lines[0].Inferred)
		assert.Equal(t, int64(38), dist.TotalDistributed)
	})

	t.Run("remaining after floors at zero", func(t *testing.T) {
		livestockID := uuid.New()
		batchA := createTestBatch("A", date(2024, 1, 1), 10)
		// availability already consumed; the merged plan still shows
		// the historical quantity without going negative
		batchA.QuantityDepletion = 10
		record := structuredRecord(livestockID, AllocationMethodFIFO, DepletionTypeMortality,
			DepletionLine{BatchID: batchA.ID, Quantity: 10},
		)

		dist, err := reconciler.Reconcile([]DepletionRecord{record}, []Batch{batchA})
		require.NoError(t, err)
		assert.Equal(t, int64(0), dist.Lines[0].RemainingAfter)
	})
}

func TestToManualSelections(t *testing.T) {
	batchID := uuid.New()
	dist := &Distribution{
		Lines: []DistributionLine{
			{BatchID: batchID, Quantity: 25, Note: "edit"},
		},
	}

	selections := ToManualSelections(dist)
	require.Len(t, selections, 1)
	assert.Equal(t, batchID, selections[0].BatchID)
	assert.Equal(t, int64(25), selections[0].Quantity)
	assert.Equal(t, "edit", selections[0].Note)
}
