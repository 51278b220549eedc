package livestock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchMap(batches ...*Batch) map[uuid.UUID]*Batch {
	m := make(map[uuid.UUID]*Batch, len(batches))
	for _, b := range batches {
		m[b.ID] = b
	}
	return m
}

func TestRevalidateDistribution(t *testing.T) {
	svc := NewDepletionDomainService()
	asOf := date(2024, 2, 1)

	t.Run("passes when every line still fits", func(t *testing.T) {
		batch := createTestBatch("A", date(2024, 1, 1), 100)
		dist, err := NewFIFOAllocation(60).Allocate([]Batch{batch}, asOf)
		require.NoError(t, err)

		assert.NoError(t, svc.RevalidateDistribution(dist, batchMap(&batch)))
	})

	t.Run("fails when availability shrank since preview", func(t *testing.T) {
		batch := createTestBatch("A", date(2024, 1, 1), 100)
		dist, err := NewFIFOAllocation(60).Allocate([]Batch{batch}, asOf)
		require.NoError(t, err)

		// a concurrent sale landed between preview and commit
		batch.QuantitySales = 50
		err = svc.RevalidateDistribution(dist, batchMap(&batch))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "available")
	})

	t.Run("fails on a batch that went inactive", func(t *testing.T) {
		batch := createTestBatch("A", date(2024, 1, 1), 100)
		dist, err := NewFIFOAllocation(60).Allocate([]Batch{batch}, asOf)
		require.NoError(t, err)

		batch.Status = BatchStatusClosed
		assert.Error(t, svc.RevalidateDistribution(dist, batchMap(&batch)))
	})

	t.Run("rejects a distribution with unresolved line errors", func(t *testing.T) {
		dist := &Distribution{
			LineErrors: []AllocationLineError{{BatchID: uuid.New(), Code: "INSUFFICIENT_STOCK"}},
		}
		assert.Error(t, svc.RevalidateDistribution(dist, nil))
	})
}

func TestApplyDistribution(t *testing.T) {
	svc := NewDepletionDomainService()
	asOf := date(2024, 2, 1)

	t.Run("moves batch and aggregate counters together", func(t *testing.T) {
		l := createTestLivestock(150)
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		batchB := createTestBatch("B", date(2024, 1, 10), 50)
		dist, err := NewFIFOAllocation(120).Allocate([]Batch{batchA, batchB}, asOf)
		require.NoError(t, err)

		require.NoError(t, svc.ApplyDistribution(l, batchMap(&batchA, &batchB), dist, DepletionTypeMortality))
		assert.Equal(t, int64(100), batchA.QuantityDepletion)
		assert.Equal(t, int64(20), batchB.QuantityDepletion)
		assert.Equal(t, int64(120), l.QuantityDepletion)
		assert.Equal(t, BatchStatusDepleted, batchA.Status)
	})

	t.Run("a failing line undoes everything applied before it", func(t *testing.T) {
		l := createTestLivestock(150)
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		batchB := createTestBatch("B", date(2024, 1, 10), 50)
		dist, err := NewFIFOAllocation(120).Allocate([]Batch{batchA, batchB}, asOf)
		require.NoError(t, err)

		// batch B lost stock after the plan was computed
		batchB.QuantitySales = 45
		err = svc.ApplyDistribution(l, batchMap(&batchA, &batchB), dist, DepletionTypeMortality)
		require.Error(t, err)
		assert.Equal(t, int64(0), batchA.QuantityDepletion)
		assert.Equal(t, int64(0), batchB.QuantityDepletion)
		assert.Equal(t, int64(0), l.QuantityDepletion)
		assert.Equal(t, BatchStatusActive, batchA.Status)
	})

	t.Run("missing batch undoes applied lines", func(t *testing.T) {
		l := createTestLivestock(150)
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		batchB := createTestBatch("B", date(2024, 1, 10), 50)
		dist, err := NewFIFOAllocation(120).Allocate([]Batch{batchA, batchB}, asOf)
		require.NoError(t, err)

		err = svc.ApplyDistribution(l, batchMap(&batchA), dist, DepletionTypeMortality)
		require.Error(t, err)
		assert.Equal(t, int64(0), batchA.QuantityDepletion)
	})
}

func TestReverseRecord(t *testing.T) {
	svc := NewDepletionDomainService()
	asOf := date(2024, 2, 1)

	buildCommitted := func(t *testing.T, l *Livestock, batches []*Batch, requested int64) *DepletionRecord {
		t.Helper()
		values := make([]Batch, 0, len(batches))
		for _, b := range batches {
			values = append(values, *b)
		}
		dist, err := NewFIFOAllocation(requested).Allocate(values, asOf)
		require.NoError(t, err)
		require.NoError(t, svc.ApplyDistribution(l, batchMap(batches...), dist, DepletionTypeCulling))
		return NewDepletionRecord(l.ID, nil, asOf, DepletionTypeCulling, dist, "")
	}

	t.Run("commit then reverse restores original counters", func(t *testing.T) {
		l := createTestLivestock(150)
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		batchB := createTestBatch("B", date(2024, 1, 10), 50)
		record := buildCommitted(t, l, []*Batch{&batchA, &batchB}, 120)

		clamps := svc.ReverseRecord(l, batchMap(&batchA, &batchB), record)
		assert.Empty(t, clamps)
		assert.Equal(t, int64(0), batchA.QuantityDepletion)
		assert.Equal(t, int64(0), batchB.QuantityDepletion)
		assert.Equal(t, int64(0), l.QuantityDepletion)
		assert.Equal(t, BatchStatusActive, batchA.Status)
	})

	t.Run("drifted counters clamp at zero and are reported", func(t *testing.T) {
		l := createTestLivestock(150)
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		record := buildCommitted(t, l, []*Batch{&batchA}, 60)

		// something else already wound the counter back
		batchA.QuantityDepletion = 10
		clamps := svc.ReverseRecord(l, batchMap(&batchA), record)
		require.Len(t, clamps, 1)
		assert.Equal(t, batchA.ID, clamps[0].BatchID)
		assert.Equal(t, int64(0), batchA.QuantityDepletion)
	})

	t.Run("deleted batch is reported and the aggregate still reverses", func(t *testing.T) {
		l := createTestLivestock(150)
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		record := buildCommitted(t, l, []*Batch{&batchA}, 60)

		clamps := svc.ReverseRecord(l, batchMap(), record)
		require.Len(t, clamps, 1)
		assert.Equal(t, batchA.ID, clamps[0].BatchID)
		assert.Equal(t, int64(0), l.QuantityDepletion)
	})

	t.Run("legacy record reverses only the aggregate", func(t *testing.T) {
		l := createTestLivestock(150)
		l.QuantitySales = 30
		batchA := createTestBatch("A", date(2024, 1, 1), 100)
		record := &DepletionRecord{
			LivestockID:   l.ID,
			Date:          asOf,
			Type:          DepletionTypeSales,
			Method:        AllocationMethodTotal,
			TotalQuantity: 30,
		}

		clamps := svc.ReverseRecord(l, batchMap(&batchA), record)
		assert.Empty(t, clamps)
		assert.Equal(t, int64(0), l.QuantitySales)
		assert.Equal(t, int64(0), batchA.QuantitySales)
	})
}
