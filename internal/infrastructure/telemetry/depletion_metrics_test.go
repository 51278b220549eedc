package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewDepletionMetrics(t *testing.T) {
	t.Run("creates metrics with valid meter", func(t *testing.T) {
		meter := noop.NewMeterProvider().Meter("test")

		dm, err := telemetry.NewDepletionMetrics(telemetry.DepletionMetricsConfig{
			Meter:  meter,
			Logger: zap.NewNop(),
		})

		require.NoError(t, err)
		require.NotNil(t, dm)
	})

	t.Run("rejects nil meter", func(t *testing.T) {
		dm, err := telemetry.NewDepletionMetrics(telemetry.DepletionMetricsConfig{
			Logger: zap.NewNop(),
		})

		assert.Nil(t, dm)
		assert.Equal(t, telemetry.ErrMeterNil, err)
	})
}

func TestDepletionMetrics_Handle(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	dm, err := telemetry.NewDepletionMetrics(telemetry.DepletionMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("subscribes to depletion event types", func(t *testing.T) {
		types := dm.EventTypes()
		assert.Contains(t, types, livestock.EventTypeDepletionCommitted)
		assert.Contains(t, types, livestock.EventTypeDepletionReversed)
		assert.Contains(t, types, livestock.EventTypeSnapshotRefreshed)
	})

	t.Run("handles committed event", func(t *testing.T) {
		dist := &livestock.Distribution{
			Method:           livestock.AllocationMethodFIFO,
			RequestedQuantity: 12,
			TotalDistributed: 12,
			Lines: []livestock.DistributionLine{
				{BatchID: uuid.New(), Quantity: 12},
			},
		}
		record := livestock.NewDepletionRecord(uuid.New(), nil, date, livestock.DepletionTypeMortality, dist, "")

		err := dm.Handle(ctx, livestock.NewDepletionCommittedEvent(record))

		assert.NoError(t, err)
	})

	t.Run("handles reversed event with clamps", func(t *testing.T) {
		dist := &livestock.Distribution{
			Method:           livestock.AllocationMethodManual,
			RequestedQuantity: 5,
			TotalDistributed: 5,
			Lines: []livestock.DistributionLine{
				{BatchID: uuid.New(), Quantity: 5},
			},
		}
		record := livestock.NewDepletionRecord(uuid.New(), nil, date, livestock.DepletionTypeSales, dist, "")

		err := dm.Handle(ctx, livestock.NewDepletionReversedEvent(record, 2))

		assert.NoError(t, err)
	})

	t.Run("handles snapshot event", func(t *testing.T) {
		l := livestock.NewLivestock(uuid.New(), uuid.New(), "Flock 3", date, 500)
		l.RefreshSnapshot(480)

		err := dm.Handle(ctx, livestock.NewSnapshotRefreshedEvent(l))

		assert.NoError(t, err)
	})

	t.Run("ignores unrelated events without error", func(t *testing.T) {
		l := livestock.NewLivestock(uuid.New(), uuid.New(), "Flock 4", date, 10)
		event := livestock.NewSnapshotRefreshedEvent(l)
		event.Type = "livestock.unknown"

		assert.NoError(t, dm.Handle(ctx, event))
	})
}
