package telemetry

import (
	"context"
	"fmt"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DepletionMetrics tracks depletion activity across livestock groups. It
// subscribes to the domain event bus, so commits and rollbacks are counted
// exactly where they are published rather than sprinkled through services.
type DepletionMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	committedTotal  *Counter
	headsTotal      *Counter
	reversedTotal   *Counter
	clampsTotal     *Counter
	currentQuantity *Gauge
}

// DepletionMetricsConfig holds configuration for depletion metrics.
type DepletionMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// ErrMeterNil is returned when the meter is missing.
var ErrMeterNil = fmt.Errorf("NewDepletionMetrics: meter cannot be nil")

// NewDepletionMetrics creates a new DepletionMetrics instance.
func NewDepletionMetrics(cfg DepletionMetricsConfig) (*DepletionMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dm := &DepletionMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	dm.committedTotal, err = NewCounter(
		cfg.Meter,
		"farmstock_depletion_committed_total",
		"Total number of depletion records committed",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	dm.headsTotal, err = NewCounter(
		cfg.Meter,
		"farmstock_depletion_heads_total",
		"Total head count removed by committed depletions",
		"{heads}",
	)
	if err != nil {
		return nil, err
	}

	dm.reversedTotal, err = NewCounter(
		cfg.Meter,
		"farmstock_depletion_reversed_total",
		"Total number of depletion records reversed",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	dm.clampsTotal, err = NewCounter(
		cfg.Meter,
		"farmstock_depletion_reversal_clamps_total",
		"Total number of counter clamps during reversal, indicating drift",
		"{clamps}",
	)
	if err != nil {
		return nil, err
	}

	dm.currentQuantity, err = NewGauge(
		cfg.Meter,
		"farmstock_livestock_current_quantity",
		"Current head count snapshot per livestock group",
		"{heads}",
	)
	if err != nil {
		return nil, err
	}

	return dm, nil
}

// EventTypes returns the depletion event types this handler consumes
func (m *DepletionMetrics) EventTypes() []string {
	return []string{
		livestock.EventTypeDepletionCommitted,
		livestock.EventTypeDepletionReversed,
		livestock.EventTypeSnapshotRefreshed,
	}
}

// Handle records metrics for a depletion domain event
func (m *DepletionMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *livestock.DepletionCommittedEvent:
		m.committedTotal.Inc(ctx,
			AttrDepletionType.String(string(e.DepletionType)),
			AttrMethod.String(string(e.Method)),
		)
		m.headsTotal.Add(ctx, e.TotalQuantity,
			AttrDepletionType.String(string(e.DepletionType)),
		)
	case *livestock.DepletionReversedEvent:
		m.reversedTotal.Inc(ctx,
			AttrDepletionType.String(string(e.DepletionType)),
		)
		if e.ClampCount > 0 {
			m.clampsTotal.Add(ctx, int64(e.ClampCount))
		}
	case *livestock.SnapshotRefreshedEvent:
		m.currentQuantity.Record(ctx, e.CurrentQuantity,
			AttrLivestockID.String(e.LivestockID.String()),
		)
	default:
		m.logger.Debug("ignoring unexpected event type",
			zap.String("event_type", event.EventType()),
		)
	}
	return nil
}

// Ensure DepletionMetrics implements EventHandler
var _ shared.EventHandler = (*DepletionMetrics)(nil)
