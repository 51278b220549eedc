package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingHandler captures received events
type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	events []shared.DomainEvent
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) received() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.events...)
}

func snapshotEvent() *livestock.SnapshotRefreshedEvent {
	l := livestock.NewLivestock(uuid.New(), uuid.New(), "Flock 1", nowDate(), 100)
	return livestock.NewSnapshotRefreshedEvent(l)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to type-specific handler", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{livestock.EventTypeSnapshotRefreshed}}
		bus.Subscribe(handler)

		err := bus.Publish(ctx, snapshotEvent())

		require.NoError(t, err)
		assert.Len(t, handler.received(), 1)
	})

	t.Run("does not deliver other event types", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{livestock.EventTypeDepletionCommitted}}
		bus.Subscribe(handler)

		err := bus.Publish(ctx, snapshotEvent())

		require.NoError(t, err)
		assert.Empty(t, handler.received())
	})

	t.Run("wildcard handler receives all events", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{}
		bus.Subscribe(handler)

		err := bus.Publish(ctx, snapshotEvent(), snapshotEvent())

		require.NoError(t, err)
		assert.Len(t, handler.received(), 2)
	})

	t.Run("handler failure does not stop other handlers", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		failing := &recordingHandler{err: errors.New("boom")}
		healthy := &recordingHandler{}
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		err := bus.Publish(ctx, snapshotEvent())

		require.NoError(t, err)
		assert.Len(t, failing.received(), 1)
		assert.Len(t, healthy.received(), 1)
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	t.Run("unsubscribed handler receives nothing", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{types: []string{livestock.EventTypeSnapshotRefreshed}}
		bus.Subscribe(handler)
		bus.Unsubscribe(handler)

		err := bus.Publish(context.Background(), snapshotEvent())

		require.NoError(t, err)
		assert.Empty(t, handler.received())
	})
}

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("processes each event once", func(t *testing.T) {
		inner := &recordingHandler{}
		store := newFakeIdempotencyStore()
		handler := NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

		event := snapshotEvent()
		require.NoError(t, handler.Handle(ctx, event))
		require.NoError(t, handler.Handle(ctx, event))

		assert.Len(t, inner.received(), 1)
	})

	t.Run("distinct events all processed", func(t *testing.T) {
		inner := &recordingHandler{}
		store := newFakeIdempotencyStore()
		handler := NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

		require.NoError(t, handler.Handle(ctx, snapshotEvent()))
		require.NoError(t, handler.Handle(ctx, snapshotEvent()))

		assert.Len(t, inner.received(), 2)
	})

	t.Run("store failure falls through to processing", func(t *testing.T) {
		inner := &recordingHandler{}
		store := newFakeIdempotencyStore()
		store.err = errors.New("redis down")
		handler := NewIdempotentHandler(inner, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

		require.NoError(t, handler.Handle(ctx, snapshotEvent()))

		assert.Len(t, inner.received(), 1)
	})

	t.Run("disabled config skips dedup", func(t *testing.T) {
		inner := &recordingHandler{}
		store := newFakeIdempotencyStore()
		cfg := shared.IdempotencyConfig{Enabled: false}
		handler := NewIdempotentHandler(inner, store, cfg, zap.NewNop())

		event := snapshotEvent()
		require.NoError(t, handler.Handle(ctx, event))
		require.NoError(t, handler.Handle(ctx, event))

		assert.Len(t, inner.received(), 2)
	})
}
