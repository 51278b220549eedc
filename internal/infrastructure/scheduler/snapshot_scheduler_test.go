package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/farmstock/backend/internal/application/depletion"
	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLivestockRepo struct {
	groups   map[uuid.UUID]*livestock.Livestock
	versions map[uuid.UUID]int
	saved    []uuid.UUID
}

func (r *stubLivestockRepo) FindByID(_ context.Context, id uuid.UUID) (*livestock.Livestock, error) {
	l, ok := r.groups[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return l, nil
}

func (r *stubLivestockRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*livestock.Livestock, error) {
	return r.FindByID(ctx, id)
}

func (r *stubLivestockRepo) FindAll(_ context.Context, _ shared.Filter) ([]livestock.Livestock, error) {
	return nil, nil
}

func (r *stubLivestockRepo) FindActive(_ context.Context) ([]livestock.Livestock, error) {
	var active []livestock.Livestock
	for _, l := range r.groups {
		if l.IsActive() {
			active = append(active, *l)
		}
	}
	return active, nil
}

func (r *stubLivestockRepo) Save(_ context.Context, _ *livestock.Livestock) error {
	return nil
}

// SaveWithLock enforces the version contract the real repository
// checks: the caller bumps the aggregate version before saving
func (r *stubLivestockRepo) SaveWithLock(_ context.Context, l *livestock.Livestock) error {
	if r.versions[l.ID] != l.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.groups[l.ID] = l
	r.versions[l.ID] = l.Version
	r.saved = append(r.saved, l.ID)
	return nil
}

func (r *stubLivestockRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.groups)), nil
}

type stubBatchRepo struct {
	batches map[uuid.UUID][]livestock.Batch
}

func (r *stubBatchRepo) FindByID(_ context.Context, _ uuid.UUID) (*livestock.Batch, error) {
	return nil, shared.ErrNotFound
}

func (r *stubBatchRepo) FindByLivestock(_ context.Context, livestockID uuid.UUID) ([]livestock.Batch, error) {
	return r.batches[livestockID], nil
}

func (r *stubBatchRepo) FindByLivestockForUpdate(ctx context.Context, livestockID uuid.UUID) ([]livestock.Batch, error) {
	return r.FindByLivestock(ctx, livestockID)
}

func (r *stubBatchRepo) Save(_ context.Context, _ *livestock.Batch) error {
	return nil
}

func (r *stubBatchRepo) SaveAll(_ context.Context, _ []*livestock.Batch) error {
	return nil
}

type stubPublisher struct {
	events []shared.DomainEvent
}

func (p *stubPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func newTestScheduler(groups []*livestock.Livestock, batches map[uuid.UUID][]livestock.Batch) (*SnapshotScheduler, *stubLivestockRepo, *stubPublisher) {
	livestockRepo := &stubLivestockRepo{
		groups:   make(map[uuid.UUID]*livestock.Livestock),
		versions: make(map[uuid.UUID]int),
	}
	for _, l := range groups {
		livestockRepo.groups[l.ID] = l
		livestockRepo.versions[l.ID] = l.Version
	}
	batchRepo := &stubBatchRepo{batches: batches}
	publisher := &stubPublisher{}

	scope := depletion.NewNoOpTransactionScope(livestockRepo, batchRepo, nil, nil)
	s := NewSnapshotScheduler(scope, publisher, DefaultConfig(), zap.NewNop())
	return s, livestockRepo, publisher
}

func TestReconcileSnapshots(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("corrects a drifted snapshot", func(t *testing.T) {
		l := livestock.NewLivestock(uuid.New(), uuid.New(), "Flock 1", start, 100)
		l.CurrentQuantity = 100 // stale: a batch lost 10 heads out of band

		b := livestock.NewBatch(l.ID, "Batch A", start, 100, decimal.NewFromInt(1500))
		require.NoError(t, b.ApplyDepletion(livestock.DepletionTypeMortality, 10))

		s, repo, publisher := newTestScheduler(
			[]*livestock.Livestock{l},
			map[uuid.UUID][]livestock.Batch{l.ID: {*b}},
		)

		reconciled, drifted, err := s.ReconcileSnapshots(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, reconciled)
		assert.Equal(t, 1, drifted)
		assert.Equal(t, int64(90), repo.groups[l.ID].CurrentQuantity)
		assert.Equal(t, 2, repo.groups[l.ID].Version)
		require.Len(t, publisher.events, 1)
		assert.Equal(t, livestock.EventTypeSnapshotRefreshed, publisher.events[0].EventType())
	})

	t.Run("leaves an accurate snapshot untouched", func(t *testing.T) {
		l := livestock.NewLivestock(uuid.New(), uuid.New(), "Flock 2", start, 80)

		b := livestock.NewBatch(l.ID, "Batch A", start, 80, decimal.NewFromInt(1500))

		s, repo, publisher := newTestScheduler(
			[]*livestock.Livestock{l},
			map[uuid.UUID][]livestock.Batch{l.ID: {*b}},
		)

		reconciled, drifted, err := s.ReconcileSnapshots(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, reconciled)
		assert.Equal(t, 0, drifted)
		assert.Empty(t, repo.saved)
		assert.Empty(t, publisher.events)
	})

	t.Run("skips inactive groups", func(t *testing.T) {
		l := livestock.NewLivestock(uuid.New(), uuid.New(), "Flock 3", start, 50)
		l.Status = livestock.LivestockStatusCompleted

		s, _, _ := newTestScheduler([]*livestock.Livestock{l}, nil)

		reconciled, drifted, err := s.ReconcileSnapshots(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 0, reconciled)
		assert.Equal(t, 0, drifted)
	})

	t.Run("ignores exhausted batches when summing", func(t *testing.T) {
		l := livestock.NewLivestock(uuid.New(), uuid.New(), "Flock 4", start, 60)
		l.CurrentQuantity = 60

		live := livestock.NewBatch(l.ID, "Live", start, 40, decimal.NewFromInt(1500))
		spent := livestock.NewBatch(l.ID, "Spent", start, 20, decimal.NewFromInt(1500))
		require.NoError(t, spent.ApplyDepletion(livestock.DepletionTypeSales, 20))

		s, repo, _ := newTestScheduler(
			[]*livestock.Livestock{l},
			map[uuid.UUID][]livestock.Batch{l.ID: {*live, *spent}},
		)

		_, drifted, err := s.ReconcileSnapshots(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, drifted)
		assert.Equal(t, int64(40), repo.groups[l.ID].CurrentQuantity)
	})
}

func TestSnapshotSchedulerLifecycle(t *testing.T) {
	t.Run("disabled scheduler does not start", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = false

		s := NewSnapshotScheduler(depletion.NewNoOpTransactionScope(nil, nil, nil, nil), nil, cfg, zap.NewNop())
		assert.NoError(t, s.Start())
	})

	t.Run("invalid cron expression is rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CronSchedule = "not a schedule"

		s := NewSnapshotScheduler(depletion.NewNoOpTransactionScope(nil, nil, nil, nil), nil, cfg, zap.NewNop())
		assert.Error(t, s.Start())
	})
}
