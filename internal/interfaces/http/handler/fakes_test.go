package handler

import (
	"context"
	"time"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/farmstock/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type fakeLivestockRepo struct {
	groups   map[uuid.UUID]*livestock.Livestock
	versions map[uuid.UUID]int
	err      error
}

func newFakeLivestockRepo(groups ...*livestock.Livestock) *fakeLivestockRepo {
	r := &fakeLivestockRepo{
		groups:   make(map[uuid.UUID]*livestock.Livestock),
		versions: make(map[uuid.UUID]int),
	}
	for _, l := range groups {
		r.groups[l.ID] = l
		r.versions[l.ID] = l.Version
	}
	return r
}

func (r *fakeLivestockRepo) FindByID(_ context.Context, id uuid.UUID) (*livestock.Livestock, error) {
	if r.err != nil {
		return nil, r.err
	}
	l, ok := r.groups[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return l, nil
}

func (r *fakeLivestockRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*livestock.Livestock, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeLivestockRepo) FindAll(_ context.Context, _ shared.Filter) ([]livestock.Livestock, error) {
	if r.err != nil {
		return nil, r.err
	}
	var all []livestock.Livestock
	for _, l := range r.groups {
		all = append(all, *l)
	}
	return all, nil
}

func (r *fakeLivestockRepo) FindActive(_ context.Context) ([]livestock.Livestock, error) {
	return nil, nil
}

func (r *fakeLivestockRepo) Save(_ context.Context, l *livestock.Livestock) error {
	r.groups[l.ID] = l
	r.versions[l.ID] = l.Version
	return nil
}

// SaveWithLock matches the persisted version against the pre-bump
// aggregate version, like the real repository does
func (r *fakeLivestockRepo) SaveWithLock(_ context.Context, l *livestock.Livestock) error {
	if r.versions[l.ID] != l.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.groups[l.ID] = l
	r.versions[l.ID] = l.Version
	return nil
}

func (r *fakeLivestockRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.groups)), nil
}

type fakeBatchRepo struct {
	batches map[uuid.UUID][]livestock.Batch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID][]livestock.Batch)}
}

func (r *fakeBatchRepo) FindByID(_ context.Context, _ uuid.UUID) (*livestock.Batch, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeBatchRepo) FindByLivestock(_ context.Context, livestockID uuid.UUID) ([]livestock.Batch, error) {
	return r.batches[livestockID], nil
}

func (r *fakeBatchRepo) FindByLivestockForUpdate(ctx context.Context, livestockID uuid.UUID) ([]livestock.Batch, error) {
	return r.FindByLivestock(ctx, livestockID)
}

func (r *fakeBatchRepo) Save(_ context.Context, b *livestock.Batch) error {
	stored := r.batches[b.LivestockID]
	for i := range stored {
		if stored[i].ID == b.ID {
			stored[i] = *b
			return nil
		}
	}
	r.batches[b.LivestockID] = append(stored, *b)
	return nil
}

func (r *fakeBatchRepo) SaveAll(ctx context.Context, batches []*livestock.Batch) error {
	for _, b := range batches {
		if err := r.Save(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

type fakeDepletionRepo struct {
	records map[uuid.UUID]*livestock.DepletionRecord
}

func newFakeDepletionRepo() *fakeDepletionRepo {
	return &fakeDepletionRepo{records: make(map[uuid.UUID]*livestock.DepletionRecord)}
}

func (r *fakeDepletionRepo) FindByID(_ context.Context, id uuid.UUID) (*livestock.DepletionRecord, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return record, nil
}

func (r *fakeDepletionRepo) FindByLivestockAndDate(_ context.Context, livestockID uuid.UUID, date time.Time) ([]livestock.DepletionRecord, error) {
	var out []livestock.DepletionRecord
	for _, rec := range r.records {
		if rec.LivestockID == livestockID && rec.Date.Equal(date) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeDepletionRepo) FindByLivestock(_ context.Context, livestockID uuid.UUID, _ shared.Filter) ([]livestock.DepletionRecord, error) {
	var out []livestock.DepletionRecord
	for _, rec := range r.records {
		if rec.LivestockID == livestockID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeDepletionRepo) Create(_ context.Context, record *livestock.DepletionRecord) error {
	r.records[record.ID] = record
	return nil
}

func (r *fakeDepletionRepo) Update(_ context.Context, record *livestock.DepletionRecord) error {
	r.records[record.ID] = record
	return nil
}

func (r *fakeDepletionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.records, id)
	return nil
}

type fakeRecordingRepo struct {
	recordings map[uuid.UUID]*livestock.Recording
}

func newFakeRecordingRepo() *fakeRecordingRepo {
	return &fakeRecordingRepo{recordings: make(map[uuid.UUID]*livestock.Recording)}
}

func (r *fakeRecordingRepo) FindByLivestockAndDate(_ context.Context, livestockID uuid.UUID, _ time.Time) (*livestock.Recording, error) {
	rec, ok := r.recordings[livestockID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return rec, nil
}
