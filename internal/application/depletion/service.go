package depletion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IncompleteAllocationError is returned when a commit is refused
// because the plan could not be fully satisfied. It carries the partial
// distribution so the caller can show what would have happened.
type IncompleteAllocationError struct {
	Cause        *shared.DomainError
	Distribution DistributionResponse
}

// Error implements the error interface
func (e *IncompleteAllocationError) Error() string {
	return e.Cause.Message
}

// Unwrap exposes the underlying domain error for errors.As mapping
func (e *IncompleteAllocationError) Unwrap() error {
	return e.Cause
}

// Service orchestrates depletion preview, commit, edit and rollback
// flows. Allocation arithmetic lives in the domain package; this layer
// owns transaction boundaries, persistence ordering and events.
type Service struct {
	txScope       TransactionScope
	livestockRepo livestock.LivestockRepository
	batchRepo     livestock.BatchRepository
	depletionRepo livestock.DepletionRecordRepository
	recordingRepo livestock.RecordingRepository

	strategyFactory *livestock.AllocationStrategyFactory
	domainService   *livestock.DepletionDomainService
	reconciler      *livestock.EditReconciler

	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewService creates a new depletion Service. Read paths use the plain
// repositories; mutating paths run inside the transaction scope.
func NewService(
	txScope TransactionScope,
	livestockRepo livestock.LivestockRepository,
	batchRepo livestock.BatchRepository,
	depletionRepo livestock.DepletionRecordRepository,
	recordingRepo livestock.RecordingRepository,
) *Service {
	return &Service{
		txScope:         txScope,
		livestockRepo:   livestockRepo,
		batchRepo:       batchRepo,
		depletionRepo:   depletionRepo,
		recordingRepo:   recordingRepo,
		strategyFactory: livestock.NewAllocationStrategyFactory(),
		domainService:   livestock.NewDepletionDomainService(),
		reconciler:      livestock.NewEditReconciler(),
		idempotencyTTL:  shared.DefaultIdempotencyConfig().TTL,
		logger:          zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables commit deduplication via Idempotency-Key
func (s *Service) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetLogger sets the logger
func (s *Service) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Preview computes a distribution plan without committing anything.
// The result is advisory: availability can change before a later commit,
// which re-validates every line.
func (s *Service) Preview(ctx context.Context, req *PreviewRequest) (*DistributionResponse, error) {
	l, err := s.livestockRepo.FindByID(ctx, req.LivestockID)
	if err != nil {
		return nil, err
	}
	if !l.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Livestock group is not active")
	}

	batches, err := s.batchRepo.FindByLivestock(ctx, req.LivestockID)
	if err != nil {
		return nil, err
	}

	dist, err := s.allocate(l, batches, req.Method, req.Quantity, req.Selections, req.Date, req.Degraded)
	if err != nil {
		return nil, err
	}

	recording := s.findRecording(ctx, req.LivestockID, req.Date)
	resp := ToDistributionResponse(dist, recording)
	return &resp, nil
}

// Commit applies a depletion for (livestock, date, type) inside one
// transaction. Prior records for the same key are reconciled according
// to the resolved commit strategy, every line is re-validated against
// live availability, counters move, and the current-quantity snapshot
// is recomputed from batch sums before the transaction commits.
func (s *Service) Commit(ctx context.Context, req *CommitRequest) (*CommitResponse, error) {
	if req.IdempotencyKey != "" && s.idempotency != nil {
		processed, err := s.idempotency.IsProcessed(ctx, commitIdempotencyKey(req.IdempotencyKey))
		if err != nil {
			s.logger.Warn("idempotency lookup failed, proceeding without dedup", zap.Error(err))
		} else if processed {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Commit with this idempotency key was already processed")
		}
	}

	var resp *CommitResponse
	var committedRecord *livestock.DepletionRecord
	var reversedRecords []livestock.DepletionRecord
	var snapshotOwner *livestock.Livestock

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		l, err := repos.LivestockRepo().FindByIDForUpdate(ctx, req.LivestockID)
		if err != nil {
			return err
		}
		if !l.IsActive() {
			return shared.NewDomainError("INVALID_STATE", "Livestock group is not active")
		}

		// Locks all batches, not just active ones: reversing prior
		// records may need to touch batches they exhausted.
		batches, err := repos.BatchRepo().FindByLivestockForUpdate(ctx, req.LivestockID)
		if err != nil {
			return err
		}
		batchByID := make(map[uuid.UUID]*livestock.Batch, len(batches))
		for i := range batches {
			batchByID[batches[i].ID] = &batches[i]
		}

		existing, err := s.recordsForKey(ctx, repos, req.LivestockID, req.Date, req.Type)
		if err != nil {
			return err
		}

		// Undo prior effects first so the fresh plan allocates against
		// the availability the edit is replacing, not on top of it.
		for i := range existing {
			clamps := s.domainService.ReverseRecord(l, batchByID, &existing[i])
			s.logClamps(existing[i].ID, clamps)
		}

		dist, err := s.allocate(l, batches, req.Method, req.Quantity, req.Selections, req.Date, false)
		if err != nil {
			return err
		}
		if err := s.refuseIncomplete(dist, req.AllowPartial); err != nil {
			return err
		}

		strategy := resolveCommitStrategy(existing, dist)

		if err := s.domainService.RevalidateDistribution(dist, batchByID); err != nil {
			return err
		}
		if err := s.domainService.ApplyDistribution(l, batchByID, dist, req.Type); err != nil {
			return err
		}

		recordingID := s.recordingID(ctx, repos, req.LivestockID, req.Date)

		var record *livestock.DepletionRecord
		switch strategy {
		case CommitStrategyUpdate:
			record = &existing[0]
			rewriteRecord(record, req, recordingID, dist)
			if err := record.Validate(); err != nil {
				return err
			}
			if err := repos.DepletionRepo().Update(ctx, record); err != nil {
				return err
			}
		default:
			if strategy == CommitStrategyDeleteAndCreate {
				for i := range existing {
					if err := repos.DepletionRepo().Delete(ctx, existing[i].ID); err != nil {
						return err
					}
				}
				reversedRecords = existing
			}
			record = livestock.NewDepletionRecord(req.LivestockID, recordingID, req.Date, req.Type, dist, req.Reason)
			if err := record.Validate(); err != nil {
				return err
			}
			if err := repos.DepletionRepo().Create(ctx, record); err != nil {
				return err
			}
		}

		if err := s.saveBatches(ctx, repos, batches); err != nil {
			return err
		}

		// Snapshot from re-summed availability, not incremental math.
		l.RefreshSnapshot(livestock.SumAvailable(batches))
		l.IncrementVersion()
		if err := repos.LivestockRepo().SaveWithLock(ctx, l); err != nil {
			return err
		}

		recording := s.findRecordingTx(ctx, repos, req.LivestockID, req.Date)
		committedRecord = record
		snapshotOwner = l
		resp = &CommitResponse{
			RecordID:     record.ID,
			Strategy:     strategy,
			Distribution: ToDistributionResponse(dist, recording),
			Livestock:    ToLivestockSnapshotResponse(l),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, commitIdempotencyKey(req.IdempotencyKey), s.idempotencyTTL); err != nil {
			s.logger.Warn("failed to mark idempotency key", zap.Error(err))
		}
	}

	s.publishCommitEvents(ctx, committedRecord, reversedRecords, snapshotOwner)

	s.logger.Info("depletion committed",
		zap.String("livestock_id", req.LivestockID.String()),
		zap.String("record_id", committedRecord.ID.String()),
		zap.String("strategy", string(resp.Strategy)),
		zap.String("type", req.Type.String()),
		zap.Int64("quantity", committedRecord.TotalQuantity))
	return resp, nil
}

// LoadForEdit merges the records committed for a (livestock, date) pair
// into one editable distribution. Legacy records contribute inferred
// lines; HasInferred tells the client to warn that those are
// reconstructions. Pure read; cancelling an edit is a client concern.
func (s *Service) LoadForEdit(ctx context.Context, livestockID uuid.UUID, day time.Time) (*EditResponse, error) {
	records, err := s.depletionRepo.FindByLivestockAndDate(ctx, livestockID, day)
	if err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindByLivestock(ctx, livestockID)
	if err != nil {
		return nil, err
	}

	dist, err := s.reconciler.Reconcile(records, batches)
	if err != nil {
		return nil, err
	}

	resp := &EditResponse{
		LivestockID:  livestockID,
		Date:         day,
		RecordIDs:    make([]uuid.UUID, 0, len(records)),
		Distribution: ToDistributionResponse(dist, s.findRecording(ctx, livestockID, day)),
		Selections:   livestock.ToManualSelections(dist),
	}
	for i := range records {
		resp.RecordIDs = append(resp.RecordIDs, records[i].ID)
	}
	for _, line := range dist.Lines {
		if line.Inferred {
			resp.HasInferred = true
			break
		}
	}
	return resp, nil
}

// List returns committed records for a livestock group, optionally
// narrowed to one day
func (s *Service) List(ctx context.Context, filter *ListFilter) ([]DepletionRecordResponse, error) {
	var records []livestock.DepletionRecord
	var err error
	if filter.Date != nil {
		records, err = s.depletionRepo.FindByLivestockAndDate(ctx, filter.LivestockID, *filter.Date)
	} else {
		f := shared.DefaultFilter()
		if filter.Page > 0 {
			f.Page = filter.Page
		}
		if filter.PageSize > 0 {
			f.PageSize = filter.PageSize
		}
		records, err = s.depletionRepo.FindByLivestock(ctx, filter.LivestockID, f)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]DepletionRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToRecordResponse(&records[i]))
	}
	return responses, nil
}

// Delete reverses and removes the given records. Each record runs in
// its own transaction; ids that no longer exist are skipped and
// reported, making retries of a partially failed call safe.
func (s *Service) Delete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	resp := &DeleteResponse{
		Deleted: make([]uuid.UUID, 0, len(req.RecordIDs)),
	}

	for _, recordID := range req.RecordIDs {
		err := s.deleteOne(ctx, recordID, resp)
		if err != nil {
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND" {
				resp.Skipped = append(resp.Skipped, recordID)
				continue
			}
			return nil, err
		}
		resp.Deleted = append(resp.Deleted, recordID)
	}
	return resp, nil
}

func (s *Service) deleteOne(ctx context.Context, recordID uuid.UUID, resp *DeleteResponse) error {
	var reversed *livestock.DepletionRecord
	var owner *livestock.Livestock
	var clampCount int

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		record, err := repos.DepletionRepo().FindByID(ctx, recordID)
		if err != nil {
			return err
		}

		l, err := repos.LivestockRepo().FindByIDForUpdate(ctx, record.LivestockID)
		if err != nil {
			return err
		}

		batches, err := repos.BatchRepo().FindByLivestockForUpdate(ctx, record.LivestockID)
		if err != nil {
			return err
		}
		batchByID := make(map[uuid.UUID]*livestock.Batch, len(batches))
		for i := range batches {
			batchByID[batches[i].ID] = &batches[i]
		}

		clamps := s.domainService.ReverseRecord(l, batchByID, record)
		s.logClamps(record.ID, clamps)
		for _, clamp := range clamps {
			resp.Clamps = append(resp.Clamps, ClampResponse{
				RecordID: record.ID,
				BatchID:  clamp.BatchID,
				Quantity: clamp.Quantity,
			})
		}
		clampCount = len(clamps)

		if err := repos.DepletionRepo().Delete(ctx, record.ID); err != nil {
			return err
		}
		if err := s.saveBatches(ctx, repos, batches); err != nil {
			return err
		}

		l.RefreshSnapshot(livestock.SumAvailable(batches))
		l.IncrementVersion()
		if err := repos.LivestockRepo().SaveWithLock(ctx, l); err != nil {
			return err
		}

		reversed = record
		owner = l
		return nil
	})
	if err != nil {
		return err
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx,
			livestock.NewDepletionReversedEvent(reversed, clampCount),
			livestock.NewSnapshotRefreshedEvent(owner))
	}
	s.logger.Info("depletion reversed",
		zap.String("record_id", reversed.ID.String()),
		zap.String("livestock_id", reversed.LivestockID.String()),
		zap.Int64("quantity", reversed.TotalQuantity),
		zap.Int("clamps", clampCount))
	return nil
}

// allocate resolves the allocation method and runs the strategy.
// An empty method falls back to the livestock group's configured one.
func (s *Service) allocate(l *livestock.Livestock, batches []livestock.Batch, method livestock.AllocationMethod, quantity int64, selections []livestock.ManualSelection, asOf time.Time, degraded bool) (*livestock.Distribution, error) {
	if method == "" {
		method = l.Config.DepletionMethod
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown allocation method: "+method.String())
	}

	strategy, err := s.strategyFactory.ForMethod(method, quantity, selections)
	if err != nil {
		return nil, err
	}
	if fifo, ok := strategy.(*livestock.FIFOAllocation); ok && degraded {
		fifo.Mode = livestock.AllocationModeDegraded
	}
	return strategy.Allocate(batches, asOf)
}

// refuseIncomplete enforces the commit precondition: an incomplete plan
// is only accepted when the caller explicitly allowed partial commits,
// and line errors are never committable.
func (s *Service) refuseIncomplete(dist *livestock.Distribution, allowPartial bool) error {
	if dist.HasLineErrors() {
		return &IncompleteAllocationError{
			Cause:        shared.NewDomainError("VALIDATION_ERROR", "Distribution has rejected lines"),
			Distribution: ToDistributionResponse(dist, nil),
		}
	}
	if !dist.Complete && !allowPartial {
		return &IncompleteAllocationError{
			Cause: shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Only %d of %d head available", dist.TotalDistributed, dist.RequestedQuantity)),
			Distribution: ToDistributionResponse(dist, nil),
		}
	}
	if !dist.Complete && dist.TotalDistributed == 0 {
		return &IncompleteAllocationError{
			Cause:        shared.NewDomainError("INSUFFICIENT_STOCK", "No stock available to deplete"),
			Distribution: ToDistributionResponse(dist, nil),
		}
	}
	return nil
}

// recordsForKey loads the prior records for (livestock, date, type)
func (s *Service) recordsForKey(ctx context.Context, repos TransactionalRepositories, livestockID uuid.UUID, day time.Time, depletionType livestock.DepletionType) ([]livestock.DepletionRecord, error) {
	records, err := repos.DepletionRepo().FindByLivestockAndDate(ctx, livestockID, day)
	if err != nil {
		return nil, err
	}
	matching := make([]livestock.DepletionRecord, 0, len(records))
	for i := range records {
		if records[i].Type == depletionType {
			matching = append(matching, records[i])
		}
	}
	return matching, nil
}

func (s *Service) saveBatches(ctx context.Context, repos TransactionalRepositories, batches []livestock.Batch) error {
	refs := make([]*livestock.Batch, 0, len(batches))
	for i := range batches {
		refs = append(refs, &batches[i])
	}
	return repos.BatchRepo().SaveAll(ctx, refs)
}

func (s *Service) recordingID(ctx context.Context, repos TransactionalRepositories, livestockID uuid.UUID, day time.Time) *uuid.UUID {
	recording := s.findRecordingTx(ctx, repos, livestockID, day)
	if recording == nil {
		return nil
	}
	id := recording.ID
	return &id
}

// findRecording loads the optional daily recording; absence is normal
// and never an error.
func (s *Service) findRecording(ctx context.Context, livestockID uuid.UUID, day time.Time) *livestock.Recording {
	recording, err := s.recordingRepo.FindByLivestockAndDate(ctx, livestockID, day)
	if err != nil {
		return nil
	}
	return recording
}

func (s *Service) findRecordingTx(ctx context.Context, repos TransactionalRepositories, livestockID uuid.UUID, day time.Time) *livestock.Recording {
	recording, err := repos.RecordingRepo().FindByLivestockAndDate(ctx, livestockID, day)
	if err != nil {
		return nil
	}
	return recording
}

func (s *Service) publishCommitEvents(ctx context.Context, record *livestock.DepletionRecord, reversed []livestock.DepletionRecord, l *livestock.Livestock) {
	if s.eventPublisher == nil {
		return
	}
	events := make([]shared.DomainEvent, 0, len(reversed)+2)
	for i := range reversed {
		events = append(events, livestock.NewDepletionReversedEvent(&reversed[i], 0))
	}
	events = append(events,
		livestock.NewDepletionCommittedEvent(record),
		livestock.NewSnapshotRefreshedEvent(l))
	// Event bus failures are logged by the bus, not propagated.
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *Service) logClamps(recordID uuid.UUID, clamps []livestock.ReversalClamp) {
	for _, clamp := range clamps {
		s.logger.Warn("reversal clamped a counter at zero",
			zap.String("record_id", recordID.String()),
			zap.String("batch_id", clamp.BatchID.String()),
			zap.Int64("quantity", clamp.Quantity))
	}
}

func commitIdempotencyKey(key string) string {
	return "depletion:commit:" + key
}
