package depletion

import (
	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CommitStrategy describes how a commit relates to the records already
// stored for the same (livestock, date, type).
type CommitStrategy string

const (
	// CommitStrategyCreate inserts a fresh record; nothing existed.
	CommitStrategyCreate CommitStrategy = "CREATE_NEW"
	// CommitStrategyUpdate rewrites the single existing structured
	// record in place. Chosen only when the new plan touches the same
	// batch set with the same method, so prior counter effects can be
	// reversed and re-applied symmetrically.
	CommitStrategyUpdate CommitStrategy = "UPDATE_EXISTING"
	// CommitStrategyDeleteAndCreate reverses and deletes every prior
	// record for the key before inserting the new one. The safe default
	// when the prior state is legacy, fragmented, or shaped differently.
	CommitStrategyDeleteAndCreate CommitStrategy = "DELETE_AND_CREATE"
)

// resolveCommitStrategy picks the strategy for a commit given the
// records already stored for the same key and the freshly planned
// distribution.
func resolveCommitStrategy(existing []livestock.DepletionRecord, dist *livestock.Distribution) CommitStrategy {
	if len(existing) == 0 {
		return CommitStrategyCreate
	}
	if len(existing) == 1 {
		record := &existing[0]
		if record.HasBreakdown() && record.Method == dist.Method && sameBatchSet(record.BatchIDSet(), dist.BatchIDSet()) {
			return CommitStrategyUpdate
		}
	}
	return CommitStrategyDeleteAndCreate
}

// rewriteRecord replaces an existing record's scalar fields and lines
// in place for the update-existing path, keeping its identity and date.
func rewriteRecord(record *livestock.DepletionRecord, req *CommitRequest, recordingID *uuid.UUID, dist *livestock.Distribution) {
	record.RecordingID = recordingID
	record.Type = req.Type
	record.Method = dist.Method
	record.TotalQuantity = dist.TotalDistributed
	record.Reason = req.Reason
	record.Lines = record.Lines[:0]
	for _, line := range dist.Lines {
		record.Lines = append(record.Lines, livestock.DepletionLine{
			BaseEntity: shared.NewBaseEntity(),
			RecordID:   record.ID,
			BatchID:    line.BatchID,
			Quantity:   line.Quantity,
			Note:       line.Note,
		})
	}
}

func sameBatchSet(a, b map[uuid.UUID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
