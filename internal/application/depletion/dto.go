package depletion

import (
	"encoding/json"
	"time"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PreviewRequest asks for a distribution plan without committing it
type PreviewRequest struct {
	LivestockID uuid.UUID                   `json:"livestock_id" binding:"required"`
	Date        time.Time                   `json:"date" binding:"required"`
	Type        livestock.DepletionType     `json:"type" binding:"required,depletion_type"`
	Method      livestock.AllocationMethod  `json:"method" binding:"omitempty,allocation_method"`
	Quantity    int64                       `json:"quantity"`
	Selections  []livestock.ManualSelection `json:"selections"`
	// Degraded switches the FIFO allocator to its clamping variant,
	// used for advisory previews over known-drifted data.
	Degraded bool `json:"degraded"`
}

// CommitRequest commits a depletion for a livestock group on a date
type CommitRequest struct {
	LivestockID uuid.UUID                   `json:"livestock_id" binding:"required"`
	Date        time.Time                   `json:"date" binding:"required"`
	Type        livestock.DepletionType     `json:"type" binding:"required,depletion_type"`
	Method      livestock.AllocationMethod  `json:"method" binding:"omitempty,allocation_method"`
	Quantity    int64                       `json:"quantity"`
	Selections  []livestock.ManualSelection `json:"selections"`
	Reason      string                      `json:"reason" binding:"max=255"`
	// AllowPartial accepts a plan that could not distribute the full
	// requested quantity; the committed record covers only what was
	// distributed.
	AllowPartial bool `json:"allow_partial"`
	// IdempotencyKey dedupes re-submitted commits; taken from the
	// Idempotency-Key header when present.
	IdempotencyKey string `json:"-"`
}

// parseBodyDate parses the date forms request bodies accept: the
// date-only form the query endpoints use, or a full RFC3339 stamp.
func parseBodyDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// UnmarshalJSON accepts date-only dates alongside RFC3339
func (r *PreviewRequest) UnmarshalJSON(data []byte) error {
	type plain PreviewRequest
	aux := struct {
		Date string `json:"date"`
		*plain
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		return nil
	}
	parsed, err := parseBodyDate(aux.Date)
	if err != nil {
		return err
	}
	r.Date = parsed
	return nil
}

// UnmarshalJSON accepts date-only dates alongside RFC3339
func (r *CommitRequest) UnmarshalJSON(data []byte) error {
	type plain CommitRequest
	aux := struct {
		Date string `json:"date"`
		*plain
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		return nil
	}
	parsed, err := parseBodyDate(aux.Date)
	if err != nil {
		return err
	}
	r.Date = parsed
	return nil
}

// DistributionLineResponse is one batch's share in API responses
type DistributionLineResponse struct {
	BatchID         uuid.UUID `json:"batch_id"`
	BatchName       string    `json:"batch_name"`
	StartDate       time.Time `json:"start_date"`
	AgeDays         int       `json:"age_days"`
	AvailableBefore int64     `json:"available_before"`
	Quantity        int64     `json:"quantity"`
	RemainingAfter  int64     `json:"remaining_after"`
	Note            string    `json:"note,omitempty"`
	Inferred        bool      `json:"inferred,omitempty"`
}

// LineErrorResponse reports a rejected manual selection
type LineErrorResponse struct {
	BatchID uuid.UUID `json:"batch_id"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// DistributionResponse is the computed plan in API responses,
// optionally annotated with the day's recording stock figures
type DistributionResponse struct {
	Method            livestock.AllocationMethod `json:"method"`
	RequestedQuantity int64                      `json:"requested_quantity"`
	TotalDistributed  int64                      `json:"total_distributed"`
	Shortfall         int64                      `json:"shortfall"`
	Complete          bool                       `json:"complete"`
	Lines             []DistributionLineResponse `json:"lines"`
	LineErrors        []LineErrorResponse        `json:"line_errors,omitempty"`
	Recording         *RecordingResponse         `json:"recording,omitempty"`
}

// RecordingResponse carries the optional daily-recording annotation
type RecordingResponse struct {
	ID         uuid.UUID       `json:"id"`
	Date       time.Time       `json:"date"`
	StockStart int64           `json:"stock_start"`
	StockFinal int64           `json:"stock_final"`
	AvgWeight  decimal.Decimal `json:"avg_weight"`
}

// CommitResponse is returned after a successful commit
type CommitResponse struct {
	RecordID     uuid.UUID                  `json:"record_id"`
	Strategy     CommitStrategy             `json:"strategy"`
	Distribution DistributionResponse       `json:"distribution"`
	Livestock    LivestockSnapshotResponse  `json:"livestock"`
}

// LivestockSnapshotResponse reports aggregate counters after a commit
type LivestockSnapshotResponse struct {
	ID                uuid.UUID `json:"id"`
	CurrentQuantity   int64     `json:"current_quantity"`
	QuantityDepletion int64     `json:"quantity_depletion"`
	QuantitySales     int64     `json:"quantity_sales"`
	Version           int       `json:"version"`
}

// DepletionLineResponse is one stored breakdown line
type DepletionLineResponse struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Quantity int64     `json:"quantity"`
	Note     string    `json:"note,omitempty"`
}

// DepletionRecordResponse is a committed record in API responses
type DepletionRecordResponse struct {
	ID            uuid.UUID                  `json:"id"`
	LivestockID   uuid.UUID                  `json:"livestock_id"`
	RecordingID   *uuid.UUID                 `json:"recording_id,omitempty"`
	Date          time.Time                  `json:"date"`
	Type          livestock.DepletionType    `json:"type"`
	Method        livestock.AllocationMethod `json:"method"`
	TotalQuantity int64                      `json:"total_quantity"`
	Reason        string                     `json:"reason,omitempty"`
	Legacy        bool                       `json:"legacy"`
	Lines         []DepletionLineResponse    `json:"lines"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// EditResponse is the merged pre-filled form state for an edit flow.
// Selections carry the merged lines in the shape a re-submitted edit
// posts back as a manual commit.
type EditResponse struct {
	LivestockID  uuid.UUID                   `json:"livestock_id"`
	Date         time.Time                   `json:"date"`
	RecordIDs    []uuid.UUID                 `json:"record_ids"`
	HasInferred  bool                        `json:"has_inferred"`
	Distribution DistributionResponse        `json:"distribution"`
	Selections   []livestock.ManualSelection `json:"selections"`
}

// DeleteRequest asks for one or more records to be reversed and removed
type DeleteRequest struct {
	RecordIDs []uuid.UUID `json:"record_ids" binding:"required,min=1"`
}

// DeleteResponse reports the outcome per requested record
type DeleteResponse struct {
	Deleted []uuid.UUID     `json:"deleted"`
	Skipped []uuid.UUID     `json:"skipped,omitempty"`
	Clamps  []ClampResponse `json:"clamps,omitempty"`
}

// ClampResponse reports a counter floored at zero during reversal
type ClampResponse struct {
	RecordID uuid.UUID `json:"record_id"`
	BatchID  uuid.UUID `json:"batch_id"`
	Quantity int64     `json:"quantity"`
}

// ListFilter filters the record listing
type ListFilter struct {
	LivestockID uuid.UUID  `form:"livestock_id" binding:"required"`
	Date        *time.Time `form:"date"`
	Page        int        `form:"page" binding:"min=0"`
	PageSize    int        `form:"page_size" binding:"min=0,max=100"`
}

// ToDistributionResponse converts a domain distribution
func ToDistributionResponse(dist *livestock.Distribution, recording *livestock.Recording) DistributionResponse {
	resp := DistributionResponse{
		Method:            dist.Method,
		RequestedQuantity: dist.RequestedQuantity,
		TotalDistributed:  dist.TotalDistributed,
		Shortfall:         dist.Shortfall,
		Complete:          dist.Complete,
		Lines:             make([]DistributionLineResponse, 0, len(dist.Lines)),
	}
	for _, line := range dist.Lines {
		resp.Lines = append(resp.Lines, DistributionLineResponse{
			BatchID:         line.BatchID,
			BatchName:       line.BatchName,
			StartDate:       line.StartDate,
			AgeDays:         line.AgeDays,
			AvailableBefore: line.AvailableBefore,
			Quantity:        line.Quantity,
			RemainingAfter:  line.RemainingAfter,
			Note:            line.Note,
			Inferred:        line.Inferred,
		})
	}
	for _, lineErr := range dist.LineErrors {
		resp.LineErrors = append(resp.LineErrors, LineErrorResponse{
			BatchID: lineErr.BatchID,
			Code:    lineErr.Code,
			Message: lineErr.Message,
		})
	}
	if recording != nil {
		resp.Recording = &RecordingResponse{
			ID:         recording.ID,
			Date:       recording.Date,
			StockStart: recording.StockStart,
			StockFinal: recording.StockFinal,
			AvgWeight:  recording.AvgWeight,
		}
	}
	return resp
}

// ToRecordResponse converts a domain depletion record
func ToRecordResponse(record *livestock.DepletionRecord) DepletionRecordResponse {
	resp := DepletionRecordResponse{
		ID:            record.ID,
		LivestockID:   record.LivestockID,
		RecordingID:   record.RecordingID,
		Date:          record.Date,
		Type:          record.Type,
		Method:        record.Method,
		TotalQuantity: record.TotalQuantity,
		Reason:        record.Reason,
		Legacy:        !record.HasBreakdown(),
		Lines:         make([]DepletionLineResponse, 0, len(record.Lines)),
		CreatedAt:     record.CreatedAt,
	}
	for _, line := range record.Lines {
		resp.Lines = append(resp.Lines, DepletionLineResponse{
			BatchID:  line.BatchID,
			Quantity: line.Quantity,
			Note:     line.Note,
		})
	}
	return resp
}

// ToLivestockSnapshotResponse converts aggregate state after a commit
func ToLivestockSnapshotResponse(l *livestock.Livestock) LivestockSnapshotResponse {
	return LivestockSnapshotResponse{
		ID:                l.ID,
		CurrentQuantity:   l.CurrentQuantity,
		QuantityDepletion: l.QuantityDepletion,
		QuantitySales:     l.QuantitySales,
		Version:           l.Version,
	}
}
