package handler

import (
	"time"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LivestockResponse represents a livestock group in API responses
type LivestockResponse struct {
	ID                 uuid.UUID `json:"id"`
	FarmID             uuid.UUID `json:"farm_id"`
	CoopID             uuid.UUID `json:"coop_id"`
	Name               string    `json:"name"`
	StartDate          time.Time `json:"start_date"`
	InitialQuantity    int64     `json:"initial_quantity"`
	QuantityDepletion  int64     `json:"quantity_depletion"`
	QuantitySales      int64     `json:"quantity_sales"`
	QuantityMutatedOut int64     `json:"quantity_mutated_out"`
	QuantityMutatedIn  int64     `json:"quantity_mutated_in"`
	CurrentQuantity    int64     `json:"current_quantity"`
	Status             string    `json:"status"`
	DepletionMethod    string    `json:"depletion_method"`
	Version            int       `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BatchResponse represents a batch in API responses. Exhausted batches
// are included in listings so manual selection can show them.
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	LivestockID       uuid.UUID       `json:"livestock_id"`
	Name              string          `json:"name"`
	StartDate         time.Time       `json:"start_date"`
	AgeDays           int             `json:"age_days"`
	InitialQuantity   int64           `json:"initial_quantity"`
	QuantityDepletion int64           `json:"quantity_depletion"`
	QuantitySales     int64           `json:"quantity_sales"`
	QuantityMutated   int64           `json:"quantity_mutated"`
	AvailableQuantity int64           `json:"available_quantity"`
	AvgWeight         decimal.Decimal `json:"avg_weight"`
	Status            string          `json:"status"`
}

// LivestockHandler handles read endpoints for livestock groups and
// their batches
type LivestockHandler struct {
	BaseHandler
	livestockRepo livestock.LivestockRepository
	batchRepo     livestock.BatchRepository
}

// NewLivestockHandler creates a new LivestockHandler
func NewLivestockHandler(livestockRepo livestock.LivestockRepository, batchRepo livestock.BatchRepository) *LivestockHandler {
	return &LivestockHandler{
		livestockRepo: livestockRepo,
		batchRepo:     batchRepo,
	}
}

// RegisterRoutes registers livestock routes
func (h *LivestockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	groups := rg.Group("/livestock")
	{
		groups.GET("", h.List)
		groups.GET(":id", h.Get)
		groups.GET(":id/batches", h.ListBatches)
	}
}

// List lists livestock groups matching the filter
func (h *LivestockHandler) List(c *gin.Context) {
	filter := shared.DefaultFilter()
	filter.Search = c.Query("search")
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if farmID := c.Query("farm_id"); farmID != "" {
		id, err := uuid.Parse(farmID)
		if err != nil {
			h.BadRequest(c, "farm_id must be a valid UUID")
			return
		}
		filter.Filters["farm_id"] = id
	}

	groups, err := h.livestockRepo.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	total, err := h.livestockRepo.Count(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]LivestockResponse, 0, len(groups))
	for i := range groups {
		responses = append(responses, toLivestockResponse(&groups[i]))
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// Get returns a livestock group with its current snapshot
func (h *LivestockHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return
	}

	l, err := h.livestockRepo.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toLivestockResponse(l))
}

// ListBatches lists all batches of a livestock group in FIFO order,
// including exhausted and closed ones
func (h *LivestockHandler) ListBatches(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return
	}

	// 404 on unknown livestock rather than an empty batch list
	if _, err := h.livestockRepo.FindByID(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	batches, err := h.batchRepo.FindByLivestock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	now := time.Now()
	responses := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		responses = append(responses, toBatchResponse(&batches[i], now))
	}

	h.Success(c, responses)
}

func toLivestockResponse(l *livestock.Livestock) LivestockResponse {
	return LivestockResponse{
		ID:                 l.ID,
		FarmID:             l.FarmID,
		CoopID:             l.CoopID,
		Name:               l.Name,
		StartDate:          l.StartDate,
		InitialQuantity:    l.InitialQuantity,
		QuantityDepletion:  l.QuantityDepletion,
		QuantitySales:      l.QuantitySales,
		QuantityMutatedOut: l.QuantityMutatedOut,
		QuantityMutatedIn:  l.QuantityMutatedIn,
		CurrentQuantity:    l.CurrentQuantity,
		Status:             string(l.Status),
		DepletionMethod:    string(l.Config.DepletionMethod),
		Version:            l.Version,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

func toBatchResponse(b *livestock.Batch, asOf time.Time) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		LivestockID:       b.LivestockID,
		Name:              b.Name,
		StartDate:         b.StartDate,
		AgeDays:           b.AgeDays(asOf),
		InitialQuantity:   b.InitialQuantity,
		QuantityDepletion: b.QuantityDepletion,
		QuantitySales:     b.QuantitySales,
		QuantityMutated:   b.QuantityMutated,
		AvailableQuantity: b.AvailableQuantity(),
		AvgWeight:         b.AvgWeight,
		Status:            string(b.Status),
	}
}
