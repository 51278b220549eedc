package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/farmstock/backend/internal/application/depletion"
	"github.com/farmstock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// parseDate parses a date string in the formats the API accepts
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// DepletionHandler handles depletion preview, commit, edit and rollback
// endpoints
type DepletionHandler struct {
	BaseHandler
	service *depletion.Service
}

// NewDepletionHandler creates a new DepletionHandler
func NewDepletionHandler(service *depletion.Service) *DepletionHandler {
	return &DepletionHandler{service: service}
}

// RegisterRoutes registers depletion routes
func (h *DepletionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	depletions := rg.Group("/depletions")
	{
		depletions.GET("", h.List)
		depletions.GET("/edit", h.LoadForEdit)
		depletions.POST("", h.Commit)
		depletions.POST("/preview", h.Preview)
		depletions.POST("/reversals", h.Reverse)
		depletions.DELETE(":id", h.Delete)
	}
}

// Preview computes a distribution plan without committing it
func (h *DepletionHandler) Preview(c *gin.Context) {
	var req depletion.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Preview(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Commit commits a depletion for a livestock group on a date. The
// Idempotency-Key header dedupes re-submitted commits.
func (h *DepletionHandler) Commit(c *gin.Context) {
	var req depletion.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	resp, err := h.service.Commit(c.Request.Context(), &req)
	if err != nil {
		// A refused partial plan carries the computed distribution so
		// the client can show what would have happened.
		var incompleteErr *depletion.IncompleteAllocationError
		if errors.As(err, &incompleteErr) {
			c.JSON(http.StatusConflict, dto.Response{
				Success: false,
				Data:    incompleteErr.Distribution,
				Error: &dto.ErrorInfo{
					Code:      dto.ErrCodeIncompleteAllocation,
					Message:   incompleteErr.Error(),
					RequestID: getRequestID(c),
				},
			})
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List lists committed depletion records for a livestock group
func (h *DepletionHandler) List(c *gin.Context) {
	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	records, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// LoadForEdit returns the merged pre-filled form state for editing a
// day's depletion of a given type
func (h *DepletionHandler) LoadForEdit(c *gin.Context) {
	livestockID, err := uuid.Parse(c.Query("livestock_id"))
	if err != nil {
		h.BadRequest(c, "livestock_id must be a valid UUID")
		return
	}

	day, err := parseDate(c.Query("date"))
	if err != nil {
		h.BadRequest(c, "date must be YYYY-MM-DD or RFC3339")
		return
	}

	resp, err := h.service.LoadForEdit(c.Request.Context(), livestockID, day)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete reverses and removes a single depletion record
func (h *DepletionHandler) Delete(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return
	}

	resp, err := h.service.Delete(c.Request.Context(), &depletion.DeleteRequest{
		RecordIDs: []uuid.UUID{recordID},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Reverse reverses and removes a set of depletion records. Each record
// is reversed in its own transaction; ids that no longer exist are
// skipped and reported, so a retry of a partially failed call is safe.
func (h *DepletionHandler) Reverse(c *gin.Context) {
	var req depletion.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Delete(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// bindListFilter parses the list query parameters. Reports the error
// itself and returns false when the input is invalid.
func (h *DepletionHandler) bindListFilter(c *gin.Context) (*depletion.ListFilter, bool) {
	livestockID, err := uuid.Parse(c.Query("livestock_id"))
	if err != nil {
		h.BadRequest(c, "livestock_id must be a valid UUID")
		return nil, false
	}

	filter := &depletion.ListFilter{LivestockID: livestockID}

	if dateStr := c.Query("date"); dateStr != "" {
		day, err := parseDate(dateStr)
		if err != nil {
			h.BadRequest(c, "date must be YYYY-MM-DD or RFC3339")
			return nil, false
		}
		filter.Date = &day
	}

	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			h.BadRequest(c, "page must be a positive integer")
			return nil, false
		}
		filter.Page = page
	}

	if sizeStr := c.Query("page_size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 || size > 100 {
			h.BadRequest(c, "page_size must be between 1 and 100")
			return nil, false
		}
		filter.PageSize = size
	}

	return filter, true
}
