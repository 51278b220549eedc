package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/farmstock/backend/internal/application/depletion"
	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type depletionFixture struct {
	engine    *gin.Engine
	livestock *livestock.Livestock
	depletion *fakeDepletionRepo
}

func setupDepletionFixture(t *testing.T, initialQuantity int64) *depletionFixture {
	t.Helper()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := livestock.NewLivestock(uuid.New(), uuid.New(), "Flock 1", start, initialQuantity)
	b := livestock.NewBatch(l.ID, "Batch A", start, initialQuantity, decimal.NewFromInt(1500))

	livestockRepo := newFakeLivestockRepo(l)
	batchRepo := newFakeBatchRepo()
	batchRepo.batches[l.ID] = []livestock.Batch{*b}
	depletionRepo := newFakeDepletionRepo()
	recordingRepo := newFakeRecordingRepo()

	scope := depletion.NewNoOpTransactionScope(livestockRepo, batchRepo, depletionRepo, recordingRepo)
	service := depletion.NewService(scope, livestockRepo, batchRepo, depletionRepo, recordingRepo)

	engine := gin.New()
	NewDepletionHandler(service).RegisterRoutes(engine.Group("/api/v1"))

	return &depletionFixture{
		engine:    engine,
		livestock: l,
		depletion: depletionRepo,
	}
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	engine.ServeHTTP(w, req)
	return w
}

func TestDepletionHandlerPreview(t *testing.T) {
	f := setupDepletionFixture(t, 100)
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("fifo preview distributes over batches", func(t *testing.T) {
		w := postJSON(t, f.engine, "/api/v1/depletions/preview", gin.H{
			"livestock_id": f.livestock.ID,
			"date":         date,
			"type":         "mortality",
			"quantity":     10,
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data depletion.DistributionResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Complete)
		assert.Equal(t, int64(10), resp.Data.TotalDistributed)
		require.Len(t, resp.Data.Lines, 1)
	})

	t.Run("accepts date-only dates like the query endpoints", func(t *testing.T) {
		w := postJSON(t, f.engine, "/api/v1/depletions/preview", gin.H{
			"livestock_id": f.livestock.ID,
			"date":         "2024-02-01",
			"type":         "mortality",
			"quantity":     10,
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data depletion.DistributionResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(10), resp.Data.TotalDistributed)
	})

	t.Run("unknown livestock returns 404", func(t *testing.T) {
		w := postJSON(t, f.engine, "/api/v1/depletions/preview", gin.H{
			"livestock_id": uuid.New(),
			"date":         date,
			"type":         "mortality",
			"quantity":     10,
		}, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/v1/depletions/preview", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDepletionHandlerCommit(t *testing.T) {
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("commit creates record and returns 201", func(t *testing.T) {
		f := setupDepletionFixture(t, 100)

		w := postJSON(t, f.engine, "/api/v1/depletions", gin.H{
			"livestock_id": f.livestock.ID,
			"date":         date,
			"type":         "mortality",
			"quantity":     10,
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data depletion.CommitResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEqual(t, uuid.Nil, resp.Data.RecordID)
		assert.Equal(t, int64(90), resp.Data.Livestock.CurrentQuantity)
		assert.Len(t, f.depletion.records, 1)
	})

	t.Run("short stock refusal carries the partial plan", func(t *testing.T) {
		f := setupDepletionFixture(t, 5)

		w := postJSON(t, f.engine, "/api/v1/depletions", gin.H{
			"livestock_id": f.livestock.ID,
			"date":         date,
			"type":         "mortality",
			"quantity":     10,
		}, nil)

		require.Equal(t, http.StatusConflict, w.Code)

		var resp struct {
			Success bool                           `json:"success"`
			Data    depletion.DistributionResponse `json:"data"`
			Error   *dto.ErrorInfo                 `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeIncompleteAllocation, resp.Error.Code)
		assert.Equal(t, int64(5), resp.Data.TotalDistributed)
		assert.False(t, resp.Data.Complete)
		assert.Empty(t, f.depletion.records)
	})

	t.Run("allow_partial commits the distributed portion", func(t *testing.T) {
		f := setupDepletionFixture(t, 5)

		w := postJSON(t, f.engine, "/api/v1/depletions", gin.H{
			"livestock_id":  f.livestock.ID,
			"date":          date,
			"type":          "mortality",
			"quantity":      10,
			"allow_partial": true,
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data depletion.CommitResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(5), resp.Data.Distribution.TotalDistributed)
		assert.Equal(t, int64(0), resp.Data.Livestock.CurrentQuantity)
	})
}

func TestDepletionHandlerList(t *testing.T) {
	f := setupDepletionFixture(t, 100)

	t.Run("missing livestock_id returns 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/depletions", nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad date returns 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/depletions?livestock_id="+f.livestock.ID.String()+"&date=yesterday", nil)
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lists committed records", func(t *testing.T) {
		date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		commit := postJSON(t, f.engine, "/api/v1/depletions", gin.H{
			"livestock_id": f.livestock.ID,
			"date":         date,
			"type":         "mortality",
			"quantity":     3,
		}, nil)
		require.Equal(t, http.StatusCreated, commit.Code)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/v1/depletions?livestock_id="+f.livestock.ID.String(), nil)
		f.engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []depletion.DepletionRecordResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, int64(3), resp.Data[0].TotalQuantity)
	})
}

func TestDepletionHandlerReverse(t *testing.T) {
	f := setupDepletionFixture(t, 100)
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	commit := postJSON(t, f.engine, "/api/v1/depletions", gin.H{
		"livestock_id": f.livestock.ID,
		"date":         date,
		"type":         "mortality",
		"quantity":     10,
	}, nil)
	require.Equal(t, http.StatusCreated, commit.Code)

	var envelope struct {
		Data depletion.CommitResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(commit.Body.Bytes(), &envelope))
	recordID := envelope.Data.RecordID

	t.Run("reversal restores counters", func(t *testing.T) {
		w := postJSON(t, f.engine, "/api/v1/depletions/reversals", gin.H{
			"record_ids": []uuid.UUID{recordID},
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data depletion.DeleteResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []uuid.UUID{recordID}, resp.Data.Deleted)
		assert.Empty(t, f.depletion.records)
		assert.Equal(t, int64(100), f.livestock.CurrentQuantity)
	})

	t.Run("reversing an unknown record skips it", func(t *testing.T) {
		w := postJSON(t, f.engine, "/api/v1/depletions/reversals", gin.H{
			"record_ids": []uuid.UUID{uuid.New()},
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data depletion.DeleteResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Data.Deleted)
		require.Len(t, resp.Data.Skipped, 1)
	})

	t.Run("delete by path id", func(t *testing.T) {
		second := postJSON(t, f.engine, "/api/v1/depletions", gin.H{
			"livestock_id": f.livestock.ID,
			"date":         date,
			"type":         "mortality",
			"quantity":     4,
		}, nil)
		require.Equal(t, http.StatusCreated, second.Code)

		var env struct {
			Data depletion.CommitResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(second.Body.Bytes(), &env))

		w := httptest.NewRecorder()
		req := httptest.NewRequest("DELETE", "/api/v1/depletions/"+env.Data.RecordID.String(), nil)
		f.engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, f.depletion.records)
	})
}
