package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockBatchRepository(t *testing.T) (*GormBatchRepository, sqlmock.Sqlmock, *sql.DB) {
	gormDB, mock, mockDB := newMockDB(t)
	return NewGormBatchRepository(gormDB), mock, mockDB
}

func batchRows(livestockID uuid.UUID, ids ...uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "livestock_id", "name", "start_date",
		"initial_quantity", "quantity_depletion", "quantity_sales",
		"quantity_mutated", "avg_weight", "status",
	})
	for i, id := range ids {
		rows.AddRow(
			id, now, now, livestockID, "Batch", now.AddDate(0, 0, -30+i),
			int64(100), int64(0), int64(0), int64(0), "1500", "active",
		)
	}
	return rows
}

func TestGormBatchRepository_FindByLivestock(t *testing.T) {
	t.Run("queries in FIFO order", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		livestockID := uuid.New()
		first, second := uuid.New(), uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "livestock_batches" WHERE livestock_id = \$1 ORDER BY start_date ASC, created_at ASC, id ASC`).
			WithArgs(livestockID).
			WillReturnRows(batchRows(livestockID, first, second))

		batches, err := repo.FindByLivestock(context.Background(), livestockID)

		assert.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, first, batches[0].ID)
		assert.Equal(t, second, batches[1].ID)
		assert.Equal(t, int64(100), batches[0].AvailableQuantity())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBatchRepository_FindByLivestockForUpdate(t *testing.T) {
	t.Run("locks every batch of the group", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		livestockID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "livestock_batches" WHERE livestock_id = \$1 ORDER BY start_date ASC, created_at ASC, id ASC FOR UPDATE`).
			WithArgs(livestockID).
			WillReturnRows(batchRows(livestockID, uuid.New()))

		batches, err := repo.FindByLivestockForUpdate(context.Background(), livestockID)

		assert.NoError(t, err)
		assert.Len(t, batches, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBatchRepository_SaveAll(t *testing.T) {
	t.Run("no statement for empty slice", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		err := repo.SaveAll(context.Background(), nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

}

func TestGormBatchRepository_Save(t *testing.T) {
	t.Run("saves batch", func(t *testing.T) {
		repo, mock, mockDB := newMockBatchRepository(t)
		defer mockDB.Close()

		b := livestock.NewBatch(uuid.New(), "Batch A", time.Now().AddDate(0, 0, -30), 100, decimal.NewFromInt(1500))

		mock.ExpectExec(`UPDATE "livestock_batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), b)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
