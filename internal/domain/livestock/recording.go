package livestock

import (
	"time"

	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recording is the daily bookkeeping entry for a livestock group. It is
// an optional join: depletion output is annotated with its stock
// figures when one exists for the date, but allocation correctness
// never depends on it.
type Recording struct {
	shared.BaseEntity
	LivestockID uuid.UUID
	Date        time.Time
	StockStart  int64
	StockFinal  int64
	AvgWeight   decimal.Decimal
}
