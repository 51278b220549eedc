package models

import (
	"time"

	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LivestockModel is the persistence model for the Livestock aggregate root.
type LivestockModel struct {
	AggregateModel
	FarmID             uuid.UUID `gorm:"type:uuid;not null;index"`
	CoopID             uuid.UUID `gorm:"type:uuid;not null;index"`
	Name               string    `gorm:"type:varchar(100);not null"`
	StartDate          time.Time `gorm:"type:date;not null"`
	InitialQuantity    int64     `gorm:"not null;default:0"`
	QuantityDepletion  int64     `gorm:"not null;default:0"`
	QuantitySales      int64     `gorm:"not null;default:0"`
	QuantityMutatedOut int64     `gorm:"not null;default:0"`
	QuantityMutatedIn  int64     `gorm:"not null;default:0"`
	CurrentQuantity    int64     `gorm:"not null;default:0"`
	Status             string    `gorm:"type:varchar(20);not null;index"`
	DepletionMethod    string    `gorm:"type:varchar(20);not null;default:'fifo'"`
}

// TableName returns the table name for GORM
func (LivestockModel) TableName() string {
	return "livestocks"
}

// ToDomain converts the persistence model to a domain Livestock aggregate.
func (m *LivestockModel) ToDomain() *livestock.Livestock {
	return &livestock.Livestock{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		FarmID:             m.FarmID,
		CoopID:             m.CoopID,
		Name:               m.Name,
		StartDate:          m.StartDate,
		InitialQuantity:    m.InitialQuantity,
		QuantityDepletion:  m.QuantityDepletion,
		QuantitySales:      m.QuantitySales,
		QuantityMutatedOut: m.QuantityMutatedOut,
		QuantityMutatedIn:  m.QuantityMutatedIn,
		CurrentQuantity:    m.CurrentQuantity,
		Status:             livestock.LivestockStatus(m.Status),
		Config: livestock.Config{
			DepletionMethod: livestock.AllocationMethod(m.DepletionMethod),
		},
	}
}

// FromDomain populates the persistence model from a domain Livestock aggregate.
func (m *LivestockModel) FromDomain(l *livestock.Livestock) {
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	m.FarmID = l.FarmID
	m.CoopID = l.CoopID
	m.Name = l.Name
	m.StartDate = l.StartDate
	m.InitialQuantity = l.InitialQuantity
	m.QuantityDepletion = l.QuantityDepletion
	m.QuantitySales = l.QuantitySales
	m.QuantityMutatedOut = l.QuantityMutatedOut
	m.QuantityMutatedIn = l.QuantityMutatedIn
	m.CurrentQuantity = l.CurrentQuantity
	m.Status = string(l.Status)
	m.DepletionMethod = string(l.Config.DepletionMethod)
}

// LivestockModelFromDomain creates a new persistence model from a domain Livestock aggregate.
func LivestockModelFromDomain(l *livestock.Livestock) *LivestockModel {
	m := &LivestockModel{}
	m.FromDomain(l)
	return m
}

// BatchModel is the persistence model for the Batch entity.
type BatchModel struct {
	BaseModel
	LivestockID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_livestock"`
	Name              string          `gorm:"type:varchar(100);not null"`
	StartDate         time.Time       `gorm:"type:date;not null;index"`
	InitialQuantity   int64           `gorm:"not null;default:0"`
	QuantityDepletion int64           `gorm:"not null;default:0"`
	QuantitySales     int64           `gorm:"not null;default:0"`
	QuantityMutated   int64           `gorm:"not null;default:0"`
	AvgWeight         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status            string          `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "livestock_batches"
}

// ToDomain converts the persistence model to a domain Batch entity.
func (m *BatchModel) ToDomain() *livestock.Batch {
	return &livestock.Batch{
		BaseEntity:        m.BaseModel.ToDomain(),
		LivestockID:       m.LivestockID,
		Name:              m.Name,
		StartDate:         m.StartDate,
		InitialQuantity:   m.InitialQuantity,
		QuantityDepletion: m.QuantityDepletion,
		QuantitySales:     m.QuantitySales,
		QuantityMutated:   m.QuantityMutated,
		AvgWeight:         m.AvgWeight,
		Status:            livestock.BatchStatus(m.Status),
	}
}

// FromDomain populates the persistence model from a domain Batch entity.
func (m *BatchModel) FromDomain(b *livestock.Batch) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.LivestockID = b.LivestockID
	m.Name = b.Name
	m.StartDate = b.StartDate
	m.InitialQuantity = b.InitialQuantity
	m.QuantityDepletion = b.QuantityDepletion
	m.QuantitySales = b.QuantitySales
	m.QuantityMutated = b.QuantityMutated
	m.AvgWeight = b.AvgWeight
	m.Status = string(b.Status)
}

// BatchModelFromDomain creates a new persistence model from a domain Batch entity.
func BatchModelFromDomain(b *livestock.Batch) *BatchModel {
	m := &BatchModel{}
	m.FromDomain(b)
	return m
}

// DepletionRecordModel is the persistence model for the DepletionRecord entity.
// Records created before per-batch tracking carry no lines; they load as
// legacy records without a breakdown.
type DepletionRecordModel struct {
	BaseModel
	LivestockID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_depletion_livestock_date,priority:1"`
	RecordingID   *uuid.UUID           `gorm:"type:uuid;index"`
	Date          time.Time            `gorm:"type:date;not null;index:idx_depletion_livestock_date,priority:2"`
	Type          string               `gorm:"type:varchar(20);not null"`
	Method        string               `gorm:"type:varchar(20);not null"`
	TotalQuantity int64                `gorm:"not null"`
	Reason        string               `gorm:"type:text"`
	Lines         []DepletionLineModel `gorm:"foreignKey:RecordID;references:ID"`
}

// TableName returns the table name for GORM
func (DepletionRecordModel) TableName() string {
	return "depletion_records"
}

// ToDomain converts the persistence model to a domain DepletionRecord entity.
func (m *DepletionRecordModel) ToDomain() *livestock.DepletionRecord {
	record := &livestock.DepletionRecord{
		BaseEntity:    m.BaseModel.ToDomain(),
		LivestockID:   m.LivestockID,
		RecordingID:   m.RecordingID,
		Date:          m.Date,
		Type:          livestock.DepletionType(m.Type),
		Method:        livestock.AllocationMethod(m.Method),
		TotalQuantity: m.TotalQuantity,
		Reason:        m.Reason,
		Lines:         make([]livestock.DepletionLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		record.Lines[i] = *line.ToDomain()
	}
	return record
}

// FromDomain populates the persistence model from a domain DepletionRecord entity.
func (m *DepletionRecordModel) FromDomain(r *livestock.DepletionRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.LivestockID = r.LivestockID
	m.RecordingID = r.RecordingID
	m.Date = r.Date
	m.Type = string(r.Type)
	m.Method = string(r.Method)
	m.TotalQuantity = r.TotalQuantity
	m.Reason = r.Reason
	m.Lines = make([]DepletionLineModel, len(r.Lines))
	for i := range r.Lines {
		m.Lines[i] = *DepletionLineModelFromDomain(&r.Lines[i])
	}
}

// DepletionRecordModelFromDomain creates a new persistence model from a domain DepletionRecord entity.
func DepletionRecordModelFromDomain(r *livestock.DepletionRecord) *DepletionRecordModel {
	m := &DepletionRecordModel{}
	m.FromDomain(r)
	return m
}

// DepletionLineModel is the persistence model for one batch's share of a
// depletion record.
type DepletionLineModel struct {
	BaseModel
	RecordID uuid.UUID `gorm:"type:uuid;not null;index"`
	BatchID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity int64     `gorm:"not null"`
	Note     string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DepletionLineModel) TableName() string {
	return "depletion_lines"
}

// ToDomain converts the persistence model to a domain DepletionLine entity.
func (m *DepletionLineModel) ToDomain() *livestock.DepletionLine {
	return &livestock.DepletionLine{
		BaseEntity: m.BaseModel.ToDomain(),
		RecordID:   m.RecordID,
		BatchID:    m.BatchID,
		Quantity:   m.Quantity,
		Note:       m.Note,
	}
}

// DepletionLineModelFromDomain creates a new persistence model from a domain DepletionLine entity.
func DepletionLineModelFromDomain(l *livestock.DepletionLine) *DepletionLineModel {
	m := &DepletionLineModel{}
	m.FromDomainBaseEntity(l.BaseEntity)
	m.RecordID = l.RecordID
	m.BatchID = l.BatchID
	m.Quantity = l.Quantity
	m.Note = l.Note
	return m
}

// RecordingModel is the persistence model for the daily Recording entry.
type RecordingModel struct {
	BaseModel
	LivestockID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recording_livestock_date,priority:1"`
	Date        time.Time       `gorm:"type:date;not null;uniqueIndex:idx_recording_livestock_date,priority:2"`
	StockStart  int64           `gorm:"not null;default:0"`
	StockFinal  int64           `gorm:"not null;default:0"`
	AvgWeight   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (RecordingModel) TableName() string {
	return "recordings"
}

// ToDomain converts the persistence model to a domain Recording entity.
func (m *RecordingModel) ToDomain() *livestock.Recording {
	return &livestock.Recording{
		BaseEntity:  m.BaseModel.ToDomain(),
		LivestockID: m.LivestockID,
		Date:        m.Date,
		StockStart:  m.StockStart,
		StockFinal:  m.StockFinal,
		AvgWeight:   m.AvgWeight,
	}
}
