package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WasteEntry: one logged disposal event. Rows are only ever appended or removed by a full reset.
type WasteEntry struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ItemName   string          `gorm:"size:200;not null;index" json:"item_name"`
	Category   string          `gorm:"size:50;not null;index" json:"category"`
	QuantityKg float64         `gorm:"not null;default:0" json:"quantity_kg"`
	Reason     string          `gorm:"size:500" json:"reason"`
	Date       *time.Time      `gorm:"type:date;index" json:"date"` // nil: unknown date
	Cost       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"cost"`
	Location   string          `gorm:"size:100;index" json:"location"`
	CreatedBy  *uint           `gorm:"index" json:"created_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
