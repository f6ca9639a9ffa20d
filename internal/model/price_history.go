package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceHistory records each change of a product's price or cost.
// Rows are immutable.
type PriceHistory struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	CostBefore  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostAfter   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PriceBefore decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PriceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ChangedBy   string          `gorm:"not null;default:'Sistema'"`
	CreatedAt   time.Time
}

// TableName overrides GORM's default pluralization (price_histories).
func (PriceHistory) TableName() string { return "price_history" }
