package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MovementPurchase   = "purchase"
	MovementSale       = "sale"
	MovementAdjustment = "adjustment"
	MovementReturn     = "return"
	MovementTransfer   = "transfer"
)

// StockMovement records each change applied to a product's quantity.
// Rows are append-only: nothing updates or deletes them.
type StockMovement struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index"`
	MovementType   string    `gorm:"type:varchar(12);not null"`
	Quantity       int       `gorm:"not null"` // signed delta
	QuantityBefore int       `gorm:"not null"`
	QuantityAfter  int       `gorm:"not null"`
	Notes          string
	CreatedBy      string     `gorm:"not null;default:'Sistema'"`
	ReferenceID    *uuid.UUID `gorm:"type:uuid"` // sale id when the movement comes from a sale
	CreatedAt      time.Time  `gorm:"index"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
