package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentCredit   = "credit"

	SalePending   = "pending"
	SaleCompleted = "completed"
	SaleCancelled = "cancelled"
)

// Sale is the header of a point-of-sale transaction. It owns its Items:
// both are inserted in the same transaction and items are never updated.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleNumber    string          `gorm:"type:varchar(20);uniqueIndex;not null"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(10);not null;default:'cash'"`
	PaymentStatus string          `gorm:"type:varchar(10);not null;default:'completed';index"`
	Notes         *string
	ServedBy      string  `gorm:"not null;default:'Sistema'"`
	ReceiptPath   *string `gorm:"column:receipt_path"`
	CancelledAt   *time.Time
	CancelReason  *string
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time

	Items    []SaleItem `gorm:"foreignKey:SaleID"`
	Customer *Customer  `gorm:"foreignKey:CustomerID"`
}

// SaleItem stores the unit price as it was when the sale was recorded.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null;check:chk_sale_items_quantity,quantity > 0"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// SaleSequence is the per-month counter behind SaleNumber. Period is YYYYMM.
type SaleSequence struct {
	Period    string `gorm:"type:varchar(6);primaryKey"`
	LastValue int    `gorm:"not null"`
}
