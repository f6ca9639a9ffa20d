package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProductActive   = "active"
	ProductInactive = "inactive"

	StockNormal     = "normal"
	StockLow        = "low_stock"
	StockOutOfStock = "out_of_stock"
	StockOverstock  = "overstock"
)

// Product is the single source of truth for on-hand quantity.
// Stock status is never stored; it is derived from Quantity, MinStockLevel and MaxStockLevel.
type Product struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CategoryID           *uuid.UUID `gorm:"type:uuid;index"`
	Name                 string     `gorm:"index;not null"`
	SKU                  string     `gorm:"column:sku;uniqueIndex;not null"`
	Description          *string
	UnitPrice            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UnitCost             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Unit                 string          `gorm:"not null;default:'unidad'"`
	Quantity             int             `gorm:"not null;default:0;check:chk_products_quantity,quantity >= 0"`
	MinStockLevel        int             `gorm:"not null;default:10"`
	MaxStockLevel        int             `gorm:"not null;default:100"`
	Status               string          `gorm:"type:varchar(10);not null;default:'active'"`
	ExpirationDate       *time.Time      `gorm:"type:date"`
	RequiresPrescription bool            `gorm:"not null;default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}

func (p *Product) IsActive() bool { return p.Status == ProductActive }
