package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	CategoryID           *string         `json:"category_id"          validate:"omitempty,uuid"`
	Name                 string          `json:"name"                 validate:"required,min=2,max=200"`
	SKU                  string          `json:"sku"                  validate:"required,max=50"`
	Description          *string         `json:"description"`
	UnitPrice            decimal.Decimal `json:"unit_price"           validate:"min=0"`
	UnitCost             decimal.Decimal `json:"unit_cost"            validate:"min=0"`
	Unit                 string          `json:"unit"                 validate:"omitempty,max=20"`
	Quantity             int             `json:"quantity"             validate:"min=0"`
	MinStockLevel        *int            `json:"min_stock_level"      validate:"omitempty,min=0"`
	MaxStockLevel        *int            `json:"max_stock_level"      validate:"omitempty,min=0"`
	ExpirationDate       *string         `json:"expiration_date"      validate:"omitempty,datetime=2006-01-02"`
	RequiresPrescription bool            `json:"requires_prescription"`
	CreatedBy            string          `json:"created_by"           validate:"omitempty,max=100"`
}

// UpdateProductRequest changes catalog attributes only. Quantity moves exclusively
// through PATCH /v1/products/:id/stock so every change lands in the ledger.
type UpdateProductRequest struct {
	CategoryID           *string          `json:"category_id"     validate:"omitempty,uuid"`
	Name                 *string          `json:"name"            validate:"omitempty,min=2,max=200"`
	Description          *string          `json:"description"`
	UnitPrice            *decimal.Decimal `json:"unit_price"      validate:"omitempty,min=0"`
	UnitCost             *decimal.Decimal `json:"unit_cost"       validate:"omitempty,min=0"`
	Unit                 *string          `json:"unit"            validate:"omitempty,max=20"`
	MinStockLevel        *int             `json:"min_stock_level" validate:"omitempty,min=0"`
	MaxStockLevel        *int             `json:"max_stock_level" validate:"omitempty,min=0"`
	ExpirationDate       *string          `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	RequiresPrescription *bool            `json:"requires_prescription"`
	UpdatedBy            string           `json:"updated_by"      validate:"omitempty,max=100"`
}

// ProductFilter holds query params for GET /v1/products.
type ProductFilter struct {
	Search     string `form:"search"`
	CategoryID string `form:"category_id"`
	Status     string `form:"status"` // active (default) | inactive | all
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type ProductResponse struct {
	ID                   string          `json:"id"`
	CategoryID           *string         `json:"category_id,omitempty"`
	Category             *string         `json:"category,omitempty"`
	Name                 string          `json:"name"`
	SKU                  string          `json:"sku"`
	Description          *string         `json:"description,omitempty"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	UnitCost             decimal.Decimal `json:"unit_cost"`
	Unit                 string          `json:"unit"`
	Quantity             int             `json:"quantity"`
	MinStockLevel        int             `json:"min_stock_level"`
	MaxStockLevel        int             `json:"max_stock_level"`
	StockStatus          string          `json:"stock_status"`
	Status               string          `json:"status"`
	ExpirationDate       *string         `json:"expiration_date,omitempty"`
	RequiresPrescription bool            `json:"requires_prescription"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// PriceLookupResponse is the cached payload of GET /v1/products/sku/:sku.
type PriceLookupResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	SKU                  string          `json:"sku"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	Unit                 string          `json:"unit"`
	RequiresPrescription bool            `json:"requires_prescription"`
}

type PriceHistoryResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	CostBefore  decimal.Decimal `json:"cost_before"`
	CostAfter   decimal.Decimal `json:"cost_after"`
	PriceBefore decimal.Decimal `json:"price_before"`
	PriceAfter  decimal.Decimal `json:"price_after"`
	ChangedBy   string          `json:"changed_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
