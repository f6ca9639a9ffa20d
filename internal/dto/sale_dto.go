package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Request DTOs ──────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
	// UnitPrice defaults to the catalog price when omitted.
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"`
	Discount  decimal.Decimal  `json:"discount"   validate:"min=0"`
}

type CreateSaleRequest struct {
	CustomerID    *string           `json:"customer_id"    validate:"omitempty,uuid"`
	Items         []SaleItemRequest `json:"items"          validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method" validate:"omitempty,oneof=cash card transfer credit"`
	PaymentStatus string            `json:"payment_status" validate:"omitempty,oneof=pending completed"`
	Discount      decimal.Decimal   `json:"discount"       validate:"min=0"`
	Notes         *string           `json:"notes"          validate:"omitempty,max=500"`
	ServedBy      string            `json:"served_by"      validate:"omitempty,max=100"`
}

type CancelSaleRequest struct {
	Reason      string `json:"reason"       validate:"max=255"`
	CancelledBy string `json:"cancelled_by" validate:"max=100"`
}

// SaleFilter holds query params for GET /v1/sales.
type SaleFilter struct {
	From       string `form:"from"` // YYYY-MM-DD, inclusive
	To         string `form:"to"`   // YYYY-MM-DD, inclusive
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	SaleNumber    string             `json:"sale_number"`
	CustomerID    *string            `json:"customer_id,omitempty"`
	CustomerName  *string            `json:"customer_name,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	TaxAmount     decimal.Decimal    `json:"tax_amount"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	PaymentStatus string             `json:"payment_status"`
	Notes         *string            `json:"notes,omitempty"`
	ServedBy      string             `json:"served_by"`
	HasReceipt    bool               `json:"has_receipt"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
	CancelReason  *string            `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type SaleStatsResponse struct {
	TotalSales   int64           `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	AverageSale  decimal.Decimal `json:"average_sale"`
	TodaySales   int64           `json:"today_sales"`
	TodayRevenue decimal.Decimal `json:"today_revenue"`
}

type TopProductResponse struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	UnitsSold    int64           `json:"units_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	TimesOrdered int64           `json:"times_ordered"`
}
