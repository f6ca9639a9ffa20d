package dto

import "time"

// StockMovementRequest is the body of PATCH /v1/products/:id/stock.
// Quantity is a signed delta, never an absolute value.
type StockMovementRequest struct {
	Quantity     int    `json:"quantity"      validate:"required,ne=0"`
	MovementType string `json:"movement_type" validate:"required,oneof=purchase sale adjustment return transfer"`
	Notes        string `json:"notes"         validate:"max=500"`
	CreatedBy    string `json:"created_by"    validate:"max=100"`
}

type StockMovementResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name,omitempty"`
	MovementType   string    `json:"movement_type"`
	Quantity       int       `json:"quantity"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	Notes          string    `json:"notes"`
	CreatedBy      string    `json:"created_by"`
	ReferenceID    *string   `json:"reference_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// StockDriftResponse reports a product whose stored quantity disagrees with
// the sum of its movements.
type StockDriftResponse struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	StoredQuantity int    `json:"stored_quantity"`
	LedgerQuantity int    `json:"ledger_quantity"`
	Difference     int    `json:"difference"`
}
