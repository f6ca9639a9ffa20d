package dto

import "time"

type CreateAlertRequest struct {
	ProductID  string `json:"product_id"  validate:"required,uuid"`
	AlertType  string `json:"alert_type"  validate:"required,oneof=low_stock out_of_stock overstock"`
	AlertLevel string `json:"alert_level" validate:"omitempty,oneof=critical warning info"`
	Message    string `json:"message"     validate:"required,max=500"`
}

type AlertResponse struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"product_id"`
	ProductName string     `json:"product_name,omitempty"`
	ProductSKU  string     `json:"product_sku,omitempty"`
	Quantity    *int       `json:"quantity,omitempty"`
	AlertType   string     `json:"alert_type"`
	AlertLevel  string     `json:"alert_level"`
	Message     string     `json:"message"`
	IsResolved  bool       `json:"is_resolved"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AlertStatsResponse struct {
	Critical   int64 `json:"critical"`
	Warning    int64 `json:"warning"`
	Info       int64 `json:"info"`
	Unresolved int64 `json:"unresolved"`
	Resolved   int64 `json:"resolved"`
	Total      int64 `json:"total"`
}
