package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateCustomerRequest struct {
	FirstName      string  `json:"first_name"      validate:"required,min=2,max=100"`
	LastName       string  `json:"last_name"       validate:"required,min=2,max=100"`
	Email          *string `json:"email"           validate:"omitempty,email"`
	Phone          *string `json:"phone"           validate:"omitempty,max=20"`
	Address        *string `json:"address"`
	City           string  `json:"city"            validate:"omitempty,max=100"`
	Country        string  `json:"country"         validate:"omitempty,max=100"`
	DocumentType   string  `json:"document_type"   validate:"omitempty,oneof=DNI RUC CE PASAPORTE"`
	DocumentNumber *string `json:"document_number" validate:"omitempty,max=20"`
	CustomerType   string  `json:"customer_type"   validate:"omitempty,oneof=regular vip"`
}

type UpdateCustomerRequest struct {
	FirstName      *string `json:"first_name"      validate:"omitempty,min=2,max=100"`
	LastName       *string `json:"last_name"       validate:"omitempty,min=2,max=100"`
	Email          *string `json:"email"           validate:"omitempty,email"`
	Phone          *string `json:"phone"           validate:"omitempty,max=20"`
	Address        *string `json:"address"`
	City           *string `json:"city"            validate:"omitempty,max=100"`
	Country        *string `json:"country"         validate:"omitempty,max=100"`
	DocumentType   *string `json:"document_type"   validate:"omitempty,oneof=DNI RUC CE PASAPORTE"`
	DocumentNumber *string `json:"document_number" validate:"omitempty,max=20"`
	CustomerType   *string `json:"customer_type"   validate:"omitempty,oneof=regular vip"`
	Status         *string `json:"status"          validate:"omitempty,oneof=active inactive"`
}

type CustomerFilter struct {
	CustomerType string `form:"customer_type"`
	Status       string `form:"status"` // active (default) | inactive | all
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type CustomerResponse struct {
	ID             string          `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          *string         `json:"email,omitempty"`
	Phone          *string         `json:"phone,omitempty"`
	Address        *string         `json:"address,omitempty"`
	City           string          `json:"city"`
	Country        string          `json:"country"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber *string         `json:"document_number,omitempty"`
	CustomerType   string          `json:"customer_type"`
	Status         string          `json:"status"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	CreatedAt      time.Time       `json:"created_at"`
}

type CustomerListResponse struct {
	Data  []CustomerResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type CustomerStatsResponse struct {
	CustomerID        string          `json:"customer_id"`
	FullName          string          `json:"full_name"`
	CustomerType      string          `json:"customer_type"`
	TotalPurchases    decimal.Decimal `json:"total_purchases"`
	TotalOrders       int64           `json:"total_orders"`
	LastPurchaseDate  *time.Time      `json:"last_purchase_date,omitempty"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}
