package dto

import "time"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateLocationRequest struct {
	Name         string   `json:"name"          validate:"required,min=2,max=100"`
	Description  *string  `json:"description"`
	Address      *string  `json:"address"`
	Latitude     *float64 `json:"latitude"      validate:"required,min=-90,max=90"`
	Longitude    *float64 `json:"longitude"     validate:"required,min=-180,max=180"`
	LocationType string   `json:"location_type" validate:"omitempty,oneof=warehouse store customer supplier other"`
	ContactName  *string  `json:"contact_name"`
	ContactPhone *string  `json:"contact_phone" validate:"omitempty,max=20"`
}

type UpdateLocationRequest struct {
	Name         *string  `json:"name"          validate:"omitempty,min=2,max=100"`
	Description  *string  `json:"description"`
	Address      *string  `json:"address"`
	Latitude     *float64 `json:"latitude"      validate:"omitempty,min=-90,max=90"`
	Longitude    *float64 `json:"longitude"     validate:"omitempty,min=-180,max=180"`
	LocationType *string  `json:"location_type" validate:"omitempty,oneof=warehouse store customer supplier other"`
	IsActive     *bool    `json:"is_active"`
	ContactName  *string  `json:"contact_name"`
	ContactPhone *string  `json:"contact_phone" validate:"omitempty,max=20"`
}

type AddProductToLocationRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

// NearbyQuery holds query params for GET /v1/locations/nearby.
type NearbyQuery struct {
	Latitude  *float64 `form:"lat"    validate:"required,min=-90,max=90"`
	Longitude *float64 `form:"lng"    validate:"required,min=-180,max=180"`
	RadiusKm  float64  `form:"radius" validate:"omitempty,gt=0,max=20000"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type LocationResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Address      *string   `json:"address,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	LocationType string    `json:"location_type"`
	IsActive     bool      `json:"is_active"`
	ContactName  *string   `json:"contact_name,omitempty"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type LocationProductResponse struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationProductsEvent is the payload of location.products_updated.
type LocationProductsEvent struct {
	LocationID string                    `json:"location_id"`
	Products   []LocationProductResponse `json:"products"`
}

type LocationStatsResponse struct {
	TotalLocations  int64 `json:"total_locations"`
	ActiveLocations int64 `json:"active_locations"`
	Warehouses      int64 `json:"warehouses"`
	Stores          int64 `json:"stores"`
}
