package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	LocationWarehouse = "warehouse"
	LocationStore     = "store"
	LocationCustomer  = "customer"
	LocationSupplier  = "supplier"
	LocationOther     = "other"
)

type Location struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"not null"`
	Description  *string
	Address      *string
	Latitude     float64 `gorm:"type:decimal(10,8);not null"`
	Longitude    float64 `gorm:"type:decimal(11,8);not null"`
	LocationType string  `gorm:"type:varchar(10);not null;default:'store'"`
	IsActive     bool    `gorm:"not null;default:true"`
	ContactName  *string
	ContactPhone *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProductLocation is how many units of a product are kept at a location.
type ProductLocation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_location_product"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_location_product"`
	Quantity   int       `gorm:"not null;default:0"`
	UpdatedAt  time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
