package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CustomerRegular = "regular"
	CustomerVIP     = "vip"
)

type Customer struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FirstName      string    `gorm:"not null"`
	LastName       string    `gorm:"not null"`
	Email          *string   `gorm:"uniqueIndex"`
	Phone          *string
	Address        *string
	City           string          `gorm:"not null;default:'Lima'"`
	Country        string          `gorm:"not null;default:'Perú'"`
	DocumentType   string          `gorm:"type:varchar(10);not null;default:'DNI'"`
	DocumentNumber *string         `gorm:"uniqueIndex"`
	CustomerType   string          `gorm:"type:varchar(10);not null;default:'regular'"`
	Status         string          `gorm:"type:varchar(10);not null;default:'active'"`
	TotalPurchases decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
