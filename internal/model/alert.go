package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	AlertLowStock   = "low_stock"
	AlertOutOfStock = "out_of_stock"
	AlertOverstock  = "overstock"

	LevelCritical = "critical"
	LevelWarning  = "warning"
	LevelInfo     = "info"
)

// Alert flags a product whose stock left the normal range.
// At most one unresolved alert per (product, type) exists; a partial unique
// index enforces it.
type Alert struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index"`
	AlertType  string    `gorm:"type:varchar(15);not null"`
	AlertLevel string    `gorm:"type:varchar(10);not null;default:'warning'"`
	Message    string    `gorm:"not null"`
	IsResolved bool      `gorm:"not null;default:false"`
	ResolvedAt *time.Time
	CreatedAt  time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
