package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PrescriptionPending   = "pending"
	PrescriptionPartial   = "partial"
	PrescriptionCompleted = "completed"
	PrescriptionCancelled = "cancelled"
)

type Prescription struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PrescriptionNumber string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	CustomerID         uuid.UUID `gorm:"type:uuid;not null;index"`
	DoctorName         string    `gorm:"not null"`
	DoctorLicense      *string
	IssueDate          time.Time  `gorm:"type:date;not null"`
	ExpirationDate     *time.Time `gorm:"type:date"`
	Diagnosis          *string
	Notes              *string
	Status             string `gorm:"type:varchar(10);not null;default:'pending';index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Items    []PrescriptionItem `gorm:"foreignKey:PrescriptionID"`
	Customer *Customer          `gorm:"foreignKey:CustomerID"`
}

type PrescriptionItem struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PrescriptionID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID `gorm:"type:uuid;not null"`
	QuantityPrescribed int       `gorm:"not null"`
	QuantityDispensed  int       `gorm:"not null;default:0"`
	DosageInstructions *string
	TreatmentDuration  *string

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Pending reports how many units are still to be dispensed.
func (i PrescriptionItem) Pending() int { return i.QuantityPrescribed - i.QuantityDispensed }
