package dto

import "time"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type PrescriptionItemRequest struct {
	ProductID          string  `json:"product_id"          validate:"required,uuid"`
	QuantityPrescribed int     `json:"quantity_prescribed" validate:"required,min=1"`
	DosageInstructions *string `json:"dosage_instructions" validate:"omitempty,max=500"`
	TreatmentDuration  *string `json:"treatment_duration"  validate:"omitempty,max=100"`
}

type CreatePrescriptionRequest struct {
	PrescriptionNumber string                    `json:"prescription_number" validate:"required,max=50"`
	CustomerID         string                    `json:"customer_id"         validate:"required,uuid"`
	DoctorName         string                    `json:"doctor_name"         validate:"required,min=2,max=150"`
	DoctorLicense      *string                   `json:"doctor_license"      validate:"omitempty,max=50"`
	IssueDate          string                    `json:"issue_date"          validate:"required,datetime=2006-01-02"`
	ExpirationDate     *string                   `json:"expiration_date"     validate:"omitempty,datetime=2006-01-02"`
	Diagnosis          *string                   `json:"diagnosis"`
	Notes              *string                   `json:"notes"`
	Items              []PrescriptionItemRequest `json:"items"               validate:"required,min=1,dive"`
}

type UpdatePrescriptionRequest struct {
	DoctorName     *string `json:"doctor_name"     validate:"omitempty,min=2,max=150"`
	DoctorLicense  *string `json:"doctor_license"  validate:"omitempty,max=50"`
	IssueDate      *string `json:"issue_date"      validate:"omitempty,datetime=2006-01-02"`
	ExpirationDate *string `json:"expiration_date" validate:"omitempty,datetime=2006-01-02"`
	Diagnosis      *string `json:"diagnosis"`
	Notes          *string `json:"notes"`
}

type UpdatePrescriptionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending partial completed cancelled"`
}

type DispenseRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type PrescriptionFilter struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type PrescriptionItemResponse struct {
	ID                 string  `json:"id"`
	ProductID          string  `json:"product_id"`
	ProductName        string  `json:"product_name,omitempty"`
	QuantityPrescribed int     `json:"quantity_prescribed"`
	QuantityDispensed  int     `json:"quantity_dispensed"`
	DosageInstructions *string `json:"dosage_instructions,omitempty"`
	TreatmentDuration  *string `json:"treatment_duration,omitempty"`
}

type PrescriptionResponse struct {
	ID                 string                     `json:"id"`
	PrescriptionNumber string                     `json:"prescription_number"`
	CustomerID         string                     `json:"customer_id"`
	CustomerName       string                     `json:"customer_name,omitempty"`
	DoctorName         string                     `json:"doctor_name"`
	DoctorLicense      *string                    `json:"doctor_license,omitempty"`
	IssueDate          string                     `json:"issue_date"`
	ExpirationDate     *string                    `json:"expiration_date,omitempty"`
	Diagnosis          *string                    `json:"diagnosis,omitempty"`
	Notes              *string                    `json:"notes,omitempty"`
	Status             string                     `json:"status"`
	Items              []PrescriptionItemResponse `json:"items"`
	CreatedAt          time.Time                  `json:"created_at"`
}

type PrescriptionListResponse struct {
	Data  []PrescriptionResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}
