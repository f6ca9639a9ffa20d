package repository

import (
	"context"
	"strings"
	"time"

	"botica/internal/dto"
	"botica/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PrescriptionRepository interface {
	Create(ctx context.Context, p *model.Prescription) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
	List(ctx context.Context, filter dto.PrescriptionFilter) ([]model.Prescription, int64, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Prescription, error)
	Search(ctx context.Context, term string) ([]model.Prescription, error)
	// ListPending returns pending or partial prescriptions not expired on day.
	ListPending(ctx context.Context, day time.Time) ([]model.Prescription, error)
	// ListExpired returns open prescriptions whose expiration date is before day.
	ListExpired(ctx context.Context, day time.Time) ([]model.Prescription, error)
	Update(ctx context.Context, p *model.Prescription) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error

	// FindItemTx returns the item; callers then lock its prescription.
	FindItemTx(tx *gorm.DB, itemID uuid.UUID) (*model.PrescriptionItem, error)
	// FindForUpdateTx locks the prescription and loads its items.
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Prescription, error)
	SetDispensedTx(tx *gorm.DB, itemID uuid.UUID, dispensed int) error
	SetStatusTx(tx *gorm.DB, id uuid.UUID, status string) error

	DB() *gorm.DB
}

type prescriptionRepo struct{ db *gorm.DB }

func NewPrescriptionRepository(db *gorm.DB) PrescriptionRepository {
	return &prescriptionRepo{db: db}
}

func (r *prescriptionRepo) DB() *gorm.DB { return r.db }

func (r *prescriptionRepo) Create(ctx context.Context, p *model.Prescription) error {
	return r.db.WithContext(ctx).Omit("Customer").Create(p).Error
}

func (r *prescriptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	var p model.Prescription
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Customer").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prescriptionRepo) List(ctx context.Context, filter dto.PrescriptionFilter) ([]model.Prescription, int64, error) {
	var list []model.Prescription
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Prescription{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").Preload("Customer").
		Order("issue_date DESC, created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&list).Error
	return list, total, err
}

func (r *prescriptionRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Prescription, error) {
	var list []model.Prescription
	err := r.db.WithContext(ctx).Preload("Items.Product").
		Where("customer_id = ?", customerID).
		Order("issue_date DESC").
		Find(&list).Error
	return list, err
}

func (r *prescriptionRepo) Search(ctx context.Context, term string) ([]model.Prescription, error) {
	var list []model.Prescription
	like := "%" + strings.ToLower(term) + "%"
	err := r.db.WithContext(ctx).Preload("Items").Preload("Customer").
		Where("lower(prescription_number) LIKE ? OR lower(doctor_name) LIKE ? OR lower(coalesce(diagnosis, '')) LIKE ?", like, like, like).
		Order("issue_date DESC").
		Find(&list).Error
	return list, err
}

func (r *prescriptionRepo) ListPending(ctx context.Context, day time.Time) ([]model.Prescription, error) {
	var list []model.Prescription
	err := r.db.WithContext(ctx).Preload("Items.Product").Preload("Customer").
		Where("status IN ?", []string{model.PrescriptionPending, model.PrescriptionPartial}).
		Where("expiration_date IS NULL OR expiration_date >= ?", day.Format("2006-01-02")).
		Order("issue_date ASC").
		Find(&list).Error
	return list, err
}

func (r *prescriptionRepo) ListExpired(ctx context.Context, day time.Time) ([]model.Prescription, error) {
	var list []model.Prescription
	err := r.db.WithContext(ctx).Preload("Customer").
		Where("status IN ?", []string{model.PrescriptionPending, model.PrescriptionPartial}).
		Where("expiration_date < ?", day.Format("2006-01-02")).
		Order("expiration_date DESC").
		Find(&list).Error
	return list, err
}

func (r *prescriptionRepo) Update(ctx context.Context, p *model.Prescription) error {
	return r.db.WithContext(ctx).Model(p).
		Select("DoctorName", "DoctorLicense", "IssueDate", "ExpirationDate", "Diagnosis", "Notes").
		Updates(p).Error
}

func (r *prescriptionRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.SetStatusTx(r.db.WithContext(ctx), id, status)
}

func (r *prescriptionRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Prescription, error) {
	var p model.Prescription
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("prescription_id = ?", id).Find(&p.Items).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prescriptionRepo) FindItemTx(tx *gorm.DB, itemID uuid.UUID) (*model.PrescriptionItem, error) {
	var it model.PrescriptionItem
	if err := tx.First(&it, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *prescriptionRepo) SetDispensedTx(tx *gorm.DB, itemID uuid.UUID, dispensed int) error {
	return tx.Model(&model.PrescriptionItem{}).Where("id = ?", itemID).
		Update("quantity_dispensed", dispensed).Error
}

func (r *prescriptionRepo) SetStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	res := tx.Model(&model.Prescription{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
