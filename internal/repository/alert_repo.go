package repository

import (
	"context"
	"time"

	"botica/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertCounts aggregates alerts by level and resolution.
type AlertCounts struct {
	Critical   int64
	Warning    int64
	Info       int64
	Unresolved int64
	Resolved   int64
	Total      int64
}

// severityOrder ranks critical before warning before info.
const severityOrder = `CASE alert_level WHEN 'critical' THEN 1 WHEN 'warning' THEN 2 WHEN 'info' THEN 3 ELSE 4 END`

type AlertRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Alert, error)
	ListActive(ctx context.Context) ([]model.Alert, error)
	ListAll(ctx context.Context) ([]model.Alert, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Alert, error)
	// Resolve marks the alert resolved unless it already is. changed is false
	// for an alert that was already resolved.
	Resolve(ctx context.Context, id uuid.UUID, at time.Time) (changed bool, err error)
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context) (AlertCounts, error)

	CreateTx(tx *gorm.DB, a *model.Alert) error
	FindOpenByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.Alert, error)
	ResolveTx(tx *gorm.DB, id uuid.UUID, at time.Time) error

	DB() *gorm.DB
}

type alertRepo struct{ db *gorm.DB }

func NewAlertRepository(db *gorm.DB) AlertRepository { return &alertRepo{db: db} }

func (r *alertRepo) DB() *gorm.DB { return r.db }

func (r *alertRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Alert, error) {
	var a model.Alert
	err := r.db.WithContext(ctx).Preload("Product").First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *alertRepo) ListActive(ctx context.Context) ([]model.Alert, error) {
	var list []model.Alert
	err := r.db.WithContext(ctx).Preload("Product").
		Where("is_resolved = false").
		Order(severityOrder).Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *alertRepo) ListAll(ctx context.Context) ([]model.Alert, error) {
	var list []model.Alert
	err := r.db.WithContext(ctx).Preload("Product").
		Order("is_resolved ASC").Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *alertRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Alert, error) {
	var list []model.Alert
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_resolved ASC").Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *alertRepo) Resolve(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Alert{}).
		Where("id = ? AND is_resolved = false", id).
		Updates(map[string]any{"is_resolved": true, "resolved_at": at})
	return res.RowsAffected > 0, res.Error
}

func (r *alertRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Alert{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *alertRepo) Counts(ctx context.Context) (AlertCounts, error) {
	var c AlertCounts
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FILTER (WHERE alert_level = 'critical' AND is_resolved = false) AS critical,
		       COUNT(*) FILTER (WHERE alert_level = 'warning' AND is_resolved = false)  AS warning,
		       COUNT(*) FILTER (WHERE alert_level = 'info' AND is_resolved = false)     AS info,
		       COUNT(*) FILTER (WHERE is_resolved = false)                              AS unresolved,
		       COUNT(*) FILTER (WHERE is_resolved = true)                               AS resolved,
		       COUNT(*)                                                                 AS total
		FROM alerts`).Scan(&c).Error
	return c, err
}

func (r *alertRepo) CreateTx(tx *gorm.DB, a *model.Alert) error {
	return tx.Omit("Product").Create(a).Error
}

func (r *alertRepo) FindOpenByProductTx(tx *gorm.DB, productID uuid.UUID) ([]model.Alert, error) {
	var list []model.Alert
	err := tx.Where("product_id = ? AND is_resolved = false", productID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *alertRepo) ResolveTx(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return tx.Model(&model.Alert{}).Where("id = ?", id).
		Updates(map[string]any{"is_resolved": true, "resolved_at": at}).Error
}
