package repository

import (
	"context"
	"strings"
	"time"

	"botica/internal/dto"
	"botica/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerPurchaseStats summarises the completed sales of one customer.
type CustomerPurchaseStats struct {
	TotalOrders      int64
	TotalSpent       decimal.NullDecimal
	LastPurchaseDate *time.Time
}

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, filter dto.CustomerFilter) ([]model.Customer, int64, error)
	Search(ctx context.Context, term string, limit int) ([]model.Customer, error)
	Update(ctx context.Context, c *model.Customer) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	PurchaseStats(ctx context.Context, id uuid.UUID) (CustomerPurchaseStats, error)

	// AddPurchasesTx adds amount (possibly negative) to total_purchases.
	AddPurchasesTx(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) List(ctx context.Context, filter dto.CustomerFilter) ([]model.Customer, int64, error) {
	var list []model.Customer
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Customer{})
	switch filter.Status {
	case "inactive":
		q = q.Where("status = ?", "inactive")
	case "all":
	default:
		q = q.Where("status = ?", "active")
	}
	if filter.CustomerType != "" {
		q = q.Where("customer_type = ?", filter.CustomerType)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("last_name ASC, first_name ASC").Limit(filter.Limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *customerRepo) Search(ctx context.Context, term string, limit int) ([]model.Customer, error) {
	var list []model.Customer
	like := "%" + strings.ToLower(term) + "%"
	err := r.db.WithContext(ctx).
		Where("status = ?", "active").
		Where(`lower(first_name || ' ' || last_name) LIKE ? OR lower(coalesce(email, '')) LIKE ?
			OR coalesce(document_number, '') LIKE ? OR coalesce(phone, '') LIKE ?`, like, like, like, like).
		Order("last_name ASC, first_name ASC").Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *customerRepo) Update(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Select("*").Omit("TotalPurchases", "CreatedAt").Updates(c).Error
}

func (r *customerRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&model.Customer{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *customerRepo) PurchaseStats(ctx context.Context, id uuid.UUID) (CustomerPurchaseStats, error) {
	var s CustomerPurchaseStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_orders,
		       SUM(total) AS total_spent,
		       MAX(created_at) AS last_purchase_date
		FROM sales
		WHERE customer_id = ? AND payment_status = ?`, id, model.SaleCompleted).Scan(&s).Error
	return s, err
}

func (r *customerRepo) AddPurchasesTx(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	res := tx.Model(&model.Customer{}).Where("id = ?", id).
		Update("total_purchases", gorm.Expr("GREATEST(total_purchases + ?, 0)", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
