package repository

import (
	"context"
	"time"

	"botica/internal/dto"
	"botica/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleStats aggregates completed sales.
type SaleStats struct {
	TotalSales   int64
	TotalRevenue decimal.Decimal
	AverageSale  decimal.Decimal
	TodaySales   int64
	TodayRevenue decimal.Decimal
}

type TopProduct struct {
	ProductID    uuid.UUID
	Name         string
	SKU          string
	UnitsSold    int64
	Revenue      decimal.Decimal
	TimesOrdered int64
}

type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	Stats(ctx context.Context, today time.Time) (SaleStats, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	SetReceiptPath(ctx context.Context, id uuid.UUID, path string) error

	// NextSequenceTx reserves the next number of the given YYYYMM period.
	NextSequenceTx(tx *gorm.DB, period string) (int, error)
	CreateTx(tx *gorm.DB, s *model.Sale) error
	// FindByIDForUpdateTx locks the sale row and loads its items.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	CancelTx(tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items.Product").Preload("Customer").First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("payment_status = ?", filter.Status)
	}
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.From != "" {
		q = q.Where("DATE(created_at) >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("DATE(created_at) <= ?", filter.To)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items.Product").Preload("Customer").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) Stats(ctx context.Context, today time.Time) (SaleStats, error) {
	var row struct {
		TotalSales   int64
		TotalRevenue decimal.NullDecimal
		AverageSale  decimal.NullDecimal
		TodaySales   int64
		TodayRevenue decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total_sales,
		       SUM(total) AS total_revenue,
		       AVG(total) AS average_sale,
		       COUNT(*) FILTER (WHERE DATE(created_at) = ?) AS today_sales,
		       COALESCE(SUM(total) FILTER (WHERE DATE(created_at) = ?), 0) AS today_revenue
		FROM sales
		WHERE payment_status = ?`,
		today.Format("2006-01-02"), today.Format("2006-01-02"), model.SaleCompleted).
		Scan(&row).Error
	if err != nil {
		return SaleStats{}, err
	}
	return SaleStats{
		TotalSales:   row.TotalSales,
		TotalRevenue: row.TotalRevenue.Decimal,
		AverageSale:  row.AverageSale.Decimal.Round(2),
		TodaySales:   row.TodaySales,
		TodayRevenue: row.TodayRevenue.Decimal,
	}, nil
}

func (r *saleRepo) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var list []TopProduct
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS product_id, p.name, p.sku,
		       SUM(i.quantity) AS units_sold,
		       SUM(i.subtotal) AS revenue,
		       COUNT(DISTINCT i.sale_id) AS times_ordered
		FROM sale_items i
		JOIN sales s ON s.id = i.sale_id
		JOIN products p ON p.id = i.product_id
		WHERE s.payment_status <> ?
		GROUP BY p.id, p.name, p.sku
		ORDER BY units_sold DESC
		LIMIT ?`, model.SaleCancelled, limit).Scan(&list).Error
	return list, err
}

func (r *saleRepo) SetReceiptPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.Sale{}).Where("id = ?", id).Update("receipt_path", path).Error
}

// NextSequenceTx relies on the upsert's row lock on the period row: concurrent
// callers queue behind each other and each one gets a distinct value. The first
// sale of a period seeds the counter from the sales already carrying its prefix.
func (r *saleRepo) NextSequenceTx(tx *gorm.DB, period string) (int, error) {
	var next int
	err := tx.Raw(`
		INSERT INTO sale_sequences (period, last_value)
		VALUES (?, (SELECT COUNT(*) FROM sales WHERE sale_number LIKE ?) + 1)
		ON CONFLICT (period) DO UPDATE SET last_value = sale_sequences.last_value + 1
		RETURNING last_value`, period, "VTA-"+period+"-%").Scan(&next).Error
	return next, err
}

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("sale_id = ?", id).Find(&s.Items).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) CancelTx(tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Updates(map[string]any{
		"payment_status": model.SaleCancelled,
		"cancelled_at":   at,
		"cancel_reason":  reason,
	}).Error
}
