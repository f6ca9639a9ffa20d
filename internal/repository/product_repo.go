package repository

import (
	"context"
	"strings"

	"botica/internal/dto"
	"botica/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockDrift is a product whose stored quantity differs from the sum of its
// stock movements.
type StockDrift struct {
	ProductID      uuid.UUID
	Name           string
	SKU            string
	StoredQuantity int
	LedgerQuantity int
}

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the GORM implementation.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	Search(ctx context.Context, term string, limit int) ([]model.Product, error)
	ListLowStock(ctx context.Context) ([]model.Product, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	FindStockDrift(ctx context.Context) ([]StockDrift, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, p *model.Product) error
	UpdateTx(tx *gorm.DB, p *model.Product) error
	// FindByIDForUpdateTx locks the product row until the transaction ends.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	SetQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	switch filter.Status {
	case model.ProductInactive:
		q = q.Where("status = ?", model.ProductInactive)
	case "all":
	default:
		q = q.Where("status = ?", model.ProductActive)
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("lower(name) LIKE ? OR lower(sku) LIKE ?", like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Category").Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Search(ctx context.Context, term string, limit int) ([]model.Product, error) {
	var products []model.Product
	like := "%" + strings.ToLower(term) + "%"
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ProductActive).
		Where("lower(name) LIKE ? OR lower(sku) LIKE ? OR lower(coalesce(description, '')) LIKE ?", like, like, like).
		Order("name ASC").Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepo) ListLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("status = ? AND quantity <= min_stock_level", model.ProductActive).
		Order("quantity ASC, name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) FindStockDrift(ctx context.Context) ([]StockDrift, error) {
	var drifts []StockDrift
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS product_id, p.name, p.sku,
		       p.quantity AS stored_quantity,
		       COALESCE(SUM(m.quantity), 0) AS ledger_quantity
		FROM products p
		LEFT JOIN stock_movements m ON m.product_id = p.id
		GROUP BY p.id, p.name, p.sku, p.quantity
		HAVING p.quantity <> COALESCE(SUM(m.quantity), 0)
		ORDER BY p.name`).Scan(&drifts).Error
	return drifts, err
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) UpdateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Model(p).Select("*").Omit(clause.Associations, "Quantity", "CreatedAt").Updates(p).Error
}

func (r *productRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) SetQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).Update("quantity", quantity).Error
}
