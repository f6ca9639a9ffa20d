package repository

import (
	"context"
	"strings"

	"botica/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LocationCounts struct {
	TotalLocations  int64
	ActiveLocations int64
	Warehouses      int64
	Stores          int64
}

type LocationRepository interface {
	Create(ctx context.Context, l *model.Location) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	List(ctx context.Context, activeOnly bool) ([]model.Location, error)
	Search(ctx context.Context, term string) ([]model.Location, error)
	ListByType(ctx context.Context, locationType string) ([]model.Location, error)
	// ListWithinBox returns active locations whose coordinates fall inside the
	// bounding box; the caller refines by exact distance.
	ListWithinBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]model.Location, error)
	Update(ctx context.Context, l *model.Location) error
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context) (LocationCounts, error)

	// AddProduct adds quantity to the product's row at the location, creating it if needed.
	AddProduct(ctx context.Context, locationID, productID uuid.UUID, quantity int) error
	RemoveProduct(ctx context.Context, locationID, productID uuid.UUID) error
	ListProducts(ctx context.Context, locationID uuid.UUID) ([]model.ProductLocation, error)
}

type locationRepo struct{ db *gorm.DB }

func NewLocationRepository(db *gorm.DB) LocationRepository { return &locationRepo{db: db} }

func (r *locationRepo) Create(ctx context.Context, l *model.Location) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *locationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var l model.Location
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *locationRepo) List(ctx context.Context, activeOnly bool) ([]model.Location, error) {
	var list []model.Location
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = true")
	}
	err := q.Order("name ASC").Find(&list).Error
	return list, err
}

func (r *locationRepo) Search(ctx context.Context, term string) ([]model.Location, error) {
	var list []model.Location
	like := "%" + strings.ToLower(term) + "%"
	err := r.db.WithContext(ctx).
		Where("lower(name) LIKE ? OR lower(coalesce(address, '')) LIKE ? OR lower(coalesce(description, '')) LIKE ?", like, like, like).
		Order("name ASC").
		Find(&list).Error
	return list, err
}

func (r *locationRepo) ListByType(ctx context.Context, locationType string) ([]model.Location, error) {
	var list []model.Location
	err := r.db.WithContext(ctx).
		Where("location_type = ? AND is_active = true", locationType).
		Order("name ASC").
		Find(&list).Error
	return list, err
}

func (r *locationRepo) ListWithinBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]model.Location, error) {
	var list []model.Location
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Where("latitude BETWEEN ? AND ?", minLat, maxLat).
		Where("longitude BETWEEN ? AND ?", minLng, maxLng).
		Find(&list).Error
	return list, err
}

func (r *locationRepo) Update(ctx context.Context, l *model.Location) error {
	return r.db.WithContext(ctx).Select("*").Omit("CreatedAt").Updates(l).Error
}

func (r *locationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("location_id = ?", id).Delete(&model.ProductLocation{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Location{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *locationRepo) Counts(ctx context.Context) (LocationCounts, error) {
	var c LocationCounts
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)                                               AS total_locations,
		       COUNT(*) FILTER (WHERE is_active = true)               AS active_locations,
		       COUNT(*) FILTER (WHERE location_type = 'warehouse')    AS warehouses,
		       COUNT(*) FILTER (WHERE location_type = 'store')        AS stores
		FROM locations`).Scan(&c).Error
	return c, err
}

func (r *locationRepo) AddProduct(ctx context.Context, locationID, productID uuid.UUID, quantity int) error {
	pl := model.ProductLocation{LocationID: locationID, ProductID: productID, Quantity: quantity}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "location_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("product_locations.quantity + EXCLUDED.quantity"),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Omit("Product").Create(&pl).Error
}

func (r *locationRepo) RemoveProduct(ctx context.Context, locationID, productID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		Delete(&model.ProductLocation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *locationRepo) ListProducts(ctx context.Context, locationID uuid.UUID) ([]model.ProductLocation, error) {
	var list []model.ProductLocation
	err := r.db.WithContext(ctx).Preload("Product").
		Where("location_id = ?", locationID).
		Order("updated_at DESC").
		Find(&list).Error
	return list, err
}
