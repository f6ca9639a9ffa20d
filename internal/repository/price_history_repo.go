package repository

import (
	"context"

	"botica/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PriceHistoryRepository interface {
	CreateTx(tx *gorm.DB, h *model.PriceHistory) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.PriceHistory, error)
}

type priceHistoryRepo struct{ db *gorm.DB }

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepo{db: db}
}

func (r *priceHistoryRepo) CreateTx(tx *gorm.DB, h *model.PriceHistory) error {
	return tx.Create(h).Error
}

func (r *priceHistoryRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.PriceHistory, error) {
	var list []model.PriceHistory
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("created_at DESC").Find(&list).Error
	return list, err
}
