package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/realtime"
	"botica/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PriceCacheKey is the Redis key of the cached SKU price lookup.
func PriceCacheKey(sku string) string { return "price:" + sku }

const (
	defaultMinStock = 10
	defaultMaxStock = 100
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Search(ctx context.Context, term string, limit int) ([]dto.ProductResponse, error)
	LowStock(ctx context.Context) ([]dto.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	PriceHistory(ctx context.Context, id uuid.UUID) ([]dto.PriceHistoryResponse, error)
}

type productService struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
	prices     repository.PriceHistoryRepository
	stock      StockService
	alerts     AlertService
	notifier   *Notifier
	rdb        *redis.Client
}

func NewProductService(
	repo repository.ProductRepository,
	categories repository.CategoryRepository,
	prices repository.PriceHistoryRepository,
	stock StockService,
	alerts AlertService,
	notifier *Notifier,
	rdb *redis.Client,
) ProductService {
	return &productService{
		repo:       repo,
		categories: categories,
		prices:     prices,
		stock:      stock,
		alerts:     alerts,
		notifier:   notifier,
		rdb:        rdb,
	}
}

func parseDate(field string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *v)
	if err != nil {
		return nil, &ValidationError{Msg: "fecha inválida: " + *v, Fields: map[string]string{field: "datetime"}}
	}
	return &t, nil
}

func checkStockLevels(minStock, maxStock int) error {
	if minStock < 0 || maxStock < 0 {
		return invalid("los niveles de stock no pueden ser negativos")
	}
	if minStock > maxStock {
		return &ValidationError{
			Msg:    "el stock mínimo no puede superar al máximo",
			Fields: map[string]string{"min_stock_level": "ltefield"},
		}
	}
	return nil
}

func (s *productService) resolveCategory(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, invalid("category_id inválido")
	}
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Categoría", id.String())
		}
		return nil, translate(err, "Categoría", "find category")
	}
	return &id, nil
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.Quantity < 0 {
		return nil, invalid("la cantidad inicial no puede ser negativa")
	}
	if req.UnitPrice.IsNegative() || req.UnitCost.IsNegative() {
		return nil, invalid("los precios no pueden ser negativos")
	}
	minStock, maxStock := defaultMinStock, defaultMaxStock
	if req.MinStockLevel != nil {
		minStock = *req.MinStockLevel
	}
	if req.MaxStockLevel != nil {
		maxStock = *req.MaxStockLevel
	}
	if err := checkStockLevels(minStock, maxStock); err != nil {
		return nil, err
	}
	expires, err := parseDate("expiration_date", req.ExpirationDate)
	if err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	unit := req.Unit
	if unit == "" {
		unit = "unidad"
	}
	p := &model.Product{
		ID:                   uuid.New(),
		CategoryID:           categoryID,
		Name:                 strings.TrimSpace(req.Name),
		SKU:                  strings.TrimSpace(req.SKU),
		Description:          req.Description,
		UnitPrice:            req.UnitPrice.Round(2),
		UnitCost:             req.UnitCost.Round(2),
		Unit:                 unit,
		MinStockLevel:        minStock,
		MaxStockLevel:        maxStock,
		Status:               model.ProductActive,
		ExpirationDate:       expires,
		RequiresPrescription: req.RequiresPrescription,
	}

	fx := newEffects()
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return err
		}
		if req.Quantity > 0 {
			applied, err := s.stock.ApplyMovementTx(tx, MovementInput{
				ProductID: p.ID,
				Delta:     req.Quantity,
				Type:      model.MovementPurchase,
				Note:      "Stock inicial",
				Actor:     req.CreatedBy,
			}, fx)
			if err != nil {
				return err
			}
			p.Quantity = applied.Quantity
			return nil
		}
		return s.alerts.EvaluateTx(tx, p, fx)
	})
	if err != nil {
		return nil, translate(err, "Producto", "create product")
	}

	resp := productToResponse(p)
	s.notifier.publish(ctx, realtime.ProductCreated, resp)
	s.notifier.Announce(ctx, fx)
	return resp, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Producto", id.String())
	}
	if err != nil {
		return nil, translate(err, "Producto", "find product")
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.CategoryID != "" {
		if _, err := uuid.Parse(filter.CategoryID); err != nil {
			return nil, invalid("category_id inválido")
		}
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, translate(err, "Producto", "list products")
	}
	return &dto.ProductListResponse{
		Data:  productsToResponse(products),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *productService) Search(ctx context.Context, term string, limit int) ([]dto.ProductResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, &ValidationError{Msg: "el término de búsqueda es obligatorio", Fields: map[string]string{"q": "required"}}
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	products, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		return nil, translate(err, "Producto", "search products")
	}
	return productsToResponse(products), nil
}

func (s *productService) LowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	products, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, translate(err, "Producto", "list low stock")
	}
	return productsToResponse(products), nil
}

func productsToResponse(products []model.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, *productToResponse(&products[i]))
	}
	return out
}

// Update changes catalog attributes. A price or cost change is recorded in
// price_history, and new stock thresholds re-run the alert evaluation.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	expires, err := parseDate("expiration_date", req.ExpirationDate)
	if err != nil {
		return nil, err
	}
	var categoryID *uuid.UUID
	if req.CategoryID != nil {
		if categoryID, err = s.resolveCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
	}

	fx := newEffects()
	var p *model.Product
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDForUpdateTx(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Producto", id.String())
		}
		if err != nil {
			return err
		}

		oldPrice, oldCost := p.UnitPrice, p.UnitCost
		if categoryID != nil {
			p.CategoryID = categoryID
		}
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = req.Description
		}
		if req.UnitPrice != nil {
			p.UnitPrice = req.UnitPrice.Round(2)
		}
		if req.UnitCost != nil {
			p.UnitCost = req.UnitCost.Round(2)
		}
		if req.Unit != nil {
			p.Unit = *req.Unit
		}
		if req.MinStockLevel != nil {
			p.MinStockLevel = *req.MinStockLevel
		}
		if req.MaxStockLevel != nil {
			p.MaxStockLevel = *req.MaxStockLevel
		}
		if expires != nil {
			p.ExpirationDate = expires
		}
		if req.RequiresPrescription != nil {
			p.RequiresPrescription = *req.RequiresPrescription
		}
		if err := checkStockLevels(p.MinStockLevel, p.MaxStockLevel); err != nil {
			return err
		}

		if !p.UnitPrice.Equal(oldPrice) || !p.UnitCost.Equal(oldCost) {
			changedBy := req.UpdatedBy
			if changedBy == "" {
				changedBy = "Sistema"
			}
			h := &model.PriceHistory{
				ID:          uuid.New(),
				ProductID:   p.ID,
				CostBefore:  oldCost,
				CostAfter:   p.UnitCost,
				PriceBefore: oldPrice,
				PriceAfter:  p.UnitPrice,
				ChangedBy:   changedBy,
			}
			if err := s.prices.CreateTx(tx, h); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateTx(tx, p); err != nil {
			return err
		}
		return s.alerts.EvaluateTx(tx, p, fx)
	})
	if err != nil {
		return nil, translate(err, "Producto", "update product")
	}

	s.invalidatePrice(ctx, p.SKU)
	resp := productToResponse(p)
	s.notifier.publish(ctx, realtime.ProductUpdated, resp)
	s.notifier.Announce(ctx, fx)
	return resp, nil
}

func (s *productService) invalidatePrice(ctx context.Context, sku string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, PriceCacheKey(sku)).Err(); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("failed to invalidate price cache")
	}
}

// Deactivate hides the product from the catalog. Its sales and movements stay.
func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("Producto", id.String())
	}
	if err != nil {
		return translate(err, "Producto", "find product")
	}
	if err := s.repo.SetStatus(ctx, id, model.ProductInactive); err != nil {
		return translate(err, "Producto", "deactivate product")
	}
	p.Status = model.ProductInactive
	s.invalidatePrice(ctx, p.SKU)
	s.notifier.publish(ctx, realtime.ProductDeleted, productToResponse(p))
	return nil
}

func (s *productService) PriceHistory(ctx context.Context, id uuid.UUID) ([]dto.PriceHistoryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Producto", id.String())
		}
		return nil, translate(err, "Producto", "find product")
	}
	list, err := s.prices.ListByProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "Historial de precios", "list price history")
	}
	out := make([]dto.PriceHistoryResponse, 0, len(list))
	for _, h := range list {
		out = append(out, dto.PriceHistoryResponse{
			ID:          h.ID.String(),
			ProductID:   h.ProductID.String(),
			CostBefore:  h.CostBefore,
			CostAfter:   h.CostAfter,
			PriceBefore: h.PriceBefore,
			PriceAfter:  h.PriceAfter,
			ChangedBy:   h.ChangedBy,
			CreatedAt:   h.CreatedAt,
		})
	}
	return out, nil
}
