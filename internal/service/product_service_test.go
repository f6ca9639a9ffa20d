package service_test

import (
	"context"
	"strings"
	"testing"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/realtime"
	"botica/internal/repository"
	"botica/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{categories: make(map[uuid.UUID]*model.Category)}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *stubCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoryRepo) FindByName(_ context.Context, name string) (*model.Category, error) {
	for _, c := range r.categories {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *stubCategoryRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	c, ok := r.categories[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Active = false
	return nil
}

var _ repository.CategoryRepository = (*stubCategoryRepo)(nil)

type stubPriceRepo struct {
	history []model.PriceHistory
}

func (r *stubPriceRepo) CreateTx(_ *gorm.DB, h *model.PriceHistory) error {
	r.history = append(r.history, *h)
	return nil
}

func (r *stubPriceRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.PriceHistory, error) {
	var out []model.PriceHistory
	for _, h := range r.history {
		if h.ProductID == productID {
			out = append(out, h)
		}
	}
	return out, nil
}

var _ repository.PriceHistoryRepository = (*stubPriceRepo)(nil)

func buildProductSvc() (service.ProductService, *inventory, *stubPriceRepo) {
	inv := newInventory(true)
	prices := &stubPriceRepo{}
	svc := service.NewProductService(inv.products, newStubCategoryRepo(), prices, inv.stock, inv.alerts, inv.notifier, nil)
	return svc, inv, prices
}

func intPtr(v int) *int { return &v }

func TestCreateProduct_InitialStockIsALedgerEntry(t *testing.T) {
	svc, inv, _ := buildProductSvc()

	resp, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name:          "Paracetamol 500mg",
		SKU:           "PAR-500",
		UnitPrice:     dec("12.50"),
		UnitCost:      dec("8.00"),
		Quantity:      40,
		MinStockLevel: intPtr(10),
		CreatedBy:     "seed",
	})
	require.NoError(t, err)
	assert.Equal(t, 40, resp.Quantity)
	assert.Equal(t, model.StockNormal, resp.StockStatus)
	assert.Equal(t, "unidad", resp.Unit)

	id := uuid.MustParse(resp.ID)
	movs := inv.movements.forProduct(id)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovementPurchase, movs[0].MovementType)
	assert.Equal(t, 0, movs[0].QuantityBefore)
	assert.Equal(t, 40, movs[0].QuantityAfter)
	assert.Equal(t, 1, inv.pub.count(realtime.ProductCreated))
}

func TestCreateProduct_ZeroQuantityRaisesOutOfStock(t *testing.T) {
	svc, inv, _ := buildProductSvc()

	resp, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Vitamina C 1g", SKU: "VTC-1G", UnitPrice: dec("9.80"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StockOutOfStock, resp.StockStatus)

	id := uuid.MustParse(resp.ID)
	assert.Empty(t, inv.movements.forProduct(id))
	open := inv.alertRepo.open(id)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertOutOfStock, open[0].AlertType)
}

func TestCreateProduct_RejectsInvertedLevels(t *testing.T) {
	svc, _, _ := buildProductSvc()

	_, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Jarabe", SKU: "JAR-1", UnitPrice: dec("5"),
		MinStockLevel: intPtr(50), MaxStockLevel: intPtr(10),
	})
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	svc, _, _ := buildProductSvc()
	cat := uuid.NewString()

	_, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name: "Jarabe", SKU: "JAR-1", UnitPrice: dec("5"), CategoryID: &cat,
	})
	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateProduct_PriceChangeIsRecorded(t *testing.T) {
	svc, inv, prices := buildProductSvc()
	p := inv.seedProduct("Ibuprofeno 400mg", 30, 10, 100)
	newPrice := dec("15.90")

	resp, err := svc.Update(context.Background(), p.ID, dto.UpdateProductRequest{
		UnitPrice: &newPrice,
		UpdatedBy: "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "15.90", resp.UnitPrice.StringFixed(2))
	assert.Equal(t, 30, resp.Quantity)

	require.Len(t, prices.history, 1)
	assert.Equal(t, "12.50", prices.history[0].PriceBefore.StringFixed(2))
	assert.Equal(t, "15.90", prices.history[0].PriceAfter.StringFixed(2))
	assert.Equal(t, "ana", prices.history[0].ChangedBy)

	list, err := svc.PriceHistory(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateProduct_NewLevelsReevaluateAlerts(t *testing.T) {
	svc, inv, prices := buildProductSvc()
	p := inv.seedProduct("Omeprazol 20mg", 30, 10, 100)

	_, err := svc.Update(context.Background(), p.ID, dto.UpdateProductRequest{MinStockLevel: intPtr(40)})
	require.NoError(t, err)

	open := inv.alertRepo.open(p.ID)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertLowStock, open[0].AlertType)
	assert.Empty(t, prices.history)
	assert.Empty(t, inv.movements.movements)
}

func TestDeactivateProduct(t *testing.T) {
	svc, inv, _ := buildProductSvc()
	p := inv.seedProduct("Loratadina 10mg", 30, 10, 100)

	require.NoError(t, svc.Deactivate(context.Background(), p.ID))
	assert.Equal(t, model.ProductInactive, inv.products.products[p.ID].Status)
	assert.Equal(t, 1, inv.pub.count(realtime.ProductDeleted))

	var nf *service.NotFoundError
	assert.ErrorAs(t, svc.Deactivate(context.Background(), uuid.New()), &nf)
}

func TestCategoryService_DuplicateName(t *testing.T) {
	svc := service.NewCategoryService(newStubCategoryRepo())

	_, err := svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "Analgésicos"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), dto.CreateCategoryRequest{Name: "analgésicos"})
	var ce *service.ConflictError
	assert.ErrorAs(t, err, &ce)
}
