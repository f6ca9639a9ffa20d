package service_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/realtime"
	"botica/internal/repository"
	"botica/internal/service"
	"botica/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// Every stub returns gorm.ErrRecordNotFound for unknown ids, like the GORM
// repositories do, and DB() returns nil so runTx calls fn(nil).

// stubProductRepo is an in-memory ProductRepository. Reads return copies.
type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
	locked   []uuid.UUID
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) get(id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	return r.get(id)
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return r.get(p.ID)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Search(_ context.Context, term string, _ int) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) ListLowStock(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Quantity <= p.MinStockLevel {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	return nil
}

func (r *stubProductRepo) FindStockDrift(_ context.Context) ([]repository.StockDrift, error) {
	return nil, nil
}

func (r *stubProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) UpdateTx(_ *gorm.DB, p *model.Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	r.locked = append(r.locked, id)
	return r.get(id)
}

func (r *stubProductRepo) SetQuantityTx(_ *gorm.DB, id uuid.UUID, quantity int) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Quantity = quantity
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for i := len(r.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if r.movements[i].ProductID == productID {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *stubMovementRepo) forProduct(id uuid.UUID) []model.StockMovement {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == id {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

type stubAlertRepo struct {
	alerts map[uuid.UUID]*model.Alert
	order  []uuid.UUID
}

func newStubAlertRepo() *stubAlertRepo {
	return &stubAlertRepo{alerts: make(map[uuid.UUID]*model.Alert)}
}

func (r *stubAlertRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Alert, error) {
	a, ok := r.alerts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stubAlertRepo) list(keep func(*model.Alert) bool) []model.Alert {
	var out []model.Alert
	for _, id := range r.order {
		if a, ok := r.alerts[id]; ok && keep(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (r *stubAlertRepo) ListActive(_ context.Context) ([]model.Alert, error) {
	return r.list(func(a *model.Alert) bool { return !a.IsResolved }), nil
}

func (r *stubAlertRepo) ListAll(_ context.Context) ([]model.Alert, error) {
	return r.list(func(*model.Alert) bool { return true }), nil
}

func (r *stubAlertRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.Alert, error) {
	return r.list(func(a *model.Alert) bool { return a.ProductID == productID }), nil
}

func (r *stubAlertRepo) Resolve(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	a, ok := r.alerts[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if a.IsResolved {
		return false, nil
	}
	a.IsResolved = true
	a.ResolvedAt = &at
	return true, nil
}

func (r *stubAlertRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.alerts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.alerts, id)
	return nil
}

func (r *stubAlertRepo) Counts(_ context.Context) (repository.AlertCounts, error) {
	var c repository.AlertCounts
	for _, a := range r.alerts {
		c.Total++
		if a.IsResolved {
			c.Resolved++
			continue
		}
		c.Unresolved++
		switch a.AlertLevel {
		case model.LevelCritical:
			c.Critical++
		case model.LevelWarning:
			c.Warning++
		case model.LevelInfo:
			c.Info++
		}
	}
	return c, nil
}

func (r *stubAlertRepo) CreateTx(_ *gorm.DB, a *model.Alert) error {
	cp := *a
	cp.Product = nil
	r.alerts[a.ID] = &cp
	r.order = append(r.order, a.ID)
	return nil
}

func (r *stubAlertRepo) FindOpenByProductTx(_ *gorm.DB, productID uuid.UUID) ([]model.Alert, error) {
	return r.list(func(a *model.Alert) bool { return a.ProductID == productID && !a.IsResolved }), nil
}

func (r *stubAlertRepo) ResolveTx(_ *gorm.DB, id uuid.UUID, at time.Time) error {
	_, err := r.Resolve(context.Background(), id, at)
	return err
}

func (r *stubAlertRepo) DB() *gorm.DB { return nil }

func (r *stubAlertRepo) open(productID uuid.UUID) []model.Alert {
	return r.list(func(a *model.Alert) bool { return a.ProductID == productID && !a.IsResolved })
}

var _ repository.AlertRepository = (*stubAlertRepo)(nil)

type stubSaleRepo struct {
	sales map[uuid.UUID]*model.Sale
	seq   map[string]int
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale), seq: make(map[string]int)}
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if filter.CustomerID != "" && (s.CustomerID == nil || s.CustomerID.String() != filter.CustomerID) {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) Stats(_ context.Context, _ time.Time) (repository.SaleStats, error) {
	return repository.SaleStats{}, nil
}

func (r *stubSaleRepo) TopProducts(_ context.Context, _ int) ([]repository.TopProduct, error) {
	return nil, nil
}

func (r *stubSaleRepo) SetReceiptPath(_ context.Context, id uuid.UUID, path string) error {
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.ReceiptPath = &path
	return nil
}

func (r *stubSaleRepo) NextSequenceTx(_ *gorm.DB, period string) (int, error) {
	r.seq[period]++
	return r.seq[period], nil
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	cp := *s
	cp.Items = append([]model.SaleItem(nil), s.Items...)
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubSaleRepo) CancelTx(_ *gorm.DB, id uuid.UUID, reason string, at time.Time) error {
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.PaymentStatus = model.SaleCancelled
	s.CancelledAt = &at
	s.CancelReason = &reason
	return nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCustomerRepo) List(_ context.Context, _ dto.CustomerFilter) ([]model.Customer, int64, error) {
	var out []model.Customer
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubCustomerRepo) Search(_ context.Context, _ string, _ int) ([]model.Customer, error) {
	return nil, nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *stubCustomerRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	c, ok := r.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Status = status
	return nil
}

func (r *stubCustomerRepo) PurchaseStats(_ context.Context, _ uuid.UUID) (repository.CustomerPurchaseStats, error) {
	return repository.CustomerPurchaseStats{}, nil
}

func (r *stubCustomerRepo) AddPurchasesTx(_ *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	c, ok := r.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.TotalPurchases = c.TotalPurchases.Add(amount)
	if c.TotalPurchases.IsNegative() {
		c.TotalPurchases = decimal.Zero
	}
	return nil
}

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func (p *recordingPublisher) count(eventType string) int {
	n := 0
	for _, t := range p.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

var _ realtime.Publisher = (*recordingPublisher)(nil)

// stubJobs records what the services enqueue.
type stubJobs struct {
	receipts []uuid.UUID
	emails   []worker.EmailJobPayload
}

func (j *stubJobs) EnqueueReceipt(_ context.Context, saleID uuid.UUID) error {
	j.receipts = append(j.receipts, saleID)
	return nil
}

func (j *stubJobs) EnqueueEmail(_ context.Context, payload worker.EmailJobPayload) error {
	j.emails = append(j.emails, payload)
	return nil
}

var _ service.Jobs = (*stubJobs)(nil)

// ── Fixtures ──────────────────────────────────────────────────────────────────

// inventory bundles the stock ledger with its collaborators.
type inventory struct {
	products  *stubProductRepo
	movements *stubMovementRepo
	alertRepo *stubAlertRepo
	pub       *recordingPublisher
	jobs      *stubJobs
	notifier  *service.Notifier
	alerts    service.AlertService
	stock     service.StockService
}

func newInventory(autoResolve bool) *inventory {
	inv := &inventory{
		products:  newStubProductRepo(),
		movements: &stubMovementRepo{},
		alertRepo: newStubAlertRepo(),
		pub:       &recordingPublisher{},
		jobs:      &stubJobs{},
	}
	inv.notifier = service.NewNotifier(inv.pub, inv.jobs, "alertas@botica.pe")
	inv.alerts = service.NewAlertService(inv.alertRepo, inv.products, inv.notifier, autoResolve)
	inv.stock = service.NewStockService(inv.products, inv.movements, inv.alerts, inv.notifier)
	return inv
}

// seedProduct stores an active product with the given levels. Price is 12.50.
func (inv *inventory) seedProduct(name string, quantity, minLevel, maxLevel int) *model.Product {
	p := &model.Product{
		ID:            uuid.New(),
		Name:          name,
		SKU:           strings.ToUpper(strings.ReplaceAll(name, " ", "-")),
		UnitPrice:     decimal.RequireFromString("12.50"),
		UnitCost:      decimal.RequireFromString("8.00"),
		Unit:          "unidad",
		Quantity:      quantity,
		MinStockLevel: minLevel,
		MaxStockLevel: maxLevel,
		Status:        model.ProductActive,
	}
	inv.products.products[p.ID] = p
	return p
}

func (inv *inventory) quantity(id uuid.UUID) int {
	return inv.products.products[id].Quantity
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
