package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/realtime"
	"botica/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxRate is the IGV applied to every sale.
var TaxRate = decimal.RequireFromString("0.18")

// SaleLine is one priced cart line.
type SaleLine struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// SaleTotals are the money fields of a sale, rounded to 2 decimals.
type SaleTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeSaleTotals applies subtotal = Σ qty × price, tax = (subtotal −
// discount) × TaxRate and total = subtotal − discount + tax.
func ComputeSaleTotals(lines []SaleLine, discount decimal.Decimal) (SaleTotals, error) {
	if len(lines) == 0 {
		return SaleTotals{}, invalid("la venta debe tener al menos un producto")
	}
	if discount.IsNegative() {
		return SaleTotals{}, invalid("el descuento no puede ser negativo")
	}
	subtotal := decimal.Zero
	for i, l := range lines {
		if l.Quantity < 1 {
			return SaleTotals{}, invalid("item %d: la cantidad debe ser mayor a cero", i+1)
		}
		if l.UnitPrice.IsNegative() {
			return SaleTotals{}, invalid("item %d: el precio unitario no puede ser negativo", i+1)
		}
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)
	discount = discount.Round(2)
	if discount.GreaterThan(subtotal) {
		return SaleTotals{}, invalid("el descuento (%s) no puede superar el subtotal (%s)", discount.StringFixed(2), subtotal.StringFixed(2))
	}
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(TaxRate).Round(2)
	return SaleTotals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    taxable.Add(tax),
	}, nil
}

// FormatSaleNumber renders VTA-YYYYMM-NNNN.
func FormatSaleNumber(period string, seq int) string {
	return fmt.Sprintf("VTA-%s-%04d", period, seq)
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

type SaleService interface {
	RecordSale(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	CancelSale(ctx context.Context, id uuid.UUID, req dto.CancelSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	Stats(ctx context.Context) (*dto.SaleStatsResponse, error)
	TopProducts(ctx context.Context, limit int) ([]dto.TopProductResponse, error)
	// ReceiptPath returns the stored PDF receipt of a sale.
	ReceiptPath(ctx context.Context, id uuid.UUID) (string, error)
}

type saleService struct {
	repo         repository.SaleRepository
	products     repository.ProductRepository
	customers    repository.CustomerRepository
	stock        StockService
	notifier     *Notifier
	restoreStock bool
	now          func() time.Time
}

func NewSaleService(
	repo repository.SaleRepository,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	stock StockService,
	notifier *Notifier,
	cancelRestoresStock bool,
) SaleService {
	return &saleService{
		repo:         repo,
		products:     products,
		customers:    customers,
		stock:        stock,
		notifier:     notifier,
		restoreStock: cancelRestoresStock,
		now:          time.Now,
	}
}

// ── RecordSale ────────────────────────────────────────────────────────────────
//   1. Pre-flight outside the tx: resolve products, snapshot prices, totals
//   2. BEGIN TX: reserve sale number, insert sale+items, one sale movement per
//      product (sorted by id), add to customer's total_purchases
//   3. COMMIT
//   4. Publish events, enqueue receipt job

func (s *saleService) RecordSale(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if len(req.Items) == 0 {
		return nil, invalid("la venta debe tener al menos un producto")
	}

	method := req.PaymentMethod
	if method == "" {
		method = model.PaymentCash
	}
	switch method {
	case model.PaymentCash, model.PaymentCard, model.PaymentTransfer, model.PaymentCredit:
	default:
		return nil, invalid("método de pago inválido: %s", method)
	}
	status := req.PaymentStatus
	if status == "" {
		status = model.SaleCompleted
	}
	switch status {
	case model.SalePending, model.SaleCompleted:
	case model.SaleCancelled:
		// Cancellation goes through CancelSale so stock and purchases are reversed.
		return nil, &ValidationError{
			Msg:    "una venta no puede registrarse como anulada",
			Fields: map[string]string{"payment_status": "oneof"},
		}
	default:
		return nil, invalid("estado de pago inválido: %s", status)
	}

	var customerID *uuid.UUID
	var customer *model.Customer
	if req.CustomerID != nil && *req.CustomerID != "" {
		id, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, invalid("customer_id inválido")
		}
		customer, err = s.customers.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Cliente", id.String())
		}
		if err != nil {
			return nil, translate(err, "Cliente", "find customer")
		}
		customerID = &id
	}

	// Pre-flight: resolve products and snapshot prices
	saleID := uuid.New()
	items := make([]model.SaleItem, 0, len(req.Items))
	lines := make([]SaleLine, 0, len(req.Items))
	names := make(map[uuid.UUID]*model.Product, len(req.Items))
	for i, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, invalid("item %d: product_id inválido", i+1)
		}
		if it.Quantity < 1 {
			return nil, invalid("item %d: la cantidad debe ser mayor a cero", i+1)
		}
		p, ok := names[pid]
		if !ok {
			p, err = s.products.FindByID(ctx, pid)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("Producto", pid.String())
			}
			if err != nil {
				return nil, translate(err, "Producto", "find product")
			}
			names[pid] = p
		}
		if !p.IsActive() {
			return nil, invalid("el producto %s está inactivo y no puede venderse", p.Name)
		}

		price := p.UnitPrice
		if it.UnitPrice != nil {
			price = *it.UnitPrice
		}
		if price.IsNegative() {
			return nil, invalid("item %d: el precio unitario no puede ser negativo", i+1)
		}
		if it.Discount.IsNegative() {
			return nil, invalid("item %d: el descuento no puede ser negativo", i+1)
		}
		price = price.Round(2)
		lines = append(lines, SaleLine{Quantity: it.Quantity, UnitPrice: price})
		items = append(items, model.SaleItem{
			ID:        uuid.New(),
			SaleID:    saleID,
			ProductID: pid,
			Quantity:  it.Quantity,
			UnitPrice: price,
			Discount:  it.Discount.Round(2),
			Subtotal:  price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2),
		})
	}

	totals, err := ComputeSaleTotals(lines, req.Discount)
	if err != nil {
		return nil, err
	}

	servedBy := req.ServedBy
	if servedBy == "" {
		servedBy = "Sistema"
	}

	// Lock products in a fixed order so concurrent sales never deadlock.
	deltas := make(map[uuid.UUID]int, len(items))
	for _, it := range items {
		deltas[it.ProductID] += it.Quantity
	}
	order := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].String() < order[j].String() })

	now := s.now()
	period := now.Format("200601")
	sale := model.Sale{
		ID:            saleID,
		CustomerID:    customerID,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		TaxAmount:     totals.Tax,
		Total:         totals.Total,
		PaymentMethod: method,
		PaymentStatus: status,
		Notes:         req.Notes,
		ServedBy:      servedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         items,
	}

	fx := newEffects()
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		seq, err := s.repo.NextSequenceTx(tx, period)
		if err != nil {
			return err
		}
		sale.SaleNumber = FormatSaleNumber(period, seq)

		if err := s.repo.CreateTx(tx, &sale); err != nil {
			return err
		}

		for _, pid := range order {
			ref := sale.ID
			if _, err := s.stock.ApplyMovementTx(tx, MovementInput{
				ProductID:   pid,
				Delta:       -deltas[pid],
				Type:        model.MovementSale,
				Note:        "Venta " + sale.SaleNumber,
				Actor:       servedBy,
				ReferenceID: &ref,
			}, fx); err != nil {
				return err
			}
		}

		if customerID != nil {
			return s.customers.AddPurchasesTx(tx, *customerID, sale.Total)
		}
		return nil
	})
	if txErr != nil {
		return nil, translate(txErr, "Venta", "record sale")
	}

	log.Info().
		Str("sale_number", sale.SaleNumber).
		Str("total", sale.Total.StringFixed(2)).
		Int("items", len(sale.Items)).
		Msg("sale recorded")

	for i := range sale.Items {
		sale.Items[i].Product = names[sale.Items[i].ProductID]
	}
	sale.Customer = customer
	resp := saleToResponse(&sale)

	s.notifier.publish(ctx, realtime.SaleCreated, resp)
	s.notifier.Announce(ctx, fx)
	s.notifier.enqueueReceipt(ctx, sale.ID)
	return resp, nil
}

// ── CancelSale ────────────────────────────────────────────────────────────────

func (s *saleService) CancelSale(ctx context.Context, id uuid.UUID, req dto.CancelSaleRequest) (*dto.SaleResponse, error) {
	actor := req.CancelledBy
	if actor == "" {
		actor = "Sistema"
	}

	fx := newEffects()
	var number string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.repo.FindByIDForUpdateTx(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Venta", id.String())
		}
		if err != nil {
			return err
		}
		if sale.PaymentStatus == model.SaleCancelled {
			return conflict("la venta %s ya está anulada", sale.SaleNumber)
		}
		number = sale.SaleNumber

		if s.restoreStock {
			deltas := make(map[uuid.UUID]int, len(sale.Items))
			for _, it := range sale.Items {
				deltas[it.ProductID] += it.Quantity
			}
			order := make([]uuid.UUID, 0, len(deltas))
			for pid := range deltas {
				order = append(order, pid)
			}
			sort.Slice(order, func(i, j int) bool { return order[i].String() < order[j].String() })

			for _, pid := range order {
				ref := sale.ID
				if _, err := s.stock.ApplyMovementTx(tx, MovementInput{
					ProductID:   pid,
					Delta:       deltas[pid],
					Type:        model.MovementReturn,
					Note:        "Anulación " + sale.SaleNumber,
					Actor:       actor,
					ReferenceID: &ref,
				}, fx); err != nil {
					return err
				}
			}
		}

		if sale.CustomerID != nil {
			if err := s.customers.AddPurchasesTx(tx, *sale.CustomerID, sale.Total.Neg()); err != nil {
				return err
			}
		}
		return s.repo.CancelTx(tx, id, req.Reason, s.now())
	})
	if txErr != nil {
		return nil, translate(txErr, "Venta", "cancel sale")
	}

	log.Info().Str("sale_number", number).Str("by", actor).Bool("stock_restored", s.restoreStock).Msg("sale cancelled")

	resp, err := s.GetSale(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("sale_id", id.String()).Msg("failed to reload cancelled sale")
		resp = &dto.SaleResponse{ID: id.String(), SaleNumber: number, PaymentStatus: model.SaleCancelled}
	}
	s.notifier.publish(ctx, realtime.SaleCancelled, resp)
	s.notifier.Announce(ctx, fx)
	return resp, nil
}

// ── Read side ─────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Venta", id.String())
	}
	if err != nil {
		return nil, translate(err, "Venta", "find sale")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	for field, v := range map[string]string{"from": filter.From, "to": filter.To} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			return nil, &ValidationError{Msg: "fecha inválida: " + v, Fields: map[string]string{field: "datetime"}}
		}
	}
	if filter.CustomerID != "" {
		if _, err := uuid.Parse(filter.CustomerID); err != nil {
			return nil, invalid("customer_id inválido")
		}
	}

	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, translate(err, "Venta", "list sales")
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *saleService) Stats(ctx context.Context) (*dto.SaleStatsResponse, error) {
	st, err := s.repo.Stats(ctx, s.now())
	if err != nil {
		return nil, translate(err, "Venta", "sale stats")
	}
	return &dto.SaleStatsResponse{
		TotalSales:   st.TotalSales,
		TotalRevenue: st.TotalRevenue,
		AverageSale:  st.AverageSale,
		TodaySales:   st.TodaySales,
		TodayRevenue: st.TodayRevenue,
	}, nil
}

func (s *saleService) TopProducts(ctx context.Context, limit int) ([]dto.TopProductResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	list, err := s.repo.TopProducts(ctx, limit)
	if err != nil {
		return nil, translate(err, "Venta", "top products")
	}
	out := make([]dto.TopProductResponse, 0, len(list))
	for _, t := range list {
		out = append(out, dto.TopProductResponse{
			ProductID:    t.ProductID.String(),
			Name:         t.Name,
			SKU:          t.SKU,
			UnitsSold:    t.UnitsSold,
			Revenue:      t.Revenue,
			TimesOrdered: t.TimesOrdered,
		})
	}
	return out, nil
}

func (s *saleService) ReceiptPath(ctx context.Context, id uuid.UUID) (string, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", notFound("Venta", id.String())
	}
	if err != nil {
		return "", translate(err, "Venta", "find sale")
	}
	if sale.ReceiptPath == nil || *sale.ReceiptPath == "" {
		return "", notFound("Comprobante", sale.SaleNumber)
	}
	return *sale.ReceiptPath, nil
}
