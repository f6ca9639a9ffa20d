package service

import (
	"context"
	"errors"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const defaultMovementLimit = 50

var movementTypes = map[string]bool{
	model.MovementPurchase:   true,
	model.MovementSale:       true,
	model.MovementAdjustment: true,
	model.MovementReturn:     true,
	model.MovementTransfer:   true,
}

// Classify derives the stock status of a quantity. Out of stock wins over
// low stock, and low stock over overstock, so a product with min >= max is
// still reported low while at or under its minimum.
func Classify(quantity, minLevel, maxLevel int) string {
	switch {
	case quantity == 0:
		return model.StockOutOfStock
	case quantity <= minLevel:
		return model.StockLow
	case quantity >= maxLevel:
		return model.StockOverstock
	default:
		return model.StockNormal
	}
}

// MovementInput describes one signed change to a product's quantity.
type MovementInput struct {
	ProductID   uuid.UUID
	Delta       int
	Type        string
	Note        string
	Actor       string
	ReferenceID *uuid.UUID
}

// StockService is the only writer of Product.Quantity.
type StockService interface {
	ApplyMovement(ctx context.Context, in MovementInput) (*dto.ProductResponse, error)
	// ApplyMovementTx runs inside the caller's transaction. Events are
	// collected in fx and must be announced by the caller after commit.
	ApplyMovementTx(tx *gorm.DB, in MovementInput, fx *Effects) (*model.Product, error)
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]dto.StockMovementResponse, error)
	Drift(ctx context.Context) ([]dto.StockDriftResponse, error)
}

type stockService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	alerts    AlertService
	notifier  *Notifier
}

func NewStockService(
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	alerts AlertService,
	notifier *Notifier,
) StockService {
	return &stockService{products: products, movements: movements, alerts: alerts, notifier: notifier}
}

func (s *stockService) ApplyMovementTx(tx *gorm.DB, in MovementInput, fx *Effects) (*model.Product, error) {
	if in.Delta == 0 {
		return nil, &ValidationError{Msg: "la cantidad del movimiento no puede ser cero", Fields: map[string]string{"quantity": "ne"}}
	}
	if !movementTypes[in.Type] {
		return nil, &ValidationError{Msg: "tipo de movimiento inválido: " + in.Type, Fields: map[string]string{"movement_type": "oneof"}}
	}

	p, err := s.products.FindByIDForUpdateTx(tx, in.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Producto", in.ProductID.String())
	}
	if err != nil {
		return nil, err
	}

	before := p.Quantity
	after := before + in.Delta
	if after < 0 {
		return nil, conflict("stock insuficiente para %s: disponible %d, solicitado %d", p.Name, before, -in.Delta)
	}

	if err := s.products.SetQuantityTx(tx, p.ID, after); err != nil {
		return nil, err
	}
	p.Quantity = after

	actor := in.Actor
	if actor == "" {
		actor = "Sistema"
	}
	mov := &model.StockMovement{
		ID:             uuid.New(),
		ProductID:      p.ID,
		MovementType:   in.Type,
		Quantity:       in.Delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Notes:          in.Note,
		CreatedBy:      actor,
		ReferenceID:    in.ReferenceID,
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, err
	}

	if err := s.alerts.EvaluateTx(tx, p, fx); err != nil {
		return nil, err
	}
	fx.touch(p)
	return p, nil
}

func (s *stockService) ApplyMovement(ctx context.Context, in MovementInput) (*dto.ProductResponse, error) {
	fx := newEffects()
	var p *model.Product
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.ApplyMovementTx(tx, in, fx)
		return err
	})
	if err != nil {
		return nil, translate(err, "Producto", "apply movement")
	}

	log.Info().
		Str("product_id", p.ID.String()).
		Str("type", in.Type).
		Int("delta", in.Delta).
		Int("quantity", p.Quantity).
		Msg("stock movement applied")
	s.notifier.Announce(ctx, fx)
	return productToResponse(p), nil
}

func (s *stockService) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]dto.StockMovementResponse, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, translate(err, "Producto", "find product")
	}
	if limit < 1 || limit > 500 {
		limit = defaultMovementLimit
	}
	list, err := s.movements.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, translate(err, "Movimiento", "list movements")
	}
	out := make([]dto.StockMovementResponse, 0, len(list))
	for i := range list {
		out = append(out, movementToResponse(&list[i]))
	}
	return out, nil
}

func (s *stockService) Drift(ctx context.Context) ([]dto.StockDriftResponse, error) {
	drifts, err := s.products.FindStockDrift(ctx)
	if err != nil {
		return nil, translate(err, "Producto", "find stock drift")
	}
	out := make([]dto.StockDriftResponse, 0, len(drifts))
	for _, d := range drifts {
		out = append(out, driftToResponse(d))
	}
	return out, nil
}
