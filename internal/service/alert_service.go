package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/realtime"
	"botica/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// alertLevels maps each alert type to its default severity.
var alertLevels = map[string]string{
	model.AlertOutOfStock: model.LevelCritical,
	model.AlertLowStock:   model.LevelWarning,
	model.AlertOverstock:  model.LevelInfo,
}

func alertMessage(alertType string, p *model.Product) string {
	switch alertType {
	case model.AlertOutOfStock:
		return fmt.Sprintf("Producto %s sin stock", p.Name)
	case model.AlertLowStock:
		return fmt.Sprintf("Stock bajo en %s: %d unidades (mínimo %d)", p.Name, p.Quantity, p.MinStockLevel)
	default:
		return fmt.Sprintf("Sobrestock en %s: %d unidades (máximo %d)", p.Name, p.Quantity, p.MaxStockLevel)
	}
}

type AlertService interface {
	// EvaluateTx reconciles the open alerts of p with its current stock
	// status. p must be locked by the caller's transaction.
	EvaluateTx(tx *gorm.DB, p *model.Product, fx *Effects) error

	Create(ctx context.Context, req dto.CreateAlertRequest) (*dto.AlertResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AlertResponse, error)
	ListActive(ctx context.Context) ([]dto.AlertResponse, error)
	ListAll(ctx context.Context) ([]dto.AlertResponse, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]dto.AlertResponse, error)
	Resolve(ctx context.Context, id uuid.UUID) (*dto.AlertResponse, error)
	ResolveByProduct(ctx context.Context, productID uuid.UUID) ([]dto.AlertResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*dto.AlertStatsResponse, error)
}

type alertService struct {
	repo        repository.AlertRepository
	products    repository.ProductRepository
	notifier    *Notifier
	autoResolve bool
	now         func() time.Time
}

func NewAlertService(
	repo repository.AlertRepository,
	products repository.ProductRepository,
	notifier *Notifier,
	autoResolve bool,
) AlertService {
	return &alertService{
		repo:        repo,
		products:    products,
		notifier:    notifier,
		autoResolve: autoResolve,
		now:         time.Now,
	}
}

func (s *alertService) EvaluateTx(tx *gorm.DB, p *model.Product, fx *Effects) error {
	status := Classify(p.Quantity, p.MinStockLevel, p.MaxStockLevel)

	open, err := s.repo.FindOpenByProductTx(tx, p.ID)
	if err != nil {
		return err
	}

	now := s.now()
	hasOpen := false
	for _, a := range open {
		if a.AlertType == status {
			hasOpen = true
			continue
		}
		if !s.autoResolve {
			continue
		}
		if err := s.repo.ResolveTx(tx, a.ID, now); err != nil {
			return err
		}
		a.IsResolved = true
		a.ResolvedAt = &now
		a.Product = p
		fx.AlertsResolved = append(fx.AlertsResolved, a)
	}

	if status == model.StockNormal || hasOpen {
		return nil
	}
	a := model.Alert{
		ID:         uuid.New(),
		ProductID:  p.ID,
		AlertType:  status,
		AlertLevel: alertLevels[status],
		Message:    alertMessage(status, p),
		CreatedAt:  now,
	}
	if err := s.repo.CreateTx(tx, &a); err != nil {
		return err
	}
	a.Product = p
	fx.AlertsCreated = append(fx.AlertsCreated, a)
	return nil
}

func (s *alertService) Create(ctx context.Context, req dto.CreateAlertRequest) (*dto.AlertResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, invalid("product_id inválido")
	}
	if _, ok := alertLevels[req.AlertType]; !ok {
		return nil, invalid("tipo de alerta inválido: %s", req.AlertType)
	}
	level := req.AlertLevel
	if level == "" {
		level = alertLevels[req.AlertType]
	}
	if level != model.LevelCritical && level != model.LevelWarning && level != model.LevelInfo {
		return nil, invalid("nivel de alerta inválido: %s", level)
	}

	fx := newEffects()
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.products.FindByIDForUpdateTx(tx, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Producto", productID.String())
		}
		if err != nil {
			return err
		}
		open, err := s.repo.FindOpenByProductTx(tx, productID)
		if err != nil {
			return err
		}
		for _, a := range open {
			if a.AlertType == req.AlertType {
				return conflict("ya existe una alerta abierta de tipo %s para %s", req.AlertType, p.Name)
			}
		}
		a := model.Alert{
			ID:         uuid.New(),
			ProductID:  productID,
			AlertType:  req.AlertType,
			AlertLevel: level,
			Message:    req.Message,
			CreatedAt:  s.now(),
		}
		if err := s.repo.CreateTx(tx, &a); err != nil {
			return err
		}
		a.Product = p
		fx.AlertsCreated = append(fx.AlertsCreated, a)
		return nil
	})
	if err != nil {
		return nil, translate(err, "Alerta", "create alert")
	}

	s.notifier.Announce(ctx, fx)
	resp := alertToResponse(&fx.AlertsCreated[0])
	return &resp, nil
}

func (s *alertService) Get(ctx context.Context, id uuid.UUID) (*dto.AlertResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Alerta", "find alert")
	}
	resp := alertToResponse(a)
	return &resp, nil
}

func (s *alertService) ListActive(ctx context.Context) ([]dto.AlertResponse, error) {
	list, err := s.repo.ListActive(ctx)
	return alertsToResponse(list, err)
}

func (s *alertService) ListAll(ctx context.Context) ([]dto.AlertResponse, error) {
	list, err := s.repo.ListAll(ctx)
	return alertsToResponse(list, err)
}

func (s *alertService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]dto.AlertResponse, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, translate(err, "Producto", "find product")
	}
	list, err := s.repo.ListByProduct(ctx, productID)
	return alertsToResponse(list, err)
}

func alertsToResponse(list []model.Alert, err error) ([]dto.AlertResponse, error) {
	if err != nil {
		return nil, translate(err, "Alerta", "list alerts")
	}
	out := make([]dto.AlertResponse, 0, len(list))
	for i := range list {
		out = append(out, alertToResponse(&list[i]))
	}
	return out, nil
}

// Resolve is idempotent: resolving a resolved alert returns it unchanged and
// publishes nothing.
func (s *alertService) Resolve(ctx context.Context, id uuid.UUID) (*dto.AlertResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Alerta", "find alert")
	}
	if a.IsResolved {
		resp := alertToResponse(a)
		return &resp, nil
	}

	now := s.now()
	changed, err := s.repo.Resolve(ctx, id, now)
	if err != nil {
		return nil, translate(err, "Alerta", "resolve alert")
	}
	if !changed {
		// Resolved concurrently; report the stored state.
		return s.Get(ctx, id)
	}

	a.IsResolved = true
	a.ResolvedAt = &now
	resp := alertToResponse(a)
	s.notifier.publish(ctx, realtime.AlertResolved, resp)
	return &resp, nil
}

func (s *alertService) ResolveByProduct(ctx context.Context, productID uuid.UUID) ([]dto.AlertResponse, error) {
	fx := newEffects()
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.products.FindByIDForUpdateTx(tx, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Producto", productID.String())
		}
		if err != nil {
			return err
		}
		open, err := s.repo.FindOpenByProductTx(tx, productID)
		if err != nil {
			return err
		}
		now := s.now()
		for _, a := range open {
			if err := s.repo.ResolveTx(tx, a.ID, now); err != nil {
				return err
			}
			a.IsResolved = true
			a.ResolvedAt = &now
			a.Product = p
			fx.AlertsResolved = append(fx.AlertsResolved, a)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "Alerta", "resolve product alerts")
	}

	s.notifier.Announce(ctx, fx)
	out := make([]dto.AlertResponse, 0, len(fx.AlertsResolved))
	for i := range fx.AlertsResolved {
		out = append(out, alertToResponse(&fx.AlertsResolved[i]))
	}
	return out, nil
}

func (s *alertService) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translate(err, "Alerta", "find alert")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translate(err, "Alerta", "delete alert")
	}
	s.notifier.publish(ctx, realtime.AlertDeleted, alertToResponse(a))
	return nil
}

func (s *alertService) Stats(ctx context.Context) (*dto.AlertStatsResponse, error) {
	c, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, translate(err, "Alerta", "alert stats")
	}
	return &dto.AlertStatsResponse{
		Critical:   c.Critical,
		Warning:    c.Warning,
		Info:       c.Info,
		Unresolved: c.Unresolved,
		Resolved:   c.Resolved,
		Total:      c.Total,
	}, nil
}
