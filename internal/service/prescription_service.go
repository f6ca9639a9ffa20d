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
	"gorm.io/gorm"
)

type PrescriptionService interface {
	Create(ctx context.Context, req dto.CreatePrescriptionRequest) (*dto.PrescriptionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PrescriptionResponse, error)
	List(ctx context.Context, filter dto.PrescriptionFilter) (*dto.PrescriptionListResponse, error)
	Search(ctx context.Context, term string) ([]dto.PrescriptionResponse, error)
	Pending(ctx context.Context) ([]dto.PrescriptionResponse, error)
	Expired(ctx context.Context) ([]dto.PrescriptionResponse, error)
	ByCustomer(ctx context.Context, customerID uuid.UUID) ([]dto.PrescriptionResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdatePrescriptionRequest) (*dto.PrescriptionResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*dto.PrescriptionResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	// Dispense records qty more units handed out for one item and moves the
	// prescription to partial or completed.
	Dispense(ctx context.Context, itemID uuid.UUID, qty int) (*dto.PrescriptionResponse, error)
}

type prescriptionService struct {
	repo      repository.PrescriptionRepository
	customers repository.CustomerRepository
	products  repository.ProductRepository
	notifier  *Notifier
	now       func() time.Time
}

// NewPrescriptionService builds the service. A nil notifier publishes nothing.
func NewPrescriptionService(
	repo repository.PrescriptionRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	notifier *Notifier,
) PrescriptionService {
	if notifier == nil {
		notifier = NewNotifier(nil, nil, "")
	}
	return &prescriptionService{repo: repo, customers: customers, products: products, notifier: notifier, now: time.Now}
}

var prescriptionStatuses = map[string]bool{
	model.PrescriptionPending:   true,
	model.PrescriptionPartial:   true,
	model.PrescriptionCompleted: true,
	model.PrescriptionCancelled: true,
}

func checkPrescriptionDates(issue time.Time, expires *time.Time) error {
	if expires != nil && issue.After(*expires) {
		return &ValidationError{
			Msg:    "la fecha de emisión no puede ser posterior a la de vencimiento",
			Fields: map[string]string{"issue_date": "ltefield"},
		}
	}
	return nil
}

// statusAfterDispense is completed once every item is fully dispensed,
// partial once anything was dispensed, pending otherwise.
func statusAfterDispense(items []model.PrescriptionItem) string {
	complete, started := true, false
	for _, it := range items {
		if it.QuantityDispensed > 0 {
			started = true
		}
		if it.Pending() > 0 {
			complete = false
		}
	}
	switch {
	case complete:
		return model.PrescriptionCompleted
	case started:
		return model.PrescriptionPartial
	default:
		return model.PrescriptionPending
	}
}

func (s *prescriptionService) Create(ctx context.Context, req dto.CreatePrescriptionRequest) (*dto.PrescriptionResponse, error) {
	if len(req.Items) == 0 {
		return nil, invalid("la receta debe tener al menos un producto")
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, invalid("customer_id inválido")
	}
	issue, err := parseDate("issue_date", &req.IssueDate)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, &ValidationError{Msg: "la fecha de emisión es obligatoria", Fields: map[string]string{"issue_date": "required"}}
	}
	expires, err := parseDate("expiration_date", req.ExpirationDate)
	if err != nil {
		return nil, err
	}
	if err := checkPrescriptionDates(*issue, expires); err != nil {
		return nil, err
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Cliente", customerID.String())
		}
		return nil, translate(err, "Cliente", "find customer")
	}

	p := &model.Prescription{
		ID:                 uuid.New(),
		PrescriptionNumber: strings.TrimSpace(req.PrescriptionNumber),
		CustomerID:         customerID,
		DoctorName:         strings.TrimSpace(req.DoctorName),
		DoctorLicense:      req.DoctorLicense,
		IssueDate:          *issue,
		ExpirationDate:     expires,
		Diagnosis:          req.Diagnosis,
		Notes:              req.Notes,
		Status:             model.PrescriptionPending,
	}
	for i, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, invalid("item %d: product_id inválido", i+1)
		}
		if it.QuantityPrescribed < 1 {
			return nil, invalid("item %d: la cantidad debe ser mayor a cero", i+1)
		}
		if _, err := s.products.FindByID(ctx, pid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("Producto", pid.String())
			}
			return nil, translate(err, "Producto", "find product")
		}
		p.Items = append(p.Items, model.PrescriptionItem{
			ID:                 uuid.New(),
			PrescriptionID:     p.ID,
			ProductID:          pid,
			QuantityPrescribed: it.QuantityPrescribed,
			DosageInstructions: it.DosageInstructions,
			TreatmentDuration:  it.TreatmentDuration,
		})
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, translate(err, "Receta", "create prescription")
	}
	resp := prescriptionToResponse(p)
	s.notifier.publish(ctx, realtime.PrescriptionCreated, resp)
	return &resp, nil
}

func (s *prescriptionService) Get(ctx context.Context, id uuid.UUID) (*dto.PrescriptionResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Receta", id.String())
	}
	if err != nil {
		return nil, translate(err, "Receta", "find prescription")
	}
	resp := prescriptionToResponse(p)
	return &resp, nil
}

func prescriptionsToResponse(list []model.Prescription, err error) ([]dto.PrescriptionResponse, error) {
	if err != nil {
		return nil, translate(err, "Receta", "list prescriptions")
	}
	out := make([]dto.PrescriptionResponse, 0, len(list))
	for i := range list {
		out = append(out, prescriptionToResponse(&list[i]))
	}
	return out, nil
}

func (s *prescriptionService) List(ctx context.Context, filter dto.PrescriptionFilter) (*dto.PrescriptionListResponse, error) {
	if filter.Status != "" && !prescriptionStatuses[filter.Status] {
		return nil, invalid("estado de receta inválido: %s", filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	list, total, err := s.repo.List(ctx, filter)
	data, err := prescriptionsToResponse(list, err)
	if err != nil {
		return nil, err
	}
	return &dto.PrescriptionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *prescriptionService) Search(ctx context.Context, term string) ([]dto.PrescriptionResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, &ValidationError{Msg: "el término de búsqueda es obligatorio", Fields: map[string]string{"q": "required"}}
	}
	return prescriptionsToResponse(s.repo.Search(ctx, term))
}

func (s *prescriptionService) Pending(ctx context.Context) ([]dto.PrescriptionResponse, error) {
	return prescriptionsToResponse(s.repo.ListPending(ctx, s.now()))
}

func (s *prescriptionService) Expired(ctx context.Context) ([]dto.PrescriptionResponse, error) {
	return prescriptionsToResponse(s.repo.ListExpired(ctx, s.now()))
}

func (s *prescriptionService) ByCustomer(ctx context.Context, customerID uuid.UUID) ([]dto.PrescriptionResponse, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, translate(err, "Cliente", "find customer")
	}
	return prescriptionsToResponse(s.repo.ListByCustomer(ctx, customerID))
}

func (s *prescriptionService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePrescriptionRequest) (*dto.PrescriptionResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Receta", id.String())
	}
	if err != nil {
		return nil, translate(err, "Receta", "find prescription")
	}
	if req.DoctorName != nil {
		p.DoctorName = strings.TrimSpace(*req.DoctorName)
	}
	if req.DoctorLicense != nil {
		p.DoctorLicense = req.DoctorLicense
	}
	if req.IssueDate != nil {
		issue, err := parseDate("issue_date", req.IssueDate)
		if err != nil {
			return nil, err
		}
		if issue != nil {
			p.IssueDate = *issue
		}
	}
	if req.ExpirationDate != nil {
		expires, err := parseDate("expiration_date", req.ExpirationDate)
		if err != nil {
			return nil, err
		}
		p.ExpirationDate = expires
	}
	if req.Diagnosis != nil {
		p.Diagnosis = req.Diagnosis
	}
	if req.Notes != nil {
		p.Notes = req.Notes
	}
	if err := checkPrescriptionDates(p.IssueDate, p.ExpirationDate); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, translate(err, "Receta", "update prescription")
	}
	resp := prescriptionToResponse(p)
	s.notifier.publish(ctx, realtime.PrescriptionUpdated, resp)
	return &resp, nil
}

func (s *prescriptionService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*dto.PrescriptionResponse, error) {
	resp, err := s.setStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.notifier.publish(ctx, realtime.PrescriptionStatusUpdated, resp)
	return resp, nil
}

// Cancel is the delete operation: the prescription stays for the record.
func (s *prescriptionService) Cancel(ctx context.Context, id uuid.UUID) error {
	resp, err := s.setStatus(ctx, id, model.PrescriptionCancelled)
	if err != nil {
		return err
	}
	s.notifier.publish(ctx, realtime.PrescriptionDeleted, resp)
	return nil
}

func (s *prescriptionService) setStatus(ctx context.Context, id uuid.UUID, status string) (*dto.PrescriptionResponse, error) {
	if !prescriptionStatuses[status] {
		return nil, invalid("estado de receta inválido: %s", status)
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Receta", id.String())
		}
		return nil, translate(err, "Receta", "update prescription status")
	}
	return s.Get(ctx, id)
}

func (s *prescriptionService) Dispense(ctx context.Context, itemID uuid.UUID, qty int) (*dto.PrescriptionResponse, error) {
	if qty < 1 {
		return nil, &ValidationError{Msg: "la cantidad a dispensar debe ser mayor a cero", Fields: map[string]string{"quantity": "min"}}
	}

	var prescriptionID uuid.UUID
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		item, err := s.repo.FindItemTx(tx, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Item de receta", itemID.String())
		}
		if err != nil {
			return err
		}
		prescriptionID = item.PrescriptionID

		p, err := s.repo.FindForUpdateTx(tx, item.PrescriptionID)
		if err != nil {
			return err
		}
		if p.Status == model.PrescriptionCancelled {
			return conflict("la receta %s está anulada", p.PrescriptionNumber)
		}
		y, m, d := s.now().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if p.ExpirationDate != nil && p.ExpirationDate.Before(today) {
			return invalid("la receta %s está vencida", p.PrescriptionNumber)
		}

		idx := -1
		for i := range p.Items {
			if p.Items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return notFound("Item de receta", itemID.String())
		}
		it := &p.Items[idx]
		if qty > it.Pending() {
			return &ValidationError{
				Msg:    "la cantidad dispensada excede la prescrita",
				Fields: map[string]string{"quantity": "max"},
			}
		}
		it.QuantityDispensed += qty
		if err := s.repo.SetDispensedTx(tx, it.ID, it.QuantityDispensed); err != nil {
			return err
		}
		return s.repo.SetStatusTx(tx, p.ID, statusAfterDispense(p.Items))
	})
	if err != nil {
		return nil, translate(err, "Receta", "dispense prescription item")
	}
	resp, err := s.Get(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	s.notifier.publish(ctx, realtime.PrescriptionDispensed, resp)
	return resp, nil
}
