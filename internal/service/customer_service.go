package service

import (
	"context"
	"strings"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/realtime"
	"botica/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CustomerService interface {
	Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error)
	List(ctx context.Context, filter dto.CustomerFilter) (*dto.CustomerListResponse, error)
	Search(ctx context.Context, term string, limit int) ([]dto.CustomerResponse, error)
	ListVIP(ctx context.Context) ([]dto.CustomerResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, id uuid.UUID, page, limit int) (*dto.SaleListResponse, error)
	Stats(ctx context.Context, id uuid.UUID) (*dto.CustomerStatsResponse, error)
}

type customerService struct {
	repo     repository.CustomerRepository
	sales    repository.SaleRepository
	notifier *Notifier
}

// NewCustomerService builds the service. A nil notifier publishes nothing.
func NewCustomerService(repo repository.CustomerRepository, sales repository.SaleRepository, notifier *Notifier) CustomerService {
	if notifier == nil {
		notifier = NewNotifier(nil, nil, "")
	}
	return &customerService{repo: repo, sales: sales, notifier: notifier}
}

// blankToNil drops empty optional strings so unique indexes ignore them.
func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *customerService) Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	c := &model.Customer{
		ID:             uuid.New(),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          blankToNil(req.Email),
		Phone:          blankToNil(req.Phone),
		Address:        blankToNil(req.Address),
		City:           orDefault(req.City, "Lima"),
		Country:        orDefault(req.Country, "Perú"),
		DocumentType:   orDefault(req.DocumentType, "DNI"),
		DocumentNumber: blankToNil(req.DocumentNumber),
		CustomerType:   orDefault(req.CustomerType, model.CustomerRegular),
		Status:         "active",
		TotalPurchases: decimal.Zero,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, translate(err, "Cliente", "create customer")
	}
	resp := customerToResponse(c)
	s.notifier.publish(ctx, realtime.CustomerCreated, resp)
	return &resp, nil
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Cliente", "find customer")
	}
	resp := customerToResponse(c)
	return &resp, nil
}

func (s *customerService) List(ctx context.Context, filter dto.CustomerFilter) (*dto.CustomerListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, translate(err, "Cliente", "list customers")
	}
	return &dto.CustomerListResponse{
		Data:  customersToResponse(list),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *customerService) Search(ctx context.Context, term string, limit int) ([]dto.CustomerResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, &ValidationError{Msg: "el término de búsqueda es obligatorio", Fields: map[string]string{"q": "required"}}
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	list, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		return nil, translate(err, "Cliente", "search customers")
	}
	return customersToResponse(list), nil
}

func (s *customerService) ListVIP(ctx context.Context) ([]dto.CustomerResponse, error) {
	list, _, err := s.repo.List(ctx, dto.CustomerFilter{CustomerType: model.CustomerVIP, Page: 1, Limit: 500})
	if err != nil {
		return nil, translate(err, "Cliente", "list vip customers")
	}
	return customersToResponse(list), nil
}

func customersToResponse(list []model.Customer) []dto.CustomerResponse {
	out := make([]dto.CustomerResponse, 0, len(list))
	for i := range list {
		out = append(out, customerToResponse(&list[i]))
	}
	return out
}

func (s *customerService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Cliente", "find customer")
	}
	if req.FirstName != nil {
		c.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		c.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		c.Email = blankToNil(req.Email)
	}
	if req.Phone != nil {
		c.Phone = blankToNil(req.Phone)
	}
	if req.Address != nil {
		c.Address = blankToNil(req.Address)
	}
	if req.City != nil {
		c.City = *req.City
	}
	if req.Country != nil {
		c.Country = *req.Country
	}
	if req.DocumentType != nil {
		c.DocumentType = *req.DocumentType
	}
	if req.DocumentNumber != nil {
		c.DocumentNumber = blankToNil(req.DocumentNumber)
	}
	if req.CustomerType != nil {
		c.CustomerType = *req.CustomerType
	}
	if req.Status != nil {
		c.Status = *req.Status
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, translate(err, "Cliente", "update customer")
	}
	resp := customerToResponse(c)
	s.notifier.publish(ctx, realtime.CustomerUpdated, resp)
	return &resp, nil
}

func (s *customerService) Deactivate(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translate(err, "Cliente", "find customer")
	}
	if err := s.repo.SetStatus(ctx, id, "inactive"); err != nil {
		return translate(err, "Cliente", "deactivate customer")
	}
	c.Status = "inactive"
	s.notifier.publish(ctx, realtime.CustomerDeleted, customerToResponse(c))
	return nil
}

// History lists every sale of the customer, newest first.
func (s *customerService) History(ctx context.Context, id uuid.UUID, page, limit int) (*dto.SaleListResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, translate(err, "Cliente", "find customer")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	filter := dto.SaleFilter{CustomerID: id.String(), Status: "all", Page: page, Limit: limit}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, translate(err, "Venta", "customer history")
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *customerService) Stats(ctx context.Context, id uuid.UUID) (*dto.CustomerStatsResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Cliente", "find customer")
	}
	st, err := s.repo.PurchaseStats(ctx, id)
	if err != nil {
		return nil, translate(err, "Cliente", "customer stats")
	}
	avg := decimal.Zero
	if st.TotalOrders > 0 {
		avg = st.TotalSpent.Decimal.Div(decimal.NewFromInt(st.TotalOrders)).Round(2)
	}
	return &dto.CustomerStatsResponse{
		CustomerID:        c.ID.String(),
		FullName:          c.FirstName + " " + c.LastName,
		CustomerType:      c.CustomerType,
		TotalPurchases:    c.TotalPurchases,
		TotalOrders:       st.TotalOrders,
		LastPurchaseDate:  st.LastPurchaseDate,
		AverageOrderValue: avg,
	}, nil
}
