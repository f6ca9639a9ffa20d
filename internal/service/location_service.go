package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"botica/internal/dto"
	"botica/internal/model"
	"botica/internal/realtime"
	"botica/internal/repository"

	"github.com/google/uuid"
)

const (
	earthRadiusKm       = 6371.0
	defaultNearbyRadius = 10.0
)

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// boundingBox returns a lat/lng box containing every point within radiusKm.
// The longitude span is exact for a sphere, so no point of the circle is cut.
func boundingBox(lat, lng, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	deg := 180 / math.Pi
	angular := radiusKm / earthRadiusKm
	minLat = math.Max(lat-angular*deg, -90)
	maxLat = math.Min(lat+angular*deg, 90)

	cosLat := math.Cos(lat / deg)
	if maxLat >= 90 || minLat <= -90 || math.Sin(angular) >= cosLat {
		return minLat, maxLat, -180, 180
	}
	dLng := math.Asin(math.Sin(angular)/cosLat) * deg
	if lng-dLng < -180 || lng+dLng > 180 {
		// Box crosses the antimeridian.
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, lng - dLng, lng + dLng
}

var locationTypes = map[string]bool{
	model.LocationWarehouse: true,
	model.LocationStore:     true,
	model.LocationCustomer:  true,
	model.LocationSupplier:  true,
	model.LocationOther:     true,
}

type LocationService interface {
	Create(ctx context.Context, req dto.CreateLocationRequest) (*dto.LocationResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.LocationResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.LocationResponse, error)
	Search(ctx context.Context, term string) ([]dto.LocationResponse, error)
	ListByType(ctx context.Context, locationType string) ([]dto.LocationResponse, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]dto.LocationResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateLocationRequest) (*dto.LocationResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*dto.LocationStatsResponse, error)
	Products(ctx context.Context, id uuid.UUID) ([]dto.LocationProductResponse, error)
	AddProduct(ctx context.Context, id uuid.UUID, req dto.AddProductToLocationRequest) ([]dto.LocationProductResponse, error)
}

type locationService struct {
	repo     repository.LocationRepository
	products repository.ProductRepository
	notifier *Notifier
}

// NewLocationService builds the service. A nil notifier publishes nothing.
func NewLocationService(repo repository.LocationRepository, products repository.ProductRepository, notifier *Notifier) LocationService {
	if notifier == nil {
		notifier = NewNotifier(nil, nil, "")
	}
	return &locationService{repo: repo, products: products, notifier: notifier}
}

func checkCoordinates(lat, lng float64) error {
	fields := map[string]string{}
	if lat < -90 || lat > 90 {
		fields["latitude"] = "range"
	}
	if lng < -180 || lng > 180 {
		fields["longitude"] = "range"
	}
	if len(fields) > 0 {
		return &ValidationError{Msg: "coordenadas fuera de rango", Fields: fields}
	}
	return nil
}

func (s *locationService) Create(ctx context.Context, req dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, &ValidationError{Msg: "latitud y longitud son obligatorias", Fields: map[string]string{"latitude": "required", "longitude": "required"}}
	}
	if err := checkCoordinates(*req.Latitude, *req.Longitude); err != nil {
		return nil, err
	}
	kind := orDefault(req.LocationType, model.LocationStore)
	if !locationTypes[kind] {
		return nil, invalid("tipo de ubicación inválido: %s", kind)
	}
	l := &model.Location{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Address:      req.Address,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		LocationType: kind,
		IsActive:     true,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, translate(err, "Ubicación", "create location")
	}
	resp := locationToResponse(l)
	s.notifier.publish(ctx, realtime.LocationCreated, resp)
	return &resp, nil
}

func (s *locationService) Get(ctx context.Context, id uuid.UUID) (*dto.LocationResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Ubicación", "find location")
	}
	resp := locationToResponse(l)
	return &resp, nil
}

func locationsToResponse(list []model.Location, err error) ([]dto.LocationResponse, error) {
	if err != nil {
		return nil, translate(err, "Ubicación", "list locations")
	}
	out := make([]dto.LocationResponse, 0, len(list))
	for i := range list {
		out = append(out, locationToResponse(&list[i]))
	}
	return out, nil
}

func (s *locationService) List(ctx context.Context, includeInactive bool) ([]dto.LocationResponse, error) {
	return locationsToResponse(s.repo.List(ctx, !includeInactive))
}

func (s *locationService) Search(ctx context.Context, term string) ([]dto.LocationResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, &ValidationError{Msg: "el término de búsqueda es obligatorio", Fields: map[string]string{"q": "required"}}
	}
	return locationsToResponse(s.repo.Search(ctx, term))
}

func (s *locationService) ListByType(ctx context.Context, locationType string) ([]dto.LocationResponse, error) {
	if !locationTypes[locationType] {
		return nil, invalid("tipo de ubicación inválido: %s", locationType)
	}
	return locationsToResponse(s.repo.ListByType(ctx, locationType))
}

// Nearby returns active locations within radiusKm of (lat, lng), nearest
// first. A non-positive radius means the default of 10 km.
func (s *locationService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]dto.LocationResponse, error) {
	if err := checkCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadius
	}

	minLat, maxLat, minLng, maxLng := boundingBox(lat, lng, radiusKm)
	candidates, err := s.repo.ListWithinBox(ctx, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, translate(err, "Ubicación", "nearby locations")
	}

	out := make([]dto.LocationResponse, 0, len(candidates))
	for i := range candidates {
		d := HaversineKm(lat, lng, candidates[i].Latitude, candidates[i].Longitude)
		if d > radiusKm {
			continue
		}
		resp := locationToResponse(&candidates[i])
		dist := math.Round(d*100) / 100
		resp.DistanceKm = &dist
		out = append(out, resp)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].DistanceKm < *out[j].DistanceKm })
	return out, nil
}

func (s *locationService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Ubicación", "find location")
	}
	if req.Name != nil {
		l.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		l.Description = req.Description
	}
	if req.Address != nil {
		l.Address = req.Address
	}
	if req.Latitude != nil {
		l.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		l.Longitude = *req.Longitude
	}
	if req.LocationType != nil {
		if !locationTypes[*req.LocationType] {
			return nil, invalid("tipo de ubicación inválido: %s", *req.LocationType)
		}
		l.LocationType = *req.LocationType
	}
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
	if req.ContactName != nil {
		l.ContactName = req.ContactName
	}
	if req.ContactPhone != nil {
		l.ContactPhone = req.ContactPhone
	}
	if err := checkCoordinates(l.Latitude, l.Longitude); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, translate(err, "Ubicación", "update location")
	}
	resp := locationToResponse(l)
	s.notifier.publish(ctx, realtime.LocationUpdated, resp)
	return &resp, nil
}

// Delete deactivates the location; its product rows are kept.
func (s *locationService) Delete(ctx context.Context, id uuid.UUID) error {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translate(err, "Ubicación", "find location")
	}
	l.IsActive = false
	if err := s.repo.Update(ctx, l); err != nil {
		return translate(err, "Ubicación", "deactivate location")
	}
	s.notifier.publish(ctx, realtime.LocationDeleted, locationToResponse(l))
	return nil
}

func (s *locationService) Stats(ctx context.Context) (*dto.LocationStatsResponse, error) {
	c, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, translate(err, "Ubicación", "location stats")
	}
	return &dto.LocationStatsResponse{
		TotalLocations:  c.TotalLocations,
		ActiveLocations: c.ActiveLocations,
		Warehouses:      c.Warehouses,
		Stores:          c.Stores,
	}, nil
}

func (s *locationService) Products(ctx context.Context, id uuid.UUID) ([]dto.LocationProductResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, translate(err, "Ubicación", "find location")
	}
	list, err := s.repo.ListProducts(ctx, id)
	if err != nil {
		return nil, translate(err, "Ubicación", "list location products")
	}
	out := make([]dto.LocationProductResponse, 0, len(list))
	for _, pl := range list {
		item := dto.LocationProductResponse{
			ProductID: pl.ProductID.String(),
			Quantity:  pl.Quantity,
			UpdatedAt: pl.UpdatedAt,
		}
		if pl.Product != nil {
			item.Name = pl.Product.Name
			item.SKU = pl.Product.SKU
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *locationService) AddProduct(ctx context.Context, id uuid.UUID, req dto.AddProductToLocationRequest) ([]dto.LocationProductResponse, error) {
	if req.Quantity < 1 {
		return nil, &ValidationError{Msg: "la cantidad debe ser mayor a cero", Fields: map[string]string{"quantity": "min"}}
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, invalid("product_id inválido")
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Ubicación", "find location")
	}
	if !l.IsActive {
		return nil, invalid("la ubicación %s está inactiva", l.Name)
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, translate(err, "Producto", "find product")
	}
	if err := s.repo.AddProduct(ctx, id, productID, req.Quantity); err != nil {
		return nil, translate(err, "Ubicación", "add product to location")
	}
	products, err := s.Products(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifier.publish(ctx, realtime.LocationProductsUpdated, dto.LocationProductsEvent{
		LocationID: id.String(),
		Products:   products,
	})
	return products, nil
}
