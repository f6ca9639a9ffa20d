package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

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

type stubLocationRepo struct {
	locations map[uuid.UUID]*model.Location
	stock     map[uuid.UUID]map[uuid.UUID]int
	boxes     int
}

func newStubLocationRepo() *stubLocationRepo {
	return &stubLocationRepo{
		locations: make(map[uuid.UUID]*model.Location),
		stock:     make(map[uuid.UUID]map[uuid.UUID]int),
	}
}

func (r *stubLocationRepo) Create(_ context.Context, l *model.Location) error {
	cp := *l
	r.locations[l.ID] = &cp
	return nil
}

func (r *stubLocationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *stubLocationRepo) filter(keep func(*model.Location) bool) []model.Location {
	var out []model.Location
	for _, l := range r.locations {
		if keep(l) {
			out = append(out, *l)
		}
	}
	return out
}

func (r *stubLocationRepo) List(_ context.Context, activeOnly bool) ([]model.Location, error) {
	return r.filter(func(l *model.Location) bool { return !activeOnly || l.IsActive }), nil
}

func (r *stubLocationRepo) Search(_ context.Context, term string) ([]model.Location, error) {
	term = strings.ToLower(term)
	return r.filter(func(l *model.Location) bool { return strings.Contains(strings.ToLower(l.Name), term) }), nil
}

func (r *stubLocationRepo) ListByType(_ context.Context, locationType string) ([]model.Location, error) {
	return r.filter(func(l *model.Location) bool { return l.IsActive && l.LocationType == locationType }), nil
}

func (r *stubLocationRepo) ListWithinBox(_ context.Context, minLat, maxLat, minLng, maxLng float64) ([]model.Location, error) {
	r.boxes++
	return r.filter(func(l *model.Location) bool {
		return l.IsActive &&
			l.Latitude >= minLat && l.Latitude <= maxLat &&
			l.Longitude >= minLng && l.Longitude <= maxLng
	}), nil
}

func (r *stubLocationRepo) Update(_ context.Context, l *model.Location) error {
	if _, ok := r.locations[l.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *l
	r.locations[l.ID] = &cp
	return nil
}

func (r *stubLocationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.locations, id)
	return nil
}

func (r *stubLocationRepo) Counts(_ context.Context) (repository.LocationCounts, error) {
	var c repository.LocationCounts
	for _, l := range r.locations {
		c.TotalLocations++
		if !l.IsActive {
			continue
		}
		c.ActiveLocations++
		switch l.LocationType {
		case model.LocationWarehouse:
			c.Warehouses++
		case model.LocationStore:
			c.Stores++
		}
	}
	return c, nil
}

func (r *stubLocationRepo) AddProduct(_ context.Context, locationID, productID uuid.UUID, quantity int) error {
	if r.stock[locationID] == nil {
		r.stock[locationID] = make(map[uuid.UUID]int)
	}
	r.stock[locationID][productID] += quantity
	return nil
}

func (r *stubLocationRepo) RemoveProduct(_ context.Context, locationID, productID uuid.UUID) error {
	delete(r.stock[locationID], productID)
	return nil
}

func (r *stubLocationRepo) ListProducts(_ context.Context, locationID uuid.UUID) ([]model.ProductLocation, error) {
	var out []model.ProductLocation
	for pid, qty := range r.stock[locationID] {
		out = append(out, model.ProductLocation{LocationID: locationID, ProductID: pid, Quantity: qty, UpdatedAt: time.Now()})
	}
	return out, nil
}

var _ repository.LocationRepository = (*stubLocationRepo)(nil)

func f64(v float64) *float64 { return &v }

func createLocation(t *testing.T, svc service.LocationService, name, kind string, lat, lng float64) *dto.LocationResponse {
	t.Helper()
	l, err := svc.Create(context.Background(), dto.CreateLocationRequest{
		Name: name, LocationType: kind, Latitude: f64(lat), Longitude: f64(lng),
	})
	require.NoError(t, err)
	return l
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 111.19, service.HaversineKm(0, 0, 0, 1), 0.01)
	assert.InDelta(t, 111.19, service.HaversineKm(0, 0, 1, 0), 0.01)
	assert.Zero(t, service.HaversineKm(-12.0464, -77.0428, -12.0464, -77.0428))
	assert.InDelta(t,
		service.HaversineKm(-12.0464, -77.0428, -16.4090, -71.5375),
		service.HaversineKm(-16.4090, -71.5375, -12.0464, -77.0428),
		1e-9)
}

func TestNearby_FiltersByRadiusAndSortsByDistance(t *testing.T) {
	repo := newStubLocationRepo()
	svc := service.NewLocationService(repo, newStubProductRepo(), nil)

	far := createLocation(t, svc, "Sucursal Chosica", model.LocationStore, -11.9369, -76.6973)
	mid := createLocation(t, svc, "Sucursal Miraflores", model.LocationStore, -12.1211, -77.0297)
	near := createLocation(t, svc, "Almacén Central", model.LocationWarehouse, -12.0500, -77.0400)
	closed := createLocation(t, svc, "Sucursal Cerrada", model.LocationStore, -12.0470, -77.0430)
	_, err := svc.Update(context.Background(), uuid.MustParse(closed.ID), dto.UpdateLocationRequest{IsActive: new(bool)})
	require.NoError(t, err)

	got, err := svc.Nearby(context.Background(), -12.0464, -77.0428, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, near.ID, got[0].ID)
	assert.Equal(t, mid.ID, got[1].ID)
	require.NotNil(t, got[0].DistanceKm)
	assert.Less(t, *got[0].DistanceKm, *got[1].DistanceKm)
	assert.LessOrEqual(t, *got[1].DistanceKm, 10.0)

	got, err = svc.Nearby(context.Background(), -12.0464, -77.0428, 50)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, far.ID, got[2].ID)
	assert.Equal(t, 2, repo.boxes)
}

func TestNearby_InvalidCoordinates(t *testing.T) {
	svc := service.NewLocationService(newStubLocationRepo(), newStubProductRepo(), nil)

	_, err := svc.Nearby(context.Background(), 91, 0, 5)
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "latitude")

	_, err = svc.Nearby(context.Background(), 0, -180.5, 5)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "longitude")
}

func TestCreateLocation_Validation(t *testing.T) {
	svc := service.NewLocationService(newStubLocationRepo(), newStubProductRepo(), nil)
	var ve *service.ValidationError

	_, err := svc.Create(context.Background(), dto.CreateLocationRequest{Name: "Sin coordenadas"})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Create(context.Background(), dto.CreateLocationRequest{
		Name: "Tipo raro", LocationType: "kiosk", Latitude: f64(-12), Longitude: f64(-77),
	})
	assert.ErrorAs(t, err, &ve)

	l := createLocation(t, svc, "Por defecto", "", -12, -77)
	assert.Equal(t, model.LocationStore, l.LocationType)
	assert.True(t, l.IsActive)
}

func TestLocationStatsAndDelete(t *testing.T) {
	svc := service.NewLocationService(newStubLocationRepo(), newStubProductRepo(), nil)
	createLocation(t, svc, "Almacén", model.LocationWarehouse, -12, -77)
	store := createLocation(t, svc, "Tienda", model.LocationStore, -12.1, -77)

	require.NoError(t, svc.Delete(context.Background(), uuid.MustParse(store.ID)))

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalLocations)
	assert.Equal(t, int64(1), st.ActiveLocations)
	assert.Equal(t, int64(1), st.Warehouses)
	assert.Equal(t, int64(0), st.Stores)

	list, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestLocationAddProduct(t *testing.T) {
	inv := newInventory(true)
	repo := newStubLocationRepo()
	svc := service.NewLocationService(repo, inv.products, inv.notifier)
	l := createLocation(t, svc, "Almacén", model.LocationWarehouse, -12, -77)
	p := inv.seedProduct("Amoxicilina 500mg", 30, 10, 100)
	lid := uuid.MustParse(l.ID)

	_, err := svc.AddProduct(context.Background(), lid, dto.AddProductToLocationRequest{ProductID: p.ID.String(), Quantity: 5})
	require.NoError(t, err)
	list, err := svc.AddProduct(context.Background(), lid, dto.AddProductToLocationRequest{ProductID: p.ID.String(), Quantity: 3})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 8, list[0].Quantity)

	_, err = svc.AddProduct(context.Background(), lid, dto.AddProductToLocationRequest{ProductID: uuid.NewString(), Quantity: 1})
	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = svc.AddProduct(context.Background(), lid, dto.AddProductToLocationRequest{ProductID: p.ID.String(), Quantity: 0})
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLocation_PublishesChanges(t *testing.T) {
	inv := newInventory(true)
	svc := service.NewLocationService(newStubLocationRepo(), inv.products, inv.notifier)
	ctx := context.Background()

	l := createLocation(t, svc, "Sucursal Surco", model.LocationStore, -12.14, -77.0)
	lid := uuid.MustParse(l.ID)
	name := "Sucursal Surco Centro"
	_, err := svc.Update(ctx, lid, dto.UpdateLocationRequest{Name: &name})
	require.NoError(t, err)

	p := inv.seedProduct("Loratadina 10mg", 40, 5, 100)
	_, err = svc.AddProduct(ctx, lid, dto.AddProductToLocationRequest{ProductID: p.ID.String(), Quantity: 6})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, lid))

	assert.Equal(t, []string{
		realtime.LocationCreated,
		realtime.LocationUpdated,
		realtime.LocationProductsUpdated,
		realtime.LocationDeleted,
	}, inv.pub.types())

	var stock dto.LocationProductsEvent
	require.NoError(t, json.Unmarshal(inv.pub.events[2].Payload, &stock))
	assert.Equal(t, l.ID, stock.LocationID)
	require.Len(t, stock.Products, 1)
	assert.Equal(t, 6, stock.Products[0].Quantity)

	// Rejected input publishes nothing.
	_, err = svc.AddProduct(ctx, lid, dto.AddProductToLocationRequest{ProductID: p.ID.String(), Quantity: 0})
	assert.Error(t, err)
	assert.Len(t, inv.pub.types(), 4)
}
