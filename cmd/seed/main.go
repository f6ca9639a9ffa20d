// Seed carga un catálogo de demo (categorías, productos con stock
// inicial, una ubicación y un cliente). Es idempotente: lo ya existente se omite.
// Uso: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"botica/internal/config"
	"botica/internal/dto"
	"botica/internal/infra"
	"botica/internal/repository"
	"botica/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type seedProduct struct {
	sku, name, category, unit string
	price, cost               string
	quantity, minLevel        int
	prescription              bool
}

var categories = []string{"Analgésicos", "Antibióticos", "Vitaminas", "Cuidado personal"}

var products = []seedProduct{
	{"PAR-500", "Paracetamol 500mg x 100", "Analgésicos", "caja", "12.50", "8.00", 40, 10, false},
	{"IBU-400", "Ibuprofeno 400mg x 50", "Analgésicos", "caja", "15.90", "10.20", 8, 10, false},
	{"AMX-500", "Amoxicilina 500mg x 21", "Antibióticos", "caja", "24.00", "16.50", 25, 5, true},
	{"VTC-1G", "Vitamina C 1g efervescente", "Vitaminas", "tubo", "9.80", "5.40", 0, 5, false},
	{"ALC-250", "Alcohol medicinal 250ml", "Cuidado personal", "frasco", "4.50", "2.10", 120, 20, false},
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	ctx := context.Background()

	notifier := service.NewNotifier(nil, nil, "")
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	alertSvc := service.NewAlertService(repository.NewAlertRepository(db), productRepo, notifier, cfg.AlertAutoResolve)
	stockSvc := service.NewStockService(productRepo, repository.NewStockMovementRepository(db), alertSvc, notifier)
	productSvc := service.NewProductService(productRepo, categoryRepo, repository.NewPriceHistoryRepository(db), stockSvc, alertSvc, notifier, nil)
	categorySvc := service.NewCategoryService(categoryRepo)
	locationSvc := service.NewLocationService(repository.NewLocationRepository(db), productRepo, notifier)
	customerSvc := service.NewCustomerService(repository.NewCustomerRepository(db), repository.NewSaleRepository(db), notifier)

	categoryIDs := make(map[string]string)
	for _, name := range categories {
		c, err := categorySvc.Create(ctx, dto.CreateCategoryRequest{Name: name})
		if skipped(err, "categoría "+name) {
			if existing, findErr := categoryRepo.FindByName(ctx, name); findErr == nil {
				categoryIDs[name] = existing.ID.String()
			}
			continue
		}
		categoryIDs[name] = c.ID
		fmt.Printf("✅ Categoría '%s'\n", name)
	}

	for _, p := range products {
		req := dto.CreateProductRequest{
			Name:                 p.name,
			SKU:                  p.sku,
			UnitPrice:            decimal.RequireFromString(p.price),
			UnitCost:             decimal.RequireFromString(p.cost),
			Unit:                 p.unit,
			Quantity:             p.quantity,
			MinStockLevel:        intPtr(p.minLevel),
			RequiresPrescription: p.prescription,
			CreatedBy:            "seed",
		}
		if id, ok := categoryIDs[p.category]; ok {
			req.CategoryID = strPtr(id)
		}
		resp, err := productSvc.Create(ctx, req)
		if skipped(err, "producto "+p.sku) {
			continue
		}
		fmt.Printf("✅ Producto '%s' (%s) stock %d → %s\n", resp.Name, resp.SKU, resp.Quantity, resp.StockStatus)
	}

	existing, err := locationSvc.Search(ctx, "Almacén Central")
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	if len(existing) > 0 {
		fmt.Println("↷ ubicación ya existe, se omite")
	} else {
		lat, lng := -12.0464, -77.0428
		if _, err := locationSvc.Create(ctx, dto.CreateLocationRequest{
			Name:         "Almacén Central",
			Address:      strPtr("Av. Abancay 123, Lima"),
			Latitude:     &lat,
			Longitude:    &lng,
			LocationType: "warehouse",
		}); err != nil {
			log.Fatal().Err(err).Msg("seed failed")
		}
		fmt.Println("✅ Ubicación 'Almacén Central'")
	}

	if _, err := customerSvc.Create(ctx, dto.CreateCustomerRequest{
		FirstName:      "Cliente",
		LastName:       "Demo",
		Email:          strPtr("cliente.demo@botica.pe"),
		DocumentType:   "DNI",
		DocumentNumber: strPtr("40000000"),
	}); !skipped(err, "cliente") {
		fmt.Println("✅ Cliente 'Cliente Demo'")
	}
}

// skipped reports whether err means the row already exists. Any other error
// aborts the seed.
func skipped(err error, what string) bool {
	if err == nil {
		return false
	}
	var ce *service.ConflictError
	if errors.As(err, &ce) {
		fmt.Printf("↷ %s ya existe, se omite\n", what)
		return true
	}
	log.Fatal().Err(err).Str("item", what).Msg("seed failed")
	return true
}
