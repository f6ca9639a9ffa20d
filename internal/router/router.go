package router

import (
	"time"

	"botica/internal/config"
	"botica/internal/handler"
	"botica/internal/middleware"
	"botica/internal/realtime"
	"botica/internal/repository"
	"botica/internal/service"
	"botica/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// broadcaster and dispatcher may be nil, in which case events are dropped
// and no jobs are queued.
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	hub *realtime.Hub,
	broadcaster *realtime.RedisBroadcaster,
	dispatcher *worker.Dispatcher,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Event delivery and jobs ──────────────────────────────────────────────
	var (
		pub     realtime.Publisher = realtime.NopPublisher{}
		breaker handler.BreakerReporter
		jobs    service.Jobs
	)
	if broadcaster != nil {
		pub = broadcaster
		breaker = broadcaster
	}
	if dispatcher != nil {
		jobs = dispatcher
	}
	notifier := service.NewNotifier(pub, jobs, cfg.AlertEmailTo)

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	priceRepo := repository.NewPriceHistoryRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	alertSvc := service.NewAlertService(alertRepo, productRepo, notifier, cfg.AlertAutoResolve)
	stockSvc := service.NewStockService(productRepo, movementRepo, alertSvc, notifier)
	productSvc := service.NewProductService(productRepo, categoryRepo, priceRepo, stockSvc, alertSvc, notifier, rdb)
	saleSvc := service.NewSaleService(saleRepo, productRepo, customerRepo, stockSvc, notifier, cfg.CancelRestoresStock)
	categorySvc := service.NewCategoryService(categoryRepo)
	customerSvc := service.NewCustomerService(customerRepo, saleRepo, notifier)
	locationSvc := service.NewLocationService(locationRepo, productRepo, notifier)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, customerRepo, productRepo, notifier)

	// ── Handlers ─────────────────────────────────────────────────────────────
	salesH := handler.NewSalesHandler(saleSvc)
	productsH := handler.NewProductsHandler(productSvc, stockSvc, alertSvc)
	priceH := handler.NewPriceLookupHandler(productRepo, rdb)
	alertsH := handler.NewAlertsHandler(alertSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	locationsH := handler.NewLocationsHandler(locationSvc)
	prescriptionsH := handler.NewPrescriptionsHandler(prescriptionSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb, breaker))

	v1 := r.Group("/v1")
	{
		sales := v1.Group("/sales")
		{
			sales.POST("", salesH.Create)
			sales.GET("", salesH.List)
			sales.GET("/stats", salesH.Stats)
			sales.GET("/top-products", salesH.TopProducts)
			sales.GET("/:id", salesH.Get)
			sales.GET("/:id/receipt", salesH.Receipt)
			sales.PATCH("/:id/cancel", salesH.Cancel)
		}

		products := v1.Group("/products")
		{
			products.GET("", productsH.List)
			products.POST("", productsH.Create)
			products.GET("/search", productsH.Search)
			products.GET("/low-stock", productsH.LowStock)
			products.GET("/sku/:sku", priceH.BySKU)
			products.GET("/:id", productsH.Get)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
			products.GET("/:id/movements", productsH.Movements)
			products.GET("/:id/price-history", productsH.PriceHistory)
			products.PATCH("/:id/stock", productsH.AdjustStock)
			products.PATCH("/:id/alerts/resolve", productsH.ResolveAlerts)
		}

		v1.GET("/inventory/drift", productsH.Drift)

		alerts := v1.Group("/alerts")
		{
			alerts.GET("", alertsH.List)
			alerts.POST("", alertsH.Create)
			alerts.GET("/active", alertsH.Active)
			alerts.GET("/stats", alertsH.Stats)
			alerts.GET("/:id", alertsH.Get)
			alerts.DELETE("/:id", alertsH.Delete)
			alerts.PATCH("/:id/resolve", alertsH.Resolve)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", categoriesH.List)
			categories.POST("", categoriesH.Create)
			categories.PUT("/:id", categoriesH.Update)
			categories.DELETE("/:id", categoriesH.Delete)
		}

		customers := v1.Group("/customers")
		{
			customers.GET("", customersH.List)
			customers.POST("", customersH.Create)
			customers.GET("/search", customersH.Search)
			customers.GET("/vip", customersH.VIP)
			customers.GET("/:id", customersH.Get)
			customers.PUT("/:id", customersH.Update)
			customers.DELETE("/:id", customersH.Delete)
			customers.GET("/:id/history", customersH.History)
			customers.GET("/:id/stats", customersH.Stats)
		}

		locations := v1.Group("/locations")
		{
			locations.GET("", locationsH.List)
			locations.POST("", locationsH.Create)
			locations.GET("/search", locationsH.Search)
			locations.GET("/nearby", locationsH.Nearby)
			locations.GET("/stats", locationsH.Stats)
			locations.GET("/type/:type", locationsH.ByType)
			locations.GET("/:id", locationsH.Get)
			locations.PUT("/:id", locationsH.Update)
			locations.DELETE("/:id", locationsH.Delete)
			locations.GET("/:id/products", locationsH.Products)
			locations.POST("/:id/products", locationsH.AddProduct)
		}

		prescriptions := v1.Group("/prescriptions")
		{
			prescriptions.GET("", prescriptionsH.List)
			prescriptions.POST("", prescriptionsH.Create)
			prescriptions.GET("/search", prescriptionsH.Search)
			prescriptions.GET("/pending", prescriptionsH.Pending)
			prescriptions.GET("/expired", prescriptionsH.Expired)
			prescriptions.GET("/customer/:customerId", prescriptionsH.ByCustomer)
			prescriptions.GET("/:id", prescriptionsH.Get)
			prescriptions.PUT("/:id", prescriptionsH.Update)
			prescriptions.DELETE("/:id", prescriptionsH.Delete)
			prescriptions.PATCH("/:id/status", prescriptionsH.UpdateStatus)
			prescriptions.PATCH("/items/:itemId/dispense", prescriptionsH.Dispense)
		}

		if hub != nil {
			v1.GET("/events", handler.NewEventsHandler(hub).Stream)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
