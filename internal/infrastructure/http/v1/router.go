// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sealedger/internal/core/store"
	"sealedger/internal/domain/catalogs/credittype"
	"sealedger/internal/domain/catalogs/employee"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/serviceprovider"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/credit"
	"sealedger/internal/domain/cultivation"
	"sealedger/internal/domain/cutting"
	"sealedger/internal/domain/documents/delivery"
	"sealedger/internal/domain/documents/export"
	"sealedger/internal/domain/documents/pressing"
	"sealedger/internal/domain/documents/transfer"
	"sealedger/internal/domain/modules"
	"sealedger/internal/domain/payments"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/internal/domain/registers/stock"
	"sealedger/internal/infrastructure/cache"
	"sealedger/internal/infrastructure/http/v1/handlers"
	"sealedger/internal/infrastructure/http/v1/middleware"
	"sealedger/pkg/logger"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Sites            *site.Service
	Farmers          *farmer.Service
	Employees        *employee.Service
	SeaweedTypes     *seaweedtype.Service
	CreditTypes      *credittype.Service
	ServiceProviders *serviceprovider.Service
	Modules          *modules.Service
	Cultivation      *cultivation.Service
	Cuttings         *cutting.Service
	Credits          *credit.Service
	Stock            *stock.Service
	Pressed          *pressed.Service
	Deliveries       *delivery.Service
	Pressing         *pressing.Service
	Exports          *export.Service
	Transfers        *transfer.Service
	Payments         *payments.Service
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services Services

	// Store backs the readiness probe
	Store         store.Store
	StorageDriver string

	// Logger for request logging
	Logger *logger.Logger

	// Idempotency is nil when Idempotency-Key handling is disabled
	Idempotency *cache.IdempotencyStore

	// Metrics serves /metrics when set
	Metrics http.Handler

	// Mode is a gin mode; empty selects release
	Mode string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Store, cfg.StorageDriver)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	v1 := router.Group("/api/v1")
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	registerCatalogRoutes(v1, cfg.Services)
	registerProductionRoutes(v1, cfg.Services)
	registerStockRoutes(v1, cfg.Services)
	registerDocumentRoutes(v1, cfg.Services)
	handlers.NewPaymentHandler(handlers.NewBaseHandler(), cfg.Services.Payments).Register(v1.Group("/payments"))

	return router
}

// registerCatalogRoutes registers reference data endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, s Services) {
	base := handlers.NewBaseHandler()
	catalogs := rg.Group("/catalog")

	handlers.NewCatalogHandler[*site.Site](base, s.Sites,
		func() *site.Site { return &site.Site{} },
	).Register(catalogs.Group("/sites"))

	handlers.NewCatalogHandler[*farmer.Farmer](base, s.Farmers,
		func() *farmer.Farmer { return &farmer.Farmer{} },
		handlers.WithSiteListing[*farmer.Farmer](s.Farmers.ListBySite),
		handlers.WithSiteReassign[*farmer.Farmer](s.Farmers),
	).Register(catalogs.Group("/farmers"))

	handlers.NewCatalogHandler[*employee.Employee](base, s.Employees,
		func() *employee.Employee { return &employee.Employee{} },
		handlers.WithSiteReassign[*employee.Employee](s.Employees),
	).Register(catalogs.Group("/employees"))

	handlers.NewCatalogHandler[*credittype.CreditType](base, s.CreditTypes,
		func() *credittype.CreditType { return &credittype.CreditType{} },
	).Register(catalogs.Group("/credit-types"))

	handlers.NewCatalogHandler[*serviceprovider.ServiceProvider](base, s.ServiceProviders,
		func() *serviceprovider.ServiceProvider { return &serviceprovider.ServiceProvider{} },
	).Register(catalogs.Group("/service-providers"))

	handlers.NewSeaweedTypeHandler(base, s.SeaweedTypes).Register(catalogs.Group("/seaweed-types"))
}

// registerProductionRoutes registers modules, cycles, cuttings and credits.
func registerProductionRoutes(rg *gin.RouterGroup, s Services) {
	base := handlers.NewBaseHandler()
	handlers.NewModuleHandler(base, s.Modules).Register(rg.Group("/modules"))
	handlers.NewCultivationHandler(base, s.Cultivation).Register(rg.Group("/cycles"))
	handlers.NewCuttingHandler(base, s.Cuttings).Register(rg.Group("/cuttings"))
	handlers.NewCreditHandler(base, s.Credits).Register(rg.Group("/farmer-credit"))
}

// registerStockRoutes registers the two stock registers.
func registerStockRoutes(rg *gin.RouterGroup, s Services) {
	base := handlers.NewBaseHandler()
	handlers.NewStockHandler(base, s.Stock).Register(rg.Group("/stock"))
	handlers.NewWarehouseHandler(base, s.Pressed).Register(rg.Group("/warehouse"))
}

// registerDocumentRoutes registers document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, s Services) {
	base := handlers.NewBaseHandler()
	docs := rg.Group("/document")
	handlers.NewDeliveryHandler(base, s.Deliveries).Register(docs.Group("/deliveries"))
	handlers.NewPressingHandler(base, s.Pressing).Register(docs.Group("/pressing-slips"))
	handlers.NewExportHandler(base, s.Exports).Register(docs.Group("/exports"))
	handlers.NewTransferHandler(base, s.Transfers).Register(docs.Group("/transfers"))
}
