// Package app is the composition root: it opens the store, builds the
// domain services and wires metrics, idempotency and mobile money into them.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"sealedger/internal/config"
	"sealedger/internal/core/clock"
	"sealedger/internal/core/id"
	"sealedger/internal/core/store"
	"sealedger/internal/domain"
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
	"sealedger/internal/infrastructure/disbursement/mobilemoney"
	v1 "sealedger/internal/infrastructure/http/v1"
	"sealedger/internal/infrastructure/metrics"
	"sealedger/internal/infrastructure/numerator"
	"sealedger/internal/infrastructure/storage"
	"sealedger/pkg/logger"
)

// Options configure the domain services.
type Options struct {
	WarehouseSiteID string
	DeletionPolicy  cultivation.DeletionPolicy
	RejectOverdraw  bool
	Payroll         payments.PayrollConfig
	// Disburser is nil when mobile money is not configured
	Disburser payments.Disburser
}

// NewServices builds every domain service over deps and attaches the
// cross-service cascades.
func NewServices(deps domain.Deps, opts Options) v1.Services {
	numbers := numerator.New()

	sites := site.NewService(deps)
	farmers := farmer.NewService(deps)
	creditTypes := credittype.NewService(deps)

	credits := credit.NewService(deps)
	credits.AttachCascades(farmers, creditTypes)

	mods := modules.NewService(deps)
	cuttings := cutting.NewService(deps, credits)
	st := stock.NewService(deps, opts.RejectOverdraw)
	pr := pressed.NewService(deps, opts.WarehouseSiteID, opts.RejectOverdraw)

	cycles := cultivation.NewService(deps, mods, cuttings, st, opts.DeletionPolicy)
	cycles.AttachCascades(mods)

	deliveries := delivery.NewService(deps, numbers, st, pr)

	return v1.Services{
		Sites:            sites,
		Farmers:          farmers,
		Employees:        employee.NewService(deps, sites),
		SeaweedTypes:     seaweedtype.NewService(deps),
		CreditTypes:      creditTypes,
		ServiceProviders: serviceprovider.NewService(deps),
		Modules:          mods,
		Cultivation:      cycles,
		Cuttings:         cuttings,
		Credits:          credits,
		Stock:            st,
		Pressed:          pr,
		Deliveries:       deliveries,
		Pressing:         pressing.NewService(deps, numbers, st, pr),
		Exports:          export.NewService(deps, numbers, pr),
		Transfers:        transfer.NewService(deps, st, pr),
		Payments:         payments.NewService(deps, credits, cycles, deliveries, cuttings, opts.Disburser, opts.Payroll),
	}
}

// App is a fully wired ledger.
type App struct {
	Config      *config.Config
	Logger      *logger.Logger
	Store       store.Store
	Tx          *storage.TxManager
	Metrics     *metrics.Metrics
	Idempotency *cache.IdempotencyStore
	Services    v1.Services
}

// New opens the configured store and wires the services.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	ctx = logger.WithLogger(ctx, log)

	st, err := storage.Open(ctx, storage.Config{
		Driver:            cfg.Storage.Driver,
		DSN:               cfg.Storage.DSN,
		Path:              cfg.Storage.Path,
		Database:          cfg.Storage.Database,
		Table:             cfg.Storage.Table,
		CompressThreshold: cfg.Storage.CompressThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	m := metrics.New()
	txm := storage.NewTxManager(st)
	txm.SetObserver(m)

	var disburser payments.Disburser
	if cfg.MobileMoney.Enabled() {
		client := mobilemoney.NewClient(mobilemoney.Config{
			BaseURL:  cfg.MobileMoney.BaseURL,
			APIKey:   cfg.MobileMoney.APIKey,
			Currency: cfg.MobileMoney.Currency,
			Timeout:  cfg.MobileMoney.Timeout,
		})
		client.SetObserver(m)
		disburser = client
	} else {
		log.Warnw("mobile money is not configured, disbursements will fail")
	}

	deps := domain.Deps{Tx: txm, Clock: clock.System{}, IDs: id.UUIDGenerator{}}
	services := NewServices(deps, Options{
		WarehouseSiteID: cfg.Ledger.WarehouseSiteID,
		DeletionPolicy:  cultivation.DeletionPolicy(cfg.Ledger.DeletionPolicy),
		RejectOverdraw:  cfg.Ledger.RejectOverdraw,
		Payroll:         PayrollFromConfig(cfg.Payroll),
		Disburser:       disburser,
	})
	services.Stock.SetObserver(m)
	services.Pressed.SetObserver(m)

	if err := services.CreditTypes.EnsureCutting(ctx); err != nil {
		_ = storage.Close(ctx, st)
		return nil, fmt.Errorf("ensure cutting credit type: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   log,
		Store:    st,
		Tx:       txm,
		Metrics:  m,
		Services: services,
	}
	if cfg.Server.IdempotencyEnabled {
		a.Idempotency = cache.NewIdempotencyStore(cfg.Server.IdempotencyTTL)
	}
	return a, nil
}

// PayrollFromConfig converts configured statutory rates.
func PayrollFromConfig(c config.PayrollConfig) payments.PayrollConfig {
	out := payments.PayrollConfig{Rates: make([]payments.StatutoryRate, 0, len(c.Rates))}
	for _, r := range c.Rates {
		out.Rates = append(out.Rates, payments.StatutoryRate{Label: r.Label, Percent: r.Percent})
	}
	return out
}

// Router builds the HTTP handler.
func (a *App) Router() *gin.Engine {
	return v1.NewRouter(v1.RouterConfig{
		Services:      a.Services,
		Store:         a.Store,
		StorageDriver: a.Config.Storage.Driver,
		Logger:        a.Logger,
		Idempotency:   a.Idempotency,
		Metrics:       a.Metrics.Handler(),
		Mode:          a.Config.Server.GinMode,
	})
}

// RunBackground starts housekeeping goroutines until ctx is done.
func (a *App) RunBackground(ctx context.Context) {
	if a.Idempotency != nil {
		go a.Idempotency.RunCleanup(ctx, 10*time.Minute)
	}
}

// Close releases the store.
func (a *App) Close(ctx context.Context) error {
	return storage.Close(ctx, a.Store)
}
