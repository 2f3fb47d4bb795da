package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-sedes/internal/application/catalog"
	"github.com/jhoicas/inventario-sedes/internal/application/count"
	"github.com/jhoicas/inventario-sedes/internal/application/inventory"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/application/product"
	"github.com/jhoicas/inventario-sedes/internal/application/remission"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
	"github.com/jhoicas/inventario-sedes/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/inventario-sedes/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-sedes/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/inventario-sedes/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/inventario-sedes/internal/interfaces/http"
	"github.com/jhoicas/inventario-sedes/pkg/config"
	"github.com/jhoicas/inventario-sedes/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// backend agrupa los adaptadores de persistencia de un driver.
type backend struct {
	tx        ports.TxRunner
	caps      ports.CapabilityChecker
	loader    ports.UnitCatalogLoader
	units     repository.UnitRepository
	sites     repository.SiteRepository
	locations repository.LocationRepository
	products  repository.ProductRepository
	suppliers repository.ProductSupplierRepository
	settings  repository.SiteProductSettingRepository
	siteStock repository.SiteStockRepository
	locStock  repository.LocationStockRepository
	movements repository.InventoryMovementRepository
	restocks  repository.RestockRequestRepository
	counts    repository.CountSessionRepository
	health    map[string]httpRouter.HealthCheck
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var be backend
	switch cfg.Storage.Driver {
	case "memory":
		be = memoryBackend()
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
	default:
		be, err = postgresBackend(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
	}
	defer be.close()

	cat := catalog.NewCatalog(be.loader, cfg.UoM.CacheTTL, log.Component("uom"))

	// Redis es opcional: sin él cada proceso depende solo del TTL del cache.
	var invalidator ports.CatalogInvalidator
	if cfg.Redis.URL != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		bus := infraredis.NewCatalogBus(rdb, cfg.Redis.InvalidationChannel, log.Component("uom-bus"))
		invalidator = bus
		go func() {
			if err := bus.Listen(ctx, cat.Invalidate, nil); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("escucha de invalidaciones finalizada")
			}
		}()
		be.health["redis"] = func(ctx context.Context) error { return ping(ctx, rdb) }
	}

	policy := inventory.DefaultPolicy()
	policy.AllowNegativeSiteStock = cfg.Ledger.AllowNegativeSiteStock
	policy.StorageDecimals = cfg.UoM.DefaultDecimals

	ledger := inventory.NewLedger(inventory.Deps{
		Tx:            be.tx,
		Converter:     cat,
		Caps:          be.caps,
		Sites:         be.sites,
		Locations:     be.locations,
		Products:      be.products,
		Suppliers:     be.suppliers,
		Settings:      be.settings,
		SiteStock:     be.siteStock,
		LocationStock: be.locStock,
		Movements:     be.movements,
	}, policy, log.Component("ledger"))

	// PDF: guía de remisión
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)

	uomUC := catalog.NewAdminUseCase(be.units, cat, invalidator, be.caps, log.Component("uom-admin"))
	productUC := product.NewUseCase(be.tx, cat, be.caps, be.products, be.suppliers, log.Component("product"))
	remissionUC := remission.NewUseCase(be.tx, ledger, cat, be.caps, be.sites, be.locations,
		be.products, be.restocks, pdfGenerator, log.Component("remission"))
	countUC := count.NewUseCase(be.tx, ledger, cat, be.caps, be.sites, be.locations,
		be.products, be.counts, log.Component("count"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (generado con swag init).
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Inventario Sedes API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		UoM:          uomUC,
		Products:     productUC,
		Ledger:       ledger,
		Remissions:   remissionUC,
		Counts:       countUC,
		JWTSecret:    cfg.JWT.Secret,
		HealthChecks: be.health,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func memoryBackend() backend {
	store := memory.NewStore()
	store.SeedUnits()
	repos := store.Repos()
	return backend{
		tx:        store,
		caps:      store,
		loader:    store,
		units:     store.Units(),
		sites:     store.Sites(),
		locations: store.Locations(),
		products:  store.Products(),
		suppliers: store.Suppliers(),
		settings:  store.Settings(),
		siteStock: repos.SiteStock,
		locStock:  repos.LocationStock,
		movements: repos.Movements,
		restocks:  repos.Restocks,
		counts:    repos.Counts,
		health:    map[string]httpRouter.HealthCheck{},
		close:     func() {},
	}
}

func postgresBackend(ctx context.Context, cfg config.DBConfig) (backend, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return backend{}, err
	}
	units := postgres.NewUnitRepository(pool)
	return backend{
		tx:        postgres.NewTxRunner(pool),
		caps:      postgres.NewCapabilityChecker(pool),
		loader:    units,
		units:     units,
		sites:     postgres.NewSiteRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		products:  postgres.NewProductRepository(pool),
		suppliers: postgres.NewProductSupplierRepository(pool),
		settings:  postgres.NewSiteProductSettingRepository(pool),
		siteStock: postgres.NewSiteStockRepository(pool),
		locStock:  postgres.NewLocationStockRepository(pool),
		movements: postgres.NewInventoryMovementRepository(pool),
		restocks:  postgres.NewRestockRepository(pool),
		counts:    postgres.NewCountRepository(pool),
		health: map[string]httpRouter.HealthCheck{
			"database": pool.Ping,
		},
		close: pool.Close,
	}, nil
}

func ping(ctx context.Context, rdb *goredis.Client) error {
	return rdb.Ping(ctx).Err()
}
