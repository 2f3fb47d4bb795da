//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-sedes/internal/application/catalog"
	"github.com/jhoicas/inventario-sedes/internal/application/inventory"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/application/product"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
	"github.com/jhoicas/inventario-sedes/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-sedes/pkg/config"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("inventario_test"),
		tcPostgres.WithUsername("inventario"),
		tcPostgres.WithPassword("inventario"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	url, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 10, ApplySchema: true})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	seed(t, pool)
	return pool
}

func seed(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	units := postgres.NewUnitRepository(pool)
	for _, u := range []entity.Unit{
		{Code: "g", Name: "Gramo", Family: entity.FamilyMass, FactorToBase: d("1"), Symbol: "g"},
		{Code: "kg", Name: "Kilogramo", Family: entity.FamilyMass, FactorToBase: d("1000"), Symbol: "kg", DisplayDecimals: 3},
	} {
		u.Active, u.CreatedAt, u.UpdatedAt = true, now, now
		require.NoError(t, units.Create(ctx, &u))
	}
	require.NoError(t, units.CreateAlias(ctx, entity.UnitAlias{Alias: "kilo", UnitCode: "kg"}))

	_, err := pool.Exec(ctx, `
		INSERT INTO sites (id, code, name, type) VALUES
			('cp', 'CP', 'Centro de producción', 'production_center'),
			('s1', 'S1', 'Sede norte', 'satellite');
		INSERT INTO locations (id, site_id, code, kind) VALUES ('cp-a1', 'cp', 'A1', 'loc');
		INSERT INTO products (id, sku, name, stock_unit_code, unit_family) VALUES
			('harina', 'HAR-01', 'Harina', 'g', 'mass');`)
	require.NoError(t, err)

	caps := postgres.NewCapabilityChecker(pool)
	require.NoError(t, caps.Grant(ctx, "bodega", ports.PermInventoryMove, "cp"))
}

func newLedger(pool *pgxpool.Pool) *inventory.Ledger {
	units := postgres.NewUnitRepository(pool)
	return inventory.NewLedger(inventory.Deps{
		Tx:            postgres.NewTxRunner(pool),
		Converter:     catalog.NewCatalog(units, 0, zerolog.Nop()),
		Caps:          postgres.NewCapabilityChecker(pool),
		Sites:         postgres.NewSiteRepository(pool),
		Locations:     postgres.NewLocationRepository(pool),
		Products:      postgres.NewProductRepository(pool),
		Suppliers:     postgres.NewProductSupplierRepository(pool),
		Settings:      postgres.NewSiteProductSettingRepository(pool),
		SiteStock:     postgres.NewSiteStockRepository(pool),
		LocationStock: postgres.NewLocationStockRepository(pool),
		Movements:     postgres.NewInventoryMovementRepository(pool),
	}, inventory.DefaultPolicy(), zerolog.Nop())
}

func TestLedger_MovimientosConcurrentesNoPierdenActualizaciones(t *testing.T) {
	pool := setupPool(t)
	ledger := newLedger(pool)
	ctx := context.Background()

	const workers = 20
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := ledger.ApplyMovement(gctx, inventory.MovementInput{
				SiteID: "cp", ProductID: "harina", LocationID: "cp-a1",
				Type: entity.MovementReceiptIn, InputQty: d("0.5"), InputUnitCode: "kilo",
				ActorID: "bodega",
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	stock, err := postgres.NewSiteStockRepository(pool).Get(ctx, "cp", "harina")
	require.NoError(t, err)
	assert.True(t, stock.CurrentQty.Equal(d("10000")), "got %s", stock.CurrentQty)

	loc, err := postgres.NewLocationStockRepository(pool).Get(ctx, "cp-a1", "harina")
	require.NoError(t, err)
	assert.True(t, loc.CurrentQty.Equal(d("10000")))

	n, err := postgres.NewInventoryMovementRepository(pool).CountByProduct(ctx, "harina")
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}

// Una migración g → kg concurrente con ingresos no pierde ni mezcla unidades:
// cada ingreso se convierte a la unidad vigente al momento de su commit.
func TestMigrateStockUnit_ConcurrenteConMovimientos(t *testing.T) {
	pool := setupPool(t)
	ledger := newLedger(pool)
	ctx := context.Background()

	caps := postgres.NewCapabilityChecker(pool)
	require.NoError(t, caps.Grant(ctx, "admin", ports.PermCatalogAdmin, ""))
	units := postgres.NewUnitRepository(pool)
	products := product.NewUseCase(postgres.NewTxRunner(pool), catalog.NewCatalog(units, 0, zerolog.Nop()),
		caps, postgres.NewProductRepository(pool), postgres.NewProductSupplierRepository(pool), zerolog.Nop())

	const workers = 20
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := ledger.ApplyMovement(gctx, inventory.MovementInput{
				SiteID: "cp", ProductID: "harina", LocationID: "cp-a1",
				Type: entity.MovementReceiptIn, InputQty: d("0.5"), InputUnitCode: "kg",
				ActorID: "bodega",
			})
			return err
		})
		if i == workers/2 {
			g.Go(func() error {
				_, err := products.MigrateStockUnit(gctx, "admin", "harina", "kg")
				return err
			})
		}
	}
	require.NoError(t, g.Wait())

	p, err := postgres.NewProductRepository(pool).GetByID(ctx, "harina")
	require.NoError(t, err)
	assert.Equal(t, "kg", p.StockUnitCode)

	stock, err := postgres.NewSiteStockRepository(pool).Get(ctx, "cp", "harina")
	require.NoError(t, err)
	assert.True(t, stock.CurrentQty.Equal(d("10")), "got %s", stock.CurrentQty)

	loc, err := postgres.NewLocationStockRepository(pool).Get(ctx, "cp-a1", "harina")
	require.NoError(t, err)
	assert.True(t, loc.CurrentQty.Equal(d("10")), "got %s", loc.CurrentQty)
}

func TestLedger_FalloRevierteLaTransaccion(t *testing.T) {
	pool := setupPool(t)
	ledger := newLedger(pool)
	ctx := context.Background()

	// Egreso mayor al stock de la ubicación: ni sede ni movimiento deben quedar escritos.
	_, err := ledger.ApplyMovement(ctx, inventory.MovementInput{
		SiteID: "cp", ProductID: "harina", LocationID: "cp-a1",
		Type: entity.MovementProductionConsume, InputQty: d("1"), InputUnitCode: "kg",
		ActorID: "bodega",
	})
	require.Error(t, err)

	stock, err := postgres.NewSiteStockRepository(pool).Get(ctx, "cp", "harina")
	require.NoError(t, err)
	assert.True(t, stock.CurrentQty.IsZero())

	n, err := postgres.NewInventoryMovementRepository(pool).CountByProduct(ctx, "harina")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCapabilityChecker_PermisoGlobal(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	caps := postgres.NewCapabilityChecker(pool)

	ok, err := caps.HasCapability(ctx, "bodega", ports.PermInventoryMove, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, caps.Grant(ctx, "admin", ports.PermCatalogAdmin, ""))
	ok, err = caps.HasCapability(ctx, "admin", ports.PermCatalogAdmin, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCountRepo_LineasYBloqueo(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repo := postgres.NewCountRepository(pool)

	cs := &entity.CountSession{
		ID: "c1", SiteID: "cp", ScopeType: entity.CountScopeLoc, ScopeLocationID: "cp-a1",
		Status: entity.CountOpen, CreatedBy: "contador", CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, cs))
	require.NoError(t, repo.UpsertLine(ctx, &entity.CountLine{
		SessionID: "c1", ProductID: "harina", QuantityCounted: d("950"), InputQty: d("0.95"), InputUnitCode: "kg",
	}))
	// Reconteo reemplaza la línea.
	require.NoError(t, repo.UpsertLine(ctx, &entity.CountLine{
		SessionID: "c1", ProductID: "harina", QuantityCounted: d("900"), InputQty: d("900"), InputUnitCode: "g",
	}))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "cp-a1", got.ScopeLocationID)
	assert.True(t, got.Lines[0].QuantityCounted.Equal(d("900")))

	tx := postgres.NewTxRunner(pool)
	err = tx.Run(ctx, func(repos ports.TxRepos) error {
		line, err := repos.Counts.GetLineForUpdate(ctx, "c1", "harina")
		if err != nil {
			return err
		}
		if line == nil {
			return fmt.Errorf("línea no encontrada")
		}
		now := time.Now()
		delta := d("-100")
		line.QuantityDelta = &delta
		line.AdjustmentAppliedAt = &now
		return repos.Counts.UpsertLine(ctx, line)
	})
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, got.Lines[0].Applied())

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRestockRepo_CreateYList(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	repo := postgres.NewRestockRepository(pool)
	now := time.Now()

	req := &entity.RestockRequest{
		ID: "r1", FromSiteID: "cp", ToSiteID: "s1", Status: entity.RestockPending,
		CreatedBy: "sede", CreatedAt: now, StatusUpdatedAt: now,
		Items: []*entity.RestockRequestItem{
			{ID: "i1", RequestID: "r1", ProductID: "harina", Quantity: d("2"), UnitCode: "kg", ItemStatus: entity.ItemPending},
		},
	}
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Nil(t, got.Items[0].ShippedQuantity)

	shipped := d("1.9")
	got.Items[0].ShippedQuantity = &shipped
	require.NoError(t, repo.UpdateItem(ctx, got.Items[0]))

	list, err := repo.List(ctx, repository.RestockFilter{SiteID: "s1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Items[0].ShippedQuantity.Equal(shipped))
}
