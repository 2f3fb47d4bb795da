package product_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sedes/internal/application/catalog"
	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/application/product"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

const (
	admin = "admin-1"
	siteA = "site-a"
	locA1 = "loc-a1"
)

func newUseCase(t *testing.T) (*product.UseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedUnits()
	store.AddSite(entity.Site{ID: siteA, Code: "CP", Type: entity.SiteTypeProductionCenter, Active: true})
	store.AddLocation(entity.Location{ID: locA1, SiteID: siteA, Code: "A1", Kind: entity.LocationKindLoc})
	store.Grant(admin, ports.PermCatalogAdmin, "")
	cat := catalog.NewCatalog(store, 0, zerolog.Nop())
	uc := product.NewUseCase(store, cat, store, store.Products(), store.Suppliers(), zerolog.Nop())
	return uc, store
}

func TestProduct_CreateConCosteoAutomatico(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	p, err := uc.Create(ctx, admin, dto.CreateProductRequest{
		SKU: "HAR-01", Name: "Harina", StockUnit: "gr",
		CostingMode: entity.CostingModeAutoPrimarySupplier,
		PrimarySupplier: &dto.SupplierRequest{
			SupplierID: "prov-1", SupplierName: "Molinos", PackPrice: d("20000"), PackQty: d("1"), PackUnit: "kilo",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "g", p.StockUnit)
	assert.Equal(t, "mass", p.UnitFamily)
	assert.True(t, d("20").Equal(p.Cost), "cost=%s", p.Cost)

	ready, err := uc.AutoCostReadiness(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ready.Ready)
	assert.Equal(t, "ready", ready.Reason)
}

func TestProduct_CostoExplicitoNoSeRecalcula(t *testing.T) {
	uc, _ := newUseCase(t)
	cost := d("18")
	p, err := uc.Create(context.Background(), admin, dto.CreateProductRequest{
		SKU: "HAR-02", Name: "Harina integral", StockUnit: "g",
		CostingMode: entity.CostingModeAutoPrimarySupplier, Cost: &cost,
		PrimarySupplier: &dto.SupplierRequest{SupplierID: "prov-1", PackPrice: d("20000"), PackQty: d("1"), PackUnit: "kg"},
	})
	require.NoError(t, err)
	assert.True(t, d("18").Equal(p.Cost))
}

func TestProduct_ReadinessExplicaElMotivo(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	p, err := uc.Create(ctx, admin, dto.CreateProductRequest{
		SKU: "LEC-01", Name: "Leche", StockUnit: "ml", CostingMode: entity.CostingModeAutoPrimarySupplier,
	})
	require.NoError(t, err)
	assert.True(t, p.Cost.IsZero())

	r, err := uc.AutoCostReadiness(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, r.Ready)
	assert.Equal(t, "no primary supplier", r.Reason)

	require.NoError(t, uc.SetSupplier(ctx, admin, p.ID, dto.SupplierRequest{
		SupplierID: "prov-2", IsPrimary: true, PackPrice: d("4000"), PackQty: d("1"), PackUnit: "kg",
	}))
	r, err = uc.AutoCostReadiness(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "incompatible units", r.Reason)

	_, err = uc.RecomputeAutoCost(ctx, admin, p.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, uc.SetSupplier(ctx, admin, p.ID, dto.SupplierRequest{
		SupplierID: "prov-2", IsPrimary: true, PackPrice: d("4000"), PackQty: d("1"), PackUnit: "litro",
	}))
	got, err := uc.RecomputeAutoCost(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.True(t, d("4").Equal(got.Cost))
}

func TestProduct_CambioDeUnidadBloqueadoConExistencias(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	cost := d("20")
	p, err := uc.Create(ctx, admin, dto.CreateProductRequest{SKU: "AZU-01", Name: "Azúcar", StockUnit: "g", Cost: &cost})
	require.NoError(t, err)

	// Sin historia el cambio es libre y el costo se reescala.
	got, err := uc.ChangeStockUnit(ctx, admin, p.ID, "kg")
	require.NoError(t, err)
	assert.Equal(t, "kg", got.StockUnit)
	assert.True(t, d("20000").Equal(got.Cost))

	store.SetSiteStock(siteA, p.ID, d("3"))
	store.SetLocationStock(locA1, p.ID, d("1.5"))
	_, err = uc.ChangeStockUnit(ctx, admin, p.ID, "g")
	assert.ErrorIs(t, err, domain.ErrStockUnitLocked)

	_, err = uc.MigrateStockUnit(ctx, admin, p.ID, "ml")
	assert.ErrorIs(t, err, domain.ErrIncompatibleFamily)

	m, err := uc.MigrateStockUnit(ctx, admin, p.ID, "g")
	require.NoError(t, err)
	assert.Equal(t, "kg", m.FromUnit)
	assert.Equal(t, "g", m.ToUnit)
	assert.Equal(t, 1, m.SiteRows)
	assert.Equal(t, 1, m.LocationRows)
	assert.True(t, d("20").Equal(m.Cost))
	assert.True(t, d("3000").Equal(store.SiteStockQty(siteA, p.ID)))
	assert.True(t, d("1500").Equal(store.LocationStockQty(locA1, p.ID)))

	after, err := uc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "g", after.StockUnit)
}

func TestProduct_RequiereCatalogAdmin(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.Create(context.Background(), "nadie", dto.CreateProductRequest{SKU: "X", Name: "X", StockUnit: "g"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Create(context.Background(), admin, dto.CreateProductRequest{SKU: "X", Name: "X", StockUnit: "arroba"})
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)
}
