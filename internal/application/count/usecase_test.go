package count_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sedes/internal/application/catalog"
	"github.com/jhoicas/inventario-sedes/internal/application/count"
	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/inventory"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

const (
	siteA   = "site-a"
	zoneZ   = "zone-z"
	locA1   = "loc-a1"
	locA2   = "loc-a2"
	prodP   = "prod-p"
	prodQ   = "prod-q"
	counter = "cont-1"
	auditor = "aud-1"
)

type fixture struct {
	uc    *count.UseCase
	store *memory.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	store.SeedUnits()
	store.AddSite(entity.Site{ID: siteA, Code: "CP", Type: entity.SiteTypeProductionCenter, Active: true})
	store.AddLocation(entity.Location{ID: zoneZ, SiteID: siteA, Code: "Z", Kind: entity.LocationKindZone})
	store.AddLocation(entity.Location{ID: locA1, SiteID: siteA, ParentID: zoneZ, Code: "A1", Kind: entity.LocationKindLoc})
	store.AddLocation(entity.Location{ID: locA2, SiteID: siteA, ParentID: zoneZ, Code: "A2", Kind: entity.LocationKindLoc})
	store.AddProduct(entity.Product{ID: prodP, SKU: "HAR-01", StockUnitCode: "g", UnitFamily: entity.FamilyMass})
	store.AddProduct(entity.Product{ID: prodQ, SKU: "LEC-01", StockUnitCode: "ml", UnitFamily: entity.FamilyVolume})
	store.Grant(counter, ports.PermInventoryCount, siteA)
	store.Grant(auditor, ports.PermInventoryAdjust, siteA)

	cat := catalog.NewCatalog(store, 0, zerolog.Nop())
	repos := store.Repos()
	ledger := inventory.NewLedger(inventory.Deps{
		Tx: store, Converter: cat, Caps: store,
		Sites: store.Sites(), Locations: store.Locations(), Products: store.Products(),
		Suppliers: store.Suppliers(), Settings: store.Settings(),
		SiteStock: repos.SiteStock, LocationStock: repos.LocationStock, Movements: repos.Movements,
	}, inventory.DefaultPolicy(), zerolog.Nop())
	uc := count.NewUseCase(store, ledger, cat, store, store.Sites(), store.Locations(),
		store.Products(), repos.Counts, zerolog.Nop())
	return fixture{uc: uc, store: store}
}

func (f fixture) open(t *testing.T, scope, locationID string) *dto.CountSessionResponse {
	t.Helper()
	cs, err := f.uc.Open(context.Background(), counter, dto.OpenCountRequest{
		SiteID: siteA, ScopeType: scope, ScopeLocationID: locationID,
	})
	require.NoError(t, err)
	return cs
}

func lineOf(t *testing.T, cs *dto.CountSessionResponse, productID string) dto.CountLineResponse {
	t.Helper()
	for _, l := range cs.Lines {
		if l.ProductID == productID {
			return l
		}
	}
	t.Fatalf("sin línea para %s", productID)
	return dto.CountLineResponse{}
}

func TestCount_CierreYAprobacionIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SetSiteStock(siteA, prodP, d("1000"))

	cs := f.open(t, "site", "")
	assert.Equal(t, "open", cs.Status)

	cs, err := f.uc.RecordCounts(ctx, counter, cs.ID, dto.RecordCountsRequest{
		Lines: []dto.CountLineInput{{ProductID: prodP, Quantity: d("0.95"), Unit: "kilo"}},
	})
	require.NoError(t, err)
	l := lineOf(t, cs, prodP)
	assert.True(t, d("950").Equal(l.QuantityCounted))
	assert.Equal(t, "kg", l.InputUnit)

	// Un movimiento entre el conteo y el cierre cuenta para la foto.
	f.store.SetSiteStock(siteA, prodP, d("1020"))

	cs, err = f.uc.Close(ctx, counter, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed", cs.Status)
	l = lineOf(t, cs, prodP)
	require.NotNil(t, l.CurrentQtyAtClose)
	assert.True(t, d("1020").Equal(*l.CurrentQtyAtClose))
	assert.True(t, d("-70").Equal(*l.QuantityDelta))

	res, err := f.uc.ApproveAdjustments(ctx, auditor, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, dto.OutcomeApplied, res.Lines[0].Outcome)
	assert.NotEmpty(t, res.Lines[0].MovementID)
	assert.True(t, d("950").Equal(f.store.SiteStockQty(siteA, prodP)))

	movs := f.store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementAdjustment, movs[0].Type)
	assert.True(t, d("-70").Equal(movs[0].Quantity))
	assert.Equal(t, "Ajuste por conteo sesión "+cs.ID, movs[0].Note)

	again, err := f.uc.ApproveAdjustments(ctx, auditor, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Applied)
	assert.Equal(t, 1, again.Skipped)
	assert.Equal(t, dto.OutcomeSkipped, again.Lines[0].Outcome)
	assert.Len(t, f.store.Movements(), 1)
	assert.True(t, d("950").Equal(f.store.SiteStockQty(siteA, prodP)))

	got, err := f.uc.Get(ctx, cs.ID)
	require.NoError(t, err)
	assert.NotNil(t, lineOf(t, got, prodP).AdjustmentAppliedAt)
}

func TestCount_FallaDeUnaLineaNoDetieneLasDemas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SetSiteStock(siteA, prodP, d("100"))
	f.store.SetSiteStock(siteA, prodQ, d("500"))

	cs := f.open(t, "site", "")
	_, err := f.uc.RecordCounts(ctx, counter, cs.ID, dto.RecordCountsRequest{Lines: []dto.CountLineInput{
		{ProductID: prodP, Quantity: d("120"), Unit: "g"},
		{ProductID: prodQ, Quantity: d("0.4"), Unit: "l"},
	}})
	require.NoError(t, err)
	_, err = f.uc.Close(ctx, counter, cs.ID)
	require.NoError(t, err)

	// La unidad de stock de P deja de existir en el catálogo: su ajuste falla.
	f.store.AddProduct(entity.Product{ID: prodP, SKU: "HAR-01", StockUnitCode: "arroba", UnitFamily: entity.FamilyMass})

	res, err := f.uc.ApproveAdjustments(ctx, auditor, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, prodP, res.Lines[0].ProductID)
	assert.Equal(t, dto.OutcomeFailed, res.Lines[0].Outcome)
	assert.NotEmpty(t, res.Lines[0].Error)
	assert.Equal(t, dto.OutcomeApplied, res.Lines[1].Outcome)

	assert.True(t, d("100").Equal(f.store.SiteStockQty(siteA, prodP)))
	assert.True(t, d("400").Equal(f.store.SiteStockQty(siteA, prodQ)))

	// Corregido el producto, la línea fallida se aplica y la otra se omite.
	f.store.AddProduct(entity.Product{ID: prodP, SKU: "HAR-01", StockUnitCode: "g", UnitFamily: entity.FamilyMass})
	res, err = f.uc.ApproveAdjustments(ctx, auditor, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Skipped)
	assert.True(t, d("120").Equal(f.store.SiteStockQty(siteA, prodP)))
	assert.Len(t, f.store.Movements(), 2)
}

func TestCount_SinDiferenciaNoGeneraMovimiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SetSiteStock(siteA, prodP, d("300"))

	cs := f.open(t, "site", "")
	_, err := f.uc.RecordCounts(ctx, counter, cs.ID, dto.RecordCountsRequest{
		Lines: []dto.CountLineInput{{ProductID: prodP, Quantity: d("300"), Unit: "g"}},
	})
	require.NoError(t, err)
	_, err = f.uc.Close(ctx, counter, cs.ID)
	require.NoError(t, err)

	res, err := f.uc.ApproveAdjustments(ctx, auditor, cs.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeNoDelta, res.Lines[0].Outcome)
	assert.Empty(t, f.store.Movements())
}

func TestCount_ZonaSumaUbicacionesHijas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SetSiteStock(siteA, prodP, d("100"))
	f.store.SetLocationStock(locA1, prodP, d("40"))
	f.store.SetLocationStock(locA2, prodP, d("60"))

	cs := f.open(t, "zone", zoneZ)
	_, err := f.uc.RecordCounts(ctx, counter, cs.ID, dto.RecordCountsRequest{
		Lines: []dto.CountLineInput{{ProductID: prodP, Quantity: d("90"), Unit: "g"}},
	})
	require.NoError(t, err)
	cs, err = f.uc.Close(ctx, counter, cs.ID)
	require.NoError(t, err)
	l := lineOf(t, cs, prodP)
	assert.True(t, d("100").Equal(*l.CurrentQtyAtClose))
	assert.True(t, d("-10").Equal(*l.QuantityDelta))

	_, err = f.uc.ApproveAdjustments(ctx, auditor, cs.ID)
	require.NoError(t, err)
	assert.True(t, d("90").Equal(f.store.SiteStockQty(siteA, prodP)))
	// En zona el ajuste no se reparte entre ubicaciones.
	assert.True(t, d("40").Equal(f.store.LocationStockQty(locA1, prodP)))
	assert.True(t, d("60").Equal(f.store.LocationStockQty(locA2, prodP)))
}

func TestCount_ZonaIncluyeSubzonas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddLocation(entity.Location{ID: "zone-z1", SiteID: siteA, ParentID: zoneZ, Code: "Z1", Kind: entity.LocationKindZone})
	f.store.AddLocation(entity.Location{ID: "loc-z1a", SiteID: siteA, ParentID: "zone-z1", Code: "Z1A", Kind: entity.LocationKindLoc})
	f.store.SetSiteStock(siteA, prodP, d("130"))
	f.store.SetLocationStock(locA1, prodP, d("40"))
	f.store.SetLocationStock(locA2, prodP, d("60"))
	f.store.SetLocationStock("loc-z1a", prodP, d("30"))

	cs := f.open(t, "zone", zoneZ)
	_, err := f.uc.RecordCounts(ctx, counter, cs.ID, dto.RecordCountsRequest{
		Lines: []dto.CountLineInput{{ProductID: prodP, Quantity: d("125"), Unit: "g"}},
	})
	require.NoError(t, err)
	cs, err = f.uc.Close(ctx, counter, cs.ID)
	require.NoError(t, err)
	l := lineOf(t, cs, prodP)
	assert.True(t, d("130").Equal(*l.CurrentQtyAtClose), "got %s", l.CurrentQtyAtClose)
	assert.True(t, d("-5").Equal(*l.QuantityDelta))
}

func TestCount_UbicacionAjustaTambienLaUbicacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SetSiteStock(siteA, prodP, d("100"))
	f.store.SetLocationStock(locA1, prodP, d("40"))

	cs := f.open(t, "loc", locA1)
	_, err := f.uc.RecordCounts(ctx, counter, cs.ID, dto.RecordCountsRequest{
		Lines: []dto.CountLineInput{{ProductID: prodP, Quantity: d("45"), Unit: "g"}},
	})
	require.NoError(t, err)
	_, err = f.uc.Close(ctx, counter, cs.ID)
	require.NoError(t, err)
	_, err = f.uc.ApproveAdjustments(ctx, auditor, cs.ID)
	require.NoError(t, err)

	assert.True(t, d("105").Equal(f.store.SiteStockQty(siteA, prodP)))
	assert.True(t, d("45").Equal(f.store.LocationStockQty(locA1, prodP)))
	movs := f.store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, locA1, movs[0].LocationID)
}

func TestCount_ValidacionesDeEstadoYAlcance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Open(ctx, counter, dto.OpenCountRequest{SiteID: siteA, ScopeType: "zone", ScopeLocationID: locA1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.Open(ctx, counter, dto.OpenCountRequest{SiteID: siteA, ScopeType: "loc"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.uc.Open(ctx, auditor, dto.OpenCountRequest{SiteID: siteA, ScopeType: "site"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cs := f.open(t, "site", "")
	_, err = f.uc.ApproveAdjustments(ctx, auditor, cs.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.uc.RecordCounts(ctx, counter, cs.ID, dto.RecordCountsRequest{
		Lines: []dto.CountLineInput{{ProductID: prodP, Quantity: d("1"), Unit: "l"}},
	})
	assert.ErrorIs(t, err, domain.ErrIncompatibleFamily)

	_, err = f.uc.Close(ctx, counter, cs.ID)
	require.NoError(t, err)
	_, err = f.uc.RecordCounts(ctx, counter, cs.ID, dto.RecordCountsRequest{
		Lines: []dto.CountLineInput{{ProductID: prodP, Quantity: d("1"), Unit: "g"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.uc.Close(ctx, counter, cs.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.uc.ApproveAdjustments(ctx, counter, cs.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
