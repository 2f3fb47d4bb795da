package inventory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sedes/internal/application/catalog"
	"github.com/jhoicas/inventario-sedes/internal/application/inventory"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
	"github.com/jhoicas/inventario-sedes/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

const (
	siteA  = "site-a"
	locA1  = "loc-a1"
	locA2  = "loc-a2"
	prodP  = "prod-p"
	actor  = "user-1"
	nobody = "user-2"
)

func newLedger(t *testing.T, policy inventory.Policy) (*inventory.Ledger, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedUnits()
	store.AddSite(entity.Site{ID: siteA, Code: "CP", Name: "Centro", Type: entity.SiteTypeProductionCenter, Active: true})
	store.AddLocation(entity.Location{ID: locA1, SiteID: siteA, Code: "A1", Kind: entity.LocationKindLoc, Active: true})
	store.AddLocation(entity.Location{ID: locA2, SiteID: siteA, Code: "A2", Kind: entity.LocationKindLoc, Active: true})
	store.AddProduct(entity.Product{ID: prodP, SKU: "P", Name: "Harina", StockUnitCode: "g", UnitFamily: entity.FamilyMass})
	store.Grant(actor, ports.PermInventoryMove, siteA)

	cat := catalog.NewCatalog(store, 0, zerolog.Nop())
	ledger := inventory.NewLedger(inventory.Deps{
		Tx:            store,
		Converter:     cat,
		Caps:          store,
		Sites:         store.Sites(),
		Locations:     store.Locations(),
		Products:      store.Products(),
		Suppliers:     store.Suppliers(),
		Settings:      store.Settings(),
		SiteStock:     store.Repos().SiteStock,
		LocationStock: store.Repos().LocationStock,
		Movements:     store.Repos().Movements,
	}, policy, zerolog.Nop())
	return ledger, store
}

func TestApplyMovement_ConvierteAUnidadDeStock(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())

	mov, err := ledger.ApplyMovement(context.Background(), inventory.MovementInput{
		SiteID: siteA, ProductID: prodP, Type: entity.MovementReceiptIn,
		InputQty: d("2"), InputUnitCode: "Kilo", Note: "compra", ActorID: actor,
	})
	require.NoError(t, err)

	assert.True(t, d("2000").Equal(mov.Quantity))
	assert.Equal(t, "kg", mov.InputUnitCode, "se guarda el código canónico, no el alias")
	assert.True(t, d("1000").Equal(mov.ConversionFactorToStock))
	assert.Equal(t, "g", mov.StockUnitCode)
	assert.True(t, d("2000").Equal(store.SiteStockQty(siteA, prodP)))
	assert.Len(t, store.Movements(), 1)
}

func TestApplyMovement_SalidaYAjusteConSigno(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())
	store.SetSiteStock(siteA, prodP, d("1000"))
	ctx := context.Background()

	_, err := ledger.ApplyMovement(ctx, inventory.MovementInput{
		SiteID: siteA, ProductID: prodP, Type: entity.MovementProductionConsume,
		InputQty: d("0.25"), InputUnitCode: "kg", ActorID: actor,
	})
	require.NoError(t, err)
	assert.True(t, d("750").Equal(store.SiteStockQty(siteA, prodP)))

	mov, err := ledger.ApplyMovement(ctx, inventory.MovementInput{
		SiteID: siteA, ProductID: prodP, Type: entity.MovementAdjustment,
		InputQty: d("-50"), InputUnitCode: "g", ActorID: actor,
	})
	require.NoError(t, err)
	assert.True(t, d("-50").Equal(mov.Quantity))
	assert.True(t, d("700").Equal(store.SiteStockQty(siteA, prodP)))
}

func TestApplyMovement_FamiliaIncompatibleNoEscribe(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())

	_, err := ledger.ApplyMovement(context.Background(), inventory.MovementInput{
		SiteID: siteA, ProductID: prodP, Type: entity.MovementReceiptIn,
		InputQty: d("1"), InputUnitCode: "l", ActorID: actor,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIncompatibleFamily))
	var perr *domain.ProductError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, prodP, perr.ProductID)

	assert.Empty(t, store.Movements())
	assert.False(t, store.HasSiteStockRow(siteA, prodP))
}

func TestApplyMovement_UnidadDesconocida(t *testing.T) {
	ledger, _ := newLedger(t, inventory.DefaultPolicy())

	_, err := ledger.ApplyMovement(context.Background(), inventory.MovementInput{
		SiteID: siteA, ProductID: prodP, Type: entity.MovementReceiptIn,
		InputQty: d("1"), InputUnitCode: "arroba", ActorID: actor,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnitNotFound))
	var uerr *domain.UnitError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "arroba", uerr.Code)
}

func TestApplyMovement_SinPermiso(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())

	_, err := ledger.ApplyMovement(context.Background(), inventory.MovementInput{
		SiteID: siteA, ProductID: prodP, Type: entity.MovementReceiptIn,
		InputQty: d("1"), InputUnitCode: "g", ActorID: nobody,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, store.Movements())
}

func TestApplyMovement_TrasladoInternoNoPermitido(t *testing.T) {
	ledger, _ := newLedger(t, inventory.DefaultPolicy())

	_, err := ledger.ApplyMovement(context.Background(), inventory.MovementInput{
		SiteID: siteA, ProductID: prodP, Type: entity.MovementTransferInternal,
		InputQty: d("1"), InputUnitCode: "g", ActorID: actor,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApplyMovement_StockNegativoSegunPolitica(t *testing.T) {
	ctx := context.Background()
	in := inventory.MovementInput{
		SiteID: siteA, ProductID: prodP, Type: entity.MovementProductionConsume,
		InputQty: d("100"), InputUnitCode: "g", ActorID: actor,
	}

	t.Run("tolerado y marcado", func(t *testing.T) {
		ledger, store := newLedger(t, inventory.DefaultPolicy())
		_, err := ledger.ApplyMovement(ctx, in)
		require.NoError(t, err)
		assert.True(t, d("-100").Equal(store.SiteStockQty(siteA, prodP)))

		stock, err := ledger.GetSiteStock(ctx, siteA)
		require.NoError(t, err)
		require.Len(t, stock, 1)
		assert.True(t, stock[0].Negative)
	})

	t.Run("rechazado", func(t *testing.T) {
		ledger, store := newLedger(t, inventory.Policy{AllowNegativeSiteStock: false})
		_, err := ledger.ApplyMovement(ctx, in)
		assert.ErrorIs(t, err, domain.ErrNegativeSiteStock)
		assert.True(t, store.SiteStockQty(siteA, prodP).IsZero())
		assert.Empty(t, store.Movements())
	})
}

func TestApplyMovement_ConUbicacion(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())

	_, err := ledger.ApplyMovement(context.Background(), inventory.MovementInput{
		SiteID: siteA, ProductID: prodP, LocationID: locA1, Type: entity.MovementReceiptIn,
		InputQty: d("1.5"), InputUnitCode: "kg", ActorID: actor,
	})
	require.NoError(t, err)
	assert.True(t, d("1500").Equal(store.SiteStockQty(siteA, prodP)))
	assert.True(t, d("1500").Equal(store.LocationStockQty(locA1, prodP)))

	unlocated, err := ledger.FindUnlocatedStock(context.Background(), siteA)
	require.NoError(t, err)
	assert.Empty(t, unlocated)
}

func TestApplyLocationDelta_NuncaNegativo(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())
	ctx := context.Background()

	_, err := ledger.ApplyLocationDelta(ctx, actor, locA1, prodP, d("30"))
	require.NoError(t, err)
	_, err = ledger.ApplyLocationDelta(ctx, actor, locA1, prodP, d("-20"))
	require.NoError(t, err)

	_, err = ledger.ApplyLocationDelta(ctx, actor, locA1, prodP, d("-10.5"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientLocationStock)
	var serr *domain.StockError
	require.True(t, errors.As(err, &serr))
	assert.True(t, d("10").Equal(serr.Available))
	assert.True(t, d("10.5").Equal(serr.Requested))

	assert.True(t, d("10").Equal(store.LocationStockQty(locA1, prodP)), "el valor previo se conserva")

	_, err = ledger.ApplyLocationDelta(ctx, actor, locA1, prodP, d("-10"))
	require.NoError(t, err)
	assert.True(t, store.LocationStockQty(locA1, prodP).IsZero())
}

func TestTransferBetweenLocations(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())
	store.SetSiteStock(siteA, prodP, d("800"))
	store.SetLocationStock(locA1, prodP, d("800"))
	ctx := context.Background()

	mov, err := ledger.TransferBetweenLocations(ctx, inventory.TransferInput{
		SiteID: siteA, ProductID: prodP, FromLocationID: locA1, ToLocationID: locA2,
		InputQty: d("0.3"), InputUnitCode: "kg", ActorID: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTransferInternal, mov.Type)
	assert.True(t, strings.HasPrefix(mov.Note, "Traslado "+mov.ID))
	assert.True(t, strings.HasSuffix(mov.Note, "A1 -> A2"))
	assert.True(t, d("500").Equal(store.LocationStockQty(locA1, prodP)))
	assert.True(t, d("300").Equal(store.LocationStockQty(locA2, prodP)))
	assert.True(t, d("800").Equal(store.SiteStockQty(siteA, prodP)), "el stock de la sede no cambia")

	_, err = ledger.TransferBetweenLocations(ctx, inventory.TransferInput{
		SiteID: siteA, ProductID: prodP, FromLocationID: locA2, ToLocationID: locA1,
		InputQty: d("301"), InputUnitCode: "g", ActorID: actor,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientLocationStock)
	assert.True(t, d("300").Equal(store.LocationStockQty(locA2, prodP)))
	assert.True(t, d("500").Equal(store.LocationStockQty(locA1, prodP)))
	assert.Len(t, store.Movements(), 1)
}

func TestFindUnlocatedStock(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())
	store.AddProduct(entity.Product{ID: "prod-q", StockUnitCode: "un", UnitFamily: entity.FamilyCount})
	store.SetSiteStock(siteA, prodP, d("1000"))
	store.SetLocationStock(locA1, prodP, d("600"))
	store.SetSiteStock(siteA, "prod-q", d("-3"))

	out, err := ledger.FindUnlocatedStock(context.Background(), siteA)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, prodP, out[0].ProductID)
	assert.True(t, d("400").Equal(out[0].UnlocatedQty))
	assert.True(t, d("1000").Equal(store.SiteStockQty(siteA, prodP)), "solo informa, no corrige")
}

func TestListMovements_Filtra(t *testing.T) {
	ledger, _ := newLedger(t, inventory.DefaultPolicy())
	ctx := context.Background()
	for _, q := range []string{"1", "2", "3"} {
		_, err := ledger.ApplyMovement(ctx, inventory.MovementInput{
			SiteID: siteA, ProductID: prodP, Type: entity.MovementReceiptIn,
			InputQty: d(q), InputUnitCode: "g", ActorID: actor,
		})
		require.NoError(t, err)
	}

	list, err := ledger.ListMovements(ctx, repository.MovementFilter{SiteID: siteA, Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, d("3").Equal(list[0].Quantity), "más reciente primero")

	list, err = ledger.ListMovements(ctx, repository.MovementFilter{SiteID: "otra"})
	require.NoError(t, err)
	assert.Empty(t, list)
}
