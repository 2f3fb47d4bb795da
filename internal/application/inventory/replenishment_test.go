package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sedes/internal/application/inventory"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

func TestGetLowStockSites(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())
	store.AddProduct(entity.Product{ID: "prod-ok", StockUnitCode: "g", UnitFamily: entity.FamilyMass})
	store.SetMinStock(siteA, prodP, d("1000"))
	store.SetMinStock(siteA, "prod-ok", d("100"))
	store.SetSiteStock(siteA, prodP, d("250"))
	store.SetSiteStock(siteA, "prod-ok", d("100"))

	low, err := ledger.GetLowStockSites(context.Background(), siteA)
	require.NoError(t, err)
	require.Len(t, low, 1, "stock igual al mínimo no es bajo")
	assert.Equal(t, prodP, low[0].ProductID)
	assert.True(t, low[0].IsLow)
	assert.True(t, d("750").Equal(low[0].MissingQty))
}

func TestSuggestPurchaseOrders_ExcluyeSinProveedorOSinFaltante(t *testing.T) {
	ledger, store := newLedger(t, inventory.DefaultPolicy())
	ctx := context.Background()

	// P: faltan 2500 g, proveedor principal vende bultos de 1 kg → 3 bultos.
	store.SetMinStock(siteA, prodP, d("3000"))
	store.SetSiteStock(siteA, prodP, d("500"))
	store.AddSupplier(entity.ProductSupplier{
		ProductID: prodP, SupplierID: "sup-1", SupplierName: "Molinos", IsPrimary: true,
		PackPrice: d("20000"), PackQty: d("1"), PackUnitCode: "kg",
	})

	// Sin proveedor principal (solo secundario).
	store.AddProduct(entity.Product{ID: "prod-sin", StockUnitCode: "un", UnitFamily: entity.FamilyCount})
	store.SetMinStock(siteA, "prod-sin", d("10"))
	store.AddSupplier(entity.ProductSupplier{
		ProductID: "prod-sin", SupplierID: "sup-2", IsPrimary: false,
		PackPrice: d("1000"), PackQty: d("1"), PackUnitCode: "docena",
	})

	// Con proveedor principal pero sin faltante.
	store.AddProduct(entity.Product{ID: "prod-lleno", StockUnitCode: "ml", UnitFamily: entity.FamilyVolume})
	store.SetMinStock(siteA, "prod-lleno", d("500"))
	store.SetSiteStock(siteA, "prod-lleno", d("900"))
	store.AddSupplier(entity.ProductSupplier{
		ProductID: "prod-lleno", SupplierID: "sup-1", IsPrimary: true,
		PackPrice: d("5000"), PackQty: d("1"), PackUnitCode: "l",
	})

	groups, err := ledger.SuggestPurchaseOrders(ctx, siteA)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "sup-1", g.SupplierID)
	require.Len(t, g.Lines, 1)
	line := g.Lines[0]
	assert.Equal(t, prodP, line.ProductID)
	assert.True(t, d("1000").Equal(line.PackQtyInStockUnit))
	assert.True(t, d("3").Equal(line.PacksToOrder))
	assert.True(t, d("60000").Equal(g.EstimatedTotal))
	assert.Equal(t, 1, line.Priority)

	for _, grp := range groups {
		for _, l := range grp.Lines {
			assert.NotEqual(t, "prod-sin", l.ProductID)
			assert.NotEqual(t, "prod-lleno", l.ProductID)
		}
	}
}

func TestSuggestPurchaseOrders_SinMinimos(t *testing.T) {
	ledger, _ := newLedger(t, inventory.DefaultPolicy())

	groups, err := ledger.SuggestPurchaseOrders(context.Background(), siteA)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
