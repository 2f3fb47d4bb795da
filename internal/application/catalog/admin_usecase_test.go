package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sedes/internal/application/catalog"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/infrastructure/memory"
)

const admin = "admin-1"

func newAdmin(t *testing.T) (*catalog.AdminUseCase, *catalog.Catalog, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedUnits()
	store.Grant(admin, ports.PermCatalogAdmin, "")
	cat := catalog.NewCatalog(store, time.Hour, zerolog.Nop())
	return catalog.NewAdminUseCase(store.Units(), cat, nil, store, zerolog.Nop()), cat, store
}

func TestDeactivateUnit_SinUsoSaleDelCatalogo(t *testing.T) {
	uc, cat, _ := newAdmin(t)
	ctx := context.Background()

	require.NoError(t, uc.DeactivateUnit(ctx, admin, "LB"))

	reg, err := cat.Registry(ctx)
	require.NoError(t, err)
	_, err = reg.ResolveUnit("lb")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)
}

func TestDeactivateUnit_UnidadDeStockEnUso(t *testing.T) {
	uc, cat, store := newAdmin(t)
	ctx := context.Background()
	store.AddProduct(entity.Product{ID: "prod-p", SKU: "P-1", Name: "Harina", StockUnitCode: "g", UnitFamily: entity.FamilyMass})
	store.SetSiteStock("site-a", "prod-p", decimal.NewFromInt(2000))

	err := uc.DeactivateUnit(ctx, admin, "g")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	var ue *domain.UnitError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "g", ue.Code)

	// La unidad sigue activa y convertible.
	reg, err := cat.Registry(ctx)
	require.NoError(t, err)
	_, err = reg.ResolveUnit("g")
	assert.NoError(t, err)
}

func TestDeactivateUnit_RemisionAbiertaLaBloquea(t *testing.T) {
	uc, _, store := newAdmin(t)
	ctx := context.Background()
	now := time.Now()
	req := &entity.RestockRequest{
		ID: "r1", FromSiteID: "cp", ToSiteID: "s1", Status: entity.RestockPending,
		CreatedBy: "sede", CreatedAt: now, StatusUpdatedAt: now,
		Items: []*entity.RestockRequestItem{
			{ID: "i1", RequestID: "r1", ProductID: "huevo", Quantity: decimal.NewFromInt(2), UnitCode: "docena", ItemStatus: entity.ItemPending},
		},
	}
	store.PutRestock(req)

	assert.ErrorIs(t, uc.DeactivateUnit(ctx, admin, "docena"), domain.ErrConflict)

	// Cancelada deja de contar como referencia viva.
	req.Status = entity.RestockCancelled
	store.PutRestock(req)
	assert.NoError(t, uc.DeactivateUnit(ctx, admin, "docena"))
}

func TestDeactivateUnit_RequiereCatalogAdmin(t *testing.T) {
	uc, _, _ := newAdmin(t)
	assert.ErrorIs(t, uc.DeactivateUnit(context.Background(), "intruso", "lb"), domain.ErrForbidden)
}
