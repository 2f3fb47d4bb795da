package costing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/costing"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func registry(t *testing.T) *uom.Registry {
	t.Helper()
	r, err := uom.NewRegistry([]entity.Unit{
		{Code: "g", Family: entity.FamilyMass, FactorToBase: d("1")},
		{Code: "kg", Family: entity.FamilyMass, FactorToBase: d("1000")},
		{Code: "ml", Family: entity.FamilyVolume, FactorToBase: d("1")},
		{Code: "un", Family: entity.FamilyCount, FactorToBase: d("1")},
		{Code: "caja24", Family: entity.FamilyCount, FactorToBase: d("24")},
	}, nil)
	require.NoError(t, err)
	return r
}

func TestComputeAutoCost_KiloAGramo(t *testing.T) {
	cost, err := costing.ComputeAutoCostFromPrimarySupplier(registry(t), costing.AutoCostInput{
		PackPrice:     d("20000"),
		PackQty:       d("1"),
		PackUnitCode:  "kg",
		StockUnitCode: "g",
	})
	require.NoError(t, err)
	assert.True(t, cost.Equal(d("20")), "20000 COP/kg => 20 COP/g, got %s", cost)
}

func TestComputeAutoCost_Caja(t *testing.T) {
	cost, err := costing.ComputeAutoCostFromPrimarySupplier(registry(t), costing.AutoCostInput{
		PackPrice: d("48000"), PackQty: d("2"), PackUnitCode: "caja24", StockUnitCode: "un",
	})
	require.NoError(t, err)
	assert.True(t, cost.Equal(d("1000")))
}

func TestComputeAutoCost_FamiliasIncompatibles(t *testing.T) {
	_, err := costing.ComputeAutoCostFromPrimarySupplier(registry(t), costing.AutoCostInput{
		PackPrice: d("1000"), PackQty: d("1"), PackUnitCode: "kg", StockUnitCode: "ml",
	})
	assert.True(t, errors.Is(err, domain.ErrIncompatibleFamily))
}

func TestComputeAutoCost_DivisionPorCero(t *testing.T) {
	_, err := costing.ComputeAutoCostFromPrimarySupplier(registry(t), costing.AutoCostInput{
		PackPrice: d("1000"), PackQty: d("0"), PackUnitCode: "kg", StockUnitCode: "g",
	})
	assert.True(t, errors.Is(err, domain.ErrDivisionByZero))
}

func TestGetAutoCostReadinessReason(t *testing.T) {
	reg := registry(t)
	product := &entity.Product{ID: "p1", StockUnitCode: "g"}
	ok := func() *entity.ProductSupplier {
		return &entity.ProductSupplier{IsPrimary: true, PackPrice: d("20000"), PackQty: d("1"), PackUnitCode: "kg"}
	}

	cases := []struct {
		name     string
		product  *entity.Product
		supplier func() *entity.ProductSupplier
		want     costing.Readiness
	}{
		{"listo", product, ok, costing.ReadinessReady},
		{"sin proveedor", product, func() *entity.ProductSupplier { return nil }, costing.ReadinessNoPrimarySupplier},
		{"proveedor no principal", product, func() *entity.ProductSupplier { s := ok(); s.IsPrimary = false; return s }, costing.ReadinessNoPrimarySupplier},
		{"sin precio", product, func() *entity.ProductSupplier { s := ok(); s.PackPrice = decimal.Zero; return s }, costing.ReadinessMissingPackPrice},
		{"sin tamaño", product, func() *entity.ProductSupplier { s := ok(); s.PackQty = decimal.Zero; return s }, costing.ReadinessMissingPackSize},
		{"sin unidad", product, func() *entity.ProductSupplier { s := ok(); s.PackUnitCode = ""; return s }, costing.ReadinessMissingPackUnit},
		{"unidad desconocida", product, func() *entity.ProductSupplier { s := ok(); s.PackUnitCode = "bulto"; return s }, costing.ReadinessUnknownPackUnit},
		{"unidad de stock desconocida", &entity.Product{StockUnitCode: "zz"}, ok, costing.ReadinessUnknownStockUnit},
		{"incompatibles", &entity.Product{StockUnitCode: "ml"}, ok, costing.ReadinessIncompatibleUnits},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := costing.GetAutoCostReadinessReason(reg, tc.product, tc.supplier())
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want == costing.ReadinessReady, got.Ready())
		})
	}
}
