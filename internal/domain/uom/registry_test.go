package uom_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testUnits() []entity.Unit {
	return []entity.Unit{
		{Code: "g", Name: "Gramo", Family: entity.FamilyMass, FactorToBase: d("1"), Symbol: "g", DisplayDecimals: 0},
		{Code: "kg", Name: "Kilogramo", Family: entity.FamilyMass, FactorToBase: d("1000"), Symbol: "kg", DisplayDecimals: 3},
		{Code: "lb", Name: "Libra", Family: entity.FamilyMass, FactorToBase: d("453.59237"), Symbol: "lb", DisplayDecimals: 2},
		{Code: "oz", Name: "Onza", Family: entity.FamilyMass, FactorToBase: d("28.349523125"), Symbol: "oz", DisplayDecimals: 2},
		{Code: "ml", Name: "Mililitro", Family: entity.FamilyVolume, FactorToBase: d("1"), Symbol: "ml"},
		{Code: "l", Name: "Litro", Family: entity.FamilyVolume, FactorToBase: d("1000"), Symbol: "L", DisplayDecimals: 2},
		{Code: "gal", Name: "Galón", Family: entity.FamilyVolume, FactorToBase: d("3785.411784"), Symbol: "gal", DisplayDecimals: 2},
		{Code: "un", Name: "Unidad", Family: entity.FamilyCount, FactorToBase: d("1"), Symbol: "un"},
		{Code: "docena", Name: "Docena", Family: entity.FamilyCount, FactorToBase: d("12"), Symbol: "doc"},
	}
}

func testAliases() []entity.UnitAlias {
	return []entity.UnitAlias{
		{Alias: "Kilo", UnitCode: "kg"},
		{Alias: "gr", UnitCode: "g"},
		{Alias: "und", UnitCode: "un"},
		{Alias: "litro", UnitCode: "l"},
	}
}

func newRegistry(t *testing.T) *uom.Registry {
	t.Helper()
	r, err := uom.NewRegistry(testUnits(), testAliases())
	require.NoError(t, err)
	return r
}

func TestResolveUnit_AliasYCodigo(t *testing.T) {
	r := newRegistry(t)

	u, err := r.ResolveUnit("  KILO ")
	require.NoError(t, err)
	assert.Equal(t, "kg", u.Code, "el alias se resuelve sin importar mayúsculas ni espacios")

	u, err = r.ResolveUnit("ML")
	require.NoError(t, err)
	assert.Equal(t, "ml", u.Code)
}

func TestResolveUnit_NoEncontrada(t *testing.T) {
	r := newRegistry(t)

	_, err := r.ResolveUnit("arroba")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnitNotFound))

	var ue *domain.UnitError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "arroba", ue.Code)
}

func TestInferFamily(t *testing.T) {
	r := newRegistry(t)

	f, ok := r.InferFamily("litro")
	assert.True(t, ok)
	assert.Equal(t, entity.FamilyVolume, f)

	f, ok = r.InferFamily("bulto")
	assert.False(t, ok, "unidad desconocida no tiene familia")
	assert.Empty(t, f)
}

func TestConvert_Basico(t *testing.T) {
	r := newRegistry(t)

	got, err := r.Convert(d("1"), "kg", "g")
	require.NoError(t, err)
	assert.True(t, got.Equal(d("1000")), "1 kg = 1000 g, got %s", got)

	got, err = r.Convert(d("500"), "gr", "kilo")
	require.NoError(t, err)
	assert.True(t, got.Equal(d("0.5")), "500 g = 0.5 kg, got %s", got)

	got, err = r.Convert(d("3"), "docena", "un")
	require.NoError(t, err)
	assert.True(t, got.Equal(d("36")))
}

func TestConvert_IdaYVuelta(t *testing.T) {
	r := newRegistry(t)
	tolerance := d("0.000000001")
	quantities := []decimal.Decimal{d("0.001"), d("1"), d("7.25"), d("480"), d("123456.789")}

	units := testUnits()
	for _, a := range units {
		for _, b := range units {
			if a.Family != b.Family {
				continue
			}
			for _, q := range quantities {
				there, err := r.Convert(q, a.Code, b.Code)
				require.NoError(t, err)
				back, err := r.Convert(there, b.Code, a.Code)
				require.NoError(t, err)

				rel := back.Sub(q).Abs().Div(q)
				assert.True(t, rel.LessThanOrEqual(tolerance),
					"%s %s -> %s -> %s: got %s (rel %s)", q, a.Code, b.Code, a.Code, back, rel)
			}
		}
	}
}

func TestConvert_FamiliasIncompatibles(t *testing.T) {
	r := newRegistry(t)

	for _, pair := range [][2]string{{"kg", "l"}, {"ml", "g"}, {"un", "kg"}, {"lb", "gal"}} {
		_, err := r.Convert(d("1"), pair[0], pair[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrIncompatibleFamily), "%s -> %s", pair[0], pair[1])

		var ce *domain.ConversionError
		require.True(t, errors.As(err, &ce))
		assert.NotEqual(t, ce.FromFamily, ce.ToFamily)
	}
}

func TestConvert_UnidadDesconocida(t *testing.T) {
	r := newRegistry(t)

	_, err := r.Convert(d("1"), "kg", "quintal")
	assert.True(t, errors.Is(err, domain.ErrUnitNotFound))
	assert.False(t, errors.Is(err, domain.ErrIncompatibleFamily))
}

func TestNewRegistry_RechazaFactorInvalido(t *testing.T) {
	for _, factor := range []string{"0", "-1000"} {
		units := append(testUnits(), entity.Unit{Code: "t", Family: entity.FamilyMass, FactorToBase: d(factor)})
		_, err := uom.NewRegistry(units, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidUnit), "factor %s debe rechazarse al cargar", factor)
	}
}

func TestNewRegistry_RechazaDosBases(t *testing.T) {
	units := append(testUnits(), entity.Unit{Code: "pieza", Family: entity.FamilyCount, FactorToBase: d("1")})
	_, err := uom.NewRegistry(units, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidUnit))
}

func TestNewRegistry_RechazaAliasHuerfano(t *testing.T) {
	_, err := uom.NewRegistry(testUnits(), []entity.UnitAlias{{Alias: "bulto", UnitCode: "bulto50"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidUnit))
}

func TestNewRegistry_RechazaFamiliaDesconocida(t *testing.T) {
	_, err := uom.NewRegistry([]entity.Unit{{Code: "m", Family: "length", FactorToBase: d("1")}}, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidUnit))
}

func TestBase(t *testing.T) {
	r := newRegistry(t)
	u, ok := r.Base(entity.FamilyMass)
	require.True(t, ok)
	assert.Equal(t, "g", u.Code)
}

func TestRoundQuantity(t *testing.T) {
	assert.True(t, uom.RoundQuantityTo(d("1.23456"), 2).Equal(d("1.23")))
	assert.True(t, uom.RoundQuantityTo(d("1.235"), 2).Equal(d("1.24")))
	assert.True(t, uom.RoundQuantity(d("0.1234567890")).Equal(d("0.123457")))

	q := d("2.7182818")
	rounded := uom.RoundQuantityTo(q, 3)
	assert.True(t, rounded.Sub(q).Abs().LessThanOrEqual(d("0.001")), "el redondeo no se desvía más de una unidad del último decimal")
}

func TestFormat(t *testing.T) {
	r := newRegistry(t)
	assert.Equal(t, "1.500 kg", r.Format(d("1.5"), "kg"))
	assert.Equal(t, "480 g", r.Format(d("480"), "gr"))
}
