package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// SeedUnits carga el catálogo básico de unidades con sus alias usuales.
func (s *Store) SeedUnits() {
	now := time.Now()
	units := []entity.Unit{
		{Code: "g", Name: "Gramo", Family: entity.FamilyMass, FactorToBase: decimal.NewFromInt(1), Symbol: "g"},
		{Code: "kg", Name: "Kilogramo", Family: entity.FamilyMass, FactorToBase: decimal.NewFromInt(1000), Symbol: "kg", DisplayDecimals: 3},
		{Code: "lb", Name: "Libra", Family: entity.FamilyMass, FactorToBase: decimal.RequireFromString("453.59237"), Symbol: "lb", DisplayDecimals: 2},
		{Code: "ml", Name: "Mililitro", Family: entity.FamilyVolume, FactorToBase: decimal.NewFromInt(1), Symbol: "ml"},
		{Code: "l", Name: "Litro", Family: entity.FamilyVolume, FactorToBase: decimal.NewFromInt(1000), Symbol: "L", DisplayDecimals: 3},
		{Code: "un", Name: "Unidad", Family: entity.FamilyCount, FactorToBase: decimal.NewFromInt(1), Symbol: "un"},
		{Code: "docena", Name: "Docena", Family: entity.FamilyCount, FactorToBase: decimal.NewFromInt(12), Symbol: "doc"},
	}
	for _, u := range units {
		u.Active = true
		u.CreatedAt = now
		u.UpdatedAt = now
		s.AddUnit(u)
	}
	for alias, code := range map[string]string{
		"kilo":  "kg",
		"gr":    "g",
		"und":   "un",
		"litro": "l",
	} {
		s.AddAlias(alias, code)
	}
}
