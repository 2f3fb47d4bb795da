package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitFamily agrupa unidades convertibles entre sí de forma lineal.
type UnitFamily string

// Familias de unidades soportadas.
const (
	FamilyMass   UnitFamily = "mass"
	FamilyVolume UnitFamily = "volume"
	FamilyCount  UnitFamily = "count"
)

// Valid indica si la familia es una de las conocidas.
func (f UnitFamily) Valid() bool {
	switch f {
	case FamilyMass, FamilyVolume, FamilyCount:
		return true
	}
	return false
}

// Unit es una unidad de medida del catálogo (kg, g, ml, un, ...).
// FactorToBase expresa cuántas unidades base de la familia equivale una unidad.
// Las unidades no se borran: los movimientos históricos las referencian.
type Unit struct {
	Code            string
	Name            string
	Family          UnitFamily
	FactorToBase    decimal.Decimal
	Symbol          string
	DisplayDecimals int32
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UnitAlias mapea un texto alternativo (ej. "kilo", "gr") a un código de unidad.
type UnitAlias struct {
	Alias    string
	UnitCode string
}
