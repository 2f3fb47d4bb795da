package uom

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// Converter contrato mínimo que consumen costeo, libro, remisiones y conteos.
// *Registry lo implementa.
type Converter interface {
	ResolveUnit(codeOrAlias string) (entity.Unit, error)
	InferFamily(code string) (entity.UnitFamily, bool)
	Factor(from, to string) (decimal.Decimal, error)
	Convert(quantity decimal.Decimal, from, to string) (decimal.Decimal, error)
	Format(quantity decimal.Decimal, code string) string
}

var _ Converter = (*Registry)(nil)
