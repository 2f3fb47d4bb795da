package repository

import (
	"context"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// UnitRepository define el puerto de persistencia del catálogo de unidades.
// No hay Delete: las unidades se desactivan porque los movimientos las referencian.
type UnitRepository interface {
	ListActive(ctx context.Context) ([]entity.Unit, error)
	ListAliases(ctx context.Context) ([]entity.UnitAlias, error)
	GetByCode(ctx context.Context, code string) (*entity.Unit, error)
	Create(ctx context.Context, unit *entity.Unit) error
	Update(ctx context.Context, unit *entity.Unit) error
	CreateAlias(ctx context.Context, alias entity.UnitAlias) error
	// UsageCount cuenta referencias vivas a la unidad: productos que la usan como unidad
	// de stock, presentaciones de proveedor e ítems de remisiones no cerradas ni canceladas.
	UsageCount(ctx context.Context, code string) (int, error)
}
