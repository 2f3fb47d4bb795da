package ports

import (
	"context"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

// UnitCatalogLoader carga el catálogo activo de unidades y sus alias.
type UnitCatalogLoader interface {
	LoadActiveUnits(ctx context.Context) ([]entity.Unit, error)
	LoadAliases(ctx context.Context) ([]entity.UnitAlias, error)
}

// ConverterProvider entrega el conversor vigente (puede estar segundos desactualizado).
type ConverterProvider interface {
	Converter(ctx context.Context) (uom.Converter, error)
}

// ConverterFunc adapta una función a ConverterProvider.
type ConverterFunc func(ctx context.Context) (uom.Converter, error)

func (f ConverterFunc) Converter(ctx context.Context) (uom.Converter, error) { return f(ctx) }

// StaticConverter provider fijo (tests y herramientas de línea de comandos).
func StaticConverter(conv uom.Converter) ConverterProvider {
	return ConverterFunc(func(context.Context) (uom.Converter, error) { return conv, nil })
}

// CatalogInvalidator avisa a otros procesos que el catálogo de unidades cambió.
type CatalogInvalidator interface {
	PublishInvalidation(ctx context.Context) error
}
