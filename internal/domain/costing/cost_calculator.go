// Package costing deriva el costo por unidad de stock a partir de la presentación
// de compra del proveedor principal (servicio de dominio, sin estado).
package costing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

// AutoCostInput presentación de compra: PackPrice por PackQty PackUnitCode.
type AutoCostInput struct {
	PackPrice     decimal.Decimal
	PackQty       decimal.Decimal
	PackUnitCode  string
	StockUnitCode string
}

// ComputeAutoCostFromPrimarySupplier convierte PackQty a la unidad de stock y devuelve
// PackPrice / cantidadConvertida.
// Ej: 20000 COP por 1 kg con stock en g => 1000 g => 20 COP/g.
func ComputeAutoCostFromPrimarySupplier(conv uom.Converter, in AutoCostInput) (decimal.Decimal, error) {
	converted, err := conv.Convert(in.PackQty, in.PackUnitCode, in.StockUnitCode)
	if err != nil {
		return decimal.Zero, err
	}
	if converted.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s %s en %s", domain.ErrDivisionByZero, in.PackQty, in.PackUnitCode, in.StockUnitCode)
	}
	return in.PackPrice.DivRound(converted, 8), nil
}

// Readiness motivo legible de por qué el costeo automático está (o no) listo.
type Readiness string

// Motivos de diagnóstico. Se conservan como texto porque el operador necesita saber
// qué corregir, no solo que falló.
const (
	ReadinessReady             Readiness = "ready"
	ReadinessNoPrimarySupplier Readiness = "no primary supplier"
	ReadinessMissingPackPrice  Readiness = "missing pack price"
	ReadinessMissingPackSize   Readiness = "missing pack size"
	ReadinessMissingPackUnit   Readiness = "missing pack unit"
	ReadinessUnknownPackUnit   Readiness = "unknown pack unit"
	ReadinessUnknownStockUnit  Readiness = "unknown stock unit"
	ReadinessIncompatibleUnits Readiness = "incompatible units"
)

// Ready indica que ComputeAutoCostFromPrimarySupplier puede ejecutarse.
func (r Readiness) Ready() bool { return r == ReadinessReady }

// GetAutoCostReadinessReason diagnostica el costeo automático del producto sin calcularlo.
// supplier nil significa que el producto no tiene proveedor principal.
func GetAutoCostReadinessReason(conv uom.Converter, product *entity.Product, supplier *entity.ProductSupplier) Readiness {
	if supplier == nil || !supplier.IsPrimary {
		return ReadinessNoPrimarySupplier
	}
	if supplier.PackPrice.IsNegative() || supplier.PackPrice.IsZero() {
		return ReadinessMissingPackPrice
	}
	if !supplier.PackQty.IsPositive() {
		return ReadinessMissingPackSize
	}
	if supplier.PackUnitCode == "" {
		return ReadinessMissingPackUnit
	}
	if _, err := conv.ResolveUnit(supplier.PackUnitCode); err != nil {
		return ReadinessUnknownPackUnit
	}
	if _, err := conv.ResolveUnit(product.StockUnitCode); err != nil {
		return ReadinessUnknownStockUnit
	}
	converted, err := conv.Convert(supplier.PackQty, supplier.PackUnitCode, product.StockUnitCode)
	if errors.Is(err, domain.ErrIncompatibleFamily) {
		return ReadinessIncompatibleUnits
	}
	if err != nil || converted.IsZero() {
		return ReadinessMissingPackSize
	}
	return ReadinessReady
}
