package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Unidades de medida y conversión.
	ErrUnitNotFound       = errors.New("unidad de medida no encontrada")
	ErrIncompatibleFamily = errors.New("unidades de familias incompatibles")
	ErrInvalidUnit        = errors.New("definición de unidad inválida")
	ErrDivisionByZero     = errors.New("la cantidad convertida es cero")
	ErrStockUnitLocked    = errors.New("la unidad de stock no se puede cambiar: el producto ya tiene existencias")

	// Libro de inventario.
	ErrInsufficientLocationStock = errors.New("stock insuficiente en la ubicación de origen")
	ErrNegativeSiteStock         = errors.New("el movimiento dejaría stock negativo en la sede")
	ErrPersistenceConflict       = errors.New("conflicto de concurrencia, reintente la operación")

	// Flujos (remisiones, conteos).
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrAlreadyApplied    = errors.New("ajuste ya aplicado")
	ErrSiteTypeMismatch  = errors.New("el tipo de sede no permite esta operación")
)

// UnitError detalla qué código de unidad no pudo resolverse.
type UnitError struct {
	Code string
	Err  error
}

func (e *UnitError) Error() string { return fmt.Sprintf("unidad %q: %v", e.Code, e.Err) }
func (e *UnitError) Unwrap() error { return e.Err }

// ConversionError detalla una conversión rechazada entre dos unidades.
type ConversionError struct {
	From       string
	To         string
	FromFamily string
	ToFamily   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("no se puede convertir %s (%s) a %s (%s): %v",
		e.From, e.FromFamily, e.To, e.ToFamily, ErrIncompatibleFamily)
}
func (e *ConversionError) Unwrap() error { return ErrIncompatibleFamily }

// StockError detalla un retiro que excede lo disponible en una ubicación.
type StockError struct {
	ProductID  string
	LocationID string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *StockError) Error() string {
	return fmt.Sprintf("producto %s en ubicación %s: disponible %s, solicitado %s: %v",
		e.ProductID, e.LocationID, e.Available.String(), e.Requested.String(), ErrInsufficientLocationStock)
}
func (e *StockError) Unwrap() error { return ErrInsufficientLocationStock }

// ProductError agrega el producto a un error del libro (conversión, stock, etc.).
type ProductError struct {
	ProductID string
	Err       error
}

func (e *ProductError) Error() string { return fmt.Sprintf("producto %s: %v", e.ProductID, e.Err) }
func (e *ProductError) Unwrap() error { return e.Err }

// ItemError identifica la línea de remisión que abortó una transición.
type ItemError struct {
	ItemID    string
	ProductID string
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("ítem %s (producto %s): %v", e.ItemID, e.ProductID, e.Err)
}
func (e *ItemError) Unwrap() error { return e.Err }
