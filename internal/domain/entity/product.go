package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Modos de costeo del producto.
const (
	CostingModeManual              = "manual"
	CostingModeAutoPrimarySupplier = "auto_primary_supplier"
)

// Product representa un producto del inventario multi-sede.
// StockUnitCode es la unidad canónica del libro: todas las existencias y movimientos
// se guardan en ella y no cambia una vez existe stock.
type Product struct {
	ID            string
	SKU           string
	Name          string
	StockUnitCode string
	UnitFamily    UnitFamily
	CostingMode   string
	Cost          decimal.Decimal // costo por unidad de stock
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductSupplier presentación de compra de un proveedor para el producto.
type ProductSupplier struct {
	ProductID    string
	SupplierID   string
	SupplierName string
	IsPrimary    bool
	PackPrice    decimal.Decimal
	PackQty      decimal.Decimal
	PackUnitCode string
	UpdatedAt    time.Time
}

// SiteProductSetting parámetros por sede y producto (mínimo de stock).
type SiteProductSetting struct {
	SiteID    string
	ProductID string
	MinStock  decimal.Decimal
}
