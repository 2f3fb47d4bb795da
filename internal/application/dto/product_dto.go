package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// Con costing_mode=auto_primary_supplier y sin cost, el costo se deriva del proveedor principal.
type CreateProductRequest struct {
	SKU             string           `json:"sku" validate:"required,min=1,max=100"`
	Name            string           `json:"name" validate:"required,min=1,max=200"`
	StockUnit       string           `json:"stock_unit" validate:"required"`
	CostingMode     string           `json:"costing_mode" validate:"omitempty,oneof=manual auto_primary_supplier"`
	Cost            *decimal.Decimal `json:"cost,omitempty"`
	PrimarySupplier *SupplierRequest `json:"primary_supplier,omitempty"`
}

// SupplierRequest presentación de compra de un proveedor: PackPrice por PackQty PackUnit.
type SupplierRequest struct {
	SupplierID   string          `json:"supplier_id" validate:"required"`
	SupplierName string          `json:"supplier_name" validate:"max=200"`
	IsPrimary    bool            `json:"is_primary"`
	PackPrice    decimal.Decimal `json:"pack_price"`
	PackQty      decimal.Decimal `json:"pack_qty"`
	PackUnit     string          `json:"pack_unit" validate:"required"`
}

// ChangeStockUnitRequest body para PUT /api/products/:id/stock-unit.
type ChangeStockUnitRequest struct {
	StockUnit string `json:"stock_unit" validate:"required"`
	// Migrate reescala las existencias (misma familia) en vez de rechazar el cambio.
	Migrate bool `json:"migrate"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	StockUnit   string          `json:"stock_unit"`
	UnitFamily  string          `json:"unit_family"`
	CostingMode string          `json:"costing_mode"`
	Cost        decimal.Decimal `json:"cost"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AutoCostReadinessResponse diagnóstico del costeo automático.
type AutoCostReadinessResponse struct {
	ProductID string `json:"product_id"`
	Ready     bool   `json:"ready"`
	Reason    string `json:"reason"`
}

// StockUnitMigrationResponse resultado de migrar la unidad de stock.
type StockUnitMigrationResponse struct {
	ProductID    string          `json:"product_id"`
	FromUnit     string          `json:"from_unit"`
	ToUnit       string          `json:"to_unit"`
	Factor       decimal.Decimal `json:"factor"`
	SiteRows     int             `json:"site_rows"`
	LocationRows int             `json:"location_rows"`
	Cost         decimal.Decimal `json:"cost"`
}
