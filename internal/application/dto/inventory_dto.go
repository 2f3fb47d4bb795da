package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// La cantidad se expresa en InputUnit (código o alias); el libro la convierte a la unidad de stock.
type RegisterMovementRequest struct {
	SiteID     string          `json:"site_id" validate:"required"`
	ProductID  string          `json:"product_id" validate:"required"`
	LocationID string          `json:"location_id,omitempty"`
	Type       string          `json:"type" validate:"required,oneof=receipt_in adjustment production_consume production_yield"`
	Quantity   decimal.Decimal `json:"quantity"`
	InputUnit  string          `json:"input_unit" validate:"required"`
	Note       string          `json:"note" validate:"max=500"`
}

// TransferRequest body para POST /api/inventory/transfers (entre ubicaciones de una sede).
type TransferRequest struct {
	SiteID         string          `json:"site_id" validate:"required"`
	ProductID      string          `json:"product_id" validate:"required"`
	FromLocationID string          `json:"from_location_id" validate:"required"`
	ToLocationID   string          `json:"to_location_id" validate:"required,nefield=FromLocationID"`
	Quantity       decimal.Decimal `json:"quantity"`
	InputUnit      string          `json:"input_unit" validate:"required"`
}

// LocationDeltaRequest body para POST /api/inventory/locations/:id/delta (ubicar stock).
type LocationDeltaRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Delta     decimal.Decimal `json:"delta"`
}

// MovementResponse fila del libro de movimientos.
type MovementResponse struct {
	ID                      string          `json:"id"`
	SiteID                  string          `json:"site_id"`
	ProductID               string          `json:"product_id"`
	LocationID              string          `json:"location_id,omitempty"`
	Type                    string          `json:"type"`
	Quantity                decimal.Decimal `json:"quantity"`
	InputQty                decimal.Decimal `json:"input_qty"`
	InputUnitCode           string          `json:"input_unit_code"`
	ConversionFactorToStock decimal.Decimal `json:"conversion_factor_to_stock"`
	StockUnitCode           string          `json:"stock_unit_code"`
	Note                    string          `json:"note"`
	CreatedAt               time.Time       `json:"created_at"`
	CreatedBy               string          `json:"created_by"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// SiteStockResponse existencia de un producto en una sede.
// Negative marca una discrepancia pendiente de conteo.
type SiteStockResponse struct {
	SiteID     string          `json:"site_id"`
	ProductID  string          `json:"product_id"`
	CurrentQty decimal.Decimal `json:"current_qty"`
	Negative   bool            `json:"negative"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// LocationStockResponse existencia de un producto en una ubicación.
type LocationStockResponse struct {
	LocationID string          `json:"location_id"`
	ProductID  string          `json:"product_id"`
	CurrentQty decimal.Decimal `json:"current_qty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// LowStockItem producto bajo el mínimo configurado para la sede.
type LowStockItem struct {
	ProductID  string          `json:"product_id"`
	CurrentQty decimal.Decimal `json:"current_qty"`
	MinStock   decimal.Decimal `json:"min_stock"`
	MissingQty decimal.Decimal `json:"missing_qty"` // max(min - actual, 0)
	IsLow      bool            `json:"is_low"`
}

// PurchaseSuggestionLine línea sugerida de orden de compra.
type PurchaseSuggestionLine struct {
	ProductID          string          `json:"product_id"`
	MissingQty         decimal.Decimal `json:"missing_qty"`           // en unidad de stock
	PackQty            decimal.Decimal `json:"pack_qty"`              // tamaño del empaque del proveedor
	PackUnitCode       string          `json:"pack_unit_code"`
	PackQtyInStockUnit decimal.Decimal `json:"pack_qty_in_stock_unit"`
	PacksToOrder       decimal.Decimal `json:"packs_to_order"` // ceil(faltante / empaque)
	PackPrice          decimal.Decimal `json:"pack_price"`
	EstimatedCost      decimal.Decimal `json:"estimated_cost"`
	Priority           int             `json:"priority"` // 1 = más urgente dentro del proveedor
}

// PurchaseSuggestionGroup sugerencias agrupadas por proveedor principal.
type PurchaseSuggestionGroup struct {
	SupplierID     string                   `json:"supplier_id"`
	SupplierName   string                   `json:"supplier_name"`
	Lines          []PurchaseSuggestionLine `json:"lines"`
	EstimatedTotal decimal.Decimal          `json:"estimated_total"`
}

// UnlocatedStock diferencia entre el stock de la sede y lo ubicado en sus LOC.
type UnlocatedStock struct {
	ProductID    string          `json:"product_id"`
	SiteQty      decimal.Decimal `json:"site_qty"`
	LocatedQty   decimal.Decimal `json:"located_qty"`
	UnlocatedQty decimal.Decimal `json:"unlocated_qty"`
}
