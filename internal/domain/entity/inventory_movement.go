package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro de inventario.
type MovementType string

// Tipos de movimiento.
const (
	MovementReceiptIn         MovementType = "receipt_in"         // recepción de compra
	MovementTransferInternal  MovementType = "transfer_internal"  // entre ubicaciones de la misma sede
	MovementAdjustment        MovementType = "adjustment"         // ajuste (signo según cantidad)
	MovementRestockShipment   MovementType = "restock_shipment"   // despacho de remisión
	MovementRestockReceipt    MovementType = "restock_receipt"    // recepción de remisión
	MovementProductionConsume MovementType = "production_consume" // consumo de producción
	MovementProductionYield   MovementType = "production_yield"   // rendimiento de producción
)

// Direction efecto de un tipo de movimiento sobre el stock de la sede.
type Direction int

const (
	DirectionNeutral Direction = 0
	DirectionIn      Direction = 1
	DirectionOut     Direction = -1
	DirectionSigned  Direction = 2 // el signo lo da la cantidad (ajustes)
)

// Direction devuelve el efecto del tipo sobre StockBySite.
func (t MovementType) Direction() Direction {
	switch t {
	case MovementReceiptIn, MovementRestockReceipt, MovementProductionYield:
		return DirectionIn
	case MovementRestockShipment, MovementProductionConsume:
		return DirectionOut
	case MovementAdjustment:
		return DirectionSigned
	case MovementTransferInternal:
		return DirectionNeutral
	}
	return DirectionNeutral
}

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceiptIn, MovementTransferInternal, MovementAdjustment,
		MovementRestockShipment, MovementRestockReceipt,
		MovementProductionConsume, MovementProductionYield:
		return true
	}
	return false
}

// InventoryMovement registro inmutable del libro. Quantity está en la unidad de stock y
// lleva el signo aplicado a la sede (transfer_internal guarda la cantidad trasladada).
// InputQty/InputUnitCode conservan lo que digitó el operador.
type InventoryMovement struct {
	ID                      string
	SiteID                  string
	ProductID               string
	LocationID              string
	Type                    MovementType
	Quantity                decimal.Decimal
	InputQty                decimal.Decimal
	InputUnitCode           string
	ConversionFactorToStock decimal.Decimal
	StockUnitCode           string
	Note                    string
	CreatedAt               time.Time
	CreatedBy               string
}

// SiteDelta cantidad con la que el movimiento afectó StockBySite.
func (m *InventoryMovement) SiteDelta() decimal.Decimal {
	if m.Type.Direction() == DirectionNeutral {
		return decimal.Zero
	}
	return m.Quantity
}
