package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRemissionRequest body para POST /api/remissions. La crea la sede satélite (destino).
type CreateRemissionRequest struct {
	FromSiteID   string                       `json:"from_site_id" validate:"required"`
	ToSiteID     string                       `json:"to_site_id" validate:"required,nefield=FromSiteID"`
	Notes        string                       `json:"notes" validate:"max=1000"`
	ExpectedDate *time.Time                   `json:"expected_date,omitempty"`
	Items        []CreateRemissionItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateRemissionItemRequest línea solicitada.
type CreateRemissionItemRequest struct {
	ProductID          string          `json:"product_id" validate:"required"`
	Quantity           decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit               string          `json:"unit" validate:"required"`
	ProductionAreaKind string          `json:"production_area_kind,omitempty" validate:"max=40"`
}

// ItemBatch edición tipada de líneas: {items: [{item_id, patch: {...}}]}.
// Cada campo del patch se valida contra el estado actual de la remisión.
type ItemBatch struct {
	Items []ItemUpdate `json:"items" validate:"dive"`
}

// ItemUpdate cambio sobre una línea.
type ItemUpdate struct {
	ItemID string    `json:"item_id" validate:"required"`
	Patch  ItemPatch `json:"patch"`
}

// ItemPatch campos editables de una línea; nil = sin cambio.
type ItemPatch struct {
	Quantity              *decimal.Decimal `json:"quantity,omitempty"`
	PreparedQuantity      *decimal.Decimal `json:"prepared_quantity,omitempty"`
	ShippedQuantity       *decimal.Decimal `json:"shipped_quantity,omitempty"`
	ReceivedQuantity      *decimal.Decimal `json:"received_quantity,omitempty"`
	ShortageQuantity      *decimal.Decimal `json:"shortage_quantity,omitempty"`
	ItemStatus            *string          `json:"item_status,omitempty"`
	SourceLocationID      *string          `json:"source_location_id,omitempty"`
	DestinationLocationID *string          `json:"destination_location_id,omitempty"`
}

// CancelRemissionRequest body para POST /api/remissions/:id/cancel.
type CancelRemissionRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// RemissionItemResponse línea de la remisión.
type RemissionItemResponse struct {
	ID                    string           `json:"id"`
	ProductID             string           `json:"product_id"`
	Quantity              decimal.Decimal  `json:"quantity"`
	Unit                  string           `json:"unit"`
	PreparedQuantity      *decimal.Decimal `json:"prepared_quantity"`
	ShippedQuantity       *decimal.Decimal `json:"shipped_quantity"`
	ReceivedQuantity      *decimal.Decimal `json:"received_quantity"`
	ShortageQuantity      *decimal.Decimal `json:"shortage_quantity"`
	ItemStatus            string           `json:"item_status"`
	ProductionAreaKind    string           `json:"production_area_kind,omitempty"`
	SourceLocationID      string           `json:"source_location_id,omitempty"`
	DestinationLocationID string           `json:"destination_location_id,omitempty"`
}

// RemissionResponse remisión con sus líneas.
type RemissionResponse struct {
	ID              string                  `json:"id"`
	FromSiteID      string                  `json:"from_site_id"`
	ToSiteID        string                  `json:"to_site_id"`
	Status          string                  `json:"status"`
	CreatedBy       string                  `json:"created_by"`
	CreatedAt       time.Time               `json:"created_at"`
	PreparedAt      *time.Time              `json:"prepared_at,omitempty"`
	PreparedBy      string                  `json:"prepared_by,omitempty"`
	InTransitAt     *time.Time              `json:"in_transit_at,omitempty"`
	InTransitBy     string                  `json:"in_transit_by,omitempty"`
	ReceivedAt      *time.Time              `json:"received_at,omitempty"`
	ReceivedBy      string                  `json:"received_by,omitempty"`
	ClosedAt        *time.Time              `json:"closed_at,omitempty"`
	CancelledAt     *time.Time              `json:"cancelled_at,omitempty"`
	StatusUpdatedAt time.Time               `json:"status_updated_at"`
	Notes           string                  `json:"notes"`
	ExpectedDate    *time.Time              `json:"expected_date,omitempty"`
	Items           []RemissionItemResponse `json:"items"`
}

// RemissionListResponse lista paginada de remisiones.
type RemissionListResponse struct {
	Items []RemissionResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}
