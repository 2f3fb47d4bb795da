package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenCountRequest body para POST /api/counts.
type OpenCountRequest struct {
	SiteID          string `json:"site_id" validate:"required"`
	ScopeType       string `json:"scope_type" validate:"required,oneof=site zone loc"`
	ScopeLocationID string `json:"scope_location_id,omitempty" validate:"required_unless=ScopeType site"`
}

// RecordCountsRequest body para POST /api/counts/:id/lines.
type RecordCountsRequest struct {
	Lines []CountLineInput `json:"lines" validate:"required,min=1,dive"`
}

// CountLineInput cantidad contada en la unidad que usó el operador.
type CountLineInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit" validate:"required"`
}

// CountLineResponse línea de conteo (cantidades en unidad de stock).
type CountLineResponse struct {
	ProductID           string           `json:"product_id"`
	QuantityCounted     decimal.Decimal  `json:"quantity_counted"`
	InputQty            decimal.Decimal  `json:"input_qty"`
	InputUnit           string           `json:"input_unit"`
	CurrentQtyAtClose   *decimal.Decimal `json:"current_qty_at_close"`
	QuantityDelta       *decimal.Decimal `json:"quantity_delta"`
	AdjustmentAppliedAt *time.Time       `json:"adjustment_applied_at"`
}

// CountSessionResponse sesión de conteo con sus líneas.
type CountSessionResponse struct {
	ID              string              `json:"id"`
	SiteID          string              `json:"site_id"`
	ScopeType       string              `json:"scope_type"`
	ScopeLocationID string              `json:"scope_location_id,omitempty"`
	Status          string              `json:"status"`
	CreatedBy       string              `json:"created_by"`
	CreatedAt       time.Time           `json:"created_at"`
	ClosedAt        *time.Time          `json:"closed_at,omitempty"`
	ClosedBy        string              `json:"closed_by,omitempty"`
	Lines           []CountLineResponse `json:"lines"`
}

// Resultados por línea de la aprobación de ajustes.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped" // ya aplicado antes
	OutcomeNoDelta = "no_delta"
	OutcomeFailed  = "failed"
)

// AdjustmentOutcome resultado de una línea en la aprobación.
type AdjustmentOutcome struct {
	ProductID  string          `json:"product_id"`
	Outcome    string          `json:"outcome"`
	Delta      decimal.Decimal `json:"delta"`
	MovementID string          `json:"movement_id,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// ApprovalResult resultado de ApproveAdjustments.
type ApprovalResult struct {
	SessionID string              `json:"session_id"`
	Applied   int                 `json:"applied"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
	Lines     []AdjustmentOutcome `json:"lines"`
}
