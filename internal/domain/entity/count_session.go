package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CountScope alcance de una sesión de conteo.
type CountScope string

const (
	CountScopeSite CountScope = "site"
	CountScopeZone CountScope = "zone"
	CountScopeLoc  CountScope = "loc"
)

// CountStatus estado de la sesión.
type CountStatus string

const (
	CountOpen   CountStatus = "open"
	CountClosed CountStatus = "closed"
)

// CountSession sesión de conteo físico. El stock del sistema se fotografía al cerrar.
type CountSession struct {
	ID              string
	SiteID          string
	ScopeType       CountScope
	ScopeLocationID string
	Status          CountStatus
	CreatedBy       string
	CreatedAt       time.Time
	ClosedAt        *time.Time
	ClosedBy        string
	Lines           []*CountLine
}

// CountLine cantidad contada de un producto (en unidad de stock).
type CountLine struct {
	SessionID           string
	ProductID           string
	QuantityCounted     decimal.Decimal
	InputQty            decimal.Decimal
	InputUnitCode       string
	CurrentQtyAtClose   *decimal.Decimal
	QuantityDelta       *decimal.Decimal
	AdjustmentAppliedAt *time.Time
}

// Applied indica que el ajuste ya fue contabilizado.
func (l *CountLine) Applied() bool { return l.AdjustmentAppliedAt != nil }
