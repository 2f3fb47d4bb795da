package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RestockStatus estado de una remisión.
type RestockStatus string

// Estados de la remisión: pending → preparing → in_transit → received → closed;
// cancelled alcanzable desde cualquier estado no terminal.
const (
	RestockPending   RestockStatus = "pending"
	RestockPreparing RestockStatus = "preparing"
	RestockInTransit RestockStatus = "in_transit"
	RestockReceived  RestockStatus = "received"
	RestockClosed    RestockStatus = "closed"
	RestockCancelled RestockStatus = "cancelled"
)

// Terminal indica que la remisión ya no admite transiciones.
func (s RestockStatus) Terminal() bool {
	return s == RestockClosed || s == RestockCancelled
}

// ItemStatus subestado por línea.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemInTransit ItemStatus = "in_transit"
	ItemReceived  ItemStatus = "received"
	ItemShortage  ItemStatus = "shortage"
)

// Valid indica si el subestado es conocido.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemPreparing, ItemInTransit, ItemReceived, ItemShortage:
		return true
	}
	return false
}

// RestockRequest remisión: solicitud de reabastecimiento de una sede satélite
// a un centro de producción. Siempre tiene exactamente un origen y un destino.
type RestockRequest struct {
	ID              string
	FromSiteID      string
	ToSiteID        string
	Status          RestockStatus
	CreatedBy       string
	CreatedAt       time.Time
	PreparedAt      *time.Time
	PreparedBy      string
	InTransitAt     *time.Time
	InTransitBy     string
	ReceivedAt      *time.Time
	ReceivedBy      string
	ClosedAt        *time.Time
	ClosedBy        string
	CancelledAt     *time.Time
	CancelledBy     string
	StatusUpdatedAt time.Time
	Notes           string
	ExpectedDate    *time.Time
	Items           []*RestockRequestItem
}

// RestockRequestItem línea de la remisión. Cada etapa (solicitado, alistado, despachado,
// recibido, faltante) se registra por separado porque el cumplimiento parcial es normal.
// Las cantidades están en UnitCode; el libro las convierte a la unidad de stock.
type RestockRequestItem struct {
	ID                    string
	RequestID             string
	ProductID             string
	Quantity              decimal.Decimal
	UnitCode              string
	PreparedQuantity      *decimal.Decimal
	ShippedQuantity       *decimal.Decimal
	ReceivedQuantity      *decimal.Decimal
	ShortageQuantity      *decimal.Decimal
	ItemStatus            ItemStatus
	ProductionAreaKind    string
	SourceLocationID      string
	DestinationLocationID string
}

// EffectiveShipped cantidad a despachar: despachada, si no alistada, si no solicitada.
func (i *RestockRequestItem) EffectiveShipped() decimal.Decimal {
	if i.ShippedQuantity != nil {
		return *i.ShippedQuantity
	}
	if i.PreparedQuantity != nil {
		return *i.PreparedQuantity
	}
	return i.Quantity
}

// EffectiveReceived cantidad a ingresar en destino: recibida, si no la despachada.
func (i *RestockRequestItem) EffectiveReceived() decimal.Decimal {
	if i.ReceivedQuantity != nil {
		return *i.ReceivedQuantity
	}
	return i.EffectiveShipped()
}
