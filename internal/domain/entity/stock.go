package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBySite existencia canónica de un producto en una sede, en su unidad de stock,
// independiente de la ubicación física. Puede quedar negativa (discrepancia sin conciliar).
type StockBySite struct {
	SiteID     string
	ProductID  string
	CurrentQty decimal.Decimal
	UpdatedAt  time.Time
}

// Negative indica una discrepancia que debe marcarse visualmente.
func (s *StockBySite) Negative() bool { return s.CurrentQty.IsNegative() }

// StockByLocation existencia de un producto en una ubicación. Nunca negativa.
type StockByLocation struct {
	LocationID string
	ProductID  string
	CurrentQty decimal.Decimal
	UpdatedAt  time.Time
}
