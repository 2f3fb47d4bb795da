package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// SiteStockRepository define el puerto para consultar/actualizar stock por sede+producto.
// Usado dentro de transacciones para garantizar consistencia.
type SiteStockRepository interface {
	// Get devuelve cantidad cero si no existe la fila.
	Get(ctx context.Context, siteID, productID string) (*entity.StockBySite, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE), creándola en cero si no existe.
	GetForUpdate(ctx context.Context, siteID, productID string) (*entity.StockBySite, error)
	Upsert(ctx context.Context, stock *entity.StockBySite) error
	ListBySite(ctx context.Context, siteID string) ([]*entity.StockBySite, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockBySite, error)
}

// LocationStockRepository stock por ubicación+producto.
type LocationStockRepository interface {
	Get(ctx context.Context, locationID, productID string) (*entity.StockByLocation, error)
	GetForUpdate(ctx context.Context, locationID, productID string) (*entity.StockByLocation, error)
	Upsert(ctx context.Context, stock *entity.StockByLocation) error
	ListByLocation(ctx context.Context, locationID string) ([]*entity.StockByLocation, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockByLocation, error)
	// SumBySite suma por producto las ubicaciones de la sede.
	SumBySite(ctx context.Context, siteID string) (map[string]decimal.Decimal, error)
}
