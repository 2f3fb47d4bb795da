package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto (cambios de unidad de stock).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// GetForShare bloquea la fila en modo compartido: los movimientos conviven entre sí
	// pero esperan (y hacen esperar) a un cambio de unidad de stock.
	GetForShare(ctx context.Context, id string) (*entity.Product, error)
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
	UpdateStockUnit(ctx context.Context, productID, unitCode string, family entity.UnitFamily) error
}

// ProductSupplierRepository presentaciones de compra por proveedor.
type ProductSupplierRepository interface {
	GetPrimary(ctx context.Context, productID string) (*entity.ProductSupplier, error)
	// ListPrimaryByProducts devuelve el proveedor principal indexado por producto.
	ListPrimaryByProducts(ctx context.Context, productIDs []string) (map[string]*entity.ProductSupplier, error)
	// Upsert guarda la presentación; si es principal, las demás del producto dejan de serlo.
	Upsert(ctx context.Context, supplier *entity.ProductSupplier) error
}

// SiteProductSettingRepository mínimos de stock configurados por sede.
type SiteProductSettingRepository interface {
	ListBySite(ctx context.Context, siteID string) ([]entity.SiteProductSetting, error)
}
