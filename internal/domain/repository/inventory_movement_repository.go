package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// MovementFilter filtros para listar el libro de movimientos.
type MovementFilter struct {
	SiteID    string
	ProductID string
	Type      entity.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// InventoryMovementRepository define el puerto de persistencia para movimientos de inventario.
// Solo inserción: los movimientos son inmutables.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.InventoryMovement, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
}
