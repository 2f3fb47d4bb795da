package repository

import (
	"context"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// RestockFilter filtros de listado de remisiones.
type RestockFilter struct {
	SiteID string // origen o destino
	Status entity.RestockStatus
	Limit  int
	Offset int
}

// RestockRequestRepository persistencia de remisiones y sus líneas.
type RestockRequestRepository interface {
	// Create inserta encabezado e ítems.
	Create(ctx context.Context, req *entity.RestockRequest) error
	// GetByID carga encabezado e ítems.
	GetByID(ctx context.Context, id string) (*entity.RestockRequest, error)
	// GetForUpdate bloquea el encabezado y carga los ítems.
	GetForUpdate(ctx context.Context, id string) (*entity.RestockRequest, error)
	Update(ctx context.Context, req *entity.RestockRequest) error
	UpdateItem(ctx context.Context, item *entity.RestockRequestItem) error
	List(ctx context.Context, filter RestockFilter) ([]*entity.RestockRequest, error)
}
