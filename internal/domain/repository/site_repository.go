package repository

import (
	"context"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// SiteRepository datos maestros de sedes (solo lectura para el núcleo).
type SiteRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Site, error)
	List(ctx context.Context) ([]*entity.Site, error)
}

// LocationRepository datos maestros de ubicaciones (solo lectura para el núcleo).
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	ListBySite(ctx context.Context, siteID string) ([]*entity.Location, error)
	ListChildren(ctx context.Context, parentID string) ([]*entity.Location, error)
}
