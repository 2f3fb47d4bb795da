package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
)

var (
	_ repository.SiteRepository     = (*SiteRepo)(nil)
	_ repository.LocationRepository = (*LocationRepo)(nil)
)

// SiteRepo implementación del puerto SiteRepository sobre PostgreSQL.
type SiteRepo struct {
	q Querier
}

// NewSiteRepository construye el adaptador de sedes.
func NewSiteRepository(q Querier) *SiteRepo {
	return &SiteRepo{q: q}
}

// GetByID obtiene una sede por ID.
func (r *SiteRepo) GetByID(ctx context.Context, id string) (*entity.Site, error) {
	query := `
		SELECT id, code, name, type, active, created_at, updated_at
		FROM sites WHERE id = $1`
	var s entity.Site
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Code, &s.Name, &s.Type, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get site: %w", err)
	}
	return &s, nil
}

// List lista las sedes activas.
func (r *SiteRepo) List(ctx context.Context) ([]*entity.Site, error) {
	query := `
		SELECT id, code, name, type, active, created_at, updated_at
		FROM sites WHERE active ORDER BY code`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()
	var list []*entity.Site
	for rows.Next() {
		var s entity.Site
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Type, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// LocationRepo implementación del puerto LocationRepository sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de ubicaciones.
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

const locationColumns = `id, site_id, parent_id, code, name, kind, active`

func scanLocation(row pgx.Row) (*entity.Location, error) {
	var l entity.Location
	var parent *string
	if err := row.Scan(&l.ID, &l.SiteID, &parent, &l.Code, &l.Name, &l.Kind, &l.Active); err != nil {
		return nil, err
	}
	l.ParentID = deref(parent)
	return &l, nil
}

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	l, err := scanLocation(r.q.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

// ListBySite lista las ubicaciones de una sede.
func (r *LocationRepo) ListBySite(ctx context.Context, siteID string) ([]*entity.Location, error) {
	return r.list(ctx, `SELECT `+locationColumns+` FROM locations WHERE site_id = $1 ORDER BY code`, siteID)
}

// ListChildren lista las ubicaciones que cuelgan de una zona.
func (r *LocationRepo) ListChildren(ctx context.Context, parentID string) ([]*entity.Location, error) {
	return r.list(ctx, `SELECT `+locationColumns+` FROM locations WHERE parent_id = $1 ORDER BY code`, parentID)
}

func (r *LocationRepo) list(ctx context.Context, query string, arg string) ([]*entity.Location, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
