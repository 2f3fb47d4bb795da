package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-sedes/internal/application/ports"
)

var _ ports.CapabilityChecker = (*CapabilityChecker)(nil)

// CapabilityChecker consulta actor_site_permissions en cada llamada (sin cache).
// Un permiso con site_id '' vale para todas las sedes.
type CapabilityChecker struct {
	q Querier
}

// NewCapabilityChecker construye el oráculo de permisos.
func NewCapabilityChecker(q Querier) *CapabilityChecker {
	return &CapabilityChecker{q: q}
}

// HasCapability implementa ports.CapabilityChecker.
func (c *CapabilityChecker) HasCapability(ctx context.Context, actorID, permissionCode, siteID string) (bool, error) {
	var ok bool
	err := c.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM actor_site_permissions
			WHERE actor_id = $1 AND permission_code = $2 AND (site_id = $3 OR site_id = '')
		)`, actorID, permissionCode, siteID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check capability: %w", err)
	}
	return ok, nil
}

// Grant concede un permiso (herramientas de administración y tests de integración).
func (c *CapabilityChecker) Grant(ctx context.Context, actorID, permissionCode, siteID string) error {
	_, err := c.q.Exec(ctx, `
		INSERT INTO actor_site_permissions (actor_id, permission_code, site_id)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, actorID, permissionCode, siteID)
	if err != nil {
		return mapError("grant capability", err)
	}
	return nil
}
