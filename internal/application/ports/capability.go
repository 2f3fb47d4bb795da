package ports

import "context"

// Códigos de permiso que consulta el núcleo.
const (
	PermRemissionRequest = "remission.request"
	PermRemissionPrepare = "remission.prepare"
	PermRemissionReceive = "remission.receive"
	PermRemissionCancel  = "remission.cancel"
	PermInventoryMove    = "inventory.move"
	PermInventoryCount   = "inventory.count"
	PermInventoryAdjust  = "inventory.adjust"
	PermCatalogAdmin     = "catalog.admin"
)

// CapabilityChecker oráculo externo de permisos. Se consulta en cada transición,
// sin cachear entre peticiones: los permisos pueden cambiar entre llamadas.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, actorID, permissionCode, siteID string) (bool, error)
}
