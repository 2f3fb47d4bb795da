package entity

import "time"

// SiteType distingue quién puede despachar y quién puede solicitar remisiones.
type SiteType string

const (
	SiteTypeProductionCenter SiteType = "production_center"
	SiteTypeSatellite        SiteType = "satellite"
)

// Site es una sede física de la operación (centro de producción o punto satélite).
type Site struct {
	ID        string
	Code      string
	Name      string
	Type      SiteType
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LocationKind nivel de la ubicación dentro de la sede.
type LocationKind string

const (
	LocationKindZone LocationKind = "zone"
	LocationKindLoc  LocationKind = "loc"
)

// Location es una subdivisión física del almacenamiento de una sede (LOC).
// Una ubicación de tipo loc puede colgar de una zona (ParentID).
type Location struct {
	ID       string
	SiteID   string
	ParentID string
	Code     string
	Name     string
	Kind     LocationKind
	Active   bool
}
