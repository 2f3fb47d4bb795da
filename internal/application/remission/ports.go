package remission

import (
	"context"
	"time"
)

// ManifestLine línea de la guía de remisión ya formateada para impresión.
type ManifestLine struct {
	SKU         string
	ProductName string
	Requested   string // cantidad + símbolo, ej. "1.500 kg"
	Shipped     string
	Received    string
	Shortage    string
	Location    string
}

// ManifestData datos de la guía de remisión (despacho entre sedes).
type ManifestData struct {
	RemissionID  string
	Status       string
	FromSite     string
	ToSite       string
	PreparedBy   string
	DispatchedAt *time.Time
	ReceivedAt   *time.Time
	ExpectedDate *time.Time
	Notes        string
	Lines        []ManifestLine
}

// ManifestGenerator puerto de salida: genera el PDF de la guía y devuelve sus bytes.
type ManifestGenerator interface {
	GenerateManifestPDF(ctx context.Context, data ManifestData) ([]byte, error)
}
