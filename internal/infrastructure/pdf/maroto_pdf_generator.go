// Package pdf genera la guía de remisión (despacho entre sedes) en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Origen → Destino    │  N° Remisión + Estado        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FECHAS: Despacho / Recepción / Esperada + Alistó           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Ubic. | Pedido | Enviado | Recibido │
//	│  ─────────────────────────────────────────────────────────  │
//	│  NOTAS + QR con el ID de la remisión + firmas               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/inventario-sedes/internal/application/remission"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var _ remission.ManifestGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa remission.ManifestGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	company string
}

// NewMarotoPDFGenerator construye el generador; company aparece como autor del documento.
func NewMarotoPDFGenerator(company string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{company: company}
}

// GenerateManifestPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateManifestPDF(_ context.Context, data remission.ManifestData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Guía de remisión "+data.RemissionID, true).
		WithAuthor(nonEmpty(g.company, "Inventario"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(datesRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(data.Lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(data) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: ruta origen → destino (izq) y N° de remisión + estado (der).
func headerRow(data remission.ManifestData) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("GUÍA DE REMISIÓN", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s  →  %s", data.FromSite, data.ToSite), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("REMISIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(data.RemissionID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Estado: "+data.Status, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func datesRow(data remission.ManifestData) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DESPACHO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Alistó: %s   |   Despachada: %s   |   Recibida: %s   |   Esperada: %s",
				nonEmpty(data.PreparedBy, "—"),
				formatTime(data.DispatchedAt),
				formatTime(data.ReceivedAt),
				formatDate(data.ExpectedDate),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Producto", 3, align.Left),
		h("Ubic.", 1, align.Center),
		h("Pedido", 2, align.Right),
		h("Enviado", 2, align.Right),
		h("Recibido", 2, align.Right),
	)
}

// tableDetailRows: una fila por producto; el faltante va debajo cuando existe.
func tableDetailRows(lines []remission.ManifestLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			cell(l.SKU, 2, align.Left),
			cell(l.ProductName, 3, align.Left),
			cell(nonEmpty(l.Location, "—"), 1, align.Center),
			cell(l.Requested, 2, align.Right),
			cell(l.Shipped, 2, align.Right),
			cell(l.Received, 2, align.Right),
		))
		if l.Shortage != "" && l.Shortage != "—" {
			result = append(result, row.New(5).Add(
				col.New(12).Add(text.New("Faltante: "+l.Shortage, props.Text{
					Size: 7, Align: align.Right, Color: colorGray, Right: 1,
				})),
			))
		}
	}
	return result
}

// footerRows: notas, QR con el ID completo y espacio para firmas.
func footerRows(data remission.ManifestData) []core.Row {
	var rows []core.Row
	if data.Notes != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Notas:", props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
		)))
		for _, chunk := range splitEvery(data.Notes, 110) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 7, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
		rows = append(rows, row.New(3))
	}

	rows = append(rows, row.New(40).Add(
		col.New(3).Add(code.NewQr(data.RemissionID, props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(9).Add(
			text.New("Entrega: ______________________", props.Text{
				Size: 9, Top: 8, Left: 3,
			}),
			text.New("Recibe:  ______________________", props.Text{
				Size: 9, Top: 22, Left: 3,
			}),
		),
	))
	return rows
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("02/01/2006 15:04")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("02/01/2006")
}

// splitEvery divide s en trozos de max n runas.
func splitEvery(s string, n int) []string {
	r := []rune(s)
	var parts []string
	for len(r) > n {
		parts = append(parts, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		parts = append(parts, string(r))
	}
	return parts
}
