package remission

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// Manifest genera la guía de remisión en PDF. Solo existe desde el alistamiento:
// una remisión pendiente o cancelada no tiene nada que despachar.
func (uc *UseCase) Manifest(ctx context.Context, id string) (pdfBytes []byte, filename string, err error) {
	if uc.manifest == nil {
		return nil, "", fmt.Errorf("%w: generador de guías no configurado", domain.ErrConflict)
	}
	req, err := uc.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if req.Status == entity.RestockPending || req.Status == entity.RestockCancelled {
		return nil, "", fmt.Errorf("%w: la remisión en estado %s no tiene guía", domain.ErrInvalidTransition, req.Status)
	}
	from, err := uc.site(ctx, req.FromSiteID)
	if err != nil {
		return nil, "", err
	}
	to, err := uc.site(ctx, req.ToSiteID)
	if err != nil {
		return nil, "", err
	}
	reg, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, "", err
	}
	format := func(q *decimal.Decimal, unit string) string {
		if q == nil {
			return "—"
		}
		return reg.Format(*q, unit)
	}

	data := ManifestData{
		RemissionID:  req.ID,
		Status:       string(req.Status),
		FromSite:     fmt.Sprintf("%s - %s", from.Code, from.Name),
		ToSite:       fmt.Sprintf("%s - %s", to.Code, to.Name),
		PreparedBy:   req.PreparedBy,
		DispatchedAt: req.InTransitAt,
		ReceivedAt:   req.ReceivedAt,
		ExpectedDate: req.ExpectedDate,
		Notes:        req.Notes,
	}
	for _, it := range sortedItems(req.Items) {
		line := ManifestLine{
			SKU:         it.ProductID,
			ProductName: "Producto " + it.ProductID,
			Requested:   format(&it.Quantity, it.UnitCode),
			Shipped:     format(it.ShippedQuantity, it.UnitCode),
			Received:    format(it.ReceivedQuantity, it.UnitCode),
			Shortage:    format(it.ShortageQuantity, it.UnitCode),
		}
		if p, pErr := uc.products.GetByID(ctx, it.ProductID); pErr == nil && p != nil {
			line.SKU = p.SKU
			line.ProductName = p.Name
		}
		if it.SourceLocationID != "" {
			if loc, lErr := uc.locations.GetByID(ctx, it.SourceLocationID); lErr == nil && loc != nil {
				line.Location = loc.Code
			}
		}
		data.Lines = append(data.Lines, line)
	}

	pdfBytes, err = uc.manifest.GenerateManifestPDF(ctx, data)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("remision_%s.pdf", req.ID), nil
}
