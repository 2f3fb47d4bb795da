package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
)

// GetLowStockSites productos de la sede por debajo de su mínimo configurado.
// missingQty = max(mínimo - actual, 0). Productos sin mínimo configurado no aparecen.
func (l *Ledger) GetLowStockSites(ctx context.Context, siteID string) ([]dto.LowStockItem, error) {
	settings, err := l.Settings.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if len(settings) == 0 {
		return []dto.LowStockItem{}, nil
	}

	items := make([]dto.LowStockItem, 0, len(settings))
	for _, s := range settings {
		stock, err := l.SiteStock.Get(ctx, siteID, s.ProductID)
		if err != nil {
			return nil, err
		}
		missing := s.MinStock.Sub(stock.CurrentQty)
		if missing.IsNegative() {
			missing = decimal.Zero
		}
		isLow := stock.CurrentQty.LessThan(s.MinStock)
		if !isLow {
			continue
		}
		items = append(items, dto.LowStockItem{
			ProductID:  s.ProductID,
			CurrentQty: stock.CurrentQty,
			MinStock:   s.MinStock,
			MissingQty: missing,
			IsLow:      isLow,
		})
	}

	// Mayor faltante primero.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].MissingQty.GreaterThan(items[j].MissingQty)
	})
	return items, nil
}

// SuggestPurchaseOrders agrupa los faltantes de la sede por proveedor principal.
// Un producto sin proveedor principal, sin faltante o cuyo empaque no convierte a la
// unidad de stock nunca entra en un grupo. Empaques sugeridos = ceil(faltante / empaque).
func (l *Ledger) SuggestPurchaseOrders(ctx context.Context, siteID string) ([]dto.PurchaseSuggestionGroup, error) {
	low, err := l.GetLowStockSites(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if len(low) == 0 {
		return []dto.PurchaseSuggestionGroup{}, nil
	}
	ids := make([]string, 0, len(low))
	for _, item := range low {
		ids = append(ids, item.ProductID)
	}
	primaries, err := l.Suppliers.ListPrimaryByProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	conv, err := l.Converter.Converter(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*dto.PurchaseSuggestionGroup)
	for _, item := range low {
		if !item.MissingQty.IsPositive() {
			continue
		}
		sup, ok := primaries[item.ProductID]
		if !ok || sup == nil {
			continue
		}
		product, err := l.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !sup.PackQty.IsPositive() || sup.PackUnitCode == "" {
			continue
		}
		packInStock, err := conv.Convert(sup.PackQty, sup.PackUnitCode, product.StockUnitCode)
		if err != nil || !packInStock.IsPositive() {
			l.log.Warn().Err(err).Str("site_id", siteID).Str("product_id", item.ProductID).
				Msg("empaque del proveedor no convertible, se omite de la sugerencia")
			continue
		}
		packs := item.MissingQty.Div(packInStock).Ceil()

		g, ok := groups[sup.SupplierID]
		if !ok {
			g = &dto.PurchaseSuggestionGroup{SupplierID: sup.SupplierID, SupplierName: sup.SupplierName}
			groups[sup.SupplierID] = g
		}
		cost := packs.Mul(sup.PackPrice)
		g.Lines = append(g.Lines, dto.PurchaseSuggestionLine{
			ProductID:          item.ProductID,
			MissingQty:         item.MissingQty,
			PackQty:            sup.PackQty,
			PackUnitCode:       sup.PackUnitCode,
			PackQtyInStockUnit: packInStock,
			PacksToOrder:       packs,
			PackPrice:          sup.PackPrice,
			EstimatedCost:      cost,
		})
		g.EstimatedTotal = g.EstimatedTotal.Add(cost)
	}

	out := make([]dto.PurchaseSuggestionGroup, 0, len(groups))
	for _, g := range groups {
		// Dentro del proveedor: mayor costo estimado primero (1 = más urgente).
		sort.SliceStable(g.Lines, func(i, j int) bool {
			return g.Lines[i].EstimatedCost.GreaterThan(g.Lines[j].EstimatedCost)
		})
		for i := range g.Lines {
			g.Lines[i].Priority = i + 1
		}
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EstimatedTotal.Equal(out[j].EstimatedTotal) {
			return out[i].EstimatedTotal.GreaterThan(out[j].EstimatedTotal)
		}
		return out[i].SupplierID < out[j].SupplierID
	})
	return out, nil
}
