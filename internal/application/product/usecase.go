// Package product administra los productos del inventario: alta, costeo automático
// desde el proveedor principal y cambios de unidad de stock.
package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/costing"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

const costDecimals int32 = 8

// UseCase casos de uso de productos. Cost y stock no se editan a mano:
// el costo sale del costeo y el stock del libro de inventario.
type UseCase struct {
	tx        ports.TxRunner
	conv      ports.ConverterProvider
	caps      ports.CapabilityChecker
	products  repository.ProductRepository
	suppliers repository.ProductSupplierRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	tx ports.TxRunner,
	conv ports.ConverterProvider,
	caps ports.CapabilityChecker,
	products repository.ProductRepository,
	suppliers repository.ProductSupplierRepository,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{tx: tx, conv: conv, caps: caps, products: products, suppliers: suppliers, log: log, now: time.Now}
}

// Create crea un producto. En modo auto_primary_supplier sin costo explícito el costo
// se toma del proveedor principal si la presentación lo permite; si no, queda en cero
// y AutoCostReadiness explica por qué.
func (uc *UseCase) Create(ctx context.Context, actorID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := uc.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}
	unit, err := conv.ResolveUnit(in.StockUnit)
	if err != nil {
		return nil, err
	}
	mode := in.CostingMode
	if mode == "" {
		mode = entity.CostingModeManual
	}
	if mode != entity.CostingModeManual && mode != entity.CostingModeAutoPrimarySupplier {
		return nil, fmt.Errorf("%w: modo de costeo %q", domain.ErrInvalidInput, mode)
	}
	if in.Cost != nil && in.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: costo negativo", domain.ErrInvalidInput)
	}

	now := uc.now()
	p := &entity.Product{
		ID:            uuid.New().String(),
		SKU:           strings.TrimSpace(in.SKU),
		Name:          strings.TrimSpace(in.Name),
		StockUnitCode: unit.Code,
		UnitFamily:    unit.Family,
		CostingMode:   mode,
		Cost:          decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Cost != nil {
		p.Cost = *in.Cost
	}

	var supplier *entity.ProductSupplier
	if in.PrimarySupplier != nil {
		s := in.PrimarySupplier
		s.IsPrimary = true
		if supplier, err = uc.toSupplier(conv, p.ID, *s); err != nil {
			return nil, err
		}
	}
	if mode == entity.CostingModeAutoPrimarySupplier && in.Cost == nil {
		reason := costing.GetAutoCostReadinessReason(conv, p, supplier)
		if reason.Ready() {
			cost, err := costing.ComputeAutoCostFromPrimarySupplier(conv, autoCostInput(p, supplier))
			if err != nil {
				return nil, err
			}
			p.Cost = cost
		} else {
			uc.log.Warn().Str("sku", p.SKU).Str("reason", string(reason)).Msg("costeo automático no disponible al crear")
		}
	}

	if err := uc.products.Create(ctx, p); err != nil {
		return nil, err
	}
	if supplier != nil {
		if err := uc.suppliers.Upsert(ctx, supplier); err != nil {
			return nil, err
		}
	}
	uc.log.Info().Str("product_id", p.ID).Str("sku", p.SKU).Str("stock_unit", p.StockUnitCode).
		Str("cost", p.Cost.String()).Msg("producto creado")
	return toResponse(p), nil
}

// GetByID obtiene un producto.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	p, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(p), nil
}

// SetSupplier registra o actualiza la presentación de compra de un proveedor.
// No recalcula el costo: eso lo hace RecomputeAutoCost de forma explícita.
func (uc *UseCase) SetSupplier(ctx context.Context, actorID, productID string, in dto.SupplierRequest) error {
	if err := uc.authorize(ctx, actorID); err != nil {
		return err
	}
	if _, err := uc.load(ctx, productID); err != nil {
		return err
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return err
	}
	ps, err := uc.toSupplier(conv, productID, in)
	if err != nil {
		return err
	}
	if err := uc.suppliers.Upsert(ctx, ps); err != nil {
		return err
	}
	uc.log.Info().Str("product_id", productID).Str("supplier_id", ps.SupplierID).Bool("primary", ps.IsPrimary).Msg("proveedor actualizado")
	return nil
}

// AutoCostReadiness diagnostica si el costeo automático puede ejecutarse.
func (uc *UseCase) AutoCostReadiness(ctx context.Context, productID string) (*dto.AutoCostReadinessResponse, error) {
	p, err := uc.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}
	supplier, err := uc.suppliers.GetPrimary(ctx, productID)
	if err != nil {
		return nil, err
	}
	reason := costing.GetAutoCostReadinessReason(conv, p, supplier)
	return &dto.AutoCostReadinessResponse{ProductID: p.ID, Ready: reason.Ready(), Reason: string(reason)}, nil
}

// RecomputeAutoCost recalcula el costo desde el proveedor principal. El costo es una foto:
// cambios posteriores de precio o catálogo no lo tocan hasta que se vuelva a invocar.
func (uc *UseCase) RecomputeAutoCost(ctx context.Context, actorID, productID string) (*dto.ProductResponse, error) {
	if err := uc.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	p, err := uc.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.CostingMode != entity.CostingModeAutoPrimarySupplier {
		return nil, fmt.Errorf("%w: el producto usa costeo %s", domain.ErrInvalidInput, p.CostingMode)
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}
	supplier, err := uc.suppliers.GetPrimary(ctx, productID)
	if err != nil {
		return nil, err
	}
	if reason := costing.GetAutoCostReadinessReason(conv, p, supplier); !reason.Ready() {
		return nil, fmt.Errorf("%w: costeo automático no disponible: %s", domain.ErrInvalidInput, reason)
	}
	cost, err := costing.ComputeAutoCostFromPrimarySupplier(conv, autoCostInput(p, supplier))
	if err != nil {
		return nil, err
	}
	if err := uc.products.UpdateCost(ctx, p.ID, cost); err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", p.ID).Str("previous_cost", p.Cost.String()).Str("cost", cost.String()).Msg("costo recalculado")
	p.Cost = cost
	return toResponse(p), nil
}

// ChangeStockUnit cambia la unidad de stock de un producto sin historia. Si existe
// cualquier existencia o movimiento se rechaza con ErrStockUnitLocked: para esos
// casos está MigrateStockUnit.
func (uc *UseCase) ChangeStockUnit(ctx context.Context, actorID, productID, unitCode string) (*dto.ProductResponse, error) {
	if err := uc.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}
	unit, err := conv.ResolveUnit(unitCode)
	if err != nil {
		return nil, err
	}

	var result *entity.Product
	err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		p, err := lockProduct(ctx, repos, productID)
		if err != nil {
			return err
		}
		if p.StockUnitCode == unit.Code {
			result = p
			return nil
		}
		locked, err := hasHistory(ctx, repos, productID)
		if err != nil {
			return err
		}
		if locked {
			return domain.ErrStockUnitLocked
		}
		if factor, fErr := conv.Factor(unit.Code, p.StockUnitCode); fErr == nil {
			// costo por unidad nueva = costo por unidad vieja * unidades viejas por unidad nueva
			p.Cost = p.Cost.Mul(factor).Round(costDecimals)
		} else {
			p.Cost = decimal.Zero
		}
		if err := repos.Products.UpdateStockUnit(ctx, p.ID, unit.Code, unit.Family); err != nil {
			return err
		}
		if err := repos.Products.UpdateCost(ctx, p.ID, p.Cost); err != nil {
			return err
		}
		p.StockUnitCode = unit.Code
		p.UnitFamily = unit.Family
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", productID).Str("stock_unit", result.StockUnitCode).Msg("unidad de stock cambiada")
	return toResponse(result), nil
}

// MigrateStockUnit cambia la unidad de stock de un producto con historia dentro de la misma
// familia. Reescala en una transacción todas las filas de stock por sede y por ubicación
// y el costo. Los movimientos existentes quedan en la unidad con que se registraron.
func (uc *UseCase) MigrateStockUnit(ctx context.Context, actorID, productID, unitCode string) (*dto.StockUnitMigrationResponse, error) {
	if err := uc.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}
	unit, err := conv.ResolveUnit(unitCode)
	if err != nil {
		return nil, err
	}

	out := &dto.StockUnitMigrationResponse{ProductID: productID, ToUnit: unit.Code}
	err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		p, err := lockProduct(ctx, repos, productID)
		if err != nil {
			return err
		}
		out.FromUnit = p.StockUnitCode
		if p.StockUnitCode == unit.Code {
			out.Factor = decimal.NewFromInt(1)
			out.Cost = p.Cost
			return nil
		}
		// cantidad nueva = cantidad vieja * factor
		factor, err := conv.Factor(p.StockUnitCode, unit.Code)
		if err != nil {
			return err
		}
		out.Factor = factor
		now := uc.now()

		siteRows, err := repos.SiteStock.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		// Cada fila se relee bloqueada: el listado no bloquea y el valor escrito es absoluto.
		for _, row := range siteRows {
			st, err := repos.SiteStock.GetForUpdate(ctx, row.SiteID, productID)
			if err != nil {
				return err
			}
			st.CurrentQty = uom.RoundQuantity(st.CurrentQty.Mul(factor))
			st.UpdatedAt = now
			if err := repos.SiteStock.Upsert(ctx, st); err != nil {
				return err
			}
		}
		locRows, err := repos.LocationStock.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		for _, row := range locRows {
			st, err := repos.LocationStock.GetForUpdate(ctx, row.LocationID, productID)
			if err != nil {
				return err
			}
			st.CurrentQty = uom.RoundQuantity(st.CurrentQty.Mul(factor))
			st.UpdatedAt = now
			if err := repos.LocationStock.Upsert(ctx, st); err != nil {
				return err
			}
		}
		out.SiteRows = len(siteRows)
		out.LocationRows = len(locRows)

		out.Cost = p.Cost.DivRound(factor, costDecimals)
		if err := repos.Products.UpdateStockUnit(ctx, p.ID, unit.Code, unit.Family); err != nil {
			return err
		}
		return repos.Products.UpdateCost(ctx, p.ID, out.Cost)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", productID).Str("from_unit", out.FromUnit).Str("to_unit", out.ToUnit).
		Str("factor", out.Factor.String()).Int("site_rows", out.SiteRows).Int("location_rows", out.LocationRows).
		Str("actor_id", actorID).Msg("unidad de stock migrada")
	return out, nil
}

func (uc *UseCase) toSupplier(conv uom.Converter, productID string, in dto.SupplierRequest) (*entity.ProductSupplier, error) {
	if in.PackPrice.IsNegative() || in.PackQty.IsNegative() {
		return nil, fmt.Errorf("%w: presentación con valores negativos", domain.ErrInvalidInput)
	}
	packUnit, err := conv.ResolveUnit(in.PackUnit)
	if err != nil {
		return nil, err
	}
	return &entity.ProductSupplier{
		ProductID:    productID,
		SupplierID:   in.SupplierID,
		SupplierName: in.SupplierName,
		IsPrimary:    in.IsPrimary,
		PackPrice:    in.PackPrice,
		PackQty:      in.PackQty,
		PackUnitCode: packUnit.Code,
		UpdatedAt:    uc.now(),
	}, nil
}

func (uc *UseCase) load(ctx context.Context, id string) (*entity.Product, error) {
	p, err := uc.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (uc *UseCase) authorize(ctx context.Context, actorID string) error {
	ok, err := uc.caps.HasCapability(ctx, actorID, ports.PermCatalogAdmin, "")
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

func lockProduct(ctx context.Context, repos ports.TxRepos, id string) (*entity.Product, error) {
	p, err := repos.Products.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// hasHistory indica si el producto tiene movimientos o existencias distintas de cero.
// Se llama con el producto bloqueado: los movimientos toman la fila en modo compartido,
// así que lo leído aquí ya incluye cualquier movimiento que estuviera en curso.
func hasHistory(ctx context.Context, repos ports.TxRepos, productID string) (bool, error) {
	n, err := repos.Movements.CountByProduct(ctx, productID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	siteRows, err := repos.SiteStock.ListByProduct(ctx, productID)
	if err != nil {
		return false, err
	}
	for _, st := range siteRows {
		if !st.CurrentQty.IsZero() {
			return true, nil
		}
	}
	locRows, err := repos.LocationStock.ListByProduct(ctx, productID)
	if err != nil {
		return false, err
	}
	for _, st := range locRows {
		if !st.CurrentQty.IsZero() {
			return true, nil
		}
	}
	return false, nil
}

func autoCostInput(p *entity.Product, s *entity.ProductSupplier) costing.AutoCostInput {
	return costing.AutoCostInput{
		PackPrice:     s.PackPrice,
		PackQty:       s.PackQty,
		PackUnitCode:  s.PackUnitCode,
		StockUnitCode: p.StockUnitCode,
	}
}

func toResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		StockUnit:   p.StockUnitCode,
		UnitFamily:  string(p.UnitFamily),
		CostingMode: p.CostingMode,
		Cost:        p.Cost,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
