// Package count implementa el conteo físico en dos fases: abrir y registrar conteos,
// cerrar (foto del stock vivo en ese momento) y aprobar ajustes. La aprobación es
// idempotente: una línea aplicada nunca se vuelve a contabilizar.
package count

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/inventory"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

// UseCase casos de uso de conteo y conciliación.
type UseCase struct {
	tx        ports.TxRunner
	ledger    *inventory.Ledger
	conv      ports.ConverterProvider
	caps      ports.CapabilityChecker
	sites     repository.SiteRepository
	locations repository.LocationRepository
	products  repository.ProductRepository
	counts    repository.CountSessionRepository
	decimals  int32
	log       zerolog.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	tx ports.TxRunner,
	ledger *inventory.Ledger,
	conv ports.ConverterProvider,
	caps ports.CapabilityChecker,
	sites repository.SiteRepository,
	locations repository.LocationRepository,
	products repository.ProductRepository,
	counts repository.CountSessionRepository,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		tx:        tx,
		ledger:    ledger,
		conv:      conv,
		caps:      caps,
		sites:     sites,
		locations: locations,
		products:  products,
		counts:    counts,
		decimals:  uom.DefaultDecimals,
		log:       log,
		now:       time.Now,
	}
}

// Open abre una sesión sobre la sede completa, una zona o una ubicación.
func (uc *UseCase) Open(ctx context.Context, actorID string, in dto.OpenCountRequest) (*dto.CountSessionResponse, error) {
	site, err := uc.sites.GetByID(ctx, in.SiteID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("sede %s: %w", in.SiteID, domain.ErrNotFound)
	}
	if err := uc.authorize(ctx, actorID, ports.PermInventoryCount, site.ID); err != nil {
		return nil, err
	}
	scope := entity.CountScope(in.ScopeType)
	if err := uc.checkScope(ctx, site.ID, scope, in.ScopeLocationID); err != nil {
		return nil, err
	}
	if scope == entity.CountScopeSite {
		in.ScopeLocationID = ""
	}

	cs := &entity.CountSession{
		ID:              uuid.New().String(),
		SiteID:          site.ID,
		ScopeType:       scope,
		ScopeLocationID: in.ScopeLocationID,
		Status:          entity.CountOpen,
		CreatedBy:       actorID,
		CreatedAt:       uc.now(),
	}
	if err := uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		return repos.Counts.Create(ctx, cs)
	}); err != nil {
		return nil, err
	}
	uc.log.Info().Str("session_id", cs.ID).Str("site_id", site.ID).Str("scope", string(scope)).Msg("sesión de conteo abierta")
	return toResponse(cs), nil
}

// RecordCounts registra o reemplaza cantidades contadas. La cantidad se convierte a la
// unidad de stock del producto; se conserva lo que digitó el operador.
func (uc *UseCase) RecordCounts(ctx context.Context, actorID, sessionID string, in dto.RecordCountsRequest) (*dto.CountSessionResponse, error) {
	current, err := uc.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, actorID, ports.PermInventoryCount, current.SiteID); err != nil {
		return nil, err
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}

	var result *entity.CountSession
	err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		cs, err := uc.lock(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if cs.Status != entity.CountOpen {
			return fmt.Errorf("%w: la sesión está cerrada", domain.ErrInvalidTransition)
		}
		for _, l := range in.Lines {
			if l.Quantity.IsNegative() {
				return &domain.ProductError{ProductID: l.ProductID, Err: fmt.Errorf("%w: cantidad contada negativa", domain.ErrInvalidInput)}
			}
			product, err := repos.Products.GetForShare(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return &domain.ProductError{ProductID: l.ProductID, Err: domain.ErrNotFound}
			}
			unit, err := conv.ResolveUnit(l.Unit)
			if err != nil {
				return &domain.ProductError{ProductID: l.ProductID, Err: err}
			}
			qty, err := conv.Convert(l.Quantity, unit.Code, product.StockUnitCode)
			if err != nil {
				return &domain.ProductError{ProductID: l.ProductID, Err: err}
			}
			line := &entity.CountLine{
				SessionID:       cs.ID,
				ProductID:       l.ProductID,
				QuantityCounted: uom.RoundQuantityTo(qty, uc.decimals),
				InputQty:        l.Quantity,
				InputUnitCode:   unit.Code,
			}
			if err := repos.Counts.UpsertLine(ctx, line); err != nil {
				return err
			}
		}
		result, err = repos.Counts.GetByID(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("session_id", sessionID).Int("lines", len(in.Lines)).Msg("conteo registrado")
	return toResponse(result), nil
}

// Close fotografía el stock vivo de cada línea y calcula delta = contado - sistema.
// Desde aquí las cantidades contadas no cambian.
func (uc *UseCase) Close(ctx context.Context, actorID, sessionID string) (*dto.CountSessionResponse, error) {
	current, err := uc.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, actorID, ports.PermInventoryCount, current.SiteID); err != nil {
		return nil, err
	}
	var zoneLocs []*entity.Location
	if current.ScopeType == entity.CountScopeZone {
		if zoneLocs, err = uc.zoneLocations(ctx, current.ScopeLocationID); err != nil {
			return nil, err
		}
	}

	var result *entity.CountSession
	err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		cs, err := uc.lock(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if cs.Status != entity.CountOpen {
			return fmt.Errorf("%w: la sesión ya está cerrada", domain.ErrInvalidTransition)
		}
		for _, line := range cs.Lines {
			live, err := uc.liveQty(ctx, repos, cs, zoneLocs, line.ProductID)
			if err != nil {
				return err
			}
			delta := line.QuantityCounted.Sub(live)
			line.CurrentQtyAtClose = &live
			line.QuantityDelta = &delta
			if err := repos.Counts.UpsertLine(ctx, line); err != nil {
				return err
			}
		}
		now := uc.now()
		cs.Status = entity.CountClosed
		cs.ClosedAt = &now
		cs.ClosedBy = actorID
		if err := repos.Counts.Update(ctx, cs); err != nil {
			return err
		}
		result = cs
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("session_id", sessionID).Int("lines", len(result.Lines)).Msg("sesión de conteo cerrada")
	return toResponse(result), nil
}

// ApproveAdjustments contabiliza un ajuste por cada línea con delta distinto de cero que
// no se haya aplicado. Cada línea va en su propia transacción: una falla no detiene a las
// demás y cada resultado se reporta por separado.
func (uc *UseCase) ApproveAdjustments(ctx context.Context, actorID, sessionID string) (*dto.ApprovalResult, error) {
	cs, err := uc.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, actorID, ports.PermInventoryAdjust, cs.SiteID); err != nil {
		return nil, err
	}
	if cs.Status != entity.CountClosed {
		return nil, fmt.Errorf("%w: la sesión debe estar cerrada para aprobar ajustes", domain.ErrInvalidTransition)
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}

	lines := append([]*entity.CountLine(nil), cs.Lines...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	result := &dto.ApprovalResult{SessionID: cs.ID, Lines: make([]dto.AdjustmentOutcome, 0, len(lines))}
	for _, line := range lines {
		out := dto.AdjustmentOutcome{ProductID: line.ProductID}
		if line.QuantityDelta != nil {
			out.Delta = *line.QuantityDelta
		}
		switch {
		case line.Applied():
			out.Outcome = dto.OutcomeSkipped
		case line.QuantityDelta == nil || line.QuantityDelta.IsZero():
			out.Outcome = dto.OutcomeNoDelta
		default:
			movID, err := uc.applyLine(ctx, conv, cs, line.ProductID, actorID)
			switch {
			case errors.Is(err, domain.ErrAlreadyApplied):
				out.Outcome = dto.OutcomeSkipped
			case err != nil:
				out.Outcome = dto.OutcomeFailed
				out.Error = err.Error()
				uc.log.Warn().Err(err).Str("session_id", cs.ID).Str("product_id", line.ProductID).Msg("ajuste por conteo fallido")
			default:
				out.Outcome = dto.OutcomeApplied
				out.MovementID = movID
			}
		}
		switch out.Outcome {
		case dto.OutcomeApplied:
			result.Applied++
		case dto.OutcomeSkipped:
			result.Skipped++
		case dto.OutcomeFailed:
			result.Failed++
		}
		result.Lines = append(result.Lines, out)
	}
	uc.log.Info().Str("session_id", cs.ID).Int("applied", result.Applied).Int("skipped", result.Skipped).
		Int("failed", result.Failed).Str("actor_id", actorID).Msg("ajustes de conteo aprobados")
	return result, nil
}

// applyLine bloquea la línea, verifica que no esté aplicada y postea el ajuste.
func (uc *UseCase) applyLine(ctx context.Context, conv uom.Converter, cs *entity.CountSession, productID, actorID string) (string, error) {
	var movID string
	err := uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		line, err := repos.Counts.GetLineForUpdate(ctx, cs.ID, productID)
		if err != nil {
			return err
		}
		if line == nil {
			return &domain.ProductError{ProductID: productID, Err: domain.ErrNotFound}
		}
		if line.Applied() {
			return domain.ErrAlreadyApplied
		}
		product, err := repos.Products.GetForShare(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return &domain.ProductError{ProductID: productID, Err: domain.ErrNotFound}
		}
		in := inventory.MovementInput{
			SiteID:        cs.SiteID,
			ProductID:     productID,
			Type:          entity.MovementAdjustment,
			InputQty:      *line.QuantityDelta,
			InputUnitCode: product.StockUnitCode,
			Note:          fmt.Sprintf("Ajuste por conteo sesión %s", cs.ID),
			ActorID:       actorID,
		}
		if cs.ScopeType == entity.CountScopeLoc {
			in.LocationID = cs.ScopeLocationID
		}
		mov, err := uc.ledger.ApplyMovementTx(ctx, repos, conv, in)
		if err != nil {
			return err
		}
		now := uc.now()
		line.AdjustmentAppliedAt = &now
		if err := repos.Counts.UpsertLine(ctx, line); err != nil {
			return err
		}
		movID = mov.ID
		return nil
	})
	return movID, err
}

// Get devuelve la sesión con sus líneas.
func (uc *UseCase) Get(ctx context.Context, sessionID string) (*dto.CountSessionResponse, error) {
	cs, err := uc.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toResponse(cs), nil
}

// liveQty stock del sistema según el alcance: sede, ubicación o suma de las ubicaciones bajo la zona.
func (uc *UseCase) liveQty(
	ctx context.Context,
	repos ports.TxRepos,
	cs *entity.CountSession,
	zoneLocs []*entity.Location,
	productID string,
) (decimal.Decimal, error) {
	switch cs.ScopeType {
	case entity.CountScopeLoc:
		st, err := repos.LocationStock.Get(ctx, cs.ScopeLocationID, productID)
		if err != nil {
			return decimal.Zero, err
		}
		return st.CurrentQty, nil
	case entity.CountScopeZone:
		total := decimal.Zero
		for _, loc := range zoneLocs {
			st, err := repos.LocationStock.Get(ctx, loc.ID, productID)
			if err != nil {
				return decimal.Zero, err
			}
			total = total.Add(st.CurrentQty)
		}
		return total, nil
	default:
		st, err := repos.SiteStock.Get(ctx, cs.SiteID, productID)
		if err != nil {
			return decimal.Zero, err
		}
		return st.CurrentQty, nil
	}
}

// zoneLocations recorre el árbol bajo la zona y devuelve todas las descendientes,
// incluidas las de subzonas. Un ciclo en los datos no la deja en bucle.
func (uc *UseCase) zoneLocations(ctx context.Context, zoneID string) ([]*entity.Location, error) {
	seen := map[string]bool{zoneID: true}
	var out []*entity.Location
	pending := []string{zoneID}
	for len(pending) > 0 {
		parent := pending[0]
		pending = pending[1:]
		children, err := uc.locations.ListChildren(ctx, parent)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
			if c.Kind == entity.LocationKindZone {
				pending = append(pending, c.ID)
			}
		}
	}
	return out, nil
}

func (uc *UseCase) checkScope(ctx context.Context, siteID string, scope entity.CountScope, locationID string) error {
	switch scope {
	case entity.CountScopeSite:
		return nil
	case entity.CountScopeZone, entity.CountScopeLoc:
	default:
		return fmt.Errorf("%w: alcance de conteo %q", domain.ErrInvalidInput, scope)
	}
	if locationID == "" {
		return fmt.Errorf("%w: el alcance %s requiere una ubicación", domain.ErrInvalidInput, scope)
	}
	loc, err := uc.locations.GetByID(ctx, locationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("ubicación %s: %w", locationID, domain.ErrNotFound)
	}
	if loc.SiteID != siteID {
		return fmt.Errorf("%w: la ubicación %s no pertenece a la sede", domain.ErrInvalidInput, loc.Code)
	}
	wantKind := entity.LocationKindLoc
	if scope == entity.CountScopeZone {
		wantKind = entity.LocationKindZone
	}
	if loc.Kind != wantKind {
		return fmt.Errorf("%w: %s es de tipo %s, se esperaba %s", domain.ErrInvalidInput, loc.Code, loc.Kind, wantKind)
	}
	return nil
}

func (uc *UseCase) load(ctx context.Context, id string) (*entity.CountSession, error) {
	cs, err := uc.counts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, fmt.Errorf("sesión de conteo %s: %w", id, domain.ErrNotFound)
	}
	return cs, nil
}

func (uc *UseCase) lock(ctx context.Context, repos ports.TxRepos, id string) (*entity.CountSession, error) {
	cs, err := repos.Counts.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, fmt.Errorf("sesión de conteo %s: %w", id, domain.ErrNotFound)
	}
	return cs, nil
}

func (uc *UseCase) authorize(ctx context.Context, actorID, perm, siteID string) error {
	ok, err := uc.caps.HasCapability(ctx, actorID, perm, siteID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

func toResponse(cs *entity.CountSession) *dto.CountSessionResponse {
	out := &dto.CountSessionResponse{
		ID:              cs.ID,
		SiteID:          cs.SiteID,
		ScopeType:       string(cs.ScopeType),
		ScopeLocationID: cs.ScopeLocationID,
		Status:          string(cs.Status),
		CreatedBy:       cs.CreatedBy,
		CreatedAt:       cs.CreatedAt,
		ClosedAt:        cs.ClosedAt,
		ClosedBy:        cs.ClosedBy,
		Lines:           make([]dto.CountLineResponse, 0, len(cs.Lines)),
	}
	for _, l := range cs.Lines {
		out.Lines = append(out.Lines, dto.CountLineResponse{
			ProductID:           l.ProductID,
			QuantityCounted:     l.QuantityCounted,
			InputQty:            l.InputQty,
			InputUnit:           l.InputUnitCode,
			CurrentQtyAtClose:   l.CurrentQtyAtClose,
			QuantityDelta:       l.QuantityDelta,
			AdjustmentAppliedAt: l.AdjustmentAppliedAt,
		})
	}
	return out
}
