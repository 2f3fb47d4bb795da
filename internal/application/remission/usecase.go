// Package remission implementa la máquina de estados de las remisiones
// (solicitudes de reabastecimiento de una sede satélite a un centro de producción).
//
//	pending → preparing → in_transit → received → closed
//	   └──────────┴────────────┴───────────┴──→ cancelled
//
// transit descuenta el stock de la sede origen y receive lo acredita en el destino,
// siempre a través del libro de inventario y dentro de una sola transacción.
package remission

import (
	"context"
	"fmt"
	"strings"
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
)

// UseCase casos de uso de remisiones.
type UseCase struct {
	tx        ports.TxRunner
	ledger    *inventory.Ledger
	conv      ports.ConverterProvider
	caps      ports.CapabilityChecker
	sites     repository.SiteRepository
	locations repository.LocationRepository
	products  repository.ProductRepository
	restocks  repository.RestockRequestRepository
	manifest  ManifestGenerator
	log       zerolog.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso. manifest puede ser nil (sin guía PDF).
func NewUseCase(
	tx ports.TxRunner,
	ledger *inventory.Ledger,
	conv ports.ConverterProvider,
	caps ports.CapabilityChecker,
	sites repository.SiteRepository,
	locations repository.LocationRepository,
	products repository.ProductRepository,
	restocks repository.RestockRequestRepository,
	manifest ManifestGenerator,
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
		restocks:  restocks,
		manifest:  manifest,
		log:       log,
		now:       time.Now,
	}
}

// Create registra una remisión pendiente. Solo una sede satélite solicita y solo un
// centro de producción despacha; se exige remission.request en la sede destino.
func (uc *UseCase) Create(ctx context.Context, actorID string, in dto.CreateRemissionRequest) (*dto.RemissionResponse, error) {
	if in.FromSiteID == "" || in.ToSiteID == "" || in.FromSiteID == in.ToSiteID {
		return nil, fmt.Errorf("%w: origen y destino deben ser sedes distintas", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: la remisión no tiene ítems", domain.ErrInvalidInput)
	}
	from, to, err := uc.route(ctx, in.FromSiteID, in.ToSiteID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, actorID, ports.PermRemissionRequest, to.ID); err != nil {
		return nil, err
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	req := &entity.RestockRequest{
		ID:              uuid.New().String(),
		FromSiteID:      from.ID,
		ToSiteID:        to.ID,
		Status:          entity.RestockPending,
		CreatedBy:       actorID,
		CreatedAt:       now,
		StatusUpdatedAt: now,
		Notes:           in.Notes,
		ExpectedDate:    in.ExpectedDate,
	}
	for _, it := range in.Items {
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: cantidad solicitada de %s debe ser mayor que cero", domain.ErrInvalidInput, it.ProductID)
		}
		product, err := uc.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, &domain.ProductError{ProductID: it.ProductID, Err: domain.ErrNotFound}
		}
		unit, err := conv.ResolveUnit(it.Unit)
		if err != nil {
			return nil, &domain.ProductError{ProductID: it.ProductID, Err: err}
		}
		if _, err := conv.Factor(unit.Code, product.StockUnitCode); err != nil {
			return nil, &domain.ProductError{ProductID: it.ProductID, Err: err}
		}
		req.Items = append(req.Items, &entity.RestockRequestItem{
			ID:                 uuid.New().String(),
			RequestID:          req.ID,
			ProductID:          it.ProductID,
			Quantity:           it.Quantity,
			UnitCode:           unit.Code,
			ItemStatus:         entity.ItemPending,
			ProductionAreaKind: it.ProductionAreaKind,
		})
	}

	if err := uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		return repos.Restocks.Create(ctx, req)
	}); err != nil {
		return nil, err
	}
	uc.log.Info().Str("remission_id", req.ID).Str("from_site", from.Code).Str("to_site", to.Code).
		Int("items", len(req.Items)).Str("actor_id", actorID).Msg("remisión creada")
	return toResponse(req), nil
}

// Get devuelve la remisión con sus líneas.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.RemissionResponse, error) {
	req, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(req), nil
}

// List lista remisiones donde la sede es origen o destino.
func (uc *UseCase) List(ctx context.Context, siteID, status string, page dto.PageRequest) (*dto.RemissionListResponse, error) {
	page.DefaultPage()
	filter := repository.RestockFilter{SiteID: siteID, Status: entity.RestockStatus(status), Limit: page.Limit, Offset: page.Offset}
	list, err := uc.restocks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.RemissionListResponse{
		Items: make([]dto.RemissionResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, r := range list {
		out.Items = append(out.Items, *toResponse(r))
	}
	return out, nil
}

// Close finaliza una remisión recibida. Basta remission.receive en destino
// o remission.cancel en cualquiera de las dos sedes.
func (uc *UseCase) Close(ctx context.Context, actorID, id string) (*dto.RemissionResponse, error) {
	current, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.authorizeAny(ctx, actorID,
		grant{ports.PermRemissionReceive, current.ToSiteID},
		grant{ports.PermRemissionCancel, current.FromSiteID},
		grant{ports.PermRemissionCancel, current.ToSiteID},
	); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actorID, id, entity.RestockClosed, func(req *entity.RestockRequest, _ ports.TxRepos, now time.Time) error {
		if req.Status != entity.RestockReceived {
			return invalidTransition(req.Status, entity.RestockClosed)
		}
		req.ClosedAt = &now
		req.ClosedBy = actorID
		return nil
	})
}

// Cancel anula una remisión no terminal. No revierte movimientos del libro:
// una remisión cancelada en tránsito se concilia con un conteo.
func (uc *UseCase) Cancel(ctx context.Context, actorID, id, reason string) (*dto.RemissionResponse, error) {
	current, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.authorizeAny(ctx, actorID,
		grant{ports.PermRemissionCancel, current.FromSiteID},
		grant{ports.PermRemissionCancel, current.ToSiteID},
	); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actorID, id, entity.RestockCancelled, func(req *entity.RestockRequest, _ ports.TxRepos, now time.Time) error {
		if req.Status.Terminal() {
			return invalidTransition(req.Status, entity.RestockCancelled)
		}
		req.CancelledAt = &now
		req.CancelledBy = actorID
		if reason = strings.TrimSpace(reason); reason != "" {
			if req.Notes != "" {
				req.Notes += "\n"
			}
			req.Notes += "Cancelada: " + reason
		}
		return nil
	})
}

// transition bloquea la remisión, ejecuta apply y persiste el nuevo estado en la misma tx.
// Si apply falla nada se confirma: ni el estado ni los ítems ni los movimientos.
func (uc *UseCase) transition(
	ctx context.Context,
	actorID, id string,
	target entity.RestockStatus,
	apply func(req *entity.RestockRequest, repos ports.TxRepos, now time.Time) error,
) (*dto.RemissionResponse, error) {
	var result *entity.RestockRequest
	err := uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		req, err := repos.Restocks.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("remisión %s: %w", id, domain.ErrNotFound)
		}
		now := uc.now()
		if err := apply(req, repos, now); err != nil {
			return err
		}
		req.Status = target
		req.StatusUpdatedAt = now
		if err := repos.Restocks.Update(ctx, req); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("remission_id", id).Str("target", string(target)).
			Str("actor_id", actorID).Msg("transición de remisión rechazada")
		return nil, err
	}
	uc.log.Info().Str("remission_id", id).Str("status", string(target)).Str("actor_id", actorID).Msg("remisión actualizada")
	return toResponse(result), nil
}

func (uc *UseCase) load(ctx context.Context, id string) (*entity.RestockRequest, error) {
	req, err := uc.restocks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("remisión %s: %w", id, domain.ErrNotFound)
	}
	return req, nil
}

// route valida el tipo de cada sede por su campo explícito, nunca por el nombre.
func (uc *UseCase) route(ctx context.Context, fromID, toID string) (*entity.Site, *entity.Site, error) {
	from, err := uc.site(ctx, fromID)
	if err != nil {
		return nil, nil, err
	}
	to, err := uc.site(ctx, toID)
	if err != nil {
		return nil, nil, err
	}
	if from.Type != entity.SiteTypeProductionCenter {
		return nil, nil, fmt.Errorf("%w: la sede origen %s no es centro de producción", domain.ErrSiteTypeMismatch, from.Code)
	}
	if to.Type != entity.SiteTypeSatellite {
		return nil, nil, fmt.Errorf("%w: la sede destino %s no es satélite", domain.ErrSiteTypeMismatch, to.Code)
	}
	return from, to, nil
}

func (uc *UseCase) site(ctx context.Context, id string) (*entity.Site, error) {
	s, err := uc.sites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("sede %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

type grant struct {
	perm   string
	siteID string
}

// authorize consulta el oráculo de permisos en cada llamada; no se cachea.
func (uc *UseCase) authorize(ctx context.Context, actorID, perm, siteID string) error {
	return uc.authorizeAny(ctx, actorID, grant{perm, siteID})
}

func (uc *UseCase) authorizeAny(ctx context.Context, actorID string, grants ...grant) error {
	for _, g := range grants {
		ok, err := uc.caps.HasCapability(ctx, actorID, g.perm, g.siteID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	uc.log.Warn().Str("actor_id", actorID).Str("permission", grants[0].perm).Msg("permiso denegado")
	return domain.ErrForbidden
}

func invalidTransition(from, to entity.RestockStatus) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}

func movementNote(req *entity.RestockRequest, from, to *entity.Site) string {
	return fmt.Sprintf("Remisión %s %s -> %s", req.ID, from.Code, to.Code)
}

func toResponse(req *entity.RestockRequest) *dto.RemissionResponse {
	out := &dto.RemissionResponse{
		ID:              req.ID,
		FromSiteID:      req.FromSiteID,
		ToSiteID:        req.ToSiteID,
		Status:          string(req.Status),
		CreatedBy:       req.CreatedBy,
		CreatedAt:       req.CreatedAt,
		PreparedAt:      req.PreparedAt,
		PreparedBy:      req.PreparedBy,
		InTransitAt:     req.InTransitAt,
		InTransitBy:     req.InTransitBy,
		ReceivedAt:      req.ReceivedAt,
		ReceivedBy:      req.ReceivedBy,
		ClosedAt:        req.ClosedAt,
		CancelledAt:     req.CancelledAt,
		StatusUpdatedAt: req.StatusUpdatedAt,
		Notes:           req.Notes,
		ExpectedDate:    req.ExpectedDate,
		Items:           make([]dto.RemissionItemResponse, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		out.Items = append(out.Items, dto.RemissionItemResponse{
			ID:                    it.ID,
			ProductID:             it.ProductID,
			Quantity:              it.Quantity,
			Unit:                  it.UnitCode,
			PreparedQuantity:      it.PreparedQuantity,
			ShippedQuantity:       it.ShippedQuantity,
			ReceivedQuantity:      it.ReceivedQuantity,
			ShortageQuantity:      it.ShortageQuantity,
			ItemStatus:            string(it.ItemStatus),
			ProductionAreaKind:    it.ProductionAreaKind,
			SourceLocationID:      it.SourceLocationID,
			DestinationLocationID: it.DestinationLocationID,
		})
	}
	return out
}

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }
