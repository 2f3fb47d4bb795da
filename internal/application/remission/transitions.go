package remission

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/inventory"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// Campos editables de una línea.
const (
	fieldQuantity            = "quantity"
	fieldPreparedQuantity    = "prepared_quantity"
	fieldShippedQuantity     = "shipped_quantity"
	fieldReceivedQuantity    = "received_quantity"
	fieldShortageQuantity    = "shortage_quantity"
	fieldItemStatus          = "item_status"
	fieldSourceLocation      = "source_location_id"
	fieldDestinationLocation = "destination_location_id"
)

// editRule qué se puede tocar de una línea según el estado de la remisión, y con qué permiso.
type editRule struct {
	fields   map[string]bool
	statuses map[entity.ItemStatus]bool
	perm     string
	atSource bool // el permiso se evalúa en la sede origen (si no, en destino)
}

var editRules = map[entity.RestockStatus]editRule{
	entity.RestockPending: {
		fields: map[string]bool{fieldQuantity: true},
		perm:   ports.PermRemissionRequest,
	},
	entity.RestockPreparing: {
		fields: map[string]bool{
			fieldPreparedQuantity: true, fieldShippedQuantity: true,
			fieldSourceLocation: true, fieldItemStatus: true,
		},
		statuses: map[entity.ItemStatus]bool{entity.ItemPending: true, entity.ItemPreparing: true},
		perm:     ports.PermRemissionPrepare,
		atSource: true,
	},
	entity.RestockInTransit: {
		fields: map[string]bool{
			fieldReceivedQuantity: true, fieldShortageQuantity: true,
			fieldDestinationLocation: true, fieldItemStatus: true,
		},
		statuses: map[entity.ItemStatus]bool{entity.ItemReceived: true, entity.ItemShortage: true},
		perm:     ports.PermRemissionReceive,
	},
	// Ya acreditado el destino solo se registra el faltante.
	entity.RestockReceived: {
		fields:   map[string]bool{fieldShortageQuantity: true, fieldItemStatus: true},
		statuses: map[entity.ItemStatus]bool{entity.ItemReceived: true, entity.ItemShortage: true},
		perm:     ports.PermRemissionReceive,
	},
}

// Prepare pasa la remisión a alistamiento (pending/preparing → preparing) aplicando las
// cantidades alistadas/despachadas del lote. Sin efecto en el libro.
func (uc *UseCase) Prepare(ctx context.Context, actorID, id string, batch dto.ItemBatch) (*dto.RemissionResponse, error) {
	current, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, _, err := uc.route(ctx, current.FromSiteID, current.ToSiteID); err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, actorID, ports.PermRemissionPrepare, current.FromSiteID); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actorID, id, entity.RestockPreparing, func(req *entity.RestockRequest, repos ports.TxRepos, now time.Time) error {
		if req.Status != entity.RestockPending && req.Status != entity.RestockPreparing {
			return invalidTransition(req.Status, entity.RestockPreparing)
		}
		touched, err := uc.applyPatches(ctx, req, editRules[entity.RestockPreparing], batch)
		if err != nil {
			return err
		}
		for _, it := range req.Items {
			if it.ItemStatus == entity.ItemPending {
				it.ItemStatus = entity.ItemPreparing
				touched[it.ID] = it
			}
		}
		if err := saveItems(ctx, repos, touched); err != nil {
			return err
		}
		req.PreparedAt = &now
		req.PreparedBy = actorID
		return nil
	})
}

// UpdateItems edita líneas sin cambiar el estado. Los campos permitidos y el permiso
// exigido dependen del estado actual (ver editRules).
func (uc *UseCase) UpdateItems(ctx context.Context, actorID, id string, batch dto.ItemBatch) (*dto.RemissionResponse, error) {
	current, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rule, ok := editRules[current.Status]
	if !ok {
		return nil, fmt.Errorf("%w: la remisión en estado %s no admite cambios", domain.ErrInvalidTransition, current.Status)
	}
	site := current.ToSiteID
	if rule.atSource {
		site = current.FromSiteID
	}
	if err := uc.authorize(ctx, actorID, rule.perm, site); err != nil {
		return nil, err
	}

	var result *entity.RestockRequest
	err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		req, err := repos.Restocks.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("remisión %s: %w", id, domain.ErrNotFound)
		}
		if req.Status != current.Status {
			return fmt.Errorf("%w: la remisión cambió de estado (%s)", domain.ErrConflict, req.Status)
		}
		touched, err := uc.applyPatches(ctx, req, rule, batch)
		if err != nil {
			return err
		}
		if err := saveItems(ctx, repos, touched); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("remission_id", id).Str("actor_id", actorID).Msg("edición de ítems rechazada")
		return nil, err
	}
	uc.log.Info().Str("remission_id", id).Int("items", len(batch.Items)).Str("actor_id", actorID).Msg("ítems de remisión actualizados")
	return toResponse(result), nil
}

// Transit despacha la remisión (preparing → in_transit): descuenta de la sede origen la
// cantidad despachada de cada ítem (despachada, si no alistada, si no solicitada).
// Todos los ítems y el cambio de estado van en una sola transacción; el primer ítem
// que falla aborta todo y se reporta como *domain.ItemError.
func (uc *UseCase) Transit(ctx context.Context, actorID, id string) (*dto.RemissionResponse, error) {
	current, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from, to, err := uc.route(ctx, current.FromSiteID, current.ToSiteID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, actorID, ports.PermRemissionPrepare, from.ID); err != nil {
		return nil, err
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}
	return uc.transition(ctx, actorID, id, entity.RestockInTransit, func(req *entity.RestockRequest, repos ports.TxRepos, now time.Time) error {
		if req.Status != entity.RestockPreparing {
			return invalidTransition(req.Status, entity.RestockInTransit)
		}
		note := movementNote(req, from, to)
		for _, it := range sortedItems(req.Items) {
			qty := it.EffectiveShipped()
			it.ShippedQuantity = ptr(qty)
			it.ItemStatus = entity.ItemInTransit
			if qty.IsPositive() {
				_, err := uc.ledger.ApplyMovementTx(ctx, repos, conv, inventory.MovementInput{
					SiteID:        from.ID,
					ProductID:     it.ProductID,
					LocationID:    it.SourceLocationID,
					Type:          entity.MovementRestockShipment,
					InputQty:      qty,
					InputUnitCode: it.UnitCode,
					Note:          note,
					ActorID:       actorID,
				})
				if err != nil {
					return &domain.ItemError{ItemID: it.ID, ProductID: it.ProductID, Err: err}
				}
			}
			if err := repos.Restocks.UpdateItem(ctx, it); err != nil {
				return &domain.ItemError{ItemID: it.ID, ProductID: it.ProductID, Err: err}
			}
		}
		req.InTransitAt = &now
		req.InTransitBy = actorID
		return nil
	})
}

// Receive recibe la remisión (in_transit → received) aplicando primero el lote de
// cantidades recibidas y acreditando luego la sede destino. El faltante lo digita el
// operador; receive no lo calcula.
func (uc *UseCase) Receive(ctx context.Context, actorID, id string, batch dto.ItemBatch) (*dto.RemissionResponse, error) {
	current, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from, to, err := uc.route(ctx, current.FromSiteID, current.ToSiteID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, actorID, ports.PermRemissionReceive, to.ID); err != nil {
		return nil, err
	}
	conv, err := uc.conv.Converter(ctx)
	if err != nil {
		return nil, err
	}
	return uc.transition(ctx, actorID, id, entity.RestockReceived, func(req *entity.RestockRequest, repos ports.TxRepos, now time.Time) error {
		if req.Status != entity.RestockInTransit {
			return invalidTransition(req.Status, entity.RestockReceived)
		}
		if _, err := uc.applyPatches(ctx, req, editRules[entity.RestockInTransit], batch); err != nil {
			return err
		}
		note := movementNote(req, from, to)
		for _, it := range sortedItems(req.Items) {
			qty := it.EffectiveReceived()
			it.ReceivedQuantity = ptr(qty)
			if it.ItemStatus != entity.ItemShortage {
				it.ItemStatus = entity.ItemReceived
			}
			if qty.IsPositive() {
				_, err := uc.ledger.ApplyMovementTx(ctx, repos, conv, inventory.MovementInput{
					SiteID:        to.ID,
					ProductID:     it.ProductID,
					LocationID:    it.DestinationLocationID,
					Type:          entity.MovementRestockReceipt,
					InputQty:      qty,
					InputUnitCode: it.UnitCode,
					Note:          note,
					ActorID:       actorID,
				})
				if err != nil {
					return &domain.ItemError{ItemID: it.ID, ProductID: it.ProductID, Err: err}
				}
			}
			if err := repos.Restocks.UpdateItem(ctx, it); err != nil {
				return &domain.ItemError{ItemID: it.ID, ProductID: it.ProductID, Err: err}
			}
		}
		req.ReceivedAt = &now
		req.ReceivedBy = actorID
		return nil
	})
}

// applyPatches valida campo por campo cada patch contra rule y lo aplica sobre los ítems
// de req (en memoria). Devuelve los ítems modificados.
func (uc *UseCase) applyPatches(
	ctx context.Context,
	req *entity.RestockRequest,
	rule editRule,
	batch dto.ItemBatch,
) (map[string]*entity.RestockRequestItem, error) {
	byID := make(map[string]*entity.RestockRequestItem, len(req.Items))
	for _, it := range req.Items {
		byID[it.ID] = it
	}
	touched := make(map[string]*entity.RestockRequestItem)
	for _, upd := range batch.Items {
		it, ok := byID[upd.ItemID]
		if !ok {
			return nil, &domain.ItemError{ItemID: upd.ItemID, Err: domain.ErrNotFound}
		}
		if err := uc.applyPatch(ctx, req, it, rule, upd.Patch); err != nil {
			return nil, &domain.ItemError{ItemID: it.ID, ProductID: it.ProductID, Err: err}
		}
		touched[it.ID] = it
	}
	return touched, nil
}

func (uc *UseCase) applyPatch(
	ctx context.Context,
	req *entity.RestockRequest,
	it *entity.RestockRequestItem,
	rule editRule,
	p dto.ItemPatch,
) error {
	var rejected []string
	check := func(name string, set bool) {
		if set && !rule.fields[name] {
			rejected = append(rejected, name)
		}
	}
	check(fieldQuantity, p.Quantity != nil)
	check(fieldPreparedQuantity, p.PreparedQuantity != nil)
	check(fieldShippedQuantity, p.ShippedQuantity != nil)
	check(fieldReceivedQuantity, p.ReceivedQuantity != nil)
	check(fieldShortageQuantity, p.ShortageQuantity != nil)
	check(fieldItemStatus, p.ItemStatus != nil)
	check(fieldSourceLocation, p.SourceLocationID != nil)
	check(fieldDestinationLocation, p.DestinationLocationID != nil)
	if len(rejected) > 0 {
		return fmt.Errorf("%w: campos no editables en estado %s: %s",
			domain.ErrInvalidInput, req.Status, strings.Join(rejected, ", "))
	}

	if p.Quantity != nil {
		if !p.Quantity.IsPositive() {
			return fmt.Errorf("%w: %s debe ser mayor que cero", domain.ErrInvalidInput, fieldQuantity)
		}
		it.Quantity = *p.Quantity
	}
	for _, q := range []struct {
		name string
		in   *decimal.Decimal
		out  **decimal.Decimal
	}{
		{fieldPreparedQuantity, p.PreparedQuantity, &it.PreparedQuantity},
		{fieldShippedQuantity, p.ShippedQuantity, &it.ShippedQuantity},
		{fieldReceivedQuantity, p.ReceivedQuantity, &it.ReceivedQuantity},
		{fieldShortageQuantity, p.ShortageQuantity, &it.ShortageQuantity},
	} {
		if q.in == nil {
			continue
		}
		if q.in.IsNegative() {
			return fmt.Errorf("%w: %s no puede ser negativa", domain.ErrInvalidInput, q.name)
		}
		v := *q.in
		*q.out = &v
	}
	if p.ItemStatus != nil {
		st := entity.ItemStatus(*p.ItemStatus)
		if !st.Valid() || !rule.statuses[st] {
			return fmt.Errorf("%w: item_status %q no permitido en estado %s", domain.ErrInvalidInput, st, req.Status)
		}
		it.ItemStatus = st
	}
	if p.SourceLocationID != nil {
		if err := uc.checkLocation(ctx, req.FromSiteID, *p.SourceLocationID); err != nil {
			return err
		}
		it.SourceLocationID = *p.SourceLocationID
	}
	if p.DestinationLocationID != nil {
		if err := uc.checkLocation(ctx, req.ToSiteID, *p.DestinationLocationID); err != nil {
			return err
		}
		it.DestinationLocationID = *p.DestinationLocationID
	}
	return nil
}

func (uc *UseCase) checkLocation(ctx context.Context, siteID, locationID string) error {
	if locationID == "" {
		return nil
	}
	loc, err := uc.locations.GetByID(ctx, locationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("ubicación %s: %w", locationID, domain.ErrNotFound)
	}
	if loc.SiteID != siteID {
		return fmt.Errorf("%w: la ubicación %s no pertenece a la sede %s", domain.ErrInvalidInput, loc.Code, siteID)
	}
	return nil
}

func saveItems(ctx context.Context, repos ports.TxRepos, items map[string]*entity.RestockRequestItem) error {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		it := items[id]
		if err := repos.Restocks.UpdateItem(ctx, it); err != nil {
			return &domain.ItemError{ItemID: it.ID, ProductID: it.ProductID, Err: err}
		}
	}
	return nil
}

// sortedItems orden estable por producto: las filas de stock se bloquean siempre en el mismo orden.
func sortedItems(items []*entity.RestockRequestItem) []*entity.RestockRequestItem {
	out := append([]*entity.RestockRequestItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].ID < out[j].ID
	})
	return out
}
