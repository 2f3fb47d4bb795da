// Package inventory implementa el libro de inventario: stock por sede, stock por ubicación
// y el registro inmutable de movimientos. Es el único componente que escribe esas tablas;
// remisiones y conteos entran por ApplyMovementTx / ApplyLocationDeltaTx dentro de su propia tx.
package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

// Policy parámetros de negocio del libro.
type Policy struct {
	// AllowNegativeSiteStock tolera stock de sede negativo (se marca como discrepancia).
	// En false los egresos que lo dejarían negativo se rechazan con ErrNegativeSiteStock.
	AllowNegativeSiteStock bool
	// StorageDecimals decimales con que se guarda la cantidad convertida.
	StorageDecimals int32
}

// DefaultPolicy tolera stock de sede negativo y guarda 6 decimales.
func DefaultPolicy() Policy {
	return Policy{AllowNegativeSiteStock: true, StorageDecimals: uom.DefaultDecimals}
}

// Deps repositorios y puertos que consume el libro fuera de transacción.
type Deps struct {
	Tx            ports.TxRunner
	Converter     ports.ConverterProvider
	Caps          ports.CapabilityChecker
	Sites         repository.SiteRepository
	Locations     repository.LocationRepository
	Products      repository.ProductRepository
	Suppliers     repository.ProductSupplierRepository
	Settings      repository.SiteProductSettingRepository
	SiteStock     repository.SiteStockRepository
	LocationStock repository.LocationStockRepository
	Movements     repository.InventoryMovementRepository
}

// Ledger casos de uso del libro de inventario.
type Ledger struct {
	Deps
	policy Policy
	log    zerolog.Logger
	now    func() time.Time
}

// NewLedger construye el libro.
func NewLedger(deps Deps, policy Policy, log zerolog.Logger) *Ledger {
	if policy.StorageDecimals <= 0 {
		policy.StorageDecimals = uom.DefaultDecimals
	}
	return &Ledger{Deps: deps, policy: policy, log: log, now: time.Now}
}

// MovementInput entrada de ApplyMovement. InputQty va en InputUnitCode (código o alias).
// Para adjustment el signo lo da InputQty; para los demás tipos debe ser positiva.
type MovementInput struct {
	SiteID        string
	ProductID     string
	LocationID    string // opcional: aplica también el delta en la ubicación
	Type          entity.MovementType
	InputQty      decimal.Decimal
	InputUnitCode string
	Note          string
	ActorID       string
}

// ApplyMovement registra un movimiento en su propia transacción.
// Exige el permiso inventory.move en la sede.
func (l *Ledger) ApplyMovement(ctx context.Context, in MovementInput) (*entity.InventoryMovement, error) {
	if err := l.authorize(ctx, in.ActorID, ports.PermInventoryMove, in.SiteID); err != nil {
		return nil, err
	}
	if err := l.checkLocation(ctx, in.SiteID, in.LocationID); err != nil {
		return nil, err
	}
	conv, err := l.Converter.Converter(ctx)
	if err != nil {
		return nil, err
	}
	var mov *entity.InventoryMovement
	err = l.Tx.Run(ctx, func(repos ports.TxRepos) error {
		var err error
		mov, err = l.ApplyMovementTx(ctx, repos, conv, in)
		return err
	})
	if err != nil {
		l.log.Warn().Err(err).Str("site_id", in.SiteID).Str("product_id", in.ProductID).
			Str("movement_type", string(in.Type)).Msg("movimiento rechazado")
		return nil, err
	}
	return mov, nil
}

// RegisterMovementFromRequest adapta el request HTTP a ApplyMovement.
func (l *Ledger) RegisterMovementFromRequest(ctx context.Context, actorID string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	mov, err := l.ApplyMovement(ctx, MovementInput{
		SiteID:        in.SiteID,
		ProductID:     in.ProductID,
		LocationID:    in.LocationID,
		Type:          entity.MovementType(in.Type),
		InputQty:      in.Quantity,
		InputUnitCode: in.InputUnit,
		Note:          in.Note,
		ActorID:       actorID,
	})
	if err != nil {
		return nil, err
	}
	resp := ToMovementResponse(mov)
	return &resp, nil
}

// ApplyMovementTx toma el producto con bloqueo compartido (la unidad de stock no cambia hasta el
// commit), convierte la cantidad a esa unidad, bloquea la fila de la sede
// (SELECT FOR UPDATE), actualiza el stock y agrega el movimiento, todo con los repos de la tx del caller.
// transfer_internal no pasa por aquí: ver TransferBetweenLocations.
func (l *Ledger) ApplyMovementTx(
	ctx context.Context,
	repos ports.TxRepos,
	conv uom.Converter,
	in MovementInput,
) (*entity.InventoryMovement, error) {
	if in.SiteID == "" || in.ProductID == "" || !in.Type.Valid() {
		return nil, domain.ErrInvalidInput
	}
	dir := in.Type.Direction()
	switch dir {
	case entity.DirectionNeutral:
		return nil, fmt.Errorf("%w: %s solo se registra con un traslado entre ubicaciones", domain.ErrInvalidInput, in.Type)
	case entity.DirectionSigned:
		if in.InputQty.IsZero() {
			return nil, fmt.Errorf("%w: ajuste en cero", domain.ErrInvalidInput)
		}
	default:
		if !in.InputQty.IsPositive() {
			return nil, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
		}
	}

	product, err := repos.Products.GetForShare(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.ProductError{ProductID: in.ProductID, Err: domain.ErrNotFound}
	}
	qty, factor, inputUnit, err := l.toStockUnit(conv, product, in.InputQty, in.InputUnitCode)
	if err != nil {
		return nil, err
	}
	delta := qty
	if dir == entity.DirectionOut {
		delta = qty.Neg()
	}

	now := l.now()
	stock, err := repos.SiteStock.GetForUpdate(ctx, in.SiteID, in.ProductID)
	if err != nil {
		return nil, err
	}
	next := stock.CurrentQty.Add(delta)
	if next.IsNegative() && delta.IsNegative() && !l.policy.AllowNegativeSiteStock {
		return nil, &domain.ProductError{ProductID: in.ProductID, Err: domain.ErrNegativeSiteStock}
	}
	stock.CurrentQty = next
	stock.UpdatedAt = now
	if err := repos.SiteStock.Upsert(ctx, stock); err != nil {
		return nil, err
	}

	if in.LocationID != "" {
		if _, err := l.ApplyLocationDeltaTx(ctx, repos, in.LocationID, in.ProductID, delta); err != nil {
			return nil, err
		}
	}

	mov := &entity.InventoryMovement{
		ID:                      uuid.New().String(),
		SiteID:                  in.SiteID,
		ProductID:               in.ProductID,
		LocationID:              in.LocationID,
		Type:                    in.Type,
		Quantity:                delta,
		InputQty:                in.InputQty,
		InputUnitCode:           inputUnit,
		ConversionFactorToStock: factor,
		StockUnitCode:           product.StockUnitCode,
		Note:                    in.Note,
		CreatedAt:               now,
		CreatedBy:               in.ActorID,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	l.log.Info().
		Str("site_id", in.SiteID).
		Str("product_id", in.ProductID).
		Str("movement_type", string(in.Type)).
		Str("qty", delta.String()).
		Bool("negative", stock.Negative()).
		Msg("movimiento registrado")
	return mov, nil
}

// ApplyLocationDelta ajusta el stock de una ubicación sin tocar el de la sede
// (ubicar stock recibido sin LOC). Exige inventory.move en la sede de la ubicación.
func (l *Ledger) ApplyLocationDelta(ctx context.Context, actorID, locationID, productID string, delta decimal.Decimal) (*entity.StockByLocation, error) {
	loc, err := l.Locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("ubicación %s: %w", locationID, domain.ErrNotFound)
	}
	if err := l.authorize(ctx, actorID, ports.PermInventoryMove, loc.SiteID); err != nil {
		return nil, err
	}
	if delta.IsZero() {
		return nil, fmt.Errorf("%w: delta en cero", domain.ErrInvalidInput)
	}
	var out *entity.StockByLocation
	err = l.Tx.Run(ctx, func(repos ports.TxRepos) error {
		product, err := repos.Products.GetForShare(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return &domain.ProductError{ProductID: productID, Err: domain.ErrNotFound}
		}
		out, err = l.ApplyLocationDeltaTx(ctx, repos, locationID, productID, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyLocationDeltaTx bloquea la fila (ubicación, producto) y aplica delta.
// Un retiro mayor a lo disponible se rechaza con *domain.StockError y la fila queda intacta.
func (l *Ledger) ApplyLocationDeltaTx(
	ctx context.Context,
	repos ports.TxRepos,
	locationID, productID string,
	delta decimal.Decimal,
) (*entity.StockByLocation, error) {
	stock, err := repos.LocationStock.GetForUpdate(ctx, locationID, productID)
	if err != nil {
		return nil, err
	}
	next := stock.CurrentQty.Add(delta)
	if next.IsNegative() {
		return nil, &domain.StockError{
			ProductID:  productID,
			LocationID: locationID,
			Available:  stock.CurrentQty,
			Requested:  delta.Neg(),
		}
	}
	stock.CurrentQty = next
	stock.UpdatedAt = l.now()
	if err := repos.LocationStock.Upsert(ctx, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// TransferInput traslado entre dos ubicaciones de la misma sede.
type TransferInput struct {
	SiteID         string
	ProductID      string
	FromLocationID string
	ToLocationID   string
	InputQty       decimal.Decimal
	InputUnitCode  string
	ActorID        string
}

// TransferBetweenLocations mueve stock entre ubicaciones de una sede. El stock de la sede no cambia;
// el origen se valida bajo bloqueo antes de mover. Deja un único movimiento transfer_internal.
func (l *Ledger) TransferBetweenLocations(ctx context.Context, in TransferInput) (*entity.InventoryMovement, error) {
	if in.FromLocationID == "" || in.ToLocationID == "" || in.FromLocationID == in.ToLocationID {
		return nil, fmt.Errorf("%w: origen y destino deben ser ubicaciones distintas", domain.ErrInvalidInput)
	}
	if !in.InputQty.IsPositive() {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if err := l.authorize(ctx, in.ActorID, ports.PermInventoryMove, in.SiteID); err != nil {
		return nil, err
	}
	from, err := l.siteLocation(ctx, in.SiteID, in.FromLocationID)
	if err != nil {
		return nil, err
	}
	to, err := l.siteLocation(ctx, in.SiteID, in.ToLocationID)
	if err != nil {
		return nil, err
	}
	conv, err := l.Converter.Converter(ctx)
	if err != nil {
		return nil, err
	}

	var mov *entity.InventoryMovement
	err = l.Tx.Run(ctx, func(repos ports.TxRepos) error {
		product, err := repos.Products.GetForShare(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return &domain.ProductError{ProductID: in.ProductID, Err: domain.ErrNotFound}
		}
		qty, factor, inputUnit, err := l.toStockUnit(conv, product, in.InputQty, in.InputUnitCode)
		if err != nil {
			return err
		}
		// Orden fijo de bloqueo para que dos traslados cruzados no se bloqueen mutuamente.
		ids := []string{from.ID, to.ID}
		sort.Strings(ids)
		for _, id := range ids {
			if _, err := repos.LocationStock.GetForUpdate(ctx, id, in.ProductID); err != nil {
				return err
			}
		}
		if _, err := l.ApplyLocationDeltaTx(ctx, repos, from.ID, in.ProductID, qty.Neg()); err != nil {
			return err
		}
		if _, err := l.ApplyLocationDeltaTx(ctx, repos, to.ID, in.ProductID, qty); err != nil {
			return err
		}
		transferID := uuid.New().String()
		mov = &entity.InventoryMovement{
			ID:                      transferID,
			SiteID:                  in.SiteID,
			ProductID:               in.ProductID,
			LocationID:              from.ID,
			Type:                    entity.MovementTransferInternal,
			Quantity:                qty,
			InputQty:                in.InputQty,
			InputUnitCode:           inputUnit,
			ConversionFactorToStock: factor,
			StockUnitCode:           product.StockUnitCode,
			Note:                    fmt.Sprintf("Traslado %s %s -> %s", transferID, from.Code, to.Code),
			CreatedAt:               l.now(),
			CreatedBy:               in.ActorID,
		}
		return repos.Movements.Create(ctx, mov)
	})
	if err != nil {
		l.log.Warn().Err(err).Str("site_id", in.SiteID).Str("product_id", in.ProductID).Msg("traslado rechazado")
		return nil, err
	}
	l.log.Info().Str("site_id", in.SiteID).Str("product_id", in.ProductID).
		Str("from", from.Code).Str("to", to.Code).Str("qty", mov.Quantity.String()).Msg("traslado registrado")
	return mov, nil
}

// ListMovements consulta el libro (más recientes primero).
func (l *Ledger) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]dto.MovementResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	list, err := l.Movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out, nil
}

// GetSiteStock existencias de la sede; las negativas quedan marcadas.
func (l *Ledger) GetSiteStock(ctx context.Context, siteID string) ([]dto.SiteStockResponse, error) {
	list, err := l.SiteStock.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SiteStockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.SiteStockResponse{
			SiteID:     s.SiteID,
			ProductID:  s.ProductID,
			CurrentQty: s.CurrentQty,
			Negative:   s.Negative(),
			UpdatedAt:  s.UpdatedAt,
		})
	}
	return out, nil
}

// GetLocationStock existencias de una ubicación.
func (l *Ledger) GetLocationStock(ctx context.Context, locationID string) ([]dto.LocationStockResponse, error) {
	list, err := l.LocationStock.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LocationStockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.LocationStockResponse{
			LocationID: s.LocationID,
			ProductID:  s.ProductID,
			CurrentQty: s.CurrentQty,
			UpdatedAt:  s.UpdatedAt,
		})
	}
	return out, nil
}

// FindUnlocatedStock productos con stock de sede positivo que sus ubicaciones no explican.
// Solo informa: nunca corrige.
func (l *Ledger) FindUnlocatedStock(ctx context.Context, siteID string) ([]dto.UnlocatedStock, error) {
	site, err := l.SiteStock.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	located, err := l.LocationStock.SumBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	var out []dto.UnlocatedStock
	for _, s := range site {
		if !s.CurrentQty.IsPositive() {
			continue
		}
		loc := located[s.ProductID]
		if loc.Equal(s.CurrentQty) {
			continue
		}
		out = append(out, dto.UnlocatedStock{
			ProductID:    s.ProductID,
			SiteQty:      s.CurrentQty,
			LocatedQty:   loc,
			UnlocatedQty: s.CurrentQty.Sub(loc),
		})
	}
	if len(out) > 0 {
		l.log.Warn().Str("site_id", siteID).Int("products", len(out)).Msg("stock sin ubicar")
	}
	return out, nil
}

// toStockUnit resuelve la unidad de entrada contra la unidad de stock del producto.
// Devuelve cantidad convertida (redondeada a StorageDecimals), factor y código canónico de entrada.
func (l *Ledger) toStockUnit(
	conv uom.Converter,
	product *entity.Product,
	qty decimal.Decimal,
	inputUnit string,
) (decimal.Decimal, decimal.Decimal, string, error) {
	unit, err := conv.ResolveUnit(inputUnit)
	if err != nil {
		return decimal.Zero, decimal.Zero, "", &domain.ProductError{ProductID: product.ID, Err: err}
	}
	factor, err := conv.Factor(unit.Code, product.StockUnitCode)
	if err != nil {
		return decimal.Zero, decimal.Zero, "", &domain.ProductError{ProductID: product.ID, Err: err}
	}
	converted, err := conv.Convert(qty, unit.Code, product.StockUnitCode)
	if err != nil {
		return decimal.Zero, decimal.Zero, "", &domain.ProductError{ProductID: product.ID, Err: err}
	}
	return uom.RoundQuantityTo(converted, l.policy.StorageDecimals), factor, unit.Code, nil
}

func (l *Ledger) authorize(ctx context.Context, actorID, perm, siteID string) error {
	ok, err := l.Caps.HasCapability(ctx, actorID, perm, siteID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

func (l *Ledger) checkLocation(ctx context.Context, siteID, locationID string) error {
	if locationID == "" {
		return nil
	}
	_, err := l.siteLocation(ctx, siteID, locationID)
	return err
}

func (l *Ledger) siteLocation(ctx context.Context, siteID, locationID string) (*entity.Location, error) {
	loc, err := l.Locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("ubicación %s: %w", locationID, domain.ErrNotFound)
	}
	if loc.SiteID != siteID {
		return nil, fmt.Errorf("%w: la ubicación %s no pertenece a la sede %s", domain.ErrInvalidInput, loc.Code, siteID)
	}
	return loc, nil
}

// ToMovementResponse mapea un movimiento a su DTO.
func ToMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                      m.ID,
		SiteID:                  m.SiteID,
		ProductID:               m.ProductID,
		LocationID:              m.LocationID,
		Type:                    string(m.Type),
		Quantity:                m.Quantity,
		InputQty:                m.InputQty,
		InputUnitCode:           m.InputUnitCode,
		ConversionFactorToStock: m.ConversionFactorToStock,
		StockUnitCode:           m.StockUnitCode,
		Note:                    m.Note,
		CreatedAt:               m.CreatedAt,
		CreatedBy:               m.CreatedBy,
	}
}
