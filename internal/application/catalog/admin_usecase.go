package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-sedes/internal/application/dto"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

// AdminUseCase administración del catálogo de unidades: alta, edición, desactivación y alias.
// Cada cambio se valida construyendo el Registry resultante antes de persistir,
// e invalida el cache local y el de los demás procesos.
type AdminUseCase struct {
	repo        repository.UnitRepository
	catalog     *Catalog
	invalidator ports.CatalogInvalidator
	caps        ports.CapabilityChecker
	log         zerolog.Logger
}

// NewAdminUseCase construye el caso de uso. invalidator puede ser nil (un solo proceso).
func NewAdminUseCase(
	repo repository.UnitRepository,
	catalog *Catalog,
	invalidator ports.CatalogInvalidator,
	caps ports.CapabilityChecker,
	log zerolog.Logger,
) *AdminUseCase {
	return &AdminUseCase{repo: repo, catalog: catalog, invalidator: invalidator, caps: caps, log: log}
}

// ListUnits lista las unidades activas del catálogo vigente.
func (uc *AdminUseCase) ListUnits(ctx context.Context) ([]dto.UnitResponse, error) {
	reg, err := uc.catalog.Registry(ctx)
	if err != nil {
		return nil, err
	}
	units := reg.Units()
	out := make([]dto.UnitResponse, 0, len(units))
	for _, u := range units {
		out = append(out, toUnitResponse(u))
	}
	return out, nil
}

// Convert convierte una cantidad entre dos unidades (alias permitidos).
func (uc *AdminUseCase) Convert(ctx context.Context, in dto.ConvertRequest) (*dto.ConvertResponse, error) {
	reg, err := uc.catalog.Registry(ctx)
	if err != nil {
		return nil, err
	}
	q, err := reg.Convert(in.Quantity, in.From, in.To)
	if err != nil {
		return nil, err
	}
	factor, err := reg.Factor(in.From, in.To)
	if err != nil {
		return nil, err
	}
	to, _ := reg.ResolveUnit(in.To)
	q = uom.RoundQuantity(q)
	return &dto.ConvertResponse{
		Quantity:  q,
		Unit:      to.Code,
		Factor:    factor,
		Formatted: reg.Format(q, to.Code),
	}, nil
}

// CreateUnit da de alta una unidad.
func (uc *AdminUseCase) CreateUnit(ctx context.Context, actorID string, in dto.CreateUnitRequest) (*dto.UnitResponse, error) {
	if err := uc.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	now := time.Now()
	unit := entity.Unit{
		Code:            strings.ToLower(strings.TrimSpace(in.Code)),
		Name:            in.Name,
		Family:          entity.UnitFamily(in.Family),
		FactorToBase:    in.FactorToBase,
		Symbol:          in.Symbol,
		DisplayDecimals: in.DisplayDecimals,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	existing, err := uc.repo.GetByCode(ctx, unit.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: unidad %q", domain.ErrDuplicate, unit.Code)
	}
	if err := uc.validate(ctx, func(units []entity.Unit, aliases []entity.UnitAlias) ([]entity.Unit, []entity.UnitAlias) {
		return append(units, unit), aliases
	}); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, &unit); err != nil {
		return nil, err
	}
	uc.changed(ctx, "create", unit.Code)
	resp := toUnitResponse(unit)
	return &resp, nil
}

// UpdateUnit edita nombre, factor, símbolo o decimales. La familia es inmutable:
// cambiarla reinterpretaría los movimientos históricos.
func (uc *AdminUseCase) UpdateUnit(ctx context.Context, actorID, code string, in dto.UpdateUnitRequest) (*dto.UnitResponse, error) {
	if err := uc.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	unit, err := uc.repo.GetByCode(ctx, strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, &domain.UnitError{Code: code, Err: domain.ErrUnitNotFound}
	}
	if in.Name != nil {
		unit.Name = *in.Name
	}
	if in.FactorToBase != nil {
		unit.FactorToBase = *in.FactorToBase
	}
	if in.Symbol != nil {
		unit.Symbol = *in.Symbol
	}
	if in.DisplayDecimals != nil {
		unit.DisplayDecimals = *in.DisplayDecimals
	}
	unit.UpdatedAt = time.Now()
	updated := *unit
	if err := uc.validate(ctx, func(units []entity.Unit, aliases []entity.UnitAlias) ([]entity.Unit, []entity.UnitAlias) {
		for i := range units {
			if units[i].Code == updated.Code {
				units[i] = updated
			}
		}
		return units, aliases
	}); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, unit); err != nil {
		return nil, err
	}
	uc.changed(ctx, "update", unit.Code)
	resp := toUnitResponse(*unit)
	return &resp, nil
}

// DeactivateUnit retira la unidad del catálogo activo sin borrarla. Se rechaza con
// ErrConflict mientras algún producto, presentación o remisión abierta la use.
func (uc *AdminUseCase) DeactivateUnit(ctx context.Context, actorID, code string) error {
	if err := uc.authorize(ctx, actorID); err != nil {
		return err
	}
	unit, err := uc.repo.GetByCode(ctx, strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return err
	}
	if unit == nil {
		return &domain.UnitError{Code: code, Err: domain.ErrUnitNotFound}
	}
	inUse, err := uc.repo.UsageCount(ctx, unit.Code)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return &domain.UnitError{Code: unit.Code, Err: fmt.Errorf("%w: la unidad tiene %d referencias vivas", domain.ErrConflict, inUse)}
	}
	unit.Active = false
	unit.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, unit); err != nil {
		return err
	}
	uc.changed(ctx, "deactivate", unit.Code)
	return nil
}

// AddAlias registra un alias para una unidad existente.
func (uc *AdminUseCase) AddAlias(ctx context.Context, actorID string, in dto.CreateAliasRequest) error {
	if err := uc.authorize(ctx, actorID); err != nil {
		return err
	}
	alias := entity.UnitAlias{
		Alias:    strings.ToLower(strings.TrimSpace(in.Alias)),
		UnitCode: strings.ToLower(strings.TrimSpace(in.UnitCode)),
	}
	if err := uc.validate(ctx, func(units []entity.Unit, aliases []entity.UnitAlias) ([]entity.Unit, []entity.UnitAlias) {
		return units, append(aliases, alias)
	}); err != nil {
		return err
	}
	if err := uc.repo.CreateAlias(ctx, alias); err != nil {
		return err
	}
	uc.changed(ctx, "alias", alias.Alias)
	return nil
}

func (uc *AdminUseCase) authorize(ctx context.Context, actorID string) error {
	ok, err := uc.caps.HasCapability(ctx, actorID, ports.PermCatalogAdmin, "")
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

// validate arma el catálogo resultante del cambio y lo pasa por NewRegistry.
func (uc *AdminUseCase) validate(
	ctx context.Context,
	mutate func([]entity.Unit, []entity.UnitAlias) ([]entity.Unit, []entity.UnitAlias),
) error {
	units, err := uc.repo.ListActive(ctx)
	if err != nil {
		return err
	}
	aliases, err := uc.repo.ListAliases(ctx)
	if err != nil {
		return err
	}
	units, aliases = mutate(units, aliases)
	_, err = uom.NewRegistry(units, aliases)
	return err
}

func (uc *AdminUseCase) changed(ctx context.Context, op, code string) {
	uc.catalog.Invalidate()
	uc.log.Info().Str("op", op).Str("unit", code).Msg("catálogo de unidades modificado")
	if uc.invalidator == nil {
		return
	}
	if err := uc.invalidator.PublishInvalidation(ctx); err != nil {
		uc.log.Error().Err(err).Msg("no se pudo publicar la invalidación del catálogo")
	}
}

func toUnitResponse(u entity.Unit) dto.UnitResponse {
	return dto.UnitResponse{
		Code:            u.Code,
		Name:            u.Name,
		Family:          string(u.Family),
		FactorToBase:    u.FactorToBase,
		Symbol:          u.Symbol,
		DisplayDecimals: u.DisplayDecimals,
		Active:          u.Active,
	}
}
