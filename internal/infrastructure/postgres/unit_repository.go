package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
)

var (
	_ repository.UnitRepository = (*UnitRepo)(nil)
	_ ports.UnitCatalogLoader   = (*UnitRepo)(nil)
)

// UnitRepo catálogo de unidades y alias sobre PostgreSQL.
// También es el cargador del cache de unidades (LoadActiveUnits / LoadAliases).
type UnitRepo struct {
	q Querier
}

// NewUnitRepository construye el adaptador.
func NewUnitRepository(q Querier) *UnitRepo {
	return &UnitRepo{q: q}
}

const unitColumns = `code, name, family, factor_to_base, symbol, display_decimals, active, created_at, updated_at`

func scanUnit(row pgx.Row) (entity.Unit, error) {
	var u entity.Unit
	err := row.Scan(&u.Code, &u.Name, &u.Family, &u.FactorToBase, &u.Symbol,
		&u.DisplayDecimals, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ListActive lista las unidades activas.
func (r *UnitRepo) ListActive(ctx context.Context) ([]entity.Unit, error) {
	rows, err := r.q.Query(ctx, `SELECT `+unitColumns+` FROM units WHERE active ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()
	var list []entity.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ListAliases lista los alias que apuntan a unidades activas.
func (r *UnitRepo) ListAliases(ctx context.Context) ([]entity.UnitAlias, error) {
	rows, err := r.q.Query(ctx, `
		SELECT a.alias, a.unit_code
		FROM unit_aliases a JOIN units u ON u.code = a.unit_code
		WHERE u.active ORDER BY a.alias`)
	if err != nil {
		return nil, fmt.Errorf("list unit aliases: %w", err)
	}
	defer rows.Close()
	var list []entity.UnitAlias
	for rows.Next() {
		var a entity.UnitAlias
		if err := rows.Scan(&a.Alias, &a.UnitCode); err != nil {
			return nil, fmt.Errorf("scan unit alias: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// LoadActiveUnits implementa ports.UnitCatalogLoader.
func (r *UnitRepo) LoadActiveUnits(ctx context.Context) ([]entity.Unit, error) {
	return r.ListActive(ctx)
}

// LoadAliases implementa ports.UnitCatalogLoader.
func (r *UnitRepo) LoadAliases(ctx context.Context) ([]entity.UnitAlias, error) {
	return r.ListAliases(ctx)
}

// GetByCode obtiene una unidad (activa o no) por código.
func (r *UnitRepo) GetByCode(ctx context.Context, code string) (*entity.Unit, error) {
	u, err := scanUnit(r.q.QueryRow(ctx, `SELECT `+unitColumns+` FROM units WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return &u, nil
}

// UsageCount cuenta productos, presentaciones e ítems de remisiones abiertas que usan la unidad.
func (r *UnitRepo) UsageCount(ctx context.Context, code string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM products WHERE stock_unit_code = $1) +
			(SELECT count(*) FROM product_suppliers WHERE pack_unit_code = $1) +
			(SELECT count(*) FROM restock_request_items i
				JOIN restock_requests r ON r.id = i.request_id
				WHERE i.unit_code = $1 AND r.status NOT IN ('closed', 'cancelled'))`,
		code,
	).Scan(&n)
	if err != nil {
		return 0, mapError("unit usage", err)
	}
	return n, nil
}

// Create inserta una unidad.
func (r *UnitRepo) Create(ctx context.Context, u *entity.Unit) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO units (`+unitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.Code, u.Name, u.Family, u.FactorToBase, u.Symbol, u.DisplayDecimals, u.Active, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: unidad %q", domain.ErrDuplicate, u.Code)
		}
		return fmt.Errorf("insert unit: %w", err)
	}
	return nil
}

// Update actualiza nombre, factor, símbolo, decimales y estado. La familia no cambia.
func (r *UnitRepo) Update(ctx context.Context, u *entity.Unit) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE units SET name = $2, factor_to_base = $3, symbol = $4, display_decimals = $5,
			active = $6, updated_at = $7
		WHERE code = $1`,
		u.Code, u.Name, u.FactorToBase, u.Symbol, u.DisplayDecimals, u.Active, u.UpdatedAt,
	)
	if err != nil {
		return mapError("update unit", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateAlias registra un alias.
func (r *UnitRepo) CreateAlias(ctx context.Context, a entity.UnitAlias) error {
	_, err := r.q.Exec(ctx, `INSERT INTO unit_aliases (alias, unit_code) VALUES ($1, $2)`, a.Alias, a.UnitCode)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: alias %q", domain.ErrDuplicate, a.Alias)
		}
		return fmt.Errorf("insert unit alias: %w", err)
	}
	return nil
}
