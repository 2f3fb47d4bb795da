package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
)

var _ repository.CountSessionRepository = (*CountRepo)(nil)

// CountRepo sesiones y líneas de conteo sobre PostgreSQL.
type CountRepo struct {
	q Querier
}

// NewCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCountRepository(q Querier) *CountRepo {
	return &CountRepo{q: q}
}

const sessionColumns = `id, site_id, scope_type, scope_location_id, status, created_by, created_at, closed_at, closed_by`

const lineColumns = `session_id, product_id, quantity_counted, input_qty, input_unit_code,
	current_qty_at_close, quantity_delta, adjustment_applied_at`

// Create inserta la sesión (sin líneas).
func (r *CountRepo) Create(ctx context.Context, cs *entity.CountSession) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO count_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		cs.ID, cs.SiteID, cs.ScopeType, nullable(cs.ScopeLocationID), cs.Status,
		cs.CreatedBy, cs.CreatedAt, cs.ClosedAt, cs.ClosedBy,
	)
	if err != nil {
		return mapError("insert count session", err)
	}
	return nil
}

// GetByID carga la sesión con sus líneas.
func (r *CountRepo) GetByID(ctx context.Context, id string) (*entity.CountSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM count_sessions WHERE id = $1`, id)
}

// GetForUpdate bloquea la sesión.
func (r *CountRepo) GetForUpdate(ctx context.Context, id string) (*entity.CountSession, error) {
	return r.get(ctx, `SELECT `+sessionColumns+` FROM count_sessions WHERE id = $1 FOR UPDATE`, id)
}

func (r *CountRepo) get(ctx context.Context, query, id string) (*entity.CountSession, error) {
	var cs entity.CountSession
	var scopeLoc *string
	err := r.q.QueryRow(ctx, query, id).Scan(&cs.ID, &cs.SiteID, &cs.ScopeType, &scopeLoc, &cs.Status,
		&cs.CreatedBy, &cs.CreatedAt, &cs.ClosedAt, &cs.ClosedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get count session", err)
	}
	cs.ScopeLocationID = deref(scopeLoc)

	rows, err := r.q.Query(ctx, `SELECT `+lineColumns+` FROM count_lines WHERE session_id = $1 ORDER BY product_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list count lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan count line: %w", err)
		}
		cs.Lines = append(cs.Lines, l)
	}
	return &cs, rows.Err()
}

// Update guarda estado y cierre de la sesión.
func (r *CountRepo) Update(ctx context.Context, cs *entity.CountSession) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE count_sessions SET status = $2, closed_at = $3, closed_by = $4
		WHERE id = $1`, cs.ID, cs.Status, cs.ClosedAt, cs.ClosedBy)
	if err != nil {
		return mapError("update count session", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpsertLine inserta o reemplaza la línea del producto en la sesión.
func (r *CountRepo) UpsertLine(ctx context.Context, l *entity.CountLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO count_lines (`+lineColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id, product_id) DO UPDATE SET
			quantity_counted = EXCLUDED.quantity_counted,
			input_qty = EXCLUDED.input_qty,
			input_unit_code = EXCLUDED.input_unit_code,
			current_qty_at_close = EXCLUDED.current_qty_at_close,
			quantity_delta = EXCLUDED.quantity_delta,
			adjustment_applied_at = EXCLUDED.adjustment_applied_at`,
		l.SessionID, l.ProductID, l.QuantityCounted, l.InputQty, l.InputUnitCode,
		l.CurrentQtyAtClose, l.QuantityDelta, l.AdjustmentAppliedAt,
	)
	if err != nil {
		return mapError("upsert count line", err)
	}
	return nil
}

// GetLineForUpdate bloquea la línea: dos aprobaciones concurrentes no aplican el mismo ajuste.
func (r *CountRepo) GetLineForUpdate(ctx context.Context, sessionID, productID string) (*entity.CountLine, error) {
	l, err := scanLine(r.q.QueryRow(ctx, `
		SELECT `+lineColumns+` FROM count_lines
		WHERE session_id = $1 AND product_id = $2 FOR UPDATE`, sessionID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get count line for update", err)
	}
	return l, nil
}

func scanLine(row pgx.Row) (*entity.CountLine, error) {
	var l entity.CountLine
	if err := row.Scan(&l.SessionID, &l.ProductID, &l.QuantityCounted, &l.InputQty, &l.InputUnitCode,
		&l.CurrentQtyAtClose, &l.QuantityDelta, &l.AdjustmentAppliedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
