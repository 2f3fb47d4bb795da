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

var _ repository.RestockRequestRepository = (*RestockRepo)(nil)

// RestockRepo remisiones (encabezado + ítems) sobre PostgreSQL.
type RestockRepo struct {
	q Querier
}

// NewRestockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRestockRepository(q Querier) *RestockRepo {
	return &RestockRepo{q: q}
}

const restockColumns = `id, from_site_id, to_site_id, status, created_by, created_at,
	prepared_at, prepared_by, in_transit_at, in_transit_by, received_at, received_by,
	closed_at, closed_by, cancelled_at, cancelled_by, status_updated_at, notes, expected_date`

const itemColumns = `id, request_id, product_id, quantity, unit_code, prepared_quantity, shipped_quantity,
	received_quantity, shortage_quantity, item_status, production_area_kind,
	source_location_id, destination_location_id`

// Create inserta encabezado e ítems (el caller abre la tx).
func (r *RestockRepo) Create(ctx context.Context, req *entity.RestockRequest) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO restock_requests (`+restockColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		req.ID, req.FromSiteID, req.ToSiteID, req.Status, req.CreatedBy, req.CreatedAt,
		req.PreparedAt, req.PreparedBy, req.InTransitAt, req.InTransitBy, req.ReceivedAt, req.ReceivedBy,
		req.ClosedAt, req.ClosedBy, req.CancelledAt, req.CancelledBy, req.StatusUpdatedAt, req.Notes, req.ExpectedDate,
	)
	if err != nil {
		return mapError("insert restock request", err)
	}
	for _, it := range req.Items {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO restock_request_items (`+itemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			it.ID, req.ID, it.ProductID, it.Quantity, it.UnitCode, it.PreparedQuantity, it.ShippedQuantity,
			it.ReceivedQuantity, it.ShortageQuantity, it.ItemStatus, it.ProductionAreaKind,
			nullable(it.SourceLocationID), nullable(it.DestinationLocationID),
		); err != nil {
			return mapError("insert restock item", err)
		}
	}
	return nil
}

// GetByID carga encabezado e ítems.
func (r *RestockRepo) GetByID(ctx context.Context, id string) (*entity.RestockRequest, error) {
	return r.get(ctx, `SELECT `+restockColumns+` FROM restock_requests WHERE id = $1`, id)
}

// GetForUpdate bloquea el encabezado; los ítems solo se modifican bajo ese lock.
func (r *RestockRepo) GetForUpdate(ctx context.Context, id string) (*entity.RestockRequest, error) {
	return r.get(ctx, `SELECT `+restockColumns+` FROM restock_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *RestockRepo) get(ctx context.Context, query, id string) (*entity.RestockRequest, error) {
	req, err := scanRestock(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get restock request", err)
	}
	items, err := r.items(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	req.Items = items[id]
	return req, nil
}

// Update guarda el encabezado (estado, sellos, notas). Los ítems van por UpdateItem.
func (r *RestockRepo) Update(ctx context.Context, req *entity.RestockRequest) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE restock_requests SET
			status = $2, prepared_at = $3, prepared_by = $4, in_transit_at = $5, in_transit_by = $6,
			received_at = $7, received_by = $8, closed_at = $9, closed_by = $10,
			cancelled_at = $11, cancelled_by = $12, status_updated_at = $13, notes = $14, expected_date = $15
		WHERE id = $1`,
		req.ID, req.Status, req.PreparedAt, req.PreparedBy, req.InTransitAt, req.InTransitBy,
		req.ReceivedAt, req.ReceivedBy, req.ClosedAt, req.ClosedBy,
		req.CancelledAt, req.CancelledBy, req.StatusUpdatedAt, req.Notes, req.ExpectedDate,
	)
	if err != nil {
		return mapError("update restock request", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateItem guarda cantidades, subestado y ubicaciones de una línea.
func (r *RestockRepo) UpdateItem(ctx context.Context, it *entity.RestockRequestItem) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE restock_request_items SET
			quantity = $2, prepared_quantity = $3, shipped_quantity = $4, received_quantity = $5,
			shortage_quantity = $6, item_status = $7, source_location_id = $8, destination_location_id = $9
		WHERE id = $1`,
		it.ID, it.Quantity, it.PreparedQuantity, it.ShippedQuantity, it.ReceivedQuantity,
		it.ShortageQuantity, it.ItemStatus, nullable(it.SourceLocationID), nullable(it.DestinationLocationID),
	)
	if err != nil {
		return mapError("update restock item", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista remisiones donde la sede es origen o destino, más recientes primero.
func (r *RestockRepo) List(ctx context.Context, f repository.RestockFilter) ([]*entity.RestockRequest, error) {
	query := `SELECT ` + restockColumns + ` FROM restock_requests WHERE TRUE`
	var args []any
	pos := 1
	if f.SiteID != "" {
		query += fmt.Sprintf(" AND (from_site_id = $%d OR to_site_id = $%d)", pos, pos)
		args = append(args, f.SiteID)
		pos++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list restock requests: %w", err)
	}
	var list []*entity.RestockRequest
	var ids []string
	for rows.Next() {
		req, err := scanRestock(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan restock request: %w", err)
		}
		list = append(list, req)
		ids = append(ids, req.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list restock requests: %w", err)
	}
	if len(ids) == 0 {
		return list, nil
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, req := range list {
		req.Items = items[req.ID]
	}
	return list, nil
}

func (r *RestockRepo) items(ctx context.Context, requestIDs []string) (map[string][]*entity.RestockRequestItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+itemColumns+`
		FROM restock_request_items WHERE request_id = ANY($1) ORDER BY product_id, id`, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("list restock items: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]*entity.RestockRequestItem, len(requestIDs))
	for rows.Next() {
		var it entity.RestockRequestItem
		var src, dst *string
		if err := rows.Scan(&it.ID, &it.RequestID, &it.ProductID, &it.Quantity, &it.UnitCode,
			&it.PreparedQuantity, &it.ShippedQuantity, &it.ReceivedQuantity, &it.ShortageQuantity,
			&it.ItemStatus, &it.ProductionAreaKind, &src, &dst); err != nil {
			return nil, fmt.Errorf("scan restock item: %w", err)
		}
		it.SourceLocationID = deref(src)
		it.DestinationLocationID = deref(dst)
		out[it.RequestID] = append(out[it.RequestID], &it)
	}
	return out, rows.Err()
}

func scanRestock(row pgx.Row) (*entity.RestockRequest, error) {
	var req entity.RestockRequest
	err := row.Scan(&req.ID, &req.FromSiteID, &req.ToSiteID, &req.Status, &req.CreatedBy, &req.CreatedAt,
		&req.PreparedAt, &req.PreparedBy, &req.InTransitAt, &req.InTransitBy, &req.ReceivedAt, &req.ReceivedBy,
		&req.ClosedAt, &req.ClosedBy, &req.CancelledAt, &req.CancelledBy, &req.StatusUpdatedAt, &req.Notes, &req.ExpectedDate)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
