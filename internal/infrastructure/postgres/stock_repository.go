package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
)

var (
	_ repository.SiteStockRepository     = (*SiteStockRepo)(nil)
	_ repository.LocationStockRepository = (*LocationStockRepo)(nil)
)

// SiteStockRepo stock por sede sobre PostgreSQL (usable con pool o tx).
type SiteStockRepo struct {
	q Querier
}

// NewSiteStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSiteStockRepository(q Querier) *SiteStockRepo {
	return &SiteStockRepo{q: q}
}

// Get obtiene el stock de un producto en una sede; cero si no hay fila.
func (r *SiteStockRepo) Get(ctx context.Context, siteID, productID string) (*entity.StockBySite, error) {
	query := `
		SELECT site_id, product_id, current_qty, updated_at
		FROM stock_by_site WHERE site_id = $1 AND product_id = $2`
	rows, err := r.q.Query(ctx, query, siteID, productID)
	if err != nil {
		return nil, fmt.Errorf("get site stock: %w", err)
	}
	list, err := scanSiteStock(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return &entity.StockBySite{SiteID: siteID, ProductID: productID, CurrentQty: decimal.Zero}, nil
	}
	return list[0], nil
}

// GetForUpdate crea la fila en cero si no existe y la bloquea (SELECT FOR UPDATE).
// Crear primero evita que dos tx concurrentes inserten la misma fila sin lock.
func (r *SiteStockRepo) GetForUpdate(ctx context.Context, siteID, productID string) (*entity.StockBySite, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_by_site (site_id, product_id, current_qty, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (site_id, product_id) DO NOTHING`, siteID, productID)
	if err != nil {
		return nil, mapError("ensure site stock", err)
	}
	var s entity.StockBySite
	err = r.q.QueryRow(ctx, `
		SELECT site_id, product_id, current_qty, updated_at
		FROM stock_by_site WHERE site_id = $1 AND product_id = $2
		FOR UPDATE`, siteID, productID).Scan(&s.SiteID, &s.ProductID, &s.CurrentQty, &s.UpdatedAt)
	if err != nil {
		return nil, mapError("get site stock for update", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad (por sede y producto).
func (r *SiteStockRepo) Upsert(ctx context.Context, stock *entity.StockBySite) error {
	query := `
		INSERT INTO stock_by_site (site_id, product_id, current_qty, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (site_id, product_id)
		DO UPDATE SET current_qty = EXCLUDED.current_qty, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, stock.SiteID, stock.ProductID, stock.CurrentQty); err != nil {
		return mapError("upsert site stock", err)
	}
	return nil
}

// ListBySite lista el stock de una sede.
func (r *SiteStockRepo) ListBySite(ctx context.Context, siteID string) ([]*entity.StockBySite, error) {
	rows, err := r.q.Query(ctx, `
		SELECT site_id, product_id, current_qty, updated_at
		FROM stock_by_site WHERE site_id = $1 ORDER BY product_id`, siteID)
	if err != nil {
		return nil, fmt.Errorf("list site stock: %w", err)
	}
	return scanSiteStock(rows)
}

// ListByProduct lista las filas de stock de un producto en todas las sedes.
func (r *SiteStockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockBySite, error) {
	rows, err := r.q.Query(ctx, `
		SELECT site_id, product_id, current_qty, updated_at
		FROM stock_by_site WHERE product_id = $1 ORDER BY site_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list site stock by product: %w", err)
	}
	return scanSiteStock(rows)
}

func scanSiteStock(rows pgx.Rows) ([]*entity.StockBySite, error) {
	defer rows.Close()
	var list []*entity.StockBySite
	for rows.Next() {
		var s entity.StockBySite
		if err := rows.Scan(&s.SiteID, &s.ProductID, &s.CurrentQty, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan site stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// LocationStockRepo stock por ubicación sobre PostgreSQL. La tabla tiene CHECK (current_qty >= 0);
// el libro valida antes para devolver un error con detalle.
type LocationStockRepo struct {
	q Querier
}

// NewLocationStockRepository construye el adaptador. Acepta pool o tx (Querier).
func NewLocationStockRepository(q Querier) *LocationStockRepo {
	return &LocationStockRepo{q: q}
}

// Get obtiene el stock de un producto en una ubicación; cero si no hay fila.
func (r *LocationStockRepo) Get(ctx context.Context, locationID, productID string) (*entity.StockByLocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT location_id, product_id, current_qty, updated_at
		FROM stock_by_location WHERE location_id = $1 AND product_id = $2`, locationID, productID)
	if err != nil {
		return nil, fmt.Errorf("get location stock: %w", err)
	}
	list, err := scanLocationStock(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return &entity.StockByLocation{LocationID: locationID, ProductID: productID, CurrentQty: decimal.Zero}, nil
	}
	return list[0], nil
}

// GetForUpdate crea la fila en cero si no existe y la bloquea.
func (r *LocationStockRepo) GetForUpdate(ctx context.Context, locationID, productID string) (*entity.StockByLocation, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_by_location (location_id, product_id, current_qty, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (location_id, product_id) DO NOTHING`, locationID, productID)
	if err != nil {
		return nil, mapError("ensure location stock", err)
	}
	var s entity.StockByLocation
	err = r.q.QueryRow(ctx, `
		SELECT location_id, product_id, current_qty, updated_at
		FROM stock_by_location WHERE location_id = $1 AND product_id = $2
		FOR UPDATE`, locationID, productID).Scan(&s.LocationID, &s.ProductID, &s.CurrentQty, &s.UpdatedAt)
	if err != nil {
		return nil, mapError("get location stock for update", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad. Nunca escribe negativos.
func (r *LocationStockRepo) Upsert(ctx context.Context, stock *entity.StockByLocation) error {
	if stock.CurrentQty.IsNegative() {
		return &domain.StockError{
			ProductID: stock.ProductID, LocationID: stock.LocationID,
			Available: decimal.Zero, Requested: stock.CurrentQty.Neg(),
		}
	}
	query := `
		INSERT INTO stock_by_location (location_id, product_id, current_qty, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (location_id, product_id)
		DO UPDATE SET current_qty = EXCLUDED.current_qty, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, stock.LocationID, stock.ProductID, stock.CurrentQty); err != nil {
		return mapError("upsert location stock", err)
	}
	return nil
}

// ListByLocation lista el stock de una ubicación.
func (r *LocationStockRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockByLocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT location_id, product_id, current_qty, updated_at
		FROM stock_by_location WHERE location_id = $1 ORDER BY product_id`, locationID)
	if err != nil {
		return nil, fmt.Errorf("list location stock: %w", err)
	}
	return scanLocationStock(rows)
}

// ListByProduct lista las filas de un producto en todas las ubicaciones.
func (r *LocationStockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockByLocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT location_id, product_id, current_qty, updated_at
		FROM stock_by_location WHERE product_id = $1 ORDER BY location_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list location stock by product: %w", err)
	}
	return scanLocationStock(rows)
}

// SumBySite suma por producto el stock ubicado en la sede.
func (r *LocationStockRepo) SumBySite(ctx context.Context, siteID string) (map[string]decimal.Decimal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT s.product_id, COALESCE(SUM(s.current_qty), 0)
		FROM stock_by_location s
		JOIN locations l ON l.id = s.location_id
		WHERE l.site_id = $1
		GROUP BY s.product_id`, siteID)
	if err != nil {
		return nil, fmt.Errorf("sum location stock: %w", err)
	}
	defer rows.Close()
	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var productID string
		var qty decimal.Decimal
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("scan location stock sum: %w", err)
		}
		out[productID] = qty
	}
	return out, rows.Err()
}

func scanLocationStock(rows pgx.Rows) ([]*entity.StockByLocation, error) {
	defer rows.Close()
	var list []*entity.StockByLocation
	for rows.Next() {
		var s entity.StockByLocation
		if err := rows.Scan(&s.LocationID, &s.ProductID, &s.CurrentQty, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
