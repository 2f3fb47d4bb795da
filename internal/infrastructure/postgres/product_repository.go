package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
)

var (
	_ repository.ProductRepository            = (*ProductRepo)(nil)
	_ repository.ProductSupplierRepository    = (*ProductSupplierRepo)(nil)
	_ repository.SiteProductSettingRepository = (*SiteProductSettingRepo)(nil)
)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, name, stock_unit_code, unit_family, costing_mode, cost, created_at, updated_at`

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.SKU, product.Name, product.StockUnitCode, product.UnitFamily,
		product.CostingMode, product.Cost, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate obtiene el producto y bloquea la fila.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

// GetForShare obtiene el producto con bloqueo compartido.
func (r *ProductRepo) GetForShare(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR SHARE`, id)
}

func (r *ProductRepo) get(ctx context.Context, query, id string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.StockUnitCode, &p.UnitFamily,
		&p.CostingMode, &p.Cost, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get product", err)
	}
	return &p, nil
}

// UpdateCost actualiza el costo por unidad de stock.
func (r *ProductRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE products SET cost = $2, updated_at = now() WHERE id = $1`, productID, cost)
	if err != nil {
		return mapError("update product cost", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStockUnit cambia la unidad de stock (el caso de uso valida que se pueda).
func (r *ProductRepo) UpdateStockUnit(ctx context.Context, productID, unitCode string, family entity.UnitFamily) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET stock_unit_code = $2, unit_family = $3, updated_at = now()
		WHERE id = $1`, productID, unitCode, family)
	if err != nil {
		return mapError("update product stock unit", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ProductSupplierRepo presentaciones de compra por proveedor.
type ProductSupplierRepo struct {
	q Querier
}

// NewProductSupplierRepository construye el adaptador.
func NewProductSupplierRepository(q Querier) *ProductSupplierRepo {
	return &ProductSupplierRepo{q: q}
}

const supplierColumns = `product_id, supplier_id, supplier_name, is_primary, pack_price, pack_qty, pack_unit_code, updated_at`

// GetPrimary devuelve el proveedor principal del producto, o nil.
func (r *ProductSupplierRepo) GetPrimary(ctx context.Context, productID string) (*entity.ProductSupplier, error) {
	var s entity.ProductSupplier
	err := r.q.QueryRow(ctx, `
		SELECT `+supplierColumns+`
		FROM product_suppliers WHERE product_id = $1 AND is_primary`, productID).Scan(
		&s.ProductID, &s.SupplierID, &s.SupplierName, &s.IsPrimary,
		&s.PackPrice, &s.PackQty, &s.PackUnitCode, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get primary supplier: %w", err)
	}
	return &s, nil
}

// ListPrimaryByProducts devuelve el proveedor principal de cada producto que lo tenga.
func (r *ProductSupplierRepo) ListPrimaryByProducts(ctx context.Context, productIDs []string) (map[string]*entity.ProductSupplier, error) {
	out := make(map[string]*entity.ProductSupplier, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+supplierColumns+`
		FROM product_suppliers WHERE is_primary AND product_id = ANY($1)`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list primary suppliers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s entity.ProductSupplier
		if err := rows.Scan(&s.ProductID, &s.SupplierID, &s.SupplierName, &s.IsPrimary,
			&s.PackPrice, &s.PackQty, &s.PackUnitCode, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out[s.ProductID] = &s
	}
	return out, rows.Err()
}

// Upsert guarda la presentación. Si es principal, primero desmarca la anterior para
// respetar el índice único parcial.
func (r *ProductSupplierRepo) Upsert(ctx context.Context, s *entity.ProductSupplier) error {
	if s.IsPrimary {
		if _, err := r.q.Exec(ctx, `
			UPDATE product_suppliers SET is_primary = FALSE
			WHERE product_id = $1 AND supplier_id <> $2 AND is_primary`, s.ProductID, s.SupplierID); err != nil {
			return mapError("unset primary supplier", err)
		}
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO product_suppliers (`+supplierColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (product_id, supplier_id) DO UPDATE SET
			supplier_name = EXCLUDED.supplier_name,
			is_primary = EXCLUDED.is_primary,
			pack_price = EXCLUDED.pack_price,
			pack_qty = EXCLUDED.pack_qty,
			pack_unit_code = EXCLUDED.pack_unit_code,
			updated_at = now()`,
		s.ProductID, s.SupplierID, s.SupplierName, s.IsPrimary, s.PackPrice, s.PackQty, s.PackUnitCode,
	)
	if err != nil {
		return mapError("upsert supplier", err)
	}
	return nil
}

// SiteProductSettingRepo mínimos de stock por sede.
type SiteProductSettingRepo struct {
	q Querier
}

// NewSiteProductSettingRepository construye el adaptador.
func NewSiteProductSettingRepository(q Querier) *SiteProductSettingRepo {
	return &SiteProductSettingRepo{q: q}
}

// ListBySite lista los mínimos configurados de una sede.
func (r *SiteProductSettingRepo) ListBySite(ctx context.Context, siteID string) ([]entity.SiteProductSetting, error) {
	rows, err := r.q.Query(ctx, `
		SELECT site_id, product_id, min_stock
		FROM site_product_settings WHERE site_id = $1 ORDER BY product_id`, siteID)
	if err != nil {
		return nil, fmt.Errorf("list site settings: %w", err)
	}
	defer rows.Close()
	var list []entity.SiteProductSetting
	for rows.Next() {
		var s entity.SiteProductSetting
		if err := rows.Scan(&s.SiteID, &s.ProductID, &s.MinStock); err != nil {
			return nil, fmt.Errorf("scan site setting: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
