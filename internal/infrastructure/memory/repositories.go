package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventario-sedes/internal/domain"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
)

var (
	_ repository.SiteRepository               = SiteRepo{}
	_ repository.LocationRepository           = LocationRepo{}
	_ repository.UnitRepository               = UnitRepo{}
	_ repository.ProductRepository            = ProductRepo{}
	_ repository.ProductSupplierRepository    = SupplierRepo{}
	_ repository.SiteProductSettingRepository = SettingRepo{}
	_ repository.SiteStockRepository          = SiteStockRepo{}
	_ repository.LocationStockRepository      = LocationStockRepo{}
	_ repository.InventoryMovementRepository  = MovementRepo{}
	_ repository.RestockRequestRepository     = RestockRepo{}
	_ repository.CountSessionRepository       = CountRepo{}
)

// ── sedes y ubicaciones ──────────────────────────────────────────────────────

// SiteRepo sedes en memoria.
type SiteRepo struct{ s *Store }

// Sites devuelve el repositorio de sedes.
func (s *Store) Sites() SiteRepo { return SiteRepo{s} }

func (r SiteRepo) GetByID(_ context.Context, id string) (*entity.Site, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	site, ok := r.s.sites[id]
	if !ok {
		return nil, nil
	}
	return &site, nil
}

func (r SiteRepo) List(_ context.Context) ([]*entity.Site, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Site, 0, len(r.s.sites))
	for _, site := range r.s.sites {
		site := site
		list = append(list, &site)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

// LocationRepo ubicaciones en memoria.
type LocationRepo struct{ s *Store }

// Locations devuelve el repositorio de ubicaciones.
func (s *Store) Locations() LocationRepo { return LocationRepo{s} }

func (r LocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	loc, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func (r LocationRepo) ListBySite(_ context.Context, siteID string) ([]*entity.Location, error) {
	return r.filter(func(l entity.Location) bool { return l.SiteID == siteID }), nil
}

func (r LocationRepo) ListChildren(_ context.Context, parentID string) ([]*entity.Location, error) {
	return r.filter(func(l entity.Location) bool { return l.ParentID == parentID }), nil
}

func (r LocationRepo) filter(keep func(entity.Location) bool) []*entity.Location {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.Location
	for _, l := range r.s.locations {
		if keep(l) {
			l := l
			list = append(list, &l)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// ── unidades ─────────────────────────────────────────────────────────────────

// UnitRepo catálogo de unidades en memoria.
type UnitRepo struct{ s *Store }

// Units devuelve el repositorio de unidades.
func (s *Store) Units() UnitRepo { return UnitRepo{s} }

func (r UnitRepo) ListActive(_ context.Context) ([]entity.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []entity.Unit
	for _, u := range r.s.units {
		if u.Active {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

func (r UnitRepo) ListAliases(_ context.Context) ([]entity.UnitAlias, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []entity.UnitAlias
	for _, a := range r.s.aliases {
		if u, ok := r.s.units[a.UnitCode]; ok && u.Active {
			list = append(list, a)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Alias < list[j].Alias })
	return list, nil
}

func (r UnitRepo) GetByCode(_ context.Context, code string) (*entity.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.units[code]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r UnitRepo) Create(_ context.Context, unit *entity.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.units[unit.Code]; ok {
		return fmt.Errorf("%w: unidad %q", domain.ErrDuplicate, unit.Code)
	}
	r.s.units[unit.Code] = *unit
	return nil
}

func (r UnitRepo) Update(_ context.Context, unit *entity.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.units[unit.Code]; !ok {
		return domain.ErrNotFound
	}
	r.s.units[unit.Code] = *unit
	return nil
}

func (r UnitRepo) UsageCount(_ context.Context, code string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, p := range r.s.products {
		if p.StockUnitCode == code {
			n++
		}
	}
	for _, list := range r.s.suppliers {
		for _, ps := range list {
			if ps.PackUnitCode == code {
				n++
			}
		}
	}
	for _, req := range r.s.restocks {
		if req.Status == entity.RestockClosed || req.Status == entity.RestockCancelled {
			continue
		}
		for _, it := range req.Items {
			if it.UnitCode == code {
				n++
			}
		}
	}
	return n, nil
}

func (r UnitRepo) CreateAlias(_ context.Context, alias entity.UnitAlias) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.aliases[alias.Alias]; ok {
		return fmt.Errorf("%w: alias %q", domain.ErrDuplicate, alias.Alias)
	}
	r.s.aliases[alias.Alias] = alias
	return nil
}

// ── productos ────────────────────────────────────────────────────────────────

// ProductRepo productos en memoria.
type ProductRepo struct{ s *Store }

// Products devuelve el repositorio de productos.
func (s *Store) Products() ProductRepo { return ProductRepo{s} }

func (r ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if _, ok := r.s.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r ProductRepo) GetForShare(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r ProductRepo) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Cost = cost
	r.s.products[productID] = p
	return nil
}

func (r ProductRepo) UpdateStockUnit(_ context.Context, productID, unitCode string, family entity.UnitFamily) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.StockUnitCode = unitCode
	p.UnitFamily = family
	r.s.products[productID] = p
	return nil
}

// SupplierRepo presentaciones de proveedor en memoria.
type SupplierRepo struct{ s *Store }

// Suppliers devuelve el repositorio de proveedores por producto.
func (s *Store) Suppliers() SupplierRepo { return SupplierRepo{s} }

func (r SupplierRepo) GetPrimary(_ context.Context, productID string) (*entity.ProductSupplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, ps := range r.s.suppliers[productID] {
		if ps.IsPrimary {
			ps := ps
			return &ps, nil
		}
	}
	return nil, nil
}

func (r SupplierRepo) ListPrimaryByProducts(ctx context.Context, productIDs []string) (map[string]*entity.ProductSupplier, error) {
	out := make(map[string]*entity.ProductSupplier, len(productIDs))
	for _, id := range productIDs {
		ps, _ := r.GetPrimary(ctx, id)
		if ps != nil {
			out[id] = ps
		}
	}
	return out, nil
}

// SettingRepo mínimos por sede en memoria.
type SettingRepo struct{ s *Store }

// Settings devuelve el repositorio de parámetros por sede.
func (s *Store) Settings() SettingRepo { return SettingRepo{s} }

func (r SettingRepo) ListBySite(_ context.Context, siteID string) ([]entity.SiteProductSetting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []entity.SiteProductSetting
	for k, v := range r.s.settings {
		if k.a == siteID {
			list = append(list, v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return list, nil
}

func (r SupplierRepo) Upsert(_ context.Context, ps *entity.ProductSupplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.s.suppliers[ps.ProductID]
	found := false
	for i := range list {
		if list[i].SupplierID == ps.SupplierID {
			list[i] = *ps
			found = true
		} else if ps.IsPrimary {
			list[i].IsPrimary = false
		}
	}
	if !found {
		list = append(list, *ps)
	}
	r.s.suppliers[ps.ProductID] = list
	return nil
}

// ── stock ────────────────────────────────────────────────────────────────────

// SiteStockRepo stock por sede en memoria.
type SiteStockRepo struct{ s *Store }

func (r SiteStockRepo) Get(_ context.Context, siteID, productID string) (*entity.StockBySite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.siteStock[key{siteID, productID}]
	if !ok {
		return &entity.StockBySite{SiteID: siteID, ProductID: productID, CurrentQty: decimal.Zero}, nil
	}
	return &st, nil
}

func (r SiteStockRepo) GetForUpdate(ctx context.Context, siteID, productID string) (*entity.StockBySite, error) {
	return r.Get(ctx, siteID, productID)
}

func (r SiteStockRepo) Upsert(_ context.Context, stock *entity.StockBySite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.siteStock[key{stock.SiteID, stock.ProductID}] = *stock
	return nil
}

func (r SiteStockRepo) ListBySite(_ context.Context, siteID string) ([]*entity.StockBySite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.StockBySite
	for k, v := range r.s.siteStock {
		if k.a == siteID {
			v := v
			list = append(list, &v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return list, nil
}

func (r SiteStockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockBySite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.StockBySite
	for k, v := range r.s.siteStock {
		if k.b == productID {
			v := v
			list = append(list, &v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SiteID < list[j].SiteID })
	return list, nil
}

// LocationStockRepo stock por ubicación en memoria.
type LocationStockRepo struct{ s *Store }

func (r LocationStockRepo) Get(_ context.Context, locationID, productID string) (*entity.StockByLocation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.locStock[key{locationID, productID}]
	if !ok {
		return &entity.StockByLocation{LocationID: locationID, ProductID: productID, CurrentQty: decimal.Zero}, nil
	}
	return &st, nil
}

func (r LocationStockRepo) GetForUpdate(ctx context.Context, locationID, productID string) (*entity.StockByLocation, error) {
	return r.Get(ctx, locationID, productID)
}

func (r LocationStockRepo) Upsert(_ context.Context, stock *entity.StockByLocation) error {
	if stock.CurrentQty.IsNegative() {
		return fmt.Errorf("stock por ubicación negativo: %w", domain.ErrInsufficientLocationStock)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locStock[key{stock.LocationID, stock.ProductID}] = *stock
	return nil
}

func (r LocationStockRepo) ListByLocation(_ context.Context, locationID string) ([]*entity.StockByLocation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.StockByLocation
	for k, v := range r.s.locStock {
		if k.a == locationID {
			v := v
			list = append(list, &v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ProductID < list[j].ProductID })
	return list, nil
}

func (r LocationStockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockByLocation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.StockByLocation
	for k, v := range r.s.locStock {
		if k.b == productID {
			v := v
			list = append(list, &v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LocationID < list[j].LocationID })
	return list, nil
}

func (r LocationStockRepo) SumBySite(_ context.Context, siteID string) (map[string]decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]decimal.Decimal)
	for k, v := range r.s.locStock {
		loc, ok := r.s.locations[k.a]
		if !ok || loc.SiteID != siteID {
			continue
		}
		out[k.b] = out[k.b].Add(v.CurrentQty)
	}
	return out, nil
}

// ── movimientos ──────────────────────────────────────────────────────────────

// MovementRepo libro de movimientos en memoria (solo inserción).
type MovementRepo struct{ s *Store }

func (r MovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r MovementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movements {
		if m.ID == id {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.InventoryMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if f.SiteID != "" && m.SiteID != f.SiteID {
			continue
		}
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		list = append(list, &m)
	}
	return paginate(list, f.Limit, f.Offset), nil
}

func (r MovementRepo) CountByProduct(_ context.Context, productID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}

// ── remisiones ───────────────────────────────────────────────────────────────

// RestockRepo remisiones en memoria.
type RestockRepo struct{ s *Store }

func (r RestockRepo) Create(_ context.Context, req *entity.RestockRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.restocks[req.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.restocks[req.ID] = cloneRestock(req)
	return nil
}

func (r RestockRepo) GetByID(_ context.Context, id string) (*entity.RestockRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneRestock(r.s.restocks[id]), nil
}

func (r RestockRepo) GetForUpdate(ctx context.Context, id string) (*entity.RestockRequest, error) {
	return r.GetByID(ctx, id)
}

func (r RestockRepo) Update(_ context.Context, req *entity.RestockRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.restocks[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	items := cur.Items
	next := cloneRestock(req)
	next.Items = items
	r.s.restocks[req.ID] = next
	return nil
}

func (r RestockRepo) UpdateItem(_ context.Context, item *entity.RestockRequestItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.restocks[item.RequestID]
	if !ok {
		return domain.ErrNotFound
	}
	for i, it := range cur.Items {
		if it.ID == item.ID {
			ic := *item
			cur.Items[i] = &ic
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r RestockRepo) List(_ context.Context, f repository.RestockFilter) ([]*entity.RestockRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.RestockRequest
	for _, req := range r.s.restocks {
		if f.SiteID != "" && req.FromSiteID != f.SiteID && req.ToSiteID != f.SiteID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		list = append(list, cloneRestock(req))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, f.Limit, f.Offset), nil
}

// ── conteos ──────────────────────────────────────────────────────────────────

// CountRepo sesiones de conteo en memoria.
type CountRepo struct{ s *Store }

func (r CountRepo) Create(_ context.Context, cs *entity.CountSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.counts[cs.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.counts[cs.ID] = cloneCount(cs)
	return nil
}

func (r CountRepo) GetByID(_ context.Context, id string) (*entity.CountSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneCount(r.s.counts[id]), nil
}

func (r CountRepo) GetForUpdate(ctx context.Context, id string) (*entity.CountSession, error) {
	return r.GetByID(ctx, id)
}

func (r CountRepo) Update(_ context.Context, cs *entity.CountSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.counts[cs.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := cloneCount(cs)
	next.Lines = cur.Lines
	r.s.counts[cs.ID] = next
	return nil
}

func (r CountRepo) UpsertLine(_ context.Context, line *entity.CountLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.counts[line.SessionID]
	if !ok {
		return domain.ErrNotFound
	}
	lc := *line
	for i, l := range cur.Lines {
		if l.ProductID == line.ProductID {
			cur.Lines[i] = &lc
			return nil
		}
	}
	cur.Lines = append(cur.Lines, &lc)
	return nil
}

func (r CountRepo) GetLineForUpdate(_ context.Context, sessionID, productID string) (*entity.CountLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cur, ok := r.s.counts[sessionID]
	if !ok {
		return nil, nil
	}
	for _, l := range cur.Lines {
		if l.ProductID == productID {
			lc := *l
			return &lc, nil
		}
	}
	return nil, nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return nil
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// normalizeCode usado por los seeds de alias.
func normalizeCode(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// AddAlias registra un alias (normalizado).
func (s *Store) AddAlias(alias, unitCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := entity.UnitAlias{Alias: normalizeCode(alias), UnitCode: normalizeCode(unitCode)}
	s.aliases[a.Alias] = a
}
