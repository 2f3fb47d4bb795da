// Package memory implementa los puertos de persistencia en memoria.
// Se usa en tests y en modo de desarrollo (STORAGE=memory): las transacciones se
// serializan y un error dentro de Run restaura la foto previa de las tablas del libro.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

var (
	_ ports.TxRunner          = (*Store)(nil)
	_ ports.UnitCatalogLoader = (*Store)(nil)
	_ ports.CapabilityChecker = (*Store)(nil)
)

type key struct{ a, b string }

// Store base de datos en memoria.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	sites     map[string]entity.Site
	locations map[string]entity.Location
	units     map[string]entity.Unit
	aliases   map[string]entity.UnitAlias
	products  map[string]entity.Product
	suppliers map[string][]entity.ProductSupplier
	settings  map[key]entity.SiteProductSetting
	grants    map[string]bool

	siteStock map[key]entity.StockBySite
	locStock  map[key]entity.StockByLocation
	movements []entity.InventoryMovement
	restocks  map[string]*entity.RestockRequest
	counts    map[string]*entity.CountSession

	capabilityCalls int
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		sites:     make(map[string]entity.Site),
		locations: make(map[string]entity.Location),
		units:     make(map[string]entity.Unit),
		aliases:   make(map[string]entity.UnitAlias),
		products:  make(map[string]entity.Product),
		suppliers: make(map[string][]entity.ProductSupplier),
		settings:  make(map[key]entity.SiteProductSetting),
		grants:    make(map[string]bool),
		siteStock: make(map[key]entity.StockBySite),
		locStock:  make(map[key]entity.StockByLocation),
		restocks:  make(map[string]*entity.RestockRequest),
		counts:    make(map[string]*entity.CountSession),
	}
}

// Run ejecuta fn de forma serializada; si fn falla se restauran las tablas transaccionales.
func (s *Store) Run(ctx context.Context, fn func(repos ports.TxRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(s.Repos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Repos devuelve los repositorios sobre este almacén.
func (s *Store) Repos() ports.TxRepos {
	return ports.TxRepos{
		Movements:     MovementRepo{s},
		SiteStock:     SiteStockRepo{s},
		LocationStock: LocationStockRepo{s},
		Products:      ProductRepo{s},
		Restocks:      RestockRepo{s},
		Counts:        CountRepo{s},
	}
}

type snapshot struct {
	products  map[string]entity.Product
	siteStock map[key]entity.StockBySite
	locStock  map[key]entity.StockByLocation
	movements []entity.InventoryMovement
	restocks  map[string]*entity.RestockRequest
	counts    map[string]*entity.CountSession
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		products:  make(map[string]entity.Product, len(s.products)),
		siteStock: make(map[key]entity.StockBySite, len(s.siteStock)),
		locStock:  make(map[key]entity.StockByLocation, len(s.locStock)),
		movements: append([]entity.InventoryMovement(nil), s.movements...),
		restocks:  make(map[string]*entity.RestockRequest, len(s.restocks)),
		counts:    make(map[string]*entity.CountSession, len(s.counts)),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.siteStock {
		snap.siteStock[k] = v
	}
	for k, v := range s.locStock {
		snap.locStock[k] = v
	}
	for k, v := range s.restocks {
		snap.restocks[k] = cloneRestock(v)
	}
	for k, v := range s.counts {
		snap.counts[k] = cloneCount(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.siteStock = snap.siteStock
	s.locStock = snap.locStock
	s.movements = snap.movements
	s.restocks = snap.restocks
	s.counts = snap.counts
}

// ── datos maestros (seed) ────────────────────────────────────────────────────

// AddSite registra una sede.
func (s *Store) AddSite(site entity.Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites[site.ID] = site
}

// AddLocation registra una ubicación.
func (s *Store) AddLocation(loc entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.ID] = loc
}

// AddUnit registra una unidad.
func (s *Store) AddUnit(u entity.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[u.Code] = u
}

// AddProduct registra un producto.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddSupplier registra una presentación de proveedor.
func (s *Store) AddSupplier(ps entity.ProductSupplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[ps.ProductID] = append(s.suppliers[ps.ProductID], ps)
}

// SetMinStock configura el mínimo por sede.
func (s *Store) SetMinStock(siteID, productID string, min decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key{siteID, productID}] = entity.SiteProductSetting{SiteID: siteID, ProductID: productID, MinStock: min}
}

// SetSiteStock fija el stock inicial de una sede.
func (s *Store) SetSiteStock(siteID, productID string, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.siteStock[key{siteID, productID}] = entity.StockBySite{SiteID: siteID, ProductID: productID, CurrentQty: qty}
}

// SetLocationStock fija el stock inicial de una ubicación.
func (s *Store) SetLocationStock(locationID, productID string, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locStock[key{locationID, productID}] = entity.StockByLocation{LocationID: locationID, ProductID: productID, CurrentQty: qty}
}

// PutRestock inserta una remisión tal cual (tests de estados intermedios).
func (s *Store) PutRestock(req *entity.RestockRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restocks[req.ID] = cloneRestock(req)
}

// Grant concede un permiso a un actor en una sede ("" = global).
func (s *Store) Grant(actorID, permissionCode, siteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[actorID+"|"+permissionCode+"|"+siteID] = true
}

// Revoke retira un permiso.
func (s *Store) Revoke(actorID, permissionCode, siteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, actorID+"|"+permissionCode+"|"+siteID)
}

// HasCapability implementa ports.CapabilityChecker.
func (s *Store) HasCapability(_ context.Context, actorID, permissionCode, siteID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capabilityCalls++
	return s.grants[actorID+"|"+permissionCode+"|"+siteID], nil
}

// CapabilityCalls cuántas veces se consultó el oráculo de permisos.
func (s *Store) CapabilityCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capabilityCalls
}

// SiteStockQty lectura directa para aserciones.
func (s *Store) SiteStockQty(siteID, productID string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.siteStock[key{siteID, productID}].CurrentQty
}

// HasSiteStockRow indica si existe la fila (sede, producto).
func (s *Store) HasSiteStockRow(siteID, productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.siteStock[key{siteID, productID}]
	return ok
}

// LocationStockQty lectura directa para aserciones.
func (s *Store) LocationStockQty(locationID, productID string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locStock[key{locationID, productID}].CurrentQty
}

// Movements copia del libro de movimientos.
func (s *Store) Movements() []entity.InventoryMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.InventoryMovement(nil), s.movements...)
}

// LoadActiveUnits implementa ports.UnitCatalogLoader.
func (s *Store) LoadActiveUnits(ctx context.Context) ([]entity.Unit, error) {
	return UnitRepo{s}.ListActive(ctx)
}

// LoadAliases implementa ports.UnitCatalogLoader.
func (s *Store) LoadAliases(ctx context.Context) ([]entity.UnitAlias, error) {
	return UnitRepo{s}.ListAliases(ctx)
}

func cloneRestock(r *entity.RestockRequest) *entity.RestockRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.Items = make([]*entity.RestockRequestItem, 0, len(r.Items))
	for _, it := range r.Items {
		ic := *it
		c.Items = append(c.Items, &ic)
	}
	return &c
}

func cloneCount(cs *entity.CountSession) *entity.CountSession {
	if cs == nil {
		return nil
	}
	c := *cs
	c.Lines = make([]*entity.CountLine, 0, len(cs.Lines))
	for _, l := range cs.Lines {
		lc := *l
		c.Lines = append(c.Lines, &lc)
	}
	return &c
}
