// Package catalog mantiene en memoria el catálogo de unidades por proceso
// y expone los casos de uso de administración de unidades y alias.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/inventario-sedes/internal/application/ports"
	"github.com/jhoicas/inventario-sedes/internal/domain/uom"
)

var _ ports.ConverterProvider = (*Catalog)(nil)

// Catalog cache del Registry activo. Lectura mayoritaria: se recarga al vencer el TTL
// o tras Invalidate, y una recarga fallida sigue sirviendo la última versión válida
// (las definiciones de unidades toleran consistencia eventual, las cantidades no).
type Catalog struct {
	loader ports.UnitCatalogLoader
	ttl    time.Duration
	log    zerolog.Logger
	now    func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	current  *uom.Registry
	loadedAt time.Time
	stale    bool
}

// NewCatalog construye el cache. ttl <= 0 deja el catálogo vigente hasta Invalidate.
func NewCatalog(loader ports.UnitCatalogLoader, ttl time.Duration, log zerolog.Logger) *Catalog {
	return &Catalog{loader: loader, ttl: ttl, log: log, now: time.Now}
}

// Registry devuelve el catálogo vigente, recargándolo si hace falta.
// Recargas concurrentes se colapsan en una sola consulta (singleflight).
func (c *Catalog) Registry(ctx context.Context) (*uom.Registry, error) {
	c.mu.RLock()
	current, fresh := c.current, c.fresh()
	c.mu.RUnlock()
	if current != nil && fresh {
		return current, nil
	}

	v, err, _ := c.group.Do("catalog", func() (any, error) {
		return c.reload(ctx)
	})
	if err != nil {
		if current != nil {
			c.log.Warn().Err(err).Msg("recarga de catálogo de unidades falló, se usa la versión anterior")
			return current, nil
		}
		return nil, err
	}
	return v.(*uom.Registry), nil
}

// Converter implementa ports.ConverterProvider.
func (c *Catalog) Converter(ctx context.Context) (uom.Converter, error) {
	return c.Registry(ctx)
}

// Invalidate marca el catálogo como vencido; la siguiente lectura recarga.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
	c.log.Debug().Msg("catálogo de unidades invalidado")
}

// Reload fuerza la recarga inmediata.
func (c *Catalog) Reload(ctx context.Context) error {
	_, err := c.reload(ctx)
	return err
}

func (c *Catalog) fresh() bool {
	if c.stale {
		return false
	}
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(c.loadedAt) < c.ttl
}

func (c *Catalog) reload(ctx context.Context) (*uom.Registry, error) {
	units, err := c.loader.LoadActiveUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar unidades: %w", err)
	}
	aliases, err := c.loader.LoadAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar alias: %w", err)
	}
	reg, err := uom.NewRegistry(units, aliases)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.current = reg
	c.loadedAt = c.now()
	c.stale = false
	c.mu.Unlock()
	c.log.Info().Int("units", len(units)).Int("aliases", len(aliases)).Msg("catálogo de unidades cargado")
	return reg, nil
}
