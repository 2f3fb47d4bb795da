package ports

import (
	"context"

	"github.com/jhoicas/inventario-sedes/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción de BD.
// Solo el libro de inventario escribe en SiteStock, LocationStock y Movements.
type TxRepos struct {
	Movements     repository.InventoryMovementRepository
	SiteStock     repository.SiteStockRepository
	LocationStock repository.LocationStockRepository
	Products      repository.ProductRepository
	Restocks      repository.RestockRequestRepository
	Counts        repository.CountSessionRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback completo: no hay estados parciales confirmados.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}
