package repository

import (
	"context"

	"github.com/jhoicas/inventario-sedes/internal/domain/entity"
)

// CountSessionRepository persistencia de sesiones y líneas de conteo.
type CountSessionRepository interface {
	Create(ctx context.Context, session *entity.CountSession) error
	GetByID(ctx context.Context, id string) (*entity.CountSession, error)
	GetForUpdate(ctx context.Context, id string) (*entity.CountSession, error)
	Update(ctx context.Context, session *entity.CountSession) error
	UpsertLine(ctx context.Context, line *entity.CountLine) error
	// GetLineForUpdate bloquea la línea para el guardia de idempotencia.
	GetLineForUpdate(ctx context.Context, sessionID, productID string) (*entity.CountLine, error)
}
