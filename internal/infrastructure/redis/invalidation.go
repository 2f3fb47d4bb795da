package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-sedes/internal/application/ports"
)

var _ ports.CatalogInvalidator = (*CatalogBus)(nil)

// CatalogBus publica y escucha invalidaciones del catálogo de unidades.
// El mensaje lleva el ID del proceso emisor: el emisor ya invalidó su cache local.
type CatalogBus struct {
	rdb     *goredis.Client
	channel string
	origin  string
	log     zerolog.Logger
}

// NewCatalogBus construye el bus sobre un canal.
func NewCatalogBus(rdb *goredis.Client, channel string, log zerolog.Logger) *CatalogBus {
	return &CatalogBus{rdb: rdb, channel: channel, origin: uuid.NewString(), log: log}
}

// PublishInvalidation implementa ports.CatalogInvalidator.
func (b *CatalogBus) PublishInvalidation(ctx context.Context) error {
	if err := b.rdb.Publish(ctx, b.channel, b.origin).Err(); err != nil {
		return fmt.Errorf("redis: publicar invalidación: %w", err)
	}
	return nil
}

// Listen se suscribe al canal y llama invalidate por cada mensaje de otro proceso.
// Bloquea hasta que ctx termina. ready (opcional) se cierra cuando la suscripción está activa.
func (b *CatalogBus) Listen(ctx context.Context, invalidate func(), ready chan<- struct{}) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis: suscribir %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
	}
	b.log.Info().Str("channel", b.channel).Msg("escuchando invalidaciones del catálogo de unidades")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if msg.Payload == b.origin {
				continue
			}
			b.log.Debug().Str("origin", msg.Payload).Msg("invalidación recibida")
			invalidate()
		}
	}
}
