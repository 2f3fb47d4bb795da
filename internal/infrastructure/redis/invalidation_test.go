//go:build integration

package redis_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/jhoicas/inventario-sedes/internal/infrastructure/redis"
)

func TestCatalogBus_PropagaEntreProcesos(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := redis.NewClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	emitter := redis.NewCatalogBus(rdb, "uom:test", zerolog.Nop())
	listener := redis.NewCatalogBus(rdb, "uom:test", zerolog.Nop())

	var self, other atomic.Int32
	readySelf, readyOther := make(chan struct{}), make(chan struct{})
	go func() { _ = emitter.Listen(ctx, func() { self.Add(1) }, readySelf) }()
	go func() { _ = listener.Listen(ctx, func() { other.Add(1) }, readyOther) }()
	<-readySelf
	<-readyOther

	require.NoError(t, emitter.PublishInvalidation(ctx))

	assert.Eventually(t, func() bool { return other.Load() == 1 }, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, int32(0), self.Load(), "el emisor no se invalida a sí mismo")
}
