package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-sedes/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.True(t, cfg.Ledger.AllowNegativeSiteStock)
	assert.Equal(t, int32(6), cfg.UoM.DefaultDecimals)
	assert.Equal(t, 5*time.Minute, cfg.UoM.CacheTTL)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("LEDGER_ALLOW_NEGATIVE_SITE_STOCK", "false")
	t.Setenv("UOM_CACHE_TTL", "30s")
	t.Setenv("DB_PORT", "6543")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.False(t, cfg.Ledger.AllowNegativeSiteStock)
	assert.Equal(t, 30*time.Second, cfg.UoM.CacheTTL)
	assert.Equal(t, 6543, cfg.DB.Port)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err := config.Load()
	assert.Error(t, err)
}
