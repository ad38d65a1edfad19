package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndDerivedPaths(t *testing.T) {
	t.Setenv("LOKAO_DATA_DIR", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join("data", "piloto_teste.json"), cfg.Data.PilotPath)
	assert.Equal(t, filepath.Join("data", "pagamentos_mp.json"), cfg.Data.PaymentsPath)
	assert.Equal(t, 48*time.Hour, cfg.Pilot.WindowDuration())
	assert.Equal(t, 168*time.Hour, cfg.Market.CacheTTLDuration())
	assert.Equal(t, 6*time.Hour, cfg.Market.FailureCooldownDuration())
	assert.Equal(t, 4*time.Second, cfg.Market.TimeoutDuration())
	assert.Equal(t, 3990, cfg.Payment.PriceCents)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lokao.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: "0.0.0.0:9000"
storage:
  backend: sqlite
pilot:
  duration: 24h
data:
  pilot_path: /tmp/custom.json
`), 0o644))

	t.Setenv("LOKAO_DATA_DIR", dir)
	t.Setenv("LOKAO_CPF_SALT", "salt-x")
	t.Setenv("LOKAO_METRICAS_KEY", "adm")
	t.Setenv("LOKAO_PORT", "7000")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Address)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Pilot.WindowDuration())
	assert.Equal(t, "salt-x", cfg.Pilot.CPFSalt)
	assert.Equal(t, "adm", cfg.Server.AdminKey)
	assert.Equal(t, "/tmp/custom.json", cfg.Data.PilotPath)
	assert.Equal(t, filepath.Join(dir, "lokao.db"), cfg.Storage.SQLitePath)
}

func TestLoad_RedisEnvSwitchesCache(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Market.CacheBackend)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "mongo"
	cfg.Market.Timeout = "soon"
	cfg.Market.CacheBackend = "redis"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
	assert.Contains(t, err.Error(), "market.timeout")
	assert.Contains(t, err.Error(), "market.redis_addr")

	cfg = Default()
	cfg.Market.ExternalEnabled = true
	assert.ErrorContains(t, cfg.Validate(), "market.endpoint")
}
