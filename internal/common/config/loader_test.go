// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: agent-router
database:
  redis:
    address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.Server.Address)
	assert.Equal(t, "configs/routes.yaml", cfg.Routing.RouteTablePath)
	assert.Equal(t, 300000, cfg.Routing.CacheTTL)
	assert.Equal(t, 300000, cfg.Routing.TrackerWindow)
	assert.Equal(t, 10, cfg.Routing.HistorySize)
	assert.Equal(t, 86400000, cfg.Database.Redis.SnapshotTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9100", cfg.Metrics.Address)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFromFile_ExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":7777"
routing:
  route_table_path: /etc/agent-router/routes.yaml
  cache_ttl: 60000
  history_size: 3
database:
  redis:
    address: redis-primary:6379
    db: 2
logging:
  level: debug
  format: console
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Address)
	assert.Equal(t, "/etc/agent-router/routes.yaml", cfg.Routing.RouteTablePath)
	assert.Equal(t, 60000, cfg.Routing.CacheTTL)
	assert.Equal(t, 3, cfg.Routing.HistorySize)
	assert.Equal(t, 2, cfg.Database.Redis.DB)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_MissingRedisAddress(t *testing.T) {
	path := writeConfig(t, `
app:
  name: agent-router
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.redis.address")
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDRESS", "expanded-host:6379")

	path := writeConfig(t, `
database:
  redis:
    address: ${TEST_REDIS_ADDRESS}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-host:6379", cfg.Database.Redis.Address)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, GetDuration(300000))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
