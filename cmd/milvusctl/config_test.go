package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/milvus-adapter/v1/embedding"
	"github.com/Aleph-Alpha/milvus-adapter/v1/logger"
	"github.com/Aleph-Alpha/milvus-adapter/v1/metrics"
	"github.com/Aleph-Alpha/milvus-adapter/v1/milvus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "milvusctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig(globalFlags())
	require.NoError(t, err)

	assert.Equal(t, milvus.DefaultEndpoint, cfg.Milvus.Endpoint)
	assert.Equal(t, milvus.DefaultPort, cfg.Milvus.Port)
	assert.Equal(t, milvus.DefaultTimeout, cfg.Milvus.Timeout)
	assert.True(t, cfg.Milvus.HealthCheck)
	assert.Equal(t, logger.Warning, cfg.Logger.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, metrics.DefaultMetricsAddress, cfg.Metrics.Address)
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
milvus:
  endpoint: milvus.internal
  port: 19531
  db_name: search
  timeout: 3s
  consistency_level: strong
logger:
  level: debug
metrics:
  enabled: true
  address: ":9191"
`)
	t.Setenv("MILVUSCTL_MILVUS_PORT", "19532")
	t.Setenv("MILVUSCTL_MILVUS_USERNAME", "reader")

	fs := globalFlags()
	require.NoError(t, fs.Parse([]string{"--config", path, "--db", "archive"}))

	cfg, err := loadConfig(fs)
	require.NoError(t, err)

	assert.Equal(t, "milvus.internal", cfg.Milvus.Endpoint)
	assert.Equal(t, 19532, cfg.Milvus.Port)
	assert.Equal(t, "archive", cfg.Milvus.DBName)
	assert.Equal(t, "reader", cfg.Milvus.Username)
	assert.Equal(t, 3*time.Second, cfg.Milvus.Timeout)
	assert.Equal(t, "strong", cfg.Milvus.ConsistencyLevel)
	assert.Equal(t, logger.Debug, cfg.Logger.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9191", cfg.Metrics.Address)
}

func TestLoadConfigErrors(t *testing.T) {
	fs := globalFlags()
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
	_, err := loadConfig(fs)
	assert.Error(t, err)

	fs = globalFlags()
	require.NoError(t, fs.Parse([]string{"--config", writeConfig(t, "milvus:\n  consistency_level: sometimes\n")}))
	_, err = loadConfig(fs)
	assert.Error(t, err)
}

func TestAppOptionsGraph(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig(globalFlags())
	require.NoError(t, err)

	var client *milvus.Client
	require.NoError(t, fx.ValidateApp(appOptions(cfg, fx.Populate(&client))...))

	cfg.Metrics.Enabled = true
	cfg.Embedding.Endpoint = "http://localhost:8080"
	cfg.Embedding.Model = "mini"
	require.NoError(t, fx.ValidateApp(appOptions(cfg,
		fx.Populate(&client),
		fx.Invoke(func(*embedding.Client) {}),
	)...))
}
