package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: chore-workers
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: chores
    user: chores
  redis:
    address: localhost:6379
ai_gateway:
  base_url: https://generativelanguage.googleapis.com/v1beta
  max_requests_per_minute: 12
  request_types:
    suggestions:
      temperature: 0.5
workers:
  parse-bulk-request:
    enabled: true
  analyze-impact:
    enabled: false
    timeout: 5000
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.AIGateway.MaxRequestsPerMinute)
	assert.Equal(t, 10000, cfg.AIGateway.Timeout)
	assert.Equal(t, 30, cfg.AIGateway.CacheTTLMinutes)
	assert.Equal(t, 500, cfg.AIGateway.CacheMaxEntries)
	assert.Equal(t, CacheBackendMemory, cfg.AIGateway.CacheBackend)
	assert.Equal(t, 300000, cfg.AIGateway.ConfigCacheTTL)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, ":8080", cfg.Metrics.Address)

	suggestions := cfg.AIGateway.RequestTypes["suggestions"]
	assert.Equal(t, 0.5, suggestions.Temperature)
	assert.Equal(t, 1024, suggestions.MaxTokens)
	assert.Equal(t, 1536, cfg.AIGateway.RequestTypes["conflict_analysis"].MaxTokens)

	parse := GetWorkerConfig(cfg, "parse-bulk-request")
	assert.Equal(t, 30000, parse.Timeout)
	assert.Equal(t, 3, parse.MaxRetries)
	assert.False(t, IsWorkerEnabled(cfg, "analyze-impact"))
	assert.True(t, IsWorkerEnabled(cfg, "detect-conflicts"))
	assert.Equal(t, 5*time.Second, GetDuration(GetWorkerConfig(cfg, "analyze-impact").Timeout))
}

func TestLoadFromFileExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "debug")
	body := baseYAML + "\nlogging:\n  level: ${TEST_LOG_LEVEL}\n"

	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing broker", func(c *Config) { c.Camunda.BrokerAddress = "" }, "camunda.broker_address"},
		{"missing postgres host", func(c *Config) { c.Database.Postgres.Host = "" }, "database.postgres.host"},
		{"redis backend without address", func(c *Config) {
			c.AIGateway.CacheBackend = CacheBackendRedis
			c.Database.Redis.Address = ""
		}, "database.redis.address"},
		{"unknown backend", func(c *Config) { c.AIGateway.CacheBackend = "memcached" }, "cache_backend"},
		{"missing base url", func(c *Config) { c.AIGateway.BaseURL = "" }, "ai_gateway.base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Camunda:   CamundaConfig{BrokerAddress: "zeebe:26500"},
				Database:  DatabaseConfig{Postgres: PostgresConfig{Host: "db", Database: "chores", User: "app"}},
				AIGateway: AIGatewayConfig{BaseURL: "http://ai"},
			}
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "chores", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=chores sslmode=disable", p.GetDSN())
}
