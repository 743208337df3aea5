// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	AIGateway AIGatewayConfig         `mapstructure:"ai_gateway"`
	Registry  RegistryConfig          `mapstructure:"registry"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig is only read when ai_gateway.cache_backend is "redis".
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// AIGatewayConfig configures the text-generation gateway shared by the
// bulk-operation workers.
type AIGatewayConfig struct {
	BaseURL              string                        `mapstructure:"base_url"`
	Model                string                        `mapstructure:"model"`
	Timeout              int                           `mapstructure:"timeout"` // milliseconds
	MaxRequestsPerMinute int                           `mapstructure:"max_requests_per_minute"`
	CacheTTLMinutes      int                           `mapstructure:"cache_ttl_minutes"`
	CacheMaxEntries      int                           `mapstructure:"cache_max_entries"`
	CacheBackend         string                        `mapstructure:"cache_backend"`
	ConfigCacheTTL       int                           `mapstructure:"config_cache_ttl"` // milliseconds
	GlobalRPS            float64                       `mapstructure:"global_rps"`
	GlobalBurst          int                           `mapstructure:"global_burst"`
	BreakerMaxFailures   int                           `mapstructure:"breaker_max_failures"`
	BreakerTimeout       int                           `mapstructure:"breaker_timeout"` // milliseconds
	RequestTypes         map[string]GenerationSettings `mapstructure:"request_types"`
}

// GenerationSettings overrides the sampling parameters of one request type.
type GenerationSettings struct {
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
