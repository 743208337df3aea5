// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and lets environment variables override any key.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{
		"camunda.broker_address",
		"database.postgres.host", "database.postgres.user", "database.postgres.password", "database.postgres.database",
		"database.redis.address", "database.redis.password",
		"ai_gateway.base_url", "ai_gateway.model", "ai_gateway.cache_backend",
		"logging.level", "logging.format", "metrics.address",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Database.Redis.Password == "" {
		cfg.Database.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
}

// DefaultGenerationSettings are the sampling parameters per gateway request type.
var DefaultGenerationSettings = map[string]GenerationSettings{
	"bulk_operation":    {MaxTokens: 1024, Temperature: 0.2, TopP: 0.8},
	"suggestions":       {MaxTokens: 1024, Temperature: 0.7, TopP: 0.9},
	"conflict_analysis": {MaxTokens: 1536, Temperature: 0.3, TopP: 0.8},
	"impact_assessment": {MaxTokens: 1536, Temperature: 0.4, TopP: 0.85},
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "chore-workers"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}

	applyGatewayDefaults(&cfg.AIGateway)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

func applyGatewayDefaults(g *AIGatewayConfig) {
	if g.Model == "" {
		g.Model = "gemini-1.5-flash"
	}
	if g.Timeout == 0 {
		g.Timeout = 10000
	}
	if g.MaxRequestsPerMinute == 0 {
		g.MaxRequestsPerMinute = 10
	}
	if g.CacheTTLMinutes == 0 {
		g.CacheTTLMinutes = 30
	}
	if g.CacheMaxEntries == 0 {
		g.CacheMaxEntries = 500
	}
	if g.CacheBackend == "" {
		g.CacheBackend = CacheBackendMemory
	}
	if g.ConfigCacheTTL == 0 {
		g.ConfigCacheTTL = 300000
	}
	if g.GlobalRPS == 0 {
		g.GlobalRPS = 5
	}
	if g.GlobalBurst == 0 {
		g.GlobalBurst = 20
	}
	if g.BreakerMaxFailures == 0 {
		g.BreakerMaxFailures = 5
	}
	if g.BreakerTimeout == 0 {
		g.BreakerTimeout = 30000
	}
	if g.RequestTypes == nil {
		g.RequestTypes = make(map[string]GenerationSettings, len(DefaultGenerationSettings))
	}
	for name, def := range DefaultGenerationSettings {
		s := g.RequestTypes[name]
		if s.MaxTokens == 0 {
			s.MaxTokens = def.MaxTokens
		}
		if s.Temperature == 0 {
			s.Temperature = def.Temperature
		}
		if s.TopP == 0 {
			s.TopP = def.TopP
		}
		g.RequestTypes[name] = s
	}
}

// ApplyGatewayDefaults fills unset gateway fields; used by callers that build
// an AIGatewayConfig by hand.
func ApplyGatewayDefaults(g AIGatewayConfig) AIGatewayConfig {
	applyGatewayDefaults(&g)
	return g
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	switch cfg.AIGateway.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when ai_gateway.cache_backend is redis")
		}
	default:
		return fmt.Errorf("ai_gateway.cache_backend must be %q or %q, got %q", CacheBackendMemory, CacheBackendRedis, cfg.AIGateway.CacheBackend)
	}

	if cfg.AIGateway.BaseURL == "" {
		return fmt.Errorf("ai_gateway.base_url is required")
	}
	return nil
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
