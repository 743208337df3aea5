// internal/workers/bulk-operations/analyze-impact/config.go
package analyzeimpact

import (
	"time"

	"chore-workers/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
}

func LoadConfig(appCfg *config.Config) *Config {
	wc := config.WorkerConfig{Enabled: true, MaxJobsActive: 5, Timeout: 30000}
	if appCfg != nil {
		wc = config.GetWorkerConfig(appCfg, TaskType)
	}
	return &Config{
		Enabled:       wc.Enabled,
		MaxJobsActive: wc.MaxJobsActive,
		Timeout:       config.GetDuration(wc.Timeout),
	}
}
