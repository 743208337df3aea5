// internal/workers/bulk-operations/parse-bulk-request/config.go
package parsebulkrequest

import (
	"time"

	"chore-workers/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	// AIConfidenceThreshold is the pattern confidence at or below which the
	// AI gateway is asked to classify the request.
	AIConfidenceThreshold float64
}

func LoadConfig(appCfg *config.Config) *Config {
	wc := config.WorkerConfig{Enabled: true, MaxJobsActive: 5, Timeout: 30000}
	if appCfg != nil {
		wc = config.GetWorkerConfig(appCfg, TaskType)
	}
	return &Config{
		Enabled:               wc.Enabled,
		MaxJobsActive:         wc.MaxJobsActive,
		Timeout:               config.GetDuration(wc.Timeout),
		AIConfidenceThreshold: 0.8,
	}
}
