// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chore-workers/internal/common/aigateway"
	"chore-workers/internal/common/camunda"
	"chore-workers/internal/common/config"
	"chore-workers/internal/common/database"
	"chore-workers/internal/common/familyconfig"
	"chore-workers/internal/common/logger"
	"chore-workers/internal/common/observability"
	"chore-workers/pkg/registry"

	ai "chore-workers/internal/workers/bulk-operations/analyze-impact"
	dc "chore-workers/internal/workers/bulk-operations/detect-conflicts"
	pbr "chore-workers/internal/workers/bulk-operations/parse-bulk-request"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err.Error()})
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewStructured("info", "console", "worker-manager").
			Error("config load failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.App.Name)
	log.Info("Starting worker manager...", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		fatal(log, "registry load failed", err)
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		fatal(log, "postgres failed after retries", err)
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		fatal(log, "postgres schema setup failed", err)
	}
	log.Info("PostgreSQL connected successfully", nil)

	// --- AI gateway, with Redis-backed response cache when configured ---
	gatewayOpts := []aigateway.Option{aigateway.WithObservability(obs)}
	var rdb *database.RedisClient
	if cfg.AIGateway.CacheBackend == config.CacheBackendRedis {
		rdb = database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			fatal(log, "redis failed after retries", err)
		}
		defer rdb.Close()
		gatewayOpts = append(gatewayOpts, aigateway.WithCache(aigateway.NewRedisResponseCache(rdb.Client, log)))
		log.Info("Redis connected successfully", nil)
	}
	gateway := aigateway.New(cfg.AIGateway, familyconfig.NewPostgresStore(pg), log, gatewayOpts...)

	// --- Init Zeebe client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		fatal(log, "zeebe client failed after retries", err)
	}
	log.Info("Zeebe client connected successfully", nil)

	// --- Register workers ---
	handlers := map[string]func() (camunda.JobHandler, error){
		pbr.TaskType: func() (camunda.JobHandler, error) {
			return pbr.NewHandler(pbr.HandlerOptions{AppConfig: cfg, Gateway: gateway, Registry: reg, Logger: log, Observability: obs})
		},
		dc.TaskType: func() (camunda.JobHandler, error) {
			return dc.NewHandler(dc.HandlerOptions{AppConfig: cfg, Gateway: gateway, Registry: reg, Logger: log, Observability: obs})
		},
		ai.TaskType: func() (camunda.JobHandler, error) {
			return ai.NewHandler(ai.HandlerOptions{AppConfig: cfg, Gateway: gateway, Registry: reg, Logger: log, Observability: obs})
		},
	}

	var workers []*camunda.Worker
	for _, taskType := range []string{pbr.TaskType, dc.TaskType, ai.TaskType} {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			continue
		}
		handler, err := handlers[taskType]()
		if err != nil {
			fatal(log, fmt.Sprintf("failed to create %s handler", taskType), err)
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), taskType,
			config.GetWorkerConfig(cfg, taskType), handler, log))
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pg.Ping(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "postgres unavailable")
			return
		}
		if rdb != nil {
			if err := rdb.Ping(checkCtx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "redis unavailable")
				return
			}
		}
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "zeebe unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"address": cfg.Metrics.Address})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping Health/Metrics server", map[string]interface{}{"error": err.Error()})
	}
	if err := zeebe.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
