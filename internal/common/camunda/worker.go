// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"chore-workers/internal/common/config"
	"chore-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every task worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. Zero MaxJobsActive and Timeout
// in wc fall back to the client defaults.
func NewWorker(client zbc.Client, taskType string, wc config.WorkerConfig, handler JobHandler, log logger.Logger) *Worker {
	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		Name(taskType + "-worker")

	if wc.MaxJobsActive > 0 {
		builder = builder.MaxJobsActive(wc.MaxJobsActive)
	}
	if wc.Timeout > 0 {
		// the job lock must outlive the handler's own deadline
		builder = builder.Timeout(config.GetDuration(wc.Timeout) + 5*time.Second)
	}

	w := &Worker{
		worker:   builder.Open(),
		logger:   log.WithFields(map[string]interface{}{"taskType": taskType}),
		taskType: taskType,
	}
	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": wc.MaxJobsActive,
		"timeoutMs":     wc.Timeout,
	})
	return w
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
