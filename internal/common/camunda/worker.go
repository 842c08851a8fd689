// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"investor-match-workers/internal/common/config"
	"investor-match-workers/internal/common/logger"
	"investor-match-workers/internal/common/metrics"
	"investor-match-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every task handler. Handlers complete or fail
// the job themselves; a returned error is only logged.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker for taskType. Disabled workers return nil.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler JobHandler, obs *observability.Observability, log logger.Logger) *Worker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	if !wcfg.Enabled {
		log.Info("worker disabled", nil)
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs, log)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})

	return &Worker{worker: jobWorker, logger: log, taskType: taskType}
}

// Instrument adapts a JobHandler to the zeebe handler signature and records
// the shared worker metrics around it. obs may be nil.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		ctx := context.Background()
		start := time.Now()
		status := "completed"
		if err := handler.Handle(client, job); err != nil {
			status = "failed"
			log.Error("handler returned error", map[string]interface{}{
				"jobKey": job.Key,
				"error":  err,
			})
		}
		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, elapsed, status)
	}
}

func (w *Worker) Stop() {
	if w == nil {
		return
	}
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
