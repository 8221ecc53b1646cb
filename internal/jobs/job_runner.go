package jobs

import (
	"time"

	"lendhub-backend/internal/config"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/metrics"
	"lendhub-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs.
type JobRunner struct {
	payments  service.PaymentService
	config    *config.Config
	collector *metrics.Collector
}

func NewJobRunner(payments service.PaymentService, cfg *config.Config, collector *metrics.Collector) *JobRunner {
	return &JobRunner{
		payments:  payments,
		config:    cfg,
		collector: collector,
	}
}

// Config exposes the loaded configuration for schedule registration.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// RunAllJobs runs every job once, for manual execution from the cron binary.
func (jr *JobRunner) RunAllJobs() {
	jr.SendPaymentReminders()
	jr.SettleDuePayments()
}

// runWithRecovery wraps job execution with panic recovery and metrics.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	err := jobFunc()
	jr.collector.RecordJobRun(jobName, err, time.Since(start))
	if err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
}
