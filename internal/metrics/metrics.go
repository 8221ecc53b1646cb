package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus instruments exposed by the API server
// and the cron runner.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	paymentsTotal *prometheus.CounterVec
	loansSettled  prometheus.Counter

	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	return &Collector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route and method",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
			},
			[]string{"route", "method"},
		),
		paymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_total",
				Help:      "Total number of payments recorded by method and final status",
			},
			[]string{"method", "status"},
		),
		loansSettled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loans_settled_total",
				Help:      "Total number of loans fully paid off",
			},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Total number of scheduled job runs by job name and outcome",
			},
			[]string{"job", "outcome"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Scheduled job run duration by job name",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"job"},
		),
	}
}

// Register registers all instruments with the given registry.
func (c *Collector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		c.requestsTotal,
		c.requestDuration,
		c.paymentsTotal,
		c.loansSettled,
		c.jobRuns,
		c.jobDuration,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// Record methods tolerate a nil receiver so callers can run unmetered.

func (c *Collector) RecordRequest(route, method, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(route, method, status).Inc()
	c.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (c *Collector) RecordPayment(method, status string) {
	if c == nil {
		return
	}
	c.paymentsTotal.WithLabelValues(method, status).Inc()
}

func (c *Collector) RecordLoanSettled() {
	if c == nil {
		return
	}
	c.loansSettled.Inc()
}

func (c *Collector) RecordJobRun(job string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.jobRuns.WithLabelValues(job, outcome).Inc()
	c.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
