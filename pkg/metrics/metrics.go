package metrics

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plant"

// Recorder exports engine and backfill outcomes as Prometheus series on its own registry.
type Recorder struct {
	reg        *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	records    *prometheus.CounterVec
	jobs       *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_operations_total",
			Help:      "Engine operations by outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_operation_duration_seconds",
			Help:      "Engine operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"operation"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_records_total",
			Help:      "Records processed by backfill jobs, by result.",
		}, []string{"table", "result"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backfill_jobs_total",
			Help:      "Finished backfill jobs, by status.",
		}, []string{"table", "status"}),
	}
	r.reg.MustRegister(
		r.operations, r.durations, r.records, r.jobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one operation outcome.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveBackfill records the totals of one finished job.
func (r *Recorder) ObserveBackfill(table string, succeeded, partial, failed int, canceled bool) {
	r.records.WithLabelValues(table, "succeeded").Add(float64(succeeded))
	r.records.WithLabelValues(table, "partial").Add(float64(partial))
	r.records.WithLabelValues(table, "failed").Add(float64(failed))
	status := "completed"
	if canceled {
		status = "canceled"
	}
	r.jobs.WithLabelValues(table, status).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
}
