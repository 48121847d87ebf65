package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipscribe_operations_total",
		Help: "Total number of session operations handled, by op and outcome",
	}, []string{"op", "outcome"})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipscribe_operation_duration_seconds",
		Help:    "Duration of session operation pipeline stages",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipscribe_frames_sampled_total",
		Help: "Total number of frames sampled across all sessions",
	})

	ModelCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipscribe_model_calls_total",
		Help: "Total number of generative model calls, by kind and outcome",
	}, []string{"kind", "outcome"})

	BusyRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipscribe_busy_rejections_total",
		Help: "Operations dropped because the session already had one in flight",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clipscribe_active_workers",
		Help: "Number of currently active workers processing operations",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipscribe_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
