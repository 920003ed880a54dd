package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollIterations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alert_poll_iterations_total",
		Help: "Total number of completed poll iterations",
	})

	FetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alert_fetch_failures_total",
		Help: "Poll iterations abandoned because the telemetry store could not be read",
	})

	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alert_decode_failures_total",
		Help: "Raw pack rows skipped because the payload could not be decoded",
	})

	Candidates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_candidates_total",
		Help: "Alert candidates produced by the evaluator",
	}, []string{"condition"})

	Admitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_admitted_total",
		Help: "Alert candidates that passed suppression and were dispatched",
	}, []string{"condition"})

	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_delivery_failures_total",
		Help: "Failed notification deliveries by channel",
	}, []string{"channel"})

	EmailRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alert_email_retries_total",
		Help: "Email sends retried after an SMTP reconnect",
	})

	IterationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alert_poll_iteration_seconds",
		Help:    "Duration of a poll iteration including dispatch",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
