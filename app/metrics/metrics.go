package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "memo_comb"

// Metrics holds the scan counters on a private registry so batch runs can
// dump them to a textfile and serve mode can expose them over HTTP.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal            *prometheus.CounterVec
	memosListed          prometheus.Counter
	memosSelected        prometheus.Counter
	memosReported        prometheus.Counter
	memosFailed          prometheus.Counter
	notificationFailures *prometheus.CounterVec
	watermark            prometheus.Gauge
	lastSuccessTS        prometheus.Gauge
	runDuration          prometheus.Summary
}

// RunObservation is what one scan reports when it finishes.
type RunObservation struct {
	Status    string // succeeded or failed
	Listed    int
	Selected  int
	Reported  int
	Failed    int
	Watermark int
	Duration  time.Duration
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Number of scan runs by status",
	}, []string{"status"})
	m.memosListed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "memos_listed_total",
		Help:      "Memo links found on the listing page",
	})
	m.memosSelected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "memos_selected_total",
		Help:      "Memos selected for document enrichment",
	})
	m.memosReported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "memos_reported_total",
		Help:      "Memos that survived filtering and were reported",
	})
	m.memosFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "memos_failed_total",
		Help:      "Memos whose document could not be fetched or read",
	})
	m.notificationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Failed notification deliveries by notifier",
	}, []string{"notifier"})
	m.watermark = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "watermark",
		Help:      "Highest memo number seen so far",
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful scan",
	})
	m.runDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Time spent in a scan run",
	})

	m.registry.MustRegister(
		m.runsTotal, m.memosListed, m.memosSelected, m.memosReported, m.memosFailed,
		m.notificationFailures, m.watermark, m.lastSuccessTS, m.runDuration,
	)

	return m
}

// ObserveRun records the outcome of one scan.
func (m *Metrics) ObserveRun(o RunObservation) {
	m.runsTotal.WithLabelValues(o.Status).Inc()
	m.memosListed.Add(float64(o.Listed))
	m.memosSelected.Add(float64(o.Selected))
	m.memosReported.Add(float64(o.Reported))
	m.memosFailed.Add(float64(o.Failed))
	m.runDuration.Observe(o.Duration.Seconds())

	if o.Status == "succeeded" {
		m.watermark.Set(float64(o.Watermark))
		m.lastSuccessTS.SetToCurrentTime()
	}
}

func (m *Metrics) NotificationFailed(notifier string) {
	m.notificationFailures.WithLabelValues(notifier).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
