// Package metrics exposes console metrics on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const namespace = "farmsupply"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeDenied   = "denied"
	OutcomeInvalid  = "invalid"
	OutcomeBackend  = "backend_error"
	OutcomeCanceled = "canceled"
	OutcomeStale    = "stale"
)

// Module provides Metrics.
var Module = fx.Provide(New)

// Metrics holds every console collector.
type Metrics struct {
	registry *prometheus.Registry

	commands     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	lockWait     *prometheus.HistogramVec
	fetches      *prometheus.CounterVec
	storeVersion *prometheus.GaugeVec
	invoices     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands executed by the sync coordinator.",
		}, []string{"entity", "action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time from command submission to store refresh.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity"}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collection_lock_wait_seconds",
			Help:      "Time spent waiting for a collection write lock.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"collection"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_fetches_total",
			Help:      "Collection fetches from the backend.",
		}, []string{"collection", "outcome"}),
		storeVersion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_version",
			Help:      "Fetch sequence of the slice held for each collection.",
		}, []string{"collection"}),
		invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_downloads_total",
			Help:      "Invoice downloads and archive results.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.commands, m.duration, m.lockWait, m.fetches, m.storeVersion, m.invoices,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveCommand(entity, action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(entity, action, outcome).Inc()
	m.duration.WithLabelValues(entity).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLockWait(collection string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(collection).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveFetch(collection, outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(collection, outcome).Inc()
}

func (m *Metrics) SetStoreVersion(collection string, version uint64) {
	if m == nil {
		return
	}
	m.storeVersion.WithLabelValues(collection).Set(float64(version))
}

func (m *Metrics) ObserveInvoice(outcome string) {
	if m == nil {
		return
	}
	m.invoices.WithLabelValues(outcome).Inc()
}
