package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/3-lines-studio/lander/internal/core"
)

const MetricsNamespace = "lander"

// Prometheus implements the export metrics port.
type Prometheus struct {
	ExportsTotal          *prometheus.CounterVec
	ExportWarningsTotal   *prometheus.CounterVec
	AssetFetchSeconds     *prometheus.HistogramVec
	ExportDurationSeconds prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg, or on a fresh registry when reg is
// nil.
func New(reg *prometheus.Registry) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Prometheus{
		ExportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "exports_total",
				Help:      "Total number of exports by outcome",
			},
			[]string{"outcome"},
		),
		ExportWarningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "export_warnings_total",
				Help:      "Total number of export warnings by type",
			},
			[]string{"type"},
		),
		AssetFetchSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "asset_fetch_seconds",
				Help:      "Duration of asset retrievals in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11), // 10ms to ~10s
			},
			[]string{"result"},
		),
		ExportDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "export_duration_seconds",
				Help:      "Duration of whole exports in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
		),
		gatherer: reg,
	}
}

func (p *Prometheus) ObserveFetch(d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	p.AssetFetchSeconds.WithLabelValues(result).Observe(d.Seconds())
}

func (p *Prometheus) ObserveExport(report core.ExportReport, d time.Duration) {
	p.ExportsTotal.WithLabelValues(report.Outcome()).Inc()
	for _, w := range report.Warnings {
		p.ExportWarningsTotal.WithLabelValues(string(w.Type)).Inc()
	}
	p.ExportDurationSeconds.Observe(d.Seconds())
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
