package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry         *prom.Registry
	buildDuration    prom.Histogram
	stageDuration    *prom.HistogramVec
	buildOutcome     *prom.CounterVec
	pagesRendered    prom.Counter
	pagesInvalidated prom.Counter
	pagesTotal       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg,
// creating a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "sitegen",
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "sitegen",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sitegen",
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.pagesRendered = prom.NewCounter(prom.CounterOpts{
		Namespace: "sitegen",
		Name:      "pages_rendered_total",
		Help:      "Pages rendered across all builds",
	})
	pr.pagesInvalidated = prom.NewCounter(prom.CounterOpts{
		Namespace: "sitegen",
		Name:      "pages_invalidated_total",
		Help:      "Pages invalidated by incremental change classification",
	})
	pr.pagesTotal = prom.NewGauge(prom.GaugeOpts{
		Namespace: "sitegen",
		Name:      "pages_total",
		Help:      "Pages in the most recent collection index",
	})
	reg.MustRegister(pr.buildDuration, pr.stageDuration, pr.buildOutcome,
		pr.pagesRendered, pr.pagesInvalidated, pr.pagesTotal)
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Add(float64(n))
}

func (p *PrometheusRecorder) AddPagesInvalidated(n int) {
	if p == nil || p.pagesInvalidated == nil {
		return
	}
	p.pagesInvalidated.Add(float64(n))
}

func (p *PrometheusRecorder) SetPagesTotal(n int) {
	if p == nil || p.pagesTotal == nil {
		return
	}
	p.pagesTotal.Set(float64(n))
}

// HTTPHandler serves the recorder's registry, for mounting at /metrics on
// the watch server.
func (p *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
