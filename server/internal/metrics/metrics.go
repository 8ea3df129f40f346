// Package metrics owns the Prometheus registry for the server: upstream call
// outcomes and latency, cache hit ratios, and HTTP request counts. All
// Observe methods are safe on a nil *Metrics so components can run without
// instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Upstream call outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// New builds a registry with the taoscope collectors plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taoscope",
			Name:      "upstream_requests_total",
			Help:      "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taoscope",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"source"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taoscope",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by key family and result.",
		}, []string{"key", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taoscope",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}
	m.reg.MustRegister(
		m.upstreamRequests,
		m.upstreamLatency,
		m.cacheLookups,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveUpstream records one upstream fetch. Skipped calls carry no latency.
func (m *Metrics) ObserveUpstream(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(source, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.upstreamLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// ObserveCache records a cache lookup for the given key family.
func (m *Metrics) ObserveCache(key string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(key, result).Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// UpstreamCount is the running success/failure tally for one source.
type UpstreamCount struct {
	OK     uint64 `json:"ok"`
	Failed uint64 `json:"failed"`
}

// UpstreamCounts gathers the registry and folds upstream_requests_total into
// per-source tallies. Skipped calls are not counted as failures.
func (m *Metrics) UpstreamCounts() (map[string]UpstreamCount, error) {
	out := make(map[string]UpstreamCount)
	if m == nil {
		return out, nil
	}
	mfs, err := m.reg.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range mfs {
		if mf.GetName() != "taoscope_upstream_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			source, outcome := labels(metric)
			c := out[source]
			n := uint64(metric.GetCounter().GetValue())
			switch outcome {
			case OutcomeOK:
				c.OK += n
			case OutcomeError:
				c.Failed += n
			}
			out[source] = c
		}
	}
	return out, nil
}

func labels(m *dto.Metric) (source, outcome string) {
	for _, lp := range m.GetLabel() {
		switch lp.GetName() {
		case "source":
			source = lp.GetValue()
		case "outcome":
			outcome = lp.GetValue()
		}
	}
	return source, outcome
}
