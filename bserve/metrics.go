package bserve

import (
	"net/http"
	"strconv"
	"time"

	"github.com/advdv/bfilter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors of a server. Every server has its own registry so tests and multiple
// servers in one process do not collide.
type Metrics struct {
	registry   *prometheus.Registry
	rejections *prometheus.CounterVec
	requests   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them, together with the go runtime and process collectors.
func NewMetrics(env Environment) *Metrics {
	labels := prometheus.Labels{"service": env.serviceName()}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "bfilter",
			Name:        "rejections_total",
			Help:        "Number of requests rejected by a filter, by rejection kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "bfilter",
			Name:        "request_duration_seconds",
			Help:        "Time spent serving requests, by method and outcome.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rejections,
		m.requests,
	)

	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeRejection(kind bfilter.Kind) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(kind.String()).Inc()
}

// outcome labels the result of serving a request.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case bfilter.IsRejection(err):
		return bfilter.KindOf(err).String()
	case bfilter.CodeOf(err) != bfilter.CodeUnknown:
		return strconv.Itoa(int(bfilter.CodeOf(err)))
	default:
		return "error"
	}
}

// withMetrics records how long each request took.
func withMetrics(m *Metrics) bfilter.Middleware {
	return func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			start := time.Now()
			err := next.ServeBareBHTTP(w, r)
			m.requests.WithLabelValues(r.Method, outcome(err)).Observe(time.Since(start).Seconds())

			return err
		})
	}
}
