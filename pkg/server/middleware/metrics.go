package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	httputil "github.com/harriteja/reqguard/pkg/server/transport/http"
)

// MetricsConfig represents configuration for the metrics middleware
type MetricsConfig struct {
	// Registry is the Prometheus registry to use
	Registry prometheus.Registerer

	// Namespace prefixes the metric names
	Namespace string
	// Subsystem is the metrics subsystem name
	Subsystem string

	// ExcludePaths are paths to exclude from metrics
	ExcludePaths []string
}

type metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestSize      *prometheus.HistogramVec
	responseSize     *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

func newMetrics(namespace, subsystem string) *metrics {
	m := &metrics{}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.requestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   []float64{16, 32, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65536},
		},
		[]string{"method", "route"},
	)

	m.responseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   []float64{16, 32, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65536},
		},
		[]string{"method", "route"},
	)

	m.requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_in_flight",
			Help:      "Current number of requests being served",
		},
	)

	return m
}

func (m *metrics) register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}

	var err error
	if m.requestsTotal, err = registerCollector(reg, m.requestsTotal); err != nil {
		return err
	}
	if m.requestDuration, err = registerCollector(reg, m.requestDuration); err != nil {
		return err
	}
	if m.requestSize, err = registerCollector(reg, m.requestSize); err != nil {
		return err
	}
	if m.responseSize, err = registerCollector(reg, m.responseSize); err != nil {
		return err
	}
	if m.requestsInFlight, err = registerCollector(reg, m.requestsInFlight); err != nil {
		return err
	}
	return nil
}

// registerCollector registers c, handing back the collector that is already
// registered under the same descriptor when there is one
func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "failed to register HTTP metrics")
	}
	return c, nil
}

// routeLabel prefers the chi route pattern so that path parameters do not
// explode label cardinality
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// MetricsMiddleware records request counts, latency and sizes. It returns an
// error when the collectors cannot be registered.
func MetricsMiddleware(config MetricsConfig) (Middleware, error) {
	m := newMetrics(config.Namespace, config.Subsystem)
	if err := m.register(config.Registry); err != nil {
		return nil, err
	}

	excludePaths := make(map[string]bool)
	for _, path := range config.ExcludePaths {
		excludePaths[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if excludePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// a chi router further in fills a route context it finds already present,
			// which lets the pattern be read back here
			if chi.RouteContext(r.Context()) == nil {
				r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, chi.NewRouteContext()))
			}

			m.requestsInFlight.Inc()
			defer m.requestsInFlight.Dec()

			rw := httputil.NewResponseWriter(w)
			start := time.Now()
			next.ServeHTTP(rw, r)
			duration := time.Since(start).Seconds()

			route := routeLabel(r)
			if r.ContentLength > 0 {
				m.requestSize.WithLabelValues(r.Method, route).Observe(float64(r.ContentLength))
			}
			m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.Status())).Inc()
			m.requestDuration.WithLabelValues(r.Method, route).Observe(duration)
			if bytesWritten := rw.BytesWritten(); bytesWritten > 0 {
				m.responseSize.WithLabelValues(r.Method, route).Observe(float64(bytesWritten))
			}
		})
	}, nil
}
