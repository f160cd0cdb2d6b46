// Package metrics exports validation outcomes to Prometheus
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harriteja/reqguard/pkg/types"
)

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
)

// RecorderOptions configures a PrometheusRecorder
type RecorderOptions struct {
	// Namespace prefixes every metric name, "reqguard" when empty
	Namespace string
	// Registerer receives the collectors, prometheus.DefaultRegisterer when nil
	Registerer prometheus.Registerer
	// Buckets for the duration histogram, prometheus.DefBuckets when nil
	Buckets []float64
}

// PrometheusRecorder implements types.OutcomeRecorder
type PrometheusRecorder struct {
	validations *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewPrometheusRecorder creates the collectors and registers them. Collectors
// that are already registered are reused, so building two recorders against
// the same registry is safe.
func NewPrometheusRecorder(opts RecorderOptions) (*PrometheusRecorder, error) {
	if opts.Namespace == "" {
		opts.Namespace = "reqguard"
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Buckets == nil {
		opts.Buckets = prometheus.DefBuckets
	}

	r := &PrometheusRecorder{
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "validations_total",
				Help:      "Number of request fields validated, by outcome",
			},
			[]string{"field", "outcome"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "validation_errors_total",
				Help:      "Number of validation messages produced",
			},
			[]string{"field"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Name:      "validation_duration_seconds",
				Help:      "Time spent validating a request field",
				Buckets:   opts.Buckets,
			},
			[]string{"field"},
		),
	}

	var err error
	if r.validations, err = register(opts.Registerer, r.validations); err != nil {
		return nil, err
	}
	if r.errors, err = register(opts.Registerer, r.errors); err != nil {
		return nil, err
	}
	if r.duration, err = register(opts.Registerer, r.duration); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "failed to register collector")
	}
	return c, nil
}

// RecordOutcome implements types.OutcomeRecorder
func (r *PrometheusRecorder) RecordOutcome(field types.Field, accepted bool, errorCount int, duration time.Duration) {
	outcome := outcomeAccepted
	if !accepted {
		outcome = outcomeRejected
	}
	r.validations.WithLabelValues(field.String(), outcome).Inc()
	if errorCount > 0 {
		r.errors.WithLabelValues(field.String()).Add(float64(errorCount))
	}
	r.duration.WithLabelValues(field.String()).Observe(duration.Seconds())
}
