package app

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"scramgen/cmd/internal/provision"
	"scramgen/cmd/security/scram"
)

// Metrics holds the per-invocation Prometheus registry.
// A private registry keeps the core free of process-wide state.
type Metrics struct {
	reg *prometheus.Registry

	derivations *prometheus.CounterVec
	duration    prometheus.Histogram
	applied     *prometheus.CounterVec
	lastRun     prometheus.Gauge
}

// NewMetrics registers the scramgen collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		derivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scramgen_derivations_total",
			Help: "SCRAM-SHA-256 verifier derivations by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scramgen_derivation_seconds",
			Help:    "Wall time of successful derivations.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scramgen_roles_applied_total",
			Help: "Verifiers installed on database roles by result.",
		}, []string{"result"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scramgen_last_run_timestamp_seconds",
			Help: "Unix time the last scramgen invocation finished.",
		}),
	}

	m.reg.MustRegister(m.derivations, m.duration, m.applied, m.lastRun)
	return m
}

// ObserveDerivation implements scram.Observer.
func (m *Metrics) ObserveDerivation(err error, elapsed time.Duration) {
	m.derivations.WithLabelValues(derivationResult(err)).Inc()
	if err == nil {
		m.duration.Observe(elapsed.Seconds())
	}
}

// ObserveApply records n installed roles and, if err != nil, one failure.
func (m *Metrics) ObserveApply(n int, err error) {
	m.applied.WithLabelValues("ok").Add(float64(n))
	if err != nil {
		m.applied.WithLabelValues(applyResult(err)).Inc()
	}
}

// WriteTextfile stamps the run time and writes all metrics to path atomically.
func (m *Metrics) WriteTextfile(path string, now time.Time) error {
	m.lastRun.Set(float64(now.Unix()))
	return prometheus.WriteToTextfile(path, m.reg)
}

// Registry exposes the underlying registry (tests, embedding).
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func derivationResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, scram.ErrRandom):
		return "random_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, scram.ErrEmptyPassword),
		errors.Is(err, scram.ErrPasswordTooShort),
		errors.Is(err, scram.ErrPasswordTooLong),
		errors.Is(err, scram.ErrWeakPassword),
		errors.Is(err, scram.ErrPasswordContainsRole):
		return "rejected"
	default:
		return "error"
	}
}

func applyResult(err error) string {
	switch {
	case provision.IsRoleNotFound(err):
		return "role_not_found"
	case provision.IsPermissionDenied(err):
		return "permission_denied"
	case provision.IsInvalidInput(err):
		return "invalid_input"
	default:
		return "error"
	}
}
