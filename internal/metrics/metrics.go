// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package metrics exposes service counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collaborator labels for CollaboratorFailures.
const (
	CollaboratorOracle   = "oracle"
	CollaboratorNotifier = "notifier"
	CollaboratorStore    = "store"
	CollaboratorRelay    = "relay"
	CollaboratorAccount  = "account"
)

// Metrics holds all counters on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Registrations        prometheus.Counter
	MonitorScanned       prometheus.Counter
	ClaimsIssued         prometheus.Counter
	Notifications        *prometheus.CounterVec
	CollaboratorFailures *prometheus.CounterVec
	MonitorPassDuration  prometheus.Histogram
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "nominee_registrations_total",
			Help: "Total number of nominee registrations, including re-registrations",
		}),
		MonitorScanned: f.NewCounter(prometheus.CounterOpts{
			Name: "nominee_monitor_scanned_total",
			Help: "Total number of nominees examined by inactivity passes",
		}),
		ClaimsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "nominee_claims_issued_total",
			Help: "Total number of claim tokens issued",
		}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nominee_notifications_total",
			Help: "Claim notifications by result",
		}, []string{"result"}),
		CollaboratorFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nominee_collaborator_failures_total",
			Help: "Failed calls to external collaborators",
		}, []string{"collaborator"}),
		MonitorPassDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nominee_monitor_pass_duration_seconds",
			Help:    "Duration of inactivity passes",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300},
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// IncRegistration records a successful registration.
func (m *Metrics) IncRegistration() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

// AddScanned records nominees examined by a pass.
func (m *Metrics) AddScanned(n int) {
	if m == nil {
		return
	}
	m.MonitorScanned.Add(float64(n))
}

// IncClaimIssued records a newly issued claim token.
func (m *Metrics) IncClaimIssued() {
	if m == nil {
		return
	}
	m.ClaimsIssued.Inc()
}

// IncNotification records a notification attempt; result is "sent" or "failed".
func (m *Metrics) IncNotification(result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(result).Inc()
}

// IncCollaboratorFailure records a failed collaborator call.
func (m *Metrics) IncCollaboratorFailure(collaborator string) {
	if m == nil {
		return
	}
	m.CollaboratorFailures.WithLabelValues(collaborator).Inc()
}

// ObservePass records the duration of an inactivity pass.
// Call with time.Now() at the start of the pass.
func (m *Metrics) ObservePass(start time.Time) {
	if m == nil {
		return
	}
	m.MonitorPassDuration.Observe(time.Since(start).Seconds())
}
