package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Authentication metrics
	LoginAttempts *prometheus.CounterVec
	Lockouts      *prometheus.CounterVec
	Handoffs      *prometheus.CounterVec

	// Session store metrics
	SessionOperations *prometheus.CounterVec
	SessionLatency    *prometheus.HistogramVec

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
}

// New builds the metric set and registers it on reg. A nil registerer leaves
// the collectors unregistered, which is what tests want.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by principal kind and outcome",
		}, []string{"kind", "outcome"}),
		Lockouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "lockouts_total",
			Help:      "Accounts locked after too many failed attempts",
		}, []string{"kind"}),
		Handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "handoffs_total",
			Help:      "Cross-domain login handoffs by stage",
		}, []string{"stage"}),
		SessionOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operations_total",
			Help:      "Total number of session store operations",
		}, []string{"operation", "status"}),
		SessionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "operation_duration_seconds",
			Help:      "Duration of session store operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"operation"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
		}, []string{"method", "path", "status"}),
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.LoginAttempts,
			m.Lockouts,
			m.Handoffs,
			m.SessionOperations,
			m.SessionLatency,
			m.RequestDuration,
			m.RequestTotal,
		)
	}

	return m
}

// NewNop returns unregistered collectors.
func NewNop() *Metrics {
	return New("test", nil)
}
