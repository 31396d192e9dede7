// Package metrics exposes Prometheus instrumentation for the intake platform.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leadforge"

// Metrics holds the intake platform's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	IntakeSubmissions   *prometheus.CounterVec
	CheckoutRegens      *prometheus.CounterVec
	AuthAttempts        *prometheus.CounterVec
	QuizSubmissions     *prometheus.CounterVec
	EmailVerifications  *prometheus.CounterVec
	ProvisioningLatency *prometheus.HistogramVec
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		IntakeSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_submissions_total",
			Help:      "Client intake submissions by provisioning outcome.",
		}, []string{"stripe_status"}),
		CheckoutRegens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_regenerations_total",
			Help:      "Checkout link regeneration attempts by outcome.",
		}, []string{"outcome"}),
		AuthAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Intake password verification attempts by outcome.",
		}, []string{"outcome"}),
		QuizSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_submissions_total",
			Help:      "Marketing quiz submissions by outcome.",
		}, []string{"outcome"}),
		EmailVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_verifications_total",
			Help:      "Email verification lookups by result.",
		}, []string{"result"}),
		ProvisioningLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provisioning_duration_seconds",
			Help:      "Latency of billing provisioning calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status class.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.IntakeSubmissions,
		m.CheckoutRegens,
		m.AuthAttempts,
		m.QuizSubmissions,
		m.EmailVerifications,
		m.ProvisioningLatency,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveProvisioning records one provisioning call's duration.
func (m *Metrics) ObserveProvisioning(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.ProvisioningLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// CountSubmission records an intake submission outcome. Nil-safe so callers
// can run without metrics wired.
func (m *Metrics) CountSubmission(stripeStatus string) {
	if m == nil {
		return
	}
	m.IntakeSubmissions.WithLabelValues(stripeStatus).Inc()
}

// CountCheckoutRegen records a checkout regeneration outcome.
func (m *Metrics) CountCheckoutRegen(outcome string) {
	if m == nil {
		return
	}
	m.CheckoutRegens.WithLabelValues(outcome).Inc()
}

// CountAuthAttempt records a password verification outcome.
func (m *Metrics) CountAuthAttempt(outcome string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(outcome).Inc()
}

// CountQuizSubmission records a quiz submission outcome.
func (m *Metrics) CountQuizSubmission(outcome string) {
	if m == nil {
		return
	}
	m.QuizSubmissions.WithLabelValues(outcome).Inc()
}

// CountEmailVerification records one verification lookup result.
func (m *Metrics) CountEmailVerification(result string) {
	if m == nil {
		return
	}
	m.EmailVerifications.WithLabelValues(result).Inc()
}
