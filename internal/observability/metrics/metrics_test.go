package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.CountSubmission("provisioned")
	m.CountSubmission("failed")
	m.CountCheckoutRegen("success")
	m.CountAuthAttempt("invalid")
	m.CountQuizSubmission("success")
	m.CountEmailVerification("valid")
	m.ObserveProvisioning("create_checkout", time.Now().Add(-10*time.Millisecond))

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		`leadforge_intake_submissions_total{stripe_status="provisioned"} 1`,
		`leadforge_intake_submissions_total{stripe_status="failed"} 1`,
		`leadforge_checkout_regenerations_total{outcome="success"} 1`,
		`leadforge_auth_attempts_total{outcome="invalid"} 1`,
		`leadforge_quiz_submissions_total{outcome="success"} 1`,
		`leadforge_email_verifications_total{result="valid"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
	if !strings.Contains(body, "leadforge_provisioning_duration_seconds_count") {
		t.Error("exposition missing provisioning histogram")
	}
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.CountSubmission("provisioned")
	m.CountCheckoutRegen("success")
	m.CountAuthAttempt("valid")
	m.CountQuizSubmission("failed")
	m.CountEmailVerification("invalid")
	m.ObserveProvisioning("create_checkout", time.Now())
}
