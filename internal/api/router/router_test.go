package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforgehq/intake-platform/internal/auth"
	"github.com/leadforgehq/intake-platform/internal/drafts"
	"github.com/leadforgehq/intake-platform/internal/observability/metrics"
	"github.com/leadforgehq/intake-platform/internal/onboarding"
	"github.com/leadforgehq/intake-platform/internal/quiz"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

func newTestRouter(t *testing.T) (http.Handler, *auth.Gate) {
	t.Helper()
	logger := logging.New("error")
	gate := auth.NewGate("open-sesame", "test-secret", time.Hour)
	m := metrics.New()

	svc := onboarding.NewService(onboarding.NewInMemoryRepository(), nil, nil, m, logger)

	cfg := &Config{
		Logger:            logger,
		AuthHandler:       auth.NewHandler(gate, m, logger),
		AuthGate:          gate,
		OnboardingHandler: onboarding.NewHandler(svc, logger),
		DraftHandler:      drafts.NewHandler(drafts.NewMemoryStore(), logger),
		QuizHandler:       quiz.NewHandler(quiz.NewInMemoryLeadStore(), nil, nil, m, logger),
		Metrics:           m,
		AuthRatePerMinute: 100,
	}
	return New(cfg), gate
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOnboardingRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/onboarding/intake", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthThenOnboarding(t *testing.T) {
	r, _ := newTestRouter(t)

	// Exchange the password for a token.
	req := httptest.NewRequest(http.MethodPost, "/auth/verify", strings.NewReader(`{"password":"open-sesame"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var verify struct {
		Valid bool   `json:"valid"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verify))
	require.True(t, verify.Valid)

	// An authenticated but invalid submission reaches the handler (400, not 401).
	body := bytes.NewReader([]byte(`{"companyName":"Doe Roofing"}`))
	req = httptest.NewRequest(http.MethodPost, "/onboarding/intake", body)
	req.Header.Set("Authorization", "Bearer "+verify.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDraftRoundTrip(t *testing.T) {
	r, gate := newTestRouter(t)

	session, err := gate.VerifyPassword(t.Context(), "open-sesame")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/onboarding/draft",
		strings.NewReader(`{"step":2,"form":{"companyName":"Doe Roofing"}}`))
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/onboarding/draft", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"companyName":"Doe Roofing"`)
}

func TestQuizSubmitRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/quiz/submit", strings.NewReader(
		`{"businessName":"Doe Roofing","contactName":"Jane","phone":"5125550147","email":"jane@doeroofing.com"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}
