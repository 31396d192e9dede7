package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leadforgehq/intake-platform/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	mw := CORS([]string{"https://leadforge.io"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://leadforge.io")
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://leadforge.io" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
}

func TestCORSIgnoresUnlistedOrigin(t *testing.T) {
	mw := CORS([]string{"https://leadforge.io"})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	mw := CORS([]string{"*"})
	req := httptest.NewRequest(http.MethodOptions, "/onboarding/intake", nil)
	req.Header.Set("Origin", "https://leadforge.io")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	mw(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	mw := RateLimit(0.001, 2)
	handler := mw(okHandler())

	statuses := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/verify", nil)
		req.Header.Set("X-Real-Ip", "10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("first requests should pass, got %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %v", statuses)
	}

	// A different IP has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/auth/verify", nil)
	req.Header.Set("X-Real-Ip", "10.0.0.2")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other IP should not be limited, got %d", rec.Code)
	}
}

func TestSessionAuth(t *testing.T) {
	gate := auth.NewGate("open-sesame", "test-secret", time.Hour)
	session, err := gate.VerifyPassword(context.Background(), "open-sesame")
	if err != nil {
		t.Fatalf("mint session: %v", err)
	}

	var gotSession bool
	handler := SessionAuth(gate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, gotSession = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/onboarding/intake", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}
	if !gotSession {
		t.Fatal("session missing from request context")
	}

	for name, header := range map[string]string{
		"missing": "",
		"badform": "Token abc",
		"invalid": "Bearer not-a-jwt",
	} {
		req := httptest.NewRequest(http.MethodPost, "/onboarding/intake", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("case %s: expected 401, got %d", name, rec.Code)
		}
	}
}
