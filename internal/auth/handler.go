package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/leadforgehq/intake-platform/internal/observability/metrics"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// VerifyResponse is the wire response for POST /auth/verify.
type VerifyResponse struct {
	Valid     bool   `json:"valid"`
	Token     string `json:"token,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Handler exposes the intake auth endpoint.
type Handler struct {
	gate    *Gate
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewHandler creates the auth HTTP handler.
func NewHandler(gate *Gate, m *metrics.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{gate: gate, metrics: m, logger: logger}
}

// Verify handles POST /auth/verify. A password mints a fresh session token; a
// token re-validates a prior session. Invalid credentials are 401, a missing
// configuration is 503.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
		Token    string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" && req.Token == "" {
		h.writeError(w, http.StatusBadRequest, "password or token is required")
		return
	}

	var (
		session *Session
		err     error
	)
	if req.Password != "" {
		session, err = h.gate.VerifyPassword(r.Context(), req.Password)
	} else {
		session, err = h.gate.VerifyToken(r.Context(), req.Token)
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.metrics.CountAuthAttempt("invalid")
		h.writeJSON(w, http.StatusUnauthorized, VerifyResponse{Valid: false, Error: "Incorrect password"})
		return
	case errors.Is(err, ErrDisabled):
		h.metrics.CountAuthAttempt("disabled")
		h.writeJSON(w, http.StatusServiceUnavailable, VerifyResponse{Valid: false, Error: "Intake access is not configured"})
		return
	case err != nil:
		h.metrics.CountAuthAttempt("error")
		h.logger.Error("auth verification failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	h.metrics.CountAuthAttempt("valid")
	h.writeJSON(w, http.StatusOK, VerifyResponse{
		Valid:     true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, VerifyResponse{Valid: false, Error: msg})
}
