package verify

import (
	"encoding/json"
	"net/http"

	"github.com/leadforgehq/intake-platform/internal/observability/metrics"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// Handler exposes the verification endpoints used by the quiz funnel and the
// intake wizard's address fields.
type Handler struct {
	emails  EmailVerifier
	places  PlacesLookup
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewHandler creates the verification HTTP handler.
func NewHandler(emails EmailVerifier, places PlacesLookup, m *metrics.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{emails: emails, places: places, metrics: m, logger: logger}
}

// VerifyEmail handles POST /verify/email.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	result, err := h.emails.VerifyEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("email verification failed", "error", err)
		h.metrics.CountEmailVerification("error")
		writeError(w, http.StatusBadGateway, "verification is temporarily unavailable")
		return
	}
	if result.Valid {
		h.metrics.CountEmailVerification("valid")
	} else {
		h.metrics.CountEmailVerification("invalid")
	}
	writeJSON(w, http.StatusOK, result)
}

// Autocomplete handles GET /places/autocomplete.
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("input")
	if input == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	suggestions, err := h.places.Autocomplete(r.Context(), input)
	if err != nil {
		h.logger.Error("places autocomplete failed", "error", err)
		writeError(w, http.StatusBadGateway, "lookup is temporarily unavailable")
		return
	}
	if suggestions == nil {
		suggestions = []PlaceSuggestion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// Details handles GET /places/details.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	placeID := r.URL.Query().Get("placeId")
	if placeID == "" {
		writeError(w, http.StatusBadRequest, "placeId is required")
		return
	}

	details, err := h.places.Details(r.Context(), placeID)
	if err != nil {
		h.logger.Error("places details failed", "place_id", placeID, "error", err)
		writeError(w, http.StatusBadGateway, "lookup is temporarily unavailable")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
