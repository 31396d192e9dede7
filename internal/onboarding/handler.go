package onboarding

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leadforgehq/intake-platform/internal/intake"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// Handler exposes the onboarding endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the onboarding HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// SubmitIntake handles POST /onboarding/intake.
func (h *Handler) SubmitIntake(w http.ResponseWriter, r *http.Request) {
	var sub intake.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.ProcessIntake(r.Context(), sub)
	if err != nil {
		if errors.Is(err, ErrInvalidForm) || errors.Is(err, ErrMissingIdent) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("intake submission failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "submission could not be processed")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// RegenerateCheckout handles POST /onboarding/checkout.
func (h *Handler) RegenerateCheckout(w http.ResponseWriter, r *http.Request) {
	var req intake.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.RegenerateCheckout(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrMissingIdent) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("checkout regeneration failed", "error", err)
		h.writeError(w, http.StatusBadGateway, "checkout link could not be created")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Activate handles POST /onboarding/activate.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		PortalKey string `json:"portalKey"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		h.writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	result, err := h.service.Activate(r.Context(), req.SessionID, req.PortalKey, req.Email)
	if err != nil {
		h.logger.Error("activation failed", "session_id", req.SessionID, "error", err)
		h.writeError(w, http.StatusBadGateway, "activation could not be completed")
		return
	}

	resp := ActivationResponse{Success: true}
	resp.Activation = &struct {
		Status       string `json:"status"`
		Reason       string `json:"reason,omitempty"`
		InvitationID string `json:"invitationId,omitempty"`
	}{
		Status:       result.Status,
		Reason:       result.Reason,
		InvitationID: result.InvitationID,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Prefill handles GET /onboarding/prefill. It scrapes the prospect's website
// for identity-step values.
func (h *Handler) Prefill(w http.ResponseWriter, r *http.Request) {
	website := r.URL.Query().Get("website")
	if website == "" {
		h.writeError(w, http.StatusBadRequest, "website is required")
		return
	}

	result, err := ScrapePrefill(r.Context(), website)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "could not read that website")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
