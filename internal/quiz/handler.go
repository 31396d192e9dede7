package quiz

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/leadforgehq/intake-platform/internal/intake"
	"github.com/leadforgehq/intake-platform/internal/notify"
	"github.com/leadforgehq/intake-platform/internal/observability/metrics"
	"github.com/leadforgehq/intake-platform/internal/verify"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// LeadStore persists completed quiz leads.
type LeadStore interface {
	SaveLead(ctx context.Context, lead Lead) error
}

// InMemoryLeadStore keeps leads in memory for local runs and tests.
type InMemoryLeadStore struct {
	mu    sync.Mutex
	leads []Lead
}

// NewInMemoryLeadStore creates an empty store.
func NewInMemoryLeadStore() *InMemoryLeadStore {
	return &InMemoryLeadStore{}
}

func (s *InMemoryLeadStore) SaveLead(_ context.Context, lead Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	return nil
}

// Leads returns a copy of everything stored.
func (s *InMemoryLeadStore) Leads() []Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Lead, len(s.leads))
	copy(out, s.leads)
	return out
}

// Handler exposes POST /quiz/submit.
type Handler struct {
	store    LeadStore
	verifier verify.EmailVerifier
	notifier *notify.Service
	metrics  *metrics.Metrics
	logger   *logging.Logger
}

// NewHandler creates the quiz HTTP handler. notifier may be nil.
func NewHandler(store LeadStore, verifier verify.EmailVerifier, notifier *notify.Service, m *metrics.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, verifier: verifier, notifier: notifier, metrics: m, logger: logger}
}

// Submit handles POST /quiz/submit. The notification email is fire and
// forget: its outcome never changes the response.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var lead Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := h.validate(r.Context(), &lead); msg != "" {
		h.metrics.CountQuizSubmission("rejected")
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.SaveLead(r.Context(), lead); err != nil {
		h.metrics.CountQuizSubmission("failed")
		h.logger.Error("quiz lead store failed", "business", lead.BusinessName, "error", err)
		h.writeError(w, http.StatusInternalServerError, "submission could not be saved")
		return
	}

	score := Score(lead)
	if h.notifier != nil {
		h.notifier.QuizLead(notify.QuizLeadNotification{
			BusinessName: lead.BusinessName,
			ContactName:  lead.ContactName,
			Email:        lead.Email,
			Phone:        lead.Phone,
			Website:      lead.Website,
			City:         lead.City,
			State:        lead.State,
			Score:        score,
		})
	}

	h.metrics.CountQuizSubmission("success")
	h.logger.Info("quiz lead captured", "business", lead.BusinessName, "score", score)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "score": score})
}

// validate re-checks the funnel gates server side. Returns a message on the
// first failure.
func (h *Handler) validate(ctx context.Context, lead *Lead) string {
	if lead.BusinessName == "" {
		return "businessName is required"
	}
	if lead.ContactName == "" {
		return "contactName is required"
	}
	if !intake.PlausiblePhone(lead.Phone) {
		return "phone must have at least 10 digits"
	}
	if h.verifier == nil {
		if !intake.ValidEmail(lead.Email) {
			return "email is invalid"
		}
		return ""
	}
	result, err := h.verifier.VerifyEmail(ctx, lead.Email)
	if err != nil {
		// The funnel already verified on the client; a down collaborator must
		// not lose the lead.
		h.logger.Warn("quiz email re-verification unavailable", "error", err)
		if !intake.ValidEmail(lead.Email) {
			return "email is invalid"
		}
		return ""
	}
	if !result.Valid {
		return "email could not be verified"
	}
	return ""
}

// Score is a coarse lead-quality signal: how much of the quiz the prospect
// answered, scaled to 0..100.
func Score(lead Lead) int {
	answered := 0
	for _, v := range lead.Answers {
		if v != "" {
			answered++
		}
	}
	base := 40
	if lead.Website != "" {
		base += 10
	}
	if lead.PlaceID != "" {
		base += 10
	}
	score := base + answered*8
	if score > 100 {
		score = 100
	}
	return score
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
