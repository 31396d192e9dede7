package drafts

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	httpmiddleware "github.com/leadforgehq/intake-platform/internal/http/middleware"
	"github.com/leadforgehq/intake-platform/internal/intake"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

const maxDraftBodyBytes = 1 << 20

// Store hands out per-session draft and snapshot views.
type Store interface {
	Drafts(scope string) intake.DraftStore
	Snapshots(scope string) intake.SnapshotStore
}

// RedisStore is the Redis-backed Store used in deployed environments.
type RedisStore struct {
	rdb    *redis.Client
	logger *logging.Logger
}

// NewRedisStore creates a Store over the given Redis client.
func NewRedisStore(rdb *redis.Client, logger *logging.Logger) *RedisStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{rdb: rdb, logger: logger}
}

// Drafts returns a draft store view scoped to one session subject.
func (s *RedisStore) Drafts(scope string) intake.DraftStore {
	return NewRedisDraftStore(s.rdb, scope, s.logger)
}

// Snapshots returns a snapshot store view scoped to one session subject.
func (s *RedisStore) Snapshots(scope string) intake.SnapshotStore {
	return NewRedisSnapshotStore(s.rdb, scope, s.logger)
}

// Handler serves wizard draft rehydration and persistence. All routes sit
// behind the session auth middleware; the session subject scopes the keys.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a draft persistence handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

type stateResponse struct {
	Draft          *intake.Draft    `json:"draft"`
	LastSubmission *intake.Snapshot `json:"lastSubmission"`
}

// GetState handles GET /onboarding/draft. It returns the persisted draft and
// the last submission snapshot for the session, either of which may be null.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	resp := stateResponse{
		Draft:          h.store.Drafts(scope).Load(r.Context()),
		LastSubmission: h.store.Snapshots(scope).Load(r.Context()),
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// SaveDraft handles PUT /onboarding/draft. The body is the draft record;
// anything that fails the draft parse is rejected rather than stored.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDraftBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	draft := ParseDraft(body)
	if draft == nil {
		h.writeError(w, http.StatusBadRequest, "invalid draft")
		return
	}
	draft.SavedAt = time.Now().UTC()
	h.store.Drafts(scope).Save(r.Context(), draft)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"savedAt": draft.SavedAt.Format(time.RFC3339),
	})
}

// ClearDraft handles DELETE /onboarding/draft. With ?snapshot=true the last
// submission snapshot is cleared as well (the "create another intake" path).
func (h *Handler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	h.store.Drafts(scope).Clear(r.Context())
	if r.URL.Query().Get("snapshot") == "true" {
		h.store.Snapshots(scope).Clear(r.Context())
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (string, bool) {
	session, ok := httpmiddleware.SessionFromContext(r.Context())
	if !ok || session.Subject == "" {
		h.writeError(w, http.StatusUnauthorized, "missing session")
		return "", false
	}
	return session.Subject, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
