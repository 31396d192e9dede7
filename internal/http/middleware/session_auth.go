package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/leadforgehq/intake-platform/internal/auth"
)

type contextKey string

const sessionKey contextKey = "intakeSession"

// TokenVerifier re-validates bearer tokens. Satisfied by *auth.Gate.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Session, error)
}

// SessionAuth guards the onboarding endpoints with the intake bearer token.
func SessionAuth(gate TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "missing authorization header")
				return
			}
			token := strings.TrimPrefix(header, "Bearer ")

			session, err := gate.VerifyToken(r.Context(), token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession stores the session on the context.
func WithSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the authenticated session if present.
func SessionFromContext(ctx context.Context) (*auth.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*auth.Session)
	return session, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":"` + msg + `"}`))
}
