package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials covers a wrong password or an unparseable token.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrDisabled is returned when no intake password is configured.
	ErrDisabled = errors.New("auth: intake access is not configured")
)

// Session is the explicit auth value injected into every guarded collaborator
// call. Callers check Valid before any network attempt.
type Session struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}

// Valid reports whether the session can authenticate a call at time now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.Token != "" && now.Before(s.ExpiresAt)
}

// Gate exchanges the shared intake password for a bearer session and
// re-validates previously issued tokens.
type Gate struct {
	password string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewGate creates an auth gate. A zero ttl defaults to 12 hours.
func NewGate(password, secret string, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Gate{
		password: password,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the gate's clock (for tests).
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// VerifyPassword checks the shared password and mints a session token.
func (g *Gate) VerifyPassword(ctx context.Context, password string) (*Session, error) {
	if g.password == "" || len(g.secret) == 0 {
		return nil, ErrDisabled
	}
	if password != g.password {
		return nil, ErrInvalidCredentials
	}

	now := g.now()
	expires := now.Add(g.ttl)
	subject := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		Issuer:    "leadforge-intake",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Subject: subject, ExpiresAt: expires}, nil
}

// VerifyToken re-validates a previously issued bearer token.
func (g *Gate) VerifyToken(ctx context.Context, tokenString string) (*Session, error) {
	if len(g.secret) == 0 {
		return nil, ErrDisabled
	}
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return g.secret, nil
	}, jwt.WithTimeFunc(g.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	expires := g.now().Add(g.ttl)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return &Session{Token: tokenString, Subject: claims.Subject, ExpiresAt: expires}, nil
}
