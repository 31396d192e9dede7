// Package router assembles the HTTP surface of the intake platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leadforgehq/intake-platform/internal/auth"
	"github.com/leadforgehq/intake-platform/internal/drafts"
	httpmiddleware "github.com/leadforgehq/intake-platform/internal/http/middleware"
	"github.com/leadforgehq/intake-platform/internal/observability/metrics"
	"github.com/leadforgehq/intake-platform/internal/onboarding"
	"github.com/leadforgehq/intake-platform/internal/quiz"
	"github.com/leadforgehq/intake-platform/internal/verify"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger            *logging.Logger
	AuthHandler       *auth.Handler
	AuthGate          *auth.Gate
	OnboardingHandler *onboarding.Handler
	DraftHandler      *drafts.Handler
	VerifyHandler     *verify.Handler
	QuizHandler       *quiz.Handler
	Metrics           *metrics.Metrics

	CORSAllowedOrigins []string
	AuthRatePerMinute  int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.Metrics))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.Metrics != nil {
			public.Handle("/metrics", cfg.Metrics.Handler())
		}

		if cfg.AuthHandler != nil {
			ratePerMinute := cfg.AuthRatePerMinute
			if ratePerMinute <= 0 {
				ratePerMinute = 10
			}
			public.With(httpmiddleware.RateLimit(float64(ratePerMinute)/60, ratePerMinute)).
				Post("/auth/verify", cfg.AuthHandler.Verify)
		}

		if cfg.VerifyHandler != nil {
			public.Post("/verify/email", cfg.VerifyHandler.VerifyEmail)
			public.Get("/places/autocomplete", cfg.VerifyHandler.Autocomplete)
			public.Get("/places/details", cfg.VerifyHandler.Details)
		}

		if cfg.QuizHandler != nil {
			public.Post("/quiz/submit", cfg.QuizHandler.Submit)
		}
	})

	// Onboarding endpoints require an intake session token.
	if cfg.OnboardingHandler != nil || cfg.DraftHandler != nil {
		r.Group(func(guarded chi.Router) {
			if cfg.AuthGate != nil {
				guarded.Use(httpmiddleware.SessionAuth(cfg.AuthGate))
			}
			if cfg.OnboardingHandler != nil {
				guarded.Get("/onboarding/prefill", cfg.OnboardingHandler.Prefill)
				guarded.Post("/onboarding/intake", cfg.OnboardingHandler.SubmitIntake)
				guarded.Post("/onboarding/checkout", cfg.OnboardingHandler.RegenerateCheckout)
				guarded.Post("/onboarding/activate", cfg.OnboardingHandler.Activate)
			}
			if cfg.DraftHandler != nil {
				guarded.Get("/onboarding/draft", cfg.DraftHandler.GetState)
				guarded.Put("/onboarding/draft", cfg.DraftHandler.SaveDraft)
				guarded.Delete("/onboarding/draft", cfg.DraftHandler.ClearDraft)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
