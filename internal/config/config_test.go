package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.IntakeTokenTTL != 12*time.Hour {
		t.Errorf("expected default token TTL 12h, got %s", cfg.IntakeTokenTTL)
	}
	if cfg.DefaultThreshold != 10 {
		t.Errorf("expected default threshold 10, got %d", cfg.DefaultThreshold)
	}
	if cfg.DefaultUnitPriceCent != 4000 {
		t.Errorf("expected default unit price 4000 cents, got %d", cfg.DefaultUnitPriceCent)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("AUTH_RATE_PER_MINUTE", "3")
	t.Setenv("STRIPE_DRY_RUN", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example , https://b.example,")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.AuthRatePerMinute != 3 {
		t.Errorf("expected rate 3, got %d", cfg.AuthRatePerMinute)
	}
	if !cfg.StripeDryRun {
		t.Error("expected StripeDryRun true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[0] != "https://a.example" {
		t.Errorf("unexpected first origin %q", cfg.CORSAllowedOrigins[0])
	}
}

func TestLoad_PublicBaseURLFillsStripeRedirects(t *testing.T) {
	t.Setenv("PUBLIC_BASE_URL", "https://leadforge.example/")

	cfg := Load()

	if cfg.StripeSuccessURL != "https://leadforge.example/onboarding/activate?session_id={CHECKOUT_SESSION_ID}" {
		t.Errorf("unexpected success url %q", cfg.StripeSuccessURL)
	}
	if cfg.StripeCancelURL != "https://leadforge.example/onboarding" {
		t.Errorf("unexpected cancel url %q", cfg.StripeCancelURL)
	}

	// Explicit settings win over the derived values.
	t.Setenv("STRIPE_SUCCESS_URL", "https://other.example/done")
	cfg = Load()
	if cfg.StripeSuccessURL != "https://other.example/done" {
		t.Errorf("explicit success url was overridden: %q", cfg.StripeSuccessURL)
	}
}
