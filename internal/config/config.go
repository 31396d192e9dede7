package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Intake gate: clients exchange the shared password for a bearer token.
	IntakePassword    string
	IntakeJWTSecret   string
	IntakeTokenTTL    time.Duration
	AuthRatePerMinute int

	StripeSecretKey      string
	StripeSuccessURL     string
	StripeCancelURL      string
	StripeDryRun         bool
	DefaultThreshold     int
	DefaultUnitPriceCent int

	// Clerk-style account activation.
	ActivationBaseURL string
	ActivationAPIKey  string

	// Email verification collaborator (ZeroBounce-compatible).
	EmailVerifyBaseURL string
	EmailVerifyAPIKey  string

	// Business lookup collaborator (Places-compatible).
	PlacesBaseURL string
	PlacesAPIKey  string

	// SendGrid for best-effort lead notifications.
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	LeadNotifyEmail   string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		IntakePassword:    getEnv("INTAKE_PASSWORD", ""),
		IntakeJWTSecret:   getEnv("INTAKE_JWT_SECRET", ""),
		IntakeTokenTTL:    getEnvAsDuration("INTAKE_TOKEN_TTL", 12*time.Hour),
		AuthRatePerMinute: getEnvAsInt("AUTH_RATE_PER_MINUTE", 10),

		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeSuccessURL:     getEnv("STRIPE_SUCCESS_URL", ""),
		StripeCancelURL:      getEnv("STRIPE_CANCEL_URL", ""),
		StripeDryRun:         getEnvAsBool("STRIPE_DRY_RUN", false),
		DefaultThreshold:     getEnvAsInt("DEFAULT_LEAD_CHARGE_THRESHOLD", 10),
		DefaultUnitPriceCent: getEnvAsInt("DEFAULT_LEAD_UNIT_PRICE_CENTS", 4000),

		ActivationBaseURL: getEnv("ACTIVATION_BASE_URL", ""),
		ActivationAPIKey:  getEnv("ACTIVATION_API_KEY", ""),

		EmailVerifyBaseURL: getEnv("EMAIL_VERIFY_BASE_URL", ""),
		EmailVerifyAPIKey:  getEnv("EMAIL_VERIFY_API_KEY", ""),

		PlacesBaseURL: getEnv("PLACES_BASE_URL", ""),
		PlacesAPIKey:  getEnv("PLACES_API_KEY", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "LeadForge"),
		LeadNotifyEmail:   getEnv("LEAD_NOTIFY_EMAIL", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}

	// The public base URL fills in Stripe redirect URLs unless they are set
	// explicitly.
	if cfg.PublicBaseURL != "" {
		base := strings.TrimRight(cfg.PublicBaseURL, "/")
		if cfg.StripeSuccessURL == "" {
			cfg.StripeSuccessURL = base + "/onboarding/activate?session_id={CHECKOUT_SESSION_ID}"
		}
		if cfg.StripeCancelURL == "" {
			cfg.StripeCancelURL = base + "/onboarding"
		}
	}
	return cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
