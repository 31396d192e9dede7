package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/leadforgehq/intake-platform/internal/api/router"
	"github.com/leadforgehq/intake-platform/internal/auth"
	appconfig "github.com/leadforgehq/intake-platform/internal/config"
	"github.com/leadforgehq/intake-platform/internal/drafts"
	"github.com/leadforgehq/intake-platform/internal/notify"
	"github.com/leadforgehq/intake-platform/internal/observability/metrics"
	"github.com/leadforgehq/intake-platform/internal/onboarding"
	"github.com/leadforgehq/intake-platform/internal/provisioning"
	"github.com/leadforgehq/intake-platform/internal/quiz"
	"github.com/leadforgehq/intake-platform/internal/verify"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

func main() {
	// Local development reads .env; in deployed environments the variables
	// come from the runtime.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting intake-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	m := metrics.New()

	// Submissions repository: Postgres when configured, in-memory otherwise.
	var repo onboarding.Repository
	if pool := connectPostgresPool(context.Background(), cfg.DatabaseURL, logger); pool != nil {
		defer pool.Close()
		repo = onboarding.NewPostgresRepository(pool)
	} else {
		logger.Warn("no DATABASE_URL configured, submissions are held in memory")
		repo = onboarding.NewInMemoryRepository()
	}

	var checkout onboarding.CheckoutProvider
	if cfg.StripeSecretKey != "" || cfg.StripeDryRun {
		checkout = provisioning.NewStripeCheckoutService(
			cfg.StripeSecretKey, cfg.StripeSuccessURL, cfg.StripeCancelURL, logger,
		).WithDryRun(cfg.StripeDryRun)
	} else {
		logger.Warn("no STRIPE_SECRET_KEY configured, checkout provisioning is skipped")
	}

	activation := provisioning.NewActivationClient(cfg.ActivationBaseURL, cfg.ActivationAPIKey, logger)

	var sender notify.EmailSender
	if cfg.SendGridAPIKey != "" {
		sender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	} else {
		logger.Warn("no SENDGRID_API_KEY configured, team notifications are logged only")
		sender = notify.NewStubEmailSender(logger)
	}
	notifier := notify.NewService(sender, cfg.LeadNotifyEmail, logger)

	// Draft persistence: Redis when configured, process-local otherwise.
	var draftStore drafts.Store
	if rdb := connectRedis(context.Background(), cfg, logger); rdb != nil {
		defer func() { _ = rdb.Close() }()
		draftStore = drafts.NewRedisStore(rdb, logger)
	} else {
		logger.Warn("no REDIS_ADDR configured, wizard drafts are held in memory")
		draftStore = drafts.NewMemoryStore()
	}

	gate := auth.NewGate(cfg.IntakePassword, cfg.IntakeJWTSecret, cfg.IntakeTokenTTL)
	onboardingSvc := onboarding.NewService(repo, checkout, activation, m, logger).
		WithNotifier(notifier).
		WithBillingDefaults(cfg.DefaultThreshold, cfg.DefaultUnitPriceCent)

	emailVerifier := verify.NewEmailClient(cfg.EmailVerifyBaseURL, cfg.EmailVerifyAPIKey, logger)
	placesClient := verify.NewPlacesClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		AuthHandler:        auth.NewHandler(gate, m, logger),
		AuthGate:           gate,
		OnboardingHandler:  onboarding.NewHandler(onboardingSvc, logger),
		DraftHandler:       drafts.NewHandler(draftStore, logger),
		VerifyHandler:      verify.NewHandler(emailVerifier, placesClient, m, logger),
		QuizHandler:        quiz.NewHandler(quiz.NewInMemoryLeadStore(), emailVerifier, notifier, m, logger),
		Metrics:            m,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRatePerMinute:  cfg.AuthRatePerMinute,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// connectRedis returns nil when no address is configured or the server is
// unreachable; the caller falls back to the in-memory store.
func connectRedis(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("could not reach redis", "error", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// connectPostgresPool returns nil when no URL is configured or the database
// is unreachable; the caller falls back to the in-memory repository.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("could not create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("could not reach postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}
