package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leadforgehq/intake-platform/internal/intake"
	"github.com/leadforgehq/intake-platform/internal/notify"
	"github.com/leadforgehq/intake-platform/internal/observability/metrics"
	"github.com/leadforgehq/intake-platform/internal/provisioning"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// CheckoutProvider creates billing checkout sessions. Satisfied by
// provisioning.StripeCheckoutService.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, params provisioning.CheckoutParams) (*provisioning.CheckoutSession, error)
}

// Activator finalizes account activation after a paid checkout.
type Activator interface {
	Configured() bool
	Finalize(ctx context.Context, sessionID, portalKey, email string) (*provisioning.ActivationResult, error)
}

// Service handles intake submissions: validation, persistence, and billing
// provisioning. A failed or skipped provisioning never fails the submission;
// the outcome is reported in the response instead.
type Service struct {
	repo       Repository
	checkout   CheckoutProvider
	activation Activator
	notifier   *notify.Service
	metrics    *metrics.Metrics
	logger     *logging.Logger
	now        func() time.Time

	defaultThreshold      int
	defaultUnitPriceCents int
}

// NewService creates the onboarding service. checkout may be nil when billing
// is not configured; provisioning is then reported as skipped.
func NewService(repo Repository, checkout CheckoutProvider, activation Activator, m *metrics.Metrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:       repo,
		checkout:   checkout,
		activation: activation,
		metrics:    m,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },

		defaultThreshold:      intake.DefaultChargeThreshold,
		defaultUnitPriceCents: intake.DefaultUnitPriceDollars * 100,
	}
}

// WithClock overrides the service clock (for testing).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithNotifier enables team notifications on completed intakes.
func (s *Service) WithNotifier(n *notify.Service) *Service {
	s.notifier = n
	return s
}

// WithBillingDefaults overrides the fallback charge threshold and per-lead
// unit price applied when a checkout regeneration omits them. Non-positive
// values keep the built-in defaults.
func (s *Service) WithBillingDefaults(threshold, unitPriceCents int) *Service {
	if threshold > 0 {
		s.defaultThreshold = threshold
	}
	if unitPriceCents > 0 {
		s.defaultUnitPriceCents = unitPriceCents
	}
	return s
}

// ProcessIntake validates and persists a submission, then provisions the
// initial checkout. Validation failures return ErrInvalidForm wrapped with the
// offending fields.
func (s *Service) ProcessIntake(ctx context.Context, sub intake.Submission) (*SubmitResponse, error) {
	if fieldErrs := validateSubmission(sub); len(fieldErrs) > 0 {
		fields := make([]string, 0, len(fieldErrs))
		for f := range fieldErrs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		return nil, fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(fields, ", "))
	}

	portalKey, err := s.reservePortalKey(ctx, sub.CompanyName)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("onboarding: marshal payload: %w", err)
	}

	now := s.now()
	record := &Submission{
		ID:                  uuid.New().String(),
		PortalKey:           portalKey,
		CompanyName:         sub.CompanyName,
		BillingEmail:        sub.BillingContactEmail,
		BillingName:         sub.BillingContactName,
		BillingModel:        sub.BillingModel,
		LeadChargeThreshold: sub.LeadChargeThreshold,
		LeadUnitPriceCents:  sub.LeadUnitPriceCents,
		Payload:             payload,
		StripeStatus:        intake.StripeSkipped,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("onboarding: persist submission: %w", err)
	}

	prov := s.provision(ctx, record)
	s.metrics.CountSubmission(prov.Status)
	if s.notifier != nil {
		var checkoutURL string
		if prov.Details != nil {
			checkoutURL = prov.Details.InitialCheckoutURL
		}
		s.notifier.IntakeSubmitted(notify.IntakeNotification{
			PortalKey:    portalKey,
			CompanyName:  sub.CompanyName,
			BillingEmail: sub.BillingContactEmail,
			BillingModel: sub.BillingModel,
			StripeStatus: prov.Status,
			CheckoutURL:  checkoutURL,
		})
	}
	s.logger.Info("intake submission processed",
		"portal_key", portalKey,
		"company", sub.CompanyName,
		"stripe_status", prov.Status)

	return &SubmitResponse{
		Success:            true,
		PortalKey:          portalKey,
		StripeProvisioning: prov,
	}, nil
}

// RegenerateCheckout creates a fresh checkout link for an existing or
// in-progress submission. The request carries everything needed, so a client
// whose original submission predates this server still gets a link.
func (s *Service) RegenerateCheckout(ctx context.Context, req intake.CheckoutRequest) (*CheckoutResponse, error) {
	if strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.BillingEmail) == "" {
		s.metrics.CountCheckoutRegen("rejected")
		return nil, ErrMissingIdent
	}

	threshold := req.LeadChargeThreshold
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}
	unitPrice := req.LeadUnitPriceCents
	if unitPrice <= 0 {
		unitPrice = s.defaultUnitPriceCents
	}
	portalKey := req.PortalKey
	if portalKey == "" {
		portalKey = PortalKey(req.CompanyName)
	}

	start := s.now()
	session, err := s.createCheckout(ctx, provisioning.CheckoutParams{
		PortalKey:       portalKey,
		CompanyName:     req.CompanyName,
		BillingEmail:    req.BillingEmail,
		BillingName:     req.BillingName,
		BillingModel:    req.BillingModel,
		ChargeThreshold: threshold,
		UnitPriceCents:  unitPrice,
	})
	s.metrics.ObserveProvisioning("regenerate_checkout", start)
	if err != nil {
		s.metrics.CountCheckoutRegen("failed")
		s.logger.Error("checkout regeneration failed", "portal_key", portalKey, "error", err)
		return nil, err
	}

	// Best effort: an existing record gets the fresh link, an unknown portal
	// key is fine since the submission may not have been persisted here.
	if err := s.repo.UpdateProvisioning(ctx, portalKey, intake.StripeProvisioned, session.URL); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("could not record regenerated checkout", "portal_key", portalKey, "error", err)
	}

	s.metrics.CountCheckoutRegen("success")
	return &CheckoutResponse{
		Success:                    true,
		InitialCheckoutURL:         session.URL,
		InitialCheckoutAmountCents: session.AmountCents,
	}, nil
}

// Activate finalizes account activation after the payment redirect.
func (s *Service) Activate(ctx context.Context, sessionID, portalKey, email string) (*provisioning.ActivationResult, error) {
	if s.activation == nil || !s.activation.Configured() {
		return &provisioning.ActivationResult{
			Status: provisioning.ActivationPending,
			Reason: "activation collaborator not configured",
		}, nil
	}
	result, err := s.activation.Finalize(ctx, sessionID, portalKey, email)
	if err != nil {
		return nil, err
	}
	if portalKey != "" {
		if err := s.repo.UpdateActivation(ctx, portalKey, result.Status); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("could not record activation", "portal_key", portalKey, "error", err)
		}
	}
	return result, nil
}

// provision creates the initial checkout for a freshly stored submission and
// records the outcome on the record.
func (s *Service) provision(ctx context.Context, record *Submission) *StripeProvisioning {
	if s.checkout == nil {
		return &StripeProvisioning{
			Status: intake.StripeSkipped,
			Reason: "billing not configured",
		}
	}

	start := s.now()
	session, err := s.checkout.CreateCheckout(ctx, provisioning.CheckoutParams{
		PortalKey:       record.PortalKey,
		CompanyName:     record.CompanyName,
		BillingEmail:    record.BillingEmail,
		BillingName:     record.BillingName,
		BillingModel:    record.BillingModel,
		ChargeThreshold: record.LeadChargeThreshold,
		UnitPriceCents:  record.LeadUnitPriceCents,
	})
	s.metrics.ObserveProvisioning("create_checkout", start)
	if err != nil {
		s.logger.Error("checkout provisioning failed",
			"portal_key", record.PortalKey, "error", err)
		if uerr := s.repo.UpdateProvisioning(ctx, record.PortalKey, intake.StripeFailed, ""); uerr != nil {
			s.logger.Warn("could not record provisioning failure", "portal_key", record.PortalKey, "error", uerr)
		}
		return &StripeProvisioning{
			Status: intake.StripeFailed,
			Error:  err.Error(),
		}
	}

	if err := s.repo.UpdateProvisioning(ctx, record.PortalKey, intake.StripeProvisioned, session.URL); err != nil {
		s.logger.Warn("could not record provisioning success", "portal_key", record.PortalKey, "error", err)
	}
	return &StripeProvisioning{
		Status: intake.StripeProvisioned,
		Details: &StripeProvisioningDetails{
			InitialCheckoutURL:         session.URL,
			InitialCheckoutAmountCents: session.AmountCents,
		},
	}
}

// createCheckout guards the nil-checkout case for regeneration calls.
func (s *Service) createCheckout(ctx context.Context, params provisioning.CheckoutParams) (*provisioning.CheckoutSession, error) {
	if s.checkout == nil {
		return nil, fmt.Errorf("onboarding: billing not configured")
	}
	return s.checkout.CreateCheckout(ctx, params)
}

// reservePortalKey derives the slug and disambiguates collisions with a short
// random suffix.
func (s *Service) reservePortalKey(ctx context.Context, companyName string) (string, error) {
	key := PortalKey(companyName)
	if key == "" {
		return "", ErrMissingIdent
	}
	_, err := s.repo.GetByPortalKey(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return key, nil
	}
	if err != nil {
		return "", fmt.Errorf("onboarding: portal key lookup: %w", err)
	}
	return key + "-" + uuid.New().String()[:4], nil
}
