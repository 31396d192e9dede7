package provisioning

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leadforgehq/intake-platform/pkg/logging"
)

var stripeTracer = otel.Tracer("leadforge.internal.provisioning.stripe")

// CheckoutParams describes the initial lead-package checkout for a client.
// The charged amount is the charge threshold times the per-lead unit price.
type CheckoutParams struct {
	PortalKey       string
	CompanyName     string
	BillingEmail    string
	BillingName     string
	BillingModel    string
	ChargeThreshold int
	UnitPriceCents  int
	SuccessURL      string
	CancelURL       string
}

// AmountCents is the total for the initial checkout.
func (p CheckoutParams) AmountCents() int {
	return p.ChargeThreshold * p.UnitPriceCents
}

// CheckoutSession is the created Stripe Checkout Session.
type CheckoutSession struct {
	ID          string
	URL         string
	AmountCents int
}

// StripeCheckoutService creates Stripe Checkout Sessions for client intake
// billing. It speaks the Stripe REST API directly.
type StripeCheckoutService struct {
	secretKey  string
	successURL string
	cancelURL  string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *logging.Logger
	dryRun     bool
}

// NewStripeCheckoutService creates a new Stripe checkout service.
func NewStripeCheckoutService(secretKey, successURL, cancelURL string, logger *logging.Logger) *StripeCheckoutService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StripeCheckoutService{
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
		baseURL:    "https://api.stripe.com",
		apiVersion: "2024-12-18.acacia",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (s *StripeCheckoutService) WithBaseURL(baseURL string) *StripeCheckoutService {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

// WithDryRun enables dry-run mode (returns fake URLs without calling Stripe).
func (s *StripeCheckoutService) WithDryRun(enabled bool) *StripeCheckoutService {
	s.dryRun = enabled
	return s
}

// CreateCheckout creates a Checkout Session for the client's initial lead
// package.
func (s *StripeCheckoutService) CreateCheckout(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_checkout_session",
		trace.WithAttributes(
			attribute.String("leadforge.portal_key", params.PortalKey),
			attribute.Int("leadforge.amount_cents", params.AmountCents()),
		))
	defer span.End()

	if params.AmountCents() <= 0 {
		return nil, fmt.Errorf("provisioning: checkout amount must be positive")
	}

	if s.dryRun {
		fakeID := "cs_dryrun_" + uuid.New().String()[:8]
		s.logger.Info("stripe dry run: skipping checkout session creation",
			"portal_key", params.PortalKey, "amount_cents", params.AmountCents())
		return &CheckoutSession{
			ID:          fakeID,
			URL:         fmt.Sprintf("https://checkout.stripe.com/dry-run/%s", fakeID),
			AmountCents: params.AmountCents(),
		}, nil
	}

	description := fmt.Sprintf("Lead package for %s (%d leads)", params.CompanyName, params.ChargeThreshold)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][unit_amount]", fmt.Sprintf("%d", params.UnitPriceCents))
	form.Set("line_items[0][price_data][product_data][name]", description)
	form.Set("line_items[0][quantity]", fmt.Sprintf("%d", params.ChargeThreshold))
	if params.BillingEmail != "" {
		form.Set("customer_email", params.BillingEmail)
	}

	successURL := params.SuccessURL
	if successURL == "" {
		successURL = s.successURL
	}
	cancelURL := params.CancelURL
	if cancelURL == "" {
		cancelURL = s.cancelURL
	}
	if successURL != "" {
		form.Set("success_url", successURL)
	}
	if cancelURL != "" {
		form.Set("cancel_url", cancelURL)
	}

	// Metadata for webhook correlation.
	form.Set("metadata[portal_key]", params.PortalKey)
	form.Set("metadata[billing_model]", params.BillingModel)
	form.Set("payment_intent_data[metadata][portal_key]", params.PortalKey)
	form.Set("payment_intent_data[metadata][billing_model]", params.BillingModel)

	apiURL := s.baseURL + "/v1/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("provisioning: stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Stripe-Version", s.apiVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provisioning: stripe http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provisioning: stripe api status %d: %s", resp.StatusCode, readStripeError(body))
	}

	var parsed stripeCheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("provisioning: stripe decode: %w", err)
	}
	if parsed.URL == "" {
		return nil, fmt.Errorf("provisioning: stripe response missing checkout url")
	}

	return &CheckoutSession{
		ID:          parsed.ID,
		URL:         parsed.URL,
		AmountCents: params.AmountCents(),
	}, nil
}

// stripeCheckoutSession is the subset of Stripe's Checkout Session we need.
type stripeCheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// readStripeError pulls the message out of a Stripe error body when present.
func readStripeError(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(body)
}
