package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// HTTPProvisioner talks to the onboarding endpoints over JSON/HTTPS. It maps
// 429 and 5xx responses to CollaboratorError so the wizard can distinguish
// them, and parses every response body defensively: an empty body parses to
// nothing, malformed JSON is a failure, never a panic.
type HTTPProvisioner struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewHTTPProvisioner creates a client for the onboarding collaborator.
func NewHTTPProvisioner(baseURL string, logger *logging.Logger) *HTTPProvisioner {
	if logger == nil {
		logger = logging.Default()
	}
	return &HTTPProvisioner{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// submissionResponse mirrors the onboarding submission contract.
type submissionResponse struct {
	Success            bool   `json:"success"`
	PortalKey          string `json:"portalKey"`
	Error              string `json:"error"`
	StripeProvisioning *struct {
		Status  string `json:"status"`
		Err     string `json:"error"`
		Reason  string `json:"reason"`
		Details *struct {
			InitialCheckoutURL         string `json:"initialCheckoutUrl"`
			InitialCheckoutAmountCents int    `json:"initialCheckoutAmountCents"`
		} `json:"details"`
	} `json:"stripeProvisioning"`
}

// SubmitIntake posts the flattened form and returns the provisioning result.
func (p *HTTPProvisioner) SubmitIntake(ctx context.Context, token string, sub Submission) (*SubmissionResult, error) {
	var parsed submissionResponse
	if err := p.post(ctx, "/onboarding/intake", token, sub, &parsed); err != nil {
		return nil, err
	}
	if !parsed.Success {
		return nil, &CollaboratorError{Status: http.StatusBadRequest, Message: parsed.Error}
	}

	res := &SubmissionResult{
		PortalKey:    parsed.PortalKey,
		StripeStatus: StripeSkipped,
	}
	if sp := parsed.StripeProvisioning; sp != nil {
		res.StripeStatus = sp.Status
		switch sp.Status {
		case StripeProvisioned:
			if sp.Details != nil {
				res.StripeCheckoutURL = sp.Details.InitialCheckoutURL
				res.CheckoutAmountCents = sp.Details.InitialCheckoutAmountCents
			}
			res.StripeMessage = CheckoutMessage(res.CheckoutAmountCents)
		case StripeFailed:
			res.StripeMessage = firstNonEmpty(sp.Err, sp.Reason, "Billing setup failed, support will follow up")
		default:
			res.StripeMessage = firstNonEmpty(sp.Reason, "Billing setup deferred")
		}
	}
	return res, nil
}

// checkoutResponse mirrors the checkout regeneration contract.
type checkoutResponse struct {
	Success                    bool   `json:"success"`
	InitialCheckoutURL         string `json:"initialCheckoutUrl"`
	InitialCheckoutAmountCents int    `json:"initialCheckoutAmountCents"`
	Error                      string `json:"error"`
}

// RegenerateCheckout asks the collaborator for a fresh checkout link.
func (p *HTTPProvisioner) RegenerateCheckout(ctx context.Context, token string, req CheckoutRequest) (*CheckoutResult, error) {
	var parsed checkoutResponse
	if err := p.post(ctx, "/onboarding/checkout", token, req, &parsed); err != nil {
		return nil, err
	}
	if !parsed.Success || parsed.InitialCheckoutURL == "" {
		return nil, &CollaboratorError{Status: http.StatusBadRequest, Message: parsed.Error}
	}
	return &CheckoutResult{
		CheckoutURL: parsed.InitialCheckoutURL,
		AmountCents: parsed.InitialCheckoutAmountCents,
	}, nil
}

func (p *HTTPProvisioner) post(ctx context.Context, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("intake: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("intake: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("onboarding call failed", "path", path, "error", err)
		return fmt.Errorf("intake: %s: %w", path, ErrSubmitFailed)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return &CollaboratorError{Status: resp.StatusCode, Message: errorMessageFromBody(data)}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		p.logger.Error("malformed onboarding response", "path", path, "error", err)
		return fmt.Errorf("intake: %s: %w", path, ErrSubmitFailed)
	}
	return nil
}

// errorMessageFromBody pulls an error string out of a failure body when one
// is present. Malformed bodies yield an empty message.
func errorMessageFromBody(data []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &parsed) == nil {
		return parsed.Error
	}
	return ""
}
