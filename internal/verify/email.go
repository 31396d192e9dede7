// Package verify wraps the external verification collaborators used by the
// quiz funnel: email deliverability checks and address autocomplete.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leadforgehq/intake-platform/internal/intake"
	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// EmailResult is the deliverability verdict for one address.
type EmailResult struct {
	Email        string `json:"email"`
	Valid        bool   `json:"valid"`
	Reason       string `json:"reason,omitempty"`
	Suggestion   string `json:"suggestion,omitempty"`
	IsDisposable bool   `json:"isDisposable"`
}

// EmailVerifier checks whether an address is deliverable.
type EmailVerifier interface {
	VerifyEmail(ctx context.Context, email string) (*EmailResult, error)
}

// EmailClient verifies addresses against a ZeroBounce-style validation API.
type EmailClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewEmailClient creates an email verification client.
func NewEmailClient(baseURL, apiKey string, logger *logging.Logger) *EmailClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &EmailClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Configured reports whether a verification collaborator is wired up.
func (c *EmailClient) Configured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

// VerifyEmail checks one address. When no collaborator is configured it falls
// back to the local syntax check so the funnel keeps working.
func (c *EmailClient) VerifyEmail(ctx context.Context, email string) (*EmailResult, error) {
	email = strings.TrimSpace(email)
	if !intake.ValidEmail(email) {
		return &EmailResult{Email: email, Valid: false, Reason: "invalid syntax"}, nil
	}
	if !c.Configured() {
		return &EmailResult{Email: email, Valid: true}, nil
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("email", email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/validate?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("verify: email request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify: email http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("verify: email api status %d", resp.StatusCode)
	}

	var parsed struct {
		Status       string `json:"status"`
		SubStatus    string `json:"sub_status"`
		DidYouMean   string `json:"did_you_mean"`
		FreeEmail    bool   `json:"free_email"`
		IsDisposable bool   `json:"disposable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("verify: email decode: %w", err)
	}

	result := &EmailResult{
		Email:        email,
		Valid:        parsed.Status == "valid" || parsed.Status == "catch-all",
		Suggestion:   parsed.DidYouMean,
		IsDisposable: parsed.IsDisposable,
	}
	if !result.Valid {
		result.Reason = parsed.SubStatus
		if result.Reason == "" {
			result.Reason = parsed.Status
		}
	}
	return result, nil
}
