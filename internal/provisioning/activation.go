package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/leadforgehq/intake-platform/pkg/logging"
)

// Activation statuses returned by the account activation collaborator.
const (
	ActivationActivated = "activated"
	ActivationPending   = "pending"
)

// ActivationResult reports the outcome of finalizing an account after a
// successful payment redirect.
type ActivationResult struct {
	Status       string
	Reason       string
	InvitationID string
}

// ActivationClient finalizes account activation (portal invitation) with the
// identity collaborator once a checkout session completes.
type ActivationClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewActivationClient creates an activation client.
func NewActivationClient(baseURL, apiKey string, logger *logging.Logger) *ActivationClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &ActivationClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Configured reports whether an activation collaborator is wired up.
func (c *ActivationClient) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Finalize exchanges the checkout session ID for an account invitation.
func (c *ActivationClient) Finalize(ctx context.Context, sessionID, portalKey, email string) (*ActivationResult, error) {
	payload, err := json.Marshal(map[string]string{
		"sessionId": sessionID,
		"portalKey": portalKey,
		"email":     email,
	})
	if err != nil {
		return nil, fmt.Errorf("provisioning: marshal activation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/activations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("provisioning: activation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provisioning: activation http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("provisioning: activation api status %d", resp.StatusCode)
	}

	var parsed struct {
		Status       string `json:"status"`
		Reason       string `json:"reason"`
		InvitationID string `json:"invitationId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("provisioning: activation decode: %w", err)
	}
	if parsed.Status == "" {
		parsed.Status = ActivationPending
	}

	c.logger.Info("activation finalized", "portal_key", portalKey, "status", parsed.Status)
	return &ActivationResult{
		Status:       parsed.Status,
		Reason:       parsed.Reason,
		InvitationID: parsed.InvitationID,
	}, nil
}
