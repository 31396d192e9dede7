package provisioning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforgehq/intake-platform/pkg/logging"
)

func TestActivationClient_Finalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/activations", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cs_123", req["sessionId"])
		assert.Equal(t, "doe-roofing", req["portalKey"])

		w.Write([]byte(`{"status":"activated","invitationId":"inv_1"}`))
	}))
	defer srv.Close()

	c := NewActivationClient(srv.URL, "key-1", logging.New("error"))
	require.True(t, c.Configured())

	result, err := c.Finalize(context.Background(), "cs_123", "doe-roofing", "jane@doeroofing.com")
	require.NoError(t, err)
	assert.Equal(t, ActivationActivated, result.Status)
	assert.Equal(t, "inv_1", result.InvitationID)
}

func TestActivationClient_EmptyStatusDefaultsToPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reason":"awaiting payment confirmation"}`))
	}))
	defer srv.Close()

	c := NewActivationClient(srv.URL, "key-1", logging.New("error"))
	result, err := c.Finalize(context.Background(), "cs_123", "doe-roofing", "jane@doeroofing.com")
	require.NoError(t, err)
	assert.Equal(t, ActivationPending, result.Status)
	assert.Equal(t, "awaiting payment confirmation", result.Reason)
}

func TestActivationClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewActivationClient(srv.URL, "key-1", logging.New("error"))
	_, err := c.Finalize(context.Background(), "cs_123", "doe-roofing", "jane@doeroofing.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestActivationClient_Unconfigured(t *testing.T) {
	var nilClient *ActivationClient
	assert.False(t, nilClient.Configured())
	assert.False(t, NewActivationClient("", "", logging.New("error")).Configured())
}
